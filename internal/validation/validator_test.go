package validation_test

import (
	"testing"

	"github.com/paveg/bikeshare/internal/errors"
	"github.com/paveg/bikeshare/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTable struct {
	columns []string
	rows    int
}

func (f fakeTable) HasColumn(name string) bool {
	for _, c := range f.columns {
		if c == name {
			return true
		}
	}
	return false
}

func (f fakeTable) Columns() []string { return f.columns }
func (f fakeTable) Len() int          { return f.rows }

func TestColumnValidator(t *testing.T) {
	table := fakeTable{columns: []string{"season", "hr", "cnt"}, rows: 3}

	require.NoError(t, validation.ValidateColumns(table, "ComputeViews", "season", "cnt"))

	err := validation.ValidateColumns(table, "ComputeViews", "hr", "weathersit", "weekday")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingColumn)

	var dfErr *errors.DataFrameError
	require.ErrorAs(t, err, &dfErr)
	assert.Equal(t, "weathersit", dfErr.Column)
}

func TestRangeValidator(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"lower bound", 0, false},
		{"upper bound", 23, false},
		{"below", -1, true},
		{"above", 24, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.NewRangeValidator("Selection", "hour", tt.value, 0, 23).Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNotEmptyValidator(t *testing.T) {
	assert.NoError(t, validation.ValidateNotEmpty(fakeTable{rows: 1}, "Filter"))
	assert.ErrorIs(t, validation.ValidateNotEmpty(fakeTable{}, "Filter"), errors.ErrEmptyResult)
}

func TestCompoundValidator(t *testing.T) {
	table := fakeTable{columns: []string{"hr"}, rows: 0}
	v := validation.NewCompoundValidator(
		validation.NewColumnValidator(table, "op", "hr"),
		validation.NewNotEmptyValidator(table, "op"),
		validation.NewColumnValidator(table, "op", "cnt"),
	)

	err := v.Validate()
	assert.ErrorIs(t, err, errors.ErrEmptyResult, "first failure wins")
}
