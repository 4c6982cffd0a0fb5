package schema_test

import (
	"testing"

	"github.com/paveg/bikeshare/internal/dataframe"
	"github.com/paveg/bikeshare/internal/errors"
	"github.com/paveg/bikeshare/internal/schema"
	"github.com/paveg/bikeshare/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    schema.Variant
		wantErr bool
	}{
		{"", schema.VariantAuto, false},
		{"auto", schema.VariantAuto, false},
		{"Numeric", schema.VariantNumeric, false},
		{"labeled", schema.VariantLabeled, false},
		{"labelled", schema.VariantLabeled, false},
		{"roman", schema.VariantAuto, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := schema.ParseVariant(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHourSchemaExtendsDaySchema(t *testing.T) {
	for _, f := range schema.DaySchema.Fields {
		_, ok := schema.HourSchema.Field(f.Name)
		assert.True(t, ok, "hour schema lacks %s", f.Name)
	}
	_, ok := schema.DaySchema.Field(schema.ColHour)
	assert.False(t, ok)

	hr, ok := schema.HourSchema.Field(schema.ColHour)
	require.True(t, ok)
	assert.True(t, hr.InRange(0))
	assert.True(t, hr.InRange(23))
	assert.False(t, hr.InRange(24))

	cnt, _ := schema.DaySchema.Field(schema.ColCount)
	assert.True(t, cnt.InRange(1_000_000))
	assert.False(t, cnt.InRange(-1))
}

func TestDetect(t *testing.T) {
	numeric := series.New("season", []string{"1", " 2", "", "4.0"}, nil)
	defer numeric.Release()
	labeled := series.New("weathersit", []string{"1", "Clear"}, nil)
	defer labeled.Release()

	assert.Equal(t, schema.VariantNumeric, schema.Detect(map[string]schema.StringColumn{"season": numeric}))
	assert.Equal(t, schema.VariantLabeled, schema.Detect(map[string]schema.StringColumn{
		"season":     numeric,
		"weathersit": labeled,
	}))
	assert.Equal(t, schema.VariantNumeric, schema.Detect(nil))
}

func TestTableCapabilities(t *testing.T) {
	frame := dataframe.New(
		series.New(schema.ColSeason, []string{"Spring"}, nil),
		series.New(schema.ColCount, []int64{10}, nil),
		series.New("instant", []int64{1}, nil),
	)
	table := schema.NewTable(frame, schema.KindHour, schema.VariantLabeled)
	defer table.Release()

	assert.Equal(t, 1, table.Len())
	assert.Equal(t, []string{schema.ColCount, schema.ColSeason}, table.Caps.Columns())
	assert.False(t, table.Caps.HasColumn("instant"), "undeclared columns are not capabilities")

	require.NoError(t, table.Caps.Require("view", schema.ColSeason, schema.ColCount))
	err := table.Caps.Require("view", schema.ColSeason, schema.ColWeather)
	assert.ErrorIs(t, err, errors.ErrMissingColumn)

	var nilTable *schema.Table
	assert.Equal(t, 0, nilTable.Len())
}
