package engine_test

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/paveg/bikeshare/internal/engine"
	"github.com/paveg/bikeshare/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSelection(t *testing.T) {
	sel := engine.DefaultSelection()

	assert.Empty(t, sel.Seasons())
	assert.Empty(t, sel.Weathers())
	assert.Empty(t, sel.Weekdays())
	assert.Equal(t, engine.HourRange{Low: 0, High: 23}, sel.Hours())
	assert.False(t, sel.WorkingOnly())
	assert.Equal(t, engine.ModeAverage, sel.Mode())
}

func TestNewSelectionCanonicalizes(t *testing.T) {
	sel, err := engine.NewSelection(
		engine.WithSeasons("Winter", "1", " spring ", ""),
		engine.WithWeathers("Misty", "Clear"),
		engine.WithWeekdays("Saturday", "0"),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"Spring", "Winter"}, sel.Seasons(), "deduplicated and in declared order")
	assert.Equal(t, []string{"Clear", "Cloudy"}, sel.Weathers())
	assert.Equal(t, []string{"Sun", "Sat"}, sel.Weekdays())
}

func TestNewSelectionKeepsUnknownLabels(t *testing.T) {
	sel, err := engine.NewSelection(engine.WithSeasons("Monsoon", "Summer"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Summer", "Monsoon"}, sel.Seasons())
}

func TestNewSelectionErrors(t *testing.T) {
	tests := []struct {
		name string
		opt  engine.SelectionOption
	}{
		{"unknown season code", engine.WithSeasons("9")},
		{"hour below range", engine.WithHours(-1, 5)},
		{"hour above range", engine.WithHours(0, 24)},
		{"unknown mode", engine.WithMode(engine.Mode(7))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.NewSelection(tt.opt)
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
		})
	}
}

func TestInvertedHourRangeIsAllowed(t *testing.T) {
	sel, err := engine.NewSelection(engine.WithHours(9, 8))
	require.NoError(t, err)
	assert.False(t, sel.Hours().Contains(8))
	assert.False(t, sel.Hours().Contains(9))
}

func TestSelectionAccessorsCopy(t *testing.T) {
	sel, err := engine.NewSelection(engine.WithSeasons("Spring"))
	require.NoError(t, err)

	seasons := sel.Seasons()
	seasons[0] = "Winter"
	assert.Equal(t, []string{"Spring"}, sel.Seasons())
}

func TestSelectionString(t *testing.T) {
	sel, err := engine.NewSelection(
		engine.WithSeasons("Spring", "Summer"),
		engine.WithHours(6, 18),
		engine.WithWorkingOnly(true),
		engine.WithMode(engine.ModeSum),
	)
	require.NoError(t, err)

	assert.Equal(t,
		"Season = Spring, Summer | Weather = All | Weekday = All | Hours = 6-18 | Working day only = Yes | Mode = Sum",
		sel.String())
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    engine.Mode
		wantErr bool
	}{
		{"", engine.ModeAverage, false},
		{"mean", engine.ModeAverage, false},
		{"Average", engine.ModeAverage, false},
		{"SUM", engine.ModeSum, false},
		{"total", engine.ModeSum, false},
		{"median", engine.ModeAverage, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := engine.ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSelection(t *testing.T) {
	q := url.Values{
		"season":       {"Spring,Summer"},
		"weather":      {"1", "Rain"},
		"weekday":      {"Mon"},
		"hours":        {"7-9"},
		"working_only": {"true"},
		"mode":         {"sum"},
	}

	sel, err := engine.ParseSelection(q)
	require.NoError(t, err)

	assert.Equal(t, []string{"Spring", "Summer"}, sel.Seasons())
	assert.Equal(t, []string{"Clear", "Rain"}, sel.Weathers())
	assert.Equal(t, []string{"Mon"}, sel.Weekdays())
	assert.Equal(t, engine.HourRange{Low: 7, High: 9}, sel.Hours())
	assert.True(t, sel.WorkingOnly())
	assert.Equal(t, engine.ModeSum, sel.Mode())
}

func TestParseSelectionErrors(t *testing.T) {
	tests := []struct {
		name string
		q    url.Values
	}{
		{"bad hours", url.Values{"hours": {"a-b"}}},
		{"hours out of range", url.Values{"hours": {"0-30"}}},
		{"bad flag", url.Values{"working_only": {"maybe"}}},
		{"bad mode", url.Values{"mode": {"max"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.ParseSelection(tt.q)
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
		})
	}
}

func TestParseHoursSingleValue(t *testing.T) {
	low, high, err := engine.ParseHours("8")
	require.NoError(t, err)
	assert.Equal(t, 8, low)
	assert.Equal(t, 8, high)
}

func TestSelectionMarshalJSON(t *testing.T) {
	sel, err := engine.NewSelection(engine.WithWeekdays("Sun"), engine.WithMode(engine.ModeSum))
	require.NoError(t, err)

	data, err := json.Marshal(sel)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"seasons":[],"weathers":[],"weekdays":["Sun"],"hours":{"low":0,"high":23},"working_only":false,"mode":"sum"}`,
		string(data))
}
