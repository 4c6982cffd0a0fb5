// Package testutil provides fixtures and assertions shared by the package
// tests: a small numeric-coded day and hour dataset, raw frame builders and
// view assertions.
package testutil

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/bikeshare/internal/dataframe"
	"github.com/paveg/bikeshare/internal/engine"
	"github.com/paveg/bikeshare/internal/normalize"
	"github.com/paveg/bikeshare/internal/schema"
	"github.com/paveg/bikeshare/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryContext provides memory allocator with automatic cleanup.
type TestMemoryContext struct {
	Allocator memory.Allocator
	cleanup   func()
}

// Release performs cleanup of the memory context.
func (tmc *TestMemoryContext) Release() {
	if tmc.cleanup != nil {
		tmc.cleanup()
	}
}

// SetupMemoryTest creates a memory allocator for tests.
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	return &TestMemoryContext{
		Allocator: memory.NewGoAllocator(),
		cleanup:   func() {},
	}
}

// Row holds raw cell text keyed by column name. Absent keys become empty cells.
type Row map[string]string

// DayColumns is the column order of the day fixture.
var DayColumns = []string{
	schema.ColDate, schema.ColSeason, schema.ColWeather, schema.ColWeekday,
	schema.ColWorkingDay, schema.ColCasual, schema.ColRegistered, schema.ColCount,
}

// HourColumns is the column order of the hour fixture.
var HourColumns = []string{
	schema.ColDate, schema.ColHour, schema.ColSeason, schema.ColWeather, schema.ColWeekday,
	schema.ColWorkingDay, schema.ColCasual, schema.ColRegistered, schema.ColCount,
}

// DayRows is the raw day fixture in the numeric-coded scheme.
var DayRows = []Row{
	day("2011-01-01", "1", "2", "6", "0", "331", "654", "985"),
	day("2011-01-03", "1", "1", "1", "1", "120", "1229", "1349"),
	day("2011-04-04", "2", "1", "1", "1", "300", "2000", "2300"),
	day("2011-07-05", "3", "1", "2", "1", "900", "3000", "3900"),
	day("2011-10-10", "4", "3", "1", "1", "100", "900", "1000"),
	day("2012-01-02", "1", "1", "1", "1", "200", "2000", "2200"),
	day("2012-04-07", "2", "2", "6", "0", "2000", "3000", "5000"),
	day("2012-07-06", "3", "1", "5", "1", "1000", "5000", "6000"),
}

// HourRows is the raw hour fixture in the numeric-coded scheme.
var HourRows = []Row{
	hour("2011-01-01", "0", "1", "1", "6", "0", "3", "13", "16"),
	hour("2011-01-01", "8", "1", "2", "6", "0", "5", "20", "25"),
	hour("2011-01-03", "8", "1", "1", "1", "1", "10", "100", "110"),
	hour("2011-01-03", "17", "1", "1", "1", "1", "20", "200", "220"),
	hour("2011-07-05", "8", "3", "1", "2", "1", "30", "300", "330"),
	hour("2011-07-05", "17", "3", "3", "2", "1", "40", "400", "440"),
	hour("2012-04-07", "12", "2", "1", "6", "0", "50", "150", "200"),
	hour("2012-04-07", "17", "2", "2", "6", "0", "60", "240", "300"),
}

func day(date, season, weather, weekday, working, casual, registered, cnt string) Row {
	return Row{
		schema.ColDate: date, schema.ColSeason: season, schema.ColWeather: weather,
		schema.ColWeekday: weekday, schema.ColWorkingDay: working,
		schema.ColCasual: casual, schema.ColRegistered: registered, schema.ColCount: cnt,
	}
}

func hour(date, hr, season, weather, weekday, working, casual, registered, cnt string) Row {
	r := day(date, season, weather, weekday, working, casual, registered, cnt)
	r[schema.ColHour] = hr
	return r
}

// RawFrame builds a string-typed frame with the given columns from rows.
func RawFrame(allocator memory.Allocator, columns []string, rows ...Row) *dataframe.DataFrame {
	cols := make([]dataframe.ISeries, 0, len(columns))
	for _, name := range columns {
		values := make([]string, len(rows))
		for i, r := range rows {
			values[i] = r[name]
		}
		cols = append(cols, series.New(name, values, allocator))
	}
	return dataframe.New(cols...)
}

// FixtureOption configures fixture tables.
type FixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	drop map[string]bool
	rows []Row
}

// WithoutColumns drops columns from the fixture.
func WithoutColumns(columns ...string) FixtureOption {
	return func(cfg *fixtureConfig) {
		for _, c := range columns {
			cfg.drop[c] = true
		}
	}
}

// WithRows replaces the fixture rows.
func WithRows(rows ...Row) FixtureOption {
	return func(cfg *fixtureConfig) {
		cfg.rows = rows
	}
}

// NormalizedTable builds raw rows and runs them through the normalizer.
func NormalizedTable(tb testing.TB, allocator memory.Allocator, kind schema.Kind, columns []string, rows ...Row) *schema.Table {
	tb.Helper()
	raw := RawFrame(allocator, columns, rows...)
	defer raw.Release()

	table, _, err := normalize.New(normalize.WithAllocator(allocator)).Normalize(raw, kind)
	require.NoError(tb, err)
	return table
}

// CreateDayTable returns the normalized day fixture.
func CreateDayTable(tb testing.TB, allocator memory.Allocator, opts ...FixtureOption) *schema.Table {
	tb.Helper()
	return fixture(tb, allocator, schema.KindDay, DayColumns, DayRows, opts)
}

// CreateHourTable returns the normalized hour fixture.
func CreateHourTable(tb testing.TB, allocator memory.Allocator, opts ...FixtureOption) *schema.Table {
	tb.Helper()
	return fixture(tb, allocator, schema.KindHour, HourColumns, HourRows, opts)
}

func fixture(tb testing.TB, allocator memory.Allocator, kind schema.Kind, columns []string, rows []Row, opts []FixtureOption) *schema.Table {
	tb.Helper()
	cfg := &fixtureConfig{drop: make(map[string]bool), rows: rows}
	for _, opt := range opts {
		opt(cfg)
	}
	kept := make([]string, 0, len(columns))
	for _, c := range columns {
		if !cfg.drop[c] {
			kept = append(kept, c)
		}
	}
	return NormalizedTable(tb, allocator, kind, kept, cfg.rows...)
}

// AssertDataFrameEqual compares two frames column by column, cell by cell.
func AssertDataFrameEqual(t *testing.T, expected, actual *dataframe.DataFrame) {
	t.Helper()

	require.NotNil(t, expected, "expected DataFrame should not be nil")
	require.NotNil(t, actual, "actual DataFrame should not be nil")

	assert.Equal(t, expected.Len(), actual.Len(), "DataFrame lengths should match")
	assert.Equal(t, expected.Columns(), actual.Columns(), "DataFrame columns should match")

	for _, colName := range expected.Columns() {
		expectedCol, _ := expected.Column(colName)
		actualCol, exists := actual.Column(colName)
		require.True(t, exists, "actual column %s should exist", colName)
		assert.Equal(t, expectedCol.DataType(), actualCol.DataType(), "column %s type", colName)

		for i := 0; i < expected.Len() && i < actual.Len(); i++ {
			assert.Equal(t, expectedCol.IsNull(i), actualCol.IsNull(i), "column %s row %d null", colName, i)
			assert.Equal(t, expectedCol.GetAsString(i), actualCol.GetAsString(i), "column %s row %d", colName, i)
		}
	}
}

// AssertViewAvailable verifies that a view was computed with rows.
func AssertViewAvailable(t *testing.T, v engine.View) {
	t.Helper()
	require.Truef(t, v.Available(), "view %s unavailable: %v", v.Name, v.Err)
	assert.NotEmpty(t, v.Rows, "view %s should have rows", v.Name)
}

// AssertViewUnavailable verifies that a view failed with the given sentinel.
func AssertViewUnavailable(t *testing.T, v engine.View, sentinel error) {
	t.Helper()
	require.False(t, v.Available(), "view %s should be unavailable", v.Name)
	assert.ErrorIs(t, v.Err, sentinel)
	assert.Empty(t, v.Rows)
	assert.Equal(t, v.Name, v.Err.View)
}

// RowValues returns "key/key" -> value for compact assertions.
func RowValues(v engine.View) map[string]float64 {
	out := make(map[string]float64, len(v.Rows))
	for _, r := range v.Rows {
		out[rowLabel(r)] = r.Value
	}
	return out
}

// RowLabels returns the joined key labels of each row, in row order.
func RowLabels(v engine.View) []string {
	out := make([]string, len(v.Rows))
	for i, r := range v.Rows {
		out[i] = rowLabel(r)
	}
	return out
}

func rowLabel(r engine.Row) string {
	label := ""
	for i, k := range r.Keys {
		if i > 0 {
			label += "/"
		}
		label += k.Label
	}
	return label
}
