package bikeshare_test

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/paveg/bikeshare"
	"github.com/paveg/bikeshare/internal/io"
	"github.com/paveg/bikeshare/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, name string, columns []string, rows []testutil.Row) string {
	t.Helper()
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	raw := testutil.RawFrame(mem.Allocator, columns, rows...)
	defer raw.Release()

	var buf bytes.Buffer
	require.NoError(t, io.NewCSVWriter(&buf, io.DefaultCSVOptions()).Write(raw))

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestLoadAndCompute(t *testing.T) {
	day := writeCSV(t, "day.csv", testutil.DayColumns, testutil.DayRows)
	hour := writeCSV(t, "hour.csv", testutil.HourColumns, testutil.HourRows)

	ds, err := bikeshare.Load(context.Background(), day, hour)
	require.NoError(t, err)
	defer ds.Release()

	sel, err := bikeshare.NewSelection(bikeshare.WithHours(8, 8), bikeshare.WithMode(bikeshare.ModeSum))
	require.NoError(t, err)

	views := bikeshare.Compute(ds, sel)
	require.Len(t, views, len(bikeshare.ViewNames()))

	dist := views["distribution_by_hour"]
	require.True(t, dist.Available())
	require.Len(t, dist.Rows, 1)
	assert.Equal(t, "8", dist.Rows[0].Keys[0].Label)
	assert.InDelta(t, 25+110+330, dist.Rows[0].Value, 1e-9)

	// Day views do not depend on the hour range.
	assert.True(t, views["totals_by_weather"].Available())
}

func TestComputeWithoutDataset(t *testing.T) {
	views := bikeshare.Compute(nil, mustSelection(t, url.Values{}))
	for _, name := range bikeshare.ViewNames() {
		assert.ErrorIs(t, views[name].Err, bikeshare.ErrMissingColumn, name)
	}
	assert.Empty(t, bikeshare.Options(nil).Seasons)
}

func TestParseSelectionEmptyResult(t *testing.T) {
	day := writeCSV(t, "day.csv", testutil.DayColumns, testutil.DayRows)
	ds, err := bikeshare.Load(context.Background(), day, "")
	require.NoError(t, err)
	defer ds.Release()

	sel := mustSelection(t, url.Values{"weather": {"Snow"}})
	views := bikeshare.Compute(ds, sel)

	assert.ErrorIs(t, views["totals_by_weather"].Err, bikeshare.ErrEmptyResult)
	assert.ErrorIs(t, views["pivot_weekday_hour"].Err, bikeshare.ErrMissingColumn)
	assert.Equal(t, []string{"Clear", "Cloudy", "Rain"}, bikeshare.Options(ds).Weathers)
}

func TestErrorsIsOnPopulatedViews(t *testing.T) {
	day := writeCSV(t, "day.csv", testutil.DayColumns, testutil.DayRows[:1])
	hour := writeCSV(t, "hour.csv", testutil.HourColumns, testutil.HourRows)
	ds, err := bikeshare.Load(context.Background(), day, hour)
	require.NoError(t, err)
	defer ds.Release()

	views := bikeshare.Compute(ds, mustSelection(t, url.Values{}))
	for _, v := range views.Ordered() {
		require.True(t, v.Available(), v.Name)
		assert.NotPanics(t, func() {
			assert.False(t, errors.Is(v.Err, bikeshare.ErrEmptyResult), v.Name)
			assert.False(t, errors.Is(v.Err, bikeshare.ErrMissingColumn), v.Name)
		}, v.Name)
		assert.NoError(t, v.Error(), v.Name)
		assert.Empty(t, v.Reason(), v.Name)
	}

	snow := bikeshare.Compute(ds, mustSelection(t, url.Values{"weather": {"Snow"}}))
	assert.ErrorIs(t, snow["totals_by_weather"].Error(), bikeshare.ErrEmptyResult)
}

func mustSelection(t *testing.T, q url.Values) bikeshare.Selection {
	t.Helper()
	sel, err := bikeshare.ParseSelection(q)
	require.NoError(t, err)
	return sel
}
