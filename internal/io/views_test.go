package io_test

import (
	"testing"

	"github.com/paveg/bikeshare/internal/dataframe"
	"github.com/paveg/bikeshare/internal/engine"
	"github.com/paveg/bikeshare/internal/io"
	"github.com/paveg/bikeshare/internal/schema"
	"github.com/paveg/bikeshare/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewsFrame(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	day := testutil.CreateDayTable(t, mem.Allocator)
	defer day.Release()

	views := engine.ComputeViews(day, nil, engine.DefaultSelection())
	weather := views[engine.ViewTotalsByWeather]
	distribution := views[engine.ViewDistributionByHour]

	frame, err := io.ViewsFrame([]engine.View{weather, distribution}, mem.Allocator)
	require.NoError(t, err)
	defer frame.Release()

	assert.Equal(t, []string{
		io.ColView, io.ColStatus, io.ColDimension1, io.ColKey1,
		io.ColDimension2, io.ColKey2, io.ColValue, io.ColRowCount,
	}, frame.Columns())
	require.Equal(t, len(weather.Rows)+1, frame.Len())

	status, _ := frame.Strings(io.ColStatus)
	dim1, _ := frame.Strings(io.ColDimension1)
	key1, _ := frame.Strings(io.ColKey1)
	dim2, _ := frame.Strings(io.ColDimension2)
	value, _ := frame.Float64s(io.ColValue)

	for i, r := range weather.Rows {
		got, _ := status.Value(i)
		assert.Equal(t, io.StatusOK, got)
		d, _ := dim1.Value(i)
		assert.Equal(t, schema.ColWeather, d)
		k, _ := key1.Value(i)
		assert.Equal(t, r.Keys[0].Label, k)
		assert.True(t, dim2.IsNull(i), "single-dimension view has no second key")
		v, _ := value.Value(i)
		assert.InDelta(t, r.Value, v, 1e-9)
	}

	last := frame.Len() - 1
	got, _ := status.Value(last)
	assert.Equal(t, distribution.Reason(), got)
	assert.True(t, key1.IsNull(last))
	assert.True(t, value.IsNull(last))
}

func TestViewsFrame_Empty(t *testing.T) {
	frame, err := io.ViewsFrame(nil, nil)
	require.NoError(t, err)
	defer frame.Release()

	assert.Equal(t, 0, frame.Len())
	assert.Len(t, frame.Columns(), 8)
}

func TestNewViewsDocument(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	day := testutil.CreateDayTable(t, mem.Allocator)
	defer day.Release()

	sel, err := engine.NewSelection(engine.WithWeathers("Snow"))
	require.NoError(t, err)

	views := engine.ComputeViews(day, nil, sel).Ordered()
	doc := io.NewViewsDocument(sel, views)

	assert.Equal(t, sel.String(), doc.Summary)
	require.Len(t, doc.Views, len(engine.ViewNames()))
	for _, v := range doc.Views {
		assert.False(t, v.Available, v.Name)
		assert.NotEmpty(t, v.Reason, v.Name)
		assert.NotNil(t, v.Rows, "rows are never null in documents")
	}
	assert.Equal(t, schema.ColHour, doc.Views[1].Column)
}

type recordingWriter struct {
	columns []string
	rows    int
}

func (w *recordingWriter) Write(df *dataframe.DataFrame) error {
	w.columns = df.Columns()
	w.rows = df.Len()
	return nil
}

func TestFrameViewWriter(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	day := testutil.CreateDayTable(t, mem.Allocator)
	defer day.Release()

	views := engine.ComputeViews(day, nil, engine.DefaultSelection()).Ordered()
	expected, err := io.ViewsFrame(views, mem.Allocator)
	require.NoError(t, err)
	defer expected.Release()

	rec := &recordingWriter{}
	var w io.ViewWriter = io.NewFrameViewWriter(rec)
	require.NoError(t, w.WriteViews(engine.DefaultSelection(), views))

	assert.Equal(t, expected.Columns(), rec.columns)
	assert.Equal(t, expected.Len(), rec.rows)
}
