package dataframe_test

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/bikeshare/internal/dataframe"
	"github.com/paveg/bikeshare/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestDataFrame(t *testing.T) *dataframe.DataFrame {
	t.Helper()
	mem := memory.NewGoAllocator()

	season := series.New("season", []string{"Spring", "Summer", "Fall"}, mem)
	hr := series.New("hr", []int64{8, 9, 17}, mem)
	temp := series.New("temp", []float64{0.2, 0.5, 0.7}, mem)

	// DataFrame takes ownership of the series
	return dataframe.New(season, hr, temp)
}

func TestNewDataFrame(t *testing.T) {
	df := createTestDataFrame(t)
	defer df.Release()

	assert.Equal(t, 3, df.Len())
	assert.Equal(t, 3, df.Width())
	assert.Equal(t, []string{"season", "hr", "temp"}, df.Columns())
	assert.True(t, df.HasColumn("hr"))
	assert.False(t, df.HasColumn("cnt"))
}

func TestNewSafe_LengthMismatch(t *testing.T) {
	a := series.New("a", []int64{1, 2}, nil)
	b := series.New("b", []int64{1}, nil)
	defer a.Release()
	defer b.Release()

	_, err := dataframe.NewSafe(a, b)
	assert.Error(t, err)
}

func TestTypedAccessors(t *testing.T) {
	df := createTestDataFrame(t)
	defer df.Release()

	_, ok := df.Strings("season")
	assert.True(t, ok)
	_, ok = df.Int64s("hr")
	assert.True(t, ok)
	_, ok = df.Float64s("temp")
	assert.True(t, ok)

	_, ok = df.Int64s("season")
	assert.False(t, ok, "wrong element type")
	_, ok = df.Strings("missing")
	assert.False(t, ok)
}

func TestTake(t *testing.T) {
	df := createTestDataFrame(t)
	defer df.Release()

	taken, err := df.Take([]int{2, 0}, nil)
	require.NoError(t, err)
	defer taken.Release()

	assert.Equal(t, 2, taken.Len())
	seasons, _ := taken.Strings("season")
	values, _ := seasons.Values()
	assert.Equal(t, []string{"Fall", "Spring"}, values)

	// the source keeps every row
	assert.Equal(t, 3, df.Len())
	src, _ := df.Strings("season")
	srcValues, _ := src.Values()
	assert.Equal(t, []string{"Spring", "Summer", "Fall"}, srcValues)
}

func TestTake_Empty(t *testing.T) {
	df := createTestDataFrame(t)
	defer df.Release()

	taken, err := df.Take(nil, nil)
	require.NoError(t, err)
	defer taken.Release()

	assert.Equal(t, 0, taken.Len())
	assert.Equal(t, df.Columns(), taken.Columns())
}

func TestString(t *testing.T) {
	df := createTestDataFrame(t)
	defer df.Release()

	assert.Contains(t, df.String(), "DataFrame[3x3]")
	assert.Contains(t, df.String(), "season: utf8")
	assert.Equal(t, "DataFrame[empty]", dataframe.New().String())
}
