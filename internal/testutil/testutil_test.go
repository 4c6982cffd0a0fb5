package testutil_test

import (
	"testing"

	"github.com/paveg/bikeshare/internal/schema"
	"github.com/paveg/bikeshare/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestFixturesNormalize(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	day := testutil.CreateDayTable(t, mem.Allocator)
	defer day.Release()
	hour := testutil.CreateHourTable(t, mem.Allocator, testutil.WithoutColumns(schema.ColWeather))
	defer hour.Release()

	assert.Equal(t, len(testutil.DayRows), day.Len())
	assert.Equal(t, schema.VariantNumeric, day.Variant)
	assert.True(t, day.Caps.HasColumn(schema.ColYear))

	assert.Equal(t, len(testutil.HourRows), hour.Len())
	assert.False(t, hour.Caps.HasColumn(schema.ColWeather))
}

func TestRawFrameFillsMissingCells(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	raw := testutil.RawFrame(mem.Allocator, []string{"a", "b"}, testutil.Row{"a": "1"}, testutil.Row{"b": "2"})
	defer raw.Release()

	a, _ := raw.Column("a")
	b, _ := raw.Column("b")
	assert.Equal(t, "1", a.GetAsString(0))
	assert.Equal(t, "", a.GetAsString(1))
	assert.Equal(t, "2", b.GetAsString(1))

	testutil.AssertDataFrameEqual(t, raw, raw)
}
