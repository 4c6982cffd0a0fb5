package io_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/paveg/bikeshare/internal/dataframe"
	"github.com/paveg/bikeshare/internal/engine"
	"github.com/paveg/bikeshare/internal/io"
	"github.com/paveg/bikeshare/internal/series"
	"github.com/paveg/bikeshare/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestParquetRoundTrip(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	dates := []time.Time{
		time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2011, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2011, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	date, err := series.NewNullable("dteday", dates, nil, mem.Allocator)
	require.NoError(t, err)
	season, err := series.NewNullable("season", []string{"Spring", "", "Winter"}, []bool{true, false, true}, mem.Allocator)
	require.NoError(t, err)
	cnt, err := series.NewNullable("cnt", []int64{985, 801, 0}, []bool{true, true, false}, mem.Allocator)
	require.NoError(t, err)
	temp := series.New("temp", []float64{0.34, 0.36, 0.19}, mem.Allocator)

	df := dataframe.New(date, season, cnt, temp)
	defer df.Release()

	for _, compression := range []string{"snappy", "gzip", "zstd", "lz4", "uncompressed"} {
		t.Run(compression, func(t *testing.T) {
			options := io.ParquetOptions{Compression: compression, BatchSize: 2}

			var buf bytes.Buffer
			require.NoError(t, io.NewParquetWriter(&buf, options).Write(df))

			back, err := io.NewParquetReader(bytes.NewReader(buf.Bytes()), options, mem.Allocator).Read()
			require.NoError(t, err)
			defer back.Release()

			testutil.AssertDataFrameEqual(t, df, back)
		})
	}
}

func TestParquetReader_BatchSizes(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	hour := testutil.RawFrame(mem.Allocator, testutil.HourColumns, testutil.HourRows...)
	defer hour.Release()

	var buf bytes.Buffer
	require.NoError(t, io.NewParquetWriter(&buf, io.ParquetOptions{Compression: "snappy", BatchSize: 3}).Write(hour))

	for _, batchSize := range []int{0, 1, 5, 1000} {
		options := io.ParquetOptions{BatchSize: batchSize}
		back, err := io.NewParquetReader(bytes.NewReader(buf.Bytes()), options, mem.Allocator).Read()
		require.NoError(t, err, "batch size %d", batchSize)
		testutil.AssertDataFrameEqual(t, hour, back)
		back.Release()
	}
}

func TestParquetReader_InvalidData(t *testing.T) {
	_, err := io.NewParquetReader(bytes.NewReader([]byte("not parquet")), io.DefaultParquetOptions(), nil).Read()
	require.Error(t, err)

	_, err = io.NewParquetReader(bytes.NewReader(nil), io.DefaultParquetOptions(), nil).Read()
	require.Error(t, err)
}

func TestParquetViewWriter(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	hour := testutil.CreateHourTable(t, mem.Allocator)
	defer hour.Release()

	views := engine.ComputeViews(nil, hour, engine.DefaultSelection()).Ordered()

	var buf bytes.Buffer
	w, err := io.NewViewWriter(io.FormatParquet, &buf)
	require.NoError(t, err)
	require.NoError(t, w.WriteViews(engine.DefaultSelection(), views))

	back, err := io.NewParquetReader(bytes.NewReader(buf.Bytes()), io.DefaultParquetOptions(), mem.Allocator).Read()
	require.NoError(t, err)
	defer back.Release()

	expected, err := io.ViewsFrame(views, mem.Allocator)
	require.NoError(t, err)
	defer expected.Release()

	testutil.AssertDataFrameEqual(t, expected, back)
}
