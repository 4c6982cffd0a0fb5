package loader_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/paveg/bikeshare/internal/config"
	"github.com/paveg/bikeshare/internal/engine"
	"github.com/paveg/bikeshare/internal/io"
	"github.com/paveg/bikeshare/internal/loader"
	"github.com/paveg/bikeshare/internal/schema"
	"github.com/paveg/bikeshare/internal/testutil"
	"github.com/paveg/bikeshare/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encode renders fixture rows in the given format.
func encode(t *testing.T, format io.Format, columns []string, rows []testutil.Row) []byte {
	t.Helper()
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	raw := testutil.RawFrame(mem.Allocator, columns, rows...)
	defer raw.Release()

	var buf bytes.Buffer
	switch format {
	case io.FormatParquet:
		require.NoError(t, io.NewParquetWriter(&buf, io.DefaultParquetOptions()).Write(raw))
	default:
		require.NoError(t, io.NewCSVWriter(&buf, io.DefaultCSVOptions()).Write(raw))
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoadLocalFiles(t *testing.T) {
	dayPath := writeFile(t, "day.csv", encode(t, io.FormatCSV, testutil.DayColumns, testutil.DayRows))
	hourPath := writeFile(t, "hour.parquet", encode(t, io.FormatParquet, testutil.HourColumns, testutil.HourRows))

	ds, err := loader.New().Load(context.Background(), dayPath, hourPath)
	require.NoError(t, err)
	defer ds.Release()

	require.NotNil(t, ds.Day)
	require.NotNil(t, ds.Hour)
	assert.Equal(t, len(testutil.DayRows), ds.Day.Len())
	assert.Equal(t, len(testutil.HourRows), ds.Hour.Len())
	assert.Equal(t, schema.VariantNumeric, ds.Day.Variant)
	assert.Equal(t, 0, ds.DayReport.Absorbed())

	views := engine.ComputeViews(ds.Day, ds.Hour, engine.DefaultSelection())
	for _, name := range engine.ViewNames() {
		testutil.AssertViewAvailable(t, views[name])
	}
}

func TestLoadMissingSourceLeavesTableNil(t *testing.T) {
	dayPath := writeFile(t, "day.csv", encode(t, io.FormatCSV, testutil.DayColumns, testutil.DayRows))

	ds, err := loader.New().Load(context.Background(), dayPath, "")
	require.NoError(t, err)
	defer ds.Release()

	assert.NotNil(t, ds.Day)
	assert.Nil(t, ds.Hour)
	assert.Nil(t, ds.HourReport)
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.New().Load(ctx, filepath.Join(t.TempDir(), "absent.csv"), "")
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("corrupt parquet", func(t *testing.T) {
		path := writeFile(t, "day.parquet", []byte("dteday,cnt\n2011-01-01,1\n"))
		_, err := loader.New().Load(ctx, path, "")
		require.Error(t, err)
	})

	t.Run("forced format overrides extension", func(t *testing.T) {
		path := writeFile(t, "day.data", encode(t, io.FormatParquet, testutil.DayColumns, testutil.DayRows))
		ds, err := loader.New(loader.WithFormat(io.FormatParquet)).Load(ctx, path, "")
		require.NoError(t, err)
		defer ds.Release()
		assert.Equal(t, len(testutil.DayRows), ds.Day.Len())
	})

	t.Run("json is not a source format", func(t *testing.T) {
		path := writeFile(t, "day.json", []byte(`{}`))
		_, err := loader.New().Load(ctx, path, "")
		require.Error(t, err)
	})
}

func TestLoadRemote(t *testing.T) {
	day := encode(t, io.FormatCSV, testutil.DayColumns, testutil.DayRows)
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/day.csv":
			hits.Add(1)
			assert.Equal(t, version.UserAgent(), r.UserAgent())
			_, _ = w.Write(day)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	t.Run("fetches csv", func(t *testing.T) {
		ds, err := loader.New().Load(context.Background(), srv.URL+"/day.csv?raw=1", "")
		require.NoError(t, err)
		defer ds.Release()
		assert.Equal(t, len(testutil.DayRows), ds.Day.Len())
	})

	t.Run("non-200 status", func(t *testing.T) {
		_, err := loader.New().Load(context.Background(), "", srv.URL+"/hour.csv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := loader.New().Load(ctx, srv.URL+"/day.csv", "")
		require.Error(t, err)
	})

	t.Run("source loads once", func(t *testing.T) {
		before := hits.Load()
		src := loader.NewSource(loader.New(), srv.URL+"/day.csv", "")
		defer src.Release()

		var wg sync.WaitGroup
		datasets := make([]*loader.Dataset, 8)
		for i := range datasets {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ds, err := src.Dataset(context.Background())
				assert.NoError(t, err)
				datasets[i] = ds
			}(i)
		}
		wg.Wait()

		assert.Equal(t, before+1, hits.Load())
		for _, ds := range datasets {
			assert.Same(t, datasets[0], ds)
		}
	})
}

func TestIsRemote(t *testing.T) {
	assert.True(t, loader.IsRemote("https://example.com/day.csv"))
	assert.True(t, loader.IsRemote("http://example.com/day.csv"))
	assert.False(t, loader.IsRemote("data/day.csv"))
	assert.False(t, loader.IsRemote("file:///data/day.csv"))
	assert.False(t, loader.IsRemote(`C:\data\day.csv`))
}

func TestNewFromConfig(t *testing.T) {
	path := writeFile(t, "day.csv", encode(t, io.FormatCSV, testutil.DayColumns, testutil.DayRows))

	cfg := config.NewConfig()
	cfg.DaySource = path
	cfg.Variant = "numeric"

	l, err := loader.NewFromConfig(cfg, nil)
	require.NoError(t, err)

	ds, err := l.Load(context.Background(), cfg.DaySource, cfg.HourSource)
	require.NoError(t, err)
	defer ds.Release()
	assert.Equal(t, schema.VariantNumeric, ds.Day.Variant)

	cfg.Variant = "bogus"
	_, err = loader.NewFromConfig(cfg, nil)
	require.Error(t, err)
}
