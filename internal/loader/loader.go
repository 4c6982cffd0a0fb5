// Package loader fetches the day and hour source tables from local files or
// http(s) URLs, reads them in their detected format and normalizes them into
// a Dataset.
package loader

import (
	"context"
	"fmt"
	stdio "io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/bikeshare/internal/config"
	"github.com/paveg/bikeshare/internal/io"
	"github.com/paveg/bikeshare/internal/logging"
	"github.com/paveg/bikeshare/internal/normalize"
	"github.com/paveg/bikeshare/internal/schema"
	"github.com/paveg/bikeshare/internal/version"
)

// DefaultTimeout bounds a remote fetch when no client is configured.
const DefaultTimeout = 30 * time.Second

// Dataset is the pair of normalized tables the engine reads. Either table
// may be nil when its source was not configured. A Dataset is immutable.
type Dataset struct {
	Day        *schema.Table
	Hour       *schema.Table
	DayReport  *normalize.Report
	HourReport *normalize.Report
}

// Release releases both tables.
func (d *Dataset) Release() {
	if d == nil {
		return
	}
	d.Day.Release()
	d.Hour.Release()
}

// Loader reads and normalizes source tables.
type Loader struct {
	client     *http.Client
	format     io.Format
	normalizer *normalize.Normalizer
	logger     logging.Logger
	mem        memory.Allocator
}

// Option configures a Loader.
type Option func(*loaderConfig)

type loaderConfig struct {
	client    *http.Client
	timeout   time.Duration
	format    io.Format
	normalize []normalize.Option
	logger    logging.Logger
	mem       memory.Allocator
}

// WithHTTPClient sets the client used for remote sources.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *loaderConfig) { cfg.client = c }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cfg *loaderConfig) { cfg.timeout = d }
}

// WithFormat forces the source format instead of detecting it from the name.
func WithFormat(f io.Format) Option {
	return func(cfg *loaderConfig) { cfg.format = f }
}

// WithNormalizeOptions passes options to the normalizer.
func WithNormalizeOptions(opts ...normalize.Option) Option {
	return func(cfg *loaderConfig) { cfg.normalize = append(cfg.normalize, opts...) }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(cfg *loaderConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithAllocator sets the Arrow allocator.
func WithAllocator(mem memory.Allocator) Option {
	return func(cfg *loaderConfig) {
		if mem != nil {
			cfg.mem = mem
		}
	}
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	cfg := &loaderConfig{
		timeout: DefaultTimeout,
		format:  io.FormatAuto,
		logger:  logging.Discard(),
		mem:     memory.NewGoAllocator(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.client == nil {
		cfg.client = &http.Client{Timeout: cfg.timeout}
	}

	normalizeOpts := append([]normalize.Option{
		normalize.WithLogger(cfg.logger),
		normalize.WithAllocator(cfg.mem),
	}, cfg.normalize...)

	return &Loader{
		client:     cfg.client,
		format:     cfg.format,
		normalizer: normalize.New(normalizeOpts...),
		logger:     cfg.logger.WithField("component", "loader"),
		mem:        cfg.mem,
	}
}

// NewFromConfig creates a Loader from configuration.
func NewFromConfig(cfg config.Config, logger logging.Logger) (*Loader, error) {
	format, err := io.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	variant, err := schema.ParseVariant(cfg.Variant)
	if err != nil {
		return nil, err
	}
	return New(
		WithTimeout(cfg.FetchTimeout.Duration),
		WithFormat(format),
		WithLogger(logger),
		WithNormalizeOptions(
			normalize.WithVariant(variant),
			normalize.WithDateLayouts(cfg.DateLayouts...),
			normalize.WithBaseYear(cfg.BaseYear),
		),
	), nil
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Open opens location, a local path or an http(s) URL.
func (l *Loader) Open(ctx context.Context, location string) (stdio.ReadCloser, error) {
	if !IsRemote(location) {
		f, err := os.Open(strings.TrimPrefix(location, "file://"))
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", location, err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", location, err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", location, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: status %d", location, resp.StatusCode)
	}
	return resp.Body, nil
}

// LoadTable reads location and normalizes it as kind.
func (l *Loader) LoadTable(ctx context.Context, location string, kind schema.Kind) (*schema.Table, *normalize.Report, error) {
	start := time.Now()

	format := l.format
	if format == io.FormatAuto {
		format = io.DetectFormat(location)
	}

	rc, err := l.Open(ctx, location)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	reader, err := io.NewSourceReader(format, rc, l.mem)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s table: %w", kind, err)
	}
	raw, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s table from %s: %w", kind, location, err)
	}
	defer raw.Release()

	table, report, err := l.normalizer.Normalize(raw, kind)
	if err != nil {
		return nil, nil, fmt.Errorf("normalizing %s table: %w", kind, err)
	}

	l.logger.WithFields(map[string]interface{}{
		"table":    kind.String(),
		"source":   location,
		"format":   string(format),
		"rows":     table.Len(),
		"variant":  table.Variant.String(),
		"duration": time.Since(start).String(),
	}).Infof("Loaded %s table", kind)
	return table, report, nil
}

// Load reads both tables. An empty location leaves that table nil so the
// views depending on it report a missing column.
func (l *Loader) Load(ctx context.Context, daySource, hourSource string) (*Dataset, error) {
	ds := &Dataset{}
	if daySource != "" {
		table, report, err := l.LoadTable(ctx, daySource, schema.KindDay)
		if err != nil {
			return nil, err
		}
		ds.Day, ds.DayReport = table, report
	}
	if hourSource != "" {
		table, report, err := l.LoadTable(ctx, hourSource, schema.KindHour)
		if err != nil {
			ds.Release()
			return nil, err
		}
		ds.Hour, ds.HourReport = table, report
	}
	return ds, nil
}

// Source loads a Dataset on first use and hands the same Dataset to every
// caller afterwards.
type Source struct {
	loader     *Loader
	daySource  string
	hourSource string

	once    sync.Once
	dataset *Dataset
	err     error
}

// NewSource creates a Source for the given locations.
func NewSource(l *Loader, daySource, hourSource string) *Source {
	return &Source{loader: l, daySource: daySource, hourSource: hourSource}
}

// Dataset returns the loaded Dataset. The first call loads it; a load error
// is returned to every caller.
func (s *Source) Dataset(ctx context.Context) (*Dataset, error) {
	s.once.Do(func() {
		s.dataset, s.err = s.loader.Load(ctx, s.daySource, s.hourSource)
	})
	return s.dataset, s.err
}

// Release releases the Dataset if it was loaded.
func (s *Source) Release() {
	s.dataset.Release()
}
