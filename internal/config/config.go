// Package config provides configuration management for the bikeshare tools.
//
// Configuration is read from a JSON or YAML file, overlaid with BIKESHARE_*
// environment variables and validated before use.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/paveg/bikeshare/internal/engine"
	"github.com/paveg/bikeshare/internal/io"
	"github.com/paveg/bikeshare/internal/normalize"
	"github.com/paveg/bikeshare/internal/schema"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration of the loader, engine and server.
type Config struct {
	// Source Configuration
	DaySource    string   `json:"day_source" yaml:"day_source"`       // Path or http(s) URL of the day table
	HourSource   string   `json:"hour_source" yaml:"hour_source"`     // Path or http(s) URL of the hour table
	Format       string   `json:"format" yaml:"format"`               // auto, csv, parquet or xlsx
	Variant      string   `json:"variant" yaml:"variant"`             // auto, numeric or labeled
	DateLayouts  []string `json:"date_layouts" yaml:"date_layouts"`   // Accepted dteday layouts, tried in order
	BaseYear     int      `json:"base_year" yaml:"base_year"`         // Year of yr = 0 when only yr is present
	FetchTimeout Duration `json:"fetch_timeout" yaml:"fetch_timeout"` // Timeout for remote sources

	// Engine Configuration
	DefaultMode string `json:"default_mode" yaml:"default_mode"` // average or sum

	// Server Configuration
	ListenAddr     string `json:"listen_addr" yaml:"listen_addr"`         // HTTP listen address
	MetricsEnabled bool   `json:"metrics_enabled" yaml:"metrics_enabled"` // Serve /metrics and record view metrics

	// Logging Configuration
	LogLevel  string `json:"log_level" yaml:"log_level"`   // debug, info, warn or error
	LogFormat string `json:"log_format" yaml:"log_format"` // text or json
}

// Duration is a time.Duration written as text ("30s") in config files.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default configuration values
const (
	DefaultFormat       = "auto"
	DefaultVariant      = "auto"
	DefaultFetchTimeout = 30 * time.Second
	DefaultMode         = "average"
	DefaultListenAddr   = ":8080"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		Format:       DefaultFormat,
		Variant:      DefaultVariant,
		DateLayouts:  append([]string(nil), normalize.DefaultDateLayouts...),
		BaseYear:     normalize.DefaultBaseYear,
		FetchTimeout: Duration{DefaultFetchTimeout},

		DefaultMode: DefaultMode,

		ListenAddr:     DefaultListenAddr,
		MetricsEnabled: true,

		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.DaySource == "" && c.HourSource == "" {
		return fmt.Errorf("at least one of day_source and hour_source must be set")
	}

	format, err := io.ParseFormat(c.Format)
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}
	if format == io.FormatJSON {
		return fmt.Errorf("format: json cannot be used for source tables")
	}

	if _, err := schema.ParseVariant(c.Variant); err != nil {
		return fmt.Errorf("variant: %w", err)
	}

	if _, err := engine.ParseMode(c.DefaultMode); err != nil {
		return fmt.Errorf("default_mode: %w", err)
	}

	if c.FetchTimeout.Duration < 0 {
		return fmt.Errorf("fetch_timeout must be non-negative, got %s", c.FetchTimeout)
	}

	if c.BaseYear < 0 {
		return fmt.Errorf("base_year must be non-negative, got %d", c.BaseYear)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}

	return nil
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.Format == "" {
		c.Format = defaults.Format
	}
	if c.Variant == "" {
		c.Variant = defaults.Variant
	}
	if len(c.DateLayouts) == 0 {
		c.DateLayouts = defaults.DateLayouts
	}
	if c.BaseYear == 0 {
		c.BaseYear = defaults.BaseYear
	}
	if c.FetchTimeout.Duration == 0 {
		c.FetchTimeout = defaults.FetchTimeout
	}
	if c.DefaultMode == "" {
		c.DefaultMode = defaults.DefaultMode
	}
	if c.ListenAddr == "" {
		c.ListenAddr = defaults.ListenAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaults.LogFormat
	}

	// Booleans are left alone: an explicit false cannot be told apart
	// from an unset field here. LoadFromFile decodes over NewConfig instead.

	return c
}

// LoadFromFile loads configuration from a .json, .yaml or .yml file
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	config := NewConfig()
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// Environment variables read by WithEnv.
const (
	EnvDaySource      = "BIKESHARE_DAY_SOURCE"
	EnvHourSource     = "BIKESHARE_HOUR_SOURCE"
	EnvFormat         = "BIKESHARE_FORMAT"
	EnvVariant        = "BIKESHARE_VARIANT"
	EnvDateLayouts    = "BIKESHARE_DATE_LAYOUTS"
	EnvBaseYear       = "BIKESHARE_BASE_YEAR"
	EnvFetchTimeout   = "BIKESHARE_FETCH_TIMEOUT"
	EnvDefaultMode    = "BIKESHARE_DEFAULT_MODE"
	EnvListenAddr     = "BIKESHARE_LISTEN_ADDR"
	EnvMetricsEnabled = "BIKESHARE_METRICS_ENABLED"
	EnvLogLevel       = "BIKESHARE_LOG_LEVEL"
	EnvLogFormat      = "BIKESHARE_LOG_FORMAT"
)

// WithEnv returns a copy of c overridden by any BIKESHARE_* variables that
// are set. Values that do not parse are ignored.
func (c Config) WithEnv() Config {
	setString := func(key string, dst *string) {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}

	setString(EnvDaySource, &c.DaySource)
	setString(EnvHourSource, &c.HourSource)
	setString(EnvFormat, &c.Format)
	setString(EnvVariant, &c.Variant)
	setString(EnvDefaultMode, &c.DefaultMode)
	setString(EnvListenAddr, &c.ListenAddr)
	setString(EnvLogLevel, &c.LogLevel)
	setString(EnvLogFormat, &c.LogFormat)

	if val := os.Getenv(EnvDateLayouts); val != "" {
		var layouts []string
		for _, layout := range strings.Split(val, ";") {
			if layout = strings.TrimSpace(layout); layout != "" {
				layouts = append(layouts, layout)
			}
		}
		if len(layouts) > 0 {
			c.DateLayouts = layouts
		}
	}

	if val := os.Getenv(EnvBaseYear); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			c.BaseYear = parsed
		}
	}

	if val := os.Getenv(EnvFetchTimeout); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			c.FetchTimeout = Duration{parsed}
		}
	}

	if val := os.Getenv(EnvMetricsEnabled); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			c.MetricsEnabled = parsed
		}
	}

	return c
}

// Merge returns a copy of c with every non-zero field of o applied on top.
// Booleans are not merged since an unset flag cannot be told from false.
func (c Config) Merge(o Config) Config {
	mergeString := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}

	mergeString(&c.DaySource, o.DaySource)
	mergeString(&c.HourSource, o.HourSource)
	mergeString(&c.Format, o.Format)
	mergeString(&c.Variant, o.Variant)
	mergeString(&c.DefaultMode, o.DefaultMode)
	mergeString(&c.ListenAddr, o.ListenAddr)
	mergeString(&c.LogLevel, o.LogLevel)
	mergeString(&c.LogFormat, o.LogFormat)

	if len(o.DateLayouts) > 0 {
		c.DateLayouts = append([]string(nil), o.DateLayouts...)
	}
	if o.BaseYear != 0 {
		c.BaseYear = o.BaseYear
	}
	if o.FetchTimeout.Duration != 0 {
		c.FetchTimeout = o.FetchTimeout
	}
	return c
}

// Load reads filename when it is not empty, applies the environment, then
// overrides, and validates the result. Precedence is overrides > environment
// > file > defaults.
func Load(filename string, overrides Config) (Config, error) {
	config := NewConfig()
	if filename != "" {
		var err error
		if config, err = LoadFromFile(filename); err != nil {
			return Config{}, err
		}
	}

	config = config.WithEnv().Merge(overrides)
	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}
