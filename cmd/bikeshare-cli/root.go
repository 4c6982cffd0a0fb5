package main

import (
	"github.com/paveg/bikeshare/internal/config"
	"github.com/paveg/bikeshare/internal/loader"
	"github.com/paveg/bikeshare/internal/logging"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	cfgFile    string
	daySource  string
	hourSource string
	format     string
	variant    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "bikeshare-cli",
		Short: "Filter and aggregate bike-sharing usage tables",
		Long: `bikeshare-cli loads the daily and hourly bike-sharing tables (CSV, Parquet or
XLSX, local or over http(s)), applies a season/weather/weekday/hour selection
and computes the dashboard views: yearly trend by season, hourly distribution,
totals by weather, casual vs registered by year and the weekday/season by hour
pivots.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (.yaml, .yml or .json)")
	flags.StringVar(&opts.daySource, "day", "", "day table path or URL (overrides config)")
	flags.StringVar(&opts.hourSource, "hour", "", "hour table path or URL (overrides config)")
	flags.StringVar(&opts.format, "source-format", "", "source format: auto, csv, parquet or xlsx")
	flags.StringVar(&opts.variant, "variant", "", "label scheme: auto, numeric or labeled")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newViewsCmd(opts),
		newServeCmd(opts),
		newSchemaCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig reads the config file and environment, then applies flags.
func (o *globalOptions) loadConfig() (config.Config, error) {
	return config.Load(o.cfgFile, config.Config{
		DaySource:  o.daySource,
		HourSource: o.hourSource,
		Format:     o.format,
		Variant:    o.variant,
		LogLevel:   o.logLevel,
	})
}

// setup loads the configuration and builds the logger and loader.
func (o *globalOptions) setup() (config.Config, logging.Logger, *loader.Loader, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	l, err := loader.NewFromConfig(cfg, logger)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, logger, l, nil
}
