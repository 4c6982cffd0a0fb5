package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/paveg/bikeshare/internal/engine"
	"github.com/paveg/bikeshare/internal/loader"
	"github.com/paveg/bikeshare/internal/monitoring"
	"github.com/paveg/bikeshare/internal/schema"
	"github.com/paveg/bikeshare/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(global *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the views over HTTP",
		Long: `Loads the tables once and serves the views, filter options and health over
HTTP. Every request recomputes the views from the loaded tables; sources are
never re-read. Prometheus metrics are exposed on /metrics unless disabled.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, l, err := global.setup()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}
			mode, err := engine.ParseMode(cfg.DefaultMode)
			if err != nil {
				return err
			}

			var metrics *monitoring.Metrics
			if cfg.MetricsEnabled {
				metrics = monitoring.NewMetrics()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			source := loader.NewSource(l, cfg.DaySource, cfg.HourSource)
			defer source.Release()
			if err := preload(ctx, source, metrics); err != nil {
				return err
			}

			srv := server.New(source,
				server.WithLogger(logger),
				server.WithMetrics(metrics),
				server.WithDefaultMode(mode),
			)
			return srv.Run(ctx, cfg.ListenAddr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

// preload loads the dataset before the listener opens so that a bad source
// fails the command instead of every request.
func preload(ctx context.Context, source *loader.Source, metrics *monitoring.Metrics) error {
	return metrics.RecordOperation("load", func() error {
		ds, err := source.Dataset(ctx)
		if err != nil {
			return err
		}
		if ds.Day != nil {
			metrics.SetTableRows(schema.KindDay.String(), ds.Day.Len())
		}
		if ds.Hour != nil {
			metrics.SetTableRows(schema.KindHour.String(), ds.Hour.Len())
		}
		return nil
	})
}
