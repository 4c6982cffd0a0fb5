package main

import (
	"fmt"
	stdio "io"
	"os"

	"github.com/paveg/bikeshare/internal/engine"
	"github.com/paveg/bikeshare/internal/io"
	"github.com/spf13/cobra"
)

type viewsOptions struct {
	seasons     []string
	weathers    []string
	weekdays    []string
	hours       string
	workingOnly bool
	mode        string
	format      string
	out         string
	only        []string
}

func newViewsCmd(global *globalOptions) *cobra.Command {
	opts := &viewsOptions{}

	cmd := &cobra.Command{
		Use:   "views",
		Short: "Compute the views for a selection",
		Long: `Computes every view for the given selection and writes them as JSON, CSV,
XLSX or Parquet. Views that cannot be computed are reported with a reason
(missing-column or empty-after-filter) instead of failing the command.`,
		Example: `  bikeshare-cli views --day day.csv --hour hour.csv --season Summer,Fall --hours 7-19
  bikeshare-cli views --config bikeshare.yaml --weather Clear --mode sum --out views.xlsx`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runViews(cmd, global, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&opts.seasons, "season", nil, "seasons to keep (codes, names or aliases)")
	flags.StringSliceVar(&opts.weathers, "weather", nil, "weather situations to keep")
	flags.StringSliceVar(&opts.weekdays, "weekday", nil, "weekdays to keep")
	flags.StringVar(&opts.hours, "hours", "0-23", "inclusive hour range, low-high")
	flags.BoolVar(&opts.workingOnly, "working-only", false, "keep working days only")
	flags.StringVar(&opts.mode, "mode", "", "aggregation: average or sum (default from config)")
	flags.StringVar(&opts.format, "format", "", "output format: json, csv, xlsx or parquet (default from --out, else json)")
	flags.StringVarP(&opts.out, "out", "o", "-", "output file, - for stdout")
	flags.StringSliceVar(&opts.only, "view", nil, "limit output to these views")
	return cmd
}

func (o *viewsOptions) selection(defaultMode string) (engine.Selection, error) {
	low, high, err := engine.ParseHours(o.hours)
	if err != nil {
		return engine.Selection{}, err
	}
	modeText := o.mode
	if modeText == "" {
		modeText = defaultMode
	}
	mode, err := engine.ParseMode(modeText)
	if err != nil {
		return engine.Selection{}, err
	}
	return engine.NewSelection(
		engine.WithSeasons(o.seasons...),
		engine.WithWeathers(o.weathers...),
		engine.WithWeekdays(o.weekdays...),
		engine.WithHours(low, high),
		engine.WithWorkingOnly(o.workingOnly),
		engine.WithMode(mode),
	)
}

func (o *viewsOptions) outputFormat() (io.Format, error) {
	if o.format != "" {
		return io.ParseFormat(o.format)
	}
	if o.out == "-" || o.out == "" {
		return io.FormatJSON, nil
	}
	return io.DetectFormat(o.out), nil
}

func runViews(cmd *cobra.Command, global *globalOptions, opts *viewsOptions) error {
	cfg, logger, l, err := global.setup()
	if err != nil {
		return err
	}

	sel, err := opts.selection(cfg.DefaultMode)
	if err != nil {
		return err
	}
	format, err := opts.outputFormat()
	if err != nil {
		return err
	}

	ds, err := l.Load(cmd.Context(), cfg.DaySource, cfg.HourSource)
	if err != nil {
		return err
	}
	defer ds.Release()

	views := engine.New(engine.WithLogger(logger)).ComputeViews(ds.Day, ds.Hour, sel)
	ordered := views.Ordered()
	if len(opts.only) > 0 {
		ordered = ordered[:0]
		for _, name := range opts.only {
			v, ok := views[name]
			if !ok {
				return fmt.Errorf("unknown view %q", name)
			}
			ordered = append(ordered, v)
		}
	}

	var w stdio.Writer = cmd.OutOrStdout()
	if opts.out != "-" && opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", opts.out, err)
		}
		defer f.Close()
		w = f
	}

	writer, err := io.NewViewWriter(format, w)
	if err != nil {
		return err
	}
	if err := writer.WriteViews(sel, ordered); err != nil {
		return fmt.Errorf("writing views: %w", err)
	}

	for _, v := range ordered {
		if !v.Available() {
			logger.WithField("view", v.Name).Warnf("view unavailable: %s", v.Reason())
		}
	}
	return nil
}
