package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/paveg/bikeshare/internal/normalize"
	"github.com/paveg/bikeshare/internal/schema"
	"github.com/spf13/cobra"
)

func newSchemaCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Describe the loaded tables",
		Long: `Loads the configured tables and prints the detected label scheme, the row
count, the available columns and the normalization report for each one.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, l, err := global.setup()
			if err != nil {
				return err
			}
			ds, err := l.Load(cmd.Context(), cfg.DaySource, cfg.HourSource)
			if err != nil {
				return err
			}
			defer ds.Release()

			out := cmd.OutOrStdout()
			describe(out, schema.KindDay, ds.Day, ds.DayReport)
			fmt.Fprintln(out)
			describe(out, schema.KindHour, ds.Hour, ds.HourReport)
			return nil
		},
	}
}

func describe(out io.Writer, kind schema.Kind, t *schema.Table, report *normalize.Report) {
	if t == nil {
		fmt.Fprintf(out, "%s: not configured\n", kind)
		return
	}
	fmt.Fprintf(out, "%s: %s, %d rows\n", kind, t.Variant, t.Len())
	fmt.Fprintf(out, "  columns: %s\n", strings.Join(t.Caps.Columns(), ", "))
	if report != nil {
		fmt.Fprintf(out, "  %s\n", report.String())
		fmt.Fprintf(out, "  absorbed cells: %d\n", report.Absorbed())
	}
}
