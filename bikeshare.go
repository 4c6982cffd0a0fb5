// Package bikeshare filters the bike-sharing day and hour tables and
// aggregates them into the fixed set of dashboard views.
// This package is the public API of the module.
//
// A typical session loads the tables once and recomputes the views for
// every change of selection:
//
//	ds, err := bikeshare.Load(ctx, "data/day.csv", "data/hour.csv")
//	if err != nil {
//		return err
//	}
//	defer ds.Release()
//
//	sel, err := bikeshare.NewSelection(
//		bikeshare.WithSeasons("Summer", "Fall"),
//		bikeshare.WithHours(7, 19),
//		bikeshare.WithMode(bikeshare.ModeSum),
//	)
//	if err != nil {
//		return err
//	}
//	for _, v := range bikeshare.Compute(ds, sel).Ordered() {
//		if !v.Available() {
//			fmt.Println(v.Name, "unavailable:", v.Reason())
//		}
//	}
package bikeshare

import (
	"context"
	"net/url"

	"github.com/paveg/bikeshare/internal/engine"
	"github.com/paveg/bikeshare/internal/errors"
	"github.com/paveg/bikeshare/internal/loader"
	"github.com/paveg/bikeshare/internal/normalize"
)

// Dataset holds the normalized day and hour tables.
type Dataset = loader.Dataset

// Report summarizes the cells nulled while normalizing a table.
type Report = normalize.Report

// Selection is the set of active filters plus the aggregation mode.
type Selection = engine.Selection

// SelectionOption configures a Selection.
type SelectionOption = engine.SelectionOption

// Mode is the aggregation applied to each group.
type Mode = engine.Mode

// View is one aggregated table, populated or carrying its failure.
type View = engine.View

// Views maps view names to views.
type Views = engine.Views

// FilterOptions lists the labels present in a table.
type FilterOptions = engine.FilterOptions

// LoadOption configures loading.
type LoadOption = loader.Option

const (
	ModeAverage = engine.ModeAverage
	ModeSum     = engine.ModeSum
)

// Errors reported by views, for use with errors.Is on View.Error.
var (
	ErrMissingColumn    = errors.ErrMissingColumn
	ErrEmptyResult      = errors.ErrEmptyResult
	ErrUnparseableValue = errors.ErrUnparseableValue
)

// Selection options.
var (
	WithSeasons     = engine.WithSeasons
	WithWeathers    = engine.WithWeathers
	WithWeekdays    = engine.WithWeekdays
	WithHours       = engine.WithHours
	WithWorkingOnly = engine.WithWorkingOnly
	WithMode        = engine.WithMode
)

// NewSelection builds a Selection. With no options every row is kept, the
// hour range is 0-23 and the mode is average.
func NewSelection(opts ...SelectionOption) (Selection, error) {
	return engine.NewSelection(opts...)
}

// ParseSelection builds a Selection from URL query parameters.
func ParseSelection(q url.Values) (Selection, error) {
	return engine.ParseSelection(q)
}

// Load reads and normalizes the day and hour tables from local paths or
// http(s) URLs. An empty location leaves that table unset.
func Load(ctx context.Context, daySource, hourSource string, opts ...LoadOption) (*Dataset, error) {
	return loader.New(opts...).Load(ctx, daySource, hourSource)
}

// Compute filters ds by sel and computes every view.
func Compute(ds *Dataset, sel Selection) Views {
	if ds == nil {
		return engine.ComputeViews(nil, nil, sel)
	}
	return engine.ComputeViews(ds.Day, ds.Hour, sel)
}

// Options lists the seasons, weathers and weekdays present in the day table.
func Options(ds *Dataset) FilterOptions {
	if ds == nil {
		return engine.Options(nil)
	}
	return engine.Options(ds.Day)
}

// ViewNames returns every view name in display order.
func ViewNames() []string {
	return engine.ViewNames()
}
