package engine

import (
	"sort"

	"github.com/paveg/bikeshare/internal/dataframe"
	"github.com/paveg/bikeshare/internal/errors"
	"github.com/paveg/bikeshare/internal/labels"
	"github.com/paveg/bikeshare/internal/schema"
	"github.com/paveg/bikeshare/internal/validation"
)

// View names.
const (
	ViewTrendByYearSeason      = "trend_by_year_season"
	ViewDistributionByHour     = "distribution_by_hour"
	ViewTotalsByWeather        = "totals_by_weather"
	ViewCasualVsRegisteredYear = "casual_vs_registered_by_year"
	ViewPivotWeekdayHour       = "pivot_weekday_hour"
	ViewPivotSeasonHour        = "pivot_season_hour"
)

// DimensionUserType keys the casual/registered split.
const DimensionUserType = "user_type"

const opComputeViews = "ComputeViews"

// ViewNames returns every view name in display order.
func ViewNames() []string {
	return []string{
		ViewTrendByYearSeason,
		ViewDistributionByHour,
		ViewTotalsByWeather,
		ViewCasualVsRegisteredYear,
		ViewPivotWeekdayHour,
		ViewPivotSeasonHour,
	}
}

// Row is one aggregated cell: its keys in view dimension order, the reduced
// value and the number of source rows reduced.
type Row struct {
	Keys  []Key   `json:"keys"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// Key returns the label of the key for dimension, or "".
func (r Row) Key(dimension string) string {
	for _, k := range r.Keys {
		if k.Dimension == dimension {
			return k.Label
		}
	}
	return ""
}

// Point is one (hour, count) observation of the hourly table.
type Point struct {
	Hour  int64 `json:"hour"`
	Count int64 `json:"count"`
}

// HourSummary is the box-plot summary of one hour.
type HourSummary struct {
	Hour int64 `json:"hour"`
	Summary
}

// View is an aggregated table. A view that could not be computed has no rows
// and carries Err.
type View struct {
	Name       string                 `json:"name"`
	Dimensions []string               `json:"dimensions"`
	Mode       Mode                   `json:"mode"`
	Rows       []Row                  `json:"rows"`
	Raw        []Point                `json:"raw,omitempty"`
	Summaries  []HourSummary          `json:"summaries,omitempty"`
	Err        *errors.DataFrameError `json:"-"`
}

// Available reports whether the view was computed.
func (v View) Available() bool {
	return v.Err == nil
}

// Reason returns why the view is unavailable, or "".
func (v View) Reason() string {
	return v.Err.Reason()
}

// Error returns the failure of an unavailable view, or a nil error for a
// populated one. Prefer it over Err when calling errors.Is.
func (v View) Error() error {
	if v.Err == nil {
		return nil
	}
	return v.Err
}

// Views maps view names to views.
type Views map[string]View

// Ordered returns the views in ViewNames order.
func (vs Views) Ordered() []View {
	out := make([]View, 0, len(vs))
	for _, name := range ViewNames() {
		if v, ok := vs[name]; ok {
			out = append(out, v)
		}
	}
	return out
}

// viewDef declares how one view is computed.
type viewDef struct {
	name       string
	source     schema.Kind
	dimensions []string
	requires   []string
	build      func(frame *dataframe.DataFrame, rows []int, v *View)
}

var viewDefs = []viewDef{
	{
		name:       ViewTrendByYearSeason,
		source:     schema.KindDay,
		dimensions: []string{schema.ColSeason, schema.ColYear},
		requires:   []string{schema.ColYear, schema.ColSeason, schema.ColCount},
		build: func(frame *dataframe.DataFrame, rows []int, v *View) {
			v.Rows = aggregate(frame, rows, schema.ColCount, v.Mode,
				labelKey(frame, schema.ColSeason, labels.Season),
				ordinalKey(frame, schema.ColYear))
		},
	},
	{
		name:       ViewDistributionByHour,
		source:     schema.KindHour,
		dimensions: []string{schema.ColHour},
		requires:   []string{schema.ColHour, schema.ColCount},
		build:      buildDistribution,
	},
	{
		name:       ViewTotalsByWeather,
		source:     schema.KindDay,
		dimensions: []string{schema.ColWeather},
		requires:   []string{schema.ColWeather, schema.ColCount},
		build: func(frame *dataframe.DataFrame, rows []int, v *View) {
			v.Rows = aggregate(frame, rows, schema.ColCount, v.Mode,
				labelKey(frame, schema.ColWeather, labels.Weather))
		},
	},
	{
		name:       ViewCasualVsRegisteredYear,
		source:     schema.KindDay,
		dimensions: []string{DimensionUserType, schema.ColYear},
		requires:   []string{schema.ColYear, schema.ColCasual, schema.ColRegistered},
		build: func(frame *dataframe.DataFrame, rows []int, v *View) {
			for rank, column := range []string{schema.ColCasual, schema.ColRegistered} {
				userType := constantKey(Key{Dimension: DimensionUserType, Label: column, Rank: rank})
				v.Rows = append(v.Rows, aggregate(frame, rows, column, v.Mode,
					userType, ordinalKey(frame, schema.ColYear))...)
			}
		},
	},
	{
		name:       ViewPivotWeekdayHour,
		source:     schema.KindHour,
		dimensions: []string{schema.ColWeekday, schema.ColHour},
		requires:   []string{schema.ColHour, schema.ColWeekday, schema.ColCount},
		build: func(frame *dataframe.DataFrame, rows []int, v *View) {
			v.Rows = aggregate(frame, rows, schema.ColCount, v.Mode,
				labelKey(frame, schema.ColWeekday, labels.Weekday),
				ordinalKey(frame, schema.ColHour))
		},
	},
	{
		name:       ViewPivotSeasonHour,
		source:     schema.KindHour,
		dimensions: []string{schema.ColSeason, schema.ColHour},
		requires:   []string{schema.ColHour, schema.ColSeason, schema.ColCount},
		build: func(frame *dataframe.DataFrame, rows []int, v *View) {
			v.Rows = aggregate(frame, rows, schema.ColCount, v.Mode,
				labelKey(frame, schema.ColSeason, labels.Season),
				ordinalKey(frame, schema.ColHour))
		},
	},
}

// compute runs def over a filtered table.
func (def viewDef) compute(t *schema.Table, mode Mode) View {
	v := View{
		Name:       def.name,
		Dimensions: def.dimensions,
		Mode:       mode,
	}
	if t == nil {
		v.Err = errors.NewMissingColumnError(opComputeViews, def.requires[0]).WithView(def.name)
		return v
	}
	if err := t.Caps.Require(opComputeViews, def.requires...); err != nil {
		var dfErr *errors.DataFrameError
		if errors.As(err, &dfErr) {
			v.Err = dfErr.WithView(def.name)
		} else {
			v.Err = errors.NewInternalError(opComputeViews, err).WithView(def.name)
		}
		return v
	}

	rows := make([]int, t.Len())
	for i := range rows {
		rows[i] = i
	}
	def.build(t.Frame, rows, &v)

	if err := validation.ValidateNotEmpty(rowCount(len(v.Rows)), opComputeViews); err != nil {
		var dfErr *errors.DataFrameError
		if errors.As(err, &dfErr) {
			v.Rows, v.Raw, v.Summaries = nil, nil, nil
			v.Err = dfErr.WithView(def.name)
		}
	}
	return v
}

// rowCount adapts an aggregated row count to validation.RowCounter.
type rowCount int

func (n rowCount) Len() int { return int(n) }

// aggregate groups rows by keys and reduces the non-null values of column.
// Rows with a null key or value do not contribute.
func aggregate(frame *dataframe.DataFrame, rows []int, column string, mode Mode, keys ...keyFunc) []Row {
	values, ok := frame.Int64s(column)
	if !ok {
		return nil
	}
	valued := make([]int, 0, len(rows))
	for _, row := range rows {
		if !values.IsNull(row) {
			valued = append(valued, row)
		}
	}

	groups := groupRows(valued, keys...)
	out := make([]Row, 0, len(groups))
	for _, g := range groups {
		vals := make([]int64, len(g.rows))
		for i, row := range g.rows {
			vals[i], _ = values.Value(row)
		}
		out = append(out, Row{Keys: g.keys, Value: Reduce(mode, vals), Count: len(vals)})
	}
	return out
}

func buildDistribution(frame *dataframe.DataFrame, rows []int, v *View) {
	v.Rows = aggregate(frame, rows, schema.ColCount, v.Mode, ordinalKey(frame, schema.ColHour))
	if len(v.Rows) == 0 {
		return
	}

	hours, _ := frame.Int64s(schema.ColHour)
	counts, _ := frame.Int64s(schema.ColCount)
	byHour := make(map[int64][]int64)
	for _, row := range rows {
		h, okh := hours.Value(row)
		c, okc := counts.Value(row)
		if !okh || !okc {
			continue
		}
		v.Raw = append(v.Raw, Point{Hour: h, Count: c})
		byHour[h] = append(byHour[h], c)
	}
	sort.SliceStable(v.Raw, func(i, j int) bool { return v.Raw[i].Hour < v.Raw[j].Hour })

	v.Summaries = make([]HourSummary, 0, len(byHour))
	for h, values := range byHour {
		v.Summaries = append(v.Summaries, HourSummary{Hour: h, Summary: Summarize(values)})
	}
	sort.Slice(v.Summaries, func(i, j int) bool { return v.Summaries[i].Hour < v.Summaries[j].Hour })
}
