// Package normalize turns raw day and hour tables into schema.Tables: dates
// parsed, year derived, counts and hours coerced to integers and categorical
// codes mapped to canonical labels.
//
// Coercion never fails the load. Cells that cannot be coerced become nulls
// and are counted in a Report.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/bikeshare/internal/dataframe"
	"github.com/paveg/bikeshare/internal/errors"
	"github.com/paveg/bikeshare/internal/labels"
	"github.com/paveg/bikeshare/internal/logging"
	"github.com/paveg/bikeshare/internal/schema"
	"github.com/paveg/bikeshare/internal/series"
)

// DefaultDateLayouts are tried in order when parsing dteday.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
}

// DefaultBaseYear is the calendar year of yr == 0 in the UCI dataset.
const DefaultBaseYear = 2011

// sourceAliases maps alternative source column names to declared names.
var sourceAliases = map[string]string{
	"date":        schema.ColDate,
	"weather":     schema.ColWeather,
	"hour":        schema.ColHour,
	"count":       schema.ColCount,
	"total":       schema.ColCount,
	"working_day": schema.ColWorkingDay,
}

// yearCodeColumn is the UCI 0/1 year column used when dteday is unusable.
const yearCodeColumn = "yr"

// Normalizer converts raw tables. It is safe for concurrent use once built.
type Normalizer struct {
	layouts  []string
	variant  schema.Variant
	baseYear int
	logger   logging.Logger
	mem      memory.Allocator
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithDateLayouts replaces the date layouts tried for dteday.
func WithDateLayouts(layouts ...string) Option {
	return func(n *Normalizer) {
		if len(layouts) > 0 {
			n.layouts = append([]string{}, layouts...)
		}
	}
}

// WithVariant forces the label scheme instead of detecting it.
func WithVariant(v schema.Variant) Option {
	return func(n *Normalizer) { n.variant = v }
}

// WithBaseYear sets the year that yr == 0 maps to.
func WithBaseYear(year int) Option {
	return func(n *Normalizer) { n.baseYear = year }
}

// WithLogger sets the logger used for absorbed coercion failures.
func WithLogger(l logging.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithAllocator sets the Arrow allocator for output columns.
func WithAllocator(mem memory.Allocator) Option {
	return func(n *Normalizer) {
		if mem != nil {
			n.mem = mem
		}
	}
}

// New creates a Normalizer with default layouts and automatic variant detection.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		layouts:  DefaultDateLayouts,
		variant:  schema.VariantAuto,
		baseYear: DefaultBaseYear,
		logger:   logging.Discard(),
		mem:      memory.NewGoAllocator(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize builds a schema.Table of the given kind from raw. The raw frame is
// only read. Declared columns absent from raw are listed in the report and
// left out of the table; the engine reports them per view.
func (n *Normalizer) Normalize(raw *dataframe.DataFrame, kind schema.Kind) (*schema.Table, *Report, error) {
	if raw == nil {
		return nil, nil, errors.NewInvalidInputError("Normalize", "raw table is nil")
	}

	source := resolveColumns(raw)
	variant := n.variant
	if variant == schema.VariantAuto {
		detect := make(map[string]schema.StringColumn, len(source))
		for name, col := range source {
			detect[name] = col
		}
		variant = schema.Detect(detect)
	}

	report := newReport(kind, variant, raw.Len())
	log := n.logger.WithField("table", kind.String())

	var (
		out   []dataframe.ISeries
		dates []time.Time
		dated []bool
	)
	release := func() {
		for _, s := range out {
			s.Release()
		}
	}

	for _, field := range schema.For(kind).Fields {
		var (
			col dataframe.ISeries
			err error
		)
		src, ok := source[field.Name]

		switch {
		case field.Name == schema.ColDate:
			if !ok {
				report.Missing = append(report.Missing, field.Name)
				continue
			}
			dates, dated = n.parseDates(src, report)
			col, err = series.NewNullable(field.Name, dates, dated, n.mem)
		case field.Name == schema.ColYear:
			years, valid, derived := n.deriveYears(dates, dated, source[yearCodeColumn], raw.Len())
			if !derived {
				report.Missing = append(report.Missing, field.Name)
				continue
			}
			col, err = series.NewNullable(field.Name, years, valid, n.mem)
		case !ok:
			report.Missing = append(report.Missing, field.Name)
			continue
		case field.Type == schema.TypeInt:
			values, valid := coerceInts(src, field, report)
			col, err = series.NewNullable(field.Name, values, valid, n.mem)
		case field.Type == schema.TypeLabel:
			values, valid := canonicalLabels(src, field, variant, report)
			col, err = series.NewNullable(field.Name, values, valid, n.mem)
		}
		if err != nil {
			release()
			return nil, nil, fmt.Errorf("normalizing column %s: %w", field.Name, err)
		}
		out = append(out, col)
	}

	frame, err := dataframe.NewSafe(out...)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("assembling %s table: %w", kind, err)
	}
	report.CountMismatch = countMismatches(frame)

	logReport(log, report)
	return schema.NewTable(frame, kind, variant), report, nil
}

// resolveColumns indexes raw columns by declared name. An exact name wins
// over an alias.
func resolveColumns(raw *dataframe.DataFrame) map[string]dataframe.ISeries {
	out := make(map[string]dataframe.ISeries)
	for _, name := range raw.Columns() {
		col, _ := raw.Column(name)
		key := strings.ToLower(strings.TrimSpace(name))
		if alias, ok := sourceAliases[key]; ok {
			if _, taken := out[alias]; !taken {
				out[alias] = col
			}
			continue
		}
		out[key] = col
	}
	return out
}

func (n *Normalizer) parseDates(col dataframe.ISeries, report *Report) ([]time.Time, []bool) {
	dates := make([]time.Time, col.Len())
	valid := make([]bool, col.Len())
	for i := range col.Len() {
		if col.IsNull(i) {
			continue
		}
		raw := strings.TrimSpace(col.GetAsString(i))
		if raw == "" {
			continue
		}
		for _, layout := range n.layouts {
			if t, err := time.Parse(layout, raw); err == nil {
				dates[i], valid[i] = t, true
				break
			}
		}
		if !valid[i] {
			report.unparseable(schema.ColDate, raw)
		}
	}
	return dates, valid
}

// deriveYears takes the year from the parsed date and falls back to the yr
// code column for rows without one. derived is false when neither source exists.
func (n *Normalizer) deriveYears(dates []time.Time, dated []bool, yr dataframe.ISeries, rows int) ([]int64, []bool, bool) {
	if dates == nil && yr == nil {
		return nil, nil, false
	}
	years := make([]int64, rows)
	valid := make([]bool, rows)
	for i := range rows {
		if dates != nil && dated[i] {
			years[i], valid[i] = int64(dates[i].Year()), true
			continue
		}
		if yr == nil || yr.IsNull(i) {
			continue
		}
		if code, ok := parseInt(yr.GetAsString(i)); ok && code >= 0 {
			years[i], valid[i] = int64(n.baseYear)+code, true
		}
	}
	return years, valid, true
}

func coerceInts(col dataframe.ISeries, field schema.Field, report *Report) ([]int64, []bool) {
	values := make([]int64, col.Len())
	valid := make([]bool, col.Len())
	for i := range col.Len() {
		if col.IsNull(i) {
			continue
		}
		raw := strings.TrimSpace(col.GetAsString(i))
		if raw == "" {
			continue
		}
		v, ok := parseInt(raw)
		if !ok {
			report.unparseable(field.Name, raw)
			continue
		}
		if !field.InRange(v) {
			report.OutOfRange[field.Name]++
			continue
		}
		values[i], valid[i] = v, true
	}
	return values, valid
}

// parseInt accepts integers and integral floats ("8", "8.0").
func parseInt(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

func canonicalLabels(col dataframe.ISeries, field schema.Field, variant schema.Variant, report *Report) ([]string, []bool) {
	values := make([]string, col.Len())
	valid := make([]bool, col.Len())
	for i := range col.Len() {
		if col.IsNull(i) {
			continue
		}
		raw := strings.TrimSpace(col.GetAsString(i))
		if raw == "" {
			continue
		}
		label, known := labels.Canonical(field.Dimension, raw)
		switch {
		case known:
			values[i], valid[i] = label, true
		case isNumeric(raw), variant == schema.VariantNumeric:
			report.unparseable(field.Name, raw)
		default:
			report.PassThrough[field.Name]++
			values[i], valid[i] = label, true
		}
	}
	return values, valid
}

func isNumeric(raw string) bool {
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil
}

func countMismatches(frame *dataframe.DataFrame) int {
	cnt, ok1 := frame.Int64s(schema.ColCount)
	casual, ok2 := frame.Int64s(schema.ColCasual)
	registered, ok3 := frame.Int64s(schema.ColRegistered)
	if !ok1 || !ok2 || !ok3 {
		return 0
	}
	mismatches := 0
	for i := range frame.Len() {
		total, ok := cnt.Value(i)
		c, okc := casual.Value(i)
		r, okr := registered.Value(i)
		if ok && okc && okr && total != c+r {
			mismatches++
		}
	}
	return mismatches
}

func logReport(log logging.Logger, report *Report) {
	for _, col := range report.Missing {
		log.WithField("column", col).Debugf("declared column not present in source")
	}
	for _, err := range report.Errors() {
		var dfErr *errors.DataFrameError
		if errors.As(err, &dfErr) {
			log.WithFields(map[string]interface{}{
				"column": dfErr.Column,
				"count":  report.Unparseable[dfErr.Column],
			}).Warnf("absorbed unparseable values: %v", err)
		}
	}
	for col, n := range report.OutOfRange {
		log.WithFields(map[string]interface{}{"column": col, "count": n}).Warnf("absorbed out-of-range values")
	}
	for col, n := range report.PassThrough {
		log.WithFields(map[string]interface{}{"column": col, "count": n}).Infof("kept labels outside the declared table")
	}
	if report.CountMismatch > 0 {
		log.WithField("rows", report.CountMismatch).Warnf("cnt differs from casual + registered")
	}
}
