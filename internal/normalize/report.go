package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paveg/bikeshare/internal/errors"
	"github.com/paveg/bikeshare/internal/schema"
)

// Report summarizes what normalization absorbed. Absorbed cells become nulls
// in the output table; nothing in a Report aborts loading.
type Report struct {
	Kind    schema.Kind
	Variant schema.Variant
	Rows    int

	// Missing lists declared columns the source does not carry.
	Missing []string
	// Unparseable counts cells per column that could not be coerced.
	Unparseable map[string]int
	// OutOfRange counts numeric cells outside the column's declared bounds.
	OutOfRange map[string]int
	// PassThrough counts labels outside the declared tables that were kept as-is.
	PassThrough map[string]int
	// CountMismatch counts rows where cnt != casual + registered.
	CountMismatch int

	examples map[string]string
}

func newReport(kind schema.Kind, variant schema.Variant, rows int) *Report {
	return &Report{
		Kind:        kind,
		Variant:     variant,
		Rows:        rows,
		Unparseable: make(map[string]int),
		OutOfRange:  make(map[string]int),
		PassThrough: make(map[string]int),
		examples:    make(map[string]string),
	}
}

func (r *Report) unparseable(column, value string) {
	r.Unparseable[column]++
	if _, ok := r.examples[column]; !ok {
		r.examples[column] = value
	}
}

// Absorbed returns the number of cells nulled during normalization.
func (r *Report) Absorbed() int {
	total := 0
	for _, n := range r.Unparseable {
		total += n
	}
	for _, n := range r.OutOfRange {
		total += n
	}
	return total
}

// Errors returns one unparseable-value error per affected column, carrying
// the first offending value seen, ordered by column name.
func (r *Report) Errors() []error {
	cols := make([]string, 0, len(r.Unparseable))
	for col := range r.Unparseable {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	errs := make([]error, 0, len(cols))
	for _, col := range cols {
		errs = append(errs, errors.NewUnparseableValueError("Normalize", col, r.examples[col]))
	}
	return errs
}

func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s table: %d rows, variant %s", r.Kind, r.Rows, r.Variant)
	if len(r.Missing) > 0 {
		fmt.Fprintf(&b, ", missing [%s]", strings.Join(r.Missing, ", "))
	}
	writeCounts(&b, "unparseable", r.Unparseable)
	writeCounts(&b, "out of range", r.OutOfRange)
	writeCounts(&b, "pass-through labels", r.PassThrough)
	if r.CountMismatch > 0 {
		fmt.Fprintf(&b, ", %d rows with cnt != casual+registered", r.CountMismatch)
	}
	return b.String()
}

func writeCounts(b *strings.Builder, label string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	cols := make([]string, 0, len(counts))
	for col := range counts {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("%s=%d", col, counts[col])
	}
	fmt.Fprintf(b, ", %s [%s]", label, strings.Join(parts, " "))
}
