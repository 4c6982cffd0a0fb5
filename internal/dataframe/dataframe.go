// Package dataframe provides an ordered collection of Arrow-backed columns.
//
// A DataFrame is treated as read-only once built. Row selection (Take)
// copies the selected rows into new columns; the receiver is never modified.
package dataframe

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/bikeshare/internal/errors"
	"github.com/paveg/bikeshare/internal/series"
)

// DataFrame represents a table of data with typed columns
type DataFrame struct {
	columns map[string]ISeries
	order   []string // Maintains column order
	length  int
}

// New creates a new DataFrame from a slice of ISeries. The DataFrame takes
// ownership of the series. A later series with a duplicate name replaces the
// earlier one in place.
func New(series ...ISeries) *DataFrame {
	columns := make(map[string]ISeries, len(series))
	order := make([]string, 0, len(series))
	length := 0

	for i, s := range series {
		name := s.Name()
		if prev, exists := columns[name]; exists {
			prev.Release()
		} else {
			order = append(order, name)
		}
		columns[name] = s
		if i == 0 {
			length = s.Len()
		}
	}

	return &DataFrame{
		columns: columns,
		order:   order,
		length:  length,
	}
}

// NewSafe is New with a length check: every column must have the same length.
func NewSafe(series ...ISeries) (*DataFrame, error) {
	for _, s := range series {
		if s.Len() != series[0].Len() {
			return nil, errors.NewInvalidInputError("DataFrame creation",
				fmt.Sprintf("column %q has length %d, expected %d", s.Name(), s.Len(), series[0].Len()))
		}
	}
	return New(series...), nil
}

// Columns returns the names of all columns in order
func (df *DataFrame) Columns() []string {
	return append([]string{}, df.order...)
}

// Len returns the number of rows
func (df *DataFrame) Len() int {
	return df.length
}

// Width returns the number of columns
func (df *DataFrame) Width() int {
	return len(df.columns)
}

// Column returns the series for the given column name
func (df *DataFrame) Column(name string) (ISeries, bool) {
	s, exists := df.columns[name]
	return s, exists
}

// HasColumn checks if a column exists
func (df *DataFrame) HasColumn(name string) bool {
	_, exists := df.columns[name]
	return exists
}

// Strings returns the named column if it holds strings.
func (df *DataFrame) Strings(name string) (*series.Series[string], bool) {
	return typed[string](df, name)
}

// Int64s returns the named column if it holds int64 values.
func (df *DataFrame) Int64s(name string) (*series.Series[int64], bool) {
	return typed[int64](df, name)
}

// Float64s returns the named column if it holds float64 values.
func (df *DataFrame) Float64s(name string) (*series.Series[float64], bool) {
	return typed[float64](df, name)
}

func typed[T any](df *DataFrame, name string) (*series.Series[T], bool) {
	col, ok := df.columns[name]
	if !ok {
		return nil, false
	}
	s, ok := col.(*series.Series[T])
	return s, ok
}

// Take returns a new DataFrame holding the rows at indices, in that order.
func (df *DataFrame) Take(indices []int, mem memory.Allocator) (*DataFrame, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	taken := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		s, err := df.columns[name].TakeColumn(indices, mem)
		if err != nil {
			for _, done := range taken {
				done.Release()
			}
			return nil, fmt.Errorf("taking rows from column %s: %w", name, err)
		}
		taken = append(taken, s)
	}

	out := New(taken...)
	out.length = len(indices)
	return out, nil
}

// String returns a string representation of the DataFrame
func (df *DataFrame) String() string {
	if len(df.columns) == 0 {
		return "DataFrame[empty]"
	}

	parts := []string{fmt.Sprintf("DataFrame[%dx%d]", df.Len(), df.Width())}
	for _, name := range df.order {
		s := df.columns[name]
		parts = append(parts, fmt.Sprintf("  %s: %s (nulls=%d)", name, s.DataType().String(), s.NullN()))
	}

	return strings.Join(parts, "\n")
}

// Release releases all underlying Arrow memory
func (df *DataFrame) Release() {
	for _, s := range df.columns {
		s.Release()
	}
}
