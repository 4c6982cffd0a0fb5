package schema

import (
	"sort"

	"github.com/paveg/bikeshare/internal/dataframe"
	"github.com/paveg/bikeshare/internal/validation"
)

// Capabilities records which declared columns a normalized table carries.
type Capabilities struct {
	columns map[string]struct{}
}

// NewCapabilities builds capabilities from the declared fields of s present in names.
func NewCapabilities(s Schema, names []string) Capabilities {
	present := make(map[string]struct{}, len(names))
	for _, n := range names {
		present[n] = struct{}{}
	}
	caps := Capabilities{columns: make(map[string]struct{})}
	for _, f := range s.Fields {
		if _, ok := present[f.Name]; ok {
			caps.columns[f.Name] = struct{}{}
		}
	}
	return caps
}

// HasColumn reports whether the column is available.
func (c Capabilities) HasColumn(name string) bool {
	_, ok := c.columns[name]
	return ok
}

// Columns returns the available columns sorted by name.
func (c Capabilities) Columns() []string {
	out := make([]string, 0, len(c.columns))
	for name := range c.columns {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Require returns a missing-column error for the first absent column.
func (c Capabilities) Require(op string, columns ...string) error {
	return validation.ValidateColumns(c, op, columns...)
}

// Table is a normalized source table: an Arrow-backed frame whose columns
// follow the declared schema of Kind.
type Table struct {
	Frame   *dataframe.DataFrame
	Kind    Kind
	Variant Variant
	Caps    Capabilities
}

// NewTable wraps a normalized frame and derives its capabilities.
func NewTable(frame *dataframe.DataFrame, kind Kind, variant Variant) *Table {
	return &Table{
		Frame:   frame,
		Kind:    kind,
		Variant: variant,
		Caps:    NewCapabilities(For(kind), frame.Columns()),
	}
}

// Len returns the row count; a nil table has none.
func (t *Table) Len() int {
	if t == nil || t.Frame == nil {
		return 0
	}
	return t.Frame.Len()
}

// Release frees the frame's Arrow memory.
func (t *Table) Release() {
	if t != nil && t.Frame != nil {
		t.Frame.Release()
	}
}
