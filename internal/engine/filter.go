package engine

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/bikeshare/internal/labels"
	"github.com/paveg/bikeshare/internal/schema"
)

type predicate func(row int) bool

// Filter returns a copy of t holding the rows that pass sel. Each table only
// uses the dimensions it carries: a selection on a column the table lacks is
// ignored. Rows with a null in an actively filtered column are dropped. t is
// never modified; a nil t yields nil.
func Filter(t *schema.Table, sel Selection, mem memory.Allocator) (*schema.Table, error) {
	if t == nil {
		return nil, nil
	}
	rows := MatchRows(t, sel)
	frame, err := t.Frame.Take(rows, mem)
	if err != nil {
		return nil, fmt.Errorf("filtering %s table: %w", t.Kind, err)
	}
	return schema.NewTable(frame, t.Kind, t.Variant), nil
}

// MatchRows returns the indices of the rows of t that pass sel, ascending.
func MatchRows(t *schema.Table, sel Selection) []int {
	preds := predicates(t, sel)
	rows := make([]int, 0, t.Len())
	for row := range t.Len() {
		keep := true
		for _, p := range preds {
			if !p(row) {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, row)
		}
	}
	return rows
}

func predicates(t *schema.Table, sel Selection) []predicate {
	var preds []predicate
	add := func(p predicate) {
		if p != nil {
			preds = append(preds, p)
		}
	}

	add(labelIn(t, schema.ColSeason, sel.seasons))
	add(labelIn(t, schema.ColWeather, sel.weathers))
	add(labelIn(t, schema.ColWeekday, sel.weekdays))
	if sel.workingOnly {
		add(labelIn(t, schema.ColWorkingDay, []string{labels.Workingday}))
	}
	if t.Caps.HasColumn(schema.ColHour) {
		add(hourIn(t, sel.hours))
	}
	return preds
}

// labelIn keeps rows whose label is in values. It returns nil, meaning no
// filtering, when values is empty or the table lacks the column.
func labelIn(t *schema.Table, column string, values []string) predicate {
	if len(values) == 0 || !t.Caps.HasColumn(column) {
		return nil
	}
	col, ok := t.Frame.Strings(column)
	if !ok {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(row int) bool {
		v, valid := col.Value(row)
		if !valid {
			return false
		}
		_, in := set[v]
		return in
	}
}

func hourIn(t *schema.Table, hours HourRange) predicate {
	col, ok := t.Frame.Int64s(schema.ColHour)
	if !ok {
		return nil
	}
	return func(row int) bool {
		h, valid := col.Value(row)
		return valid && hours.Contains(h)
	}
}
