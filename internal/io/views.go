package io

import (
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/bikeshare/internal/dataframe"
	"github.com/paveg/bikeshare/internal/engine"
	"github.com/paveg/bikeshare/internal/series"
)

// Columns of the long view table.
const (
	ColView       = "view"
	ColStatus     = "status"
	ColDimension1 = "dimension_1"
	ColKey1       = "key_1"
	ColDimension2 = "dimension_2"
	ColKey2       = "key_2"
	ColValue      = "value"
	ColRowCount   = "count"

	// StatusOK marks rows of an available view.
	StatusOK = "ok"
)

// FrameViewWriter writes views as the long table of ViewsFrame through any
// DataWriter.
type FrameViewWriter struct {
	writer DataWriter
}

// NewFrameViewWriter wraps a frame writer.
func NewFrameViewWriter(w DataWriter) *FrameViewWriter {
	return &FrameViewWriter{writer: w}
}

// WriteViews implements ViewWriter.
func (w *FrameViewWriter) WriteViews(_ engine.Selection, views []engine.View) error {
	frame, err := ViewsFrame(views, nil)
	if err != nil {
		return err
	}
	defer frame.Release()
	return w.writer.Write(frame)
}

// ViewsFrame flattens views into one long table with a row per aggregated
// cell. An unavailable view contributes a single row whose status is its
// reason and whose keys and value are null.
func ViewsFrame(views []engine.View, mem memory.Allocator) (*dataframe.DataFrame, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	var t longTable
	for _, v := range views {
		if !v.Available() {
			t.add(v.Name, v.Reason(), nil, 0, 0, false)
			continue
		}
		for _, r := range v.Rows {
			t.add(v.Name, StatusOK, r.Keys, r.Value, r.Count, true)
		}
	}
	return t.frame(mem)
}

type longTable struct {
	view, status           []string
	dim1, key1, dim2, key2 []string
	has1, has2, hasValue   []bool
	value                  []float64
	count                  []int64
}

func (t *longTable) add(view, status string, keys []engine.Key, value float64, count int, ok bool) {
	t.view = append(t.view, view)
	t.status = append(t.status, status)

	d1, k1, has1 := keyAt(keys, 0)
	t.dim1, t.key1, t.has1 = append(t.dim1, d1), append(t.key1, k1), append(t.has1, has1)
	d2, k2, has2 := keyAt(keys, 1)
	t.dim2, t.key2, t.has2 = append(t.dim2, d2), append(t.key2, k2), append(t.has2, has2)

	t.value = append(t.value, value)
	t.count = append(t.count, int64(count))
	t.hasValue = append(t.hasValue, ok)
}

func (t *longTable) frame(mem memory.Allocator) (*dataframe.DataFrame, error) {
	builders := []func() (dataframe.ISeries, error){
		func() (dataframe.ISeries, error) { return series.NewNullable(ColView, nonNilStrings(t.view), nil, mem) },
		func() (dataframe.ISeries, error) { return series.NewNullable(ColStatus, nonNilStrings(t.status), nil, mem) },
		func() (dataframe.ISeries, error) { return series.NewNullable(ColDimension1, nonNilStrings(t.dim1), t.has1, mem) },
		func() (dataframe.ISeries, error) { return series.NewNullable(ColKey1, nonNilStrings(t.key1), t.has1, mem) },
		func() (dataframe.ISeries, error) { return series.NewNullable(ColDimension2, nonNilStrings(t.dim2), t.has2, mem) },
		func() (dataframe.ISeries, error) { return series.NewNullable(ColKey2, nonNilStrings(t.key2), t.has2, mem) },
		func() (dataframe.ISeries, error) { return series.NewNullable(ColValue, t.value, t.hasValue, mem) },
		func() (dataframe.ISeries, error) { return series.NewNullable(ColRowCount, t.count, t.hasValue, mem) },
	}

	cols := make([]dataframe.ISeries, 0, len(builders))
	for _, build := range builders {
		s, err := build()
		if err != nil {
			for _, done := range cols {
				done.Release()
			}
			return nil, err
		}
		cols = append(cols, s)
	}
	return dataframe.NewSafe(cols...)
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func keyAt(keys []engine.Key, i int) (string, string, bool) {
	if i >= len(keys) {
		return "", "", false
	}
	return keys[i].Dimension, keys[i].Label, true
}

// ViewsDocument is the JSON shape of a set of views.
type ViewsDocument struct {
	Selection engine.Selection `json:"selection"`
	Summary   string           `json:"summary"`
	Views     []ViewDocument   `json:"views"`
}

// ViewDocument is the JSON shape of one view.
type ViewDocument struct {
	engine.View
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
	Column    string `json:"column,omitempty"`
}

// NewViewsDocument builds the JSON document for views computed under sel.
func NewViewsDocument(sel engine.Selection, views []engine.View) ViewsDocument {
	doc := ViewsDocument{
		Selection: sel,
		Summary:   sel.String(),
		Views:     make([]ViewDocument, 0, len(views)),
	}
	for _, v := range views {
		vd := ViewDocument{View: v, Available: v.Available(), Reason: v.Reason()}
		if v.Rows == nil {
			vd.View.Rows = []engine.Row{}
		}
		if v.Err != nil {
			vd.Column = v.Err.Column
		}
		doc.Views = append(doc.Views, vd)
	}
	return doc
}
