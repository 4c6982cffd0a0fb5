package io

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/paveg/bikeshare/internal/engine"
)

// JSONViewWriter writes views as a ViewsDocument.
type JSONViewWriter struct {
	writer io.Writer
	indent bool
}

// NewJSONViewWriter creates a JSON view writer. indent pretty-prints the
// document with two spaces.
func NewJSONViewWriter(w io.Writer, indent bool) *JSONViewWriter {
	return &JSONViewWriter{writer: w, indent: indent}
}

// WriteViews implements ViewWriter.
func (w *JSONViewWriter) WriteViews(sel engine.Selection, views []engine.View) error {
	enc := json.NewEncoder(w.writer)
	if w.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(NewViewsDocument(sel, views)); err != nil {
		return fmt.Errorf("encoding views: %w", err)
	}
	return nil
}
