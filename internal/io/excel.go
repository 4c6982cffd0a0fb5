package io

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/bikeshare/internal/dataframe"
	"github.com/paveg/bikeshare/internal/engine"
	"github.com/paveg/bikeshare/internal/series"
	"github.com/xuri/excelize/v2"
)

// IndexSheet lists every exported view and its status.
const IndexSheet = "views"

// XLSXReader reads the first sheet of a workbook into string columns.
type XLSXReader struct {
	reader io.Reader
	mem    memory.Allocator
}

// NewXLSXReader creates a workbook reader.
func NewXLSXReader(r io.Reader, mem memory.Allocator) *XLSXReader {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &XLSXReader{reader: r, mem: mem}
}

// Read reads the first sheet. The first row holds the headers; empty cells
// are nulls.
func (r *XLSXReader) Read() (*dataframe.DataFrame, error) {
	f, err := excelize.OpenReader(r.reader)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return dataframe.New(), nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return dataframe.New(), nil
	}

	return stringFrame(rows[0], rows[1:], func(name string, values []string, valid []bool) (dataframe.ISeries, error) {
		return series.NewNullable(name, values, valid, r.mem)
	})
}

// XLSXViewWriter writes a workbook with an index sheet and one sheet per view.
type XLSXViewWriter struct {
	writer io.Writer
}

// NewXLSXViewWriter creates a workbook view writer.
func NewXLSXViewWriter(w io.Writer) *XLSXViewWriter {
	return &XLSXViewWriter{writer: w}
}

// WriteViews implements ViewWriter.
func (w *XLSXViewWriter) WriteViews(sel engine.Selection, views []engine.View) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       "Bike sharing views",
		Description: sel.String(),
	}); err != nil {
		return fmt.Errorf("setting document properties: %w", err)
	}

	if _, err := f.NewSheet(IndexSheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", IndexSheet, err)
	}
	if err := setRow(f, IndexSheet, 1, "selection", sel.String()); err != nil {
		return err
	}
	if err := setRow(f, IndexSheet, 2, "view", "status", "rows"); err != nil {
		return err
	}

	for i, v := range views {
		status := StatusOK
		if !v.Available() {
			status = v.Reason()
		}
		if err := setRow(f, IndexSheet, i+3, v.Name, status, len(v.Rows)); err != nil {
			return err
		}

		if err := writeViewSheet(f, v); err != nil {
			return err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("deleting default sheet: %w", err)
	}
	if err := f.Write(w.writer); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeViewSheet(f *excelize.File, v engine.View) error {
	// Sheet names are limited to 31 characters.
	name := v.Name
	if len(name) > 31 {
		name = name[:31]
	}
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %s: %w", name, err)
	}

	if !v.Available() {
		return setRow(f, name, 1, "unavailable", v.Reason())
	}

	headers := make([]any, 0, len(v.Dimensions)+2)
	for _, d := range v.Dimensions {
		headers = append(headers, d)
	}
	headers = append(headers, v.Mode.String(), "count")
	if err := setRow(f, name, 1, headers...); err != nil {
		return err
	}

	for i, r := range v.Rows {
		cells := make([]any, 0, len(r.Keys)+2)
		for _, k := range r.Keys {
			cells = append(cells, k.Label)
		}
		cells = append(cells, r.Value, r.Count)
		if err := setRow(f, name, i+2, cells...); err != nil {
			return err
		}
	}
	return nil
}

// setRow writes values into row starting at column A and stops at the first
// error.
func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("sheet %s cell %s: %w", sheet, cell, err)
		}
	}
	return nil
}
