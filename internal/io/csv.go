package io

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/paveg/bikeshare/internal/dataframe"
	"github.com/paveg/bikeshare/internal/series"
)

// Read reads CSV data and returns a DataFrame of string columns. Empty cells
// are nulls; short rows are padded with nulls.
func (r *CSVReader) Read() (*dataframe.DataFrame, error) {
	csvReader := csv.NewReader(r.reader)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment
	csvReader.TrimLeadingSpace = r.options.SkipInitialSpace
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return dataframe.New(), nil
	}

	var headers []string
	dataRows := records
	if r.options.Header {
		headers, dataRows = records[0], records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i)
		}
	}

	return stringFrame(headers, dataRows, func(name string, values []string, valid []bool) (dataframe.ISeries, error) {
		return series.NewNullable(name, values, valid, r.mem)
	})
}

// stringFrame transposes rows into nullable string columns.
func stringFrame(
	headers []string, rows [][]string,
	build func(name string, values []string, valid []bool) (dataframe.ISeries, error),
) (*dataframe.DataFrame, error) {
	cols := make([]dataframe.ISeries, 0, len(headers))
	for i, header := range headers {
		values := make([]string, len(rows))
		valid := make([]bool, len(rows))
		for j, row := range rows {
			if i < len(row) && row[i] != "" {
				values[j], valid[j] = row[i], true
			}
		}
		s, err := build(header, values, valid)
		if err != nil {
			for _, done := range cols {
				done.Release()
			}
			return nil, fmt.Errorf("creating series for column %s: %w", header, err)
		}
		cols = append(cols, s)
	}
	return dataframe.New(cols...), nil
}

// Write writes the DataFrame to CSV format. Nulls are written as empty cells.
func (w *CSVWriter) Write(df *dataframe.DataFrame) error {
	csvWriter := csv.NewWriter(w.writer)
	csvWriter.Comma = w.options.Delimiter

	columns := df.Columns()
	if w.options.Header {
		if err := csvWriter.Write(columns); err != nil {
			return fmt.Errorf("writing headers: %w", err)
		}
	}

	row := make([]string, len(columns))
	for i := 0; i < df.Len(); i++ {
		for j, name := range columns {
			column, _ := df.Column(name)
			row[j] = column.GetAsString(i)
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

// NewCSVViewWriter returns a view writer emitting one long CSV table.
func NewCSVViewWriter(w io.Writer, options CSVOptions) *FrameViewWriter {
	return NewFrameViewWriter(NewCSVWriter(w, options))
}
