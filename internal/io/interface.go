// Package io provides readers for raw source tables and writers for computed
// views.
//
// Key components:
//   - DataReader/DataWriter interfaces for frame-level I/O; FrameViewWriter
//     exports views through any DataWriter
//   - CSVReader, ParquetReader and XLSXReader for source tables; readers keep
//     every cell as text or its native Arrow type and leave coercion to the
//     normalizer
//   - ViewWriter implementations for CSV, JSON, XLSX and Parquet exports
//
// Memory management: frames returned by readers own Arrow memory and must be
// released by the caller.
package io

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/bikeshare/internal/dataframe"
	"github.com/paveg/bikeshare/internal/engine"
)

const (
	// DefaultBatchSize is the default batch size for Parquet reads and writes
	DefaultBatchSize = 1000
)

// DataReader defines the interface for reading data from various sources
type DataReader interface {
	// Read reads data from the source and returns a DataFrame
	Read() (*dataframe.DataFrame, error)
}

// DataWriter defines the interface for writing data to various destinations
type DataWriter interface {
	// Write writes the DataFrame to the destination
	Write(df *dataframe.DataFrame) error
}

// ViewWriter exports computed views.
type ViewWriter interface {
	WriteViews(sel engine.Selection, views []engine.View) error
}

// Format names a file format.
type Format string

const (
	FormatAuto    Format = "auto"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
	FormatJSON    Format = "json"
	FormatXLSX    Format = "xlsx"
)

// ParseFormat parses a format name; the empty string is FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatCSV, FormatParquet, FormatJSON, FormatXLSX:
		return f, nil
	case "pq":
		return FormatParquet, nil
	case "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// DetectFormat infers the format from a file name or URL path. Unknown
// extensions are read as CSV.
func DetectFormat(name string) Format {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".parquet", ".pq":
		return FormatParquet
	case ".json":
		return FormatJSON
	case ".xlsx":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// NewSourceReader returns the reader for a source format. FormatAuto and
// FormatJSON are not source formats.
func NewSourceReader(format Format, r io.Reader, mem memory.Allocator) (DataReader, error) {
	switch format {
	case FormatCSV:
		return NewCSVReader(r, DefaultCSVOptions(), mem), nil
	case FormatParquet:
		return NewParquetReader(r, DefaultParquetOptions(), mem), nil
	case FormatXLSX:
		return NewXLSXReader(r, mem), nil
	default:
		return nil, fmt.Errorf("format %q cannot be used for source tables", format)
	}
}

// NewViewWriter returns the view writer for format.
func NewViewWriter(format Format, w io.Writer) (ViewWriter, error) {
	switch format {
	case FormatCSV:
		return NewCSVViewWriter(w, DefaultCSVOptions()), nil
	case FormatJSON, FormatAuto:
		return NewJSONViewWriter(w, true), nil
	case FormatXLSX:
		return NewXLSXViewWriter(w), nil
	case FormatParquet:
		return NewParquetViewWriter(w, DefaultParquetOptions()), nil
	default:
		return nil, fmt.Errorf("format %q cannot be used for views", format)
	}
}

// CSVOptions contains configuration options for CSV operations
type CSVOptions struct {
	// Delimiter is the field delimiter (default: comma)
	Delimiter rune
	// Comment is the comment character (default: 0 = disabled)
	Comment rune
	// Header indicates whether the first row contains headers
	Header bool
	// SkipInitialSpace indicates whether to skip initial whitespace
	SkipInitialSpace bool
}

// DefaultCSVOptions returns default CSV options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:        ',',
		Comment:          0,
		Header:           true,
		SkipInitialSpace: false,
	}
}

// CSVReader reads CSV data into string columns
type CSVReader struct {
	reader  io.Reader
	options CSVOptions
	mem     memory.Allocator
}

// NewCSVReader creates a new CSV reader with the specified options
func NewCSVReader(reader io.Reader, options CSVOptions, mem memory.Allocator) *CSVReader {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &CSVReader{
		reader:  reader,
		options: options,
		mem:     mem,
	}
}

// CSVWriter writes DataFrames to CSV format
type CSVWriter struct {
	writer  io.Writer
	options CSVOptions
}

// NewCSVWriter creates a new CSV writer with the specified options
func NewCSVWriter(writer io.Writer, options CSVOptions) *CSVWriter {
	return &CSVWriter{
		writer:  writer,
		options: options,
	}
}

// ParquetOptions contains configuration options for Parquet operations
type ParquetOptions struct {
	// Compression type for Parquet files
	Compression string
	// BatchSize is the read batch size and the row-group size for writes
	BatchSize int
}

// DefaultParquetOptions returns default Parquet options
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{
		Compression: "snappy",
		BatchSize:   DefaultBatchSize,
	}
}

// ParquetReader reads Parquet data and converts it to DataFrames
type ParquetReader struct {
	reader  io.Reader
	options ParquetOptions
	mem     memory.Allocator
}

// NewParquetReader creates a new Parquet reader with the specified options
func NewParquetReader(reader io.Reader, options ParquetOptions, mem memory.Allocator) *ParquetReader {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &ParquetReader{
		reader:  reader,
		options: options,
		mem:     mem,
	}
}

// ParquetWriter writes DataFrames to Parquet format
type ParquetWriter struct {
	writer  io.Writer
	options ParquetOptions
}

// NewParquetWriter creates a new Parquet writer with the specified options
func NewParquetWriter(writer io.Writer, options ParquetOptions) *ParquetWriter {
	return &ParquetWriter{
		writer:  writer,
		options: options,
	}
}
