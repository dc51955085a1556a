// Package io provides the source formats a dataset can be loaded from and
// persisted back to.
//
// Key components:
//   - DetectFormat/Source for describing a backing file
//   - DelimitedReader/DelimitedWriter for CSV-like text, optionally compressed
//   - spreadsheet readers for xlsx (excelize) and legacy xls, and an xlsx writer
//     that preserves the other sheets of a workbook
//   - ParquetReader/ParquetWriter over arrow-go pqarrow
//   - AtomicReplace for the write-temp, backup, rename persistence protocol
//
// Memory management: datasets hold Arrow arrays and must be released by
// their owner once no longer referenced.
package io

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabula/internal/dataframe"
)

// DefaultBatchSize is the default batch size for Parquet operations
const DefaultBatchSize = 1000

// DataReader defines the interface for reading a dataset from a stream
type DataReader interface {
	Read() (*dataframe.Dataset, error)
}

// DataWriter defines the interface for writing a dataset to a stream
type DataWriter interface {
	Write(ds *dataframe.Dataset) error
}

// RawReader reads untyped cells: a header row and data rows.
type RawReader interface {
	ReadRaw() (*RawTable, error)
}

// RawTable is a header row plus data rows of untyped cells. Rows are padded
// to the header width.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// Column returns the cells of column i.
func (t *RawTable) Column(i int) []string {
	col := make([]string, len(t.Rows))
	for j, row := range t.Rows {
		col[j] = row[i]
	}
	return col
}

// DelimitedOptions contains configuration options for delimited text
type DelimitedOptions struct {
	// Delimiter is the field delimiter; 0 sniffs it from the header line
	Delimiter rune
	// Comment is the comment character (default: 0 = disabled)
	Comment rune
	// SkipInitialSpace indicates whether to skip initial whitespace
	SkipInitialSpace bool
}

// DefaultDelimitedOptions returns default delimited text options
func DefaultDelimitedOptions() DelimitedOptions {
	return DelimitedOptions{
		Delimiter:        0,
		Comment:          0,
		SkipInitialSpace: false,
	}
}

// DelimitedReader reads delimited text into a RawTable
type DelimitedReader struct {
	reader    io.Reader
	options   DelimitedOptions
	delimiter rune
}

// NewDelimitedReader creates a new delimited text reader with the specified options
func NewDelimitedReader(reader io.Reader, options DelimitedOptions) *DelimitedReader {
	return &DelimitedReader{
		reader:  reader,
		options: options,
	}
}

// DelimitedWriter writes datasets as delimited text
type DelimitedWriter struct {
	writer  io.Writer
	options DelimitedOptions
}

// NewDelimitedWriter creates a new delimited text writer with the specified options
func NewDelimitedWriter(writer io.Writer, options DelimitedOptions) *DelimitedWriter {
	return &DelimitedWriter{
		writer:  writer,
		options: options,
	}
}

// ParquetOptions contains configuration options for Parquet operations
type ParquetOptions struct {
	// Compression type for Parquet files
	Compression string
	// BatchSize for reading/writing operations
	BatchSize int
}

// DefaultParquetOptions returns default Parquet options
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{
		Compression: "snappy",
		BatchSize:   DefaultBatchSize,
	}
}

// ParquetReader reads Parquet data and converts it to datasets
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

// ParquetWriter writes datasets to Parquet format
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
