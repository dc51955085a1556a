package io

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/paveg/tabula/internal/dataframe"
	"github.com/paveg/tabula/internal/schema"
	"github.com/paveg/tabula/internal/series"
)

// Read reads Parquet data and returns a dataset. Integer and floating point
// columns of any width map to Integer and Float; types without a semantic
// counterpart are read as their string rendering.
func (r *ParquetReader) Read() (*dataframe.Dataset, error) {
	// Parquet needs random access
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating parquet file reader: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, r.mem)
	if err != nil {
		return nil, fmt.Errorf("creating arrow file reader: %w", err)
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	defer table.Release()

	return r.arrowTableToDataset(table)
}

// arrowTableToDataset converts an Arrow table to a dataset.
func (r *ParquetReader) arrowTableToDataset(table arrow.Table) (*dataframe.Dataset, error) {
	names := make([]string, table.NumCols())
	for i := range names {
		names[i] = table.Schema().Field(i).Name
	}
	names = dataframe.UniqueNames(names)

	cols := make([]*series.Column, 0, len(names))
	for i, name := range names {
		col, err := r.arrowColumnToSeries(name, table.Column(i))
		if err != nil {
			for _, c := range cols {
				c.Release()
			}
			return nil, fmt.Errorf("converting column %s: %w", name, err)
		}
		cols = append(cols, col)
	}

	return dataframe.New(cols...)
}

// arrowColumnToSeries converts a chunked Arrow column to a column.
func (r *ParquetReader) arrowColumnToSeries(name string, column *arrow.Column) (*series.Column, error) {
	chunks := column.Data().Chunks()

	var arr arrow.Array
	switch len(chunks) {
	case 0:
		return series.New(name, semanticType(column.DataType()), nil, r.mem), nil
	case 1:
		arr = chunks[0]
		arr.Retain()
	default:
		merged, err := array.Concatenate(chunks, r.mem)
		if err != nil {
			return nil, fmt.Errorf("concatenating chunks: %w", err)
		}
		arr = merged
	}
	defer arr.Release()

	//nolint:exhaustive // remaining types are read as strings
	switch arr.DataType().ID() {
	case arrow.STRING, arrow.INT64, arrow.FLOAT64, arrow.BOOL:
		return series.FromArray(name, arr)
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.UINT8, arrow.UINT16, arrow.UINT32:
		return convertArray(name, arr, schema.Integer, r.mem), nil
	case arrow.FLOAT16, arrow.FLOAT32:
		return convertArray(name, arr, schema.Float, r.mem), nil
	default:
		return convertArray(name, arr, schema.String, r.mem), nil
	}
}

// convertArray parses the string rendering of each cell into type t.
func convertArray(name string, arr arrow.Array, t schema.Type, mem memory.Allocator) *series.Column {
	b := series.NewBuilder(t, arr.Len(), mem)
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			b.AppendNull()
			continue
		}
		if v, ok := schema.ParseCell(arr.ValueStr(i), t); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}
	}
	return b.Finish(name)
}

func semanticType(dt arrow.DataType) schema.Type {
	//nolint:exhaustive // remaining types are read as strings
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64, arrow.UINT8, arrow.UINT16, arrow.UINT32:
		return schema.Integer
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return schema.Float
	case arrow.BOOL:
		return schema.Boolean
	default:
		return schema.String
	}
}

// Write writes the dataset to Parquet format.
func (w *ParquetWriter) Write(ds *dataframe.Dataset) error {
	table := w.datasetToArrowTable(ds)
	defer table.Release()

	var compression compress.Compression
	switch w.options.Compression {
	case "snappy":
		compression = compress.Codecs.Snappy
	case "gzip":
		compression = compress.Codecs.Gzip
	case "lz4":
		compression = compress.Codecs.Lz4Raw
	case "zstd":
		compression = compress.Codecs.Zstd
	case "uncompressed":
		compression = compress.Codecs.Uncompressed
	default:
		compression = compress.Codecs.Snappy
	}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compression),
		parquet.WithBatchSize(int64(w.options.BatchSize)),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(memory.NewGoAllocator()))

	writer, err := pqarrow.NewFileWriter(table.Schema(), w.writer, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}

	if err := writer.WriteTable(table, max(int64(ds.Len()), 1)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing table: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing file writer: %w", err)
	}
	return nil
}

// datasetToArrowTable converts a dataset to an Arrow table sharing its arrays.
func (w *ParquetWriter) datasetToArrowTable(ds *dataframe.Dataset) arrow.Table {
	fields := make([]arrow.Field, 0, ds.Width())
	columns := make([]arrow.Column, 0, ds.Width())
	owned := make([]*arrow.Column, 0, ds.Width())
	defer func() {
		for _, c := range owned {
			c.Release()
		}
	}()

	for _, name := range ds.Columns() {
		col, _ := ds.Column(name)
		arr := col.Array()

		field := arrow.Field{Name: name, Type: arr.DataType(), Nullable: true}
		fields = append(fields, field)

		chunked := arrow.NewChunked(arr.DataType(), []arrow.Array{arr})
		arr.Release()
		column := arrow.NewColumn(field, chunked)
		chunked.Release()
		owned = append(owned, column)
		columns = append(columns, *column)
	}

	return array.NewTable(arrow.NewSchema(fields, nil), columns, int64(ds.Len()))
}
