package io

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabula/internal/dataframe"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/parallel"
	"github.com/paveg/tabula/internal/schema"
	"github.com/paveg/tabula/internal/series"
)

// LoadOptions controls how sources become datasets.
type LoadOptions struct {
	// MaxRows is the largest accepted number of data rows (0 = unlimited)
	MaxRows int
	// ParallelThreshold is the cell count (rows x columns) from which
	// columns are inferred concurrently (0 = never)
	ParallelThreshold int
	// Pool runs concurrent inference; nil means sequential
	Pool *parallel.WorkerPool
}

// Loaded is the outcome of Load. When a sheet must be chosen first,
// Dataset is nil and Sheets lists the choices.
type Loaded struct {
	Source  Source
	Sheets  []string
	Dataset *dataframe.Dataset
}

// NeedsSheet reports whether the caller must pick a sheet before the
// source can be parsed.
func (l *Loaded) NeedsSheet() bool {
	return l.Dataset == nil
}

// Load parses the source at path. For multi-sheet sources sheet selects
// the sheet; when it is empty a single-sheet source is read directly and a
// multi-sheet source returns a Loaded that needs a sheet.
func Load(ctx context.Context, path, sheet string, opts LoadOptions) (*Loaded, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	loaded := &Loaded{Source: Source{Path: path, Format: format}}

	switch format {
	case FormatParquet:
		ds, err := readParquetFile(path)
		if err != nil {
			return nil, dferrors.NewIOError("Load", path, err)
		}
		if err := checkRowLimit(ds.Len(), opts.MaxRows); err != nil {
			ds.Release()
			return nil, err
		}
		loaded.Dataset = ds
		return loaded, nil

	case FormatDelimited:
		raw, delimiter, err := readDelimitedFile(path)
		if err != nil {
			return nil, dferrors.NewIOError("Load", path, err)
		}
		loaded.Source.Delimiter = delimiter
		loaded.Dataset, err = BuildDataset(ctx, raw, opts)
		if err != nil {
			return nil, err
		}
		return loaded, nil

	default:
		sheets, err := Sheets(path, format)
		if err != nil {
			return nil, dferrors.NewIOError("Load", path, err)
		}
		loaded.Sheets = sheets

		if sheet == "" {
			if len(sheets) != 1 {
				return loaded, nil
			}
			sheet = sheets[0]
		}

		raw, err := ReadSheet(path, format, sheet)
		if err != nil {
			if _, ok := dferrors.KindOf(err); ok {
				return nil, err
			}
			return nil, dferrors.NewIOError("Load", path, err)
		}
		loaded.Source.Sheet = sheet
		loaded.Dataset, err = BuildDataset(ctx, raw, opts)
		if err != nil {
			return nil, err
		}
		return loaded, nil
	}
}

// BuildDataset infers a type for every raw column and parses it.
func BuildDataset(ctx context.Context, raw *RawTable, opts LoadOptions) (*dataframe.Dataset, error) {
	if err := checkRowLimit(len(raw.Rows), opts.MaxRows); err != nil {
		return nil, err
	}

	names := dataframe.UniqueNames(raw.Headers)
	build := func(_ context.Context, i int, name string) (*series.Column, error) {
		cells := raw.Column(i)
		return series.FromStrings(name, cells, schema.Infer(cells), memory.NewGoAllocator()), nil
	}

	var (
		cols []*series.Column
		err  error
	)
	if opts.Pool != nil && opts.ParallelThreshold > 0 && len(raw.Rows)*len(names) >= opts.ParallelThreshold {
		cols, err = parallel.Map(ctx, opts.Pool, names, build)
		if err != nil {
			return nil, err
		}
	} else {
		cols = make([]*series.Column, 0, len(names))
		for i, name := range names {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			col, _ := build(ctx, i, name)
			cols = append(cols, col)
		}
	}

	return dataframe.New(cols...)
}

func checkRowLimit(rows, limit int) error {
	if limit > 0 && rows > limit {
		return dferrors.NewValidationError("Load", "",
			fmt.Sprintf("source has %d rows, more than the limit of %d", rows, limit))
	}
	return nil
}

func readDelimitedFile(path string) (*RawTable, rune, error) {
	reader, cleanup, err := openDecompressed(path)
	if err != nil {
		return nil, 0, err
	}
	defer cleanup()

	options := DefaultDelimitedOptions()
	if strings.HasPrefix(strings.ToLower(Extension(path)), ".tsv") {
		options.Delimiter = '\t'
	}

	delimited := NewDelimitedReader(reader, options)
	raw, err := delimited.ReadRaw()
	if err != nil {
		return nil, 0, err
	}
	return raw, delimited.Delimiter(), nil
}

func readParquetFile(path string) (*dataframe.Dataset, error) {
	file, err := os.Open(path) //nolint:gosec // caller-provided source path
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return NewParquetReader(file, DefaultParquetOptions(), nil).Read()
}

// Save persists ds to the backing file of src with AtomicReplace and returns
// the possibly relocated source: a legacy xls workbook becomes an xlsx
// workbook next to it.
func Save(src Source, ds *dataframe.Dataset) (Source, error) {
	dst := src
	var write func(tmp string) error

	switch src.Format {
	case FormatDelimited:
		write = func(tmp string) error {
			writer, closeFn, err := createCompressed(tmp)
			if err != nil {
				return err
			}
			options := DefaultDelimitedOptions()
			options.Delimiter = src.Delimiter
			if err := NewDelimitedWriter(writer, options).Write(ds); err != nil {
				_ = closeFn()
				return err
			}
			return closeFn()
		}

	case FormatSpreadsheet:
		write = func(tmp string) error {
			return writeXLSX(src.Path, tmp, src.Sheet, ds)
		}

	case FormatLegacySpreadsheet:
		dst.Path = strings.TrimSuffix(src.Path, filepath.Ext(src.Path)) + ".xlsx"
		dst.Format = FormatSpreadsheet
		if _, err := os.Stat(dst.Path); err == nil {
			return src, dferrors.NewIOError("Save", dst.Path, fmt.Errorf("%s already exists", filepath.Base(dst.Path)))
		}
		write = func(tmp string) error {
			return upgradeXLS(src.Path, tmp, src.Sheet, ds)
		}

	case FormatParquet:
		write = func(tmp string) error {
			file, err := os.Create(tmp) //nolint:gosec // sibling of the source path
			if err != nil {
				return err
			}
			if err := NewParquetWriter(file, DefaultParquetOptions()).Write(ds); err != nil {
				_ = file.Close()
				return err
			}
			return file.Close()
		}

	default:
		return src, dferrors.NewUnsupportedFormatError("Save", src.Path)
	}

	if err := AtomicReplace(src.Path, dst.Path, write); err != nil {
		return src, err
	}
	return dst, nil
}
