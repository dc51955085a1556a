// Package testutil provides dataset builders, fixture files and assertions
// shared by the package tests.
package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabula/internal/dataframe"
	"github.com/paveg/tabula/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const (
	// defaultRowCount is the default number of rows in test datasets.
	defaultRowCount = 4
)

// TestMemoryContext provides a memory allocator with automatic cleanup.
type TestMemoryContext struct {
	Allocator memory.Allocator
	cleanup   func()
}

// Release performs cleanup of the memory context.
func (tmc *TestMemoryContext) Release() {
	if tmc.cleanup != nil {
		tmc.cleanup()
	}
}

// SetupMemoryTest creates an allocator for a test. With a checked
// allocator the test fails when buffers leak.
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	allocator := memory.NewCheckedAllocator(memory.NewGoAllocator())

	return &TestMemoryContext{
		Allocator: allocator,
		cleanup: func() {
			allocator.AssertSize(tb, 0)
		},
	}
}

// DatasetOption configures test dataset creation.
type DatasetOption func(*datasetConfig)

type datasetConfig struct {
	includeNulls bool
	rowCount     int
}

// WithNulls makes every third salary null.
func WithNulls() DatasetOption {
	return func(cfg *datasetConfig) {
		cfg.includeNulls = true
	}
}

// WithRowCount sets the number of rows.
func WithRowCount(count int) DatasetOption {
	return func(cfg *datasetConfig) {
		cfg.rowCount = count
	}
}

// CreateEmployeeDataset creates the standard employee dataset:
//
//	name (String)        Alice, Bob, Charlie, David, ...
//	age (Integer)        25, 30, 35, 28, ...
//	department (String)  Engineering, Sales, Engineering, Marketing, ...
//	salary (Float)       100000, 80000, 120000, 75000, ...
//	active (Boolean)     true, true, false, true, ...
func CreateEmployeeDataset(allocator memory.Allocator, opts ...DatasetOption) *dataframe.Dataset {
	cfg := &datasetConfig{rowCount: defaultRowCount}
	for _, opt := range opts {
		opt(cfg)
	}

	var salaryValid []bool
	if cfg.includeNulls {
		salaryValid = make([]bool, cfg.rowCount)
		for i := range salaryValid {
			salaryValid[i] = i%3 != 2
		}
	}

	return dataframe.MustNew(
		series.Of("name", cycle(cfg.rowCount, "Alice", "Bob", "Charlie", "David", "Eve", "Frank", "Grace", "Henry"), nil, allocator),
		series.Of("age", cycle[int64](cfg.rowCount, 25, 30, 35, 28, 32, 45, 29, 38), nil, allocator),
		series.Of("department", cycle(cfg.rowCount, "Engineering", "Sales", "Engineering", "Marketing", "HR", "Finance"), nil, allocator),
		series.Of("salary", cycle(cfg.rowCount, 100000.0, 80000, 120000, 75000, 90000, 110000), salaryValid, allocator),
		series.Of("active", cycle(cfg.rowCount, true, true, false, true, true, false), nil, allocator),
	)
}

func cycle[T any](count int, base ...T) []T {
	out := make([]T, count)
	for i := range out {
		out[i] = base[i%len(base)]
	}
	return out
}

// WriteFile writes content to name inside dir and returns the path.
func WriteFile(tb testing.TB, dir, name, content string) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	require.NoError(tb, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// WriteCSV writes a header and rows as comma separated text.
func WriteCSV(tb testing.TB, dir, name string, header []string, rows ...[]string) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path) //nolint:gosec // test fixture path
	require.NoError(tb, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(tb, w.Write(header))
	require.NoError(tb, w.WriteAll(rows))
	return path
}

// Sheet is one worksheet of a workbook fixture.
type Sheet struct {
	Name string
	Rows [][]any
}

// WriteWorkbook writes an xlsx workbook with the given sheets in order.
func WriteWorkbook(tb testing.TB, dir, name string, sheets ...Sheet) string {
	tb.Helper()
	require.NotEmpty(tb, sheets)

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			require.NoError(tb, f.SetSheetName("Sheet1", sheet.Name))
		} else {
			_, err := f.NewSheet(sheet.Name)
			require.NoError(tb, err)
		}
		for r, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(tb, err)
			values := row
			require.NoError(tb, f.SetSheetRow(sheet.Name, cell, &values))
		}
	}

	path := filepath.Join(dir, name)
	require.NoError(tb, f.SaveAs(path))
	return path
}

// ReadFile returns the content of path, for byte-identity checks.
func ReadFile(tb testing.TB, path string) []byte {
	tb.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test fixture path
	require.NoError(tb, err)
	return data
}

// ColumnValues returns the cells of a column as Go values (nil for null).
func ColumnValues(tb testing.TB, ds *dataframe.Dataset, name string) []any {
	tb.Helper()
	col, ok := ds.Column(name)
	require.True(tb, ok, "column %s should exist", name)

	values := make([]any, col.Len())
	for i := range values {
		values[i] = col.Value(i)
	}
	return values
}

// AssertDatasetEqual compares names, types and cells of two datasets.
func AssertDatasetEqual(t *testing.T, expected, actual *dataframe.Dataset) {
	t.Helper()

	require.NotNil(t, expected, "expected dataset should not be nil")
	require.NotNil(t, actual, "actual dataset should not be nil")

	assert.Equal(t, expected.Len(), actual.Len(), "dataset lengths should match")
	assert.Equal(t, expected.Fields(), actual.Fields(), "dataset fields should match")
	for _, name := range expected.Columns() {
		assert.Equal(t, ColumnValues(t, expected, name), ColumnValues(t, actual, name),
			"column %s data should match", name)
	}
}

// AssertDatasetHasColumns verifies that a dataset has the expected columns.
func AssertDatasetHasColumns(t *testing.T, ds *dataframe.Dataset, expectedColumns []string) {
	t.Helper()

	require.NotNil(t, ds, "dataset should not be nil")
	assert.Len(t, ds.Columns(), len(expectedColumns), "column count should match")
	for _, col := range expectedColumns {
		assert.True(t, ds.HasColumn(col), "dataset should have column %s", col)
	}
}
