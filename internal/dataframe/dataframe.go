// Package dataframe provides the immutable tabular dataset the engine operates on
package dataframe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/schema"
	"github.com/paveg/tabula/internal/series"
)

// Dataset is an ordered set of uniquely named columns of equal length.
// A Dataset is never mutated after construction; operations that change
// it return a new value sharing unchanged columns.
type Dataset struct {
	columns map[string]*series.Column
	order   []string // Maintains column order
}

// Field describes one column of a dataset.
type Field struct {
	Name string
	Type schema.Type
}

// New creates a dataset from columns. The dataset takes ownership of them.
func New(cols ...*series.Column) (*Dataset, error) {
	columns := make(map[string]*series.Column, len(cols))
	order := make([]string, 0, len(cols))

	for _, c := range cols {
		if _, exists := columns[c.Name()]; exists {
			return nil, dferrors.NewDuplicateColumnError("New", c.Name())
		}
		if len(order) > 0 && c.Len() != columns[order[0]].Len() {
			return nil, dferrors.NewValidationError("New", c.Name(),
				fmt.Sprintf("length %d does not match %d", c.Len(), columns[order[0]].Len()))
		}
		columns[c.Name()] = c
		order = append(order, c.Name())
	}

	return &Dataset{columns: columns, order: order}, nil
}

// MustNew is New for callers that build columns they control.
func MustNew(cols ...*series.Column) *Dataset {
	ds, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return ds
}

// Columns returns the names of all columns in order
func (ds *Dataset) Columns() []string {
	if len(ds.order) == 0 {
		return []string{}
	}
	return append([]string(nil), ds.order...)
}

// Fields returns name and type of every column in order.
func (ds *Dataset) Fields() []Field {
	fields := make([]Field, 0, len(ds.order))
	for _, name := range ds.order {
		fields = append(fields, Field{Name: name, Type: ds.columns[name].Type()})
	}
	return fields
}

// Len returns the number of rows
func (ds *Dataset) Len() int {
	if len(ds.order) == 0 {
		return 0
	}
	return ds.columns[ds.order[0]].Len()
}

// Width returns the number of columns
func (ds *Dataset) Width() int {
	return len(ds.order)
}

// Column returns the column with the given name
func (ds *Dataset) Column(name string) (*series.Column, bool) {
	c, exists := ds.columns[name]
	return c, exists
}

// HasColumn checks if a column exists
func (ds *Dataset) HasColumn(name string) bool {
	_, exists := ds.columns[name]
	return exists
}

// Row returns the cells of row i in column order.
func (ds *Dataset) Row(i int) []any {
	row := make([]any, len(ds.order))
	for j, name := range ds.order {
		row[j] = ds.columns[name].Value(i)
	}
	return row
}

// RowStrings returns the canonical string form of row i in column order.
func (ds *Dataset) RowStrings(i int) []string {
	row := make([]string, len(ds.order))
	for j, name := range ds.order {
		row[j] = ds.columns[name].Text(i)
	}
	return row
}

// Take returns a new dataset holding the given rows in the given order.
func (ds *Dataset) Take(indices []int) *Dataset {
	mem := memory.NewGoAllocator()
	columns := make(map[string]*series.Column, len(ds.order))
	for _, name := range ds.order {
		columns[name] = ds.columns[name].Take(indices, mem)
	}
	return &Dataset{columns: columns, order: ds.Columns()}
}

// Head returns the first n rows (all rows when n exceeds the length).
func (ds *Dataset) Head(n int) *Dataset {
	if n < 0 {
		n = 0
	}
	if n > ds.Len() {
		n = ds.Len()
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return ds.Take(indices)
}

// WithColumn returns a new dataset with col appended.
func (ds *Dataset) WithColumn(col *series.Column) (*Dataset, error) {
	if ds.HasColumn(col.Name()) {
		return nil, dferrors.NewDuplicateColumnError("WithColumn", col.Name())
	}
	if ds.Width() > 0 && col.Len() != ds.Len() {
		return nil, dferrors.NewValidationError("WithColumn", col.Name(),
			fmt.Sprintf("length %d does not match %d", col.Len(), ds.Len()))
	}

	next := ds.share()
	next.columns[col.Name()] = col
	next.order = append(next.order, col.Name())
	return next, nil
}

// ReplaceColumns returns a new dataset where each given column takes the
// place of the existing column with the same name.
func (ds *Dataset) ReplaceColumns(cols ...*series.Column) (*Dataset, error) {
	for _, c := range cols {
		if !ds.HasColumn(c.Name()) {
			return nil, dferrors.NewUnknownColumnError("ReplaceColumns", c.Name())
		}
		if c.Len() != ds.Len() {
			return nil, dferrors.NewValidationError("ReplaceColumns", c.Name(),
				fmt.Sprintf("length %d does not match %d", c.Len(), ds.Len()))
		}
	}

	replaced := make(map[string]*series.Column, len(cols))
	for _, c := range cols {
		replaced[c.Name()] = c
	}

	columns := make(map[string]*series.Column, len(ds.order))
	for _, name := range ds.order {
		if c, ok := replaced[name]; ok {
			columns[name] = c
			continue
		}
		columns[name] = ds.columns[name].Rename(name)
	}
	return &Dataset{columns: columns, order: ds.Columns()}, nil
}

// share creates a new dataset holding its own references to every column.
func (ds *Dataset) share() *Dataset {
	columns := make(map[string]*series.Column, len(ds.order)+1)
	for _, name := range ds.order {
		columns[name] = ds.columns[name].Rename(name)
	}
	return &Dataset{columns: columns, order: ds.Columns()}
}

// String returns a string representation of the Dataset
func (ds *Dataset) String() string {
	if len(ds.order) == 0 {
		return "Dataset[empty]"
	}

	parts := []string{fmt.Sprintf("Dataset[%dx%d]", ds.Len(), ds.Width())}
	for _, name := range ds.order {
		parts = append(parts, fmt.Sprintf("  %s: %s", name, ds.columns[name].Type()))
	}
	return strings.Join(parts, "\n")
}

// Release releases this dataset's references to its columns
func (ds *Dataset) Release() {
	for _, c := range ds.columns {
		c.Release()
	}
}

// UniqueNames makes raw header cells usable as column names: blank
// headers become column_<position> (1-based) and repeats get a numeric
// suffix (name, name_1, name_2, ...).
func UniqueNames(headers []string) []string {
	names := make([]string, len(headers))
	seen := make(map[string]bool, len(headers))

	for i, h := range headers {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		candidate := name
		for n := 1; seen[candidate]; n++ {
			candidate = name + "_" + strconv.Itoa(n)
		}
		seen[candidate] = true
		names[i] = candidate
	}
	return names
}
