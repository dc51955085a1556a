// Package series provides the typed, nullable column used by datasets.
// Values live in an Apache Arrow array; nulls use the array validity bitmap.
package series

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabula/internal/schema"
)

// Value is the set of Go types a column cell can hold.
type Value interface {
	~string | ~int64 | ~float64 | ~bool
}

// Column is a named, typed column backed by an Arrow array.
type Column struct {
	name  string
	typ   schema.Type
	array arrow.Array
}

// Of creates a column from a typed slice. valid may be nil (no nulls);
// otherwise valid[i] == false marks values[i] as null.
func Of[T Value](name string, values []T, valid []bool, mem memory.Allocator) *Column {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	var (
		typ schema.Type
		arr arrow.Array
	)

	switch v := any(values).(type) {
	case []string:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		typ, arr = schema.String, builder.NewArray()
	case []int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		typ, arr = schema.Integer, builder.NewArray()
	case []float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		typ, arr = schema.Float, builder.NewArray()
	case []bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		typ, arr = schema.Boolean, builder.NewArray()
	default:
		panic(fmt.Sprintf("unsupported type: %T", values))
	}

	return &Column{name: name, typ: typ, array: arr}
}

// New creates a column of type t from loosely typed cells. A nil cell or a
// cell whose Go type does not match t becomes null.
func New(name string, t schema.Type, cells []any, mem memory.Allocator) *Column {
	b := NewBuilder(t, len(cells), mem)
	for _, cell := range cells {
		b.Append(cell)
	}
	return b.Finish(name)
}

// FromStrings parses raw cells into a column of type t. Cells that are
// empty or fail to parse become null.
func FromStrings(name string, raw []string, t schema.Type, mem memory.Allocator) *Column {
	b := NewBuilder(t, len(raw), mem)
	for _, cell := range raw {
		v, ok := schema.ParseCell(cell, t)
		if !ok {
			b.AppendNull()
			continue
		}
		b.Append(v)
	}
	return b.Finish(name)
}

// FromArray wraps an existing Arrow array. The array is retained.
func FromArray(name string, arr arrow.Array) (*Column, error) {
	var typ schema.Type
	switch arr.DataType().ID() {
	case arrow.STRING:
		typ = schema.String
	case arrow.INT64:
		typ = schema.Integer
	case arrow.FLOAT64:
		typ = schema.Float
	case arrow.BOOL:
		typ = schema.Boolean
	default:
		return nil, fmt.Errorf("unsupported arrow type %s for column %s", arr.DataType(), name)
	}
	arr.Retain()
	return &Column{name: name, typ: typ, array: arr}, nil
}

// Name returns the column name
func (c *Column) Name() string {
	return c.name
}

// Type returns the semantic type
func (c *Column) Type() schema.Type {
	return c.typ
}

// Len returns the number of cells
func (c *Column) Len() int {
	return c.array.Len()
}

// NullCount returns the number of null cells
func (c *Column) NullCount() int {
	return c.array.NullN()
}

// IsNull checks if the value at index is null
func (c *Column) IsNull(i int) bool {
	return c.array.IsNull(i)
}

// Value returns the cell at i as string, int64, float64 or bool, or nil.
func (c *Column) Value(i int) any {
	if c.array.IsNull(i) {
		return nil
	}
	switch arr := c.array.(type) {
	case *array.String:
		return arr.Value(i)
	case *array.Int64:
		return arr.Value(i)
	case *array.Float64:
		return arr.Value(i)
	case *array.Boolean:
		return arr.Value(i)
	default:
		return nil
	}
}

// Float returns the cell at i as a float64 for numeric columns.
func (c *Column) Float(i int) (float64, bool) {
	if c.array.IsNull(i) {
		return 0, false
	}
	switch arr := c.array.(type) {
	case *array.Int64:
		return float64(arr.Value(i)), true
	case *array.Float64:
		return arr.Value(i), true
	default:
		return 0, false
	}
}

// Text returns the canonical string form of the cell at i ("" when null).
func (c *Column) Text(i int) string {
	return FormatValue(c.Value(i))
}

// Array returns the underlying Arrow array (retains a reference)
func (c *Column) Array() arrow.Array {
	c.array.Retain()
	return c.array
}

// Rename returns a column sharing the same data under a new name.
func (c *Column) Rename(name string) *Column {
	c.array.Retain()
	return &Column{name: name, typ: c.typ, array: c.array}
}

// Take returns a new column holding the cells at the given indices.
func (c *Column) Take(indices []int, mem memory.Allocator) *Column {
	b := NewBuilder(c.typ, len(indices), mem)
	for _, i := range indices {
		b.Append(c.Value(i))
	}
	return b.Finish(c.name)
}

// Distinct returns the number of distinct non-null values.
func (c *Column) Distinct() int {
	seen := make(map[any]struct{})
	for i := 0; i < c.Len(); i++ {
		if v := c.Value(i); v != nil {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// String returns a short description of the column
func (c *Column) String() string {
	return fmt.Sprintf("Column[%s]: %s (len=%d, nulls=%d)", c.typ, c.name, c.Len(), c.NullCount())
}

// Release releases the underlying Arrow memory
func (c *Column) Release() {
	if c.array != nil {
		c.array.Release()
	}
}

// FormatValue renders a cell the way writers and string comparisons see it.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
