package series

import (
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabula/internal/schema"
)

// Builder accumulates cells of one semantic type.
type Builder struct {
	typ     schema.Type
	builder array.Builder
}

// NewBuilder creates a builder for t with room for capacity cells.
func NewBuilder(t schema.Type, capacity int, mem memory.Allocator) *Builder {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	var b array.Builder
	switch t {
	case schema.Integer:
		b = array.NewInt64Builder(mem)
	case schema.Float:
		b = array.NewFloat64Builder(mem)
	case schema.Boolean:
		b = array.NewBooleanBuilder(mem)
	default:
		t = schema.String
		b = array.NewStringBuilder(mem)
	}
	b.Reserve(capacity)
	return &Builder{typ: t, builder: b}
}

// Append adds a cell. Values whose Go type does not match the builder type
// are appended as null.
func (b *Builder) Append(v any) {
	switch bb := b.builder.(type) {
	case *array.StringBuilder:
		if s, ok := v.(string); ok {
			bb.Append(s)
			return
		}
	case *array.Int64Builder:
		if i, ok := v.(int64); ok {
			bb.Append(i)
			return
		}
	case *array.Float64Builder:
		if f, ok := v.(float64); ok {
			bb.Append(f)
			return
		}
	case *array.BooleanBuilder:
		if x, ok := v.(bool); ok {
			bb.Append(x)
			return
		}
	}
	b.builder.AppendNull()
}

// AppendNull adds a null cell.
func (b *Builder) AppendNull() {
	b.builder.AppendNull()
}

// Finish builds the column and releases the builder.
func (b *Builder) Finish(name string) *Column {
	defer b.builder.Release()
	return &Column{name: name, typ: b.typ, array: b.builder.NewArray()}
}
