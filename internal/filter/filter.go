// Package filter narrows a dataset to the rows matching a set of per-column
// equality or membership constraints.
package filter

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabula/internal/common"
	"github.com/paveg/tabula/internal/dataframe"
	"github.com/paveg/tabula/internal/schema"
	"github.com/paveg/tabula/internal/series"
)

// Spec maps column names to a scalar (equality) or a slice (membership).
// nil, "" and empty slices place no constraint on the column.
type Spec map[string]any

// IsEmpty reports whether the spec constrains nothing.
func (s Spec) IsEmpty() bool {
	for _, v := range s {
		if !unconstrained(v) {
			return false
		}
	}
	return true
}

// Skipped describes a constraint that was dropped instead of applied.
type Skipped struct {
	Column string
	Value  any
	Reason string
}

// constraint is one compiled column test. Values are held as float64, bool
// or string depending on the column type.
type constraint struct {
	column *series.Column
	typ    schema.Type
	set    map[any]struct{}
}

func (c *constraint) match(i int) bool {
	var key any
	switch c.typ {
	case schema.Integer, schema.Float:
		f, ok := c.column.Float(i)
		if !ok {
			return false
		}
		key = f
	default:
		key = c.column.Value(i)
		if key == nil {
			return false
		}
	}
	_, ok := c.set[key]
	return ok
}

// Apply returns the rows of ds matching every applicable constraint in spec.
// The input dataset is not modified.
func Apply(ds *dataframe.Dataset, spec Spec) *dataframe.Dataset {
	out, _ := ApplyWithReport(ds, spec)
	return out
}

// ApplyWithReport is Apply that also lists the constraints it dropped,
// ordered by column name.
func ApplyWithReport(ds *dataframe.Dataset, spec Spec) (*dataframe.Dataset, []Skipped) {
	constraints, skipped := compile(ds, spec)
	if len(constraints) == 0 {
		out, _ := ds.ReplaceColumns()
		return out, skipped
	}

	mask := buildMask(ds.Len(), constraints)
	defer mask.Release()

	// lengths always agree here
	out, _ := ds.Filter(mask)
	return out, skipped
}

func compile(ds *dataframe.Dataset, spec Spec) ([]*constraint, []Skipped) {
	names := make([]string, 0, len(spec))
	for name := range spec {
		names = append(names, name)
	}
	sort.Strings(names)

	var constraints []*constraint
	var skipped []Skipped
	for _, name := range names {
		raw := spec[name]
		if unconstrained(raw) {
			continue
		}

		col, ok := ds.Column(name)
		if !ok {
			skipped = append(skipped, Skipped{Column: name, Value: raw, Reason: "unknown column"})
			continue
		}

		set := make(map[any]struct{})
		failed := false
		for _, v := range values(raw) {
			typed, ok := TryCoerce(v, col.Type())
			if !ok {
				skipped = append(skipped, Skipped{
					Column: name,
					Value:  raw,
					Reason: fmt.Sprintf("%v is not a valid %s", v, col.Type()),
				})
				failed = true
				break
			}
			set[typed] = struct{}{}
		}
		if failed {
			continue
		}
		constraints = append(constraints, &constraint{column: col, typ: col.Type(), set: set})
	}
	return constraints, skipped
}

func buildMask(n int, constraints []*constraint) *array.Boolean {
	b := array.NewBooleanBuilder(memory.NewGoAllocator())
	defer b.Release()
	b.Reserve(n)
	for i := 0; i < n; i++ {
		b.UnsafeAppend(matchAll(constraints, i))
	}
	return b.NewBooleanArray()
}

func matchAll(constraints []*constraint, i int) bool {
	for _, c := range constraints {
		if !c.match(i) {
			return false
		}
	}
	return true
}

// TryCoerce converts a filter value to the comparison form used for a
// column of type t: float64 for numeric columns, bool for Boolean and the
// canonical string for String. ok is false when the value does not fit.
func TryCoerce(value any, t schema.Type) (any, bool) {
	if value == nil {
		return nil, false
	}

	switch t {
	case schema.Integer, schema.Float:
		if _, isBool := value.(bool); isBool {
			return nil, false
		}
		f, err := common.ToFloat64(value)
		if err != nil || !common.IsFinite(f) {
			return nil, false
		}
		return f, true
	case schema.Boolean:
		b, err := common.ToBool(value)
		if err != nil {
			return nil, false
		}
		return b, true
	case schema.String:
		return common.ToString(value), true
	default:
		return nil, false
	}
}

func unconstrained(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Slice && rv.Len() == 0
}

func values(v any) []any {
	switch val := v.(type) {
	case []any:
		return val
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
