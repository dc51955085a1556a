// Package coerce converts dataset columns to a new semantic type. A batch
// of conversions is validated as a whole and either applied completely or
// rejected without changing anything.
package coerce

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabula/internal/dataframe"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/schema"
	"github.com/paveg/tabula/internal/series"
)

// Request asks for Column to be converted to Target.
type Request struct {
	Column string      `json:"column"`
	Target schema.Type `json:"target"`
}

// Warning reports a conversion that succeeded but nulled many values.
type Warning struct {
	Column    string  `json:"column"`
	NullRatio float64 `json:"null_ratio"`
	Message   string  `json:"message"`
}

// Result is the outcome of a successful Retype.
type Result struct {
	Dataset  *dataframe.Dataset
	Warnings []Warning
	// Applied holds the effective target per column, last request wins
	Applied map[string]schema.Type
}

// Options tunes Retype.
type Options struct {
	// NullWarningRatio is the null ratio above which a warning is emitted
	NullWarningRatio float64
}

// Retype converts every requested column. All requests are validated
// before anything is built, and every candidate column is checked for data
// loss before any is committed. The input dataset is never modified.
func Retype(ds *dataframe.Dataset, requests []Request, opts Options) (*Result, error) {
	if len(requests) == 0 {
		return nil, dferrors.NewValidationError("Retype", "", "no columns to convert")
	}

	applied := make(map[string]schema.Type, len(requests))
	order := make([]string, 0, len(requests))
	for _, req := range requests {
		if !ds.HasColumn(req.Column) {
			return nil, dferrors.NewUnknownColumnError("Retype", req.Column)
		}
		if !req.Target.Valid() {
			return nil, dferrors.NewValidationError("Retype", req.Column,
				fmt.Sprintf("unknown target type %s", req.Target))
		}
		if _, seen := applied[req.Column]; !seen {
			order = append(order, req.Column)
		}
		applied[req.Column] = req.Target
	}

	mem := memory.NewGoAllocator()
	candidates := make([]*series.Column, 0, len(order))
	release := func() {
		for _, c := range candidates {
			c.Release()
		}
	}

	for _, name := range order {
		original, _ := ds.Column(name)
		candidate := Convert(original, applied[name], mem)
		candidates = append(candidates, candidate)

		if original.Distinct() > 0 && candidate.Distinct() == 0 {
			release()
			return nil, dferrors.NewDataLossError("Retype", name, applied[name].String())
		}
	}

	next, err := ds.ReplaceColumns(candidates...)
	if err != nil {
		release()
		return nil, err
	}

	result := &Result{Dataset: next, Applied: applied}
	for _, c := range candidates {
		if c.Len() == 0 {
			continue
		}
		ratio := float64(c.NullCount()) / float64(c.Len())
		if ratio > opts.NullWarningRatio {
			result.Warnings = append(result.Warnings, Warning{
				Column:    c.Name(),
				NullRatio: ratio,
				Message: fmt.Sprintf("%.0f%% of the values in %s are empty after converting to %s",
					ratio*100, c.Name(), c.Type()),
			})
		}
	}
	return result, nil
}

// ApplyOverrides converts the columns named in overrides, ignoring names
// the dataset does not have. Unlike Retype it never rejects a conversion:
// overrides were accepted when first requested.
func ApplyOverrides(ds *dataframe.Dataset, overrides map[string]schema.Type) (*dataframe.Dataset, error) {
	mem := memory.NewGoAllocator()
	cols := make([]*series.Column, 0, len(overrides))
	for _, name := range ds.Columns() {
		target, ok := overrides[name]
		if !ok {
			continue
		}
		col, _ := ds.Column(name)
		cols = append(cols, Convert(col, target, mem))
	}
	if len(cols) == 0 {
		return ds.ReplaceColumns()
	}
	return ds.ReplaceColumns(cols...)
}

// Convert builds a copy of col with every value converted to target.
// Values that cannot be converted become null.
func Convert(col *series.Column, target schema.Type, mem memory.Allocator) *series.Column {
	if col.Type() == target {
		return col.Rename(col.Name())
	}

	b := series.NewBuilder(target, col.Len(), mem)
	for i := 0; i < col.Len(); i++ {
		v, ok := convertValue(col.Value(i), target)
		if !ok {
			b.AppendNull()
			continue
		}
		b.Append(v)
	}
	return b.Finish(col.Name())
}

func convertValue(v any, target schema.Type) (any, bool) {
	if v == nil {
		return nil, false
	}

	switch target {
	case schema.String:
		return series.FormatValue(v), true
	case schema.Float:
		f, ok := toFloat(v)
		return f, ok
	case schema.Integer:
		f, ok := toFloat(v)
		if !ok || f >= math.MaxInt64 || f <= math.MinInt64 {
			return nil, false
		}
		return int64(f), true // truncates toward zero
	case schema.Boolean:
		return toBool(v)
	default:
		return nil, false
	}
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return val, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		return ParseLoose(val)
	default:
		return 0, false
	}
}

func toBool(v any) (any, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case int64:
		return val != 0, true
	case float64:
		if math.IsNaN(val) {
			return nil, false
		}
		return val != 0, true
	case string:
		s := strings.TrimSpace(val)
		switch s {
		case "1":
			return true, true
		case "0":
			return false, true
		}
		if b, ok := schema.ParseBool(s); ok {
			return b, true
		}
		return nil, false
	default:
		return nil, false
	}
}

// ParseLoose parses a number after dropping every character other than
// digits, ',', '.' and '-', so "USD 1.234,50" becomes 1234.5. It is more
// permissive than schema.ParseNumber and only used for explicit conversions.
func ParseLoose(s string) (float64, bool) {
	var b strings.Builder
	b.Grow(len(s))
	digits := 0
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			digits++
			b.WriteRune(r)
		case r == ',' || r == '.' || r == '-':
			b.WriteRune(r)
		}
	}
	if digits == 0 {
		return 0, false
	}

	f, err := strconv.ParseFloat(schema.NormalizeSeparators(b.String()), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
