package aggregate

import (
	"cmp"

	"github.com/paveg/tabula/internal/common"
	"github.com/paveg/tabula/internal/schema"
	"github.com/paveg/tabula/internal/series"
	"github.com/shopspring/decimal"
)

// numberAt reads cell i as a number. String cells are parsed with
// schema.ParseNumber; Boolean cells are not numbers.
func numberAt(col *series.Column, i int) (float64, bool) {
	switch col.Type() {
	case schema.Integer, schema.Float:
		return col.Float(i)
	case schema.String:
		if col.IsNull(i) {
			return 0, false
		}
		return schema.ParseNumber(col.Text(i))
	default:
		return 0, false
	}
}

// compareValues orders cell values: numbers numerically, booleans false
// first, everything else by canonical text.
func compareValues(a, b any) int {
	af, aNum := asNumber(a)
	bf, bNum := asNumber(b)
	if aNum && bNum {
		return cmp.Compare(af, bf)
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0
			case !ab:
				return -1
			default:
				return 1
			}
		}
	}
	return cmp.Compare(common.ToString(a), common.ToString(b))
}

func compareTuples(a, b []any) int {
	for i := range a {
		if i >= len(b) {
			return 1
		}
		if c := compareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// sanitize turns non-finite numbers into nil and rounds finite floats to
// two decimal places, half away from zero.
func sanitize(v any) any {
	f, ok := v.(float64)
	if !ok {
		return v
	}
	if !common.IsFinite(f) {
		return nil
	}
	return round2(f)
}

func round2(f float64) float64 {
	r, _ := decimal.NewFromFloat(f).Round(2).Float64()
	return r
}
