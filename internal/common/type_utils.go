package common

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paveg/tabula/internal/schema"
	"golang.org/x/exp/constraints"
)

// Number is any Go integer or float type.
type Number interface {
	constraints.Integer | constraints.Float
}

// ToFloat64 converts loosely typed request values (JSON numbers, Go
// numerics, numeric strings) to float64.
func ToFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		if f, ok := schema.ParseNumber(v); ok {
			return f, nil
		}
		return 0, fmt.Errorf("cannot convert %q to float64", v)
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
}

// ToString renders a value the way cells are compared as text. Integral
// floats print without a fractional part, so a JSON 2020 matches "2020".
func ToString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToBool converts bools and the tokens "true"/"false" (any case).
func ToBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		if b, ok := schema.ParseBool(strings.TrimSpace(v)); ok {
			return b, nil
		}
		return false, fmt.Errorf("cannot convert %q to bool", v)
	default:
		return false, fmt.Errorf("cannot convert %T to bool", value)
	}
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// MinMax returns the smallest and largest of values; ok is false when empty.
func MinMax[T Number](values []T) (minV, maxV T, ok bool) {
	if len(values) == 0 {
		return minV, maxV, false
	}
	minV, maxV = values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return minV, maxV, true
}
