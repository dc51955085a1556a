package schema

import (
	"strings"
)

// Infer determines the most specific type able to hold every non-empty value.
// Empty cells are nulls and do not vote; an all-null column is a String.
func Infer(values []string) Type {
	canBeBool := true
	canBeInt := true
	canBeFloat := true
	hasNonEmptyValue := false

	for _, raw := range values {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		hasNonEmptyValue = true

		if canBeBool {
			if _, ok := ParseBool(value); !ok {
				canBeBool = false
			}
		}
		if canBeInt {
			if _, ok := ParseInteger(value); !ok {
				canBeInt = false
			}
		}
		if canBeFloat {
			if _, ok := ParseNumber(value); !ok {
				canBeFloat = false
				canBeInt = false
			}
		}

		if !canBeBool && !canBeFloat {
			return String
		}
	}

	switch {
	case !hasNonEmptyValue:
		return String
	case canBeBool:
		return Boolean
	case canBeInt:
		return Integer
	case canBeFloat:
		return Float
	default:
		return String
	}
}

// ParseCell converts one raw cell to a Go value of the given type: string,
// int64, float64 or bool. The second result is false for null cells and for
// cells that do not parse.
func ParseCell(raw string, t Type) (any, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, false
	}

	switch t {
	case Integer:
		if i, ok := ParseInteger(value); ok {
			return i, true
		}
		return nil, false
	case Float:
		if f, ok := ParseNumber(value); ok {
			return f, true
		}
		return nil, false
	case Boolean:
		if b, ok := ParseBool(value); ok {
			return b, true
		}
		return nil, false
	default:
		return raw, true
	}
}
