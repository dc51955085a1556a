// Package common provides shared utilities for string representations and type conversions
package common

import (
	"fmt"
	"strings"
)

// FormatBinaryOperation formats a binary operation string representation
// Pattern: (left operator right).
func FormatBinaryOperation(left, operator, right string) string {
	return fmt.Sprintf("(%s %s %s)", left, operator, right)
}

// FormatUnaryOperation formats a unary operation string representation
// Pattern: operator(operand).
func FormatUnaryOperation(operator, operand string) string {
	return fmt.Sprintf("%s(%s)", operator, operand)
}

// FormatLabeled formats a name with a parenthesised qualifier
// Pattern: name (qualifier).
func FormatLabeled(name, qualifier string) string {
	return fmt.Sprintf("%s (%s)", name, qualifier)
}

// JoinKey joins composite key parts with the user-facing " | " separator.
func JoinKey(parts ...string) string {
	return strings.Join(parts, " | ")
}

// EnumStringMap represents a mapping from enum values to string representations.
type EnumStringMap map[int]string

// FormatEnum formats an enum value using the provided mapping.
func FormatEnum(value int, mapping EnumStringMap) string {
	if str, exists := mapping[value]; exists {
		return str
	}
	return fmt.Sprintf("unknown(%d)", value)
}
