// Package schema determines the semantic type of raw column values.
//
// Inference works on the textual cells produced by every source reader and
// tolerates locale formatting: currency symbols, percent signs, thousands
// separators and decimal commas are understood before a numeric parse is
// attempted. Nothing in this package mutates its input.
package schema

import (
	"fmt"
	"strings"
)

// Type is the logical type of a column, independent of storage.
type Type int

const (
	String Type = iota
	Integer
	Float
	Boolean
)

var typeNames = map[Type]string{
	String:  "string",
	Integer: "integer",
	Float:   "float",
	Boolean: "boolean",
}

var typeAliases = map[string]Type{
	"string":  String,
	"str":     String,
	"text":    String,
	"utf8":    String,
	"integer": Integer,
	"int":     Integer,
	"int64":   Integer,
	"float":   Float,
	"float64": Float,
	"double":  Float,
	"number":  Float,
	"boolean": Boolean,
	"bool":    Boolean,
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Valid reports whether t is one of the defined types.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// IsNumeric reports whether values of the type are numbers.
func (t Type) IsNumeric() bool {
	return t == Integer || t == Float
}

// ParseType resolves a user supplied type name. Matching is case-insensitive
// and accepts the common aliases (int64, float64, bool, utf8, ...).
func ParseType(name string) (Type, bool) {
	t, ok := typeAliases[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if _, ok := typeNames[t]; !ok {
		return nil, fmt.Errorf("unknown semantic type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, ok := ParseType(string(text))
	if !ok {
		return fmt.Errorf("unknown semantic type %q", string(text))
	}
	*t = parsed
	return nil
}
