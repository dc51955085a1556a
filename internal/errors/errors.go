// Package errors provides the typed error taxonomy shared by every engine
// operation. Each Error carries a stable Kind so callers can branch on the
// failure class, plus the operation and column context that produced it.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an Error. The string form is stable and safe to expose.
type Kind int

const (
	// KindValidation marks malformed or missing request fields.
	KindValidation Kind = iota
	// KindUnknownColumn marks a reference to a column the dataset lacks.
	KindUnknownColumn
	// KindDuplicateColumn marks a new column whose name is already taken.
	KindDuplicateColumn
	// KindDataLoss marks a retype that would erase every value of a column.
	KindDataLoss
	// KindCardinality marks a pivot key with too many distinct values.
	KindCardinality
	// KindMalformedFormula marks a formula grammar violation.
	KindMalformedFormula
	// KindIO marks a persistence or read failure.
	KindIO
	// KindUnsupportedFormat marks a source extension we cannot handle.
	KindUnsupportedFormat
)

var kindNames = map[Kind]string{
	KindValidation:        "validation",
	KindUnknownColumn:     "unknown_column",
	KindDuplicateColumn:   "duplicate_column",
	KindDataLoss:          "data_loss",
	KindCardinality:       "cardinality",
	KindMalformedFormula:  "malformed_formula",
	KindIO:                "io",
	KindUnsupportedFormat: "unsupported_format",
}

// String returns the stable identifier of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the error type returned by all engine operations.
type Error struct {
	Kind    Kind
	Op      string // Operation name (e.g., "Retype", "Pivot", "Load")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Count   int    // Offending count for cardinality errors
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *Error) Error() string {
	var msg string
	if e.Column != "" {
		msg = fmt.Sprintf("%s failed on column '%s': %s", e.Op, e.Column, e.Message)
	} else {
		msg = fmt.Sprintf("%s failed: %s", e.Op, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error wrapping support
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target describes this error. Empty fields of the target
// act as wildcards, so the Err* sentinels match on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	if t.Op != "" && t.Op != e.Op {
		return false
	}
	if t.Column != "" && t.Column != e.Column {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// Sentinels for errors.Is checks by kind.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrUnknownColumn     = &Error{Kind: KindUnknownColumn}
	ErrDuplicateColumn   = &Error{Kind: KindDuplicateColumn}
	ErrDataLoss          = &Error{Kind: KindDataLoss}
	ErrCardinality       = &Error{Kind: KindCardinality}
	ErrMalformedFormula  = &Error{Kind: KindMalformedFormula}
	ErrIO                = &Error{Kind: KindIO}
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat}
)

// KindOf extracts the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// NewValidationError creates an error for input validation failures
func NewValidationError(op, column, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Op:      op,
		Column:  column,
		Message: message,
	}
}

// NewUnknownColumnError creates an error for operations on non-existent columns
func NewUnknownColumnError(op, column string) *Error {
	return &Error{
		Kind:    KindUnknownColumn,
		Op:      op,
		Column:  column,
		Message: "column does not exist",
	}
}

// NewDuplicateColumnError creates an error for a column name that is already in use
func NewDuplicateColumnError(op, column string) *Error {
	return &Error{
		Kind:    KindDuplicateColumn,
		Op:      op,
		Column:  column,
		Message: "column already exists",
	}
}

// NewDataLossError creates an error for a conversion that would null out a whole column
func NewDataLossError(op, column, target string) *Error {
	return &Error{
		Kind:    KindDataLoss,
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf("conversion to %s would turn every value into null", target),
	}
}

// NewCardinalityError creates an error for a pivot key that is too wide
func NewCardinalityError(op, column string, count, limit int) *Error {
	return &Error{
		Kind:    KindCardinality,
		Op:      op,
		Column:  column,
		Count:   count,
		Message: fmt.Sprintf("%d distinct values exceed the limit of %d", count, limit),
	}
}

// NewMalformedFormulaError creates an error for grammar violations
func NewMalformedFormulaError(op, message string) *Error {
	return &Error{
		Kind:    KindMalformedFormula,
		Op:      op,
		Message: message,
	}
}

// NewIOError creates an error for read or persistence failures
func NewIOError(op, path string, cause error) *Error {
	return &Error{
		Kind:    KindIO,
		Op:      op,
		Message: fmt.Sprintf("i/o on %s", path),
		Cause:   cause,
	}
}

// NewUnsupportedFormatError creates an error for unrecognized source extensions
func NewUnsupportedFormatError(op, path string) *Error {
	return &Error{
		Kind:    KindUnsupportedFormat,
		Op:      op,
		Message: fmt.Sprintf("unsupported source format: %s", path),
	}
}
