// Package validation provides the request validators run before any engine
// work starts. Validators are composable so an operation can check every
// precondition up front and fail before touching data.
package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/schema"
	"github.com/paveg/tabula/internal/series"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// ValidatorFunc adapts a function to the Validator interface
type ValidatorFunc func() error

// Validate calls f
func (f ValidatorFunc) Validate() error {
	return f()
}

// ColumnProvider interface for types that provide column information
type ColumnProvider interface {
	HasColumn(name string) bool
	Column(name string) (*series.Column, bool)
	Len() int
}

// ColumnValidator validates column existence
type ColumnValidator struct {
	ds      ColumnProvider
	columns []string
	op      string
}

// NewColumnValidator creates a validator for column operations
func NewColumnValidator(ds ColumnProvider, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{
		ds:      ds,
		columns: columns,
		op:      op,
	}
}

// Validate checks if all columns exist in the dataset
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.ds.HasColumn(column) {
			return errors.NewUnknownColumnError(v.op, column)
		}
	}
	return nil
}

// RequiredValidator validates that a list argument is not empty
type RequiredValidator struct {
	field string
	count int
	op    string
}

// NewRequiredValidator creates a validator requiring at least one item
func NewRequiredValidator(op, field string, count int) *RequiredValidator {
	return &RequiredValidator{field: field, count: count, op: op}
}

// Validate checks that at least one item was given
func (v *RequiredValidator) Validate() error {
	if v.count == 0 {
		return errors.NewValidationError(v.op, "", fmt.Sprintf("at least one %s is required", v.field))
	}
	return nil
}

// OneOfValidator validates that a value belongs to an allowed set
type OneOfValidator struct {
	value   string
	allowed []string
	column  string
	op      string
}

// NewOneOfValidator creates a validator for enumerated arguments
func NewOneOfValidator(op, column, value string, allowed ...string) *OneOfValidator {
	return &OneOfValidator{value: value, allowed: allowed, column: column, op: op}
}

// Validate checks the value against the allowed set
func (v *OneOfValidator) Validate() error {
	if slices.Contains(v.allowed, v.value) {
		return nil
	}
	message := fmt.Sprintf("unsupported value %q (expected one of %s)", v.value, strings.Join(v.allowed, ", "))
	return errors.NewValidationError(v.op, v.column, message)
}

// NumericValidator validates that a column can be aggregated numerically:
// an Integer or Float column, or a String column whose every non-null
// value parses as a number.
type NumericValidator struct {
	ds     ColumnProvider
	column string
	op     string
}

// NewNumericValidator creates a validator for numeric aggregation inputs
func NewNumericValidator(ds ColumnProvider, op, column string) *NumericValidator {
	return &NumericValidator{ds: ds, column: column, op: op}
}

// Validate checks that the column is numeric-coercible
func (v *NumericValidator) Validate() error {
	col, ok := v.ds.Column(v.column)
	if !ok {
		return errors.NewUnknownColumnError(v.op, v.column)
	}
	if IsNumericCoercible(col) {
		return nil
	}
	return errors.NewValidationError(v.op, v.column, "column is not numeric")
}

// IsNumericCoercible reports whether every non-null value of col is a number.
func IsNumericCoercible(col *series.Column) bool {
	switch col.Type() {
	case schema.Integer, schema.Float:
		return true
	case schema.String:
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				continue
			}
			if _, ok := schema.ParseNumber(col.Text(i)); !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// NameValidator validates a new column name
type NameValidator struct {
	ds   ColumnProvider
	name string
	op   string
}

// NewNameValidator creates a validator for new column names
func NewNameValidator(ds ColumnProvider, op, name string) *NameValidator {
	return &NameValidator{ds: ds, name: name, op: op}
}

// Validate checks that the name is non-blank and unused
func (v *NameValidator) Validate() error {
	if strings.TrimSpace(v.name) == "" {
		return errors.NewValidationError(v.op, "", "column name must not be empty")
	}
	if v.ds.HasColumn(v.name) {
		return errors.NewDuplicateColumnError(v.op, v.name)
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Add appends validators
func (v *CompoundValidator) Add(validators ...Validator) *CompoundValidator {
	v.validators = append(v.validators, validators...)
	return v
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Convenience validation functions

// ValidateColumns is a convenience function for column validation
func ValidateColumns(ds ColumnProvider, op string, columns ...string) error {
	return NewColumnValidator(ds, op, columns...).Validate()
}

// ValidateNumeric is a convenience function for numeric column validation
func ValidateNumeric(ds ColumnProvider, op, column string) error {
	return NewNumericValidator(ds, op, column).Validate()
}

// ValidateName is a convenience function for new column name validation
func ValidateName(ds ColumnProvider, op, name string) error {
	return NewNameValidator(ds, op, name).Validate()
}
