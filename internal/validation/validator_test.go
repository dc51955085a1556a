package validation_test

import (
	"errors"
	"testing"

	"github.com/paveg/tabula/internal/dataframe"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/series"
	"github.com/paveg/tabula/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dataset(t *testing.T) *dataframe.Dataset {
	t.Helper()
	ds, err := dataframe.New(
		series.Of("region", []string{"East", "West"}, nil, nil),
		series.Of("amount", []string{"$1,200", ""}, []bool{true, false}, nil),
		series.Of("sales", []int64{1, 2}, nil, nil),
		series.Of("active", []bool{true, false}, nil, nil),
	)
	require.NoError(t, err)
	t.Cleanup(ds.Release)
	return ds
}

func TestColumnValidator(t *testing.T) {
	ds := dataset(t)

	assert.NoError(t, validation.ValidateColumns(ds, "pivot", "region", "sales"))

	err := validation.ValidateColumns(ds, "pivot", "region", "missing")
	assert.ErrorIs(t, err, dferrors.ErrUnknownColumn)
	assert.Contains(t, err.Error(), "missing")
}

func TestNumericValidator(t *testing.T) {
	ds := dataset(t)

	tests := []struct {
		column string
		want   error
	}{
		{"sales", nil},
		{"amount", nil},
		{"region", dferrors.ErrValidation},
		{"active", dferrors.ErrValidation},
		{"missing", dferrors.ErrUnknownColumn},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			err := validation.ValidateNumeric(ds, "pivot", tt.column)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNameValidator(t *testing.T) {
	ds := dataset(t)

	assert.NoError(t, validation.ValidateName(ds, "formula", "total"))
	assert.ErrorIs(t, validation.ValidateName(ds, "formula", "  "), dferrors.ErrValidation)
	assert.ErrorIs(t, validation.ValidateName(ds, "formula", "sales"), dferrors.ErrDuplicateColumn)
}

func TestOneOfAndRequired(t *testing.T) {
	assert.NoError(t, validation.NewOneOfValidator("pivot", "sales", "sum", "sum", "mean").Validate())

	err := validation.NewOneOfValidator("pivot", "sales", "median", "sum", "mean").Validate()
	assert.ErrorIs(t, err, dferrors.ErrValidation)
	assert.Contains(t, err.Error(), `unsupported value "median"`)

	assert.NoError(t, validation.NewRequiredValidator("pivot", "row column", 1).Validate())
	assert.ErrorIs(t, validation.NewRequiredValidator("pivot", "row column", 0).Validate(), dferrors.ErrValidation)
}

func TestCompoundValidatorStopsAtFirstError(t *testing.T) {
	first := errors.New("first")
	called := false

	err := validation.NewCompoundValidator(
		validation.ValidatorFunc(func() error { return nil }),
		validation.ValidatorFunc(func() error { return first }),
	).Add(validation.ValidatorFunc(func() error {
		called = true
		return nil
	})).Validate()

	assert.ErrorIs(t, err, first)
	assert.False(t, called)
}
