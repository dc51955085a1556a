package formula_test

import (
	"testing"

	"github.com/paveg/tabula/internal/dataframe"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/formula"
	"github.com/paveg/tabula/internal/schema"
	"github.com/paveg/tabula/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	columns := []string{"A", "B", "Unit Price", "Unit", "Qty-Sold", "2024"}

	tests := []struct {
		input    string
		expected string
	}{
		{"A + B", "(col(A) + col(B))"},
		{"A + B * 2", "(col(A) + (col(B) * 2))"},
		{"(A + B) * 2", "((col(A) + col(B)) * 2)"},
		{"A - B - 1", "((col(A) - col(B)) - 1)"},
		{"A / B / 2", "((col(A) / col(B)) / 2)"},
		{"-A * B", "(-(col(A)) * col(B))"},
		{"--A", "-(-(col(A)))"},
		{"Unit Price * Unit", "(col(Unit Price) * col(Unit))"},
		{"Qty-Sold*1.5", "(col(Qty-Sold) * 1.5)"},
		{"'Unit' + \"B\"", "(col(Unit) + col(B))"},
		{"2024 + 7.5", "(col(2024) + 7.5)"},
		{"  A  ", "col(A)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, err := formula.Parse(tt.input, columns)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, expr.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	columns := []string{"A", "B"}

	tests := []struct {
		input string
		kind  error
	}{
		{"", dferrors.ErrMalformedFormula},
		{"   ", dferrors.ErrMalformedFormula},
		{"A +", dferrors.ErrMalformedFormula},
		{"(A + B", dferrors.ErrMalformedFormula},
		{"A B", dferrors.ErrMalformedFormula},
		{"A )", dferrors.ErrMalformedFormula},
		{"A % B", dferrors.ErrMalformedFormula},
		{"1.2.3", dferrors.ErrMalformedFormula},
		{"'A", dferrors.ErrMalformedFormula},
		{"C + 1", dferrors.ErrUnknownColumn},
		{"AB", dferrors.ErrUnknownColumn},
		{"A + 'Z'", dferrors.ErrUnknownColumn},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := formula.Parse(tt.input, columns)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func floats(col *series.Column) []any {
	out := make([]any, col.Len())
	for i := range out {
		out[i] = col.Value(i)
	}
	return out
}

func TestEvaluate(t *testing.T) {
	ds := dataframe.MustNew(
		series.Of("A", []int64{1, 2, 3, 4}, []bool{true, true, false, true}, nil),
		series.Of("B", []float64{3, 4, 1, 0}, nil, nil),
		series.Of("S", []string{"1,5", "x", "2", "3"}, nil, nil),
		series.Of("F", []bool{true, false, true, false}, nil, nil),
	)
	defer ds.Release()

	tests := []struct {
		input    string
		expected []any
	}{
		{"(A + B) * 2", []any{8.0, 12.0, nil, 8.0}},
		{"A / B", []any{1.0 / 3.0, 0.5, nil, nil}},
		{"S * 2", []any{3.0, nil, 4.0, 6.0}},
		{"F + 1", []any{2.0, 1.0, 2.0, 1.0}},
		{"-B", []any{-3.0, -4.0, -1.0, -0.0}},
		{"10", []any{10.0, 10.0, 10.0, 10.0}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, err := formula.Parse(tt.input, ds.Columns())
			require.NoError(t, err)

			col, err := formula.NewEvaluator(ds, nil).Evaluate(expr, "out")
			require.NoError(t, err)
			defer col.Release()

			assert.Equal(t, schema.Float, col.Type())
			assert.Equal(t, "out", col.Name())
			values := floats(col)
			require.Len(t, values, len(tt.expected))
			for i, want := range tt.expected {
				if want == nil {
					assert.Nil(t, values[i], "row %d", i)
					continue
				}
				assert.InDelta(t, want, values[i], 1e-12, "row %d", i)
			}
		})
	}
}

func TestAddColumn(t *testing.T) {
	ds := dataframe.MustNew(
		series.Of("A", []int64{1, 2}, nil, nil),
		series.Of("B", []int64{3, 4}, nil, nil),
	)
	defer ds.Release()

	next, err := formula.AddColumn(ds, "C", "(A + B) * 2")
	require.NoError(t, err)
	defer next.Release()

	assert.Equal(t, []string{"A", "B", "C"}, next.Columns())
	col, ok := next.Column("C")
	require.True(t, ok)
	assert.Equal(t, []any{8.0, 12.0}, floats(col))
	assert.False(t, ds.HasColumn("C"))
}

func TestAddColumnErrors(t *testing.T) {
	ds := dataframe.MustNew(series.Of("A", []int64{1, 2}, nil, nil))
	defer ds.Release()

	_, err := formula.AddColumn(ds, " ", "A")
	assert.ErrorIs(t, err, dferrors.ErrValidation)

	_, err = formula.AddColumn(ds, "A", "A * 2")
	assert.ErrorIs(t, err, dferrors.ErrDuplicateColumn)

	_, err = formula.AddColumn(ds, "B", "A *")
	assert.ErrorIs(t, err, dferrors.ErrMalformedFormula)

	_, err = formula.AddColumn(ds, "B", "Z * 2")
	assert.ErrorIs(t, err, dferrors.ErrUnknownColumn)
}
