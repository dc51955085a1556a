package formula

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tabula/internal/common"
	"github.com/paveg/tabula/internal/dataframe"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/schema"
	"github.com/paveg/tabula/internal/series"
	"github.com/paveg/tabula/internal/validation"
)

// vector is an evaluated operand: one value per row plus validity.
type vector struct {
	values []float64
	valid  []bool
}

func newVector(n int) *vector {
	return &vector{values: make([]float64, n), valid: make([]bool, n)}
}

// Evaluator computes expressions over the rows of a dataset.
type Evaluator struct {
	ds  *dataframe.Dataset
	mem memory.Allocator
}

// NewEvaluator creates an evaluator over ds. A nil allocator uses the Go
// allocator.
func NewEvaluator(ds *dataframe.Dataset, mem memory.Allocator) *Evaluator {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &Evaluator{ds: ds, mem: mem}
}

// Evaluate computes e for every row and returns it as a Float column named
// name. Nulls propagate and non-finite results become null.
func (e *Evaluator) Evaluate(expr Expr, name string) (*series.Column, error) {
	v, err := e.eval(expr)
	if err != nil {
		return nil, err
	}
	return series.Of(name, v.values, v.valid, e.mem), nil
}

func (e *Evaluator) eval(expr Expr) (*vector, error) {
	switch node := expr.(type) {
	case *ColumnRef:
		return e.evalColumn(node)
	case *NumberLiteral:
		v := newVector(e.ds.Len())
		for i := range v.values {
			v.values[i] = node.Value
			v.valid[i] = true
		}
		return v, nil
	case *NegateExpr:
		v, err := e.eval(node.Operand)
		if err != nil {
			return nil, err
		}
		for i := range v.values {
			v.values[i] = -v.values[i]
		}
		return v, nil
	case *BinaryExpr:
		return e.evalBinary(node)
	default:
		return nil, fmt.Errorf("unsupported expression type %T", expr)
	}
}

func (e *Evaluator) evalColumn(ref *ColumnRef) (*vector, error) {
	col, ok := e.ds.Column(ref.Name)
	if !ok {
		return nil, dferrors.NewUnknownColumnError("Formula", ref.Name)
	}

	v := newVector(col.Len())
	for i := 0; i < col.Len(); i++ {
		v.values[i], v.valid[i] = numericValue(col, i)
	}
	return v, nil
}

// numericValue reads cell i of col as a number: Integer and Float
// directly, Boolean as 1/0 and String through schema.ParseNumber.
func numericValue(col *series.Column, i int) (float64, bool) {
	switch col.Type() {
	case schema.Integer, schema.Float:
		f, ok := col.Float(i)
		return f, ok && common.IsFinite(f)
	case schema.Boolean:
		b, ok := col.Value(i).(bool)
		if !ok {
			return 0, false
		}
		if b {
			return 1, true
		}
		return 0, true
	default:
		if col.IsNull(i) {
			return 0, false
		}
		return schema.ParseNumber(col.Text(i))
	}
}

func (e *Evaluator) evalBinary(node *BinaryExpr) (*vector, error) {
	left, err := e.eval(node.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.eval(node.Right)
	if err != nil {
		return nil, err
	}

	out := newVector(len(left.values))
	for i := range out.values {
		if !left.valid[i] || !right.valid[i] {
			continue
		}
		l, r := left.values[i], right.values[i]
		var result float64
		switch node.Op {
		case OpAdd:
			result = l + r
		case OpSub:
			result = l - r
		case OpMul:
			result = l * r
		case OpDiv:
			result = l / r
		}
		if common.IsFinite(result) {
			out.values[i] = result
			out.valid[i] = true
		}
	}
	return out, nil
}

// AddColumn parses formula against ds, evaluates it and returns a new
// dataset with the result appended as column name.
func AddColumn(ds *dataframe.Dataset, name, formula string) (*dataframe.Dataset, error) {
	if err := validation.ValidateName(ds, "AddColumn", name); err != nil {
		return nil, err
	}

	expr, err := Parse(formula, ds.Columns())
	if err != nil {
		return nil, err
	}

	col, err := NewEvaluator(ds, nil).Evaluate(expr, name)
	if err != nil {
		return nil, err
	}

	next, err := ds.WithColumn(col)
	if err != nil {
		col.Release()
		return nil, err
	}
	return next, nil
}
