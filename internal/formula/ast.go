// Package formula parses and evaluates arithmetic over dataset columns.
// The grammar has four binary operators, unary minus, parentheses, number
// literals and column references.
package formula

import (
	"fmt"
	"strconv"

	"github.com/paveg/tabula/internal/common"
)

// Expr is a node of a parsed formula.
type Expr interface {
	String() string
	exprNode()
}

// ColumnRef references a dataset column by name.
type ColumnRef struct {
	Name string
}

func (c *ColumnRef) exprNode() {}

func (c *ColumnRef) String() string {
	return fmt.Sprintf("col(%s)", c.Name)
}

// NumberLiteral is a constant.
type NumberLiteral struct {
	Value float64
}

func (n *NumberLiteral) exprNode() {}

func (n *NumberLiteral) String() string {
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// BinaryOp is one of the four arithmetic operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
)

var opSymbols = common.EnumStringMap{
	int(OpAdd): "+",
	int(OpSub): "-",
	int(OpMul): "*",
	int(OpDiv): "/",
}

func (op BinaryOp) String() string {
	return common.FormatEnum(int(op), opSymbols)
}

// BinaryExpr applies Op to Left and Right.
type BinaryExpr struct {
	Left  Expr
	Op    BinaryOp
	Right Expr
}

func (b *BinaryExpr) exprNode() {}

func (b *BinaryExpr) String() string {
	return common.FormatBinaryOperation(b.Left.String(), b.Op.String(), b.Right.String())
}

// NegateExpr is unary minus.
type NegateExpr struct {
	Operand Expr
}

func (n *NegateExpr) exprNode() {}

func (n *NegateExpr) String() string {
	return common.FormatUnaryOperation("-", n.Operand.String())
}
