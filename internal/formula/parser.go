package formula

import (
	"fmt"
	"strconv"

	dferrors "github.com/paveg/tabula/internal/errors"
)

// Operator precedence
const (
	_ int = iota
	LOWEST
	SUM     // + -
	PRODUCT // * /
	PREFIX  // -x
)

var precedences = map[TokenType]int{
	PLUS:     SUM,
	MINUS:    SUM,
	ASTERISK: PRODUCT,
	SLASH:    PRODUCT,
}

var binaryOps = map[TokenType]BinaryOp{
	PLUS:     OpAdd,
	MINUS:    OpSub,
	ASTERISK: OpMul,
	SLASH:    OpDiv,
}

// Parser builds an Expr from the lexer's tokens.
type Parser struct {
	l *Lexer

	curToken  Token
	peekToken Token
	err       error
}

// NewParser creates a parser reading from l.
func NewParser(l *Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses input, resolving column references against columns.
func Parse(input string, columns []string) (Expr, error) {
	return NewParser(NewLexer(input, columns)).Parse()
}

// Parse parses the complete input as one expression.
func (p *Parser) Parse() (Expr, error) {
	if p.curTokenIs(EOF) {
		return nil, dferrors.NewMalformedFormulaError("Formula", "formula is empty")
	}

	expression := p.parseExpression(LOWEST)
	if p.err != nil {
		return nil, p.err
	}
	if !p.peekTokenIs(EOF) {
		p.nextToken()
		if p.curTokenIs(ILLEGAL) {
			return nil, p.l.Err()
		}
		return nil, p.malformed(fmt.Sprintf("unexpected %q at position %d",
			p.curToken.Literal, p.curToken.Position))
	}
	return expression, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) parseExpression(precedence int) Expr {
	left := p.parsePrefix()
	if p.err != nil {
		return nil
	}

	for !p.peekTokenIs(EOF) && precedence < p.peekPrecedence() {
		p.nextToken()
		left = p.parseInfix(left)
		if p.err != nil {
			return nil
		}
	}
	return left
}

func (p *Parser) parsePrefix() Expr {
	switch p.curToken.Type {
	case NUMBER:
		return p.parseNumber()
	case COLUMN:
		return &ColumnRef{Name: p.curToken.Literal}
	case MINUS:
		p.nextToken()
		operand := p.parseExpression(PREFIX)
		if p.err != nil {
			return nil
		}
		return &NegateExpr{Operand: operand}
	case LPAREN:
		return p.parseGrouped()
	case ILLEGAL:
		p.err = p.l.Err()
		return nil
	case EOF:
		p.err = p.malformed("unexpected end of formula")
		return nil
	default:
		p.err = p.malformed(fmt.Sprintf("unexpected %q at position %d",
			p.curToken.Literal, p.curToken.Position))
		return nil
	}
}

func (p *Parser) parseInfix(left Expr) Expr {
	op := binaryOps[p.curToken.Type]
	precedence := precedences[p.curToken.Type]
	p.nextToken()

	// same-precedence operators associate to the left
	right := p.parseExpression(precedence)
	if p.err != nil {
		return nil
	}
	return &BinaryExpr{Left: left, Op: op, Right: right}
}

func (p *Parser) parseGrouped() Expr {
	p.nextToken()
	inner := p.parseExpression(LOWEST)
	if p.err != nil {
		return nil
	}
	if !p.peekTokenIs(RPAREN) {
		if p.peekTokenIs(ILLEGAL) {
			p.err = p.l.Err()
			return nil
		}
		p.err = p.malformed(fmt.Sprintf("missing closing parenthesis at position %d", p.peekToken.Position))
		return nil
	}
	p.nextToken()
	return inner
}

func (p *Parser) parseNumber() Expr {
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.err = p.malformed(fmt.Sprintf("invalid number %q at position %d",
			p.curToken.Literal, p.curToken.Position))
		return nil
	}
	return &NumberLiteral{Value: value}
}

func (p *Parser) malformed(msg string) error {
	return dferrors.NewMalformedFormulaError("Formula", msg)
}
