package formula

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	dferrors "github.com/paveg/tabula/internal/errors"
)

// TokenType represents the type of a formula token.
type TokenType int

const (
	// EOF marks the end of input.
	EOF TokenType = iota
	ILLEGAL

	NUMBER
	COLUMN

	PLUS
	MINUS
	ASTERISK
	SLASH
	LPAREN
	RPAREN
)

// Token is a single lexeme. For COLUMN tokens Literal is the column name.
type Token struct {
	Type     TokenType
	Literal  string
	Position int
}

// Lexer tokenizes a formula against a known set of column names.
// Unquoted text resolves to the longest column name present at the current
// position that ends on a word boundary.
type Lexer struct {
	input    string
	position int
	columns  []string
	known    map[string]bool
	err      error
}

// NewLexer creates a lexer for input over the given column names.
func NewLexer(input string, columns []string) *Lexer {
	sorted := make([]string, 0, len(columns))
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c == "" {
			continue
		}
		sorted = append(sorted, c)
		known[c] = true
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})
	return &Lexer{input: input, columns: sorted, known: known}
}

// Err returns the error behind the first ILLEGAL token.
func (l *Lexer) Err() error {
	return l.err
}

// NextToken scans the input and returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	if l.position >= len(l.input) {
		return Token{Type: EOF, Position: l.position}
	}

	start := l.position
	ch := l.input[l.position]

	switch ch {
	case '+':
		return l.single(PLUS)
	case '-':
		return l.single(MINUS)
	case '*':
		return l.single(ASTERISK)
	case '/':
		return l.single(SLASH)
	case '(':
		return l.single(LPAREN)
	case ')':
		return l.single(RPAREN)
	case '\'', '"':
		return l.readQuoted(ch)
	}

	if name, ok := l.matchColumn(); ok {
		l.position += len(name)
		return Token{Type: COLUMN, Literal: name, Position: start}
	}
	if isDigit(ch) || ch == '.' {
		return l.readNumber()
	}

	r, size := utf8.DecodeRuneInString(l.input[l.position:])
	if isWordRune(r) {
		word := l.readWord()
		return l.illegal(start, dferrors.NewUnknownColumnError("Formula", word))
	}
	l.position += size
	return l.illegal(start, dferrors.NewMalformedFormulaError("Formula",
		fmt.Sprintf("unexpected character %q at position %d", r, start)))
}

func (l *Lexer) single(t TokenType) Token {
	tok := Token{Type: t, Literal: l.input[l.position : l.position+1], Position: l.position}
	l.position++
	return tok
}

// readQuoted reads a quoted column name. Quotes always denote a column.
func (l *Lexer) readQuoted(quote byte) Token {
	start := l.position
	end := strings.IndexByte(l.input[start+1:], quote)
	if end < 0 {
		l.position = len(l.input)
		return l.illegal(start, dferrors.NewMalformedFormulaError("Formula",
			fmt.Sprintf("unterminated quote at position %d", start)))
	}

	name := l.input[start+1 : start+1+end]
	l.position = start + end + 2
	if !l.known[name] {
		return l.illegal(start, dferrors.NewUnknownColumnError("Formula", name))
	}
	return Token{Type: COLUMN, Literal: name, Position: start}
}

func (l *Lexer) readNumber() Token {
	start := l.position
	for l.position < len(l.input) && (isDigit(l.input[l.position]) || l.input[l.position] == '.') {
		l.position++
	}
	return Token{Type: NUMBER, Literal: l.input[start:l.position], Position: start}
}

func (l *Lexer) readWord() string {
	start := l.position
	for l.position < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.position:])
		if !isWordRune(r) {
			break
		}
		l.position += size
	}
	return l.input[start:l.position]
}

// matchColumn finds the longest column name starting at the current
// position and followed by a non-alphanumeric character or end of input.
func (l *Lexer) matchColumn() (string, bool) {
	rest := l.input[l.position:]
	for _, name := range l.columns {
		if !strings.HasPrefix(rest, name) {
			continue
		}
		if len(rest) == len(name) {
			return name, true
		}
		next, _ := utf8.DecodeRuneInString(rest[len(name):])
		if !isAlphanumeric(next) {
			return name, true
		}
	}
	return "", false
}

func (l *Lexer) illegal(position int, err error) Token {
	if l.err == nil {
		l.err = err
	}
	return Token{Type: ILLEGAL, Literal: l.input[position:l.position], Position: position}
}

func (l *Lexer) skipWhitespace() {
	for l.position < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.position:])
		if !unicode.IsSpace(r) {
			return
		}
		l.position += size
	}
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isAlphanumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isWordRune(r rune) bool {
	return isAlphanumeric(r) || r == '_'
}
