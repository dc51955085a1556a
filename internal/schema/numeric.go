package schema

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	trueStr  = "true"
	falseStr = "false"
)

// ParseBool accepts the canonical boolean tokens, case-insensitively.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case trueStr:
		return true, true
	case falseStr:
		return false, true
	default:
		return false, false
	}
}

// ParseNumber parses a possibly locale-formatted number such as "1 234,50 €",
// "$1,234.50" or "12%". Values containing letters are rejected.
func ParseNumber(s string) (float64, bool) {
	literal, ok := cleanNumeric(s)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseInteger is ParseNumber restricted to values written without a
// fractional part.
func ParseInteger(s string) (int64, bool) {
	literal, ok := cleanNumeric(s)
	if !ok || strings.ContainsAny(literal, ".eE") {
		return 0, false
	}
	i, err := strconv.ParseInt(literal, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// cleanNumeric strips currency, percent and grouping symbols and returns a
// literal strconv can parse.
func cleanNumeric(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	var b strings.Builder
	b.Grow(len(s))
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
			b.WriteRune(r)
		case r == '.' || r == ',' || r == '-' || r == '+' || r == 'e' || r == 'E':
			b.WriteRune(r)
		case r == '%' || r == '\'' || unicode.IsSpace(r) || unicode.Is(unicode.Sc, r):
			// grouping or unit symbol
		default:
			return "", false
		}
	}
	if digits == 0 {
		return "", false
	}
	literal := b.String()
	if !validGrouping(literal) {
		return "", false
	}
	return NormalizeSeparators(literal), true
}

var (
	groupedByComma = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+$`)
	groupedByDot   = regexp.MustCompile(`^[+-]?\d{1,3}(\.\d{3})+$`)
	commaThenDot   = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+\.\d+$`)
	dotThenComma   = regexp.MustCompile(`^[+-]?\d{1,3}(\.\d{3})+,\d+$`)
)

// validGrouping reports whether repeated or mixed separators form thousands
// groups of exactly three digits. Literals like 1.2.3 or 10.0.0.1 are codes,
// not numbers.
func validGrouping(s string) bool {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			return dotThenComma.MatchString(s)
		}
		return commaThenDot.MatchString(s)
	case commas > 1:
		return groupedByComma.MatchString(s)
	case dots > 1:
		return groupedByDot.MatchString(s)
	default:
		return true
	}
}

// NormalizeSeparators rewrites decimal and thousands separators so that the
// result uses a single '.' as decimal point. When both ',' and '.' occur the
// last one is the decimal separator; a lone ',' is a decimal comma; a
// separator repeated several times groups thousands. The grouping is not
// validated; ParseNumber rejects malformed groups before calling it.
func NormalizeSeparators(s string) string {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			last := strings.LastIndex(s, ",")
			s = strings.ReplaceAll(s[:last], ",", "") + "." + s[last+1:]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case commas == 1:
		s = strings.Replace(s, ",", ".", 1)
	case dots > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	return s
}
