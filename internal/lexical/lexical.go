// Package lexical implements the KDL lexical rules the encoder depends on:
// which names may be written bare, how raw strings are fenced, and how
// numbers are spelled.
package lexical

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// reserved holds the characters that may never appear in a bare identifier.
const reserved = "\\/(){}<>;[]=,\"\uFEFF"

// keywords cannot be bare identifiers because they lex as literals.
var keywords = map[string]struct{}{
	"null":  {},
	"true":  {},
	"false": {},
}

// IsIdentifier reports whether s can be written as a bare KDL identifier.
// Anything rejected here must be written with [Quote].
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}

	if _, ok := keywords[s]; ok {
		return false
	}

	if strings.HasPrefix(s, "r#") {
		return false
	}

	if startsLikeNumber(s) {
		return false
	}

	for _, r := range s {
		if unicode.IsSpace(r) || strings.ContainsRune(reserved, r) {
			return false
		}
	}

	return true
}

// startsLikeNumber reports whether s begins with a digit, or a sign
// immediately followed by a digit.
func startsLikeNumber(s string) bool {
	if isDigit(s[0]) {
		return true
	}

	if (s[0] == '+' || s[0] == '-') && len(s) > 1 && isDigit(s[1]) {
		return true
	}

	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// FenceLength returns the number of '#' characters needed to wrap s in a raw
// string. quoted is false when s contains no '"' at all, in which case the
// plain r"..." form is enough and n is zero.
func FenceLength(s string) (n int, quoted bool) {
	longest := -1

	for i := 0; i < len(s); i++ {
		if s[i] != '"' {
			continue
		}

		run := 0
		for i+1+run < len(s) && s[i+1+run] == '#' {
			run++
		}

		if run > longest {
			longest = run
		}

		i += run
	}

	if longest < 0 {
		return 0, false
	}

	return longest + 1, true
}

// Quote returns s as a KDL raw string literal with the shortest safe fence.
func Quote(s string) string {
	n, _ := FenceLength(s)
	fence := strings.Repeat("#", n)

	var b strings.Builder

	b.Grow(len(s) + 2*n + 3)
	b.WriteByte('r')
	b.WriteString(fence)
	b.WriteByte('"')
	b.WriteString(s)
	b.WriteByte('"')
	b.WriteString(fence)

	return b.String()
}

// Name returns s unchanged when it is a valid bare identifier and as a raw
// string otherwise.
func Name(s string) string {
	if IsIdentifier(s) {
		return s
	}

	return Quote(s)
}

// FormatFloat spells v as a KDL decimal literal. It always carries a
// fraction or exponent so the value reads back as a float. ok is false for
// NaN and the infinities, which KDL cannot express.
func FormatFloat(v float64, bitSize int) (lit string, ok bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", false
	}

	lit = strconv.FormatFloat(v, 'g', -1, bitSize)

	mantissa, exp, hasExp := strings.Cut(lit, "e")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}

	if hasExp {
		return mantissa + "e" + exp, true
	}

	return mantissa, true
}
