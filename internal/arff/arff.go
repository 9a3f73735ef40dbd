// Package arff reads and writes the attribute-relation text format used for
// collection export and import.
package arff

import (
	"strings"
)

// Header keywords.
const (
	relationKeyword  = "@relation"
	attributeKeyword = "@attribute"
	dataKeyword      = "@data"
	commentPrefix    = "%"
)

// needsQuote reports whether a token must be quoted to survive a round trip.
func needsQuote(s string) bool {
	if s == "" || s == "?" {
		return true
	}
	if strings.HasPrefix(s, commentPrefix) || strings.HasPrefix(s, "@") {
		return true
	}
	return strings.ContainsAny(s, ",'\"\\{} \t\r\n")
}

// Quote returns s as a token, wrapped in single quotes only when needed.
func Quote(s string) string {
	if !needsQuote(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	// Bytes, not runes: invalid UTF-8 must pass through unchanged.
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '\'':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
