// Package textnorm normalizes Portuguese command text for keyword matching.
package textnorm

import "strings"

var accents = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"â", "a", "ê", "e", "ô", "o", "ã", "a", "õ", "o",
	"ç", "c",
)

// Normalize lower-cases s, trims surrounding whitespace and maps the accented
// Latin letters used in Portuguese to their base form. It is idempotent.
func Normalize(s string) string {
	return accents.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// Digits returns only the ASCII digits of s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ContainsAny reports whether s contains any of the substrings.
func ContainsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
