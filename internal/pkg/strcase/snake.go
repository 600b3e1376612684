// Package strcase converts Go identifiers for user-facing field names.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts an identifier to snake_case. Runs of capitals are
// kept together as one word, so "UserID" becomes "user_id" and "HTTPServer"
// becomes "http_server".
func ToLowerSnake(s string) string {
	return strings.Join(words(s), "_")
}

// words splits s at case boundaries and at any non letter or digit rune.
func words(s string) []string {
	runes := []rune(s)
	out := make([]string, 0, 4)
	start := -1

	flush := func(end int) {
		if start >= 0 && end > start {
			out = append(out, strings.ToLower(string(runes[start:end])))
		}
		start = -1
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		if unicode.IsUpper(r) && boundaryBefore(runes, i) {
			flush(i)
			start = i
		}
	}
	flush(len(runes))

	return out
}

// boundaryBefore reports whether the upper-case rune at i starts a word:
// after a lower-case letter or digit, or as the last capital of an acronym
// followed by lower case.
func boundaryBefore(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}

	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
