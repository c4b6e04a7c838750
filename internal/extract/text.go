package extract

import (
	"regexp"
	"strings"
)

const (
	DescriptionLimit = 500
	MainContentLimit = 2000
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Normalize collapses every whitespace run, newlines included, into a
// single space and trims the ends.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Truncate normalizes s and keeps at most max characters.
func Truncate(s string, max int) string {
	s = Normalize(s)
	if max <= 0 {
		return ""
	}
	return slice(s, max)
}

// slice cuts on rune boundaries so multi-byte text stays valid.
func slice(s string, max int) string {
	if len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
