package extract

import (
	"strings"
	"unicode"
)

// CleanText removes NUL and other control characters (tab, newline and
// carriage return excepted), collapses whitespace runs to one space and trims.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range s {
		if isDroppedControl(r) {
			continue
		}
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimRight(b.String(), " ")
}

func isDroppedControl(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return false
	case r <= 0x1f, r == 0x7f:
		return true
	}
	return false
}

// paginate cuts s into pages of at most size runes, trimming each page.
func paginate(s string, size int) Pages {
	pages := Pages{}
	runes := []rune(s)
	for i, n := 0, 0; i < len(runes); i, n = i+size, n+1 {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		pages[n] = strings.TrimSpace(string(runes[i:end]))
	}
	return pages
}
