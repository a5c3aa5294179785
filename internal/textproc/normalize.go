// Package textproc locates search terms in extracted page text and turns each
// occurrence into a readable excerpt. Matching happens on a normalized form of
// the text; excerpts are always cut from the original text.
package textproc

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks decomposes compatibility characters and drops combining marks so
// that "é" becomes "e" and "ﬁ" becomes "fi".
var foldMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Normalize returns the canonical matching form of text: lowercase ASCII
// letters, digits and single spaces, with no leading or trailing space.
// Runes without an ASCII decomposition are dropped. Normalize is idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	folded, _, err := transform.String(foldMarks, strings.ToLower(text))
	if err != nil {
		// transform only fails on malformed chains; decompose directly instead
		folded = norm.NFKD.String(strings.ToLower(text))
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case r < unicode.MaxASCII && unicode.IsSpace(r):
			pendingSpace = true
		}
	}
	return b.String()
}
