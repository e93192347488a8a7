// Package normalize provides utilities for normalizing and sanitizing catalog data.
//
// Book titles and author names arrive from users in every imaginable shape:
// stray whitespace, mixed case, accented and decomposed Unicode. The catalog
// dedupes on normalized keys so "Dune ", "DUNE" and "Duné" collapse to
// one book instead of three.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Key converts a title or name to its canonical matching form: NFKD
// decomposition with combining marks stripped, lowercased, and inner
// whitespace collapsed to single spaces.
//
//	Key("  The HOBBIT ")      -> "the hobbit"
//	Key("Amélie")       -> "amelie"
//	Key("Beloved Toni")  -> "beloved toni"
func Key(raw string) string {
	s := sanitizeString(raw)
	if s == "" {
		return ""
	}

	// Decompose, then drop the combining marks left behind.
	decomposed := norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))

	lastSpace := true // leading whitespace is dropped
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark, skip
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		default:
			b.WriteRune(unicode.ToLower(r))
			lastSpace = false
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// ISBN strips separators from an ISBN and uppercases the check digit,
// so "978-0-345-33968-3" and "9780345339683" store identically.
// It does not validate; an empty input stays empty.
func ISBN(raw string) string {
	s := sanitizeString(raw)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteRune('X')
		}
	}
	return b.String()
}

// sanitizeString removes null bytes, which break SQLite text storage and
// JSON encoding when they sneak in from pasted input.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
