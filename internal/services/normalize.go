package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeHandle reduces a display name to the canonical handle used for
// uniqueness checks and search: lowercase, diacritics folded, and runs of
// separators (spaces, dots, dashes, underscores) collapsed to a single space.
// "José  Álvarez" and "jose.alvarez" normalize to the same handle.
func NormalizeHandle(name string) string {
	folded, _, err := transform.String(foldTransformer, name)
	if err != nil {
		folded = name
	}

	folded = strings.ToLower(folded)

	var builder strings.Builder
	builder.Grow(len(folded))
	prevSep := true // also trims leading separators
	for _, r := range folded {
		if isHandleSeparator(r) {
			if !prevSep {
				builder.WriteRune(' ')
				prevSep = true
			}
			continue
		}
		builder.WriteRune(r)
		prevSep = false
	}

	return strings.TrimRight(builder.String(), " ")
}

func isHandleSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '.', '-', '_':
		return true
	}
	return unicode.IsSpace(r)
}
