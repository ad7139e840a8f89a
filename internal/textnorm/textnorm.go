// Package textnorm holds the whitespace and capitalization helpers used to
// classify paragraphs. Body text is never passed through these functions.
package textnorm

import (
	"path/filepath"
	"strings"
)

// DefaultNovelTitle is used when neither the document nor its filename
// yields a title.
const DefaultNovelTitle = "Untitled Novel"

const (
	maxShoutingLen     = 44
	minShoutingLetters = 6
)

// NormalizeWhitespace collapses every whitespace run (newlines included) to a
// single space and trims both ends.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsShoutingHeading reports whether s looks like an all-caps heading such as
// "THE LONG NIGHT". Only ASCII A-Z count toward the letter minimum.
func IsShoutingHeading(s string) bool {
	n := NormalizeWhitespace(s)
	if n == "" || len([]rune(n)) > maxShoutingLen {
		return false
	}
	upper := 0
	for _, r := range n {
		if r >= 'A' && r <= 'Z' {
			upper++
		}
	}
	if upper < minShoutingLetters {
		return false
	}
	return strings.ToUpper(n) == n
}

// TitleFromFilename strips the final extension from name and normalizes the
// remainder, falling back to DefaultNovelTitle.
func TitleFromFilename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if t := NormalizeWhitespace(base); t != "" {
		return t
	}
	return DefaultNovelTitle
}
