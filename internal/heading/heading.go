// Package heading decides whether a paragraph opens a new structural unit
// (chapter, part, front or back matter) of a manuscript.
//
// The decision is an OR over an ordered list of independent rules. Rules see
// the whitespace-normalized text and the decoder's style hint, and are kept
// free of any knowledge about DOCX style identifiers.
package heading

import (
	"regexp"
	"strings"

	"github.com/dgallion1/manuscript/internal/textnorm"
)

// Pattern sources. Exported for tests and for callers that want to explain
// a classification.
const (
	RomanNumeral       = `[ivxlcdm]+`
	ChapterNumberWords = `one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve`
	PartNumberWords    = `one|two|three|four|five|six|seven|eight|nine|ten`
	FrontMatterWords   = `prologue|epilogue|preface|foreword|afterword`

	// separatorTail is the optional punctuation between a heading keyword
	// and whatever follows it, e.g. "Chapter 3 - " or "Prologue:".
	separatorTail = `[\s.:\-–—]*`
)

var (
	chapterPattern = regexp.MustCompile(
		`(?i)^(?:chapter|chap\.)\s+(?:\d+|` + RomanNumeral + `|` + ChapterNumberWords + `)\b` + separatorTail)
	partPattern = regexp.MustCompile(
		`(?i)^part\s+(?:\d+|` + RomanNumeral + `|` + PartNumberWords + `)\b` + separatorTail)
	frontMatterPattern = regexp.MustCompile(
		`(?i)^(?:` + FrontMatterWords + `)\b` + separatorTail)

	headingStylePattern  = regexp.MustCompile(`(?i)^heading\s?[12]$`)
	heading1StylePattern = regexp.MustCompile(`(?i)^heading\s?1$`)
)

// Rule is one classifier predicate over normalized text and a style hint.
type Rule struct {
	Name  string
	Match func(normalized, styleHint string) bool
}

// Rules is the ordered classifier rule set. The first matching rule wins.
var Rules = []Rule{
	{Name: "style", Match: func(_, hint string) bool { return IsHeadingStyle(hint) }},
	{Name: "chapter", Match: func(n, _ string) bool { return chapterPattern.MatchString(n) }},
	{Name: "part", Match: func(n, _ string) bool { return partPattern.MatchString(n) }},
	{Name: "front_matter", Match: func(n, _ string) bool { return frontMatterPattern.MatchString(n) }},
	{Name: "shouting", Match: func(n, _ string) bool { return textnorm.IsShoutingHeading(n) }},
}

// IsHeadingLike reports whether a paragraph starts a new structural unit.
// Blank text is never a heading, whatever its style.
func IsHeadingLike(text, styleHint string) bool {
	_, ok := Classify(text, styleHint)
	return ok
}

// Classify returns the name of the first rule matching the paragraph.
func Classify(text, styleHint string) (string, bool) {
	n := textnorm.NormalizeWhitespace(text)
	if n == "" {
		return "", false
	}
	hint := strings.TrimSpace(styleHint)
	for _, r := range Rules {
		if r.Match(n, hint) {
			return r.Name, true
		}
	}
	return "", false
}

// MatchesStructural reports whether text begins with a chapter, part or
// front-matter phrase. Style and capitalization are not considered.
func MatchesStructural(text string) bool {
	n := textnorm.NormalizeWhitespace(text)
	if n == "" {
		return false
	}
	return chapterPattern.MatchString(n) || partPattern.MatchString(n) || frontMatterPattern.MatchString(n)
}

// IsHeadingStyle matches "Heading 1", "heading2", "Title" and friends.
func IsHeadingStyle(hint string) bool {
	hint = strings.TrimSpace(hint)
	return headingStylePattern.MatchString(hint) || strings.EqualFold(hint, "title")
}

// IsTitleStyle reports whether hint can carry the novel's title: "Title" or
// a first-level heading.
func IsTitleStyle(hint string) bool {
	hint = strings.TrimSpace(hint)
	return strings.EqualFold(hint, "title") || heading1StylePattern.MatchString(hint)
}
