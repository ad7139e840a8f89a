// Package segment turns a decoder's ordered paragraph stream into a novel
// title and an ordered list of chapters.
package segment

import (
	"strconv"
	"strings"

	"github.com/dgallion1/manuscript/internal/heading"
	"github.com/dgallion1/manuscript/internal/textnorm"
)

const (
	maxTitleLen    = 80
	maxSubtitleLen = 60

	// ParagraphSeparator joins body paragraphs into a chapter's BodyText.
	ParagraphSeparator = "\n\n"
)

// RawParagraph is one paragraph as produced by a format decoder. Text may
// contain single newlines for soft line breaks inside the paragraph.
type RawParagraph struct {
	Text      string `json:"text"`
	StyleHint string `json:"style_hint,omitempty"`
}

// Chapter is a finished unit of the manuscript.
type Chapter struct {
	Title    string `json:"title"`
	BodyText string `json:"body_text"`
}

// Result is the outcome of segmenting one document. Chapters always holds at
// least one entry.
type Result struct {
	NovelTitle string    `json:"novel_title"`
	Chapters   []Chapter `json:"chapters"`
}

// draft accumulates one chapter while the stream is walked.
type draft struct {
	title       string
	body        []string
	fromHeading bool
	merged      bool
}

// Segment splits paragraphs into chapters. fallbackTitle becomes the novel
// title unless the first paragraph is styled as one.
func Segment(paragraphs []RawParagraph, fallbackTitle string) Result {
	paras := make([]RawParagraph, 0, len(paragraphs))
	for _, p := range paragraphs {
		if textnorm.NormalizeWhitespace(p.Text) != "" {
			paras = append(paras, p)
		}
	}

	novelTitle, paras := extractTitle(paras, fallbackTitle)

	var (
		chapters []Chapter
		current  *draft
	)
	for _, p := range paras {
		if heading.IsHeadingLike(p.Text, p.StyleHint) {
			chapters = commit(chapters, current)
			current = &draft{title: p.Text, fromHeading: true}
			continue
		}
		if current == nil {
			current = &draft{title: syntheticTitle(len(chapters))}
		}
		if current.acceptsSubtitle(p.Text) {
			current.title = textnorm.NormalizeWhitespace(current.title) + ": " + textnorm.NormalizeWhitespace(p.Text)
			current.merged = true
			continue
		}
		current.body = append(current.body, p.Text)
	}
	chapters = commit(chapters, current)

	if len(chapters) == 0 {
		body := make([]string, 0, len(paras))
		for _, p := range paras {
			body = append(body, p.Text)
		}
		chapters = []Chapter{{Title: syntheticTitle(0), BodyText: strings.Join(body, ParagraphSeparator)}}
	}

	for i := range chapters {
		chapters[i].Title = textnorm.NormalizeWhitespace(chapters[i].Title)
		if chapters[i].Title == "" {
			chapters[i].Title = syntheticTitle(i)
		}
	}

	return Result{NovelTitle: novelTitle, Chapters: chapters}
}

// extractTitle consumes a leading Title/Heading 1 paragraph as the novel
// title, unless it reads like a chapter heading.
func extractTitle(paras []RawParagraph, fallback string) (string, []RawParagraph) {
	if len(paras) == 0 {
		return fallback, paras
	}
	first := paras[0]
	n := textnorm.NormalizeWhitespace(first.Text)
	if len([]rune(n)) > maxTitleLen || heading.MatchesStructural(n) || !heading.IsTitleStyle(first.StyleHint) {
		return fallback, paras
	}
	rest := paras[1:]
	for len(rest) > 0 && textnorm.NormalizeWhitespace(rest[0].Text) == "" {
		rest = rest[1:]
	}
	return n, rest
}

// acceptsSubtitle reports whether text should be folded into the title of a
// fresh "Chapter N" style heading instead of opening the body.
func (d *draft) acceptsSubtitle(text string) bool {
	if !d.fromHeading || d.merged || len(d.body) > 0 {
		return false
	}
	if !heading.MatchesStructural(d.title) {
		return false
	}
	n := textnorm.NormalizeWhitespace(text)
	if len([]rune(n)) > maxSubtitleLen {
		return false
	}
	return !strings.HasSuffix(n, ".") && !strings.HasSuffix(n, "!") && !strings.HasSuffix(n, "?")
}

func commit(chapters []Chapter, d *draft) []Chapter {
	if d == nil {
		return chapters
	}
	title := d.title
	if textnorm.NormalizeWhitespace(title) == "" {
		title = syntheticTitle(len(chapters))
	}
	return append(chapters, Chapter{
		Title:    title,
		BodyText: strings.Join(d.body, ParagraphSeparator),
	})
}

func syntheticTitle(index int) string {
	return "Chapter " + strconv.Itoa(index+1)
}
