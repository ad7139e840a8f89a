package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/manuscript/internal/segment"
	"github.com/fumiama/go-docx"
)

const documentPart = "word/document.xml"

// Style hints handed to the segmenter. Raw DOCX style ids never leave this
// package.
const (
	StyleHeading1 = "Heading 1"
	StyleHeading2 = "Heading 2"
	StyleTitle    = "Title"
)

// DOCXParser handles .docx files.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) ([]segment.RawParagraph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	ra := bytes.NewReader(data)

	// go-docx silently yields an empty body when the document part is
	// missing, so check the container first.
	zr, err := zip.NewReader(ra, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptContainer, filename, err)
	}
	if !hasPart(zr, documentPart) {
		return nil, fmt.Errorf("%w: %s: missing %s", ErrCorruptContainer, filename, documentPart)
	}

	doc, err := docx.Parse(ra, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptContainer, filename, err)
	}

	var paras []segment.RawParagraph
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		paras = append(paras, segment.RawParagraph{
			Text:      text,
			StyleHint: styleHint(docxStyleID(para)),
		})
	}
	return paras, nil
}

func hasPart(zr *zip.Reader, name string) bool {
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}

func docxStyleID(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

// styleHint maps a raw style id ("Heading1", "heading 2", "BookTitle") to
// the closed set of hints the classifier understands.
func styleHint(styleID string) string {
	id := strings.ToLower(strings.ReplaceAll(styleID, " ", ""))
	switch {
	case strings.Contains(id, "heading1"):
		return StyleHeading1
	case strings.Contains(id, "heading2"):
		return StyleHeading2
	case strings.Contains(id, "title"):
		return StyleTitle
	}
	return ""
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			writeRun(&buf, c)
		case *docx.Hyperlink:
			writeRun(&buf, &c.Run)
		}
	}
	return trimLines(buf.String())
}

func writeRun(buf *strings.Builder, run *docx.Run) {
	for _, rc := range run.Children {
		switch c := rc.(type) {
		case *docx.Text:
			buf.WriteString(c.Text)
		case *docx.Tab:
			buf.WriteByte('\t')
		case *docx.BarterRabbet:
			if c.Type == "" || c.Type == "textWrapping" {
				buf.WriteByte('\n')
			}
		}
	}
}

// trimLines trims each soft-broken line and drops empty ones, keeping the
// remaining line breaks.
func trimLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
