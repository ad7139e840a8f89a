// Package importer runs one document import: detect the format, decode the
// paragraph stream, segment it into chapters and compile each chapter body
// into a document tree.
package importer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dgallion1/manuscript/internal/doctree"
	"github.com/dgallion1/manuscript/internal/parser"
	"github.com/dgallion1/manuscript/internal/segment"
	"github.com/dgallion1/manuscript/internal/textnorm"
)

// sniffLen bounds how much content Detect looks at.
const sniffLen = 3072

// Chapter is a segmented chapter with its compiled document.
type Chapter struct {
	Title    string        `json:"title"`
	BodyText string        `json:"body_text"`
	Doc      *doctree.Node `json:"doc"`
}

// Novel is the complete result of one import.
type Novel struct {
	Title    string    `json:"novel_title"`
	Format   string    `json:"format"`
	Chapters []Chapter `json:"chapters"`
}

// Import decodes data and returns the full novel, or an error and nothing.
// mediaType is the declared content type and may be empty.
func Import(ctx context.Context, data []byte, filename, mediaType string) (*Novel, error) {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	format, err := parser.Detect(filename, mediaType, head)
	if err != nil {
		return nil, err
	}
	p, err := parser.ForFormat(format)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paras, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return Build(paras, textnorm.TitleFromFilename(filename), format.String()), nil
}

// Build segments an already decoded paragraph stream and compiles every
// chapter.
func Build(paras []segment.RawParagraph, fallbackTitle, format string) *Novel {
	res := segment.Segment(paras, fallbackTitle)
	novel := &Novel{
		Title:    res.NovelTitle,
		Format:   format,
		Chapters: make([]Chapter, 0, len(res.Chapters)),
	}
	for _, ch := range res.Chapters {
		novel.Chapters = append(novel.Chapters, Chapter{
			Title:    ch.Title,
			BodyText: ch.BodyText,
			Doc:      doctree.Compile(ch.BodyText),
		})
	}
	return novel
}
