package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dgallion1/manuscript/internal/doctree"
	"github.com/dgallion1/manuscript/internal/parser"
	"github.com/dgallion1/manuscript/internal/segment"
)

func docxFixture(t *testing.T, paragraphs string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		paragraphs + `</w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return buf.Bytes()
}

func TestImport_DOCX(t *testing.T) {
	data := docxFixture(t,
		`<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>My Novel</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>Chapter 1</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>It was dawn.</w:t></w:r></w:p>`+
			`<w:p></w:p>`+
			`<w:p><w:r><w:t>Chapter 2</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>The Arrival</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>She walked in.</w:t></w:r></w:p>`)

	novel, err := Import(context.Background(), data, "upload.docx", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if novel.Title != "My Novel" {
		t.Errorf("expected title %q, got %q", "My Novel", novel.Title)
	}
	if novel.Format != "DOCX" {
		t.Errorf("expected DOCX format, got %q", novel.Format)
	}
	if len(novel.Chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(novel.Chapters))
	}
	if novel.Chapters[1].Title != "Chapter 2: The Arrival" {
		t.Errorf("unexpected second title %q", novel.Chapters[1].Title)
	}
	for i, ch := range novel.Chapters {
		if ch.Doc == nil || ch.Doc.Type != doctree.TypeDoc {
			t.Fatalf("chapter %d: missing compiled document", i)
		}
		if got := doctree.PlainText(ch.Doc); got != ch.BodyText {
			t.Errorf("chapter %d: document text %q does not match body %q", i, got, ch.BodyText)
		}
	}
}

func TestImport_RTF(t *testing.T) {
	src := []byte(`{\rtf1\ansi Chapter 1\par It was dawn.\par\par Chapter 2\par The Arrival\par She walked in.\par}`)

	novel, err := Import(context.Background(), src, "My Draft.rtf", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if novel.Title != "My Draft" {
		t.Errorf("expected filename title, got %q", novel.Title)
	}
	want := []struct{ title, body string }{
		{"Chapter 1", "It was dawn."},
		{"Chapter 2: The Arrival", "She walked in."},
	}
	if len(novel.Chapters) != len(want) {
		t.Fatalf("expected %d chapters, got %d", len(want), len(novel.Chapters))
	}
	for i, w := range want {
		if novel.Chapters[i].Title != w.title || novel.Chapters[i].BodyText != w.body {
			t.Errorf("chapter %d: expected %q/%q, got %q/%q", i, w.title, w.body,
				novel.Chapters[i].Title, novel.Chapters[i].BodyText)
		}
	}
}

func TestImport_MediaTypeOnly(t *testing.T) {
	src := []byte(`{\rtf1 Just some prose.}`)
	novel, err := Import(context.Background(), src, "upload", "text/rtf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if novel.Format != "RTF" || len(novel.Chapters) != 1 {
		t.Errorf("unexpected result: %+v", novel)
	}
	if novel.Chapters[0].BodyText != "Just some prose." {
		t.Errorf("unexpected body %q", novel.Chapters[0].BodyText)
	}
}

func TestImport_Unsupported(t *testing.T) {
	_, err := Import(context.Background(), []byte("%PDF-1.4\n"), "novel.pdf", "application/pdf")
	if !errors.Is(err, parser.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestImport_Corrupt(t *testing.T) {
	_, err := Import(context.Background(), []byte("not a zip"), "novel.docx", "")
	if !errors.Is(err, parser.ErrCorruptContainer) {
		t.Errorf("expected ErrCorruptContainer, got %v", err)
	}
}

func TestImport_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Import(ctx, []byte(`{\rtf1 x}`), "a.rtf", "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBuild_EmptyStream(t *testing.T) {
	novel := Build(nil, "Blank", "RTF")
	if novel.Title != "Blank" {
		t.Errorf("expected fallback title, got %q", novel.Title)
	}
	if len(novel.Chapters) != 1 || novel.Chapters[0].Title != "Chapter 1" {
		t.Fatalf("expected single Chapter 1, got %+v", novel.Chapters)
	}
	doc := novel.Chapters[0].Doc
	if len(doc.Content) != 1 || doc.Content[0].Type != doctree.TypeParagraph {
		t.Errorf("expected a single empty paragraph, got %+v", doc.Content)
	}
}

func TestBuild_SoftBreaksBecomeHardBreaks(t *testing.T) {
	// A closing period keeps the first paragraph from merging into the title.
	novel := Build([]segment.RawParagraph{{Text: "Chapter 1"}, {Text: "one\ntwo."}}, "x", "DOCX")
	if got := novel.Chapters[0].Title; got != "Chapter 1" {
		t.Fatalf("expected the title to stay %q, got %q", "Chapter 1", got)
	}
	p := novel.Chapters[0].Doc.Content[0]
	if len(p.Content) != 3 || p.Content[1].Type != doctree.TypeHardBreak {
		t.Errorf("expected text, hardBreak, text; got %+v", p.Content)
	}
}
