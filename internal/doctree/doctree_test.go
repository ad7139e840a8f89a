package doctree

import (
	"reflect"
	"strings"
	"testing"
)

func TestCompile_ParagraphsAndHardBreaks(t *testing.T) {
	doc := Compile("First line\nsecond line\n\nNext paragraph.")

	if doc.Type != TypeDoc {
		t.Fatalf("expected doc root, got %q", doc.Type)
	}
	if len(doc.Content) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(doc.Content))
	}

	first := doc.Content[0]
	wantTypes := []string{TypeText, TypeHardBreak, TypeText}
	if len(first.Content) != len(wantTypes) {
		t.Fatalf("expected %d inline nodes, got %d", len(wantTypes), len(first.Content))
	}
	for i, want := range wantTypes {
		if first.Content[i].Type != want {
			t.Errorf("inline[%d]: expected %q, got %q", i, want, first.Content[i].Type)
		}
	}
	if first.Content[0].Text != "First line" || first.Content[2].Text != "second line" {
		t.Errorf("unexpected text nodes: %q, %q", first.Content[0].Text, first.Content[2].Text)
	}
	if got := doc.Content[1].Content[0].Text; got != "Next paragraph." {
		t.Errorf("expected second paragraph text, got %q", got)
	}
}

func TestCompile_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n\n", " \t\n \n"} {
		doc := Compile(in)
		if len(doc.Content) != 1 || doc.Content[0].Type != TypeParagraph {
			t.Fatalf("input %q: expected a single paragraph, got %+v", in, doc.Content)
		}
		p := doc.Content[0]
		if len(p.Content) != 1 || p.Content[0].Type != TypeText || p.Content[0].Text != "" {
			t.Errorf("input %q: expected one empty text node, got %+v", in, p.Content)
		}
	}
}

func TestCompile_LineEndings(t *testing.T) {
	crlf := Compile("a\r\nb\r\n\r\nc")
	lf := Compile("a\nb\n\nc")
	cr := Compile("a\rb\r\rc")
	if !reflect.DeepEqual(crlf, lf) {
		t.Errorf("CRLF input compiled differently from LF input")
	}
	if !reflect.DeepEqual(cr, lf) {
		t.Errorf("CR input compiled differently from LF input")
	}
}

func TestCompile_WhitespaceOnlySeparator(t *testing.T) {
	doc := Compile("one\n \t\n\t\ntwo")
	if len(doc.Content) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(doc.Content))
	}
}

func TestPlainText(t *testing.T) {
	cases := map[string]string{
		"A\nB\n\nC":    "A\nB\nC",
		"A\n\nB":       "A\nB",
		"A\n\n\n\nB":   "A\nB",
		"one\ntwo\n\n": "one\ntwo",
	}
	for in, want := range cases {
		if got := PlainText(Compile(in)); got != want {
			t.Errorf("%q: expected %q, got %q", in, want, got)
		}
	}

	rich := NewDoc(
		NewHeading(2, NewText("Title")),
		NewParagraph(NewText("bold", Mark{Type: MarkBold}), NewText(" text")),
		&Node{Type: TypeBulletList, Content: []*Node{
			{Type: TypeListItem, Content: []*Node{NewParagraph(NewText("item"))}},
		}},
	)
	if got := PlainText(rich); got != "Title\nbold text\nitem" {
		t.Errorf("unexpected plain text for rich doc: %q", got)
	}

	if got := PlainText(nil); got != "" {
		t.Errorf("expected empty text for nil doc, got %q", got)
	}
}

func TestCompile_PlainTextStable(t *testing.T) {
	inputs := []string{
		"",
		"single",
		"one\ntwo",
		"para one\n\npara two\nwith break\n\n\n\npara three",
		"  padded  \n\n trailing \n",
	}
	for _, in := range inputs {
		once := Compile(in)
		twice := Compile(PlainText(once))
		if got, want := strings.Join(strings.Fields(PlainText(once)), " "), strings.Join(strings.Fields(in), " "); got != want {
			t.Errorf("input %q: normalized plain text %q, want %q", in, got, want)
		}
		if PlainText(once) != PlainText(twice) {
			t.Errorf("input %q: plain text is not stable", in)
		}
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount(Compile("one two\nthree\n\nfour")); got != 4 {
		t.Errorf("expected 4 words, got %d", got)
	}
	if got := WordCount(Compile("")); got != 0 {
		t.Errorf("expected 0 words, got %d", got)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	doc := Compile("Hello\nworld\n\nBye")
	data, err := Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"type":"hardBreak"`) {
		t.Errorf("expected hardBreak node in JSON, got %s", data)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(doc, got) {
		t.Errorf("round trip mismatch:\n got %s", data)
	}
}

func TestUnmarshal_RejectsNonDocRoot(t *testing.T) {
	if _, err := Unmarshal([]byte(`{"type":"paragraph"}`)); err == nil {
		t.Error("expected error for paragraph root")
	}
	if _, err := Unmarshal([]byte(`{not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLevel(t *testing.T) {
	if got := NewHeading(3).Level(); got != 3 {
		t.Errorf("expected level 3, got %d", got)
	}
	decoded := &Node{Type: TypeHeading, Attrs: map[string]any{"level": float64(2)}}
	if got := decoded.Level(); got != 2 {
		t.Errorf("expected level 2 from float64, got %d", got)
	}
	if got := (&Node{Type: TypeHeading}).Level(); got != 1 {
		t.Errorf("expected default level 1, got %d", got)
	}
}

func TestMarkHref(t *testing.T) {
	m := Mark{Type: MarkLink, Attrs: map[string]any{"href": "https://example.com"}}
	if m.Href() != "https://example.com" {
		t.Errorf("unexpected href %q", m.Href())
	}
	if (Mark{Type: MarkBold}).Href() != "" {
		t.Error("expected empty href for bold mark")
	}
}
