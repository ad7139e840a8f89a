package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/manuscript/internal/segment"
)

func TestRTFToText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{\rtf1\ansi Hello world}`, "Hello world"},
		{"par", `{\rtf1 One\par Two}`, "One\n\nTwo"},
		{"line", `{\rtf1 One\line Two}`, "One\nTwo"},
		{"escaped literals", `{\rtf1 a\{b\}c\\d}`, `a{b}c\d`},
		{"hex escape", `{\rtf1 caf\'e9}`, "café"},
		{"unicode with fallback", `{\rtf1 it\u8217?s}`, "it’s"},
		{"unicode uc2", `{\rtf1\uc2 x\u8220??y}`, "x“y"},
		{"negative unicode", `{\rtf1 \u-3913?}`, "\uf0b7"},
		{"font table skipped", `{\rtf1{\fonttbl{\f0 Times;}}\f0 Text}`, "Text"},
		{"ignorable destination", `{\rtf1{\*\generator Word;}Body}`, "Body"},
		{"nbsp and hyphen", `{\rtf1 a\~b\_c}`, "a b-c"},
		{"symbols", `{\rtf1 \ldblquote Hi\rdblquote\emdash}`, "“Hi”—"},
		{"formatting dropped", `{\rtf1 {\b bold} and {\i italic}}`, "bold and italic"},
		{"raw newlines ignored", "{\\rtf1 one\r\ntwo}", "onetwo"},
		{"tab", `{\rtf1 a\tab b}`, "a\tb"},
		{"surrogate pair", `{\rtf1 smile \u-10179?\u-8704?!}`, "smile \U0001F600!"},
		{"lone high surrogate", `{\rtf1 a\u-10179?b}`, "a\uFFFDb"},
		{"lone low surrogate", `{\rtf1 a\u-8704?b}`, "a\uFFFDb"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := RTFToText([]byte(c.in))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Errorf("expected %q, got %q", c.want, got)
			}
		})
	}
}

func TestRTFToText_Errors(t *testing.T) {
	cases := []string{
		"plain text, no header",
		`{\rtf1 unbalanced}}`,
		`{\rtf1 bad hex \'zz}`,
		`{\rtf1 short \'e`,
		`{\rtf1 never closed`,
		`{\rtf1 {\b nested} still open`,
		`{\rtf1 trailing\`,
	}
	for _, in := range cases {
		if _, err := RTFToText([]byte(in)); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestRTFParser_Paragraphs(t *testing.T) {
	src := `{\rtf1\ansi{\fonttbl{\f0 Times;}}` +
		`\pard My Novel\par` +
		`\pard\par` +
		`\pard Chapter 1\par` +
		`\pard It was dawn.\line The sun rose.\par` +
		`\pard   \par` +
		`\pard Chapter 2\par}`

	p := &RTFParser{}
	paras, err := p.Parse(strings.NewReader(src), "novel.rtf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []segment.RawParagraph{
		{Text: "My Novel"},
		{Text: "Chapter 1"},
		{Text: "It was dawn.\nThe sun rose."},
		{Text: "Chapter 2"},
	}
	if len(paras) != len(want) {
		t.Fatalf("expected %d paragraphs, got %d: %+v", len(want), len(paras), paras)
	}
	for i, w := range want {
		if paras[i] != w {
			t.Errorf("paragraph[%d]: expected %+v, got %+v", i, w, paras[i])
		}
	}
}

func TestRTFParser_Corrupt(t *testing.T) {
	p := &RTFParser{}
	_, err := p.Parse(strings.NewReader("not rtf"), "x.rtf")
	if !errors.Is(err, ErrCorruptContainer) {
		t.Errorf("expected ErrCorruptContainer, got %v", err)
	}
}
