package doctree

import (
	"regexp"
	"strings"
)

var blankLines = regexp.MustCompile(`\n[ \t]*(?:\n[ \t]*)+`)

// Compile converts chapter body text into a document. Blank lines separate
// paragraphs and single newlines become hard breaks. The result always holds
// at least one paragraph.
func Compile(bodyText string) *Node {
	text := strings.ReplaceAll(bodyText, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var blocks []*Node
	for _, block := range blankLines.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		blocks = append(blocks, compileParagraph(block))
	}
	if len(blocks) == 0 {
		blocks = append(blocks, NewParagraph(NewText("")))
	}
	return NewDoc(blocks...)
}

func compileParagraph(block string) *Node {
	lines := strings.Split(block, "\n")
	inline := make([]*Node, 0, len(lines)*2)
	for i, line := range lines {
		if i > 0 {
			inline = append(inline, NewHardBreak())
		}
		if line != "" {
			inline = append(inline, NewText(line))
		}
	}
	if len(inline) == 0 {
		inline = append(inline, NewText(""))
	}
	return NewParagraph(inline...)
}
