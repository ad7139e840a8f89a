package doctree

import (
	"regexp"
	"strings"
)

var excessBreaks = regexp.MustCompile(`\n{3,}`)

// PlainText flattens a document into text. Each paragraph and each hard
// break ends one line, so paragraph boundaries are lost and the result is
// not an input for Compile. Marks and list structure are dropped.
func PlainText(doc *Node) string {
	var sb strings.Builder
	writePlain(&sb, doc)
	out := excessBreaks.ReplaceAllString(sb.String(), "\n\n")
	return strings.TrimSpace(out)
}

func writePlain(sb *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	switch n.Type {
	case TypeText:
		sb.WriteString(n.Text)
		return
	case TypeHardBreak:
		sb.WriteByte('\n')
		return
	}
	for _, c := range n.Content {
		writePlain(sb, c)
	}
	switch n.Type {
	case TypeParagraph, TypeHeading, TypeBlockquote, TypeListItem:
		sb.WriteByte('\n')
	}
}

// WordCount counts whitespace-separated words in the document's text.
func WordCount(doc *Node) int {
	return len(strings.Fields(PlainText(doc)))
}
