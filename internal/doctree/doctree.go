// Package doctree is the rich document tree handed to the editor and the
// store: a doc node holding block nodes, which hold inline nodes.
//
// The JSON form carries a "type" discriminator on every node.
package doctree

import (
	"encoding/json"
	"fmt"
)

// Node types.
const (
	TypeDoc            = "doc"
	TypeParagraph      = "paragraph"
	TypeHeading        = "heading"
	TypeBlockquote     = "blockquote"
	TypeBulletList     = "bulletList"
	TypeOrderedList    = "orderedList"
	TypeListItem       = "listItem"
	TypeHorizontalRule = "horizontalRule"
	TypeText           = "text"
	TypeHardBreak      = "hardBreak"
)

// Mark types understood by the exporters.
const (
	MarkBold      = "bold"
	MarkItalic    = "italic"
	MarkUnderline = "underline"
	MarkStrike    = "strike"
	MarkCode      = "code"
	MarkLink      = "link"
)

// Node is one element of a document tree.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []*Node        `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

// Mark is an inline formatting span applied to a text node.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// NewDoc returns a doc node wrapping blocks.
func NewDoc(blocks ...*Node) *Node {
	return &Node{Type: TypeDoc, Content: blocks}
}

// NewParagraph returns a paragraph node with the given inline content.
func NewParagraph(inline ...*Node) *Node {
	return &Node{Type: TypeParagraph, Content: inline}
}

// NewText returns a text node carrying marks.
func NewText(text string, marks ...Mark) *Node {
	return &Node{Type: TypeText, Text: text, Marks: marks}
}

// NewHardBreak returns a hard line break node.
func NewHardBreak() *Node {
	return &Node{Type: TypeHardBreak}
}

// NewHeading returns a heading node of the given level.
func NewHeading(level int, inline ...*Node) *Node {
	return &Node{Type: TypeHeading, Attrs: map[string]any{"level": level}, Content: inline}
}

// Level returns a heading's level attribute, defaulting to 1. JSON decoding
// yields float64 numbers, so both forms are accepted.
func (n *Node) Level() int {
	switch v := n.Attrs["level"].(type) {
	case int:
		if v > 0 {
			return v
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	}
	return 1
}

// Href returns the href attribute of a link mark.
func (m Mark) Href() string {
	s, _ := m.Attrs["href"].(string)
	return s
}

// Marshal encodes a document as JSON.
func Marshal(doc *Node) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a JSON document and checks that its root is a doc node.
func Unmarshal(data []byte) (*Node, error) {
	var doc Node
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	if doc.Type != TypeDoc {
		return nil, fmt.Errorf("unmarshal document: root type %q, want %q", doc.Type, TypeDoc)
	}
	return &doc, nil
}
