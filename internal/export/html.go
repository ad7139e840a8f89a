package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/manuscript/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var headingAtoms = [...]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

// HTML renders the novel as a standalone page. Chapter bodies are built
// node by node from the document tree, so text is always escaped.
func HTML(title string, chapters []Chapter) (string, error) {
	var out strings.Builder
	if err := html.Render(&out, novelDocument(title, chapters)); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	out.WriteByte('\n')
	return out.String(), nil
}

// novelDocument builds the page tree shared by the HTML and Markdown
// exporters.
func novelDocument(title string, chapters []Chapter) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	doc.AppendChild(root)

	head := element(atom.Head)
	meta := element(atom.Meta)
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.AppendChild(meta)
	head.AppendChild(withText(element(atom.Title), title))
	root.AppendChild(head)

	body := element(atom.Body)
	root.AppendChild(body)
	body.AppendChild(withText(element(atom.H1), title))

	for i, ch := range chapters {
		section := element(atom.Section)
		section.Attr = []html.Attribute{{Key: "id", Val: fmt.Sprintf("chapter-%d", i+1)}}
		section.AppendChild(withText(element(atom.H2), ch.Title))
		if ch.Doc != nil {
			appendBlocks(section, ch.Doc.Content)
		}
		body.AppendChild(section)
	}
	return doc
}

func appendBlocks(parent *html.Node, blocks []*doctree.Node) {
	for _, b := range blocks {
		if b == nil {
			continue
		}
		switch b.Type {
		case doctree.TypeParagraph:
			parent.AppendChild(appendInline(element(atom.P), b.Content))
		case doctree.TypeHeading:
			level := min(b.Level(), len(headingAtoms))
			parent.AppendChild(appendInline(element(headingAtoms[level-1]), b.Content))
		case doctree.TypeBlockquote:
			q := element(atom.Blockquote)
			appendBlocks(q, b.Content)
			parent.AppendChild(q)
		case doctree.TypeBulletList:
			parent.AppendChild(listNode(element(atom.Ul), b.Content))
		case doctree.TypeOrderedList:
			ol := listNode(element(atom.Ol), b.Content)
			if start := listStart(b); start != 1 {
				ol.Attr = []html.Attribute{{Key: "start", Val: strconv.Itoa(start)}}
			}
			parent.AppendChild(ol)
		case doctree.TypeHorizontalRule:
			parent.AppendChild(element(atom.Hr))
		case doctree.TypeListItem:
			parent.AppendChild(listNode(element(atom.Ul), []*doctree.Node{b}))
		default:
			if len(b.Content) > 0 {
				parent.AppendChild(appendInline(element(atom.P), b.Content))
			}
		}
	}
}

func listNode(list *html.Node, items []*doctree.Node) *html.Node {
	for _, item := range items {
		li := element(atom.Li)
		if item != nil {
			appendBlocks(li, item.Content)
		}
		list.AppendChild(li)
	}
	return list
}

func listStart(n *doctree.Node) int {
	switch v := n.Attrs["start"].(type) {
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

func appendInline(parent *html.Node, inline []*doctree.Node) *html.Node {
	for _, n := range inline {
		if n == nil {
			continue
		}
		switch n.Type {
		case doctree.TypeText:
			if n.Text != "" {
				parent.AppendChild(markedText(n.Text, n.Marks))
			}
		case doctree.TypeHardBreak:
			parent.AppendChild(element(atom.Br))
		}
	}
	return parent
}

// markedText wraps a text node in one element per mark, the first mark
// outermost. Unknown marks and links without a target are dropped.
func markedText(text string, marks []doctree.Mark) *html.Node {
	var outer, inner *html.Node
	wrap := func(n *html.Node) {
		if outer == nil {
			outer = n
		} else {
			inner.AppendChild(n)
		}
		inner = n
	}
	for _, m := range marks {
		switch m.Type {
		case doctree.MarkBold:
			wrap(element(atom.Strong))
		case doctree.MarkItalic:
			wrap(element(atom.Em))
		case doctree.MarkUnderline:
			wrap(element(atom.U))
		case doctree.MarkStrike:
			wrap(element(atom.Del))
		case doctree.MarkCode:
			wrap(element(atom.Code))
		case doctree.MarkLink:
			if href := m.Href(); href != "" {
				a := element(atom.A)
				a.Attr = []html.Attribute{{Key: "href", Val: href}}
				wrap(a)
			}
		}
	}
	t := &html.Node{Type: html.TextNode, Data: text}
	if outer == nil {
		return t
	}
	inner.AppendChild(t)
	return outer
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func withText(n *html.Node, text string) *html.Node {
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}
