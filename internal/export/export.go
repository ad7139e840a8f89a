// Package export renders stored chapters as plain text, Markdown or a
// standalone HTML page.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/manuscript/internal/doctree"
)

// Format is an export output format.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// Chapter is the exporter's view of one chapter.
type Chapter struct {
	Title string
	Doc   *doctree.Node
}

// ParseFormat resolves a query value such as "md" or "markdown".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text", "plain":
		return FormatText, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ContentType returns the HTTP content type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Write renders the novel in format f to w.
func Write(w io.Writer, f Format, title string, chapters []Chapter) error {
	var (
		out string
		err error
	)
	switch f {
	case FormatText:
		out = PlainText(title, chapters)
	case FormatMarkdown:
		out, err = Markdown(title, chapters)
	case FormatHTML:
		out, err = HTML(title, chapters)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// PlainText renders the title, then each chapter title followed by its text.
func PlainText(title string, chapters []Chapter) string {
	var sb strings.Builder
	sb.WriteString(title)
	for _, ch := range chapters {
		sb.WriteString("\n\n\n")
		sb.WriteString(ch.Title)
		if body := chapterText(ch.Doc); body != "" {
			sb.WriteString("\n\n")
			sb.WriteString(body)
		}
	}
	sb.WriteByte('\n')
	return sb.String()
}

// chapterText separates top-level blocks with a blank line for reading.
func chapterText(doc *doctree.Node) string {
	if doc == nil {
		return ""
	}
	parts := make([]string, 0, len(doc.Content))
	for _, b := range doc.Content {
		if s := doctree.PlainText(doctree.NewDoc(b)); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}
