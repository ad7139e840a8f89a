package export

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		strikethrough.NewStrikethroughPlugin(),
	),
)

// Markdown renders the novel as one Markdown file: the novel title as a
// level-one heading and each chapter under a level-two heading. It is
// derived from the same node tree as the HTML export. Underline has no
// Markdown form and is dropped.
func Markdown(title string, chapters []Chapter) (string, error) {
	out, err := mdConverter.ConvertNode(novelDocument(title, chapters))
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimSpace(string(out)) + "\n", nil
}
