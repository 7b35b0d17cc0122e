package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/jlipinski/glean"
)

// Ensure Converter implements glean.Converter at compile time.
var _ glean.Converter = (*Converter)(nil)

// Converter turns extracted HTML into Markdown, the form page content
// takes inside model prompts. Markdown keeps headings, lists, and
// tables legible to the model at a fraction of the token cost of HTML.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter with CommonMark and table
// support.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into Markdown.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", glean.Errorf(glean.EINVALID, "empty HTML input")
	}

	result, err := c.conv.ConvertString(html)
	if err != nil {
		return "", err
	}

	return result, nil
}
