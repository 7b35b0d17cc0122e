package readability

import (
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/jlipinski/glean"
)

// Ensure Extractor implements glean.Extractor at compile time.
var _ glean.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability, the Firefox Reader View algorithm,
// as an alternative to the trafilatura engine. It tends to keep more
// of the page, which suits extraction targets that trafilatura would
// classify as boilerplate (comment threads, pricing tables).
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the page title and main
// content.
func (e *Extractor) Extract(rawHTML string) (*glean.ExtractResult, error) {
	if rawHTML == "" {
		return nil, glean.Errorf(glean.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, err
	}

	return &glean.ExtractResult{
		Title:       article.Title,
		ContentHTML: article.Content,
	}, nil
}
