package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jlipinski/glean"
)

// contentSelectors is the default ladder tried in order when locating
// the main content container. The first selector that matches wins.
var contentSelectors = []string{
	"article",
	"main",
	"[role=main]",
	"#content",
	".content",
}

// Ensure Extractor implements glean.Extractor at compile time.
var _ glean.Extractor = (*Extractor)(nil)

// Extractor locates the main content container with CSS selectors. It
// performs no boilerplate analysis, which makes it predictable on pages
// whose structure is known ahead of time. Prefer the trafilatura engine
// for arbitrary pages.
type Extractor struct {
	selectors []string
}

// NewExtractor creates an Extractor. Extra selectors, when given, are
// tried before the default ladder.
func NewExtractor(extra ...string) *Extractor {
	selectors := make([]string, 0, len(extra)+len(contentSelectors))
	selectors = append(selectors, extra...)
	selectors = append(selectors, contentSelectors...)
	return &Extractor{selectors: selectors}
}

// Extract parses raw HTML and returns the page title and the first
// matching content container.
func (e *Extractor) Extract(rawHTML string) (*glean.ExtractResult, error) {
	if rawHTML == "" {
		return nil, glean.Errorf(glean.EINVALID, "empty HTML input")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, glean.Errorf(glean.EINVALID, "failed to parse HTML: %v", err)
	}

	contentHTML, err := goquery.OuterHtml(e.findContent(doc))
	if err != nil {
		return nil, err
	}

	return &glean.ExtractResult{
		Title:       pageTitle(doc),
		ContentHTML: contentHTML,
	}, nil
}

// findContent walks the selector ladder and returns the first match,
// falling back to the whole body when nothing matches.
func (e *Extractor) findContent(doc *goquery.Document) *goquery.Selection {
	for _, selector := range e.selectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	return doc.Find("body").First()
}

// pageTitle prefers the og:title meta tag over the document title.
// Social titles tend to carry the bare page name without the site
// suffix.
func pageTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if title := strings.TrimSpace(og); title != "" {
			return title
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
