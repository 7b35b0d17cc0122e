package glean

// ExtractResult holds the content isolated from an HTML page.
type ExtractResult struct {
	// Title is the page title taken from metadata.
	Title string

	// ContentHTML is the main content as clean HTML with boilerplate
	// (navigation, footers, sidebars, ads) removed.
	ContentHTML string
}

// Extractor isolates the main content of an HTML page. Extraction quality
// directly bounds extraction quality downstream: text the extractor drops
// never reaches the model.
type Extractor interface {
	// Extract processes raw HTML and returns the main content.
	// The title comes from page metadata (meta tags, JSON+LD, etc.);
	// the content HTML keeps document structure.
	Extract(html string) (*ExtractResult, error)
}
