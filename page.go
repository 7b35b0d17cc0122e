package glean

import "context"

// Page represents a fetched web page reduced to markdown.
type Page struct {
	URL     string
	Title   string
	Content string // Markdown
}

// FetchProgress reports progress during page loading.
type FetchProgress struct {
	URL       string
	Completed int
	Total     int
	Error     error
}

// FetchProgressFunc is called as pages are processed.
type FetchProgressFunc func(FetchProgress)

// PageStore persists loaded pages with atomic semantics. Save writes to a
// staging location; Commit moves the staged pages into place; Abort
// discards them.
type PageStore interface {
	Save(ctx context.Context, page *Page) error
	Commit() error
	Abort() error
}

// PageLoader retrieves pages and reduces them to markdown.
// Implementations hide fetching, retry, content extraction and markdown
// conversion.
type PageLoader interface {
	// Load fetches a single page.
	Load(ctx context.Context, url string) (*Page, error)

	// LoadAll fetches pages for all urls, preserving input order in the
	// result. Pages that fail are reported through progress and omitted.
	LoadAll(ctx context.Context, urls []string, progress FetchProgressFunc) ([]*Page, error)
}
