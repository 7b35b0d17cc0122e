package glean

import "context"

// Fetcher retrieves HTML from URLs.
// Implementations may use browser automation for JavaScript-rendered pages.
type Fetcher interface {
	// Fetch retrieves the page at url and returns its HTML. For rendering
	// implementations this is the DOM after scripts have run.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases fetcher resources (e.g. a browser process).
	// Must be called when the Fetcher is no longer needed.
	Close() error
}
