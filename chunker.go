package glean

import "context"

// Chunker repacks text into pieces that fit a token budget.
type Chunker interface {
	// Repack splits text into chunks of at most budget tokens, returned in
	// document order. Whitespace-only input yields no chunks.
	Repack(ctx context.Context, text string, budget int) ([]string, error)
}
