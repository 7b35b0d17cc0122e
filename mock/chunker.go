package mock

import (
	"context"

	"github.com/jlipinski/glean"
)

var _ glean.Chunker = (*Chunker)(nil)

// Chunker is a mock implementation of glean.Chunker.
type Chunker struct {
	RepackFn func(ctx context.Context, text string, budget int) ([]string, error)
}

func (c *Chunker) Repack(ctx context.Context, text string, budget int) ([]string, error) {
	return c.RepackFn(ctx, text, budget)
}
