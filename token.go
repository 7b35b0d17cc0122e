package glean

import "context"

// TokenCounter counts tokens in text for a specific model.
// Chunk budgets are expressed in tokens, so chunking accuracy follows the
// counter's fidelity to the target model's tokenizer.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
