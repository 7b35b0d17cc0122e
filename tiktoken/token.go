// Package tiktoken counts tokens using OpenAI's tiktoken encodings.
package tiktoken

import (
	"context"
	"strings"
	"sync"

	"github.com/jlipinski/glean"
	"github.com/pkoukk/tiktoken-go"
)

var _ glean.TokenCounter = (*TokenCounter)(nil)

// modelEncodings maps exact model names to their tiktoken encoding.
var modelEncodings = map[string]string{
	"gpt-4o":        "o200k_base",
	"gpt-4o-mini":   "o200k_base",
	"gpt-4-turbo":   "cl100k_base",
	"gpt-4":         "cl100k_base",
	"gpt-3.5-turbo": "cl100k_base",
}

// encodingPrefixes resolves dated model variants, longest prefix first so
// "gpt-4o-2024-11-20" matches gpt-4o rather than gpt-4.
var encodingPrefixes = []struct {
	prefix   string
	encoding string
}{
	{"gpt-4o", "o200k_base"},
	{"gpt-4-turbo", "cl100k_base"},
	{"gpt-4", "cl100k_base"},
	{"gpt-3.5-turbo", "cl100k_base"},
}

// fallbackEncoding covers unknown models. Chunk budgeting tolerates a few
// percent of counting error, so a near match beats an error.
const fallbackEncoding = "cl100k_base"

// TokenCounter counts tokens with the tiktoken encoding of a model. The
// encoding loads lazily on first use because loading may download
// vocabulary data.
type TokenCounter struct {
	encoding string

	once    sync.Once
	enc     *tiktoken.Tiktoken
	initErr error
}

// NewTokenCounter creates a TokenCounter for the given model name. Unknown
// models fall back to the cl100k_base encoding.
func NewTokenCounter(model string) *TokenCounter {
	return &TokenCounter{encoding: encodingFor(model)}
}

func encodingFor(model string) string {
	if enc, ok := modelEncodings[model]; ok {
		return enc
	}
	for _, p := range encodingPrefixes {
		if strings.HasPrefix(model, p.prefix) {
			return p.encoding
		}
	}
	return fallbackEncoding
}

// CountTokens counts the number of tokens in the given text.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	if err := tc.init(); err != nil {
		return 0, err
	}
	return len(tc.enc.Encode(text, nil, nil)), nil
}

func (tc *TokenCounter) init() error {
	tc.once.Do(func() {
		enc, err := tiktoken.GetEncoding(tc.encoding)
		if err != nil {
			tc.initErr = glean.Errorf(glean.EINTERNAL, "load tiktoken encoding %s: %v", tc.encoding, err)
			return
		}
		tc.enc = enc
	})
	return tc.initErr
}
