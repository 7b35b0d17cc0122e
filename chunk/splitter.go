// Package chunk repacks text into token-budgeted pieces for extraction.
package chunk

import (
	"context"
	"strings"

	"github.com/jlipinski/glean"
)

// DefaultSeparators is the split ladder, coarsest boundary first. Splitting
// at paragraph boundaries keeps related records in one chunk; the word level
// only engages when a single sentence exceeds the budget.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " "}

// Ensure Splitter implements glean.Chunker at compile time.
var _ glean.Chunker = (*Splitter)(nil)

// Splitter repacks text by splitting at the coarsest separator that brings
// every piece under the token budget, then greedily merging adjacent pieces
// back up to the budget.
type Splitter struct {
	Counter glean.TokenCounter

	// Separators overrides DefaultSeparators when set.
	Separators []string
}

// NewSplitter creates a Splitter using the given token counter.
func NewSplitter(counter glean.TokenCounter) *Splitter {
	return &Splitter{Counter: counter}
}

// Repack splits text into chunks of at most budget tokens, in document
// order. Whitespace-only input yields no chunks.
func (s *Splitter) Repack(ctx context.Context, text string, budget int) ([]string, error) {
	if s.Counter == nil {
		return nil, glean.Errorf(glean.EINVALID, "token counter required")
	}
	if budget <= 0 {
		return nil, glean.Errorf(glean.EINVALID, "chunk budget must be positive")
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	separators := s.Separators
	if len(separators) == 0 {
		separators = DefaultSeparators
	}

	pieces, err := s.split(ctx, text, budget, separators)
	if err != nil {
		return nil, err
	}
	merged, err := s.mergeUp(ctx, pieces, budget)
	if err != nil {
		return nil, err
	}

	chunks := make([]string, 0, len(merged))
	for _, m := range merged {
		if trimmed := strings.TrimSpace(m); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
	}
	return chunks, nil
}

// split recursively descends the separator ladder until every piece fits
// the budget. Pieces keep their trailing separator so that concatenating
// them reconstructs the input.
func (s *Splitter) split(ctx context.Context, text string, budget int, separators []string) ([]string, error) {
	count, err := s.Counter.CountTokens(ctx, text)
	if err != nil {
		return nil, err
	}
	if count <= budget {
		return []string{text}, nil
	}
	if len(separators) == 0 {
		return splitRunes(text, budget), nil
	}

	var pieces []string
	for _, part := range splitKeep(text, separators[0]) {
		sub, err := s.split(ctx, part, budget, separators[1:])
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, sub...)
	}
	return pieces, nil
}

// mergeUp greedily joins adjacent pieces while the result stays within
// budget, so a paragraph split into many sentences comes back as few
// chunks as the budget allows.
func (s *Splitter) mergeUp(ctx context.Context, pieces []string, budget int) ([]string, error) {
	var out []string
	var current string

	for _, piece := range pieces {
		if current == "" {
			current = piece
			continue
		}
		count, err := s.Counter.CountTokens(ctx, current+piece)
		if err != nil {
			return nil, err
		}
		if count <= budget {
			current += piece
		} else {
			out = append(out, current)
			current = piece
		}
	}
	if current != "" {
		out = append(out, current)
	}
	return out, nil
}

// splitKeep splits text on sep, re-attaching sep to every piece but the
// last.
func splitKeep(text, sep string) []string {
	parts := strings.Split(text, sep)
	for i := 0; i < len(parts)-1; i++ {
		parts[i] += sep
	}
	return parts
}

// splitRunes is the last resort for text with no separators at all, cutting
// at an estimated four characters per token.
func splitRunes(text string, budget int) []string {
	chars := budget * 4
	if chars < 1 {
		chars = 1
	}

	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); i += chars {
		end := i + chars
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}
