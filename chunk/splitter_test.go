package chunk_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jlipinski/glean"
	"github.com/jlipinski/glean/chunk"
	"github.com/jlipinski/glean/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordCounter counts whitespace-separated words, a stand-in for a real
// tokenizer with predictable arithmetic.
func wordCounter() *mock.TokenCounter {
	return &mock.TokenCounter{
		CountTokensFn: func(_ context.Context, text string) (int, error) {
			return len(strings.Fields(text)), nil
		},
	}
}

func TestSplitter_Repack(t *testing.T) {
	t.Parallel()

	t.Run("text within budget stays one chunk", func(t *testing.T) {
		t.Parallel()

		s := chunk.NewSplitter(wordCounter())

		chunks, err := s.Repack(context.Background(), "a short piece of text", 10)

		require.NoError(t, err)
		assert.Equal(t, []string{"a short piece of text"}, chunks)
	})

	t.Run("whitespace-only input yields no chunks", func(t *testing.T) {
		t.Parallel()

		s := chunk.NewSplitter(wordCounter())

		chunks, err := s.Repack(context.Background(), "  \n\t ", 10)

		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("splits at paragraph boundaries first", func(t *testing.T) {
		t.Parallel()

		s := chunk.NewSplitter(wordCounter())
		text := "one two three four five\n\nsix seven eight nine ten\n\neleven twelve thirteen fourteen fifteen"

		chunks, err := s.Repack(context.Background(), text, 6)

		require.NoError(t, err)
		require.Len(t, chunks, 3)
		assert.Equal(t, "one two three four five", chunks[0])
		assert.Equal(t, "six seven eight nine ten", chunks[1])
		assert.Equal(t, "eleven twelve thirteen fourteen fifteen", chunks[2])
	})

	t.Run("merges small paragraphs up to the budget", func(t *testing.T) {
		t.Parallel()

		s := chunk.NewSplitter(wordCounter())
		text := "one two\n\nthree four\n\nfive six\n\nseven eight"

		chunks, err := s.Repack(context.Background(), text, 4)

		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Contains(t, chunks[0], "one two")
		assert.Contains(t, chunks[0], "three four")
		assert.Contains(t, chunks[1], "five six")
		assert.Contains(t, chunks[1], "seven eight")
	})

	t.Run("oversized sentence falls through to word splits", func(t *testing.T) {
		t.Parallel()

		s := chunk.NewSplitter(wordCounter())
		words := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta"}
		text := strings.Join(words, " ")

		chunks, err := s.Repack(context.Background(), text, 3)

		require.NoError(t, err)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(strings.Fields(c)), 3)
		}
	})

	t.Run("no content is lost or reordered", func(t *testing.T) {
		t.Parallel()

		s := chunk.NewSplitter(wordCounter())
		text := "one two three. four five six. seven eight nine\n\nten eleven twelve thirteen fourteen. fifteen sixteen"

		chunks, err := s.Repack(context.Background(), text, 5)

		require.NoError(t, err)
		var got []string
		for _, c := range chunks {
			got = append(got, strings.Fields(c)...)
		}
		assert.Equal(t, strings.Fields(text), got)
	})

	t.Run("zero budget is a usage error", func(t *testing.T) {
		t.Parallel()

		s := chunk.NewSplitter(wordCounter())

		_, err := s.Repack(context.Background(), "some text", 0)

		require.Error(t, err)
		assert.Equal(t, glean.EINVALID, glean.ErrorCode(err))
	})

	t.Run("missing counter is a usage error", func(t *testing.T) {
		t.Parallel()

		s := &chunk.Splitter{}

		_, err := s.Repack(context.Background(), "some text", 10)

		require.Error(t, err)
		assert.Equal(t, glean.EINVALID, glean.ErrorCode(err))
	})

	t.Run("counter error propagates", func(t *testing.T) {
		t.Parallel()

		countErr := errors.New("tokenizer unavailable")
		s := chunk.NewSplitter(&mock.TokenCounter{
			CountTokensFn: func(_ context.Context, _ string) (int, error) {
				return 0, countErr
			},
		})

		_, err := s.Repack(context.Background(), "some text", 10)

		require.Error(t, err)
		assert.ErrorIs(t, err, countErr)
	})
}
