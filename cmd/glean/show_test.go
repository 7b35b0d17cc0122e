package main_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jlipinski/glean"
	main "github.com/jlipinski/glean/cmd/glean"
	"github.com/jlipinski/glean/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowCmd_Run(t *testing.T) {
	t.Parallel()

	storedRun := &glean.Run{
		ID:           "run-123",
		SourceURL:    "https://example.com/catalog\nhttps://example.com/catalog/2",
		SchemaName:   "products",
		SchemaHash:   "a1b2c3d4e5f60718",
		Model:        "gemini-2.5-flash",
		Output:       `{"records":[{"title":"Alpha Tent"}]}`,
		OutputHash:   "1122334455667788",
		ChunksTotal:  3,
		ChunksMerged: 2,
		ChunksEmpty:  1,
		Duration:     1500 * time.Millisecond,
		CreatedAt:    time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	newRuns := func() *mock.RunService {
		return &mock.RunService{
			FindRunByIDFn: func(_ context.Context, id string) (*glean.Run, error) {
				if id == storedRun.ID {
					return storedRun, nil
				}
				return nil, glean.Errorf(glean.ENOTFOUND, "run not found")
			},
		}
	}

	t.Run("prints run details", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Runs:   newRuns(),
		}

		cmd := &main.ShowCmd{ID: "run-123"}
		err := cmd.Run(deps)

		require.NoError(t, err)

		output := stdout.String()
		assert.Contains(t, output, "run-123")
		assert.Contains(t, output, "products (a1b2c3d4e5f60718)")
		assert.Contains(t, output, "gemini-2.5-flash")
		assert.Contains(t, output, "2 merged, 1 empty, 3 total")
		assert.Contains(t, output, "1.5s")
		assert.Contains(t, output, "https://example.com/catalog")
		assert.Contains(t, output, "https://example.com/catalog/2")
		assert.Contains(t, output, "Alpha Tent")
	})

	t.Run("prints only the stored output with --output", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Runs:   newRuns(),
		}

		cmd := &main.ShowCmd{ID: "run-123", Output: true}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Equal(t, storedRun.Output+"\n", stdout.String())
	})

	t.Run("notes when the run has no output", func(t *testing.T) {
		t.Parallel()

		runs := &mock.RunService{
			FindRunByIDFn: func(_ context.Context, _ string) (*glean.Run, error) {
				return &glean.Run{ID: "run-empty", SourceURL: "https://example.com", SchemaName: "products"}, nil
			},
		}

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: stderr,
			Runs:   runs,
		}

		cmd := &main.ShowCmd{ID: "run-empty", Output: true}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "no output")
	})

	t.Run("returns ENOTFOUND for missing run", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: stderr,
			Runs:   newRuns(),
		}

		cmd := &main.ShowCmd{ID: "missing"}
		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Equal(t, glean.ENOTFOUND, glean.ErrorCode(err))
		assert.Contains(t, stderr.String(), "not found")
	})
}
