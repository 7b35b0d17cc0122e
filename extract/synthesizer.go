package extract

import (
	"context"
	"strings"

	"github.com/jlipinski/glean"
	"golang.org/x/sync/errgroup"
)

// DefaultChunkTokens is the repacking token budget when ChunkSize is unset.
const DefaultChunkTokens = 3000

// Synthesizer runs the Responder over a sequence of text chunks and folds
// the per-chunk structured values into one aggregate via the Merge function.
type Synthesizer struct {
	Responder *Responder

	// Chunker, when set, repacks each input chunk into pieces of at most
	// ChunkSize tokens before extraction.
	Chunker   glean.Chunker
	ChunkSize int

	// Merge folds per-chunk values left to right in original chunk order.
	// It must satisfy merge(nil, v) == v.
	Merge glean.MergeFunc

	// Concurrent launches all chunk evaluations at once instead of
	// running them sequentially.
	Concurrent bool

	// Streaming is not supported in accumulate mode; setting it makes
	// Synthesize fail before any model call.
	Streaming bool
}

// Result holds the outcome of one synthesis.
type Result struct {
	// Output is the serialized aggregate value, empty when no chunk
	// produced a valid structured value.
	Output string

	ChunksTotal  int
	ChunksMerged int
	ChunksEmpty  int
}

// Synthesize evaluates every chunk against the schema and merges the
// results. Chunks whose extraction gives up contribute nothing; if none
// contribute, Result.Output is empty. A model transport error from any chunk
// aborts the synthesis, but already-launched sibling evaluations run to
// completion first.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, chunks []string, schema *glean.Schema) (*Result, error) {
	if s.Streaming {
		return nil, glean.Errorf(glean.EINVALID, "streaming is not supported in accumulate mode")
	}
	if schema == nil {
		return nil, glean.Errorf(glean.EINVALID, "schema required")
	}
	if s.Merge == nil {
		return nil, glean.Errorf(glean.EINVALID, "merge function required")
	}

	tasks, err := s.buildTasks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	// Results are collected by task index so the fold below observes
	// original chunk order regardless of completion order.
	results := make([]glean.StructuredValue, len(tasks))

	if s.Concurrent {
		// Plain Group rather than WithContext: a failing chunk must not
		// cancel its siblings, they run to completion and the first
		// error surfaces after the batch settles.
		var g errgroup.Group
		for i, task := range tasks {
			i, task := i, task
			g.Go(func() error {
				value, err := s.Responder.Respond(ctx, query, task, schema)
				if err != nil {
					return err
				}
				results[i] = value
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, task := range tasks {
			value, err := s.Responder.Respond(ctx, query, task, schema)
			if err != nil {
				return nil, err
			}
			results[i] = value
		}
	}

	result := &Result{ChunksTotal: len(tasks)}

	var acc glean.StructuredValue
	for _, value := range results {
		if value == nil {
			result.ChunksEmpty++
			continue
		}
		merged, err := s.Merge(acc, value)
		if err != nil {
			return nil, err
		}
		acc = merged
		result.ChunksMerged++
	}

	if acc != nil {
		result.Output = string(acc)
	}
	return result, nil
}

// buildTasks flattens the input chunks into the per-task work list,
// repacking oversized chunks when a Chunker is configured. Whitespace-only
// chunks produce no tasks.
func (s *Synthesizer) buildTasks(ctx context.Context, chunks []string) ([]string, error) {
	tasks := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		if s.Chunker == nil {
			tasks = append(tasks, chunk)
			continue
		}

		budget := s.ChunkSize
		if budget <= 0 {
			budget = DefaultChunkTokens
		}
		pieces, err := s.Chunker.Repack(ctx, chunk, budget)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, pieces...)
	}
	return tasks, nil
}
