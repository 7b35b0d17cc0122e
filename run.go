package glean

import (
	"context"
	"time"
)

// Run records one completed extraction: the pages it covered, the schema it
// used and the aggregate output it produced.
type Run struct {
	ID string `json:"id"`

	// SourceURL holds the extracted URLs, newline-joined when a run covers
	// more than one page.
	SourceURL string `json:"sourceUrl"`

	SchemaName string `json:"schemaName"`
	SchemaHash string `json:"schemaHash"`
	Model      string `json:"model"`

	// Output is the serialized aggregate value; empty when no chunk
	// produced a valid structured value.
	Output     string `json:"output"`
	OutputHash string `json:"outputHash"`

	// Chunk accounting. ChunksEmpty counts chunks whose reflection loop
	// gave up; they contributed nothing to the output.
	ChunksTotal  int `json:"chunksTotal"`
	ChunksMerged int `json:"chunksMerged"`
	ChunksEmpty  int `json:"chunksEmpty"`

	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Validate returns an error if the run contains invalid fields.
func (r *Run) Validate() error {
	if r.SourceURL == "" {
		return Errorf(EINVALID, "run source URL required")
	}
	if r.SchemaName == "" {
		return Errorf(EINVALID, "run schema name required")
	}
	return nil
}

// RunService represents a service for managing stored extraction runs.
type RunService interface {
	// CreateRun creates a new run.
	CreateRun(ctx context.Context, run *Run) error

	// FindRunByID retrieves a run by ID.
	// Returns ENOTFOUND if the run does not exist.
	FindRunByID(ctx context.Context, id string) (*Run, error)

	// FindRuns retrieves runs matching the filter, newest first.
	FindRuns(ctx context.Context, filter RunFilter) ([]*Run, error)

	// DeleteRun permanently removes a run.
	// Returns ENOTFOUND if the run does not exist.
	DeleteRun(ctx context.Context, id string) error
}

// RunFilter represents a filter for FindRuns.
type RunFilter struct {
	ID         *string `json:"id"`
	SchemaName *string `json:"schemaName"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
