package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/jlipinski/glean"
)

// Compile-time interface verification.
var _ glean.RunService = (*RunService)(nil)

// RunService implements glean.RunService using SQLite.
type RunService struct {
	db *DB
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db}
}

// CreateRun stores a completed extraction run. The ID, creation
// timestamp, and output hash are assigned here.
func (s *RunService) CreateRun(ctx context.Context, run *glean.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}

	run.ID = uuid.New().String()
	run.CreatedAt = time.Now().UTC()
	if run.Output != "" {
		run.OutputHash = fmt.Sprintf("%016x", xxhash.Sum64String(run.Output))
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, source_url, schema_name, schema_hash, model, output, output_hash,
			chunks_total, chunks_merged, chunks_empty, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.SourceURL, run.SchemaName, run.SchemaHash, run.Model, run.Output, run.OutputHash,
		run.ChunksTotal, run.ChunksMerged, run.ChunksEmpty, run.Duration.Milliseconds(),
		run.CreatedAt.Format(time.RFC3339))

	return err
}

// FindRunByID retrieves a run by ID.
func (s *RunService) FindRunByID(ctx context.Context, id string) (*glean.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_url, schema_name, schema_hash, model, output, output_hash,
			chunks_total, chunks_merged, chunks_empty, duration_ms, created_at
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, glean.Errorf(glean.ENOTFOUND, "run not found")
	}
	if err != nil {
		return nil, err
	}

	return run, nil
}

// FindRuns retrieves runs matching the filter, newest first.
func (s *RunService) FindRuns(ctx context.Context, filter glean.RunFilter) ([]*glean.Run, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT id, source_url, schema_name, schema_hash, model, output, output_hash,
		chunks_total, chunks_merged, chunks_empty, duration_ms, created_at
		FROM runs WHERE 1=1`)

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.SchemaName != nil {
		query.WriteString(" AND schema_name = ?")
		args = append(args, *filter.SchemaName)
	}

	query.WriteString(" ORDER BY created_at DESC, id")

	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*glean.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// DeleteRun permanently removes a run.
func (s *RunService) DeleteRun(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return glean.Errorf(glean.ENOTFOUND, "run not found")
	}

	return nil
}

// scanner abstracts sql.Row and sql.Rows for scanRun.
type scanner interface {
	Scan(dest ...any) error
}

// scanRun reads one runs row into a glean.Run.
func scanRun(sc scanner) (*glean.Run, error) {
	var run glean.Run
	var durationMS int64
	var createdAt string

	if err := sc.Scan(&run.ID, &run.SourceURL, &run.SchemaName, &run.SchemaHash, &run.Model,
		&run.Output, &run.OutputHash, &run.ChunksTotal, &run.ChunksMerged, &run.ChunksEmpty,
		&durationMS, &createdAt); err != nil {
		return nil, err
	}

	run.Duration = time.Duration(durationMS) * time.Millisecond

	var err error
	run.CreatedAt, err = parseRFC3339(createdAt, "created_at")
	if err != nil {
		return nil, err
	}

	return &run, nil
}
