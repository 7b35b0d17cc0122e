package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jlipinski/glean"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	run, err := deps.Runs.FindRunByID(deps.Ctx, c.ID)
	if err != nil {
		if glean.ErrorCode(err) == glean.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: run %q not found. Use 'glean runs' to see recorded runs.\n", c.ID)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", glean.ErrorMessage(err))
		}
		return err
	}

	// --output prints just the stored aggregate for piping
	if c.Output {
		if run.Output == "" {
			fmt.Fprintln(deps.Stderr, "run has no output")
			return nil
		}
		fmt.Fprintln(deps.Stdout, run.Output)
		return nil
	}

	fmt.Fprintf(deps.Stdout, "ID:       %s\n", run.ID)
	fmt.Fprintf(deps.Stdout, "Created:  %s\n", run.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(deps.Stdout, "Schema:   %s (%s)\n", run.SchemaName, run.SchemaHash)
	fmt.Fprintf(deps.Stdout, "Model:    %s\n", run.Model)
	fmt.Fprintf(deps.Stdout, "Chunks:   %d merged, %d empty, %d total\n",
		run.ChunksMerged, run.ChunksEmpty, run.ChunksTotal)
	fmt.Fprintf(deps.Stdout, "Duration: %s\n", run.Duration)

	fmt.Fprintln(deps.Stdout, "Pages:")
	for _, u := range strings.Split(run.SourceURL, "\n") {
		fmt.Fprintf(deps.Stdout, "  %s\n", u)
	}

	if run.Output != "" {
		fmt.Fprintf(deps.Stdout, "Output (%s):\n%s\n", run.OutputHash, run.Output)
	}

	return nil
}
