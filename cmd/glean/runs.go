package main

import (
	"fmt"
	"time"

	"github.com/jlipinski/glean"
)

// Run executes the runs command.
func (c *RunsCmd) Run(deps *Dependencies) error {
	filter := glean.RunFilter{Limit: c.Limit}
	if c.SchemaName != "" {
		filter.SchemaName = &c.SchemaName
	}

	runs, err := deps.Runs.FindRuns(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", glean.ErrorMessage(err))
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No runs recorded. Use 'glean extract' to create one.")
		return nil
	}

	for _, r := range runs {
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %s\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), r.SchemaName, firstLine(r.SourceURL))
	}

	return nil
}

// firstLine reduces a newline-joined URL list to its first entry for
// single-line listings.
func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i] + " ..."
		}
	}
	return s
}
