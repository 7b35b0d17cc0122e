package main

import (
	"fmt"

	"github.com/jlipinski/glean"
)

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return glean.Errorf(glean.EINVALID, "use --force to confirm deletion")
	}

	if err := deps.Runs.DeleteRun(deps.Ctx, c.ID); err != nil {
		if glean.ErrorCode(err) == glean.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: run %q not found. Use 'glean runs' to see recorded runs.\n", c.ID)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", glean.ErrorMessage(err))
		}
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted run %q\n", c.ID)
	return nil
}
