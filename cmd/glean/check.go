package main

import (
	"errors"
	"fmt"

	"github.com/jlipinski/glean"
)

// Run executes the check command.
func (c *CheckCmd) Run(deps *Dependencies) error {
	schema, err := LoadSchemaFile(c.Schema)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", glean.ErrorMessage(err))
		return err
	}

	// Validating a probe document forces the schema to compile. The probe
	// failing validation is fine; only compilation failures matter here.
	if _, err := deps.Validator.Validate("{}", schema); err != nil {
		var verr *glean.ValidationError
		if !errors.As(err, &verr) {
			fmt.Fprintf(deps.Stderr, "error: %s\n", glean.ErrorMessage(err))
			return err
		}
	}

	fmt.Fprintln(deps.Stdout, schema.Description())
	fmt.Fprintf(deps.Stdout, "schema %q OK (hash %s)\n", schema.Name, schema.Hash())
	return nil
}
