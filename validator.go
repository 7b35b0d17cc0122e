package glean

// SchemaValidator checks candidate model output against a Schema.
type SchemaValidator interface {
	// Validate parses candidate text and checks it against the schema.
	// On success it returns the normalized JSON document. Conformance
	// failures are reported as *ValidationError; any other error means the
	// validator itself failed (e.g. the schema does not compile).
	//
	// Validate has no side effects and is safe for concurrent use.
	Validate(candidate string, schema *Schema) (StructuredValue, error)
}

// ValidationError describes candidate text that failed schema validation.
// The reflection loop feeds Reason and Candidate back into the next
// correction prompt.
type ValidationError struct {
	// Reason is the parse or conformance failure, phrased for a model to
	// act on.
	Reason string

	// Candidate is the text that failed.
	Candidate string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "schema validation failed: " + e.Reason
}
