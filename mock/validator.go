package mock

import "github.com/jlipinski/glean"

var _ glean.SchemaValidator = (*SchemaValidator)(nil)

// SchemaValidator is a mock implementation of glean.SchemaValidator.
type SchemaValidator struct {
	ValidateFn func(candidate string, schema *glean.Schema) (glean.StructuredValue, error)
}

func (v *SchemaValidator) Validate(candidate string, schema *glean.Schema) (glean.StructuredValue, error) {
	return v.ValidateFn(candidate, schema)
}
