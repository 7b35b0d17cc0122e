package extract

import (
	"context"
	"errors"
	"strings"

	"github.com/jlipinski/glean"
)

// Responder produces a structured value from one text chunk. It invokes the
// model once with the primary extraction prompt and validates the output;
// most chunks succeed here without reflection. A validation failure
// escalates to the Reflector, seeded with the failing output so the loop's
// first prompt is already a correction.
type Responder struct {
	Completer glean.Completer
	Validator glean.SchemaValidator
	Reflector *Reflector
}

// Respond extracts a value conforming to schema from chunk, guided by the
// caller's query. Returns (nil, nil) when the chunk yields nothing
// schema-valid within the reflector's budget: the chunk contributes nothing
// to the aggregate. Model transport errors propagate; only validation
// failures are absorbed.
func (r *Responder) Respond(ctx context.Context, query, chunk string, schema *glean.Schema) (glean.StructuredValue, error) {
	if schema == nil {
		return nil, glean.Errorf(glean.EINVALID, "schema required")
	}
	if strings.TrimSpace(chunk) == "" {
		return nil, glean.Errorf(glean.EINVALID, "no input text to extract from")
	}

	prompt := BuildQueryPrompt(query, schema, chunk)

	raw, err := r.Completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	value, err := r.Validator.Validate(raw, schema)
	if err == nil {
		return value, nil
	}
	var verr *glean.ValidationError
	if !errors.As(err, &verr) {
		return nil, err
	}

	return r.Reflector.Reflect(ctx, schema, chunk, &Attempt{Output: raw, Reason: verr.Reason})
}
