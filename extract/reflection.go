package extract

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jlipinski/glean"
)

// DefaultMaxAttempts bounds the reflection loop when MaxAttempts is unset.
const DefaultMaxAttempts = 3

// Attempt captures one failing extraction attempt: the model output and the
// validation error it caused. The next correction prompt embeds both.
type Attempt struct {
	Output string
	Reason string
}

// state enumerates the reflection loop's states. The loop is written as an
// explicit state switch so every transition is auditable.
type state int

const (
	stateExtracting state = iota
	stateValidating
	stateSucceeded
	stateGaveUp
)

// Reflector repeatedly asks a model to produce schema-valid output for a
// piece of context, feeding each failing attempt back into a correction
// prompt until validation succeeds or the attempt budget is spent.
type Reflector struct {
	Completer glean.Completer
	Validator glean.SchemaValidator

	// MaxAttempts bounds the number of model calls per Reflect call.
	// Zero means DefaultMaxAttempts.
	MaxAttempts int

	// Logger, if set, records gave-up outcomes at debug level. A chunk
	// whose loop gives up contributes nothing and is not an error.
	Logger *slog.Logger
}

// Reflect runs the extraction/validation loop for contextText against the
// schema. A non-nil seed makes the first model call a correction attempt
// (the seed being a failing attempt produced elsewhere, with its own budget
// already spent there).
//
// Returns the validated value on success and (nil, nil) when the budget is
// exhausted without producing schema-valid output. Model transport errors
// and non-validation validator errors propagate.
func (r *Reflector) Reflect(ctx context.Context, schema *glean.Schema, contextText string, seed *Attempt) (glean.StructuredValue, error) {
	if schema == nil {
		return nil, glean.Errorf(glean.EINVALID, "schema required")
	}
	if strings.TrimSpace(contextText) == "" {
		return nil, glean.Errorf(glean.EINVALID, "no input text to extract from")
	}

	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var (
		st           = stateExtracting
		prior        = seed
		attemptsUsed int
		raw          string
		value        glean.StructuredValue
	)

	for {
		switch st {
		case stateExtracting:
			if attemptsUsed >= maxAttempts {
				st = stateGaveUp
				continue
			}
			attemptsUsed++

			var prompt string
			if prior == nil {
				prompt = BuildExtractionPrompt(schema, contextText)
			} else {
				prompt = BuildCorrectionPrompt(schema, contextText, *prior)
			}

			out, err := r.Completer.Complete(ctx, prompt)
			if err != nil {
				return nil, err
			}
			raw = out
			st = stateValidating

		case stateValidating:
			v, err := r.Validator.Validate(raw, schema)
			if err != nil {
				var verr *glean.ValidationError
				if !errors.As(err, &verr) {
					return nil, err
				}
				prior = &Attempt{Output: raw, Reason: verr.Reason}
				st = stateExtracting
				continue
			}
			value = v
			st = stateSucceeded

		case stateSucceeded:
			return value, nil

		case stateGaveUp:
			if r.Logger != nil {
				reason := ""
				if prior != nil {
					reason = prior.Reason
				}
				r.Logger.Debug("reflection gave up",
					"schema", schema.Name,
					"attempts", attemptsUsed,
					"lastError", reason,
				)
			}
			return nil, nil
		}
	}
}
