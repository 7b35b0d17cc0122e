package glean

import "context"

// Completer produces a text completion for a prompt. It is the module's
// only contract with a language model backend.
//
// Implementations must be safe for concurrent use: the synthesizer issues
// overlapping calls when chunks run concurrently. Transport failures should
// carry the EUNAVAILABLE code so callers can tell "model unreachable" apart
// from output that keeps failing validation.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
