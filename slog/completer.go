package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/jlipinski/glean"
)

// Ensure LoggingCompleter implements glean.Completer.
var _ glean.Completer = (*LoggingCompleter)(nil)

// LoggingCompleter wraps a Completer with per-call logging. Prompt and
// output are logged by size only, never by content.
type LoggingCompleter struct {
	next   glean.Completer
	logger *slog.Logger
}

// NewLoggingCompleter creates a new LoggingCompleter.
func NewLoggingCompleter(next glean.Completer, logger *slog.Logger) *LoggingCompleter {
	return &LoggingCompleter{next: next, logger: logger}
}

// Complete delegates to the wrapped completer and logs the call.
func (c *LoggingCompleter) Complete(ctx context.Context, prompt string) (output string, err error) {
	defer func(begin time.Time) {
		c.logger.Info("model call",
			"prompt_chars", len(prompt),
			"output_chars", len(output),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Complete(ctx, prompt)
}
