package extract

import (
	"context"

	"github.com/jlipinski/glean"
	"golang.org/x/time/rate"
)

var _ glean.Completer = (*RateLimitedCompleter)(nil)

// RateLimitedCompleter wraps a Completer with a token-bucket rate limit.
// The synthesizer puts no cap on concurrent model calls, so this is the
// backpressure point when the model endpoint needs one.
type RateLimitedCompleter struct {
	next    glean.Completer
	limiter *rate.Limiter
}

// NewRateLimitedCompleter creates a RateLimitedCompleter allowing rps
// requests per second with a burst of 1 (no bursting).
func NewRateLimitedCompleter(next glean.Completer, rps float64) *RateLimitedCompleter {
	return &RateLimitedCompleter{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Complete blocks until the rate limit allows a request, then delegates.
// Returns the context error if ctx is canceled while waiting.
func (c *RateLimitedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return c.next.Complete(ctx, prompt)
}
