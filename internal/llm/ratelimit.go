package llm

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// WithRateLimit wraps a client so completion calls are spaced to at most
// callsPerMinute. The limiter has burst 1: the first call goes through
// immediately, later calls wait out the inter-call interval. A non-positive
// callsPerMinute returns the client unchanged.
func WithRateLimit(c Client, callsPerMinute int) Client {
	if c == nil || callsPerMinute <= 0 {
		return c
	}
	return &rateLimitedClient{
		inner:   c,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(callsPerMinute)), 1),
	}
}

type rateLimitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

func (c *rateLimitedClient) Name() string {
	if c == nil || c.inner == nil {
		return ""
	}
	return c.inner.Name()
}

func (c *rateLimitedClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	if c == nil || c.inner == nil {
		return nil, errors.New("llm: nil client")
	}
	if ctx == nil {
		return nil, errors.New("llm: nil context")
	}
	// Wait reports ctx.Err() on cancellation, so callers can tell an
	// aborted wait from a provider failure.
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.Complete(ctx, req)
}
