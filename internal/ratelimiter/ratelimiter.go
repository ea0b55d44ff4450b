package ratelimiter

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimiter throttles outbound calls to remote collaborators using a token bucket.
//
// Sources that talk to a remote API (the tips archive, object storage) share one
// RateLimiter per source instance across every connection goroutine, so a burst of
// gopher clients cannot translate into an unbounded burst of upstream requests.
//
// Thread safety:
// All methods are safe for concurrent use; rate.Limiter carries its own lock.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter allowing requestsPerSecond sustained calls with the
// given burst.
//
// Special cases:
//   - requestsPerSecond = 0: no limiting at all
//   - burst = 0: burst is raised to 1 so that Wait can ever succeed
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst == 0 {
		burst = 1
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst)),
	}
}

// Allow reports whether a call may proceed right now, consuming a token if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or ctx is done.
//
// Callers on the request path should bound ctx by the connection deadline so a
// throttled upstream never holds a gopher connection longer than its write timeout.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// Tokens returns the number of tokens currently in the bucket.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
