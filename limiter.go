// Package gatekeep implements request admission control (rate limiting)
// for HTTP middleware pipelines.
//
// For each inbound request the Engine decides whether the caller may
// proceed and, if not, after how long a retry makes sense. Callers are
// identified by a pluggable KeyResolver (IP, authenticated user, hashed
// API token, or a composite of several), and admission is decided by one
// of three algorithms, each with a different memory/precision/burst
// trade-off:
//
//   - Fixed Window: O(1) state per key, allows up to 2x the limit across
//     a window boundary.
//   - Sliding Window: O(limit) state per key, no window of the configured
//     length ever observes more than the limit.
//   - Token Bucket: O(1) state per key, tolerates short bursts up to the
//     configured capacity.
//
// Counter state lives behind the store.Store contract, so the same engine
// works against an in-process map or Redis.
//
// Example usage:
//
//	st := store.NewMemory(ctx, time.Minute)
//	eng, err := gatekeep.NewEngine(gatekeep.Config{
//	    Limit:      100,
//	    Window:     time.Minute,
//	    Strategy:   gatekeep.StrategySlidingWindow,
//	    Identifier: gatekeep.IdentifierIP,
//	}, st)
//	result := eng.Attempt(r)
//	if !result.Allowed {
//	    // deny with 429 and the headers from result
//	}
package gatekeep

import (
	"context"
	"time"
)

// Result contains the outcome of an admission check.
//
// It carries everything needed to populate the standard rate-limiting
// response headers (X-RateLimit-Limit, X-RateLimit-Remaining,
// X-RateLimit-Reset, Retry-After); see HeaderNames.Apply.
//
// Invariants: Remaining is never negative and never exceeds Limit;
// Remaining is 0 whenever Allowed is false; RetryAfter is non-zero only
// when Allowed is false.
type Result struct {
	// Allowed indicates whether the request is permitted.
	Allowed bool
	// Limit is the configured number of requests per window.
	Limit int
	// Remaining is the number of requests left in the current window.
	Remaining int
	// ResetTime is when the current window resets. For the token bucket
	// it is the advisory full-refill time; the bucket is usable again
	// sooner, as soon as one token accrues.
	ResetTime time.Time
	// RetryAfter is how long the caller should wait before retrying.
	// Zero when Allowed is true.
	RetryAfter time.Duration
	// Approximate is set when the counter store was unavailable and the
	// engine failed open: the request was admitted without consulting
	// real counter state.
	Approximate bool
}

// Limiter is the interface implemented by the admission algorithms.
//
// Attempt records one attempt for the given key and reports whether it is
// admitted. Limit and window are fixed at construction; time is read from
// the Clock injected at construction, never from a global, so algorithms
// are testable with synthetic time.
//
// Attempt returns an error only for counter-store failures. Denial is not
// an error: it is a normal Result with Allowed set to false.
type Limiter interface {
	Attempt(ctx context.Context, key string) (Result, error)
}
