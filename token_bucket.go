package gatekeep

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/dkotenko/gatekeep/store"
)

// TokenBucketLimiter implements the token bucket algorithm.
//
// The bucket holds up to limit tokens and refills continuously at
// limit/window tokens per second; each admitted request consumes one.
// This is the only strategy that tolerates short bursts above the nominal
// steady-state rate, bounded by the capacity.
//
// Buckets start empty: the first attempt for a cold key is denied and the
// caller earns tokens from that moment on.
//
// Remaining and ResetTime are advisory: Remaining is the floored token
// balance after the decrement, and ResetTime is an upper bound (the
// full-refill time). The bucket is usable again as soon as one token
// accrues, which RetryAfter reports on denial.
type TokenBucketLimiter struct {
	store  store.Store
	limit  int
	window time.Duration
	clock  Clock
}

// tokenRecord is the persisted bucket state.
type tokenRecord struct {
	Tokens float64 `json:"tokens"`
	Last   int64   `json:"last"`
}

// NewTokenBucket creates a TokenBucketLimiter. A nil clk selects the
// system clock.
func NewTokenBucket(st store.Store, limit int, window time.Duration, clk Clock) (*TokenBucketLimiter, error) {
	if err := validateLimiterArgs(st, limit, window); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = SystemClock()
	}
	return &TokenBucketLimiter{store: st, limit: limit, window: window, clock: clk}, nil
}

// Attempt implements Limiter.
//
// The bucket state is read, refilled and written back; see
// SlidingWindowLimiter for the concurrency bound of read-then-write
// against a non-atomic store.
func (l *TokenBucketLimiter) Attempt(ctx context.Context, key string) (Result, error) {
	now := l.clock.Now()
	capacity := float64(l.limit)
	rate := capacity / l.window.Seconds()
	storeKey := "gatekeep:token:" + key

	raw, err := l.store.Get(ctx, storeKey)
	if err != nil {
		return Result{}, err
	}

	rec := tokenRecord{Tokens: 0, Last: now.UnixNano()}
	if raw != nil {
		if err := json.Unmarshal(raw, &rec); err == nil {
			elapsed := float64(now.UnixNano()-rec.Last) / float64(time.Second)
			if elapsed > 0 {
				rec.Tokens = math.Min(capacity, rec.Tokens+elapsed*rate)
			}
			rec.Last = now.UnixNano()
		} else {
			rec = tokenRecord{Tokens: 0, Last: now.UnixNano()}
		}
	}

	allowed := rec.Tokens >= 1
	if allowed {
		rec.Tokens--
	}

	encoded, err := json.Marshal(rec)
	if err != nil {
		return Result{}, err
	}
	// Twice the window comfortably outlives a full refill, so abandoned
	// buckets expire from the store.
	if err := l.store.Put(ctx, storeKey, encoded, 2*l.window); err != nil {
		return Result{}, err
	}

	res := Result{
		Allowed:   allowed,
		Limit:     l.limit,
		Remaining: int(math.Floor(rec.Tokens)),
		ResetTime: now.Add(time.Duration(math.Ceil((capacity-rec.Tokens)/rate)) * time.Second),
	}
	if !allowed {
		res.RetryAfter = time.Duration(math.Ceil((1-rec.Tokens)/rate)) * time.Second
	}
	return res, nil
}
