package gatekeep

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkotenko/gatekeep/store"
)

// FixedWindowLimiter implements the fixed window algorithm.
//
// Requests are counted per (key, bucket), where the bucket is the window
// number since the Unix epoch. State is O(1) per key. The accepted
// trade-off is the boundary burst: a caller can get up to 2x the limit in
// a span straddling two adjacent windows.
//
// When the store implements store.Incrementer the count is updated with a
// single atomic increment-and-get and is exact under concurrency. With a
// plain Get/Put store the counter is read-then-written, and concurrently
// racing attempts on the same key can each observe the pre-increment
// count; over-admission is bounded by the number of racing workers.
type FixedWindowLimiter struct {
	store  store.Store
	limit  int
	window time.Duration
	clock  Clock
}

// fixedRecord is the persisted counter for the Get/Put fallback path.
type fixedRecord struct {
	Count       int64 `json:"count"`
	WindowStart int64 `json:"start"`
}

// NewFixedWindow creates a FixedWindowLimiter. A nil clk selects the
// system clock. limit and window follow the Config rules: limit > 0,
// window a positive whole number of seconds.
func NewFixedWindow(st store.Store, limit int, window time.Duration, clk Clock) (*FixedWindowLimiter, error) {
	if err := validateLimiterArgs(st, limit, window); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = SystemClock()
	}
	return &FixedWindowLimiter{store: st, limit: limit, window: window, clock: clk}, nil
}

// Attempt implements Limiter.
func (l *FixedWindowLimiter) Attempt(ctx context.Context, key string) (Result, error) {
	now := l.clock.Now()
	winSecs := int64(l.window / time.Second)
	bucket := now.Unix() / winSecs
	reset := time.Unix((bucket+1)*winSecs, 0)
	storeKey := fmt.Sprintf("gatekeep:fixed:%s:%d", key, bucket)

	count, err := l.increment(ctx, storeKey, now)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		ResetTime: reset,
	}
	if rem := int64(l.limit) - count; rem > 0 {
		res.Remaining = int(rem)
	}
	if !res.Allowed {
		res.RetryAfter = reset.Sub(now)
	}
	return res, nil
}

// increment bumps the bucket counter, preferring the store's atomic
// primitive. The record expires one window after the bucket opened, which
// is at least as long as the bucket stays current.
func (l *FixedWindowLimiter) increment(ctx context.Context, key string, now time.Time) (int64, error) {
	if inc, ok := l.store.(store.Incrementer); ok {
		return inc.Increment(ctx, key, l.window)
	}

	var rec fixedRecord
	raw, err := l.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if raw != nil {
		if err := json.Unmarshal(raw, &rec); err != nil {
			rec = fixedRecord{}
		}
	}
	if rec.Count == 0 {
		rec.WindowStart = now.Unix()
	}
	rec.Count++

	encoded, err := json.Marshal(rec)
	if err != nil {
		return 0, err
	}
	if err := l.store.Put(ctx, key, encoded, l.window); err != nil {
		return 0, err
	}
	return rec.Count, nil
}

func validateLimiterArgs(st store.Store, limit int, window time.Duration) error {
	if st == nil {
		return fmt.Errorf("gatekeep: store is required")
	}
	if limit <= 0 {
		return fmt.Errorf("gatekeep: limit must be > 0, got %d", limit)
	}
	if window < time.Second || window%time.Second != 0 {
		return fmt.Errorf("gatekeep: window must be a positive whole number of seconds, got %v", window)
	}
	return nil
}
