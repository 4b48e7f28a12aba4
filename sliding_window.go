package gatekeep

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkotenko/gatekeep/store"
)

// SlidingWindowLimiter implements the sliding window log algorithm.
//
// It keeps the timestamps of admitted requests per key and admits a new
// request only while fewer than limit of them fall inside the last
// window. No window of the configured length, anchored anywhere, ever
// observes more than limit admissions; the fixed-window boundary burst
// cannot happen. The cost is O(limit) state per key.
//
// The log is read, pruned and written back on every attempt. The store is
// not assumed to offer cross-operation atomicity, so concurrently racing
// attempts on one key can each observe the pre-append log; over-admission
// is bounded by the number of racing workers.
type SlidingWindowLimiter struct {
	store  store.Store
	limit  int
	window time.Duration
	clock  Clock
}

// slidingRecord is the persisted timestamp log, oldest first, unix nanos.
type slidingRecord struct {
	Timestamps []int64 `json:"ts"`
}

// NewSlidingWindow creates a SlidingWindowLimiter. A nil clk selects the
// system clock.
func NewSlidingWindow(st store.Store, limit int, window time.Duration, clk Clock) (*SlidingWindowLimiter, error) {
	if err := validateLimiterArgs(st, limit, window); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = SystemClock()
	}
	return &SlidingWindowLimiter{store: st, limit: limit, window: window, clock: clk}, nil
}

// Attempt implements Limiter.
func (l *SlidingWindowLimiter) Attempt(ctx context.Context, key string) (Result, error) {
	now := l.clock.Now()
	cutoff := now.Add(-l.window).UnixNano()
	storeKey := "gatekeep:sliding:" + key

	raw, err := l.store.Get(ctx, storeKey)
	if err != nil {
		return Result{}, err
	}
	var rec slidingRecord
	if raw != nil {
		if err := json.Unmarshal(raw, &rec); err != nil {
			rec.Timestamps = nil
		}
	}

	// Prune entries that aged out of [now-window, now]. The log is
	// ordered, but a full scan keeps the code robust to clock skew
	// between writers.
	kept := rec.Timestamps[:0]
	for _, ts := range rec.Timestamps {
		if ts >= cutoff {
			kept = append(kept, ts)
		}
	}

	allowed := len(kept) < l.limit
	if allowed {
		kept = append(kept, now.UnixNano())
	}
	rec.Timestamps = kept

	encoded, err := json.Marshal(rec)
	if err != nil {
		return Result{}, err
	}
	// The pruned log is written back even on denial so that denied
	// traffic still compacts the record.
	if err := l.store.Put(ctx, storeKey, encoded, l.window); err != nil {
		return Result{}, err
	}

	res := Result{Allowed: allowed, Limit: l.limit}
	if rem := l.limit - len(kept); rem > 0 {
		res.Remaining = rem
	}
	if len(kept) > 0 {
		// The window frees up when the oldest counted request ages out.
		res.ResetTime = time.Unix(0, kept[0]).Add(l.window)
	} else {
		res.ResetTime = now
	}
	if !allowed {
		res.RetryAfter = res.ResetTime.Sub(now)
	}
	return res, nil
}
