package gatekeep

import (
	"context"
	"testing"
	"time"

	"github.com/dkotenko/gatekeep/store"
)

// getPutStore hides the Increment fast path so tests can exercise the
// read-then-write fallback.
type getPutStore struct {
	inner store.Store
}

func (s getPutStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.inner.Get(ctx, key)
}

func (s getPutStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.inner.Put(ctx, key, value, ttl)
}

func TestFixedWindowBoundary(t *testing.T) {
	ctx := context.Background()
	clk := NewManualClock(time.Unix(0, 0))
	l, err := NewFixedWindow(store.NewMemory(ctx, 0), 3, time.Minute, clk)
	if err != nil {
		t.Fatalf("NewFixedWindow: %v", err)
	}

	for i, want := range []int{2, 1, 0} {
		res, err := l.Attempt(ctx, "alice")
		if err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
		if !res.Allowed {
			t.Fatalf("attempt %d unexpectedly denied", i+1)
		}
		if res.Remaining != want {
			t.Errorf("attempt %d remaining = %d, want %d", i+1, res.Remaining, want)
		}
	}

	res, err := l.Attempt(ctx, "alice")
	if err != nil {
		t.Fatalf("fourth attempt: %v", err)
	}
	if res.Allowed {
		t.Fatal("fourth attempt in the window should be denied")
	}
	if res.Remaining != 0 {
		t.Errorf("denied remaining = %d, want 0", res.Remaining)
	}
	if res.RetryAfter != time.Minute {
		t.Errorf("retry after = %v, want 1m", res.RetryAfter)
	}
	if got := res.ResetTime.Unix(); got != 60 {
		t.Errorf("reset time = %d, want 60", got)
	}

	// The counter resets at the window boundary.
	clk.Set(time.Unix(60, 0))
	res, err = l.Attempt(ctx, "alice")
	if err != nil {
		t.Fatalf("attempt in fresh window: %v", err)
	}
	if !res.Allowed || res.Remaining != 2 {
		t.Errorf("fresh window: allowed=%v remaining=%d, want allowed with 2", res.Allowed, res.Remaining)
	}
	if got := res.ResetTime.Unix(); got != 120 {
		t.Errorf("fresh window reset = %d, want 120", got)
	}
}

func TestFixedWindowGetPutFallback(t *testing.T) {
	ctx := context.Background()
	clk := NewManualClock(time.Unix(0, 0))
	st := getPutStore{inner: store.NewMemory(ctx, 0)}
	l, err := NewFixedWindow(st, 2, time.Minute, clk)
	if err != nil {
		t.Fatalf("NewFixedWindow: %v", err)
	}

	for i := 0; i < 2; i++ {
		res, err := l.Attempt(ctx, "bob")
		if err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
		if !res.Allowed {
			t.Fatalf("attempt %d unexpectedly denied", i+1)
		}
	}
	res, err := l.Attempt(ctx, "bob")
	if err != nil {
		t.Fatalf("third attempt: %v", err)
	}
	if res.Allowed {
		t.Error("third attempt should be denied on the fallback path too")
	}
}

func TestFixedWindowKeyIsolation(t *testing.T) {
	ctx := context.Background()
	clk := NewManualClock(time.Unix(0, 0))
	l, err := NewFixedWindow(store.NewMemory(ctx, 0), 1, time.Minute, clk)
	if err != nil {
		t.Fatalf("NewFixedWindow: %v", err)
	}

	if res, _ := l.Attempt(ctx, "alice"); !res.Allowed {
		t.Fatal("alice's first attempt denied")
	}
	if res, _ := l.Attempt(ctx, "alice"); res.Allowed {
		t.Error("alice's second attempt should be denied")
	}
	if res, _ := l.Attempt(ctx, "bob"); !res.Allowed {
		t.Error("bob should not share alice's counter")
	}
}

func TestFixedWindowConstructorValidation(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory(ctx, 0)

	if _, err := NewFixedWindow(st, 0, time.Minute, nil); err == nil {
		t.Error("limit 0 should be rejected at construction")
	}
	if _, err := NewFixedWindow(st, 10, 0, nil); err == nil {
		t.Error("window 0 should be rejected at construction")
	}
	if _, err := NewFixedWindow(st, 10, 1500*time.Millisecond, nil); err == nil {
		t.Error("fractional-second window should be rejected at construction")
	}
	if _, err := NewFixedWindow(nil, 10, time.Minute, nil); err == nil {
		t.Error("nil store should be rejected at construction")
	}
}
