package gatekeep

import (
	"context"
	"testing"
	"time"

	"github.com/dkotenko/gatekeep/store"
)

func TestSlidingWindowNoBurst(t *testing.T) {
	ctx := context.Background()
	clk := NewManualClock(time.Unix(100, 0))
	l, err := NewSlidingWindow(store.NewMemory(ctx, 0), 5, time.Minute, clk)
	if err != nil {
		t.Fatalf("NewSlidingWindow: %v", err)
	}

	for i, want := range []int{4, 3, 2, 1, 0} {
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

	clk.Advance(time.Second)
	res, err := l.Attempt(ctx, "alice")
	if err != nil {
		t.Fatalf("sixth attempt: %v", err)
	}
	if res.Allowed {
		t.Fatal("sixth attempt inside the window should be denied")
	}
	if got := res.ResetTime.Unix(); got != 160 {
		t.Errorf("reset = %d, want 160 (oldest timestamp + window)", got)
	}
	if res.RetryAfter != 59*time.Second {
		t.Errorf("retry after = %v, want 59s", res.RetryAfter)
	}

	// Once every counted timestamp has aged out the full budget is back.
	clk.Set(time.Unix(161, 0))
	res, err = l.Attempt(ctx, "alice")
	if err != nil {
		t.Fatalf("attempt after expiry: %v", err)
	}
	if !res.Allowed || res.Remaining != 4 {
		t.Errorf("after expiry: allowed=%v remaining=%d, want allowed with 4", res.Allowed, res.Remaining)
	}
}

// A window anchored anywhere must never observe more than the limit:
// as admissions age out one by one, capacity comes back one slot at a
// time instead of in a full-window burst.
func TestSlidingWindowGradualRelease(t *testing.T) {
	ctx := context.Background()
	clk := NewManualClock(time.Unix(0, 0))
	l, err := NewSlidingWindow(store.NewMemory(ctx, 0), 3, time.Minute, clk)
	if err != nil {
		t.Fatalf("NewSlidingWindow: %v", err)
	}

	for _, at := range []int64{0, 10, 20} {
		clk.Set(time.Unix(at, 0))
		if res, _ := l.Attempt(ctx, "alice"); !res.Allowed {
			t.Fatalf("attempt at t=%d unexpectedly denied", at)
		}
	}

	clk.Set(time.Unix(21, 0))
	res, _ := l.Attempt(ctx, "alice")
	if res.Allowed {
		t.Fatal("fourth attempt at t=21 should be denied")
	}
	if res.RetryAfter != 39*time.Second {
		t.Errorf("retry after = %v, want 39s (t=0 entry ages out at t=60)", res.RetryAfter)
	}

	// t=61: only the t=0 admission has aged out, freeing exactly one slot.
	clk.Set(time.Unix(61, 0))
	if res, _ := l.Attempt(ctx, "alice"); !res.Allowed {
		t.Fatal("one slot should be free after the oldest entry aged out")
	}
	if res, _ := l.Attempt(ctx, "alice"); res.Allowed {
		t.Error("second attempt at t=61 should be denied: 2 survivors + 1 new fill the window")
	}
}

func TestSlidingWindowDenialPrunesLog(t *testing.T) {
	ctx := context.Background()
	clk := NewManualClock(time.Unix(0, 0))
	st := store.NewMemory(ctx, 0)
	l, err := NewSlidingWindow(st, 2, time.Minute, clk)
	if err != nil {
		t.Fatalf("NewSlidingWindow: %v", err)
	}

	l.Attempt(ctx, "alice")
	l.Attempt(ctx, "alice")

	// Denied attempts are not appended: they must not extend the window.
	clk.Set(time.Unix(30, 0))
	if res, _ := l.Attempt(ctx, "alice"); res.Allowed {
		t.Fatal("third attempt should be denied")
	}
	clk.Set(time.Unix(61, 0))
	if res, _ := l.Attempt(ctx, "alice"); !res.Allowed {
		t.Error("denied attempt at t=30 must not have consumed a slot")
	}
}

func TestSlidingWindowFirstAttemptReset(t *testing.T) {
	ctx := context.Background()
	clk := NewManualClock(time.Unix(500, 0))
	l, err := NewSlidingWindow(store.NewMemory(ctx, 0), 5, time.Minute, clk)
	if err != nil {
		t.Fatalf("NewSlidingWindow: %v", err)
	}

	res, err := l.Attempt(ctx, "alice")
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if got := res.ResetTime.Unix(); got != 560 {
		t.Errorf("reset = %d, want 560 (own timestamp + window)", got)
	}
}
