package gatekeep

import (
	"testing"
	"time"
)

func TestManualClock(t *testing.T) {
	start := time.Unix(1000, 0)
	clk := NewManualClock(start)

	if !clk.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", clk.Now(), start)
	}

	clk.Advance(90 * time.Second)
	if got := clk.Now().Unix(); got != 1090 {
		t.Errorf("after advance Now() = %d, want 1090", got)
	}

	clk.Advance(-time.Hour)
	if got := clk.Now().Unix(); got != 1090 {
		t.Errorf("negative advance must be ignored, Now() = %d", got)
	}

	clk.Set(time.Unix(500, 0))
	if got := clk.Now().Unix(); got != 500 {
		t.Errorf("after set Now() = %d, want 500", got)
	}
}
