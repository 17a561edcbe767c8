package execkit

import (
	"testing"
	"time"
)

func TestWithClockRestoresPrevious(t *testing.T) {
	before := currentClock()
	fake := newManualClock(time.Unix(100, 0))
	WithClock(fake, func() {
		if currentClock() != Clock(fake) {
			t.Error("currentClock() inside WithClock should be the installed clock")
		}
	})
	if currentClock() != before {
		t.Error("currentClock() after WithClock should restore the previous clock")
	}
}

func TestManualClockSleepAdvances(t *testing.T) {
	c := newManualClock(time.Unix(0, 0))
	start := c.Now()
	c.Sleep(5 * time.Second)
	if c.Now().Sub(start) != 5*time.Second {
		t.Errorf("Now() advanced by %v, want 5s", c.Now().Sub(start))
	}
}
