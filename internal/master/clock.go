package master

import "time"

// Clock supplies monotonic "now" to every timed component in the package.
// Production code uses RealClock; tests substitute a fake so that timer
// sweeps (rendezvous expiry, flood windows) are deterministic without
// sleeping. The leave-chat Timer is advanced by explicit deltas and
// StatusEmitter.Tick takes its time as an argument; neither reads Clock.
type Clock interface {
	Now() time.Time
}

// RealClock reports time.Now(), which on every supported platform is
// monotonic within a process per the Go runtime's monotonic reading —
// the "-20ms" clock-skew compensation the original master.cpp applied to
// its own non-monotonic timer is therefore unnecessary here and is not
// carried forward (see SPEC_FULL.md §9).
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// Timer is a countdown timer, grounded on zap/Timer.cpp: it holds a period
// and a remaining counter, is driven by explicit elapsed-time updates, and
// reports expiry exactly once when the counter reaches zero.
type Timer struct {
	period    time.Duration
	remaining time.Duration
}

// NewTimer creates a Timer with the given period, counting down from it.
func NewTimer(period time.Duration) *Timer {
	return &Timer{period: period, remaining: period}
}

// Update advances the timer by delta and reports whether it just expired
// (transitioned to zero on this call). Calling Update again after
// expiry returns false until Reset.
func (t *Timer) Update(delta time.Duration) bool {
	if t.remaining <= 0 {
		return false
	}
	if delta >= t.remaining {
		t.remaining = 0
		return true
	}
	t.remaining -= delta
	return false
}

// Expired reports whether the timer has counted down to zero.
func (t *Timer) Expired() bool { return t.remaining <= 0 }

// Reset restarts the timer at its configured period.
func (t *Timer) Reset() { t.remaining = t.period }

// Remaining returns the time left before expiry.
func (t *Timer) Remaining() time.Duration { return t.remaining }
