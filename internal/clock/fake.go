package clock

import (
	"sync"
	"time"
)

// Fake is a virtual clock for tests. Every After call fires immediately and
// the requested delay is recorded, so pacing is assertable while tests run in
// real microseconds. The zero value is not usable; call NewFake.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	delays []time.Duration
}

// NewFake creates a virtual clock starting at a fixed instant.
// Parameters: none.
// Returns:
//   - *Fake: virtual clock with an empty delay log.
func NewFake() *Fake {
	return &Fake{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the virtual current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// After records the requested delay, advances the virtual time by it, and
// returns an already-fired channel.
func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	f.delays = append(f.delays, d)
	f.now = f.now.Add(d)
	now := f.now
	f.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// Delays returns a copy of every delay requested so far, in order.
func (f *Fake) Delays() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, len(f.delays))
	copy(out, f.delays)
	return out
}
