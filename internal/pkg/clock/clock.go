package clock

import (
	"sync"
	"time"
)

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
}

// System reads wall time in UTC, truncated to milliseconds so an OTP expiry
// round-trips through BSON dates unchanged.
type System struct{}

// NewSystem returns the production clock.
func NewSystem() *System {
	return &System{}
}

// Now returns the current UTC time at millisecond precision.
func (*System) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Manual is a settable clock for expiry tests. Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a clock frozen at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the frozen time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}
