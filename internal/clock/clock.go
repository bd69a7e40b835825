// Package clock provides the single authoritative time source for the
// application.  Every expiration comparison in the system goes through a
// Clock so that queries, confirmations and subscription deliveries all
// agree on "now" instead of mixing caller-local clocks.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time.  Implementations must be safe for
// concurrent use.
type Clock interface {
	// Now returns the current time in UTC.
	Now() time.Time
	// NowMillis returns the current time as epoch milliseconds.  Spot
	// timestamps are stored in this representation.
	NowMillis() int64
}

// System is the production clock backed by the OS wall clock.
type System struct{}

// NewSystem returns a Clock reading from time.Now.
func NewSystem() System { return System{} }

// Now returns the current wall-clock time in UTC.
func (System) Now() time.Time { return time.Now().UTC() }

// NowMillis returns the current wall-clock time as epoch milliseconds.
func (System) NowMillis() int64 { return time.Now().UnixMilli() }

// Manual is a settable clock for tests.  It starts at whatever instant it
// was constructed with and only moves when Set or Advance is called.
//
// Thread-safety: all methods are safe for concurrent use via an internal
// mutex, so tests may read the clock from goroutines they spawn.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a Manual clock pinned at the given instant.
func NewManual(at time.Time) *Manual { return &Manual{now: at.UTC()} }

// NewManualMillis returns a Manual clock pinned at the given epoch millis.
func NewManualMillis(ms int64) *Manual { return NewManual(time.UnixMilli(ms)) }

// Now returns the instant the clock is currently pinned at.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// NowMillis returns the pinned instant as epoch milliseconds.
func (m *Manual) NowMillis() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now.UnixMilli()
}

// Set pins the clock to a new instant.  Moving the clock backwards is
// allowed; tests use it to reproduce skew scenarios.
func (m *Manual) Set(at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = at.UTC()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
