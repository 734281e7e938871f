package testutil

import (
	"sync"
	"time"
)

// MockClock is a controllable time source for bucket tests.
// After advances the clock instead of sleeping, so waiting code runs
// without real delays.
type MockClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewMockClock creates a new MockClock starting at the given time.
// If zero time is provided, uses current time.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// After records d, moves the clock forward by d and returns a channel that
// already holds the new time.
func (m *MockClock) After(d time.Duration) <-chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sleeps = append(m.sleeps, d)
	m.now = m.now.Add(d)

	ch := make(chan time.Time, 1)
	ch <- m.now
	return ch
}

// Advance moves the mock clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set sets the mock clock to a specific time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Sleeps returns every duration passed to After, in call order.
func (m *MockClock) Sleeps() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.sleeps))
	copy(out, m.sleeps)
	return out
}

// StalledClock is a MockClock whose After never fires. It lets tests hold a
// waiter in place until its context ends.
type StalledClock struct {
	*MockClock
}

// NewStalledClock creates a StalledClock starting at start.
func NewStalledClock(start time.Time) *StalledClock {
	return &StalledClock{MockClock: NewMockClock(start)}
}

// After records d and returns a channel that is never written.
func (s *StalledClock) After(d time.Duration) <-chan time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleeps = append(s.sleeps, d)
	return make(chan time.Time)
}
