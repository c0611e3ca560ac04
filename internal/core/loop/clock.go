package loop

import (
	"sync"
	"time"
)

// Clock is the wall-clock source the loop measures frames with.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock reads the monotonic system clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// ManualClock is a controllable clock for tests. Sleep advances it instead
// of blocking.
type ManualClock struct {
	mu     sync.RWMutex
	now    time.Time
	sleeps []time.Duration
}

// NewManualClock creates a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *ManualClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Sleeps returns every duration passed to Sleep so far.
func (c *ManualClock) Sleeps() []time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]time.Duration(nil), c.sleeps...)
}
