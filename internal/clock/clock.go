package clock

import (
	"sync"
	"time"
)

// Clock abstracts time so lifetime windows can be tested without waiting.
type Clock interface {
	Now() time.Time
}

// Real delegates to the standard time package.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Manual is a clock that only moves when told to.
// Safe for concurrent use.
type Manual struct {
	mu      sync.RWMutex
	current time.Time
}

// NewManual creates a Manual clock starting at the given time.
func NewManual(start time.Time) *Manual {
	return &Manual{current: start}
}

func (c *Manual) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Advance moves the clock forward by d. Panics if d is negative.
func (c *Manual) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: cannot advance by negative duration")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}
