// Package epoch implements the rotating time window stamped onto every
// signal. The epoch id carries no reward semantics; it only groups
// submissions for later inspection.
package epoch

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Epoch struct {
	ID        string
	StartTime time.Time
	EndTime   time.Time
}

// Clock is process-scoped epoch state. A new epoch is rolled lazily the
// first time Current is called past the end of the previous one; there is
// no background timer.
type Clock struct {
	mu       sync.Mutex
	duration time.Duration
	current  Epoch
	now      func() time.Time
}

func NewClock(duration time.Duration) *Clock {
	return newClock(duration, func() time.Time { return time.Now().UTC() })
}

func newClock(duration time.Duration, now func() time.Time) *Clock {
	if duration <= 0 {
		duration = time.Hour
	}
	c := &Clock{duration: duration, now: now}
	c.current = c.roll()
	return c
}

func (c *Clock) roll() Epoch {
	start := c.now()
	return Epoch{
		ID:        newEpochID(),
		StartTime: start,
		EndTime:   start.Add(c.duration),
	}
}

// Current returns the active epoch, rolling a fresh one if expired.
func (c *Clock) Current() Epoch {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now().After(c.current.EndTime) {
		c.current = c.roll()
	}
	return c.current
}

// IsExpired reports whether the stored epoch has ended without rolling it.
func (c *Clock) IsExpired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().After(c.current.EndTime)
}

// Remaining returns whole seconds until the active epoch ends.
func (c *Clock) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now().After(c.current.EndTime) {
		c.current = c.roll()
	}
	left := c.current.EndTime.Sub(c.now()) / time.Second
	if left < 0 {
		left = 0
	}
	return int(left)
}

func newEpochID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
