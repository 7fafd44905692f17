// Package clock provides UTC timestamps with millisecond precision and
// a logical clock that never goes backwards.
package clock

import (
	"sync"
	"time"
)

// Layout of logical timestamps: ISO-8601, UTC, milliseconds.
//
// Timestamps in this layout sort lexicographically.
const Layout = "2006-01-02T15:04:05.000Z"

// LogicalNow returns the current UTC timestamp with millisecond precision
func LogicalNow() string {
	return time.Now().UTC().Format(Layout)
}

// LogicalClock is a monotonic logical clock
type LogicalClock struct {
	mx   sync.Mutex
	last string
	now  func() string
}

// NewLogicalClock builds a logical clock on top of the wall clock
func NewLogicalClock() *LogicalClock {
	return &LogicalClock{now: LogicalNow}
}

// Tick advances the clock and returns the new timestamp.
//
// When the wall clock reports a time earlier than the last tick, the last tick is returned.
func (c *LogicalClock) Tick() string {
	c.mx.Lock()
	defer c.mx.Unlock()

	now := c.source()()
	if now <= c.last {
		now = c.last
	}
	c.last = now
	return now
}

// Now returns the last tick, or ticks once if the clock was never used
func (c *LogicalClock) Now() string {
	c.mx.Lock()
	last := c.last
	c.mx.Unlock()

	if last != "" {
		return last
	}
	return c.Tick()
}

func (c *LogicalClock) source() func() string {
	if c.now == nil {
		return LogicalNow
	}
	return c.now
}

// Monotonic tells if a sequence of timestamps in Layout never goes backwards
func Monotonic(timestamps []string) bool {
	for i := 1; i < len(timestamps); i++ {
		if timestamps[i] < timestamps[i-1] {
			return false
		}
	}
	return true
}
