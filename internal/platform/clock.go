package platform

import (
	"fmt"
	"sync"
	"time"
)

// Clock is the process wall clock corrected by the last SNTP sync.
type Clock struct {
	mu     sync.RWMutex
	offset time.Duration
	zone   *time.Location
	synced time.Time
	now    func() time.Time
}

func NewClock() *Clock {
	return &Clock{
		zone: time.UTC,
		now:  time.Now,
	}
}

func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now().Add(c.offset).In(c.zone)
}

// Adjust replaces the correction applied to the system time.
func (c *Clock) Adjust(offset time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = offset
	c.synced = c.now().Add(offset)
}

// SetZone sets a fixed zone east of UTC by the given number of seconds.
func (c *Clock) SetZone(offsetSeconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if offsetSeconds == 0 {
		c.zone = time.UTC
		return
	}
	c.zone = time.FixedZone(fmt.Sprintf("UTC%+d", offsetSeconds/3600), offsetSeconds)
}

func (c *Clock) Offset() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}

// Synced reports when the clock was last adjusted, zero if never.
func (c *Clock) Synced() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.synced
}
