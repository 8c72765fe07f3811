package clock

import (
	"sync"
	"time"
)

// Clock is the time source for timers. Readings are truncated to the
// millisecond so that stored start/end values round-trip through every
// backend without losing precision.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func NewRealClock() Clock {
	return RealClock{}
}

func (RealClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

type MockClock struct {
	mu   sync.Mutex
	time time.Time
}

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{time: t.UTC().Truncate(time.Millisecond)}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.time
}

func (c *MockClock) SetTime(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.time = t.UTC().Truncate(time.Millisecond)
}

func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.time = c.time.Add(d).Truncate(time.Millisecond)
}
