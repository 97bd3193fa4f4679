package testutil

import (
	"fmt"
	"sync"
	"time"

	"feedcache/internal/feedcache"
)

// StubClock returns a controlled time. Each call to Now moves the clock
// forward by Step, so consecutive runs get increasing timestamps.
// Safe for concurrent use.
type StubClock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

// NewStubClock creates a StubClock set to the given time.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock set to 2024-01-15 10:30:00 UTC that
// advances one second per reading.
func FixedClock() *StubClock {
	c := NewStubClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
	c.Step = time.Second
	return c
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.Step)
	return now
}

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StubIDGenerator returns sequential run IDs: "run-1", "run-2", etc.
type StubIDGenerator struct {
	mu      sync.Mutex
	counter int
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("run-%d", g.counter)
}

var (
	_ feedcache.Clock       = (*StubClock)(nil)
	_ feedcache.IDGenerator = (*StubIDGenerator)(nil)
)
