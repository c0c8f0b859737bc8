package scheduler

import "sync/atomic"

// Clock is a monotonic tick counter. The scheduler stamps every Advance
// call with the next tick, which makes the total tick count of a run a
// deterministic function of the action list and policy flag - useful
// for progress estimation and for asserting run shape in tests.
//
// Thread-safety: safe for concurrent reads (atomic operations), though
// the scheduler's single-driver contract means only one goroutine
// normally calls Next.
type Clock struct {
	ticks atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next increments the clock and returns the new tick number.
func (c *Clock) Next() int64 {
	return c.ticks.Add(1)
}

// Current returns the tick number without incrementing.
func (c *Clock) Current() int64 {
	return c.ticks.Load()
}
