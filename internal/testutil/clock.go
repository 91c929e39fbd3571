// Package testutil holds deterministic stand-ins for clocks and ID sources
// so that harness runs produce byte-identical traces.
package testutil

import "sync/atomic"

// DeterministicClock numbers trace entries 1, 2, 3, ... and can be rewound.
//
// Unlike the process-wide arrival clock in package seq, a DeterministicClock
// belongs to a single run, so two runs of the same scenario number their
// traces identically.
//
// Thread-safety: all methods are safe for concurrent use.
type DeterministicClock struct {
	start int64
	seq   atomic.Int64
}

// NewDeterministicClock creates a clock whose first Next returns 1.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(0)
}

// NewDeterministicClockAt creates a clock whose first Next returns start+1.
// Reset rewinds to start.
func NewDeterministicClockAt(start int64) *DeterministicClock {
	c := &DeterministicClock{start: start}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new value.
func (c *DeterministicClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *DeterministicClock) Current() int64 {
	return c.seq.Load()
}

// Reset rewinds the clock to its start value.
func (c *DeterministicClock) Reset() {
	c.seq.Store(c.start)
}
