package seq

import "sync/atomic"

// arrivalClock hands out arrival stamps. Stamps start at 1 and strictly
// increase across all queues that share the clock, which gives every pushed
// event a place in one total arrival order.
type arrivalClock struct {
	last atomic.Int64
}

// stamp returns the next arrival stamp.
func (c *arrivalClock) stamp() int64 {
	return c.last.Add(1)
}

// arrivals stamps every event pushed by this package.
var arrivals = &arrivalClock{}
