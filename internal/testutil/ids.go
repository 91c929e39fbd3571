package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator hands out predetermined run IDs, in order.
//
// Once the list is used up it keeps numbering from the last ID:
// "run-a", "run-a-2", "run-a-3", ... so long test loops never panic.
// With no IDs at all it produces "run-1", "run-2", ...
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu    sync.Mutex
	ids   []string
	calls int
}

// NewFixedIDGenerator creates a generator returning ids in order.
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// Generate returns the next run ID.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	if g.calls <= len(g.ids) {
		return g.ids[g.calls-1]
	}
	if len(g.ids) == 0 {
		return fmt.Sprintf("run-%d", g.calls)
	}
	extra := g.calls - len(g.ids) + 1
	return fmt.Sprintf("%s-%d", g.ids[len(g.ids)-1], extra)
}
