package verify

import (
	"sync"

	"github.com/roach88/fluxseq/internal/seq"
)

// Recorder keeps the signals observed during a verification.
// Safe for concurrent use.
type Recorder[T any] struct {
	mu     sync.Mutex
	events []seq.Event[T]
}

// Record appends e.
func (r *Recorder[T]) Record(e seq.Event[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events in order.
func (r *Recorder[T]) Events() []seq.Event[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]seq.Event[T], len(r.events))
	copy(out, r.events)
	return out
}

// Lines returns the recorded events formatted for traces.
func (r *Recorder[T]) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := make([]string, len(r.events))
	for i, e := range r.events {
		lines[i] = e.String()
	}
	return lines
}

// Reset discards the recorded events.
func (r *Recorder[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
