package seq

import "sync"

// eventQueue is a thread-safe FIFO queue of events for one subscription.
//
// The queue is unbounded so that producers never block on a slow consumer.
// It uses a channel for signaling to enable context-aware waiting.
//
// States:
//   - open: pushes are accepted
//   - closed: a terminal event was pushed; queued events remain readable
//   - cancelled: pending events are discarded and nothing is readable
type eventQueue[T any] struct {
	mu        sync.Mutex
	events    []Event[T]
	clock     *arrivalClock
	closed    bool
	cancelled bool
	signal    chan struct{} // Signals event availability (buffered, size 1)
	done      chan struct{} // Closed with signal once no more pushes are accepted
}

// newEventQueue creates an empty event queue stamping with clock.
func newEventQueue[T any](clock *arrivalClock) *eventQueue[T] {
	return &eventQueue[T]{
		events: make([]Event[T], 0, 16),
		clock:  clock,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Enqueue stamps e and adds it to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue no longer accepts events. A terminal event
// closes the queue.
func (q *eventQueue[T]) Enqueue(e Event[T]) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	// Stamp under the lock so that stamps within one queue follow queue order.
	e.Seq = q.clock.stamp()
	q.events = append(q.events, e)

	if e.Kind.Terminal() {
		q.closeLocked()
		return true
	}

	// Signal availability (non-blocking - buffer of 1 coalesces multiple signals)
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (Event{}, false) if queue is empty.
func (q *eventQueue[T]) TryDequeue() (Event[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event[T]{}, false
	}

	e := q.events[0]

	// Zero the slot so the backing array does not retain the item.
	q.events[0] = Event[T]{}

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Peek returns the front event without removing it.
func (q *eventQueue[T]) Peek() (Event[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event[T]{}, false
	}
	return q.events[0], true
}

// Drained reports whether the queue is closed and empty: no event will
// ever be dequeued again.
func (q *eventQueue[T]) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.events) == 0
}

// Cancelled reports whether Cancel was called.
func (q *eventQueue[T]) Cancelled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cancelled
}

// Wait returns a channel that signals when events may be available.
// The channel is closed once the queue stops accepting events.
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case <-q.Wait():
//	    // Try TryDequeue
//	}
func (q *eventQueue[T]) Wait() <-chan struct{} {
	return q.signal
}

// Done returns a channel closed once the queue stops accepting events.
func (q *eventQueue[T]) Done() <-chan struct{} {
	return q.done
}

// Len returns the current queue length.
func (q *eventQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Cancel refuses further pushes and discards pending events.
// Wakes any blocked waiters. Safe to call more than once.
func (q *eventQueue[T]) Cancel() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.cancelled = true
	clear(q.events)
	q.events = q.events[:0]
	q.closeLocked()
}

func (q *eventQueue[T]) closeLocked() {
	if q.closed {
		return
	}
	q.closed = true
	close(q.signal) // Wakes all waiters
	close(q.done)
}
