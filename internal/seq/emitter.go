package seq

import (
	"context"
	"log/slog"
)

// Emitter pushes signals into one subscription.
//
// An Emitter is safe for concurrent use: pushes are serialized by the
// subscription's queue lock and delivered in push order. At most one
// terminal call (Error or Complete) is honored; every push after it is
// ignored and reported as false.
type Emitter[T any] struct {
	sub *Subscription[T]
}

// Next pushes one item. Returns false if the subscription is terminated
// or cancelled.
func (e *Emitter[T]) Next(item T) bool {
	return e.push(Event[T]{Kind: KindNext, Item: item})
}

// Error pushes the terminal error signal. A nil cause is replaced by
// ErrNilError.
func (e *Emitter[T]) Error(cause error) bool {
	if cause == nil {
		cause = ErrNilError
	}
	return e.push(Event[T]{Kind: KindError, Err: cause})
}

// Complete pushes the terminal completion signal.
func (e *Emitter[T]) Complete() bool {
	return e.push(Event[T]{Kind: KindComplete})
}

// Context returns the subscription context. Setup routines should stop
// producing once it is done.
func (e *Emitter[T]) Context() context.Context {
	return e.sub.ctx
}

// Terminated reports whether the subscription accepts no more signals.
func (e *Emitter[T]) Terminated() bool {
	select {
	case <-e.sub.queue.Done():
		return true
	default:
		return false
	}
}

func (e *Emitter[T]) push(ev Event[T]) bool {
	if !e.sub.queue.Enqueue(ev) {
		slog.Debug("push ignored",
			"subscription", e.sub.id,
			"kind", ev.Kind.String(),
		)
		return false
	}
	if ev.Kind.Terminal() {
		e.sub.release()
	}
	return true
}
