package seq

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Sequence is a lazy, cold producer of items of type T.
//
// Subscribe starts production for one consumer and returns the handle the
// consumer pulls from. Implementations must not produce anything before
// Subscribe is called.
type Sequence[T any] interface {
	Subscribe(ctx context.Context) *Subscription[T]
}

// Subscription is the consumer-side handle of one subscribed sequence.
//
// It owns the event queue, the context bound to the subscription's
// lifetime and the tasks spawned to feed it.
type Subscription[T any] struct {
	id     string
	op     string
	queue  *eventQueue[T]
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	cancelOnce sync.Once
}

// newSubscription creates a subscription whose context derives from parent.
func newSubscription[T any](parent context.Context, op string) *Subscription[T] {
	ctx, cancel := context.WithCancel(parent)
	g, gctx := errgroup.WithContext(ctx)

	s := &Subscription[T]{
		id:     uuid.Must(uuid.NewV7()).String(),
		op:     op,
		queue:  newEventQueue[T](arrivals),
		ctx:    gctx,
		cancel: cancel,
		group:  g,
	}

	slog.Debug("subscription opened",
		"subscription", s.id,
		"op", op,
	)

	return s
}

// ID returns the subscription identifier used in logs.
func (s *Subscription[T]) ID() string {
	return s.id
}

// Context returns the context bound to the subscription's lifetime.
// It is cancelled by Cancel and once the terminal event was pushed.
func (s *Subscription[T]) Context() context.Context {
	return s.ctx
}

// Next blocks until an event is available and removes it from the queue.
//
// Returns ErrCancelled after Cancel, ErrTerminated once the terminal event
// was already returned, and ctx.Err() if ctx ends first. Queued events are
// returned even if ctx is already done.
func (s *Subscription[T]) Next(ctx context.Context) (Event[T], error) {
	for {
		if e, ok := s.queue.TryDequeue(); ok {
			return e, nil
		}

		if s.queue.Drained() {
			if s.queue.Cancelled() {
				return Event[T]{}, ErrCancelled
			}
			return Event[T]{}, ErrTerminated
		}

		select {
		case <-ctx.Done():
			return Event[T]{}, ctx.Err()
		case <-s.queue.Wait():
		}
	}
}

// TryNext removes the front event without blocking.
// Returns (Event{}, false) if no event is queued.
func (s *Subscription[T]) TryNext() (Event[T], bool) {
	return s.queue.TryDequeue()
}

// Ready returns a channel that signals when events may be available.
// The channel is closed once the subscription stops accepting events, so
// after a terminal event or Cancel it is always ready.
func (s *Subscription[T]) Ready() <-chan struct{} {
	return s.queue.Wait()
}

// Done returns a channel closed once the terminal event is queued or the
// subscription is cancelled.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.queue.Done()
}

// Pending returns the number of queued events.
func (s *Subscription[T]) Pending() int {
	return s.queue.Len()
}

// Cancel stops delivery and releases the subscription.
//
// Pending events are discarded, later pushes are ignored and the
// subscription context is cancelled, which cancels every upstream
// subscription created from it. Cancel does not block and is idempotent;
// it may be called from inside a delivery callback. Use Wait to join the
// spawned tasks.
func (s *Subscription[T]) Cancel() {
	s.cancelOnce.Do(func() {
		s.queue.Cancel()
		s.cancel()
		slog.Debug("subscription cancelled",
			"subscription", s.id,
			"op", s.op,
		)
	})
}

// Wait blocks until every task spawned for the subscription has returned.
func (s *Subscription[T]) Wait() error {
	return s.group.Wait()
}

// spawn runs task in the subscription's errgroup with its context.
func (s *Subscription[T]) spawn(task func(ctx context.Context) error) {
	s.group.Go(func() error {
		return task(s.ctx)
	})
}

// emitter returns a push handle bound to the subscription.
func (s *Subscription[T]) emitter() *Emitter[T] {
	return &Emitter[T]{sub: s}
}

// release cancels the subscription context once the terminal event is
// queued. Queued events stay readable.
func (s *Subscription[T]) release() {
	s.cancel()
}
