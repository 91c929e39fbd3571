package seq

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	opFromSlice = "from_slice"
	opFail      = "fail"
	opCreate    = "create"
)

// sliceSequence replays a fixed list of items, then completes.
type sliceSequence[T any] struct {
	items []T
}

// FromSlice returns a sequence that emits every element of items in order,
// then completes. The slice is copied; later changes to items are not
// observed. Every subscription replays the same items.
func FromSlice[T any](items []T) Sequence[T] {
	cp := make([]T, len(items))
	copy(cp, items)
	return &sliceSequence[T]{items: cp}
}

// Just returns a sequence of the given items.
func Just[T any](items ...T) Sequence[T] {
	return FromSlice(items)
}

// Empty returns a sequence that completes without items.
func Empty[T any]() Sequence[T] {
	return &sliceSequence[T]{}
}

// Subscribe queues every item and the completion before returning.
func (s *sliceSequence[T]) Subscribe(ctx context.Context) *Subscription[T] {
	sub := newSubscription[T](ctx, opFromSlice)
	e := sub.emitter()
	for _, item := range s.items {
		e.Next(item)
	}
	e.Complete()
	return sub
}

// failSequence errors immediately.
type failSequence[T any] struct {
	err error
}

// Fail returns a sequence that signals err without items.
func Fail[T any](err error) Sequence[T] {
	return &failSequence[T]{err: err}
}

// Subscribe queues the error before returning.
func (s *failSequence[T]) Subscribe(ctx context.Context) *Subscription[T] {
	sub := newSubscription[T](ctx, opFail)
	sub.emitter().Error(s.err)
	return sub
}

// SetupFunc drives an Emitter for one subscription.
//
// It runs in its own task. It may push from any number of goroutines and
// may pause between pushes; it should return once ctx is done. A non-nil
// return value becomes the terminal error unless a terminal signal was
// already pushed.
type SetupFunc[T any] func(ctx context.Context, e *Emitter[T]) error

// createSequence runs a setup routine per subscription.
type createSequence[T any] struct {
	setup SetupFunc[T]
}

// Create returns a sequence whose items are pushed by setup. The setup
// routine is invoked once per subscription, never before Subscribe.
func Create[T any](setup SetupFunc[T]) Sequence[T] {
	return &createSequence[T]{setup: setup}
}

// Subscribe spawns the setup task and returns immediately.
func (s *createSequence[T]) Subscribe(ctx context.Context) *Subscription[T] {
	sub := newSubscription[T](ctx, opCreate)
	e := sub.emitter()
	sub.spawn(func(ctx context.Context) error {
		if err := runSetup(ctx, s.setup, e); err != nil {
			if e.Error(err) {
				slog.Debug("setup failed",
					"subscription", sub.id,
					"error", err,
				)
			}
		}
		return nil
	})
	return sub
}

// runSetup calls setup and converts a panic into an error.
func runSetup[T any](ctx context.Context, setup SetupFunc[T], e *Emitter[T]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("seq: emitter setup panicked: %v", r)
		}
	}()
	return setup(ctx, e)
}
