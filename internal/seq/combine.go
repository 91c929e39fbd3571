package seq

import (
	"context"
	"fmt"
	"log/slog"
)

// input is the type-erased view the CombineLatest actor has of one
// subscribed upstream. Only the actor dequeues from an input, so a Peek
// followed by a pop observes the same event.
type input interface {
	// head returns the arrival stamp of the front event, if any.
	head() (int64, bool)
	// pop removes the front event.
	pop() (Event[any], bool)
	// ready signals when events may be available; closed once the
	// upstream stops accepting events.
	ready() <-chan struct{}
	cancel()
	wait() error
}

type typedInput[T any] struct {
	sub *Subscription[T]
}

func (in typedInput[T]) head() (int64, bool) {
	e, ok := in.sub.queue.Peek()
	return e.Seq, ok
}

func (in typedInput[T]) pop() (Event[any], bool) {
	e, ok := in.sub.TryNext()
	if !ok {
		return Event[any]{}, false
	}
	return Event[any]{Kind: e.Kind, Item: e.Item, Err: e.Err, Seq: e.Seq}, true
}

func (in typedInput[T]) ready() <-chan struct{} { return in.sub.Ready() }
func (in typedInput[T]) cancel()                { in.sub.Cancel() }
func (in typedInput[T]) wait() error            { return in.sub.Wait() }

// subscriber subscribes to one upstream and returns its erased view.
type subscriber func(ctx context.Context) input

func subscriberOf[T any](s Sequence[T]) subscriber {
	return func(ctx context.Context) input {
		return typedInput[T]{sub: s.Subscribe(ctx)}
	}
}

// combineLatest is the shared implementation behind CombineLatest and
// CombineLatest2. combine receives a fresh copy of the latest values.
type combineLatest[R any] struct {
	sources []subscriber
	combine func(latest []any) R
}

// CombineLatest returns a sequence that emits combine(latest) whenever any
// source emits, once every source has emitted at least once.
//
// The output completes after all sources complete, and errors as soon as
// any source errors; the remaining sources are then cancelled. If a source
// completes without emitting, nothing is ever emitted and the output
// completes once the other sources complete. With no sources the output
// completes immediately.
//
// combine receives a copy of the latest values indexed like sources.
func CombineLatest[T, R any](combine func(latest []T) R, sources ...Sequence[T]) Sequence[R] {
	subs := make([]subscriber, len(sources))
	for i, s := range sources {
		subs[i] = subscriberOf(s)
	}
	return &combineLatest[R]{
		sources: subs,
		combine: func(latest []any) R {
			typed := make([]T, len(latest))
			for i, v := range latest {
				typed[i], _ = v.(T)
			}
			return combine(typed)
		},
	}
}

// CombineLatest2 combines two sequences of different item types.
func CombineLatest2[A, B, R any](a Sequence[A], b Sequence[B], combine func(A, B) R) Sequence[R] {
	return &combineLatest[R]{
		sources: []subscriber{subscriberOf(a), subscriberOf(b)},
		combine: func(latest []any) R {
			av, _ := latest[0].(A)
			bv, _ := latest[1].(B)
			return combine(av, bv)
		},
	}
}

// Subscribe subscribes to every source in index order, then starts one
// relay task per input and the actor task.
func (c *combineLatest[R]) Subscribe(ctx context.Context) *Subscription[R] {
	out := newSubscription[R](ctx, string(OpCombineLatest))
	e := out.emitter()

	if len(c.sources) == 0 {
		e.Complete()
		return out
	}

	inputs := make([]input, len(c.sources))
	for i, subscribe := range c.sources {
		inputs[i] = subscribe(out.ctx)
	}

	wake := make(chan struct{}, 1)
	for _, in := range inputs {
		out.spawn(func(ctx context.Context) error {
			relay(ctx, in.ready(), wake)
			return nil
		})
	}

	out.spawn(func(ctx context.Context) error {
		defer func() {
			for _, in := range inputs {
				in.cancel()
			}
			for _, in := range inputs {
				_ = in.wait()
			}
		}()
		c.run(ctx, out.id, inputs, wake, e)
		return nil
	})

	return out
}

// relay forwards readiness of one input to the shared wake channel.
// It returns once the input stops accepting events or ctx is done.
func relay(ctx context.Context, ready <-chan struct{}, wake chan<- struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ready:
			select {
			case wake <- struct{}{}:
			default:
			}
			if !ok {
				return
			}
		}
	}
}

// run is the single-writer actor loop. It owns latest and has; no other
// task reads or writes them.
func (c *combineLatest[R]) run(ctx context.Context, id string, inputs []input, wake <-chan struct{}, out *Emitter[R]) {
	defer func() {
		if r := recover(); r != nil {
			out.Error(fmt.Errorf("seq: combine_latest: combiner panicked: %v", r))
		}
	}()

	n := len(inputs)
	latest := make([]any, n)
	has := make([]bool, n)
	finished := make([]bool, n)
	filled, completed := 0, 0

	for {
		if ctx.Err() != nil {
			return
		}

		i, ev, ok := nextArrival(inputs, finished)
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-wake:
			}
			continue
		}

		switch ev.Kind {
		case KindNext:
			latest[i] = ev.Item
			if !has[i] {
				has[i] = true
				filled++
			}
			if filled == n {
				snapshot := make([]any, n)
				copy(snapshot, latest)
				out.Next(c.combine(snapshot))
			}

		case KindError:
			slog.Debug("combine_latest input failed",
				"subscription", id,
				"input", i,
				"error", ev.Err,
			)
			out.Error(sourceError(OpCombineLatest, i, ev.Err))
			return

		case KindComplete:
			finished[i] = true
			completed++
			if !has[i] {
				slog.Debug("combine_latest input completed without value",
					"subscription", id,
					"input", i,
				)
			}
			if completed == n {
				out.Complete()
				return
			}
		}
	}
}

// nextArrival pops the ready event with the smallest arrival stamp among
// unfinished inputs. Equal stamps go to the lowest index.
func nextArrival(inputs []input, finished []bool) (int, Event[any], bool) {
	best := -1
	var bestSeq int64
	for i, in := range inputs {
		if finished[i] {
			continue
		}
		stamp, ok := in.head()
		if !ok {
			continue
		}
		if best < 0 || stamp < bestSeq {
			best, bestSeq = i, stamp
		}
	}
	if best < 0 {
		return 0, Event[any]{}, false
	}
	ev, ok := inputs[best].pop()
	if !ok {
		return 0, Event[any]{}, false
	}
	return best, ev, true
}
