package seq

import (
	"context"
	"log/slog"
)

// concatSequence subscribes to its sources one after another.
type concatSequence[T any] struct {
	sources    []Sequence[T]
	delayError bool
}

// Concat returns a sequence that emits every item of each source in list
// order. A source is subscribed only after the previous one completed. The
// first source error ends the output with that error; later sources are
// never subscribed. With no sources the output completes immediately.
func Concat[T any](sources ...Sequence[T]) Sequence[T] {
	return &concatSequence[T]{sources: sources}
}

// ConcatDelayError is like Concat, but a source error does not stop the
// traversal. The first error is held and reported after the last source
// terminates; later errors are discarded. Without errors the output
// completes.
func ConcatDelayError[T any](sources ...Sequence[T]) Sequence[T] {
	return &concatSequence[T]{sources: sources, delayError: true}
}

func (c *concatSequence[T]) op() Op {
	if c.delayError {
		return OpConcatDelayError
	}
	return OpConcat
}

// Subscribe starts the cursor task and returns immediately.
func (c *concatSequence[T]) Subscribe(ctx context.Context) *Subscription[T] {
	out := newSubscription[T](ctx, string(c.op()))
	e := out.emitter()

	if len(c.sources) == 0 {
		e.Complete()
		return out
	}

	out.spawn(func(ctx context.Context) error {
		c.run(ctx, out.id, e)
		return nil
	})
	return out
}

// run is the cursor loop. At most one upstream is subscribed at a time.
func (c *concatSequence[T]) run(ctx context.Context, id string, out *Emitter[T]) {
	var deferred error

	for i, src := range c.sources {
		if ctx.Err() != nil {
			return
		}

		upstream := src.Subscribe(ctx)
		ok, err := forward(ctx, upstream, out)
		upstream.Cancel()
		_ = upstream.Wait()
		if !ok {
			return
		}
		if err == nil {
			continue
		}

		err = sourceError(c.op(), i, err)
		if !c.delayError {
			out.Error(err)
			return
		}

		if deferred == nil {
			deferred = err
			slog.Debug("concat error deferred",
				"subscription", id,
				"input", i,
				"error", err,
			)
		} else {
			slog.Debug("concat error discarded",
				"subscription", id,
				"input", i,
				"error", err,
			)
		}
	}

	if deferred != nil {
		out.Error(deferred)
		return
	}
	out.Complete()
}

// forward pushes the items of upstream into out until upstream terminates.
// It reports false if ctx ended or upstream was cancelled before its
// terminal event, and otherwise returns the upstream error (nil on
// completion).
func forward[T any](ctx context.Context, upstream *Subscription[T], out *Emitter[T]) (bool, error) {
	for {
		e, err := upstream.Next(ctx)
		if err != nil {
			return false, nil
		}
		switch e.Kind {
		case KindNext:
			out.Next(e.Item)
		case KindError:
			return true, e.Err
		case KindComplete:
			return true, nil
		}
	}
}
