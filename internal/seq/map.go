package seq

import (
	"context"
	"fmt"
)

type mapSequence[T, R any] struct {
	src Sequence[T]
	f   func(T) R
}

// Map returns a sequence that emits f(item) for every item of src and
// forwards its terminal signal. Mapped events are stamped when they arrive
// downstream.
func Map[T, R any](src Sequence[T], f func(T) R) Sequence[R] {
	return &mapSequence[T, R]{src: src, f: f}
}

func (m *mapSequence[T, R]) Subscribe(ctx context.Context) *Subscription[R] {
	out := newSubscription[R](ctx, string(OpMap))
	e := out.emitter()
	upstream := m.src.Subscribe(out.ctx)

	out.spawn(func(ctx context.Context) error {
		defer func() {
			upstream.Cancel()
			_ = upstream.Wait()
		}()
		m.run(ctx, upstream, e)
		return nil
	})
	return out
}

func (m *mapSequence[T, R]) run(ctx context.Context, upstream *Subscription[T], out *Emitter[R]) {
	defer func() {
		if r := recover(); r != nil {
			out.Error(fmt.Errorf("seq: map: function panicked: %v", r))
		}
	}()

	for {
		ev, err := upstream.Next(ctx)
		if err != nil {
			return
		}
		switch ev.Kind {
		case KindNext:
			out.Next(m.f(ev.Item))
		case KindError:
			out.Error(sourceError(OpMap, 0, ev.Err))
			return
		case KindComplete:
			out.Complete()
			return
		}
	}
}
