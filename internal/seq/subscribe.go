package seq

import "context"

// Subscribe subscribes to s and delivers its signals to callbacks.
//
// Callbacks run on a single delivery task, in signal order: onItem for
// every item, then exactly one of onError or onComplete. Nil callbacks are
// skipped. Cancelling the returned subscription stops delivery; Cancel may
// be called from inside a callback.
func Subscribe[T any](ctx context.Context, s Sequence[T], onItem func(T), onError func(error), onComplete func()) *Subscription[T] {
	sub := s.Subscribe(ctx)
	sub.spawn(func(context.Context) error {
		for {
			// Pull with the caller's context: the subscription context is
			// released as soon as the terminal event is queued.
			e, err := sub.Next(ctx)
			if err != nil {
				return nil
			}
			switch e.Kind {
			case KindNext:
				if onItem != nil {
					onItem(e.Item)
				}
			case KindError:
				if onError != nil {
					onError(e.Err)
				}
				return nil
			case KindComplete:
				if onComplete != nil {
					onComplete()
				}
				return nil
			}
		}
	})
	return sub
}
