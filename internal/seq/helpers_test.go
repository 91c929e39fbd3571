package seq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

// collect subscribes to s and pulls every event up to and including the
// terminal one.
func collect[T any](t *testing.T, s Sequence[T]) []Event[T] {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	sub := s.Subscribe(ctx)
	defer sub.Cancel()

	var events []Event[T]
	for {
		e, err := sub.Next(ctx)
		require.NoError(t, err, "sequence did not terminate")
		events = append(events, e)
		if e.Kind.Terminal() {
			return events
		}
	}
}

// items returns the items of events, ignoring terminal signals.
func items[T any](events []Event[T]) []T {
	out := []T{}
	for _, e := range events {
		if e.Kind == KindNext {
			out = append(out, e.Item)
		}
	}
	return out
}

// last returns the final event.
func last[T any](t *testing.T, events []Event[T]) Event[T] {
	t.Helper()
	require.NotEmpty(t, events)
	return events[len(events)-1]
}

// pausing returns an emitter sequence that pushes items with a pause before
// each one, then completes.
func pausing(pause time.Duration, values ...string) Sequence[string] {
	return Create(func(ctx context.Context, e *Emitter[string]) error {
		for _, v := range values {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pause):
			}
			e.Next(v)
		}
		e.Complete()
		return nil
	})
}
