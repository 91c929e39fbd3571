package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/fluxseq/internal/seq"
)

// DefaultTimeout bounds a verification when no timeout is configured.
const DefaultTimeout = 5 * time.Second

type config struct {
	timeout time.Duration
	ctx     context.Context
	logger  *slog.Logger
}

// Option configures a Verifier.
type Option func(*config)

// WithTimeout bounds the whole verification. Non-positive values keep
// DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithContext sets the parent context of the subscription.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// WithLogger sets the logger used for verification diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Verifier checks one sequence against a script of expectations.
// Expect methods append to the script and return the Verifier for chaining.
type Verifier[T any] struct {
	source   seq.Sequence[T]
	steps    []step[T]
	cfg      config
	recorder *Recorder[T]
}

// For creates a Verifier for s.
func For[T any](s seq.Sequence[T], opts ...Option) *Verifier[T] {
	cfg := config{
		timeout: DefaultTimeout,
		ctx:     context.Background(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Verifier[T]{
		source:   s,
		cfg:      cfg,
		recorder: &Recorder[T]{},
	}
}

// ExpectNext expects the given items, in order.
func (v *Verifier[T]) ExpectNext(items ...T) *Verifier[T] {
	for _, item := range items {
		v.steps = append(v.steps, step[T]{kind: stepNext, item: item})
	}
	return v
}

// ExpectNextCount expects n items with any values.
func (v *Verifier[T]) ExpectNextCount(n int) *Verifier[T] {
	if n > 0 {
		v.steps = append(v.steps, step[T]{kind: stepNextCount, count: n})
	}
	return v
}

// ExpectError expects an error signal with any message.
func (v *Verifier[T]) ExpectError() *Verifier[T] {
	v.steps = append(v.steps, step[T]{kind: stepError})
	return v
}

// ExpectErrorMessage expects an error signal whose message equals msg.
func (v *Verifier[T]) ExpectErrorMessage(msg string) *Verifier[T] {
	v.steps = append(v.steps, step[T]{kind: stepErrorMessage, message: msg})
	return v
}

// ExpectComplete expects the completion signal.
func (v *Verifier[T]) ExpectComplete() *Verifier[T] {
	v.steps = append(v.steps, step[T]{kind: stepComplete})
	return v
}

// VerifyComplete appends ExpectComplete and runs Verify.
func (v *Verifier[T]) VerifyComplete() error {
	return v.ExpectComplete().Verify()
}

// VerifyErrorMessage appends ExpectErrorMessage(msg) and runs Verify.
func (v *Verifier[T]) VerifyErrorMessage(msg string) error {
	return v.ExpectErrorMessage(msg).Verify()
}

// Trace returns the signals observed by the last verification.
func (v *Verifier[T]) Trace() []seq.Event[T] {
	return v.recorder.Events()
}

// Verify subscribes to the sequence and checks the script.
//
// It blocks until the sequence signals its terminal event. Every event,
// including events that arrive after the script is consumed, must match
// the next unused expectation.
//
// Returns nil if every expectation matched, *MismatchError at the first
// difference, *TimeoutError if the timeout elapsed first, or a wrapped
// context error if the parent context ended.
func (v *Verifier[T]) Verify() error {
	v.recorder.Reset()
	cur := newCursor(v.steps)

	// The deadline bounds pulls only; sources run under the parent context.
	sub := v.source.Subscribe(v.cfg.ctx)
	defer sub.Cancel()

	ctx, cancel := context.WithTimeout(v.cfg.ctx, v.cfg.timeout)
	defer cancel()

	logger := v.cfg.logger.With("subscription", sub.ID())
	logger.Debug("verification started", "steps", len(v.steps))

	position := 0
	for {
		e, err := sub.Next(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && v.cfg.ctx.Err() == nil {
				expected := cur.expected()
				if cur.done() {
					expected = "terminal signal"
				}
				logger.Debug("verification timed out", "position", position)
				return &TimeoutError{
					Timeout:  v.cfg.timeout,
					Position: position,
					Expected: expected,
					Trace:    v.recorder.Lines(),
				}
			}
			return fmt.Errorf("verify: %w", err)
		}

		v.recorder.Record(e)

		expected, at := cur.expected(), cur.index
		if !cur.match(e) {
			return v.mismatch(logger, position, at, expected, e.String())
		}
		position++

		if e.Kind.Terminal() {
			if !cur.done() {
				return v.mismatch(logger, position, cur.index, cur.expected(), "end of sequence")
			}
			break
		}
	}

	logger.Debug("verification passed", "events", position)
	return nil
}

func (v *Verifier[T]) mismatch(logger *slog.Logger, position, at int, expected, actual string) error {
	me := &MismatchError{
		Position: position,
		Step:     at,
		Expected: expected,
		Actual:   actual,
		Trace:    v.recorder.Lines(),
	}
	logger.Debug("verification failed",
		"position", position,
		"expected", expected,
		"actual", actual,
	)
	return me
}
