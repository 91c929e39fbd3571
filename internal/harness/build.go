package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/fluxseq/internal/seq"
)

// Build turns a validated scenario into the sequence it describes.
// Sources are cold: every subscription replays them from the start.
func Build(s *Scenario) (seq.Sequence[string], error) {
	inputs := make([]seq.Sequence[string], len(s.Pipeline.Inputs))
	for i, name := range s.Pipeline.Inputs {
		spec, ok := s.Sources[name]
		if !ok {
			return nil, fieldError(fmt.Sprintf("pipeline.inputs[%d]", i), "unknown source %q", name)
		}
		src, err := buildSource(name, spec)
		if err != nil {
			return nil, err
		}
		inputs[i] = src
	}

	var out seq.Sequence[string]
	switch s.Pipeline.Operator {
	case OperatorSource:
		out = inputs[0]
	case OperatorCombineLatest:
		sep := s.Pipeline.Separator
		out = seq.CombineLatest(func(latest []string) string {
			return strings.Join(latest, sep)
		}, inputs...)
	case OperatorConcat:
		out = seq.Concat(inputs...)
	case OperatorConcatDelayError:
		out = seq.ConcatDelayError(inputs...)
	default:
		return nil, fieldError("pipeline.operator", "unknown operator %q", s.Pipeline.Operator)
	}

	switch s.Pipeline.Transform {
	case "":
	case TransformUpper:
		out = seq.Map(out, strings.ToUpper)
	case TransformLower:
		out = seq.Map(out, strings.ToLower)
	default:
		return nil, fieldError("pipeline.transform", "unknown transform %q", s.Pipeline.Transform)
	}

	return out, nil
}

func buildSource(name string, spec SourceSpec) (seq.Sequence[string], error) {
	if len(spec.Emit) == 0 {
		return seq.FromSlice(spec.Items), nil
	}

	steps := make([]emitAction, len(spec.Emit))
	for i, step := range spec.Emit {
		action, err := compileStep(step)
		if err != nil {
			return nil, fieldError(fmt.Sprintf("sources.%s.emit[%d]", name, i), "%v", err)
		}
		steps[i] = action
	}

	return seq.Create(func(ctx context.Context, e *seq.Emitter[string]) error {
		for _, act := range steps {
			// A cancelled subscription skips the remaining pauses too.
			if e.Terminated() || !act(ctx, e) {
				return nil
			}
		}
		return nil
	}), nil
}

// emitAction performs one emit step. It returns false once the emitter
// should stop.
type emitAction func(ctx context.Context, e *seq.Emitter[string]) bool

func compileStep(step EmitStep) (emitAction, error) {
	switch {
	case step.Next != nil:
		item := *step.Next
		return func(_ context.Context, e *seq.Emitter[string]) bool {
			return e.Next(item)
		}, nil

	case step.Delay != "":
		d, err := time.ParseDuration(step.Delay)
		if err != nil {
			return nil, fmt.Errorf("delay: %w", err)
		}
		return func(ctx context.Context, _ *seq.Emitter[string]) bool {
			return sleep(ctx, d)
		}, nil

	case step.Error != nil:
		cause := errors.New(*step.Error)
		return func(_ context.Context, e *seq.Emitter[string]) bool {
			e.Error(cause)
			return false
		}, nil

	case step.Complete:
		return func(_ context.Context, e *seq.Emitter[string]) bool {
			e.Complete()
			return false
		}, nil
	}
	return nil, errors.New("empty emit step")
}

// sleep pauses for d and reports whether ctx is still live.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
