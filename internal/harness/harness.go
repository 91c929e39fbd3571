package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/fluxseq/internal/metric"
	"github.com/roach88/fluxseq/internal/store"
	"github.com/roach88/fluxseq/internal/testutil"
	"github.com/roach88/fluxseq/internal/verify"
)

// IDGenerator produces run IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the run logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics records observed signals and run outcomes into m.
func WithMetrics(m *metric.Metrics) Option {
	return func(h *Harness) {
		h.metrics = m
	}
}

// WithIDGenerator replaces the UUIDv7 run ID source.
func WithIDGenerator(g IDGenerator) Option {
	return func(h *Harness) {
		if g != nil {
			h.ids = g
		}
	}
}

// WithStore appends every completed run to st.
func WithStore(st *store.Store) Option {
	return func(h *Harness) {
		h.store = st
	}
}

// Harness runs scenarios against the sequence engine.
// Runs are serialized; trace numbering restarts at 1 for each run.
type Harness struct {
	mu      sync.Mutex
	clock   *testutil.DeterministicClock
	ids     IDGenerator
	logger  *slog.Logger
	metrics *metric.Metrics
	store   *store.Store
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		clock:  testutil.NewDeterministicClock(),
		ids:    UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a fresh Harness.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	return New(opts...).Run(ctx, scenario)
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Build the pipeline described by the scenario
// 2. Verify it against the expect script within the scenario timeout
// 3. Number the observed signals into the trace
// 4. Evaluate assertions against the trace
// 5. Record metrics and, if configured, persist the run
//
// A script mismatch or timeout fails the result; it is not an error.
// Errors are returned for invalid scenarios, cancelled contexts and
// store failures.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	timeout, err := scenario.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	src, err := Build(scenario)
	if err != nil {
		return nil, fmt.Errorf("build scenario %s: %w", scenario.Name, err)
	}

	runID := h.ids.Generate()
	logger := h.logger.With("scenario", scenario.Name, "run_id", runID)
	logger.Debug("scenario started",
		"operator", scenario.Pipeline.Operator,
		"inputs", len(scenario.Pipeline.Inputs),
	)

	v := verify.For(src,
		verify.WithContext(ctx),
		verify.WithTimeout(timeout),
		verify.WithLogger(logger),
	)
	applyExpectations(v, scenario.Expect)

	start := time.Now()
	verifyErr := v.Verify()
	elapsed := time.Since(start)

	result := NewResult()
	result.RunID = runID

	h.clock.Reset()
	for _, e := range v.Trace() {
		result.AddTrace(h.clock.Next(), e)
		h.metrics.ObserveEvent(e.Kind.String())
	}

	if verifyErr != nil {
		if !verify.IsMismatch(verifyErr) && !verify.IsTimeout(verifyErr) {
			h.metrics.ObserveRun(metric.OutcomeError, elapsed)
			return nil, fmt.Errorf("run scenario %s: %w", scenario.Name, verifyErr)
		}
		result.AddError(verify.Summary(verifyErr))
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	outcome := metric.OutcomePass
	if !result.Pass {
		outcome = metric.OutcomeFail
	}
	h.metrics.ObserveRun(outcome, elapsed)

	if h.store != nil {
		seqNo, inserted, err := h.store.WriteRun(ctx, toRun(scenario.Name, result))
		if err != nil {
			return nil, fmt.Errorf("record run %s: %w", runID, err)
		}
		logger.Debug("run recorded", "seq", seqNo, "inserted", inserted)
	}

	if result.Pass {
		logger.Info("scenario passed", "events", len(result.Trace), "elapsed", elapsed)
	} else {
		logger.Warn("scenario failed", "events", len(result.Trace), "errors", result.Errors)
	}

	return result, nil
}

// applyExpectations turns the expect list into verifier steps.
func applyExpectations(v *verify.Verifier[string], expect []Expectation) {
	for _, e := range expect {
		switch {
		case e.Next != nil:
			v.ExpectNext(*e.Next)
		case e.NextCount > 0:
			v.ExpectNextCount(e.NextCount)
		case e.Error != nil:
			v.ExpectErrorMessage(*e.Error)
		case e.AnyError:
			v.ExpectError()
		case e.Complete:
			v.ExpectComplete()
		}
	}
}

// toRun converts a result into its stored form.
func toRun(scenario string, r *Result) store.Run {
	events := make([]store.RunEvent, len(r.Trace))
	for i, te := range r.Trace {
		events[i] = store.RunEvent{
			Seq:     te.Seq,
			Kind:    te.Kind,
			Value:   te.Value,
			Message: te.Message,
		}
	}
	return store.Run{
		ID:       r.RunID,
		Scenario: scenario,
		Pass:     r.Pass,
		Errors:   r.Errors,
		Events:   events,
	}
}

// FromRun rebuilds a result from a stored run.
func FromRun(run store.Run) *Result {
	r := NewResult()
	r.RunID = run.ID
	r.Pass = run.Pass
	r.Errors = append(r.Errors, run.Errors...)
	for _, e := range run.Events {
		r.Trace = append(r.Trace, TraceEvent{
			Seq:     e.Seq,
			Kind:    e.Kind,
			Value:   e.Value,
			Message: e.Message,
		})
	}
	return r
}
