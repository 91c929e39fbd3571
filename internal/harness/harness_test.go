package harness

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fluxseq/internal/metric"
	"github.com/roach88/fluxseq/internal/store"
	fixtures "github.com/roach88/fluxseq/internal/testutil"
)

func loadPackaged(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name))
	require.NoError(t, err)
	return s
}

func TestRun_CombineLatest(t *testing.T) {
	result, err := Run(context.Background(), loadPackaged(t, "combine_latest_array_and_emitter.yaml"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Trace, 4)
	assert.Equal(t, TraceEvent{Seq: 1, Kind: "next", Value: "ca"}, result.Trace[0])
	assert.Equal(t, TraceEvent{Seq: 4, Kind: "complete"}, result.Trace[3])
	assert.Len(t, result.RunID, 36, "default run IDs are UUIDs")
}

func TestRun_ConcatStopsAtError(t *testing.T) {
	result, err := Run(context.Background(), loadPackaged(t, "concat_stops_at_error.yaml"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	last := result.Trace[len(result.Trace)-1]
	assert.Equal(t, "error", last.Kind)
	assert.Equal(t, "Delayed error", last.Message)
}

func TestRun_MismatchFailsResult(t *testing.T) {
	s := loadPackaged(t, "concat_arrays.yaml")
	s.Expect[3] = Expectation{Next: strp("Z")}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, `verify: mismatch at position 3: expected next("Z"), got next("A")`, result.Errors[0])
	assert.Len(t, result.Trace, 4, "trace stops at the mismatching signal")
}

func TestRun_ExpectWithoutTerminalStepFails(t *testing.T) {
	s := loadPackaged(t, "concat_arrays.yaml")
	s.Expect = s.Expect[:5]

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, `verify: mismatch at position 5: expected no more events, got next("C")`, result.Errors[0])
}

func TestRun_TimeoutFailsResult(t *testing.T) {
	s := &Scenario{
		Name:        "stalled",
		Description: "emitter never terminates",
		Sources: map[string]SourceSpec{
			"a": {Emit: []EmitStep{{Next: strp("x")}, {Delay: "1h"}}},
		},
		Pipeline: Pipeline{Operator: OperatorSource, Inputs: []string{"a"}},
		Expect:   []Expectation{{Next: strp("x")}, {Complete: true}},
		Timeout:  "50ms",
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "timed out after 50ms at position 1")
	require.Len(t, result.Trace, 1)
}

func TestRun_AssertionFailure(t *testing.T) {
	s := loadPackaged(t, "concat_arrays.yaml")
	s.Assertions = []Assertion{{Type: AssertTraceCount, Kind: "next", Count: 5}}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertion trace_count failed")
}

func TestRun_InvalidScenario(t *testing.T) {
	_, err := Run(context.Background(), &Scenario{Name: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scenario: description: is required")
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, loadPackaged(t, "combine_latest_array_and_emitter.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_DeterministicAcrossRuns(t *testing.T) {
	s := loadPackaged(t, "concat_delay_error.yaml")
	h := New(WithIDGenerator(fixtures.NewFixedIDGenerator("run-a", "run-b")))

	first, err := h.Run(context.Background(), s)
	require.NoError(t, err)
	second, err := h.Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, "run-a", first.RunID)
	assert.Equal(t, "run-b", second.RunID)
	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, int64(1), second.Trace[0].Seq, "numbering restarts per run")
}

func TestRun_RecordsMetrics(t *testing.T) {
	m := metric.NewMetrics()

	_, err := Run(context.Background(), loadPackaged(t, "concat_arrays.yaml"), WithMetrics(m))
	require.NoError(t, err)

	assert.Equal(t, 6.0, testutil.ToFloat64(m.Events.WithLabelValues("next")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues("complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues(metric.OutcomePass)))
}

func TestRun_WritesStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	s := loadPackaged(t, "concat_delay_error.yaml")
	result, err := Run(ctx, s,
		WithStore(st),
		WithIDGenerator(fixtures.NewFixedIDGenerator("stored-1")),
	)
	require.NoError(t, err)

	run, err := st.ReadRun(ctx, "stored-1")
	require.NoError(t, err)
	assert.Equal(t, s.Name, run.Scenario)
	assert.True(t, run.Pass)
	assert.Equal(t, result.Trace, FromRun(run).Trace)
}

func TestRun_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	_, err := Run(context.Background(), loadPackaged(t, "concat_arrays.yaml"),
		WithLogger(logger),
		WithIDGenerator(fixtures.NewFixedIDGenerator("log-run")),
	)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "scenario passed")
	assert.Contains(t, out, "scenario=concat_arrays")
	assert.Contains(t, out, "run_id=log-run")
}
