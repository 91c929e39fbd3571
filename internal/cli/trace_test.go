package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fluxseq/internal/store"
)

// seedRuns writes two runs of one scenario and one of another.
func seedRuns(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	runs := []store.Run{
		{ID: "r1", Scenario: "concat_arrays", Pass: true, Errors: []string{}, Events: []store.RunEvent{
			{Seq: 1, Kind: "next", Value: "a"},
			{Seq: 2, Kind: "complete"},
		}},
		{ID: "r2", Scenario: "wrong_order", Pass: false, Errors: []string{"verify: mismatch"}, Events: []store.RunEvent{
			{Seq: 1, Kind: "next", Value: "a"},
		}},
		{ID: "r3", Scenario: "concat_arrays", Pass: true, Errors: []string{}, Events: []store.RunEvent{
			{Seq: 1, Kind: "error", Message: "boom"},
		}},
	}
	for _, r := range runs {
		_, _, err := st.WriteRun(ctx, r)
		require.NoError(t, err)
	}
	return db
}

func TestTraceCommand_Run(t *testing.T) {
	db := seedRuns(t)

	out, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", db, "--run", "r2")
	require.NoError(t, err)

	assert.Contains(t, out, "Run r2 (scenario wrong_order, seq 2): FAIL")
	assert.Contains(t, out, `  [1] next("a")`)
	assert.Contains(t, out, "  ! verify: mismatch")
	assert.Contains(t, out, "Runs: 1 (0 passed, 1 failed), events: 1")
}

func TestTraceCommand_Scenario(t *testing.T) {
	db := seedRuns(t)

	out, err := execute(NewTraceCommand(&RootOptions{Format: "json"}), "--db", db, "--scenario", "concat_arrays")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Runs, 2)
	assert.Equal(t, "r1", resp.Data.Runs[0].RunID)
	assert.Equal(t, "r3", resp.Data.Runs[1].RunID)
	assert.Equal(t, "boom", resp.Data.Runs[1].Trace[0].Message)
	assert.Equal(t, TraceStats{Runs: 2, Passed: 2, Events: 3}, resp.Data.Stats)
}

func TestTraceCommand_AllRuns(t *testing.T) {
	db := seedRuns(t)

	result := buildTraceResultFor(t, db)
	assert.Equal(t, 3, result.Stats.Runs)
	assert.Equal(t, 1, result.Stats.Failed)
}

func buildTraceResultFor(t *testing.T, db string) TraceResult {
	t.Helper()
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background(), "")
	require.NoError(t, err)
	return buildTraceResult(runs)
}

func TestTraceCommand_RunNotFound(t *testing.T) {
	db := seedRuns(t)

	out, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", db, "--run", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "run not found: missing")
}

func TestTraceCommand_DatabaseNotFound(t *testing.T) {
	_, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceCommand_NoRuns(t *testing.T) {
	db := seedRuns(t)

	out, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", db, "--scenario", "unknown")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found.")
}

func TestTraceCommand_RunAndScenarioExclusive(t *testing.T) {
	db := seedRuns(t)

	_, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", db, "--run", "r1", "--scenario", "x")
	require.Error(t, err)
}

func TestOutputTraceText_Empty(t *testing.T) {
	var buf bytes.Buffer
	outputTraceText(&buf, TraceResult{})
	assert.Equal(t, "No runs found.\n", buf.String())
}
