package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fluxseq/internal/store"
	"github.com/roach88/fluxseq/internal/testutil"
)

func runOpts(format string, ids ...string) *RunOptions {
	return &RunOptions{
		RootOptions: &RootOptions{Format: format},
		IDGenerator: testutil.NewFixedIDGenerator(ids...),
	}
}

func TestRunCommand_Pass(t *testing.T) {
	path := writeFile(t, t.TempDir(), "concat.yaml", concatScenario)
	opts := runOpts("text", "run-1")

	out, err := execute(runCommandFor(opts), path)
	require.NoError(t, err)

	assert.Contains(t, out, `  [1] next("a")`)
	assert.Contains(t, out, "  [4] complete()")
	assert.Contains(t, out, "✓ concat_arrays (run run-1)")
}

func TestRunCommand_Fail(t *testing.T) {
	path := writeFile(t, t.TempDir(), "wrong.yaml", failingScenario)

	out, err := execute(runCommandFor(runOpts("text", "run-1")), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ wrong_order (run run-1)")
	assert.Contains(t, out, `expected next("A"), got next("a")`)
}

func TestRunCommand_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "concat.yaml", concatScenario)

	out, err := execute(runCommandFor(runOpts("json", "run-json")), path)
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		RunID  string    `json:"run_id"`
		Data   RunOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-json", resp.RunID)
	assert.True(t, resp.Data.Pass)
	assert.Len(t, resp.Data.Trace, 4)
}

func TestRunCommand_MissingFile(t *testing.T) {
	_, err := execute(runCommandFor(runOpts("text")), "/nonexistent/x.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand_InvalidScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "name: bad\n")

	out, err := execute(runCommandFor(runOpts("text")), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "description: is required")
}

func TestRunCommand_RecordsRun(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "concat.yaml", concatScenario)
	db := filepath.Join(dir, "runs.db")

	opts := runOpts("text", "stored")
	opts.Database = db
	_, err := execute(runCommandFor(opts), path)
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(context.Background(), "stored")
	require.NoError(t, err)
	assert.Equal(t, "concat_arrays", run.Scenario)
	assert.Len(t, run.Events, 4)
}
