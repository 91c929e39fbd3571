package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fluxseq/internal/harness"
	"github.com/roach88/fluxseq/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Scenario string
}

// RunTrace is one stored run in trace output.
type RunTrace struct {
	RunID    string               `json:"run_id"`
	Scenario string               `json:"scenario"`
	Seq      int64                `json:"seq"`
	Pass     bool                 `json:"pass"`
	Trace    []harness.TraceEvent `json:"trace"`
	Errors   []string             `json:"errors,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Runs  []RunTrace `json:"runs"`
	Stats TraceStats `json:"stats"`
}

// TraceStats holds summary statistics for the listed runs.
type TraceStats struct {
	Runs   int `json:"runs"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
	Events int `json:"events"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show recorded runs from a run database",
		Long: `Show runs recorded with --db by the run and test commands.

With --run, prints that run's trace. Otherwise lists every run, or only
the runs of --scenario, in recording order.

Examples:
  fluxseq trace --db ./runs.db --run 0190c6f2-...
  fluxseq trace --db ./runs.db --scenario concat_delay_error
  fluxseq trace --db ./runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to show")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "list runs of this scenario")
	cmd.MarkFlagsMutuallyExclusive("run", "scenario")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Open would create a fresh database; a missing file is a usage error.
	if _, err := os.Stat(opts.Database); err != nil {
		return f.reportError(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return f.reportError(ExitCommandError, ErrCodeStoreFailed, err.Error(), err)
	}
	defer st.Close()

	var runs []store.Run
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrRunNotFound) {
			return f.reportError(ExitCommandError, ErrCodeRunNotFound, fmt.Sprintf("run not found: %s", opts.RunID), err)
		}
		if err != nil {
			return f.reportError(ExitCommandError, ErrCodeStoreFailed, err.Error(), err)
		}
		runs = []store.Run{run}
	} else {
		runs, err = st.ListRuns(ctx, opts.Scenario)
		if err != nil {
			return f.reportError(ExitCommandError, ErrCodeStoreFailed, err.Error(), err)
		}
	}

	result := buildTraceResult(runs)

	if opts.Format == "json" {
		return f.Success(result)
	}

	outputTraceText(cmd.OutOrStdout(), result)
	return nil
}

// buildTraceResult converts stored runs into trace output.
func buildTraceResult(runs []store.Run) TraceResult {
	result := TraceResult{Runs: make([]RunTrace, 0, len(runs))}
	for _, run := range runs {
		r := harness.FromRun(run)
		result.Runs = append(result.Runs, RunTrace{
			RunID:    run.ID,
			Scenario: run.Scenario,
			Seq:      run.Seq,
			Pass:     run.Pass,
			Trace:    r.Trace,
			Errors:   r.Errors,
		})

		result.Stats.Runs++
		result.Stats.Events += len(r.Trace)
		if run.Pass {
			result.Stats.Passed++
		} else {
			result.Stats.Failed++
		}
	}
	return result
}

// outputTraceText outputs the runs as a human-readable timeline.
func outputTraceText(w io.Writer, result TraceResult) {
	if len(result.Runs) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return
	}

	for _, run := range result.Runs {
		verdict := "PASS"
		if !run.Pass {
			verdict = "FAIL"
		}
		fmt.Fprintf(w, "Run %s (scenario %s, seq %d): %s\n", run.RunID, run.Scenario, run.Seq, verdict)
		for _, e := range run.Trace {
			fmt.Fprintf(w, "  [%d] %s\n", e.Seq, e.String())
		}
		for _, e := range run.Errors {
			fmt.Fprintf(w, "  ! %s\n", e)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Runs: %d (%d passed, %d failed), events: %d\n",
		result.Stats.Runs, result.Stats.Passed, result.Stats.Failed, result.Stats.Events)
}
