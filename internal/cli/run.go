package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/fluxseq/internal/harness"
	"github.com/roach88/fluxseq/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string

	// IDGenerator allows overriding the run ID source (for testing).
	// If nil, defaults to harness.UUIDv7Generator.
	IDGenerator harness.IDGenerator
}

// RunOutput is the JSON payload of the run command.
type RunOutput struct {
	Scenario string               `json:"scenario"`
	Pass     bool                 `json:"pass"`
	Trace    []harness.TraceEvent `json:"trace"`
	Errors   []string             `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return runCommandFor(&RunOptions{RootOptions: rootOpts})
}

func runCommandFor(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run one scenario and print its trace",
		Long: `Run a single scenario file (.yaml, .yml or .cue) and print every
observed signal followed by the verdict.

Exit codes:
  0 - Scenario passed
  1 - Scenario failed or is invalid
  2 - Command error (file not found, database error, etc.)

Examples:
  fluxseq run scenarios/concat_arrays.yaml
  fluxseq run scenarios/concat_arrays.yaml --db ./runs.db
  fluxseq run scenarios/transform.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if _, err := os.Stat(path); err != nil {
		return f.reportError(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("scenario file not found: %s", path), err)
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return f.reportError(ExitFailure, ErrCodeInvalid, err.Error(), err)
	}

	harnessOpts := []harness.Option{harness.WithLogger(slog.Default())}
	if opts.IDGenerator != nil {
		harnessOpts = append(harnessOpts, harness.WithIDGenerator(opts.IDGenerator))
	}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return f.reportError(ExitCommandError, ErrCodeStoreFailed, err.Error(), err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		harnessOpts = append(harnessOpts, harness.WithStore(st))
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	result, err := harness.Run(ctx, scenario, harnessOpts...)
	if err != nil {
		return f.reportError(ExitCommandError, ErrCodeGeneric, err.Error(), err)
	}

	if opts.Format == "json" {
		resp := CLIResponse{
			Status: "ok",
			RunID:  result.RunID,
			Data: RunOutput{
				Scenario: scenario.Name,
				Pass:     result.Pass,
				Trace:    result.Trace,
				Errors:   result.Errors,
			},
		}
		if !result.Pass {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeRunFailed, Message: "scenario failed"}
		}
		if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
	} else {
		writeRunText(cmd.OutOrStdout(), scenario.Name, result)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

// writeRunText prints the trace and the verdict of one run.
func writeRunText(w io.Writer, name string, result *harness.Result) {
	for _, e := range result.Trace {
		fmt.Fprintf(w, "  [%d] %s\n", e.Seq, e.String())
	}
	if result.Pass {
		fmt.Fprintf(w, "✓ %s (run %s)\n", name, result.RunID)
		return
	}
	fmt.Fprintf(w, "✗ %s (run %s)\n", name, result.RunID)
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// signalContext derives a context from the command that is cancelled on
// interrupt or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
