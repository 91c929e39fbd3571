package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fluxseq/internal/harness"
)

// ValidationError describes one scenario file that failed to load.
type ValidationError struct {
	File    string `json:"file"`
	Field   string `json:"field,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate scenario files without running them",
		Long: `Load and validate scenario files without running them.

Each path may be a scenario file or a directory searched recursively for
.yaml, .yml and .cue files. Reports every invalid file with the offending
field and, for CUE files, its line.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("path not found: %s", path), nil)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		found, err := findScenarioFiles(path, "")
		if err != nil {
			return outputValidateError(formatter, ErrCodeGeneric, fmt.Sprintf("error scanning directory: %v", err), nil)
		}
		files = append(files, found...)
	}

	if len(files) == 0 {
		return outputValidateError(formatter, ErrCodeNoScenarios, "no scenario files found", paths)
	}

	var validationErrors []ValidationError
	for _, file := range files {
		formatter.VerboseLog("Validating scenario: %s", file)
		if _, err := harness.LoadScenario(file); err != nil {
			validationErrors = append(validationErrors, toValidationError(file, err))
		}
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, len(files), validationErrors)
	}

	return outputValidateSuccess(formatter, len(files))
}

// toValidationError extracts the field and line of a scenario error.
func toValidationError(file string, err error) ValidationError {
	ve := ValidationError{File: file, Message: err.Error()}

	var se *harness.ScenarioError
	if errors.As(err, &se) {
		ve.Field = se.Field
		ve.Message = se.Message
		if se.Pos.IsValid() {
			ve.Line = se.Pos.Line()
		}
	}
	return ve
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, files int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Files: files})
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d scenario(s) valid\n", files)
	return nil
}

// outputValidateError outputs a single command error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	exitErr := NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	if err := formatter.Error(code, message, details); err != nil {
		return errors.Join(exitErr, fmt.Errorf("write error response: %w", err))
	}
	return exitErr
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, files int, errs []ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Files:  files,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    ErrCodeInvalid,
				Message: errs[0].Message,
			},
		}
		if err := writeJSON(formatter.Writer, response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		loc := err.File
		if err.Line > 0 {
			loc = fmt.Sprintf("%s:%d", err.File, err.Line)
		}
		fmt.Fprintln(formatter.Writer, loc)
		if err.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", ErrCodeInvalid, err.Field, err.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", ErrCodeInvalid, err.Message)
		}
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
