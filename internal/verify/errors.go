package verify

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MismatchError is returned when an observed signal differs from the script.
type MismatchError struct {
	// Position is the 0-based index of the offending signal in the
	// observed sequence. When the sequence ended before the script did, it
	// is the index the missing signal would have had.
	Position int

	// Step is the 0-based index of the unmatched expectation.
	Step int

	Expected string
	Actual   string

	// Trace lists every observed signal in order.
	Trace []string
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	var buf strings.Builder

	buf.WriteString(e.Summary())
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	writeTrace(&buf, e.Trace)

	return buf.String()
}

// Summary returns the one-line description of the mismatch.
func (e *MismatchError) Summary() string {
	return fmt.Sprintf("verify: mismatch at position %d: expected %s, got %s", e.Position, e.Expected, e.Actual)
}

// TimeoutError is returned when the sequence produced no matching signal
// within the timeout.
type TimeoutError struct {
	Timeout time.Duration

	// Position is the index the awaited signal would have had.
	Position int

	// Expected describes the awaited expectation.
	Expected string

	Trace []string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	var buf strings.Builder

	buf.WriteString(e.Summary())
	buf.WriteString("\n")
	writeTrace(&buf, e.Trace)

	return buf.String()
}

// Summary returns the one-line description of the timeout.
func (e *TimeoutError) Summary() string {
	return fmt.Sprintf("verify: timed out after %s at position %d waiting for %s", e.Timeout, e.Position, e.Expected)
}

func writeTrace(buf *strings.Builder, trace []string) {
	fmt.Fprintf(buf, "\nObserved:\n")
	if len(trace) == 0 {
		buf.WriteString("  (nothing)\n")
		return
	}
	for i, line := range trace {
		fmt.Fprintf(buf, "  [%d] %s\n", i, line)
	}
}

// IsMismatch returns true if err is a MismatchError.
// Uses errors.As to handle wrapped errors.
func IsMismatch(err error) bool {
	var me *MismatchError
	return errors.As(err, &me)
}

// IsTimeout returns true if err is a TimeoutError.
// Uses errors.As to handle wrapped errors.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// Summary returns the one-line form of a verification error, or err.Error()
// for other errors.
func Summary(err error) string {
	var me *MismatchError
	if errors.As(err, &me) {
		return me.Summary()
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return te.Summary()
	}
	return err.Error()
}
