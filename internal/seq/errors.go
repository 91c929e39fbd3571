package seq

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled is returned by pulls on a cancelled subscription.
	ErrCancelled = errors.New("seq: subscription cancelled")

	// ErrTerminated is returned by pulls after the terminal event was consumed.
	ErrTerminated = errors.New("seq: subscription terminated")

	// ErrNilError replaces a nil cause passed to Emitter.Error.
	ErrNilError = errors.New("seq: error signal without cause")
)

// Op names the operator that forwarded an upstream error.
type Op string

const (
	OpCombineLatest    Op = "combine_latest"
	OpConcat           Op = "concat"
	OpConcatDelayError Op = "concat_delay_error"
	OpMap              Op = "map"
)

// SourceError wraps an error signalled by an upstream input of an operator.
//
// Error returns the cause's message unchanged so that message assertions
// observe the text the source produced. Index and Op are available for
// diagnostics and logging.
type SourceError struct {
	// Index is the position of the failing input in the operator's list.
	Index int

	// Op is the operator that received the error.
	Op Op

	// Err is the upstream cause.
	Err error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Unwrap returns the upstream cause.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// Describe returns the message annotated with operator and input index.
func (e *SourceError) Describe() string {
	return fmt.Sprintf("%s input %d: %s", e.Op, e.Index, e.Error())
}

// IsSourceError returns true if err wraps a SourceError.
// Uses errors.As to handle wrapped errors.
func IsSourceError(err error) bool {
	var se *SourceError
	return errors.As(err, &se)
}

// SourceIndex returns the input index of the outermost SourceError in err,
// or -1 if there is none.
func SourceIndex(err error) int {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Index
	}
	return -1
}

// sourceError wraps err as the signal of input index of op.
func sourceError(op Op, index int, err error) error {
	if err == nil {
		err = ErrNilError
	}
	return &SourceError{Index: index, Op: op, Err: err}
}
