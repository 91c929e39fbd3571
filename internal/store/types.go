package store

import "errors"

// ErrRunNotFound is returned by ReadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded scenario verification.
type Run struct {
	ID       string
	Scenario string
	Pass     bool

	// Seq is assigned by the store on first write. It orders runs.
	Seq int64

	// Errors holds one-line failure summaries. Empty for passing runs.
	Errors []string

	// Events is the observed signal trace.
	Events []RunEvent
}

// RunEvent is one observed signal of a run.
type RunEvent struct {
	// Seq is the 1-based position of the signal in the trace.
	Seq     int64
	Kind    string
	Value   string
	Message string
}
