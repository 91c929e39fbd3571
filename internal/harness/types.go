package harness

import (
	"github.com/roach88/fluxseq/internal/seq"
)

// TraceEvent is one observed signal in a run's trace.
type TraceEvent struct {
	// Seq is the 1-based position of the signal within the run.
	Seq     int64  `json:"seq"`
	Kind    string `json:"kind"` // "next", "error" or "complete"
	Value   string `json:"value,omitempty"`
	Message string `json:"message,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// RunID identifies the run in logs and the run store.
	RunID string `json:"run_id"`

	// Pass indicates overall success: the script matched and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace contains every observed signal in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains one-line failure descriptions.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an observed signal at position seq.
func (r *Result) AddTrace(seqNo int64, e seq.Event[string]) {
	te := TraceEvent{Seq: seqNo, Kind: e.Kind.String()}
	switch e.Kind {
	case seq.KindNext:
		te.Value = e.Item
	case seq.KindError:
		if e.Err != nil {
			te.Message = e.Err.Error()
		}
	}
	r.Trace = append(r.Trace, te)
}
