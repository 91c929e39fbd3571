package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s\n", event.Seq, event.String())
	}

	return buf.String()
}

// Summary returns the one-line form of the failure.
func (e *AssertionError) Summary() string {
	return fmt.Sprintf("assertion %s failed: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// String renders the event the way verification traces do.
func (e TraceEvent) String() string {
	switch e.Kind {
	case "next":
		return fmt.Sprintf("next(%q)", e.Value)
	case "error":
		return fmt.Sprintf("error(%q)", e.Message)
	default:
		return e.Kind + "()"
	}
}

// assertTraceContains checks that some next signal carried the value.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Kind == "next" && event.Value == assertion.Value {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("item %q", assertion.Value),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that values were emitted in the given order.
// Values don't need to be consecutive (intervening items are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	// First position of each expected value, 1-indexed.
	positions := make(map[string]int64)
	for _, event := range trace {
		if event.Kind != "next" {
			continue
		}
		for _, v := range assertion.Values {
			if event.Value == v && positions[v] == 0 {
				positions[v] = event.Seq
			}
		}
	}

	for _, v := range assertion.Values {
		if positions[v] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all items present: %q", assertion.Values),
				Actual:   fmt.Sprintf("missing item: %q", v),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Values); i++ {
		prev := assertion.Values[i-1]
		curr := assertion.Values[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("items in order: %q", assertion.Values),
				Actual: fmt.Sprintf("%q (seq %d) should be before %q (seq %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks the exact number of signals of a kind, narrowed
// to one item value when Value is set.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Kind != assertion.Kind {
			continue
		}
		if assertion.Value != "" && event.Value != assertion.Value {
			continue
		}
		count++
	}

	if count != assertion.Count {
		what := assertion.Kind
		if assertion.Value != "" {
			what = fmt.Sprintf("%s(%q)", assertion.Kind, assertion.Value)
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, what),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns one summary line per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err == nil {
			continue
		}
		if ae, ok := err.(*AssertionError); ok {
			failures = append(failures, ae.Summary())
		} else {
			failures = append(failures, err.Error())
		}
	}

	return failures
}
