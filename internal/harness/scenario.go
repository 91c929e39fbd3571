package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// Scenario defines one sequence verification.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files and stored runs
	// are keyed by it.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" json:"description"`

	// Sources declares the named inputs of the pipeline.
	Sources map[string]SourceSpec `yaml:"sources" json:"sources"`

	// Pipeline wires sources through one operator.
	Pipeline Pipeline `yaml:"pipeline" json:"pipeline"`

	// Expect is the script the output must match, in order.
	Expect []Expectation `yaml:"expect" json:"expect"`

	// Assertions are checked against the observed trace after verification.
	Assertions []Assertion `yaml:"assertions,omitempty" json:"assertions,omitempty"`

	// Timeout bounds the verification (Go duration syntax). Defaults to 5s.
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// SourceSpec declares one input. Exactly one of Items or Emit is used:
// Items builds an array source (possibly empty), Emit an emitter source.
type SourceSpec struct {
	Items []string   `yaml:"items,omitempty" json:"items,omitempty"`
	Emit  []EmitStep `yaml:"emit,omitempty" json:"emit,omitempty"`
}

// EmitStep is one action of an emitter source. Exactly one field is set.
type EmitStep struct {
	Next     *string `yaml:"next,omitempty" json:"next,omitempty"`
	Delay    string  `yaml:"delay,omitempty" json:"delay,omitempty"`
	Error    *string `yaml:"error,omitempty" json:"error,omitempty"`
	Complete bool    `yaml:"complete,omitempty" json:"complete,omitempty"`
}

// Pipeline wires inputs through an operator.
type Pipeline struct {
	// Operator is one of the Operator* constants.
	Operator string `yaml:"operator" json:"operator"`

	// Inputs lists source names in operator order.
	Inputs []string `yaml:"inputs" json:"inputs"`

	// Separator joins the latest values of combine_latest.
	Separator string `yaml:"separator,omitempty" json:"separator,omitempty"`

	// Transform optionally maps every output item: "upper" or "lower".
	Transform string `yaml:"transform,omitempty" json:"transform,omitempty"`
}

// Expectation is one scripted signal. Exactly one field is set.
type Expectation struct {
	Next      *string `yaml:"next,omitempty" json:"next,omitempty"`
	NextCount int     `yaml:"next_count,omitempty" json:"next_count,omitempty"`
	Error     *string `yaml:"error,omitempty" json:"error,omitempty"`
	AnyError  bool    `yaml:"any_error,omitempty" json:"any_error,omitempty"`
	Complete  bool    `yaml:"complete,omitempty" json:"complete,omitempty"`
}

// Assertion validates the observed trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an item with Value was observed
	// - "trace_order": Values were observed in this order
	// - "trace_count": exactly Count signals of Kind (and Value, if set)
	Type string `yaml:"type" json:"type"`

	Value  string   `yaml:"value,omitempty" json:"value,omitempty"`
	Values []string `yaml:"values,omitempty" json:"values,omitempty"`
	Kind   string   `yaml:"kind,omitempty" json:"kind,omitempty"`
	Count  int      `yaml:"count,omitempty" json:"count,omitempty"`
}

// Operator constants.
const (
	OperatorSource           = "source"
	OperatorCombineLatest    = "combine_latest"
	OperatorConcat           = "concat"
	OperatorConcatDelayError = "concat_delay_error"
)

// Transform constants.
const (
	TransformUpper = "upper"
	TransformLower = "lower"
)

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

// DefaultTimeout is used when a scenario sets no timeout.
const DefaultTimeout = 5 * time.Second

// TimeoutDuration returns the parsed timeout, or DefaultTimeout if unset.
func (s *Scenario) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, fmt.Errorf("timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	return d, nil
}

// LoadScenario reads, parses and validates a scenario file.
// Files ending in .cue are parsed as CUE; everything else as YAML.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".cue") {
		scenario, value, err := parseCUE(path, data)
		if err != nil {
			return nil, err
		}
		if err := validateScenario(scenario); err != nil {
			var se *ScenarioError
			if errors.As(err, &se) {
				se.Pos = fieldPos(value, se.Field)
			}
			return nil, fmt.Errorf("invalid scenario: %w", err)
		}
		return scenario, nil
	}

	scenario, err := ParseYAML(data)
	if err != nil {
		return nil, err
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return scenario, nil
}

// ParseYAML parses a YAML scenario without validating it.
func ParseYAML(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// Validate checks that required fields are present and consistent.
func (s *Scenario) Validate() error {
	return validateScenario(s)
}

// ScenarioError reports an invalid scenario field.
type ScenarioError struct {
	// Field is the dotted path of the offending field, e.g. "sources.a.emit[1]".
	Field   string
	Message string

	// Pos locates the field in a CUE source. Invalid for YAML scenarios.
	Pos token.Pos
}

func (e *ScenarioError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func fieldError(field, format string, args ...any) *ScenarioError {
	return &ScenarioError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fieldError("name", "is required")
	}

	if s.Description == "" {
		return fieldError("description", "is required")
	}

	if len(s.Sources) == 0 {
		return fieldError("sources", "is required and must be non-empty")
	}

	// Sorted so the reported error is stable across runs.
	names := make([]string, 0, len(s.Sources))
	for name := range s.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := validateSource(name, s.Sources[name]); err != nil {
			return err
		}
	}

	if err := validatePipeline(s.Pipeline, s.Sources); err != nil {
		return err
	}

	if len(s.Expect) == 0 {
		return fieldError("expect", "is required and must be non-empty")
	}

	for i, e := range s.Expect {
		if err := validateExpectation(i, e); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}

	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return fieldError("timeout", "%v", err)
		}
		if d <= 0 {
			return fieldError("timeout", "must be positive, got %s", s.Timeout)
		}
	}

	return nil
}

func validateSource(name string, src SourceSpec) error {
	if len(src.Items) > 0 && len(src.Emit) > 0 {
		return fieldError("sources."+name, "items and emit are mutually exclusive")
	}

	terminated := false
	for i, step := range src.Emit {
		field := fmt.Sprintf("sources.%s.emit[%d]", name, i)
		set := 0
		if step.Next != nil {
			set++
		}
		if step.Delay != "" {
			set++
			d, err := time.ParseDuration(step.Delay)
			if err != nil {
				return fieldError(field+".delay", "%v", err)
			}
			if d < 0 {
				return fieldError(field+".delay", "must not be negative")
			}
		}
		if step.Error != nil {
			set++
		}
		if step.Complete {
			set++
		}
		if set != 1 {
			return fieldError(field, "exactly one of next, delay, error, complete is required")
		}
		if terminated {
			return fieldError(field, "step after terminal error or complete")
		}
		if step.Error != nil || step.Complete {
			terminated = true
		}
	}
	return nil
}

func validatePipeline(p Pipeline, sources map[string]SourceSpec) error {
	switch p.Operator {
	case "":
		return fieldError("pipeline.operator", "is required")
	case OperatorSource:
		if len(p.Inputs) != 1 {
			return fieldError("pipeline.inputs", "operator %q takes exactly one input, got %d", p.Operator, len(p.Inputs))
		}
	case OperatorCombineLatest, OperatorConcat, OperatorConcatDelayError:
		if len(p.Inputs) == 0 {
			return fieldError("pipeline.inputs", "is required and must be non-empty")
		}
	default:
		return fieldError("pipeline.operator", "unknown operator %q", p.Operator)
	}

	for i, in := range p.Inputs {
		if _, ok := sources[in]; !ok {
			return fieldError(fmt.Sprintf("pipeline.inputs[%d]", i), "unknown source %q", in)
		}
	}

	if p.Separator != "" && p.Operator != OperatorCombineLatest {
		return fieldError("pipeline.separator", "only valid for %s", OperatorCombineLatest)
	}

	switch p.Transform {
	case "", TransformUpper, TransformLower:
	default:
		return fieldError("pipeline.transform", "unknown transform %q", p.Transform)
	}
	return nil
}

func validateExpectation(i int, e Expectation) error {
	field := fmt.Sprintf("expect[%d]", i)
	set := 0
	if e.Next != nil {
		set++
	}
	if e.NextCount != 0 {
		if e.NextCount < 0 {
			return fieldError(field+".next_count", "must be positive")
		}
		set++
	}
	if e.Error != nil {
		set++
	}
	if e.AnyError {
		set++
	}
	if e.Complete {
		set++
	}
	if set != 1 {
		return fieldError(field, "exactly one of next, next_count, error, any_error, complete is required")
	}
	return nil
}

func validateAssertion(i int, a Assertion) error {
	field := fmt.Sprintf("assertions[%d]", i)
	switch a.Type {
	case AssertTraceContains:
		if a.Value == "" {
			return fieldError(field+".value", "required for trace_contains")
		}
	case AssertTraceOrder:
		if len(a.Values) < 2 {
			return fieldError(field+".values", "trace_order requires at least two values")
		}
	case AssertTraceCount:
		switch a.Kind {
		case "next", "error", "complete":
		default:
			return fieldError(field+".kind", "trace_count requires next, error or complete, got %q", a.Kind)
		}
		if a.Count < 0 {
			return fieldError(field+".count", "must not be negative")
		}
	case "":
		return fieldError(field+".type", "is required")
	default:
		return fieldError(field+".type", "unknown assertion type %q", a.Type)
	}
	return nil
}
