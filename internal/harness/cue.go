package harness

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// scenarioFields lists the top-level labels a CUE scenario may declare.
var scenarioFields = map[string]bool{
	"name":        true,
	"description": true,
	"sources":     true,
	"pipeline":    true,
	"expect":      true,
	"assertions":  true,
	"timeout":     true,
}

// parseCUE compiles a CUE scenario and decodes it. The returned value is
// kept so validation errors can be mapped back to source positions.
func parseCUE(path string, data []byte) (*Scenario, cue.Value, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, value, formatCUEError(err)
	}

	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, value, formatCUEError(err)
	}

	iter, err := value.Fields()
	if err != nil {
		return nil, value, formatCUEError(err)
	}
	for iter.Next() {
		label := iter.Selector().String()
		if !scenarioFields[label] {
			return nil, value, &ScenarioError{
				Field:   label,
				Message: "unknown field",
				Pos:     iter.Value().Pos(),
			}
		}
	}

	var scenario Scenario
	if err := value.Decode(&scenario); err != nil {
		return nil, value, formatCUEError(err)
	}
	return &scenario, value, nil
}

// fieldPos returns the position of a dotted field path within v, or
// token.NoPos if the path does not resolve.
func fieldPos(v cue.Value, field string) token.Pos {
	path := cue.ParsePath(field)
	if path.Err() != nil {
		return token.NoPos
	}
	fv := v.LookupPath(path)
	if !fv.Exists() {
		return token.NoPos
	}
	return fv.Pos()
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("failed to parse CUE: %w", err)
	}

	// Return first error with position info
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &ScenarioError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return fmt.Errorf("failed to parse CUE: %w", err)
}
