package ir

import (
	"fmt"
)

// ValidationError describes a structural invariant violation in a circuit.
type ValidationError struct {
	Message string
	Module  string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Module != "" {
		return fmt.Sprintf("module %s: %s", e.Module, e.Message)
	}
	return e.Message
}

// Validate checks the circuit's structural invariants: module names are
// unique, the main module exists, internal modules have bodies, and external
// modules do not. All violations found in one pass are reported together.
func Validate(c *Circuit) []ValidationError {
	var errs []ValidationError

	seen := make(map[string]bool, len(c.Modules))
	for _, m := range c.Modules {
		if seen[m.Name] {
			errs = append(errs, ValidationError{
				Message: "duplicate module name",
				Module:  m.Name,
			})
		}
		seen[m.Name] = true

		if m.External && m.Body != nil {
			errs = append(errs, ValidationError{
				Message: "external module has a body",
				Module:  m.Name,
			})
		}
		if !m.External && m.Body == nil {
			errs = append(errs, ValidationError{
				Message: "internal module has no body",
				Module:  m.Name,
			})
		}
	}

	if !seen[c.Main] {
		errs = append(errs, ValidationError{
			Message: fmt.Sprintf("main module %q not found", c.Main),
		})
	}

	return errs
}
