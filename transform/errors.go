package transform

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/hwgo/fir/ir"
)

// ErrorKind classifies a compile error.
type ErrorKind uint8

const (
	// StructuralViolation is an IR shape the transform cannot lower, for
	// example a masked memory with a nested-aggregate element type.
	StructuralViolation ErrorKind = iota
	// UnresolvedReference is a dangling reference, for example a duplicate
	// memory whose back-reference names no known canonical memory.
	UnresolvedReference
	// CyclicDependency is a cycle in the transform prerequisite graph.
	CyclicDependency
	// FormMismatch is a transform run against a state whose form does not
	// satisfy the transform's declared input form.
	FormMismatch
)

// String returns the kind's name.
func (k ErrorKind) String() string {
	switch k {
	case StructuralViolation:
		return "structural violation"
	case UnresolvedReference:
		return "unresolved reference"
	case CyclicDependency:
		return "cyclic dependency"
	case FormMismatch:
		return "form mismatch"
	default:
		return "unknown error"
	}
}

// Error is a single compile error. Kind and Ident identify what failed;
// Module and Info locate it when known. None of these errors are retried:
// each aborts the enclosing compile request.
type Error struct {
	Kind   ErrorKind
	Ident  string // offending identifier (memory, transform, reference)
	Module string
	Info   ir.Info
	Msg    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Ident != "" {
		s += ": " + e.Ident
	}
	if e.Module != "" {
		s += " (in module " + e.Module + ")"
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Info != ir.NoInfo {
		s += " " + string(e.Info)
	}
	return s
}

// Errors is a batch of compile errors. Transforms report every violation
// found in a single pass over the IR rather than stopping at the first.
type Errors []*Error

// Error implements the error interface.
func (el Errors) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
	}
}

// Add appends an error to the batch.
func (el *Errors) Add(e *Error) {
	*el = append(*el, e)
}

// HasErrors reports whether the batch is non-empty.
func (el Errors) HasErrors() bool {
	return len(el) > 0
}

// AsErrors unwraps err to the Errors batch it carries, if any. Single
// *Error values are wrapped into a one-element batch so callers can assert
// uniformly on kind and identifier.
func AsErrors(err error) (Errors, bool) {
	var batch Errors
	if errors.As(err, &batch) {
		return batch, true
	}
	var single *Error
	if errors.As(err, &single) {
		return Errors{single}, true
	}
	return nil, false
}
