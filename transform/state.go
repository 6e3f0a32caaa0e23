package transform

import (
	"github.com/hwgo/fir/ir"
)

// CircuitState is the single value threaded through the pipeline: a snapshot
// of the circuit, its form, the annotation set, and the renames accumulated
// by the passes that produced it. Passes never mutate an input state in
// place; they return a new one.
type CircuitState struct {
	Circuit     *ir.Circuit
	Form        Form
	Annotations []Annotation

	// Renames holds this state's pending rename map. A pass returns the
	// renames it produced itself; the Runner composes them into the running
	// total and clears the field between passes.
	Renames *RenameMap
}

// NewCircuitState wraps a circuit and annotations in a starting state.
func NewCircuitState(c *ir.Circuit, form Form, annos []Annotation) CircuitState {
	return CircuitState{Circuit: c, Form: form, Annotations: annos}
}
