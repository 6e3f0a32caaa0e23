package transform

// Transform is a single pass over a CircuitState. This interface is the
// only contract the Runner needs to schedule and execute arbitrary passes,
// including collaborators outside the middle-end (parsers and emitters
// wrapped as pseudo-transforms).
type Transform interface {
	// Name identifies the transform; unique within a Runner.
	Name() string

	// InputForm is the form the input state must satisfy.
	InputForm() Form

	// OutputForm is the form the output state is tagged with.
	OutputForm() Form

	// Prerequisites names transforms that must have run before this one.
	Prerequisites() []string

	// OptionalPrerequisites names transforms that are ordered before this
	// one when registered, but are never pulled into the schedule by it.
	OptionalPrerequisites() []string

	// OptionalPrerequisiteOf names transforms that, when scheduled, must
	// run after this one.
	OptionalPrerequisiteOf() []string

	// Invalidates reports whether running this transform forces other, if
	// previously run, to run again.
	Invalidates(other Transform) bool

	// Execute produces the next state. The output's Renames field holds
	// only the renames this execution produced; the Runner composes them
	// into the running state.
	Execute(state CircuitState) (CircuitState, error)
}
