// Package transform defines the pass pipeline for fir.
//
// A transform is a pure function from one CircuitState to another with
// declared ordering dependencies. The Runner schedules transforms by
// resolving those dependencies into a topological order, executes them
// sequentially, and threads a single CircuitState through the run,
// composing each pass's RenameMap so annotations keep resolving against
// the rewritten circuit.
//
// # State
//
// CircuitState bundles the circuit, a form tag describing how far it has
// been lowered, the annotation set, and the renames accumulated so far.
// Passes never mutate an input state; they produce a new one.
//
// # Scheduling
//
// Each transform declares prerequisites (must run first), optional
// prerequisites (ordered before if registered, never forced in), optional
// dependents (ordered after if scheduled), and an invalidation predicate.
// Scheduling is an explicit dependency graph with stable topological
// ordering; cycles are fatal. Invalidation is lazy: running a transform
// marks invalidated earlier results stale, and a stale transform re-runs
// only when it is next scheduled.
package transform
