// Package ir defines the intermediate representation for fir.
//
// The IR is a typed tree describing a synchronous digital circuit
// between parsing and emission. It is designed to be:
//   - Source-agnostic: not tied to any particular hardware description language
//   - Immutable: transforms never edit nodes in place, they build replacement subtrees
//   - Explicit: every variant family (types, statements, expressions) is a closed
//     tagged sum, and every traversal enumerates the variants exhaustively
//
// # Structure
//
// The IR is organized around a Circuit that contains:
//   - Modules: internal modules with a statement body, and external (black box)
//     modules that declare only a port list
//   - Ports: named, directed, typed module boundaries; bundle fields may be
//     flipped to represent bidirectional aggregate wiring
//   - Statements: declarations, connections, conditionals, and blocks forming
//     a module body
//   - Expressions: references into declared components, sub-selections, and
//     primitive operations
//
// # Pipeline
//
// The typical pipeline is:
//
//	Source text → parser (external) → IR → transforms → emitter (external)
//
// Transforms rebuild the tree; side-channel metadata that points into the
// tree is kept valid through rename maps (see the transform package).
package ir
