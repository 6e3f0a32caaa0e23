// Package fir provides the transformation middle-end of a hardware circuit
// compiler: a typed IR for synchronous digital circuits and a pipeline of
// composable rewrite passes that lower and specialize circuits while
// keeping side-channel annotations valid across structural rewrites.
//
// The package provides a high-level API over the standard pipeline as well
// as lower-level access to the individual pieces: the ir package holds the
// circuit IR, the transform package the pass pipeline engine, and the
// memlower package the memory lowering pass.
//
// Example usage:
//
//	state, err := fir.Lower(circuit, annotations)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// state.Circuit has every abstract memory replaced by module pairs,
//	// state.Annotations is rewritten against the new structure, and
//	// state.Renames maps every displaced reference.
package fir

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hwgo/fir/ir"
	"github.com/hwgo/fir/memlower"
	"github.com/hwgo/fir/transform"
)

// Options configures a lowering run.
type Options struct {
	// Logger receives pass-level progress at debug level.
	Logger *zap.Logger

	// Validate checks the circuit's structural invariants before running.
	Validate bool
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		Logger:   zap.NewNop(),
		Validate: true,
	}
}

// Lower runs the standard pipeline over a circuit using default options.
func Lower(c *ir.Circuit, annos []transform.Annotation) (transform.CircuitState, error) {
	return LowerWithOptions(c, annos, DefaultOptions())
}

// LowerWithOptions runs the standard pipeline with custom options.
//
// The pipeline is:
//  1. Validate the circuit's structural invariants (if enabled)
//  2. Deduplicate physically identical memories
//  3. Lower memories to wrapper and black-box module pairs
func LowerWithOptions(c *ir.Circuit, annos []transform.Annotation, opts Options) (transform.CircuitState, error) {
	state := transform.NewCircuitState(c, transform.MidForm, annos)

	if opts.Validate {
		if err := validate(c); err != nil {
			return state, errors.Wrap(err, "invalid circuit")
		}
	}

	runner, err := NewRunner(opts.Logger)
	if err != nil {
		return state, err
	}
	return runner.Run(memlower.Name, state)
}

// NewRunner returns a Runner with the standard transforms registered.
func NewRunner(log *zap.Logger) (*transform.Runner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	runner := transform.NewRunner(transform.WithLogger(log))
	for _, t := range []transform.Transform{
		memlower.Dedup{},
		memlower.LowerMemories{},
	} {
		if err := runner.Register(t); err != nil {
			return nil, err
		}
	}
	return runner, nil
}

// validate folds the circuit's batch validation report into one error.
func validate(c *ir.Circuit) error {
	var err error
	for _, v := range ir.Validate(c) {
		err = multierr.Append(err, v)
	}
	return err
}
