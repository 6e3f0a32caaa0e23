package transform

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Runner schedules and executes transforms. Execution is single-threaded
// and synchronous: each transform consumes the full output of its
// predecessor, and a fatal error aborts the whole run with no partial
// result.
type Runner struct {
	log        *zap.Logger
	transforms map[string]Transform
	order      []string // registration order, used as the sort tie-break

	// ran marks transforms whose results are current; stale marks ran
	// transforms invalidated by a later structural change. A stale
	// transform re-runs the next time it is scheduled, not eagerly.
	ran   map[string]bool
	stale map[string]bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger used for pass-level progress.
func WithLogger(log *zap.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = log
	}
}

// NewRunner returns an empty Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		log:        zap.NewNop(),
		transforms: make(map[string]Transform),
		ran:        make(map[string]bool),
		stale:      make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a transform. Names must be unique within the Runner.
func (r *Runner) Register(t Transform) error {
	name := t.Name()
	if _, ok := r.transforms[name]; ok {
		return errors.Newf("transform %q registered twice", name)
	}
	r.transforms[name] = t
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the registered transform with the given name.
func (r *Runner) Lookup(name string) (Transform, bool) {
	t, ok := r.transforms[name]
	return t, ok
}

// Schedule computes the execution order for target: the transitive closure
// of its prerequisites, topologically sorted. Ties are broken by
// registration order, so sibling transforms keep their declared order.
// Optional prerequisites order transforms that are already in the closure
// but never pull new ones in.
func (r *Runner) Schedule(target string) ([]Transform, error) {
	if _, ok := r.transforms[target]; !ok {
		return nil, errors.Newf("unknown transform %q", target)
	}

	// Transitive closure over required prerequisites.
	scheduled := make(map[string]bool)
	queue := []string{target}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if scheduled[name] {
			continue
		}
		t, ok := r.transforms[name]
		if !ok {
			return nil, errors.Newf("transform %q requires unregistered transform %q", target, name)
		}
		scheduled[name] = true
		queue = append(queue, t.Prerequisites()...)
	}

	// Dependency edges: from prerequisite to dependent.
	deps := make(map[string][]string) // dependent -> prerequisites
	addEdge := func(before, after string) {
		deps[after] = append(deps[after], before)
	}
	for name := range scheduled {
		t := r.transforms[name]
		for _, pre := range t.Prerequisites() {
			addEdge(pre, name)
		}
		for _, pre := range t.OptionalPrerequisites() {
			if scheduled[pre] {
				addEdge(pre, name)
			}
		}
		for _, post := range t.OptionalPrerequisiteOf() {
			if scheduled[post] {
				addEdge(name, post)
			}
		}
	}

	// Stable topological sort (Kahn), visiting ready nodes in registration
	// order.
	indegree := make(map[string]int, len(scheduled))
	dependents := make(map[string][]string, len(scheduled))
	for name := range scheduled {
		for _, pre := range deps[name] {
			indegree[name]++
			dependents[pre] = append(dependents[pre], name)
		}
	}

	var sorted []Transform
	done := make(map[string]bool, len(scheduled))
	for len(sorted) < len(scheduled) {
		progressed := false
		for _, name := range r.order {
			if !scheduled[name] || done[name] || indegree[name] > 0 {
				continue
			}
			done[name] = true
			sorted = append(sorted, r.transforms[name])
			for _, dep := range dependents[name] {
				indegree[dep]--
			}
			progressed = true
		}
		if !progressed {
			var cycle []string
			for _, name := range r.order {
				if scheduled[name] && !done[name] {
					cycle = append(cycle, name)
				}
			}
			return nil, &Error{
				Kind:  CyclicDependency,
				Ident: strings.Join(cycle, ", "),
				Msg:   "prerequisite graph contains a cycle",
			}
		}
	}
	return sorted, nil
}

// Run executes target and its prerequisites in dependency order, threading
// state through the sequence. Transforms whose previous result is still
// current are skipped; transforms invalidated by a pass that ran since are
// executed again. The returned state carries the composition of every
// executed pass's renames.
func (r *Runner) Run(target string, state CircuitState) (CircuitState, error) {
	sorted, err := r.Schedule(target)
	if err != nil {
		return state, err
	}

	total := state.Renames
	state.Renames = nil
	for _, t := range sorted {
		name := t.Name()
		if r.ran[name] && !r.stale[name] {
			r.log.Debug("skipping transform, result current", zap.String("transform", name))
			continue
		}

		next, passRenames, err := executeOne(t, state, r.log)
		if err != nil {
			return state, err
		}
		state = next
		total = total.AndThen(passRenames)

		r.ran[name] = true
		delete(r.stale, name)
		for _, otherName := range r.order {
			if otherName == name || !r.ran[otherName] {
				continue
			}
			if t.Invalidates(r.transforms[otherName]) {
				r.log.Debug("invalidating transform",
					zap.String("transform", otherName),
					zap.String("by", name))
				r.stale[otherName] = true
			}
		}
	}
	state.Renames = total
	return state, nil
}

// RunSequence executes a fixed, hand-specified pipeline: no dependency
// inference, no skipping, just the given transforms in the given order with
// the same form checking and rename plumbing Run performs.
func RunSequence(state CircuitState, ts ...Transform) (CircuitState, error) {
	total := state.Renames
	state.Renames = nil
	for _, t := range ts {
		next, passRenames, err := executeOne(t, state, zap.NewNop())
		if err != nil {
			return state, err
		}
		state = next
		total = total.AndThen(passRenames)
	}
	state.Renames = total
	return state, nil
}

// executeOne runs a single transform: form check, execution, annotation
// resolution through the renames the pass produced.
func executeOne(t Transform, state CircuitState, log *zap.Logger) (CircuitState, *RenameMap, error) {
	name := t.Name()
	if !state.Form.Satisfies(t.InputForm()) {
		return state, nil, &Error{
			Kind:  FormMismatch,
			Ident: name,
			Msg:   "requires " + t.InputForm().String() + " form, circuit is in " + state.Form.String() + " form",
		}
	}

	start := time.Now()
	out, err := t.Execute(state)
	if err != nil {
		return state, nil, errors.Wrapf(err, "transform %s", name)
	}

	passRenames := out.Renames
	out.Renames = nil
	out.Annotations = ResolveAnnotations(out.Annotations, passRenames)

	log.Debug("ran transform",
		zap.String("transform", name),
		zap.String("form", out.Form.String()),
		zap.Int("renames", passRenames.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return out, passRenames, nil
}
