package transform

import (
	"github.com/hwgo/fir/ir"
)

// RenameMap records how a structural rewrite displaced references. Each
// entry maps an old fully qualified target to zero, one, or many new
// targets: zero means the target was deleted, many means it was split (for
// example one memory declaration replaced by a wrapper instance containing
// a black-box instance).
//
// A RenameMap is created fresh by each pass that renames anything and is
// merged into the running CircuitState by the Runner.
type RenameMap struct {
	entries map[ir.Target][]ir.Target
}

// NewRenameMap returns an empty rename map.
func NewRenameMap() *RenameMap {
	return &RenameMap{entries: make(map[ir.Target][]ir.Target)}
}

// Record associates from with its replacements. Recording the same from
// twice overwrites: the last write is the final answer. Recording with no
// replacements marks the target deleted.
func (r *RenameMap) Record(from ir.Target, to ...ir.Target) {
	stored := make([]ir.Target, len(to))
	copy(stored, to)
	r.entries[from] = stored
}

// Get returns the recorded replacements for from. The second result is
// false when nothing was recorded, which is distinct from a recorded
// deletion (true with an empty slice).
func (r *RenameMap) Get(from ir.Target) ([]ir.Target, bool) {
	if r == nil {
		return nil, false
	}
	to, ok := r.entries[from]
	return to, ok
}

// Targets resolves from, falling back to identity when nothing was
// recorded. A recorded deletion resolves to nothing.
func (r *RenameMap) Targets(from ir.Target) []ir.Target {
	if to, ok := r.Get(from); ok {
		return to
	}
	return []ir.Target{from}
}

// Len returns the number of recorded entries.
func (r *RenameMap) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// AndThen composes r with other: resolving a target through the result is
// equivalent to resolving through r and then resolving each produced target
// through other. A target r maps to nothing stays deleted no matter what
// other records. Composition is associative.
func (r *RenameMap) AndThen(other *RenameMap) *RenameMap {
	if r == nil || len(r.entries) == 0 {
		return cloneRenameMap(other)
	}
	if other == nil || len(other.entries) == 0 {
		return cloneRenameMap(r)
	}

	out := NewRenameMap()
	for from, tos := range r.entries {
		if len(tos) == 0 {
			out.entries[from] = nil
			continue
		}
		resolved := make([]ir.Target, 0, len(tos))
		for _, t := range tos {
			resolved = append(resolved, other.Targets(t)...)
		}
		out.entries[from] = resolved
	}
	for from, tos := range other.entries {
		if _, ok := r.entries[from]; !ok {
			stored := make([]ir.Target, len(tos))
			copy(stored, tos)
			out.entries[from] = stored
		}
	}
	return out
}

func cloneRenameMap(r *RenameMap) *RenameMap {
	out := NewRenameMap()
	if r == nil {
		return out
	}
	for from, tos := range r.entries {
		stored := make([]ir.Target, len(tos))
		copy(stored, tos)
		out.entries[from] = stored
	}
	return out
}
