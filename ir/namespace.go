package ir

import (
	"strconv"
)

// tempPrefix is reserved at construction so no externally chosen name can
// collide with a generated temporary: every Temp result carries a numeric
// suffix because the bare prefix is always already in use.
const tempPrefix = "_GEN"

// Namespace allocates collision-free names within one scope (a module or a
// circuit). It is owned by the single pass invocation that created it and is
// discarded afterwards; it is never shared between passes.
type Namespace struct {
	used map[string]struct{}
	n    int
}

// NewNamespace returns a namespace seeded with the given names.
func NewNamespace(names ...string) *Namespace {
	ns := &Namespace{used: make(map[string]struct{}, len(names)+1)}
	ns.used[tempPrefix] = struct{}{}
	for _, name := range names {
		ns.used[name] = struct{}{}
	}
	return ns
}

// ModuleNamespace returns a namespace seeded with the module's port names and
// every declaration name reachable through its body, including declarations
// nested in blocks and in both branches of conditionals.
func ModuleNamespace(m *Module) *Namespace {
	ns := NewNamespace()
	for _, p := range m.Ports {
		ns.used[p.Name] = struct{}{}
	}
	WalkStmt(m.Body, func(s Statement) {
		switch stmt := s.(type) {
		case *StmtWire:
			ns.used[stmt.Name] = struct{}{}
		case *StmtRegister:
			ns.used[stmt.Name] = struct{}{}
		case *StmtInstance:
			ns.used[stmt.Name] = struct{}{}
		case *StmtMemory:
			ns.used[stmt.Name] = struct{}{}
		}
	})
	return ns
}

// CircuitNamespace returns a namespace seeded with every module name in the
// circuit.
func CircuitNamespace(c *Circuit) *Namespace {
	ns := NewNamespace()
	for _, m := range c.Modules {
		ns.used[m.Name] = struct{}{}
	}
	return ns
}

// Contains reports whether name is already in use. It never mutates.
func (ns *Namespace) Contains(name string) bool {
	_, ok := ns.used[name]
	return ok
}

// Allocate returns candidate unchanged if it is unused, marking it used.
// Otherwise it retries with monotonically increasing numeric suffixes until
// an unused name is found.
func (ns *Namespace) Allocate(candidate string) string {
	if !ns.Contains(candidate) {
		ns.used[candidate] = struct{}{}
		return candidate
	}
	for {
		name := candidate + "_" + strconv.Itoa(ns.n)
		ns.n++
		if !ns.Contains(name) {
			ns.used[name] = struct{}{}
			return name
		}
	}
}

// Temp allocates a fresh name under the reserved temporary prefix.
func (ns *Namespace) Temp() string {
	return ns.Allocate(tempPrefix)
}
