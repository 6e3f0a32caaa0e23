package ir

import (
	"strings"
)

// Target is a fully qualified reference into a circuit: the circuit itself,
// a module, or a component within a module. Component may be a dotted path
// for references that reach through instances ("mem.mem_ext"). Targets are
// plain comparable values; annotations and rename maps are keyed on them.
type Target struct {
	Circuit   string
	Module    string
	Component string
}

// CircuitTarget references a whole circuit.
func CircuitTarget(circuit string) Target {
	return Target{Circuit: circuit}
}

// ModuleTarget references a module definition.
func ModuleTarget(circuit, module string) Target {
	return Target{Circuit: circuit, Module: module}
}

// ComponentTarget references a named component within a module.
func ComponentTarget(circuit, module, component string) Target {
	return Target{Circuit: circuit, Module: module, Component: component}
}

// IsCircuit reports whether t references a whole circuit.
func (t Target) IsCircuit() bool {
	return t.Module == "" && t.Component == ""
}

// IsModule reports whether t references a module definition.
func (t Target) IsModule() bool {
	return t.Module != "" && t.Component == ""
}

// Sub returns a target one instance or field deeper than t.
func (t Target) Sub(name string) Target {
	next := t
	if next.Component == "" {
		next.Component = name
	} else {
		next.Component += "." + name
	}
	return next
}

// String serializes the target as ~circuit|module>component, omitting empty
// trailing parts.
func (t Target) String() string {
	var sb strings.Builder
	sb.WriteByte('~')
	sb.WriteString(t.Circuit)
	if t.Module != "" {
		sb.WriteByte('|')
		sb.WriteString(t.Module)
	}
	if t.Component != "" {
		sb.WriteByte('>')
		sb.WriteString(t.Component)
	}
	return sb.String()
}
