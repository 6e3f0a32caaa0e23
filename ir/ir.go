package ir

// Info is an optional source locator carried by declarations, formatted the
// way the frontend printed it (for example "@[core.fir 42:10]"). It is
// propagated verbatim through transforms and used only in diagnostics.
type Info string

// NoInfo is the absent source locator.
const NoInfo Info = ""

// Circuit is the root of the IR: a named top module plus an ordered
// collection of module definitions.
type Circuit struct {
	// Main names the top module. It must exist in Modules.
	Main string

	// Modules holds every module definition, in declaration order.
	// Module names are unique within a circuit.
	Modules []*Module
}

// Module is a single module definition. External modules (black boxes)
// declare only a port list and have a nil Body.
type Module struct {
	Name     string
	Ports    []Port
	Body     Statement // nil iff External
	External bool
	Info     Info
}

// Port is a named, directed, typed module boundary.
type Port struct {
	Name string
	Dir  Direction
	Type Type
}

// Direction is the orientation of a port as seen from outside the module.
type Direction uint8

const (
	Input Direction = iota
	Output
)

// String returns the textual direction keyword.
func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Module returns the module with the given name, or nil if absent.
func (c *Circuit) Module(name string) *Module {
	for _, m := range c.Modules {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// MainModule returns the module named by Main, or nil if absent.
func (c *Circuit) MainModule() *Module {
	return c.Module(c.Main)
}
