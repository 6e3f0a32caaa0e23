package memlower

import (
	"strconv"
	"strings"

	"github.com/hwgo/fir/ir"
	"github.com/hwgo/fir/transform"
)

// DedupName is the registered name of the memory dedup transform.
const DedupName = "DedupMemories"

// Dedup links physically identical memories together. The first memory with
// a given structural shape (element type, depth, mask granularity, port
// names) stays canonical; every later one gets a back-reference to it, so
// lowering emits a single shared wrapper/black-box pair for the whole group.
// Memories that already carry a back-reference are left alone.
type Dedup struct{}

// Name implements transform.Transform.
func (Dedup) Name() string { return DedupName }

// InputForm implements transform.Transform.
func (Dedup) InputForm() transform.Form { return transform.MidForm }

// OutputForm implements transform.Transform.
func (Dedup) OutputForm() transform.Form { return transform.MidForm }

// Prerequisites implements transform.Transform.
func (Dedup) Prerequisites() []string { return nil }

// OptionalPrerequisites implements transform.Transform.
func (Dedup) OptionalPrerequisites() []string { return nil }

// OptionalPrerequisiteOf implements transform.Transform.
func (Dedup) OptionalPrerequisiteOf() []string { return nil }

// Invalidates implements transform.Transform.
func (Dedup) Invalidates(transform.Transform) bool { return false }

// Execute rewrites the circuit, back-referencing duplicate memories to the
// first structurally identical declaration. Names are not changed, so no
// renames are produced.
func (Dedup) Execute(state transform.CircuitState) (transform.CircuitState, error) {
	canonical := make(map[string]ir.MemoryRef)

	modules := make([]*ir.Module, len(state.Circuit.Modules))
	for i, m := range state.Circuit.Modules {
		if m.Body == nil {
			modules[i] = m
			continue
		}
		next := *m
		next.Body = dedupStmt(m.Name, m.Body, canonical)
		modules[i] = &next
	}

	out := state
	out.Circuit = &ir.Circuit{Main: state.Circuit.Main, Modules: modules}
	out.Form = transform.MidForm
	return out, nil
}

func dedupStmt(module string, s ir.Statement, canonical map[string]ir.MemoryRef) ir.Statement {
	if mem, ok := s.(*ir.StmtMemory); ok {
		if mem.Ref != nil {
			return mem
		}
		key := memoryKey(mem)
		self := ir.MemoryRef{Module: module, Memory: mem.Name}
		canon, seen := canonical[key]
		if !seen {
			canonical[key] = self
			return mem
		}
		next := *mem
		next.Ref = &canon
		return &next
	}
	return ir.MapStmt(s, func(child ir.Statement) ir.Statement {
		return dedupStmt(module, child, canonical)
	})
}

// memoryKey builds a structural identity key: two memories with the same
// key lower to byte-identical black boxes. Port names are part of the key
// because every port name becomes a wrapper port and a flat black-box
// signal prefix; linking memories with different port names would leave
// the duplicate's module connecting to ports the shared wrapper lacks.
func memoryKey(mem *ir.StmtMemory) string {
	var sb strings.Builder
	sb.WriteString(typeKey(mem.DataType))
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(mem.Depth))
	sb.WriteByte(':')
	if mem.MaskGran != nil {
		sb.WriteString(strconv.Itoa(*mem.MaskGran))
	} else {
		sb.WriteString("none")
	}
	sb.WriteString(":r=")
	sb.WriteString(strings.Join(mem.Readers, ","))
	sb.WriteString(":w=")
	sb.WriteString(strings.Join(mem.Writers, ","))
	sb.WriteString(":rw=")
	sb.WriteString(strings.Join(mem.ReadWriters, ","))
	return sb.String()
}

func typeKey(t ir.Type) string {
	switch typ := t.(type) {
	case ir.UIntType:
		return "uint<" + strconv.Itoa(typ.Width) + ">"
	case ir.SIntType:
		return "sint<" + strconv.Itoa(typ.Width) + ">"
	case ir.ClockType:
		return "clock"
	case ir.ResetType:
		return "reset"
	case ir.VectorType:
		return typeKey(typ.Elem) + "[" + strconv.Itoa(typ.Len) + "]"
	case ir.BundleType:
		parts := make([]string, len(typ.Fields))
		for i, f := range typ.Fields {
			flip := ""
			if f.Flip {
				flip = "flip "
			}
			parts[i] = flip + f.Name + ":" + typeKey(f.Type)
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return "?"
	}
}
