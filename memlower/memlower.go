// Package memlower replaces abstract memory declarations with concrete
// module pairs.
//
// Every StmtMemory becomes an instance of a synthesized wrapper module. The
// wrapper keeps the memory's original structured port types, so existing
// references into the memory stay type-correct, and internally adapts them
// to a black-box external module whose ports are flat bit vectors. Memories
// back-referenced to a structurally identical canonical memory reuse the
// canonical pair instead of producing their own.
//
// The pass records every displacement in a RenameMap: the old memory
// reference resolves to the wrapper instance and to the black-box instance
// nested inside it. It also emits a structural summary annotation per
// replaced memory for downstream configuration tooling, and answers pin
// and trace requests: sink annotations are attached to the black boxes it
// created, and traced modules get the signal list an external waveform tool
// needs to probe them.
package memlower

import (
	"strconv"

	"github.com/hwgo/fir/ir"
	"github.com/hwgo/fir/transform"
)

// Name is the registered name of the memory lowering transform.
const Name = "LowerMemories"

// extSuffix distinguishes a black box from its wrapper.
const extSuffix = "_ext"

// LowerMemories is the memory lowering transform.
type LowerMemories struct{}

// Name implements transform.Transform.
func (LowerMemories) Name() string { return Name }

// InputForm implements transform.Transform.
func (LowerMemories) InputForm() transform.Form { return transform.MidForm }

// OutputForm implements transform.Transform.
func (LowerMemories) OutputForm() transform.Form { return transform.MidForm }

// Prerequisites implements transform.Transform.
func (LowerMemories) Prerequisites() []string { return []string{DedupName} }

// OptionalPrerequisites implements transform.Transform.
func (LowerMemories) OptionalPrerequisites() []string { return nil }

// OptionalPrerequisiteOf implements transform.Transform.
func (LowerMemories) OptionalPrerequisiteOf() []string { return nil }

// Invalidates implements transform.Transform.
func (LowerMemories) Invalidates(transform.Transform) bool { return false }

// memNames is the wrapper/black-box pair assigned to a canonical memory.
type memNames struct {
	wrapper  string
	blackBox string
}

type lowerer struct {
	circuit *ir.Circuit
	ns      *ir.Namespace

	names      map[ir.MemoryRef]memNames
	emitted    []*ir.Module
	blackBoxes []string
	summaries  []transform.MemorySummary
	probes     map[string][]transform.ProbeSignal // module -> lowered memory signals
	renames    *transform.RenameMap
	errs       transform.Errors
}

// Execute lowers every memory in the circuit. All violations found are
// reported together; on error the input state is returned unchanged and no
// modules are emitted.
func (LowerMemories) Execute(state transform.CircuitState) (transform.CircuitState, error) {
	l := &lowerer{
		circuit: state.Circuit,
		ns:      ir.CircuitNamespace(state.Circuit),
		names:   make(map[ir.MemoryRef]memNames),
		probes:  make(map[string][]transform.ProbeSignal),
		renames: transform.NewRenameMap(),
	}

	l.assignNames()

	modules := make([]*ir.Module, 0, len(state.Circuit.Modules))
	for _, m := range state.Circuit.Modules {
		modules = append(modules, l.rewriteModule(m))
	}
	if l.errs.HasErrors() {
		return state, l.errs
	}
	modules = append(modules, l.emitted...)

	annos := make([]transform.Annotation, 0, len(state.Annotations)+1)
	annos = append(annos, state.Annotations...)
	annos = append(annos, l.pinSinks(state.Annotations)...)
	annos = append(annos, l.traceProbes(state.Annotations, modules)...)
	if len(l.summaries) > 0 {
		annos = append(annos, transform.MemorySummaryAnnotation{
			T:         ir.CircuitTarget(state.Circuit.Main),
			Summaries: l.summaries,
		})
	}

	out := state
	out.Circuit = &ir.Circuit{Main: state.Circuit.Main, Modules: modules}
	out.Form = transform.MidForm
	out.Annotations = annos
	out.Renames = l.renames
	return out, nil
}

// assignNames walks every module and allocates the wrapper and black-box
// names for each canonical memory up front, so duplicates in earlier modules
// can reference canonical memories in later ones.
func (l *lowerer) assignNames() {
	for _, m := range l.circuit.Modules {
		ir.WalkStmt(m.Body, func(s ir.Statement) {
			mem, ok := s.(*ir.StmtMemory)
			if !ok || mem.Ref != nil {
				return
			}
			wrapper := l.ns.Allocate(mem.Name)
			blackBox := l.ns.Allocate(wrapper + extSuffix)
			l.names[ir.MemoryRef{Module: m.Name, Memory: mem.Name}] = memNames{wrapper: wrapper, blackBox: blackBox}
		})
	}
}

func (l *lowerer) rewriteModule(m *ir.Module) *ir.Module {
	if m.Body == nil {
		return m
	}

	// Memories without a write mask, for scrubbing residual mask connects
	// once the declaration is gone.
	noMask := make(map[string]bool)
	ir.WalkStmt(m.Body, func(s ir.Statement) {
		if mem, ok := s.(*ir.StmtMemory); ok && mem.MaskGran == nil {
			noMask[mem.Name] = true
		}
	})

	body := l.rewriteStmt(m.Name, m.Body)
	if len(noMask) > 0 {
		body = scrubMaskConnects(body, noMask)
	}

	next := *m
	next.Body = body
	return &next
}

func (l *lowerer) rewriteStmt(module string, s ir.Statement) ir.Statement {
	if mem, ok := s.(*ir.StmtMemory); ok {
		return l.rewriteMemory(module, mem)
	}
	return ir.MapStmt(s, func(child ir.Statement) ir.Statement {
		return l.rewriteStmt(module, child)
	})
}

// rewriteMemory replaces a memory declaration with a wrapper instance,
// emitting the wrapper and black-box modules when the memory is canonical.
func (l *lowerer) rewriteMemory(module string, mem *ir.StmtMemory) ir.Statement {
	key := ir.MemoryRef{Module: module, Memory: mem.Name}
	if mem.Ref != nil {
		key = *mem.Ref
	}
	names, ok := l.names[key]
	if !ok {
		l.errs.Add(&transform.Error{
			Kind:   transform.UnresolvedReference,
			Ident:  key.Module + "." + key.Memory,
			Module: module,
			Info:   mem.Info,
			Msg:    "back-reference to unknown canonical memory",
		})
		return mem
	}

	if mem.Ref == nil {
		if err := l.emitMemoryModules(names, mem); err != nil {
			l.errs.Add(err)
			return mem
		}
	}

	l.recordProbes(module, mem, names)

	// The one declaration is now two nested instances: the enclosing module
	// instantiates the wrapper, the wrapper instantiates the black box.
	from := ir.ComponentTarget(l.circuit.Main, module, mem.Name)
	l.renames.Record(from,
		ir.ComponentTarget(l.circuit.Main, module, mem.Name),
		ir.ComponentTarget(l.circuit.Main, module, mem.Name+"."+names.blackBox),
	)
	return &ir.StmtInstance{Name: mem.Name, Module: names.wrapper, Info: mem.Info}
}

// emitMemoryModules builds the black box and wrapper for a canonical memory.
func (l *lowerer) emitMemoryModules(names memNames, mem *ir.StmtMemory) *transform.Error {
	if !ir.Known(mem.DataType) {
		return &transform.Error{
			Kind:  transform.StructuralViolation,
			Ident: mem.Name,
			Info:  mem.Info,
			Msg:   "memory element type has unknown width",
		}
	}
	dataWidth, err := ir.BitWidth(mem.DataType)
	if err != nil {
		return &transform.Error{
			Kind:  transform.StructuralViolation,
			Ident: mem.Name,
			Info:  mem.Info,
			Msg:   err.Error(),
		}
	}

	var structuredMask ir.Type
	maskWidth := 0
	if mem.MaskGran != nil {
		structuredMask, maskWidth, err = maskType(mem.DataType, dataWidth, *mem.MaskGran)
		if err != nil {
			return &transform.Error{
				Kind:  transform.StructuralViolation,
				Ident: mem.Name,
				Info:  mem.Info,
				Msg:   err.Error(),
			}
		}
	}

	addrWidth := ir.AddrWidth(mem.Depth)

	blackBox := &ir.Module{
		Name:     names.blackBox,
		Ports:    flatPorts(mem, dataWidth, addrWidth, maskWidth),
		External: true,
		Info:     mem.Info,
	}
	wrapper := &ir.Module{
		Name:  names.wrapper,
		Ports: structuredPorts(mem, structuredMask, addrWidth),
		Body:  wrapperBody(names, mem, structuredMask),
		Info:  mem.Info,
	}

	l.emitted = append(l.emitted, wrapper, blackBox)
	l.blackBoxes = append(l.blackBoxes, names.blackBox)

	gran := 0
	if mem.MaskGran != nil {
		gran = *mem.MaskGran
	}
	l.summaries = append(l.summaries, transform.MemorySummary{
		Name:        names.blackBox,
		Width:       dataWidth,
		Depth:       mem.Depth,
		MaskGran:    gran,
		Readers:     len(mem.Readers),
		Writers:     len(mem.Writers),
		ReadWriters: len(mem.ReadWriters),
	})
	return nil
}

// pinSinks answers pin annotations: each requested pin gets a sink
// annotation on every black box this run emitted, for the pin-wiring
// transform to connect later.
func (l *lowerer) pinSinks(annos []transform.Annotation) []transform.Annotation {
	var out []transform.Annotation
	for _, a := range annos {
		pin, ok := a.(transform.PinAnnotation)
		if !ok {
			continue
		}
		for _, name := range pin.Pins {
			for _, bb := range l.blackBoxes {
				out = append(out, transform.SinkAnnotation{
					T:   ir.ModuleTarget(l.circuit.Main, bb),
					Pin: name,
				})
			}
		}
	}
	return out
}

// recordProbes notes the flat signals of a lowered memory under its
// enclosing module, in case the module is traced. Duplicates share the
// canonical memory's structure, so the flat ports can always be derived
// from the declaration at hand.
func (l *lowerer) recordProbes(module string, mem *ir.StmtMemory, names memNames) {
	dataWidth, err := ir.BitWidth(mem.DataType)
	if err != nil {
		return
	}
	maskWidth := 0
	if mem.MaskGran != nil {
		if _, w, err := maskType(mem.DataType, dataWidth, *mem.MaskGran); err == nil {
			maskWidth = w
		}
	}
	for _, p := range flatPorts(mem, dataWidth, ir.AddrWidth(mem.Depth), maskWidth) {
		w, err := ir.BitWidth(p.Type)
		if err != nil {
			continue
		}
		l.probes[module] = append(l.probes[module], transform.ProbeSignal{
			Name:  mem.Name + "." + names.blackBox + "." + p.Name,
			Width: w,
		})
	}
}

// traceProbes answers trace annotations: each traced module gets a probe
// annotation listing its port signals and the flat signals of the memories
// lowered inside it.
func (l *lowerer) traceProbes(annos []transform.Annotation, modules []*ir.Module) []transform.Annotation {
	byName := make(map[string]*ir.Module, len(modules))
	for _, m := range modules {
		byName[m.Name] = m
	}

	var out []transform.Annotation
	for _, a := range annos {
		trace, ok := a.(transform.TraceAnnotation)
		if !ok || !trace.T.IsModule() {
			continue
		}
		m, ok := byName[trace.T.Module]
		if !ok {
			continue
		}
		var signals []transform.ProbeSignal
		for _, p := range m.Ports {
			w, err := ir.BitWidth(p.Type)
			if err != nil {
				continue
			}
			signals = append(signals, transform.ProbeSignal{Name: p.Name, Width: w})
		}
		signals = append(signals, l.probes[m.Name]...)
		if len(signals) == 0 {
			continue
		}
		out = append(out, transform.ProbeAnnotation{T: trace.T, Signals: signals})
	}
	return out
}

// scrubMaskConnects turns connects into lowered no-mask memories' mask
// fields into no-ops: the black box exposes no such port, and a dangling
// mask write is defined to be harmless rather than an error.
func scrubMaskConnects(s ir.Statement, noMask map[string]bool) ir.Statement {
	if conn, ok := s.(*ir.StmtConnect); ok {
		if isMaskField(conn.Dst) && noMask[ir.RefRoot(conn.Dst)] {
			return &ir.StmtEmpty{}
		}
		return s
	}
	return ir.MapStmt(s, func(child ir.Statement) ir.Statement {
		return scrubMaskConnects(child, noMask)
	})
}

func isMaskField(e ir.Expression) bool {
	sub, ok := e.(*ir.ExprSubField)
	if !ok {
		return false
	}
	return sub.Name == "mask" || sub.Name == "wmask"
}

// maskType derives the structured write-mask type from the element type:
// every ground of width w contributes w/gran mask bits. When gran covers
// the whole element ("fill" semantics) the mask is a single bit. Element
// types with aggregates nested inside aggregates are rejected: the
// correspondence between mask bits and port bits would be ambiguous.
func maskType(data ir.Type, dataWidth, gran int) (ir.Type, int, error) {
	if gran <= 0 {
		return nil, 0, &granError{msg: "mask granularity must be positive, got " + strconv.Itoa(gran)}
	}
	switch typ := data.(type) {
	case ir.UIntType, ir.SIntType:
		if gran == dataWidth {
			return ir.UIntType{Width: 1}, 1, nil
		}
		w := groundWidth(data)
		if w%gran != 0 {
			return nil, 0, &granError{msg: "mask granularity " + strconv.Itoa(gran) + " does not divide element width " + strconv.Itoa(w)}
		}
		return ir.UIntType{Width: w / gran}, w / gran, nil
	case ir.VectorType:
		elem, ok := groundElem(typ.Elem)
		if !ok {
			return nil, 0, &granError{msg: "masked memory element type nests an aggregate inside an aggregate"}
		}
		if gran == dataWidth {
			return ir.UIntType{Width: 1}, 1, nil
		}
		if elem%gran != 0 {
			return nil, 0, &granError{msg: "mask granularity " + strconv.Itoa(gran) + " does not divide vector element width " + strconv.Itoa(elem)}
		}
		bits := elem / gran
		return ir.VectorType{Elem: ir.UIntType{Width: bits}, Len: typ.Len}, bits * typ.Len, nil
	case ir.BundleType:
		return nil, 0, &granError{msg: "masked memory element type is a bundle"}
	default:
		return nil, 0, &granError{msg: "masked memory element type cannot carry a mask"}
	}
}

type granError struct {
	msg string
}

func (e *granError) Error() string { return e.msg }

func groundWidth(t ir.Type) int {
	switch typ := t.(type) {
	case ir.UIntType:
		return typ.Width
	case ir.SIntType:
		return typ.Width
	default:
		return 0
	}
}

func groundElem(t ir.Type) (int, bool) {
	switch t.(type) {
	case ir.UIntType, ir.SIntType:
		return groundWidth(t), true
	default:
		return 0, false
	}
}
