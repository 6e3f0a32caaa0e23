package memlower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwgo/fir/ir"
	"github.com/hwgo/fir/transform"
)

func lower(t *testing.T, c *ir.Circuit, annos ...transform.Annotation) transform.CircuitState {
	t.Helper()
	out, err := LowerMemories{}.Execute(transform.NewCircuitState(c, transform.MidForm, annos))
	require.NoError(t, err)
	return out
}

func singleMemCircuit(mem *ir.StmtMemory) *ir.Circuit {
	return &ir.Circuit{Main: "Top", Modules: []*ir.Module{
		{Name: "Top", Body: ir.Block(mem)},
	}}
}

func portMap(t *testing.T, m *ir.Module) map[string]ir.Port {
	t.Helper()
	out := make(map[string]ir.Port, len(m.Ports))
	for _, p := range m.Ports {
		out[p.Name] = p
	}
	return out
}

func connectStrings(body ir.Statement) []string {
	var out []string
	ir.WalkStmt(body, func(s ir.Statement) {
		if conn, ok := s.(*ir.StmtConnect); ok {
			out = append(out, ir.ExprString(conn.Dst)+" <= "+ir.ExprString(conn.Src))
		}
	})
	return out
}

func TestLower_SimpleMemory(t *testing.T) {
	out := lower(t, singleMemCircuit(simpleMem("m")))

	require.Len(t, out.Circuit.Modules, 3)

	// No abstract memories survive lowering.
	for _, m := range out.Circuit.Modules {
		ir.WalkStmt(m.Body, func(s ir.Statement) {
			_, isMem := s.(*ir.StmtMemory)
			assert.False(t, isMem, "StmtMemory left in module %s", m.Name)
		})
	}

	bb := out.Circuit.Module("m_ext")
	require.NotNil(t, bb)
	assert.True(t, bb.External)

	ports := portMap(t, bb)
	require.Len(t, ports, 8)
	assert.Equal(t, ir.Port{Name: "r_addr", Dir: ir.Input, Type: ir.UIntType{Width: 2}}, ports["r_addr"])
	assert.Equal(t, ir.Port{Name: "r_en", Dir: ir.Input, Type: ir.UIntType{Width: 1}}, ports["r_en"])
	assert.Equal(t, ir.Port{Name: "r_clk", Dir: ir.Input, Type: ir.ClockType{}}, ports["r_clk"])
	assert.Equal(t, ir.Port{Name: "r_data", Dir: ir.Output, Type: ir.UIntType{Width: 8}}, ports["r_data"])
	assert.Equal(t, ir.Port{Name: "w_data", Dir: ir.Input, Type: ir.UIntType{Width: 8}}, ports["w_data"])
	_, hasMask := ports["w_mask"]
	assert.False(t, hasMask, "unmasked memory must expose no mask port")

	// The wrapper keeps the structured shape and adapts to the black box.
	wrapper := out.Circuit.Module("m")
	require.NotNil(t, wrapper)
	assert.False(t, wrapper.External)

	wports := portMap(t, wrapper)
	require.Len(t, wports, 2)
	rbundle, ok := wports["r"].Type.(ir.BundleType)
	require.True(t, ok)
	require.Len(t, rbundle.Fields, 4)
	assert.Equal(t, ir.Field{Name: "data", Flip: true, Type: ir.UIntType{Width: 8}}, rbundle.Fields[3])

	var inst *ir.StmtInstance
	ir.WalkStmt(wrapper.Body, func(s ir.Statement) {
		if i, ok := s.(*ir.StmtInstance); ok {
			inst = i
		}
	})
	require.NotNil(t, inst)
	assert.Equal(t, "m_ext", inst.Module)

	conns := connectStrings(wrapper.Body)
	assert.Contains(t, conns, "m_ext.r_addr <= r.addr")
	assert.Contains(t, conns, "m_ext.r_en <= r.en")
	assert.Contains(t, conns, "m_ext.r_clk <= r.clk")
	// 8-bit ground data needs no reshaping in either direction.
	assert.Contains(t, conns, "r.data <= m_ext.r_data")
	assert.Contains(t, conns, "m_ext.w_data <= w.data")

	// Original declaration replaced by an instance of the wrapper.
	var topInst *ir.StmtInstance
	ir.WalkStmt(out.Circuit.Module("Top").Body, func(s ir.Statement) {
		if i, ok := s.(*ir.StmtInstance); ok {
			topInst = i
		}
	})
	require.NotNil(t, topInst)
	assert.Equal(t, "m", topInst.Name)
	assert.Equal(t, "m", topInst.Module)
}

func TestLower_RecordsTwoHopRename(t *testing.T) {
	out := lower(t, singleMemCircuit(simpleMem("m")))

	got := out.Renames.Targets(ir.ComponentTarget("Top", "Top", "m"))
	assert.Equal(t, []ir.Target{
		ir.ComponentTarget("Top", "Top", "m"),
		ir.ComponentTarget("Top", "Top", "m.m_ext"),
	}, got)
}

func TestLower_PerBitMask(t *testing.T) {
	mem := simpleMem("m")
	gran := 1
	mem.MaskGran = &gran

	out := lower(t, singleMemCircuit(mem))

	// One mask bit per data bit, on black box and wrapper alike.
	ports := portMap(t, out.Circuit.Module("m_ext"))
	assert.Equal(t, ir.Port{Name: "w_mask", Dir: ir.Input, Type: ir.UIntType{Width: 8}}, ports["w_mask"])

	wports := portMap(t, out.Circuit.Module("m"))
	wbundle := wports["w"].Type.(ir.BundleType)
	require.Len(t, wbundle.Fields, 5)
	assert.Equal(t, ir.Field{Name: "mask", Type: ir.UIntType{Width: 8}}, wbundle.Fields[4])

	conns := connectStrings(out.Circuit.Module("m").Body)
	assert.Contains(t, conns, "m_ext.w_mask <= w.mask")
}

func TestLower_GroupedMaskPacksToWidthOverGran(t *testing.T) {
	mem := simpleMem("m")
	gran := 4
	mem.MaskGran = &gran

	out := lower(t, singleMemCircuit(mem))

	ports := portMap(t, out.Circuit.Module("m_ext"))
	assert.Equal(t, ir.UIntType{Width: 2}, ports["w_mask"].Type, "8-bit data at gran 4 packs to 2 mask bits")
}

func TestLower_FillMaskIsSingleBit(t *testing.T) {
	mem := simpleMem("m")
	gran := 8 // covers the whole element
	mem.MaskGran = &gran

	out := lower(t, singleMemCircuit(mem))

	ports := portMap(t, out.Circuit.Module("m_ext"))
	assert.Equal(t, ir.UIntType{Width: 1}, ports["w_mask"].Type)
}

func TestLower_VectorDataPacksAndUnpacks(t *testing.T) {
	mem := simpleMem("m")
	mem.DataType = ir.VectorType{Elem: ir.UIntType{Width: 8}, Len: 2}

	out := lower(t, singleMemCircuit(mem))

	ports := portMap(t, out.Circuit.Module("m_ext"))
	assert.Equal(t, ir.UIntType{Width: 16}, ports["r_data"].Type)
	assert.Equal(t, ir.UIntType{Width: 16}, ports["w_data"].Type)

	conns := connectStrings(out.Circuit.Module("m").Body)
	// Highest index on top when packing; inverse slices when unpacking.
	assert.Contains(t, conns, "m_ext.w_data <= cat(w.data[1], w.data[0])")
	assert.Contains(t, conns, "r.data[0] <= bits(m_ext.r_data, 7, 0)")
	assert.Contains(t, conns, "r.data[1] <= bits(m_ext.r_data, 15, 8)")
}

func TestLower_BundleDataUnmasked(t *testing.T) {
	mem := simpleMem("m")
	mem.DataType = ir.BundleType{Fields: []ir.Field{
		{Name: "a", Type: ir.UIntType{Width: 8}},
		{Name: "b", Type: ir.UIntType{Width: 4}},
	}}

	out := lower(t, singleMemCircuit(mem))

	ports := portMap(t, out.Circuit.Module("m_ext"))
	assert.Equal(t, ir.UIntType{Width: 12}, ports["w_data"].Type)

	conns := connectStrings(out.Circuit.Module("m").Body)
	// First field on top.
	assert.Contains(t, conns, "m_ext.w_data <= cat(w.data.a, w.data.b)")
	assert.Contains(t, conns, "r.data.b <= bits(m_ext.r_data, 3, 0)")
	assert.Contains(t, conns, "r.data.a <= bits(m_ext.r_data, 11, 4)")
}

func TestLower_VectorDataMasked(t *testing.T) {
	mem := simpleMem("m")
	mem.DataType = ir.VectorType{Elem: ir.UIntType{Width: 8}, Len: 2}
	gran := 8
	mem.MaskGran = &gran

	out := lower(t, singleMemCircuit(mem))

	ports := portMap(t, out.Circuit.Module("m_ext"))
	assert.Equal(t, ir.UIntType{Width: 2}, ports["w_mask"].Type, "16 data bits at gran 8 need 2 mask bits")

	wports := portMap(t, out.Circuit.Module("m"))
	wbundle := wports["w"].Type.(ir.BundleType)
	assert.Equal(t,
		ir.Field{Name: "mask", Type: ir.VectorType{Elem: ir.UIntType{Width: 1}, Len: 2}},
		wbundle.Fields[4])

	conns := connectStrings(out.Circuit.Module("m").Body)
	assert.Contains(t, conns, "m_ext.w_mask <= cat(w.mask[1], w.mask[0])")
}

func TestLower_ReadWriterPorts(t *testing.T) {
	mem := &ir.StmtMemory{
		Name:        "m",
		DataType:    ir.UIntType{Width: 8},
		Depth:       16,
		ReadWriters: []string{"rw"},
	}
	gran := 1
	mem.MaskGran = &gran

	out := lower(t, singleMemCircuit(mem))

	ports := portMap(t, out.Circuit.Module("m_ext"))
	require.Len(t, ports, 7)
	assert.Equal(t, ir.UIntType{Width: 4}, ports["rw_addr"].Type)
	assert.Equal(t, ir.UIntType{Width: 1}, ports["rw_wmode"].Type)
	assert.Equal(t, ir.Port{Name: "rw_wdata", Dir: ir.Input, Type: ir.UIntType{Width: 8}}, ports["rw_wdata"])
	assert.Equal(t, ir.Port{Name: "rw_rdata", Dir: ir.Output, Type: ir.UIntType{Width: 8}}, ports["rw_rdata"])
	assert.Equal(t, ir.UIntType{Width: 8}, ports["rw_wmask"].Type)

	conns := connectStrings(out.Circuit.Module("m").Body)
	assert.Contains(t, conns, "m_ext.rw_wmode <= rw.wmode")
	assert.Contains(t, conns, "m_ext.rw_wdata <= rw.wdata")
	assert.Contains(t, conns, "rw.rdata <= m_ext.rw_rdata")
	assert.Contains(t, conns, "m_ext.rw_wmask <= rw.wmask")
}

func TestLower_DuplicateSharesCanonicalPair(t *testing.T) {
	canonical := simpleMem("m1")
	duplicate := simpleMem("m2")
	duplicate.Ref = &ir.MemoryRef{Module: "Top", Memory: "m1"}

	c := &ir.Circuit{Main: "Top", Modules: []*ir.Module{
		{Name: "Top", Body: ir.Block(canonical)},
		{Name: "Other", Body: ir.Block(duplicate)},
	}}

	out := lower(t, c)

	// Exactly one wrapper/black-box pair for the whole group.
	require.Len(t, out.Circuit.Modules, 4)
	require.NotNil(t, out.Circuit.Module("m1"))
	require.NotNil(t, out.Circuit.Module("m1_ext"))
	assert.Nil(t, out.Circuit.Module("m2"))

	var otherInst *ir.StmtInstance
	ir.WalkStmt(out.Circuit.Module("Other").Body, func(s ir.Statement) {
		if i, ok := s.(*ir.StmtInstance); ok {
			otherInst = i
		}
	})
	require.NotNil(t, otherInst)
	assert.Equal(t, "m2", otherInst.Name)
	assert.Equal(t, "m1", otherInst.Module, "duplicate instantiates the canonical wrapper")

	// Both references resolve through the rename map.
	assert.Equal(t, []ir.Target{
		ir.ComponentTarget("Top", "Top", "m1"),
		ir.ComponentTarget("Top", "Top", "m1.m1_ext"),
	}, out.Renames.Targets(ir.ComponentTarget("Top", "Top", "m1")))
	assert.Equal(t, []ir.Target{
		ir.ComponentTarget("Top", "Other", "m2"),
		ir.ComponentTarget("Top", "Other", "m2.m1_ext"),
	}, out.Renames.Targets(ir.ComponentTarget("Top", "Other", "m2")))
}

func TestLower_DanglingBackReference(t *testing.T) {
	orphan := simpleMem("m")
	orphan.Ref = &ir.MemoryRef{Module: "Ghost", Memory: "nope"}

	_, err := LowerMemories{}.Execute(transform.NewCircuitState(singleMemCircuit(orphan), transform.MidForm, nil))
	require.Error(t, err)

	batch, ok := transform.AsErrors(err)
	require.True(t, ok)
	require.Len(t, batch, 1)
	assert.Equal(t, transform.UnresolvedReference, batch[0].Kind)
	assert.Equal(t, "Ghost.nope", batch[0].Ident)
}

func TestLower_MaskedBundleRejected(t *testing.T) {
	mem := simpleMem("bad")
	mem.DataType = ir.BundleType{Fields: []ir.Field{
		{Name: "a", Type: ir.UIntType{Width: 8}},
	}}
	gran := 1
	mem.MaskGran = &gran
	mem.Info = ir.Info("@[mem.fir 7:2]")

	c := singleMemCircuit(mem)
	_, err := LowerMemories{}.Execute(transform.NewCircuitState(c, transform.MidForm, nil))
	require.Error(t, err)

	batch, ok := transform.AsErrors(err)
	require.True(t, ok)
	require.Len(t, batch, 1)
	assert.Equal(t, transform.StructuralViolation, batch[0].Kind)
	assert.Equal(t, "bad", batch[0].Ident)
	assert.Equal(t, ir.Info("@[mem.fir 7:2]"), batch[0].Info)

	// No modules are emitted on failure.
	require.Len(t, c.Modules, 1)
}

func TestLower_MaskedBundleRejectedEvenAtFullGranularity(t *testing.T) {
	mem := simpleMem("bad")
	mem.DataType = ir.BundleType{Fields: []ir.Field{
		{Name: "a", Type: ir.UIntType{Width: 8}},
	}}
	gran := 8 // equals the full data width, still a bundle
	mem.MaskGran = &gran

	_, err := LowerMemories{}.Execute(transform.NewCircuitState(singleMemCircuit(mem), transform.MidForm, nil))
	require.Error(t, err)

	batch, ok := transform.AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, transform.StructuralViolation, batch[0].Kind)
}

func TestLower_MaskedVectorOfBundleRejected(t *testing.T) {
	mem := simpleMem("bad")
	mem.DataType = ir.VectorType{
		Elem: ir.BundleType{Fields: []ir.Field{{Name: "a", Type: ir.UIntType{Width: 4}}}},
		Len:  2,
	}
	gran := 1
	mem.MaskGran = &gran

	_, err := LowerMemories{}.Execute(transform.NewCircuitState(singleMemCircuit(mem), transform.MidForm, nil))
	require.Error(t, err)

	batch, ok := transform.AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, transform.StructuralViolation, batch[0].Kind)
}

func TestLower_UnknownWidthRejected(t *testing.T) {
	mem := simpleMem("m")
	mem.DataType = ir.UIntType{Width: ir.UnknownWidth}

	_, err := LowerMemories{}.Execute(transform.NewCircuitState(singleMemCircuit(mem), transform.MidForm, nil))
	require.Error(t, err)

	batch, ok := transform.AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, transform.StructuralViolation, batch[0].Kind)
	assert.Equal(t, "m", batch[0].Ident)
}

func TestLower_BatchesAllViolations(t *testing.T) {
	bad1 := simpleMem("bad1")
	bad1.DataType = ir.UIntType{Width: ir.UnknownWidth}
	bad2 := simpleMem("bad2")
	bad2.DataType = ir.BundleType{Fields: []ir.Field{{Name: "x", Type: ir.UIntType{Width: 2}}}}
	gran := 1
	bad2.MaskGran = &gran

	c := &ir.Circuit{Main: "Top", Modules: []*ir.Module{
		{Name: "Top", Body: ir.Block(bad1, bad2)},
	}}

	_, err := LowerMemories{}.Execute(transform.NewCircuitState(c, transform.MidForm, nil))
	require.Error(t, err)

	batch, ok := transform.AsErrors(err)
	require.True(t, ok)
	require.Len(t, batch, 2, "every violation reported in one pass")
	assert.Equal(t, "bad1", batch[0].Ident)
	assert.Equal(t, "bad2", batch[1].Ident)
}

func TestLower_ScrubsResidualMaskConnects(t *testing.T) {
	mem := simpleMem("m") // no mask
	body := ir.Block(
		mem,
		&ir.StmtConnect{
			Dst: ir.SubField(ir.SubField(ir.Ref("m"), "w"), "mask"),
			Src: &ir.ExprUInt{Value: 1, Width: 1},
		},
		&ir.StmtConnect{
			Dst: ir.SubField(ir.SubField(ir.Ref("m"), "w"), "data"),
			Src: &ir.ExprUInt{Value: 0, Width: 8},
		},
	)
	c := &ir.Circuit{Main: "Top", Modules: []*ir.Module{{Name: "Top", Body: body}}}

	out := lower(t, c)

	top := out.Circuit.Module("Top").Body.(*ir.StmtBlock)
	_, scrubbed := top.Stmts[1].(*ir.StmtEmpty)
	assert.True(t, scrubbed, "mask connect into unmasked memory becomes a no-op")
	_, kept := top.Stmts[2].(*ir.StmtConnect)
	assert.True(t, kept, "data connect survives")
}

func TestLower_MaskedMemoryKeepsMaskConnects(t *testing.T) {
	mem := simpleMem("m")
	gran := 1
	mem.MaskGran = &gran
	body := ir.Block(
		mem,
		&ir.StmtConnect{
			Dst: ir.SubField(ir.SubField(ir.Ref("m"), "w"), "mask"),
			Src: &ir.ExprUInt{Value: 255, Width: 8},
		},
	)
	c := &ir.Circuit{Main: "Top", Modules: []*ir.Module{{Name: "Top", Body: body}}}

	out := lower(t, c)

	top := out.Circuit.Module("Top").Body.(*ir.StmtBlock)
	_, kept := top.Stmts[1].(*ir.StmtConnect)
	assert.True(t, kept)
}

func TestLower_EmitsSummaryAnnotation(t *testing.T) {
	mem := simpleMem("m")
	gran := 4
	mem.MaskGran = &gran

	out := lower(t, singleMemCircuit(mem))

	var summary *transform.MemorySummaryAnnotation
	for _, a := range out.Annotations {
		if s, ok := a.(transform.MemorySummaryAnnotation); ok {
			summary = &s
		}
	}
	require.NotNil(t, summary)
	assert.Equal(t, ir.CircuitTarget("Top"), summary.Target())
	require.Len(t, summary.Summaries, 1)
	assert.Equal(t, transform.MemorySummary{
		Name: "m_ext", Width: 8, Depth: 4, MaskGran: 4,
		Readers: 1, Writers: 1, ReadWriters: 0,
	}, summary.Summaries[0])
}

func TestLower_PinAnnotationAttachesSinks(t *testing.T) {
	pin := transform.PinAnnotation{
		T:    ir.CircuitTarget("Top"),
		Pins: []string{"jtag", "scan"},
	}

	out := lower(t, singleMemCircuit(simpleMem("m")), pin)

	var sinks []transform.SinkAnnotation
	for _, a := range out.Annotations {
		if s, ok := a.(transform.SinkAnnotation); ok {
			sinks = append(sinks, s)
		}
	}
	require.Len(t, sinks, 2)
	for _, s := range sinks {
		assert.Equal(t, ir.ModuleTarget("Top", "m_ext"), s.Target())
	}
	assert.Equal(t, "jtag", sinks[0].Pin)
	assert.Equal(t, "scan", sinks[1].Pin)
}

func TestLower_TraceAnnotationGetsProbeSignals(t *testing.T) {
	mem := simpleMem("m")
	c := &ir.Circuit{Main: "Top", Modules: []*ir.Module{
		{
			Name: "Top",
			Ports: []ir.Port{
				{Name: "clk", Dir: ir.Input, Type: ir.ClockType{}},
				{Name: "out", Dir: ir.Output, Type: ir.UIntType{Width: 8}},
			},
			Body: ir.Block(mem),
		},
	}}
	trace := transform.TraceAnnotation{T: ir.ModuleTarget("Top", "Top")}

	out := lower(t, c, trace)

	var probe *transform.ProbeAnnotation
	for _, a := range out.Annotations {
		if p, ok := a.(transform.ProbeAnnotation); ok {
			probe = &p
		}
	}
	require.NotNil(t, probe)
	assert.Equal(t, ir.ModuleTarget("Top", "Top"), probe.Target())

	// Module ports first, then the lowered memory's flat signals.
	require.Len(t, probe.Signals, 10)
	assert.Equal(t, transform.ProbeSignal{Name: "clk", Width: 1}, probe.Signals[0])
	assert.Equal(t, transform.ProbeSignal{Name: "out", Width: 8}, probe.Signals[1])
	assert.Equal(t, transform.ProbeSignal{Name: "m.m_ext.r_addr", Width: 2}, probe.Signals[2])
	assert.Equal(t, transform.ProbeSignal{Name: "m.m_ext.r_data", Width: 8}, probe.Signals[5])
	assert.Equal(t, transform.ProbeSignal{Name: "m.m_ext.w_data", Width: 8}, probe.Signals[9])
}

func TestLower_TraceOfUntracedModuleAddsNothing(t *testing.T) {
	trace := transform.TraceAnnotation{T: ir.ModuleTarget("Top", "Missing")}

	out := lower(t, singleMemCircuit(simpleMem("m")), trace)

	for _, a := range out.Annotations {
		_, isProbe := a.(transform.ProbeAnnotation)
		assert.False(t, isProbe)
	}
}

func TestLower_NamespaceAvoidsModuleNameCollisions(t *testing.T) {
	// A module already named after the memory forces suffixed names.
	c := &ir.Circuit{Main: "Top", Modules: []*ir.Module{
		{Name: "Top", Body: ir.Block(simpleMem("m"))},
		{Name: "m", Body: ir.Block()},
	}}

	out := lower(t, c)

	assert.NotNil(t, out.Circuit.Module("m_0"), "wrapper name must avoid the existing module m")
	assert.NotNil(t, out.Circuit.Module("m_0_ext"))

	var inst *ir.StmtInstance
	ir.WalkStmt(out.Circuit.Module("Top").Body, func(s ir.Statement) {
		if i, ok := s.(*ir.StmtInstance); ok {
			inst = i
		}
	})
	require.NotNil(t, inst)
	assert.Equal(t, "m_0", inst.Module)
}

func TestLower_NoMemoriesIsANoOp(t *testing.T) {
	c := &ir.Circuit{Main: "Top", Modules: []*ir.Module{
		{Name: "Top", Body: ir.Block(&ir.StmtWire{Name: "w", Type: ir.Bool()})},
	}}

	out := lower(t, c)

	assert.Len(t, out.Circuit.Modules, 1)
	assert.Equal(t, 0, out.Renames.Len())
	for _, a := range out.Annotations {
		_, isSummary := a.(transform.MemorySummaryAnnotation)
		assert.False(t, isSummary)
	}
}
