package memlower

import (
	"github.com/hwgo/fir/ir"
)

// Port construction and the structured/flat adaptation emitted into wrapper
// bodies. Bit packing is big-endian over declaration order: the first bundle
// field and the highest vector index occupy the high bits.

// flatPorts builds the black box's bit-flattened port list. Field names are
// joined with underscores; data and mask legs collapse to single UInt ports.
func flatPorts(mem *ir.StmtMemory, dataWidth, addrWidth, maskWidth int) []ir.Port {
	masked := mem.MaskGran != nil
	var ports []ir.Port
	for _, r := range mem.Readers {
		ports = append(ports,
			ir.Port{Name: r + "_addr", Dir: ir.Input, Type: ir.UIntType{Width: addrWidth}},
			ir.Port{Name: r + "_en", Dir: ir.Input, Type: ir.Bool()},
			ir.Port{Name: r + "_clk", Dir: ir.Input, Type: ir.ClockType{}},
			ir.Port{Name: r + "_data", Dir: ir.Output, Type: ir.UIntType{Width: dataWidth}},
		)
	}
	for _, w := range mem.Writers {
		ports = append(ports,
			ir.Port{Name: w + "_addr", Dir: ir.Input, Type: ir.UIntType{Width: addrWidth}},
			ir.Port{Name: w + "_en", Dir: ir.Input, Type: ir.Bool()},
			ir.Port{Name: w + "_clk", Dir: ir.Input, Type: ir.ClockType{}},
			ir.Port{Name: w + "_data", Dir: ir.Input, Type: ir.UIntType{Width: dataWidth}},
		)
		if masked {
			ports = append(ports,
				ir.Port{Name: w + "_mask", Dir: ir.Input, Type: ir.UIntType{Width: maskWidth}})
		}
	}
	for _, rw := range mem.ReadWriters {
		ports = append(ports,
			ir.Port{Name: rw + "_addr", Dir: ir.Input, Type: ir.UIntType{Width: addrWidth}},
			ir.Port{Name: rw + "_en", Dir: ir.Input, Type: ir.Bool()},
			ir.Port{Name: rw + "_clk", Dir: ir.Input, Type: ir.ClockType{}},
			ir.Port{Name: rw + "_wmode", Dir: ir.Input, Type: ir.Bool()},
			ir.Port{Name: rw + "_wdata", Dir: ir.Input, Type: ir.UIntType{Width: dataWidth}},
			ir.Port{Name: rw + "_rdata", Dir: ir.Output, Type: ir.UIntType{Width: dataWidth}},
		)
		if masked {
			ports = append(ports,
				ir.Port{Name: rw + "_wmask", Dir: ir.Input, Type: ir.UIntType{Width: maskWidth}})
		}
	}
	return ports
}

// structuredPorts builds the wrapper's port list, one bundle per memory
// port, keeping the memory's original aggregate data (and mask) types so
// external references into the memory stay shaped as before. Data legs that
// flow out of the memory are flipped.
func structuredPorts(mem *ir.StmtMemory, maskType ir.Type, addrWidth int) []ir.Port {
	var ports []ir.Port
	for _, r := range mem.Readers {
		ports = append(ports, ir.Port{Name: r, Dir: ir.Input, Type: ir.BundleType{Fields: []ir.Field{
			{Name: "addr", Type: ir.UIntType{Width: addrWidth}},
			{Name: "en", Type: ir.Bool()},
			{Name: "clk", Type: ir.ClockType{}},
			{Name: "data", Flip: true, Type: mem.DataType},
		}}})
	}
	for _, w := range mem.Writers {
		fields := []ir.Field{
			{Name: "addr", Type: ir.UIntType{Width: addrWidth}},
			{Name: "en", Type: ir.Bool()},
			{Name: "clk", Type: ir.ClockType{}},
			{Name: "data", Type: mem.DataType},
		}
		if maskType != nil {
			fields = append(fields, ir.Field{Name: "mask", Type: maskType})
		}
		ports = append(ports, ir.Port{Name: w, Dir: ir.Input, Type: ir.BundleType{Fields: fields}})
	}
	for _, rw := range mem.ReadWriters {
		fields := []ir.Field{
			{Name: "addr", Type: ir.UIntType{Width: addrWidth}},
			{Name: "en", Type: ir.Bool()},
			{Name: "clk", Type: ir.ClockType{}},
			{Name: "wmode", Type: ir.Bool()},
			{Name: "wdata", Type: mem.DataType},
			{Name: "rdata", Flip: true, Type: mem.DataType},
		}
		if maskType != nil {
			fields = append(fields, ir.Field{Name: "wmask", Type: maskType})
		}
		ports = append(ports, ir.Port{Name: rw, Dir: ir.Input, Type: ir.BundleType{Fields: fields}})
	}
	return ports
}

// wrapperBody emits the adaptation between the wrapper's structured ports
// and the black box instance: control signals pass straight through,
// structured data packs to bits on the way in and unpacks on the way out.
func wrapperBody(names memNames, mem *ir.StmtMemory, maskType ir.Type) ir.Statement {
	stmts := []ir.Statement{
		&ir.StmtInstance{Name: names.blackBox, Module: names.blackBox},
	}
	bb := ir.Ref(names.blackBox)

	for _, r := range mem.Readers {
		p := ir.Ref(r)
		stmts = append(stmts, passThrough(bb, r, p, "addr", "en", "clk")...)
		stmts = append(stmts, unpack(
			ir.SubField(p, "data"),
			ir.SubField(bb, r+"_data"),
			mem.DataType)...)
	}
	for _, w := range mem.Writers {
		p := ir.Ref(w)
		stmts = append(stmts, passThrough(bb, w, p, "addr", "en", "clk")...)
		stmts = append(stmts, connect(
			ir.SubField(bb, w+"_data"),
			pack(ir.SubField(p, "data"), mem.DataType)))
		if maskType != nil {
			stmts = append(stmts, connect(
				ir.SubField(bb, w+"_mask"),
				pack(ir.SubField(p, "mask"), maskType)))
		}
	}
	for _, rw := range mem.ReadWriters {
		p := ir.Ref(rw)
		stmts = append(stmts, passThrough(bb, rw, p, "addr", "en", "clk", "wmode")...)
		stmts = append(stmts, connect(
			ir.SubField(bb, rw+"_wdata"),
			pack(ir.SubField(p, "wdata"), mem.DataType)))
		stmts = append(stmts, unpack(
			ir.SubField(p, "rdata"),
			ir.SubField(bb, rw+"_rdata"),
			mem.DataType)...)
		if maskType != nil {
			stmts = append(stmts, connect(
				ir.SubField(bb, rw+"_wmask"),
				pack(ir.SubField(p, "wmask"), maskType)))
		}
	}
	return &ir.StmtBlock{Stmts: stmts}
}

func connect(dst, src ir.Expression) ir.Statement {
	return &ir.StmtConnect{Dst: dst, Src: src}
}

// passThrough connects the named control fields of a wrapper port straight
// onto the black box instance.
func passThrough(bb ir.Expression, port string, p ir.Expression, fields ...string) []ir.Statement {
	out := make([]ir.Statement, len(fields))
	for i, f := range fields {
		out[i] = connect(ir.SubField(bb, port+"_"+f), ir.SubField(p, f))
	}
	return out
}

// pack flattens a structured expression to a single UInt. Ground values
// pass through (signed values reinterpreted); aggregates concatenate their
// parts, first field and highest index on top.
func pack(e ir.Expression, t ir.Type) ir.Expression {
	switch typ := t.(type) {
	case ir.UIntType:
		return e
	case ir.SIntType, ir.ClockType, ir.ResetType:
		return ir.AsUInt(e)
	case ir.VectorType:
		acc := pack(ir.SubIndex(e, typ.Len-1), typ.Elem)
		for i := typ.Len - 2; i >= 0; i-- {
			acc = ir.Cat(acc, pack(ir.SubIndex(e, i), typ.Elem))
		}
		return acc
	case ir.BundleType:
		var acc ir.Expression
		for i, f := range typ.Fields {
			part := pack(ir.SubField(e, f.Name), f.Type)
			if i == 0 {
				acc = part
			} else {
				acc = ir.Cat(acc, part)
			}
		}
		return acc
	default:
		return e
	}
}

// unpack emits connects assigning the bit-sliced pieces of src onto the
// structured dst, inverting pack's layout. Ground types need no reshaping
// and connect directly.
func unpack(dst, src ir.Expression, t ir.Type) []ir.Statement {
	switch t.(type) {
	case ir.UIntType, ir.SIntType, ir.ClockType, ir.ResetType:
		return []ir.Statement{connect(dst, src)}
	}
	stmts, _ := unpackFrom(dst, src, t, 0)
	return stmts
}

// unpackFrom slices src starting at bit offset and returns the next free
// offset. Layout matches pack: the last-packed piece sits at the low bits,
// so recursion walks fields in reverse declaration order and vector indices
// from zero up.
func unpackFrom(dst, src ir.Expression, t ir.Type, offset int) ([]ir.Statement, int) {
	switch typ := t.(type) {
	case ir.UIntType, ir.SIntType, ir.ClockType, ir.ResetType:
		w, err := ir.BitWidth(t)
		if err != nil {
			// Unknown widths were rejected before rewriting began.
			return nil, offset
		}
		return []ir.Statement{connect(dst, ir.Bits(src, offset+w-1, offset))}, offset + w
	case ir.VectorType:
		var stmts []ir.Statement
		for i := 0; i < typ.Len; i++ {
			var sub []ir.Statement
			sub, offset = unpackFrom(ir.SubIndex(dst, i), src, typ.Elem, offset)
			stmts = append(stmts, sub...)
		}
		return stmts, offset
	case ir.BundleType:
		var stmts []ir.Statement
		for i := len(typ.Fields) - 1; i >= 0; i-- {
			f := typ.Fields[i]
			var sub []ir.Statement
			sub, offset = unpackFrom(ir.SubField(dst, f.Name), src, f.Type, offset)
			stmts = append(stmts, sub...)
		}
		return stmts, offset
	default:
		return nil, offset
	}
}
