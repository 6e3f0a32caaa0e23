package ir

import (
	"fmt"
	"strings"
)

// The printer renders a circuit in a FIRRTL-like text form. It exists for
// diagnostics and tests; emitting a backend format is the job of an external
// emitter.

// TypeString renders a type.
func TypeString(t Type) string {
	switch typ := t.(type) {
	case UIntType:
		if typ.Width < 0 {
			return "UInt"
		}
		return fmt.Sprintf("UInt<%d>", typ.Width)
	case SIntType:
		if typ.Width < 0 {
			return "SInt"
		}
		return fmt.Sprintf("SInt<%d>", typ.Width)
	case ClockType:
		return "Clock"
	case ResetType:
		return "Reset"
	case VectorType:
		return fmt.Sprintf("%s[%d]", TypeString(typ.Elem), typ.Len)
	case BundleType:
		parts := make([]string, len(typ.Fields))
		for i, f := range typ.Fields {
			flip := ""
			if f.Flip {
				flip = "flip "
			}
			parts[i] = fmt.Sprintf("%s%s : %s", flip, f.Name, TypeString(f.Type))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case nil:
		return "?"
	default:
		return fmt.Sprintf("?%T", t)
	}
}

// ExprString renders an expression.
func ExprString(e Expression) string {
	switch expr := e.(type) {
	case *ExprRef:
		return expr.Name
	case *ExprSubField:
		return ExprString(expr.Expr) + "." + expr.Name
	case *ExprSubIndex:
		return fmt.Sprintf("%s[%d]", ExprString(expr.Expr), expr.Index)
	case *ExprUInt:
		return fmt.Sprintf("UInt<%d>(%d)", expr.Width, expr.Value)
	case *ExprPrim:
		parts := make([]string, 0, len(expr.Args)+len(expr.Consts))
		for _, arg := range expr.Args {
			parts = append(parts, ExprString(arg))
		}
		for _, c := range expr.Consts {
			parts = append(parts, fmt.Sprintf("%d", c))
		}
		return fmt.Sprintf("%s(%s)", expr.Op, strings.Join(parts, ", "))
	case nil:
		return "?"
	default:
		return fmt.Sprintf("?%T", e)
	}
}

// CircuitString renders a whole circuit.
func CircuitString(c *Circuit) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "circuit %s :\n", c.Main)
	for _, m := range c.Modules {
		writeModule(&sb, m)
	}
	return sb.String()
}

func writeModule(sb *strings.Builder, m *Module) {
	kind := "module"
	if m.External {
		kind = "extmodule"
	}
	fmt.Fprintf(sb, "  %s %s :%s\n", kind, m.Name, infoSuffix(m.Info))
	for _, p := range m.Ports {
		fmt.Fprintf(sb, "    %s %s : %s\n", p.Dir, p.Name, TypeString(p.Type))
	}
	if m.Body != nil {
		writeStmt(sb, m.Body, "    ")
	}
	sb.WriteByte('\n')
}

func writeStmt(sb *strings.Builder, s Statement, indent string) {
	switch stmt := s.(type) {
	case *StmtBlock:
		for _, child := range stmt.Stmts {
			writeStmt(sb, child, indent)
		}
	case *StmtWire:
		fmt.Fprintf(sb, "%swire %s : %s%s\n", indent, stmt.Name, TypeString(stmt.Type), infoSuffix(stmt.Info))
	case *StmtRegister:
		fmt.Fprintf(sb, "%sreg %s : %s, %s%s\n", indent, stmt.Name, TypeString(stmt.Type), ExprString(stmt.Clock), infoSuffix(stmt.Info))
	case *StmtInstance:
		fmt.Fprintf(sb, "%sinst %s of %s%s\n", indent, stmt.Name, stmt.Module, infoSuffix(stmt.Info))
	case *StmtMemory:
		fmt.Fprintf(sb, "%smem %s : %s[%d]%s\n", indent, stmt.Name, TypeString(stmt.DataType), stmt.Depth, infoSuffix(stmt.Info))
	case *StmtConnect:
		fmt.Fprintf(sb, "%s%s <= %s%s\n", indent, ExprString(stmt.Dst), ExprString(stmt.Src), infoSuffix(stmt.Info))
	case *StmtWhen:
		fmt.Fprintf(sb, "%swhen %s :%s\n", indent, ExprString(stmt.Cond), infoSuffix(stmt.Info))
		writeStmt(sb, stmt.Then, indent+"  ")
		if stmt.Else != nil {
			fmt.Fprintf(sb, "%selse :\n", indent)
			writeStmt(sb, stmt.Else, indent+"  ")
		}
	case *StmtPrint:
		fmt.Fprintf(sb, "%sprintf(%s, %s, %q)%s\n", indent, ExprString(stmt.Clock), ExprString(stmt.Cond), stmt.Format, infoSuffix(stmt.Info))
	case *StmtStop:
		fmt.Fprintf(sb, "%sstop(%s, %s, %d)%s\n", indent, ExprString(stmt.Clock), ExprString(stmt.Cond), stmt.Code, infoSuffix(stmt.Info))
	case *StmtEmpty:
		fmt.Fprintf(sb, "%sskip\n", indent)
	}
}

func infoSuffix(info Info) string {
	if info == NoInfo {
		return ""
	}
	return " " + string(info)
}
