package ir

// Expression represents a reference or computation appearing in a statement.
type Expression interface {
	exprKind()
}

// ExprRef references a declared component (port, wire, register, instance,
// or memory) by name.
type ExprRef struct {
	Name string
}

func (*ExprRef) exprKind() {}

// ExprSubField selects a named field of a bundle-typed expression.
type ExprSubField struct {
	Expr Expression
	Name string
}

func (*ExprSubField) exprKind() {}

// ExprSubIndex selects a fixed element of a vector-typed expression.
type ExprSubIndex struct {
	Expr  Expression
	Index int
}

func (*ExprSubIndex) exprKind() {}

// ExprUInt is an unsigned integer literal of the given width.
type ExprUInt struct {
	Value uint64
	Width int
}

func (*ExprUInt) exprKind() {}

// ExprPrim applies a primitive operation to expression arguments and
// integer parameters.
type ExprPrim struct {
	Op     PrimOp
	Args   []Expression
	Consts []int
}

func (*ExprPrim) exprKind() {}

// PrimOp enumerates the primitive operations the middle-end synthesizes.
type PrimOp uint8

const (
	// OpCat concatenates two arguments; the first occupies the high bits.
	OpCat PrimOp = iota
	// OpBits extracts the bit range [Consts[1], Consts[0]] (low, high inclusive).
	OpBits
	// OpAsUInt reinterprets the argument's bits as an unsigned integer.
	OpAsUInt
	// OpAsClock reinterprets a 1-bit argument as a clock.
	OpAsClock
	// OpPad zero- or sign-extends the argument to Consts[0] bits.
	OpPad
)

// String returns the primitive's textual mnemonic.
func (op PrimOp) String() string {
	switch op {
	case OpCat:
		return "cat"
	case OpBits:
		return "bits"
	case OpAsUInt:
		return "asUInt"
	case OpAsClock:
		return "asClock"
	case OpPad:
		return "pad"
	default:
		return "unknown"
	}
}

// Ref is shorthand for a component reference.
func Ref(name string) Expression {
	return &ExprRef{Name: name}
}

// SubField is shorthand for a bundle field selection.
func SubField(expr Expression, name string) Expression {
	return &ExprSubField{Expr: expr, Name: name}
}

// SubIndex is shorthand for a vector element selection.
func SubIndex(expr Expression, index int) Expression {
	return &ExprSubIndex{Expr: expr, Index: index}
}

// Cat concatenates hi over lo.
func Cat(hi, lo Expression) Expression {
	return &ExprPrim{Op: OpCat, Args: []Expression{hi, lo}}
}

// Bits extracts the inclusive bit range [lo, hi] from expr.
func Bits(expr Expression, hi, lo int) Expression {
	return &ExprPrim{Op: OpBits, Args: []Expression{expr}, Consts: []int{hi, lo}}
}

// AsUInt reinterprets expr as an unsigned integer.
func AsUInt(expr Expression) Expression {
	return &ExprPrim{Op: OpAsUInt, Args: []Expression{expr}}
}
