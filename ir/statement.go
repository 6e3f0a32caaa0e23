package ir

// Statement represents a statement in a module body.
// Statements declare components, connect signals, and structure control flow.
// A module body is a tree of statements rooted at a single statement,
// commonly a StmtBlock.
type Statement interface {
	stmtKind()
}

// StmtBlock is a sequence of statements executed together, in order.
type StmtBlock struct {
	Stmts []Statement
}

func (*StmtBlock) stmtKind() {}

// StmtWire declares a named wire of the given type.
type StmtWire struct {
	Name string
	Type Type
	Info Info
}

func (*StmtWire) stmtKind() {}

// StmtRegister declares a named register of the given type, clocked by Clock.
type StmtRegister struct {
	Name  string
	Type  Type
	Clock Expression
	Info  Info
}

func (*StmtRegister) stmtKind() {}

// StmtInstance instantiates the named module under an instance name.
type StmtInstance struct {
	Name   string // instance name within the enclosing module
	Module string // instantiated module definition
	Info   Info
}

func (*StmtInstance) stmtKind() {}

// StmtMemory is the abstract, pre-lowering memory declaration. It carries the
// full shape of the memory (element type, depth, masking, named ports) and is
// consumed exactly once by memory lowering, which replaces it with a wrapper
// module instance; no StmtMemory nodes remain afterwards.
type StmtMemory struct {
	Name     string
	DataType Type
	Depth    int

	// MaskGran is the number of data bits covered by one write-mask bit.
	// nil means the memory has no write mask; 1 means one mask bit per data
	// bit; n > 1 means one mask bit per n-bit group.
	MaskGran *int

	Readers     []string
	Writers     []string
	ReadWriters []string

	// Ref, when set, marks this memory as a structural duplicate of the
	// canonical memory it points at. Duplicates share the canonical memory's
	// lowered definition instead of producing one of their own.
	Ref *MemoryRef

	Info Info
}

func (*StmtMemory) stmtKind() {}

// MemoryRef identifies a memory declaration by its enclosing module and name.
// It is a lookup key, not a tree edge: the referenced declaration is resolved
// through the name map built before rewriting begins.
type MemoryRef struct {
	Module string
	Memory string
}

// StmtConnect drives Dst from Src.
type StmtConnect struct {
	Dst  Expression
	Src  Expression
	Info Info
}

func (*StmtConnect) stmtKind() {}

// StmtWhen conditionally executes Then (and otherwise Else, which may be nil).
type StmtWhen struct {
	Cond Expression
	Then Statement
	Else Statement // may be nil
	Info Info
}

func (*StmtWhen) stmtKind() {}

// StmtPrint emits a formatted message each cycle Cond holds on Clock.
type StmtPrint struct {
	Clock  Expression
	Cond   Expression
	Format string
	Args   []Expression
	Info   Info
}

func (*StmtPrint) stmtKind() {}

// StmtStop halts simulation with Code each cycle Cond holds on Clock.
type StmtStop struct {
	Clock Expression
	Cond  Expression
	Code  int
	Info  Info
}

func (*StmtStop) stmtKind() {}

// StmtEmpty is the no-op placeholder left behind when a statement is removed.
type StmtEmpty struct{}

func (*StmtEmpty) stmtKind() {}

// Block wraps statements into a single statement, flattening nil entries away.
func Block(stmts ...Statement) Statement {
	out := make([]Statement, 0, len(stmts))
	for _, s := range stmts {
		if s != nil {
			out = append(out, s)
		}
	}
	return &StmtBlock{Stmts: out}
}
