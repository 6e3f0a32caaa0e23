package ir

// Traversal helpers. Each helper enumerates every variant of its family so
// that adding a variant fails to compile until every traversal site handles
// it. Map helpers rebuild nodes instead of editing them: the input tree is
// never mutated.

// MapStmt returns a copy of s with f applied to each immediate child
// statement. Leaf statements are returned unchanged. Callers recurse by
// applying MapStmt again inside f.
func MapStmt(s Statement, f func(Statement) Statement) Statement {
	switch stmt := s.(type) {
	case *StmtBlock:
		out := make([]Statement, len(stmt.Stmts))
		for i, child := range stmt.Stmts {
			out[i] = f(child)
		}
		return &StmtBlock{Stmts: out}
	case *StmtWhen:
		next := &StmtWhen{Cond: stmt.Cond, Info: stmt.Info}
		if stmt.Then != nil {
			next.Then = f(stmt.Then)
		}
		if stmt.Else != nil {
			next.Else = f(stmt.Else)
		}
		return next
	case *StmtWire, *StmtRegister, *StmtInstance, *StmtMemory,
		*StmtConnect, *StmtPrint, *StmtStop, *StmtEmpty:
		return s
	default:
		return s
	}
}

// WalkStmt visits s and every statement reachable from it, pre-order.
func WalkStmt(s Statement, visit func(Statement)) {
	if s == nil {
		return
	}
	visit(s)
	switch stmt := s.(type) {
	case *StmtBlock:
		for _, child := range stmt.Stmts {
			WalkStmt(child, visit)
		}
	case *StmtWhen:
		WalkStmt(stmt.Then, visit)
		WalkStmt(stmt.Else, visit)
	case *StmtWire, *StmtRegister, *StmtInstance, *StmtMemory,
		*StmtConnect, *StmtPrint, *StmtStop, *StmtEmpty:
	}
}

// MapExpr returns a copy of e with f applied to each immediate child
// expression.
func MapExpr(e Expression, f func(Expression) Expression) Expression {
	switch expr := e.(type) {
	case *ExprSubField:
		return &ExprSubField{Expr: f(expr.Expr), Name: expr.Name}
	case *ExprSubIndex:
		return &ExprSubIndex{Expr: f(expr.Expr), Index: expr.Index}
	case *ExprPrim:
		args := make([]Expression, len(expr.Args))
		for i, arg := range expr.Args {
			args[i] = f(arg)
		}
		return &ExprPrim{Op: expr.Op, Args: args, Consts: expr.Consts}
	case *ExprRef, *ExprUInt:
		return e
	default:
		return e
	}
}

// WalkExpr visits e and every expression reachable from it, pre-order.
func WalkExpr(e Expression, visit func(Expression)) {
	if e == nil {
		return
	}
	visit(e)
	switch expr := e.(type) {
	case *ExprSubField:
		WalkExpr(expr.Expr, visit)
	case *ExprSubIndex:
		WalkExpr(expr.Expr, visit)
	case *ExprPrim:
		for _, arg := range expr.Args {
			WalkExpr(arg, visit)
		}
	case *ExprRef, *ExprUInt:
	}
}

// RefRoot returns the component name a reference chain is rooted at, or ""
// if the expression is not rooted in a reference.
func RefRoot(e Expression) string {
	for {
		switch expr := e.(type) {
		case *ExprRef:
			return expr.Name
		case *ExprSubField:
			e = expr.Expr
		case *ExprSubIndex:
			e = expr.Expr
		default:
			return ""
		}
	}
}
