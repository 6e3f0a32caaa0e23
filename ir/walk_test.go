package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkStmt_VisitsNestedStatements(t *testing.T) {
	body := Block(
		&StmtWire{Name: "w", Type: UIntType{Width: 1}},
		&StmtWhen{
			Cond: Ref("w"),
			Then: Block(&StmtRegister{Name: "r", Type: UIntType{Width: 1}, Clock: Ref("clk")}),
			Else: Block(&StmtMemory{Name: "m", DataType: UIntType{Width: 8}, Depth: 2}),
		},
		&StmtEmpty{},
	)

	var names []string
	WalkStmt(body, func(s Statement) {
		switch stmt := s.(type) {
		case *StmtWire:
			names = append(names, stmt.Name)
		case *StmtRegister:
			names = append(names, stmt.Name)
		case *StmtMemory:
			names = append(names, stmt.Name)
		}
	})

	assert.Equal(t, []string{"w", "r", "m"}, names)
}

func TestMapStmt_RebuildsWithoutMutating(t *testing.T) {
	inner := &StmtWire{Name: "w", Type: UIntType{Width: 1}}
	body := &StmtBlock{Stmts: []Statement{inner}}

	out := MapStmt(body, func(s Statement) Statement {
		if wire, ok := s.(*StmtWire); ok {
			next := *wire
			next.Name = "renamed"
			return &next
		}
		return s
	})

	require.IsType(t, &StmtBlock{}, out)
	assert.Equal(t, "renamed", out.(*StmtBlock).Stmts[0].(*StmtWire).Name)
	// Input untouched.
	assert.Equal(t, "w", inner.Name)
}

func TestMapStmt_WhenBranches(t *testing.T) {
	when := &StmtWhen{
		Cond: Ref("c"),
		Then: &StmtEmpty{},
		Else: &StmtEmpty{},
	}

	count := 0
	MapStmt(when, func(s Statement) Statement {
		count++
		return s
	})
	assert.Equal(t, 2, count)

	// A nil else branch is not visited.
	count = 0
	MapStmt(&StmtWhen{Cond: Ref("c"), Then: &StmtEmpty{}}, func(s Statement) Statement {
		count++
		return s
	})
	assert.Equal(t, 1, count)
}

func TestMapExpr_RewritesChildren(t *testing.T) {
	expr := Cat(SubField(Ref("a"), "f"), SubIndex(Ref("b"), 2))

	out := MapExpr(expr, func(e Expression) Expression {
		return MapExpr(e, func(inner Expression) Expression {
			if ref, ok := inner.(*ExprRef); ok && ref.Name == "a" {
				return Ref("z")
			}
			return inner
		})
	})

	want := Cat(SubField(Ref("z"), "f"), SubIndex(Ref("b"), 2))
	assert.Empty(t, cmp.Diff(want, out))
}

func TestWalkExpr_VisitsAll(t *testing.T) {
	expr := Bits(Cat(Ref("hi"), Ref("lo")), 7, 0)

	var refs []string
	WalkExpr(expr, func(e Expression) {
		if ref, ok := e.(*ExprRef); ok {
			refs = append(refs, ref.Name)
		}
	})
	assert.Equal(t, []string{"hi", "lo"}, refs)
}

func TestRefRoot(t *testing.T) {
	assert.Equal(t, "m", RefRoot(SubField(SubField(Ref("m"), "w"), "mask")))
	assert.Equal(t, "v", RefRoot(SubIndex(Ref("v"), 3)))
	assert.Equal(t, "", RefRoot(Cat(Ref("a"), Ref("b"))))
	assert.Equal(t, "", RefRoot(&ExprUInt{Value: 1, Width: 1}))
}
