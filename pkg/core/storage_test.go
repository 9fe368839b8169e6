package core

import (
	"testing"

	"github.com/leapstack-labs/tasty/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageFromKeyword(t *testing.T) {
	tests := []struct {
		tok   token.Token
		kind  StorageKind
		level int
		cnst  bool
	}{
		{token.Token{Type: token.COPY, Literal: "copy"}, StorageValue, 0, false},
		{token.Token{Type: token.LET, Literal: "let"}, StorageValue, 0, false},
		{token.Token{Type: token.REF, Literal: "ref"}, StorageReference, 0, false},
		{token.Token{Type: token.BORROW, Literal: "borrow"}, StorageReference, 0, true},
		{token.Token{Type: token.MOVE, Literal: "move"}, StorageMoved, 0, false},
		{token.Token{Type: token.PTR, Literal: "ptr"}, StorageRawPointer, 1, false},
		{token.Token{Type: token.PTR, Literal: "ptr3"}, StorageRawPointer, 3, false},
		{token.Token{Type: token.AUTOPTR, Literal: "autoptr"}, StorageShared, 0, false},
		{token.Token{Type: token.UNIQUEPTR, Literal: "uniqueptr"}, StorageUnique, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.tok.Literal, func(t *testing.T) {
			s, ok := StorageFromKeyword(tt.tok)
			require.True(t, ok)
			assert.Equal(t, tt.kind, s.Kind)
			assert.Equal(t, tt.level, s.Level)
			assert.Equal(t, tt.cnst, s.Const)
			assert.Equal(t, tt.tok.Literal, s.String())
		})
	}

	_, ok := StorageFromKeyword(token.Token{Type: token.IDENT, Literal: "x"})
	assert.False(t, ok)
	assert.Equal(t, "raw-pointer", StorageRawPointer.String())
	assert.True(t, Storage{}.IsZero())
}

func TestModifiersPrefix(t *testing.T) {
	m := ModConst | ModStatic | ModThreadLocal
	assert.Equal(t, "static thread_local const ", m.Prefix())
	assert.True(t, m.Has(ModStatic))
	assert.False(t, m.Without(ModStatic).Has(ModStatic))
	assert.Equal(t, "", Modifiers(0).Prefix())

	mod, ok := ModifierFromToken(token.VOLATILE)
	require.True(t, ok)
	assert.Equal(t, ModVolatile, mod)
}

func TestQualifiedName(t *testing.T) {
	std := &Ident{Name: "std"}
	chrono := &MemberExpr{X: std, Name: "chrono", Op: token.DOT}
	seconds := &MemberExpr{X: chrono, Name: "seconds", Op: token.DOT}

	assert.Equal(t, "std", QualifiedName(std))
	assert.Equal(t, "std.chrono.seconds", QualifiedName(seconds))
	assert.Equal(t, "", QualifiedName(&MemberExpr{X: std, Name: "x", Op: token.ARROW}))
	assert.Equal(t, "", QualifiedName(&CallExpr{Fn: std}))
}

func TestInspectVisitsInSourceOrder(t *testing.T) {
	fn := &FuncDecl{
		Name: "main",
		Body: &BlockStmt{Stmts: []Stmt{
			&ExprStmt{X: &BinaryExpr{Op: token.SHL, Left: &Ident{Name: "a"}, Right: &Ident{Name: "b"}}},
			&ReturnStmt{Value: &Ident{Name: "c"}},
			&ReturnStmt{},
		}},
	}
	file := &File{Decls: []Decl{fn}}

	var names []string
	Inspect(file, func(n Node) bool {
		if id, ok := n.(*Ident); ok {
			names = append(names, id.Name)
		}
		return true
	})
	assert.Equal(t, []string{"a", "b", "c"}, names)

	var visited int
	Inspect(file, func(n Node) bool {
		visited++
		_, isFunc := n.(*FuncDecl)
		return !isFunc
	})
	assert.Equal(t, 2, visited, "returning false skips children")
}

func TestTypeExprString(t *testing.T) {
	vec := &TypeExpr{Name: "std.vector", Args: []*TypeExpr{{Name: "int"}}}
	assert.Equal(t, "std.vector<int>", vec.String())
	assert.Equal(t, "(int, text)", (&TypeExpr{IsTuple: true, Tuple: []*TypeExpr{{Name: "int"}, {Name: "text"}}}).String())
	assert.Equal(t, "Base*", (&TypeExpr{Name: "Base", Pointer: 1}).String())
	assert.Equal(t, "fn(int) -> bool", (&TypeExpr{IsFunc: true, Params: []*TypeExpr{{Name: "int"}}, Result: &TypeExpr{Name: "bool"}}).String())
}
