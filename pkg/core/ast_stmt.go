package core

import "github.com/leapstack-labs/tasty/pkg/token"

// ---------- Statement Types ----------

// BlockStmt is a braced statement list. Span.End is the closing brace.
type BlockStmt struct {
	NodeInfo
	Stmts []Stmt
}

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	NodeInfo
	X Expr
}

// DeclStmt is a local variable declaration.
type DeclStmt struct {
	NodeInfo
	Decl *VarDecl
}

// IfStmt is if or unless (Negate). Else is nil, *IfStmt or *BlockStmt.
type IfStmt struct {
	NodeInfo
	Negate bool
	Cond   Expr
	Then   *BlockStmt
	Else   Stmt
}

// WhileStmt is while, until (Negate) or loop (Infinite).
type WhileStmt struct {
	NodeInfo
	Negate   bool
	Infinite bool
	Cond     Expr
	Body     *BlockStmt
}

// RangeLoopStmt is inc/dec/incto/decto i from a to b [by step].
type RangeLoopStmt struct {
	NodeInfo
	Kind token.TokenType // INC, DEC, INCTO or DECTO
	Var  string
	From Expr
	To   Expr
	Step Expr
	Body *BlockStmt
}

// Ascending reports whether the loop counts upward.
func (s *RangeLoopStmt) Ascending() bool {
	return s.Kind == token.INC || s.Kind == token.INCTO
}

// Inclusive reports whether the bound is part of the range.
func (s *RangeLoopStmt) Inclusive() bool {
	return s.Kind == token.INCTO || s.Kind == token.DECTO
}

// ForInStmt is for x in expr.
type ForInStmt struct {
	NodeInfo
	Var     string
	Storage Storage
	Iter    Expr
	Body    *BlockStmt
}

// ReturnStmt returns an optional value. Implicit marks the trailing
// expression of a body whose result type is inferred.
type ReturnStmt struct {
	NodeInfo
	Value    Expr
	Implicit bool
}

// BreakStmt is break.
type BreakStmt struct {
	NodeInfo
}

// ContinueStmt is continue.
type ContinueStmt struct {
	NodeInfo
}

// InjectStmt carries verbatim text inside a body.
type InjectStmt struct {
	NodeInfo
	Text string
}

func (*BlockStmt) stmtNode()     {}
func (*ExprStmt) stmtNode()      {}
func (*DeclStmt) stmtNode()      {}
func (*IfStmt) stmtNode()        {}
func (*WhileStmt) stmtNode()     {}
func (*RangeLoopStmt) stmtNode() {}
func (*ForInStmt) stmtNode()     {}
func (*ReturnStmt) stmtNode()    {}
func (*BreakStmt) stmtNode()     {}
func (*ContinueStmt) stmtNode()  {}
func (*InjectStmt) stmtNode()    {}
