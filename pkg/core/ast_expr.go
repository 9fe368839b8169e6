package core

import "github.com/leapstack-labs/tasty/pkg/token"

// ---------- Expression Types ----------

// LiteralKind is the kind of a literal.
type LiteralKind int

// LiteralKind constants.
const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralString
	LiteralChar
	LiteralBool
	LiteralNull
)

// Literal is a literal value. Value is the source spelling.
type Literal struct {
	NodeInfo
	Kind  LiteralKind
	Value string
}

// Ident is a bare name.
type Ident struct {
	NodeInfo
	Name string
}

// SelfExpr is self.
type SelfExpr struct {
	NodeInfo
}

// BinaryExpr is a binary operation, including assignment.
type BinaryExpr struct {
	NodeInfo
	Op    token.TokenType
	Left  Expr
	Right Expr
}

// UnaryExpr is a prefix or postfix operation.
type UnaryExpr struct {
	NodeInfo
	Op      token.TokenType
	X       Expr
	Postfix bool
}

// CallExpr is a call.
type CallExpr struct {
	NodeInfo
	Fn   Expr
	Args []Expr
}

// MemberExpr is X.Name. Op is DOT for smart access, or ARROW/SCOPE when the
// source spelled the access explicitly.
type MemberExpr struct {
	NodeInfo
	X    Expr
	Name string
	Op   token.TokenType
}

// IndexExpr is X[Index].
type IndexExpr struct {
	NodeInfo
	X     Expr
	Index Expr
}

// NewExpr is new T(args).
type NewExpr struct {
	NodeInfo
	Type *TypeExpr
	Args []Expr
}

// DeleteExpr is delete X.
type DeleteExpr struct {
	NodeInfo
	X Expr
}

// CastKind selects the emitted cast form.
type CastKind int

// CastKind constants.
const (
	CastC CastKind = iota
	CastStatic
	CastDynamic
	CastReinterpret
)

func (k CastKind) String() string {
	switch k {
	case CastStatic:
		return "static"
	case CastDynamic:
		return "dynamic"
	case CastReinterpret:
		return "reinterpret"
	}
	return "c"
}

// CastExpr is X as [static|dynamic|reinterpret] T.
type CastExpr struct {
	NodeInfo
	X    Expr
	Kind CastKind
	Type *TypeExpr
}

// TupleLit is (a, b, ...).
type TupleLit struct {
	NodeInfo
	Elems []Expr
}

// TupleIndexExpr is X.N.
type TupleIndexExpr struct {
	NodeInfo
	X     Expr
	Index int
}

// RangeExpr is From..To.
type RangeExpr struct {
	NodeInfo
	From Expr
	To   Expr
}

// TernaryExpr is Cond ? Then : Else.
type TernaryExpr struct {
	NodeInfo
	Cond Expr
	Then Expr
	Else Expr
}

// ParenExpr is a parenthesized expression.
type ParenExpr struct {
	NodeInfo
	X Expr
}

func (*Literal) exprNode()        {}
func (*Ident) exprNode()          {}
func (*SelfExpr) exprNode()       {}
func (*BinaryExpr) exprNode()     {}
func (*UnaryExpr) exprNode()      {}
func (*CallExpr) exprNode()       {}
func (*MemberExpr) exprNode()     {}
func (*IndexExpr) exprNode()      {}
func (*NewExpr) exprNode()        {}
func (*DeleteExpr) exprNode()     {}
func (*CastExpr) exprNode()       {}
func (*TupleLit) exprNode()       {}
func (*TupleIndexExpr) exprNode() {}
func (*RangeExpr) exprNode()      {}
func (*TernaryExpr) exprNode()    {}
func (*ParenExpr) exprNode()      {}

// QualifiedName returns the dotted name of an Ident or a chain of DOT member
// accesses on an Ident (std.chrono.seconds), or "" for anything else.
func QualifiedName(e Expr) string {
	switch e := e.(type) {
	case *Ident:
		return e.Name
	case *MemberExpr:
		if e.Op != token.DOT {
			return ""
		}
		if base := QualifiedName(e.X); base != "" {
			return base + "." + e.Name
		}
	}
	return ""
}
