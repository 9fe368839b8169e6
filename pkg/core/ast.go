package core

import "github.com/leapstack-labs/tasty/pkg/token"

// Node is the base interface for all AST nodes.
type Node interface {
	// Pos returns the position of the first character of the node.
	Pos() token.Position
	// End returns the position of the character immediately after the node.
	End() token.Position
	// Line returns the originating source line.
	Line() int
}

// Decl is a declaration: top-level, namespace or class member.
type Decl interface {
	Node
	declNode()
	// Info returns the attribute applications and modifiers shared by all declarations.
	Info() *DeclInfo
}

// Stmt is a marker interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is a marker interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// NodeInfo holds the source span of a node.
type NodeInfo struct {
	Span token.Span
}

// Pos implements Node.
func (n *NodeInfo) Pos() token.Position { return n.Span.Start }

// End implements Node.
func (n *NodeInfo) End() token.Position { return n.Span.End }

// Line implements Node.
func (n *NodeInfo) Line() int { return n.Span.Start.Line }

// EndLine returns the line of the node's last character.
func (n *NodeInfo) EndLine() int { return n.Span.End.Line }

// DeclInfo is embedded by every declaration.
type DeclInfo struct {
	NodeInfo
	Attrs     []*AttributeApp
	Modifiers Modifiers
	// Generated holds text produced by attribute expansion.
	Generated Generated
}

// Info implements Decl.
func (d *DeclInfo) Info() *DeclInfo { return d }

// Generated is the expanded output of the attributes applied to a declaration.
type Generated struct {
	Append    []string // emitted inside the declaration body (class) or after it
	Prepend   []string // emitted before the declaration
	NoHeader  bool
	Includes  []GeneratedInclude
	Inherited []string // Append text received from a base class
}

// GeneratedInclude is an include requested by an attribute.
type GeneratedInclude struct {
	Path  string
	Local bool
}

// File is the root of a parsed .tasty file.
type File struct {
	NodeInfo
	Name  string
	Decls []Decl
}

// TypeExpr is a type as written in source.
type TypeExpr struct {
	NodeInfo
	Name    string      // dotted name; empty for tuple and function types
	Args    []*TypeExpr // template arguments
	Pointer int         // trailing '*' count
	Tuple   []*TypeExpr // tuple element types when IsTuple
	IsTuple bool
	Params  []*TypeExpr // function type parameters when IsFunc
	Result  *TypeExpr
	IsFunc  bool
}

// String renders the type in surface syntax.
func (t *TypeExpr) String() string {
	if t == nil {
		return ""
	}
	var s string
	switch {
	case t.IsTuple:
		s = "(" + joinTypes(t.Tuple) + ")"
	case t.IsFunc:
		s = "fn(" + joinTypes(t.Params) + ")"
		if t.Result != nil {
			s += " -> " + t.Result.String()
		}
	default:
		s = t.Name
		if len(t.Args) > 0 {
			s += "<" + joinTypes(t.Args) + ">"
		}
	}
	for i := 0; i < t.Pointer; i++ {
		s += "*"
	}
	return s
}

func joinTypes(ts []*TypeExpr) string {
	s := ""
	for i, t := range ts {
		if i > 0 {
			s += ", "
		}
		s += t.String()
	}
	return s
}
