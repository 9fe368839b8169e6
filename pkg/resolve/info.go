package resolve

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/types"
)

// AccessKind is the emitted form of a member access.
type AccessKind int

// AccessKind constants.
const (
	AccessDot   AccessKind = iota // a.b
	AccessArrow                   // a->b, (*a)->b, ...
	AccessScope                   // a::b
)

// Access is the resolved form of a.b. Depth is the pointer depth of the
// receiver for AccessArrow.
type Access struct {
	Kind  AccessKind
	Depth int
}

// Render joins a rendered receiver and member name. A depth of d >= 2
// dereferences d-1 times before the arrow: (*a)->b, (**a)->b.
func (a Access) Render(recv, member string) string {
	switch a.Kind {
	case AccessScope:
		return recv + "::" + member
	case AccessArrow:
		if a.Depth <= 1 {
			return recv + "->" + member
		}
		return "(" + strings.Repeat("*", a.Depth-1) + recv + ")->" + member
	}
	return recv + "." + member
}

// ExtCall marks a method-style call rewritten to an extension function.
type ExtCall struct {
	Func     *ExtFunc
	Receiver core.Expr
	Depth    int // pointer depth of the receiver; the call passes *recv
}

// Exit lists the raw pointers a return, break or continue deletes before
// leaving its blocks. Hold is set when the returned value reads one of them
// and must be computed first.
type Exit struct {
	Deletes []*core.VarDecl
	Hold    bool
}

// Info holds the results of resolution in side tables keyed by node.
type Info struct {
	Global *Scope

	Types     map[core.Expr]*types.Type
	TypeNames map[core.Expr]bool // expressions naming a namespace, class, enum or abstract
	TypeExprs map[*core.TypeExpr]*types.Type
	Uses      map[*core.Ident]*Symbol
	Access    map[*core.MemberExpr]Access
	ExtCalls  map[*core.CallExpr]*ExtCall
	Vars      map[*core.VarDecl]*Symbol
	Params    map[*core.Param]*Symbol
	LoopVars  map[core.Stmt]*Symbol
	Results   map[*core.FuncDecl]*types.Type
	This      map[*core.SelfExpr]bool
	Owned     map[*core.BlockStmt][]*core.VarDecl
	Exits     map[core.Stmt]*Exit
	Effects   map[*core.ReturnStmt]bool // implicit returns kept as expression statements
	Classes   map[*core.ClassDecl]*Symbol
	Abstracts map[string]*Abstract

	// extension functions in declaration order
	Extensions []*ExtFunc
	extByDecl  map[*core.FuncDecl]*ExtFunc
}

func newInfo() *Info {
	return &Info{
		Global:    NewScope(),
		Types:     make(map[core.Expr]*types.Type),
		TypeNames: make(map[core.Expr]bool),
		TypeExprs: make(map[*core.TypeExpr]*types.Type),
		Uses:      make(map[*core.Ident]*Symbol),
		Access:    make(map[*core.MemberExpr]Access),
		ExtCalls:  make(map[*core.CallExpr]*ExtCall),
		Vars:      make(map[*core.VarDecl]*Symbol),
		Params:    make(map[*core.Param]*Symbol),
		LoopVars:  make(map[core.Stmt]*Symbol),
		Results:   make(map[*core.FuncDecl]*types.Type),
		This:      make(map[*core.SelfExpr]bool),
		Owned:     make(map[*core.BlockStmt][]*core.VarDecl),
		Exits:     make(map[core.Stmt]*Exit),
		Effects:   make(map[*core.ReturnStmt]bool),
		Classes:   make(map[*core.ClassDecl]*Symbol),
		Abstracts: make(map[string]*Abstract),
		extByDecl: make(map[*core.FuncDecl]*ExtFunc),
	}
}

// TypeOf returns the type computed for e, or Unknown.
func (info *Info) TypeOf(e core.Expr) *types.Type {
	if t, ok := info.Types[e]; ok && t != nil {
		return t
	}
	return types.Unknown("")
}

// TypeOfExpr returns the resolved form of a written type.
func (info *Info) TypeOfExpr(t *core.TypeExpr) *types.Type {
	if rt, ok := info.TypeExprs[t]; ok {
		return rt
	}
	return types.Unknown(t.String())
}

// VarType returns the type of a declared variable or field.
func (info *Info) VarType(d *core.VarDecl) *types.Type {
	if sym, ok := info.Vars[d]; ok && sym.Type != nil {
		return sym.Type
	}
	return types.Unknown("")
}

// ParamType returns the type of a parameter, storage applied.
func (info *Info) ParamType(p *core.Param) *types.Type {
	if sym, ok := info.Params[p]; ok && sym.Type != nil {
		return sym.Type
	}
	return types.Unknown("")
}

// Result returns the declared or inferred result type of f.
func (info *Info) Result(f *core.FuncDecl) *types.Type {
	if t, ok := info.Results[f]; ok {
		return t
	}
	return types.Void()
}

// ExtensionFor returns the extension function declared by f, if any.
func (info *Info) ExtensionFor(f *core.FuncDecl) (*ExtFunc, bool) {
	ext, ok := info.extByDecl[f]
	return ext, ok
}

// ClassType returns the type of a local class declaration.
func (info *Info) ClassType(c *core.ClassDecl) *types.Type {
	if sym, ok := info.Classes[c]; ok {
		return sym.Type
	}
	return types.Class(c.Name)
}

// LocalBase returns the local class symbol of a base type expression, or nil
// when the base is external.
func (info *Info) LocalBase(base *core.TypeExpr) *core.ClassDecl {
	t := info.TypeOfExpr(base)
	if t.Kind != types.KindClass {
		return nil
	}
	for decl, sym := range info.Classes {
		if sym.Type == t {
			return decl
		}
	}
	return nil
}

// SymbolEntry is a flattened symbol for listings.
type SymbolEntry struct {
	Name    string
	Kind    SymbolKind
	Type    string
	Line    int
	Unknown bool
}

// Listing returns every symbol reachable from the global scope through
// namespaces, classes and enums, sorted by line then name.
func (info *Info) Listing() []SymbolEntry {
	var out []SymbolEntry
	var walk func(sc *Scope)
	walk = func(sc *Scope) {
		for _, sym := range sc.Symbols() {
			e := SymbolEntry{Name: sym.Qualified(), Kind: sym.Kind, Unknown: sym.Unknown}
			if sym.Type != nil && !sym.Kind.IsTypeName() {
				e.Type = sym.Type.String()
			}
			if sym.Decl != nil {
				e.Line = sym.Decl.Line()
			}
			out = append(out, e)
			if sym.Members != nil {
				walk(sym.Members)
			}
		}
	}
	walk(info.Global)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Name < out[j].Name
	})
	return out
}
