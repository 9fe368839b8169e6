package resolve

import (
	"slices"

	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/types"
)

// ---------- Statements ----------

func (r *resolver) block(b *core.BlockStmt) {
	r.frameBlock(b, false)
}

// loopBody resolves the body of a loop.
func (r *resolver) loopBody(b *core.BlockStmt) {
	r.frameBlock(b, true)
}

// frameBlock resolves b in a new scope. Raw pointers it allocates and does
// not release are recorded for deletion at its closing brace, unless the
// block ends by leaving, in which case the exit deletes them.
func (r *resolver) frameBlock(b *core.BlockStmt, loop bool) {
	saved := r.scope
	r.scope = r.scope.Child(ScopeBlock, nil)
	frame := &ownFrame{block: b, loop: loop, released: make(map[*core.VarDecl]bool)}
	r.fn.frames = append(r.fn.frames, frame)

	for _, s := range b.Stmts {
		r.stmt(s)
	}

	if !r.leaves(b) {
		var owned []*core.VarDecl
		for _, v := range frame.vars {
			if !frame.released[v] {
				owned = append(owned, v)
			}
		}
		if len(owned) > 0 {
			r.info.Owned[b] = owned
		}
	}
	r.fn.frames = r.fn.frames[:len(r.fn.frames)-1]
	r.scope = saved
}

// leaves reports whether the last statement of b is a return, break or
// continue.
func (r *resolver) leaves(b *core.BlockStmt) bool {
	if len(b.Stmts) == 0 {
		return false
	}
	switch s := b.Stmts[len(b.Stmts)-1].(type) {
	case *core.ReturnStmt:
		return !r.info.Effects[s]
	case *core.BreakStmt, *core.ContinueStmt:
		return true
	}
	return false
}

func (r *resolver) stmt(s core.Stmt) {
	switch s := s.(type) {
	case *core.BlockStmt:
		r.block(s)
	case *core.ExprStmt:
		r.expr(s.X)
	case *core.DeclStmt:
		sym := &Symbol{Name: s.Decl.Name, Kind: SymVariable, Decl: s.Decl, Storage: s.Decl.Storage}
		if s.Decl.Type != nil {
			sym.Type = applyStorage(s.Decl.Storage, r.typeExpr(s.Decl.Type))
		}
		r.varDecl(s.Decl, sym)
		r.declare(r.scope, sym, s.Decl)
		r.info.Vars[s.Decl] = sym
		if s.Decl.Storage.Kind == core.StorageRawPointer && isNew(s.Decl.Value) {
			top := r.fn.frames[len(r.fn.frames)-1]
			top.vars = append(top.vars, s.Decl)
		}
	case *core.IfStmt:
		r.expr(s.Cond)
		r.block(s.Then)
		if s.Else != nil {
			r.stmt(s.Else)
		}
	case *core.WhileStmt:
		if s.Cond != nil {
			r.expr(s.Cond)
		}
		r.loopBody(s.Body)
	case *core.RangeLoopStmt:
		r.rangeLoop(s)
	case *core.ForInStmt:
		r.forIn(s)
	case *core.ReturnStmt:
		r.returnStmt(s)
	case *core.BreakStmt, *core.ContinueStmt:
		r.exit(s, nil, nil, true)
	}
}

func (r *resolver) rangeLoop(s *core.RangeLoopStmt) {
	from := r.expr(s.From)
	to := r.expr(s.To)
	if s.Step != nil {
		r.expr(s.Step)
	}
	t, ok := types.Unify(from.Deref(), to.Deref())
	if !ok || t.IsUnknown() {
		t = types.Primitive(mustPrimitive(r.table, "int"))
	}

	saved := r.scope
	r.scope = r.scope.Child(ScopeBlock, nil)
	sym := &Symbol{Name: s.Var, Kind: SymVariable, Type: t, Decl: s, Storage: core.Storage{Kind: core.StorageValue}}
	r.declare(r.scope, sym, s)
	r.info.LoopVars[s] = sym
	r.loopBody(s.Body)
	r.scope = saved
}

func (r *resolver) forIn(s *core.ForInStmt) {
	var iter *types.Type
	if rng, ok := s.Iter.(*core.RangeExpr); ok {
		iter = r.rangeExpr(rng)
	} else {
		iter = r.expr(s.Iter)
	}
	if s.Storage.IsZero() {
		s.Storage = core.Storage{Kind: core.StorageValue}
	}

	saved := r.scope
	r.scope = r.scope.Child(ScopeBlock, nil)
	sym := &Symbol{
		Name:    s.Var,
		Kind:    SymVariable,
		Type:    applyStorage(s.Storage, elemType(iter)),
		Decl:    s,
		Storage: s.Storage,
	}
	r.declare(r.scope, sym, s)
	r.info.LoopVars[s] = sym
	r.loopBody(s.Body)
	r.scope = saved
}

// elemType is the element type of an iterated value: the range element, or
// the argument of a single-argument template such as std.vector<int>.
func elemType(t *types.Type) *types.Type {
	t = t.Deref()
	switch {
	case t.Kind == types.KindRange:
		return t.Elem
	case t.Kind == types.KindTemplate && len(t.Args) == 1:
		return t.Args[0]
	}
	return types.Unknown("")
}

func (r *resolver) returnStmt(s *core.ReturnStmt) {
	if s.Value == nil {
		r.fn.returns = append(r.fn.returns, types.Void())
		r.exit(s, nil, nil, false)
		return
	}
	t := r.expr(s.Value)
	// a trailing expression of main or of void type is only evaluated
	if s.Implicit && (t.Kind == types.KindVoid || r.inMain()) {
		r.info.Effects[s] = true
		return
	}
	r.fn.returns = append(r.fn.returns, t)

	var kept *core.VarDecl
	if id, ok := s.Value.(*core.Ident); ok {
		kept = r.varOf(id)
	}
	r.exit(s, s.Value, kept, false)

	f := r.fn.state.decl
	if f.Result != nil && !isNew(s.Value) {
		r.check(types.Assignable(r.info.Results[f], t), s.Value)
	}
}

// inMain reports whether the body being resolved is the global main.
func (r *resolver) inMain() bool {
	st := r.fn.state
	return st.decl.Name == "main" && st.decl.Kind == core.FuncPlain && st.scope == r.info.Global
}

// exit records the raw pointers s must delete: the live allocations of every
// enclosing block up to the function body, or up to the innermost loop body
// for break and continue. kept is the pointer being returned.
func (r *resolver) exit(s core.Stmt, value core.Expr, kept *core.VarDecl, loop bool) {
	var deletes []*core.VarDecl
	for i := len(r.fn.frames) - 1; i >= 0; i-- {
		f := r.fn.frames[i]
		for _, v := range f.vars {
			if v != kept && !f.released[v] {
				deletes = append(deletes, v)
			}
		}
		if loop && f.loop {
			break
		}
	}
	if len(deletes) == 0 {
		return
	}
	r.info.Exits[s] = &Exit{Deletes: deletes, Hold: value != nil && r.reads(value, deletes)}
}

// reads reports whether e refers to any of vars.
func (r *resolver) reads(e core.Expr, vars []*core.VarDecl) bool {
	found := false
	core.Inspect(e, func(n core.Node) bool {
		if id, ok := n.(*core.Ident); ok && slices.Contains(vars, r.varOf(id)) {
			found = true
		}
		return !found
	})
	return found
}

// varOf returns the variable declaration id refers to, or nil.
func (r *resolver) varOf(id *core.Ident) *core.VarDecl {
	sym := r.info.Uses[id]
	if sym == nil {
		return nil
	}
	d, _ := sym.Decl.(*core.VarDecl)
	return d
}

// release drops the variable named by id from automatic deletion.
func (r *resolver) release(id *core.Ident) {
	d := r.varOf(id)
	if d == nil || r.fn == nil {
		return
	}
	for _, f := range r.fn.frames {
		f.released[d] = true
	}
}

// varDecl resolves the initializer of d and settles sym.Type. Without a
// written type the variable takes the initializer's type; a new-expression
// contributes the allocated type, wrapped according to the storage.
func (r *resolver) varDecl(d *core.VarDecl, sym *Symbol) {
	var vt *types.Type
	if d.Value != nil {
		vt = r.expr(d.Value)
	}
	if d.Type != nil {
		if sym.Type == nil {
			sym.Type = applyStorage(d.Storage, r.typeExpr(d.Type))
		}
		if vt != nil && !isNew(d.Value) {
			r.check(types.Assignable(sym.Type, vt), d.Value)
		}
		return
	}

	switch {
	case vt == nil:
		sym.Type = types.Unknown("")
	case isNew(d.Value):
		sym.Type = applyStorage(d.Storage, vt.Elem)
	default:
		sym.Type = applyStorage(d.Storage, vt.Deref())
	}
}

func isNew(e core.Expr) bool {
	_, ok := e.(*core.NewExpr)
	return ok
}
