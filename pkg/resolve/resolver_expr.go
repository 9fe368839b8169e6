package resolve

import (
	"fmt"

	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/token"
	"github.com/leapstack-labs/tasty/pkg/types"
)

// ---------- Expressions ----------

// expr resolves e, records its type and returns it.
func (r *resolver) expr(e core.Expr) *types.Type {
	t := r.exprType(e)
	if t == nil {
		t = types.Unknown("")
	}
	r.info.Types[e] = t
	return t
}

func (r *resolver) exprType(e core.Expr) *types.Type {
	switch e := e.(type) {
	case *core.Literal:
		return types.OfLiteral(e, r.table)
	case *core.Ident:
		return r.ident(e)
	case *core.SelfExpr:
		return r.self(e)
	case *core.ParenExpr:
		return r.expr(e.X)
	case *core.BinaryExpr:
		return r.binary(e)
	case *core.UnaryExpr:
		return r.unary(e)
	case *core.CallExpr:
		return r.call(e)
	case *core.MemberExpr:
		return r.member(e)
	case *core.IndexExpr:
		return r.index(e)
	case *core.NewExpr:
		for _, a := range e.Args {
			r.expr(a)
		}
		return types.Pointer(r.typeExpr(e.Type), 1)
	case *core.DeleteExpr:
		r.expr(e.X)
		if id, ok := e.X.(*core.Ident); ok {
			r.release(id)
		}
		return types.Void()
	case *core.CastExpr:
		src := r.expr(e.X)
		dst := r.typeExpr(e.Type)
		r.check(types.CheckCast(src, dst, e.Kind), e)
		return dst
	case *core.TupleLit:
		elems := make([]*types.Type, len(e.Elems))
		for i, x := range e.Elems {
			elems[i] = r.expr(x).Deref()
		}
		return types.Tuple(elems...)
	case *core.TupleIndexExpr:
		t := r.expr(e.X).Deref()
		if t.Kind != types.KindTuple {
			return types.Unknown("")
		}
		if e.Index < 0 || e.Index >= len(t.Args) {
			r.fail(&types.TypeError{
				Kind:    types.InvalidTupleIndex,
				Pos:     e.Pos(),
				Message: fmt.Sprintf(types.ErrTupleIndex, e.Index, t, len(t.Args)),
			})
		}
		return t.Args[e.Index]
	case *core.RangeExpr:
		r.fail(&types.TypeError{Kind: types.InvalidRange, Pos: e.Pos(), Message: types.ErrRange})
	case *core.TernaryExpr:
		r.expr(e.Cond)
		a, b := r.expr(e.Then), r.expr(e.Else)
		if t, ok := types.Unify(a, b); ok {
			return t
		}
		return a
	}
	return types.Unknown("")
}

func (r *resolver) rangeExpr(e *core.RangeExpr) *types.Type {
	from, to := r.expr(e.From), r.expr(e.To)
	elem, ok := types.Unify(from.Deref(), to.Deref())
	if !ok {
		r.fail(&types.TypeError{
			Kind:    types.InvalidRange,
			Pos:     e.Pos(),
			Message: fmt.Sprintf("range bounds %s and %s have no common type", from, to),
		})
	}
	t := types.Range(elem)
	r.info.Types[e] = t
	return t
}

// ident binds a bare name. Names nothing declares become Unknown symbols
// and pass through unchanged.
func (r *resolver) ident(id *core.Ident) *types.Type {
	sym, ok := r.scope.Lookup(id.Name)
	if !ok && r.fn != nil && r.fn.state.class != nil {
		sym = r.memberOf(r.fn.state.class, id.Name)
		ok = sym != nil
	}
	if !ok {
		sym, ok = r.assumed[id.Name]
	}
	if !ok {
		if r.table.IsNamespace(id.Name) || r.assumedPrefix(id.Name) {
			sym = &Symbol{Name: id.Name, Kind: SymNamespace, Type: types.Namespace(id.Name)}
		} else {
			sym = &Symbol{Name: id.Name, Kind: SymVariable, Type: types.Unknown(""), Unknown: true}
		}
	}
	r.info.Uses[id] = sym
	return r.symbolType(id, sym)
}

// symbolType is the type of a reference to sym. References to type names
// are marked so member access on them uses '::'.
func (r *resolver) symbolType(e core.Expr, sym *Symbol) *types.Type {
	if sym.Kind.IsTypeName() {
		r.info.TypeNames[e] = true
		if sym.Type == nil {
			return types.Namespace(sym.Name)
		}
		return sym.Type
	}
	if sym.Kind == SymFunction {
		if f, ok := sym.Decl.(*core.FuncDecl); ok {
			return r.funcType(f)
		}
	}
	if sym.Type == nil {
		return types.Unknown("")
	}
	return sym.Type
}

func (r *resolver) self(e *core.SelfExpr) *types.Type {
	if r.fn == nil {
		return types.Unknown("")
	}
	if ext := r.fn.state.ext; ext != nil {
		return ext.Self
	}
	if cls := r.fn.state.class; cls != nil {
		r.info.This[e] = true
		return types.Pointer(cls.Type, 1)
	}
	return types.Unknown("")
}

func (r *resolver) binary(e *core.BinaryExpr) *types.Type {
	l := r.expr(e.Left)
	rt := r.expr(e.Right)
	switch e.Op {
	case token.ASSIGN:
		if !isNew(e.Right) {
			r.check(types.Assignable(l, rt), e)
		}
		return l
	case token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN,
		token.PERCENT_ASSIGN, token.AMP_ASSIGN, token.PIPE_ASSIGN, token.CARET_ASSIGN,
		token.SHL_ASSIGN, token.SHR_ASSIGN:
		return l
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE, token.LAND, token.LOR:
		return types.Primitive(mustPrimitive(r.table, "bool"))
	}
	if t, ok := types.Unify(l, rt); ok {
		return t
	}
	return l.Deref()
}

func (r *resolver) unary(e *core.UnaryExpr) *types.Type {
	x := r.expr(e.X)
	switch e.Op {
	case token.NOT:
		return types.Primitive(mustPrimitive(r.table, "bool"))
	case token.STAR:
		x = x.Deref()
		switch x.Kind {
		case types.KindPointer:
			return types.Pointer(x.Elem, x.Level-1)
		case types.KindSmart:
			return x.Elem
		}
		return types.Unknown("")
	case token.AMP:
		return types.Pointer(x.Deref(), 1)
	}
	return x.Deref()
}

func (r *resolver) index(e *core.IndexExpr) *types.Type {
	x := r.expr(e.X).Deref()
	r.expr(e.Index)
	switch {
	case x.Kind == types.KindTemplate && len(x.Args) > 0:
		return x.Args[len(x.Args)-1]
	case x.Kind == types.KindPointer:
		return types.Pointer(x.Elem, x.Level-1)
	case x.Kind == types.KindPrimitive && x.Prim.Name == "text":
		return types.Primitive(mustPrimitive(r.table, "char"))
	}
	return types.Unknown("")
}

// member resolves a.b outside a call and decides its emitted form.
func (r *resolver) member(m *core.MemberExpr) *types.Type {
	recv := r.expr(m.X)
	sym := r.access(m, recv)
	if sym == nil {
		if r.info.TypeNames[m.X] {
			return r.scopedUnknown(m)
		}
		return types.Unknown("")
	}
	if sym.Kind.IsTypeName() {
		r.info.TypeNames[m] = true
	}
	if sym.Kind == SymFunction {
		if f, ok := sym.Decl.(*core.FuncDecl); ok {
			return r.funcType(f)
		}
		return types.Unknown("")
	}
	return r.symbolType(m, sym)
}

// scopedUnknown types a member of a namespace or class nothing declares.
// Nested built-in namespaces such as std.chrono stay type names.
func (r *resolver) scopedUnknown(m *core.MemberExpr) *types.Type {
	name := core.QualifiedName(m)
	if name == "" {
		return types.Unknown("")
	}
	if r.table.IsNamespace(name) || r.assumedPrefix(name) {
		r.info.TypeNames[m] = true
		return types.Namespace(name)
	}
	if sym, ok := r.assumed[name]; ok {
		return r.symbolType(m, sym)
	}
	return types.Unknown("")
}

// access records the emitted form of m and returns the member symbol when
// the receiver is a local namespace, class, enum or abstract.
func (r *resolver) access(m *core.MemberExpr, recv *types.Type) *Symbol {
	switch m.Op {
	case token.SCOPE:
		r.info.Access[m] = Access{Kind: AccessScope}
	case token.ARROW:
		r.info.Access[m] = Access{Kind: AccessArrow, Depth: 1}
	default:
		switch depth := recv.PointerDepth(); {
		case r.info.TypeNames[m.X]:
			r.info.Access[m] = Access{Kind: AccessScope}
		case depth >= 1:
			r.info.Access[m] = Access{Kind: AccessArrow, Depth: depth}
		default:
			r.info.Access[m] = Access{Kind: AccessDot}
		}
	}

	if r.info.TypeNames[m.X] {
		if owner := r.typeNameSymbol(m.X); owner != nil && owner.Members != nil {
			if sym, ok := owner.Members.LookupLocal(m.Name); ok {
				return sym
			}
		}
		return nil
	}
	return r.memberOf(r.classOf(recv), m.Name)
}

// typeNameSymbol returns the symbol behind an expression marked as a type
// name.
func (r *resolver) typeNameSymbol(e core.Expr) *Symbol {
	switch e := e.(type) {
	case *core.Ident:
		return r.info.Uses[e]
	case *core.MemberExpr:
		if owner := r.typeNameSymbol(e.X); owner != nil && owner.Members != nil {
			sym, _ := owner.Members.LookupLocal(e.Name)
			return sym
		}
	}
	return nil
}

// call resolves a call. Method-style calls on a receiver with an extension
// of that name become extension calls; calls through an abstract type must
// name a forwarded member.
func (r *resolver) call(c *core.CallExpr) *types.Type {
	t := r.callee(c)
	for _, a := range c.Args {
		r.expr(a)
	}
	return t
}

func (r *resolver) callee(c *core.CallExpr) *types.Type {
	m, ok := c.Fn.(*core.MemberExpr)
	if !ok {
		fn := r.expr(c.Fn)
		if id, ok := c.Fn.(*core.Ident); ok {
			if sym := r.info.Uses[id]; sym != nil && sym.Kind == SymClass {
				return sym.Type
			}
		}
		if fn.Kind == types.KindFunc {
			return fn.Elem
		}
		return types.Unknown("")
	}

	recv := r.expr(m.X)
	if !r.info.TypeNames[m.X] {
		if ext := r.extension(recv, m.Name); ext != nil {
			r.info.ExtCalls[c] = &ExtCall{Func: ext, Receiver: m.X, Depth: recv.PointerDepth()}
			r.info.Types[m] = types.Unknown("")
			return r.funcResult(ext.Decl)
		}
		r.checkForwarded(m, recv)
	}

	sym := r.access(m, recv)
	var t *types.Type
	switch {
	case sym == nil && r.info.TypeNames[m.X]:
		t = r.scopedUnknown(m)
	case sym == nil:
		t = r.forwardedResult(recv, m.Name)
	case sym.Kind == SymFunction:
		if f, ok := sym.Decl.(*core.FuncDecl); ok {
			t = r.funcType(f)
		} else {
			t = types.Unknown("")
		}
	case sym.Kind == SymClass:
		r.info.TypeNames[m] = true
		r.info.Types[m] = sym.Type
		return sym.Type
	default:
		t = r.symbolType(m, sym)
	}
	r.info.Types[m] = t
	if t.Kind == types.KindFunc {
		return t.Elem
	}
	return types.Unknown("")
}

// extension finds an extension function named name for the receiver type.
func (r *resolver) extension(recv *types.Type, name string) *ExtFunc {
	target := recv.Pointee()
	if target == nil {
		return nil
	}
	if target.Abstract != "" {
		if abs := r.info.Abstracts[target.Abstract]; abs != nil {
			if ext, ok := abs.Ext[name]; ok {
				return ext
			}
		}
	}
	if exts, ok := r.refurbs[target.String()]; ok {
		return exts[name]
	}
	return nil
}

// checkForwarded fails when m calls a member an abstract receiver does not
// forward. Inside the abstract's own extensions self may reach any member
// of the target.
func (r *resolver) checkForwarded(m *core.MemberExpr, recv *types.Type) {
	target := recv.Pointee()
	if target == nil || target.Abstract == "" {
		return
	}
	abs := r.info.Abstracts[target.Abstract]
	if abs == nil {
		return
	}
	if _, ok := abs.Forwarded[m.Name]; ok {
		return
	}
	if _, isSelf := m.X.(*core.SelfExpr); isSelf && r.fn != nil {
		if ext := r.fn.state.ext; ext != nil && ext.Owner == abs.Name {
			return
		}
	}
	r.fail(&ResolutionError{
		Kind:    NotForwarded,
		Pos:     m.Pos(),
		Message: fmt.Sprintf(ErrNotForwarded, abs.Name, m.Name),
	})
}

// forwardedResult is the result of a forwarded abstract member, Unknown
// for anything else.
func (r *resolver) forwardedResult(recv *types.Type, name string) *types.Type {
	target := recv.Pointee()
	if target == nil || target.Abstract == "" {
		return types.Unknown("")
	}
	abs := r.info.Abstracts[target.Abstract]
	if abs == nil {
		return types.Unknown("")
	}
	if f, ok := abs.Forwarded[name]; ok {
		return r.funcType(f)
	}
	return types.Unknown("")
}
