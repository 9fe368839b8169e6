// Package resolve binds names to symbols and computes expression types.
//
// Resolution runs three passes over a file:
//   - declare: hoists namespaces, classes, abstracts, enums, functions and
//     globals so any top-level or member name may be used before its
//     declaration
//   - signatures: resolves class bases, abstract and refurbish targets,
//     parameter, result and field types
//   - bodies: walks initializers and function bodies in source order,
//     inferring variable and return types
//
// Results are recorded in an Info keyed by AST node; the tree itself is only
// touched to settle parameter and loop variable storage that was left
// implicit in source.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/tasty/pkg/builtin"
	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/types"
)

// bailout unwinds the resolver after the first error.
type bailout struct{}

type funcPhase int

const (
	phaseNone funcPhase = iota
	phaseActive
	phaseDone
)

// funcState carries what a function body needs to be resolved on demand.
type funcState struct {
	decl  *core.FuncDecl
	scope *Scope  // declaring scope
	class *Symbol // enclosing class for methods
	ext   *ExtFunc
	phase funcPhase
}

// funcCtx is the state of the function body being walked.
type funcCtx struct {
	state   *funcState
	returns []*types.Type
	frames  []*ownFrame
}

// ownFrame tracks raw pointers a block allocated with new. loop marks the
// body of a loop, the frame break and continue leave last.
type ownFrame struct {
	block    *core.BlockStmt
	loop     bool
	vars     []*core.VarDecl
	released map[*core.VarDecl]bool
}

type resolver struct {
	table *builtin.Table
	info  *Info

	scope *Scope
	fn    *funcCtx

	funcs    map[*core.FuncDecl]*funcState
	classes  map[string]*Symbol // qualified name -> class symbol
	assumed  map[string]*Symbol // dotted assume directives
	refurbs  map[string]map[string]*ExtFunc

	err error
}

// Resolve resolves file against table. A nil table selects builtin.Default().
// The first error aborts resolution.
func Resolve(file *core.File, table *builtin.Table) (info *Info, err error) {
	if table == nil {
		table = builtin.Default()
	}
	r := &resolver{
		table:   table,
		info:    newInfo(),
		funcs:   make(map[*core.FuncDecl]*funcState),
		classes: make(map[string]*Symbol),
		assumed: make(map[string]*Symbol),
		refurbs: make(map[string]map[string]*ExtFunc),
	}
	r.scope = r.info.Global

	defer func() {
		if rec := recover(); rec != nil {
			if _, ok := rec.(bailout); !ok {
				panic(rec)
			}
			info, err = nil, r.err
		}
	}()

	r.declareDecls(r.info.Global, file.Decls)
	r.signatures(r.info.Global, file.Decls)
	r.bodies(r.info.Global, file.Decls)
	return r.info, nil
}

// fail records err and unwinds.
func (r *resolver) fail(err error) {
	r.err = err
	panic(bailout{})
}

// check positions a type error at n and fails with it.
func (r *resolver) check(err error, n core.Node) {
	if err == nil {
		return
	}
	var te *types.TypeError
	if errors.As(err, &te) {
		r.fail(te.At(n.Pos()))
	}
	r.fail(err)
}

func (r *resolver) declare(sc *Scope, sym *Symbol, at core.Node) {
	if err := sc.Declare(sym, at); err != nil {
		r.fail(err)
	}
}

// ---------- Pass 1: declare ----------

func (r *resolver) declareDecls(sc *Scope, decls []core.Decl) {
	for _, d := range decls {
		r.declareDecl(sc, d)
	}
}

func (r *resolver) declareDecl(sc *Scope, d core.Decl) {
	switch d := d.(type) {
	case *core.AssumeDecl:
		r.declareAssume(sc, d)
	case *core.NamespaceDecl:
		sym, ok := sc.LookupLocal(d.Name)
		if !ok || sym.Kind != SymNamespace {
			sym = &Symbol{Name: d.Name, Kind: SymNamespace, Decl: d}
			r.declare(sc, sym, d)
			sym.Members = sc.Child(ScopeNamespace, sym)
			sym.Type = types.Namespace(sym.Qualified())
		}
		r.declareDecls(sym.Members, d.Decls)
	case *core.ClassDecl:
		sym := &Symbol{Name: d.Name, Kind: SymClass, Decl: d}
		r.declare(sc, sym, d)
		sym.Members = sc.Child(ScopeClass, sym)
		sym.Type = types.Class(sym.Qualified())
		r.classes[sym.Type.Name] = sym
		r.info.Classes[d] = sym
		for _, m := range d.Members {
			r.declareDecl(sym.Members, m)
		}
	case *core.AbstractDecl:
		sym := &Symbol{Name: d.Name, Kind: SymAbstract, Decl: d}
		r.declare(sc, sym, d)
		sym.Members = sc.Child(ScopeClass, sym)
		for _, m := range d.Members {
			r.declareDecl(sym.Members, m)
		}
		r.info.Abstracts[d.Name] = &Abstract{
			Name:      d.Name,
			Forwarded: make(map[string]*core.FuncDecl),
			Ext:       make(map[string]*ExtFunc),
			Decl:      d,
		}
	case *core.EnumDecl:
		sym := &Symbol{Name: d.Name, Kind: SymEnum, Decl: d}
		r.declare(sc, sym, d)
		sym.Members = sc.Child(ScopeClass, sym)
		sym.Type = types.Enum(sym.Qualified())
		for _, m := range d.Members {
			r.declare(sym.Members, &Symbol{Name: m.Name, Kind: SymEnumMember, Decl: m, Type: sym.Type}, m)
		}
	case *core.AttributeDecl:
		r.declare(sc, &Symbol{Name: d.Name, Kind: SymAttribute, Decl: d}, d)
	case *core.FuncDecl:
		sym := &Symbol{Name: d.Name, Kind: SymFunction, Decl: d, Static: d.Modifiers.Has(core.ModStatic)}
		if d.Kind != core.FuncConstructor && d.Kind != core.FuncDestructor {
			r.declare(sc, sym, d)
		}
		st := &funcState{decl: d, scope: sc}
		if sc.Kind() == ScopeClass && sc.Owner() != nil && sc.Owner().Kind == SymClass {
			st.class = sc.Owner()
		}
		r.funcs[d] = st
	case *core.VarDecl:
		sym := &Symbol{Name: d.Name, Kind: SymVariable, Decl: d, Storage: d.Storage, Static: d.Modifiers.Has(core.ModStatic)}
		r.declare(sc, sym, d)
		r.info.Vars[d] = sym
	}
}

func (r *resolver) declareAssume(sc *Scope, d *core.AssumeDecl) {
	sym := &Symbol{Name: d.Name, Decl: d, Assumed: true}
	switch d.Kind {
	case "namespace":
		sym.Kind = SymNamespace
		sym.Type = types.Namespace(d.Name)
	case "class":
		sym.Kind = SymClass
		sym.Type = types.Class(d.Name)
	case "function":
		sym.Kind = SymFunction
		sym.Type = types.Unknown("")
	default:
		sym.Kind = SymVariable
		sym.Type = types.Unknown("")
	}
	if strings.Contains(d.Name, ".") {
		r.assumed[d.Name] = sym
		return
	}
	r.declare(sc, sym, d)
}

// ---------- Pass 2: signatures ----------

func (r *resolver) signatures(sc *Scope, decls []core.Decl) {
	saved := r.scope
	r.scope = sc
	defer func() { r.scope = saved }()

	for _, d := range decls {
		switch d := d.(type) {
		case *core.NamespaceDecl:
			sym, _ := sc.LookupLocal(d.Name)
			r.signatures(sym.Members, d.Decls)
		case *core.ClassDecl:
			sym := r.info.Classes[d]
			for _, b := range d.Bases {
				if bt := r.typeExpr(b); bt.Kind == types.KindClass {
					sym.Type.Bases = append(sym.Type.Bases, bt)
				}
			}
			r.signatures(sym.Members, d.Members)
		case *core.AbstractDecl:
			r.abstractSignature(sc, d)
		case *core.RefurbishDecl:
			r.refurbishSignature(d)
		case *core.FuncDecl:
			r.funcSignature(d)
		case *core.VarDecl:
			if d.Type != nil {
				r.info.Vars[d].Type = applyStorage(d.Storage, r.typeExpr(d.Type))
			}
		}
	}
}

func (r *resolver) abstractSignature(sc *Scope, d *core.AbstractDecl) {
	sym, _ := sc.LookupLocal(d.Name)
	abs := r.info.Abstracts[d.Name]
	abs.Target = r.typeExpr(d.Target)
	sym.Type = types.ViaAbstract(abs.Target, d.Name)

	saved := r.scope
	r.scope = sym.Members
	defer func() { r.scope = saved }()

	for _, f := range d.Members {
		r.funcSignature(f)
		if f.Body == nil {
			abs.Forwarded[f.Name] = f
			continue
		}
		ext := &ExtFunc{
			Owner: d.Name,
			Name:  f.Name,
			CName: extName(d.Name, f.Name),
			Decl:  f,
			Self:  types.Reference(sym.Type, false),
		}
		abs.Ext[f.Name] = ext
		r.addExtension(ext)
	}
}

func (r *resolver) refurbishSignature(d *core.RefurbishDecl) {
	target := r.typeExpr(d.Target)
	owner := d.Target.String()
	key := target.String()
	if r.refurbs[key] == nil {
		r.refurbs[key] = make(map[string]*ExtFunc)
	}
	for _, f := range d.Members {
		r.funcs[f] = &funcState{decl: f, scope: r.scope}
		r.funcSignature(f)
		ext := &ExtFunc{
			Owner: owner,
			Name:  f.Name,
			CName: extName(owner, f.Name),
			Decl:  f,
			Self:  types.Reference(target, false),
		}
		r.refurbs[key][f.Name] = ext
		r.addExtension(ext)
	}
}

func (r *resolver) addExtension(ext *ExtFunc) {
	r.info.Extensions = append(r.info.Extensions, ext)
	r.info.extByDecl[ext.Decl] = ext
	r.funcs[ext.Decl].ext = ext
}

func (r *resolver) funcSignature(f *core.FuncDecl) {
	for _, p := range f.Params {
		if p.Storage.IsZero() {
			p.Storage = core.Storage{Kind: core.StorageValue}
		}
		t := applyStorage(p.Storage, r.typeExpr(p.Type))
		r.info.Params[p] = &Symbol{Name: p.Name, Kind: SymParameter, Type: t, Decl: p, Storage: p.Storage}
	}
	switch {
	case f.Result != nil:
		r.info.Results[f] = r.typeExpr(f.Result)
	case f.Kind == core.FuncConstructor || f.Kind == core.FuncDestructor:
		r.info.Results[f] = types.Void()
	case f.Body == nil:
		r.info.Results[f] = types.Void()
	}
}

// extName builds the C++ name of an extension function.
func extName(owner, fn string) string {
	clean := strings.Map(func(c rune) rune {
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			return c
		}
		return '_'
	}, owner)
	return strings.TrimRight(clean, "_") + "_" + fn
}

// applyStorage returns the type of a variable of base type t declared with st.
// ptrN for N > 1 wraps the raw pointer in N-1 shared pointers.
func applyStorage(st core.Storage, t *types.Type) *types.Type {
	switch st.Kind {
	case core.StorageReference:
		return types.Reference(t, st.Const)
	case core.StorageRawPointer:
		if t.Kind != types.KindPointer {
			t = types.Pointer(t, 1)
		}
		for i := 1; i < st.Level; i++ {
			t = types.Smart(t, false)
		}
		return t
	case core.StorageShared, core.StorageUnique:
		if t.Kind == types.KindSmart {
			return t
		}
		return types.Smart(t, st.Kind == core.StorageUnique)
	}
	return t
}

// ---------- Type expressions ----------

func (r *resolver) typeExpr(te *core.TypeExpr) *types.Type {
	if te == nil {
		return types.Unknown("")
	}
	var t *types.Type
	switch {
	case te.IsTuple:
		elems := make([]*types.Type, len(te.Tuple))
		for i, e := range te.Tuple {
			elems[i] = r.typeExpr(e)
		}
		t = types.Tuple(elems...)
	case te.IsFunc:
		params := make([]*types.Type, len(te.Params))
		for i, p := range te.Params {
			params[i] = r.typeExpr(p)
		}
		var result *types.Type
		if te.Result != nil {
			result = r.typeExpr(te.Result)
		}
		t = types.Func(params, result)
	default:
		t = r.namedType(te.Name)
		if len(te.Args) > 0 {
			args := make([]*types.Type, len(te.Args))
			for i, a := range te.Args {
				args[i] = r.typeExpr(a)
			}
			t = types.Template(t, args...)
		}
	}
	t = types.Pointer(t, te.Pointer)
	r.info.TypeExprs[te] = t
	return t
}

// namedType resolves a dotted type name. Numbers used as template arguments
// and names nothing declares pass through as Unknown.
func (r *resolver) namedType(name string) *types.Type {
	if p, ok := r.table.Primitive(name); ok {
		return types.Primitive(p)
	}
	if sym := r.lookupDotted(name); sym != nil && sym.Type != nil {
		switch sym.Kind {
		case SymClass, SymEnum, SymAbstract:
			return sym.Type
		}
	}
	return types.Unknown(name)
}

// assumedPrefix reports whether name is the leading part of a dotted
// assume directive, which makes it a namespace.
func (r *resolver) assumedPrefix(name string) bool {
	for full := range r.assumed {
		if strings.HasPrefix(full, name+".") {
			return true
		}
	}
	return false
}

// lookupDotted resolves a.b.c through namespace, class and enum members.
func (r *resolver) lookupDotted(name string) *Symbol {
	if sym, ok := r.assumed[name]; ok {
		return sym
	}
	parts := strings.Split(name, ".")
	sym, ok := r.scope.Lookup(parts[0])
	if !ok {
		return nil
	}
	for _, part := range parts[1:] {
		if sym.Members == nil {
			return nil
		}
		if sym, ok = sym.Members.LookupLocal(part); !ok {
			return nil
		}
	}
	return sym
}

// memberOf finds name among the members of a class or its local bases.
func (r *resolver) memberOf(cls *Symbol, name string) *Symbol {
	seen := make(map[*Symbol]bool)
	var find func(c *Symbol) *Symbol
	find = func(c *Symbol) *Symbol {
		if c == nil || c.Members == nil || seen[c] {
			return nil
		}
		seen[c] = true
		if m, ok := c.Members.LookupLocal(name); ok {
			return m
		}
		if c.Type == nil {
			return nil
		}
		for _, b := range c.Type.Bases {
			if m := find(r.classes[b.Name]); m != nil {
				return m
			}
		}
		return nil
	}
	return find(cls)
}

// classOf returns the local class reached by dereferencing t, or nil.
func (r *resolver) classOf(t *types.Type) *Symbol {
	p := t.Pointee()
	if p == nil || p.Kind != types.KindClass {
		return nil
	}
	return r.classes[p.Name]
}

// ---------- Pass 3: bodies ----------

func (r *resolver) bodies(sc *Scope, decls []core.Decl) {
	saved := r.scope
	r.scope = sc
	defer func() { r.scope = saved }()

	for _, d := range decls {
		switch d := d.(type) {
		case *core.NamespaceDecl:
			sym, _ := sc.LookupLocal(d.Name)
			r.bodies(sym.Members, d.Decls)
		case *core.ClassDecl:
			r.bodies(r.info.Classes[d].Members, d.Members)
		case *core.AbstractDecl:
			for _, f := range d.Members {
				r.resolveFunc(f)
			}
		case *core.RefurbishDecl:
			for _, f := range d.Members {
				r.resolveFunc(f)
			}
		case *core.EnumDecl:
			sym, _ := sc.LookupLocal(d.Name)
			r.scope = sym.Members
			for _, m := range d.Members {
				if m.Value != nil {
					r.expr(m.Value)
				}
			}
			r.scope = sc
		case *core.FuncDecl:
			r.resolveFunc(d)
		case *core.VarDecl:
			r.varDecl(d, r.info.Vars[d])
		}
	}
}

// resolveFunc resolves the body of f once, inferring its result type when
// none was written. A call that reaches f while its body is being resolved
// sees an Unknown result.
func (r *resolver) resolveFunc(f *core.FuncDecl) {
	st := r.funcs[f]
	if st == nil || st.phase != phaseNone {
		return
	}
	st.phase = phaseActive

	savedScope, savedFn := r.scope, r.fn
	r.scope = st.scope.Child(ScopeFunction, nil)
	r.fn = &funcCtx{state: st}
	defer func() {
		r.scope, r.fn = savedScope, savedFn
		st.phase = phaseDone
	}()

	for _, p := range f.Params {
		sym := r.info.Params[p]
		r.declare(r.scope, sym, p)
		if p.Default != nil {
			r.check(types.Assignable(sym.Type, r.expr(p.Default)), p.Default)
		}
	}
	if f.Body != nil {
		r.block(f.Body)
	}

	if _, ok := r.info.Results[f]; ok {
		return
	}
	r.info.Results[f] = r.inferResult(f, r.fn.returns)
}

func (r *resolver) inferResult(f *core.FuncDecl, returns []*types.Type) *types.Type {
	if len(returns) == 0 {
		if f.Name == "main" && r.funcs[f].scope == r.info.Global {
			return types.Primitive(mustPrimitive(r.table, "int"))
		}
		return types.Void()
	}
	t, ok := types.Common(returns)
	if !ok {
		parts := make([]string, len(returns))
		for i, rt := range returns {
			parts[i] = rt.String()
		}
		r.fail(&types.TypeError{
			Kind:    types.AmbiguousInference,
			Pos:     f.Pos(),
			Message: fmt.Sprintf(types.ErrAmbiguous, f.Name, strings.Join(parts, ", ")),
		})
	}
	return t.Deref()
}

// funcResult returns the result of f, resolving its body first when the
// result must be inferred.
func (r *resolver) funcResult(f *core.FuncDecl) *types.Type {
	if t, ok := r.info.Results[f]; ok {
		return t
	}
	r.resolveFunc(f)
	if t, ok := r.info.Results[f]; ok {
		return t
	}
	return types.Unknown("")
}

func (r *resolver) funcType(f *core.FuncDecl) *types.Type {
	params := make([]*types.Type, len(f.Params))
	for i, p := range f.Params {
		params[i] = r.info.ParamType(p)
	}
	return types.Func(params, r.funcResult(f))
}

func mustPrimitive(table *builtin.Table, name string) builtin.Primitive {
	p, ok := table.Primitive(name)
	if !ok {
		return builtin.Primitive{Name: name, CType: name, Rank: 4, Integer: true}
	}
	return p
}
