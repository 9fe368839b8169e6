// Package include decides which #include directives a translated file needs
// and whether each belongs in the header or the source.
//
// Explicit directives are placed by their kind: include and import go to
// the header, contain and derive to the source. Implied includes come from
// what the file uses: tuples, smart pointers, moves, function types,
// primitives with a header, and qualified names listed in the built-in
// include map. An implied include lands in the header when the use is
// visible in a declaration the header carries, and in the source otherwise.
package include

import (
	"strings"

	"github.com/leapstack-labs/tasty/pkg/builtin"
	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/resolve"
	"github.com/leapstack-labs/tasty/pkg/types"
)

// DefaultHeaderExt is the extension of generated headers.
const DefaultHeaderExt = ".hpp"

// SourceExt is the extension of generated sources.
const SourceExt = ".cpp"

// Entry is one include directive.
type Entry struct {
	Path  string
	Local bool
}

// Directive renders the entry as a preprocessor line.
func (e Entry) Directive() string {
	if e.Local {
		return `#include "` + e.Path + `"`
	}
	return "#include <" + e.Path + ">"
}

func (e Entry) String() string { return e.Directive() }

// Lists are the includes of a header/source pair.
type Lists struct {
	Header []Entry
	Source []Entry
}

// Manager accumulates includes in first-occurrence order.
type Manager struct {
	header []Entry
	source []Entry
	seen   map[Entry]int // 1 header, 2 source
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{seen: make(map[Entry]int)}
}

// Add records e. An entry first seen in the source moves to the header when
// a later use needs it there.
func (m *Manager) Add(e Entry, header bool) {
	if e.Path == "" {
		return
	}
	switch m.seen[e] {
	case 1:
		return
	case 2:
		if !header {
			return
		}
	}
	if header {
		m.seen[e] = 1
		m.header = append(m.header, e)
		return
	}
	m.seen[e] = 2
	m.source = append(m.source, e)
}

// Lists returns the deduplicated lists. The source list never repeats a
// header entry.
func (m *Manager) Lists() Lists {
	out := Lists{Header: append([]Entry(nil), m.header...)}
	for _, e := range m.source {
		if m.seen[e] == 2 {
			out.Source = append(out.Source, e)
		}
	}
	return out
}

// Options configures Collect.
type Options struct {
	// HeaderExt is appended to module paths of import and derive. Defaults
	// to DefaultHeaderExt.
	HeaderExt string
}

// ModuleHeader converts a dotted module path to the header it compiles to:
// util.math becomes util/math.hpp.
func ModuleHeader(module, ext string) string {
	if ext == "" {
		ext = DefaultHeaderExt
	}
	return strings.ReplaceAll(module, ".", "/") + ext
}

// Collect gathers the includes of a resolved and expanded file. A nil table
// selects builtin.Default().
func Collect(file *core.File, info *resolve.Info, table *builtin.Table, opts Options) Lists {
	if table == nil {
		table = builtin.Default()
	}
	c := &collector{m: NewManager(), info: info, table: table, opts: opts}
	c.decls(file.Decls, false, true)
	return c.m.Lists()
}

type collector struct {
	m     *Manager
	info  *resolve.Info
	table *builtin.Table
	opts  Options

	header bool // the position being walked is visible in the header
}

// at runs f with the header flag set to header.
func (c *collector) at(header bool, f func()) {
	saved := c.header
	c.header = header
	f()
	c.header = saved
}

func (c *collector) add(path string, local bool) {
	c.m.Add(Entry{Path: path, Local: local}, c.header)
}

func (c *collector) feature(name string) {
	c.add(c.table.Feature(name), false)
}

func (c *collector) name(qualified string) {
	if h, ok := c.table.IncludeFor(qualified); ok {
		c.add(h, false)
	}
}

// decls walks declarations. visible is false inside declarations the
// header omits.
func (c *collector) decls(decls []core.Decl, inClass, visible bool) {
	for _, d := range decls {
		gen := d.Info().Generated
		hdr := visible && !gen.NoHeader
		c.at(hdr, func() {
			for _, inc := range gen.Includes {
				c.add(inc.Path, inc.Local)
			}
		})

		switch d := d.(type) {
		case *core.IncludeDecl:
			c.explicit(d)
		case *core.NamespaceDecl:
			c.decls(d.Decls, false, hdr)
		case *core.ClassDecl:
			c.at(hdr, func() {
				for _, b := range d.Bases {
					c.node(b)
				}
			})
			c.decls(d.Members, true, hdr)
		case *core.EnumDecl:
			c.at(hdr, func() {
				for _, m := range d.Members {
					if m.Value != nil {
						c.node(m.Value)
					}
				}
			})
		case *core.FuncDecl:
			c.function(d, hdr)
		case *core.VarDecl:
			c.variable(d, inClass, hdr)
		case *core.AbstractDecl:
			c.extensions(d.Members, hdr)
		case *core.RefurbishDecl:
			c.extensions(d.Members, hdr)
		}
	}
}

func (c *collector) explicit(d *core.IncludeDecl) {
	path, local := d.Path, d.Local
	if d.Kind.IsModule() {
		path, local = ModuleHeader(d.Path, c.opts.HeaderExt), true
	}
	c.m.Add(Entry{Path: path, Local: local}, !d.Kind.InSource())
}

// function walks a signature at the header position and the body in the
// source.
func (c *collector) function(f *core.FuncDecl, hdr bool) {
	c.at(hdr, func() {
		for _, p := range f.Params {
			c.storage(p.Storage)
			c.node(p.Type)
			if p.Default != nil {
				c.node(p.Default)
			}
		}
		switch {
		case f.Result != nil:
			c.node(f.Result)
		case c.info != nil:
			c.typ(c.info.Result(f))
		}
	})
	if f.Body != nil {
		c.at(false, func() { c.node(f.Body) })
	}
}

// variable walks a global or a field. In-class initializers of non-static
// fields and constexpr values are part of the header.
func (c *collector) variable(v *core.VarDecl, inClass, hdr bool) {
	c.at(hdr, func() { c.declared(v) })
	if v.Value == nil {
		return
	}
	inHeader := hdr && (v.Modifiers.Has(core.ModConstexpr) || inClass && !v.Modifiers.Has(core.ModStatic))
	c.at(inHeader, func() { c.node(v.Value) })
}

// extensions walks the members of an abstract or refurbish declaration.
// Forwarded members produce no code.
func (c *collector) extensions(members []*core.FuncDecl, hdr bool) {
	for _, f := range members {
		if c.info == nil {
			if f.Body != nil {
				c.function(f, hdr)
			}
			continue
		}
		ext, ok := c.info.ExtensionFor(f)
		if !ok {
			continue
		}
		c.at(hdr, func() { c.typ(ext.Self) })
		c.function(f, hdr)
	}
}

// declared records the storage and type of a declaration, inferred when not
// written.
func (c *collector) declared(v *core.VarDecl) {
	c.storage(v.Storage)
	if v.Type != nil {
		c.node(v.Type)
	} else if c.info != nil {
		c.typ(c.info.VarType(v))
	}
}

func (c *collector) storage(s core.Storage) {
	switch s.Kind {
	case core.StorageShared:
		c.feature("shared")
	case core.StorageUnique:
		c.feature("unique")
	case core.StorageMoved:
		c.feature("move")
	case core.StorageRawPointer:
		if s.Level > 1 {
			c.feature("shared")
		}
	}
}

func (c *collector) node(n core.Node) {
	core.Inspect(n, c.visit)
}

func (c *collector) visit(n core.Node) bool {
	switch n := n.(type) {
	case *core.TypeExpr:
		c.typeExpr(n)
		return false
	case *core.VarDecl:
		c.declared(n)
		if n.Value != nil {
			c.node(n.Value)
		}
		return false
	case *core.ForInStmt:
		c.storage(n.Storage)
	case *core.TupleLit, *core.TupleIndexExpr:
		c.feature("tuple")
	case *core.Ident:
		if c.unbound(n) {
			c.name(n.Name)
		}
	case *core.MemberExpr:
		if q := core.QualifiedName(n); q != "" && c.unbound(rootIdent(n)) {
			c.name(q)
			return false
		}
	}
	return true
}

// unbound reports whether id refers to nothing the file declares: a
// built-in namespace or a pass-through name.
func (c *collector) unbound(id *core.Ident) bool {
	if id == nil {
		return false
	}
	if c.info == nil {
		return true
	}
	sym := c.info.Uses[id]
	return sym == nil || sym.Decl == nil
}

func rootIdent(e core.Expr) *core.Ident {
	for {
		switch x := e.(type) {
		case *core.Ident:
			return x
		case *core.MemberExpr:
			e = x.X
		default:
			return nil
		}
	}
}

// typeExpr records what a written type needs.
func (c *collector) typeExpr(t *core.TypeExpr) {
	switch {
	case t.IsTuple:
		c.feature("tuple")
		for _, e := range t.Tuple {
			c.typeExpr(e)
		}
	case t.IsFunc:
		c.feature("function")
		for _, p := range t.Params {
			c.typeExpr(p)
		}
		if t.Result != nil {
			c.typeExpr(t.Result)
		}
	default:
		if p, ok := c.table.Primitive(t.Name); ok {
			c.add(p.Header, false)
		} else if abs, ok := c.abstract(t.Name); ok {
			c.typ(abs)
		} else {
			c.name(t.Name)
		}
		for _, a := range t.Args {
			c.typeExpr(a)
		}
	}
}

// abstract returns the target of an abstract binding named name.
func (c *collector) abstract(name string) (*types.Type, bool) {
	if c.info == nil {
		return nil, false
	}
	a, ok := c.info.Abstracts[name]
	if !ok || a.Target == nil {
		return nil, false
	}
	return a.Target, true
}

// typ records what a resolved type needs.
func (c *collector) typ(t *types.Type) {
	if t == nil {
		return
	}
	switch t.Kind {
	case types.KindTuple:
		c.feature("tuple")
	case types.KindSmart:
		if t.Uniq {
			c.feature("unique")
		} else {
			c.feature("shared")
		}
	case types.KindFunc:
		c.feature("function")
	case types.KindPrimitive:
		c.add(t.Prim.Header, false)
	case types.KindClass, types.KindEnum, types.KindUnknown:
		if t.Name != "" {
			c.name(t.Name)
		}
	}
	for _, a := range t.Args {
		c.typ(a)
	}
	if t.Kind == types.KindTemplate && t.Elem != nil {
		c.name(t.Elem.Name)
		return
	}
	c.typ(t.Elem)
}
