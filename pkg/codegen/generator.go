// Package codegen emits a C++ header/source pair from a resolved file.
//
// The header carries the include guard, header includes and every
// declaration other translation units need: prototypes, class definitions,
// enums, namespaces, extern variables, constexpr values and injected text.
// The source includes the header and holds the definitions. Both outputs
// keep each construct on the line of the source construct it came from,
// as far as the preamble lines allow.
package codegen

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/tasty/pkg/builtin"
	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/include"
	"github.com/leapstack-labs/tasty/pkg/resolve"
	"github.com/leapstack-labs/tasty/pkg/types"
)

// GuardSuffix ends every generated include guard.
const GuardSuffix = "_TASTYFILE"

// Options configures Generate.
type Options struct {
	// Name is the unit name without extension. Its base names the include
	// guard and the header the source includes.
	Name string
	// HeaderExt defaults to include.DefaultHeaderExt.
	HeaderExt  string
	PragmaOnce bool
	// Table defaults to builtin.Default().
	Table  *builtin.Table
	Logger *slog.Logger
}

// Output is a generated header/source pair.
type Output struct {
	Header   string
	Source   string
	Includes include.Lists
}

// bailout unwinds the generator after the first error.
type bailout struct{}

type generator struct {
	opts  Options
	table *builtin.Table
	info  *resolve.Info

	hdr *Printer
	src *Printer
	out *Printer // receives the function body being emitted

	class *core.ClassDecl
	err   error
}

// Generate emits file. info must come from resolving file, and attribute
// expansion must already have run.
func Generate(file *core.File, info *resolve.Info, opts Options) (out *Output, err error) {
	if opts.HeaderExt == "" {
		opts.HeaderExt = include.DefaultHeaderExt
	}
	if opts.Name == "" {
		opts.Name = strings.TrimSuffix(file.Name, filepath.Ext(file.Name))
	}
	if opts.Table == nil {
		opts.Table = builtin.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	g := &generator{
		opts:  opts,
		table: opts.Table,
		info:  info,
		hdr:   NewPrinter(),
		src:   NewPrinter(),
	}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			out, err = nil, g.err
		}
	}()

	lists := include.Collect(file, info, g.table, include.Options{HeaderExt: opts.HeaderExt})
	g.preamble(lists)
	g.decls(file.Decls, true)
	if !opts.PragmaOnce {
		g.hdr.Directive("#endif")
	}

	logger.Debug("generated unit",
		slog.String("name", opts.Name),
		slog.Int("header_includes", len(lists.Header)),
		slog.Int("source_includes", len(lists.Source)),
		slog.Int("header_lines", g.hdr.Line()),
		slog.Int("source_lines", g.src.Line()),
	)
	return &Output{Header: g.hdr.String(), Source: g.src.String(), Includes: lists}, nil
}

// GuardName returns the include guard of the unit name: main becomes
// MAIN_TASTYFILE.
func GuardName(name string) string {
	base := cases.Upper(language.Und).String(filepath.Base(name))
	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, base) + GuardSuffix
}

func (g *generator) fail(kind ErrorKind, n core.Node, msg string) {
	g.err = &EmissionError{Kind: kind, Pos: n.Pos(), Message: msg}
	panic(bailout{})
}

func (g *generator) preamble(lists include.Lists) {
	if g.opts.PragmaOnce {
		g.hdr.Directive("#pragma once")
	} else {
		guard := GuardName(g.opts.Name)
		g.hdr.Directive("#ifndef " + guard)
		g.hdr.Directive("#define " + guard)
	}
	for _, e := range lists.Header {
		g.hdr.Directive(e.Directive())
	}

	self := include.Entry{Path: filepath.Base(g.opts.Name) + g.opts.HeaderExt, Local: true}
	g.src.Directive(self.Directive())
	for _, e := range lists.Source {
		g.src.Directive(e.Directive())
	}
}

// target is the printer a declaration's interface goes to.
func (g *generator) target(visible bool) *Printer {
	if visible {
		return g.hdr
	}
	return g.src
}

// decls emits declarations in order. visible is false inside declarations
// the header omits.
func (g *generator) decls(decls []core.Decl, visible bool) {
	for _, d := range decls {
		vis := visible && !d.Info().Generated.NoHeader
		switch d := d.(type) {
		case *core.NamespaceDecl:
			g.namespace(d, vis)
		case *core.ClassDecl:
			g.classDecl(d, vis)
		case *core.EnumDecl:
			g.enum(g.target(vis), d)
		case *core.FuncDecl:
			g.function(d, vis)
		case *core.VarDecl:
			g.global(d, vis)
		case *core.AbstractDecl:
			g.extensions(d.Members, vis)
		case *core.RefurbishDecl:
			g.extensions(d.Members, vis)
		case *core.InjectDecl:
			g.inject(g.target(vis), d.Line(), d.Text)
		}
	}
}

func (g *generator) namespace(d *core.NamespaceDecl, vis bool) {
	var printers []*Printer
	if vis {
		printers = append(printers, g.hdr)
	}
	if needsSource(d, vis, g.info) {
		printers = append(printers, g.src)
	}
	for _, p := range printers {
		p.Align(d.Line())
		p.Write("namespace " + types.ScopedName(d.Name) + " {")
		p.Indent()
	}
	g.decls(d.Decls, vis)
	for _, p := range printers {
		p.Dedent()
		p.Align(d.EndLine())
		p.Write("}")
	}
}

// needsSource reports whether d emits anything into the source file.
func needsSource(d core.Decl, visible bool, info *resolve.Info) bool {
	vis := visible && !d.Info().Generated.NoHeader
	switch d := d.(type) {
	case *core.NamespaceDecl:
		for _, c := range d.Decls {
			if needsSource(c, vis, info) {
				return true
			}
		}
	case *core.ClassDecl:
		if !vis {
			return true
		}
		for _, m := range d.Members {
			switch m := m.(type) {
			case *core.FuncDecl:
				if m.Body != nil {
					return true
				}
			case *core.VarDecl:
				if staticDefinition(m) {
					return true
				}
			}
		}
	case *core.EnumDecl, *core.InjectDecl:
		return !vis
	case *core.FuncDecl:
		return d.Body != nil && !(vis && inlineDefinition(d))
	case *core.VarDecl:
		return !d.Modifiers.Has(core.ModExtern) && !(vis && d.Modifiers.Has(core.ModConstexpr))
	case *core.AbstractDecl:
		return hasExtensions(d.Members, info)
	case *core.RefurbishDecl:
		return hasExtensions(d.Members, info)
	}
	return false
}

func hasExtensions(members []*core.FuncDecl, info *resolve.Info) bool {
	for _, f := range members {
		if _, ok := info.ExtensionFor(f); ok {
			return true
		}
	}
	return false
}

// inlineDefinition reports whether f is defined in the header.
func inlineDefinition(f *core.FuncDecl) bool {
	return f.Modifiers.Has(core.ModInline) || f.Modifiers.Has(core.ModConstexpr)
}

// staticDefinition reports whether a field needs an out-of-class
// definition.
func staticDefinition(v *core.VarDecl) bool {
	return v.Modifiers.Has(core.ModStatic) && !v.Modifiers.Has(core.ModConstexpr)
}

// prepend writes the DeclarePrepend lines of d so they end right above it.
func (g *generator) prepend(p *Printer, d core.Decl) {
	lines := d.Info().Generated.Prepend
	if len(lines) == 0 {
		return
	}
	p.Align(d.Line() - len(lines))
	for _, l := range lines {
		g.text(p, l)
	}
}

// appendText writes generated lines after a declaration.
func (g *generator) appendText(p *Printer, lines []string) {
	for _, l := range lines {
		g.text(p, l)
	}
}

func (g *generator) text(p *Printer, s string) {
	if strings.HasPrefix(strings.TrimSpace(s), "#") {
		p.Directive(strings.TrimSpace(s))
		return
	}
	p.OwnLine(s)
}

// inject writes verbatim text starting on line, keeping its line breaks.
func (g *generator) inject(p *Printer, line int, text string) {
	for i, l := range strings.Split(text, "\n") {
		s := strings.TrimSpace(l)
		if s == "" {
			continue
		}
		p.Align(line + i)
		if s[0] == '#' {
			p.Directive(s)
		} else {
			p.Write(s)
		}
	}
}

// ---------- Classes ----------

func (g *generator) classDecl(c *core.ClassDecl, vis bool) {
	p := g.target(vis)
	g.class = c
	defer func() { g.class = nil }()

	g.prepend(p, c)
	p.Align(c.Line())
	head := "class " + c.Name
	for i, b := range c.Bases {
		if i == 0 {
			head += " : "
		} else {
			head += ", "
		}
		head += "public " + g.typeName(g.info.TypeOfExpr(b))
	}
	p.Write(head + " {")

	p.Indent()
	g.appendText(p, c.Generated.Inherited)
	g.appendText(p, c.Generated.Append)
	p.Dedent()
	p.OwnLine("public:")

	p.Indent()
	for _, m := range c.Members {
		g.classMember(p, m)
	}
	p.Dedent()
	p.Align(c.EndLine())
	p.Write("};")

	for _, m := range c.Members {
		switch m := m.(type) {
		case *core.FuncDecl:
			if m.Body != nil {
				g.src.Align(m.Line())
				g.src.Write(g.signature(m, c.Name+"::", false) + " ")
				g.body(g.src, m.Body)
			}
		case *core.VarDecl:
			if staticDefinition(m) {
				g.src.Align(m.Line())
				g.src.Write(g.variable(m, c.Name+"::"+m.Name, 0, true) + ";")
			}
		}
	}
}

// classMember writes a class member inside the class body.
func (g *generator) classMember(p *Printer, m core.Decl) {
	switch m := m.(type) {
	case *core.VarDecl:
		g.prepend(p, m)
		p.Align(m.Line())
		p.Write(g.variable(m, m.Name, m.Modifiers, !staticDefinition(m)) + ";")
		g.appendText(p, m.Generated.Append)
	case *core.FuncDecl:
		g.prepend(p, m)
		p.Align(m.Line())
		p.Write(m.Modifiers.Prefix() + g.signature(m, "", true) + ";")
		g.appendText(p, m.Generated.Append)
	case *core.EnumDecl:
		g.enum(p, m)
	case *core.InjectDecl:
		g.inject(p, m.Line(), m.Text)
	}
}

func (g *generator) enum(p *Printer, d *core.EnumDecl) {
	g.prepend(p, d)
	p.Align(d.Line())
	p.Write("enum " + d.Name + " {")
	p.Indent()
	for i, m := range d.Members {
		p.Align(m.Line())
		s := m.Name
		if m.Value != nil {
			s += " = " + g.expr(m.Value)
		}
		if i < len(d.Members)-1 {
			s += ","
		}
		p.Write(s)
	}
	p.Dedent()
	p.Align(d.EndLine())
	p.Write("};")
	g.appendText(p, d.Generated.Append)
}

// ---------- Functions ----------

func (g *generator) function(f *core.FuncDecl, vis bool) {
	switch {
	case f.Body == nil:
		p := g.target(vis)
		g.prepend(p, f)
		p.Align(f.Line())
		p.Write(f.Modifiers.Prefix() + g.signature(f, "", true) + ";")
		g.appendText(p, f.Generated.Append)
		return
	case vis && inlineDefinition(f):
		g.prepend(g.hdr, f)
		g.hdr.Align(f.Line())
		g.hdr.Write(f.Modifiers.Prefix() + g.signature(f, "", true) + " ")
		g.body(g.hdr, f.Body)
		g.appendText(g.hdr, f.Generated.Append)
		return
	}

	header := vis && !f.Modifiers.Has(core.ModStatic) && !isMain(f)
	if header {
		g.prepend(g.hdr, f)
		g.hdr.Align(f.Line())
		g.hdr.Write(f.Modifiers.Prefix() + g.signature(f, "", true) + ";")
		g.appendText(g.hdr, f.Generated.Append)
	} else {
		g.prepend(g.src, f)
	}

	g.src.Align(f.Line())
	mods := f.Modifiers & core.ModStatic
	g.src.Write(mods.Prefix() + g.signature(f, "", !header) + " ")
	g.body(g.src, f.Body)
	if !header {
		g.appendText(g.src, f.Generated.Append)
	}
}

func isMain(f *core.FuncDecl) bool {
	return f.Name == "main" && f.Kind == core.FuncPlain
}

// extensions writes the static extension functions of an abstract or
// refurbish declaration.
func (g *generator) extensions(members []*core.FuncDecl, vis bool) {
	for _, f := range members {
		ext, ok := g.info.ExtensionFor(f)
		if !ok {
			continue
		}
		if vis {
			g.hdr.Align(f.Line())
			g.hdr.Write(g.extSignature(ext, true) + ";")
		}
		if f.Body == nil {
			continue
		}
		g.src.Align(f.Line())
		g.src.Write(g.extSignature(ext, !vis) + " ")
		g.body(g.src, f.Body)
	}
}

func (g *generator) body(p *Printer, b *core.BlockStmt) {
	saved := g.out
	g.out = p
	g.block(b)
	g.out = saved
}

// signature renders f qualified by qual ("Class::" for out-of-class
// definitions). Default arguments are written when defaults is set.
func (g *generator) signature(f *core.FuncDecl, qual string, defaults bool) string {
	params := g.params(f.Params, defaults)
	switch f.Kind {
	case core.FuncConstructor:
		return qual + g.className() + "(" + params + ")"
	case core.FuncDestructor:
		return qual + "~" + g.className() + "(" + params + ")"
	}
	name := f.Name
	if f.Kind == core.FuncOperator {
		name = "operator" + f.Operator
	}
	s := g.typeName(g.info.Result(f)) + " " + qual + name + "(" + params + ")"
	if f.ConstMethod {
		s += " const"
	}
	return s
}

func (g *generator) className() string {
	if g.class == nil {
		return ""
	}
	return g.class.Name
}

func (g *generator) extSignature(ext *resolve.ExtFunc, defaults bool) string {
	self := ext.Self.CPP() + " self"
	if params := g.params(ext.Decl.Params, defaults); params != "" {
		self += ", " + params
	}
	return g.typeName(g.info.Result(ext.Decl)) + " " + ext.CName + "(" + self + ")"
}

func (g *generator) params(ps []*core.Param, defaults bool) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		if p.Storage.Kind == core.StorageUnresolved {
			g.fail(UnresolvedStorage, p, fmt.Sprintf(ErrUnresolvedStorage, p.Name))
		}
		typ := g.typeName(g.info.ParamType(p))
		if p.Storage.Kind == core.StorageMoved {
			typ += "&&"
		}
		parts[i] = typ + " " + p.Name
		if defaults && p.Default != nil {
			parts[i] += " = " + g.expr(p.Default)
		}
	}
	return strings.Join(parts, ", ")
}

// ---------- Variables ----------

// global writes a namespace-level variable: an extern declaration in the
// header and the definition in the source. Constexpr values live in the
// header only; static and auto-typed globals in the source only.
func (g *generator) global(v *core.VarDecl, vis bool) {
	mods := v.Modifiers
	header := vis && !mods.Has(core.ModStatic) && !g.info.VarType(v).Anonymous()

	if header {
		g.prepend(g.hdr, v)
		g.hdr.Align(v.Line())
		if mods.Has(core.ModConstexpr) {
			g.hdr.Write(g.variable(v, v.Name, mods, true) + ";")
			g.appendText(g.hdr, v.Generated.Append)
			return
		}
		g.hdr.Write(g.variable(v, v.Name, mods|core.ModExtern, false) + ";")
		g.appendText(g.hdr, v.Generated.Append)
		if mods.Has(core.ModExtern) {
			return
		}
	} else {
		g.prepend(g.src, v)
	}

	g.src.Align(v.Line())
	switch {
	case mods.Has(core.ModExtern):
		g.src.Write(g.variable(v, v.Name, mods, false) + ";")
	case header && mods.Has(core.ModConst):
		// const has internal linkage unless the definition says extern
		g.src.Write(g.variable(v, v.Name, mods|core.ModExtern, true) + ";")
	default:
		g.src.Write(g.variable(v, v.Name, mods, true) + ";")
	}
	if !header {
		g.appendText(g.src, v.Generated.Append)
	}
}

// variable renders a declaration of v under name with mods, and its
// initializer when init is set. New-expression initializers follow the
// declared storage.
func (g *generator) variable(v *core.VarDecl, name string, mods core.Modifiers, init bool) string {
	if v.Storage.Kind == core.StorageUnresolved {
		g.fail(UnresolvedStorage, v, fmt.Sprintf(ErrUnresolvedStorage, v.Name))
	}
	prefix := mods.Prefix()
	if init {
		if n, ok := v.Value.(*core.NewExpr); ok {
			return prefix + g.newBinding(v, n, name)
		}
	}
	decl := prefix + g.declType(v) + " " + name
	if !init || v.Value == nil {
		return decl
	}
	value := g.expr(v.Value)
	if v.Storage.Kind == core.StorageMoved {
		value = "std::move(" + value + ")"
	}
	return decl + " = " + value
}

// declType is the C++ type of a declared variable. Types that depend on
// names nothing declares are left to auto.
func (g *generator) declType(v *core.VarDecl) string {
	t := g.info.VarType(v)
	if !t.Anonymous() {
		return t.CPP()
	}
	if v.Storage.Kind == core.StorageReference {
		if v.Storage.Const {
			return "const auto&"
		}
		return "auto&"
	}
	return "auto"
}

// newBinding renders a declaration initialized by a new-expression.
func (g *generator) newBinding(v *core.VarDecl, n *core.NewExpr, name string) string {
	alloc := g.typeName(g.info.TypeOfExpr(n.Type))
	args := g.exprList(n.Args)
	switch st := v.Storage; st.Kind {
	case core.StorageValue, core.StorageMoved:
		if len(n.Args) == 0 {
			return alloc + " " + name
		}
		return alloc + " " + name + "(" + args + ")"
	case core.StorageRawPointer:
		typ, value := alloc+"*", "new "+alloc+"("+args+")"
		for i := 1; i < st.Level; i++ {
			value = "std::make_shared<" + typ + ">(" + value + ")"
			typ = "std::shared_ptr<" + typ + ">"
		}
		return typ + " " + name + " = " + value
	case core.StorageShared:
		return "std::shared_ptr<" + alloc + "> " + name + " = std::make_shared<" + alloc + ">(" + args + ")"
	case core.StorageUnique:
		return "std::unique_ptr<" + alloc + "> " + name + " = std::make_unique<" + alloc + ">(" + args + ")"
	}
	g.fail(InvalidNewBinding, n, fmt.Sprintf(ErrNewReference, v.Name))
	return ""
}

// typeName renders t, falling back to auto when part of it is unknown.
func (g *generator) typeName(t *types.Type) string {
	if t.Anonymous() {
		return "auto"
	}
	return t.CPP()
}
