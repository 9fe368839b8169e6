// Package attribute expands attribute applications into generated text.
//
// An attribute definition lists directives: built-in directives that
// produce text or flags, and applications of other attributes. Expanding an
// application binds its arguments to the definition's parameters, then
// expands each directive depth first. Results land in the Generated field of
// the declaration the application is attached to.
package attribute

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/resolve"
)

// Built-in directive names.
const (
	DeclareAppend  = "DeclareAppend"
	DeclarePrepend = "DeclarePrepend"
	Isolated       = "Isolated"
	NoHeader       = "NoHeader"
	RequireInclude = "RequireInclude"
)

// builtinArity gives the minimum and maximum argument counts of each
// built-in directive.
var builtinArity = map[string][2]int{
	DeclareAppend:  {1, 1},
	DeclarePrepend: {1, 1},
	Isolated:       {0, 0},
	NoHeader:       {0, 0},
	RequireInclude: {1, 2},
}

// IsBuiltin reports whether name is a built-in directive.
func IsBuiltin(name string) bool {
	_, ok := builtinArity[name]
	return ok
}

// Expander expands the attribute applications of one file.
type Expander struct {
	defs map[string]*core.AttributeDecl
	info *resolve.Info

	// Append text of each local class that derived classes inherit.
	inheritable map[*core.ClassDecl][]string
	inherited   map[*core.ClassDecl]bool
	classes     []*core.ClassDecl
}

// effects accumulates the output of one top-level application.
type effects struct {
	append   []string
	prepend  []string
	includes []core.GeneratedInclude
	noHeader bool
	isolated bool
}

// Expand expands every attribute application in file. info supplies the
// local base classes used for inheritance and may be nil.
func Expand(file *core.File, info *resolve.Info) error {
	e := NewExpander(file, info)
	return e.Run(file)
}

// NewExpander collects the attribute definitions of file.
func NewExpander(file *core.File, info *resolve.Info) *Expander {
	e := &Expander{
		defs:        make(map[string]*core.AttributeDecl),
		info:        info,
		inheritable: make(map[*core.ClassDecl][]string),
		inherited:   make(map[*core.ClassDecl]bool),
	}
	core.Inspect(file, func(n core.Node) bool {
		if d, ok := n.(*core.AttributeDecl); ok {
			e.defs[d.Name] = d
		}
		return true
	})
	return e
}

// Definition returns the definition named name.
func (e *Expander) Definition(name string) (*core.AttributeDecl, bool) {
	d, ok := e.defs[name]
	return d, ok
}

// Run expands the applications of every declaration, then propagates the
// non-isolated effects of local base classes to the classes deriving from
// them.
func (e *Expander) Run(file *core.File) error {
	if err := e.decls(file.Decls); err != nil {
		return err
	}
	for _, c := range e.classes {
		e.inherit(c, make(map[*core.ClassDecl]bool))
	}
	return nil
}

func (e *Expander) decls(decls []core.Decl) error {
	for _, d := range decls {
		if err := e.decl(d); err != nil {
			return err
		}
		switch d := d.(type) {
		case *core.NamespaceDecl:
			if err := e.decls(d.Decls); err != nil {
				return err
			}
		case *core.ClassDecl:
			e.classes = append(e.classes, d)
			if err := e.decls(d.Members); err != nil {
				return err
			}
		}
	}
	return nil
}

// decl expands the applications attached to d.
func (e *Expander) decl(d core.Decl) error {
	info := d.Info()
	if len(info.Attrs) == 0 {
		return nil
	}
	if _, ok := d.(*core.AttributeDecl); ok {
		return nil
	}
	for _, app := range info.Attrs {
		var fx effects
		if err := e.apply(app, nil, nil, &fx); err != nil {
			return err
		}
		gen := &info.Generated
		gen.Append = append(gen.Append, fx.append...)
		gen.Prepend = append(gen.Prepend, fx.prepend...)
		gen.Includes = append(gen.Includes, fx.includes...)
		gen.NoHeader = gen.NoHeader || fx.noHeader
		if c, ok := d.(*core.ClassDecl); ok && !fx.isolated {
			e.inheritable[c] = append(e.inheritable[c], fx.append...)
		}
	}
	return nil
}

// apply expands app. env binds the parameters of the enclosing definition
// and stack holds the definitions being expanded.
func (e *Expander) apply(app *core.AttributeApp, env map[string]string, stack []string, fx *effects) error {
	args := make([]string, len(app.Args))
	for i, a := range app.Args {
		args[i] = bindArg(a, env)
	}

	if arity, ok := builtinArity[app.Name]; ok {
		if len(args) < arity[0] || len(args) > arity[1] {
			return e.arityError(app, arity, len(args), stack)
		}
		e.builtin(app.Name, args, env, fx)
		return nil
	}

	def, ok := e.defs[app.Name]
	if !ok {
		return &Error{
			Kind:    UndefinedAttribute,
			Pos:     app.Pos(),
			Message: fmt.Sprintf(ErrUndefined, app.Name),
			Path:    append(stack[:len(stack):len(stack)], app.Name),
		}
	}
	if len(args) != len(def.Params) {
		return e.arityError(app, [2]int{len(def.Params), len(def.Params)}, len(args), stack)
	}
	for _, name := range stack {
		if name == def.Name {
			return &Error{
				Kind:    CyclicComposition,
				Pos:     app.Pos(),
				Message: fmt.Sprintf(ErrCycle, def.Name),
				Path:    append(stack[:len(stack):len(stack)], def.Name),
			}
		}
	}

	bound := make(map[string]string, len(def.Params))
	for i, p := range def.Params {
		bound[p] = args[i]
	}
	stack = append(stack, def.Name)
	for _, dir := range def.Directives {
		if err := e.apply(dir, bound, stack, fx); err != nil {
			return err
		}
	}
	return nil
}

func (e *Expander) builtin(name string, args []string, env map[string]string, fx *effects) {
	switch name {
	case DeclareAppend:
		fx.append = append(fx.append, Substitute(unquote(args[0]), env))
	case DeclarePrepend:
		fx.prepend = append(fx.prepend, Substitute(unquote(args[0]), env))
	case Isolated:
		fx.isolated = true
	case NoHeader:
		fx.noHeader = true
	case RequireInclude:
		inc := core.GeneratedInclude{Path: Substitute(unquote(args[0]), env)}
		if len(args) == 2 {
			switch unquote(args[1]) {
			case "true", "local":
				inc.Local = true
			}
		}
		fx.includes = append(fx.includes, inc)
	}
}

func (e *Expander) arityError(app *core.AttributeApp, arity [2]int, got int, stack []string) error {
	msg := fmt.Sprintf(ErrArity, app.Name, arity[0], got)
	if arity[0] != arity[1] && got > arity[1] {
		msg = fmt.Sprintf(ErrArityAtMost, app.Name, arity[1], got)
	}
	return &Error{
		Kind:    ArityMismatch,
		Pos:     app.Pos(),
		Message: msg,
		Path:    append(stack[:len(stack):len(stack)], app.Name),
	}
}

// inherit fills Generated.Inherited of c with the inheritable text of its
// local bases, base classes first, and returns what c passes on.
func (e *Expander) inherit(c *core.ClassDecl, visiting map[*core.ClassDecl]bool) []string {
	if !e.inherited[c] && !visiting[c] && e.info != nil {
		visiting[c] = true
		var got []string
		for _, b := range c.Bases {
			if base := e.info.LocalBase(b); base != nil {
				got = append(got, e.inherit(base, visiting)...)
			}
		}
		c.Generated.Inherited = got
		e.inherited[c] = true
	}
	out := append([]string(nil), c.Generated.Inherited...)
	return append(out, e.inheritable[c]...)
}

// bindArg replaces an argument naming a parameter of the enclosing
// definition with the bound value, and substitutes placeholders otherwise.
func bindArg(arg string, env map[string]string) string {
	arg = strings.TrimSpace(arg)
	if v, ok := env[arg]; ok {
		return v
	}
	return Substitute(arg, env)
}

// Substitute replaces every [name] placeholder bound in env.
func Substitute(text string, env map[string]string) string {
	if len(env) == 0 || !strings.Contains(text, "[") {
		return text
	}
	var b strings.Builder
	for {
		open := strings.IndexByte(text, '[')
		if open < 0 {
			break
		}
		end := strings.IndexByte(text[open:], ']')
		if end < 0 {
			break
		}
		name := text[open+1 : open+end]
		b.WriteString(text[:open])
		if v, ok := env[name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(text[open : open+end+1])
		}
		text = text[open+end+1:]
	}
	b.WriteString(text)
	return b.String()
}

// unquote strips string literal quotes from a directive argument.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}
