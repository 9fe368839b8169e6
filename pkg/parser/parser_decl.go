package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/token"
)

// Declaration grammar:
//
//	include    → ("include" | "contain") ["local" | "system"] path ";"
//	import     → ("import" | "derive") path ";"
//	assume     → "assume" name "is" kind ";"
//	inject     → "inject" RAW [";"]
//	namespace  → "namespace" name "{" { declaration } "}"
//	class      → "class" name ["extends" type {"," type}] "{" { member } "}"
//	abstract   → "abstract" name "becomes" type "{" { function } "}"
//	refurbish  → "refurbish" type "{" { function } "}"
//	enum       → "enum" name "{" [enumerator {"," enumerator} [","]] "}"
//	attribute  → "attribute" name ["(" [name {"," name}] ")"] "{" { "@" app [";"] } "}"
//	app        → "@" name ["(" raw_args ")"]

// parseFile parses declarations until EOF.
func (p *Parser) parseFile(name string) *core.File {
	file := &core.File{Name: name}
	start := p.token.Pos
	for !p.check(token.EOF) {
		file.Decls = append(file.Decls, p.parseDecl(true))
	}
	file.Span = token.Span{Start: start, End: p.token.Pos}
	return file
}

// parseDecl parses one declaration with its leading attribute applications
// and modifiers. topLevel admits directives that only make sense outside
// classes.
func (p *Parser) parseDecl(topLevel bool) core.Decl {
	attrs := p.parseAttributeApps()
	start := p.token.Pos
	mods := p.parseModifiers()

	var d core.Decl
	switch {
	case p.check(token.INCLUDE), p.check(token.CONTAIN), p.check(token.IMPORT), p.check(token.DERIVE):
		d = p.parseInclude()
	case p.check(token.ASSUME):
		d = p.parseAssume()
	case p.check(token.INJECT):
		d = p.parseInjectDecl()
	case p.check(token.NAMESPACE):
		d = p.parseNamespace()
	case p.check(token.CLASS):
		d = p.parseClass()
	case p.check(token.ABSTRACT):
		d = p.parseAbstract()
	case p.check(token.REFURBISH):
		d = p.parseRefurbish()
	case p.check(token.ENUM):
		d = p.parseEnum()
	case p.check(token.ATTRIBUTE):
		d = p.parseAttributeDecl()
	case p.check(token.FN):
		d = p.parseFunc()
	case token.IsStorage(p.token.Type):
		d = p.parseVarDecl(true)
	default:
		p.errorExpected("declaration")
	}

	if !topLevel {
		switch d.(type) {
		case *core.VarDecl, *core.FuncDecl, *core.InjectDecl, *core.EnumDecl:
		default:
			p.fail(&ParseError{
				Kind:     UnexpectedToken,
				Pos:      start,
				Expected: "class member",
				Found:    fmt.Sprintf("%T", d),
				Message:  fmt.Sprintf(ErrUnexpectedToken, strings.TrimPrefix(fmt.Sprintf("%T", d), "*core."), "class member"),
			})
		}
	}

	info := d.Info()
	info.Span.Start = start
	info.Attrs = attrs
	info.Modifiers |= mods
	return d
}

// parseModifiers collects declaration modifiers.
func (p *Parser) parseModifiers() core.Modifiers {
	var mods core.Modifiers
	for token.IsModifier(p.token.Type) {
		m, _ := core.ModifierFromToken(p.token.Type)
		mods |= m
		p.nextToken()
	}
	return mods
}

// parseInclude parses include, contain, import and derive.
func (p *Parser) parseInclude() *core.IncludeDecl {
	start := p.token.Pos
	d := &core.IncludeDecl{}
	switch p.token.Type {
	case token.INCLUDE:
		d.Kind = core.IncludeHeader
	case token.CONTAIN:
		d.Kind = core.IncludeContain
	case token.IMPORT:
		d.Kind = core.IncludeImport
	case token.DERIVE:
		d.Kind = core.IncludeDerive
	}
	p.nextToken()

	explicit := false
	if !d.Kind.IsModule() {
		switch {
		case p.matchSoft("local"):
			d.Local, explicit = true, true
		case p.matchSoft("system"):
			explicit = true
		}
	} else {
		d.Local = true
	}

	if p.check(token.STRING) {
		d.Path = unquote(p.token.Literal)
		if !explicit {
			d.Local = true
		}
		p.nextToken()
	} else {
		d.Path = p.parsePath()
	}
	p.expect(token.SEMICOLON)
	d.Span = p.span(start)
	return d
}

// parsePath reads a bare include path such as iostream, util.math or
// sys/types.h up to the terminating semicolon.
func (p *Parser) parsePath() string {
	var b strings.Builder
	for !p.check(token.SEMICOLON) {
		switch p.token.Type {
		case token.EOF, token.LBRACE, token.RBRACE:
			p.errorExpected(`";"`)
		}
		b.WriteString(p.token.Literal)
		p.nextToken()
	}
	if b.Len() == 0 {
		p.errorExpected("path")
	}
	return b.String()
}

var assumeKinds = map[string]bool{"namespace": true, "class": true, "variable": true, "function": true}

// parseAssume parses assume Name is kind;
func (p *Parser) parseAssume() *core.AssumeDecl {
	start := p.token.Pos
	p.expect(token.ASSUME)
	d := &core.AssumeDecl{Name: p.parseDottedName()}
	p.expectSoft("is")

	// namespace and class are hard keywords, variable and function are not
	kind := p.token.Literal
	if !assumeKinds[kind] {
		p.errorExpected("namespace, class, variable or function")
	}
	p.nextToken()
	d.Kind = kind
	p.expect(token.SEMICOLON)
	d.Span = p.span(start)
	return d
}

func (p *Parser) parseInjectDecl() *core.InjectDecl {
	start := p.token.Pos
	p.expect(token.INJECT)
	raw := p.expect(token.RAW)
	p.match(token.SEMICOLON)
	d := &core.InjectDecl{Text: raw.Literal}
	d.Span = p.span(start)
	return d
}

// parseNamespace parses namespace name { declarations }.
func (p *Parser) parseNamespace() *core.NamespaceDecl {
	start := p.token.Pos
	p.expect(token.NAMESPACE)
	d := &core.NamespaceDecl{Name: p.expectIdent()}
	open := p.expect(token.LBRACE)
	for !p.check(token.RBRACE) {
		if p.check(token.EOF) {
			p.unclosed(open)
		}
		d.Decls = append(d.Decls, p.parseDecl(true))
	}
	p.nextToken()
	d.Span = p.span(start)
	return d
}

// parseClass parses a class with its optional base list and members.
func (p *Parser) parseClass() *core.ClassDecl {
	start := p.token.Pos
	p.expect(token.CLASS)
	d := &core.ClassDecl{Name: p.expectIdent()}
	if p.matchSoft("extends") {
		d.Bases = append(d.Bases, p.parseType())
		for p.match(token.COMMA) {
			d.Bases = append(d.Bases, p.parseType())
		}
	}
	open := p.expect(token.LBRACE)
	for !p.check(token.RBRACE) {
		if p.check(token.EOF) {
			p.unclosed(open)
		}
		m := p.parseDecl(false)
		if f, ok := m.(*core.FuncDecl); ok {
			classifyMethod(f)
		}
		d.Members = append(d.Members, m)
	}
	p.nextToken()
	d.Span = p.span(start)
	return d
}

// classifyMethod marks constructors and destructors by name.
func classifyMethod(f *core.FuncDecl) {
	switch f.Name {
	case "constructor":
		f.Kind = core.FuncConstructor
		f.InferReturn = false
	case "destructor":
		f.Kind = core.FuncDestructor
		f.InferReturn = false
	}
}

// parseAbstract parses abstract Name becomes Type { functions }.
func (p *Parser) parseAbstract() *core.AbstractDecl {
	start := p.token.Pos
	p.expect(token.ABSTRACT)
	d := &core.AbstractDecl{Name: p.expectIdent()}
	p.expectSoft("becomes")
	d.Target = p.parseType()
	d.Members = p.parseFuncBlock()
	d.Span = p.span(start)
	return d
}

// parseRefurbish parses refurbish Type { functions }.
func (p *Parser) parseRefurbish() *core.RefurbishDecl {
	start := p.token.Pos
	p.expect(token.REFURBISH)
	d := &core.RefurbishDecl{Target: p.parseType()}
	d.Members = p.parseFuncBlock()
	d.Span = p.span(start)
	return d
}

func (p *Parser) parseFuncBlock() []*core.FuncDecl {
	var fns []*core.FuncDecl
	open := p.expect(token.LBRACE)
	for !p.check(token.RBRACE) {
		if p.check(token.EOF) {
			p.unclosed(open)
		}
		attrs := p.parseAttributeApps()
		start := p.token.Pos
		mods := p.parseModifiers()
		if !p.check(token.FN) {
			p.errorExpected(`"fn"`)
		}
		f := p.parseFunc()
		f.Span.Start = start
		f.Attrs = attrs
		f.Modifiers |= mods
		fns = append(fns, f)
	}
	p.nextToken()
	return fns
}

// parseEnum parses enum Name { A, B = 2, C }.
func (p *Parser) parseEnum() *core.EnumDecl {
	start := p.token.Pos
	p.expect(token.ENUM)
	d := &core.EnumDecl{Name: p.expectIdent()}
	open := p.expect(token.LBRACE)
	for !p.check(token.RBRACE) {
		if p.check(token.EOF) {
			p.unclosed(open)
		}
		mstart := p.token.Pos
		m := &core.EnumMember{Name: p.expectIdent()}
		if p.match(token.ASSIGN) {
			m.Value = p.parseExpression()
		}
		m.NodeInfo = p.info(mstart)
		d.Members = append(d.Members, m)
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expectClose(token.RBRACE, open)
	d.Span = p.span(start)
	return d
}

// parseAttributeDecl parses attribute Name(params) { directives }.
func (p *Parser) parseAttributeDecl() *core.AttributeDecl {
	start := p.token.Pos
	p.expect(token.ATTRIBUTE)
	d := &core.AttributeDecl{Name: p.expectIdent()}
	if p.check(token.LPAREN) {
		open := p.token
		p.nextToken()
		for !p.check(token.RPAREN) {
			if p.check(token.EOF) {
				p.unclosed(open)
			}
			d.Params = append(d.Params, p.expectIdent())
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expectClose(token.RPAREN, open)
	}
	// recursive uses inside the body are checked against this arity too
	p.attrArity[d.Name] = len(d.Params)

	open := p.expect(token.LBRACE)
	for !p.check(token.RBRACE) {
		if p.check(token.EOF) {
			p.unclosed(open)
		}
		if !p.check(token.AT) {
			p.errorExpected(`"@"`)
		}
		d.Directives = append(d.Directives, p.parseAttributeApp())
		p.match(token.SEMICOLON)
	}
	p.nextToken()
	d.Span = p.span(start)
	return d
}

// parseAttributeApps parses the applications preceding a declaration.
func (p *Parser) parseAttributeApps() []*core.AttributeApp {
	var apps []*core.AttributeApp
	for p.check(token.AT) {
		apps = append(apps, p.parseAttributeApp())
	}
	return apps
}

// parseAttributeApp parses @Name(args). Each argument is kept as its exact
// source text, split on commas outside nested brackets.
func (p *Parser) parseAttributeApp() *core.AttributeApp {
	start := p.token.Pos
	p.expect(token.AT)
	nameTok := p.token
	app := &core.AttributeApp{Name: p.expectIdent()}

	if p.check(token.LPAREN) {
		open := p.token
		p.nextToken()
		argStart := p.token.Pos.Offset
		depth := 0
		for depth > 0 || !p.check(token.RPAREN) {
			switch p.token.Type {
			case token.EOF:
				p.unclosed(open)
			case token.LPAREN, token.LBRACKET, token.LBRACE:
				depth++
			case token.RPAREN, token.RBRACKET, token.RBRACE:
				depth--
			case token.COMMA:
				if depth == 0 {
					app.Args = append(app.Args, strings.TrimSpace(p.src[argStart:p.token.Pos.Offset]))
					p.nextToken()
					argStart = p.token.Pos.Offset
					continue
				}
			}
			p.nextToken()
		}
		if last := strings.TrimSpace(p.src[argStart:p.token.Pos.Offset]); last != "" || len(app.Args) > 0 {
			app.Args = append(app.Args, last)
		}
		p.nextToken()
	}

	if want, ok := p.attrArity[app.Name]; ok && want != len(app.Args) {
		p.fail(&ParseError{
			Kind:     InvalidAttributeArity,
			Pos:      nameTok.Pos,
			Expected: fmt.Sprintf("%d argument(s)", want),
			Found:    fmt.Sprintf("%d argument(s)", len(app.Args)),
			Message:  fmt.Sprintf(ErrAttributeArity, app.Name, want, len(app.Args)),
		})
	}
	app.NodeInfo = p.info(start)
	return app
}

// ---------- Functions and Variables ----------

// parseFunc parses fn name(params) [const] [-> type] (block | ;).
func (p *Parser) parseFunc() *core.FuncDecl {
	start := p.token.Pos
	p.expect(token.FN)
	f := &core.FuncDecl{}
	if p.match(token.OPERATOR) {
		f.Kind = core.FuncOperator
		f.Name = "operator"
		f.Operator = p.parseOperatorSymbol()
	} else {
		f.Name = p.expectIdent()
	}

	open := p.expect(token.LPAREN)
	for !p.check(token.RPAREN) {
		if p.check(token.EOF) {
			p.unclosed(open)
		}
		f.Params = append(f.Params, p.parseParam())
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expectClose(token.RPAREN, open)

	f.ConstMethod = p.match(token.CONST)
	if p.match(token.ARROW) {
		f.Result = p.parseType()
	} else {
		f.InferReturn = true
	}

	if p.check(token.LBRACE) {
		f.Body = p.parseBody(f.InferReturn && f.Name != "constructor" && f.Name != "destructor")
	} else {
		p.expect(token.SEMICOLON)
	}
	f.Span = p.span(start)
	return f
}

// parseOperatorSymbol reads the symbol after operator, including () and [].
func (p *Parser) parseOperatorSymbol() string {
	switch {
	case p.check(token.LPAREN) && p.checkPeek(token.RPAREN):
		p.nextToken()
		p.nextToken()
		return "()"
	case p.check(token.LBRACKET) && p.checkPeek(token.RBRACKET):
		p.nextToken()
		p.nextToken()
		return "[]"
	case token.IsOperator(p.token.Type) && !p.check(token.LPAREN) && !p.check(token.LBRACE):
		sym := p.token.Literal
		p.nextToken()
		return sym
	}
	p.errorExpected("operator symbol")
	return ""
}

// parseParam parses [style] name: Type [= default].
func (p *Parser) parseParam() *core.Param {
	start := p.token.Pos
	prm := &core.Param{}
	if token.IsStorage(p.token.Type) {
		prm.Storage = p.parseStorage()
	}
	prm.Name = p.expectIdent()
	p.expect(token.COLON)
	prm.Type = p.parseType()
	if p.match(token.ASSIGN) {
		prm.Default = p.parseExpression()
	}
	prm.NodeInfo = p.info(start)
	return prm
}

// parseStorage consumes an ownership keyword.
func (p *Parser) parseStorage() core.Storage {
	s, ok := core.StorageFromKeyword(p.token)
	if !ok {
		p.fail(&ParseError{
			Kind:     UnexpectedToken,
			Pos:      p.token.Pos,
			Expected: "storage keyword",
			Found:    describe(p.token),
			Message:  fmt.Sprintf(ErrInvalidStorage, p.token.Literal),
		})
	}
	p.nextToken()
	return s
}

// parseVarDecl parses style name [: Type] [= expr], with the trailing
// semicolon when terminated is set.
func (p *Parser) parseVarDecl(terminated bool) *core.VarDecl {
	start := p.token.Pos
	d := &core.VarDecl{Storage: p.parseStorage()}
	d.Name = p.expectIdent()
	if p.match(token.COLON) {
		d.Type = p.parseType()
	}
	if p.match(token.ASSIGN) {
		d.Value = p.parseExpression()
	}
	if terminated {
		p.expect(token.SEMICOLON)
	}
	d.Span = p.span(start)
	return d
}

// parseDottedName parses name {"." name}.
func (p *Parser) parseDottedName() string {
	name := p.expectIdent()
	for p.check(token.DOT) && p.checkPeek(token.IDENT) {
		p.nextToken()
		name += "." + p.expectIdent()
	}
	return name
}

// unquote strips the surrounding quotes of a string literal without
// interpreting escapes.
func unquote(lit string) string {
	if len(lit) >= 2 && (lit[0] == '"' || lit[0] == '\'') && lit[len(lit)-1] == lit[0] {
		return lit[1 : len(lit)-1]
	}
	return lit
}
