package parser_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/parser"
	"github.com/leapstack-labs/tasty/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sexpr renders an expression with explicit grouping.
func sexpr(e core.Expr) string {
	switch e := e.(type) {
	case *core.Literal:
		return e.Value
	case *core.Ident:
		return e.Name
	case *core.SelfExpr:
		return "self"
	case *core.BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", e.Op, sexpr(e.Left), sexpr(e.Right))
	case *core.UnaryExpr:
		if e.Postfix {
			return fmt.Sprintf("(%s%s)", sexpr(e.X), e.Op)
		}
		return fmt.Sprintf("(%s %s)", e.Op, sexpr(e.X))
	case *core.CallExpr:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = sexpr(a)
		}
		return sexpr(e.Fn) + "(" + strings.Join(args, ", ") + ")"
	case *core.MemberExpr:
		return sexpr(e.X) + e.Op.String() + e.Name
	case *core.IndexExpr:
		return sexpr(e.X) + "[" + sexpr(e.Index) + "]"
	case *core.TupleIndexExpr:
		return fmt.Sprintf("%s.%d", sexpr(e.X), e.Index)
	case *core.TupleLit:
		parts := []string{"tuple"}
		for _, el := range e.Elems {
			parts = append(parts, sexpr(el))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *core.RangeExpr:
		return fmt.Sprintf("(.. %s %s)", sexpr(e.From), sexpr(e.To))
	case *core.TernaryExpr:
		return fmt.Sprintf("(? %s %s %s)", sexpr(e.Cond), sexpr(e.Then), sexpr(e.Else))
	case *core.CastExpr:
		return fmt.Sprintf("(as %s %s %s)", e.Kind, sexpr(e.X), e.Type)
	case *core.NewExpr:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = sexpr(a)
		}
		return "new " + e.Type.String() + "(" + strings.Join(args, ", ") + ")"
	case *core.DeleteExpr:
		return "(delete " + sexpr(e.X) + ")"
	case *core.ParenExpr:
		return "[" + sexpr(e.X) + "]"
	}
	return fmt.Sprintf("<%T>", e)
}

func TestParseExpr(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a + b * c", "(+ a (* b c))"},
		{"a - b - c", "(- (- a b) c)"},
		{"a = b = c", "(= a (= b c))"},
		{"a += 1", "(+= a 1)"},
		{"a == b && c < d || e", "(|| (&& (== a b) (< c d)) e)"},
		{"a & b | c ^ d", "(| (& a b) (^ c d))"},
		{"x << 1 + 2", "(<< x (+ 1 2))"},
		{"-a * b", "(* (- a) b)"},
		{"x - -1", "(- x -1)"},
		{"!done", "(! done)"},
		{"i++", "(i++)"},
		{"x ? 1 : 2", "(? x 1 2)"},
		{"a = x ? 1 : 2", "(= a (? x 1 2))"},
		{"0..n", "(.. 0 n)"},
		{`std.cout << "hi"`, `(<< std.cout "hi")`},
		{"f(1, 2).x->y", "f(1, 2).x->y"},
		{"a::b", "a::b"},
		{"v[i + 1]", "v[(+ i 1)]"},
		{"t.0", "t.0"},
		{"t.1.0", "t.1.0"},
		{"(1, 2, 3)", "(tuple 1 2 3)"},
		{"(a + b) * c", "(* [(+ a b)] c)"},
		{"3.5 as int", "(as c 3.5 int)"},
		{"child as static Base*", "(as static child Base*)"},
		{"p as dynamic Derived*", "(as dynamic p Derived*)"},
		{"x as reinterpret long", "(as reinterpret x long)"},
		{"new std.list(2, 4)", "new std.list(2, 4)"},
		{"new Widget", "new Widget()"},
		{"delete p", "(delete p)"},
		{"self.size() >= 2 ? self.at(1) : 0", "(? (>= self.size() 2) self.at(1) 0)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, err := parser.ParseExpr(tt.input, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sexpr(expr))
		})
	}
}

func TestParseFile_HelloWorld(t *testing.T) {
	src := "include iostream;\n\nfn main() {\n    std.cout << \"hi\";\n}\n"
	file, err := parser.ParseFile("main", src, nil)
	require.NoError(t, err)
	require.Len(t, file.Decls, 2)

	inc, ok := file.Decls[0].(*core.IncludeDecl)
	require.True(t, ok)
	assert.Equal(t, core.IncludeHeader, inc.Kind)
	assert.Equal(t, "iostream", inc.Path)
	assert.False(t, inc.Local)

	fn, ok := file.Decls[1].(*core.FuncDecl)
	require.True(t, ok)
	assert.Equal(t, "main", fn.Name)
	assert.True(t, fn.InferReturn)
	assert.Equal(t, 3, fn.Line())
	assert.Equal(t, 5, fn.EndLine())
	require.Len(t, fn.Body.Stmts, 1)
	assert.Equal(t, 4, fn.Body.Stmts[0].Line())
}

func TestParseFile_Includes(t *testing.T) {
	src := `include local "widget.h";
contain system cstdio;
import util.math;
derive util.impl;
include "x.h";
include sys/types.h;
`
	file, err := parser.ParseFile("m", src, nil)
	require.NoError(t, err)

	want := []struct {
		kind  core.IncludeKind
		path  string
		local bool
	}{
		{core.IncludeHeader, "widget.h", true},
		{core.IncludeContain, "cstdio", false},
		{core.IncludeImport, "util.math", true},
		{core.IncludeDerive, "util.impl", true},
		{core.IncludeHeader, "x.h", true},
		{core.IncludeHeader, "sys/types.h", false},
	}
	require.Len(t, file.Decls, len(want))
	for i, w := range want {
		inc := file.Decls[i].(*core.IncludeDecl)
		assert.Equal(t, w.kind, inc.Kind, "decl %d", i)
		assert.Equal(t, w.path, inc.Path, "decl %d", i)
		assert.Equal(t, w.local, inc.Local, "decl %d", i)
		assert.Equal(t, i+1, inc.Line())
	}
}

func TestParseFile_AttributeAndClass(t *testing.T) {
	src := `attribute Property(propertyType, propertyName) {
    @DeclareAppend("Q_PROPERTY([propertyType] [propertyName] READ get_[propertyName] WRITE set_[propertyName])");
}

@Property(int, count)
class MyLineEdit extends QLineEdit { copy _count: int = 0; fn get_count() -> int; }
`
	file, err := parser.ParseFile("widgets", src, nil)
	require.NoError(t, err)
	require.Len(t, file.Decls, 2)

	attr := file.Decls[0].(*core.AttributeDecl)
	assert.Equal(t, "Property", attr.Name)
	assert.Equal(t, []string{"propertyType", "propertyName"}, attr.Params)
	require.Len(t, attr.Directives, 1)
	assert.Equal(t, "DeclareAppend", attr.Directives[0].Name)
	assert.Equal(t,
		[]string{`"Q_PROPERTY([propertyType] [propertyName] READ get_[propertyName] WRITE set_[propertyName])"`},
		attr.Directives[0].Args)

	cls := file.Decls[1].(*core.ClassDecl)
	assert.Equal(t, "MyLineEdit", cls.Name)
	assert.Equal(t, 6, cls.Line(), "class line is the keyword line, not the attribute line")
	require.Len(t, cls.Attrs, 1)
	assert.Equal(t, []string{"int", "count"}, cls.Attrs[0].Args)
	require.Len(t, cls.Bases, 1)
	assert.Equal(t, "QLineEdit", cls.Bases[0].Name)

	require.Len(t, cls.Members, 2)
	field := cls.Members[0].(*core.VarDecl)
	assert.Equal(t, "_count", field.Name)
	assert.Equal(t, core.StorageValue, field.Storage.Kind)
	assert.Equal(t, "int", field.Type.String())
	assert.Equal(t, "0", sexpr(field.Value))

	getter := cls.Members[1].(*core.FuncDecl)
	assert.Equal(t, "get_count", getter.Name)
	assert.Nil(t, getter.Body)
	assert.False(t, getter.InferReturn)
	assert.Equal(t, "int", getter.Result.String())
}

func TestParseFile_AttributeArgsKeepSourceText(t *testing.T) {
	src := `@Tag(f(a, b), "x, y", std.vector<int>)
fn g() { }`
	file, err := parser.ParseFile("m", src, nil)
	require.NoError(t, err)
	fn := file.Decls[0].(*core.FuncDecl)
	require.Len(t, fn.Attrs, 1)
	assert.Equal(t, []string{"f(a, b)", `"x, y"`, "std.vector<int>"}, fn.Attrs[0].Args)
}

func TestParseFile_ClassMembers(t *testing.T) {
	src := `class Point {
    static copy count: int = 0;
    copy x: int;
    fn constructor(x: int) { self.x = x; }
    fn destructor() { }
    fn operator+(borrow o: Point) -> Point;
    fn length() const -> double;
}`
	file, err := parser.ParseFile("m", src, nil)
	require.NoError(t, err)
	cls := file.Decls[0].(*core.ClassDecl)
	require.Len(t, cls.Members, 6)

	count := cls.Members[0].(*core.VarDecl)
	assert.True(t, count.Modifiers.Has(core.ModStatic))
	assert.Equal(t, 2, count.Line())

	ctor := cls.Members[2].(*core.FuncDecl)
	assert.Equal(t, core.FuncConstructor, ctor.Kind)
	assert.False(t, ctor.InferReturn)

	dtor := cls.Members[3].(*core.FuncDecl)
	assert.Equal(t, core.FuncDestructor, dtor.Kind)

	plus := cls.Members[4].(*core.FuncDecl)
	assert.Equal(t, core.FuncOperator, plus.Kind)
	assert.Equal(t, "+", plus.Operator)
	require.Len(t, plus.Params, 1)
	assert.Equal(t, core.StorageReference, plus.Params[0].Storage.Kind)
	assert.True(t, plus.Params[0].Storage.Const)

	length := cls.Members[5].(*core.FuncDecl)
	assert.True(t, length.ConstMethod)
}

func TestParseFile_AbstractRefurbishEnumNamespace(t *testing.T) {
	src := `assume Qt is namespace;
abstract string becomes std.string {
    fn size() -> size_t;
    fn second() -> char { return self.size() >= 2 ? self.at(1) : 0; }
}
refurbish int { fn twice() -> int { return self * 2; } }
enum Color { Red, Green = 2, Blue }
namespace math { fn add(a: int, b: int) -> int { return a + b; } }
inject { #define X 1 }
`
	file, err := parser.ParseFile("m", src, nil)
	require.NoError(t, err)
	require.Len(t, file.Decls, 6)

	assume := file.Decls[0].(*core.AssumeDecl)
	assert.Equal(t, "Qt", assume.Name)
	assert.Equal(t, "namespace", assume.Kind)

	abs := file.Decls[1].(*core.AbstractDecl)
	assert.Equal(t, "string", abs.Name)
	assert.Equal(t, "std.string", abs.Target.String())
	require.Len(t, abs.Members, 2)
	assert.Nil(t, abs.Members[0].Body)
	assert.NotNil(t, abs.Members[1].Body)

	ref := file.Decls[2].(*core.RefurbishDecl)
	assert.Equal(t, "int", ref.Target.String())
	require.Len(t, ref.Members, 1)

	enum := file.Decls[3].(*core.EnumDecl)
	require.Len(t, enum.Members, 3)
	assert.Nil(t, enum.Members[0].Value)
	assert.Equal(t, "2", sexpr(enum.Members[1].Value))

	ns := file.Decls[4].(*core.NamespaceDecl)
	assert.Equal(t, "math", ns.Name)
	require.Len(t, ns.Decls, 1)

	inj := file.Decls[5].(*core.InjectDecl)
	assert.Equal(t, " #define X 1 ", inj.Text)
	assert.Equal(t, 9, inj.Line())
}

func TestParseFile_Statements(t *testing.T) {
	src := `fn main() {
    copy t = (100, 200, 300);
    ptr p = new std.list(2, 4);
    inc i from 0 to 10 by 2 { std.cout << t.0; }
    for x in 0..3 { }
    unless done { } else { }
    until done { }
    loop { break; }
    const copy f = 3.5 as int;
    copy v: std.map<int, std.vector<int>> = m;
    decto j from 5 to 1 { continue; }
    if a { } else if b { } else { }
    return;
}`
	file, err := parser.ParseFile("m", src, nil)
	require.NoError(t, err)
	body := file.Decls[0].(*core.FuncDecl).Body.Stmts
	require.Len(t, body, 12)

	tuple := body[0].(*core.DeclStmt).Decl
	assert.Equal(t, "(tuple 100 200 300)", sexpr(tuple.Value))

	ptr := body[1].(*core.DeclStmt).Decl
	assert.Equal(t, core.StorageRawPointer, ptr.Storage.Kind)
	assert.Equal(t, 1, ptr.Storage.Level)

	loop := body[2].(*core.RangeLoopStmt)
	assert.Equal(t, token.INC, loop.Kind)
	assert.True(t, loop.Ascending())
	assert.False(t, loop.Inclusive())
	assert.Equal(t, "i", loop.Var)
	assert.Equal(t, "2", sexpr(loop.Step))

	forIn := body[3].(*core.ForInStmt)
	assert.Equal(t, "(.. 0 3)", sexpr(forIn.Iter))

	unless := body[4].(*core.IfStmt)
	assert.True(t, unless.Negate)
	assert.NotNil(t, unless.Else)

	until := body[5].(*core.WhileStmt)
	assert.True(t, until.Negate)

	inf := body[6].(*core.WhileStmt)
	assert.True(t, inf.Infinite)
	assert.Nil(t, inf.Cond)

	cast := body[7].(*core.DeclStmt).Decl
	assert.True(t, cast.Modifiers.Has(core.ModConst))

	tmpl := body[8].(*core.DeclStmt).Decl
	assert.Equal(t, "std.map<int, std.vector<int>>", tmpl.Type.String())
	assert.Equal(t, "m", sexpr(tmpl.Value))

	decto := body[9].(*core.RangeLoopStmt)
	assert.False(t, decto.Ascending())
	assert.True(t, decto.Inclusive())

	chain := body[10].(*core.IfStmt)
	_, elseIf := chain.Else.(*core.IfStmt)
	assert.True(t, elseIf)

	ret := body[11].(*core.ReturnStmt)
	assert.Nil(t, ret.Value)
	assert.Equal(t, 13, ret.Line())
}

func TestParseFile_ImplicitReturn(t *testing.T) {
	src := "fn g(a: int) {\n    if a > 1 { return a; }\n    a * 2\n}\n"
	file, err := parser.ParseFile("m", src, nil)
	require.NoError(t, err)

	g, ok := file.Decls[0].(*core.FuncDecl)
	require.True(t, ok)
	require.Len(t, g.Body.Stmts, 2)

	ret, ok := g.Body.Stmts[1].(*core.ReturnStmt)
	require.True(t, ok, "got %T", g.Body.Stmts[1])
	assert.True(t, ret.Implicit)
	assert.Equal(t, "(* a 2)", sexpr(ret.Value))
	assert.Equal(t, 3, ret.Line())

	cond, ok := g.Body.Stmts[0].(*core.IfStmt)
	require.True(t, ok)
	explicit, ok := cond.Then.Stmts[0].(*core.ReturnStmt)
	require.True(t, ok)
	assert.False(t, explicit.Implicit)

	file, err = parser.ParseFile("m", "fn g() { 5 }", nil)
	require.NoError(t, err)
	body := file.Decls[0].(*core.FuncDecl).Body
	require.Len(t, body.Stmts, 1)
	assert.True(t, body.Stmts[0].(*core.ReturnStmt).Implicit)
}

func TestParseFile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		kind     parser.ParseErrorKind
		code     string
		contains string
	}{
		{
			name:     "missing expression",
			input:    "fn main() { copy x = ; }",
			kind:     parser.UnexpectedToken,
			code:     "E201",
			contains: `unexpected token ";", expected expression`,
		},
		{
			name:     "class without name",
			input:    "class { }",
			kind:     parser.ExpectedIdentifier,
			code:     "E202",
			contains: "expected identifier",
		},
		{
			name:     "unclosed body",
			input:    "fn main() {\n copy x = 1;\n",
			kind:     parser.UnclosedDelimiter,
			code:     "E203",
			contains: `unclosed "{" opened at line 1`,
		},
		{
			name:     "unclosed parameter list",
			input:    "fn f(a: int",
			kind:     parser.UnclosedDelimiter,
			code:     "E203",
			contains: `unclosed "("`,
		},
		{
			name:     "attribute arity",
			input:    "attribute P(a) { @Isolated; }\n@P(1, 2)\nclass C { }",
			kind:     parser.InvalidAttributeArity,
			code:     "E204",
			contains: "attribute P takes 1 argument(s), got 2",
		},
		{
			name:     "bad assume kind",
			input:    "assume X is thing;",
			kind:     parser.UnexpectedToken,
			code:     "E201",
			contains: "namespace, class, variable or function",
		},
		{
			name:     "trailing expression with declared result",
			input:    "fn f() -> int { 5 }",
			kind:     parser.UnexpectedToken,
			code:     "E201",
			contains: `unexpected token "}", expected ";"`,
		},
		{
			name:     "trailing expression in nested block",
			input:    "fn f() { if true { 5 } }",
			kind:     parser.UnexpectedToken,
			code:     "E201",
			contains: `expected ";"`,
		},
		{
			name:     "trailing expression in constructor",
			input:    "class C { fn constructor() { 5 } }",
			kind:     parser.UnexpectedToken,
			code:     "E201",
			contains: `expected ";"`,
		},
		{
			name:     "namespace inside class",
			input:    "class C { namespace n { } }",
			kind:     parser.UnexpectedToken,
			code:     "E201",
			contains: "class member",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := parser.ParseFile("m", tt.input, nil)
			require.Error(t, err)
			assert.Nil(t, file)

			var perr *parser.ParseError
			require.True(t, errors.As(err, &perr), "got %T: %v", err, err)
			assert.Equal(t, tt.kind, perr.Kind)
			assert.Equal(t, tt.code, perr.Code())
			assert.Contains(t, err.Error(), tt.contains)
			assert.Contains(t, err.Error(), "parse error at line")
		})
	}
}

func TestParseFile_LexErrorAborts(t *testing.T) {
	_, err := parser.ParseFile("m", "fn main() {\n copy s = \"abc; }", nil)
	require.Error(t, err)

	var lexErr *parser.LexError
	require.True(t, errors.As(err, &lexErr))
	assert.Equal(t, parser.UnterminatedString, lexErr.Kind)
	assert.Equal(t, 2, lexErr.Pos.Line)
}
