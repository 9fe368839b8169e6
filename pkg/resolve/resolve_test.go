package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/parser"
	"github.com/leapstack-labs/tasty/pkg/token"
)

type coded interface {
	Code() string
}

type positioned interface {
	Position() token.Position
}

func resolveSrc(t *testing.T, src string) (*core.File, *Info) {
	t.Helper()
	file, err := parser.ParseFile("test.tasty", src, nil)
	require.NoError(t, err)
	info, err := Resolve(file, nil)
	require.NoError(t, err)
	return file, info
}

func resolveErr(t *testing.T, src string) error {
	t.Helper()
	file, err := parser.ParseFile("test.tasty", src, nil)
	require.NoError(t, err)
	info, err := Resolve(file, nil)
	require.Error(t, err)
	assert.Nil(t, info)
	return err
}

func findFunc(file *core.File, name string) *core.FuncDecl {
	var found *core.FuncDecl
	core.Inspect(file, func(n core.Node) bool {
		if f, ok := n.(*core.FuncDecl); ok && f.Name == name && found == nil {
			found = f
		}
		return found == nil
	})
	return found
}

func findVar(file *core.File, name string) *core.VarDecl {
	var found *core.VarDecl
	core.Inspect(file, func(n core.Node) bool {
		if v, ok := n.(*core.VarDecl); ok && v.Name == name && found == nil {
			found = v
		}
		return found == nil
	})
	return found
}

func findMember(file *core.File, recv, name string) *core.MemberExpr {
	var found *core.MemberExpr
	core.Inspect(file, func(n core.Node) bool {
		if m, ok := n.(*core.MemberExpr); ok && m.Name == name && found == nil {
			if id, ok := m.X.(*core.Ident); ok && id.Name == recv {
				found = m
			}
		}
		return found == nil
	})
	return found
}

func TestResolve_SmartAccess(t *testing.T) {
	src := `enum Color { Red, Green }
class Widget {
    copy n: int;
    fn draw() { }
}
fn main() {
    copy v = Widget();
    ptr p = new Widget();
    ptr2 q = new Widget();
    ptr3 r = new Widget();
    autoptr s = new Widget();
    v.draw();
    p.draw();
    q.draw();
    r.draw();
    s.draw();
    std.cout << v.n;
    copy c = Color.Red;
    u.x();
}`
	file, info := resolveSrc(t, src)

	tests := []struct {
		recv, member string
		want         string
	}{
		{"v", "draw", "v.draw"},
		{"p", "draw", "p->draw"},
		{"q", "draw", "(*q)->draw"},
		{"r", "draw", "(**r)->draw"},
		{"s", "draw", "s->draw"},
		{"std", "cout", "std::cout"},
		{"v", "n", "v.n"},
		{"Color", "Red", "Color::Red"},
		{"u", "x", "u.x"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			m := findMember(file, tt.recv, tt.member)
			require.NotNil(t, m)
			acc, ok := info.Access[m]
			require.True(t, ok)
			assert.Equal(t, tt.want, acc.Render(tt.recv, tt.member))
		})
	}

	assert.Equal(t, "Color", info.VarType(findVar(file, "c")).String())
}

func TestAccess_Render(t *testing.T) {
	tests := []struct {
		acc  Access
		want string
	}{
		{Access{Kind: AccessDot}, "a.b"},
		{Access{Kind: AccessScope}, "a::b"},
		{Access{Kind: AccessArrow, Depth: 1}, "a->b"},
		{Access{Kind: AccessArrow, Depth: 2}, "(*a)->b"},
		{Access{Kind: AccessArrow, Depth: 4}, "(***a)->b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.acc.Render("a", "b"))
	}
}

func TestResolve_VarTypes(t *testing.T) {
	src := `class Widget { }
fn main() {
    copy a = 1;
    copy b = 2.5f;
    let c = (1, 2.5);
    ref d: int = a;
    ptr p = new Widget();
    autoptr s = new Widget();
    uniqueptr u = new Widget();
    ptr2 q = new Widget();
    copy w = Widget();
    copy e = c.1;
    copy big = 1ul;
    for x in 0..3 { }
}`
	file, info := resolveSrc(t, src)

	tests := []struct {
		name string
		want string
	}{
		{"a", "int"},
		{"b", "float"},
		{"c", "(int, double)"},
		{"d", "ref int"},
		{"p", "Widget*"},
		{"s", "autoptr Widget"},
		{"u", "uniqueptr Widget"},
		{"q", "autoptr Widget*"},
		{"w", "Widget"},
		{"e", "double"},
		{"big", "ulong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := findVar(file, tt.name)
			require.NotNil(t, v)
			assert.Equal(t, tt.want, info.VarType(v).String())
		})
	}

	for stmt, sym := range info.LoopVars {
		if _, ok := stmt.(*core.ForInStmt); ok {
			assert.Equal(t, "x", sym.Name)
			assert.Equal(t, "int", sym.Type.String())
		}
	}
}

func TestResolve_ReturnInference(t *testing.T) {
	tests := []struct {
		name string
		src  string
		fn   string
		want string
	}{
		{"widening", "fn f() { return 1; return 2.5; }", "f", "double"},
		{"no returns", "fn f() { }", "f", "void"},
		{"main", "fn main() { }", "main", "int"},
		{"null and pointer", "fn f(p: int*) { return null; return p; }", "f", "int*"},
		{"declared later", "fn f() { return g(); }\nfn g() { return 1; }", "f", "int"},
		{"declared", "fn f() -> long { return 1; }", "f", "long"},
		{"constructor", "class A { fn constructor() { } }", "constructor", "void"},
		{"trailing expression", "fn g() { 5 }", "g", "int"},
		{"trailing after early return", "fn g(a: int) { if a > 1 { return a; } a }", "g", "int"},
		{"trailing widens", "fn g(a: double) { if a > 1.0 { return 1; } a }", "g", "double"},
		{"trailing void call", "fn h() { }\nfn g() { h() }", "g", "void"},
		{"trailing in main", "fn main() { 5 }", "main", "int"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, info := resolveSrc(t, tt.src)
			f := findFunc(file, tt.fn)
			require.NotNil(t, f)
			assert.Equal(t, tt.want, info.Result(f).String())
		})
	}
}

func TestResolve_RecursiveInferenceIsUnknown(t *testing.T) {
	file, info := resolveSrc(t, "fn f(n: int) { return f(n); }")
	assert.True(t, info.Result(findFunc(file, "f")).IsUnknown())
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
		line int
	}{
		{"redeclared global", "copy a: int = 1;\ncopy a: int = 2;", "E301", 2},
		{"redeclared member", "class A {\n    copy x: int;\n    copy x: int;\n}", "E301", 3},
		{"redeclared local", "fn main() {\n    copy x = 1;\n    copy x = 2;\n}", "E301", 3},
		{"redeclared class", "class A { }\nenum A { B }", "E301", 2},
		{"ambiguous", "fn f() {\n    return \"a\";\n    return 1;\n}", "E401", 1},
		{"ambiguous trailing", "fn f() {\n    return \"a\";\n    1\n}", "E401", 1},
		{"incompatible", "fn main() {\n    copy x: int = 2.5;\n}", "E402", 2},
		{"incompatible return", "fn f() -> int {\n    return 2.5;\n}", "E402", 2},
		{"tuple cast", "fn main() {\n    copy t = (1, 2);\n    copy x = t as int;\n}", "E403", 3},
		{"dynamic cast", "fn main() {\n    copy x = 3 as dynamic double;\n}", "E403", 2},
		{"range outside for", "fn main() {\n    copy r = 0..3;\n}", "E404", 2},
		{"tuple index", "fn main() {\n    copy t = (1, 2);\n    copy z = t.5;\n}", "E405", 3},
		{"not forwarded", "abstract str becomes std.string { fn size() -> size_t; }\nfn main() {\n    copy s: str = \"x\";\n    s.length();\n}", "E302", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := resolveErr(t, tt.src)
			var c coded
			require.ErrorAs(t, err, &c)
			assert.Equal(t, tt.code, c.Code())
			var p positioned
			require.ErrorAs(t, err, &p)
			assert.Equal(t, tt.line, p.Position().Line)
		})
	}
}

func TestResolve_OverloadsAndShadowing(t *testing.T) {
	src := `fn f(a: int) { }
fn f(a: double) { }
fn main() {
    copy x = 1;
    if x > 0 {
        copy x = 2.5;
    }
}`
	_, info := resolveSrc(t, src)
	sym, ok := info.Global.LookupLocal("f")
	require.True(t, ok)
	assert.Equal(t, SymFunction, sym.Kind)

	var overloads int
	for _, s := range info.Global.Symbols() {
		if s.Name == "f" {
			overloads++
		}
	}
	assert.Equal(t, 2, overloads)
}

func TestResolve_AbstractExtensions(t *testing.T) {
	src := `abstract string becomes std.string {
    fn size() -> size_t;
    fn second() -> char { return self.size() >= 2 ? self.at(1) : 0; }
}
fn main() {
    copy s: string = "hello";
    copy n = s.size();
    copy c = s.second();
}`
	file, info := resolveSrc(t, src)

	require.Len(t, info.Extensions, 1)
	ext := info.Extensions[0]
	assert.Equal(t, "string", ext.Owner)
	assert.Equal(t, "string_second", ext.CName)
	assert.Equal(t, "std::string&", ext.Self.CPP())

	abs := info.Abstracts["string"]
	require.NotNil(t, abs)
	assert.Contains(t, abs.Forwarded, "size")
	assert.Contains(t, abs.Ext, "second")

	assert.Equal(t, "size_t", info.VarType(findVar(file, "n")).String())
	assert.Equal(t, "char", info.VarType(findVar(file, "c")).String())

	require.Len(t, info.ExtCalls, 1)
	for _, call := range info.ExtCalls {
		assert.Same(t, ext, call.Func)
		assert.Equal(t, 0, call.Depth)
		id, ok := call.Receiver.(*core.Ident)
		require.True(t, ok)
		assert.Equal(t, "s", id.Name)
	}
	assert.Equal(t, "s.size", info.Access[findMember(file, "s", "size")].Render("s", "size"))
}

func TestResolve_Refurbish(t *testing.T) {
	src := `refurbish int { fn twice() -> int { return self * 2; } }
refurbish std.vector<int> { fn first() -> int { return self[0]; } }
fn main() {
    copy x = 4;
    ptr p = new int(3);
    copy y = x.twice();
    copy z = p.twice();
}`
	file, info := resolveSrc(t, src)

	require.Len(t, info.Extensions, 2)
	assert.Equal(t, "int_twice", info.Extensions[0].CName)
	assert.Equal(t, "std_vector_int_first", info.Extensions[1].CName)
	assert.Equal(t, "int", info.VarType(findVar(file, "y")).String())

	depths := map[int]int{}
	for _, call := range info.ExtCalls {
		depths[call.Depth]++
	}
	assert.Equal(t, map[int]int{0: 1, 1: 1}, depths)
}

func TestResolve_Ownership(t *testing.T) {
	src := `fn main() {
    ptr a = new Widget();
    ptr b = new Widget();
    ptr2 c = new Widget();
    delete b;
    copy v = Widget();
}
fn make() -> Widget* {
    ptr w = new Widget();
    return w;
}
class Widget { }`
	file, info := resolveSrc(t, src)

	main := findFunc(file, "main")
	owned := info.Owned[main.Body]
	require.Len(t, owned, 2)
	assert.Equal(t, "a", owned[0].Name)
	assert.Equal(t, "c", owned[1].Name)

	assert.Empty(t, info.Owned[findFunc(file, "make").Body])
}

func TestResolve_OwnershipExits(t *testing.T) {
	src := `fn f(c: bool) -> int {
    ptr a = new Widget();
    if c {
        ptr b = new Widget();
        return 1;
    }
    return 0;
}
fn make() -> Widget* {
    ptr w = new Widget();
    ptr x = new Widget();
    return w;
}
class Widget { }`
	file, info := resolveSrc(t, src)

	names := func(vars []*core.VarDecl) []string {
		var out []string
		for _, v := range vars {
			out = append(out, v.Name)
		}
		return out
	}

	f := findFunc(file, "f")
	assert.Empty(t, info.Owned[f.Body])
	branch, ok := f.Body.Stmts[1].(*core.IfStmt)
	require.True(t, ok)
	assert.Empty(t, info.Owned[branch.Then])

	early := info.Exits[branch.Then.Stmts[1]]
	require.NotNil(t, early)
	assert.Equal(t, []string{"b", "a"}, names(early.Deletes))
	assert.False(t, early.Hold)

	final := info.Exits[f.Body.Stmts[2]]
	require.NotNil(t, final)
	assert.Equal(t, []string{"a"}, names(final.Deletes))

	mk := findFunc(file, "make")
	ret := info.Exits[mk.Body.Stmts[2]]
	require.NotNil(t, ret)
	assert.Equal(t, []string{"x"}, names(ret.Deletes))
}

func TestResolve_UnknownPassThrough(t *testing.T) {
	src := `assume Qt is namespace;
fn main() {
    foo.bar(baz);
    copy w = Qt.make();
    std.chrono.seconds(5);
}`
	file, info := resolveSrc(t, src)

	var foo *core.Ident
	core.Inspect(file, func(n core.Node) bool {
		if id, ok := n.(*core.Ident); ok && id.Name == "foo" {
			foo = id
		}
		return true
	})
	require.NotNil(t, foo)
	require.NotNil(t, info.Uses[foo])
	assert.True(t, info.Uses[foo].Unknown)
	assert.True(t, info.TypeOf(foo).IsUnknown())

	assert.Equal(t, "foo.bar", info.Access[findMember(file, "foo", "bar")].Render("foo", "bar"))
	assert.Equal(t, "Qt::make", info.Access[findMember(file, "Qt", "make")].Render("Qt", "make"))
	assert.True(t, info.VarType(findVar(file, "w")).Anonymous())

	chrono := findMember(file, "std", "chrono")
	require.NotNil(t, chrono)
	assert.True(t, info.TypeNames[chrono])
}

func TestResolve_ThisInMethods(t *testing.T) {
	src := `class Counter {
    copy n: int;
    fn bump() { self.n += 1; }
}`
	file, info := resolveSrc(t, src)

	require.Len(t, info.This, 1)
	for self, isThis := range info.This {
		assert.True(t, isThis)
		assert.Equal(t, "Counter*", info.TypeOf(self).String())
	}
	var m *core.MemberExpr
	core.Inspect(file, func(n core.Node) bool {
		if me, ok := n.(*core.MemberExpr); ok {
			m = me
		}
		return true
	})
	require.NotNil(t, m)
	assert.Equal(t, Access{Kind: AccessArrow, Depth: 1}, info.Access[m])
}

func TestResolve_InheritedMembers(t *testing.T) {
	src := `class Base {
    copy id: int;
}
class Derived extends Base {
    fn get() { return id; }
}
fn main() {
    ptr d = new Derived();
    copy x = d.id;
    ptr b: Base = d;
}`
	file, info := resolveSrc(t, src)

	derived := info.Classes[file.Decls[1].(*core.ClassDecl)]
	require.NotNil(t, derived)
	require.Len(t, derived.Type.Bases, 1)
	assert.Equal(t, "Base", derived.Type.Bases[0].Name)
	assert.Same(t, file.Decls[0], info.LocalBase(file.Decls[1].(*core.ClassDecl).Bases[0]))

	assert.Equal(t, "int", info.Result(findFunc(file, "get")).String())
	assert.Equal(t, "int", info.VarType(findVar(file, "x")).String())
	assert.Equal(t, "Base*", info.VarType(findVar(file, "b")).String())
}

func TestResolve_NamespacesAndListing(t *testing.T) {
	src := `namespace math { fn add(a: int, b: int) -> int { return a + b; } }
enum Color { Red, Green = 2, Blue }
fn main() { copy s = math.add(1, 2); }`
	file, info := resolveSrc(t, src)

	assert.Equal(t, "int", info.VarType(findVar(file, "s")).String())
	assert.Equal(t, "math::add", info.Access[findMember(file, "math", "add")].Render("math", "add"))

	var names []string
	for _, e := range info.Listing() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"math", "math.add", "Color", "Color.Blue", "Color.Green", "Color.Red", "main"}, names)
}

func TestScope_DeclareAndLookup(t *testing.T) {
	global := NewScope()
	fn := &core.FuncDecl{Name: "f"}
	require.NoError(t, global.Declare(&Symbol{Name: "f", Kind: SymFunction, Decl: fn}, fn))
	require.NoError(t, global.Declare(&Symbol{Name: "f", Kind: SymFunction, Decl: fn}, fn))

	v := &core.VarDecl{Name: "x"}
	require.NoError(t, global.Declare(&Symbol{Name: "x", Kind: SymVariable, Decl: v}, v))
	err := global.Declare(&Symbol{Name: "x", Kind: SymVariable, Decl: v}, v)
	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, Redeclared, re.Kind)
	assert.Equal(t, "E301", re.Code())

	block := global.Child(ScopeFunction, nil).Child(ScopeBlock, nil)
	sym, ok := block.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, SymVariable, sym.Kind)
	_, ok = block.LookupLocal("x")
	assert.False(t, ok)
	assert.Equal(t, ScopeFunction, block.Enclosing(ScopeFunction).Kind())
	assert.Same(t, global, block.Enclosing(ScopeGlobal))

	assert.Len(t, global.Symbols(), 3)
}

func TestResolutionError_Format(t *testing.T) {
	err := &ResolutionError{Kind: NotForwarded, Message: "abstract s does not forward \"x\""}
	err.Pos.Line, err.Pos.Column = 3, 7
	assert.Equal(t, "resolution error at line 3, column 7: abstract s does not forward \"x\"", err.Error())
	assert.Equal(t, "E302", err.Code())
}
