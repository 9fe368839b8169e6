package transpiler_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tasty/internal/testutil"
	"github.com/leapstack-labs/tasty/pkg/attribute"
	"github.com/leapstack-labs/tasty/pkg/parser"
	"github.com/leapstack-labs/tasty/pkg/resolve"
	"github.com/leapstack-labs/tasty/pkg/token"
	"github.com/leapstack-labs/tasty/pkg/transpiler"
	"github.com/leapstack-labs/tasty/pkg/types"
)

func transpile(t *testing.T, src string) *transpiler.Result {
	t.Helper()
	res, err := transpiler.Transpile("main.tasty", src, transpiler.Options{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	return res
}

func TestTranspile_HelloWorld(t *testing.T) {
	res := transpile(t, "fn main() {\n    std.cout << \"hi\";\n}\n")

	assert.Equal(t, "main", res.Name)
	assert.True(t, strings.HasPrefix(res.Header, "#ifndef MAIN_TASTYFILE\n#define MAIN_TASTYFILE\n"))
	assert.True(t, strings.HasSuffix(res.Header, "#endif\n"))
	assert.Contains(t, res.Source, "int main() {")
	assert.Contains(t, res.Source, `std::cout << "hi";`)
	assert.Contains(t, res.Source, "#include <iostream>")
}

func TestTranspile_StorageForms(t *testing.T) {
	tests := []struct {
		decl string
		want string
	}{
		{"copy v: Widget = w;", "Widget v = w;"},
		{"ref v: Widget = w;", "Widget& v = w;"},
		{"borrow v: Widget = w;", "const Widget& v = w;"},
		{"move v: Widget = w;", "Widget v = std::move(w);"},
		{"ptr v: Widget = w;", "Widget* v = w;"},
		{"ptr2 v: Widget = w;", "std::shared_ptr<Widget*> v = w;"},
		{"ptr3 v: Widget = w;", "std::shared_ptr<std::shared_ptr<Widget*>> v = w;"},
		{"autoptr v: Widget = w;", "std::shared_ptr<Widget> v = w;"},
		{"uniqueptr v: Widget = w;", "std::unique_ptr<Widget> v = w;"},
	}

	forms := make(map[string]bool)
	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			res := transpile(t, "\n\n\nfn f() {\n    "+tt.decl+"\n}")
			assert.Contains(t, res.Source, "\t"+tt.want+"\n")
		})
		forms[tt.want] = true
	}
	assert.Len(t, forms, len(tests), "every storage style has its own form")

	let := transpile(t, "\n\n\nfn f() {\n    let v: Widget = w;\n}")
	assert.Contains(t, let.Source, "\tWidget v = w;\n")
}

func TestTranspile_LinePreservation(t *testing.T) {
	src := `include iostream;



class Point {

    copy x: int = 0;
    copy y: int = 0;

    fn sum() -> int {
        return x + y;
    }
}

fn main() {
    autoptr p = new Point();

    if p.sum() > 0 {
        std.cout << "positive";
    }
}`
	res := transpile(t, src)
	srcLines := strings.Split(src, "\n")
	out := strings.Split(strings.TrimSuffix(res.Source, "\n"), "\n")
	require.Len(t, out, len(srcLines))

	assert.Equal(t, "int Point::sum() {", out[9])
	assert.Equal(t, "\treturn x + y;", out[10])
	assert.Equal(t, "int main() {", out[14])
	assert.Equal(t, "\tstd::shared_ptr<Point> p = std::make_shared<Point>();", out[15])
	assert.Equal(t, "\tif (p->sum() > 0) {", out[17])
	assert.Equal(t, "\t\tstd::cout << \"positive\";", out[18])

	hdr := strings.Split(strings.TrimSuffix(res.Header, "\n"), "\n")
	require.Len(t, hdr, 14)
	assert.Equal(t, "#include <iostream>", hdr[2])
	assert.Equal(t, "class Point {", hdr[4])
	assert.Equal(t, "public:", hdr[5])
	assert.Equal(t, "\tint x = 0;", hdr[6])
	assert.Equal(t, "\tint sum();", hdr[9])
	assert.Equal(t, "};", hdr[12])
}

func TestTranspile_Attribute(t *testing.T) {
	src := `attribute Property(propertyType, propertyName) {
    @DeclareAppend("Q_PROPERTY([propertyType] [propertyName] READ get_[propertyName] WRITE set_[propertyName])");
}

@Property(int, count)
class MyLineEdit extends QLineEdit {
    copy _count: int = 0;
}`
	res := transpile(t, src)
	assert.Contains(t, res.Header, "class MyLineEdit : public QLineEdit {\n\tQ_PROPERTY(int count READ get_count WRITE set_count)\npublic:")
}

func TestTranspile_Tuples(t *testing.T) {
	res := transpile(t, "fn main() {\n    copy t = (100, 200, 300);\n    std.cout << t.0;\n}")
	assert.Contains(t, res.Source, "std::tuple<int, int, int> t = std::make_tuple(100, 200, 300);")
	assert.Contains(t, res.Source, "std::cout << std::get<0>(t);")
	assert.Contains(t, res.Source, "#include <tuple>")
}

func TestTranspile_UnknownPassThrough(t *testing.T) {
	res := transpile(t, `fn main() {
    copy w = makeWidget(1, 2);
    w.resize(10);
    QApplication.exec();
    gfx.draw(w);
}`)
	assert.Contains(t, res.Source, "auto w = makeWidget(1, 2);")
	assert.Contains(t, res.Source, "w.resize(10);")
	assert.Contains(t, res.Source, "QApplication.exec();")
	assert.Contains(t, res.Source, "gfx.draw(w);")
}

func TestTranspile_Idempotent(t *testing.T) {
	src := `abstract str becomes std.string { fn size() -> size_t; fn first() -> char { return self.at(0); } }
class A { copy n: int = 0; fn get() const -> int { return n; } }
fn main() {
    ptr2 a = new A();
    for x in 0..4 { std.cout << a.get() + x; }
}`
	first := transpile(t, src)
	for i := 0; i < 5; i++ {
		again := transpile(t, src)
		require.Equal(t, first.Header, again.Header)
		require.Equal(t, first.Source, again.Source)
	}
}

func TestTranspile_Options(t *testing.T) {
	res, err := transpiler.Transpile("lib/widgets.tasty", "fn draw();", transpiler.Options{
		HeaderExt:  ".h",
		PragmaOnce: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "lib/widgets", res.Name)
	assert.Equal(t, "#pragma once\nvoid draw();\n", res.Header)
	assert.True(t, strings.HasPrefix(res.Source, "#include \"widgets.h\"\n"))
}

func TestTranspile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		target func(err error) bool
		code   string
		line   int
	}{
		{
			name: "parse",
			src:  "fn main( {\n}",
			target: func(err error) bool {
				var pe *parser.ParseError
				return errors.As(err, &pe)
			},
			code: "E2",
			line: 1,
		},
		{
			name: "resolution",
			src:  "copy a: int = 1;\ncopy a: int = 2;",
			target: func(err error) bool {
				var re *resolve.ResolutionError
				return errors.As(err, &re)
			},
			code: "E301",
			line: 2,
		},
		{
			name: "type",
			src:  "fn main() {\n    copy x: int = (1, 2);\n}",
			target: func(err error) bool {
				var te *types.TypeError
				return errors.As(err, &te)
			},
			code: "E4",
			line: 2,
		},
		{
			name: "attribute",
			src:  "@Missing\nfn main() { }",
			target: func(err error) bool {
				var ae *attribute.Error
				return errors.As(err, &ae)
			},
			code: "E5",
			line: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transpiler.Transpile("main.tasty", tt.src, transpiler.Options{})
			require.Error(t, err)
			assert.True(t, tt.target(err), "unexpected error type %T: %v", errors.Unwrap(err), err)
			assert.True(t, strings.HasPrefix(err.Error(), "main.tasty: "))

			var coded interface {
				Code() string
			}
			require.True(t, errors.As(err, &coded))
			assert.True(t, strings.HasPrefix(coded.Code(), tt.code), coded.Code())

			var positioned interface {
				Position() token.Position
			}
			require.True(t, errors.As(err, &positioned))
			assert.Equal(t, tt.line, positioned.Position().Line)
		})
	}
}

func TestImports(t *testing.T) {
	unit, err := transpiler.Analyze("app.tasty", "import util.math;\nderive util.impl;\ninclude iostream;\nimport util.math;", transpiler.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"util.math", "util.impl"}, transpiler.Imports(unit.File))
}

func TestUnitName(t *testing.T) {
	assert.Equal(t, "src/main", transpiler.UnitName("src/main.tasty"))
	assert.Equal(t, "notes.txt", transpiler.UnitName("notes.txt"))
}
