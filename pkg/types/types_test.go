package types_test

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/tasty/pkg/builtin"
	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/token"
	"github.com/leapstack-labs/tasty/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prim(t *testing.T, name string) *types.Type {
	t.Helper()
	p, ok := builtin.Default().Primitive(name)
	require.True(t, ok, name)
	return types.Primitive(p)
}

func TestEqual(t *testing.T) {
	intT := prim(t, "int")
	vec := types.Template(types.Unknown("std.vector"), intT)

	assert.True(t, types.Equal(intT, prim(t, "int")))
	assert.False(t, types.Equal(intT, prim(t, "long")))
	assert.True(t, types.Equal(types.Pointer(intT, 2), types.Pointer(types.Pointer(intT, 1), 1)))
	assert.True(t, types.Equal(vec, types.Template(types.Unknown("std.vector"), prim(t, "int"))))
	assert.False(t, types.Equal(types.Tuple(intT, intT), types.Tuple(intT)))
	assert.False(t, types.Equal(types.Smart(intT, true), types.Smart(intT, false)))
	assert.True(t, types.Equal(types.Void(), types.Void()))
}

func TestAssignable(t *testing.T) {
	base := types.Class("Base")
	derived := types.Class("Derived")
	derived.Bases = []*types.Type{base}
	other := types.Class("Other")

	tests := []struct {
		name string
		dst  *types.Type
		src  *types.Type
		ok   bool
	}{
		{"exact", prim(t, "int"), prim(t, "int"), true},
		{"widen char to int", prim(t, "int"), prim(t, "char"), true},
		{"widen bool to char", prim(t, "char"), prim(t, "bool"), true},
		{"widen int to double", prim(t, "double"), prim(t, "int"), true},
		{"narrow double to int", prim(t, "int"), prim(t, "double"), false},
		{"null to pointer", types.Pointer(base, 1), types.Null(), true},
		{"null to shared", types.Smart(base, false), types.Null(), true},
		{"null to int", prim(t, "int"), types.Null(), false},
		{"derived pointer to base pointer", types.Pointer(base, 1), types.Pointer(derived, 1), true},
		{"base pointer to derived pointer", types.Pointer(derived, 1), types.Pointer(base, 1), false},
		{"unrelated pointers", types.Pointer(other, 1), types.Pointer(derived, 1), false},
		{"unknown source", prim(t, "int"), types.Unknown("Qt.thing"), true},
		{"unknown destination", types.Unknown("T"), types.Tuple(prim(t, "int")), true},
		{"tuple to int", prim(t, "int"), types.Tuple(prim(t, "int")), false},
		{"through reference", prim(t, "long"), types.Reference(prim(t, "int"), true), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := types.Assignable(tt.dst, tt.src)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var terr *types.TypeError
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, types.IncompatibleAssignment, terr.Kind)
			assert.Equal(t, "E402", terr.Code())
		})
	}
}

func TestUnifyAndCommon(t *testing.T) {
	intT, longT, dbl := prim(t, "int"), prim(t, "long"), prim(t, "double")
	ptr := types.Pointer(types.Class("Node"), 1)

	u, ok := types.Unify(intT, dbl)
	require.True(t, ok)
	assert.Equal(t, "double", u.String())

	u, ok = types.Unify(types.Null(), ptr)
	require.True(t, ok)
	assert.Same(t, ptr, u)

	u, ok = types.Unify(intT, types.Unknown("x"))
	require.True(t, ok)
	assert.True(t, u.IsUnknown())

	_, ok = types.Unify(intT, types.Tuple(intT))
	assert.False(t, ok)

	c, ok := types.Common([]*types.Type{intT, longT, intT})
	require.True(t, ok)
	assert.Equal(t, "long", c.String())

	_, ok = types.Common([]*types.Type{intT, prim(t, "text")})
	assert.False(t, ok)

	c, ok = types.Common(nil)
	assert.True(t, ok)
	assert.Nil(t, c)
}

func TestCheckCast(t *testing.T) {
	base := types.Class("Base")
	tests := []struct {
		name string
		src  *types.Type
		dst  *types.Type
		kind core.CastKind
		ok   bool
	}{
		{"c cast double to int", prim(t, "double"), prim(t, "int"), core.CastC, true},
		{"tuple to int", types.Tuple(prim(t, "int")), prim(t, "int"), core.CastC, false},
		{"int to void", prim(t, "int"), types.Void(), core.CastStatic, false},
		{"dynamic from value", base, types.Pointer(base, 1), core.CastDynamic, false},
		{"dynamic from pointer", types.Pointer(base, 1), types.Pointer(types.Class("D"), 1), core.CastDynamic, true},
		{"static pointer to float", types.Pointer(base, 1), prim(t, "float"), core.CastStatic, false},
		{"static pointer to long", types.Pointer(base, 1), prim(t, "long"), core.CastStatic, true},
		{"static between pointers", types.Pointer(base, 1), types.Pointer(types.Class("D"), 1), core.CastStatic, true},
		{"reinterpret anything", types.Pointer(base, 1), prim(t, "double"), core.CastReinterpret, true},
		{"unknown passes", types.Unknown("q"), types.Void(), core.CastStatic, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := types.CheckCast(tt.src, tt.dst, tt.kind)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var terr *types.TypeError
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, types.InvalidCast, terr.Kind)
		})
	}
}

func TestCPP(t *testing.T) {
	intT := prim(t, "int")
	tests := []struct {
		typ  *types.Type
		want string
	}{
		{intT, "int"},
		{prim(t, "text"), "const char*"},
		{types.Tuple(intT, intT, intT), "std::tuple<int, int, int>"},
		{types.Pointer(types.Class("Base"), 2), "Base**"},
		{types.Reference(types.Class("Point"), true), "const Point&"},
		{types.Smart(types.Unknown("std.list"), false), "std::shared_ptr<std::list>"},
		{types.Smart(types.Class("W"), true), "std::unique_ptr<W>"},
		{types.Template(types.Unknown("std.map"), intT, types.Template(types.Unknown("std.vector"), intT)), "std::map<int, std::vector<int>>"},
		{types.Func([]*types.Type{intT}, prim(t, "bool")), "std::function<bool(int)>"},
		{types.Void(), "void"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.CPP())
		})
	}
}

func TestPointerDepth(t *testing.T) {
	w := types.Class("W")
	assert.Equal(t, 0, w.PointerDepth())
	assert.Equal(t, 0, types.Reference(w, false).PointerDepth())
	assert.Equal(t, 1, types.Pointer(w, 1).PointerDepth())
	assert.Equal(t, 3, types.Pointer(w, 3).PointerDepth())
	assert.Equal(t, 1, types.Smart(w, false).PointerDepth())
	assert.Same(t, w, types.Pointer(w, 3).Pointee())
}

func TestOfLiteral(t *testing.T) {
	table := builtin.Default()
	tests := []struct {
		lit  core.Literal
		want string
	}{
		{core.Literal{Kind: core.LiteralInt, Value: "42"}, "int"},
		{core.Literal{Kind: core.LiteralInt, Value: "-7"}, "int"},
		{core.Literal{Kind: core.LiteralInt, Value: "10u"}, "uint"},
		{core.Literal{Kind: core.LiteralInt, Value: "10ul"}, "ulong"},
		{core.Literal{Kind: core.LiteralInt, Value: "0xffL"}, "long"},
		{core.Literal{Kind: core.LiteralFloat, Value: "3.5"}, "double"},
		{core.Literal{Kind: core.LiteralFloat, Value: "3.5f"}, "float"},
		{core.Literal{Kind: core.LiteralString, Value: `"hi"`}, "text"},
		{core.Literal{Kind: core.LiteralChar, Value: "'a'"}, "char"},
		{core.Literal{Kind: core.LiteralBool, Value: "true"}, "bool"},
		{core.Literal{Kind: core.LiteralNull, Value: "null"}, "null"},
	}
	for _, tt := range tests {
		t.Run(tt.lit.Value, func(t *testing.T) {
			assert.Equal(t, tt.want, types.OfLiteral(&tt.lit, table).String())
		})
	}
}

func TestTypeErrorFormat(t *testing.T) {
	err := (&types.TypeError{Kind: types.InvalidRange, Message: types.ErrRange}).At(token.Position{Line: 3, Column: 9})
	assert.Equal(t, "type error at line 3, column 9: "+types.ErrRange, err.Error())
	assert.Equal(t, "E404", err.Code())

	err = &types.TypeError{Kind: types.InvalidTupleIndex}
	assert.Equal(t, "E405", err.Code())
	assert.Equal(t, "InvalidTupleIndex", err.Kind.String())
}
