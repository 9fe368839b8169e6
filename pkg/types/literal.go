package types

import (
	"strings"

	"github.com/leapstack-labs/tasty/pkg/builtin"
	"github.com/leapstack-labs/tasty/pkg/core"
)

// OfLiteral returns the type of a literal. Integer suffixes select the
// unsigned and long variants; an f suffix selects float.
func OfLiteral(lit *core.Literal, table *builtin.Table) *Type {
	prim := func(name string) *Type {
		p, ok := table.Primitive(name)
		if !ok {
			return Unknown(name)
		}
		return Primitive(p)
	}

	switch lit.Kind {
	case core.LiteralString:
		return prim("text")
	case core.LiteralChar:
		return prim("char")
	case core.LiteralBool:
		return prim("bool")
	case core.LiteralNull:
		return Null()
	case core.LiteralFloat:
		if strings.HasSuffix(lit.Value, "f") || strings.HasSuffix(lit.Value, "F") {
			return prim("float")
		}
		return prim("double")
	}

	suffix := strings.ToLower(strings.TrimLeft(lit.Value, "-0123456789abcdefABCDEFxXbB"))
	switch {
	case strings.Contains(suffix, "u") && strings.Contains(suffix, "l"):
		return prim("ulong")
	case strings.Contains(suffix, "u"):
		return prim("uint")
	case strings.Contains(suffix, "l"):
		return prim("long")
	}
	return prim("int")
}
