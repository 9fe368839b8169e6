package codegen

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/resolve"
	"github.com/leapstack-labs/tasty/pkg/token"
)

// ---------- Expressions ----------

func (g *generator) expr(e core.Expr) string {
	switch e := e.(type) {
	case *core.Literal:
		if e.Kind == core.LiteralNull {
			return "nullptr"
		}
		return e.Value
	case *core.Ident:
		return e.Name
	case *core.SelfExpr:
		if g.info.This[e] {
			return "this"
		}
		return "self"
	case *core.ParenExpr:
		return "(" + g.expr(e.X) + ")"
	case *core.BinaryExpr:
		return g.expr(e.Left) + " " + e.Op.String() + " " + g.expr(e.Right)
	case *core.UnaryExpr:
		if e.Postfix {
			return g.expr(e.X) + e.Op.String()
		}
		return e.Op.String() + g.expr(e.X)
	case *core.CallExpr:
		return g.call(e)
	case *core.MemberExpr:
		return g.member(e)
	case *core.IndexExpr:
		return g.expr(e.X) + "[" + g.expr(e.Index) + "]"
	case *core.NewExpr:
		return "new " + g.typeName(g.info.TypeOfExpr(e.Type)) + "(" + g.exprList(e.Args) + ")"
	case *core.DeleteExpr:
		return "delete " + g.expr(e.X)
	case *core.CastExpr:
		return g.cast(e)
	case *core.TupleLit:
		return "std::make_tuple(" + g.exprList(e.Elems) + ")"
	case *core.TupleIndexExpr:
		return "std::get<" + strconv.Itoa(e.Index) + ">(" + g.expr(e.X) + ")"
	case *core.TernaryExpr:
		return g.expr(e.Cond) + " ? " + g.expr(e.Then) + " : " + g.expr(e.Else)
	case *core.RangeExpr:
		g.fail(MisplacedRange, e, ErrMisplacedRange)
	}
	return ""
}

func (g *generator) exprList(es []core.Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = g.expr(e)
	}
	return strings.Join(parts, ", ")
}

// member renders a.b in the form the resolver chose.
func (g *generator) member(m *core.MemberExpr) string {
	acc, ok := g.info.Access[m]
	if !ok {
		switch m.Op {
		case token.ARROW:
			acc = resolve.Access{Kind: resolve.AccessArrow, Depth: 1}
		case token.SCOPE:
			acc = resolve.Access{Kind: resolve.AccessScope}
		}
	}
	return acc.Render(g.expr(m.X), m.Name)
}

// call renders a call; method calls bound to an extension become
// Owner_name(receiver, args...).
func (g *generator) call(c *core.CallExpr) string {
	ext, ok := g.info.ExtCalls[c]
	if !ok {
		return g.expr(c.Fn) + "(" + g.exprList(c.Args) + ")"
	}
	recv := g.expr(ext.Receiver)
	if ext.Depth > 0 {
		if !simple(ext.Receiver) {
			recv = "(" + recv + ")"
		}
		recv = strings.Repeat("*", ext.Depth) + recv
	}
	args := recv
	if len(c.Args) > 0 {
		args += ", " + g.exprList(c.Args)
	}
	return ext.Func.CName + "(" + args + ")"
}

func simple(e core.Expr) bool {
	switch e.(type) {
	case *core.Ident, *core.SelfExpr, *core.ParenExpr:
		return true
	}
	return false
}

func (g *generator) cast(c *core.CastExpr) string {
	t := g.typeName(g.info.TypeOfExpr(c.Type))
	x := g.expr(c.X)
	switch c.Kind {
	case core.CastStatic:
		return "static_cast<" + t + ">(" + x + ")"
	case core.CastDynamic:
		return "dynamic_cast<" + t + ">(" + x + ")"
	case core.CastReinterpret:
		return "reinterpret_cast<" + t + ">(" + x + ")"
	}
	return "(" + t + ")(" + x + ")"
}
