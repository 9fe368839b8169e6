package codegen

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/types"
)

// ---------- Statements ----------

// heldResult names the temporary a return value is computed into when the
// deletes before the return would free something it reads.
const heldResult = "tasty_result"

// block writes b to g.out. Raw pointers the block still owns are deleted
// on the line of its closing brace.
func (g *generator) block(b *core.BlockStmt) {
	p := g.out
	p.Write("{")
	p.Indent()
	for _, s := range b.Stmts {
		p.Align(s.Line())
		g.stmt(s)
	}
	end := b.EndLine()
	p.Align(end)
	for _, v := range g.info.Owned[b] {
		p.Write(deleteOf(v))
		p.Align(end)
	}
	p.Dedent()
	p.Write("}")
}

func deleteOf(v *core.VarDecl) string {
	return "delete " + strings.Repeat("*", v.Storage.Level-1) + v.Name + ";"
}

// releases renders the deletes s owes before leaving its blocks, each
// followed by a space.
func (g *generator) releases(s core.Stmt) string {
	ex := g.info.Exits[s]
	if ex == nil {
		return ""
	}
	var b strings.Builder
	for _, v := range ex.Deletes {
		b.WriteString(deleteOf(v) + " ")
	}
	return b.String()
}

func (g *generator) returnStmt(s *core.ReturnStmt) {
	p := g.out
	switch {
	case s.Value == nil:
		p.Write(g.releases(s) + "return;")
	case g.info.Effects[s]:
		p.Write(g.expr(s.Value) + ";")
	case g.info.Exits[s] != nil && g.info.Exits[s].Hold:
		p.Write("{ auto " + heldResult + " = " + g.expr(s.Value) + "; " +
			g.releases(s) + "return " + heldResult + "; }")
	default:
		p.Write(g.releases(s) + "return " + g.expr(s.Value) + ";")
	}
}

func (g *generator) stmt(s core.Stmt) {
	p := g.out
	switch s := s.(type) {
	case *core.BlockStmt:
		g.block(s)
	case *core.ExprStmt:
		p.Write(g.expr(s.X) + ";")
	case *core.DeclStmt:
		p.Write(g.variable(s.Decl, s.Decl.Name, s.Decl.Modifiers, true) + ";")
	case *core.IfStmt:
		g.ifStmt(s)
	case *core.WhileStmt:
		cond := "true"
		if !s.Infinite {
			cond = g.cond(s.Cond, s.Negate)
		}
		p.Write("while (" + cond + ") ")
		g.block(s.Body)
	case *core.RangeLoopStmt:
		g.rangeLoop(s)
	case *core.ForInStmt:
		g.forIn(s)
	case *core.ReturnStmt:
		g.returnStmt(s)
	case *core.BreakStmt:
		p.Write(g.releases(s) + "break;")
	case *core.ContinueStmt:
		p.Write(g.releases(s) + "continue;")
	case *core.InjectStmt:
		g.inject(p, s.Line(), s.Text)
	}
}

func (g *generator) ifStmt(s *core.IfStmt) {
	g.out.Write("if (" + g.cond(s.Cond, s.Negate) + ") ")
	g.block(s.Then)
	switch e := s.Else.(type) {
	case *core.IfStmt:
		g.out.Write(" else ")
		g.ifStmt(e)
	case *core.BlockStmt:
		g.out.Write(" else ")
		g.block(e)
	}
}

// cond renders a condition without redundant outer parentheses, negated
// for unless and until.
func (g *generator) cond(e core.Expr, negate bool) string {
	for {
		p, ok := e.(*core.ParenExpr)
		if !ok {
			break
		}
		e = p.X
	}
	s := g.expr(e)
	if negate {
		return "!(" + s + ")"
	}
	return s
}

// rangeLoop writes inc/dec/incto/decto as a counting for loop.
func (g *generator) rangeLoop(s *core.RangeLoopStmt) {
	typ := "int"
	if sym := g.info.LoopVars[s]; sym != nil {
		typ = g.typeName(sym.Type.Deref())
	}
	cmp, step := "<", s.Var+"++"
	if !s.Ascending() {
		cmp, step = ">", s.Var+"--"
	}
	if s.Inclusive() {
		cmp += "="
	}
	if s.Step != nil {
		op := " += "
		if !s.Ascending() {
			op = " -= "
		}
		step = s.Var + op + g.expr(s.Step)
	}
	g.out.Write(fmt.Sprintf("for (%s %s = %s; %s %s %s; %s) ",
		typ, s.Var, g.expr(s.From), s.Var, cmp, g.expr(s.To), step))
	g.block(s.Body)
}

// forIn writes a counting loop over a range, or a range-based for.
func (g *generator) forIn(s *core.ForInStmt) {
	var elem *types.Type
	if sym := g.info.LoopVars[s]; sym != nil {
		elem = sym.Type
	}
	if rng, ok := s.Iter.(*core.RangeExpr); ok {
		typ := "int"
		if elem != nil {
			typ = g.typeName(elem.Deref())
		}
		g.out.Write(fmt.Sprintf("for (%s %s = %s; %s < %s; %s++) ",
			typ, s.Var, g.expr(rng.From), s.Var, g.expr(rng.To), s.Var))
		g.block(s.Body)
		return
	}
	g.out.Write("for (" + g.loopVar(s, elem) + " : " + g.expr(s.Iter) + ") ")
	g.block(s.Body)
}

func (g *generator) loopVar(s *core.ForInStmt, t *types.Type) string {
	if t != nil && !t.Anonymous() {
		return t.CPP() + " " + s.Var
	}
	switch {
	case s.Storage.Kind == core.StorageReference && s.Storage.Const:
		return "const auto& " + s.Var
	case s.Storage.Kind == core.StorageReference:
		return "auto& " + s.Var
	}
	return "auto " + s.Var
}
