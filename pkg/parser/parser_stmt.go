package parser

import (
	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/token"
)

// Statement grammar:
//
//	block      → "{" { statement } "}"
//	if         → ("if" | "unless") expr block ["else" (if | block)]
//	while      → ("while" | "until") expr block | "loop" block
//	range_loop → ("inc" | "dec" | "incto" | "decto") name "from" expr "to" expr ["by" expr] block
//	for_in     → "for" [style] name "in" expr block
//	return     → "return" [expr] ";"
//	body       → "{" { statement } [expr] "}"

// parseBlock parses a braced statement list.
func (p *Parser) parseBlock() *core.BlockStmt {
	return p.parseBody(false)
}

// parseBody parses a braced statement list. With tail set, an expression
// directly followed by the closing brace becomes an implicit return.
func (p *Parser) parseBody(tail bool) *core.BlockStmt {
	start := p.token.Pos
	open := p.expect(token.LBRACE)
	b := &core.BlockStmt{}
	for !p.check(token.RBRACE) {
		if p.check(token.EOF) {
			p.unclosed(open)
		}
		b.Stmts = append(b.Stmts, p.parseStmtTail(tail))
	}
	p.nextToken()
	b.NodeInfo = p.info(start)
	return b
}

// parseStmt parses one statement.
func (p *Parser) parseStmt() core.Stmt {
	return p.parseStmtTail(false)
}

func (p *Parser) parseStmtTail(tail bool) core.Stmt {
	start := p.token.Pos
	switch p.token.Type {
	case token.LBRACE:
		return p.parseBlock()
	case token.IF, token.UNLESS:
		return p.parseIf()
	case token.WHILE, token.UNTIL, token.LOOP:
		return p.parseWhile()
	case token.INC, token.DEC, token.INCTO, token.DECTO:
		return p.parseRangeLoop()
	case token.FOR:
		return p.parseForIn()
	case token.RETURN:
		p.nextToken()
		s := &core.ReturnStmt{}
		if !p.check(token.SEMICOLON) {
			s.Value = p.parseExpression()
		}
		p.expect(token.SEMICOLON)
		s.NodeInfo = p.info(start)
		return s
	case token.BREAK:
		p.nextToken()
		p.expect(token.SEMICOLON)
		return &core.BreakStmt{NodeInfo: p.info(start)}
	case token.CONTINUE:
		p.nextToken()
		p.expect(token.SEMICOLON)
		return &core.ContinueStmt{NodeInfo: p.info(start)}
	case token.INJECT:
		p.nextToken()
		raw := p.expect(token.RAW)
		p.match(token.SEMICOLON)
		return &core.InjectStmt{NodeInfo: p.info(start), Text: raw.Literal}
	}

	if token.IsStorage(p.token.Type) || token.IsModifier(p.token.Type) {
		mods := p.parseModifiers()
		if !token.IsStorage(p.token.Type) {
			p.errorExpected("storage keyword")
		}
		d := p.parseVarDecl(true)
		d.Modifiers = mods
		d.Span.Start = start
		return &core.DeclStmt{NodeInfo: p.info(start), Decl: d}
	}

	x := p.parseExpression()
	if tail && p.check(token.RBRACE) {
		return &core.ReturnStmt{NodeInfo: p.info(start), Value: x, Implicit: true}
	}
	p.expect(token.SEMICOLON)
	return &core.ExprStmt{NodeInfo: p.info(start), X: x}
}

// parseIf parses if/unless with an optional else chain.
func (p *Parser) parseIf() *core.IfStmt {
	start := p.token.Pos
	s := &core.IfStmt{Negate: p.check(token.UNLESS)}
	p.nextToken()
	s.Cond = p.parseExpression()
	s.Then = p.parseBlock()
	if p.match(token.ELSE) {
		if p.check(token.IF) || p.check(token.UNLESS) {
			s.Else = p.parseIf()
		} else {
			s.Else = p.parseBlock()
		}
	}
	s.NodeInfo = p.info(start)
	return s
}

// parseWhile parses while, until and loop.
func (p *Parser) parseWhile() *core.WhileStmt {
	start := p.token.Pos
	s := &core.WhileStmt{
		Negate:   p.check(token.UNTIL),
		Infinite: p.check(token.LOOP),
	}
	p.nextToken()
	if !s.Infinite {
		s.Cond = p.parseExpression()
	}
	s.Body = p.parseBlock()
	s.NodeInfo = p.info(start)
	return s
}

// parseRangeLoop parses inc/dec/incto/decto i from a to b [by step].
func (p *Parser) parseRangeLoop() *core.RangeLoopStmt {
	start := p.token.Pos
	s := &core.RangeLoopStmt{Kind: p.token.Type}
	p.nextToken()
	s.Var = p.expectIdent()
	p.expectSoft("from")
	s.From = p.parseExpression()
	p.expectSoft("to")
	s.To = p.parseExpression()
	if p.matchSoft("by") {
		s.Step = p.parseExpression()
	}
	s.Body = p.parseBlock()
	s.NodeInfo = p.info(start)
	return s
}

// parseForIn parses for [style] x in expr. The iterated expression is the
// only place a range is accepted by the type checker.
func (p *Parser) parseForIn() *core.ForInStmt {
	start := p.token.Pos
	p.expect(token.FOR)
	s := &core.ForInStmt{}
	if token.IsStorage(p.token.Type) {
		s.Storage = p.parseStorage()
	}
	s.Var = p.expectIdent()
	p.expectSoft("in")
	s.Iter = p.parseExpression()
	s.Body = p.parseBlock()
	s.NodeInfo = p.info(start)
	return s
}
