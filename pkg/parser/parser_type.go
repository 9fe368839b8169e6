package parser

import (
	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/token"
)

// Type grammar:
//
//	type      → type_name {"*"} | "(" type {"," type} ")" {"*"} | "fn" "(" [type {"," type}] ")" ["->" type]
//	type_name → name {"." name} ["<" type_arg {"," type_arg} ">"]
//	type_arg  → type | NUMBER

// parseType parses a type with trailing pointer stars.
func (p *Parser) parseType() *core.TypeExpr {
	start := p.token.Pos
	var t *core.TypeExpr
	switch p.token.Type {
	case token.LPAREN:
		open := p.token
		p.nextToken()
		t = &core.TypeExpr{IsTuple: true}
		for !p.check(token.RPAREN) {
			if p.check(token.EOF) {
				p.unclosed(open)
			}
			t.Tuple = append(t.Tuple, p.parseType())
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expectClose(token.RPAREN, open)
	case token.FN:
		p.nextToken()
		open := p.expect(token.LPAREN)
		t = &core.TypeExpr{IsFunc: true}
		for !p.check(token.RPAREN) {
			if p.check(token.EOF) {
				p.unclosed(open)
			}
			t.Params = append(t.Params, p.parseType())
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expectClose(token.RPAREN, open)
		if p.match(token.ARROW) {
			t.Result = p.parseType()
		}
	default:
		t = p.parseTypeName()
	}

	for p.match(token.STAR) {
		t.Pointer++
	}
	t.NodeInfo = p.info(start)
	return t
}

// parseTypeName parses a dotted name with optional template arguments.
// A closing ">>" is split so nested arguments close one level at a time.
func (p *Parser) parseTypeName() *core.TypeExpr {
	start := p.token.Pos
	t := &core.TypeExpr{Name: p.parseDottedName()}
	if p.check(token.LT) {
		open := p.token
		p.nextToken()
		for {
			if p.check(token.EOF) {
				p.unclosed(open)
			}
			if p.check(token.NUMBER) {
				arg := &core.TypeExpr{Name: p.token.Literal}
				argStart := p.token.Pos
				p.nextToken()
				arg.NodeInfo = p.info(argStart)
				t.Args = append(t.Args, arg)
			} else {
				t.Args = append(t.Args, p.parseType())
			}
			if !p.match(token.COMMA) {
				break
			}
		}
		p.closeTemplate()
	}
	t.NodeInfo = p.info(start)
	return t
}

// closeTemplate consumes one '>' of the current token.
func (p *Parser) closeTemplate() {
	switch p.token.Type {
	case token.GT:
		p.nextToken()
	case token.SHR:
		p.lastEnd = token.Position{Line: p.token.Pos.Line, Column: p.token.Pos.Column + 1, Offset: p.token.Pos.Offset + 1}
		p.token = token.Token{Type: token.GT, Literal: ">", Pos: p.lastEnd}
	case token.GE:
		p.lastEnd = token.Position{Line: p.token.Pos.Line, Column: p.token.Pos.Column + 1, Offset: p.token.Pos.Offset + 1}
		p.token = token.Token{Type: token.ASSIGN, Literal: "=", Pos: p.lastEnd}
	default:
		p.errorExpected(`">"`)
	}
}
