package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/token"
)

// Expression parsing uses precedence climbing. Binary binding powers come
// from the built-in operator table (see pkg/builtin/builtins.yaml), lowest
// to highest:
//
//	..  =  ?:  ||  &&  |  ^  &  == !=  < > <= >=  << >>  + -  * / %
//
// Unary prefix operators bind tighter than any binary operator, and postfix
// forms (call, index, member, ++/--, as) bind tightest. Range and
// assignment are right-associative.

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() core.Expr {
	return p.parseExpressionWithPrecedence(1)
}

// parseExpressionWithPrecedence parses binary operators whose binding power
// is at least minPrecedence.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) core.Expr {
	start := p.token.Pos
	left := p.parsePrefixExpr()

	for {
		op, ok := p.infixOperator()
		if !ok || op.Precedence < minPrecedence {
			break
		}
		opTok := p.token
		p.nextToken()

		next := op.Precedence + 1
		if op.RightAssoc {
			next = op.Precedence
		}

		switch opTok.Type {
		case token.QUESTION:
			then := p.parseExpression()
			p.expect(token.COLON)
			els := p.parseExpressionWithPrecedence(next)
			left = &core.TernaryExpr{NodeInfo: p.info(start), Cond: left, Then: then, Else: els}
		case token.RANGE:
			right := p.parseExpressionWithPrecedence(next)
			left = &core.RangeExpr{NodeInfo: p.info(start), From: left, To: right}
		default:
			right := p.parseExpressionWithPrecedence(next)
			left = &core.BinaryExpr{NodeInfo: p.info(start), Op: opTok.Type, Left: left, Right: right}
		}
	}
	return left
}

// infixOperator returns the binding power of the current token as a binary
// operator.
func (p *Parser) infixOperator() (opInfo, bool) {
	if !token.IsOperator(p.token.Type) {
		return opInfo{}, false
	}
	op, ok := p.table.BinaryOp(p.token.Type.String())
	if !ok {
		return opInfo{}, false
	}
	return opInfo{Precedence: op.Precedence, RightAssoc: op.RightAssoc}, true
}

type opInfo struct {
	Precedence int
	RightAssoc bool
}

// parsePrefixExpr parses prefix operators and the postfix chain of a primary.
func (p *Parser) parsePrefixExpr() core.Expr {
	start := p.token.Pos
	switch p.token.Type {
	case token.NOT, token.MINUS, token.PLUS, token.TILDE, token.STAR, token.AMP,
		token.INCREMENT, token.DECREMENT:
		op := p.token.Type
		p.nextToken()
		x := p.parsePrefixExpr()
		return &core.UnaryExpr{NodeInfo: p.info(start), Op: op, X: x}

	case token.DELETE:
		p.nextToken()
		x := p.parsePrefixExpr()
		return &core.DeleteExpr{NodeInfo: p.info(start), X: x}

	default:
		return p.parsePostfix(p.parsePrimary())
	}
}

// parsePostfix applies calls, indexing, member access, postfix ++/-- and
// casts to x.
func (p *Parser) parsePostfix(x core.Expr) core.Expr {
	start := x.Pos()
	for {
		switch p.token.Type {
		case token.LPAREN:
			args := p.parseArgs()
			x = &core.CallExpr{NodeInfo: p.info(start), Fn: x, Args: args}

		case token.LBRACKET:
			open := p.token
			p.nextToken()
			idx := p.parseExpression()
			p.expectClose(token.RBRACKET, open)
			x = &core.IndexExpr{NodeInfo: p.info(start), X: x, Index: idx}

		case token.DOT:
			p.nextToken()
			if p.check(token.NUMBER) {
				n, err := strconv.Atoi(p.token.Literal)
				if err != nil || n < 0 {
					p.fail(&ParseError{
						Kind:     UnexpectedToken,
						Pos:      p.token.Pos,
						Expected: "tuple index",
						Found:    describe(p.token),
						Message:  fmt.Sprintf(ErrTupleIndex, p.token.Literal),
					})
				}
				p.nextToken()
				x = &core.TupleIndexExpr{NodeInfo: p.info(start), X: x, Index: n}
				continue
			}
			x = &core.MemberExpr{NodeInfo: p.info(start), X: x, Name: p.expectMemberName(), Op: token.DOT}

		case token.ARROW, token.SCOPE:
			op := p.token.Type
			p.nextToken()
			x = &core.MemberExpr{NodeInfo: p.info(start), X: x, Name: p.expectMemberName(), Op: op}

		case token.INCREMENT, token.DECREMENT:
			op := p.token.Type
			p.nextToken()
			x = &core.UnaryExpr{NodeInfo: p.info(start), Op: op, X: x, Postfix: true}

		case token.AS:
			p.nextToken()
			kind := core.CastC
			switch {
			case p.match(token.STATIC):
				kind = core.CastStatic
			case p.matchSoft("dynamic"):
				kind = core.CastDynamic
			case p.matchSoft("reinterpret"):
				kind = core.CastReinterpret
			}
			typ := p.parseType()
			x = &core.CastExpr{NodeInfo: p.info(start), X: x, Kind: kind, Type: typ}

		default:
			return x
		}
	}
}

// expectMemberName accepts identifiers and the keywords that are valid
// member names in native libraries (delete, new).
func (p *Parser) expectMemberName() string {
	if token.IsKeyword(p.token.Type) {
		name := p.token.Literal
		p.nextToken()
		return name
	}
	return p.expectIdent()
}

// parseArgs parses a parenthesized argument list.
func (p *Parser) parseArgs() []core.Expr {
	open := p.expect(token.LPAREN)
	var args []core.Expr
	for !p.check(token.RPAREN) {
		if p.check(token.EOF) {
			p.unclosed(open)
		}
		args = append(args, p.parseExpression())
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expectClose(token.RPAREN, open)
	return args
}

// parsePrimary parses literals, names, self, new, parenthesized
// expressions and tuple literals.
func (p *Parser) parsePrimary() core.Expr {
	start := p.token.Pos
	tok := p.token
	switch tok.Type {
	case token.NUMBER:
		p.nextToken()
		kind := core.LiteralInt
		if isFloatLiteral(tok.Literal) {
			kind = core.LiteralFloat
		}
		return &core.Literal{NodeInfo: p.info(start), Kind: kind, Value: tok.Literal}
	case token.STRING:
		p.nextToken()
		return &core.Literal{NodeInfo: p.info(start), Kind: core.LiteralString, Value: tok.Literal}
	case token.CHAR:
		p.nextToken()
		return &core.Literal{NodeInfo: p.info(start), Kind: core.LiteralChar, Value: tok.Literal}
	case token.TRUE, token.FALSE:
		p.nextToken()
		return &core.Literal{NodeInfo: p.info(start), Kind: core.LiteralBool, Value: tok.Literal}
	case token.NULL:
		p.nextToken()
		return &core.Literal{NodeInfo: p.info(start), Kind: core.LiteralNull, Value: tok.Literal}
	case token.IDENT:
		p.nextToken()
		return &core.Ident{NodeInfo: p.info(start), Name: tok.Literal}
	case token.SELF:
		p.nextToken()
		return &core.SelfExpr{NodeInfo: p.info(start)}
	case token.NEW:
		p.nextToken()
		typ := p.parseTypeName()
		var args []core.Expr
		if p.check(token.LPAREN) {
			args = p.parseArgs()
		}
		return &core.NewExpr{NodeInfo: p.info(start), Type: typ, Args: args}
	case token.LPAREN:
		p.nextToken()
		first := p.parseExpression()
		if p.check(token.COMMA) {
			elems := []core.Expr{first}
			for p.match(token.COMMA) {
				if p.check(token.RPAREN) {
					break
				}
				elems = append(elems, p.parseExpression())
			}
			p.expectClose(token.RPAREN, tok)
			return &core.TupleLit{NodeInfo: p.info(start), Elems: elems}
		}
		p.expectClose(token.RPAREN, tok)
		return &core.ParenExpr{NodeInfo: p.info(start), X: first}
	}
	p.errorExpected("expression")
	return nil
}

func isFloatLiteral(lit string) bool {
	lit = strings.TrimPrefix(lit, "-")
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") ||
		strings.HasPrefix(lit, "0b") || strings.HasPrefix(lit, "0B") {
		return false
	}
	return strings.ContainsAny(lit, ".eEfF")
}
