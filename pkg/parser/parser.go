// Package parser turns Tasty source into the AST defined in pkg/core.
//
// # Usage
//
//	file, err := parser.ParseFile("main", src, builtin.Default())
//	if err != nil {
//	    // *LexError or *ParseError
//	}
//
// # Grammar Overview
//
// The parser is recursive descent with precedence climbing for binary
// operators. Binding powers come from the built-in operator table.
//
//	file        → { attribute_app } { modifier } declaration ...
//	declaration → include | assume | inject | namespace | class | abstract
//	              | refurbish | enum | attribute | function | variable
//	variable    → style name [":" type] ["=" expr] ";"
//	function    → "fn" name "(" params ")" ["const"] ["->" type] (block | ";")
//	statement   → block | if | unless | while | until | loop | range_loop
//	              | for_in | return | break | continue | inject | variable | expr ";"
//
// See each file for detailed grammar rules for that section. Parsing stops
// at the first error; there is no recovery.
package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/tasty/pkg/builtin"
	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/token"
)

// Parser parses Tasty into an AST.
type Parser struct {
	lexer   *Lexer
	src     string
	table   *builtin.Table
	token   token.Token // current token
	peek    token.Token // lookahead token
	peek2   token.Token // second lookahead token
	lastEnd token.Position
	errors  []error

	// attribute arity of definitions seen so far in this file
	attrArity map[string]int
}

// bailout unwinds the parser after the first error.
type bailout struct{}

// NewParser creates a new parser for the given input. A nil table selects
// builtin.Default().
func NewParser(src string, table *builtin.Table) *Parser {
	if table == nil {
		table = builtin.Default()
	}
	p := &Parser{
		lexer:     NewLexer(src),
		src:       src,
		table:     table,
		attrArity: make(map[string]int),
	}
	// Read three tokens to initialize current, peek, and peek2
	p.peek2 = p.lexer.NextToken()
	p.advance()
	p.advance()
	return p
}

// ParseFile parses a complete .tasty file.
func ParseFile(name, src string, table *builtin.Table) (file *core.File, err error) {
	p := NewParser(src, table)
	defer p.handleBailout(&err)
	p.checkIllegal()
	file = p.parseFile(name)
	return file, nil
}

// ParseExpr parses a single expression.
func ParseExpr(src string, table *builtin.Table) (expr core.Expr, err error) {
	p := NewParser(src, table)
	defer p.handleBailout(&err)
	p.checkIllegal()
	expr = p.parseExpression()
	p.expect(token.EOF)
	return expr, nil
}

func (p *Parser) handleBailout(err *error) {
	if r := recover(); r != nil {
		if _, ok := r.(bailout); !ok {
			panic(r)
		}
		*err = p.errors[0]
	}
}

// ---------- Token Helpers ----------

func (p *Parser) advance() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.lastEnd = tokenEnd(p.token)
	p.advance()
	p.checkIllegal()
}

// checkIllegal reports the lexer's error once its ILLEGAL token becomes
// current.
func (p *Parser) checkIllegal() {
	if p.token.Type == token.ILLEGAL {
		p.errors = append(p.errors, p.lexer.err)
		panic(bailout{})
	}
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peek.Type == t
}

// checkSoft returns true if the current token is the soft keyword word.
func (p *Parser) checkSoft(word string) bool {
	return p.token.Type == token.IDENT && p.token.Literal == word
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// matchSoft consumes the soft keyword word if present.
func (p *Parser) matchSoft(word string) bool {
	if p.checkSoft(word) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise fails.
func (p *Parser) expect(t token.TokenType) token.Token {
	tok := p.token
	if !p.check(t) {
		p.errorExpected(quoteType(t))
	}
	p.nextToken()
	return tok
}

// expectSoft consumes the soft keyword word, otherwise fails.
func (p *Parser) expectSoft(word string) {
	if !p.matchSoft(word) {
		p.errorExpected(fmt.Sprintf("%q", word))
	}
}

// expectIdent consumes an identifier and returns its name.
func (p *Parser) expectIdent() string {
	if !p.check(token.IDENT) {
		p.fail(&ParseError{
			Kind:     ExpectedIdentifier,
			Pos:      p.token.Pos,
			Expected: "identifier",
			Found:    describe(p.token),
			Message:  fmt.Sprintf(ErrExpectedIdentifier, describe(p.token)),
		})
	}
	name := p.token.Literal
	p.nextToken()
	return name
}

// expectClose consumes the closing delimiter of a construct opened at
// open. Reaching EOF reports the unclosed opener.
func (p *Parser) expectClose(t token.TokenType, open token.Token) {
	if p.check(token.EOF) {
		p.unclosed(open)
	}
	p.expect(t)
}

func (p *Parser) unclosed(open token.Token) {
	p.fail(&ParseError{
		Kind:     UnclosedDelimiter,
		Pos:      p.token.Pos,
		Expected: closerOf(open.Type),
		Found:    describe(p.token),
		Message:  fmt.Sprintf(ErrUnclosedDelimiter, quoteType(open.Type), open.Pos.Line),
	})
}

func (p *Parser) errorExpected(expected string) {
	p.fail(&ParseError{
		Kind:     UnexpectedToken,
		Pos:      p.token.Pos,
		Expected: expected,
		Found:    describe(p.token),
		Message:  fmt.Sprintf(ErrUnexpectedToken, describe(p.token), expected),
	})
}

// fail records err and aborts the parse.
func (p *Parser) fail(err *ParseError) {
	p.errors = append(p.errors, err)
	panic(bailout{})
}

// span returns the span from start to the end of the last consumed token.
func (p *Parser) span(start token.Position) token.Span {
	return token.Span{Start: start, End: p.lastEnd}
}

func (p *Parser) info(start token.Position) core.NodeInfo {
	return core.NodeInfo{Span: p.span(start)}
}

// tokenEnd returns the position after tok. RAW tokens end after the closing
// brace of the inject block and may span lines.
func tokenEnd(tok token.Token) token.Position {
	if tok.Type != token.RAW {
		return tok.End()
	}
	end := token.Position{Offset: tok.Pos.Offset + len(tok.Literal) + 2}
	if nl := strings.LastIndexByte(tok.Literal, '\n'); nl >= 0 {
		end.Line = tok.Pos.Line + strings.Count(tok.Literal, "\n")
		end.Column = len(tok.Literal) - nl + 1
	} else {
		end.Line = tok.Pos.Line
		end.Column = tok.Pos.Column + len(tok.Literal) + 2
	}
	return end
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "EOF"
	case token.IDENT:
		return fmt.Sprintf("identifier %q", tok.Literal)
	case token.NUMBER, token.STRING, token.CHAR:
		return tok.Literal
	}
	return fmt.Sprintf("%q", tok.Literal)
}

func quoteType(t token.TokenType) string {
	switch t {
	case token.EOF:
		return "EOF"
	case token.IDENT:
		return "identifier"
	case token.RAW:
		return "inject block"
	}
	return fmt.Sprintf("%q", t.String())
}

func closerOf(t token.TokenType) string {
	switch t {
	case token.LPAREN:
		return `")"`
	case token.LBRACKET:
		return `"]"`
	case token.LBRACE:
		return `"}"`
	case token.LT:
		return `">"`
	}
	return ""
}
