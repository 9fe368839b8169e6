package parser

import (
	"fmt"

	"github.com/leapstack-labs/tasty/pkg/token"
)

// Lexer tokenizes Tasty input.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)

	prev token.Token // last token returned, drives negative literals and inject capture
	err  *LexError
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// Tokenize lexes the whole input, stopping at EOF or the first error.
func Tokenize(input string) ([]token.Token, error) {
	l := NewLexer(input)
	var toks []token.Token
	for {
		tok := l.NextToken()
		if err := l.Err(); err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

// Err returns the first lexical error, if any. Once set the lexer only
// produces EOF.
func (l *Lexer) Err() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++

	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// atEOF distinguishes a real NUL byte from the end of input.
func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// currentPos returns the current position.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

func (l *Lexer) fail(kind LexErrorKind, pos token.Position, msg string) token.Token {
	if l.err == nil {
		l.err = &LexError{Kind: kind, Pos: pos, Message: msg}
	}
	return token.Token{Type: token.ILLEGAL, Literal: msg, Pos: pos}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	if l.err != nil {
		return token.Token{Type: token.EOF, Pos: l.currentPos()}
	}
	tok := l.scan()
	l.prev = tok
	return tok
}

func (l *Lexer) scan() token.Token {
	if tok, ok := l.skipWhitespaceAndComments(); !ok {
		return tok
	}

	pos := l.currentPos()

	if l.atEOF() {
		return token.Token{Type: token.EOF, Pos: pos}
	}

	if l.prev.Type == token.INJECT && l.ch == '{' {
		return l.readRaw(pos)
	}

	switch l.ch {
	case '+':
		return l.operator(pos, token.PLUS, "+", op2{'+', token.INCREMENT, "++"}, op2{'=', token.PLUS_ASSIGN, "+="})
	case '-':
		if isDigit(l.peekChar()) && !l.prev.IsOperand() {
			return l.readNumber(pos)
		}
		return l.operator(pos, token.MINUS, "-",
			op2{'>', token.ARROW, "->"}, op2{'-', token.DECREMENT, "--"}, op2{'=', token.MINUS_ASSIGN, "-="})
	case '*':
		return l.operator(pos, token.STAR, "*", op2{'=', token.STAR_ASSIGN, "*="})
	case '/':
		return l.operator(pos, token.SLASH, "/", op2{'=', token.SLASH_ASSIGN, "/="})
	case '%':
		return l.operator(pos, token.PERCENT, "%", op2{'=', token.PERCENT_ASSIGN, "%="})
	case '=':
		return l.operator(pos, token.ASSIGN, "=", op2{'=', token.EQ, "=="})
	case '!':
		return l.operator(pos, token.NOT, "!", op2{'=', token.NE, "!="})
	case '<':
		if l.peekChar() == '<' {
			l.readChar()
			return l.operator(pos, token.SHL, "<<", op2{'=', token.SHL_ASSIGN, "<<="})
		}
		return l.operator(pos, token.LT, "<", op2{'=', token.LE, "<="})
	case '>':
		if l.peekChar() == '>' {
			l.readChar()
			return l.operator(pos, token.SHR, ">>", op2{'=', token.SHR_ASSIGN, ">>="})
		}
		return l.operator(pos, token.GT, ">", op2{'=', token.GE, ">="})
	case '&':
		return l.operator(pos, token.AMP, "&", op2{'&', token.LAND, "&&"}, op2{'=', token.AMP_ASSIGN, "&="})
	case '|':
		return l.operator(pos, token.PIPE, "|", op2{'|', token.LOR, "||"}, op2{'=', token.PIPE_ASSIGN, "|="})
	case '^':
		return l.operator(pos, token.CARET, "^", op2{'=', token.CARET_ASSIGN, "^="})
	case '.':
		return l.operator(pos, token.DOT, ".", op2{'.', token.RANGE, ".."})
	case ':':
		return l.operator(pos, token.COLON, ":", op2{':', token.SCOPE, "::"})
	case '~':
		return l.operator(pos, token.TILDE, "~")
	case ',':
		return l.operator(pos, token.COMMA, ",")
	case ';':
		return l.operator(pos, token.SEMICOLON, ";")
	case '?':
		return l.operator(pos, token.QUESTION, "?")
	case '@':
		return l.operator(pos, token.AT, "@")
	case '(':
		return l.operator(pos, token.LPAREN, "(")
	case ')':
		return l.operator(pos, token.RPAREN, ")")
	case '{':
		return l.operator(pos, token.LBRACE, "{")
	case '}':
		return l.operator(pos, token.RBRACE, "}")
	case '[':
		return l.operator(pos, token.LBRACKET, "[")
	case ']':
		return l.operator(pos, token.RBRACKET, "]")
	case '"':
		return l.readQuoted(pos, '"', token.STRING)
	case '\'':
		return l.readQuoted(pos, '\'', token.CHAR)
	}

	switch {
	case isLetter(l.ch):
		ident := l.readIdentifier()
		return token.Token{Type: token.LookupIdent(ident), Literal: ident, Pos: pos}
	case isDigit(l.ch):
		return l.readNumber(pos)
	}
	return l.fail(InvalidCharacter, pos, fmt.Sprintf(ErrInvalidCharacter, l.ch))
}

// op2 is a two-character continuation of a single-character operator.
type op2 struct {
	next    byte
	typ     token.TokenType
	literal string
}

// operator consumes the current character and, when the next character
// extends it, the longest matching continuation.
func (l *Lexer) operator(pos token.Position, typ token.TokenType, literal string, longer ...op2) token.Token {
	for _, o := range longer {
		if l.peekChar() == o.next {
			l.readChar()
			l.readChar()
			return token.Token{Type: o.typ, Literal: o.literal, Pos: pos}
		}
	}
	l.readChar()
	return token.Token{Type: typ, Literal: literal, Pos: pos}
}

// skipWhitespaceAndComments skips whitespace, line comments and block
// comments. It returns false with an ILLEGAL token on an unterminated
// block comment.
func (l *Lexer) skipWhitespaceAndComments() (token.Token, bool) {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && !l.atEOF() {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			start := l.currentPos()
			l.readChar()
			l.readChar()
			for !(l.ch == '*' && l.peekChar() == '/') {
				if l.atEOF() {
					return l.fail(UnterminatedComment, start, ErrUnterminatedComment), false
				}
				l.readChar()
			}
			l.readChar()
			l.readChar()
		default:
			return token.Token{}, true
		}
	}
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal, including an optional leading '-',
// 0x/0b prefixes, a fraction, an exponent and type suffixes.
func (l *Lexer) readNumber(pos token.Position) token.Token {
	start := l.pos
	if l.ch == '-' {
		l.readChar()
	}

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) {
			l.readChar()
		}
	} else if l.ch == '0' && (l.peekChar() == 'b' || l.peekChar() == 'B') {
		l.readChar()
		l.readChar()
		for l.ch == '0' || l.ch == '1' {
			l.readChar()
		}
	} else {
		for isDigit(l.ch) {
			l.readChar()
		}
		// t.0.1 is two tuple indexes and 0..10 is a range
		if l.ch == '.' && isDigit(l.peekChar()) && l.prev.Type != token.DOT {
			l.readChar()
			for isDigit(l.ch) {
				l.readChar()
			}
		}
		if l.ch == 'e' || l.ch == 'E' {
			next := l.peekChar()
			if isDigit(next) || ((next == '+' || next == '-') && l.readPos+1 < len(l.input) && isDigit(l.input[l.readPos+1])) {
				l.readChar()
				if l.ch == '+' || l.ch == '-' {
					l.readChar()
				}
				for isDigit(l.ch) {
					l.readChar()
				}
			}
		}
	}

	for isNumberSuffix(l.ch) {
		l.readChar()
	}
	lit := l.input[start:l.pos]
	if isLetter(l.ch) || isDigit(l.ch) {
		for isLetter(l.ch) || isDigit(l.ch) {
			l.readChar()
		}
		return l.fail(InvalidCharacter, pos, fmt.Sprintf(ErrInvalidNumber, l.input[start:l.pos]))
	}
	return token.Token{Type: token.NUMBER, Literal: lit, Pos: pos}
}

// readQuoted reads a string or character literal. The literal keeps its
// quotes and escapes exactly as written.
func (l *Lexer) readQuoted(pos token.Position, quote byte, typ token.TokenType) token.Token {
	start := l.pos
	l.readChar()
	for l.ch != quote {
		if l.atEOF() || l.ch == '\n' {
			msg := ErrUnterminatedString
			if typ == token.CHAR {
				msg = ErrUnterminatedChar
			}
			return l.fail(UnterminatedString, pos, msg)
		}
		if l.ch == '\\' {
			l.readChar()
		}
		l.readChar()
	}
	l.readChar()
	return token.Token{Type: typ, Literal: l.input[start:l.pos], Pos: pos}
}

// readRaw captures everything between a brace following inject and its
// matching close brace. The literal excludes the outer braces.
func (l *Lexer) readRaw(pos token.Position) token.Token {
	l.readChar()
	start := l.pos
	depth := 1
	for {
		if l.atEOF() {
			return l.fail(UnterminatedInject, pos, ErrUnterminatedInject)
		}
		switch l.ch {
		case '{':
			depth++
		case '}':
			depth--
		}
		if depth == 0 {
			break
		}
		l.readChar()
	}
	text := l.input[start:l.pos]
	l.readChar()
	return token.Token{Type: token.RAW, Literal: text, Pos: pos}
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}

func isNumberSuffix(ch byte) bool {
	switch ch {
	case 'u', 'U', 'l', 'L', 'f', 'F':
		return true
	}
	return false
}
