// Package token defines the token types of the Tasty surface language.
//
// Hard keywords are reserved. Soft keywords (from, to, by, in, is, extends,
// becomes, local, system, dynamic, reinterpret) stay identifiers and are
// recognised by the parser in context.
package token

import "fmt"

// TokenType represents the type of a lexical token.
//
//nolint:revive // token.TokenType is clear and widely used
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT  // identifier
	NUMBER // 123, 0x1f, 0b101, 4.5f
	STRING // "hello"
	CHAR   // 'a'
	RAW    // verbatim text captured after inject

	// Operators
	PLUS           // +
	MINUS          // -
	STAR           // *
	SLASH          // /
	PERCENT        // %
	INCREMENT      // ++
	DECREMENT      // --
	ASSIGN         // =
	PLUS_ASSIGN    // +=
	MINUS_ASSIGN   // -=
	STAR_ASSIGN    // *=
	SLASH_ASSIGN   // /=
	PERCENT_ASSIGN // %=
	AMP_ASSIGN     // &=
	PIPE_ASSIGN    // |=
	CARET_ASSIGN   // ^=
	SHL_ASSIGN     // <<=
	SHR_ASSIGN     // >>=
	EQ             // ==
	NE             // !=
	LT             // <
	GT             // >
	LE             // <=
	GE             // >=
	LAND           // &&
	LOR            // ||
	NOT            // !
	AMP            // &
	PIPE           // |
	CARET          // ^
	TILDE          // ~
	SHL            // <<
	SHR            // >>
	DOT            // .
	ARROW          // ->
	SCOPE          // ::
	RANGE          // ..
	COMMA          // ,
	SEMICOLON      // ;
	COLON          // :
	QUESTION       // ?
	AT             // @
	LPAREN         // (
	RPAREN         // )
	LBRACE         // {
	RBRACE         // }
	LBRACKET       // [
	RBRACKET       // ]

	// Keywords (alphabetical)
	ABSTRACT
	AS
	ASSUME
	ATTRIBUTE
	BREAK
	CLASS
	CONTAIN
	CONTINUE
	DEC
	DECTO
	DELETE
	DERIVE
	ELSE
	ENUM
	FALSE
	FN
	FOR
	IF
	IMPORT
	INC
	INCLUDE
	INCTO
	INJECT
	LOOP
	NAMESPACE
	NEW
	NULL
	OPERATOR
	REFURBISH
	RETURN
	SELF
	TRUE
	UNLESS
	UNTIL
	WHILE

	// Storage keywords
	COPY
	LET
	REF
	BORROW
	MOVE
	PTR // ptr, ptr2 .. ptr9; the literal carries the level
	AUTOPTR
	UNIQUEPTR

	// Modifier keywords
	CONST
	CONSTEXPR
	CONSTINIT
	EXTERN
	INLINE
	MUTABLE
	STATIC
	THREAD_LOCAL
	VIRTUAL
	VOLATILE
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	IDENT:  "IDENT",
	NUMBER: "NUMBER",
	STRING: "STRING",
	CHAR:   "CHAR",
	RAW:    "RAW",

	PLUS:           "+",
	MINUS:          "-",
	STAR:           "*",
	SLASH:          "/",
	PERCENT:        "%",
	INCREMENT:      "++",
	DECREMENT:      "--",
	ASSIGN:         "=",
	PLUS_ASSIGN:    "+=",
	MINUS_ASSIGN:   "-=",
	STAR_ASSIGN:    "*=",
	SLASH_ASSIGN:   "/=",
	PERCENT_ASSIGN: "%=",
	AMP_ASSIGN:     "&=",
	PIPE_ASSIGN:    "|=",
	CARET_ASSIGN:   "^=",
	SHL_ASSIGN:     "<<=",
	SHR_ASSIGN:     ">>=",
	EQ:             "==",
	NE:             "!=",
	LT:             "<",
	GT:             ">",
	LE:             "<=",
	GE:             ">=",
	LAND:           "&&",
	LOR:            "||",
	NOT:            "!",
	AMP:            "&",
	PIPE:           "|",
	CARET:          "^",
	TILDE:          "~",
	SHL:            "<<",
	SHR:            ">>",
	DOT:            ".",
	ARROW:          "->",
	SCOPE:          "::",
	RANGE:          "..",
	COMMA:          ",",
	SEMICOLON:      ";",
	COLON:          ":",
	QUESTION:       "?",
	AT:             "@",
	LPAREN:         "(",
	RPAREN:         ")",
	LBRACE:         "{",
	RBRACE:         "}",
	LBRACKET:       "[",
	RBRACKET:       "]",

	ABSTRACT:  "abstract",
	AS:        "as",
	ASSUME:    "assume",
	ATTRIBUTE: "attribute",
	BREAK:     "break",
	CLASS:     "class",
	CONTAIN:   "contain",
	CONTINUE:  "continue",
	DEC:       "dec",
	DECTO:     "decto",
	DELETE:    "delete",
	DERIVE:    "derive",
	ELSE:      "else",
	ENUM:      "enum",
	FALSE:     "false",
	FN:        "fn",
	FOR:       "for",
	IF:        "if",
	IMPORT:    "import",
	INC:       "inc",
	INCLUDE:   "include",
	INCTO:     "incto",
	INJECT:    "inject",
	LOOP:      "loop",
	NAMESPACE: "namespace",
	NEW:       "new",
	NULL:      "null",
	OPERATOR:  "operator",
	REFURBISH: "refurbish",
	RETURN:    "return",
	SELF:      "self",
	TRUE:      "true",
	UNLESS:    "unless",
	UNTIL:     "until",
	WHILE:     "while",

	COPY:      "copy",
	LET:       "let",
	REF:       "ref",
	BORROW:    "borrow",
	MOVE:      "move",
	PTR:       "ptr",
	AUTOPTR:   "autoptr",
	UNIQUEPTR: "uniqueptr",

	CONST:        "const",
	CONSTEXPR:    "constexpr",
	CONSTINIT:    "constinit",
	EXTERN:       "extern",
	INLINE:       "inline",
	MUTABLE:      "mutable",
	STATIC:       "static",
	THREAD_LOCAL: "thread_local",
	VIRTUAL:      "virtual",
	VOLATILE:     "volatile",
}

// keywords maps reserved words to their token types.
var keywords = func() map[string]TokenType {
	m := make(map[string]TokenType)
	for t := ABSTRACT; t <= VOLATILE; t++ {
		m[tokenNames[t]] = t
	}
	for _, lvl := range "23456789" {
		m["ptr"+string(lvl)] = PTR
	}
	return m
}()

// LookupIdent returns the keyword token type for ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword returns true if the token type is a reserved word.
func IsKeyword(t TokenType) bool {
	return t >= ABSTRACT && t <= VOLATILE
}

// IsOperator returns true if the token type is an operator or delimiter.
func IsOperator(t TokenType) bool {
	return t >= PLUS && t <= RBRACKET
}

// IsStorage returns true for ownership-qualifier keywords.
func IsStorage(t TokenType) bool {
	return t >= COPY && t <= UNIQUEPTR
}

// IsModifier returns true for declaration modifier keywords.
func IsModifier(t TokenType) bool {
	return t >= CONST && t <= VOLATILE
}

// IsAssign returns true for = and the compound assignment operators.
func IsAssign(t TokenType) bool {
	return t >= ASSIGN && t <= SHR_ASSIGN
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

// End returns the position immediately after the token's literal.
// RAW tokens may span lines; End is only meaningful for single-line tokens.
func (t Token) End() Position {
	return Position{Line: t.Pos.Line, Column: t.Pos.Column + len(t.Literal), Offset: t.Pos.Offset + len(t.Literal)}
}

// IsOperand reports whether the token can end an operand. The lexer uses it
// to decide whether a '-' starts a negative literal.
func (t Token) IsOperand() bool {
	switch t.Type {
	case IDENT, NUMBER, STRING, CHAR, RPAREN, RBRACKET, SELF, TRUE, FALSE, NULL, INCREMENT, DECREMENT:
		return true
	}
	return false
}
