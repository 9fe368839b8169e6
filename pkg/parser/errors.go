package parser

import (
	"fmt"

	"github.com/leapstack-labs/tasty/pkg/token"
)

// LexErrorKind classifies lexical errors.
type LexErrorKind int

// LexErrorKind constants.
const (
	InvalidCharacter LexErrorKind = iota
	UnterminatedString
	UnterminatedComment
	UnterminatedInject
)

var lexErrorCodes = [...]string{
	InvalidCharacter:    "E101",
	UnterminatedString:  "E102",
	UnterminatedComment: "E103",
	UnterminatedInject:  "E104",
}

func (k LexErrorKind) String() string {
	switch k {
	case InvalidCharacter:
		return "InvalidCharacter"
	case UnterminatedString:
		return "UnterminatedString"
	case UnterminatedComment:
		return "UnterminatedComment"
	case UnterminatedInject:
		return "UnterminatedInject"
	}
	return "LexErrorKind(?)"
}

// LexError represents a lexical analysis error.
type LexError struct {
	Kind    LexErrorKind
	Pos     token.Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexer error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Code returns the stable diagnostic code.
func (e *LexError) Code() string { return lexErrorCodes[e.Kind] }

// Position returns where the error was detected.
func (e *LexError) Position() token.Position { return e.Pos }

// ParseErrorKind classifies parse errors.
type ParseErrorKind int

// ParseErrorKind constants.
const (
	UnexpectedToken ParseErrorKind = iota
	ExpectedIdentifier
	UnclosedDelimiter
	InvalidAttributeArity
)

var parseErrorCodes = [...]string{
	UnexpectedToken:       "E201",
	ExpectedIdentifier:    "E202",
	UnclosedDelimiter:     "E203",
	InvalidAttributeArity: "E204",
}

func (k ParseErrorKind) String() string {
	switch k {
	case UnexpectedToken:
		return "UnexpectedToken"
	case ExpectedIdentifier:
		return "ExpectedIdentifier"
	case UnclosedDelimiter:
		return "UnclosedDelimiter"
	case InvalidAttributeArity:
		return "InvalidAttributeArity"
	}
	return "ParseErrorKind(?)"
}

// ParseError represents a parsing error with position information.
type ParseError struct {
	Kind     ParseErrorKind
	Pos      token.Position
	Expected string
	Found    string
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Code returns the stable diagnostic code.
func (e *ParseError) Code() string { return parseErrorCodes[e.Kind] }

// Position returns where the error was detected.
func (e *ParseError) Position() token.Position { return e.Pos }

// Common error messages
const (
	ErrUnexpectedToken     = "unexpected token %s, expected %s"
	ErrExpectedIdentifier  = "expected identifier, found %s"
	ErrUnclosedDelimiter   = "unclosed %s opened at line %d"
	ErrAttributeArity      = "attribute %s takes %d argument(s), got %d"
	ErrInvalidCharacter    = "invalid character %q"
	ErrUnterminatedString  = "unterminated string literal"
	ErrUnterminatedChar    = "unterminated character literal"
	ErrUnterminatedComment = "unterminated block comment"
	ErrUnterminatedInject  = "unterminated inject block"
	ErrInvalidNumber       = "invalid number literal %q"
	ErrInvalidStorage      = "invalid storage keyword %q"
	ErrTupleIndex          = "tuple index %q out of range"
)
