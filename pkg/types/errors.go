package types

import (
	"fmt"

	"github.com/leapstack-labs/tasty/pkg/token"
)

// ErrorKind classifies type errors.
type ErrorKind int

// ErrorKind constants.
const (
	AmbiguousInference ErrorKind = iota
	IncompatibleAssignment
	InvalidCast
	InvalidRange
	InvalidTupleIndex
)

var errorCodes = [...]string{
	AmbiguousInference:     "E401",
	IncompatibleAssignment: "E402",
	InvalidCast:            "E403",
	InvalidRange:           "E404",
	InvalidTupleIndex:      "E405",
}

func (k ErrorKind) String() string {
	switch k {
	case AmbiguousInference:
		return "AmbiguousInference"
	case IncompatibleAssignment:
		return "IncompatibleAssignment"
	case InvalidCast:
		return "InvalidCast"
	case InvalidRange:
		return "InvalidRange"
	case InvalidTupleIndex:
		return "InvalidTupleIndex"
	}
	return "ErrorKind(?)"
}

// TypeError reports a type rule violation. Pos is filled in by the caller
// that knows the offending node.
type TypeError struct {
	Kind    ErrorKind
	Pos     token.Position
	Message string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Code returns the stable diagnostic code.
func (e *TypeError) Code() string { return errorCodes[e.Kind] }

// Position returns where the error was detected.
func (e *TypeError) Position() token.Position { return e.Pos }

// At returns a copy of e positioned at pos.
func (e *TypeError) At(pos token.Position) *TypeError {
	c := *e
	c.Pos = pos
	return &c
}

// Common error messages
const (
	ErrIncompatible = "cannot assign %s to %s"
	ErrInvalidCast  = "cannot cast %s to %s with %s cast: %s"
	ErrAmbiguous    = "return types of %s disagree: %s"
	ErrRange        = "range expression is only valid as the iterated value of a for-in loop"
	ErrTupleIndex   = "index %d out of range for %s with %d elements"
)
