package attribute

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/tasty/pkg/token"
)

// ErrorKind classifies attribute expansion errors.
type ErrorKind int

// ErrorKind constants.
const (
	ArityMismatch ErrorKind = iota
	CyclicComposition
	UndefinedAttribute
)

func (k ErrorKind) String() string {
	switch k {
	case ArityMismatch:
		return "ArityMismatch"
	case CyclicComposition:
		return "CyclicComposition"
	case UndefinedAttribute:
		return "UndefinedAttribute"
	}
	return "ErrorKind(?)"
}

var errorCodes = [...]string{
	ArityMismatch:      "E501",
	CyclicComposition:  "E502",
	UndefinedAttribute: "E503",
}

// Error reports a failed attribute expansion. Path holds the chain of
// attribute names being expanded, outermost first; for a cycle it ends with
// the repeated name.
type Error struct {
	Kind    ErrorKind
	Pos     token.Position
	Message string
	Path    []string
}

func (e *Error) Error() string {
	msg := e.Message
	if len(e.Path) > 1 {
		msg += " (" + strings.Join(e.Path, " -> ") + ")"
	}
	return fmt.Sprintf("attribute error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, msg)
}

// Code returns the stable diagnostic code.
func (e *Error) Code() string { return errorCodes[e.Kind] }

// Position returns the application that failed.
func (e *Error) Position() token.Position { return e.Pos }

// Common error messages
const (
	ErrArity       = "attribute %s takes %d argument(s), got %d"
	ErrArityAtMost = "attribute %s takes at most %d argument(s), got %d"
	ErrCycle       = "attribute %s is composed of itself"
	ErrUndefined   = "undefined attribute %s"
)
