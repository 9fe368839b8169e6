package resolve

import (
	"fmt"

	"github.com/leapstack-labs/tasty/pkg/token"
)

// ErrorKind classifies resolution errors.
type ErrorKind int

// ErrorKind constants.
const (
	Redeclared ErrorKind = iota
	NotForwarded
)

func (k ErrorKind) String() string {
	switch k {
	case Redeclared:
		return "Redeclared"
	case NotForwarded:
		return "NotForwarded"
	}
	return "ErrorKind(?)"
}

// ResolutionError represents a name resolution error.
type ResolutionError struct {
	Kind    ErrorKind
	Pos     token.Position
	Message string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Code returns the stable diagnostic code.
func (e *ResolutionError) Code() string {
	if e.Kind == NotForwarded {
		return "E302"
	}
	return "E301"
}

// Position returns where the error was detected.
func (e *ResolutionError) Position() token.Position { return e.Pos }

// Common error messages
const (
	ErrRedeclared   = "%s %q redeclared in this scope (previous %s at line %d)"
	ErrNotForwarded = "abstract %s does not forward %q"
)

func redeclaredMessage(sym, prev *Symbol) string {
	line := 0
	if prev.Decl != nil {
		line = prev.Decl.Line()
	}
	return fmt.Sprintf(ErrRedeclared, sym.Kind, sym.Name, prev.Kind, line)
}
