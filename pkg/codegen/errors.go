package codegen

import (
	"fmt"

	"github.com/leapstack-labs/tasty/pkg/token"
)

// ErrorKind classifies emission errors.
type ErrorKind int

// ErrorKind constants.
const (
	UnresolvedStorage ErrorKind = iota
	InvalidNewBinding
	MisplacedRange
)

func (k ErrorKind) String() string {
	switch k {
	case UnresolvedStorage:
		return "UnresolvedStorage"
	case InvalidNewBinding:
		return "InvalidNewBinding"
	case MisplacedRange:
		return "MisplacedRange"
	}
	return "ErrorKind(?)"
}

var errorCodes = [...]string{
	UnresolvedStorage: "E601",
	InvalidNewBinding: "E602",
	MisplacedRange:    "E603",
}

// EmissionError reports a tree the generator cannot translate. Earlier
// stages normally rule these out.
type EmissionError struct {
	Kind    ErrorKind
	Pos     token.Position
	Message string
}

func (e *EmissionError) Error() string {
	return fmt.Sprintf("emission error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Code returns the stable diagnostic code.
func (e *EmissionError) Code() string { return errorCodes[e.Kind] }

// Position returns where emission failed.
func (e *EmissionError) Position() token.Position { return e.Pos }

// Common error messages
const (
	ErrUnresolvedStorage = "storage of %s was never resolved"
	ErrNewReference      = "cannot bind reference %s to a new-expression"
	ErrMisplacedRange    = "a range is only valid in a for-in header"
)
