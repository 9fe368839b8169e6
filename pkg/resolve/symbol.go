package resolve

import (
	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/types"
)

// SymbolKind classifies symbols.
type SymbolKind int

// SymbolKind constants.
const (
	SymNamespace SymbolKind = iota
	SymClass
	SymAbstract
	SymEnum
	SymEnumMember
	SymFunction
	SymVariable
	SymParameter
	SymAttribute
)

var symbolKindNames = [...]string{
	SymNamespace:  "namespace",
	SymClass:      "class",
	SymAbstract:   "abstract",
	SymEnum:       "enum",
	SymEnumMember: "enumerator",
	SymFunction:   "function",
	SymVariable:   "variable",
	SymParameter:  "parameter",
	SymAttribute:  "attribute",
}

func (k SymbolKind) String() string {
	if int(k) < len(symbolKindNames) {
		return symbolKindNames[k]
	}
	return "symbol"
}

// IsTypeName reports whether a reference to the symbol names a scope rather
// than a value, so member access uses '::'.
func (k SymbolKind) IsTypeName() bool {
	switch k {
	case SymNamespace, SymClass, SymAbstract, SymEnum:
		return true
	}
	return false
}

// Symbol is a named entity.
type Symbol struct {
	Name    string
	Kind    SymbolKind
	Type    *types.Type
	Scope   *Scope // owning scope
	Members *Scope // namespace, class, abstract and enum members
	Decl    core.Node
	Storage core.Storage

	// Unknown marks names nothing in the file or the built-in table
	// declares. They pass through to the output unchanged.
	Unknown bool
	// Assumed marks names introduced by an assume directive.
	Assumed bool
	// Static marks static class members.
	Static bool
}

// Qualified returns the dotted name of the symbol including enclosing
// namespaces and classes.
func (s *Symbol) Qualified() string {
	name := s.Name
	for sc := s.Scope; sc != nil; sc = sc.parent {
		if sc.owner != nil && sc.owner.Kind.IsTypeName() {
			name = sc.owner.Name + "." + name
		}
	}
	return name
}

// ExtFunc is a static extension function introduced by an abstract or
// refurbish declaration.
type ExtFunc struct {
	Owner string // abstract name, or the refurbished type in surface syntax
	Name  string
	CName string // Owner_Name with non-identifier characters replaced
	Decl  *core.FuncDecl
	Self  *types.Type // type of the receiver inside the body
}

// Abstract records the capability table of an abstract binding.
type Abstract struct {
	Name      string
	Target    *types.Type
	Forwarded map[string]*core.FuncDecl
	Ext       map[string]*ExtFunc
	Decl      *core.AbstractDecl
}
