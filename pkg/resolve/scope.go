package resolve

import "github.com/leapstack-labs/tasty/pkg/core"

// ScopeKind indicates what introduced a scope.
type ScopeKind int

const (
	// ScopeGlobal is the file scope.
	ScopeGlobal ScopeKind = iota
	// ScopeNamespace holds a namespace's declarations.
	ScopeNamespace
	// ScopeClass holds class, abstract or enum members in declaration order.
	ScopeClass
	// ScopeFunction holds parameters.
	ScopeFunction
	// ScopeBlock holds locals of a braced block or loop header.
	ScopeBlock
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "global"
	case ScopeNamespace:
		return "namespace"
	case ScopeClass:
		return "class"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	}
	return "scope"
}

// Scope tracks the symbols declared at one level of nesting.
type Scope struct {
	parent  *Scope             // enclosing scope (nil for the global scope)
	kind    ScopeKind
	owner   *Symbol            // namespace, class or function that opened the scope
	entries map[string]*Symbol // name -> first symbol declared under it
	order   []*Symbol          // declaration order, overloads included
}

// NewScope creates a new root scope.
func NewScope() *Scope {
	return &Scope{kind: ScopeGlobal, entries: make(map[string]*Symbol)}
}

// Child creates a nested scope.
func (s *Scope) Child(kind ScopeKind, owner *Symbol) *Scope {
	return &Scope{
		parent:  s,
		kind:    kind,
		owner:   owner,
		entries: make(map[string]*Symbol),
	}
}

// Kind returns what introduced the scope.
func (s *Scope) Kind() ScopeKind { return s.kind }

// Parent returns the enclosing scope.
func (s *Scope) Parent() *Scope { return s.parent }

// Owner returns the symbol that opened the scope, if any.
func (s *Scope) Owner() *Symbol { return s.owner }

// Declare adds sym to the scope. Functions may share a name with other
// functions; any other repeat is a Redeclared error.
func (s *Scope) Declare(sym *Symbol, at core.Node) error {
	if prev, ok := s.entries[sym.Name]; ok {
		if !(prev.Kind == SymFunction && sym.Kind == SymFunction) {
			return &ResolutionError{
				Kind:    Redeclared,
				Pos:     at.Pos(),
				Message: redeclaredMessage(sym, prev),
			}
		}
	} else {
		s.entries[sym.Name] = sym
	}
	sym.Scope = s
	s.order = append(s.order, sym)
	return nil
}

// LookupLocal finds a symbol declared directly in s.
func (s *Scope) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := s.entries[name]
	return sym, ok
}

// Lookup finds a symbol by name.
// Searches current scope first, then parent scopes.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	if sym, ok := s.entries[name]; ok {
		return sym, true
	}
	if s.parent != nil {
		return s.parent.Lookup(name)
	}
	return nil, false
}

// Symbols returns the symbols declared directly in s, in declaration order.
func (s *Scope) Symbols() []*Symbol {
	out := make([]*Symbol, len(s.order))
	copy(out, s.order)
	return out
}

// Enclosing returns the nearest scope of the given kind, or nil.
func (s *Scope) Enclosing(kind ScopeKind) *Scope {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.kind == kind {
			return sc
		}
	}
	return nil
}
