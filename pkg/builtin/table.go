// Package builtin holds the process-wide table of built-in primitives,
// namespaces, implied includes and operator binding powers.
//
// A Table is built once (Default or Load) and is read-only afterwards: all
// fields are unexported and accessors return copies, so one Table can be
// shared by any number of concurrent compilations without locking.
package builtin

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Primitive describes a built-in scalar type.
type Primitive struct {
	Name    string
	CType   string
	Rank    int  // widening order, 0 when the type does not widen
	Integer bool // integral types may convert to and from pointers in casts
	Header  string
}

// Numeric reports whether the primitive takes part in widening.
func (p Primitive) Numeric() bool {
	return p.Rank > 1
}

// Operator describes a binary operator's binding power.
type Operator struct {
	Symbol     string
	Precedence int
	RightAssoc bool
}

// Table is the immutable built-in configuration.
type Table struct {
	primitives  map[string]Primitive
	namespaces  map[string]bool
	includes    map[string]string
	features    map[string]string
	operators   map[string]Operator
	fingerprint string
}

// tableSpec is the decoded form of builtins.yaml and its overlays.
type tableSpec struct {
	Primitives map[string]primitiveSpec `koanf:"primitives" yaml:"primitives"`
	Namespaces map[string]bool          `koanf:"namespaces" yaml:"namespaces"`
	Includes   map[string]string        `koanf:"includes" yaml:"includes"`
	Features   map[string]string        `koanf:"features" yaml:"features"`
	Operators  map[string]operatorSpec  `koanf:"operators" yaml:"operators"`
}

type primitiveSpec struct {
	CType   string `koanf:"cpp" yaml:"cpp"`
	Rank    int    `koanf:"rank" yaml:"rank"`
	Integer bool   `koanf:"integer" yaml:"integer"`
	Header  string `koanf:"header" yaml:"header"`
}

type operatorSpec struct {
	Precedence int  `koanf:"precedence" yaml:"precedence"`
	Right      bool `koanf:"right" yaml:"right"`
}

func newTable(spec *tableSpec) (*Table, error) {
	t := &Table{
		primitives: make(map[string]Primitive, len(spec.Primitives)),
		namespaces: make(map[string]bool, len(spec.Namespaces)),
		includes:   make(map[string]string, len(spec.Includes)),
		features:   make(map[string]string, len(spec.Features)),
		operators:  make(map[string]Operator, len(spec.Operators)),
	}
	for name, p := range spec.Primitives {
		if p.CType == "" {
			return nil, &TableError{Key: "primitives/" + name, Message: "missing cpp spelling"}
		}
		t.primitives[name] = Primitive{Name: name, CType: p.CType, Rank: p.Rank, Integer: p.Integer, Header: p.Header}
	}
	for name, ok := range spec.Namespaces {
		if ok {
			t.namespaces[name] = true
		}
	}
	for name, header := range spec.Includes {
		t.includes[name] = header
	}
	for name, header := range spec.Features {
		t.features[name] = header
	}
	for sym, op := range spec.Operators {
		if op.Precedence <= 0 {
			return nil, &TableError{Key: "operators/" + sym, Message: "precedence must be positive"}
		}
		t.operators[sym] = Operator{Symbol: sym, Precedence: op.Precedence, RightAssoc: op.Right}
	}

	// yaml.v3 emits map keys sorted, so the digest is stable across runs.
	canonical, err := yaml.Marshal(spec)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(canonical)
	t.fingerprint = hex.EncodeToString(sum[:])
	return t, nil
}

// Primitive looks up a primitive by surface name.
func (t *Table) Primitive(name string) (Primitive, bool) {
	p, ok := t.primitives[name]
	return p, ok
}

// PrimitiveByCType looks up a primitive by its C++ spelling.
func (t *Table) PrimitiveByCType(ctype string) (Primitive, bool) {
	for _, p := range t.primitives {
		if p.CType == ctype {
			return p, true
		}
	}
	return Primitive{}, false
}

// IsNamespace reports whether a dotted name is a built-in namespace.
func (t *Table) IsNamespace(name string) bool {
	return t.namespaces[name]
}

// IncludeFor returns the header implied by using a qualified name. A nested
// name falls back to its longest listed prefix, so std.chrono.seconds maps
// through std.chrono.
func (t *Table) IncludeFor(qualified string) (string, bool) {
	name := qualified
	for {
		if h, ok := t.includes[name]; ok {
			return h, true
		}
		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			return "", false
		}
		name = name[:i]
	}
}

// Feature returns the header implied by a language feature (tuple, shared,
// unique, move, function).
func (t *Table) Feature(name string) string {
	return t.features[name]
}

// BinaryOp returns the binding power of a binary operator symbol.
func (t *Table) BinaryOp(symbol string) (Operator, bool) {
	op, ok := t.operators[symbol]
	return op, ok
}

// Namespaces returns the built-in namespaces in sorted order.
func (t *Table) Namespaces() []string {
	out := make([]string, 0, len(t.namespaces))
	for name := range t.namespaces {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Fingerprint identifies the table contents. Build caches key on it so a
// changed table invalidates previously emitted output.
func (t *Table) Fingerprint() string {
	return t.fingerprint
}

// TableError reports an invalid table entry.
type TableError struct {
	Source  string
	Key     string
	Message string
}

func (e *TableError) Error() string {
	if e.Source != "" {
		return "builtin table " + e.Source + ": " + e.Key + ": " + e.Message
	}
	return "builtin table: " + e.Key + ": " + e.Message
}
