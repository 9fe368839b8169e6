// Package types models the value types of Tasty programs.
//
// The model is deliberately shallow: it knows enough about primitives,
// pointers, smart pointers, tuples and class hierarchies to choose the
// right C++ syntax, and nothing about overload resolution. Unknown is
// absorbing: any relation involving an Unknown type succeeds.
package types

import (
	"strings"

	"github.com/leapstack-labs/tasty/pkg/builtin"
)

// Kind classifies a Type.
type Kind int

// Kind constants.
const (
	KindInvalid Kind = iota
	KindVoid
	KindNull
	KindPrimitive
	KindClass
	KindEnum
	KindNamespace
	KindTemplate
	KindTuple
	KindPointer
	KindReference
	KindSmart
	KindFunc
	KindRange
	KindUnknown
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindVoid:      "void",
	KindNull:      "null",
	KindPrimitive: "primitive",
	KindClass:     "class",
	KindEnum:      "enum",
	KindNamespace: "namespace",
	KindTemplate:  "template",
	KindTuple:     "tuple",
	KindPointer:   "pointer",
	KindReference: "reference",
	KindSmart:     "smart",
	KindFunc:      "func",
	KindRange:     "range",
	KindUnknown:   "unknown",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Type is a resolved type. Types are immutable once built, except that the
// resolver fills Bases of a class after all classes are declared.
type Type struct {
	Kind Kind
	Name string // dotted source name of classes, enums, namespaces and unknowns

	// primitives
	Prim builtin.Primitive

	Args  []*Type // template arguments, tuple elements or function parameters
	Elem  *Type   // pointee, referent, smart target, range element or function result
	Level int     // pointer level, at least 1 for KindPointer
	Const bool    // const reference
	Uniq  bool    // unique rather than shared ownership

	Bases []*Type // direct base classes

	// Abstract names the abstract binding the type was spelled through.
	// It does not take part in equality.
	Abstract string
}

var (
	voidType = &Type{Kind: KindVoid, Name: "void"}
	nullType = &Type{Kind: KindNull, Name: "null"}
)

// Void returns the void type.
func Void() *Type { return voidType }

// Null returns the type of the null literal.
func Null() *Type { return nullType }

// Unknown returns a pass-through type named name. Types written in source
// keep their name; types of expressions nothing declares are anonymous and
// render as auto.
func Unknown(name string) *Type {
	return &Type{Kind: KindUnknown, Name: name}
}

// Primitive wraps a built-in primitive.
func Primitive(p builtin.Primitive) *Type {
	if p.Name == "void" {
		return voidType
	}
	return &Type{Kind: KindPrimitive, Name: p.Name, Prim: p}
}

// Class returns a class type. Bases may be added by the resolver.
func Class(name string) *Type {
	return &Type{Kind: KindClass, Name: name}
}

// Enum returns an enum type.
func Enum(name string) *Type {
	return &Type{Kind: KindEnum, Name: name}
}

// Namespace returns the type of a namespace name used as a receiver.
func Namespace(name string) *Type {
	return &Type{Kind: KindNamespace, Name: name}
}

// Template instantiates base with args.
func Template(base *Type, args ...*Type) *Type {
	return &Type{Kind: KindTemplate, Name: base.Name, Elem: base, Args: args}
}

// Tuple returns a tuple of elems.
func Tuple(elems ...*Type) *Type {
	return &Type{Kind: KindTuple, Args: elems}
}

// Pointer returns a level-deep raw pointer to inner. Pointers to pointers
// collapse into a single Type with the summed level.
func Pointer(inner *Type, level int) *Type {
	if level <= 0 {
		return inner
	}
	if inner.Kind == KindPointer {
		return &Type{Kind: KindPointer, Elem: inner.Elem, Level: inner.Level + level}
	}
	return &Type{Kind: KindPointer, Elem: inner, Level: level}
}

// Reference returns a reference to inner.
func Reference(inner *Type, isConst bool) *Type {
	return &Type{Kind: KindReference, Elem: inner, Const: isConst}
}

// Smart returns a shared or unique smart pointer to inner.
func Smart(inner *Type, unique bool) *Type {
	return &Type{Kind: KindSmart, Elem: inner, Uniq: unique}
}

// Func returns a function type.
func Func(params []*Type, result *Type) *Type {
	if result == nil {
		result = voidType
	}
	return &Type{Kind: KindFunc, Args: params, Elem: result}
}

// Range returns the type of a from..to expression.
func Range(elem *Type) *Type {
	return &Type{Kind: KindRange, Elem: elem}
}

// ViaAbstract returns a copy of t remembering that it was named through the
// abstract binding name.
func ViaAbstract(t *Type, name string) *Type {
	c := *t
	c.Abstract = name
	return &c
}

// Anonymous reports whether t or any type it is built from is an anonymous
// Unknown, in which case the C++ spelling must be left to auto.
func (t *Type) Anonymous() bool {
	if t == nil {
		return true
	}
	if t.Kind == KindUnknown {
		return t.Name == ""
	}
	for _, a := range t.Args {
		if a.Anonymous() {
			return true
		}
	}
	return t.Elem != nil && t.Elem.Anonymous()
}

// IsUnknown reports whether t is nil or Unknown.
func (t *Type) IsUnknown() bool {
	return t == nil || t.Kind == KindUnknown
}

// IsNumeric reports whether t takes part in primitive widening.
func (t *Type) IsNumeric() bool {
	return t != nil && t.Kind == KindPrimitive && t.Prim.Rank >= 1
}

// IsIntegral reports whether t is an integral primitive.
func (t *Type) IsIntegral() bool {
	return t != nil && t.Kind == KindPrimitive && t.Prim.Integer
}

// IsPointerLike reports whether null converts to t.
func (t *Type) IsPointerLike() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindPointer, KindSmart, KindNull:
		return true
	case KindPrimitive:
		return t.Prim.Name == "text"
	}
	return false
}

// Deref strips references.
func (t *Type) Deref() *Type {
	for t != nil && t.Kind == KindReference {
		t = t.Elem
	}
	return t
}

// PointerDepth returns how many dereferences separate a value of type t
// from a member access: 0 for values and references, the level for raw
// pointers, and one for a smart pointer.
func (t *Type) PointerDepth() int {
	t = t.Deref()
	if t == nil {
		return 0
	}
	switch t.Kind {
	case KindPointer:
		return t.Level
	case KindSmart:
		return 1 + t.Elem.PointerDepth()
	}
	return 0
}

// Pointee returns the type reached after PointerDepth dereferences.
func (t *Type) Pointee() *Type {
	t = t.Deref()
	for t != nil && (t.Kind == KindPointer || t.Kind == KindSmart) {
		t = t.Elem.Deref()
	}
	return t
}

// String renders t in surface syntax.
func (t *Type) String() string {
	if t == nil {
		return "unknown"
	}
	switch t.Kind {
	case KindPrimitive, KindClass, KindEnum, KindNamespace, KindUnknown, KindVoid, KindNull:
		return t.Name
	case KindTemplate:
		return t.Name + "<" + join(t.Args, (*Type).String) + ">"
	case KindTuple:
		return "(" + join(t.Args, (*Type).String) + ")"
	case KindPointer:
		return t.Elem.String() + strings.Repeat("*", t.Level)
	case KindReference:
		if t.Const {
			return "borrow " + t.Elem.String()
		}
		return "ref " + t.Elem.String()
	case KindSmart:
		if t.Uniq {
			return "uniqueptr " + t.Elem.String()
		}
		return "autoptr " + t.Elem.String()
	case KindFunc:
		return "fn(" + join(t.Args, (*Type).String) + ") -> " + t.Elem.String()
	case KindRange:
		return "range<" + t.Elem.String() + ">"
	}
	return "invalid"
}

// CPP renders t as a C++ type.
func (t *Type) CPP() string {
	if t == nil {
		return "auto"
	}
	switch t.Kind {
	case KindPrimitive:
		return t.Prim.CType
	case KindVoid:
		return "void"
	case KindNull:
		return "std::nullptr_t"
	case KindUnknown:
		if t.Name == "" {
			return "auto"
		}
		return ScopedName(t.Name)
	case KindClass, KindEnum, KindNamespace:
		return ScopedName(t.Name)
	case KindTemplate:
		return ScopedName(t.Name) + "<" + join(t.Args, (*Type).CPP) + ">"
	case KindTuple:
		return "std::tuple<" + join(t.Args, (*Type).CPP) + ">"
	case KindPointer:
		return t.Elem.CPP() + strings.Repeat("*", t.Level)
	case KindReference:
		if t.Const {
			return "const " + t.Elem.CPP() + "&"
		}
		return t.Elem.CPP() + "&"
	case KindSmart:
		if t.Uniq {
			return "std::unique_ptr<" + t.Elem.CPP() + ">"
		}
		return "std::shared_ptr<" + t.Elem.CPP() + ">"
	case KindFunc:
		return "std::function<" + t.Elem.CPP() + "(" + join(t.Args, (*Type).CPP) + ")>"
	}
	return "auto"
}

// ScopedName converts a dotted name to a C++ qualified name.
func ScopedName(name string) string {
	return strings.ReplaceAll(name, ".", "::")
}

func join(ts []*Type, f func(*Type) string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = f(t)
	}
	return strings.Join(parts, ", ")
}
