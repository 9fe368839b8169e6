package types

import (
	"fmt"

	"github.com/leapstack-labs/tasty/pkg/core"
)

// Equal reports structural equality. Unknown equals only an Unknown of the
// same name; use Assignable or Unify for absorbing comparisons.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindPrimitive:
		return a.Prim.Name == b.Prim.Name
	case KindClass, KindEnum, KindNamespace, KindUnknown:
		return a.Name == b.Name
	case KindVoid, KindNull:
		return true
	case KindPointer:
		return a.Level == b.Level && Equal(a.Elem, b.Elem)
	case KindReference:
		return a.Const == b.Const && Equal(a.Elem, b.Elem)
	case KindSmart:
		return a.Uniq == b.Uniq && Equal(a.Elem, b.Elem)
	case KindRange:
		return Equal(a.Elem, b.Elem)
	case KindTemplate, KindFunc:
		if a.Name != b.Name || !Equal(a.Elem, b.Elem) {
			return false
		}
		return equalList(a.Args, b.Args)
	case KindTuple:
		return equalList(a.Args, b.Args)
	}
	return false
}

func equalList(a, b []*Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// IsSubclass reports whether derived is base or inherits from it.
func IsSubclass(derived, base *Type) bool {
	if derived == nil || base == nil {
		return false
	}
	if Equal(derived, base) {
		return true
	}
	for _, b := range derived.Bases {
		if IsSubclass(b, base) {
			return true
		}
	}
	return false
}

// Convertible reports whether a value of type src may initialize dst.
func Convertible(dst, src *Type) bool {
	dst, src = dst.Deref(), src.Deref()
	if dst.IsUnknown() || src.IsUnknown() {
		return true
	}
	if Equal(dst, src) {
		return true
	}
	switch {
	case dst.IsNumeric() && src.IsNumeric():
		return src.Prim.Rank <= dst.Prim.Rank
	case src.Kind == KindNull:
		return dst.IsPointerLike()
	case dst.Kind == KindPointer && src.Kind == KindPointer:
		if dst.Level != src.Level {
			return false
		}
		if dst.Elem.IsUnknown() || src.Elem.IsUnknown() {
			return true
		}
		return dst.Level == 1 && IsSubclass(src.Elem, dst.Elem)
	case dst.Kind == KindSmart && src.Kind == KindSmart:
		return dst.Uniq == src.Uniq && (Convertible(dst.Elem, src.Elem) || IsSubclass(src.Elem, dst.Elem))
	case dst.Kind == KindTuple && src.Kind == KindTuple:
		if len(dst.Args) != len(src.Args) {
			return false
		}
		for i := range dst.Args {
			if !Convertible(dst.Args[i], src.Args[i]) {
				return false
			}
		}
		return true
	case dst.Kind == KindTemplate && src.Kind == KindTemplate:
		return dst.Name == src.Name && equalList(dst.Args, src.Args)
	}
	return false
}

// Assignable returns an IncompatibleAssignment error unless src converts to dst.
func Assignable(dst, src *Type) error {
	if Convertible(dst, src) {
		return nil
	}
	return &TypeError{
		Kind:    IncompatibleAssignment,
		Message: fmt.Sprintf(ErrIncompatible, src, dst),
	}
}

// Unify returns the common type of a and b. Unknown absorbs, numeric
// primitives unify to the wider, and null unifies with any pointer-like type.
func Unify(a, b *Type) (*Type, bool) {
	switch {
	case a == nil:
		return b, true
	case b == nil:
		return a, true
	case a.IsUnknown():
		return a, true
	case b.IsUnknown():
		return b, true
	case Equal(a, b):
		return a, true
	}
	da, db := a.Deref(), b.Deref()
	switch {
	case Equal(da, db):
		return da, true
	case da.IsNumeric() && db.IsNumeric():
		if db.Prim.Rank > da.Prim.Rank {
			return db, true
		}
		return da, true
	case da.Kind == KindNull && db.IsPointerLike():
		return db, true
	case db.Kind == KindNull && da.IsPointerLike():
		return da, true
	case da.Kind == KindPointer && db.Kind == KindPointer && da.Level == db.Level:
		if IsSubclass(db.Elem, da.Elem) {
			return da, true
		}
		if IsSubclass(da.Elem, db.Elem) {
			return db, true
		}
	}
	return nil, false
}

// Common unifies all of ts. It reports false when no common type exists.
func Common(ts []*Type) (*Type, bool) {
	var acc *Type
	for _, t := range ts {
		u, ok := Unify(acc, t)
		if !ok {
			return nil, false
		}
		acc = u
	}
	return acc, true
}

// CheckCast validates x as T for the given cast form.
func CheckCast(src, dst *Type, kind core.CastKind) error {
	src, dst = src.Deref(), dst.Deref()
	if src.IsUnknown() || dst.IsUnknown() {
		return nil
	}
	invalid := func(reason string) error {
		return &TypeError{
			Kind:    InvalidCast,
			Message: fmt.Sprintf(ErrInvalidCast, src, dst, kind, reason),
		}
	}

	if (src.Kind == KindTuple) != (dst.Kind == KindTuple) {
		return invalid("tuple and non-tuple")
	}
	if src.Kind == KindVoid || dst.Kind == KindVoid {
		return invalid("void value")
	}

	switch kind {
	case core.CastDynamic:
		if src.Kind != KindPointer && src.Kind != KindSmart {
			return invalid("source is not a pointer or reference")
		}
	case core.CastStatic:
		srcPtr := src.Kind == KindPointer || src.Kind == KindNull
		dstPtr := dst.Kind == KindPointer
		if srcPtr != dstPtr {
			other := dst
			if dstPtr {
				other = src
			}
			if other.Kind == KindPrimitive && !other.Prim.Integer {
				return invalid("pointer and non-integer primitive")
			}
		}
	}
	return nil
}
