package core

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/tasty/pkg/token"
)

// StorageKind is the ownership form of a variable.
type StorageKind int

// StorageKind constants. StorageUnresolved must never reach code generation.
const (
	StorageUnresolved StorageKind = iota
	StorageValue                  // copy, let
	StorageReference              // ref, borrow
	StorageMoved                  // move
	StorageRawPointer             // ptr, ptr2..ptr9
	StorageShared                 // autoptr
	StorageUnique                 // uniqueptr
)

var storageNames = [...]string{
	StorageUnresolved: "unresolved",
	StorageValue:      "value",
	StorageReference:  "reference",
	StorageMoved:      "moved",
	StorageRawPointer: "raw-pointer",
	StorageShared:     "shared-smart-pointer",
	StorageUnique:     "unique-smart-pointer",
}

func (k StorageKind) String() string {
	if int(k) < len(storageNames) {
		return storageNames[k]
	}
	return "StorageKind(" + strconv.Itoa(int(k)) + ")"
}

// Storage is a declared ownership qualifier.
type Storage struct {
	Kind    StorageKind
	Level   int  // pointer level for StorageRawPointer, 1 for plain ptr
	Const   bool // borrow is a const reference
	Keyword string
}

// IsZero reports whether no qualifier was written.
func (s Storage) IsZero() bool {
	return s.Kind == StorageUnresolved
}

func (s Storage) String() string {
	if s.Keyword != "" {
		return s.Keyword
	}
	return s.Kind.String()
}

// StorageFromKeyword maps an ownership keyword to its Storage.
func StorageFromKeyword(tok token.Token) (Storage, bool) {
	s := Storage{Keyword: tok.Literal}
	switch tok.Type {
	case token.COPY, token.LET:
		s.Kind = StorageValue
	case token.REF:
		s.Kind = StorageReference
	case token.BORROW:
		s.Kind = StorageReference
		s.Const = true
	case token.MOVE:
		s.Kind = StorageMoved
	case token.PTR:
		s.Kind = StorageRawPointer
		s.Level = 1
		if lvl := strings.TrimPrefix(tok.Literal, "ptr"); lvl != "" {
			n, err := strconv.Atoi(lvl)
			if err != nil || n < 2 || n > 9 {
				return Storage{}, false
			}
			s.Level = n
		}
	case token.AUTOPTR:
		s.Kind = StorageShared
	case token.UNIQUEPTR:
		s.Kind = StorageUnique
	default:
		return Storage{}, false
	}
	return s, true
}

// Modifiers is a set of declaration modifiers.
type Modifiers uint16

// Modifier flags.
const (
	ModConst Modifiers = 1 << iota
	ModConstexpr
	ModConstinit
	ModExtern
	ModInline
	ModMutable
	ModStatic
	ModThreadLocal
	ModVirtual
	ModVolatile
)

var modifierOrder = []struct {
	mod  Modifiers
	text string
}{
	{ModStatic, "static"},
	{ModExtern, "extern"},
	{ModInline, "inline"},
	{ModVirtual, "virtual"},
	{ModThreadLocal, "thread_local"},
	{ModMutable, "mutable"},
	{ModConstexpr, "constexpr"},
	{ModConstinit, "constinit"},
	{ModVolatile, "volatile"},
	{ModConst, "const"},
}

// ModifierFromToken maps a modifier keyword to its flag.
func ModifierFromToken(t token.TokenType) (Modifiers, bool) {
	switch t {
	case token.CONST:
		return ModConst, true
	case token.CONSTEXPR:
		return ModConstexpr, true
	case token.CONSTINIT:
		return ModConstinit, true
	case token.EXTERN:
		return ModExtern, true
	case token.INLINE:
		return ModInline, true
	case token.MUTABLE:
		return ModMutable, true
	case token.STATIC:
		return ModStatic, true
	case token.THREAD_LOCAL:
		return ModThreadLocal, true
	case token.VIRTUAL:
		return ModVirtual, true
	case token.VOLATILE:
		return ModVolatile, true
	}
	return 0, false
}

// Has reports whether all flags in m are set.
func (ms Modifiers) Has(m Modifiers) bool {
	return ms&m == m
}

// Without returns the set with m cleared.
func (ms Modifiers) Without(m Modifiers) Modifiers {
	return ms &^ m
}

// Prefix renders the modifiers in C++ order, each followed by a space.
func (ms Modifiers) Prefix() string {
	var b strings.Builder
	for _, m := range modifierOrder {
		if ms.Has(m.mod) {
			b.WriteString(m.text)
			b.WriteByte(' ')
		}
	}
	return b.String()
}
