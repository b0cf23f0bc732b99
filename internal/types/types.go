// Package types implements the wlang semantic type system (spec.md §3):
// a small closed set of primitive types plus named structs, with a
// single `never` type that is a subtype of everything. It is
// deliberately independent of internal/ir — the bridge between a
// semantic Type and an IR-level representation (the original's
// TypedValue pairing) is internal/sema's concern, since only sema knows
// which IR values exist for which expressions.
//
// Grounded on original_source/src/codegen/types.rs's `Type` enum, with
// its payload-carrying variants (`i(u32)`, `Struct { path }`) expressed
// as a tagged Kind plus auxiliary fields, since Go has no closed sum
// type.
package types

import "fmt"

// Kind discriminates a Type's variant.
type Kind int

const (
	Int Kind = iota
	Bool
	Str
	Unit
	Never
	StructType
)

// Type is a semantic wlang type (spec.md §3). The zero Type is not
// meaningful; always construct one via the package-level constructors.
type Type struct {
	Kind Kind
	Bits uint32 // meaningful only for Kind == Int
	Path string // meaningful only for Kind == StructType; the struct's full crate::name path
}

// IntType returns the N-bit signed integer type `iN`.
func IntType(bits uint32) Type { return Type{Kind: Int, Bits: bits} }

// BoolType is the wlang `bool` type.
var BoolType = Type{Kind: Bool}

// StrType is the wlang `str` type (pointer + length pair).
var StrType = Type{Kind: Str}

// UnitType is the empty-tuple `()` type.
var UnitType = Type{Kind: Unit}

// NeverType is the uninstantiable bottom-like type of diverging
// constructs (spec.md §9's Design Note: not a user-facing inference
// bottom). It is produced by break and by calls to functions declared
// `-> never`, the one place it can be named (see ParsePrimitive).
var NeverType = Type{Kind: Never}

// StructRef returns the named-struct type for a fully qualified path
// such as "mycrate::Point".
func StructRef(path string) Type { return Type{Kind: StructType, Path: path} }

func (t Type) String() string {
	switch t.Kind {
	case Int:
		return fmt.Sprintf("i%d", t.Bits)
	case Bool:
		return "bool"
	case Str:
		return "str"
	case Unit:
		return "()"
	case Never:
		return "never"
	case StructType:
		return t.Path
	default:
		return "?"
	}
}

// Equal reports structural equality (spec.md §3: "types compare
// structurally"). It does not apply the never-subtyping rule; use Is
// for type-checking positions where never must coerce.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case Int:
		return t.Bits == other.Bits
	case StructType:
		return t.Path == other.Path
	default:
		return true
	}
}

// IsNever reports whether t is the never type.
func (t Type) IsNever() bool { return t.Kind == Never }

// Is reports whether a value of type t may be used where want is
// expected: structurally equal, or t is never (never.is(T) holds for
// every T, spec.md §3's control-flow-join coercion rule).
func (t Type) Is(want Type) bool {
	if t.IsNever() {
		return true
	}
	return t.Equal(want)
}

// Join computes the result type of two control-flow arms that must
// agree up to never-coercion (spec.md §4.4's if/else and loop/break
// join rule): if either arm is never, the other arm's type wins; if
// both are never, the join is never; otherwise the two types must be
// structurally equal.
func Join(a, b Type) (Type, bool) {
	switch {
	case a.IsNever() && b.IsNever():
		return NeverType, true
	case a.IsNever():
		return b, true
	case b.IsNever():
		return a, true
	case a.Equal(b):
		return a, true
	default:
		return Type{}, false
	}
}

// primitiveNames maps single-segment primitive type spellings to their
// Type, mirroring original_source/src/codegen/types.rs's Type::new
// match on `str`/`()`/`bool`. Sized integers (`i8`, `i32`, ...) are
// recognized separately by parseIntName since their bit width is
// unbounded.
var primitiveNames = map[string]Type{
	"str":   StrType,
	"bool":  BoolType,
	"never": NeverType,
}

// ParsePrimitive recognizes a single-segment primitive type name (`str`,
// `bool`, `never`, or `i<N>`), returning ok=false for anything else —
// including every struct name, which the caller must resolve via the
// name store instead (spec.md §4.3). `never` has no grammar production
// of its own (spec.md §4.2's Type production is only `Path | '()'`);
// recognizing it as an ordinary primitive-spelled path segment is the
// only way a function signature can name it explicitly, needed for
// `#[intrinsic(exit)]`'s `-> never` (spec.md §4.6) since a diverging
// function can otherwise only ever be inferred, never declared.
func ParsePrimitive(name string) (Type, bool) {
	if t, ok := primitiveNames[name]; ok {
		return t, true
	}
	if bits, ok := parseIntName(name); ok {
		return IntType(bits), true
	}
	return Type{}, false
}

// parseIntName recognizes `i` followed by one or more decimal digits,
// e.g. "i32" -> 32, rejecting a bare "i" (no digits) and "i0" (spec.md
// §4.3's "`i<N>` for decimal N > 0 → `i(N)`" excludes a zero-width
// integer).
func parseIntName(name string) (uint32, bool) {
	if len(name) < 2 || name[0] != 'i' {
		return 0, false
	}
	digits := name[1:]
	var n uint32
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint32(c-'0')
	}
	if n == 0 {
		return 0, false
	}
	return n, true
}
