package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for construction-time validation.
var (
	// ErrDuplicateFieldName indicates a product with two fields of the same name.
	ErrDuplicateFieldName = errors.New("schema: duplicate field name")
	// ErrDuplicateVariantName indicates a sum with two variants of the same name.
	ErrDuplicateVariantName = errors.New("schema: duplicate variant name")
	// ErrInvalidMapKey indicates a map keyed by a type without total equality and ordering.
	ErrInvalidMapKey = errors.New("schema: invalid map key type")
)

// Kind is the discriminant of an AlgebraicType.
//
// The order of the primitive kinds matches the on-wire variant layout
// consumed by the client runtimes and must not be reordered.
type Kind uint8

const (
	KindBool Kind = iota
	KindU8
	KindU16
	KindU32
	KindU64
	KindI8
	KindI16
	KindI32
	KindI64
	KindF32
	KindF64
	KindString
	KindBytes
	KindProduct
	KindSum
	KindArray
	KindMap
)

// String returns the lowercase name of the kind, matching the
// spelling used in generated metadata and snapshots.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindI8:
		return "i8"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindProduct:
		return "product"
	case KindSum:
		return "sum"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsPrimitive reports whether the kind is a leaf scalar.
func (k Kind) IsPrimitive() bool {
	return k <= KindBytes
}

type (
	// AlgebraicType describes one value shape. It is a tagged union:
	// Kind selects the variant and exactly one of the payload pointers
	// is non-nil for the composite kinds. Primitive kinds carry no
	// payload. The zero value is Bool.
	AlgebraicType struct {
		Kind    Kind
		Product *ProductType
		Sum     *SumType
		Array   *ArrayType
		Map     *MapType
	}

	// ProductType is an ordered set of named or positional fields.
	// Field order is semantically significant: it defines the on-wire
	// field order and the order generators emit declarations in.
	ProductType struct {
		Elements []ProductElement
	}

	// ProductElement pairs an optional field name with its type.
	// An empty Name means the element is positional.
	ProductElement struct {
		Name string
		Type AlgebraicType
	}

	// SumType is a tagged union of mutually exclusive variants.
	SumType struct {
		Variants []SumVariant
	}

	// SumVariant is one alternative of a sum type.
	SumVariant struct {
		Name string
		Type AlgebraicType
	}

	// ArrayType is a homogeneous sequence.
	ArrayType struct {
		Elem AlgebraicType
	}

	// MapType is a key to value mapping. Keys are restricted to types
	// with total equality and ordering, checked on construction.
	MapType struct {
		Key   AlgebraicType
		Value AlgebraicType
	}
)

// Names of the option sum variants. The variant order (some before
// none) matches the wire layout of optional values.
const (
	OptionSomeVariant = "some"
	OptionNoneVariant = "none"
)

// Primitive constructors.

func Bool() AlgebraicType   { return AlgebraicType{Kind: KindBool} }
func U8() AlgebraicType     { return AlgebraicType{Kind: KindU8} }
func U16() AlgebraicType    { return AlgebraicType{Kind: KindU16} }
func U32() AlgebraicType    { return AlgebraicType{Kind: KindU32} }
func U64() AlgebraicType    { return AlgebraicType{Kind: KindU64} }
func I8() AlgebraicType     { return AlgebraicType{Kind: KindI8} }
func I16() AlgebraicType    { return AlgebraicType{Kind: KindI16} }
func I32() AlgebraicType    { return AlgebraicType{Kind: KindI32} }
func I64() AlgebraicType    { return AlgebraicType{Kind: KindI64} }
func F32() AlgebraicType    { return AlgebraicType{Kind: KindF32} }
func F64() AlgebraicType    { return AlgebraicType{Kind: KindF64} }
func String() AlgebraicType { return AlgebraicType{Kind: KindString} }
func Bytes() AlgebraicType  { return AlgebraicType{Kind: KindBytes} }

// Field is a convenience constructor for a named product element.
func Field(name string, t AlgebraicType) ProductElement {
	return ProductElement{Name: name, Type: t}
}

// Positional is a convenience constructor for an unnamed product element.
func Positional(t AlgebraicType) ProductElement {
	return ProductElement{Type: t}
}

// Variant is a convenience constructor for a sum variant.
func Variant(name string, t AlgebraicType) SumVariant {
	return SumVariant{Name: name, Type: t}
}

// Product builds a product type from the given elements. It fails
// with ErrDuplicateFieldName if two named elements share a name.
// Positional (unnamed) elements never collide.
func Product(elems ...ProductElement) (AlgebraicType, error) {
	seen := make(map[string]struct{}, len(elems))
	for _, e := range elems {
		if e.Name == "" {
			continue
		}
		if _, ok := seen[e.Name]; ok {
			return AlgebraicType{}, fmt.Errorf("%w: %q", ErrDuplicateFieldName, e.Name)
		}
		seen[e.Name] = struct{}{}
	}
	return AlgebraicType{Kind: KindProduct, Product: &ProductType{Elements: elems}}, nil
}

// Unit returns the empty product. It is the payload type of sum
// variants that carry no data.
func Unit() AlgebraicType {
	return AlgebraicType{Kind: KindProduct, Product: &ProductType{}}
}

// Sum builds a sum type from the given variants. It fails with
// ErrDuplicateVariantName if two variants share a name.
func Sum(variants ...SumVariant) (AlgebraicType, error) {
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		if _, ok := seen[v.Name]; ok {
			return AlgebraicType{}, fmt.Errorf("%w: %q", ErrDuplicateVariantName, v.Name)
		}
		seen[v.Name] = struct{}{}
	}
	return AlgebraicType{Kind: KindSum, Sum: &SumType{Variants: variants}}, nil
}

// Option returns the two-variant sum {some(t), none}. It cannot fail:
// the variant names are fixed and distinct.
func Option(t AlgebraicType) AlgebraicType {
	return AlgebraicType{Kind: KindSum, Sum: &SumType{Variants: []SumVariant{
		{Name: OptionSomeVariant, Type: t},
		{Name: OptionNoneVariant, Type: Unit()},
	}}}
}

// Array returns a homogeneous sequence of elem.
func Array(elem AlgebraicType) AlgebraicType {
	return AlgebraicType{Kind: KindArray, Array: &ArrayType{Elem: elem}}
}

// Map builds a key to value mapping. It fails with ErrInvalidMapKey
// unless the key type supports total equality and ordering (see
// EqualityComparable).
func Map(key, value AlgebraicType) (AlgebraicType, error) {
	if !key.EqualityComparable() {
		return AlgebraicType{}, fmt.Errorf("%w: %s", ErrInvalidMapKey, key)
	}
	return AlgebraicType{Kind: KindMap, Map: &MapType{Key: key, Value: value}}, nil
}

// IsOption reports whether t is the option sugar: a two-variant sum
// named {some, none} whose none variant carries the unit payload.
func (t AlgebraicType) IsOption() bool {
	if t.Kind != KindSum || t.Sum == nil || len(t.Sum.Variants) != 2 {
		return false
	}
	some, none := t.Sum.Variants[0], t.Sum.Variants[1]
	return some.Name == OptionSomeVariant && none.Name == OptionNoneVariant &&
		none.Type.Kind == KindProduct && none.Type.Product != nil && len(none.Type.Product.Elements) == 0
}

// OptionElem returns the payload type of an option. The second result
// is false if t is not an option.
func (t AlgebraicType) OptionElem() (AlgebraicType, bool) {
	if !t.IsOption() {
		return AlgebraicType{}, false
	}
	return t.Sum.Variants[0].Type, true
}

// EqualityComparable reports whether values of t support total
// equality, making the type usable as a map key or a primary-key
// column. Floating point and map types are excluded; products, sums
// and arrays are comparable when all their components are.
func (t AlgebraicType) EqualityComparable() bool {
	switch t.Kind {
	case KindF32, KindF64, KindMap:
		return false
	case KindProduct:
		for _, e := range t.Product.Elements {
			if !e.Type.EqualityComparable() {
				return false
			}
		}
		return true
	case KindSum:
		for _, v := range t.Sum.Variants {
			if !v.Type.EqualityComparable() {
				return false
			}
		}
		return true
	case KindArray:
		return t.Array.Elem.EqualityComparable()
	default:
		return true
	}
}

// Equal reports structural equality: same kind, same field and
// variant names in the same order, and recursively equal component
// types.
func (t AlgebraicType) Equal(other AlgebraicType) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindProduct:
		a, b := t.Product.Elements, other.Product.Elements
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i].Name != b[i].Name || !a[i].Type.Equal(b[i].Type) {
				return false
			}
		}
		return true
	case KindSum:
		a, b := t.Sum.Variants, other.Sum.Variants
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i].Name != b[i].Name || !a[i].Type.Equal(b[i].Type) {
				return false
			}
		}
		return true
	case KindArray:
		return t.Array.Elem.Equal(other.Array.Elem)
	case KindMap:
		return t.Map.Key.Equal(other.Map.Key) && t.Map.Value.Equal(other.Map.Value)
	default:
		return true
	}
}

// String renders the type in a compact, deterministic notation used
// by error messages and snapshots, e.g.
//
//	{identity: u64, name: option<string>, online: bool}
func (t AlgebraicType) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t AlgebraicType) write(b *strings.Builder) {
	switch t.Kind {
	case KindProduct:
		b.WriteString("{")
		for i, e := range t.Product.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			if e.Name != "" {
				b.WriteString(e.Name)
				b.WriteString(": ")
			}
			e.Type.write(b)
		}
		b.WriteString("}")
	case KindSum:
		if elem, ok := t.OptionElem(); ok {
			b.WriteString("option<")
			elem.write(b)
			b.WriteString(">")
			return
		}
		b.WriteString("(")
		for i, v := range t.Sum.Variants {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(v.Name)
			if !v.Type.Equal(Unit()) {
				b.WriteString("(")
				v.Type.write(b)
				b.WriteString(")")
			}
		}
		b.WriteString(")")
	case KindArray:
		b.WriteString("array<")
		t.Array.Elem.write(b)
		b.WriteString(">")
	case KindMap:
		b.WriteString("map<")
		t.Map.Key.write(b)
		b.WriteString(", ")
		t.Map.Value.write(b)
		b.WriteString(">")
	default:
		b.WriteString(t.Kind.String())
	}
}
