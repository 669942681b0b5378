package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct(t *testing.T) {
	t.Run("named fields", func(t *testing.T) {
		p, err := Product(
			Field("identity", U64()),
			Field("name", Option(String())),
			Field("online", Bool()),
		)
		require.NoError(t, err)
		require.Equal(t, KindProduct, p.Kind)
		require.Len(t, p.Product.Elements, 3)
		assert.Equal(t, "identity", p.Product.Elements[0].Name)
		assert.Equal(t, KindU64, p.Product.Elements[0].Type.Kind)
	})

	t.Run("duplicate field name fails", func(t *testing.T) {
		_, err := Product(Field("id", U64()), Field("id", String()))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicateFieldName)
		assert.Contains(t, err.Error(), `"id"`)
	})

	t.Run("positional elements never collide", func(t *testing.T) {
		p, err := Product(Positional(U32()), Positional(U32()))
		require.NoError(t, err)
		assert.Len(t, p.Product.Elements, 2)
	})

	t.Run("unit is the empty product", func(t *testing.T) {
		u := Unit()
		assert.Equal(t, KindProduct, u.Kind)
		assert.Empty(t, u.Product.Elements)
	})
}

func TestSum(t *testing.T) {
	t.Run("duplicate variant name fails", func(t *testing.T) {
		_, err := Sum(Variant("a", Unit()), Variant("a", U8()))
		assert.ErrorIs(t, err, ErrDuplicateVariantName)
	})

	t.Run("variant order preserved", func(t *testing.T) {
		s, err := Sum(Variant("b", Unit()), Variant("a", Unit()))
		require.NoError(t, err)
		assert.Equal(t, "b", s.Sum.Variants[0].Name)
		assert.Equal(t, "a", s.Sum.Variants[1].Name)
	})
}

func TestOption(t *testing.T) {
	opt := Option(String())

	t.Run("is sugar for a two-variant sum", func(t *testing.T) {
		require.Equal(t, KindSum, opt.Kind)
		require.Len(t, opt.Sum.Variants, 2)
		assert.Equal(t, OptionSomeVariant, opt.Sum.Variants[0].Name)
		assert.Equal(t, OptionNoneVariant, opt.Sum.Variants[1].Name)
	})

	t.Run("IsOption and OptionElem", func(t *testing.T) {
		assert.True(t, opt.IsOption())
		elem, ok := opt.OptionElem()
		require.True(t, ok)
		assert.Equal(t, KindString, elem.Kind)
	})

	t.Run("hand-built equivalent sum is an option", func(t *testing.T) {
		s, err := Sum(Variant("some", String()), Variant("none", Unit()))
		require.NoError(t, err)
		assert.True(t, s.IsOption())
		assert.True(t, s.Equal(opt))
	})

	t.Run("other sums are not options", func(t *testing.T) {
		s, err := Sum(Variant("ok", U8()), Variant("err", String()))
		require.NoError(t, err)
		assert.False(t, s.IsOption())
		_, ok := s.OptionElem()
		assert.False(t, ok)
	})
}

func TestMap(t *testing.T) {
	t.Run("comparable key", func(t *testing.T) {
		m, err := Map(String(), U64())
		require.NoError(t, err)
		assert.Equal(t, KindMap, m.Kind)
	})

	t.Run("float key fails", func(t *testing.T) {
		_, err := Map(F64(), U64())
		assert.ErrorIs(t, err, ErrInvalidMapKey)
	})

	t.Run("map key fails", func(t *testing.T) {
		inner, err := Map(U8(), U8())
		require.NoError(t, err)
		_, err = Map(inner, U64())
		assert.ErrorIs(t, err, ErrInvalidMapKey)
	})

	t.Run("product key with float field fails", func(t *testing.T) {
		p, err := Product(Field("x", F32()))
		require.NoError(t, err)
		_, err = Map(p, U64())
		assert.ErrorIs(t, err, ErrInvalidMapKey)
	})
}

func TestEqualityComparable(t *testing.T) {
	cases := []struct {
		name string
		typ  AlgebraicType
		want bool
	}{
		{"u64", U64(), true},
		{"string", String(), true},
		{"bytes", Bytes(), true},
		{"f32", F32(), false},
		{"f64", F64(), false},
		{"array of u8", Array(U8()), true},
		{"array of f64", Array(F64()), false},
		{"option of string", Option(String()), true},
		{"option of f32", Option(F32()), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.typ.EqualityComparable())
		})
	}
}

func TestEqual(t *testing.T) {
	row := func(t *testing.T) AlgebraicType {
		t.Helper()
		p, err := Product(Field("id", U64()), Field("name", Option(String())))
		require.NoError(t, err)
		return p
	}

	t.Run("structurally identical products", func(t *testing.T) {
		assert.True(t, row(t).Equal(row(t)))
	})

	t.Run("field name matters", func(t *testing.T) {
		a, err := Product(Field("id", U64()))
		require.NoError(t, err)
		b, err := Product(Field("identity", U64()))
		require.NoError(t, err)
		assert.False(t, a.Equal(b))
	})

	t.Run("field order matters", func(t *testing.T) {
		a, err := Product(Field("a", U8()), Field("b", U16()))
		require.NoError(t, err)
		b, err := Product(Field("b", U16()), Field("a", U8()))
		require.NoError(t, err)
		assert.False(t, a.Equal(b))
	})

	t.Run("kind mismatch", func(t *testing.T) {
		assert.False(t, U64().Equal(I64()))
		assert.False(t, Array(U8()).Equal(Bytes()))
	})
}

func TestString(t *testing.T) {
	p, err := Product(
		Field("identity", U64()),
		Field("name", Option(String())),
		Field("online", Bool()),
	)
	require.NoError(t, err)
	assert.Equal(t, "{identity: u64, name: option<string>, online: bool}", p.String())

	m, err := Map(String(), Array(U8()))
	require.NoError(t, err)
	assert.Equal(t, "map<string, array<u8>>", m.String())

	s, err := Sum(Variant("ok", U8()), Variant("closed", Unit()))
	require.NoError(t, err)
	assert.Equal(t, "(ok(u8) | closed)", s.String())
}
