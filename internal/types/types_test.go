package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrimitive(t *testing.T) {
	cases := []struct {
		name string
		want Type
	}{
		{"str", StrType},
		{"bool", BoolType},
		{"i32", IntType(32)},
		{"i1", IntType(1)},
		{"i64", IntType(64)},
	}
	for _, c := range cases {
		got, ok := ParsePrimitive(c.name)
		assert.True(t, ok, c.name)
		assert.True(t, got.Equal(c.want), "%s: got %s", c.name, got)
	}
}

func TestParsePrimitive_RejectsUnknown(t *testing.T) {
	for _, name := range []string{"Point", "i", "iX", "i-1", "unit", "i0"} {
		_, ok := ParsePrimitive(name)
		assert.False(t, ok, name)
	}
}

func TestType_Equal(t *testing.T) {
	assert.True(t, IntType(32).Equal(IntType(32)))
	assert.False(t, IntType(32).Equal(IntType(64)))
	assert.True(t, StructRef("crate::Point").Equal(StructRef("crate::Point")))
	assert.False(t, StructRef("crate::Point").Equal(StructRef("crate::Line")))
	assert.False(t, IntType(32).Equal(BoolType))
}

func TestType_NeverIsSubtypeOfEverything(t *testing.T) {
	assert.True(t, NeverType.Is(IntType(32)))
	assert.True(t, NeverType.Is(BoolType))
	assert.True(t, NeverType.Is(StructRef("x::Y")))
	assert.True(t, NeverType.Is(NeverType))
}

func TestType_IsRequiresEqualityWhenNotNever(t *testing.T) {
	assert.True(t, IntType(32).Is(IntType(32)))
	assert.False(t, IntType(32).Is(IntType(64)))
	assert.False(t, IntType(32).Is(NeverType))
}

func TestJoin(t *testing.T) {
	r, ok := Join(NeverType, IntType(32))
	assert.True(t, ok)
	assert.True(t, r.Equal(IntType(32)))

	r, ok = Join(IntType(32), NeverType)
	assert.True(t, ok)
	assert.True(t, r.Equal(IntType(32)))

	r, ok = Join(NeverType, NeverType)
	assert.True(t, ok)
	assert.True(t, r.IsNever())

	r, ok = Join(BoolType, IntType(32))
	assert.False(t, ok)

	r, ok = Join(IntType(32), IntType(32))
	assert.True(t, ok)
	assert.True(t, r.Equal(IntType(32)))
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "i32", IntType(32).String())
	assert.Equal(t, "bool", BoolType.String())
	assert.Equal(t, "str", StrType.String())
	assert.Equal(t, "()", UnitType.String())
	assert.Equal(t, "never", NeverType.String())
	assert.Equal(t, "crate::Point", StructRef("crate::Point").String())
}
