package namestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlab-lang/wlab/internal/ast"
	"github.com/wlab-lang/wlab/internal/types"
)

func ident(name string) ast.Ident { return ast.Ident{Name: name} }

func path(segs ...string) ast.Path {
	p := ast.Path{}
	for _, s := range segs {
		p.Segments = append(p.Segments, ident(s))
	}
	return p
}

func TestReserve_CreatesAndReusesModule(t *testing.T) {
	s := New()
	crate1 := s.Reserve("app")
	crate2 := s.Reserve("app")
	assert.Same(t, crate1, crate2)
}

func TestAddStruct_AndGet(t *testing.T) {
	s := New()
	s.Reserve("app")
	info := &StructInfo{Fields: []FieldInfo{{Name: "x", Type: types.IntType(32)}}}
	ok := s.AddStruct([]string{"app", "Point"}, info)
	require.True(t, ok)

	entry, err := s.Get(path("app", "Point"))
	require.Nil(t, err)
	got := entry.AsStruct()
	require.NotNil(t, got)
	assert.Equal(t, "x", got.Fields[0].Name)
}

func TestAddItem_DuplicateFails(t *testing.T) {
	s := New()
	s.Reserve("app")
	ok1 := s.AddFunction([]string{"app", "main"}, &FunctionInfo{})
	ok2 := s.AddFunction([]string{"app", "main"}, &FunctionInfo{})
	assert.True(t, ok1)
	assert.False(t, ok2)
}

func TestGet_NoItem(t *testing.T) {
	s := New()
	s.Reserve("app")
	_, err := s.Get(path("app", "missing"))
	require.NotNil(t, err)
	assert.Equal(t, "NoItem", err.Category)
}

func TestGet_UndefinedTopLevelCrate(t *testing.T) {
	s := New()
	_, err := s.Get(path("nope"))
	require.NotNil(t, err)
	assert.Equal(t, "UndefinedItem", err.Category)
}

func TestGet_NotModule(t *testing.T) {
	s := New()
	s.Reserve("app")
	require.True(t, s.AddFunction([]string{"app", "f"}, &FunctionInfo{}))
	_, err := s.Get(path("app", "f", "g"))
	require.NotNil(t, err)
	assert.Equal(t, "NotModule", err.Category)
}

func TestGetInCrate(t *testing.T) {
	s := New()
	s.Reserve("std")
	require.True(t, s.AddFunction([]string{"std", "exit"}, &FunctionInfo{Intrinsic: "exit"}))

	entry, err := s.GetInCrate("std", ident("exit"))
	require.Nil(t, err)
	fn := entry.AsFunction()
	require.NotNil(t, fn)
	assert.Equal(t, "exit", fn.Intrinsic)

	_, err = s.GetInCrate("std", ident("missing"))
	require.NotNil(t, err)
	assert.Equal(t, "UndefinedItem", err.Category)
}

func TestStructInfo_Instantiable(t *testing.T) {
	ok := &StructInfo{Fields: []FieldInfo{{Name: "x", Type: types.IntType(32)}}}
	assert.True(t, ok.Instantiable())

	bad := &StructInfo{Fields: []FieldInfo{{Name: "x", Type: types.NeverType}}}
	assert.False(t, bad.Instantiable())
}

func TestAsStruct_AsFunction_NilSafety(t *testing.T) {
	var e *Entry
	assert.Nil(t, e.AsStruct())
	assert.Nil(t, e.AsFunction())

	s := New()
	s.Reserve("app")
	entry, err := s.Get(path("app"))
	require.Nil(t, err)
	assert.Nil(t, entry.AsStruct())
	assert.Nil(t, entry.AsFunction())
}
