// Package namestore implements the wlang name store (spec.md §3, §4.3):
// a tree of crates, keyed by `::`-separated path segments, whose leaves
// are modules, structs, or functions. Resolution happens in two
// passes — Reserve creates every leaf with a placeholder payload so
// forward and cross-crate references all resolve structurally, then
// Materialize fills in each leaf's fields/signature once every name in
// every crate is known (spec.md §9's Design Note: "during phase 1,
// struct entries hold only an opaque IR type handle; phase 2 fills
// their fields").
//
// Grounded on original_source/src/codegen/namestore.rs's NameStore,
// generalized from its Rust HashMap-of-enum representation to a Go
// struct-of-maps, since Go has no closed sum type to play the role of
// NameStoreEntry.
package namestore

import (
	"github.com/wlab-lang/wlab/internal/ast"
	"github.com/wlab-lang/wlab/internal/diag"
	"github.com/wlab-lang/wlab/internal/types"
)

// EntryKind discriminates a Store leaf's variant.
type EntryKind int

const (
	ModuleEntry EntryKind = iota
	StructEntry
	FunctionEntry
)

// FieldInfo is one resolved struct field (spec.md §3).
type FieldInfo struct {
	Name   string
	Type   types.Type
	LineNo int
}

// StructInfo is a resolved struct entry (spec.md §3). IRType holds the
// opaque named struct type created when the struct is reserved, and is
// reset to nil (and stays nil) for an uninstantiable struct (one that transitively contains a `never`
// field) — internal/sema is the only package that interprets its
// concrete type (an ir.StructType), so namestore holds it as interface{}
// to avoid importing internal/ir.
type StructInfo struct {
	Fields []FieldInfo
	Packed bool
	LineNo int
	FileNo int
	IRType interface{}
}

// Instantiable reports whether every field of s is itself of an
// instantiable type (spec.md §3: "Struct ir_type is absent iff any
// field is itself uninstantiable"). Callers compute this once fields
// are resolved (Materialize) and, when it is false, set IRType to nil.
func (s *StructInfo) Instantiable() bool {
	for _, f := range s.Fields {
		if f.Type.IsNever() {
			return false
		}
	}
	return true
}

// FunctionSignature is a resolved function's parameter and return types.
type FunctionSignature struct {
	Params     []types.Type
	ReturnType types.Type
}

// FunctionInfo is a resolved function entry (spec.md §3, §4.3).
// MangledName is `_WL@crate::name`, or the bare name for `no_mangle`
// functions (spec.md §6's Name mangling rule). IRHandle is filled in
// during IR emission, analogous to StructInfo.IRType.
type FunctionInfo struct {
	Signature   FunctionSignature
	Visibility  ast.Visibility
	NoMangle    bool
	Intrinsic   string // non-empty for #[intrinsic(name)] functions
	MangledName string
	IRHandle    interface{}
}

// Entry is one leaf or interior node of the Store tree. Exactly one of
// Module, Struct, Function is non-nil, selected by Kind.
type Entry struct {
	Kind     EntryKind
	Module   *Store
	Struct   *StructInfo
	Function *FunctionInfo
}

// Store is a tree of named entries, the root holding one Module entry
// per crate.
type Store struct {
	entries map[string]*Entry
}

// New returns an empty Store.
func New() *Store {
	return &Store{entries: make(map[string]*Entry)}
}

// Reserve ensures the module named by a single path segment exists
// (creating it if necessary) and returns it, so that a crate's own
// structs and functions can be added under it regardless of the order
// crates are processed in (spec.md §4.3's Phase 1).
func (s *Store) Reserve(name string) *Store {
	e, ok := s.entries[name]
	if !ok {
		e = &Entry{Kind: ModuleEntry, Module: New()}
		s.entries[name] = e
	}
	return e.Module
}

// AddStruct inserts a new struct entry at key (a dotted path of module
// segments followed by the struct's own name), returning false if an
// entry with that name already exists at that level (spec.md §7's
// DuplicateDefinition).
func (s *Store) AddStruct(key []string, info *StructInfo) bool {
	return s.addItem(key, &Entry{Kind: StructEntry, Struct: info})
}

// AddFunction inserts a new function entry, returning false on
// duplicate name.
func (s *Store) AddFunction(key []string, info *FunctionInfo) bool {
	return s.addItem(key, &Entry{Kind: FunctionEntry, Function: info})
}

func (s *Store) addItem(key []string, item *Entry) bool {
	parent := s.resolveParent(key[:len(key)-1])
	name := key[len(key)-1]
	if _, exists := parent.entries[name]; exists {
		return false
	}
	parent.entries[name] = item
	return true
}

// resolveParent walks (creating as needed) the module chain named by
// segments, mirroring add_item's get_or_insert_with_mut loop.
func (s *Store) resolveParent(segments []string) *Store {
	cur := s
	for _, seg := range segments {
		cur = cur.Reserve(seg)
	}
	return cur
}

// Get resolves a span-tagged path against the store (spec.md §4.3),
// returning UndefinedItem if the first segment is unbound, NoItem if a
// later segment is unbound, and NotModule if an intermediate segment
// names a non-module entry.
func (s *Store) Get(path ast.Path) (*Entry, *diag.Diagnostic) {
	segs := path.Segments
	parent := s
	var parentName *ast.Ident
	for _, seg := range segs[:len(segs)-1] {
		e, ok := parent.entries[seg.Name]
		if !ok {
			return nil, noItem(parentName, seg)
		}
		if e.Kind != ModuleEntry {
			return nil, notModule(seg)
		}
		parent = e.Module
		segCopy := seg
		parentName = &segCopy
	}
	last := segs[len(segs)-1]
	e, ok := parent.entries[last.Name]
	if !ok {
		return nil, noItem(parentName, last)
	}
	return e, nil
}

// GetInCrate resolves a bare item name inside one specific crate
// module, used by the std-crate intrinsic lookup (spec.md §4.6) where
// the crate is already known and only the span of the item name itself
// matters for diagnostics.
func (s *Store) GetInCrate(crateName string, itemName ast.Ident) (*Entry, *diag.Diagnostic) {
	crateEntry, ok := s.entries[crateName]
	if !ok || crateEntry.Kind != ModuleEntry {
		return nil, undefinedItem(itemName)
	}
	e, ok := crateEntry.Module.entries[itemName.Name]
	if !ok {
		return nil, undefinedItem(itemName)
	}
	return e, nil
}

// AsStruct returns e's StructInfo, or nil if e is not a struct entry.
func (e *Entry) AsStruct() *StructInfo {
	if e == nil || e.Kind != StructEntry {
		return nil
	}
	return e.Struct
}

// AsFunction returns e's FunctionInfo, or nil if e is not a function
// entry.
func (e *Entry) AsFunction() *FunctionInfo {
	if e == nil || e.Kind != FunctionEntry {
		return nil
	}
	return e.Function
}

func noItem(parent *ast.Ident, item ast.Ident) *diag.Diagnostic {
	if parent == nil {
		return diag.Newf("UndefinedItem", item.Span, "undefined item %q", item.Name)
	}
	return diag.Newf("NoItem", item.Span, "no item %q in %q", item.Name, parent.Name)
}

func notModule(seg ast.Ident) *diag.Diagnostic {
	return diag.Newf("NotModule", seg.Span, "%q is not a module", seg.Name)
}

func undefinedItem(item ast.Ident) *diag.Diagnostic {
	return diag.Newf("UndefinedItem", item.Span, "undefined item %q", item.Name)
}
