// Package sema implements the wlang semantic analyzer and IR emitter
// (spec.md §4.3-§4.6): name resolution and type checking across every
// crate in a compile, followed by per-function IR and DWARF lowering.
//
// Grounded on original_source/src/codegen/codegen_context.rs's
// CodegenContext/Crate split: one Analyzer owns a single internal/ir
// Context and a single internal/namestore Store shared by every crate
// (so cross-crate struct and function references resolve structurally),
// while each crate gets its own internal/ir Module. Value, RValue, and
// MutValue are defined here rather than in internal/types because they
// pair a semantic Type with an ir.Value handle — putting them in
// internal/types would make that package depend on internal/ir, which
// the lexer/parser/types layer has no other reason to know about.
package sema

import (
	"fmt"

	"github.com/wlab-lang/wlab/internal/ast"
	"github.com/wlab-lang/wlab/internal/diag"
	"github.com/wlab-lang/wlab/internal/ir"
	"github.com/wlab-lang/wlab/internal/namestore"
	"github.com/wlab-lang/wlab/internal/token"
	"github.com/wlab-lang/wlab/internal/types"
)

// Crate is one compile unit: a parsed module plus the file it came
// from, used for diagnostics and debug info (spec.md §9's
// lifetime-borrow note: the source buffer outlives the whole compile).
type Crate struct {
	File   *token.File
	Module *ast.Module

	// Name is filled in during Reserve from the crate's
	// #![declare_crate(name)] attribute.
	Name string

	// IRModule is created the moment Name resolves, since Materialize
	// must be able to add this crate's function declarations to it
	// (spec.md §4.3's phase 2 creates function values, not just
	// signatures) before any crate's body is lowered.
	IRModule *ir.Module
}

// ValueKind discriminates Value's two forms (spec.md glossary:
// "RValue / MutValue. A value semantically usable as a computed result
// vs. an addressable location supporting store").
type ValueKind int

const (
	RValueKind ValueKind = iota
	MutValueKind
)

// Value is the generic lowering result, mirroring the original's
// GenericValue<RValue | MutValue>. IR is the value itself for an
// RValue, or the address for a MutValue; a never-typed RValue carries
// an invalid IR handle (no value exists, spec.md §4.4's "optionally
// None-valued when the expression is of type never").
type Value struct {
	Kind ValueKind
	Type types.Type
	IR   ir.Value
}

// RValue builds a computed-result Value.
func RValue(t types.Type, v ir.Value) Value { return Value{Kind: RValueKind, Type: t, IR: v} }

// MutValue builds an addressable-location Value; v holds the pointer.
func MutValue(t types.Type, ptr ir.Value) Value { return Value{Kind: MutValueKind, Type: t, IR: ptr} }

// NeverValue is the result of a diverging expression: typed never, no
// IR realization (spec.md §9: "never... has no IR realization").
var NeverValue = Value{Kind: RValueKind, Type: types.NeverType}

// IsNever reports whether v's static type is never.
func (v Value) IsNever() bool { return v.Type.IsNever() }

// ToRValue loads a MutValue through an automatic load, mirroring the
// original's GenericValue::into_rvalue. An already-RValue Value is
// returned unchanged.
func (v Value) ToRValue(f *funcLowering) Value {
	if v.Kind == RValueKind {
		return v
	}
	loaded := f.b.Load(f.a.llvmType(v.Type), v.IR, "")
	return RValue(v.Type, loaded)
}

// Analyzer drives the whole multi-crate compile: the Reserve and
// Materialize passes run once across every crate before any crate's
// LowerBodies runs (spec.md §5: "Each crate is processed to completion
// before the next" governs only body lowering — reserve/materialize
// must see every crate's top-level names first for forward and
// cross-crate references to resolve).
type Analyzer struct {
	ctx   *ir.Context
	names *namestore.Store

	crates []*Crate

	mainCrate string
	mainSpan  token.Span

	// homeModule and externs track, per function, which module holds its
	// definition and which other modules already carry an external
	// declaration for it, so a cross-crate call only ever declares one
	// extern stub per (function, caller module) pair (spec.md §5's
	// per-crate Module split, generalized since the original's
	// single-shared-module codegen has no equivalent of a cross-module
	// call to ground this on).
	homeModule map[*namestore.FunctionInfo]*ir.Module
	externs    map[*namestore.FunctionInfo]map[*ir.Module]ir.Value

	errs  diag.Error
	warns []*diag.Diagnostic
}

// NewAnalyzer creates an Analyzer with a fresh IR context and an empty
// name store.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		ctx:        ir.NewContext(),
		names:      namestore.New(),
		homeModule: make(map[*namestore.FunctionInfo]*ir.Module),
		externs:    make(map[*namestore.FunctionInfo]map[*ir.Module]ir.Value),
	}
}

// Dispose releases the analyzer's IR context, invalidating every
// ir.Module it produced.
func (a *Analyzer) Dispose() { a.ctx.Dispose() }

// errf appends a formatted diagnostic and returns it, mirroring
// internal/core/compile's compiler.errf pattern of returning the error
// so call sites can `return nil, a.errf(...)` in one line.
func (a *Analyzer) errf(d *diag.Diagnostic) *diag.Diagnostic {
	a.errs = diag.Append(a.errs, d)
	return d
}

func (a *Analyzer) warn(d *diag.Diagnostic) {
	a.warns = append(a.warns, d)
}

// CrateResult is the per-crate output of a successful compile: the IR
// module plus flushed warnings (spec.md §5's ordering guarantee:
// "warnings... are collected into a per-file buffer and flushed at
// crate end after errors are known to be absent").
type CrateResult struct {
	Crate    *Crate
	Module   *ir.Module
	Warnings []*diag.Diagnostic
}

// Result is the outcome of analyzing every crate passed to Analyze.
type Result struct {
	Crates []*CrateResult
}

// Analyze runs phase 1 (Reserve) and phase 2 (Materialize) across every
// crate, then phase 3 (LowerBodies) per crate in order (spec.md §4.3).
// It aborts and returns the accumulated diagnostics as soon as any phase
// produces an error, matching spec.md §7's "any error aborts the
// current crate's pipeline; errors across independent crates are
// independent (but the first aborts the driver)".
func (a *Analyzer) Analyze(crates []*Crate) (*Result, diag.Error) {
	a.crates = crates

	for _, c := range crates {
		a.reserveCrate(c)
	}
	if a.errs != nil {
		return nil, a.errs
	}

	for _, c := range crates {
		a.materializeCrate(c)
	}
	if a.errs != nil {
		return nil, a.errs
	}

	res := &Result{}
	for _, c := range crates {
		mod := a.lowerCrate(c)
		if a.errs != nil {
			return nil, a.errs
		}
		res.Crates = append(res.Crates, &CrateResult{Crate: c, Module: mod, Warnings: a.warns})
		a.warns = nil
	}

	if a.mainCrate != "" {
		if err := a.generateEntryPoint(res); err != nil {
			return nil, diag.Append(a.errs, err)
		}
	}

	return res, nil
}

// llvmType maps a semantic Type to its IR representation, mirroring
// original_source/src/codegen/types.rs's Type::get_llvm_type. Struct
// types resolve their opaque named-struct handle out of the name
// store, which phase 2 has already populated via ir.Type.SetBody.
func (a *Analyzer) llvmType(t types.Type) ir.Type {
	switch t.Kind {
	case types.Int:
		return a.ctx.IntType(int(t.Bits))
	case types.Bool:
		return a.ctx.IntType(1)
	case types.Str:
		return a.strType()
	case types.Unit:
		return a.ctx.StructType(nil, false)
	case types.StructType:
		info := a.lookupStruct(t.Path)
		return info.IRType.(ir.Type)
	default:
		panic(fmt.Sprintf("sema: no IR type for %s", t))
	}
}

// fnIRType recomputes a function's IR type from its resolved signature,
// used by call-lowering to drive Builder.Call without needing to cache
// the Type handle separately from the Value handle.
func (a *Analyzer) fnIRType(sig namestore.FunctionSignature) ir.Type {
	params := make([]ir.Type, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = a.llvmType(p)
	}
	return a.ctx.FnType(a.returnIRType(sig.ReturnType), params, false)
}

// returnIRType computes a function's actual LLVM return type. never has
// no IR realization (llvmType panics on it), but a function can still be
// declared to return never (#[intrinsic(exit)] and anything that always
// diverges) and LLVM requires every function to return something, so
// such a function's real IR return type falls back to unit; NoReturn is
// attached separately as an attribute to tell the optimizer the value is
// never actually produced, mirroring Type::never.llvm_type() returning
// None in the original and its callers falling back to core_types.unit.
func (a *Analyzer) returnIRType(t types.Type) ir.Type {
	if t.IsNever() {
		return a.ctx.StructType(nil, false)
	}
	return a.llvmType(t)
}

// calleeIn returns info's callable Value as seen from mod: its home
// module's Value directly, or a cached (creating if absent) external
// declaration in mod otherwise, mirroring how a linker resolves a
// mangled name across separately compiled object files.
func (a *Analyzer) calleeIn(mod *ir.Module, info *namestore.FunctionInfo) ir.Value {
	home := a.homeModule[info]
	fnVal := info.IRHandle.(ir.Value)
	if home == mod {
		return fnVal
	}
	if cached, ok := a.externs[info][mod]; ok {
		return cached
	}
	decl := mod.AddFunction(info.MangledName, a.fnIRType(info.Signature))
	decl.SetLinkage(ir.External)
	if a.externs[info] == nil {
		a.externs[info] = make(map[*ir.Module]ir.Value)
	}
	a.externs[info][mod] = decl
	return decl
}

// strType is wlang's `str` representation: a {ptr, i64 length} pair,
// mirroring the original's CoreTypes::str.
func (a *Analyzer) strType() ir.Type {
	return a.ctx.StructType([]ir.Type{a.ctx.PtrType(), a.ctx.IntType(64)}, false)
}

// lookupStruct resolves a fully qualified "crate::Name" path to its
// StructInfo, panicking if absent — by the time lowering runs, every
// struct type a Type value can name has already been validated to
// resolve during materialization.
func (a *Analyzer) lookupStruct(path string) *namestore.StructInfo {
	segs := splitPath(path)
	entry, err := a.names.Get(pathOf(segs))
	if err != nil {
		panic(fmt.Sprintf("sema: %s: %v", path, err))
	}
	info := entry.AsStruct()
	if info == nil {
		panic(fmt.Sprintf("sema: %s is not a struct", path))
	}
	return info
}

func splitPath(path string) []string {
	var segs []string
	start := 0
	for i := 0; i+1 < len(path); i++ {
		if path[i] == ':' && path[i+1] == ':' {
			segs = append(segs, path[start:i])
			start = i + 2
			i++
		}
	}
	segs = append(segs, path[start:])
	return segs
}

func pathOf(segs []string) ast.Path {
	p := ast.Path{Segments: make([]ast.Ident, len(segs))}
	for i, s := range segs {
		p.Segments[i] = ast.Ident{Name: s}
	}
	return p
}
