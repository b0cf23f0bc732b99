package ir

import "tinygo.org/x/go-llvm"

// DebugBuilder is the DWARF sub-facade spec.md §6 calls for: compile
// unit, file, subprogram, subroutine type, basic type, lexical block,
// and location construction. Grounded directly on
// original_source/wllvm/src/debug_info.rs's DIBuilder, down to method
// names and the (name, sizeBits, encoding, flags) basic_type signature.
type DebugBuilder struct {
	raw     llvm.DIBuilder
	ctx     *Context
	modName string
}

// NewDebugBuilder creates a DWARF builder over m, mirroring wllvm's
// DIBuilder::new(module).
func (c *Context) NewDebugBuilder(m *Module) *DebugBuilder {
	return &DebugBuilder{raw: llvm.NewDIBuilder(m.raw), ctx: c, modName: m.raw.Name()}
}

// Dispose releases the DWARF builder.
func (d *DebugBuilder) Dispose() { d.raw.Destroy() }

// Finalize completes debug info construction; must run once per module
// after every function's debug info has been attached, mirroring
// DIBuilder::finalize.
func (d *DebugBuilder) Finalize() { d.raw.Finalize() }

// DIFile, DIScope, DISubprogram, DISubroutineType, DIBasicType,
// DILexicalBlock, DILocation, DICompileUnit all wrap an opaque LLVM
// metadata node; wlang's debug-info scope stack (spec.md §4.3's phase
// 3c) only ever needs to thread these through, never inspect them.
type (
	DIFile           struct{ raw llvm.Metadata }
	DIScope          struct{ raw llvm.Metadata }
	DISubprogram     struct{ raw llvm.Metadata }
	DISubroutineType struct{ raw llvm.Metadata }
	DIBasicType      struct{ raw llvm.Metadata }
	DILexicalBlock   struct{ raw llvm.Metadata }
	DILocation       struct{ raw llvm.Metadata }
	DICompileUnit    struct{ raw llvm.Metadata }
)

// AsScope upcasts any debug-info node that can act as a lexical scope
// (file, subprogram, lexical block, compile unit) to DIScope, mirroring
// wllvm's blanket DIScope conversions.
func (f DIFile) AsScope() DIScope         { return DIScope{f.raw} }
func (s DISubprogram) AsScope() DIScope   { return DIScope{s.raw} }
func (b DILexicalBlock) AsScope() DIScope { return DIScope{b.raw} }
func (u DICompileUnit) AsScope() DIScope  { return DIScope{u.raw} }

// CompileUnit creates the single per-module DICompileUnit, mirroring
// DIBuilder::build_compile_unit (collapsed from its Rust builder-struct
// form into one call since wlang fills in every optional field the same
// way every time: full emission, no split DWARF).
func (d *DebugBuilder) CompileUnit(file DIFile, producer string, optimized bool, flags string) DICompileUnit {
	return DICompileUnit{raw: d.raw.CreateCompileUnit(llvm.DWARFCompileUnit{
		Language:              llvm.DWARFLangC99, // wlang has no language code of its own in DWARF's registry.
		File:                  file.raw,
		Producer:              producer,
		Optimized:             optimized,
		Flags:                 flags,
		RuntimeVersion:        0,
		EmissionKind:          llvm.DWARFEmissionFull,
		SplitName:             "",
		DWOId:                 0,
		SplitDebugInlining:    true,
		DebugInfoForProfiling: false,
		NameTableKind:         llvm.DWARFNameTableKindDefault,
		RangesBaseAddress:     false,
		Sysroot:               "",
		SDK:                   "",
	})}
}

// File creates a DIFile for one source file, mirroring
// DIBuilder::file.
func (d *DebugBuilder) File(basename, directory string) DIFile {
	return DIFile{raw: d.raw.CreateFile(basename, directory)}
}

// SubroutineType creates a function's debug-info type, mirroring
// DIBuilder::subroutine_type. params[0] is the return type
// (LLVM/DWARF's convention; nil for a void/unit return).
func (d *DebugBuilder) SubroutineType(file DIFile, params []DIBasicType) DISubroutineType {
	raws := make([]llvm.Metadata, len(params))
	for i, p := range params {
		raws[i] = p.raw
	}
	return DISubroutineType{raw: d.raw.CreateSubroutineType(llvm.DISubroutineType{
		File:       file.raw,
		Parameters: raws,
		Flags:      0,
	})}
}

// DWARF ATE_* encoding codes, the handful BasicType's callers need.
const (
	DWEncodingBoolean = 0x02
	DWEncodingSigned  = 0x05
	DWEncodingUnsigned = 0x07
)

// BasicType creates debug info for a primitive type, mirroring
// DIBuilder::basic_type; encoding is a DWARF ATE_* code (e.g.
// DW_ATE_signed for wlang's `iN`, DW_ATE_boolean for `bool`).
func (d *DebugBuilder) BasicType(name string, sizeBits uint64, encoding uint) DIBasicType {
	return DIBasicType{raw: d.raw.CreateBasicType(llvm.DIBasicType{
		Name:        name,
		SizeInBits:  sizeBits,
		Encoding:    encoding,
	})}
}

// Subprogram attaches debug info to a defined function, mirroring
// DIBuilder::subprogram.
func (d *DebugBuilder) Subprogram(scope DIScope, name, linkageName string, file DIFile, lineNo, scopeLineNo int, ty DISubroutineType, localToUnit, isDefinition bool) DISubprogram {
	return DISubprogram{raw: d.raw.CreateFunction(scope.raw, llvm.DIFunction{
		Name:         name,
		LinkageName:  linkageName,
		File:         file.raw,
		Line:         lineNo,
		Type:         ty.raw,
		LocalToUnit:  localToUnit,
		IsDefinition: isDefinition,
		ScopeLine:    scopeLineNo,
		Optimized:    false,
	})}
}

// LexicalBlock creates a nested debug scope for a code block, mirroring
// LLVM's DIBuilder createLexicalBlock (wllvm's own distillation omits
// it, but the same DIBuilder owns it; wlang's lexical scope stack needs
// one push per CodeBlock, spec.md §4.3).
func (d *DebugBuilder) LexicalBlock(scope DIScope, file DIFile, line, col int) DILexicalBlock {
	return DILexicalBlock{raw: d.raw.CreateLexicalBlock(scope.raw, file.raw, line, col)}
}

// DebugLocation builds a source-location metadata node attached to every IR
// instruction emitted under scope, mirroring wllvm's
// Context::debug_location.
func (c *Context) DebugLocation(line, col int, scope DIScope) DILocation {
	return DILocation{raw: c.raw.CreateDebugLocation(line, col, scope.raw, llvm.Metadata{})}
}

// SetCurrentDebugLocation attaches loc to every instruction b builds
// until changed again, so phase 3c only needs to set this once per
// statement rather than threading it through each builder call.
func (b *Builder) SetCurrentDebugLocation(loc DILocation) {
	b.raw.SetCurrentDebugLocation(loc.raw)
}

// SetSubprogram attaches sp as fn's debug-info attachment, required
// before any instruction in fn's body can carry a debug location.
func (v Value) SetSubprogram(sp DISubprogram) { v.raw.SetSubprogram(sp.raw) }
