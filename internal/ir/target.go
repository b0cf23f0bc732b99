package ir

import "tinygo.org/x/go-llvm"

// OptLevel mirrors wllvm's target::OptLevel, backing the driver's
// -O0..-O3 flag (spec.md §6).
type OptLevel int

const (
	OptNone OptLevel = iota
	OptLess
	OptDefault
	OptAggressive
)

func (o OptLevel) llvm() llvm.CodeGenOptLevel {
	switch o {
	case OptNone:
		return llvm.CodeGenLevelNone
	case OptLess:
		return llvm.CodeGenLevelLess
	case OptAggressive:
		return llvm.CodeGenLevelAggressive
	default:
		return llvm.CodeGenLevelDefault
	}
}

// FileType selects the TargetMachine's emission format.
type FileType int

const (
	AssemblyFile FileType = iota
	ObjectFile
)

func (f FileType) llvm() llvm.CodeGenFileType {
	if f == AssemblyFile {
		return llvm.AssemblyFile
	}
	return llvm.ObjectFile
}

// HostTriple returns the triple of the machine running the compiler,
// mirroring the go-vslc transform's genTargetTriple fallback
// (llvm.DefaultTargetTriple() when no cross-target was requested).
// internal/linktest uses this rather than a hardcoded triple so its
// link+run scenarios produce a binary the host can actually execute.
func HostTriple() string { return llvm.DefaultTargetTriple() }

// InitializeAllTargets registers every backend LLVM was built with, so
// that wlang can cross-compile to any triple the driver names (spec.md
// §6's "target machine: triple, CPU, features"). Grounded on both
// wllvm's Target::initialize_native and the go-vslc transform's
// InitializeAllTargetInfos/MCs/AsmParsers/AsmPrinters/Targets sequence,
// the latter chosen over the former since the driver accepts an
// arbitrary triple rather than only the host's.
func InitializeAllTargets() {
	llvm.InitializeAllTargetInfos()
	llvm.InitializeAllTargetMCs()
	llvm.InitializeAllAsmParsers()
	llvm.InitializeAllAsmPrinters()
	llvm.InitializeAllTargets()
}

// Target wraps an LLVM backend target descriptor, mirroring wllvm's
// Target.
type Target struct{ raw llvm.Target }

// TargetFromTriple resolves triple (e.g. "x86_64-unknown-linux-gnu") to
// its backend target, mirroring wllvm's Target::from_triple and the
// go-vslc transform's GetTargetFromTriple call.
func TargetFromTriple(triple string) (Target, error) {
	t, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return Target{}, err
	}
	return Target{raw: t}, nil
}

// TargetMachine wraps a configured code generator for one target,
// mirroring wllvm's TargetMachine.
type TargetMachine struct{ raw llvm.TargetMachine }

// CreateTargetMachine configures a code generator for triple/cpu/
// features at the given optimization level, mirroring wllvm's
// Target::create_target_machine. reloc and codeModel are fixed to
// Default/Default, matching the go-vslc transform's RelocDefault /
// CodeModelDefault, since wlang never needs position-independent or
// large-code-model output.
func (t Target) CreateTargetMachine(triple, cpu, features string, opt OptLevel) TargetMachine {
	return TargetMachine{raw: t.raw.CreateTargetMachine(
		triple, cpu, features,
		opt.llvm(),
		llvm.RelocDefault,
		llvm.CodeModelDefault,
	)}
}

// Dispose releases the target machine.
func (tm TargetMachine) Dispose() { tm.raw.Dispose() }

// Triple returns the machine's target triple string, used to stamp a
// module's target metadata before emission.
func (tm TargetMachine) Triple() string { return tm.raw.Triple() }

// SetDataLayoutAndTriple stamps m with tm's data layout and triple, a
// prerequisite LLVM imposes before EmitToBuffer produces valid output,
// mirroring the go-vslc transform's m.SetDataLayout/m.SetTarget calls.
func (tm TargetMachine) SetDataLayoutAndTriple(m *Module) {
	td := tm.raw.CreateTargetData()
	defer td.Dispose()
	m.raw.SetDataLayout(td.String())
	m.raw.SetTarget(tm.raw.Triple())
}

// EmitToBuffer compiles m to assembly or an object file in memory,
// mirroring the go-vslc transform's tm.EmitToMemoryBuffer call; the
// driver writes the returned bytes straight to the requested output
// file ("<crate>.o" / "<crate>.asm").
func (tm TargetMachine) EmitToBuffer(m *Module, ft FileType) ([]byte, error) {
	buf, err := tm.raw.EmitToMemoryBuffer(m.raw, ft.llvm())
	if err != nil {
		return nil, err
	}
	defer buf.Dispose()
	bytes := buf.Bytes()
	out := make([]byte, len(bytes))
	copy(out, bytes)
	return out, nil
}
