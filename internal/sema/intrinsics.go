package sema

import (
	"github.com/wlab-lang/wlab/internal/ast"
	"github.com/wlab-lang/wlab/internal/diag"
	"github.com/wlab-lang/wlab/internal/ir"
	"github.com/wlab-lang/wlab/internal/namestore"
)

// lowerIntrinsic emits the hand-written body for a #[intrinsic(name)]
// function (spec.md §4.6): a raw `syscall` instruction built from
// inline asm, since wlang has no other way to reach the kernel and no
// runtime of its own to link against. Grounded on
// original_source/src/codegen/intrinsics.rs's add_write/add_exit, which
// both end in build_ret(*zero) regardless of the wlang-level return
// type — `write` really does return unit, and `exit`'s declared `never`
// return is a lie the type system tells callers; the syscall itself
// returns (and is simply never observed, since the real libc `exit`
// never reaches the ret either way here, but this binary has no libc).
func (a *Analyzer) lowerIntrinsic(c *Crate, fn *ast.Function, info *namestore.FunctionInfo) {
	fnVal := info.IRHandle.(ir.Value)
	b := a.ctx.CreateBuilder()
	defer b.Dispose()

	entry := a.ctx.AddBasicBlock(fnVal, "entry")
	b.PositionAtEnd(entry)

	i64 := a.ctx.IntType(64)
	zero := a.ctx.ConstStruct(nil, false)

	switch info.Intrinsic {
	case "write":
		fd := b.ZExt(fnVal.Param(0), i64, "")
		strVal := fnVal.Param(1)
		dataPtr := b.ExtractValue(strVal, 0, "")
		strLen := b.ExtractValue(strVal, 1, "")

		syscallType := a.ctx.FnType(i64, []ir.Type{i64, i64, a.ctx.PtrType(), i64}, false)
		asm := b.InlineAsm(syscallType, "syscall", "=r,{rax},{rdi},{rsi},{rdx}", true, false)
		b.PtrCall(syscallType, asm, []ir.Value{
			a.ctx.ConstInt(i64, 1, false), // SYS_write
			fd, dataPtr, strLen,
		}, "")

	case "exit":
		code := b.ZExt(fnVal.Param(0), i64, "")

		syscallType := a.ctx.FnType(i64, []ir.Type{i64, i64}, false)
		asm := b.InlineAsm(syscallType, "syscall", "=r,{rax},{rdi}", true, false)
		b.PtrCall(syscallType, asm, []ir.Value{
			a.ctx.ConstInt(i64, 60, false), // SYS_exit
			code,
		}, "")
	}

	b.Ret(zero)
}

// generateEntryPoint builds `_start`, the process's real ELF entry
// point (spec.md §4.6): it calls `main`, then `std::exit(0)`, and never
// returns. _start carries no wlang-level signature of its own, so it is
// built directly against ir rather than through lowerFunction.
func (a *Analyzer) generateEntryPoint(res *Result) *diag.Diagnostic {
	var mainModule *ir.Module
	for _, cr := range res.Crates {
		if cr.Crate.Name == a.mainCrate {
			mainModule = cr.Module
			break
		}
	}
	if mainModule == nil {
		return nil
	}

	mainEntry, err := a.names.GetInCrate(a.mainCrate, ast.Ident{Name: "main", Span: a.mainSpan})
	if err != nil {
		return err
	}
	mainInfo := mainEntry.AsFunction()

	exitEntry, exitErr := a.names.Get(pathOf([]string{"std", "exit"}))
	if exitErr != nil {
		return noExit(a.mainSpan)
	}
	exitInfo := exitEntry.AsFunction()
	if exitInfo == nil {
		return noExit(a.mainSpan)
	}

	startType := a.ctx.FnType(a.ctx.VoidType(), nil, false)
	start := mainModule.AddFunction("_start", startType)
	start.SetLinkage(ir.External)
	start.AddNoReturnAttr(a.ctx)
	start.AddNoUnwindAttr(a.ctx)

	b := a.ctx.CreateBuilder()
	defer b.Dispose()
	entry := a.ctx.AddBasicBlock(start, "entry")
	b.PositionAtEnd(entry)

	mainCallee := a.calleeIn(mainModule, mainInfo)
	b.Call(a.fnIRType(mainInfo.Signature), mainCallee, nil, "")

	exitCallee := a.calleeIn(mainModule, exitInfo)
	zero := a.ctx.ConstInt(a.ctx.IntType(32), 0, false)
	b.Call(a.fnIRType(exitInfo.Signature), exitCallee, []ir.Value{zero}, "")

	b.Unreachable()
	return nil
}
