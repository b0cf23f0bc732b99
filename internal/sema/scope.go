package sema

import (
	"github.com/wlab-lang/wlab/internal/ast"
	"github.com/wlab-lang/wlab/internal/diag"
	"github.com/wlab-lang/wlab/internal/ir"
	"github.com/wlab-lang/wlab/internal/token"
	"github.com/wlab-lang/wlab/internal/types"
)

// lexScope is one frame of the lexical variable scope stack (spec.md
// §4.5). Lookup walks frames top-down so an inner `let` shadows an
// outer one without mutating it, and popping a frame makes its
// bindings invisible again (spec.md §8's "Scope isolation" property),
// mirroring the original's per-block Scope grounded on
// original_source/src/codegen/scope.rs, generalized from its
// single-type IntValue map to a map of the generic Value (RValue or
// MutValue) since wlang bindings may hold any type.
type lexScope struct {
	vars map[string]Value
}

func newLexScope() *lexScope { return &lexScope{vars: make(map[string]Value)} }

// breakContext is one loop's `break` target (spec.md glossary: "Break
// context. Per-loop record holding the jump target and the lazily
// created phi that unifies all break values"), grounded directly on
// original_source/src/codegen/scope/break_.rs's BreakContext.
type breakContext struct {
	jumpTo ir.BasicBlock

	// phi is created lazily on the first break, mirroring the
	// original's OnceCell<BreakPhiValue>.
	phiSet       bool
	phi          ir.Value
	phiType      types.Type
	definingSpan token.Span
	numIncoming  int
}

func newBreakContext(jumpTo ir.BasicBlock) *breakContext {
	return &breakContext{jumpTo: jumpTo}
}

// buildBreak implements BreakContext::build_break: installs the phi on
// first use, checks later breaks agree on type, then branches to the
// loop's continuation block and (if the phi exists) records the
// incoming edge.
func (bc *breakContext) buildBreak(f *funcLowering, val Value, span token.Span) *diag.Diagnostic {
	if val.IsNever() {
		return nil
	}

	if !bc.phiSet {
		cur := f.curBlock
		f.b.PositionAtEnd(bc.jumpTo)
		bc.phi = f.b.Phi(f.a.llvmType(val.Type), "")
		bc.phiType = val.Type
		bc.definingSpan = span
		bc.phiSet = true
		f.b.PositionAtEnd(cur)
	} else if !val.Type.Is(bc.phiType) {
		return unexpectedBreakType(bc.definingSpan, bc.phiType, span, val.Type)
	}

	f.b.Br(bc.jumpTo)
	ir.AddIncoming(bc.phi, []ir.Value{val.IR}, []ir.BasicBlock{f.curBlock})
	bc.numIncoming++
	return nil
}

// intoValue implements BreakContext::into_rvalue: a loop with no break
// at all has type never; otherwise its type is whatever every break
// agreed on.
func (bc *breakContext) intoValue() Value {
	if !bc.phiSet {
		return NeverValue
	}
	if bc.numIncoming == 0 {
		return NeverValue
	}
	return RValue(bc.phiType, bc.phi)
}

// funcLowering holds every piece of state live while lowering a single
// function's body (spec.md §4.4): the active builder positioned at the
// block currently being emitted, the lexical variable scope stack, the
// loop break-context stack, and the DWARF lexical-block stack that
// tracks the first three in parallel so debug locations nest the same
// way the source does. One funcLowering exists per function and is
// discarded once that function is fully lowered.
type funcLowering struct {
	a *Analyzer
	c *Crate
	f *ast.Function

	mod    *ir.Module
	b      *ir.Builder
	fnVal  ir.Value
	fnType ir.Type

	curBlock ir.BasicBlock

	scopes []*lexScope
	breaks []*breakContext

	dbg       *ir.DebugBuilder
	dbgFile   ir.DIFile
	dbgScopes []ir.DIScope
}

// pushScope opens a fresh lexical frame, mirroring entry into a
// CompoundExpr or function body (spec.md §4.5).
func (f *funcLowering) pushScope() { f.scopes = append(f.scopes, newLexScope()) }

// popScope closes the innermost lexical frame, making its bindings
// invisible again (spec.md §8's "Scope isolation" property).
func (f *funcLowering) popScope() { f.scopes = f.scopes[:len(f.scopes)-1] }

// define binds name to val in the innermost scope, shadowing any outer
// binding of the same name without disturbing it (spec.md §4.5's
// shadowing rule).
func (f *funcLowering) define(name string, val Value) {
	f.scopes[len(f.scopes)-1].vars[name] = val
}

// lookup walks the scope stack from innermost to outermost, returning
// ok=false if name is bound nowhere currently visible.
func (f *funcLowering) lookup(name string) (Value, bool) {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if v, ok := f.scopes[i].vars[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// pushBreak opens a new loop's break context, pointing breaks at jumpTo
// until the matching popBreak.
func (f *funcLowering) pushBreak(jumpTo ir.BasicBlock) {
	f.breaks = append(f.breaks, newBreakContext(jumpTo))
}

// popBreak closes the innermost loop's break context and returns it so
// the caller can read its joined value (breakContext.intoValue).
func (f *funcLowering) popBreak() *breakContext {
	bc := f.breaks[len(f.breaks)-1]
	f.breaks = f.breaks[:len(f.breaks)-1]
	return bc
}

// innermostBreak returns the break context a bare `break` targets, or
// nil if no loop is currently open (spec.md §4.4's BreakOutsideLoop).
func (f *funcLowering) innermostBreak() *breakContext {
	if len(f.breaks) == 0 {
		return nil
	}
	return f.breaks[len(f.breaks)-1]
}

// dbgScope returns the innermost DWARF scope (the function's subprogram
// while no lexical block is pushed), or the zero DIScope when the stack
// is empty.
func (f *funcLowering) dbgScope() ir.DIScope {
	if len(f.dbgScopes) == 0 {
		return ir.DIScope{}
	}
	return f.dbgScopes[len(f.dbgScopes)-1]
}

// pushDbgScope opens a DWARF lexical block nested under the current
// scope, matching pushScope one for one.
func (f *funcLowering) pushDbgScope(line, col int) {
	if f.dbg == nil {
		return
	}
	block := f.dbg.LexicalBlock(f.dbgScope(), f.dbgFile, line, col)
	f.dbgScopes = append(f.dbgScopes, block.AsScope())
}

// popDbgScope closes the innermost DWARF lexical block.
func (f *funcLowering) popDbgScope() {
	if f.dbg == nil {
		return
	}
	f.dbgScopes = f.dbgScopes[:len(f.dbgScopes)-1]
}

// setDebugLocation attaches line:col, scoped to the current DWARF
// scope, to every instruction the builder emits next.
func (f *funcLowering) setDebugLocation(line, col int) {
	if f.dbg == nil {
		return
	}
	f.b.SetCurrentDebugLocation(f.a.ctx.DebugLocation(line, col, f.dbgScope()))
}
