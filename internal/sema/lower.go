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

// lowerCrate is phase 3 (spec.md §4.3): lower every top-level
// function's body into c's own IR module, in source order, then
// finalize its DWARF debug info. Per-function errors are recorded and
// lowering continues with the next function, matching spec.md §7's "an
// error in one function's body does not suppress diagnostics from a
// sibling function in the same crate".
func (a *Analyzer) lowerCrate(c *Crate) *ir.Module {
	dbg := a.ctx.NewDebugBuilder(c.IRModule)
	dbgFile := dbg.File(c.File.Name, ".")
	dbg.CompileUnit(dbgFile, "wlab", false, "")

	for i := range c.Module.Functions {
		fn := &c.Module.Functions[i]
		info := a.functionEntry(c, fn)
		if info.Intrinsic != "" {
			a.lowerIntrinsic(c, fn, info)
			continue
		}
		if err := a.lowerFunction(c, fn, info, dbg, dbgFile); err != nil {
			a.errf(err)
		}
	}

	dbg.Finalize()
	return c.IRModule
}

// diType maps a semantic Type to a DWARF basic type. The debug facade
// exposes only DIBasicType (no struct/pointer-pair composite node), so
// str and struct types get an opaque placeholder entry rather than a
// fully descriptive one; real field-level debug info for them is future
// work (spec.md §6 only requires "a DWARF subprogram per function" at
// minimum).
func (a *Analyzer) diType(dbg *ir.DebugBuilder, t types.Type) ir.DIBasicType {
	switch t.Kind {
	case types.Int:
		return dbg.BasicType(t.String(), uint64(t.Bits), ir.DWEncodingSigned)
	case types.Bool:
		return dbg.BasicType("bool", 8, ir.DWEncodingBoolean)
	case types.Str:
		return dbg.BasicType("str", 128, ir.DWEncodingUnsigned)
	case types.StructType:
		return dbg.BasicType(t.Path, 0, ir.DWEncodingUnsigned)
	default:
		return dbg.BasicType(t.String(), 0, ir.DWEncodingUnsigned)
	}
}

// setLoc attaches pos's start, resolved against c's source, to every
// instruction the builder emits next, scoped to f's innermost DWARF
// lexical block (spec.md §4.5: "every emitted instruction carries a
// source location derived from the innermost active debug scope").
func (a *Analyzer) setLoc(f *funcLowering, pos token.Span) {
	line, col := f.c.File.Position(pos.Start)
	f.setDebugLocation(line, col)
}

func paramIRTypes(a *Analyzer, sig namestore.FunctionSignature) []ir.Type {
	out := make([]ir.Type, len(sig.Params))
	for i, p := range sig.Params {
		out[i] = a.llvmType(p)
	}
	return out
}

// lowerFunction lowers one function's body into its already-materialized
// IR function value (spec.md §4.3's phase 3), attaching a DWARF
// subprogram and binding parameters as immutable RValue locals.
func (a *Analyzer) lowerFunction(c *Crate, fn *ast.Function, info *namestore.FunctionInfo, dbg *ir.DebugBuilder, dbgFile ir.DIFile) *diag.Diagnostic {
	fnVal := info.IRHandle.(ir.Value)
	b := a.ctx.CreateBuilder()
	defer b.Dispose()

	entry := a.ctx.AddBasicBlock(fnVal, "entry")
	b.PositionAtEnd(entry)

	fnType := a.ctx.FnType(a.returnIRType(info.Signature.ReturnType), paramIRTypes(a, info.Signature), false)

	f := &funcLowering{
		a: a, c: c, f: fn,
		mod: c.IRModule, b: b,
		fnVal: fnVal, fnType: fnType,
		curBlock: entry,
		dbg:      dbg, dbgFile: dbgFile,
	}

	scopeLine, scopeCol := c.File.Position(fn.Body.Span.Start)
	fnLine, _ := c.File.Position(fn.Span.Start)

	diParams := make([]ir.DIBasicType, 0, len(info.Signature.Params)+1)
	diParams = append(diParams, a.diType(dbg, info.Signature.ReturnType))
	for _, p := range info.Signature.Params {
		diParams = append(diParams, a.diType(dbg, p))
	}
	subType := dbg.SubroutineType(dbgFile, diParams)
	sp := dbg.Subprogram(dbgFile.AsScope(), fn.Name.Name, info.MangledName, dbgFile,
		fnLine, scopeLine, subType, fn.Visibility == ast.Private, true)
	fnVal.SetSubprogram(sp)
	f.dbgScopes = []ir.DIScope{sp.AsScope()}

	f.setDebugLocation(scopeLine, scopeCol)

	f.pushScope()
	f.pushDbgScope(scopeLine, scopeCol)
	for i, p := range fn.Params {
		f.define(p.Name.Name, RValue(info.Signature.Params[i], fnVal.Param(i)))
	}

	result, err := a.lowerBlock(f, fn.Body)
	f.popDbgScope()
	f.popScope()
	if err != nil {
		return err
	}

	if !result.Type.Is(info.Signature.ReturnType) {
		return unexpectedType(info.Signature.ReturnType, result.Type, fn.Body.Pos())
	}

	if result.IsNever() {
		b.Unreachable()
	} else {
		b.Ret(result.ToRValue(f).IR)
	}

	return nil
}

// lowerBlock lowers every statement in block, then its implicit
// trailing-expression result (unit if there is none), grounded on
// original_source/src/codegen/codegen_unit/function.rs's
// generate_codeblock: a block never terminates its own current basic
// block — that is always the enclosing construct's (if/loop/function)
// job — it only ever leaves the builder positioned wherever the last
// statement left it.
func (a *Analyzer) lowerBlock(f *funcLowering, block ast.CodeBlock) (Value, *diag.Diagnostic) {
	statements := block.Body
	var implicitReturn ast.Expression
	other := statements
	if block.HasTrailingExpr() {
		implicitReturn = statements[len(statements)-1].(*ast.ExprStatement).Expr
		other = statements[:len(statements)-1]
	}

	terminatingIdx := -1
	for i, stmt := range other {
		if terminatingIdx >= 0 {
			continue
		}
		a.setLoc(f, stmt.Pos())
		val, err := a.lowerStatement(f, stmt)
		if err != nil {
			return Value{}, err
		}
		if val != nil && val.IsNever() {
			terminatingIdx = i
		}
	}

	var result Value
	if implicitReturn != nil {
		a.setLoc(f, implicitReturn.Pos())
		v, err := a.lowerExpr(f, implicitReturn)
		if err != nil {
			return Value{}, err
		}
		result = v.ToRValue(f)
	} else {
		result = RValue(types.UnitType, a.ctx.ConstStruct(nil, false))
	}

	if terminatingIdx >= 0 {
		deadStart := other[terminatingIdx+1:]
		hasDeadTail := len(deadStart) > 0 || implicitReturn != nil
		if hasDeadTail {
			start := other[terminatingIdx].Pos()
			end := start
			if implicitReturn != nil {
				end = implicitReturn.Pos()
			} else {
				end = other[len(other)-1].Pos()
			}
			a.warn(unreachableCode(token.Join(start, end)))
		}
	}

	return result, nil
}

// lowerStatement dispatches one statement. A nil Value means the
// statement produces no result (let, assign, nested declarations); a
// non-nil Value reports an expression statement's discarded result, used
// by lowerBlock only to detect dead code following a `never` statement.
func (a *Analyzer) lowerStatement(f *funcLowering, stmt ast.Statement) (*Value, *diag.Diagnostic) {
	switch s := stmt.(type) {
	case *ast.ExprStatement:
		v, err := a.lowerExpr(f, s.Expr)
		if err != nil {
			return nil, err
		}
		return &v, nil
	case *ast.LetStatement:
		return nil, a.lowerLet(f, s)
	case *ast.AssignStatement:
		return nil, a.lowerAssign(f, s)
	case *ast.StructStatement:
		return nil, a.lowerNestedStruct(f, &s.Struct)
	case *ast.FunctionStatement:
		return nil, a.lowerNestedFunction(f, &s.Function)
	default:
		panic(fmt.Sprintf("sema: unknown statement %T", stmt))
	}
}

func (a *Analyzer) lowerLet(f *funcLowering, s *ast.LetStatement) *diag.Diagnostic {
	val, err := a.lowerExpr(f, s.Value)
	if err != nil {
		return err
	}
	if val.IsNever() {
		f.define(s.Name.Name, val)
		return nil
	}
	val = val.ToRValue(f)
	if s.Mutable {
		ptr := f.b.Alloca(a.llvmType(val.Type), "")
		f.b.Store(val.IR, ptr)
		f.define(s.Name.Name, MutValue(val.Type, ptr))
		return nil
	}
	f.define(s.Name.Name, val)
	return nil
}

func (a *Analyzer) lowerAssign(f *funcLowering, s *ast.AssignStatement) *diag.Diagnostic {
	ptr, t, err := a.lowerLValue(f, s.LHS)
	if err != nil {
		return err
	}
	val, err := a.lowerExpr(f, s.RHS)
	if err != nil {
		return err
	}
	if val.IsNever() {
		return nil
	}
	val = val.ToRValue(f)
	if !val.Type.Equal(t) {
		return unexpectedType(t, val.Type, s.RHS.Pos())
	}
	f.b.Store(val.IR, ptr)
	return nil
}

// lowerLValue resolves an assignment target to its storage address and
// declared type: a plain mutable-variable reference, or a chain of field
// accesses rooted at one.
func (a *Analyzer) lowerLValue(f *funcLowering, expr ast.Expression) (ir.Value, types.Type, *diag.Diagnostic) {
	switch e := expr.(type) {
	case *ast.Identifier:
		v, ok := f.lookup(e.Name)
		if !ok {
			return ir.Value{}, types.Type{}, undefinedVariable(e.Name, e.Span)
		}
		if v.Kind != MutValueKind {
			return ir.Value{}, types.Type{}, mutateImmutable(e.Name, e.Span)
		}
		return v.IR, v.Type, nil
	case *ast.FieldAccess:
		basePtr, baseType, err := a.lowerLValue(f, e.Expr)
		if err != nil {
			return ir.Value{}, types.Type{}, err
		}
		if baseType.Kind != types.StructType {
			return ir.Value{}, types.Type{}, notAStructElementAccess(baseType, e.Expr.Pos())
		}
		info := a.lookupStruct(baseType.Path)
		idx, fieldType, ok := fieldIndex(info, e.Name.Name)
		if !ok {
			return ir.Value{}, types.Type{}, invalidField(e.Name.Name, baseType.Path, e.Name.Span)
		}
		gep := f.b.GEP(a.llvmType(baseType), basePtr, []ir.Value{
			a.ctx.ConstInt(a.ctx.IntType(32), 0, false),
			a.ctx.ConstInt(a.ctx.IntType(32), uint64(idx), false),
		}, "")
		return gep, fieldType, nil
	default:
		return ir.Value{}, types.Type{}, invalidAssignTarget(expr.Pos())
	}
}

func fieldIndex(info *namestore.StructInfo, name string) (int, types.Type, bool) {
	for i, fld := range info.Fields {
		if fld.Name == name {
			return i, fld.Type, true
		}
	}
	return 0, types.Type{}, false
}

// lowerNestedStruct reserves and materializes a struct declared inside a
// function body the moment it is reached (spec.md §3 permits Struct as a
// Statement), since wlang gives nested declarations no forward-reference
// guarantee of their own — a deliberate simplification from the
// two-phase reserve/materialize split phase 1/2 give top-level items.
func (a *Analyzer) lowerNestedStruct(f *funcLowering, s *ast.Struct) *diag.Diagnostic {
	for _, attr := range s.Attributes {
		if attr.Kind != ast.AttrPacked {
			return nonStructAttribute(attrName(attr.Kind), attr.Span)
		}
	}

	irType := a.ctx.CreateNamedStructType(f.c.Name + "::" + s.Name.Name)
	info := &namestore.StructInfo{IRType: irType}
	if !a.names.AddStruct([]string{f.c.Name, s.Name.Name}, info) {
		return itemAlreadyDefined(s.Name.Name, s.Name.Span)
	}

	packed := false
	for _, attr := range s.Attributes {
		if attr.Kind == ast.AttrPacked {
			packed = true
		}
	}

	seen := map[string]bool{}
	fields := make([]namestore.FieldInfo, 0, len(s.Fields))
	for _, fld := range s.Fields {
		if seen[fld.Name.Name] {
			return duplicateField(fld.Name.Name, fld.Name.Span)
		}
		seen[fld.Name.Name] = true

		t, err := a.resolveType(fld.Type)
		if err != nil {
			return err
		}
		fields = append(fields, namestore.FieldInfo{Name: fld.Name.Name, Type: t, LineNo: line(f.c, fld.Name.Span)})
	}

	info.Fields = fields
	info.Packed = packed
	info.LineNo = line(f.c, s.Span)

	if info.Instantiable() {
		fieldTypes := make([]ir.Type, len(fields))
		for i, fld := range fields {
			fieldTypes[i] = a.llvmType(fld.Type)
		}
		irType.SetBody(fieldTypes, packed)
	} else {
		info.IRType = nil
	}

	return nil
}

// lowerNestedFunction reserves, materializes, and immediately lowers a
// function declared inside another function's body, for the same reason
// lowerNestedStruct does: no forward-reference support across local
// declarations.
func (a *Analyzer) lowerNestedFunction(f *funcLowering, fn *ast.Function) *diag.Diagnostic {
	if !a.names.AddFunction([]string{f.c.Name, fn.Name.Name}, &namestore.FunctionInfo{}) {
		return itemAlreadyDefined(fn.Name.Name, fn.Name.Span)
	}

	a.materializeFunction(f.c, fn)
	info := a.functionEntry(f.c, fn)
	if info.Intrinsic != "" {
		a.lowerIntrinsic(f.c, fn, info)
		return nil
	}
	return a.lowerFunction(f.c, fn, info, f.dbg, f.dbgFile)
}

// lowerExpr dispatches one expression to its lowering, grounded on
// original_source/src/codegen/codegen_unit/expression.rs's
// generate_expression match.
func (a *Analyzer) lowerExpr(f *funcLowering, expr ast.Expression) (Value, *diag.Diagnostic) {
	switch e := expr.(type) {
	case *ast.Identifier:
		return a.lowerIdentifier(f, e)
	case *ast.Literal:
		return a.lowerLiteral(f, e)
	case *ast.BinaryExpr:
		return a.lowerBinary(f, e)
	case *ast.CompoundExpr:
		return a.lowerCompound(f, e)
	case *ast.CallExpr:
		return a.lowerCall(f, e)
	case *ast.IfExpr:
		return a.lowerIf(f, e)
	case *ast.LoopExpr:
		return a.lowerLoop(f, e)
	case *ast.BreakExpr:
		return a.lowerBreak(f, e)
	case *ast.StructInitializer:
		return a.lowerStructInit(f, e)
	case *ast.FieldAccess:
		return a.lowerFieldAccess(f, e)
	default:
		panic(fmt.Sprintf("sema: unknown expression %T", expr))
	}
}

func (a *Analyzer) lowerIdentifier(f *funcLowering, e *ast.Identifier) (Value, *diag.Diagnostic) {
	v, ok := f.lookup(e.Name)
	if !ok {
		return Value{}, undefinedVariable(e.Name, e.Span)
	}
	return v.ToRValue(f), nil
}

func (a *Analyzer) lowerLiteral(f *funcLowering, e *ast.Literal) (Value, *diag.Diagnostic) {
	switch e.Kind {
	case ast.LitNumber:
		return a.lowerNumberLiteral(e)
	case ast.LitString:
		return a.lowerStringLiteral(f, e)
	default:
		panic("sema: unknown literal kind")
	}
}

// lowerNumberLiteral parses a decimal number literal as wlang's default
// integer type `i32`, mirroring
// original_source/src/codegen/codegen_unit/expression.rs's
// generate_number_literal.
func (a *Analyzer) lowerNumberLiteral(e *ast.Literal) (Value, *diag.Diagnostic) {
	const bits = 32
	n, ok := parseDecimalUint(e.Text, bits)
	if !ok {
		return Value{}, literalOverflow(e.Text, bits, e.Span)
	}
	t := types.IntType(bits)
	return RValue(t, a.ctx.ConstInt(a.llvmType(t), n, false)), nil
}

func parseDecimalUint(text string, bits uint32) (uint64, bool) {
	max := uint64(1)<<(bits-1) - 1
	var n uint64
	for _, c := range text {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
		if n > max {
			return 0, false
		}
	}
	return n, true
}

// lowerStringLiteral builds a `str` {ptr, len} pair over a fresh
// internal-linkage global holding the literal bytes, mirroring
// generate_string_literal but assembling the pair through InsertValue
// rather than const_named_struct, since the pointer field only exists
// once the global itself is created (spec.md §4.4).
func (a *Analyzer) lowerStringLiteral(f *funcLowering, e *ast.Literal) (Value, *diag.Diagnostic) {
	text := e.Text

	arrType := a.ctx.ArrayType(a.ctx.IntType(8), len(text))
	global := f.mod.AddGlobal("", arrType)
	global.SetInitializer(a.ctx.ConstString(text, false))
	global.SetLinkage(ir.Internal)

	agg := a.ctx.Undef(a.strType())
	agg = f.b.InsertValue(agg, global, 0, "")
	strLen := a.ctx.ConstInt(a.ctx.IntType(64), uint64(len(text)), false)
	agg = f.b.InsertValue(agg, strLen, 1, "")

	return RValue(types.StrType, agg), nil
}

func (a *Analyzer) lowerBinary(f *funcLowering, e *ast.BinaryExpr) (Value, *diag.Diagnostic) {
	lhs, err := a.lowerExpr(f, e.LHS)
	if err != nil {
		return Value{}, err
	}
	rhs, err := a.lowerExpr(f, e.RHS)
	if err != nil {
		return Value{}, err
	}
	if lhs.IsNever() || rhs.IsNever() {
		return NeverValue, nil
	}
	lhs = lhs.ToRValue(f)
	rhs = rhs.ToRValue(f)

	switch lhs.Type.Kind {
	case types.Int:
		return a.lowerIntOp(f, lhs, e.Op, rhs, e.LHS.Pos())
	case types.Bool:
		return a.lowerBoolOp(f, lhs, e.Op, rhs, e.LHS.Pos())
	default:
		return Value{}, undefinedOperator(e.Op.String(), lhs.Type.String(), e.LHS.Pos())
	}
}

// lowerIntOp implements wlang's integer operators, grounded on
// original_source/src/codegen/values.rs's generate_operation_int.
func (a *Analyzer) lowerIntOp(f *funcLowering, lhs Value, op ast.OpCode, rhs Value, lhsSpan token.Span) (Value, *diag.Diagnostic) {
	if !rhs.Type.Equal(lhs.Type) {
		return Value{}, unexpectedType(lhs.Type, rhs.Type, lhsSpan)
	}
	switch op {
	case ast.OpAdd:
		return RValue(lhs.Type, f.b.Add(lhs.IR, rhs.IR, "")), nil
	case ast.OpSub:
		return RValue(lhs.Type, f.b.Sub(lhs.IR, rhs.IR, "")), nil
	case ast.OpMul:
		return RValue(lhs.Type, f.b.Mul(lhs.IR, rhs.IR, "")), nil
	case ast.OpDiv:
		return RValue(lhs.Type, f.b.SDiv(lhs.IR, rhs.IR, "")), nil
	case ast.OpEq:
		return RValue(types.BoolType, f.b.ICmp(ir.IntEQ, lhs.IR, rhs.IR, "")), nil
	case ast.OpNotEq:
		return RValue(types.BoolType, f.b.ICmp(ir.IntNE, lhs.IR, rhs.IR, "")), nil
	case ast.OpGt:
		return RValue(types.BoolType, f.b.ICmp(ir.IntSGT, lhs.IR, rhs.IR, "")), nil
	case ast.OpLt:
		return RValue(types.BoolType, f.b.ICmp(ir.IntSLT, lhs.IR, rhs.IR, "")), nil
	case ast.OpGtEq:
		return RValue(types.BoolType, f.b.ICmp(ir.IntSGE, lhs.IR, rhs.IR, "")), nil
	case ast.OpLtEq:
		return RValue(types.BoolType, f.b.ICmp(ir.IntSLE, lhs.IR, rhs.IR, "")), nil
	default:
		return Value{}, undefinedOperator(op.String(), lhs.Type.String(), lhsSpan)
	}
}

// lowerBoolOp implements wlang's bool operators, mirroring
// generate_operation's bool arm (== and != lower through xor/not since
// LLVM has no dedicated bool-compare instruction worth reaching for
// over the integer bitwise ops here).
func (a *Analyzer) lowerBoolOp(f *funcLowering, lhs Value, op ast.OpCode, rhs Value, lhsSpan token.Span) (Value, *diag.Diagnostic) {
	if !rhs.Type.Equal(types.BoolType) {
		return Value{}, unexpectedType(types.BoolType, rhs.Type, lhsSpan)
	}
	switch op {
	case ast.OpOr:
		return RValue(types.BoolType, f.b.Or(lhs.IR, rhs.IR, "")), nil
	case ast.OpAnd:
		return RValue(types.BoolType, f.b.And(lhs.IR, rhs.IR, "")), nil
	case ast.OpNotEq:
		return RValue(types.BoolType, f.b.Xor(lhs.IR, rhs.IR, "")), nil
	case ast.OpEq:
		xor := f.b.Xor(lhs.IR, rhs.IR, "")
		return RValue(types.BoolType, f.b.Not(xor, "")), nil
	default:
		return Value{}, undefinedOperator(op.String(), lhs.Type.String(), lhsSpan)
	}
}

func (a *Analyzer) lowerCompound(f *funcLowering, e *ast.CompoundExpr) (Value, *diag.Diagnostic) {
	line, col := f.c.File.Position(e.Block.Span.Start)
	f.pushScope()
	f.pushDbgScope(line, col)
	val, err := a.lowerBlock(f, e.Block)
	f.popDbgScope()
	f.popScope()
	return val, err
}

// resolveItemPath resolves a call/struct-initializer path against the
// name store: a single-segment path is looked up inside c's own crate
// (spec.md §4.3's within-crate lookup), anything longer resolves from
// the store root.
func (a *Analyzer) resolveItemPath(c *Crate, path ast.Path) (*namestore.Entry, *diag.Diagnostic) {
	if single, ok := path.Single(); ok {
		return a.names.GetInCrate(c.Name, single)
	}
	return a.names.Get(path)
}

// lowerCall lowers a function call. A callee whose return type is never
// needs no special block handling at the call site (only break/if/loop
// manage basic blocks directly): the call instruction itself never
// branches, so the current block simply keeps accumulating whatever
// (dead) code follows, exactly as
// original_source/src/codegen/codegen_unit/function.rs's
// generate_codeblock treats it — purely as a span to warn on, never as a
// reason to open a new block.
func (a *Analyzer) lowerCall(f *funcLowering, e *ast.CallExpr) (Value, *diag.Diagnostic) {
	entry, err := a.resolveItemPath(f.c, e.Path)
	if err != nil {
		return Value{}, err
	}
	info := entry.AsFunction()
	if info == nil {
		return Value{}, notAFunction(e.Path.String(), e.Span)
	}

	sig := info.Signature
	if len(e.Args) != len(sig.Params) {
		return Value{}, arityMismatch(e.Path.String(), len(sig.Params), len(e.Args), e.Span)
	}

	args := make([]ir.Value, len(e.Args))
	for i, argExpr := range e.Args {
		v, err := a.lowerExpr(f, argExpr)
		if err != nil {
			return Value{}, err
		}
		if v.IsNever() {
			return NeverValue, nil
		}
		v = v.ToRValue(f)
		if !v.Type.Equal(sig.Params[i]) {
			return Value{}, unexpectedType(sig.Params[i], v.Type, argExpr.Pos())
		}
		args[i] = v.IR
	}

	callee := a.calleeIn(f.mod, info)
	fnType := a.fnIRType(sig)
	result := f.b.Call(fnType, callee, args, "")

	if sig.ReturnType.IsNever() {
		return NeverValue, nil
	}
	return RValue(sig.ReturnType, result), nil
}

// lowerIf lowers an if/else expression, grounded on
// original_source/src/codegen/codegen_unit/expression/control_flow.rs's
// generate_if: blocks are chained with InsertBasicBlockAfter rather than
// appended at function end, an if without an else is unconditionally
// unit regardless of whether its one arm diverges, and when exactly one
// arm produces a real value it is returned directly with no phi (only
// one predecessor ever reaches the continuation block in that case).
func (a *Analyzer) lowerIf(f *funcLowering, e *ast.IfExpr) (Value, *diag.Diagnostic) {
	cond, err := a.lowerExpr(f, e.Condition)
	if err != nil {
		return Value{}, err
	}
	cond = cond.ToRValue(f)
	if !cond.Type.Is(types.BoolType) {
		return Value{}, unexpectedType(types.BoolType, cond.Type, e.Condition.Pos())
	}

	baseBB := f.curBlock
	ifBB := a.ctx.InsertBasicBlockAfter(baseBB, "")
	hasElse := e.Else != nil
	var elseBB ir.BasicBlock
	after := ifBB
	if hasElse {
		elseBB = a.ctx.InsertBasicBlockAfter(ifBB, "")
		after = elseBB
	}
	contBB := a.ctx.InsertBasicBlockAfter(after, "")

	if cond.IsNever() {
		deadSpan := e.Block.Span
		if hasElse {
			deadSpan = token.Join(e.Block.Span, e.Else.Span)
		}
		a.warn(unreachableCode(token.Join(e.Condition.Pos(), deadSpan)))
		f.b.Unreachable()
	} else {
		elseTarget := contBB
		if hasElse {
			elseTarget = elseBB
		}
		f.b.CondBr(cond.IR, ifBB, elseTarget)
	}

	f.curBlock = ifBB
	f.b.PositionAtEnd(ifBB)
	ifLine, ifCol := f.c.File.Position(e.Block.Span.Start)
	f.pushScope()
	f.pushDbgScope(ifLine, ifCol)
	ifVal, err := a.lowerBlock(f, e.Block)
	f.popDbgScope()
	f.popScope()
	if err != nil {
		return Value{}, err
	}
	ifEnd := f.curBlock
	if !ifVal.IsNever() {
		f.b.Br(contBB)
	} else {
		f.b.Unreachable()
	}

	var elseVal Value
	var elseEnd ir.BasicBlock
	if hasElse {
		f.curBlock = elseBB
		f.b.PositionAtEnd(elseBB)
		elseLine, elseCol := f.c.File.Position(e.Else.Span.Start)
		f.pushScope()
		f.pushDbgScope(elseLine, elseCol)
		elseVal, err = a.lowerBlock(f, *e.Else)
		f.popDbgScope()
		f.popScope()
		if err != nil {
			return Value{}, err
		}
		elseEnd = f.curBlock
		if !elseVal.IsNever() {
			f.b.Br(contBB)
		} else {
			f.b.Unreachable()
		}
	}

	f.curBlock = contBB
	f.b.PositionAtEnd(contBB)

	if !hasElse {
		return RValue(types.UnitType, a.ctx.ConstStruct(nil, false)), nil
	}

	switch {
	case ifVal.IsNever() && elseVal.IsNever():
		return NeverValue, nil
	case ifVal.IsNever():
		return elseVal, nil
	case elseVal.IsNever():
		return ifVal, nil
	}

	if !ifVal.Type.Equal(elseVal.Type) {
		return Value{}, mismatchedIfElse(e.Block.Span, ifVal.Type, e.Else.Span, elseVal.Type)
	}

	phi := f.b.Phi(a.llvmType(ifVal.Type), "")
	ir.AddIncoming(phi, []ir.Value{ifVal.IR, elseVal.IR}, []ir.BasicBlock{ifEnd, elseEnd})
	return RValue(ifVal.Type, phi), nil
}

// lowerLoop lowers `loop { ... }`, grounded on control_flow.rs's
// generate_loop: the body always branches back to its own top
// unconditionally once lowered, regardless of whether the body's last
// statement already diverged (the builder is always left positioned at
// some not-yet-terminated block, by construction, for this trailing
// branch to close).
func (a *Analyzer) lowerLoop(f *funcLowering, e *ast.LoopExpr) (Value, *diag.Diagnostic) {
	bb := a.ctx.InsertBasicBlockAfter(f.curBlock, "")
	jumpTo := a.ctx.InsertBasicBlockAfter(bb, "")

	f.b.Br(bb)
	f.curBlock = bb
	f.b.PositionAtEnd(bb)

	loopLine, loopCol := f.c.File.Position(e.Block.Span.Start)
	f.pushBreak(jumpTo)
	f.pushScope()
	f.pushDbgScope(loopLine, loopCol)
	_, err := a.lowerBlock(f, e.Block)
	f.popDbgScope()
	f.popScope()
	if err != nil {
		f.popBreak()
		return Value{}, err
	}

	f.b.Br(bb)

	bc := f.popBreak()
	f.curBlock = jumpTo
	f.b.PositionAtEnd(jumpTo)

	return bc.intoValue(), nil
}

// lowerBreak lowers `break [value]`, grounded on control_flow.rs's
// generate_break: always registers with the innermost break context
// (a no-op there if the value is itself never) and always opens a fresh
// block afterward, since a `break` statement's own result type is always
// never regardless of what it breaks with.
func (a *Analyzer) lowerBreak(f *funcLowering, e *ast.BreakExpr) (Value, *diag.Diagnostic) {
	bc := f.innermostBreak()
	if bc == nil {
		return Value{}, breakOutsideLoop(e.Span)
	}

	var val Value
	if e.Value != nil {
		v, err := a.lowerExpr(f, e.Value)
		if err != nil {
			return Value{}, err
		}
		val = v.ToRValue(f)
	} else {
		val = RValue(types.UnitType, a.ctx.ConstStruct(nil, false))
	}

	if err := bc.buildBreak(f, val, e.Span); err != nil {
		return Value{}, err
	}

	fresh := a.ctx.InsertBasicBlockAfter(f.curBlock, "")
	f.curBlock = fresh
	f.b.PositionAtEnd(fresh)

	return NeverValue, nil
}

func (a *Analyzer) lowerStructInit(f *funcLowering, e *ast.StructInitializer) (Value, *diag.Diagnostic) {
	entry, err := a.resolveItemPath(f.c, e.Name)
	if err != nil {
		return Value{}, err
	}
	info := entry.AsStruct()
	if info == nil {
		return Value{}, notAStructInitializer(e.Name.String(), e.Span)
	}

	structPath := e.Name.String()
	if single, ok := e.Name.Single(); ok {
		structPath = f.c.Name + "::" + single.Name
	}
	structType := types.StructRef(structPath)
	irType := a.llvmType(structType)

	provided := make(map[string]Value, len(e.Fields))
	for _, fld := range e.Fields {
		if _, dup := provided[fld.Name.Name]; dup {
			return Value{}, duplicateField(fld.Name.Name, fld.Name.Span)
		}
		v, err := a.lowerExpr(f, fld.Value)
		if err != nil {
			return Value{}, err
		}
		if v.IsNever() {
			return NeverValue, nil
		}
		provided[fld.Name.Name] = v.ToRValue(f)

		found := false
		for _, want := range info.Fields {
			if want.Name == fld.Name.Name {
				found = true
				break
			}
		}
		if !found {
			return Value{}, invalidField(fld.Name.Name, e.Name.String(), fld.Name.Span)
		}
	}

	agg := a.ctx.Undef(irType)
	for i, fieldInfo := range info.Fields {
		v, ok := provided[fieldInfo.Name]
		if !ok {
			return Value{}, missingField(fieldInfo.Name, e.Span)
		}
		if !v.Type.Equal(fieldInfo.Type) {
			return Value{}, unexpectedType(fieldInfo.Type, v.Type, e.Span)
		}
		agg = f.b.InsertValue(agg, v.IR, i, "")
	}

	return RValue(structType, agg), nil
}

func (a *Analyzer) lowerFieldAccess(f *funcLowering, e *ast.FieldAccess) (Value, *diag.Diagnostic) {
	base, err := a.lowerExpr(f, e.Expr)
	if err != nil {
		return Value{}, err
	}
	if base.IsNever() {
		return NeverValue, nil
	}
	if base.Type.Kind != types.StructType {
		return Value{}, notAStructElementAccess(base.Type, e.Expr.Pos())
	}

	info := a.lookupStruct(base.Type.Path)
	idx, fieldType, ok := fieldIndex(info, e.Name.Name)
	if !ok {
		return Value{}, invalidField(e.Name.Name, base.Type.Path, e.Name.Span)
	}

	if base.Kind == MutValueKind {
		gep := f.b.GEP(a.llvmType(base.Type), base.IR, []ir.Value{
			a.ctx.ConstInt(a.ctx.IntType(32), 0, false),
			a.ctx.ConstInt(a.ctx.IntType(32), uint64(idx), false),
		}, "")
		loaded := f.b.Load(a.llvmType(fieldType), gep, "")
		return RValue(fieldType, loaded), nil
	}

	extracted := f.b.ExtractValue(base.IR, idx, "")
	return RValue(fieldType, extracted), nil
}
