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

// materializeCrate is phase 2 (spec.md §4.3): now that every crate has
// reserved its names, resolve struct fields and function signatures
// against the fully populated name store.
func (a *Analyzer) materializeCrate(c *Crate) {
	if c.Name == "" {
		return // reserveCrate already reported this crate's error
	}
	for i := range c.Module.Structs {
		a.materializeStruct(c, &c.Module.Structs[i])
	}
	for i := range c.Module.Functions {
		a.materializeFunction(c, &c.Module.Functions[i])
	}
}

// resolveType implements spec.md §4.3's type resolution rules: `()` is
// unit, a single primitive-spelled segment (including `i<N>` and the
// synthetic `never` spelling, see internal/types) is a primitive;
// anything else must resolve through the name store as a struct.
func (a *Analyzer) resolveType(te ast.TypeExpr) (types.Type, *diag.Diagnostic) {
	if te.Unit {
		return types.UnitType, nil
	}
	if single, ok := te.Path.Single(); ok {
		if t, ok := types.ParsePrimitive(single.Name); ok {
			return t, nil
		}
	}
	entry, err := a.names.Get(te.Path)
	if err != nil {
		return types.Type{}, undefinedType(te.Path.String(), te.Span)
	}
	if entry.AsStruct() == nil {
		return types.Type{}, notAType(te.Path.String(), te.Span)
	}
	return types.StructRef(te.Path.String()), nil
}

func (a *Analyzer) structEntry(c *Crate, s *ast.Struct) *namestore.StructInfo {
	entry, err := a.names.Get(pathOf([]string{c.Name, s.Name.Name}))
	if err != nil {
		panic(fmt.Sprintf("sema: reserved struct %s::%s vanished: %v", c.Name, s.Name.Name, err))
	}
	return entry.AsStruct()
}

func (a *Analyzer) functionEntry(c *Crate, f *ast.Function) *namestore.FunctionInfo {
	entry, err := a.names.Get(pathOf([]string{c.Name, f.Name.Name}))
	if err != nil {
		panic(fmt.Sprintf("sema: reserved function %s::%s vanished: %v", c.Name, f.Name.Name, err))
	}
	return entry.AsFunction()
}

func (a *Analyzer) materializeStruct(c *Crate, s *ast.Struct) {
	info := a.structEntry(c, s)

	packed := false
	for _, attr := range s.Attributes {
		if attr.Kind == ast.AttrPacked {
			packed = true
		}
	}

	seen := map[string]bool{}
	fields := make([]namestore.FieldInfo, 0, len(s.Fields))
	for _, f := range s.Fields {
		if seen[f.Name.Name] {
			a.errf(duplicateField(f.Name.Name, f.Name.Span))
			continue
		}
		seen[f.Name.Name] = true

		t, err := a.resolveType(f.Type)
		if err != nil {
			a.errf(err)
			continue
		}
		fields = append(fields, namestore.FieldInfo{Name: f.Name.Name, Type: t, LineNo: line(c, f.Name.Span)})
	}

	info.Fields = fields
	info.Packed = packed
	info.LineNo = line(c, s.Span)

	if info.Instantiable() {
		irType := info.IRType.(ir.Type)
		fieldTypes := make([]ir.Type, len(fields))
		for i, fld := range fields {
			fieldTypes[i] = a.llvmType(fld.Type)
		}
		irType.SetBody(fieldTypes, packed)
	} else {
		info.IRType = nil
	}
}

func (a *Analyzer) materializeFunction(c *Crate, f *ast.Function) {
	info := a.functionEntry(c, f)

	noMangle := false
	var intrinsic ast.Ident
	hasIntrinsic := false
	for _, attr := range f.Attributes {
		switch attr.Kind {
		case ast.AttrNoMangle:
			noMangle = true
		case ast.AttrIntrinsic:
			if hasIntrinsic {
				a.errf(multipleIntrinsic(attr.Span))
				continue
			}
			hasIntrinsic = true
			intrinsic = attr.Name
		default:
			a.errf(nonFunctionAttribute(attrName(attr.Kind), attr.Span))
		}
	}

	params := make([]types.Type, 0, len(f.Params))
	for _, p := range f.Params {
		t, err := a.resolveType(p.Type)
		if err != nil {
			a.errf(err)
			params = append(params, types.UnitType)
			continue
		}
		params = append(params, t)
	}

	retType := types.UnitType
	if f.ReturnType != nil {
		t, err := a.resolveType(*f.ReturnType)
		if err != nil {
			a.errf(err)
		} else {
			retType = t
		}
	}

	info.Signature = namestore.FunctionSignature{Params: params, ReturnType: retType}
	info.Visibility = f.Visibility
	info.NoMangle = noMangle
	if hasIntrinsic {
		info.Intrinsic = intrinsic.Name
	}

	if noMangle {
		info.MangledName = f.Name.Name
	} else {
		info.MangledName = fmt.Sprintf("_WL@%s::%s", c.Name, f.Name.Name)
	}

	paramIRTypes := make([]ir.Type, len(params))
	for i, p := range params {
		paramIRTypes[i] = a.llvmType(p)
	}
	retIRType := a.returnIRType(retType)
	fnIRType := a.ctx.FnType(retIRType, paramIRTypes, false)
	fnVal := c.IRModule.AddFunction(info.MangledName, fnIRType)
	fnVal.SetLinkage(functionLinkage(info))
	fnVal.AddNoUnwindAttr(a.ctx)
	if retType.IsNever() {
		fnVal.AddNoReturnAttr(a.ctx)
	}
	info.IRHandle = fnVal
	a.homeModule[info] = c.IRModule

	if hasIntrinsic {
		a.checkIntrinsicSignature(intrinsic, info)
		if len(f.Body.Body) != 0 || f.Body.HasTrailingExpr() {
			a.errf(nonEmptyIntrinsic(intrinsic.Name, f.Body.Span))
		}
	}

	if f.Name.Name == "main" {
		if len(f.Params) != 0 {
			a.errf(mainHasParameters(f.Span))
		}
		if !retType.Equal(types.UnitType) {
			a.errf(mainHasNonUnitReturn(f.Span))
		}
	}
}

// checkIntrinsicSignature validates a #[intrinsic(name)] function's
// declared signature against the hand-written lowering it names
// (spec.md §4.6): `write: (i32, str) -> ()`, `exit: (i32) -> never`.
func (a *Analyzer) checkIntrinsicSignature(intrinsic ast.Ident, info *namestore.FunctionInfo) {
	params := info.Signature.Params
	span := intrinsic.Span

	switch intrinsic.Name {
	case "write":
		if len(params) != 2 || !params[0].Equal(types.IntType(32)) || !params[1].Equal(types.StrType) {
			a.errf(invalidIntrinsicParams(intrinsic.Name, span))
		}
		if !info.Signature.ReturnType.Equal(types.UnitType) {
			a.errf(invalidIntrinsicRetType(intrinsic.Name, span))
		}
	case "exit":
		if len(params) != 1 || !params[0].Equal(types.IntType(32)) {
			a.errf(invalidIntrinsicParams(intrinsic.Name, span))
		}
		if !info.Signature.ReturnType.Equal(types.NeverType) {
			a.errf(invalidIntrinsicRetType(intrinsic.Name, span))
		}
	default:
		a.errf(invalidIntrinsic(intrinsic.Name, span))
	}
}

// functionLinkage computes a function's object-file linkage (spec.md
// §4.3: "compute linkage (private → internal unless no_mangle)").
func functionLinkage(info *namestore.FunctionInfo) ir.Linkage {
	if info.NoMangle || info.Visibility == ast.Public {
		return ir.External
	}
	return ir.Internal
}

// line returns span's 1-based starting line in c's source, used to
// populate namestore.FieldInfo.LineNo / StructInfo.LineNo for DWARF.
func line(c *Crate, span token.Span) int {
	ln, _ := c.File.Position(span.Start)
	return ln
}
