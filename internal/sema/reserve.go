package sema

import (
	"github.com/wlab-lang/wlab/internal/ast"
	"github.com/wlab-lang/wlab/internal/namestore"
	"github.com/wlab-lang/wlab/internal/token"
)

// reserveCrate is phase 1 (spec.md §4.3): resolve the crate's own name,
// then create a placeholder entry for every struct and function so that
// forward and cross-crate references all resolve structurally once
// every crate has run this pass.
func (a *Analyzer) reserveCrate(c *Crate) {
	name, ok := a.reserveCrateName(c)
	if !ok {
		return
	}
	c.Name = name
	c.IRModule = a.ctx.CreateModule(name)
	a.names.Reserve(name)

	for i := range c.Module.Structs {
		a.reserveStruct(c, &c.Module.Structs[i])
	}
	for i := range c.Module.Functions {
		a.reserveFunction(c, &c.Module.Functions[i])
	}
}

// reserveCrateName validates the module's own #![...] attributes and
// extracts its declare_crate name, the only outer attribute a module
// may carry (spec.md §4.3, §7's NonModuleAttribute category).
func (a *Analyzer) reserveCrateName(c *Crate) (string, bool) {
	var name string
	var found bool
	for _, attr := range c.Module.Attributes {
		if attr.Kind != ast.AttrDeclareCrate {
			a.errf(nonModuleAttribute(attrName(attr.Kind), attr.Span))
			continue
		}
		name = attr.Name.Name
		found = true
	}
	if !found {
		span := token.NoSpan
		if len(c.Module.Functions) > 0 {
			span = c.Module.Functions[0].Span
		} else if len(c.Module.Structs) > 0 {
			span = c.Module.Structs[0].Span
		}
		a.errf(missingCrateName(span))
		return "", false
	}
	return name, true
}

func attrName(k ast.AttributeKind) string {
	switch k {
	case ast.AttrDeclareCrate:
		return "declare_crate"
	case ast.AttrNoMangle:
		return "no_mangle"
	case ast.AttrPacked:
		return "packed"
	case ast.AttrIntrinsic:
		return "intrinsic"
	default:
		return "?"
	}
}

func (a *Analyzer) reserveStruct(c *Crate, s *ast.Struct) {
	for _, attr := range s.Attributes {
		if attr.Kind != ast.AttrPacked {
			a.errf(nonStructAttribute(attrName(attr.Kind), attr.Span))
		}
	}

	irType := a.ctx.CreateNamedStructType(c.Name + "::" + s.Name.Name)
	info := &namestore.StructInfo{IRType: irType}
	if !a.names.AddStruct([]string{c.Name, s.Name.Name}, info) {
		a.errf(itemAlreadyDefined(s.Name.Name, s.Name.Span))
	}
}

func (a *Analyzer) reserveFunction(c *Crate, f *ast.Function) {
	info := &namestore.FunctionInfo{}
	if !a.names.AddFunction([]string{c.Name, f.Name.Name}, info) {
		a.errf(itemAlreadyDefined(f.Name.Name, f.Name.Span))
		return
	}

	if f.Name.Name == "main" {
		if a.mainCrate != "" {
			a.errf(duplicateMain(a.mainSpan, f.Name.Span))
		} else {
			a.mainCrate = c.Name
			a.mainSpan = f.Name.Span
		}
	}
}
