// Copyright 2018 The CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package astutil provides tree-walking helpers over internal/ast.
//
// cuelang.org/go/cue/ast/astutil exposes a reflection-based Apply/Cursor
// pair that can mutate an arbitrary CUE node in place (insert/delete
// struct fields, replace any node by type). wlang's AST is closed (a
// dozen concrete node types, no generic struct-literal splicing) and
// nothing in the core needs to mutate the tree after parsing — the
// analyzer only ever reads it — so Apply's generic, reflect-driven
// Cursor is replaced here with a plain typed pre-order Inspect, the
// shape cue/ast/astutil itself falls back to in its own Walk docs for
// read-only traversal. The debug AST dump (`--ast`) is expressed as an
// Inspect visitor.
package astutil

import "github.com/wlab-lang/wlab/internal/ast"

// Inspect traverses node in depth-first order. It calls f(node) for
// node; if f returns true, Inspect recurses into node's children, then
// calls f(nil) once those children have all been visited (mirroring
// go/ast.Inspect's "node is nil" end-of-children signal).
func Inspect(node ast.Node, f func(ast.Node) bool) {
	if node == nil || !f(node) {
		return
	}
	walk(node, f)
	f(nil)
}

func walk(node ast.Node, f func(ast.Node) bool) {
	switch n := node.(type) {
	case *ast.Module:
		for i := range n.Functions {
			Inspect(&n.Functions[i], f)
		}
		for i := range n.Structs {
			Inspect(&n.Structs[i], f)
		}
	case *ast.Function:
		Inspect(&n.Body, f)
	case *ast.Struct:
		// fields carry no sub-expressions worth visiting
	case *ast.CodeBlock:
		for i := range n.Body {
			Inspect(n.Body[i], f)
		}
	case *ast.ExprStatement:
		Inspect(n.Expr, f)
	case *ast.LetStatement:
		Inspect(n.Value, f)
	case *ast.AssignStatement:
		Inspect(n.LHS, f)
		Inspect(n.RHS, f)
	case *ast.StructStatement:
		Inspect(&n.Struct, f)
	case *ast.FunctionStatement:
		Inspect(&n.Function, f)
	case *ast.BinaryExpr:
		Inspect(n.LHS, f)
		Inspect(n.RHS, f)
	case *ast.CompoundExpr:
		Inspect(&n.Block, f)
	case *ast.CallExpr:
		for _, a := range n.Args {
			Inspect(a, f)
		}
	case *ast.IfExpr:
		Inspect(n.Condition, f)
		Inspect(&n.Block, f)
		if n.Else != nil {
			Inspect(n.Else, f)
		}
	case *ast.LoopExpr:
		Inspect(&n.Block, f)
	case *ast.BreakExpr:
		if n.Value != nil {
			Inspect(n.Value, f)
		}
	case *ast.StructInitializer:
		for _, fld := range n.Fields {
			Inspect(fld.Value, f)
		}
	case *ast.FieldAccess:
		Inspect(n.Expr, f)
	case *ast.Identifier, *ast.Literal:
		// leaves
	}
}

// Statements returns every top-level function and struct in a module as
// a flat slice of ast.Node, for diagnostics that want to scan a module
// without a full Inspect (e.g. duplicate top-level name detection).
func Statements(m *ast.Module) []ast.Node {
	out := make([]ast.Node, 0, len(m.Functions)+len(m.Structs))
	for i := range m.Functions {
		out = append(out, &m.Functions[i])
	}
	for i := range m.Structs {
		out = append(out, &m.Structs[i])
	}
	return out
}
