package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlab-lang/wlab/internal/ast"
	"github.com/wlab-lang/wlab/internal/lexer"
)

func parseSrc(t *testing.T, src string) *ast.Module {
	t.Helper()
	b := []byte(src)
	toks, lerr := lexer.Tokenize(b)
	require.Nil(t, lerr)
	mod, perr := Parse(b, toks)
	require.Nil(t, perr, "%v", perr)
	require.NotNil(t, mod)
	return mod
}

func parseExprSrc(t *testing.T, src string) ast.Expression {
	t.Helper()
	wrapped := "fn f() { " + src + " }"
	mod := parseSrc(t, wrapped)
	require.Len(t, mod.Functions, 1)
	body := mod.Functions[0].Body
	require.Len(t, body.Body, 1)
	stmt, ok := body.Body[0].(*ast.ExprStatement)
	require.True(t, ok)
	return stmt.Expr
}

func TestParse_EmptyFunction(t *testing.T) {
	mod := parseSrc(t, "fn main() { }")
	require.Len(t, mod.Functions, 1)
	assert.Equal(t, "main", mod.Functions[0].Name.Name)
	assert.Empty(t, mod.Functions[0].Params)
	assert.Nil(t, mod.Functions[0].ReturnType)
}

func TestParse_FunctionWithParamsAndReturnType(t *testing.T) {
	mod := parseSrc(t, "pub fn add(a: i32, b: i32) -> i32 { a + b }")
	fn := mod.Functions[0]
	assert.Equal(t, ast.Public, fn.Visibility)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name.Name)
	require.NotNil(t, fn.ReturnType)
	assert.Equal(t, "i32", fn.ReturnType.Path.String())
}

func TestParse_Struct(t *testing.T) {
	mod := parseSrc(t, "struct Point { x: i32, y: i32 }")
	require.Len(t, mod.Structs, 1)
	s := mod.Structs[0]
	assert.Equal(t, "Point", s.Name.Name)
	require.Len(t, s.Fields, 2)
	assert.Equal(t, "x", s.Fields[0].Name.Name)
	assert.Equal(t, "i32", s.Fields[0].Type.Path.String())
}

func TestParse_Attributes(t *testing.T) {
	mod := parseSrc(t, "#![declare_crate(mycrate)]\n#[no_mangle]\nfn main() { }")
	require.Len(t, mod.Attributes, 1)
	assert.Equal(t, ast.AttrDeclareCrate, mod.Attributes[0].Kind)
	assert.Equal(t, "mycrate", mod.Attributes[0].Name.Name)
	require.Len(t, mod.Functions[0].Attributes, 1)
	assert.Equal(t, ast.AttrNoMangle, mod.Functions[0].Attributes[0].Kind)
}

func TestParse_UnitReturnType(t *testing.T) {
	mod := parseSrc(t, "fn f() -> () { }")
	require.NotNil(t, mod.Functions[0].ReturnType)
	assert.True(t, mod.Functions[0].ReturnType.Unit)
}

// Precedence tests (spec.md §8): `a + b * c` must parse as `+(a, *(b,c))`
// and `a * b + c` as `+(*(a,b), c)`.
func TestParse_PrecedenceMulBindsTighterThanAdd(t *testing.T) {
	e := parseExprSrc(t, "a + b * c")
	bin, ok := e.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, bin.Op)
	_, lhsIsIdent := bin.LHS.(*ast.Identifier)
	assert.True(t, lhsIsIdent)
	rhs, ok := bin.RHS.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, rhs.Op)
}

func TestParse_PrecedenceMulBeforeAdd(t *testing.T) {
	e := parseExprSrc(t, "a * b + c")
	bin, ok := e.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, bin.Op)
	lhs, ok := bin.LHS.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, lhs.Op)
	_, rhsIsIdent := bin.RHS.(*ast.Identifier)
	assert.True(t, rhsIsIdent)
}

// `a - b - c` is left-associative: `-(-(a,b), c)`.
func TestParse_SubtractionLeftAssociative(t *testing.T) {
	e := parseExprSrc(t, "a - b - c")
	outer, ok := e.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpSub, outer.Op)
	rhsIdent, ok := outer.RHS.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "c", rhsIdent.Name)
	inner, ok := outer.LHS.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpSub, inner.Op)
}

func TestParse_Parentheses(t *testing.T) {
	e := parseExprSrc(t, "(a + b) * c")
	bin, ok := e.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, bin.Op)
	_, lhsIsAdd := bin.LHS.(*ast.BinaryExpr)
	assert.True(t, lhsIsAdd)
}

func TestParse_FunctionCall(t *testing.T) {
	e := parseExprSrc(t, "foo(1, bar, 2 + 3)")
	call, ok := e.(*ast.CallExpr)
	require.True(t, ok)
	assert.Equal(t, "foo", call.Path.String())
	require.Len(t, call.Args, 3)
}

func TestParse_FieldAccessChain(t *testing.T) {
	e := parseExprSrc(t, "a.b.c")
	outer, ok := e.(*ast.FieldAccess)
	require.True(t, ok)
	assert.Equal(t, "c", outer.Name.Name)
	inner, ok := outer.Expr.(*ast.FieldAccess)
	require.True(t, ok)
	assert.Equal(t, "b", inner.Name.Name)
}

func TestParse_StructInitializer(t *testing.T) {
	e := parseExprSrc(t, "Point { x: 1, y: 2 }")
	init, ok := e.(*ast.StructInitializer)
	require.True(t, ok)
	assert.Equal(t, "Point", init.Name.String())
	require.Len(t, init.Fields, 2)
}

func TestParse_IfElse(t *testing.T) {
	e := parseExprSrc(t, "if a == b { 1 } else { 2 }")
	ifExpr, ok := e.(*ast.IfExpr)
	require.True(t, ok)
	require.NotNil(t, ifExpr.Else)
}

func TestParse_IfElseIfChain(t *testing.T) {
	e := parseExprSrc(t, "if a { 1 } else if b { 2 } else { 3 }")
	ifExpr, ok := e.(*ast.IfExpr)
	require.True(t, ok)
	require.NotNil(t, ifExpr.Else)
	require.Len(t, ifExpr.Else.Body, 1)
	_, ok = ifExpr.Else.Body[0].(*ast.ExprStatement)
	require.True(t, ok)
}

func TestParse_LoopAndBreak(t *testing.T) {
	e := parseExprSrc(t, "loop { break 1 }")
	loop, ok := e.(*ast.LoopExpr)
	require.True(t, ok)
	require.Len(t, loop.Block.Body, 1)
	exprStmt := loop.Block.Body[0].(*ast.ExprStatement)
	brk, ok := exprStmt.Expr.(*ast.BreakExpr)
	require.True(t, ok)
	require.NotNil(t, brk.Value)
}

func TestParse_LetAndAssign(t *testing.T) {
	mod := parseSrc(t, "fn f() { let mut x = 1; x = 2; }")
	body := mod.Functions[0].Body
	require.Len(t, body.Body, 2)
	let, ok := body.Body[0].(*ast.LetStatement)
	require.True(t, ok)
	assert.True(t, let.Mutable)
	assign, ok := body.Body[1].(*ast.AssignStatement)
	require.True(t, ok)
	_, ok = assign.LHS.(*ast.Identifier)
	require.True(t, ok)
}

func TestParse_AssignToFieldAccess(t *testing.T) {
	mod := parseSrc(t, "fn f() { a.b = 1; }")
	body := mod.Functions[0].Body
	assign, ok := body.Body[0].(*ast.AssignStatement)
	require.True(t, ok)
	_, ok = assign.LHS.(*ast.FieldAccess)
	require.True(t, ok)
}

func TestParse_TrailingExprNoSemicolon(t *testing.T) {
	mod := parseSrc(t, "fn f() -> i32 { let x = 1; x }")
	body := mod.Functions[0].Body
	assert.True(t, body.HasTrailingExpr())
	assert.Nil(t, body.TrailingSemicolon)
}

func TestParse_UnmatchedBracket(t *testing.T) {
	b := []byte("fn f( { }")
	toks, lerr := lexer.Tokenize(b)
	require.Nil(t, lerr)
	_, perr := Parse(b, toks)
	require.NotNil(t, perr)
	assert.Equal(t, "UnmatchedBracket", perr.Category)
}

func TestParse_MismatchedBrackets(t *testing.T) {
	b := []byte("fn f() { (1 + 2] }")
	toks, lerr := lexer.Tokenize(b)
	require.Nil(t, lerr)
	_, perr := Parse(b, toks)
	require.NotNil(t, perr)
	assert.Equal(t, "MismatchedBrackets", perr.Category)
}

func TestParse_NestedStructAndFunctionStatements(t *testing.T) {
	mod := parseSrc(t, "fn f() { struct Inner { x: i32 } fn g() { } }")
	body := mod.Functions[0].Body
	require.Len(t, body.Body, 2)
	_, ok := body.Body[0].(*ast.StructStatement)
	require.True(t, ok)
	_, ok = body.Body[1].(*ast.FunctionStatement)
	require.True(t, ok)
}
