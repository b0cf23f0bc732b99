// Package ast defines the wlang abstract syntax tree (spec.md §3). Every
// node carries a byte-range Span into the source buffer, which the
// caller keeps alongside the tree for the lifetime of the compile;
// identifier and path segments additionally hold their own text as a
// Go string copied out of that buffer.
package ast

import "github.com/wlab-lang/wlab/internal/token"

// Ident is a span-tagged identifier; Name holds its text, so it can be
// read without the source buffer.
type Ident struct {
	Span token.Span
	Name string
}

// Path is a non-empty, ordered sequence of identifier segments, e.g.
// `crate_name::item_name`. The common one-segment case needs no special
// representation in Go the way the original's MaybeVec<S<&str>> avoided
// a heap allocation for it; a nil-capacity-zero slice already elides the
// allocation for a single segment when built with Path{Segments[:1]}.
type Path struct {
	Segments []Ident
}

// Span returns the path's full span, from its first to its last segment.
func (p Path) Span() token.Span {
	if len(p.Segments) == 0 {
		return token.NoSpan
	}
	return token.Join(p.Segments[0].Span, p.Segments[len(p.Segments)-1].Span)
}

// String renders the path with `::` separators, for diagnostics and the
// name store (spec.md §4.3).
func (p Path) String() string {
	s := ""
	for i, seg := range p.Segments {
		if i > 0 {
			s += "::"
		}
		s += seg.Name
	}
	return s
}

// Single reports whether the path has exactly one segment, and returns
// it; used by type resolution's primitive-vs-struct dispatch (spec.md
// §4.3).
func (p Path) Single() (Ident, bool) {
	if len(p.Segments) == 1 {
		return p.Segments[0], true
	}
	return Ident{}, false
}

// Node is implemented by every AST node so generic tooling (astutil,
// diagnostics) can ask for a span without a type switch on every variant.
type Node interface {
	Pos() token.Span
}

// Module is the top-level parse result for a single crate (spec.md §3).
type Module struct {
	Attributes []Attribute
	Structs    []Struct
	Functions  []Function
}

// Pos reports the span of the first attribute, else of the first
// function, else of the first struct, so a *Module can itself be passed
// to astutil.Inspect without every caller special-casing the root. An
// empty module (no attributes, no items) has no meaningful position.
func (m *Module) Pos() token.Span {
	if len(m.Attributes) > 0 {
		return m.Attributes[0].Span
	}
	if len(m.Functions) > 0 {
		return m.Functions[0].Span
	}
	if len(m.Structs) > 0 {
		return m.Structs[0].Span
	}
	return token.NoSpan
}

// AttributeKind distinguishes the four recognized attribute forms
// (spec.md §3). Go has no closed sum type, so AttributeKind plays the
// role the original's `Attribute` enum variants played, with the
// variant-specific payload (Name) stored alongside it.
type AttributeKind int

const (
	AttrDeclareCrate AttributeKind = iota
	AttrNoMangle
	AttrPacked
	AttrIntrinsic
)

// Attribute is `#[...]` or `#![...]` metadata attached to a module,
// struct, or function.
type Attribute struct {
	Span token.Span
	Kind AttributeKind
	Name Ident // populated for AttrDeclareCrate and AttrIntrinsic; zero otherwise
	Outer bool // true for `#![...]` (applies to the enclosing module)
}

func (a Attribute) Pos() token.Span { return a.Span }

// TypeExpr is the `Type := Path | '(' ')'` production of spec.md §4.2: a
// type name is either a dotted Path (resolved against primitives and the
// name store, spec.md §4.3) or the literal unit type `()`.
type TypeExpr struct {
	Span token.Span
	Unit bool
	Path Path // meaningful only when !Unit
}

// StructField is one `name: Type` entry in a struct declaration.
type StructField struct {
	Name Ident
	Type TypeExpr
}

// Struct declares a named aggregate type (spec.md §3).
type Struct struct {
	Span       token.Span
	Name       Ident
	Fields     []StructField
	Attributes []Attribute
}

func (s Struct) Pos() token.Span { return s.Span }

// Visibility is Public or Private (spec.md §3).
type Visibility int

const (
	Private Visibility = iota
	Public
)

// Param is one `name: Type` function parameter.
type Param struct {
	Name Ident
	Type TypeExpr
}

// Function declares a function signature plus its body (spec.md §3).
type Function struct {
	Span       token.Span
	Name       Ident
	Params     []Param
	ReturnType *TypeExpr // nil means the function omits `-> Type` (unit by default)
	Attributes []Attribute
	Visibility Visibility
	Body       CodeBlock
}

func (f Function) Pos() token.Span { return f.Span }

// CodeBlock is `{ stmt; stmt; trailing_expr }` (spec.md §3). If the
// final statement is an expression statement with no trailing
// semicolon, TrailingSemicolon is nil and that statement's
// expression is the block's implicit result; otherwise the block's
// result is unit.
type CodeBlock struct {
	Span              token.Span
	Body              []Statement
	TrailingSemicolon *token.Span
}

func (c CodeBlock) Pos() token.Span { return c.Span }

// HasTrailingExpr reports whether the block's last statement is an
// expression statement that yields the block's value (spec.md §3
// invariant 4).
func (c CodeBlock) HasTrailingExpr() bool {
	if len(c.Body) == 0 {
		return false
	}
	if c.TrailingSemicolon != nil {
		return false
	}
	_, ok := c.Body[len(c.Body)-1].(*ExprStatement)
	return ok
}

// Statement is implemented by every statement-level AST node.
type Statement interface {
	Node
	statementNode()
}

// ExprStatement wraps a bare expression statement.
type ExprStatement struct {
	Expr Expression
}

func (s *ExprStatement) Pos() token.Span  { return s.Expr.Pos() }
func (*ExprStatement) statementNode()     {}

// LetStatement is `let [mut] name = value` (spec.md §3).
type LetStatement struct {
	Span    token.Span
	Name    Ident
	Value   Expression
	Mutable bool
}

func (s *LetStatement) Pos() token.Span { return s.Span }
func (*LetStatement) statementNode()    {}

// AssignStatement is `lhs = rhs` (spec.md §3).
type AssignStatement struct {
	Span token.Span
	LHS  Expression
	RHS  Expression
}

func (s *AssignStatement) Pos() token.Span { return s.Span }
func (*AssignStatement) statementNode()    {}

// StructStatement declares a struct nested inside a function body
// (spec.md §3 permits Struct as a Statement variant).
type StructStatement struct {
	Struct Struct
}

func (s *StructStatement) Pos() token.Span { return s.Struct.Span }
func (*StructStatement) statementNode()    {}

// FunctionStatement declares a function nested inside a function body.
type FunctionStatement struct {
	Function Function
}

func (s *FunctionStatement) Pos() token.Span { return s.Function.Span }
func (*FunctionStatement) statementNode()    {}

// Expression is implemented by every expression-level AST node.
type Expression interface {
	Node
	expressionNode()
}

// Identifier is a bare variable/parameter reference.
type Identifier struct {
	Span token.Span
	Name string
}

func (e *Identifier) Pos() token.Span { return e.Span }
func (*Identifier) expressionNode()   {}

// LiteralKind distinguishes number and string literals.
type LiteralKind int

const (
	LitNumber LiteralKind = iota
	LitString
)

// Literal is a number or string literal (spec.md §3). Text holds the raw
// digit string for LitNumber and the escape-decoded bytes for LitString.
type Literal struct {
	Span token.Span
	Kind LiteralKind
	Text string
}

func (e *Literal) Pos() token.Span { return e.Span }
func (*Literal) expressionNode()   {}

// OpCode is a binary operator (spec.md §3).
type OpCode int

const (
	OpAdd OpCode = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNotEq
	OpLt
	OpGt
	OpLtEq
	OpGtEq
	OpAnd
	OpOr
)

func (o OpCode) String() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpEq:
		return "=="
	case OpNotEq:
		return "!="
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	case OpLtEq:
		return "<="
	case OpGtEq:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return "?"
	}
}

// BinaryExpr is `lhs op rhs` (spec.md §3).
type BinaryExpr struct {
	Span  token.Span
	LHS   Expression
	Op    OpCode
	RHS   Expression
}

func (e *BinaryExpr) Pos() token.Span { return e.Span }
func (*BinaryExpr) expressionNode()   {}

// CompoundExpr wraps `{ ... }` used in expression position.
type CompoundExpr struct {
	Block CodeBlock
}

func (e *CompoundExpr) Pos() token.Span { return e.Block.Span }
func (*CompoundExpr) expressionNode()   {}

// CallExpr is `path(args...)` (spec.md §3).
type CallExpr struct {
	Span token.Span
	Path Path
	Args []Expression
}

func (e *CallExpr) Pos() token.Span { return e.Span }
func (*CallExpr) expressionNode()   {}

// IfExpr is `if cond block [else block]` (spec.md §3).
type IfExpr struct {
	Span      token.Span
	Condition Expression
	Block     CodeBlock
	Else      *CodeBlock
}

func (e *IfExpr) Pos() token.Span { return e.Span }
func (*IfExpr) expressionNode()   {}

// LoopExpr is `loop block` (spec.md §3).
type LoopExpr struct {
	Span  token.Span
	Block CodeBlock
}

func (e *LoopExpr) Pos() token.Span { return e.Span }
func (*LoopExpr) expressionNode()   {}

// BreakExpr is `break [value]` (spec.md §3).
type BreakExpr struct {
	Span  token.Span
	Value Expression // nil means an implicit unit value
}

func (e *BreakExpr) Pos() token.Span { return e.Span }
func (*BreakExpr) expressionNode()   {}

// StructInitField is one `name: value` entry of a struct initializer.
type StructInitField struct {
	Name Ident
	Value Expression
}

// StructInitializer is `Path { field: value, ... }` (spec.md §3).
type StructInitializer struct {
	Span   token.Span
	Name   Path
	Fields []StructInitField
}

func (e *StructInitializer) Pos() token.Span { return e.Span }
func (*StructInitializer) expressionNode()   {}

// FieldAccess is `expr.name` (spec.md §3).
type FieldAccess struct {
	Span token.Span
	Expr Expression
	Name Ident
}

func (e *FieldAccess) Pos() token.Span { return e.Span }
func (*FieldAccess) expressionNode()   {}
