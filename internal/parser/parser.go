// Package parser implements the wlang recursive-descent/precedence-
// climbing parser (spec.md §4.2). It is pull-based over a flat token
// slice: each production attempts to match from the front (or, for
// binary operators, at the rightmost top-level occurrence of the lowest
// precedence still present) and returns "not this rule" without
// consuming on a non-match, or raises a positional error on a partial
// match.
//
// The control structure — try a list of rules in priority order over a
// token slice, recursing into bracket-balanced sub-slices — is grounded
// on original_source/src/parser/rules.rs and its rules/ submodules
// (attributes.rs, control_flow.rs, function.rs, path.rs, struct_.rs,
// types.rs), generalized from the prototype's four-token grammar to the
// full grammar of spec.md §4.2.
package parser

import (
	"github.com/wlab-lang/wlab/internal/ast"
	"github.com/wlab-lang/wlab/internal/diag"
	"github.com/wlab-lang/wlab/internal/token"
)

type parser struct {
	src []byte
}

// Parse validates bracket balance once up front (spec.md §4.2) and then
// parses the full token slice into a Module.
func Parse(src []byte, toks []token.Token) (*ast.Module, *diag.Diagnostic) {
	p := &parser{src: src}

	if err := p.checkBrackets(toks); err != nil {
		return nil, err
	}

	mod, rest, err := p.parseModule(toks)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, unexpectedTokens(spanOf(rest))
	}
	return mod, nil
}

func (p *parser) text(t token.Token) string { return string(t.Span.Slice(p.src)) }

func spanOf(toks []token.Token) token.Span {
	if len(toks) == 0 {
		return token.NoSpan
	}
	return token.Join(toks[0].Span, toks[len(toks)-1].Span)
}

// checkBrackets verifies that every bracket in toks is matched and
// correctly nested (spec.md §4.2, §8's bracket-balance property), so
// that every other rule below can assume matched brackets.
func (p *parser) checkBrackets(toks []token.Token) *diag.Diagnostic {
	var stack []int
	for i, t := range toks {
		switch {
		case t.Kind.IsOpenBracket():
			stack = append(stack, i)
		case t.Kind.IsCloseBracket():
			if len(stack) == 0 {
				return unmatchedBracket(t.Span)
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if toks[top].Kind.Matching() != t.Kind {
				return mismatchedBrackets(toks[top].Span, t.Span)
			}
		}
	}
	if len(stack) > 0 {
		return unmatchedBracket(toks[stack[0]].Span)
	}
	return nil
}

// matchClose returns the index (relative to toks) of the bracket that
// closes the open bracket at toks[openIdx], assuming toks is already
// known (via checkBrackets) to be well-bracketed.
func matchClose(toks []token.Token, openIdx int) int {
	depth := 0
	for i := openIdx; i < len(toks); i++ {
		if toks[i].Kind.IsOpenBracket() {
			depth++
		} else if toks[i].Kind.IsCloseBracket() {
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(toks) - 1
}

// ---------------------------------------------------------------------
// Module / attributes / struct / function
// ---------------------------------------------------------------------

func (p *parser) parseModule(toks []token.Token) (*ast.Module, []token.Token, *diag.Diagnostic) {
	mod := &ast.Module{}
	rest := toks

	for len(rest) > 0 {
		itemAttrs, outerAttrs, next, err := p.parseAttributeRun(rest)
		if err != nil {
			return nil, nil, err
		}
		mod.Attributes = append(mod.Attributes, outerAttrs...)
		rest = next

		if len(rest) == 0 {
			break
		}

		switch {
		case p.isStructStart(rest):
			s, next, err := p.parseStructBody(rest, itemAttrs)
			if err != nil {
				return nil, nil, err
			}
			mod.Structs = append(mod.Structs, *s)
			rest = next
		case p.isFunctionStart(rest):
			f, next, err := p.parseFunctionBody(rest, itemAttrs)
			if err != nil {
				return nil, nil, err
			}
			mod.Functions = append(mod.Functions, *f)
			rest = next
		default:
			return nil, nil, unexpectedTokens(spanOf(rest))
		}
	}

	return mod, rest, nil
}

func (p *parser) isStructStart(toks []token.Token) bool {
	return toks[0].Kind == token.Keyword && p.text(toks[0]) == "struct"
}

// isFunctionStart recognizes `fn` and `pub fn` item headers.
func (p *parser) isFunctionStart(toks []token.Token) bool {
	if toks[0].Kind != token.Keyword {
		return false
	}
	if p.text(toks[0]) == "pub" {
		return len(toks) > 1 && toks[1].Kind == token.Keyword && p.text(toks[1]) == "fn"
	}
	return p.text(toks[0]) == "fn"
}

// parseAttributeRun consumes zero or more leading `#[...]`/`#![...]`
// groups. Inner (`#[...]`) attributes are returned as itemAttrs, to be
// attached to the following struct/function; outer (`#![...]`)
// attributes are returned separately and attach to the enclosing module
// (spec.md §4.2's Attribute grammar; `declare_crate` is always written
// as an outer attribute at the top of a crate).
func (p *parser) parseAttributeRun(toks []token.Token) (itemAttrs, outerAttrs []ast.Attribute, rest []token.Token, err *diag.Diagnostic) {
	rest = toks
	for len(rest) > 0 && rest[0].Kind == token.Hash {
		idx := 1
		outer := false
		if idx < len(rest) && rest[idx].Kind == token.Bang {
			outer = true
			idx++
		}
		if idx >= len(rest) || rest[idx].Kind != token.LBracket {
			return nil, nil, nil, expectedToken(spanAfter(rest[0]), "`[`")
		}
		closeIdx := matchClose(rest, idx)
		inner := rest[idx+1 : closeIdx]

		attrs, aerr := p.parseAttributeList(inner, outer, token.Join(rest[0].Span, rest[closeIdx].Span))
		if aerr != nil {
			return nil, nil, nil, aerr
		}

		if outer {
			outerAttrs = append(outerAttrs, attrs...)
		} else {
			itemAttrs = append(itemAttrs, attrs...)
		}

		rest = rest[closeIdx+1:]
	}
	return itemAttrs, outerAttrs, rest, nil
}

func spanAfter(t token.Token) token.Span { return token.SpanAfter(t.Span) }

// tokenBefore returns toks[i-1], or toks[0] if i is 0, so callers
// building an "expected X after here" diagnostic have a sensible anchor
// even when the missing token was expected at the very start of toks.
func tokenBefore(toks []token.Token, i int) token.Token {
	if i <= 0 {
		return toks[0]
	}
	return toks[i-1]
}

func (p *parser) parseAttributeList(toks []token.Token, outer bool, groupSpan token.Span) ([]ast.Attribute, *diag.Diagnostic) {
	segments, _ := splitOnTopLevel(toks, token.Comma)
	var attrs []ast.Attribute
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		a, err := p.parseOneAttribute(seg, outer, groupSpan)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

func (p *parser) parseOneAttribute(toks []token.Token, outer bool, groupSpan token.Span) (ast.Attribute, *diag.Diagnostic) {
	if len(toks) == 0 || toks[0].Kind != token.Ident {
		return ast.Attribute{}, invalidAttribute(groupSpan, "")
	}
	name := p.text(toks[0])

	switch {
	case name == "no_mangle" && len(toks) == 1:
		return ast.Attribute{Span: groupSpan, Kind: ast.AttrNoMangle, Outer: outer}, nil
	case name == "packed" && len(toks) == 1:
		return ast.Attribute{Span: groupSpan, Kind: ast.AttrPacked, Outer: outer}, nil
	case name == "declare_crate" || name == "intrinsic":
		if len(toks) != 4 || toks[1].Kind != token.LParen || toks[2].Kind != token.Ident || toks[3].Kind != token.RParen {
			return ast.Attribute{}, invalidAttribute(groupSpan, name)
		}
		kind := ast.AttrDeclareCrate
		if name == "intrinsic" {
			kind = ast.AttrIntrinsic
		}
		return ast.Attribute{
			Span:  groupSpan,
			Kind:  kind,
			Outer: outer,
			Name:  ast.Ident{Span: toks[2].Span, Name: p.text(toks[2])},
		}, nil
	default:
		return ast.Attribute{}, invalidAttribute(groupSpan, name)
	}
}

func (p *parser) parseStructBody(toks []token.Token, attrs []ast.Attribute) (*ast.Struct, []token.Token, *diag.Diagnostic) {
	// toks[0] == 'struct'
	if len(toks) < 2 || toks[1].Kind != token.Ident {
		return nil, nil, expectedIdentifier(spanAfter(toks[0]))
	}
	name := ast.Ident{Span: toks[1].Span, Name: p.text(toks[1])}

	if len(toks) < 3 || toks[2].Kind != token.LBrace {
		return nil, nil, expectedFields(spanAfter(toks[1]))
	}
	closeIdx := matchClose(toks, 2)
	inner := toks[3:closeIdx]

	fields, err := p.parseStructFields(inner)
	if err != nil {
		return nil, nil, err
	}

	s := &ast.Struct{
		Span:       token.Join(toks[0].Span, toks[closeIdx].Span),
		Name:       name,
		Fields:     fields,
		Attributes: attrs,
	}
	return s, toks[closeIdx+1:], nil
}

func (p *parser) parseStructFields(toks []token.Token) ([]ast.StructField, *diag.Diagnostic) {
	segments, _ := splitOnTopLevel(toks, token.Comma)
	var fields []ast.StructField
	for _, seg := range segments {
		if len(seg) == 0 {
			continue // trailing comma
		}
		f, err := p.parseStructField(seg)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func (p *parser) parseStructField(toks []token.Token) (ast.StructField, *diag.Diagnostic) {
	if len(toks) == 0 || toks[0].Kind != token.Ident {
		return ast.StructField{}, expectedIdentifier(spanOf(toks))
	}
	name := ast.Ident{Span: toks[0].Span, Name: p.text(toks[0])}
	if len(toks) < 2 || toks[1].Kind != token.Colon {
		return ast.StructField{}, expectedToken(spanAfter(toks[0]), "`:`")
	}
	ty, err := p.parseType(toks[2:])
	if err != nil {
		return ast.StructField{}, err
	}
	return ast.StructField{Name: name, Type: *ty}, nil
}

func (p *parser) parseFunctionBody(toks []token.Token, attrs []ast.Attribute) (*ast.Function, []token.Token, *diag.Diagnostic) {
	start := toks[0]
	vis := ast.Private
	i := 0
	if p.text(toks[0]) == "pub" {
		vis = ast.Public
		i++
	}
	if i >= len(toks) || toks[i].Kind != token.Keyword || p.text(toks[i]) != "fn" {
		return nil, nil, expectedToken(spanAfter(tokenBefore(toks, i)), "`fn`")
	}
	i++
	if i >= len(toks) || toks[i].Kind != token.Ident {
		return nil, nil, expectedIdentifier(spanAfter(tokenBefore(toks, i)))
	}
	name := ast.Ident{Span: toks[i].Span, Name: p.text(toks[i])}
	i++

	if i >= len(toks) || toks[i].Kind != token.LParen {
		return nil, nil, expectedToken(spanAfter(tokenBefore(toks, i)), "`(`")
	}
	closeParen := matchClose(toks, i)
	params, err := p.parseParams(toks[i+1 : closeParen])
	if err != nil {
		return nil, nil, err
	}
	rest := toks[closeParen+1:]

	bodyStart := findTopLevel(rest, func(t token.Token) bool { return t.Kind == token.LBrace })
	if bodyStart < 0 {
		return nil, nil, expectedBody(spanAfter(rest[len(rest)-1]))
	}

	var retType *ast.TypeExpr
	if bodyStart > 0 {
		if rest[0].Kind != token.Arrow {
			return nil, nil, expectedToken(rest[0].Span, "`->` or `{`")
		}
		ty, terr := p.parseType(rest[1:bodyStart])
		if terr != nil {
			return nil, nil, terr
		}
		retType = ty
	}

	block, next, err := p.parseCodeBlockFromFront(rest[bodyStart:])
	if err != nil {
		return nil, nil, err
	}

	f := &ast.Function{
		Span:       token.Join(start.Span, block.Span),
		Name:       name,
		Params:     params,
		ReturnType: retType,
		Attributes: attrs,
		Visibility: vis,
		Body:       *block,
	}
	return f, next, nil
}

func (p *parser) parseParams(toks []token.Token) ([]ast.Param, *diag.Diagnostic) {
	segments, _ := splitOnTopLevel(toks, token.Comma)
	var params []ast.Param
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if seg[0].Kind != token.Ident {
			return nil, expectedParameter(spanOf(seg))
		}
		if len(seg) < 2 || seg[1].Kind != token.Colon {
			return nil, expectedToken(spanAfter(seg[0]), "`:`")
		}
		ty, err := p.parseType(seg[2:])
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{
			Name: ast.Ident{Span: seg[0].Span, Name: p.text(seg[0])},
			Type: *ty,
		})
	}
	return params, nil
}

// ---------------------------------------------------------------------
// Types and paths
// ---------------------------------------------------------------------

func (p *parser) parseType(toks []token.Token) (*ast.TypeExpr, *diag.Diagnostic) {
	if len(toks) == 0 {
		return nil, expectedType(token.NoSpan)
	}
	if len(toks) == 2 && toks[0].Kind == token.LParen && toks[1].Kind == token.RParen {
		return &ast.TypeExpr{Span: spanOf(toks), Unit: true}, nil
	}
	path, rest, err := p.parsePathFromFront(toks)
	if err != nil {
		return nil, err
	}
	if path == nil || len(rest) > 0 {
		return nil, expectedType(spanOf(toks))
	}
	return &ast.TypeExpr{Span: path.Span(), Path: *path}, nil
}

// parsePathFromFront consumes a `::`-separated identifier path from the
// front of toks. It reports (nil, toks, nil) — not an error — when toks
// doesn't start with an identifier at all, so callers can use it as a
// cheap lookahead before committing to a path-shaped production (struct
// initializer, function call, type name).
func (p *parser) parsePathFromFront(toks []token.Token) (*ast.Path, []token.Token, *diag.Diagnostic) {
	if len(toks) == 0 || toks[0].Kind != token.Ident {
		return nil, toks, nil
	}
	var path ast.Path
	i := 0
	for {
		path.Segments = append(path.Segments, ast.Ident{Span: toks[i].Span, Name: p.text(toks[i])})
		i++
		if i < len(toks) && toks[i].Kind == token.ColonColon {
			if i+1 >= len(toks) || toks[i+1].Kind != token.Ident {
				return nil, toks, expectedIdentifier(spanAfter(toks[i]))
			}
			i++
			continue
		}
		break
	}
	return &path, toks[i:], nil
}

// ---------------------------------------------------------------------
// Code blocks & statements
// ---------------------------------------------------------------------

func (p *parser) parseCodeBlockFromFront(toks []token.Token) (*ast.CodeBlock, []token.Token, *diag.Diagnostic) {
	if len(toks) == 0 || toks[0].Kind != token.LBrace {
		return nil, nil, expectedBody(spanOf(toks))
	}
	closeIdx := matchClose(toks, 0)
	inner := toks[1:closeIdx]

	block, err := p.parseStatementList(inner)
	if err != nil {
		return nil, nil, err
	}
	block.Span = token.Join(toks[0].Span, toks[closeIdx].Span)
	return block, toks[closeIdx+1:], nil
}

// parseStatementList splits a block's contents into statements (spec.md
// §4.2's CodeBlock grammar: `(Statement ';')* Statement?`), mirroring
// original_source/src/parser/rules.rs's parse_statement_list. Nested
// struct and function declarations are self-delimiting (their own `}`
// closes them) and so are consumed straight from the front without
// requiring a following `;`; every other statement form runs to the
// next top-level `;`, or to the end of the block if it is the trailing
// expression.
func (p *parser) parseStatementList(toks []token.Token) (*ast.CodeBlock, *diag.Diagnostic) {
	block := &ast.CodeBlock{}
	rest := toks

	for len(rest) > 0 {
		if p.isStructStart(rest) {
			s, next, err := p.parseStructBody(rest, nil)
			if err != nil {
				return nil, err
			}
			block.Body = append(block.Body, &ast.StructStatement{Struct: *s})
			block.TrailingSemicolon = nil
			rest = next
			continue
		}
		if p.isFunctionStart(rest) {
			f, next, err := p.parseFunctionBody(rest, nil)
			if err != nil {
				return nil, err
			}
			block.Body = append(block.Body, &ast.FunctionStatement{Function: *f})
			block.TrailingSemicolon = nil
			rest = next
			continue
		}

		semiIdx := findTopLevel(rest, func(t token.Token) bool { return t.Kind == token.Semicolon })
		if semiIdx < 0 {
			stmt, err := p.parseStatement(rest)
			if err != nil {
				return nil, err
			}
			if stmt != nil {
				block.Body = append(block.Body, stmt)
			}
			block.TrailingSemicolon = nil
			rest = nil
			break
		}

		stmt, err := p.parseStatement(rest[:semiIdx])
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			block.Body = append(block.Body, stmt)
		}
		sp := rest[semiIdx].Span
		block.TrailingSemicolon = &sp
		rest = rest[semiIdx+1:]
	}

	return block, nil
}

func (p *parser) parseStatement(toks []token.Token) (ast.Statement, *diag.Diagnostic) {
	if len(toks) == 0 {
		return nil, nil
	}

	if p.isStructStart(toks) {
		s, rest, err := p.parseStructBody(toks, nil)
		if err != nil {
			return nil, err
		}
		if len(rest) > 0 {
			return nil, unexpectedTokens(spanOf(rest))
		}
		return &ast.StructStatement{Struct: *s}, nil
	}
	if p.isFunctionStart(toks) {
		f, rest, err := p.parseFunctionBody(toks, nil)
		if err != nil {
			return nil, err
		}
		if len(rest) > 0 {
			return nil, unexpectedTokens(spanOf(rest))
		}
		return &ast.FunctionStatement{Function: *f}, nil
	}
	if toks[0].Kind == token.Keyword && p.text(toks[0]) == "let" {
		return p.parseLetStatement(toks)
	}

	if stmt, ok, err := p.tryParseAssign(toks); ok || err != nil {
		return stmt, err
	}

	expr, err := p.parseExpr(toks)
	if err != nil {
		return nil, err
	}
	return &ast.ExprStatement{Expr: expr}, nil
}

func (p *parser) parseLetStatement(toks []token.Token) (ast.Statement, *diag.Diagnostic) {
	i := 1 // skip 'let'
	mutable := false
	if i < len(toks) && p.text(toks[i]) == "mut" {
		mutable = true
		i++
	}
	if i >= len(toks) || toks[i].Kind != token.Ident {
		return nil, expectedIdentifier(spanAfter(toks[i-1]))
	}
	name := ast.Ident{Span: toks[i].Span, Name: p.text(toks[i])}
	i++
	if i >= len(toks) || toks[i].Kind != token.Assign {
		return nil, expectedToken(spanAfter(toks[i-1]), "`=`")
	}
	value, err := p.parseExpr(toks[i+1:])
	if err != nil {
		return nil, err
	}
	return &ast.LetStatement{Span: spanOf(toks), Name: name, Value: value, Mutable: mutable}, nil
}

func (p *parser) tryParseAssign(toks []token.Token) (ast.Statement, bool, *diag.Diagnostic) {
	eqIdx := findTopLevel(toks, func(t token.Token) bool { return t.Kind == token.Assign })
	if eqIdx <= 0 {
		return nil, false, nil
	}
	lhsToks := toks[:eqIdx]
	if !isAssignableShape(lhsToks) {
		return nil, false, nil
	}
	lhs, err := p.parseExpr(lhsToks)
	if err != nil {
		return nil, true, err
	}
	rhs, err := p.parseExpr(toks[eqIdx+1:])
	if err != nil {
		return nil, true, err
	}
	return &ast.AssignStatement{Span: spanOf(toks), LHS: lhs, RHS: rhs}, true, nil
}

// isAssignableShape recognizes the syntactic lvalue shapes an Assign's
// lhs may take (spec.md §4.4: identifier, or a chain of field accesses
// rooted at one), without yet checking mutability (deferred to sema).
func isAssignableShape(toks []token.Token) bool {
	if len(toks) == 0 {
		return false
	}
	if toks[0].Kind != token.Ident {
		return false
	}
	i := 1
	for i+1 < len(toks) && toks[i].Kind == token.Dot && toks[i+1].Kind == token.Ident {
		i += 2
	}
	return i == len(toks)
}

// ---------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------

func (p *parser) parseExpr(toks []token.Token) (ast.Expression, *diag.Diagnostic) {
	if len(toks) == 0 {
		return nil, expectedExpression(token.NoSpan)
	}

	if len(toks) == 1 && toks[0].Kind == token.Ident {
		return &ast.Identifier{Span: toks[0].Span, Name: p.text(toks[0])}, nil
	}
	if len(toks) == 1 && toks[0].Kind == token.Number {
		return &ast.Literal{Span: toks[0].Span, Kind: ast.LitNumber, Text: p.text(toks[0])}, nil
	}
	if len(toks) == 1 && toks[0].Kind == token.String {
		return &ast.Literal{Span: toks[0].Span, Kind: ast.LitString, Text: toks[0].Decoded}, nil
	}

	if e, ok, err := p.tryParseBracketExpr(toks); ok || err != nil {
		return e, err
	}
	if e, ok, err := p.tryParseIf(toks); ok || err != nil {
		return e, err
	}
	if e, ok, err := p.tryParseLoop(toks); ok || err != nil {
		return e, err
	}
	if e, ok, err := p.tryParseBreak(toks); ok || err != nil {
		return e, err
	}
	if e, ok, err := p.tryParseStructInitializer(toks); ok || err != nil {
		return e, err
	}

	levels := [][]token.Kind{
		{token.OrOr},
		{token.AndAnd},
		{token.EqEq, token.NotEq},
		{token.Lt, token.Gt, token.LtEq, token.GtEq},
		{token.Plus, token.Minus},
		{token.Star, token.Slash},
	}
	for _, kinds := range levels {
		if e, ok, err := p.tryParseBinary(toks, kinds); ok || err != nil {
			return e, err
		}
	}

	if e, ok, err := p.tryParseFieldAccess(toks); ok || err != nil {
		return e, err
	}
	if e, ok, err := p.tryParseFunctionCall(toks); ok || err != nil {
		return e, err
	}

	return nil, expectedExpression(spanOf(toks))
}

func (p *parser) tryParseBracketExpr(toks []token.Token) (ast.Expression, bool, *diag.Diagnostic) {
	if toks[0].Kind != token.LParen && toks[0].Kind != token.LBrace {
		return nil, false, nil
	}
	closeIdx := matchClose(toks, 0)
	if closeIdx != len(toks)-1 {
		return nil, false, nil
	}
	if toks[0].Kind == token.LBrace {
		block, err := p.parseStatementList(toks[1:closeIdx])
		if err != nil {
			return nil, true, err
		}
		block.Span = spanOf(toks)
		return &ast.CompoundExpr{Block: *block}, true, nil
	}
	inner := toks[1:closeIdx]
	if len(inner) == 0 {
		return nil, false, nil // `()` is only valid as a unit type, not an expression
	}
	e, err := p.parseExpr(inner)
	return e, true, err
}

func (p *parser) tryParseIf(toks []token.Token) (ast.Expression, bool, *diag.Diagnostic) {
	if p.text(toks[0]) != "if" {
		return nil, false, nil
	}
	e, rest, err := p.parseIfFromFront(toks)
	if err != nil {
		return nil, true, err
	}
	if len(rest) > 0 {
		return nil, true, unexpectedTokens(spanOf(rest))
	}
	return e, true, nil
}

// parseIfFromFront parses `if cond block [else (if ... | block)]` and
// returns the remaining tokens, so an else-if chain can recurse (spec.md
// §4.2, grounded on control_flow.rs's try_parse_if_from_front).
func (p *parser) parseIfFromFront(toks []token.Token) (*ast.IfExpr, []token.Token, *diag.Diagnostic) {
	ifTok := toks[0]
	leftBrace := findTopLevel(toks[1:], func(t token.Token) bool { return t.Kind == token.LBrace })
	if leftBrace < 0 {
		return nil, nil, expectedBody(spanAfter(ifTok))
	}
	leftBrace++ // relative to toks

	condToks := toks[1:leftBrace]
	if len(condToks) == 0 {
		return nil, nil, expectedExpression(spanAfter(ifTok))
	}
	cond, err := p.parseExpr(condToks)
	if err != nil {
		return nil, nil, err
	}

	block, rest, err := p.parseCodeBlockFromFront(toks[leftBrace:])
	if err != nil {
		return nil, nil, err
	}

	ifExpr := &ast.IfExpr{
		Span:      token.Join(ifTok.Span, block.Span),
		Condition: cond,
		Block:     *block,
	}

	if len(rest) == 0 || p.text(rest[0]) != "else" {
		return ifExpr, rest, nil
	}
	elseTok := rest[0]

	if len(rest) > 1 && p.text(rest[1]) == "if" {
		elseIf, rest2, err := p.parseIfFromFront(rest[1:])
		if err != nil {
			return nil, nil, err
		}
		elseBlock := ast.CodeBlock{
			Span: elseIf.Span,
			Body: []ast.Statement{&ast.ExprStatement{Expr: elseIf}},
		}
		ifExpr.Else = &elseBlock
		ifExpr.Span = token.Join(ifExpr.Span, elseIf.Span)
		return ifExpr, rest2, nil
	}

	elseBlock, rest2, err := p.parseCodeBlockFromFront(rest[1:])
	if err != nil {
		return nil, nil, expectedBody(spanAfter(elseTok))
	}
	ifExpr.Else = elseBlock
	ifExpr.Span = token.Join(ifExpr.Span, elseBlock.Span)
	return ifExpr, rest2, nil
}

func (p *parser) tryParseLoop(toks []token.Token) (ast.Expression, bool, *diag.Diagnostic) {
	if p.text(toks[0]) != "loop" {
		return nil, false, nil
	}
	block, rest, err := p.parseCodeBlockFromFront(toks[1:])
	if err != nil {
		return nil, true, err
	}
	if len(rest) > 0 {
		return nil, true, unexpectedTokens(spanOf(rest))
	}
	return &ast.LoopExpr{Span: token.Join(toks[0].Span, block.Span), Block: *block}, true, nil
}

func (p *parser) tryParseBreak(toks []token.Token) (ast.Expression, bool, *diag.Diagnostic) {
	if p.text(toks[0]) != "break" {
		return nil, false, nil
	}
	if len(toks) == 1 {
		return &ast.BreakExpr{Span: toks[0].Span}, true, nil
	}
	value, err := p.parseExpr(toks[1:])
	if err != nil {
		return nil, true, err
	}
	return &ast.BreakExpr{Span: token.Join(toks[0].Span, value.Pos()), Value: value}, true, nil
}

func (p *parser) tryParseStructInitializer(toks []token.Token) (ast.Expression, bool, *diag.Diagnostic) {
	path, rest, err := p.parsePathFromFront(toks)
	if err != nil || path == nil {
		return nil, false, nil
	}
	if len(rest) == 0 || rest[0].Kind != token.LBrace {
		return nil, false, nil
	}
	closeIdx := matchClose(rest, 0)
	if closeIdx != len(rest)-1 {
		return nil, false, nil
	}
	fields, ferr := p.parseStructInitFields(rest[1:closeIdx])
	if ferr != nil {
		return nil, true, ferr
	}
	return &ast.StructInitializer{
		Span:   token.Join(toks[0].Span, rest[closeIdx].Span),
		Name:   *path,
		Fields: fields,
	}, true, nil
}

func (p *parser) parseStructInitFields(toks []token.Token) ([]ast.StructInitField, *diag.Diagnostic) {
	segments, _ := splitOnTopLevel(toks, token.Comma)
	var fields []ast.StructInitField
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if seg[0].Kind != token.Ident || len(seg) < 2 || seg[1].Kind != token.Colon {
			return nil, expectedIdentifier(spanOf(seg))
		}
		val, err := p.parseExpr(seg[2:])
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.StructInitField{
			Name:  ast.Ident{Span: seg[0].Span, Name: p.text(seg[0])},
			Value: val,
		})
	}
	return fields, nil
}

func (p *parser) tryParseBinary(toks []token.Token, kinds []token.Kind) (ast.Expression, bool, *diag.Diagnostic) {
	idx := rightmostTopLevel(toks, func(t token.Token) bool {
		for _, k := range kinds {
			if t.Kind == k {
				return true
			}
		}
		return false
	})
	if idx < 0 {
		return nil, false, nil
	}
	lhs, err := p.parseExpr(toks[:idx])
	if err != nil {
		return nil, true, err
	}
	rhs, err := p.parseExpr(toks[idx+1:])
	if err != nil {
		return nil, true, err
	}
	return &ast.BinaryExpr{
		Span: spanOf(toks),
		LHS:  lhs,
		Op:   opCodeFor(toks[idx].Kind),
		RHS:  rhs,
	}, true, nil
}

func opCodeFor(k token.Kind) ast.OpCode {
	switch k {
	case token.Plus:
		return ast.OpAdd
	case token.Minus:
		return ast.OpSub
	case token.Star:
		return ast.OpMul
	case token.Slash:
		return ast.OpDiv
	case token.EqEq:
		return ast.OpEq
	case token.NotEq:
		return ast.OpNotEq
	case token.Lt:
		return ast.OpLt
	case token.Gt:
		return ast.OpGt
	case token.LtEq:
		return ast.OpLtEq
	case token.GtEq:
		return ast.OpGtEq
	case token.AndAnd:
		return ast.OpAnd
	case token.OrOr:
		return ast.OpOr
	default:
		return ast.OpAdd
	}
}

func (p *parser) tryParseFieldAccess(toks []token.Token) (ast.Expression, bool, *diag.Diagnostic) {
	idx := rightmostTopLevel(toks, func(t token.Token) bool { return t.Kind == token.Dot })
	if idx < 0 || idx != len(toks)-2 {
		return nil, false, nil
	}
	if toks[idx+1].Kind != token.Ident {
		return nil, false, nil
	}
	lhs, err := p.parseExpr(toks[:idx])
	if err != nil {
		return nil, true, err
	}
	return &ast.FieldAccess{
		Span: spanOf(toks),
		Expr: lhs,
		Name: ast.Ident{Span: toks[idx+1].Span, Name: p.text(toks[idx+1])},
	}, true, nil
}

func (p *parser) tryParseFunctionCall(toks []token.Token) (ast.Expression, bool, *diag.Diagnostic) {
	path, rest, err := p.parsePathFromFront(toks)
	if err != nil || path == nil {
		return nil, false, nil
	}
	if len(rest) == 0 || rest[0].Kind != token.LParen {
		return nil, false, nil
	}
	closeIdx := matchClose(rest, 0)
	if closeIdx != len(rest)-1 {
		return nil, false, nil
	}
	args, aerr := p.parseExprList(rest[1:closeIdx])
	if aerr != nil {
		return nil, true, aerr
	}
	return &ast.CallExpr{
		Span: token.Join(toks[0].Span, rest[closeIdx].Span),
		Path: *path,
		Args: args,
	}, true, nil
}

func (p *parser) parseExprList(toks []token.Token) ([]ast.Expression, *diag.Diagnostic) {
	if len(toks) == 0 {
		return nil, nil
	}
	segments, seps := splitOnTopLevel(toks, token.Comma)
	var exprs []ast.Expression
	for i, seg := range segments {
		if len(seg) == 0 {
			if i == len(segments)-1 {
				continue // trailing comma
			}
			anchor := spanOf(toks)
			if i > 0 {
				anchor = spanAfter(seps[i-1])
			}
			return nil, expectedExpression(anchor)
		}
		e, err := p.parseExpr(seg)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}
