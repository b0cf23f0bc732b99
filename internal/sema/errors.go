package sema

import (
	"github.com/wlab-lang/wlab/internal/diag"
	"github.com/wlab-lang/wlab/internal/token"
	"github.com/wlab-lang/wlab/internal/types"
)

// This file collects the diagnostic constructors for every name, type,
// attribute, and entry-point category spec.md §7 lists. Lexical and
// syntactic categories live in internal/lexer and internal/parser; these
// are the ones only the analyzer can detect, since they require a
// populated name store or a type to compare against.

func itemAlreadyDefined(name string, span token.Span) *diag.Diagnostic {
	return diag.Newf("ItemAlreadyDefined", span, "item %q is already defined", name)
}

func undefinedType(path string, span token.Span) *diag.Diagnostic {
	return diag.Newf("UndefinedType", span, "undefined type %q", path)
}

func notAType(path string, span token.Span) *diag.Diagnostic {
	return diag.Newf("NotAType", span, "%q is not a type", path)
}

func undefinedVariable(name string, span token.Span) *diag.Diagnostic {
	return diag.Newf("UndefinedVariable", span, "undefined variable %q", name)
}

func notAFunction(path string, span token.Span) *diag.Diagnostic {
	return diag.Newf("NotAFunction", span, "%q is not a function", path)
}

func duplicateField(name string, span token.Span) *diag.Diagnostic {
	return diag.Newf("DuplicateField", span, "field %q assigned more than once", name)
}

func invalidField(name, structPath string, span token.Span) *diag.Diagnostic {
	return diag.Newf("InvalidField", span, "%q has no field %q", structPath, name)
}

func missingField(name string, span token.Span) *diag.Diagnostic {
	return diag.Newf("MissingField", span, "missing field %q", name)
}

func unexpectedType(want, got types.Type, span token.Span) *diag.Diagnostic {
	return diag.Newf("UnexpectedType", span, "expected type %s, found %s", want, got)
}

func undefinedOperator(op, onType string, span token.Span) *diag.Diagnostic {
	return diag.Newf("UndefinedOperator", span, "operator %q is not defined for type %s", op, onType)
}

func mismatchedIfElse(thenSpan token.Span, thenType types.Type, elseSpan token.Span, elseType types.Type) *diag.Diagnostic {
	return diag.Newf("MismatchedIfElse", thenSpan,
		"if/else arms have different types: %s and %s", thenType, elseType).
		WithHint(thenSpan, diag.Error, "then-branch is "+thenType.String()).
		WithHint(elseSpan, diag.Error, "else-branch is "+elseType.String())
}

func unexpectedBreakType(firstSpan token.Span, firstType types.Type, span token.Span, got types.Type) *diag.Diagnostic {
	return diag.Newf("UnexpectedBreakType", span,
		"break value has type %s, expected %s", got, firstType).
		WithHint(firstSpan, diag.Info, "type "+firstType.String()+" established here")
}

func notAStructElementAccess(t types.Type, span token.Span) *diag.Diagnostic {
	return diag.Newf("NonStructElementAccess", span, "cannot access a field of non-struct type %s", t)
}

func notAStructInitializer(path string, span token.Span) *diag.Diagnostic {
	return diag.Newf("NonStructInitializer", span, "%q is not a struct", path)
}

func breakOutsideLoop(span token.Span) *diag.Diagnostic {
	return diag.New("BreakOutsideLoop", "break used outside of a loop", span)
}

func mutateImmutable(name string, span token.Span) *diag.Diagnostic {
	return diag.Newf("MutateImmutable", span, "cannot assign to immutable variable %q", name)
}

func invalidAssignTarget(span token.Span) *diag.Diagnostic {
	return diag.New("MutateImmutable", "assignment target is not a variable or field access", span)
}

func arityMismatch(name string, want, got int, span token.Span) *diag.Diagnostic {
	return diag.Newf("UnexpectedType", span, "function %q takes %d argument(s), found %d", name, want, got)
}

func literalOverflow(text string, bits uint32, span token.Span) *diag.Diagnostic {
	return diag.Newf("UnexpectedType", span, "literal %q overflows i%d", text, bits)
}

func nonFunctionAttribute(name string, span token.Span) *diag.Diagnostic {
	return diag.Newf("NonFunctionAttribute", span, "attribute %q is not valid on a function", name)
}

func nonStructAttribute(name string, span token.Span) *diag.Diagnostic {
	return diag.Newf("NonStructAttribute", span, "attribute %q is not valid on a struct", name)
}

func nonModuleAttribute(name string, span token.Span) *diag.Diagnostic {
	return diag.Newf("NonModuleAttribute", span, "attribute %q is not valid on a module", name)
}

func multipleIntrinsic(span token.Span) *diag.Diagnostic {
	return diag.New("MultipleIntrinsic", "a function may carry only one #[intrinsic(...)] attribute", span)
}

func invalidIntrinsic(name string, span token.Span) *diag.Diagnostic {
	return diag.Newf("InvalidIntrinsic", span, "unknown intrinsic %q", name)
}

func invalidIntrinsicParams(name string, span token.Span) *diag.Diagnostic {
	return diag.Newf("InvalidIntrinsicParams", span, "intrinsic %q has the wrong parameter types", name)
}

func invalidIntrinsicRetType(name string, span token.Span) *diag.Diagnostic {
	return diag.Newf("InvalidIntrinsicRetType", span, "intrinsic %q has the wrong return type", name)
}

func nonEmptyIntrinsic(name string, span token.Span) *diag.Diagnostic {
	return diag.Newf("NonEmptyIntrinsic", span, "intrinsic %q must have an empty body", name)
}

func duplicateMain(firstSpan, span token.Span) *diag.Diagnostic {
	return diag.New("DuplicateMain", "more than one crate defines `main`", span).
		WithHint(firstSpan, diag.Info, "first defined here")
}

func mainHasParameters(span token.Span) *diag.Diagnostic {
	return diag.New("MainHasParameters", "`main` must take no parameters", span)
}

func mainHasNonUnitReturn(span token.Span) *diag.Diagnostic {
	return diag.New("MainHasNonUnitReturn", "`main` must return `()`", span)
}

func noExit(span token.Span) *diag.Diagnostic {
	return diag.New("NoExit", "no crate defines `std::exit(i32) -> !`, required to generate `_start`", span)
}

func missingCrateName(span token.Span) *diag.Diagnostic {
	return diag.New("MissingCrateName", "a crate must carry #![declare_crate(name)]", span)
}

func unreachableCode(span token.Span) *diag.Diagnostic {
	d := diag.New("UnreachableCode", "unreachable code", span)
	d.Hints[0].Severity = diag.Warning
	return d
}
