package parser

import (
	"github.com/wlab-lang/wlab/internal/diag"
	"github.com/wlab-lang/wlab/internal/token"
)

// These mirror the ParseError variants enumerated in spec.md §4.2,
// grounded on original_source/src/parser/error.rs's Diagnostic-producing
// constructors (expected_identifier, expected_token, expected_fields,
// ...), each anchored at the narrowest meaningful span.

func invalidToken(span token.Span) *diag.Diagnostic {
	return diag.New("InvalidToken", "invalid token", span)
}

func unmatchedBracket(span token.Span) *diag.Diagnostic {
	return diag.New("UnmatchedBracket", "unmatched bracket", span)
}

func mismatchedBrackets(open, close token.Span) *diag.Diagnostic {
	d := diag.New("MismatchedBrackets", "mismatched brackets", open)
	return d.WithHint(close, diag.Error, "expected the matching closing bracket here")
}

func expectedToken(span token.Span, want string) *diag.Diagnostic {
	return diag.Newf("ExpectedToken", span, "expected %s", want)
}

func expectedIdentifier(span token.Span) *diag.Diagnostic {
	return diag.New("ExpectedIdentifier", "expected identifier", span)
}

func expectedExpression(span token.Span) *diag.Diagnostic {
	return diag.New("ExpectedExpression", "expected expression", span)
}

func expectedType(span token.Span) *diag.Diagnostic {
	return diag.New("ExpectedType", "expected type", span)
}

func expectedBody(span token.Span) *diag.Diagnostic {
	return diag.New("ExpectedBody", "expected a body", span)
}

func expectedParameter(span token.Span) *diag.Diagnostic {
	return diag.New("ExpectedParameter", "expected a parameter", span)
}

func expectedFields(span token.Span) *diag.Diagnostic {
	return diag.New("ExpectedFields", "expected struct fields", span)
}

func invalidAttribute(span token.Span, name string) *diag.Diagnostic {
	return diag.Newf("InvalidAttribute", span, "unrecognized attribute %q", name)
}

func unexpectedTokens(span token.Span) *diag.Diagnostic {
	return diag.New("UnexpectedTokens", "unexpected trailing tokens", span)
}
