package lexer

import (
	"github.com/wlab-lang/wlab/internal/diag"
	"github.com/wlab-lang/wlab/internal/token"
)

// These constructors mirror the free functions of
// original_source/src/lexer/error.rs (invalid_token, unclosed_string,
// unclosed_comment, invalid_escape), each building a Diagnostic with a
// single primary hint the way that file's `d!` macro does.

func invalidToken(span token.Span) *diag.Diagnostic {
	return diag.New("InvalidToken", "invalid token", span)
}

func unclosedString(span token.Span) *diag.Diagnostic {
	return diag.New("UnclosedString", "unclosed string literal", span).
		WithHint(span, diag.Error, "string starts here")
}

func unclosedComment(span token.Span) *diag.Diagnostic {
	return diag.New("UnclosedComment", "unclosed block comment", span).
		WithHint(span, diag.Error, "comment starts here")
}

func invalidEscape(span token.Span) *diag.Diagnostic {
	return diag.New("InvalidEscape", "invalid escape sequence", span)
}
