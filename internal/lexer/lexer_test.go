package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlab-lang/wlab/internal/token"
)

func TestTokenize_Basic(t *testing.T) {
	src := []byte(`fn main() -> i32 { let mut x = 1 + 2 * 3; x }`)
	toks, err := Tokenize(src)
	require.Nil(t, err)
	require.NotEmpty(t, toks)

	var kinds []token.Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}

	assert.Equal(t, token.Keyword, toks[0].Kind) // fn
	assert.Equal(t, "fn", toks[0].Text(src))
	assert.Contains(t, kinds, token.Arrow)
	assert.Contains(t, kinds, token.Number)
}

func TestTokenize_Comments(t *testing.T) {
	src := []byte("// line\nlet /* nested /* block */ comment */ x")
	toks, err := Tokenize(src)
	require.Nil(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, token.Keyword, toks[0].Kind)
	assert.Equal(t, token.Ident, toks[1].Kind)
}

func TestTokenize_UnclosedComment(t *testing.T) {
	_, err := Tokenize([]byte("/* never closes"))
	require.NotNil(t, err)
	assert.Equal(t, "UnclosedComment", err.Category)
}

func TestTokenize_StringEscapes(t *testing.T) {
	toks, err := Tokenize([]byte(`"hi\n\t\\\"\0"`))
	require.Nil(t, err)
	require.Len(t, toks, 1)
	assert.Equal(t, "hi\n\t\\\"\x00", toks[0].Decoded)
}

func TestTokenize_UnclosedString(t *testing.T) {
	_, err := Tokenize([]byte(`"unterminated`))
	require.NotNil(t, err)
	assert.Equal(t, "UnclosedString", err.Category)
}

func TestTokenize_InvalidEscape(t *testing.T) {
	_, err := Tokenize([]byte(`"\q"`))
	require.NotNil(t, err)
	assert.Equal(t, "InvalidEscape", err.Category)
}

func TestTokenize_TwoCharOperators(t *testing.T) {
	toks, err := Tokenize([]byte(`a::b->c == d != e <= f >= g && h || i`))
	require.Nil(t, err)
	var kinds []token.Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Contains(t, kinds, token.ColonColon)
	assert.Contains(t, kinds, token.Arrow)
	assert.Contains(t, kinds, token.EqEq)
	assert.Contains(t, kinds, token.NotEq)
	assert.Contains(t, kinds, token.LtEq)
	assert.Contains(t, kinds, token.GtEq)
	assert.Contains(t, kinds, token.AndAnd)
	assert.Contains(t, kinds, token.OrOr)
}

func TestTokenize_InvalidToken(t *testing.T) {
	_, err := Tokenize([]byte(`@`))
	require.NotNil(t, err)
	assert.Equal(t, "InvalidToken", err.Category)
}

func TestTokenize_RoundTrip(t *testing.T) {
	// Span containment + token round-trip property (spec.md §8): every
	// token's span must lie within the source, and the tokens' text with
	// the gaps between consecutive spans put back must reproduce src.
	src := []byte(`pub fn foo(x: i32) -> bool { x == 1 }`)
	toks, err := Tokenize(src)
	require.Nil(t, err)
	var rebuilt []byte
	last := token.Pos(0)
	for _, tok := range toks {
		require.True(t, tok.Span.Start >= 0 && tok.Span.End <= token.Pos(len(src)))
		require.True(t, tok.Span.Start <= tok.Span.End)
		require.True(t, last <= tok.Span.Start)
		rebuilt = append(rebuilt, src[last:tok.Span.Start]...)
		rebuilt = append(rebuilt, tok.Text(src)...)
		last = tok.Span.End
	}
	rebuilt = append(rebuilt, src[last:]...)
	require.Equal(t, string(src), string(rebuilt))
}
