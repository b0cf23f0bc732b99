// Package lexer implements the wlang tokenizer (spec.md §4.1): a
// restartable, finite sequence of span-tagged tokens produced by a
// single left-to-right scan, or a localized lexical error.
//
// The scan loop and its eight-rule priority order are modeled on the
// original Rust prototype's Iterator<Item = Result<Token, Spanned<...>>>
// (original_source/src/lexer.rs), generalized to the richer token set
// spec.md §4.1 requires (comments, strings, numbers, multi-char
// operators, keyword classification) the way the pack's other compiler
// front ends (e.g. other_examples' krotik-ecal parser/lexer) scan a byte
// slice with an explicit cursor rather than a character iterator.
package lexer

import (
	"strings"

	"github.com/wlab-lang/wlab/internal/diag"
	"github.com/wlab-lang/wlab/internal/token"
)

// Lexer scans a single source buffer into tokens on demand.
type Lexer struct {
	src []byte
	pos int // byte offset of the next unread byte
}

// New returns a Lexer over src.
func New(src []byte) *Lexer {
	return &Lexer{src: src}
}

// Tokenize scans every token in src. It stops at the first error,
// returning the tokens produced so far (callers that want a restartable
// scan should use Next directly).
func Tokenize(src []byte) ([]token.Token, *diag.Diagnostic) {
	l := New(src)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return toks, err
		}
		if tok.Kind == token.EOF {
			return toks, nil
		}
		toks = append(toks, tok)
	}
}

func (l *Lexer) byteAt(i int) (byte, bool) {
	if i < 0 || i >= len(l.src) {
		return 0, false
	}
	return l.src[i], true
}

func (l *Lexer) peek() (byte, bool)     { return l.byteAt(l.pos) }
func (l *Lexer) peekAt(n int) (byte, bool) { return l.byteAt(l.pos + n) }

// Next scans and returns the next token, or a token.EOF Kind once the
// source is exhausted. A non-nil Diagnostic means the token stream ends
// here (spec.md §4.1: unclosed comment/string, invalid escape, invalid
// token all abort the current crate's pipeline per §7).
func (l *Lexer) Next() (token.Token, *diag.Diagnostic) {
	for {
		b, ok := l.peek()
		if !ok {
			return token.Token{Kind: token.EOF, Span: token.SpanAt(token.Pos(len(l.src)))}, nil
		}

		// Rule 1: ASCII whitespace.
		if isASCIISpace(b) {
			l.pos++
			continue
		}

		// Rule 2: comments.
		if b == '/' {
			if nb, ok := l.peekAt(1); ok && nb == '/' {
				l.skipLineComment()
				continue
			}
			if nb, ok := l.peekAt(1); ok && nb == '*' {
				if err := l.skipBlockComment(); err != nil {
					return token.Token{}, err
				}
				continue
			}
		}

		return l.scanToken()
	}
}

func isASCIISpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func (l *Lexer) skipLineComment() {
	for {
		b, ok := l.peek()
		if !ok || b == '\n' {
			return
		}
		l.pos++
	}
}

// skipBlockComment consumes a `/* ... */` comment, honoring nesting
// (spec.md §4.1 rule 2). The opener's span is remembered so an
// unterminated comment can be anchored there.
func (l *Lexer) skipBlockComment() *diag.Diagnostic {
	start := l.pos
	l.pos += 2 // consume "/*"
	depth := 1
	for depth > 0 {
		b, ok := l.peek()
		if !ok {
			return unclosedComment(token.Span{Start: token.Pos(start), End: token.Pos(start + 2)})
		}
		if b == '/' {
			if nb, ok := l.peekAt(1); ok && nb == '*' {
				depth++
				l.pos += 2
				continue
			}
		}
		if b == '*' {
			if nb, ok := l.peekAt(1); ok && nb == '/' {
				depth--
				l.pos += 2
				continue
			}
		}
		l.pos++
	}
	return nil
}

// twoCharOps lists the rule-3 operators in priority order (longest
// match wins; all are exactly two characters in wlang).
var twoCharOps = []struct {
	text string
	kind token.Kind
}{
	{"->", token.Arrow},
	{"::", token.ColonColon},
	{"==", token.EqEq},
	{"!=", token.NotEq},
	{"<=", token.LtEq},
	{">=", token.GtEq},
	{"&&", token.AndAnd},
	{"||", token.OrOr},
}

var oneCharOps = map[byte]token.Kind{
	'+': token.Plus,
	'-': token.Minus,
	'*': token.Star,
	'/': token.Slash,
	'.': token.Dot,
	'(': token.LParen,
	')': token.RParen,
	'[': token.LBracket,
	']': token.RBracket,
	'{': token.LBrace,
	'}': token.RBrace,
	';': token.Semicolon,
	'=': token.Assign,
	':': token.Colon,
	',': token.Comma,
	'!': token.Bang,
	'#': token.Hash,
	'<': token.Lt,
	'>': token.Gt,
}

func (l *Lexer) scanToken() (token.Token, *diag.Diagnostic) {
	start := l.pos
	b := l.src[l.pos]

	// Rule 3: two-character operators.
	if nb, ok := l.peekAt(1); ok {
		pair := [2]byte{b, nb}
		for _, op := range twoCharOps {
			if op.text[0] == pair[0] && op.text[1] == pair[1] {
				l.pos += 2
				return token.Token{Kind: op.kind, Span: span(start, l.pos)}, nil
			}
		}
	}

	// Rule 4: single-character punctuation.
	if kind, ok := oneCharOps[b]; ok {
		l.pos++
		return token.Token{Kind: kind, Span: span(start, l.pos)}, nil
	}

	// Rule 5: string literal.
	if b == '"' {
		return l.scanString(start)
	}

	// Rule 6: number literal.
	if isDigit(b) {
		for {
			nb, ok := l.peek()
			if !ok || !isDigit(nb) {
				break
			}
			l.pos++
		}
		return token.Token{Kind: token.Number, Span: span(start, l.pos)}, nil
	}

	// Rule 7: identifier (keywords are a post-lexical classification).
	if isIdentStart(b) {
		for {
			nb, ok := l.peek()
			if !ok || !isIdentCont(nb) {
				break
			}
			l.pos++
		}
		sp := span(start, l.pos)
		kind := token.Ident
		if token.IsKeyword(string(sp.Slice(l.src))) {
			kind = token.Keyword
		}
		return token.Token{Kind: kind, Span: sp}, nil
	}

	// Rule 8: anything else.
	l.pos++
	return token.Token{}, invalidToken(span(start, l.pos))
}

func (l *Lexer) scanString(start int) (token.Token, *diag.Diagnostic) {
	l.pos++ // consume opening quote
	var decoded strings.Builder
	for {
		b, ok := l.peek()
		if !ok {
			return token.Token{}, unclosedString(span(start, start+1))
		}
		if b == '"' {
			l.pos++
			return token.Token{Kind: token.String, Span: span(start, l.pos), Decoded: decoded.String()}, nil
		}
		if b == '\\' {
			escStart := l.pos
			l.pos++
			eb, ok := l.peek()
			if !ok {
				return token.Token{}, unclosedString(span(start, start+1))
			}
			var out byte
			switch eb {
			case 'n':
				out = '\n'
			case 't':
				out = '\t'
			case 'r':
				out = '\r'
			case '\\':
				out = '\\'
			case '"':
				out = '"'
			case '0':
				out = 0
			default:
				l.pos++
				return token.Token{}, invalidEscape(span(escStart, l.pos))
			}
			decoded.WriteByte(out)
			l.pos++
			continue
		}
		decoded.WriteByte(b)
		l.pos++
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

func span(start, end int) token.Span {
	return token.Span{Start: token.Pos(start), End: token.Pos(end)}
}
