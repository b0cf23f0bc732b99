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

// Package token defines spans and lexical tokens for wlang source files.
//
// Nodes never hold a borrowed slice of the source the way the original
// Rust compiler's `&'a str` tokens did; instead every node carries a byte
// offset and length into a source buffer that the caller keeps alive for
// the duration of the compile (see the Design Notes in spec.md §9).
package token

import "fmt"

// Pos is a byte offset into a source buffer.
type Pos int

// NoPos indicates the absence of a position.
const NoPos Pos = -1

// Span is a half-open byte range [Start, End) into a source buffer.
type Span struct {
	Start Pos
	End   Pos
}

// NoSpan is the empty span at NoPos, used where no meaningful location
// exists (e.g. synthesized nodes such as the implicit unit value of an
// empty block).
var NoSpan = Span{Start: NoPos, End: NoPos}

// SpanAt returns the zero-width span at p.
func SpanAt(p Pos) Span { return Span{Start: p, End: p} }

// SpanAfter returns the zero-width span immediately after s.
func SpanAfter(s Span) Span { return Span{Start: s.End, End: s.End} }

// Join returns the smallest span covering both a and b.
func Join(a, b Span) Span {
	start, end := a.Start, a.End
	if b.Start < start {
		start = b.Start
	}
	if b.End > end {
		end = b.End
	}
	return Span{Start: start, End: end}
}

// Len reports the number of bytes the span covers.
func (s Span) Len() int { return int(s.End - s.Start) }

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Start, s.End)
}

// Slice returns the bytes of src covered by s. It panics if s does not
// fit inside src, which would violate the span-containment invariant
// (spec.md §8).
func (s Span) Slice(src []byte) []byte {
	return src[s.Start:s.End]
}

// Kind classifies a Token.
type Kind int

const (
	Invalid Kind = iota

	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace

	Ident
	Keyword
	Number
	String

	Arrow   // ->
	ColonColon
	Plus
	Minus
	Star
	Slash
	Dot
	Semicolon
	Assign
	Colon
	Comma
	Bang
	Hash
	EqEq
	NotEq
	Lt
	Gt
	LtEq
	GtEq
	AndAnd
	OrOr

	EOF
)

var kindNames = map[Kind]string{
	Invalid:    "invalid",
	LParen:     "(",
	RParen:     ")",
	LBracket:   "[",
	RBracket:   "]",
	LBrace:     "{",
	RBrace:     "}",
	Ident:      "identifier",
	Keyword:    "keyword",
	Number:     "number",
	String:     "string",
	Arrow:      "->",
	ColonColon: "::",
	Plus:       "+",
	Minus:      "-",
	Star:       "*",
	Slash:      "/",
	Dot:        ".",
	Semicolon:  ";",
	Assign:     "=",
	Colon:      ":",
	Comma:      ",",
	Bang:       "!",
	Hash:       "#",
	EqEq:       "==",
	NotEq:      "!=",
	Lt:         "<",
	Gt:         ">",
	LtEq:       "<=",
	GtEq:       ">=",
	AndAnd:     "&&",
	OrOr:       "||",
	EOF:        "end of file",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsOpenBracket reports whether k opens a bracket pair.
func (k Kind) IsOpenBracket() bool {
	switch k {
	case LParen, LBracket, LBrace:
		return true
	}
	return false
}

func (k Kind) IsCloseBracket() bool {
	switch k {
	case RParen, RBracket, RBrace:
		return true
	}
	return false
}

// Matching returns the close-bracket kind matching an open-bracket kind,
// or Invalid if k is not an open bracket.
func (k Kind) Matching() Kind {
	switch k {
	case LParen:
		return RParen
	case LBracket:
		return RBracket
	case LBrace:
		return RBrace
	}
	return Invalid
}

// keywords is the reserved-word set consulted during identifier
// post-classification (spec.md §4.1 rule 7).
var keywords = map[string]bool{
	"fn":     true,
	"let":    true,
	"mut":    true,
	"if":     true,
	"else":   true,
	"loop":   true,
	"break":  true,
	"pub":    true,
	"struct": true,
	"as":     true,
}

// IsKeyword reports whether text is a reserved word.
func IsKeyword(text string) bool {
	return keywords[text]
}

// Token is a single lexical token together with its source span. Ident,
// Number and Keyword tokens borrow their text as an offset+length pair
// into the source buffer (Span); String tokens additionally carry an
// owned, escape-processed byte buffer (Decoded), since escape processing
// cannot be recovered from the raw span alone.
type Token struct {
	Kind    Kind
	Span    Span
	Decoded string // only populated for String tokens
}

// Text returns the raw source text of the token.
func (t Token) Text(src []byte) string {
	return string(t.Span.Slice(src))
}

func (t Token) String() string {
	return fmt.Sprintf("%s@%s", t.Kind, t.Span)
}

// File tracks newline offsets for a single source buffer so that spans
// can be rendered as line/column pairs by diagnostics and debug info
// (spec.md §9, folding the original's column_number/line_number helpers
// into the position-tracking type the teacher models as token.File).
type File struct {
	Name  string
	Src   []byte
	lines []Pos // byte offset of the start of each line
}

// NewFile indexes src's line starts.
func NewFile(name string, src []byte) *File {
	f := &File{Name: name, Src: src, lines: []Pos{0}}
	for i, b := range src {
		if b == '\n' {
			f.lines = append(f.lines, Pos(i+1))
		}
	}
	return f
}

// Position returns the 1-based line and column for a byte offset.
func (f *File) Position(p Pos) (line, col int) {
	// binary search for the line containing p
	lo, hi := 0, len(f.lines)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if f.lines[mid] <= p {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	line = lo + 1
	col = int(p-f.lines[lo]) + 1
	return line, col
}

// Line returns the raw text of the 1-based line n, without its
// terminating newline.
func (f *File) Line(n int) string {
	if n < 1 || n > len(f.lines) {
		return ""
	}
	start := f.lines[n-1]
	end := Pos(len(f.Src))
	if n < len(f.lines) {
		end = f.lines[n] - 1
	}
	if end < start {
		end = start
	}
	return string(f.Src[start:end])
}

// LineCount returns the number of lines in the file.
func (f *File) LineCount() int { return len(f.lines) }
