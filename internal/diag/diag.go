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

// Package diag implements the Diagnostic shape of spec.md §3 and the
// error/warning propagation policy of §7. Its Error interface mirrors
// the surface cuelang.org/go/cue/errors exposes to cuelang.org/go/cue
// (Position, InputPositions, a message pair, and an Append combinator
// that chains multi-errors into a linked list)
// rather than Go's plain `error`, since diagnostics need a primary span
// plus an arbitrary number of secondary hints.
package diag

import (
	"fmt"
	"strings"

	"github.com/wlab-lang/wlab/internal/token"
)

// Severity classifies a Hint.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Hint annotates a secondary span of a Diagnostic.
type Hint struct {
	Span     token.Span
	Severity Severity
	Note     string
}

// Diagnostic is the common error/warning shape of spec.md §3: a message
// plus zero or more span-tagged hints. The first hint (if any), whatever
// its severity, is treated as the primary location by consumers of the
// Error interface below.
type Diagnostic struct {
	Category string // e.g. "UndefinedType", matched against spec.md §7's category list
	Message  string
	Hints    []Hint

	next Error // not set by anything in this package; Append chains diagnostics through multiError instead
}

var _ Error = (*Diagnostic)(nil)
var _ error = (*Diagnostic)(nil)

func (d *Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString(d.Message)
	for _, h := range d.Hints {
		if h.Note == "" {
			continue
		}
		fmt.Fprintf(&b, "\n  %s: %s (%s)", h.Severity, h.Note, h.Span)
	}
	return b.String()
}

// Position returns the span of the first hint, or token.NoSpan.
func (d *Diagnostic) Position() token.Span {
	if len(d.Hints) == 0 {
		return token.NoSpan
	}
	return d.Hints[0].Span
}

// InputPositions returns every hint's span.
func (d *Diagnostic) InputPositions() []token.Span {
	spans := make([]token.Span, len(d.Hints))
	for i, h := range d.Hints {
		spans[i] = h.Span
	}
	return spans
}

// Msg returns the bare message, without rendered hints, mirroring
// cue/errors.Message's split between format and rendered Error().
func (d *Diagnostic) Msg() string { return d.Message }

// New builds a Diagnostic with a single primary hint.
func New(category, message string, primary token.Span) *Diagnostic {
	return &Diagnostic{
		Category: category,
		Message:  message,
		Hints:    []Hint{{Span: primary, Severity: Error, Note: ""}},
	}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(category string, primary token.Span, format string, args ...interface{}) *Diagnostic {
	return New(category, fmt.Sprintf(format, args...), primary)
}

// WithHint appends a secondary hint and returns the receiver, for
// constructor call sites that want to build up a multi-span diagnostic
// fluently (e.g. MismatchedIfElse pointing at both arms).
func (d *Diagnostic) WithHint(span token.Span, severity Severity, note string) *Diagnostic {
	d.Hints = append(d.Hints, Hint{Span: span, Severity: severity, Note: note})
	return d
}

// Error is the interface every wlang diagnostic satisfies, deliberately
// narrower than Go's `error` plus broader in the same way
// cuelang.org/go/cue/errors.Error is: it adds Position/InputPositions
// so a renderer can locate every hint without type-asserting back to
// *Diagnostic.
type Error interface {
	error
	Position() token.Span
	InputPositions() []token.Span
}

// multiError is the linked-list node Append builds, mirroring cue/errors'
// internal list representation.
type multiError struct {
	err  Error
	rest Error
}

func (m *multiError) Error() string {
	var b strings.Builder
	for e := Error(m); e != nil; {
		mm, ok := e.(*multiError)
		if !ok {
			b.WriteString(e.Error())
			break
		}
		b.WriteString(mm.err.Error())
		b.WriteByte('\n')
		e = mm.rest
	}
	return b.String()
}

func (m *multiError) Position() token.Span        { return m.err.Position() }
func (m *multiError) InputPositions() []token.Span { return m.err.InputPositions() }

// Append flattens err onto the end of list, preserving encounter order
// (spec.md §5's ordering guarantee: diagnostics are emitted in the order
// encountered by the left-to-right AST walk).
func Append(list Error, err Error) Error {
	if err == nil {
		return list
	}
	if list == nil {
		return err
	}
	return &multiError{err: list, rest: err}
}

// Errors flattens list into a slice in encounter order.
func Errors(list Error) []Error {
	var out []Error
	for e := list; e != nil; {
		m, ok := e.(*multiError)
		if !ok {
			out = append(out, e)
			break
		}
		out = append(out, Errors(m.err)...)
		e = m.rest
	}
	return out
}
