// Package render implements the terminal diagnostic renderer spec.md §1
// calls an external collaborator: turning an internal/diag.Diagnostic
// into a gutter-numbered source snippet. Grounded on
// original_source/src/error_handling/renderer.rs's DiagnosticRenderer,
// simplified from its line-budget/backlog-of-2 bookkeeping (which exists
// to interleave several hints' snippets into one render pass without
// re-reading the source per hint) into a Go version that renders each
// hint's own snippet directly, coalescing two hints only when they are
// close enough in the source to share one gutter block.
package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/wlab-lang/wlab/internal/diag"
	"github.com/wlab-lang/wlab/internal/token"
)

// closeEnough is the largest line gap between two hints that still get
// rendered as one joined snippet rather than split by an ellipsis line,
// mirroring the original's `leading_lines_to_render` budget of 2.
const closeEnough = 3

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
	gutterColor  = color.New(color.Bold)
)

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.Warning:
		return warningColor
	case diag.Info:
		return infoColor
	default:
		return errorColor
	}
}

// Diagnostic renders d against the source file it came from, writing a
// message line, one blank line, then one gutter-numbered snippet per
// hint (coalesced where adjacent, split with an ellipsis where far
// apart), and finally each hint's own note indented under its snippet.
func Diagnostic(file *token.File, d *diag.Diagnostic) string {
	var b strings.Builder

	sev := diag.Error
	if len(d.Hints) > 0 {
		sev = d.Hints[0].Severity
	}
	fmt.Fprintf(&b, "%s: %s\n\n", severityColor(sev).Sprint(strings.ToLower(sev.String())), d.Message)

	padding := gutterWidth(file, d.Hints)

	var prevEndLine int
	for i, h := range d.Hints {
		startLine, _ := file.Position(h.Span.Start)
		endPos := h.Span.End
		if endPos > h.Span.Start {
			endPos--
		}
		endLine, _ := file.Position(endPos)

		if i > 0 {
			if startLine-prevEndLine <= closeEnough {
				b.WriteString(strings.Repeat(" ", padding))
				b.WriteString(" |\n")
			} else {
				b.WriteString(strings.Repeat(" ", padding))
				b.WriteString(" ...\n")
			}
		}

		renderSnippet(&b, file, h, startLine, endLine, padding)
		prevEndLine = endLine
	}

	b.WriteByte('\n')
	return b.String()
}

// gutterWidth sizes the line-number gutter to the widest line number any
// hint touches, mirroring the original's get_padding.
func gutterWidth(file *token.File, hints []diag.Hint) int {
	maxLine := 1
	for _, h := range hints {
		line, _ := file.Position(h.Span.End)
		if line > maxLine {
			maxLine = line
		}
	}
	return len(fmt.Sprintf("%d", maxLine))
}

func renderSnippet(b *strings.Builder, file *token.File, h diag.Hint, startLine, endLine, padding int) {
	contextStart := startLine - 1
	if contextStart < 1 {
		contextStart = 1
	}

	col := severityColor(h.Severity)

	for ln := contextStart; ln <= endLine; ln++ {
		text := file.Line(ln)
		fmt.Fprintf(b, "%s%s | %s%s\n",
			gutterColor.Sprint(strings.Repeat(" ", padding-len(fmt.Sprintf("%d", ln)))),
			gutterColor.Sprint(ln),
			"", text)

		if ln < startLine || ln > endLine || text == "" {
			continue
		}

		_, startCol := file.Position(h.Span.Start)
		arrowStart := 1
		if ln == startLine {
			arrowStart = startCol
		}
		arrowEnd := len([]rune(text))
		if ln == endLine {
			_, endCol := file.Position(h.Span.End - 1)
			arrowEnd = endCol
		}
		if arrowEnd < arrowStart {
			arrowEnd = arrowStart
		}

		b.WriteString(strings.Repeat(" ", padding+1))
		b.WriteString(" | ")
		b.WriteString(strings.Repeat(" ", arrowStart-1))
		b.WriteString(col.Sprint(strings.Repeat("^", arrowEnd-arrowStart+1)))
		b.WriteByte('\n')
	}

	if h.Note != "" {
		b.WriteString(strings.Repeat(" ", padding+1))
		b.WriteString(" | ")
		b.WriteString(col.Sprint(h.Note))
		b.WriteByte('\n')
	}
}
