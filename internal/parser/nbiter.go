package parser

import "github.com/wlab-lang/wlab/internal/token"

// splitOnTopLevel splits toks into segments separated by tokens of kind
// sep that sit at bracket depth zero, mirroring
// original_source/src/parser/util/split.rs's TokenSplit. It returns the
// segments and, for each segment but the last, the separator token that
// ended it.
func splitOnTopLevel(toks []token.Token, sep token.Kind) (segments [][]token.Token, seps []token.Token) {
	depth := 0
	start := 0
	for i, t := range toks {
		if t.Kind.IsOpenBracket() {
			depth++
			continue
		}
		if t.Kind.IsCloseBracket() {
			depth--
			continue
		}
		if depth == 0 && t.Kind == sep {
			segments = append(segments, toks[start:i])
			seps = append(seps, t)
			start = i + 1
		}
	}
	segments = append(segments, toks[start:])
	return segments, seps
}

// findTopLevel returns the index of the first token satisfying pred at
// bracket depth zero, or -1.
func findTopLevel(toks []token.Token, pred func(token.Token) bool) int {
	depth := 0
	for i, t := range toks {
		if t.Kind.IsOpenBracket() {
			depth++
			continue
		}
		if t.Kind.IsCloseBracket() {
			depth--
			continue
		}
		if depth == 0 && pred(t) {
			return i
		}
	}
	return -1
}

// rightmostTopLevel returns the index of the last token satisfying pred
// at bracket depth zero, or -1. Used by binary-operator parsing, which
// splits at the rightmost lowest-precedence operator so that same-
// precedence chains associate left (spec.md §4.2).
func rightmostTopLevel(toks []token.Token, pred func(token.Token) bool) int {
	depth := 0
	found := -1
	for i, t := range toks {
		if t.Kind.IsOpenBracket() {
			depth++
			continue
		}
		if t.Kind.IsCloseBracket() {
			depth--
			continue
		}
		if depth == 0 && pred(t) {
			found = i
		}
	}
	return found
}
