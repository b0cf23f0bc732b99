package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlab-lang/wlab/internal/lexer"
	"github.com/wlab-lang/wlab/internal/parser"
	"github.com/wlab-lang/wlab/internal/token"
)

const stdSrc = `#![declare_crate(std)]

#[intrinsic(exit)]
pub fn exit(code: i32) -> never {}

#[intrinsic(write)]
pub fn write(fd: i32, s: str) -> () {}
`

func parseCrate(t *testing.T, src string) *Crate {
	t.Helper()
	b := []byte(src)
	toks, lexErr := lexer.Tokenize(b)
	require.Nil(t, lexErr)
	mod, parseErr := parser.Parse(b, toks)
	require.Nil(t, parseErr, "%v", parseErr)
	return &Crate{File: token.NewFile("<test>", b), Module: mod}
}

// TestAnalyze_MinimalExit exercises spec.md §8 scenario 1: an app crate
// calling std::exit(0) should analyze and lower cleanly, producing a
// _start entry point in the app crate's module.
func TestAnalyze_MinimalExit(t *testing.T) {
	appSrc := `#![declare_crate(app)]

fn main() {
	std::exit(0);
}
`
	a := NewAnalyzer()
	defer a.Dispose()

	crates := []*Crate{parseCrate(t, appSrc), parseCrate(t, stdSrc)}
	res, err := a.Analyze(crates)
	require.Nil(t, err, "%v", err)
	require.Len(t, res.Crates, 2)

	found := false
	for _, cr := range res.Crates {
		if cr.Crate.Name == "app" {
			found = true
			assert.Contains(t, cr.Module.String(), "_start")
		}
	}
	assert.True(t, found, "app crate should be present in results")
}

// TestAnalyze_HelloWorld exercises scenario 2: std::write followed by
// std::exit, both intrinsics resolved across crates.
func TestAnalyze_HelloWorld(t *testing.T) {
	appSrc := `#![declare_crate(app)]

fn main() {
	std::write(1, "hi\n");
	std::exit(0);
}
`
	a := NewAnalyzer()
	defer a.Dispose()

	crates := []*Crate{parseCrate(t, appSrc), parseCrate(t, stdSrc)}
	_, err := a.Analyze(crates)
	require.Nil(t, err, "%v", err)
}

// TestAnalyze_DuplicateMain checks that a crate declaring main twice
// fails rather than silently picking one. Within one crate the second
// declaration is rejected as ItemAlreadyDefined, before the cross-crate
// duplicateMain check is reached.
func TestAnalyze_DuplicateMain(t *testing.T) {
	src := `#![declare_crate(app)]

fn main() {}
fn main() {}
`
	a := NewAnalyzer()
	defer a.Dispose()

	_, err := a.Analyze([]*Crate{parseCrate(t, src)})
	require.NotNil(t, err)
}

// TestAnalyze_IfBranchMismatch checks the type-error category: an if
// expression whose arms disagree in type must be rejected when its
// value is used (the trailing expression of the function body).
func TestAnalyze_IfBranchMismatch(t *testing.T) {
	src := `#![declare_crate(app)]

fn pick(cond: bool) -> i32 {
	if cond {
		1
	} else {
		true
	}
}
`
	a := NewAnalyzer()
	defer a.Dispose()

	_, err := a.Analyze([]*Crate{parseCrate(t, src)})
	require.NotNil(t, err)
}

// TestAnalyze_LoopBreakValue checks that a loop's break value becomes
// the loop expression's type, and that the value flows through to the
// function's implicit return.
func TestAnalyze_LoopBreakValue(t *testing.T) {
	src := `#![declare_crate(app)]

fn answer() -> i32 {
	loop {
		break 42;
	}
}
`
	a := NewAnalyzer()
	defer a.Dispose()

	_, err := a.Analyze([]*Crate{parseCrate(t, src)})
	require.Nil(t, err, "%v", err)
}

// TestAnalyze_UndefinedIdentifier checks the name-error category.
func TestAnalyze_UndefinedIdentifier(t *testing.T) {
	src := `#![declare_crate(app)]

fn main() -> i32 {
	missing
}
`
	a := NewAnalyzer()
	defer a.Dispose()

	_, err := a.Analyze([]*Crate{parseCrate(t, src)})
	require.NotNil(t, err)
}
