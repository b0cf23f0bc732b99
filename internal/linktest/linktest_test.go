package linktest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlab-lang/wlab/internal/driver"
)

// TestExit exercises spec.md §8 scenario 1 all the way through: link
// both objects, run the result, and check the process exits 0 — the
// property internal/sema's unit tests (which only lower to IR text)
// can't observe.
func TestExit(t *testing.T) {
	app := Source("app.wlab", `#![declare_crate(app)]

fn main() {
	std::exit(0);
}
`)

	r := CompileAndRun(t, []driver.Source{app, StdSource()})
	require.Equal(t, 0, r.ExitCode, describeFailure(r))
}

// TestHelloWorld exercises scenario 2: std::write followed by
// std::exit, with the written bytes actually observed on the child
// process's stdout.
func TestHelloWorld(t *testing.T) {
	app := Source("app.wlab", `#![declare_crate(app)]

fn main() {
	std::write(1, "hi\n");
	std::exit(0);
}
`)

	r := CompileAndRun(t, []driver.Source{app, StdSource()})
	require.Equal(t, 0, r.ExitCode, describeFailure(r))
	assert.Equal(t, "hi\n", string(r.Stdout))
}

// TestExitWithNonZeroCode checks that the exit code wlang's
// #[intrinsic(exit)] passes through actually reaches the parent
// process, not just that the program terminates.
func TestExitWithNonZeroCode(t *testing.T) {
	app := Source("app.wlab", `#![declare_crate(app)]

fn main() {
	std::exit(7);
}
`)

	r := CompileAndRun(t, []driver.Source{app, StdSource()})
	assert.Equal(t, 7, r.ExitCode, describeFailure(r))
}
