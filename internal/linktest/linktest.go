// Package linktest expresses spec.md §8's end-to-end scenarios as real
// Go tests: compile one or more wlang crates through
// internal/driver.Compile down to native object files, link them with
// the host's `cc`, then run the resulting executable and report its
// exit code and stdout. Grounded on
// original_source/wtool/src/test.rs's compile_test/link_test/run_test
// sequence, reimplemented with os/exec directly against a temp
// directory rather than wtool's external link.sh/clean.sh shell
// scripts, since wlab has no separate link step to shell out to.
package linktest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wlab-lang/wlab/internal/driver"
	"github.com/wlab-lang/wlab/internal/ir"
)

// Result is one test run's observable outcome: the two properties
// spec.md §8's scenarios assert on.
type Result struct {
	ExitCode int
	Stdout   []byte
}

// dirOutputs is a driver.Outputs backed by a plain temp directory, the
// same os.Create-at-the-edge shape as cmd/wlab's fileOutputs, so
// internal/driver never needs a test-only code path.
type dirOutputs struct{ dir string }

func (o dirOutputs) Create(crateName, ext string) (io.WriteCloser, error) {
	return os.Create(filepath.Join(o.dir, crateName+"."+ext))
}

// CompileAndRun lowers sources (spec.md §8's app crate plus any crates
// it depends on, e.g. driver.StdCrateSource) to object files, links
// them into a single executable with the host's `cc`, runs it, and
// returns its exit code and captured stdout. It fails t immediately via
// t.Fatalf if compilation, linking, or process startup itself errors —
// those are harness failures, not the scenario under test; the caller
// asserts Result's fields against the scenario's expectations.
func CompileAndRun(t *testing.T, sources []driver.Source) Result {
	t.Helper()

	dir := t.TempDir()
	cfg := driver.Config{
		Triple:  ir.HostTriple(),
		CPU:     "generic",
		Opt:     ir.OptNone,
		EmitObj: true,
	}

	if err := driver.Compile(cfg, sources, dirOutputs{dir: dir}, zerolog.Nop()); err != nil {
		t.Fatalf("linktest: compile failed: %v", err)
	}

	objs, err := filepath.Glob(filepath.Join(dir, "*.o"))
	if err != nil {
		t.Fatalf("linktest: globbing object files: %v", err)
	}
	if len(objs) == 0 {
		t.Fatalf("linktest: compile produced no object files")
	}

	exePath := filepath.Join(dir, "a.out")
	// -nostdlib: wlang's #[intrinsic(...)] bodies are raw `syscall`
	// instructions (internal/sema/intrinsics.go) and _start is
	// hand-emitted (generateEntryPoint), so linking against crt0/libc
	// would collide with wlang's own _start rather than cooperate with it.
	linkArgs := append([]string{"-static", "-nostdlib", "-o", exePath}, objs...)
	link := exec.Command("cc", linkArgs...)
	var linkStderr bytes.Buffer
	link.Stderr = &linkStderr
	if err := link.Run(); err != nil {
		t.Fatalf("linktest: cc failed: %v\n%s", err, linkStderr.String())
	}

	run := exec.Command(exePath)
	var stdout bytes.Buffer
	run.Stdout = &stdout
	runErr := run.Run()

	exitCode := 0
	if runErr != nil {
		exitErr, ok := runErr.(*exec.ExitError)
		if !ok {
			t.Fatalf("linktest: running %s: %v", exePath, runErr)
		}
		exitCode = exitErr.ExitCode()
	}

	return Result{ExitCode: exitCode, Stdout: stdout.Bytes()}
}

// Source is a convenience constructor for a driver.Source from an
// in-memory snippet, since every scenario's app crate is a short
// literal string rather than a file on disk.
func Source(path, src string) driver.Source {
	return driver.Source{Path: path, Src: []byte(src)}
}

// StdSource returns the embedded standard-library crate as a
// driver.Source named "std.wlab", matching the `#![declare_crate(std)]`
// name its #[intrinsic(...)] functions are resolved under.
func StdSource() driver.Source {
	return Source("std.wlab", string(driver.StdCrateSource()))
}

// describeFailure formats a Result for a test failure message, used by
// the end-to-end scenario tests to avoid repeating the same
// fmt.Sprintf shape.
func describeFailure(r Result) string {
	return fmt.Sprintf("exit=%d stdout=%q", r.ExitCode, r.Stdout)
}
