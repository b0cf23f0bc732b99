// Package cmd implements the wlab CLI (spec.md §6): the external
// collaborator that turns argv into a driver.Config plus a set of
// driver.Source and runs driver.Compile, then maps its result to a
// process exit code. Grounded on cuelang.org/go/cmd/cue/cmd's
// cobra-based root command, simplified down from CUE's many
// subcommands (eval/export/fmt/get/import/mod/trim/vet) to wlab's one
// real verb: compiling sources.
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wlab-lang/wlab/internal/driver"
	"github.com/wlab-lang/wlab/internal/ir"
)

// Main runs the wlab CLI against os.Args and returns a process exit
// code: 0 on success, 1 on any error, matching spec.md §6's "exit code
// 0 on success, non-zero on any error".
func Main() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

type flags struct {
	dumpLex bool
	noLex   bool
	dumpAST bool
	noAST   bool
	dumpIR  bool
	noIR    bool
	asm     bool
	noAsm   bool
	object  bool
	noObj   bool

	o0, o1, o2, o3 bool

	outputDir string
	verbose   bool

	triple   string
	cpu      string
	features string
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "wlab [files...]",
		Short:         "wlab compiles wlang source files to native object files.",
		Long:          `wlab lexes, parses, and semantically analyzes one or more wlang crates, then writes, for each, whichever outputs are requested by flag: a native object file (--object), assembly, textual LLVM IR, or a token/AST dump. No output is written by default.`,
		Args:          cobra.MinimumNArgs(0),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(c *cobra.Command, args []string) error {
			return runBuild(f, args)
		},
	}

	fl := root.Flags()
	fl.BoolVarP(&f.dumpLex, "lex", "l", false, "dump tokens to <crate>.lex")
	fl.BoolVar(&f.noLex, "no-lex", false, "inverse of --lex")
	fl.BoolVarP(&f.dumpAST, "ast", "a", false, "dump the AST to <crate>.ast")
	fl.BoolVar(&f.noAST, "no-ast", false, "inverse of --ast")
	fl.BoolVarP(&f.dumpIR, "llvm-ir", "i", false, "dump textual IR to <crate>.ll")
	fl.BoolVar(&f.noIR, "no-llvm-ir", false, "inverse of --llvm-ir")
	fl.BoolVarP(&f.asm, "assembly", "S", false, "emit assembly to <crate>.asm")
	fl.BoolVar(&f.noAsm, "no-assembly", false, "inverse of --assembly")
	fl.BoolVarP(&f.object, "object", "s", false, "emit a native object to <crate>.o")
	fl.BoolVar(&f.noObj, "no-object", false, "inverse of --object")

	fl.BoolVar(&f.o0, "O0", false, "no optimization")
	fl.BoolVar(&f.o1, "O1", false, "light optimization")
	fl.BoolVar(&f.o2, "O2", false, "default optimization")
	fl.BoolVar(&f.o3, "O3", false, "aggressive optimization")

	fl.StringVarP(&f.outputDir, "output-dir", "o", "./", "directory for all output files")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "log each compile phase as it runs")

	fl.StringVar(&f.triple, "target", "x86_64-unknown-linux-gnu", "target triple")
	fl.StringVar(&f.cpu, "cpu", "generic", "target CPU")
	fl.StringVar(&f.features, "features", "", "target feature string")

	return root
}

func optLevel(f *flags) ir.OptLevel {
	switch {
	case f.o0:
		return ir.OptNone
	case f.o1:
		return ir.OptLess
	case f.o3:
		return ir.OptAggressive
	default:
		return ir.OptDefault
	}
}

func runBuild(f *flags, paths []string) error {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if !f.verbose {
		log = log.Level(zerolog.WarnLevel)
	}

	cfg := driver.Config{
		Triple:   f.triple,
		CPU:      f.cpu,
		Features: f.features,
		Opt:      optLevel(f),
		DumpLex:  f.dumpLex && !f.noLex,
		DumpAST:  f.dumpAST && !f.noAST,
		DumpIR:   f.dumpIR && !f.noIR,
		EmitAsm:  f.asm && !f.noAsm,
		EmitObj:  f.object && !f.noObj,
	}

	sources := make([]driver.Source, 0, len(paths))
	for _, p := range paths {
		src, err := os.ReadFile(p)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return err
		}
		sources = append(sources, driver.Source{Path: p, Src: src})
	}

	if err := os.MkdirAll(f.outputDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	out := fileOutputs{dir: f.outputDir}
	if derr := driver.Compile(cfg, sources, out, log); derr != nil {
		return derr
	}
	return nil
}

// fileOutputs is the concrete, filesystem-backed driver.Outputs: the
// only place in wlab that calls os.Create, keeping internal/driver
// itself storage-agnostic (spec.md §6 lists file I/O as an external
// collaborator the core only reaches through an interface).
type fileOutputs struct{ dir string }

func (o fileOutputs) Create(crateName, ext string) (io.WriteCloser, error) {
	return os.Create(filepath.Join(o.dir, crateName+"."+ext))
}
