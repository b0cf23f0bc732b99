// Package driver orchestrates a whole compile (spec.md §9): crate
// discovery, running the lexer/parser/analyzer pipeline across every
// crate, and writing the requested dump/object files. Grounded on
// cuelang.org/go/cue/load and cue/build's split between a build.Instance
// (one per compiled unit) and a Config driving the whole load, with the
// file-I/O seam kept narrow (Outputs) so the core loop never calls
// os.Create directly — that stays in cmd/wlab, where spec.md §1 places
// the file-I/O external collaborator.
package driver

import (
	_ "embed"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/wlab-lang/wlab/internal/ast"
	"github.com/wlab-lang/wlab/internal/ast/astutil"
	"github.com/wlab-lang/wlab/internal/diag"
	"github.com/wlab-lang/wlab/internal/ir"
	"github.com/wlab-lang/wlab/internal/lexer"
	"github.com/wlab-lang/wlab/internal/parser"
	"github.com/wlab-lang/wlab/internal/render"
	"github.com/wlab-lang/wlab/internal/sema"
	"github.com/wlab-lang/wlab/internal/token"
)

//go:embed stdcrate/std.wlab
var stdCrateSource []byte

// StdCrateSource returns the embedded std.wlab source backing
// #[intrinsic(exit)]/#[intrinsic(write)] (SPEC_FULL.md §10), so the two
// end-to-end scenarios of spec.md §8 compile without the user writing a
// standard-library crate themselves.
func StdCrateSource() []byte { return stdCrateSource }

// Source is one input file before lexing/parsing: a path (for
// diagnostics and dump-file naming) and its raw bytes.
type Source struct {
	Path string
	Src  []byte
}

// Config drives one Compile call (spec.md §6's CLI flags), threaded
// explicitly rather than read back out of package state, mirroring
// internal/core/compile's Config struct.
type Config struct {
	Triple   string
	CPU      string
	Features string
	Opt      ir.OptLevel

	DumpLex bool
	DumpAST bool
	DumpIR  bool
	EmitAsm bool
	EmitObj bool
}

// Outputs creates the writer for one crate's dump/object file, kept as
// an interface so Compile itself never touches the filesystem; cmd/wlab
// supplies the concrete os.Create-backed implementation.
type Outputs interface {
	Create(crateName, ext string) (io.WriteCloser, error)
}

// Log is the subset of zerolog's API Compile needs for -v pass-boundary
// and crate-timing output (SPEC_FULL.md §1's Logging section); accepting
// the concrete zerolog.Logger (rather than an interface) matches how
// internal/core/compile threads its own logger type through.
type Log = zerolog.Logger

// Compile runs lexing and parsing over every source, then the analyzer's
// full Reserve/Materialize/LowerBodies pipeline across all crates
// together (spec.md §5's "reserve/materialize run across every crate
// before any crate's body lowering begins"), then emits each crate's
// requested dump and object files. It returns the first diag.Error
// produced; diagnostics for crates processed before the failing one are
// still written as dumps, matching the "independent crates fail
// independently" framing of spec.md §7, but the overall Compile call
// itself stops at the first phase that produces any error (§7's "any
// error aborts the current crate's pipeline").
func Compile(cfg Config, sources []Source, out Outputs, log Log) diag.Error {
	files := make([]*token.File, len(sources))
	crates := make([]*sema.Crate, len(sources))

	for i, src := range sources {
		file := token.NewFile(src.Path, src.Src)
		files[i] = file

		log.Debug().Str("file", src.Path).Msg("lexing")
		toks, lexErr := lexer.Tokenize(src.Src)
		if lexErr != nil {
			return renderAndReturn(file, lexErr, log)
		}
		if cfg.DumpLex {
			if err := dumpTokens(out, src.Path, toks, file); err != nil {
				return diag.New("IOError", err.Error(), token.NoSpan)
			}
		}

		log.Debug().Str("file", src.Path).Msg("parsing")
		mod, parseErr := parser.Parse(src.Src, toks)
		if parseErr != nil {
			return renderAndReturn(file, parseErr, log)
		}
		if cfg.DumpAST {
			if err := dumpAST(out, src.Path, mod); err != nil {
				return diag.New("IOError", err.Error(), token.NoSpan)
			}
		}

		crates[i] = &sema.Crate{File: file, Module: mod}
	}

	an := sema.NewAnalyzer()
	defer an.Dispose()

	log.Debug().Int("crates", len(crates)).Msg("analyzing")
	res, semaErr := an.Analyze(crates)
	if semaErr != nil {
		renderDiagError(files, semaErr, log)
		return semaErr
	}

	ir.InitializeAllTargets()
	target, err := ir.TargetFromTriple(cfg.Triple)
	if err != nil {
		return diag.New("TargetError", err.Error(), token.NoSpan)
	}
	tm := target.CreateTargetMachine(cfg.Triple, cfg.CPU, cfg.Features, cfg.Opt)
	defer tm.Dispose()

	for _, cr := range res.Crates {
		for _, w := range cr.Warnings {
			renderOne(cr.Crate.File, w, log)
		}

		tm.SetDataLayoutAndTriple(cr.Module)

		if cfg.DumpIR {
			if err := writeText(out, cr.Crate.Name, "ll", cr.Module.String()); err != nil {
				return diag.New("IOError", err.Error(), token.NoSpan)
			}
		}
		if cfg.EmitAsm {
			buf, err := tm.EmitToBuffer(cr.Module, ir.AssemblyFile)
			if err != nil {
				return diag.New("CodegenError", err.Error(), token.NoSpan)
			}
			if err := writeBytes(out, cr.Crate.Name, "asm", buf); err != nil {
				return diag.New("IOError", err.Error(), token.NoSpan)
			}
		}
		if cfg.EmitObj {
			buf, err := tm.EmitToBuffer(cr.Module, ir.ObjectFile)
			if err != nil {
				return diag.New("CodegenError", err.Error(), token.NoSpan)
			}
			if err := writeBytes(out, cr.Crate.Name, "o", buf); err != nil {
				return diag.New("IOError", err.Error(), token.NoSpan)
			}
		}
	}

	return nil
}

func renderAndReturn(file *token.File, err *diag.Diagnostic, log Log) *diag.Diagnostic {
	renderOne(file, err, log)
	return err
}

func renderDiagError(files []*token.File, errs diag.Error, log Log) {
	for _, e := range diag.Errors(errs) {
		d, ok := e.(*diag.Diagnostic)
		if !ok {
			log.Error().Msg(e.Error())
			continue
		}
		renderOne(fileFor(files, d), d, log)
	}
}

// fileFor picks the file whose span contains d's primary position;
// falls back to the first file when no span applies (a crate-level
// error with token.NoSpan, e.g. MissingCrateName with no items at all).
func fileFor(files []*token.File, d *diag.Diagnostic) *token.File {
	pos := d.Position()
	for _, f := range files {
		if pos.Start >= 0 && int(pos.End) <= len(f.Src) {
			return f
		}
	}
	if len(files) > 0 {
		return files[0]
	}
	return nil
}

func renderOne(file *token.File, d *diag.Diagnostic, log Log) {
	if file == nil {
		log.Error().Msg(d.Error())
		return
	}
	fmt.Print(render.Diagnostic(file, d))
}

func dumpTokens(out Outputs, path string, toks []token.Token, file *token.File) error {
	w, err := out.Create(crateNameOf(path), "lex")
	if err != nil {
		return err
	}
	defer w.Close()
	for _, t := range toks {
		line, col := file.Position(t.Span.Start)
		if _, err := fmt.Fprintf(w, "%d:%d %s %q\n", line, col, t.Kind, t.Text(file.Src)); err != nil {
			return err
		}
	}
	return nil
}

// dumpAST writes an indented walk of mod's tree, driven by
// astutil.Inspect's nil-sentinel-delimited pre-order traversal (the
// reason Inspect signals "children done" with a nil node rather than
// leaving that to the caller to track).
func dumpAST(out Outputs, path string, mod *ast.Module) error {
	w, err := out.Create(crateNameOf(path), "ast")
	if err != nil {
		return err
	}
	defer w.Close()

	depth := 0
	var werr error
	astutil.Inspect(mod, func(n ast.Node) bool {
		if n == nil {
			depth--
			return true
		}
		if werr != nil {
			return false
		}
		_, err := fmt.Fprintf(w, "%s%T %s\n", indent(depth), n, n.Pos())
		if err != nil {
			werr = err
			return false
		}
		depth++
		return true
	})
	if werr != nil {
		return werr
	}
	return nil
}

func indent(depth int) string {
	b := make([]byte, depth*2)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func crateNameOf(path string) string {
	base := path
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' {
			base = base[i+1:]
			break
		}
	}
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			return base[:i]
		}
	}
	return base
}

func writeText(out Outputs, crate, ext, text string) error {
	w, err := out.Create(crate, ext)
	if err != nil {
		return err
	}
	defer w.Close()
	_, err = io.WriteString(w, text)
	return err
}

func writeBytes(out Outputs, crate, ext string, data []byte) error {
	w, err := out.Create(crate, ext)
	if err != nil {
		return err
	}
	defer w.Close()
	_, err = w.Write(data)
	return err
}
