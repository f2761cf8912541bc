package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/bite-lang/bite/internal/analyzer"
	"github.com/bite-lang/bite/internal/ast"
	"github.com/bite-lang/bite/internal/bytecode"
	"github.com/bite-lang/bite/internal/compiler"
	"github.com/bite-lang/bite/internal/diag"
	"github.com/bite-lang/bite/internal/parser"
)

// stdoutIsTTY decides whether diagnostics get ANSI color: piped output
// (redirected to a file, captured by another program) never does.
func stdoutIsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func printDiagnostics(ds []diag.Diagnostic, source string, color bool) {
	for _, d := range ds {
		fmt.Fprint(os.Stderr, d.Format(source, color))
	}
}

// compileSource runs the full lex -> parse -> analyze -> compile pipeline
// over src (named file for error messages), returning the resulting chunk
// and true; if a stage reports an error, its diagnostics are printed to
// stderr and it returns nil and false.
func compileSource(file, src string, color bool) (*bytecode.Chunk, bool) {
	prog, _, ds := parser.ParseProgram(file, src)
	if hasErrors(ds) {
		printDiagnostics(ds, src, color)
		return nil, false
	}

	ds = analyzer.Analyze(prog)
	if hasErrors(ds) {
		printDiagnostics(ds, src, color)
		return nil, false
	}

	chunk := compiler.Program(prog, func(n ast.Node) int { return n.Span().Start.Line })
	return chunk, true
}

func hasErrors(ds []diag.Diagnostic) bool {
	for _, d := range ds {
		if d.Level == diag.Error {
			return true
		}
	}
	return false
}
