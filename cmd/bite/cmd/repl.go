package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/bite-lang/bite/internal/analyzer"
	"github.com/bite-lang/bite/internal/ast"
	"github.com/bite-lang/bite/internal/compiler"
	"github.com/bite-lang/bite/internal/parser"
	"github.com/bite-lang/bite/internal/vm"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive Bite session",
	RunE:  runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(c *cobra.Command, args []string) error {
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = home + "/.bite_history"
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "bite> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to start readline: %w", err)
	}
	defer rl.Close()

	machine := vm.New(os.Stdout)
	fmt.Fprintln(os.Stdout, "Bite REPL. Ctrl-D to exit.")

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if line == "" {
			continue
		}

		evalLine(machine, line)
	}
}

// evalLine compiles and runs one REPL line as its own script, printing
// diagnostics or the top-level result rather than stopping the session: a
// single bad line should never kill the REPL.
func evalLine(machine *vm.VM, line string) {
	prog, _, ds := parser.ParseProgram("<repl>", line)
	if hasErrors(ds) {
		printDiagnostics(ds, line, stdoutIsTTY())
		return
	}

	ds = analyzer.Analyze(prog)
	if hasErrors(ds) {
		printDiagnostics(ds, line, stdoutIsTTY())
		return
	}

	chunk := compiler.Program(prog, func(n ast.Node) int { return n.Span().Start.Line })
	result, err := machine.Run(chunk)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if !result.IsNil() {
		fmt.Fprintln(os.Stdout, result.String())
	}
}
