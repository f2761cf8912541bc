package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bite-lang/bite/internal/gc"
	"github.com/bite-lang/bite/internal/vm"
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run a Bite script",
	Long: `Compile and execute a Bite program.

Examples:
  bite run script.bite
  bite run --gc-trace script.bite`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runScript(c *cobra.Command, args []string) error {
	filename := args[0]
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	color := !mustBool(c, "no-color") && stdoutIsTTY()
	chunk, ok := compileSource(filename, string(content), color)
	if !ok {
		return fmt.Errorf("compilation failed")
	}

	machine := vm.New(os.Stdout)
	if gcTraceEnabled(c) {
		traceID := uuid.New().String()
		machine.Collector().OnCollect(func(s gc.Stats) {
			fmt.Fprintf(os.Stderr, "[gc %s] cycle=%d tracked=%d freed=%d live_bytes=%d next=%d\n",
				traceID, s.Cycle, s.Tracked, s.Freed, s.LiveBytes, s.NextThresh)
		})
	}

	if _, err := machine.Run(chunk); err != nil {
		return err
	}
	return nil
}

func mustBool(c *cobra.Command, flag string) bool {
	v, _ := c.Flags().GetBool(flag)
	return v
}

// gcTraceEnabled honors both --gc-trace and BITE_GC_TRACE, since a script
// embedder may prefer setting the env var over threading a flag through.
func gcTraceEnabled(c *cobra.Command) bool {
	if mustBool(c, "gc-trace") {
		return true
	}
	return os.Getenv("BITE_GC_TRACE") != ""
}
