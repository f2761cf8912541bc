package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bite-lang/bite/internal/bytecode"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <file>",
	Short: "Compile a Bite script and print its disassembled bytecode",
	Args:  cobra.ExactArgs(1),
	RunE:  disasmScript,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
}

func disasmScript(c *cobra.Command, args []string) error {
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

	disassembleRecursive(chunk, make(map[*bytecode.Chunk]bool))
	return nil
}

// disassembleRecursive prints chunk, then every nested FunctionProto's own
// chunk it finds in the constant pool, since the compiler emits one Chunk
// per function rather than a single flat instruction stream.
func disassembleRecursive(chunk *bytecode.Chunk, seen map[*bytecode.Chunk]bool) {
	if seen[chunk] {
		return
	}
	seen[chunk] = true

	bytecode.NewDisassembler(os.Stdout, chunk).Disassemble()

	for _, c := range chunk.Constants {
		switch v := c.(type) {
		case *bytecode.FunctionProto:
			fmt.Println()
			disassembleRecursive(v.Chunk, seen)
		case *bytecode.ClassProto:
			fmt.Println()
			disassembleClassProto(v, seen)
		}
	}
}

func disassembleClassProto(proto *bytecode.ClassProto, seen map[*bytecode.Chunk]bool) {
	if proto.Ctor != nil {
		disassembleRecursive(proto.Ctor.Chunk, seen)
	}
	for _, m := range proto.Methods {
		fmt.Println()
		disassembleRecursive(m.Chunk, seen)
	}
	for _, f := range proto.Fields {
		fmt.Println()
		disassembleRecursive(f.Init.Chunk, seen)
	}
	if proto.Companion != nil {
		fmt.Println()
		disassembleClassProto(proto.Companion, seen)
	}
}
