// Command bite is the driver for the Bite language: compile, run,
// disassemble, and explore scripts from one binary.
package main

import (
	"fmt"
	"os"

	"github.com/bite-lang/bite/cmd/bite/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
