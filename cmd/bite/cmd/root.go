package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "bite",
	Short:   "Bite language interpreter",
	Long:    `bite compiles and runs programs written in the Bite scripting language.`,
	Version: Version,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		// `bite <path>` is shorthand for `bite run <path>`.
		if len(args) == 0 {
			return c.Help()
		}
		return runScript(c, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("gc-trace", false, "log a line per GC cycle, tagged with a correlation id")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored diagnostic output")
}
