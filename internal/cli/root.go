// Package cli provides the command-line interface of the luadoc tool.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the root command with all subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "luadoc",
		Short: "Extract structured documentation from annotated Lua sources",
	}

	rootCmd.AddCommand(newExtractCommand())
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}
