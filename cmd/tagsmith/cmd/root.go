package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tagsmith",
	Short: "tagsmith — tag table generator",
	Long:  "Scans source trees with tree-sitter grammars and writes ctags, etags, or cross-reference output.",
}

// workspaceRoot returns the workspace root (cwd by default).
func workspaceRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return dir
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(genCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(kindsCmd)
	rootCmd.AddCommand(versionCmd)
}
