// tagsmith builds tag tables for source trees.
// Single binary — scans with tree-sitter grammars, writes ctags, etags, or
// cross-reference output.
package main

import (
	"os"

	"github.com/corey/tagsmith/cmd/tagsmith/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
