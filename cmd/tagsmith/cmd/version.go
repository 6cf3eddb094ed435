package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/tagsmith/internal/domain/tagfile"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tagsmith version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("tagsmith", tagfile.Version())
		return nil
	},
}
