package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/corey/tagsmith/internal/adapters/treesitter"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds [language]",
	Short: "List tag kinds per language",
	Long:  "Prints the tag kinds each registered language can produce.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := treesitter.NewScanner()

		languages := scanner.Languages()
		sort.Strings(languages)
		if len(args) == 1 {
			if scanner.Kinds(args[0]) == nil {
				return fmt.Errorf("unknown language %q", args[0])
			}
			languages = args[:1]
		}

		for _, lang := range languages {
			fmt.Println(lang)
			for _, k := range scanner.Kinds(lang) {
				enabled := " "
				if !k.Enabled {
					enabled = " [off]"
				}
				fmt.Printf("    %c  %-16s %s%s\n", k.Letter, k.Name, k.Description, enabled)
			}
		}
		return nil
	},
}
