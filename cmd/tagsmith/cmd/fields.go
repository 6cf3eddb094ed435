package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/tagsmith/internal/domain/fields"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the extension fields",
	Long:  "Prints every known extension field with its letter, name, enablement, and value type.",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := fields.NewRegistry(fields.Hooks{})

		fmt.Printf("%-8s%-16s%-10s%-8s%-12s%s\n",
			"LETTER", "NAME", "ENABLED", "FIXED", "LANGUAGE", "DESCRIPTION")
		for ft := 0; ft < reg.Count(); ft++ {
			letter := "-"
			if l := reg.Letter(ft); l != 0 {
				letter = string(l)
			}
			name := reg.Name(ft)
			if name == "" {
				name = "-"
			}
			lang := reg.Owner(ft)
			if lang == "" {
				lang = "-"
			}
			fmt.Printf("%-8s%-16s%-10v%-8v%-12s%s\n",
				letter, name, reg.Enabled(ft), reg.Fixed(ft), lang, reg.Description(ft))
		}
		return nil
	},
}
