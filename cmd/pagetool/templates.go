package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"proposal-autofill/internal/prompts"
)

var templateType string

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the proposal templates or print one",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if templateType == "" {
			return printJSON(cmd.OutOrStdout(), prompts.All())
		}
		if !prompts.Known(templateType) {
			return fmt.Errorf("unknown template type %q", templateType)
		}
		t := prompts.Get(templateType)
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s\n\n%s\n", t.Name, t.MetaPrompt, t.Layout)
		return err
	},
}

func init() {
	templatesCmd.Flags().StringVarP(&templateType, "type", "t", "", "Template type to print")
	rootCmd.AddCommand(templatesCmd)
}
