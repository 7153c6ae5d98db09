package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"proposal-autofill/internal/extractor"
	"proposal-autofill/internal/fill"
	"proposal-autofill/internal/prompts"
)

var (
	fillIn   string
	fillOut  string
	fillText string
	fillName string
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill the cover letter of a saved page and write the result",
	Long:  "Fill writes --text, or the offline fallback proposal built from the page's job posting, into the cover-letter field and saves the modified page.",
	RunE:  runFill,
}

func init() {
	fillCmd.Flags().StringVarP(&fillIn, "in", "i", "", "Path to saved HTML page (stdin when empty)")
	fillCmd.Flags().StringVarP(&fillOut, "out", "o", "", "Path to write the filled page (stdout when empty)")
	fillCmd.Flags().StringVar(&fillText, "text", "", "Cover letter text (fallback proposal when empty)")
	fillCmd.Flags().StringVar(&fillName, "name", "", "Name to sign with")
	rootCmd.AddCommand(fillCmd)
}

func runFill(cmd *cobra.Command, _ []string) error {
	doc, err := loadPage(fillIn)
	if err != nil {
		return err
	}

	text := fillText
	if text == "" {
		ex := extractor.New()
		name := ex.ResolveDisplayName(doc, fillName)
		if job := ex.ExtractJobPosting(doc); ex.Validate(job) {
			text = prompts.FallbackProposal(*job, name)
		} else {
			text = prompts.GenericProposal(ex.ExtractTitle(doc), name)
		}
	}

	fc := fill.NewController(doc, fill.RetryPolicy{Name: "none"})
	if !fc.FillCoverLetter(context.Background(), text, fill.PriorityUserOverride) {
		return fmt.Errorf("cover letter field not found")
	}

	if fillOut == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), doc.HTML())
		return err
	}
	if err := os.WriteFile(fillOut, []byte(doc.HTML()), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Filled page written to %s\n", fillOut)
	return nil
}
