package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"proposal-autofill/internal/extractor"
	"proposal-autofill/internal/questions"
	"proposal-autofill/pkg/models"
)

var extractIn string

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract the job posting from a saved page",
	RunE:  runExtract,
}

var questionsIn string

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List the screening questions on a saved page",
	RunE:  runQuestions,
}

func init() {
	extractCmd.Flags().StringVarP(&extractIn, "in", "i", "", "Path to saved HTML page (stdin when empty)")
	questionsCmd.Flags().StringVarP(&questionsIn, "in", "i", "", "Path to saved HTML page (stdin when empty)")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(questionsCmd)
}

type extractOutput struct {
	Job         models.JobPosting `json:"job"`
	Valid       bool              `json:"valid"`
	DisplayName string            `json:"display_name"`
	Application bool              `json:"application_page"`
}

func runExtract(cmd *cobra.Command, _ []string) error {
	doc, err := loadPage(extractIn)
	if err != nil {
		return err
	}

	ex := extractor.New()
	job := ex.ExtractJobPosting(doc)
	if job == nil {
		return fmt.Errorf("no job data found")
	}
	return printJSON(cmd.OutOrStdout(), extractOutput{
		Job:         *job,
		Valid:       ex.Validate(job),
		DisplayName: ex.ResolveDisplayName(doc, ""),
		Application: extractor.IsApplicationURL(doc.URL()),
	})
}

func runQuestions(cmd *cobra.Command, _ []string) error {
	doc, err := loadPage(questionsIn)
	if err != nil {
		return err
	}
	found := questions.NewDetector().Detect(doc)
	if found == nil {
		found = []models.ApplicationQuestion{}
	}
	return printJSON(cmd.OutOrStdout(), found)
}
