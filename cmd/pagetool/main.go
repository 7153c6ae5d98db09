// Package main provides pagetool, an offline inspector for saved proposal pages.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"proposal-autofill/internal/dom"
	"proposal-autofill/internal/logging"
)

var (
	logLevel string
	pageURL  string
)

var rootCmd = &cobra.Command{
	Use:   "pagetool",
	Short: "Inspect saved proposal pages offline",
	Long:  "pagetool runs the job extractor, question detector and fill controller against saved HTML pages without a browser.",
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logging.InitializeWriter(cmd.ErrOrStderr(), logLevel, "text")
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level written to stderr")
	rootCmd.PersistentFlags().StringVar(&pageURL, "url", "https://www.upwork.com/ab/proposals/job/~0/apply/", "URL the saved page was captured from")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadPage(path string) (*dom.HTMLDocument, error) {
	var (
		raw []byte
		err error
	)
	if path == "" || path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	return dom.ParseHTML(string(raw), pageURL)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
