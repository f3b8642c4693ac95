package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/ppi-assistant/internal/observability"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract student information from a document",
	Long:  "Run the LLM extraction on one document and print the extracted profile as JSON. Nothing is read from or written to the database.",
	RunE:  runExtract,
}

var (
	extractFile   string
	extractURL    string
	extractOutput string
)

func init() {
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "Document to extract")
	extractCmd.Flags().StringVar(&extractURL, "url", "", "URL of a document to extract")
	extractCmd.Flags().StringVarP(&extractOutput, "out", "o", "", "Path to output JSON file (default stdout)")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(_ *cobra.Command, _ []string) error {
	if (extractFile == "") == (extractURL == "") {
		return fmt.Errorf("exactly one of --file or --url is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	var files, urls []string
	if extractFile != "" {
		files = []string{extractFile}
	} else {
		urls = []string{extractURL}
	}
	docs, err := loadDocuments(ctx, files, urls)
	if err != nil {
		return err
	}

	extractor, client, err := newExtractor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	profile, err := extractor.Extract(ctx, docs[0])
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if verbose {
		observability.NewPrinter(os.Stderr).PrintExtractedProfile(profile)
	}
	return writeJSON(extractOutput, profile)
}
