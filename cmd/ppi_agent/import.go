package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/ppi-assistant/internal/db"
	"github.com/jonathan/ppi-assistant/internal/importer"
	"github.com/jonathan/ppi-assistant/internal/ingestion"
	"github.com/jonathan/ppi-assistant/internal/observability"
	"github.com/jonathan/ppi-assistant/internal/types"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import documents into a stored student profile",
	Long: `Extract each document with the configured LLM and merge the results into the
student profile, in the order given. With --dry-run the merge runs against a
copy of the profile and nothing is written.`,
	RunE: runImport,
}

var (
	importStudentID string
	importFiles     []string
	importURLs      []string
	importDryRun    bool
	importOutput    string
)

func init() {
	importCmd.Flags().StringVar(&importStudentID, "student-id", "", "ID of the student to update (required)")
	importCmd.Flags().StringArrayVarP(&importFiles, "file", "f", nil, "Document to import (repeatable)")
	importCmd.Flags().StringArrayVar(&importURLs, "url", nil, "URL of a document to import (repeatable)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Show the changes without writing them")
	importCmd.Flags().StringVarP(&importOutput, "out", "o", "", "Write the JSON report to this file instead of stdout")

	_ = importCmd.MarkFlagRequired("student-id")
	rootCmd.AddCommand(importCmd)
}

// importReport is the JSON printed by the import command.
type importReport struct {
	StudentID string                `json:"student_id"`
	DryRun    bool                  `json:"dry_run"`
	Documents []importedDocument    `json:"documents"`
	Student   *types.StudentProfile `json:"student,omitempty"`
}

type importedDocument struct {
	Document   string              `json:"document"`
	Patch      map[string]any      `json:"patch"`
	Sections   []string            `json:"sections"`
	Overwrites []types.FieldChange `json:"overwrites,omitempty"`
}

func runImport(_ *cobra.Command, _ []string) error {
	studentID, err := uuid.Parse(importStudentID)
	if err != nil {
		return fmt.Errorf("invalid --student-id: %w", err)
	}
	if len(importFiles) == 0 && len(importURLs) == 0 {
		return fmt.Errorf("at least one --file or --url is required")
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

	docs, err := loadDocuments(ctx, importFiles, importURLs)
	if err != nil {
		return err
	}

	database, err := connectDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	extractor, client, err := newExtractor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	var store importer.StudentStore = database
	if importDryRun {
		store, err = dryRunStore(ctx, database, studentID)
		if err != nil {
			return err
		}
	}

	svc := importer.NewService(store, extractor,
		importer.WithPolicy(cfg.Policy()),
		importer.WithMaxSaveAttempts(cfg.MaxSaveAttempts),
		importer.WithConcurrency(cfg.ImportConcurrency),
		importer.WithLogger(logger),
	)

	report, err := importDocuments(ctx, svc, studentID, docs, importDryRun)
	if report != nil {
		if writeErr := writeJSON(importOutput, report); writeErr != nil {
			return writeErr
		}
	}
	return err
}

// dryRunStore copies the stored student into an in-memory store so the
// import can run without touching the database.
func dryRunStore(ctx context.Context, source db.Store, studentID uuid.UUID) (*db.Memory, error) {
	student, err := source.GetStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil {
		return nil, &importer.NotFoundError{StudentID: studentID}
	}

	mem := db.NewMemory()
	mem.Put(*student)
	return mem, nil
}

// batchImporter is the part of importer.Service the import command uses.
type batchImporter interface {
	ImportBatch(ctx context.Context, studentID uuid.UUID, docs []ingestion.Document) ([]*importer.Result, error)
}

// importDocuments runs the batch and builds the report. On failure the
// report lists the documents merged before it.
func importDocuments(ctx context.Context, imp batchImporter, studentID uuid.UUID, docs []ingestion.Document, dryRun bool) (*importReport, error) {
	results, err := imp.ImportBatch(ctx, studentID, docs)

	report := &importReport{
		StudentID: studentID.String(),
		DryRun:    dryRun,
		Documents: make([]importedDocument, 0, len(results)),
	}

	printer := observability.NewPrinter(os.Stderr)
	for _, result := range results {
		if verbose {
			printer.PrintImportResult(result)
		}
		report.Documents = append(report.Documents, importedDocument{
			Document:   result.Document,
			Patch:      result.Patch.Document(),
			Sections:   result.Sections,
			Overwrites: result.Overwrites,
		})
		if result.Student != nil {
			report.Student = result.Student
		}
	}

	if err != nil {
		var notFound *importer.NotFoundError
		if errors.As(err, &notFound) {
			return nil, err
		}
		return report, fmt.Errorf("import stopped after %d of %d documents: %w", len(results), len(docs), err)
	}
	return report, nil
}
