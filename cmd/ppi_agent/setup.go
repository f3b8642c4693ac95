package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jonathan/ppi-assistant/internal/config"
	"github.com/jonathan/ppi-assistant/internal/db"
	"github.com/jonathan/ppi-assistant/internal/extraction"
	"github.com/jonathan/ppi-assistant/internal/fetch"
	"github.com/jonathan/ppi-assistant/internal/ingestion"
	"github.com/jonathan/ppi-assistant/internal/llm"
	"github.com/jonathan/ppi-assistant/internal/logging"
)

// loadConfig resolves the --config file against the environment and defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the command logger. Commands other than serve stay
// quiet unless --verbose is set.
func newLogger(cfg *config.Config, server bool) (*zap.Logger, error) {
	level := "warn"
	if server {
		level = cfg.LogLevel
	}
	if verbose {
		level = "debug"
	}
	logger, err := logging.NewLogger(level, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// connectDB opens the configured database.
func connectDB(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database, nil
}

// newExtractor creates the LLM client for the configured provider and the
// extractor on top of it. The caller closes the client.
func newExtractor(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*extraction.Extractor, llm.Client, error) {
	if cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("API key is required (set %s)", config.APIKeyEnv(cfg.Provider()))
	}
	client, err := llm.NewClient(ctx, cfg.LLMConfig(), cfg.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return extraction.NewExtractor(client, extraction.WithLogger(logger)), client, nil
}

// loadDocuments reads each file, then each URL, in the order given.
func loadDocuments(ctx context.Context, files, urls []string) ([]ingestion.Document, error) {
	docs := make([]ingestion.Document, 0, len(files)+len(urls))
	for _, path := range files {
		doc, err := ingestion.FromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		docs = append(docs, *doc)
	}
	for _, u := range urls {
		doc, err := ingestion.FromURL(ctx, u, fetch.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// readJSONFile decodes the JSON file at path into v.
func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSON writes v as indented JSON to path, or to stdout when path is empty.
func writeJSON(path string, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonBytes = append(jsonBytes, '\n')

	if path == "" {
		_, err = os.Stdout.Write(jsonBytes)
		return err
	}
	if err := os.WriteFile(path, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
