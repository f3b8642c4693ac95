package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/ppi-assistant/internal/importer"
	"github.com/jonathan/ppi-assistant/internal/server"
)

var (
	servePort            int
	serveAllowURLImports bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for student profiles and document imports.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config, then 8080)")
	serveCmd.Flags().BoolVar(&serveAllowURLImports, "allow-url-imports", false, "Let import requests name a URL for the server to fetch")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}

	logger, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	database, err := connectDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	// Without an API key the server still manages students; imports answer 503.
	var imp server.Importer
	if cfg.APIKey == "" {
		logger.Warn("no API key configured, document imports are disabled",
			zap.String("provider", string(cfg.Provider())))
	} else {
		extractor, client, err := newExtractor(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		imp = importer.NewService(database, extractor,
			importer.WithPolicy(cfg.Policy()),
			importer.WithMaxSaveAttempts(cfg.MaxSaveAttempts),
			importer.WithConcurrency(cfg.ImportConcurrency),
			importer.WithLogger(logger),
		)
	}

	srv := server.New(server.Config{
		Port:            cfg.Port,
		Policy:          cfg.Policy(),
		AllowURLImports: serveAllowURLImports,
	}, database, imp, logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
