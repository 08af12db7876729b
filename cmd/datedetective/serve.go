package main

import (
	"fmt"

	"github.com/jonathan/datedetective/internal/config"
	"github.com/jonathan/datedetective/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort    int
	serveWorkers int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server exposing the format, datetime, list and records
operations under /v1/. Consensus runs are recorded when a database is
configured, and JWT_SECRET enables bearer-token authentication.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: config or 8080)")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 0, "Concurrent tagger calls per batch (default: config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	port := appConfig.Port
	if servePort > 0 {
		port = servePort
	}

	jwtConfig, err := config.OptionalJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to load JWT config: %w", err)
	}

	a, err := newApp(ctx, appConfig, false, serveWorkers)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := server.Config{
		Port:      port,
		Detective: a.detective,
		Logger:    logger,
		JWT:       jwtConfig,
	}
	if a.db != nil {
		cfg.Runs = a.db
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start(ctx)
}
