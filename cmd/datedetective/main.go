// Package main provides the datedetective command line interface.
package main

import (
	"fmt"
	"os"

	"github.com/jonathan/datedetective/internal/config"
	"github.com/jonathan/datedetective/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath  string
	taggerKind  string
	modelPath   string
	databaseURL string
	verbose     bool
)

// Resolved by the root command before any subcommand runs.
var (
	appConfig *config.Config
	logger    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "datedetective",
	Short: "Infer strptime format strings from date strings",
	Long: `datedetective infers the format string of date strings by tagging each
character with a date field and collapsing the tags into placeholders.
Batches of dates and record collections resolve to the plurality format.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a JSON config file")
	flags.StringVar(&taggerKind, "tagger", "", "Tagger to use: heuristic, bilstm or llm")
	flags.StringVar(&modelPath, "model", "", "Path to exported BiLSTM weights (bilstm tagger)")
	flags.StringVar(&databaseURL, "db-url", "", "PostgreSQL URL for the tag cache and run history")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Debug logging and consensus details")
}

// loadSettings layers CLI flags over the config file, the environment and
// the defaults, and builds the logger.
func loadSettings(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("tagger") {
		cfg.Tagger = taggerKind
	}
	if flags.Changed("model") {
		cfg.Model = modelPath
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = databaseURL
	}
	cfg.Verbose = cfg.Verbose || verbose
	merged := cfg.MergeWithDefaults(config.Defaults())
	if err := merged.Validate(); err != nil {
		return err
	}
	appConfig = &merged

	l, err := logging.New(merged.Verbose)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
