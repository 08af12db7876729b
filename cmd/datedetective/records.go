package main

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/datedetective/internal/detective"
	"github.com/jonathan/datedetective/internal/ingestion"
	"github.com/jonathan/datedetective/internal/observability"
	"github.com/spf13/cobra"
)

var (
	recordsInput            string
	recordsKey              string
	recordsFormat           string
	recordsPreserveOriginal bool
	recordsFormatOnly       bool
	recordsStrict           bool
	recordsWorkers          int
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Parse the date field of a record collection with its consensus format",
	Long: `Load records from JSON, NDJSON, CSV or an HTML table, infer the consensus
format of the field named by --key, and write the records back as JSON with
that field parsed. Records without the field are passed through unchanged.`,
	Args: cobra.NoArgs,
	RunE: runRecords,
}

func init() {
	recordsCmd.Flags().StringVarP(&recordsInput, "in", "i", "-", "Input file, URL, or - for stdin")
	recordsCmd.Flags().StringVarP(&recordsKey, "key", "k", "", "Name of the date field (required)")
	recordsCmd.Flags().StringVar(&recordsFormat, "format", "", "Input format: json, ndjson, csv or html (default: detect)")
	recordsCmd.Flags().BoolVar(&recordsPreserveOriginal, "preserve-original", false, "Keep the original string under <key>_original")
	recordsCmd.Flags().BoolVar(&recordsFormatOnly, "format-only", false, "Print only the consensus format")
	recordsCmd.Flags().BoolVar(&recordsStrict, "strict", false, "Require zero-padded numeric fields")
	recordsCmd.Flags().IntVar(&recordsWorkers, "workers", 0, "Concurrent tagger calls (default: config)")
	_ = recordsCmd.MarkFlagRequired("key")

	rootCmd.AddCommand(recordsCmd)
}

func runRecords(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	format, err := ingestion.ParseFormat(recordsFormat)
	if err != nil {
		return err
	}
	if format == ingestion.FormatLines {
		return fmt.Errorf("records cannot be read from plain lines; use json, ndjson, csv or html")
	}
	records, meta, err := ingestion.LoadRecords(ctx, recordsInput, format, cmd.InOrStdin())
	if err != nil {
		return err
	}

	a, err := newApp(ctx, appConfig, recordsStrict, recordsWorkers)
	if err != nil {
		return err
	}
	defer a.Close()

	printer := observability.NewPrinter(cmd.ErrOrStderr())
	if appConfig.Verbose {
		printer.PrintSource(meta)
	}

	out := cmd.OutOrStdout()
	var tally *detective.Tally
	if recordsFormatOnly {
		tally, err = a.detective.RecordsConsensus(ctx, records, recordsKey)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, tally.Winner().Format)
	} else {
		res, err := a.detective.ResolveRecords(ctx, records, recordsKey, recordsPreserveOriginal)
		if err != nil {
			return err
		}
		tally = res.Tally
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Records); err != nil {
			return fmt.Errorf("failed to write records: %w", err)
		}
	}

	if appConfig.Verbose {
		printer.PrintTally(tally)
	}
	recordRun(cmd, a, tally, recordsKey, meta)
	return nil
}
