package main

import (
	"fmt"
	"time"

	"github.com/jonathan/datedetective/internal/db"
	"github.com/jonathan/datedetective/internal/detective"
	"github.com/jonathan/datedetective/internal/ingestion"
	"github.com/jonathan/datedetective/internal/observability"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	listInput   string
	listFormat  string
	listParse   bool
	listStrict  bool
	listWorkers int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Infer the consensus format of a list of dates",
	Long: `Read one date per line (or a JSON/NDJSON array, or the first CSV column)
and print the format that the most dates share. With --parse every date is
parsed with that format and printed in input order.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listInput, "in", "i", "-", "Input file, URL, or - for stdin")
	listCmd.Flags().StringVar(&listFormat, "input-format", "", "Input format: lines, json, ndjson or csv (default: detect)")
	listCmd.Flags().BoolVar(&listParse, "parse", false, "Print every date parsed with the consensus format")
	listCmd.Flags().BoolVar(&listStrict, "strict", false, "Require zero-padded numeric fields")
	listCmd.Flags().IntVar(&listWorkers, "workers", 0, "Concurrent tagger calls (default: config)")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	format, err := ingestion.ParseFormat(listFormat)
	if err != nil {
		return err
	}
	dates, meta, err := ingestion.LoadDates(ctx, listInput, format, cmd.InOrStdin())
	if err != nil {
		return err
	}

	a, err := newApp(ctx, appConfig, listStrict, listWorkers)
	if err != nil {
		return err
	}
	defer a.Close()

	printer := observability.NewPrinter(cmd.ErrOrStderr())
	if appConfig.Verbose {
		printer.PrintSource(meta)
	}

	var tally *detective.Tally
	out := cmd.OutOrStdout()
	if listParse {
		res, err := a.detective.ResolveList(ctx, dates)
		if err != nil {
			return err
		}
		tally = res.Tally
		for _, t := range res.Times {
			_, _ = fmt.Fprintln(out, t.Format(time.RFC3339Nano))
		}
	} else {
		tally, err = a.detective.Consensus(ctx, dates)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, tally.Winner().Format)
	}

	if appConfig.Verbose {
		printer.PrintTally(tally)
	}
	recordRun(cmd, a, tally, "", meta)
	return nil
}

// recordRun saves the consensus run when a database is configured.
func recordRun(cmd *cobra.Command, a *app, tally *detective.Tally, key string, meta *ingestion.Metadata) {
	if a.db == nil {
		return
	}
	id, err := a.db.SaveRun(cmd.Context(), &db.RunInput{
		Tagger:    a.detective.TaggerName(),
		Strict:    a.detective.IsStrict(),
		DateKey:   key,
		Source:    sourceName(meta),
		InputHash: meta.Hash,
		Tally:     tally,
	})
	if err != nil {
		logger.Warn("failed to save consensus run", zap.Error(err))
		return
	}
	logger.Debug("saved consensus run", zap.String("run_id", id.String()))
	if appConfig.Verbose {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Run: %s\n", id)
	}
}

func sourceName(meta *ingestion.Metadata) string {
	if meta.Location == "" || meta.Location == "-" {
		return "stdin"
	}
	return meta.Location
}
