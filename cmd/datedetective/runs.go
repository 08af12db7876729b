package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/jonathan/datedetective/internal/db"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded consensus runs",
}

var (
	runsTagger string
	runsFormat string
	runsHash   string
	runsLimit  int
)

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent consensus runs",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print one consensus run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a consensus run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the tag cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired tag cache entries",
	Args:  cobra.NoArgs,
	RunE:  runCachePurge,
}

func init() {
	runsListCmd.Flags().StringVar(&runsTagger, "by-tagger", "", "Only runs from this tagger")
	runsListCmd.Flags().StringVar(&runsFormat, "by-format", "", "Only runs that chose this format")
	runsListCmd.Flags().StringVar(&runsHash, "by-hash", "", "Only runs over input with this SHA256")
	runsListCmd.Flags().IntVar(&runsLimit, "limit", db.DefaultRunLimit, "Maximum number of runs")

	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsDeleteCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(runsCmd, cacheCmd)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	database, err := requireDB(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(cmd.Context(), db.RunFilters{
		Tagger:    runsTagger,
		Format:    runsFormat,
		InputHash: runsHash,
		Limit:     runsLimit,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCREATED\tTAGGER\tITEMS\tFORMAT\tSOURCE")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Tagger, r.Items, r.Format, r.Source)
	}
	return w.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run ID: %w", err)
	}
	database, err := requireDB(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	run, err := database.GetRun(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run not found: %s", runID)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run ID: %w", err)
	}
	database, err := requireDB(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.DeleteRun(cmd.Context(), runID); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", runID)
	return nil
}

func runCachePurge(cmd *cobra.Command, _ []string) error {
	database, err := requireDB(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	n, err := database.PurgeExpiredTags(cmd.Context())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired tag cache entries\n", n)
	return nil
}
