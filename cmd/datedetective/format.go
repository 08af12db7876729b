package main

import (
	"fmt"
	"time"

	"github.com/jonathan/datedetective/internal/observability"
	"github.com/spf13/cobra"
)

var formatCmd = &cobra.Command{
	Use:   "format <date>",
	Short: "Print the format string of a date",
	Args:  cobra.ExactArgs(1),
	RunE:  runFormat,
}

var dateTimeStrict bool

var dateTimeCmd = &cobra.Command{
	Use:   "datetime <date>",
	Short: "Parse a date with its inferred format and print it as RFC 3339",
	Args:  cobra.ExactArgs(1),
	RunE:  runDateTime,
}

var tagsCmd = &cobra.Command{
	Use:   "tags <date>",
	Short: "Print the raw per-character tags of a date",
	Long:  "Print the tag the configured tagger assigns to each character, followed by the decoded format.",
	Args:  cobra.ExactArgs(1),
	RunE:  runTags,
}

func init() {
	dateTimeCmd.Flags().BoolVar(&dateTimeStrict, "strict", false, "Require zero-padded numeric fields")

	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(dateTimeCmd)
	rootCmd.AddCommand(tagsCmd)
}

func runFormat(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appConfig, false, 1)
	if err != nil {
		return err
	}
	defer a.Close()

	format, err := a.detective.Format(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), format)
	return nil
}

func runDateTime(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appConfig, dateTimeStrict, 1)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.detective.DateTime(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), t.Format(time.RFC3339Nano))
	return nil
}

func runTags(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appConfig, false, 1)
	if err != nil {
		return err
	}
	defer a.Close()

	tags, err := a.detective.Tags(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintTags(args[0], tags)

	format, err := a.detective.Format(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Format: %s\n", format)
	return nil
}
