// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/datedetective/internal/detective"
	"github.com/jonathan/datedetective/internal/ingestion"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads line to the box's inner width, counting runes.
func pad(line string) string {
	width := boxWidth - 4
	if n := utf8.RuneCountInString(line); n > width {
		return string([]rune(line)[:width-3]) + "..."
	} else if n < width {
		return line + strings.Repeat(" ", width-n)
	}
	return line
}

// PrintTally outputs the vote counts of a consensus run, winner first.
func (p *Printer) PrintTally(tally *detective.Tally) {
	if tally == nil || len(tally.Entries) == 0 {
		return
	}

	var sb strings.Builder
	winner := tally.Winner()
	sb.WriteString(fmt.Sprintf("Items:    %d\n", tally.Total))
	sb.WriteString(fmt.Sprintf("Distinct: %d\n", len(tally.Entries)))
	sb.WriteString(fmt.Sprintf("Winner:   %s (%d/%d)\n\n", winner.Format, winner.Count, tally.Total))

	ranked := tally.Ranked()
	count := min(len(ranked), maxItemsToShow)
	for i := 0; i < count; i++ {
		e := ranked[i]
		share := float64(e.Count) / float64(tally.Total) * 100
		sb.WriteString(fmt.Sprintf("#%d  %-24s %4d  %5.1f%%\n", i+1, e.Format, e.Count, share))
	}
	if len(ranked) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(ranked)-maxItemsToShow))
	}

	p.printBox("FORMAT CONSENSUS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTags outputs one line per character with its tag.
func (p *Printer) PrintTags(input string, tags []string) {
	var sb strings.Builder
	for i, c := range []rune(input) {
		tag := "?"
		if i < len(tags) {
			tag = tags[i]
		}
		sb.WriteString(fmt.Sprintf("%3d  %q  %s\n", i, c, tag))
	}
	p.printBox("TAGS: "+input, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSource outputs where a batch was loaded from.
func (p *Printer) PrintSource(meta *ingestion.Metadata) {
	if meta == nil {
		return
	}
	location := meta.Location
	if location == "" || location == "-" {
		location = "(stdin)"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Location: %s\n", location))
	sb.WriteString(fmt.Sprintf("Format:   %s\n", meta.Format))
	sb.WriteString(fmt.Sprintf("Items:    %d (%d bytes)\n", meta.Items, meta.Bytes))
	if len(meta.Hash) >= 12 {
		sb.WriteString(fmt.Sprintf("SHA256:   %s", meta.Hash[:12]))
	}
	p.printBox("INPUT", strings.TrimSuffix(sb.String(), "\n"))
}
