// Package ingestion loads date lists and record collections from files,
// standard input or URLs.
package ingestion

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/datedetective/internal/fetch"
)

// Format names an input encoding.
type Format string

// Supported input formats.
const (
	FormatAuto   Format = ""
	FormatLines  Format = "lines"
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatCSV    Format = "csv"
	FormatHTML   Format = "html"
)

// ParseFormat validates a user supplied format name. "" and "auto" select detection.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatAuto, "auto":
		return FormatAuto, nil
	case FormatLines, "txt", "text":
		return FormatLines, nil
	case FormatJSON, FormatNDJSON, FormatCSV, FormatHTML:
		return f, nil
	case "jsonl":
		return FormatNDJSON, nil
	default:
		return "", fmt.Errorf("unsupported input format %q", name)
	}
}

// Read loads raw bytes from location: "-" is standard input, http(s) URLs
// are fetched, anything else is a file path.
func Read(ctx context.Context, location string, stdin io.Reader) ([]byte, error) {
	switch {
	case location == "-" || location == "":
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read standard input: %w", err)
		}
		return data, nil
	case fetch.IsURL(location):
		result, err := fetch.URL(ctx, location, nil)
		if err != nil {
			return nil, err
		}
		return result.Body, nil
	default:
		data, err := os.ReadFile(location)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("file not found: %w", err)
			}
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		return data, nil
	}
}

// DetectFormat picks a format from the location's extension, falling back
// to sniffing the content.
func DetectFormat(location string, data []byte) Format {
	ext := strings.ToLower(filepath.Ext(location))
	if fetch.IsURL(location) {
		if i := strings.IndexAny(ext, "?#"); i >= 0 {
			ext = ext[:i]
		}
	}
	switch ext {
	case ".json":
		return FormatJSON
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	case ".csv":
		return FormatCSV
	case ".html", ".htm":
		return FormatHTML
	case ".txt":
		return FormatLines
	}

	trimmed := strings.TrimSpace(string(data))
	switch {
	case strings.HasPrefix(trimmed, "["):
		return FormatJSON
	case strings.HasPrefix(trimmed, "{"):
		return FormatNDJSON
	case strings.HasPrefix(trimmed, "<"):
		return FormatHTML
	}
	return FormatLines
}

// LoadDates reads a date list from location.
func LoadDates(ctx context.Context, location string, format Format, stdin io.Reader) ([]string, *Metadata, error) {
	data, err := Read(ctx, location, stdin)
	if err != nil {
		return nil, nil, err
	}
	if format == FormatAuto {
		format = DetectFormat(location, data)
	}
	dates, err := ParseDates(data, format)
	if err != nil {
		return nil, nil, err
	}
	meta := NewMetadata(data, location, format)
	meta.Items = len(dates)
	return dates, meta, nil
}

// LoadRecords reads a record collection from location.
func LoadRecords(ctx context.Context, location string, format Format, stdin io.Reader) ([]map[string]any, *Metadata, error) {
	data, err := Read(ctx, location, stdin)
	if err != nil {
		return nil, nil, err
	}
	if format == FormatAuto {
		format = DetectFormat(location, data)
	}
	records, err := ParseRecords(data, format)
	if err != nil {
		return nil, nil, err
	}
	meta := NewMetadata(data, location, format)
	meta.Items = len(records)
	return records, meta, nil
}
