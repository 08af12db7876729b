package ingestion

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"
)

var bom = []byte("\xef\xbb\xbf")

// CleanLines splits content into trimmed, non-blank lines. CRLF and CR line
// endings are normalized and a leading byte order mark is dropped.
func CleanLines(content string) []string {
	content = strings.TrimPrefix(content, string(bom))
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// ParseDates decodes a list of date strings. Lines input yields one date per
// non-blank line; JSON input is an array of strings; NDJSON holds one JSON
// string per line; CSV input uses the first column of every row.
func ParseDates(data []byte, format Format) ([]string, error) {
	data = bytes.TrimPrefix(data, bom)
	switch format {
	case FormatLines, FormatAuto:
		return CleanLines(string(data)), nil
	case FormatJSON:
		var dates []string
		if err := json.Unmarshal(data, &dates); err != nil {
			return nil, &FormatError{Format: format, Message: "expected an array of strings", Cause: err}
		}
		return dates, nil
	case FormatNDJSON:
		var dates []string
		for i, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			var s string
			if err := json.Unmarshal([]byte(line), &s); err != nil {
				return nil, &FormatError{Format: format, Line: i + 1, Message: "expected a JSON string", Cause: err}
			}
			dates = append(dates, s)
		}
		return dates, nil
	case FormatCSV:
		r := csv.NewReader(bytes.NewReader(data))
		r.FieldsPerRecord = -1
		var dates []string
		for {
			row, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, &FormatError{Format: format, Message: "malformed CSV", Cause: err}
			}
			if len(row) > 0 && strings.TrimSpace(row[0]) != "" {
				dates = append(dates, strings.TrimSpace(row[0]))
			}
		}
		return dates, nil
	default:
		return nil, &FormatError{Format: format, Message: "not supported for date lists"}
	}
}
