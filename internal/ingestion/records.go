package ingestion

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/datedetective/internal/schemas"
	embedded "github.com/jonathan/datedetective/schemas"
)

// ParseRecords decodes a record collection. JSON input is an array of
// objects checked against the records schema; NDJSON holds one object per
// line; CSV and HTML tables use their header row as keys. Empty CSV and
// HTML cells are left out of the record so they count as missing.
func ParseRecords(data []byte, format Format) ([]map[string]any, error) {
	data = bytes.TrimPrefix(data, bom)
	switch format {
	case FormatJSON:
		return parseJSONRecords(data)
	case FormatNDJSON:
		return parseNDJSONRecords(data)
	case FormatCSV:
		return parseCSVRecords(data)
	case FormatHTML:
		return parseHTMLRecords(data)
	default:
		return nil, &FormatError{Format: format, Message: "not supported for records"}
	}
}

func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rec map[string]any
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func parseJSONRecords(data []byte) ([]map[string]any, error) {
	if err := schemas.ValidateEmbedded(embedded.Records, data); err != nil {
		return nil, &FormatError{Format: FormatJSON, Message: "expected an array of objects", Cause: err}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, &FormatError{Format: FormatJSON, Message: "failed to decode records", Cause: err}
	}
	return records, nil
}

func parseNDJSONRecords(data []byte) ([]map[string]any, error) {
	var records []map[string]any
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rec, err := decodeObject([]byte(line))
		if err != nil || rec == nil {
			return nil, &FormatError{Format: FormatNDJSON, Line: i + 1, Message: "expected a JSON object", Cause: err}
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseCSVRecords(data []byte) ([]map[string]any, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, &FormatError{Format: FormatCSV, Line: 1, Message: "malformed header", Cause: err}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []map[string]any
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, _ := r.FieldPos(0)
			return nil, &FormatError{Format: FormatCSV, Line: line, Message: "malformed row", Cause: err}
		}
		records = append(records, zipRow(header, row))
	}
	return records, nil
}

func parseHTMLRecords(data []byte) ([]map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, &FormatError{Format: FormatHTML, Message: "failed to parse HTML", Cause: err}
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, &FormatError{Format: FormatHTML, Message: "no table found"}
	}

	rows := table.Find("tr")
	var header []string
	var records []map[string]any
	rows.Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("th, td")
		values := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			values = append(values, strings.Join(strings.Fields(cell.Text()), " "))
		})
		if len(values) == 0 {
			return
		}
		if header == nil {
			header = values
			return
		}
		records = append(records, zipRow(header, values))
	})
	if header == nil {
		return nil, &FormatError{Format: FormatHTML, Message: "table has no header row"}
	}
	return records, nil
}

// zipRow pairs header names with cell values, skipping empty cells and
// columns without a name.
func zipRow(header, row []string) map[string]any {
	rec := make(map[string]any, len(header))
	for i, value := range row {
		if i >= len(header) || header[i] == "" {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			rec[header[i]] = value
		}
	}
	return rec
}
