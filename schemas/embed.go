// Package schemas embeds the JSON Schemas for documents exchanged with taggers
// and clients.
package schemas

import (
	"embed"
	"fmt"
)

// Schema file names.
const (
	TaggerOutput = "tagger_output.schema.json"
	Records      = "records.schema.json"
	Vocabulary   = "vocabulary.schema.json"
)

//go:embed *.schema.json
var files embed.FS

// Load returns the contents of an embedded schema file.
func Load(name string) (string, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("schema %s not embedded: %w", name, err)
	}
	return string(data), nil
}

// Names lists every embedded schema file.
func Names() []string {
	return []string{TaggerOutput, Records, Vocabulary}
}
