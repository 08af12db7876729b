// Package decoder turns per-character tags into a strptime-style format string.
package decoder

import (
	"strings"

	"github.com/jonathan/datedetective/internal/labels"
)

// Decode builds the format string for sourceChars from its raw tags.
//
// Characters tagged None are copied through as literals. Every maximal run of
// the same field type collapses into a single placeholder. Markers are ignored,
// so two adjacent occurrences of one field type with nothing between them are
// merged into one run.
func Decode(rawTags []string, sourceChars []rune) (string, error) {
	if len(rawTags) != len(sourceChars) {
		return "", &ShapeMismatchError{Tags: len(rawTags), Chars: len(sourceChars)}
	}
	tags, err := labels.ParseTags(rawTags)
	if err != nil {
		return "", err
	}
	return DecodeTags(tags, sourceChars)
}

// DecodeTags is Decode over already parsed tags.
func DecodeTags(tags []labels.Tag, sourceChars []rune) (string, error) {
	if len(tags) != len(sourceChars) {
		return "", &ShapeMismatchError{Tags: len(tags), Chars: len(sourceChars)}
	}

	var sb strings.Builder
	var prev labels.FieldType // zero value: no field seen yet
	for i, tag := range tags {
		switch {
		case tag.Field.IsNone():
			sb.WriteRune(sourceChars[i])
		case tag.Field != prev:
			sb.WriteString(tag.Field.Placeholder())
		}
		prev = tag.Field
	}
	return sb.String(), nil
}

// Run is a maximal span of characters sharing one non-None field type.
type Run struct {
	Field labels.FieldType
	Start int // index of first character
	End   int // index one past the last character
}

// Runs lists the field runs of a tag sequence in order. Each run corresponds
// to exactly one placeholder emitted by DecodeTags.
func Runs(tags []labels.Tag) []Run {
	var runs []Run
	var prev labels.FieldType
	for i, tag := range tags {
		switch {
		case tag.Field.IsNone():
		case tag.Field != prev:
			runs = append(runs, Run{Field: tag.Field, Start: i, End: i + 1})
		default:
			runs[len(runs)-1].End = i + 1
		}
		prev = tag.Field
	}
	return runs
}
