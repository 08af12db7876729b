// Package labels defines the per-character tag vocabulary produced by a date tagger.
//
// A raw tag is either the bare string "None" (the character is a literal
// separator) or "<marker>-<field>", where marker is B (first character of a
// field) or I (continuation) and field names a date component either by its
// long name ("Year") or by its directive code ("Y").
package labels

import "strings"

// FieldType is the date component a character belongs to.
type FieldType string

// Field types understood by the decoder.
const (
	None        FieldType = "None"
	Day         FieldType = "Day"
	Month       FieldType = "Month"
	Year        FieldType = "Year"
	ShortYear   FieldType = "ShortYear"
	Hour        FieldType = "Hour"
	Hour12      FieldType = "Hour12"
	Minute      FieldType = "Minute"
	Second      FieldType = "Second"
	Microsecond FieldType = "Microsecond"
	AMPM        FieldType = "AMPM"
	MonthName   FieldType = "MonthName"
	MonthAbbr   FieldType = "MonthAbbr"
	Weekday     FieldType = "Weekday"
	WeekdayAbbr FieldType = "WeekdayAbbr"
	DayOfYear   FieldType = "DayOfYear"
)

// fieldCodes maps each field type to its strptime directive letter.
var fieldCodes = map[FieldType]byte{
	Day:         'd',
	Month:       'm',
	Year:        'Y',
	ShortYear:   'y',
	Hour:        'H',
	Hour12:      'I',
	Minute:      'M',
	Second:      'S',
	Microsecond: 'f',
	AMPM:        'p',
	MonthName:   'B',
	MonthAbbr:   'b',
	Weekday:     'A',
	WeekdayAbbr: 'a',
	DayOfYear:   'j',
}

var codeFields = func() map[string]FieldType {
	m := make(map[string]FieldType, len(fieldCodes))
	for ft, code := range fieldCodes {
		m[string(code)] = ft
	}
	return m
}()

// Code returns the directive letter for the field type, or 0 for None and unknown types.
func (f FieldType) Code() byte {
	return fieldCodes[f]
}

// Placeholder returns the format placeholder for the field, e.g. "%Y".
func (f FieldType) Placeholder() string {
	code := f.Code()
	if code == 0 {
		return ""
	}
	return "%" + string(code)
}

// IsNone reports whether the field type marks a literal character. The zero
// value counts as None.
func (f FieldType) IsNone() bool {
	return f == None || f == ""
}

// Fields returns all non-None field types.
func Fields() []FieldType {
	return []FieldType{
		Day, Month, Year, ShortYear, Hour, Hour12, Minute, Second,
		Microsecond, AMPM, MonthName, MonthAbbr, Weekday, WeekdayAbbr, DayOfYear,
	}
}

// FieldForCode returns the field type for a directive letter.
func FieldForCode(code byte) (FieldType, bool) {
	ft, ok := codeFields[string(code)]
	return ft, ok
}

// Marker distinguishes the first character of a field from its continuation.
type Marker string

// Position markers. MarkerNone is used for bare tags.
const (
	MarkerNone   Marker = ""
	MarkerBegin  Marker = "B"
	MarkerInside Marker = "I"
)

// Tag is one parsed per-character label.
type Tag struct {
	Field  FieldType
	Marker Marker
}

// String renders the tag in the vocabulary form using the directive code.
func (t Tag) String() string {
	if t.Field.IsNone() {
		return string(None)
	}
	field := string(t.Field)
	if code := t.Field.Code(); code != 0 {
		field = string(code)
	}
	if t.Marker == MarkerNone {
		return field
	}
	return string(t.Marker) + "-" + field
}

// Begin returns a B-marked tag for the field.
func Begin(f FieldType) Tag {
	if f.IsNone() {
		return Tag{Field: None}
	}
	return Tag{Field: f, Marker: MarkerBegin}
}

// Inside returns an I-marked tag for the field.
func Inside(f FieldType) Tag {
	if f.IsNone() {
		return Tag{Field: None}
	}
	return Tag{Field: f, Marker: MarkerInside}
}

// ParseTag parses a raw tag string. Only the text after the last "-" decides
// the field type; the marker is kept for diagnostics.
func ParseTag(raw string) (Tag, error) {
	marker := MarkerNone
	field := raw
	if idx := strings.LastIndex(raw, "-"); idx >= 0 {
		marker = Marker(raw[:idx])
		field = raw[idx+1:]
	}

	if field == string(None) {
		return Tag{Field: None}, nil
	}
	if ft, ok := codeFields[field]; ok {
		return Tag{Field: ft, Marker: marker}, nil
	}
	if _, ok := fieldCodes[FieldType(field)]; ok {
		return Tag{Field: FieldType(field), Marker: marker}, nil
	}
	return Tag{}, &UnknownTagError{Tag: raw}
}

// ParseTags parses a sequence of raw tags, stopping at the first unknown one.
func ParseTags(raw []string) ([]Tag, error) {
	tags := make([]Tag, len(raw))
	for i, r := range raw {
		t, err := ParseTag(r)
		if err != nil {
			return nil, err
		}
		tags[i] = t
	}
	return tags, nil
}
