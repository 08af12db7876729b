// Package types defines the request and response bodies of the REST API.
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MaxBatchItems bounds the number of dates or records accepted per request.
const MaxBatchItems = 10000

var validate = validator.New()

// FormatRequest asks for the format of a single date string.
type FormatRequest struct {
	Date string `json:"date" validate:"required,max=256"`
}

// DateTimeRequest asks for a single date to be parsed.
type DateTimeRequest struct {
	Date   string `json:"date" validate:"required,max=256"`
	Strict bool   `json:"strict,omitempty"`
}

// ListRequest carries a batch of date strings. An empty but present list
// passes validation and is reported as an empty batch.
type ListRequest struct {
	Dates  []string `json:"dates" validate:"required,max=10000,dive,max=256"`
	Strict bool     `json:"strict,omitempty"`
}

// RecordsRequest carries a batch of records and the key of their date field.
type RecordsRequest struct {
	Records          []map[string]any `json:"records" validate:"required,max=10000"`
	Key              string           `json:"key" validate:"required,max=128"`
	PreserveOriginal bool             `json:"preserve_original,omitempty"`
	Strict           bool             `json:"strict,omitempty"`
}

// Validate validates the FormatRequest using the validator.
func (r *FormatRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the DateTimeRequest using the validator.
func (r *DateTimeRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the ListRequest using the validator.
func (r *ListRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the RecordsRequest using the validator.
func (r *RecordsRequest) Validate() error {
	return validate.Struct(r)
}

// TallyEntry is one distinct format and its vote count.
type TallyEntry struct {
	Format string `json:"format"`
	Count  int    `json:"count"`
}

// FormatResponse returns an inferred format.
type FormatResponse struct {
	Format string `json:"format"`
}

// DateTimeResponse returns a parsed date with the format used.
type DateTimeResponse struct {
	Format   string    `json:"format"`
	DateTime time.Time `json:"datetime"`
}

// ListFormatResponse returns a consensus format with its tally.
type ListFormatResponse struct {
	Format string       `json:"format"`
	Tally  []TallyEntry `json:"tally"`
	RunID  *uuid.UUID   `json:"run_id,omitempty"`
}

// ListDateTimeResponse returns every date parsed with the consensus format.
type ListDateTimeResponse struct {
	Format    string       `json:"format"`
	DateTimes []time.Time  `json:"datetimes"`
	Tally     []TallyEntry `json:"tally"`
	RunID     *uuid.UUID   `json:"run_id,omitempty"`
}

// RecordsResponse returns the consensus format and, for datetime
// projection, the rewritten records.
type RecordsResponse struct {
	Format  string           `json:"format"`
	Records []map[string]any `json:"records,omitempty"`
	Tally   []TallyEntry     `json:"tally"`
	RunID   *uuid.UUID       `json:"run_id,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status   string `json:"status"`
	Tagger   string `json:"tagger"`
	Database bool   `json:"database"`
}
