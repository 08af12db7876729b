package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/datedetective/internal/decoder"
	"github.com/jonathan/datedetective/internal/detective"
	"github.com/jonathan/datedetective/internal/labels"
	"github.com/jonathan/datedetective/internal/tagger/llmtag"
)

// ErrValidation indicates a malformed request body.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrRunNotFound indicates an unknown consensus run ID.
type ErrRunNotFound struct {
	RunID uuid.UUID
}

func (e *ErrRunNotFound) Error() string {
	return fmt.Sprintf("run not found: %s", e.RunID)
}

// ErrStoreUnavailable indicates a request that needs the database when none is configured.
type ErrStoreUnavailable struct{}

func (e *ErrStoreUnavailable) Error() string {
	return "run history requires a database"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation  *ErrValidation
		fieldErrs   validator.ValidationErrors
		notFound    *ErrRunNotFound
		unavailable *ErrStoreUnavailable
		apiErr      *llmtag.APICallError
		parseErr    *llmtag.ParseError
		unparsable  *detective.UnparsableDateError
		item        *detective.ItemError
		shape       *decoder.ShapeMismatchError
		unsupported *labels.UnsupportedCharacterError
		unknownTag  *labels.UnknownTagError
	)

	switch {
	case errors.As(err, &validation), errors.As(err, &fieldErrs):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr), errors.As(err, &parseErr):
		return http.StatusBadGateway
	case errors.Is(err, detective.ErrEmptyBatch),
		errors.As(err, &unparsable),
		errors.As(err, &shape),
		errors.As(err, &unsupported),
		errors.As(err, &unknownTag),
		errors.As(err, &item):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorDetails returns structured context for errors that point at an input item.
func errorDetails(err error) map[string]any {
	var (
		fieldErrs  validator.ValidationErrors
		unparsable *detective.UnparsableDateError
		item       *detective.ItemError
		empty      *detective.EmptyBatchError
	)

	switch {
	case errors.As(err, &fieldErrs):
		fields := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields[fe.Field()] = fe.Tag()
		}
		return map[string]any{"fields": fields}
	case errors.As(err, &unparsable):
		details := map[string]any{"value": unparsable.Value, "format": unparsable.Format}
		if unparsable.Index >= 0 {
			details["index"] = unparsable.Index
		}
		return details
	case errors.As(err, &item):
		return map[string]any{"index": item.Index, "value": item.Value}
	case errors.As(err, &empty):
		return map[string]any{"key": empty.Key}
	default:
		return nil
	}
}
