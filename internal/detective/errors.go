package detective

import (
	"errors"
	"fmt"
)

// ErrEmptyBatch is returned when a batch operation has nothing to work on.
var ErrEmptyBatch = errors.New("empty batch")

// ErrNotString marks a record field that holds something other than a string.
var ErrNotString = errors.New("value is not a string")

// EmptyBatchError reports a record collection in which no record carries the date key.
type EmptyBatchError struct {
	Key string
}

func (e *EmptyBatchError) Error() string {
	return fmt.Sprintf("empty batch: no record has key %q", e.Key)
}

func (e *EmptyBatchError) Unwrap() error {
	return ErrEmptyBatch
}

// UnparsableDateError reports a value that does not conform to the format it
// was parsed against. Index is -1 for single-item calls.
type UnparsableDateError struct {
	Index  int
	Value  string
	Format string
	Cause  error
}

func (e *UnparsableDateError) Error() string {
	msg := fmt.Sprintf("unparsable date %q with format %q", e.Value, e.Format)
	if e.Index >= 0 {
		msg = fmt.Sprintf("item %d: %s", e.Index, msg)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *UnparsableDateError) Unwrap() error {
	return e.Cause
}

// ItemError attributes a tagging or decoding failure to one batch item.
type ItemError struct {
	Index int
	Value string
	Cause error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d (%q): %v", e.Index, e.Value, e.Cause)
}

func (e *ItemError) Unwrap() error {
	return e.Cause
}
