package ingestion

import "fmt"

// FormatError reports input that does not fit the selected format.
// Line is 1-based and 0 when the position is unknown.
type FormatError struct {
	Format  Format
	Line    int
	Message string
	Cause   error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("invalid %s input", e.Format)
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Cause
}
