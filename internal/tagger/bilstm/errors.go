package bilstm

import "fmt"

// ModelError represents a malformed or inconsistent model export.
type ModelError struct {
	Message string
	Cause   error
}

func (e *ModelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid model: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid model: %s", e.Message)
}

func (e *ModelError) Unwrap() error {
	return e.Cause
}
