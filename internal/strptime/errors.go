package strptime

import "fmt"

// MismatchError indicates a value that does not fit the format.
type MismatchError struct {
	Value  string
	Format string
	Reason string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%q does not match format %q: %s", e.Value, e.Format, e.Reason)
}

// RangeError indicates a calendar or clock value outside its valid range.
type RangeError struct {
	Field string
	Value int
	Input string
}

func (e *RangeError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("%s %d out of range in %q", e.Field, e.Value, e.Input)
	}
	return fmt.Sprintf("%s %d out of range", e.Field, e.Value)
}

// UnsupportedDirectiveError indicates a format directive the parser does not implement.
type UnsupportedDirectiveError struct {
	Directive string
	Format    string
}

func (e *UnsupportedDirectiveError) Error() string {
	return fmt.Sprintf("unsupported directive %s in format %q", e.Directive, e.Format)
}
