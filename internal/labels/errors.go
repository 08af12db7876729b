package labels

import "fmt"

// UnknownTagError indicates a raw tag that names no known field type.
type UnknownTagError struct {
	Tag string
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("unknown tag %q", e.Tag)
}

// UnsupportedCharacterError indicates a character outside the tagger's input alphabet.
type UnsupportedCharacterError struct {
	Char     rune
	Position int
}

func (e *UnsupportedCharacterError) Error() string {
	return fmt.Sprintf("unsupported character %q at position %d", e.Char, e.Position)
}

// VocabularyError represents a malformed vocabulary definition.
type VocabularyError struct {
	Message string
	Cause   error
}

func (e *VocabularyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid vocabulary: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid vocabulary: %s", e.Message)
}

func (e *VocabularyError) Unwrap() error {
	return e.Cause
}
