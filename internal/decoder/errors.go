package decoder

import "fmt"

// ShapeMismatchError indicates a tag sequence whose length differs from the input.
type ShapeMismatchError struct {
	Tags  int
	Chars int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: %d tags for %d characters", e.Tags, e.Chars)
}
