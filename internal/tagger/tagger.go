// Package tagger defines the per-character date tagger contract and the
// implementations that do not need a model file.
package tagger

import (
	"context"
	"unicode/utf8"

	"github.com/jonathan/datedetective/internal/decoder"
)

// Tagger assigns one raw tag (see package labels) to every character of a
// date string, in order.
type Tagger interface {
	// Tag returns one tag per rune of input.
	Tag(ctx context.Context, input string) ([]string, error)
	// Name identifies the tagger in logs and cache keys.
	Name() string
}

// Func adapts a plain function to the Tagger interface.
type Func struct {
	ID string
	Fn func(ctx context.Context, input string) ([]string, error)
}

// Tag calls the wrapped function.
func (f Func) Tag(ctx context.Context, input string) ([]string, error) {
	return f.Fn(ctx, input)
}

// Name returns the configured identifier.
func (f Func) Name() string {
	if f.ID == "" {
		return "func"
	}
	return f.ID
}

// CheckShape verifies that tags has exactly one entry per rune of input.
func CheckShape(input string, tags []string) error {
	if n := utf8.RuneCountInString(input); n != len(tags) {
		return &decoder.ShapeMismatchError{Tags: len(tags), Chars: n}
	}
	return nil
}
