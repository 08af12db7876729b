// Package detective infers date format strings from per-character tags and
// applies a consensus format to batches of dates and records.
package detective

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/datedetective/internal/decoder"
	"github.com/jonathan/datedetective/internal/strptime"
	"github.com/jonathan/datedetective/internal/tagger"
	"go.uber.org/zap"
)

// Detective resolves formats with a single tagger handle. It holds no
// per-call state and is safe for concurrent use when its tagger is.
type Detective struct {
	tagger  tagger.Tagger
	strict  bool
	workers int
	logger  *zap.Logger
}

// Option configures a Detective.
type Option func(*Detective)

// WithStrictWidth makes numeric fields require their full width when parsing
// ("01", not "1").
func WithStrictWidth() Option {
	return func(d *Detective) { d.strict = true }
}

// WithWorkers tags up to n batch items concurrently. Values below 2 keep
// batches sequential.
func WithWorkers(n int) Option {
	return func(d *Detective) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithLogger sets the logger for batch diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Detective) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Detective around t.
func New(t tagger.Tagger, opts ...Option) *Detective {
	d := &Detective{
		tagger:  t,
		workers: 1,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Strict returns a copy of d with the given width policy.
func (d *Detective) Strict(strict bool) *Detective {
	c := *d
	c.strict = strict
	return &c
}

// IsStrict reports whether numeric fields must be zero padded.
func (d *Detective) IsStrict() bool {
	return d.strict
}

// TaggerName names the underlying tagger.
func (d *Detective) TaggerName() string {
	return d.tagger.Name()
}

// Tags returns the raw tagger output for s after checking its length.
func (d *Detective) Tags(ctx context.Context, s string) ([]string, error) {
	tags, err := d.tagger.Tag(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("failed to tag %q with %s: %w", s, d.tagger.Name(), err)
	}
	if err := tagger.CheckShape(s, tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// Format infers the format string of s.
func (d *Detective) Format(ctx context.Context, s string) (string, error) {
	tags, err := d.Tags(ctx, s)
	if err != nil {
		return "", err
	}
	return decoder.Decode(tags, []rune(s))
}

// DateTime infers the format of s and parses s with it.
func (d *Detective) DateTime(ctx context.Context, s string) (time.Time, error) {
	format, err := d.Format(ctx, s)
	if err != nil {
		return time.Time{}, err
	}
	return d.parse(-1, s, format)
}

// Parse parses s against a known format using the configured width policy.
func (d *Detective) Parse(s, format string) (time.Time, error) {
	return d.parse(-1, s, format)
}

func (d *Detective) parse(index int, s, format string) (time.Time, error) {
	var opts []strptime.Option
	if d.strict {
		opts = append(opts, strptime.WithStrictWidth())
	}
	t, err := strptime.Parse(s, format, opts...)
	if err != nil {
		return time.Time{}, &UnparsableDateError{Index: index, Value: s, Format: format, Cause: err}
	}
	return t, nil
}
