// Package llmtag implements a date tagger that asks a hosted language model
// for per-character labels.
package llmtag

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/datedetective/internal/llm"
	"github.com/jonathan/datedetective/internal/prompts"
	"github.com/jonathan/datedetective/internal/schemas"
	"github.com/jonathan/datedetective/internal/tagger"
	embedded "github.com/jonathan/datedetective/schemas"
	"go.uber.org/zap"
)

// Name identifies the LLM tagger in logs and cache keys.
const Name = "llm"

// DefaultAttempts is how many times a wrong-length answer is re-requested.
const DefaultAttempts = 2

// Tagger labels characters by prompting an llm.Client.
type Tagger struct {
	client   llm.Client
	tier     llm.ModelTier
	attempts int
	logger   *zap.Logger
}

// Option configures a Tagger.
type Option func(*Tagger)

// WithTier selects the model tier. The default is llm.TierLite.
func WithTier(tier llm.ModelTier) Option {
	return func(t *Tagger) { t.tier = tier }
}

// WithAttempts sets the number of requests made before a length mismatch is reported.
func WithAttempts(n int) Option {
	return func(t *Tagger) {
		if n > 0 {
			t.attempts = n
		}
	}
}

// WithLogger sets the logger used for retries.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Tagger) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a Tagger over client. The caller owns the client.
func New(client llm.Client, opts ...Option) *Tagger {
	t := &Tagger{
		client:   client,
		tier:     llm.TierLite,
		attempts: DefaultAttempts,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns "llm".
func (t *Tagger) Name() string {
	return Name
}

// Tag requests labels for input. Responses are validated against the
// tagger-output schema; a response of the wrong length is retried with a
// corrective prompt and surfaces as *decoder.ShapeMismatchError once the
// attempts are exhausted.
func (t *Tagger) Tag(ctx context.Context, input string) ([]string, error) {
	chars := []rune(input)
	if len(chars) == 0 {
		return []string{}, nil
	}

	base := buildPrompt(chars)
	prompt := base
	var lastErr error
	for attempt := 1; attempt <= t.attempts; attempt++ {
		tags, err := t.request(ctx, prompt)
		if err != nil {
			return nil, err
		}
		lastErr = tagger.CheckShape(input, tags)
		if lastErr == nil {
			return tags, nil
		}
		t.logger.Debug("llm tag count mismatch",
			zap.String("input", input),
			zap.Int("attempt", attempt),
			zap.Int("got", len(tags)),
			zap.Int("want", len(chars)))
		prompt = prompts.Format(prompts.MustGet(prompts.Tagging, "repair-length"), map[string]string{
			"Got":    strconv.Itoa(len(tags)),
			"Length": strconv.Itoa(len(chars)),
			"Prompt": base,
		})
	}
	return nil, lastErr
}

func (t *Tagger) request(ctx context.Context, prompt string) ([]string, error) {
	text, err := t.client.GenerateJSON(ctx, prompt, t.tier)
	if err != nil {
		return nil, &APICallError{Message: "failed to generate tags", Cause: err}
	}
	text = llm.CleanJSONBlock(text)

	if err := schemas.ValidateEmbedded(embedded.TaggerOutput, []byte(text)); err != nil {
		return nil, &ParseError{Message: "response does not match tagger output schema", Response: text, Cause: err}
	}

	var out struct {
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, &ParseError{Message: "failed to decode response", Response: text, Cause: err}
	}
	return out.Tags, nil
}

// buildPrompt lists characters one per line so the model can count them.
func buildPrompt(chars []rune) string {
	var sb strings.Builder
	for i, c := range chars {
		fmt.Fprintf(&sb, "%d: %q\n", i, c)
	}
	return prompts.Format(prompts.MustGet(prompts.Tagging, "tag-characters"), map[string]string{
		"Length":     strconv.Itoa(len(chars)),
		"Characters": strings.TrimRight(sb.String(), "\n"),
	})
}
