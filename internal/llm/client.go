package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client sends a tagging prompt to a hosted model and returns its JSON answer.
type Client interface {
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	Close() error
}

// NewClient connects to the provider named in config. A nil config means
// DefaultConfig.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}

// GeminiClient answers tagging prompts with Gemini in JSON response mode.
type GeminiClient struct {
	client *genai.Client
	models map[ModelTier]*genai.GenerativeModel
}

// NewGeminiClient opens a Gemini connection and prepares one model handle per
// configured tier.
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for the llm tagger")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &GeminiClient{client: client, models: make(map[ModelTier]*genai.GenerativeModel)}
	for _, tier := range []ModelTier{TierLite, TierStandard} {
		name := config.GetModel(tier)
		if name == "" {
			continue
		}
		m := client.GenerativeModel(name)
		m.SetTemperature(config.Temperature)
		// Tags for a date string fit comfortably in this budget.
		m.SetMaxOutputTokens(2048)
		m.ResponseMIMEType = "application/json"
		c.models[tier] = m
	}
	if len(c.models) == 0 {
		_ = client.Close()
		return nil, fmt.Errorf("no Gemini model configured")
	}
	return c, nil
}

// GenerateJSON runs prompt on the tier's model and returns the answer with
// any markdown fence removed.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	model, ok := c.models[tier]
	if !ok {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate tags: %w", err)
	}
	text, err := responseText(resp)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// Close ends the Gemini connection.
func (c *GeminiClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// responseText joins the text parts of the first candidate. A candidate that
// stopped for any reason other than a normal stop or token limit is an error.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("model returned no candidates")
	}

	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case genai.FinishReasonUnspecified, genai.FinishReasonStop, genai.FinishReasonMaxTokens:
	default:
		return "", fmt.Errorf("model stopped early: %s", cand.FinishReason)
	}
	if cand.Content == nil {
		return "", fmt.Errorf("model returned an empty candidate")
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("model returned no text")
	}
	return sb.String(), nil
}
