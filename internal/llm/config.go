// Package llm provides centralized LLM configuration and client abstractions.
// The date tagger uses it to ask a hosted model for per-character labels.
package llm

import "os"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for per-character tagging of short strings
	TierLite ModelTier = "lite"
	// TierStandard is the fallback for tiers without an explicit model
	TierStandard ModelTier = "standard"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
		},
		Temperature: 0,
	}
}

// ConfigFromEnv returns DefaultConfig with GEMINI_MODEL overriding the lite tier.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		cfg = cfg.WithModel(TierLite, model)
	}
	return cfg
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider:    c.Provider,
		Models:      make(map[ModelTier]string, len(c.Models)+1),
		Temperature: c.Temperature,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}
