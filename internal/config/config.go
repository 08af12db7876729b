// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Tagger kinds.
const (
	TaggerHeuristic = "heuristic"
	TaggerBiLSTM    = "bilstm"
	TaggerLLM       = "llm"
)

// DefaultPort is the HTTP port used by serve when none is configured.
const DefaultPort = 8080

// Config represents settings that can be loaded from a JSON file.
// All fields are optional; missing values use defaults, the environment, or CLI flags.
type Config struct {
	Tagger      string `json:"tagger,omitempty"`       // heuristic, bilstm or llm
	Model       string `json:"model,omitempty"`        // Path to exported BiLSTM weights
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key for the llm tagger
	LLMModel    string `json:"llm_model,omitempty"`    // Gemini model name override
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	Workers     int    `json:"workers,omitempty"`      // Concurrent tagger calls per batch
	Port        int    `json:"port,omitempty"`         // HTTP port for serve
	Strict      bool   `json:"strict,omitempty"`       // Require zero-padded numeric fields
	Verbose     bool   `json:"verbose,omitempty"`      // Debug logging and tally output
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Tagger:  TaggerHeuristic,
		Workers: 1,
		Port:    DefaultPort,
	}
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// FromEnv reads settings from environment variables. Unset variables leave
// the field empty. Malformed numbers are reported.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Tagger:      os.Getenv("DATEDETECTIVE_TAGGER"),
		Model:       os.Getenv("DATEDETECTIVE_MODEL"),
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		LLMModel:    os.Getenv("GEMINI_MODEL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"DATEDETECTIVE_WORKERS", &cfg.Workers},
		{"PORT", &cfg.Port},
	}
	for _, v := range ints {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", v.name, err)
		}
		*v.dst = n
	}

	if raw := os.Getenv("DATEDETECTIVE_STRICT"); raw != "" {
		strict, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid DATEDETECTIVE_STRICT: %w", err)
		}
		cfg.Strict = strict
	}
	return cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Tagger) {
	case "", TaggerHeuristic, TaggerLLM:
	case TaggerBiLSTM:
		if c.Model == "" {
			return fmt.Errorf("config error: 'model' is required for the bilstm tagger")
		}
	default:
		return fmt.Errorf("config error: unknown tagger %q (want heuristic, bilstm or llm)", c.Tagger)
	}

	if c.Workers < 0 {
		return fmt.Errorf("config error: 'workers' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}

	if c.Model != "" {
		if _, err := os.Stat(c.Model); os.IsNotExist(err) {
			return fmt.Errorf("config error: model file not found: %s", c.Model)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// Bools cannot distinguish unset from false, so they are OR-ed.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Tagger == "" {
		result.Tagger = defaults.Tagger
	}
	result.Tagger = strings.ToLower(result.Tagger)
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.LLMModel == "" {
		result.LLMModel = defaults.LLMModel
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	result.Strict = result.Strict || defaults.Strict
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}

// Resolve layers file settings over the environment over the built-in
// defaults. An empty path skips the file.
func Resolve(path string) (*Config, error) {
	env, err := FromEnv()
	if err != nil {
		return nil, err
	}
	merged := env.MergeWithDefaults(Defaults())

	if path != "" {
		file, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		merged = file.MergeWithDefaults(merged)
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}
