package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"DATEDETECTIVE_TAGGER", "DATEDETECTIVE_MODEL", "GEMINI_API_KEY", "GEMINI_MODEL",
		"DATABASE_URL", "DATEDETECTIVE_WORKERS", "PORT", "DATEDETECTIVE_STRICT",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{"tagger": "llm", "workers": 4, "strict": true, "database_url": "postgres://x"}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "llm", cfg.Tagger)
	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "postgres://x", cfg.DatabaseURL)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"empty path", "", "config path is empty"},
		{"missing file", "/nonexistent/path/config.json", "failed to read config file"},
		{"invalid json", writeConfig(t, `{ invalid json }`), "failed to parse config JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(tt.path)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate(t *testing.T) {
	model := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(model, []byte(`{}`), 0o644))

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"defaults", Defaults(), ""},
		{"bilstm with model", Config{Tagger: TaggerBiLSTM, Model: model}, ""},
		{"bilstm without model", Config{Tagger: TaggerBiLSTM}, "'model' is required"},
		{"missing model file", Config{Tagger: TaggerBiLSTM, Model: model + ".missing"}, "model file not found"},
		{"unknown tagger", Config{Tagger: "crystal-ball"}, "unknown tagger"},
		{"negative workers", Config{Workers: -1}, "'workers'"},
		{"bad port", Config{Port: 70000}, "'port'"},
		{"case-insensitive tagger", Config{Tagger: "LLM"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &Config{Tagger: "BiLSTM", Workers: 3, Verbose: true}
	merged := cfg.MergeWithDefaults(Config{Tagger: "heuristic", Model: "m.json", Workers: 1, Port: 9000, Strict: true})

	assert.Equal(t, TaggerBiLSTM, merged.Tagger)
	assert.Equal(t, "m.json", merged.Model)
	assert.Equal(t, 3, merged.Workers)
	assert.Equal(t, 9000, merged.Port)
	assert.True(t, merged.Strict)
	assert.True(t, merged.Verbose)
	assert.Equal(t, "BiLSTM", cfg.Tagger, "receiver must not change")
}

func TestFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATEDETECTIVE_TAGGER", "llm")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("DATEDETECTIVE_WORKERS", "6")
	t.Setenv("DATEDETECTIVE_STRICT", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "llm", cfg.Tagger)
	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, 6, cfg.Workers)
	assert.True(t, cfg.Strict)

	t.Setenv("PORT", "eighty")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "invalid PORT")
}

func TestResolve(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("DATEDETECTIVE_WORKERS", "2")

	cfg, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, TaggerHeuristic, cfg.Tagger)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, DefaultPort, cfg.Port)

	path := writeConfig(t, `{"workers": 8, "tagger": "llm"}`)
	cfg, err = Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, TaggerLLM, cfg.Tagger)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)

	bad := writeConfig(t, `{"tagger": "bilstm"}`)
	_, err = Resolve(bad)
	assert.Error(t, err)
}
