package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonathan/datedetective/internal/config"
	"github.com/jonathan/datedetective/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default so commands can run more than
// once in the same process.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATEDETECTIVE_TAGGER", "DATEDETECTIVE_MODEL", "DATEDETECTIVE_WORKERS", "DATEDETECTIVE_STRICT",
		"GEMINI_API_KEY", "GEMINI_MODEL", "DATABASE_URL", "PORT", "JWT_SECRET", "JWT_ISSUER",
	} {
		t.Setenv(key, "")
	}
}

// execute runs the CLI in-process and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	isolateEnv(t)
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2020-01-01", "%Y-%m-%d"},
		{"30/12/2023 12:52:23", "%d/%m/%Y %H:%M:%S"},
		{"Dec 5, 2023", "%b %d, %Y"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out, err := execute(t, "", "format", tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestFormatCommand_Args(t *testing.T) {
	_, err := execute(t, "", "format")
	assert.Error(t, err)
}

func TestDateTimeCommand(t *testing.T) {
	out, err := execute(t, "", "datetime", "30/12/2023 12:52:23")
	require.NoError(t, err)
	assert.Equal(t, "2023-12-30T12:52:23Z\n", out)

	out, err = execute(t, "", "datetime", "1-2-2020")
	require.NoError(t, err)
	assert.Equal(t, "2020-02-01T00:00:00Z\n", out)

	_, err = execute(t, "", "datetime", "--strict", "1-2-2020")
	assert.Error(t, err)
}

func TestTagsCommand(t *testing.T) {
	out, err := execute(t, "", "tags", "2020-01")
	require.NoError(t, err)
	assert.Contains(t, out, "B-Y")
	assert.Contains(t, out, "I-m")
	assert.Contains(t, out, "Format: %Y-%m\n")
}

func TestListCommand(t *testing.T) {
	stdin := "30/12/2023\n\n12/31/2023\n31/12/2023\n"

	out, err := execute(t, stdin, "list")
	require.NoError(t, err)
	assert.Equal(t, "%d/%m/%Y\n", out)

	out, err = execute(t, "2020-01-01\n2021-06-30\n", "list", "--parse", "--workers", "2")
	require.NoError(t, err)
	assert.Equal(t, "2020-01-01T00:00:00Z\n2021-06-30T00:00:00Z\n", out)

	_, err = execute(t, stdin, "list", "--parse")
	assert.Error(t, err, "12/31/2023 does not fit the consensus format")
}

func TestListCommand_File(t *testing.T) {
	path := writeTemp(t, "dates.json", `["2020-01-01", "2020-02-02", "02/03/2020"]`)
	out, err := execute(t, "", "list", "--in", path)
	require.NoError(t, err)
	assert.Equal(t, "%Y-%m-%d\n", out)
}

func TestListCommand_Empty(t *testing.T) {
	_, err := execute(t, "\n\n", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty batch")
}

func TestRecordsCommand(t *testing.T) {
	path := writeTemp(t, "records.json", `[
		{"id": 1, "d": "30/12/2023"},
		{"id": 2},
		{"id": 3, "d": "31/12/2023"}
	]`)

	out, err := execute(t, "", "records", "--in", path, "--key", "d", "--preserve-original")
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 3)
	assert.Equal(t, "2023-12-30T00:00:00Z", records[0]["d"])
	assert.Equal(t, "30/12/2023", records[0]["d_original"])
	assert.Equal(t, map[string]any{"id": float64(2)}, records[1])
	assert.Equal(t, "2023-12-31T00:00:00Z", records[2]["d"])
}

func TestRecordsCommand_CSVFormatOnly(t *testing.T) {
	csv := "id,when\n1,2020-01-01\n2,\n3,2020-03-04\n"
	out, err := execute(t, csv, "records", "--format", "csv", "--key", "when", "--format-only")
	require.NoError(t, err)
	assert.Equal(t, "%Y-%m-%d\n", out)
}

func TestRecordsCommand_Errors(t *testing.T) {
	path := writeTemp(t, "records.json", `[{"x": "2020-01-01"}]`)

	_, err := execute(t, "", "records", "--in", path)
	assert.Error(t, err, "--key is required")

	_, err = execute(t, "", "records", "--in", path, "--key", "d")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty batch")

	_, err = execute(t, "2020-01-01\n", "records", "--key", "d", "--format", "lines")
	assert.Error(t, err)
}

func TestGlobalFlags(t *testing.T) {
	_, err := execute(t, "", "--tagger", "nope", "format", "2020-01-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tagger")

	_, err = execute(t, "", "--tagger", "bilstm", "format", "2020-01-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model")

	_, err = execute(t, "", "--tagger", "llm", "format", "2020-01-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestConfigFile(t *testing.T) {
	path := writeTemp(t, "config.json", `{"tagger": "heuristic", "strict": true}`)

	_, err := execute(t, "", "--config", path, "datetime", "1-2-2020")
	assert.Error(t, err, "strict from the config file rejects unpadded fields")

	out, err := execute(t, "", "--config", path, "datetime", "01-02-2020")
	require.NoError(t, err)
	assert.Equal(t, "2020-02-01T00:00:00Z\n", out)
}

func TestDatabaseCommands_RequireDatabase(t *testing.T) {
	for _, args := range [][]string{
		{"runs", "list"},
		{"runs", "show", "00000000-0000-0000-0000-000000000000"},
		{"runs", "delete", "00000000-0000-0000-0000-000000000000"},
		{"cache", "purge"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := execute(t, "", args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "database is required")
		})
	}

	_, err := execute(t, "", "runs", "show", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run ID")
}

func TestTokenCommand(t *testing.T) {
	_, err := execute(t, "", "token", "importer")
	assert.Error(t, err, "JWT_SECRET is unset")

	isolateEnv(t)
	t.Setenv("JWT_SECRET", "a-test-secret-that-is-long-enough-123")
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetArgs([]string{"token", "importer"})
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetErr(nil) })
	require.NoError(t, rootCmd.Execute())

	jwtConfig, err := config.NewJWTConfig()
	require.NoError(t, err)
	claims, err := server.NewJWTService(jwtConfig).ValidateToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "importer", claims.Subject)
}
