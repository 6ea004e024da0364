package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(map[string]string{})
	require.NoError(t, err)

	require.Equal(t, ProviderGemini, cfg.ModelProvider)
	require.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	require.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	require.Equal(t, 1000, cfg.MaxMessageLength)
	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.False(t, cfg.NeedsAWS())
	require.Empty(t, cfg.Credential())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(map[string]string{
		"MODEL_PROVIDER":     " OpenAI ",
		"OPENAI_API_KEY":     "sk-1",
		"GEMINI_API_KEY":     "g-1",
		"OPENAI_MODEL":       "gpt-x",
		"BASE_URL":           "https://loops.lk/",
		"CONTACT_TABLE":      "contacts",
		"MAX_MESSAGE_LENGTH": "250",
		"LOG_LEVEL":          "DEBUG",
	})
	require.NoError(t, err)

	require.Equal(t, ProviderOpenAI, cfg.ModelProvider)
	require.Equal(t, "sk-1", cfg.Credential())
	require.Equal(t, "gpt-x", cfg.Model())
	require.Equal(t, "https://loops.lk", cfg.BaseURL)
	require.Equal(t, 250, cfg.MaxMessageLength)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.True(t, cfg.NeedsAWS())
}

func TestLoad_GeminiCredential(t *testing.T) {
	cfg, err := load(map[string]string{"GEMINI_API_KEY": "g-1", "OPENAI_API_KEY": "sk-1"})
	require.NoError(t, err)
	require.Equal(t, "g-1", cfg.Credential())
	require.Equal(t, "gemini-2.5-flash", cfg.Model())
}

func TestLoad_Errors(t *testing.T) {
	cases := []map[string]string{
		{"MODEL_PROVIDER": "claude"},
		{"MAX_MESSAGE_LENGTH": "0"},
		{"MAX_MESSAGE_LENGTH": "lots"},
		{"LOG_LEVEL": "LOUD"},
	}
	for _, environ := range cases {
		_, err := load(environ)
		require.Error(t, err, "env=%v", environ)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOOPS_DOTENV_TEST=from-file\n"), 0o600))
	t.Setenv("LOOPS_DOTENV_TEST", "")
	require.NoError(t, os.Unsetenv("LOOPS_DOTENV_TEST"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	require.Equal(t, "from-file", os.Getenv("LOOPS_DOTENV_TEST"))
}

func TestLoadDotEnv_KeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOOPS_DOTENV_KEEP=from-file\n"), 0o600))
	t.Setenv("LOOPS_DOTENV_KEEP", "from-env")

	require.NoError(t, LoadDotEnv(path))
	require.Equal(t, "from-env", os.Getenv("LOOPS_DOTENV_KEEP"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "shown", line["msg"])
	require.Equal(t, "v", line["k"])
}
