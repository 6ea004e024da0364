package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config is read once at process start.
type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	APIKeyParam  string `env:"API_KEY_PARAM"`

	ModelProvider string `env:"MODEL_PROVIDER" envDefault:"gemini"`
	GeminiModel   string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	BaseURL      string `env:"BASE_URL"`
	ContactTable string `env:"CONTACT_TABLE"`

	MaxMessageLength int        `env:"MAX_MESSAGE_LENGTH" envDefault:"1000"`
	ListenAddr       string     `env:"LISTEN_ADDR" envDefault:":8080"`
	LogLevel         slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
}

// Load parses the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg.normalize()
}

// load parses an explicit environment; used by tests.
func load(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg.normalize()
}

func (c Config) normalize() (Config, error) {
	c.ModelProvider = strings.ToLower(strings.TrimSpace(c.ModelProvider))
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.GeminiAPIKey = strings.TrimSpace(c.GeminiAPIKey)
	c.OpenAIAPIKey = strings.TrimSpace(c.OpenAIAPIKey)
	c.APIKeyParam = strings.TrimSpace(c.APIKeyParam)
	c.ContactTable = strings.TrimSpace(c.ContactTable)

	switch c.ModelProvider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return Config{}, fmt.Errorf("config: unknown MODEL_PROVIDER %q", c.ModelProvider)
	}
	if c.MaxMessageLength <= 0 {
		return Config{}, errors.New("config: MAX_MESSAGE_LENGTH must be positive")
	}
	return c, nil
}

// Credential is the static API key for the selected provider, if any.
func (c Config) Credential() string {
	if c.ModelProvider == ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// Model is the model name for the selected provider.
func (c Config) Model() string {
	if c.ModelProvider == ProviderOpenAI {
		return c.OpenAIModel
	}
	return c.GeminiModel
}

// NeedsAWS reports whether any component reads from SSM or DynamoDB.
func (c Config) NeedsAWS() bool {
	return c.APIKeyParam != "" || c.ContactTable != ""
}

// LoadDotEnv loads the given files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// NewLogger returns a JSON logger at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
