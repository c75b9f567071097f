package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/captionkit/captioner/internal/gemini"
	"github.com/captionkit/captioner/internal/ollama"
	"github.com/captionkit/captioner/internal/openai"
)

// ConfigurationError is a missing or invalid setting. It is fatal at startup.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Reason)
}

// Config holds everything read from the environment at startup.
type Config struct {
	Provider    string
	Model       string
	Temperature float64

	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OllamaURL     string

	RequestTimeout time.Duration
	SessionTTL     time.Duration
	MaxUploadBytes int64
	LogLevel       slog.Level
}

// Load reads the configuration from the process environment. A missing API
// key for the selected provider is an error here rather than at the first
// generation.
func Load() (*Config, error) {
	cfg := &Config{
		Provider:      strings.ToLower(getEnv("CAPTION_PROVIDER", "gemini")),
		GeminiAPIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		OllamaURL:     getEnv("OLLAMA_URL", getEnv("OLLAMA_HOST", ollama.DefaultURL)),
	}

	var err error
	if cfg.Temperature, err = getEnvFloat("CAPTION_TEMPERATURE", 0.7); err != nil {
		return nil, err
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return nil, &ConfigurationError{Key: "CAPTION_TEMPERATURE", Reason: "must be between 0 and 2"}
	}

	timeout, err := getEnvInt("REQUEST_TIMEOUT_SECONDS", 120)
	if err != nil {
		return nil, err
	}
	ttl, err := getEnvInt("SESSION_TTL_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	maxUpload, err := getEnvInt("MAX_UPLOAD_MB", 10)
	if err != nil {
		return nil, err
	}
	switch {
	case timeout <= 0:
		return nil, &ConfigurationError{Key: "REQUEST_TIMEOUT_SECONDS", Reason: "must be positive"}
	case ttl <= 0:
		return nil, &ConfigurationError{Key: "SESSION_TTL_MINUTES", Reason: "must be positive"}
	case maxUpload <= 0:
		return nil, &ConfigurationError{Key: "MAX_UPLOAD_MB", Reason: "must be positive"}
	}
	cfg.RequestTimeout = time.Duration(timeout) * time.Second
	cfg.SessionTTL = time.Duration(ttl) * time.Minute
	cfg.MaxUploadBytes = int64(maxUpload) * 1024 * 1024

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, &ConfigurationError{Key: "LOG_LEVEL", Reason: err.Error()}
	}

	switch cfg.Provider {
	case "gemini":
		cfg.Model = getEnv("GEMINI_MODEL", gemini.DefaultModel)
		if cfg.GeminiAPIKey == "" {
			return nil, &ConfigurationError{Key: "GEMINI_API_KEY", Reason: "environment variable not set"}
		}
	case "openai":
		cfg.Model = getEnv("OPENAI_MODEL", openai.DefaultModel)
		if cfg.OpenAIAPIKey == "" {
			return nil, &ConfigurationError{Key: "OPENAI_API_KEY", Reason: "environment variable not set"}
		}
	case "ollama":
		cfg.Model = getEnv("OLLAMA_MODEL", ollama.DefaultModel)
	default:
		return nil, &ConfigurationError{
			Key:    "CAPTION_PROVIDER",
			Reason: fmt.Sprintf("unsupported provider %q (supported: gemini, openai, ollama)", cfg.Provider),
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ConfigurationError{Key: key, Reason: fmt.Sprintf("not an integer: %q", value)}
	}
	return parsed, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &ConfigurationError{Key: key, Reason: fmt.Sprintf("not a number: %q", value)}
	}
	return parsed, nil
}
