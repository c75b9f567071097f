package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/captionkit/captioner/internal/config"
	"github.com/captionkit/captioner/internal/gemini"
	"github.com/captionkit/captioner/internal/generation"
	"github.com/captionkit/captioner/internal/ollama"
	"github.com/captionkit/captioner/internal/openai"
	"github.com/captionkit/captioner/internal/providers"
)

// newGenerator builds the provider selected by cfg. The returned close
// function releases provider resources.
func newGenerator(ctx context.Context, cfg *config.Config) (*generation.Client, func() error, error) {
	var (
		provider providers.Provider
		closeFn  = func() error { return nil }
	)

	switch cfg.Provider {
	case "gemini":
		g, err := gemini.New(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, nil, err
		}
		provider, closeFn = g, g.Close
	case "openai":
		o, err := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, nil, err
		}
		provider = o
	case "ollama":
		provider = ollama.New(cfg.OllamaURL, &http.Client{})
	default:
		return nil, nil, &config.ConfigurationError{Key: "CAPTION_PROVIDER", Reason: fmt.Sprintf("unsupported provider %q", cfg.Provider)}
	}

	client := generation.NewClient(provider, generation.Options{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     cfg.RequestTimeout,
	})
	return client, closeFn, nil
}
