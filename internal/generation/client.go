package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/captionkit/captioner/internal/models"
	"github.com/captionkit/captioner/internal/providers"
)

// Generator produces a Result for an image and instruction template.
type Generator interface {
	Generate(ctx context.Context, image models.Image, template string) Result
}

type Options struct {
	Model       string
	Temperature float64
	// Timeout bounds the single provider call. Zero means no extra bound.
	Timeout time.Duration
}

// Client turns provider errors into Failure results. It holds no state
// between calls and never retries.
type Client struct {
	provider providers.Provider
	opts     Options
}

func NewClient(provider providers.Provider, opts Options) *Client {
	return &Client{provider: provider, opts: opts}
}

func (c *Client) Generate(ctx context.Context, image models.Image, template string) Result {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.provider.Generate(ctx, providers.Request{
		Model:       c.opts.Model,
		Temperature: c.opts.Temperature,
		Prompt:      template,
		Image:       image,
	})
	if err != nil {
		reason := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			reason = fmt.Sprintf("request timed out after %s: %s", c.opts.Timeout, reason)
		}
		slog.Error("Caption generation failed",
			"provider", c.provider.Name(),
			"model", c.opts.Model,
			"image", image.Filename(),
			"elapsed", time.Since(start),
			"err", err)
		return Failure(reason)
	}

	slog.Info("Caption generation finished",
		"provider", c.provider.Name(),
		"model", c.opts.Model,
		"image", image.Filename(),
		"elapsed", time.Since(start),
		"length", len(text))
	return Success(text)
}
