package providers

import (
	"context"

	"github.com/captionkit/captioner/internal/models"
)

// Request is a single vision generation call: instruction text plus one image.
type Request struct {
	Model       string
	Temperature float64
	Prompt      string
	Image       models.Image
}

// Provider defines the interface for a vision-capable LLM provider
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}
