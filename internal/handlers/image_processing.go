package handlers

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/captionkit/captioner/internal/models"
)

// processImageFile validates an uploaded payload as a JPEG or PNG image.
func processImageFile(fileData []byte, filename string) (models.Image, error) {
	img, err := models.NewImage(fileData, filepath.Base(filename))
	if err != nil {
		slog.Warn("Rejected upload", "filename", filename, "size", len(fileData), "error", err)
		return models.Image{}, fmt.Errorf("invalid upload %q: %w", filename, err)
	}

	info := img.Info()
	slog.Debug("Image decoded", "filename", info.Filename, "format", info.Format, "width", info.Width, "height", info.Height)
	return img, nil
}
