package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/captionkit/captioner/internal/models"
	"github.com/captionkit/captioner/internal/parser"
	"github.com/captionkit/captioner/internal/session"
)

// HistoryMeta describes where a history export came from.
type HistoryMeta struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	Prompt   string `yaml:"prompt,omitempty"`
}

// HistoryRecord is one generation in a history export
type HistoryRecord struct {
	Number     int              `yaml:"number"`
	CreatedAt  string           `yaml:"createdat"`
	Image      models.ImageInfo `yaml:"image"`
	RawText    string           `yaml:"rawtext"`
	Candidates []string         `yaml:"candidates"`
}

// HistoryDocument is the complete YAML export
type HistoryDocument struct {
	ExportedAt string          `yaml:"exportedat"`
	Config     HistoryMeta     `yaml:"config"`
	Entries    []HistoryRecord `yaml:"entries"`
}

// NewHistoryDocument converts entries (insertion order) into an export document.
func NewHistoryDocument(meta HistoryMeta, entries []session.HistoryEntry, now time.Time) HistoryDocument {
	doc := HistoryDocument{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Config:     meta,
		Entries:    make([]HistoryRecord, 0, len(entries)),
	}
	for i, e := range entries {
		doc.Entries = append(doc.Entries, HistoryRecord{
			Number:     i + 1,
			CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339),
			Image:      e.Image.Info(),
			RawText:    e.RawText,
			Candidates: parser.Texts(parser.ParseCandidates(e.RawText)),
		})
	}
	return doc
}

// WriteYAML encodes doc to w.
func WriteYAML(w io.Writer, doc HistoryDocument) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode history YAML: %w", err)
	}
	return enc.Close()
}

// SaveYAML writes doc to path, creating parent directories.
func SaveYAML(path string, doc HistoryDocument) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	return WriteYAML(f, doc)
}
