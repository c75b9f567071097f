package export

import (
	"bytes"
	"image"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/captionkit/captioner/internal/models"
	"github.com/captionkit/captioner/internal/session"
)

func testImage(t *testing.T) models.Image {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))))
	img, err := models.NewImage(buf.Bytes(), "mug.png")
	require.NoError(t, err)
	return img
}

func TestHistoryYAML(t *testing.T) {
	created := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	entries := []session.HistoryEntry{
		{Image: testImage(t), RawText: "1. Morning mug ☕\n\n   - Hashtags: #a #b #c", CreatedAt: created},
		{Image: testImage(t), RawText: "", CreatedAt: created.Add(time.Minute)},
	}
	doc := NewHistoryDocument(HistoryMeta{Provider: "gemini", Model: "gemini-1.5-flash"}, entries, created)

	require.Len(t, doc.Entries, 2)
	assert.Equal(t, 1, doc.Entries[0].Number)
	assert.Equal(t, []string{"1. Morning mug ☕", "   - Hashtags: #a #b #c"}, doc.Entries[0].Candidates)
	assert.Empty(t, doc.Entries[1].Candidates)

	path := filepath.Join(t.TempDir(), "out", "history.yaml")
	require.NoError(t, SaveYAML(path, doc))

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, doc))

	var decoded HistoryDocument
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "gemini", decoded.Config.Provider)
	assert.Equal(t, "2026-05-01T09:30:00Z", decoded.Entries[0].CreatedAt)
	assert.Equal(t, "mug.png", decoded.Entries[0].Image.Filename)
	assert.Equal(t, entries[0].RawText, decoded.Entries[0].RawText)
}

func TestParquetReport(t *testing.T) {
	rows := []BatchRow{
		{Filename: "a.png", Format: "png", Width: 3, Height: 2, RawText: "x\ny", Candidates: []string{"x", "y"}, CandidateCount: 2},
		{Filename: "b.jpg", Error: "caption generation failed: quota exceeded"},
	}

	path := filepath.Join(t.TempDir(), "report.parquet")
	require.NoError(t, SaveParquet(path, rows))

	got, err := ReadParquet(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a.png", got[0].Filename)
	assert.Equal(t, []string{"x", "y"}, got[0].Candidates)
	assert.Equal(t, int64(2), got[0].CandidateCount)
	assert.Contains(t, got[1].Error, "quota exceeded")
}
