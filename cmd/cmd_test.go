package cmd

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/captionkit/captioner/internal/config"
	"github.com/captionkit/captioner/internal/export"
)

func fakeOllama(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":` + reply + `}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func setOllamaEnv(t *testing.T, url string) {
	t.Setenv("CAPTION_PROVIDER", "ollama")
	t.Setenv("OLLAMA_URL", url)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("LOG_LEVEL", "error")
}

func TestGenerateCommand(t *testing.T) {
	srv := fakeOllama(t, `"1. Comfy sneakers! 👟\n   - Hashtags: #a #b #c\n\n2. Walk on air"`)
	setOllamaEnv(t, srv.URL)

	dir := t.TempDir()
	img := writePNG(t, dir, "sneaker.png")
	outPath := filepath.Join(dir, "out.yaml")

	out, err := run(t, "generate", img, "--output", outPath, "--model", "llava:7b")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] 1. Comfy sneakers! 👟")
	assert.Contains(t, out, "[3] 2. Walk on air")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var doc export.HistoryDocument
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "ollama", doc.Config.Provider)
	assert.Equal(t, "llava:7b", doc.Config.Model)
	require.Len(t, doc.Entries, 1)
	assert.Len(t, doc.Entries[0].Candidates, 3)
}

func TestGenerateCommandMissingKeyIsFatal(t *testing.T) {
	t.Setenv("CAPTION_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")

	_, err := run(t, "generate", "does-not-matter.png")
	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "GEMINI_API_KEY", cfgErr.Key)
}

func TestBatchCommand(t *testing.T) {
	srv := fakeOllama(t, `"1. Nice\n2. Also nice"`)
	setOllamaEnv(t, srv.URL)

	dir := t.TempDir()
	writePNG(t, dir, "a.png")
	writePNG(t, dir, "b.png")
	report := filepath.Join(t.TempDir(), "report.parquet")

	out, err := run(t, "batch", "--dir", dir, "--output", report, "--concurrency", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Captioned 2 of 2 images")

	rows, err := export.ReadParquet(report)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a.png", rows[0].Filename)
	assert.Equal(t, int64(2), rows[0].CandidateCount)
}

func TestBatchCommandEmptyDir(t *testing.T) {
	setOllamaEnv(t, "http://127.0.0.1:1")
	_, err := run(t, "batch", "--dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JPEG or PNG images")
}
