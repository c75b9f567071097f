package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/captionkit/captioner/internal/export"
	"github.com/captionkit/captioner/internal/generation"
	"github.com/captionkit/captioner/internal/models"
	"github.com/captionkit/captioner/internal/storage"
	"github.com/captionkit/captioner/internal/workflow"
)

const replyText = "1. Great shoes! 🎉\n   - Hashtags: #shoes #style #new\n2. Step up your game!\n   - Hashtags: #fashion #ootd #trend"

type scriptedGenerator struct {
	mu      sync.Mutex
	results []generation.Result
}

func (g *scriptedGenerator) Generate(context.Context, models.Image, string) generation.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.results) == 0 {
		return generation.Success(replyText)
	}
	res := g.results[0]
	g.results = g.results[1:]
	return res
}

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T, gen generation.Generator, maxUpload int64) *testServer {
	store := storage.New(time.Minute, func() *workflow.Controller { return workflow.New(gen) })
	h := New(store, Options{
		MaxUploadBytes: maxUpload,
		ExportMeta:     export.HistoryMeta{Provider: "gemini", Model: "gemini-1.5-flash"},
	})
	return &testServer{t: t, handler: h.Routes()}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) post(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodPost, path, nil))
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (s *testServer) upload(sessionID, field, filename string, data []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(s.t, err)
	_, err = fw.Write(data)
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sessionID+"/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req)
}

func (s *testServer) createSession() string {
	rec := s.post("/api/sessions")
	require.Equal(s.t, http.StatusCreated, rec.Code)
	resp := decode(s.t, rec)
	return resp.SessionID
}

type responseBody struct {
	SessionID  string `json:"session_id"`
	Phase      string `json:"phase"`
	Error      string `json:"error"`
	CopiedText *string
	Image      *models.ImageInfo `json:"image"`
	Candidates []struct {
		Index int    `json:"index"`
		Text  string `json:"text"`
		HTML  string `json:"html"`
	} `json:"candidates"`
	History []workflow.HistoryItem `json:"history"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) responseBody {
	t.Helper()
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw), rec.Body.String())
	var body responseBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	if copied, ok := raw["copied_text"]; ok {
		var s string
		require.NoError(t, json.Unmarshal(copied, &s))
		body.CopiedText = &s
	}
	return body
}

func pngBytes(t *testing.T, w int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, w))))
	return buf.Bytes()
}

func TestFullWorkflow(t *testing.T) {
	srv := newTestServer(t, &scriptedGenerator{}, 0)
	id := srv.createSession()
	base := "/api/sessions/" + id

	rec := srv.get(base)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "awaiting_upload", decode(t, rec).Phase)

	rec = srv.upload(id, "file", "shoes.png", pngBytes(t, 4))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "image_staged", body.Phase)
	require.NotNil(t, body.Image)
	assert.Equal(t, "shoes.png", body.Image.Filename)

	rec = srv.get(base + "/image")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, pngBytes(t, 4), rec.Body.Bytes())

	rec = srv.post(base + "/generate")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, "reviewing", body.Phase)
	require.Len(t, body.Candidates, 4)
	assert.Equal(t, "1. Great shoes! 🎉", body.Candidates[0].Text)
	assert.Contains(t, body.Candidates[0].HTML, "<strong>Option 1</strong>")
	require.Len(t, body.History, 1)

	rec = srv.post(base + "/copy/3")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	require.NotNil(t, body.CopiedText)
	assert.Equal(t, "2. Step up your game!", *body.CopiedText)

	rec = srv.post(base + "/copy/9")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = srv.post(base + "/copy/0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.post(base + "/regenerate")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image_staged", decode(t, rec).Phase)

	rec = srv.post(base + "/generate")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec).History, 2)

	rec = srv.post(base + "/new-image")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "awaiting_upload", body.Phase)
	assert.Nil(t, body.Image)
	require.Len(t, body.History, 2)
	assert.Equal(t, 2, body.History[0].Number)

	rec = srv.get(base + "/image")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.get(base + "/history/1/image")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngBytes(t, 4), rec.Body.Bytes())
	rec = srv.get(base + "/history/3/image")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.post(base + "/reset")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "awaiting_upload", body.Phase)
	assert.Empty(t, body.History)
	assert.Nil(t, body.CopiedText)
}

func TestGenerateFailureReturnsView(t *testing.T) {
	gen := &scriptedGenerator{results: []generation.Result{generation.Failure("quota exceeded")}}
	srv := newTestServer(t, gen, 0)
	id := srv.createSession()

	require.Equal(t, http.StatusOK, srv.upload(id, "files", "a.png", pngBytes(t, 2)).Code)

	rec := srv.post("/api/sessions/" + id + "/generate")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "image_staged", body.Phase)
	assert.Contains(t, body.Error, "quota exceeded")
	assert.NotNil(t, body.Image)
	assert.Empty(t, body.History)

	// retry succeeds with the same staged image
	rec = srv.post("/api/sessions/" + id + "/generate")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reviewing", decode(t, rec).Phase)
}

func TestInvalidActions(t *testing.T) {
	srv := newTestServer(t, &scriptedGenerator{}, 0)
	id := srv.createSession()
	base := "/api/sessions/" + id

	for _, path := range []string{"/generate", "/regenerate", "/new-image", "/copy/1"} {
		rec := srv.post(base + path)
		assert.Equal(t, http.StatusConflict, rec.Code, path)
	}

	rec := srv.get("/api/sessions/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = srv.post("/api/sessions/nope/generate")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadValidation(t *testing.T) {
	srv := newTestServer(t, &scriptedGenerator{}, 1024)
	id := srv.createSession()

	rec := srv.upload(id, "file", "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = srv.upload(id, "file", "empty.png", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.upload(id, "file", "big.png", bytes.Repeat([]byte{1}, 2048))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = srv.upload(id, "other", "a.png", pngBytes(t, 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, "awaiting_upload", decode(t, srv.get("/api/sessions/"+id)).Phase)
}

func TestHistoryExport(t *testing.T) {
	srv := newTestServer(t, &scriptedGenerator{}, 0)
	id := srv.createSession()
	base := "/api/sessions/" + id

	require.Equal(t, http.StatusOK, srv.upload(id, "file", "a.png", pngBytes(t, 2)).Code)
	require.Equal(t, http.StatusOK, srv.post(base+"/generate").Code)

	rec := srv.get(base + "/history?format=yaml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))

	var doc export.HistoryDocument
	require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "gemini", doc.Config.Provider)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, replyText, doc.Entries[0].RawText)
	assert.Len(t, doc.Entries[0].Candidates, 4)

	rec = srv.get(base + "/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"number":1`)

	rec = srv.get(base + "/history?format=xml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionListAndDelete(t *testing.T) {
	srv := newTestServer(t, &scriptedGenerator{}, 0)
	id := srv.createSession()

	rec := srv.get("/api/sessions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)

	rec = srv.do(httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusNotFound, srv.get("/api/sessions/"+id).Code)
}

func TestHealthcheckAndCORS(t *testing.T) {
	srv := newTestServer(t, &scriptedGenerator{}, 0)

	rec := srv.get("/healthcheck")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	req.Header.Set("Origin", "http://example.com")
	rec = srv.do(req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "OK"))
}
