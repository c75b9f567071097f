package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/captionkit/captioner/internal/export"
	"github.com/captionkit/captioner/internal/generation"
	"github.com/captionkit/captioner/internal/models"
	"github.com/captionkit/captioner/internal/render"
	"github.com/captionkit/captioner/internal/storage"
	"github.com/captionkit/captioner/internal/workflow"
)

type Handler struct {
	sessionStore   *storage.SessionStore
	maxUploadBytes int64
	exportMeta     export.HistoryMeta
}

type Options struct {
	MaxUploadBytes int64
	// ExportMeta is written into YAML history exports.
	ExportMeta export.HistoryMeta
}

func New(store *storage.SessionStore, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 * 1024 * 1024
	}
	return &Handler{
		sessionStore:   store,
		maxUploadBytes: opts.MaxUploadBytes,
		exportMeta:     opts.ExportMeta,
	}
}

// Routes returns the API router wrapped in CORS handling.
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/sessions").Subrouter()
	api.HandleFunc("", h.HandleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("", h.HandleListSessions).Methods(http.MethodGet)
	api.HandleFunc("/{id}", h.HandleSessionDetail).Methods(http.MethodGet)
	api.HandleFunc("/{id}", h.HandleDeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/upload", h.HandleUpload).Methods(http.MethodPost)
	api.HandleFunc("/{id}/generate", h.HandleGenerate).Methods(http.MethodPost)
	api.HandleFunc("/{id}/regenerate", h.HandleRegenerate).Methods(http.MethodPost)
	api.HandleFunc("/{id}/new-image", h.HandleNewImage).Methods(http.MethodPost)
	api.HandleFunc("/{id}/copy/{index:[0-9]+}", h.HandleCopy).Methods(http.MethodPost)
	api.HandleFunc("/{id}/reset", h.HandleReset).Methods(http.MethodPost)
	api.HandleFunc("/{id}/image", h.HandleImage).Methods(http.MethodGet)
	api.HandleFunc("/{id}/history", h.HandleHistory).Methods(http.MethodGet)
	api.HandleFunc("/{id}/history/{number:[0-9]+}/image", h.HandleHistoryImage).Methods(http.MethodGet)

	r.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

type candidateJSON struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	HTML  string `json:"html"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	workflow.View
	Candidates []candidateJSON `json:"candidates"`
}

func newSessionResponse(sessionID string, v workflow.View) sessionResponse {
	resp := sessionResponse{
		SessionID:  sessionID,
		View:       v,
		Candidates: make([]candidateJSON, 0, len(v.Candidates)),
	}
	for _, c := range v.Candidates {
		html, err := render.Candidate(c.Index, c.Text)
		if err != nil {
			slog.Warn("Failed to render caption", "session_id", sessionID, "index", c.Index, "err", err)
		}
		resp.Candidates = append(resp.Candidates, candidateJSON{Index: c.Index, Text: c.Text, HTML: html})
	}
	return resp
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// writeActionResult reports the outcome of a workflow action. Generation
// failures still return the view so the client can show the staged image.
func (h *Handler) writeActionResult(w http.ResponseWriter, sessionID string, v workflow.View, err error) {
	var genErr *generation.Error
	switch {
	case err == nil:
		h.writeJSON(w, newSessionResponse(sessionID, v))
	case errors.As(err, &genErr):
		slog.Warn("Generation failed", "session_id", sessionID, "reason", genErr.Reason)
		h.writeJSONStatus(w, http.StatusBadGateway, newSessionResponse(sessionID, v))
	case errors.Is(err, workflow.ErrInvalidTransition):
		h.writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, workflow.ErrCandidateOutOfRange):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrEmptyImage):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrUnsupportedFormat):
		h.writeError(w, err.Error(), http.StatusUnsupportedMediaType)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, r *http.Request) (string, *workflow.Controller, bool) {
	sessionID := mux.Vars(r)["id"]
	controller, err := h.sessionStore.Get(sessionID)
	if err != nil {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return sessionID, nil, false
	}
	return sessionID, controller, true
}
