package handlers

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/captionkit/captioner/internal/export"
)

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, controller := h.sessionStore.Create()
	h.writeJSONStatus(w, http.StatusCreated, newSessionResponse(sessionID, controller.View()))
}

func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	ids := h.sessionStore.IDs()
	sort.Strings(ids)
	h.writeJSON(w, map[string]any{"sessions": ids})
}

func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	sessionID, controller, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, newSessionResponse(sessionID, controller.View()))
}

func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID, _, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	h.sessionStore.Delete(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	sessionID, controller, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	// A dropped connection must not cancel the model call; only the
	// configured request timeout does.
	v, err := controller.Generate(context.WithoutCancel(r.Context()))
	h.writeActionResult(w, sessionID, v, err)
}

func (h *Handler) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	sessionID, controller, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	v, err := controller.Regenerate()
	h.writeActionResult(w, sessionID, v, err)
}

func (h *Handler) HandleNewImage(w http.ResponseWriter, r *http.Request) {
	sessionID, controller, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	v, err := controller.NewImage()
	h.writeActionResult(w, sessionID, v, err)
}

// HandleCopy copies the candidate numbered as displayed, starting at 1.
func (h *Handler) HandleCopy(w http.ResponseWriter, r *http.Request) {
	sessionID, controller, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || index < 1 {
		h.writeError(w, "Invalid caption index", http.StatusBadRequest)
		return
	}
	v, err := controller.Copy(index - 1)
	h.writeActionResult(w, sessionID, v, err)
}

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	sessionID, controller, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, newSessionResponse(sessionID, controller.Reset()))
}

// HandleHistory returns the history newest first, or a YAML export in
// insertion order with ?format=yaml.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID, controller, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		h.writeJSON(w, map[string]any{
			"session_id": sessionID,
			"history":    controller.View().History,
		})
	case "yaml":
		doc := export.NewHistoryDocument(h.exportMeta, controller.History(), time.Now())
		w.Header().Set("Content-Type", "application/yaml")
		w.Header().Set("Content-Disposition", `attachment; filename="caption-history.yaml"`)
		if err := export.WriteYAML(w, doc); err != nil {
			h.writeError(w, err.Error(), http.StatusInternalServerError)
		}
	default:
		h.writeError(w, "Invalid format. Must be 'json' or 'yaml'", http.StatusBadRequest)
	}
}
