package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/captionkit/captioner/internal/models"
)

// HandleImage serves the currently staged image.
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	_, controller, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	img, ok := controller.Image()
	if !ok {
		h.writeError(w, "No image staged", http.StatusNotFound)
		return
	}
	serveImage(w, r, img, time.Time{})
}

// HandleHistoryImage serves the image of history entry {number}, counted
// from 1 in insertion order.
func (h *Handler) HandleHistoryImage(w http.ResponseWriter, r *http.Request) {
	_, controller, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	number, err := strconv.Atoi(mux.Vars(r)["number"])
	if err != nil {
		h.writeError(w, "Invalid history number", http.StatusBadRequest)
		return
	}
	entry, ok := controller.HistoryEntry(number)
	if !ok {
		h.writeError(w, "History entry not found", http.StatusNotFound)
		return
	}
	serveImage(w, r, entry.Image, entry.CreatedAt)
}

func serveImage(w http.ResponseWriter, r *http.Request, img models.Image, modTime time.Time) {
	w.Header().Set("Content-Type", img.MIMEType())
	w.Header().Set("ETag", `"`+img.Checksum()+`"`)
	http.ServeContent(w, r, img.Filename(), modTime, bytes.NewReader(img.Data()))
}
