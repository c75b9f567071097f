package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	sessionID, controller, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	// Leave room for multipart headers around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1024*1024)

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		file, header, err = r.FormFile("files")
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, h.tooLargeMessage(), http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	fileData, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if int64(len(fileData)) > h.maxUploadBytes {
		h.writeError(w, h.tooLargeMessage(), http.StatusRequestEntityTooLarge)
		return
	}

	img, err := processImageFile(fileData, header.Filename)
	if err != nil {
		h.writeActionResult(w, sessionID, controller.View(), err)
		return
	}

	v, err := controller.Upload(img)
	if err == nil {
		slog.Info("Image staged", "session_id", sessionID, "filename", header.Filename, "format", img.Format(), "size", len(fileData))
	}
	h.writeActionResult(w, sessionID, v, err)
}

func (h *Handler) tooLargeMessage() string {
	return fmt.Sprintf("File too large (max %dMB)", h.maxUploadBytes/1024/1024)
}
