package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/kimhsiao/timecapsule/internal/logging"
	"github.com/kimhsiao/timecapsule/internal/media"
	"github.com/kimhsiao/timecapsule/internal/storage"
)

// FileHandler serves objects of locally hosted stores.
type FileHandler struct {
	store storage.Store
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(store storage.Store) *FileHandler {
	return &FileHandler{store: store}
}

// ServeFile handles GET /files/{key...}
func (h *FileHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := storage.ValidateKey(key); err != nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	data, err := h.store.Get(r.Context(), key)
	if err != nil {
		if !stderrors.Is(err, storage.ErrObjectNotFound) {
			logging.Error("Failed to read stored object", err, map[string]interface{}{"key": key})
		}
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	info := media.Detect(data, key)
	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	// Objects are written once and never change.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
