package handlers

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/kimhsiao/timecapsule/internal/errors"
	"github.com/kimhsiao/timecapsule/internal/logging"
	"github.com/kimhsiao/timecapsule/internal/memory"
	"github.com/kimhsiao/timecapsule/internal/models"
)

// Error bodies returned to clients.
const (
	msgMissingFields = "Missing text or unlock date"
	msgTooManyPhotos = "Too many photos"
	msgInvalidPhoto  = "Unsupported photo format"
	msgTooLarge      = "Upload too large"
	msgCreateFailed  = "Failed to create memory"
	msgNotFound      = "Memory not found or could not be loaded"
)

// Form field names.
const (
	fieldText       = "memoryText"
	fieldUnlockDate = "unlockDate"
	fieldPhotos     = "photos"
)

// multipartMemory is the part of a multipart form kept in memory; the
// rest spills to temp files until read.
const multipartMemory = 32 << 20

// MemoryService is the subset of memory.Service the handlers need.
type MemoryService interface {
	Create(ctx context.Context, req memory.CreateRequest) (*models.Memory, error)
	Get(ctx context.Context, id string) (*models.Memory, error)
}

// MemoryHandler handles memory creation and lookup.
type MemoryHandler struct {
	service        MemoryService
	maxUploadBytes int64
}

// NewMemoryHandler creates a new MemoryHandler. maxUploadBytes caps the
// request body; 0 disables the cap.
func NewMemoryHandler(service MemoryService, maxUploadBytes int64) *MemoryHandler {
	return &MemoryHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// CreateMemory handles POST /create-memory
func (h *MemoryHandler) CreateMemory(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		if r.ContentLength > h.maxUploadBytes {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	req, err := parseCreateForm(r)
	if err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		logging.Warn("Invalid create form", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusBadRequest, msgMissingFields)
		return
	}

	created, err := h.service.Create(r.Context(), req)
	if err != nil {
		switch {
		case stderrors.Is(err, memory.ErrTooManyPhotos):
			writeError(w, http.StatusBadRequest, msgTooManyPhotos)
		case stderrors.Is(err, memory.ErrInvalidPhoto):
			writeError(w, http.StatusBadRequest, msgInvalidPhoto)
		case errors.Is(err, errors.ErrValidation):
			writeError(w, http.StatusBadRequest, msgMissingFields)
		default:
			writeError(w, http.StatusInternalServerError, msgCreateFailed)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"memoryId": created.ID})
}

// GetMemory handles GET /get-memory/{id}
func (h *MemoryHandler) GetMemory(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// parseCreateForm reads a multipart or urlencoded form. Photos are read
// fully into memory; parts without a filename are skipped.
func parseCreateForm(r *http.Request) (memory.CreateRequest, error) {
	var req memory.CreateRequest

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return req, err
		}
		defer r.MultipartForm.RemoveAll()
	} else if err := r.ParseForm(); err != nil {
		return req, err
	}

	req.Text = r.PostFormValue(fieldText)
	req.UnlockDate = r.PostFormValue(fieldUnlockDate)

	if r.MultipartForm == nil {
		return req, nil
	}

	files := append(r.MultipartForm.File[fieldPhotos], r.MultipartForm.File[fieldPhotos+"[]"]...)
	for _, fh := range files {
		if fh.Filename == "" {
			continue
		}
		data, err := readPart(fh)
		if err != nil {
			return req, fmt.Errorf("failed to read photo %q: %w", fh.Filename, err)
		}
		req.Photos = append(req.Photos, memory.Photo{Filename: fh.Filename, Data: data})
	}

	return req, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// isTooLarge reports whether err came from the body size cap. Multipart
// parsing does not always wrap the underlying error.
func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if stderrors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
