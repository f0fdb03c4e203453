package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimhsiao/timecapsule/internal/logging"
	"github.com/kimhsiao/timecapsule/internal/storage"
)

func TestFileHandler_ServeFile(t *testing.T) {
	logging.Init(io.Discard, logging.LevelInfo)
	store, err := storage.NewFileStore(t.TempDir(), "http://localhost:5001")
	require.NoError(t, err)

	photo := testPNG(t)
	_, err = store.Put(context.Background(), "memories/abc/photo-0.png", photo, "image/png")
	require.NoError(t, err)
	_, err = store.Put(context.Background(), "memories/abc/metadata", []byte(`{"id":"abc"}`), "application/json")
	require.NoError(t, err)

	h := NewFileHandler(store)

	tests := []struct {
		name       string
		key        string
		wantStatus int
		wantType   string
	}{
		{"photo", "memories/abc/photo-0.png", http.StatusOK, "image/png"},
		{"metadata", "memories/abc/metadata", http.StatusOK, "application/json"},
		{"missing", "memories/abc/collage", http.StatusNotFound, "application/json"},
		{"traversal", "../secret", http.StatusNotFound, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/files/x", nil)
			req.SetPathValue("key", tt.key)
			w := httptest.NewRecorder()
			h.ServeFile(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), tt.wantType)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/files/x", nil)
	req.SetPathValue("key", "memories/abc/photo-0.png")
	w := httptest.NewRecorder()
	h.ServeFile(w, req)
	assert.Equal(t, photo, w.Body.Bytes())
}
