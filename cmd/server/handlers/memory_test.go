// Package handlers tests for the memory endpoints.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimhsiao/timecapsule/internal/collage"
	"github.com/kimhsiao/timecapsule/internal/emotion"
	"github.com/kimhsiao/timecapsule/internal/errors"
	"github.com/kimhsiao/timecapsule/internal/logging"
	"github.com/kimhsiao/timecapsule/internal/memory"
	"github.com/kimhsiao/timecapsule/internal/models"
	"github.com/kimhsiao/timecapsule/internal/storage"
)

type fixedScorer float64

func (f fixedScorer) Compound(string) float64 { return float64(f) }

// setupMemoryHandler wires a real service over a filesystem store.
func setupMemoryHandler(t *testing.T) (*MemoryHandler, *storage.FileStore) {
	t.Helper()
	logging.Init(io.Discard, logging.LevelInfo)

	store, err := storage.NewFileStore(t.TempDir(), "http://localhost:5001")
	require.NoError(t, err)

	cfg := memory.DefaultConfig()
	cfg.MaxPhotos = 3
	svc := memory.NewService(store, emotion.NewClassifier(fixedScorer(0.8)), collage.NewComposer(0, -1), cfg)

	return NewMemoryHandler(svc, 1<<20), store
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{0, 128, 255, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type formFile struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, fields map[string]string, files []formFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		fw.Write(f.data)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/create-memory", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestCreateMemory_multipart(t *testing.T) {
	handler, _ := setupMemoryHandler(t)

	req := multipartRequest(t,
		map[string]string{"memoryText": "Graduation day!", "unlockDate": "2030-06-01"},
		[]formFile{
			{"photos", "a.png", testPNG(t)},
			{"photos[]", "b.png", testPNG(t)},
			{"photos", "", nil}, // empty file input
		})
	w := httptest.NewRecorder()
	handler.CreateMemory(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	id, ok := body["memoryId"].(string)
	require.True(t, ok)

	getReq := httptest.NewRequest(http.MethodGet, "/get-memory/"+id, nil)
	getReq.SetPathValue("id", id)
	w = httptest.NewRecorder()
	handler.GetMemory(w, getReq)

	require.Equal(t, http.StatusOK, w.Code)
	var m models.Memory
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, "Graduation day!", m.Text)
	assert.Equal(t, "2030-06-01", m.UnlockDate)
	assert.Equal(t, models.EmotionJoyful, m.EmotionData.Emotion)
	assert.Len(t, m.ImageURLs, 2)
	assert.Equal(t, "http://localhost:5001/files/"+storage.CollageKey(id), m.CollageURL)
}

func TestCreateMemory_urlencoded(t *testing.T) {
	handler, _ := setupMemoryHandler(t)

	form := url.Values{"memoryText": {"Just text"}, "unlockDate": {"2029-01-01"}}
	req := httptest.NewRequest(http.MethodPost, "/create-memory", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	handler.CreateMemory(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decodeBody(t, w)["memoryId"])
}

func TestCreateMemory_errors(t *testing.T) {
	tests := []struct {
		name       string
		fields     map[string]string
		photos     int
		wantStatus int
		wantError  string
	}{
		{"missing text", map[string]string{"unlockDate": "2030-01-01"}, 0, http.StatusBadRequest, "Missing text or unlock date"},
		{"missing unlock date", map[string]string{"memoryText": "hi"}, 0, http.StatusBadRequest, "Missing text or unlock date"},
		{"too many photos", map[string]string{"memoryText": "hi", "unlockDate": "2030-01-01"}, 4, http.StatusBadRequest, "Too many photos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, store := setupMemoryHandler(t)

			var files []formFile
			for i := 0; i < tt.photos; i++ {
				files = append(files, formFile{"photos", fmt.Sprintf("%d.png", i), testPNG(t)})
			}
			w := httptest.NewRecorder()
			handler.CreateMemory(w, multipartRequest(t, tt.fields, files))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantError, decodeBody(t, w)["error"])

			entries, _ := readDirNames(store.BaseDir())
			assert.Empty(t, entries, "nothing may be written on validation failure")
		})
	}
}

func TestCreateMemory_unsupportedPhoto(t *testing.T) {
	handler, store := setupMemoryHandler(t)

	req := multipartRequest(t,
		map[string]string{"memoryText": "hi", "unlockDate": "2030-01-01"},
		[]formFile{
			{"photos", "a.png", testPNG(t)},
			{"photos", "notes.pdf", []byte("%PDF-1.4 not a photo")},
		})
	w := httptest.NewRecorder()
	handler.CreateMemory(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unsupported photo format", decodeBody(t, w)["error"])

	entries, _ := readDirNames(store.BaseDir())
	assert.Empty(t, entries, "nothing may be written for a rejected photo")
}

func TestCreateMemory_tooLarge(t *testing.T) {
	handler, _ := setupMemoryHandler(t)

	big := bytes.Repeat([]byte{0xff}, 2<<20)
	req := multipartRequest(t,
		map[string]string{"memoryText": "hi", "unlockDate": "2030-01-01"},
		[]formFile{{"photos", "big.png", big}})
	w := httptest.NewRecorder()
	handler.CreateMemory(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "Upload too large", decodeBody(t, w)["error"])
}

// stubService returns canned results.
type stubService struct {
	createErr error
	getErr    error
}

func (s *stubService) Create(ctx context.Context, req memory.CreateRequest) (*models.Memory, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &models.Memory{ID: "id"}, nil
}

func (s *stubService) Get(ctx context.Context, id string) (*models.Memory, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &models.Memory{ID: id, ImageURLs: []string{}}, nil
}

func TestCreateMemory_serverError(t *testing.T) {
	logging.Init(io.Discard, logging.LevelInfo)
	codes := []errors.ErrorCode{errors.ErrUpstreamWrite, errors.ErrComposition, errors.ErrTimeout, errors.ErrInternal}

	for _, code := range codes {
		t.Run(string(code), func(t *testing.T) {
			handler := NewMemoryHandler(&stubService{createErr: errors.New(code, "boom")}, 0)

			w := httptest.NewRecorder()
			handler.CreateMemory(w, multipartRequest(t, map[string]string{"memoryText": "a", "unlockDate": "b"}, nil))

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, "Failed to create memory", body["error"])
			assert.NotContains(t, w.Body.String(), "boom")
		})
	}
}

func TestGetMemory_notFound(t *testing.T) {
	causes := []errors.LookupCause{errors.CauseMissing, errors.CauseTransientFetch, errors.CauseMalformedDocument}

	for _, cause := range causes {
		t.Run(string(cause), func(t *testing.T) {
			handler := NewMemoryHandler(&stubService{getErr: errors.NotFound(cause, "k", nil)}, 0)

			req := httptest.NewRequest(http.MethodGet, "/get-memory/x", nil)
			req.SetPathValue("id", "x")
			w := httptest.NewRecorder()
			handler.GetMemory(w, req)

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, "Memory not found or could not be loaded", decodeBody(t, w)["error"])
		})
	}
}

func TestGetMemory_unknownID(t *testing.T) {
	handler, _ := setupMemoryHandler(t)

	for _, id := range []string{"0b9e3c4a-8d1f-4e2b-9a6c-1f2e3d4c5b6a", "not-a-uuid", "..%2F..%2Fetc"} {
		req := httptest.NewRequest(http.MethodGet, "/get-memory/x", nil)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		handler.GetMemory(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code, id)
	}
}
