// Package memory orchestrates creating and loading time-locked memories.
package memory

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kimhsiao/timecapsule/internal/collage"
	"github.com/kimhsiao/timecapsule/internal/config"
	"github.com/kimhsiao/timecapsule/internal/emotion"
	"github.com/kimhsiao/timecapsule/internal/errors"
	"github.com/kimhsiao/timecapsule/internal/logging"
	"github.com/kimhsiao/timecapsule/internal/media"
	"github.com/kimhsiao/timecapsule/internal/models"
	"github.com/kimhsiao/timecapsule/internal/storage"
	"github.com/kimhsiao/timecapsule/internal/uuid"
)

// Photo is one uploaded photo, fully buffered.
type Photo struct {
	Filename string
	Data     []byte
}

// CreateRequest carries the submitted form.
type CreateRequest struct {
	Text       string
	UnlockDate string
	Photos     []Photo
}

// Config holds configuration for the memory service.
type Config struct {
	// Maximum photos per memory; 0 means unlimited
	MaxPhotos int

	// Concurrent photo uploads
	UploadConcurrency int

	// Deadline for a whole creation; 0 disables it
	Timeout time.Duration

	// Delete already written objects when creation fails
	RollbackOnFailure bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxPhotos:         50,
		UploadConcurrency: 4,
		Timeout:           120 * time.Second,
		RollbackOnFailure: true,
	}
}

// ConfigFrom converts the file/env configuration section.
func ConfigFrom(cfg config.MemoryConfig) *Config {
	return &Config{
		MaxPhotos:         cfg.MaxPhotos,
		UploadConcurrency: cfg.UploadConcurrency,
		Timeout:           time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		RollbackOnFailure: cfg.RollbackOnFailure,
	}
}

// Validation failures returned by Create.
var (
	ErrMissingFields = errors.New(errors.ErrValidation, "missing text or unlock date")
	ErrTooManyPhotos = errors.New(errors.ErrValidation, "too many photos")
	ErrInvalidPhoto  = errors.New(errors.ErrValidation, "unsupported photo")
)

// rollbackTimeout bounds cleanup after the request context is gone.
const rollbackTimeout = 30 * time.Second

// Service creates and loads memories.
type Service struct {
	store      storage.Store
	classifier *emotion.Classifier
	composer   *collage.Composer
	config     *Config

	newID func() string
	now   func() time.Time

	// Event callbacks for WebSocket notifications
	onCreated func(memory *models.Memory)
	onFailed  func(memoryID string, err error)

	mu sync.RWMutex
}

// NewService creates a new Service.
func NewService(store storage.Store, classifier *emotion.Classifier, composer *collage.Composer, cfg *Config) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.UploadConcurrency < 1 {
		cfg.UploadConcurrency = 1
	}
	if composer == nil {
		composer = collage.NewComposer(collage.DefaultCellSize, collage.DefaultBorder)
	}

	return &Service{
		store:      store,
		classifier: classifier,
		composer:   composer,
		config:     cfg,
		newID:      uuid.New,
		now:        time.Now,
	}
}

// SetEventHandlers sets callbacks for creation events.
func (s *Service) SetEventHandlers(onCreated func(*models.Memory), onFailed func(string, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCreated = onCreated
	s.onFailed = onFailed
}

// Create validates the request, stores the photos, collage and metadata
// and returns the stored record.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Memory, error) {
	if req.Text == "" || req.UnlockDate == "" {
		return nil, ErrMissingFields
	}
	if s.config.MaxPhotos > 0 && len(req.Photos) > s.config.MaxPhotos {
		logging.Warn("Rejected memory with too many photos", map[string]interface{}{
			"photos":     len(req.Photos),
			"max_photos": s.config.MaxPhotos,
		})
		return nil, ErrTooManyPhotos
	}
	if err := validatePhotos(req.Photos); err != nil {
		logging.Warn("Rejected memory with unsupported photo", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	id := s.newID()
	written := &writeLog{}

	memory, err := s.create(ctx, id, req, written)
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = errors.Wrap(errors.ErrTimeout, "memory creation timed out", err)
		}

		logging.Error("Failed to create memory", err, map[string]interface{}{
			"memory_id": id,
			"code":      string(errors.CodeOf(err)),
			"photos":    len(req.Photos),
			"written":   written.len(),
		})

		if s.config.RollbackOnFailure {
			s.rollback(ctx, id, written.list())
		}
		s.notifyFailed(id, err)
		return nil, err
	}

	logging.Info("Memory created", map[string]interface{}{
		"memory_id": id,
		"emotion":   string(memory.EmotionData.Emotion),
		"photos":    len(memory.ImageURLs),
	})
	s.notifyCreated(memory)

	return memory, nil
}

func (s *Service) create(ctx context.Context, id string, req CreateRequest, written *writeLog) (*models.Memory, error) {
	imageURLs, err := s.uploadPhotos(ctx, id, req.Photos, written)
	if err != nil {
		return nil, err
	}

	emotionData, score := s.classifier.Analyze(req.Text)
	logging.Debug("Classified memory text", map[string]interface{}{
		"memory_id": id,
		"score":     score,
		"emotion":   string(emotionData.Emotion),
	})

	memory := &models.Memory{
		ID:          id,
		Text:        req.Text,
		UnlockDate:  req.UnlockDate,
		EmotionData: emotionData,
		ImageURLs:   imageURLs,
		CreatedAt:   s.now().UTC(),
	}

	if len(req.Photos) > 0 {
		background, err := collage.ParseHexColor(memory.EmotionData.Color)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInternal, "invalid theme color", err)
		}

		images := make([][]byte, len(req.Photos))
		for i, p := range req.Photos {
			images[i] = p.Data
		}

		png, err := s.composer.Compose(images, background)
		if err != nil {
			return nil, errors.Wrap(errors.ErrComposition, "failed to compose collage", err)
		}

		memory.CollageURL, err = s.put(ctx, written, storage.CollageKey(id), png, "image/png")
		if err != nil {
			return nil, err
		}
	}

	doc, err := json.Marshal(memory)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "failed to encode metadata", err)
	}
	if _, err := s.put(ctx, written, storage.MetadataKey(id), doc, "application/json"); err != nil {
		return nil, err
	}

	return memory, nil
}

// validatePhotos rejects parts that are not decodable images before
// anything is written.
func validatePhotos(photos []Photo) error {
	for i, p := range photos {
		info := media.Detect(p.Data, p.Filename)
		if !info.IsImage() {
			return fmt.Errorf("photo %d has type %s: %w", i, info.ContentType, ErrInvalidPhoto)
		}
		if _, err := media.Inspect(p.Data); err != nil {
			return fmt.Errorf("photo %d (%v): %w", i, err, ErrInvalidPhoto)
		}
	}
	return nil
}

// uploadPhotos stores photos over a bounded pool. URLs are collected by
// index, so the result keeps input order regardless of completion order.
func (s *Service) uploadPhotos(ctx context.Context, id string, photos []Photo, written *writeLog) ([]string, error) {
	urls := make([]string, len(photos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.UploadConcurrency)

	for i, photo := range photos {
		g.Go(func() error {
			info := media.Detect(photo.Data, photo.Filename)
			url, err := s.put(gctx, written, storage.PhotoKey(id, i, info.Extension), photo.Data, info.ContentType)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// put records the key before writing so a partial write is still rolled back.
func (s *Service) put(ctx context.Context, written *writeLog, key string, data []byte, contentType string) (string, error) {
	written.add(key)
	url, err := s.store.Put(ctx, key, data, contentType)
	if err != nil {
		return "", errors.Wrap(errors.ErrUpstreamWrite, "failed to store "+key, err)
	}
	return url, nil
}

// rollback deletes keys best-effort. Failures are logged, never returned.
func (s *Service) rollback(ctx context.Context, id string, keys []string) {
	if len(keys) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	failed := 0
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			failed++
			logging.Warn("Rollback delete failed", map[string]interface{}{
				"memory_id": id,
				"key":       key,
				"error":     err.Error(),
			})
		}
	}

	logging.Info("Rolled back memory", map[string]interface{}{
		"memory_id": id,
		"deleted":   len(keys) - failed,
		"failed":    failed,
	})
}

// Get loads a memory by id. Every failure is reported as NOT_FOUND; the
// underlying cause is logged and available through errors.CauseOf.
func (s *Service) Get(ctx context.Context, id string) (*models.Memory, error) {
	normalized, err := uuid.Normalize(id)
	if err != nil {
		return nil, s.lookupFailed(errors.NotFound(errors.CauseMissing, id, err))
	}

	key := storage.MetadataKey(normalized)
	data, err := s.store.Get(ctx, key)
	if err != nil {
		cause := errors.CauseTransientFetch
		if stderrors.Is(err, storage.ErrObjectNotFound) {
			cause = errors.CauseMissing
		}
		return nil, s.lookupFailed(errors.NotFound(cause, key, err))
	}

	var memory models.Memory
	if err := json.Unmarshal(data, &memory); err != nil {
		return nil, s.lookupFailed(errors.NotFound(errors.CauseMalformedDocument, key, err))
	}
	if memory.ID == "" {
		return nil, s.lookupFailed(errors.NotFound(errors.CauseMalformedDocument, key, fmt.Errorf("metadata has no id")))
	}
	if memory.ImageURLs == nil {
		memory.ImageURLs = []string{}
	}

	return &memory, nil
}

func (s *Service) lookupFailed(err error) error {
	logging.Warn("Memory lookup failed", map[string]interface{}{
		"cause": string(errors.CauseOf(err)),
		"error": err.Error(),
	})
	return err
}

func (s *Service) notifyCreated(memory *models.Memory) {
	s.mu.RLock()
	fn := s.onCreated
	s.mu.RUnlock()
	if fn != nil {
		fn(memory)
	}
}

func (s *Service) notifyFailed(id string, err error) {
	s.mu.RLock()
	fn := s.onFailed
	s.mu.RUnlock()
	if fn != nil {
		fn(id, err)
	}
}

// writeLog tracks keys written during one creation.
type writeLog struct {
	mu   sync.Mutex
	keys []string
}

func (w *writeLog) add(key string) {
	w.mu.Lock()
	w.keys = append(w.keys, key)
	w.mu.Unlock()
}

func (w *writeLog) list() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.keys...)
}

func (w *writeLog) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.keys)
}
