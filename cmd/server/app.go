package main

import (
	"fmt"
	"net/http"

	"github.com/kimhsiao/timecapsule/cmd/server/handlers"
	"github.com/kimhsiao/timecapsule/internal/collage"
	"github.com/kimhsiao/timecapsule/internal/config"
	"github.com/kimhsiao/timecapsule/internal/emotion"
	"github.com/kimhsiao/timecapsule/internal/memory"
	"github.com/kimhsiao/timecapsule/internal/storage"
)

// app holds the long-lived dependencies of the server.
type app struct {
	cfg     *config.Config
	store   storage.Store
	service *memory.Service
	hub     *WSHub
}

// newApp wires storage, analysis and composition from cfg.
func newApp(cfg *config.Config, scorer emotion.Scorer) (*app, error) {
	store, err := storage.New(cfg.Storage, cfg.Server.PublicURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	service := memory.NewService(
		store,
		emotion.NewClassifier(scorer),
		collage.NewComposer(cfg.Collage.CellSize, cfg.Collage.Border),
		memory.ConfigFrom(cfg.Memory),
	)

	hub := NewWSHub(cfg.Server.AllowedOrigins)
	service.SetEventHandlers(hub.BroadcastMemoryCreated, hub.BroadcastMemoryFailed)

	return &app{cfg: cfg, store: store, service: service, hub: hub}, nil
}

// routes builds the HTTP handler tree.
func (a *app) routes() (http.Handler, error) {
	pages, err := handlers.NewPageHandler()
	if err != nil {
		return nil, err
	}
	memories := handlers.NewMemoryHandler(a.service, int64(a.cfg.Server.MaxUploadMB)<<20)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health)

	// Memory routes
	mux.HandleFunc("POST /create-memory", memories.CreateMemory)
	mux.HandleFunc("GET /get-memory/{id}", memories.GetMemory)

	// Pages
	mux.HandleFunc("GET /{$}", pages.Index)
	mux.HandleFunc("GET /memory/{id}", pages.Memory)

	// Objects of local providers are served by this process
	if a.cfg.Storage.IsLocal() {
		mux.HandleFunc("GET /files/{key...}", handlers.NewFileHandler(a.store).ServeFile)
	}

	mux.HandleFunc("GET /ws", HandleWebSocket(a.hub))

	return handlers.RequestLogger(handlers.CORS(a.cfg.Server.AllowedOrigins)(mux)), nil
}

// Close releases the hub and the store.
func (a *app) Close() error {
	a.hub.Close()
	return a.store.Close()
}
