package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dgallion1/manuscript/internal/config"
	"github.com/dgallion1/manuscript/internal/pipeline"
	"github.com/dgallion1/manuscript/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Library is the read side of the novel store used by the handlers.
type Library interface {
	GetNovel(ctx context.Context, id string) (*store.Novel, error)
	ListChapters(ctx context.Context, novelID string) ([]store.Chapter, error)
	LoadChapters(ctx context.Context, novelID string) ([]store.Chapter, error)
	GetChapter(ctx context.Context, novelID, chapterID string) (*store.Chapter, error)
	DeleteNovel(ctx context.Context, id string) error
}

// Server is the HTTP API server for manuscript imports.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	library      Library
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, lib Library, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		library:      lib,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/preview", s.handlePreview)
		r.Post("/api/novels/{novelID}/import", s.handleImport)
		r.Get("/api/import/{jobID}/status", s.handleImportStatus)
		r.Get("/api/stats/imports", s.handleImportStats)

		r.Get("/api/novels/{novelID}", s.handleGetNovel)
		r.Delete("/api/novels/{novelID}", s.handleDeleteNovel)
		r.Get("/api/novels/{novelID}/chapters/{chapterID}", s.handleGetChapter)
		r.Get("/api/novels/{novelID}/export", s.handleExport)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
