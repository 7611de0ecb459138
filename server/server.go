// Package server exposes the analyzer and the gallery over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"shipscore/models"
	"shipscore/storage"
	"shipscore/utils"
)

// Analyzer scores the app behind a storefront URL.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string) (*models.AnalysisResult, error)
}

// Gallery is the read side of the gallery store.
type Gallery interface {
	FindByAppID(ctx context.Context, appID string) (*models.GalleryEntry, error)
	FindBySlug(ctx context.Context, slug string) (*models.GalleryEntry, error)
	List(ctx context.Context) ([]*models.GalleryEntry, error)
}

var _ Gallery = (storage.GalleryStore)(nil)

// Server is the HTTP front end.
type Server struct {
	analyzer Analyzer
	gallery  Gallery
	logger   *utils.Logger
	http     *http.Server
}

// New builds a Server listening on addr.
func New(addr string, analyzer Analyzer, gallery Gallery, logger *utils.Logger) *Server {
	s := &Server{
		analyzer: analyzer,
		gallery:  gallery,
		logger:   logger,
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// analyze may wait on two storefront fetches plus a headless render
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/gallery", s.handleGallery)
	mux.HandleFunc("GET /api/report/{slug}", s.handleReport)
	mux.HandleFunc("GET /api/badge/{appId}", s.handleBadge)
	mux.HandleFunc("GET /sitemap.xml", s.handleSitemap)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	var h http.Handler = mux
	h = CORS(h)
	h = Recover(s.logger, h)
	h = RequestLog(s.logger, h)
	return h
}

// ListenAndServe blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.logger.Info("[server] listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
