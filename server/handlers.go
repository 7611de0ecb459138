package server

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"shipscore/models"
	"shipscore/services"
	"shipscore/storage"
)

const (
	msgMissingURL   = "Please provide an App Store or Google Play URL"
	msgBadAppStore  = "Could not extract app ID from URL. Use format: https://apps.apple.com/us/app/name/id123456789"
	msgBadPlayStore = "Could not extract package name from URL. Use format: https://play.google.com/store/apps/details?id=com.example.app"
	msgNotFound     = "App not found. Check the URL and try again."
	msgInternal     = "Internal server error"
	msgNoReport     = "Report not found"

	maxBodyBytes = 64 << 10
)

var tracer = otel.Tracer("shipscore/server")

// upstreamMessages are the 502 texts, per storefront.
var upstreamMessages = map[models.Platform]string{
	models.PlatformAppStore:   "Failed to fetch app data from App Store",
	models.PlatformGooglePlay: "Failed to fetch app data from Google Play",
}

type analyzeRequest struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || json.Unmarshal(body, &req) != nil || strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, msgMissingURL)
		return
	}

	ctx, span := tracer.Start(r.Context(), "POST /api/analyze", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	result, err := s.analyzer.Analyze(ctx, req.URL)
	if err != nil {
		status, msg := classify(err, req.URL)
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			s.logger.Error("[server] analyze %q: %v", req.URL, err)
		} else {
			s.logger.Info("[server] analyze %q: %v", req.URL, err)
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// classify maps an analyze error to its HTTP status and user-facing message.
func classify(err error, rawURL string) (int, string) {
	var upstream *services.UpstreamError
	switch {
	case errors.Is(err, services.ErrInvalidURL):
		if strings.Contains(rawURL, "play.google.com") {
			return http.StatusBadRequest, msgBadPlayStore
		}
		return http.StatusBadRequest, msgBadAppStore
	case errors.Is(err, services.ErrAppNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.As(err, &upstream):
		if msg, ok := upstreamMessages[upstream.Platform]; ok {
			return http.StatusBadGateway, msg
		}
		return http.StatusBadGateway, msgInternal
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	entries, err := s.gallery.List(r.Context())
	if err != nil {
		s.logger.Error("[server] list gallery: %v", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	entry, err := s.gallery.FindBySlug(r.Context(), r.PathValue("slug"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNoReport)
		return
	}
	if err != nil {
		s.logger.Error("[server] report %q: %v", r.PathValue("slug"), err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleBadge(w http.ResponseWriter, r *http.Request) {
	entry, err := s.gallery.FindByAppID(r.Context(), r.PathValue("appId"))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("[server] badge %q: %v", r.PathValue("appId"), err)
		}
		entry = nil
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, renderBadge(entry))
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	entries, err := s.gallery.List(r.Context())
	if err != nil {
		s.logger.Error("[server] sitemap: %v", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	base := requestOrigin(r)
	set := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{{
			Loc:        base + "/",
			LastMod:    time.Now().UTC().Format(time.RFC3339),
			ChangeFreq: "daily",
			Priority:   "1.0",
		}},
	}
	for _, e := range entries {
		u := sitemapURL{
			Loc:        base + "/report/" + e.Slug,
			ChangeFreq: "monthly",
			Priority:   "0.8",
		}
		if !e.ScannedAt.IsZero() {
			u.LastMod = e.ScannedAt.UTC().Format(time.RFC3339)
		}
		set.URLs = append(set.URLs, u)
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, xml.Header)
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		s.logger.Warn("[server] sitemap encode: %v", err)
	}
}

// requestOrigin rebuilds scheme://host, honouring a proxy's X-Forwarded-Proto.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + r.Host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
