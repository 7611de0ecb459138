package server

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipscore/models"
	"shipscore/services"
	"shipscore/storage"
	"shipscore/utils"
)

type fakeAnalyzer struct {
	result *models.AnalysisResult
	err    error
	panics bool
	got    string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, rawURL string) (*models.AnalysisResult, error) {
	f.got = rawURL
	if f.panics {
		panic("boom")
	}
	return f.result, f.err
}

type fakeGallery struct {
	entries []*models.GalleryEntry
	err     error
}

func (f *fakeGallery) FindByAppID(_ context.Context, appID string) (*models.GalleryEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, e := range f.entries {
		if e.AppID == appID {
			return e, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeGallery) FindBySlug(_ context.Context, slug string) (*models.GalleryEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, e := range f.entries {
		if e.Slug == slug {
			return e, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeGallery) List(context.Context) ([]*models.GalleryEntry, error) {
	return f.entries, f.err
}

func newTestServer(a Analyzer, g Gallery) http.Handler {
	return New(":0", a, g, utils.NewNopLogger()).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorText(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func sampleEntries() []*models.GalleryEntry {
	return []*models.GalleryEntry{
		{AppID: "100", Slug: "focus", AppName: "Focus", OverallScore: 93, Grade: "A+",
			ScannedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{AppID: "com.example.notes", Slug: "notes", AppName: "Notes", OverallScore: 61, Grade: "D",
			Platform: models.PlatformGooglePlay},
	}
}

func TestAnalyzeOK(t *testing.T) {
	a := &fakeAnalyzer{result: &models.AnalysisResult{
		ScoreReport: models.ScoreReport{AppName: "Focus", OverallScore: 80, Grade: "B"},
		AppID:       "100",
		Platform:    models.PlatformAppStore,
		Source:      models.SourceMerged,
	}}
	h := newTestServer(a, &fakeGallery{})

	rec := do(t, h, http.MethodPost, "/api/analyze", `{"url":"https://apps.apple.com/us/app/focus/id100"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://apps.apple.com/us/app/focus/id100", a.got)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Focus", got["appName"])
	assert.Equal(t, float64(80), got["overallScore"])
	assert.Equal(t, "merged", got["source"])
	assert.Equal(t, "app_store", got["platform"])
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		msg    string
	}{
		{"missing url", `{}`, nil, http.StatusBadRequest, msgMissingURL},
		{"bad json", `{"url":`, nil, http.StatusBadRequest, msgMissingURL},
		{"invalid app store url", `{"url":"https://example.com"}`,
			fmt.Errorf("%w: x", services.ErrInvalidURL), http.StatusBadRequest, msgBadAppStore},
		{"invalid play url", `{"url":"https://play.google.com/store/apps"}`,
			fmt.Errorf("%w: x", services.ErrInvalidURL), http.StatusBadRequest, msgBadPlayStore},
		{"not found", `{"url":"123"}`,
			fmt.Errorf("%w: 123", services.ErrAppNotFound), http.StatusNotFound, msgNotFound},
		{"play upstream", `{"url":"https://play.google.com/store/apps/details?id=a.b"}`,
			&services.UpstreamError{Platform: models.PlatformGooglePlay, Err: errors.New("503")},
			http.StatusBadGateway, "Failed to fetch app data from Google Play"},
		{"app store upstream", `{"url":"123"}`,
			&services.UpstreamError{Platform: models.PlatformAppStore, Err: errors.New("503")},
			http.StatusBadGateway, "Failed to fetch app data from App Store"},
		{"unexpected", `{"url":"123"}`, errors.New("disk on fire"), http.StatusInternalServerError, msgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&fakeAnalyzer{err: tt.err}, &fakeGallery{})
			rec := do(t, h, http.MethodPost, "/api/analyze", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, errorText(t, rec))
		})
	}
}

func TestAnalyzePanicRecovered(t *testing.T) {
	h := newTestServer(&fakeAnalyzer{panics: true}, &fakeGallery{})
	rec := do(t, h, http.MethodPost, "/api/analyze", `{"url":"123"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgInternal, errorText(t, rec))
}

func TestGalleryAndReport(t *testing.T) {
	h := newTestServer(&fakeAnalyzer{}, &fakeGallery{entries: sampleEntries()})

	rec := do(t, h, http.MethodGet, "/api/gallery", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.GalleryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "focus", list[0].Slug)

	rec = do(t, h, http.MethodGet, "/api/report/notes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entry models.GalleryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, "com.example.notes", entry.AppID)

	rec = do(t, h, http.MethodGet, "/api/report/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgNoReport, errorText(t, rec))
}

func TestGalleryStoreFailure(t *testing.T) {
	h := newTestServer(&fakeAnalyzer{}, &fakeGallery{err: errors.New("db down")})

	rec := do(t, h, http.MethodGet, "/api/gallery", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/report/focus", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBadge(t *testing.T) {
	h := newTestServer(&fakeAnalyzer{}, &fakeGallery{entries: sampleEntries()})

	rec := do(t, h, http.MethodGet, "/api/badge/100", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "<svg"))
	assert.Contains(t, body, "93/100 (A+)")
	assert.Contains(t, body, "#22c55e")

	rec = do(t, h, http.MethodGet, "/api/badge/com.example.notes", "")
	assert.Contains(t, rec.Body.String(), "61/100 (D)")
	assert.Contains(t, rec.Body.String(), "#ef4444")

	rec = do(t, h, http.MethodGet, "/api/badge/999", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "?/100 (?)")
	assert.Contains(t, rec.Body.String(), "#6366f1")
}

func TestBadgeColors(t *testing.T) {
	tests := map[string]string{
		"A+": "#22c55e", "A": "#22c55e", "B": "#3b82f6", "C": "#eab308", "D": "#ef4444", "F": "#ef4444",
	}
	for grade, want := range tests {
		if got := badgeColor(&models.GalleryEntry{Grade: grade}); got != want {
			t.Errorf("badgeColor(%s) = %s, want %s", grade, got, want)
		}
	}
}

func TestSitemap(t *testing.T) {
	h := newTestServer(&fakeAnalyzer{}, &fakeGallery{entries: sampleEntries()})

	req := httptest.NewRequest(http.MethodGet, "http://shipscore.test/sitemap.xml", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var set urlSet
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &set))
	require.Len(t, set.URLs, 3)
	assert.Equal(t, "https://shipscore.test/", set.URLs[0].Loc)
	assert.Equal(t, "https://shipscore.test/report/focus", set.URLs[1].Loc)
	assert.Equal(t, "2026-03-01T00:00:00Z", set.URLs[1].LastMod)
	assert.Equal(t, "", set.URLs[2].LastMod)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(&fakeAnalyzer{}, &fakeGallery{})
	rec := do(t, h, http.MethodOptions, "/api/analyze", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagated(t *testing.T) {
	h := newTestServer(&fakeAnalyzer{}, &fakeGallery{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}
