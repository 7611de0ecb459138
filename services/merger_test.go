package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipscore/models"
)

func ptr[T any](v T) *T { return &v }

func apiRecord() *models.AppRecord {
	return &models.AppRecord{
		AppID:              "123",
		Platform:           models.PlatformAppStore,
		TrackName:          "Focus Timer Pro",
		ArtistName:         "Acme Labs",
		Description:        "From the API.",
		Price:              0,
		FormattedPrice:     "Free",
		AverageUserRating:  4.2,
		UserRatingCount:    500,
		ScreenshotURLs:     []string{"a", "b", "c"},
		IPadScreenshotURLs: []string{"t1"},
		Genres:             []string{"Productivity"},
		ReleaseNotes:       "Bug fixes.",
		Version:            "2.0",
		Source:             models.SourceAPI,
	}
}

func TestMergeBothNil(t *testing.T) {
	assert.Nil(t, Merge(nil, nil))
}

func TestMergeAPIOnly(t *testing.T) {
	api := apiRecord()
	api.Source = ""

	got := Merge(nil, api)
	require.NotNil(t, got)
	assert.Equal(t, models.SourceAPI, got.Source)
	assert.Equal(t, api.TrackName, got.TrackName)
}

func TestMergePageOnlyFillsDefaults(t *testing.T) {
	page := &models.PageRecord{
		TrackName:     ptr("Focus Timer Pro"),
		PrivacyLabels: []string{"Data Not Collected"},
	}

	got := Merge(page, nil)
	want := &models.AppRecord{
		TrackName:          "Focus Timer Pro",
		ScreenshotURLs:     []string{},
		IPadScreenshotURLs: []string{},
		Genres:             []string{},
		Advisories:         []string{},
		SupportedDevices:   []string{},
		LanguageCodes:      []string{},
		PrivacyLabels:      []string{"Data Not Collected"},
		Source:             models.SourceScraper,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge(page, nil) mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeKeepsAPIUnconditionalFields(t *testing.T) {
	api := apiRecord()
	page := &models.PageRecord{
		TrackName:         ptr("Page Title"),
		ArtistName:        ptr("Page Dev"),
		Description:       ptr("From the page, much longer than the API description."),
		AverageUserRating: ptr(1.0),
		UserRatingCount:   ptr(int64(9)),
		Version:           ptr("9.9"),
	}

	got := Merge(page, api)
	require.NotNil(t, got)

	want := *api
	want.Source = models.SourceMerged
	if diff := cmp.Diff(&want, got); diff != "" {
		t.Errorf("page values leaked into API fields (-want +got):\n%s", diff)
	}
}

func TestMergePageScreenshotsWin(t *testing.T) {
	page := &models.PageRecord{
		ScreenshotURLs: []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"},
	}

	got := Merge(page, apiRecord())
	assert.Equal(t, page.ScreenshotURLs, got.ScreenshotURLs)
	assert.Equal(t, []string{"t1"}, got.IPadScreenshotURLs, "tablet list is decided separately")
}

func TestMergeWithoutPageScreenshotsKeepsAPI(t *testing.T) {
	api := &models.AppRecord{
		ScreenshotURLs:    []string{"a", "b"},
		AverageUserRating: 4.2,
		UserRatingCount:   500,
		Price:             0,
	}

	got := Merge(&models.PageRecord{}, api)
	assert.Equal(t, models.SourceMerged, got.Source)
	assert.Equal(t, []string{"a", "b"}, got.ScreenshotURLs)
}

func TestMergeConditionalFields(t *testing.T) {
	api := apiRecord()
	page := &models.PageRecord{
		ReleaseNotes:     ptr("Bug fixes, a new widget and faster sync."),
		SellerURL:        ptr("https://acme.example.com"),
		FileSizeBytes:    ptr(int64(1024)),
		WhatsNew:         ptr("Bug fixes, a new widget and faster sync."),
		PreviewURLs:      []string{"https://v/1.m3u8"},
		RatingsHistogram: map[string]float64{"5": 80},
	}

	got := Merge(page, api)
	assert.Equal(t, *page.ReleaseNotes, got.ReleaseNotes)
	assert.Equal(t, "https://acme.example.com", got.SellerURL)
	assert.Equal(t, models.ByteCount(1024), got.FileSizeBytes)
	assert.Equal(t, *page.WhatsNew, got.WhatsNew)
	assert.Equal(t, page.PreviewURLs, got.PreviewURLs)
	assert.Equal(t, page.RatingsHistogram, got.RatingsHistogram)

	// API values win when present
	api.SellerURL = "https://api.example.com"
	api.FileSizeBytes = 2048
	api.ReleaseNotes = "A much longer set of release notes straight from the lookup API."
	got = Merge(page, api)
	assert.Equal(t, "https://api.example.com", got.SellerURL)
	assert.Equal(t, models.ByteCount(2048), got.FileSizeBytes)
	assert.Equal(t, api.ReleaseNotes, got.ReleaseNotes)
}

func TestMergeDoesNotModifyInputs(t *testing.T) {
	api := apiRecord()
	Merge(&models.PageRecord{ScreenshotURLs: []string{"x"}}, api)
	assert.Equal(t, models.SourceAPI, api.Source)
	assert.Equal(t, []string{"a", "b", "c"}, api.ScreenshotURLs)
}
