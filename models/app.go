package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Platform identifies the storefront an app was found on.
type Platform string

const (
	PlatformAppStore   Platform = "app_store"
	PlatformGooglePlay Platform = "google_play"
)

// Provenance records which source(s) produced a canonical record.
type Provenance string

const (
	SourceScraper Provenance = "scraper"
	SourceAPI     Provenance = "api"
	SourceMerged  Provenance = "merged"
)

// PageRecord holds whatever the storefront page extractor found.
// A nil pointer or nil slice means "not found on page", never "empty".
type PageRecord struct {
	TrackName                 *string
	ArtistName                *string
	ArtworkURL                *string
	Description               *string
	Price                     *float64
	FormattedPrice            *string
	AverageUserRating         *float64
	UserRatingCount           *int64
	ScreenshotURLs            []string
	IPadScreenshotURLs        []string
	Genres                    []string
	PrimaryGenreName          *string
	FileSizeBytes             *int64
	CurrentVersionReleaseDate *string
	ReleaseDate               *string
	Version                   *string
	TrackContentRating        *string
	ContentAdvisoryRating     *string
	SellerURL                 *string
	MinimumOSVersion          *string
	ReleaseNotes              *string
	TrackViewURL              *string

	// Only the page carries these.
	PrivacyLabels    []string
	WhatsNew         *string
	PreviewURLs      []string
	RatingsHistogram map[string]float64
}

// AppRecord is the complete app schema. The lookup API decodes straight into
// it, and the merger produces one as the canonical record the scorer reads.
type AppRecord struct {
	AppID                     string    `json:"appId"`
	Platform                  Platform  `json:"platform"`
	TrackID                   int64     `json:"trackId,omitempty"`
	TrackName                 string    `json:"trackName"`
	ArtistName                string    `json:"artistName"`
	ArtworkURL                string    `json:"artworkUrl512"`
	Description               string    `json:"description"`
	Price                     float64   `json:"price"`
	FormattedPrice            string    `json:"formattedPrice"`
	AverageUserRating         float64   `json:"averageUserRating"`
	UserRatingCount           int64     `json:"userRatingCount"`
	ScreenshotURLs            []string  `json:"screenshotUrls"`
	IPadScreenshotURLs        []string  `json:"ipadScreenshotUrls"`
	Genres                    []string  `json:"genres"`
	PrimaryGenreName          string    `json:"primaryGenreName"`
	FileSizeBytes             ByteCount `json:"fileSizeBytes"`
	CurrentVersionReleaseDate string    `json:"currentVersionReleaseDate"`
	ReleaseDate               string    `json:"releaseDate"`
	Version                   string    `json:"version"`
	TrackContentRating        string    `json:"trackContentRating"`
	ContentAdvisoryRating     string    `json:"contentAdvisoryRating"`
	Advisories                []string  `json:"advisories"`
	SellerURL                 string    `json:"sellerUrl,omitempty"`
	SupportedDevices          []string  `json:"supportedDevices"`
	LanguageCodes             []string  `json:"languageCodesISO2A"`
	MinimumOSVersion          string    `json:"minimumOsVersion"`
	ReleaseNotes              string    `json:"releaseNotes,omitempty"`
	InAppPurchases            bool      `json:"inAppPurchases"`
	GameCenterEnabled         bool      `json:"isGameCenterEnabled"`
	TrackViewURL              string    `json:"trackViewUrl"`

	PrivacyLabels    []string           `json:"privacyLabels,omitempty"`
	WhatsNew         string             `json:"whatsNew,omitempty"`
	PreviewURLs      []string           `json:"appPreviewUrls,omitempty"`
	RatingsHistogram map[string]float64 `json:"ratingsBreakdown,omitempty"`

	Source Provenance `json:"source"`
}

// LastUpdated parses CurrentVersionReleaseDate. ok is false when the date is
// missing or in a format we do not recognise.
func (r *AppRecord) LastUpdated() (t time.Time, ok bool) {
	return ParseStoreDate(r.CurrentVersionReleaseDate)
}

var storeDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// ParseStoreDate accepts the date shapes both storefronts and the lookup API use.
func ParseStoreDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range storeDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ByteCount is a size in bytes. The lookup API sends it as a quoted string,
// so both strings and numbers decode.
type ByteCount int64

func (b *ByteCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*b = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*b = 0
			return nil
		}
		*b = ByteCount(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*b = ByteCount(n)
	return nil
}

func (b ByteCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(b), 10))
}
