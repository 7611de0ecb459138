package models

import "time"

// DimensionScore is one independent scoring axis.
type DimensionScore struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	MaxScore float64 `json:"maxScore"`
	Tip      string  `json:"tip"`
	Details  string  `json:"details"`
}

// Ratio is Score/MaxScore, with 0/0 treated as 0.
func (d DimensionScore) Ratio() float64 {
	if d.MaxScore <= 0 {
		return 0
	}
	r := d.Score / d.MaxScore
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// ScoreReport is the scoring engine's output for one app.
type ScoreReport struct {
	AppName         string           `json:"appName"`
	AppIcon         string           `json:"appIcon"`
	Developer       string           `json:"developer"`
	OverallScore    int              `json:"overallScore"`
	Grade           string           `json:"grade"`
	Dimensions      []DimensionScore `json:"dimensions"`
	TopImprovements []string         `json:"topImprovements"`
}

// StoreMeta is the raw platform metadata returned next to a report.
type StoreMeta struct {
	AverageUserRating float64  `json:"averageUserRating"`
	UserRatingCount   int64    `json:"userRatingCount"`
	PrimaryGenreName  string   `json:"primaryGenreName"`
	TrackViewURL      string   `json:"trackViewUrl"`
	PrivacyLabels     []string `json:"privacyLabels,omitempty"`
	PreviewURLs       []string `json:"appPreviewUrls,omitempty"`
	ReleaseNotes      string   `json:"releaseNotes,omitempty"`
}

// AnalysisResult is what an analyze request returns.
type AnalysisResult struct {
	ScoreReport
	AppID    string     `json:"appId"`
	Platform Platform   `json:"platform"`
	Source   Provenance `json:"source"`
	Meta     StoreMeta  `json:"meta"`
}

// GalleryEntry is the durable form of an analysis, keyed by app id.
type GalleryEntry struct {
	AppID             string           `json:"appId"`
	Platform          Platform         `json:"platform"`
	AppName           string           `json:"appName"`
	AppIcon           string           `json:"appIcon"`
	Developer         string           `json:"developer"`
	OverallScore      int              `json:"overallScore"`
	Grade             string           `json:"grade"`
	Dimensions        []DimensionScore `json:"dimensions"`
	TopImprovements   []string         `json:"topImprovements"`
	ScannedAt         time.Time        `json:"scannedAt"`
	Slug              string           `json:"slug"`
	TrackViewURL      string           `json:"trackViewUrl"`
	AverageUserRating float64          `json:"averageUserRating,omitempty"`
	UserRatingCount   int64            `json:"userRatingCount,omitempty"`
	PrimaryGenreName  string           `json:"primaryGenreName,omitempty"`
}

// GalleryInsights holds aggregate statistics over the stored gallery.
type GalleryInsights struct {
	TotalApps         int
	AppStoreApps      int
	GooglePlayApps    int
	AverageScore      float64
	MinScore          int
	MaxScore          int
	Highest           *GalleryEntry
	TopScored         []*GalleryEntry
	GradeDistribution map[string]int
	AppsByGenre       map[string]int
	WeakestDimensions map[string]float64
}
