package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"shipscore/models"
	"shipscore/scraper"
	"shipscore/utils"
)

// priceRegexp captures a numeric price inside a formatted price string
var priceRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Cleaner coerces a canonical record into the shape the scorer expects:
// finite non-negative numbers, trimmed text, non-nil lists without blanks or
// duplicates.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean returns a cleaned copy of r. The input is not modified.
func (c *Cleaner) Clean(r *models.AppRecord) *models.AppRecord {
	out := *r

	out.AppID = strings.TrimSpace(r.AppID)
	out.Platform = models.Platform(normalisePlatform(string(r.Platform)))

	out.TrackName = normaliseText(r.TrackName)
	out.ArtistName = normaliseText(r.ArtistName)
	out.ArtworkURL = strings.TrimSpace(r.ArtworkURL)
	out.Description = scraper.NormalizeLines(r.Description)
	out.FormattedPrice = normaliseText(r.FormattedPrice)
	out.PrimaryGenreName = normaliseText(r.PrimaryGenreName)
	out.CurrentVersionReleaseDate = strings.TrimSpace(r.CurrentVersionReleaseDate)
	out.ReleaseDate = strings.TrimSpace(r.ReleaseDate)
	out.Version = normaliseText(r.Version)
	out.TrackContentRating = normaliseText(r.TrackContentRating)
	out.ContentAdvisoryRating = normaliseText(r.ContentAdvisoryRating)
	out.SellerURL = strings.TrimSpace(r.SellerURL)
	out.MinimumOSVersion = normaliseText(r.MinimumOSVersion)
	out.ReleaseNotes = scraper.NormalizeLines(r.ReleaseNotes)
	out.WhatsNew = scraper.NormalizeLines(r.WhatsNew)
	out.TrackViewURL = strings.TrimSpace(r.TrackViewURL)

	out.Price = c.parsePrice(r.Price, out.FormattedPrice)
	out.AverageUserRating = c.parseRating(r.AverageUserRating)
	out.UserRatingCount = max(r.UserRatingCount, 0)
	out.FileSizeBytes = max(r.FileSizeBytes, 0)

	out.ScreenshotURLs = c.uniqueList("screenshot", r.ScreenshotURLs)
	out.IPadScreenshotURLs = c.uniqueList("tablet screenshot", r.IPadScreenshotURLs)
	out.Genres = c.uniqueList("genre", r.Genres)
	out.Advisories = c.uniqueList("advisory", r.Advisories)
	out.SupportedDevices = c.uniqueList("device", r.SupportedDevices)
	out.LanguageCodes = c.uniqueList("language", r.LanguageCodes)
	out.PrivacyLabels = c.uniqueList("privacy label", r.PrivacyLabels)
	if len(r.PreviewURLs) > 0 {
		out.PreviewURLs = c.uniqueList("preview", r.PreviewURLs)
	}

	return &out
}

// parsePrice keeps a usable numeric price, or recovers one from the
// formatted string ("$2.99") when the number is missing.
func (c *Cleaner) parsePrice(price float64, formatted string) float64 {
	if finite(price) && price > 0 {
		return price
	}
	match := priceRegexp.FindString(strings.ReplaceAll(formatted, ",", ""))
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || !finite(v) {
		return 0
	}
	c.logger.Debug("[cleaner] price %v recovered from %q", v, formatted)
	return v
}

// parseRating clamps a rating to the 0-5 range.
func (c *Cleaner) parseRating(v float64) float64 {
	if !finite(v) || v < 0 {
		return 0
	}
	if v > 5 {
		c.logger.Debug("[cleaner] rating %v clamped to 5", v)
		return 5
	}
	return v
}

// uniqueList trims entries and drops blanks and duplicates, keeping the
// first occurrence. The result is never nil.
func (c *Cleaner) uniqueList(what string, in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))

	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			c.logger.Debug("[cleaner] Duplicate %s skipped: %s", what, v)
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	if dropped := len(in) - len(out); dropped > 0 {
		c.logger.Debug("[cleaner] Cleaned %d → %d %s entries", len(in), len(out), what)
	}
	return out
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

func normalisePlatform(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
