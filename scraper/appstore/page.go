// Package appstore extracts app metadata from App Store product pages.
package appstore

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"shipscore/models"
	"shipscore/scraper"
	"shipscore/utils"
)

var (
	whatsNewHeadingRegexp = regexp.MustCompile(`(?i)what.{0,6}s\s+new`)
	contentRatingRegexp   = regexp.MustCompile(`(\d{1,2}\+)`)
	ratedRegexp           = regexp.MustCompile(`(?i)Rated\s+(\d{1,2}\+)`)
	releaseDateJSONRegexp = regexp.MustCompile(`"currentVersionReleaseDate"\s*:\s*"([^"]+)"`)
	shortDateRegexp       = regexp.MustCompile(`\b([A-Z][a-z]{2}\s+\d{1,2},\s+\d{4})\b`)
	starRowRegexp         = regexp.MustCompile(`stars--(\d)`)
	widthPercentRegexp    = regexp.MustCompile(`width:\s*([\d.]+)%`)
)

// Extractor fetches and parses App Store product pages.
type Extractor struct {
	fetcher scraper.PageFetcher
	baseURL string
	country string
	logger  *utils.Logger
}

// New creates an Extractor. baseURL is normally https://apps.apple.com.
func New(fetcher scraper.PageFetcher, baseURL, country string, logger *utils.Logger) *Extractor {
	return &Extractor{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		country: country,
		logger:  logger,
	}
}

// PageURL is the product page address for appID.
func (e *Extractor) PageURL(appID string) string {
	return fmt.Sprintf("%s/%s/app/id%s", e.baseURL, e.country, appID)
}

// Extract fetches the product page for appID. It returns nil when the page
// cannot be fetched; parse problems never make it nil.
func (e *Extractor) Extract(ctx context.Context, appID string) *models.PageRecord {
	url := e.PageURL(appID)
	page, err := e.fetcher.FetchPage(ctx, url)
	if err != nil {
		e.logger.Warn("[appstore] page fetch failed for %s: %v", appID, err)
		return nil
	}

	record, err := Parse(page, url)
	if err != nil {
		e.logger.Warn("[appstore] page parse failed for %s: %v", appID, err)
		return &models.PageRecord{TrackViewURL: &url}
	}

	e.logger.Debug("[appstore] %s: %d phone + %d tablet screenshots from page",
		appID, len(record.ScreenshotURLs), len(record.IPadScreenshotURLs))
	return record
}

// Parse turns a product page into a PageRecord. Every field is extracted
// independently; a field that cannot be found is left nil.
func Parse(page, pageURL string) (*models.PageRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("appstore: parse html: %w", err)
	}

	r := &models.PageRecord{}
	if pageURL != "" {
		r.TrackViewURL = ptr(pageURL)
	}

	applyJSONLD(doc, r)

	shots := collectScreenshots(doc, page)
	if len(shots.phone) > 0 {
		r.ScreenshotURLs = shots.phone
	}
	if len(shots.tablet) > 0 {
		r.IPadScreenshotURLs = shots.tablet
	}

	if previews := previewURLs(doc); len(previews) > 0 {
		r.PreviewURLs = previews
	}

	section := whatsNewSection(doc)
	if notes := whatsNewText(doc, section); notes != "" {
		r.WhatsNew = ptr(notes)
		r.ReleaseNotes = ptr(notes)
	}

	if labels := privacyLabels(doc); len(labels) > 0 {
		r.PrivacyLabels = labels
	}

	info := informationList(doc)
	text := doc.Text()

	if size, ok := scraper.ParseFileSize(info["size"]); ok {
		r.FileSizeBytes = &size
	} else if size, ok := scraper.ParseFileSize(text); ok {
		r.FileSizeBytes = &size
	}

	if rating := contentRating(info["age rating"], text); rating != "" {
		r.TrackContentRating = ptr(rating)
		r.ContentAdvisoryRating = ptr(rating)
	}

	if seller := sellerURL(doc); seller != "" {
		r.SellerURL = ptr(seller)
	}

	if updated := lastUpdated(section, page, text); updated != "" {
		r.CurrentVersionReleaseDate = ptr(updated)
	}

	if histogram := ratingsHistogram(doc); len(histogram) > 0 {
		r.RatingsHistogram = histogram
	}

	return r, nil
}

// applyJSONLD copies the structured-data fields, the most trusted source on
// the page.
func applyJSONLD(doc *goquery.Document, r *models.PageRecord) {
	ld, ok := scraper.FindSoftwareApp(doc)
	if !ok {
		return
	}

	if ld.Name != "" {
		r.TrackName = ptr(ld.Name)
	}
	if ld.AuthorName != "" {
		r.ArtistName = ptr(ld.AuthorName)
	}
	if ld.ImageURL != "" {
		r.ArtworkURL = ptr(ld.ImageURL)
	}
	if ld.Description != "" {
		r.Description = ptr(ld.Description)
	}
	if ld.OperatingSystem != "" {
		r.MinimumOSVersion = ptr(ld.OperatingSystem)
	}
	if ld.Category != "" {
		genre := strings.Replace(ld.Category, "GameCategory", "Games", 1)
		genre = strings.TrimSpace(strings.Replace(genre, "Category", "", 1))
		if genre != "" {
			r.PrimaryGenreName = ptr(genre)
			r.Genres = []string{genre}
		}
	}
	if ld.RatingValue != nil {
		r.AverageUserRating = ptr(*ld.RatingValue)
	}
	if ld.RatingCount != nil {
		r.UserRatingCount = ptr(*ld.RatingCount)
	}
	if ld.Price != nil {
		price := *ld.Price
		r.Price = ptr(price)
		r.FormattedPrice = ptr(scraper.FormatPrice(price, ld.PriceCurrency))
	}
	if ld.SoftwareVersion != "" {
		r.Version = ptr(ld.SoftwareVersion)
	}
	if ld.DatePublished != "" {
		r.ReleaseDate = ptr(normalizeDate(ld.DatePublished))
	}
}

func previewURLs(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var out []string

	doc.Find("[src]").Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if !strings.HasPrefix(src, "https://") {
			return
		}
		tag := goquery.NodeName(s)
		isVideo := tag == "video" || (tag == "source" && s.ParentFiltered("video").Length() > 0)
		if !isVideo && !strings.Contains(strings.ToLower(src), "video") {
			return
		}
		if _, dup := seen[src]; dup {
			return
		}
		seen[src] = struct{}{}
		out = append(out, src)
	})

	return out
}

func whatsNewSection(doc *goquery.Document) *goquery.Selection {
	var section *goquery.Selection

	doc.Find("h2, h3, h4").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !whatsNewHeadingRegexp.MatchString(h.Text()) {
			return true
		}
		section = h.Closest("section")
		if section.Length() == 0 {
			section = h.Parent()
		}
		return false
	})

	if section == nil || section.Length() == 0 {
		section = doc.Find("[data-test-version-history]").First()
	}
	return section
}

func whatsNewText(doc *goquery.Document, section *goquery.Selection) string {
	p := section.Find("p").First()
	if p.Length() == 0 {
		p = doc.Find("[data-test-version-history] p").First()
	}
	if p.Length() == 0 {
		return ""
	}
	raw, err := goquery.OuterHtml(p)
	if err != nil {
		return scraper.NormalizeLines(scraper.NodeText(p.Get(0)))
	}
	return scraper.StripTags(raw)
}

func privacyLabels(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var out []string

	doc.Find(`[class*="privacy-type"]`).Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		label := scraper.NormalizeSpace(s.Text())
		if label == "" {
			return
		}
		if _, dup := seen[label]; dup {
			return
		}
		seen[label] = struct{}{}
		out = append(out, label)
	})

	return out
}

// informationList maps the lower-cased <dt> labels of the Information
// section to their <dd> text.
func informationList(doc *goquery.Document) map[string]string {
	info := make(map[string]string)
	doc.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		label := strings.ToLower(scraper.NormalizeSpace(dt.Text()))
		if label == "" {
			return
		}
		if _, exists := info[label]; exists {
			return
		}
		info[label] = scraper.NormalizeSpace(dt.NextFilteredUntil("dd", "dt").First().Text())
	})
	return info
}

func contentRating(ageRating, text string) string {
	if m := contentRatingRegexp.FindStringSubmatch(ageRating); m != nil {
		return m[1]
	}
	if m := ratedRegexp.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := contentRatingRegexp.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func sellerURL(doc *goquery.Document) string {
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := strings.ToLower(scraper.NormalizeSpace(a.Text()))
		if !strings.Contains(text, "developer website") &&
			!(a.HasClass("link") && strings.Contains(text, "website")) {
			return true
		}
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
			found = href
			return false
		}
		return true
	})
	return found
}

func lastUpdated(section *goquery.Selection, page, text string) string {
	if section != nil {
		if dt, ok := section.Find("time[datetime]").First().Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
			return normalizeDate(dt)
		}
	}
	if m := releaseDateJSONRegexp.FindStringSubmatch(page); m != nil {
		return normalizeDate(m[1])
	}
	if m := shortDateRegexp.FindStringSubmatch(text); m != nil {
		return normalizeDate(m[1])
	}
	return ""
}

// normalizeDate rewrites recognised dates as RFC 3339 and leaves anything
// else untouched.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if t, ok := models.ParseStoreDate(s); ok {
		return t.UTC().Format(time.RFC3339)
	}
	return s
}

func ratingsHistogram(doc *goquery.Document) map[string]float64 {
	histogram := make(map[string]float64)
	doc.Find(`[class*="star-bar-graph__row"]`).Each(func(_ int, row *goquery.Selection) {
		class, _ := row.Find(`[class*="stars--"]`).First().Attr("class")
		stars := starRowRegexp.FindStringSubmatch(class)
		if stars == nil {
			return
		}
		style, _ := row.Find(`[style*="width"]`).First().Attr("style")
		width := widthPercentRegexp.FindStringSubmatch(style)
		if width == nil {
			return
		}
		pct, err := strconv.ParseFloat(width[1], 64)
		if err != nil {
			return
		}
		histogram[stars[1]] = pct
	})
	return histogram
}

func ptr[T any](v T) *T {
	return &v
}
