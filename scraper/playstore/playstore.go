// Package playstore builds app records from Google Play listing pages. There
// is no lookup API for Play, so one page fetch fills the whole record and
// anything the page does not show gets a fixed default.
package playstore

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"shipscore/models"
	"shipscore/scraper"
	"shipscore/utils"
)

const (
	maxScreenshots   = 20
	defaultGenre     = "App"
	defaultRating    = "Everyone"
	unknownDeveloper = "Unknown Developer"
)

var (
	screenshotRegexp  = regexp.MustCompile(`https://play-lh\.googleusercontent\.com/[^"'\s]+(?:=w\d+-h\d+)`)
	ratedStarsRegexp  = regexp.MustCompile(`(?i)Rated\s+([\d.]+)\s+stars`)
	ratingValueRegexp = regexp.MustCompile(`"ratingValue":\s*"?([\d.]+)"?`)
	ratingCountRegexp = regexp.MustCompile(`"ratingCount":\s*"?(\d+)"?`)
	reviewsRegexp     = regexp.MustCompile(`(?i)([\d,]+)\s+reviews`)
	authorRegexp      = regexp.MustCompile(`"author":\s*\{[^}]*"name":\s*"([^"]+)"`)
	updatedOnRegexp   = regexp.MustCompile(`(?i)Updated on\s*</b>\s*([^<]+)`)
	titleSuffixRegexp = regexp.MustCompile(`(?i)\s+-\s+(Apps on )?Google Play$`)
)

// Extractor fetches Google Play listings.
type Extractor struct {
	fetcher scraper.PageFetcher
	baseURL string
	logger  *utils.Logger
	now     func() time.Time
}

// New creates an Extractor. baseURL is normally https://play.google.com.
func New(fetcher scraper.PageFetcher, baseURL string, logger *utils.Logger) *Extractor {
	return &Extractor{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		now:     time.Now,
	}
}

// ListingURL is the public listing address for a package.
func ListingURL(baseURL, pkg string) string {
	return fmt.Sprintf("%s/store/apps/details?id=%s", strings.TrimRight(baseURL, "/"), url.QueryEscape(pkg))
}

// Fetch downloads and parses the listing for pkg. Unlike the App Store path a
// failed fetch is an error: there is no second source to fall back on.
func (e *Extractor) Fetch(ctx context.Context, pkg string) (*models.AppRecord, error) {
	page, err := e.fetcher.FetchPage(ctx, ListingURL(e.baseURL, pkg)+"&hl=en&gl=us")
	if err != nil {
		return nil, fmt.Errorf("playstore: fetch %s: %w", pkg, err)
	}

	record, err := Parse(page, pkg, e.baseURL, e.now())
	if err != nil {
		return nil, err
	}

	e.logger.Debug("[playstore] %s: %q by %q, %d screenshots",
		pkg, record.TrackName, record.ArtistName, len(record.ScreenshotURLs))
	return record, nil
}

// Parse builds a record from listing HTML. fetchedAt stands in for the
// update date when the page does not show one.
func Parse(page, pkg, baseURL string, fetchedAt time.Time) (*models.AppRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("playstore: parse html: %w", err)
	}

	ld, _ := scraper.FindSoftwareApp(doc)
	if ld == nil {
		ld = &scraper.SoftwareApp{}
	}

	title := firstNonEmpty(ld.Name, meta(doc, "og:title"), meta(doc, "twitter:title"), pkg)
	title = titleSuffixRegexp.ReplaceAllString(strings.TrimSpace(title), "")

	developer := firstNonEmpty(ld.AuthorName, submatch(authorRegexp, page),
		scraper.NormalizeSpace(doc.Find(`a[href*="/store/apps/dev"]`).First().Text()), unknownDeveloper)

	price := 0.0
	if ld.Price != nil && *ld.Price > 0 {
		price = *ld.Price
	}

	r := &models.AppRecord{
		AppID:                     pkg,
		Platform:                  models.PlatformGooglePlay,
		TrackName:                 title,
		ArtistName:                developer,
		ArtworkURL:                firstNonEmpty(meta(doc, "og:image"), ld.ImageURL),
		Description:               firstNonEmpty(ld.Description, meta(doc, "og:description"), meta(doc, "description")),
		Price:                     price,
		FormattedPrice:            scraper.FormatPrice(price, ld.PriceCurrency),
		AverageUserRating:         rating(ld, page),
		UserRatingCount:           ratingCount(ld, page),
		ScreenshotURLs:            screenshots(page, ld.ScreenshotURLs),
		IPadScreenshotURLs:        []string{},
		Genres:                    []string{defaultGenre},
		PrimaryGenreName:          defaultGenre,
		CurrentVersionReleaseDate: updated(doc, ld, page, fetchedAt),
		Version:                   ld.SoftwareVersion,
		TrackContentRating:        defaultRating,
		ContentAdvisoryRating:     defaultRating,
		Advisories:                []string{},
		SellerURL:                 baseURL + "/store/apps/developer?id=" + url.QueryEscape(developer),
		SupportedDevices:          []string{},
		LanguageCodes:             []string{"EN"},
		InAppPurchases:            strings.Contains(doc.Text(), "In-app purchases"),
		TrackViewURL:              ListingURL(baseURL, pkg),
		Source:                    models.SourceScraper,
	}
	return r, nil
}

func meta(doc *goquery.Document, name string) string {
	sel := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, name, name)
	return strings.TrimSpace(doc.Find(sel).First().AttrOr("content", ""))
}

func rating(ld *scraper.SoftwareApp, page string) float64 {
	if ld.RatingValue != nil {
		return *ld.RatingValue
	}
	for _, re := range []*regexp.Regexp{ratedStarsRegexp, ratingValueRegexp} {
		if s := submatch(re, page); s != "" {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func ratingCount(ld *scraper.SoftwareApp, page string) int64 {
	if ld.RatingCount != nil {
		return *ld.RatingCount
	}
	for _, re := range []*regexp.Regexp{ratingCountRegexp, reviewsRegexp} {
		if s := submatch(re, page); s != "" {
			if n, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}

// screenshots keeps the first distinct sized image URLs. Play references
// each asset by one URL, so exact-match dedupe is enough. The JSON-LD
// screenshot list is used only when the markup has none.
func screenshots(page string, structured []string) []string {
	set := utils.NewOrderedSet()
	for _, u := range screenshotRegexp.FindAllString(page, -1) {
		set.Add(u)
	}
	if set.Size() == 0 {
		for _, u := range structured {
			set.Add(u)
		}
	}
	keys := set.Keys()
	if len(keys) > maxScreenshots {
		keys = keys[:maxScreenshots]
	}
	return keys
}

func updated(doc *goquery.Document, ld *scraper.SoftwareApp, page string, fetchedAt time.Time) string {
	raw := firstNonEmpty(
		submatch(updatedOnRegexp, page),
		ld.DateModified,
		scraper.NormalizeSpace(doc.Find(`div:contains("Updated on") + div`).First().Text()),
	)
	if t, ok := models.ParseStoreDate(raw); ok {
		return t.UTC().Format(time.RFC3339)
	}
	return fetchedAt.UTC().Format(time.RFC3339)
}

func submatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
