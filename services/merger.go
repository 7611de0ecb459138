package services

import "shipscore/models"

// Merge combines what the store page showed with the lookup API record.
//
//   - both nil: nil
//   - API only: the API record, tagged api
//   - page only: a defaulted record with every page value applied, tagged scraper
//   - both: the API record with page screenshots (per device class, when
//     non-empty), the page-only fields, longer release notes, and seller URL
//     or file size where the API has none; tagged merged
func Merge(page *models.PageRecord, api *models.AppRecord) *models.AppRecord {
	switch {
	case page == nil && api == nil:
		return nil
	case page == nil:
		out := *api
		out.Source = models.SourceAPI
		return &out
	case api == nil:
		return fromPage(page)
	}

	out := *api
	out.Source = models.SourceMerged

	if len(page.ScreenshotURLs) > 0 {
		out.ScreenshotURLs = page.ScreenshotURLs
	}
	if len(page.IPadScreenshotURLs) > 0 {
		out.IPadScreenshotURLs = page.IPadScreenshotURLs
	}

	copyPageOnly(page, &out)

	if notes := deref(page.ReleaseNotes); notes != "" && len(notes) > len(api.ReleaseNotes) {
		out.ReleaseNotes = notes
	}
	if seller := deref(page.SellerURL); seller != "" && api.SellerURL == "" {
		out.SellerURL = seller
	}
	if page.FileSizeBytes != nil && *page.FileSizeBytes > 0 && api.FileSizeBytes == 0 {
		out.FileSizeBytes = models.ByteCount(*page.FileSizeBytes)
	}

	return &out
}

// fromPage starts from type defaults so that every list is non-nil, then
// applies whatever the page provided.
func fromPage(page *models.PageRecord) *models.AppRecord {
	out := &models.AppRecord{
		ScreenshotURLs:     []string{},
		IPadScreenshotURLs: []string{},
		Genres:             []string{},
		Advisories:         []string{},
		SupportedDevices:   []string{},
		LanguageCodes:      []string{},
		Source:             models.SourceScraper,
	}

	setString(&out.TrackName, page.TrackName)
	setString(&out.ArtistName, page.ArtistName)
	setString(&out.ArtworkURL, page.ArtworkURL)
	setString(&out.Description, page.Description)
	setString(&out.FormattedPrice, page.FormattedPrice)
	setString(&out.PrimaryGenreName, page.PrimaryGenreName)
	setString(&out.CurrentVersionReleaseDate, page.CurrentVersionReleaseDate)
	setString(&out.ReleaseDate, page.ReleaseDate)
	setString(&out.Version, page.Version)
	setString(&out.TrackContentRating, page.TrackContentRating)
	setString(&out.ContentAdvisoryRating, page.ContentAdvisoryRating)
	setString(&out.SellerURL, page.SellerURL)
	setString(&out.MinimumOSVersion, page.MinimumOSVersion)
	setString(&out.ReleaseNotes, page.ReleaseNotes)
	setString(&out.TrackViewURL, page.TrackViewURL)

	if page.Price != nil {
		out.Price = *page.Price
	}
	if page.AverageUserRating != nil {
		out.AverageUserRating = *page.AverageUserRating
	}
	if page.UserRatingCount != nil {
		out.UserRatingCount = *page.UserRatingCount
	}
	if page.FileSizeBytes != nil {
		out.FileSizeBytes = models.ByteCount(*page.FileSizeBytes)
	}
	if page.ScreenshotURLs != nil {
		out.ScreenshotURLs = page.ScreenshotURLs
	}
	if page.IPadScreenshotURLs != nil {
		out.IPadScreenshotURLs = page.IPadScreenshotURLs
	}
	if page.Genres != nil {
		out.Genres = page.Genres
	}

	copyPageOnly(page, out)
	return out
}

func copyPageOnly(page *models.PageRecord, out *models.AppRecord) {
	if len(page.PrivacyLabels) > 0 {
		out.PrivacyLabels = page.PrivacyLabels
	}
	if page.WhatsNew != nil && *page.WhatsNew != "" {
		out.WhatsNew = *page.WhatsNew
	}
	if len(page.PreviewURLs) > 0 {
		out.PreviewURLs = page.PreviewURLs
	}
	if len(page.RatingsHistogram) > 0 {
		out.RatingsHistogram = page.RatingsHistogram
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
