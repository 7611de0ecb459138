package scoring

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"shipscore/models"
)

const dimensionMax = 10.0

// Dimension keys as they appear in reports and tuning files.
const (
	KeyASO             = "aso"
	KeyScreenshots     = "screenshots"
	KeyPricing         = "pricing"
	KeyReviews         = "reviews"
	KeyUpdateCadence   = "update_cadence"
	KeyAccessibility   = "accessibility"
	KeyPrivacy         = "privacy"
	KeyLegal           = "legal"
	KeyCategoryRanking = "category_ranking"
	KeyIdentity        = "identity"
)

type dimension struct {
	key   string
	name  string
	score func(e *Engine, app *models.AppRecord) (score float64, tip, details string)
}

// dimensions is the report order.
var dimensions = []dimension{
	{KeyASO, "ASO", (*Engine).scoreASO},
	{KeyScreenshots, "Screenshots", (*Engine).scoreScreenshots},
	{KeyPricing, "Pricing", (*Engine).scorePricing},
	{KeyReviews, "Reviews", (*Engine).scoreReviews},
	{KeyUpdateCadence, "Update Cadence", (*Engine).scoreUpdateCadence},
	{KeyAccessibility, "Accessibility", (*Engine).scoreAccessibility},
	{KeyPrivacy, "Privacy", (*Engine).scorePrivacy},
	{KeyLegal, "Legal", (*Engine).scoreLegal},
	{KeyCategoryRanking, "Category Ranking", (*Engine).scoreCategoryRanking},
	{KeyIdentity, "Identity", (*Engine).scoreIdentity},
}

// DimensionKeys lists every dimension key in report order.
func DimensionKeys() []string {
	keys := make([]string, len(dimensions))
	for i, d := range dimensions {
		keys[i] = d.key
	}
	return keys
}

// tips keeps the first tip offered.
type tips struct{ first string }

func (t *tips) add(s string) {
	if t.first == "" {
		t.first = s
	}
}

func (t *tips) or(fallback string) string {
	if t.first == "" {
		return fallback
	}
	return t.first
}

// top is the threshold of a ladder's best step.
func top(l Ladder) float64 {
	if len(l.Steps) == 0 {
		return 0
	}
	return l.Steps[0].At
}

func (e *Engine) scoreASO(app *models.AppRecord) (float64, string, string) {
	cfg := e.tuning.ASO
	var score float64
	var tip tips

	titleLen := utf8.RuneCountInString(app.TrackName)
	switch {
	case titleLen >= cfg.TitleMin && titleLen <= cfg.TitleMax:
		score += cfg.TitleIdeal
	case titleLen > 0:
		score += cfg.TitleOther
		tip.add(fmt.Sprintf("Use a %d-%d character title that carries your main keyword.", cfg.TitleMin, cfg.TitleMax))
	default:
		tip.add("The app has no title.")
	}

	descLen := utf8.RuneCountInString(app.Description)
	score += cfg.Description.AtLeast(float64(descLen))
	if float64(descLen) < top(cfg.Description) {
		tip.add(fmt.Sprintf("Expand the description to %.0f+ characters and work keywords into it.", top(cfg.Description)))
	}

	if strings.Contains(app.Description, "\n\n") {
		score += cfg.Paragraphs
	} else {
		tip.add("Break the description into short paragraphs.")
	}

	score += cfg.Genres.AtLeast(float64(len(app.Genres)))
	if float64(len(app.Genres)) < top(cfg.Genres) {
		tip.add("Pick a secondary category.")
	}

	details := fmt.Sprintf("Title: %q (%d chars). Description: %s chars.",
		app.TrackName, titleLen, humanize.Comma(int64(descLen)))
	return score, tip.or("Metadata is in good shape."), details
}

func (e *Engine) scoreScreenshots(app *models.AppRecord) (float64, string, string) {
	cfg := e.tuning.Screenshots
	phone := len(app.ScreenshotURLs)
	tablet := len(app.IPadScreenshotURLs)
	var tip tips

	score := cfg.Phone.AtLeast(float64(phone)) + cfg.Tablet.AtLeast(float64(tablet))
	if phone+tablet >= cfg.VarietyAt {
		score += cfg.VarietyBonus
	}

	if float64(phone) < top(cfg.Phone) {
		tip.add(fmt.Sprintf("Upload at least %.0f phone screenshots; they drive conversion more than any other asset.", top(cfg.Phone)))
	}
	switch {
	case tablet == 0:
		tip.add("Add tablet screenshots to cover iPad shoppers.")
	case float64(tablet) < top(cfg.Tablet):
		tip.add(fmt.Sprintf("Add more tablet screenshots (%.0f+).", top(cfg.Tablet)))
	}

	details := fmt.Sprintf("%d phone + %d tablet screenshots.", phone, tablet)
	return score, tip.or("Screenshot coverage is strong."), details
}

func (e *Engine) scorePricing(app *models.AppRecord) (float64, string, string) {
	cfg := e.tuning.Pricing
	score := cfg.Price.AtMost(app.Price)

	var tip string
	switch {
	case app.Price == 0:
		tip = "Free download keeps the funnel wide; monetise with in-app purchases."
	case score == cfg.Price.Otherwise:
		tip = "Premium pricing limits discovery. A freemium model reaches more users."
	default:
		tip = "A free tier with in-app purchases would grow download volume."
	}

	if app.FormattedPrice != "" {
		score += cfg.FormattedPrice
	}

	price := app.FormattedPrice
	if price == "" {
		price = "$" + strconv.FormatFloat(app.Price, 'f', 2, 64)
		if app.Price == 0 {
			price = "Free"
		}
	}
	return score, tip, fmt.Sprintf("Price: %s.", price)
}

func (e *Engine) scoreReviews(app *models.AppRecord) (float64, string, string) {
	cfg := e.tuning.Reviews
	rating := app.AverageUserRating
	count := float64(app.UserRatingCount)
	var tip tips

	score := cfg.Rating.AtLeast(rating) + cfg.Volume.AtLeast(count)

	if rating < top(cfg.Rating) {
		tip.add(fmt.Sprintf("Fix the most reported problems to lift the rating to %.1f+.", top(cfg.Rating)))
	}
	if count < top(cfg.Volume) {
		tip.add("Ask for ratings right after positive moments to grow review volume.")
	}

	details := fmt.Sprintf("%.1f stars from %s ratings.", rating, humanize.Comma(app.UserRatingCount))
	return score, tip.or("Review profile is excellent."), details
}

func (e *Engine) scoreUpdateCadence(app *models.AppRecord) (float64, string, string) {
	cfg := e.tuning.Updates
	var score float64
	var tip tips
	var details string

	if updated, ok := app.LastUpdated(); ok {
		days := int(e.now().Sub(updated).Hours() / 24)
		days = max(days, 0)
		score += cfg.Recency.AtMost(float64(days))
		if float64(days) > top(cfg.Recency) {
			tip.add("Ship updates at least monthly; store rankings favour active apps.")
		}
		details = fmt.Sprintf("Last updated %d days ago (v%s).", days, app.Version)
	} else {
		tip.add("No release date found; publish a fresh update.")
		details = fmt.Sprintf("Release date unknown (v%s).", app.Version)
	}

	notes := utf8.RuneCountInString(app.ReleaseNotes)
	switch {
	case notes > cfg.DetailedNotesChars:
		score += cfg.DetailedNotes
	case notes > 0:
		score += cfg.BriefNotes
		tip.add("Write fuller release notes; users read them.")
	default:
		tip.add("Add release notes to every update.")
	}

	if majorVersion(app.Version) >= cfg.MatureMajorVersion {
		score += cfg.MatureBonus
	}

	return score, tip.or("Update cadence is healthy."), details
}

// majorVersion is the leading integer of a version string, 0 if none.
func majorVersion(v string) int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	end := strings.IndexFunc(v, func(r rune) bool { return r < '0' || r > '9' })
	if end == 0 {
		return 0
	}
	if end > 0 {
		v = v[:end]
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func (e *Engine) scoreAccessibility(app *models.AppRecord) (float64, string, string) {
	cfg := e.tuning.Accessibility
	langs := len(app.LanguageCodes)
	devices := len(app.SupportedDevices)
	var tip tips

	score := cfg.Languages.AtLeast(float64(langs)) + cfg.Devices.AtLeast(float64(devices))
	if float64(langs) < top(cfg.Languages) {
		tip.add("Localise for your next biggest markets.")
	}
	if float64(devices) < top(cfg.Devices) {
		tip.add("Support more device families.")
	}

	if pts, ok := cfg.ContentRatings[app.TrackContentRating]; ok {
		score += pts
	} else {
		score += cfg.OtherContentRating
	}

	details := fmt.Sprintf("%d languages, %d devices, rated %s.", langs, devices, app.TrackContentRating)
	return score, tip.or("Reach signals look good."), details
}

func (e *Engine) scorePrivacy(app *models.AppRecord) (float64, string, string) {
	cfg := e.tuning.Privacy

	if len(app.PrivacyLabels) > 0 {
		details := fmt.Sprintf("%d privacy label categories on the store page.", len(app.PrivacyLabels))
		if slices.Contains(app.PrivacyLabels, "Data Not Collected") {
			return cfg.NoDataCollected, "No data collected. Keep the privacy label current as features ship.", details
		}
		return cfg.Labels.AtMost(float64(len(app.PrivacyLabels))),
			"Collect only the data the app needs; every label category costs trust.", details
	}

	score := cfg.Base
	tip := "Privacy labels are not in the lookup data, so this score is an estimate."
	if slices.Contains(cfg.SensitiveGenres, app.PrimaryGenreName) {
		score = cfg.Sensitive
		tip = "Privacy-sensitive category: make sure the App Privacy labels are complete."
	}
	if len(app.Advisories) > 0 {
		score -= cfg.AdvisoryPenalty
	}
	score = max(score, cfg.Floor)

	details := fmt.Sprintf("Category: %s. %d content advisories.", app.PrimaryGenreName, len(app.Advisories))
	return score, tip, details
}

func (e *Engine) scoreLegal(app *models.AppRecord) (float64, string, string) {
	cfg := e.tuning.Legal
	var score float64
	var tip tips

	if app.SellerURL != "" {
		score += cfg.SellerURL
	} else {
		tip.add("Link a developer website with a privacy policy and terms.")
	}
	if app.ContentAdvisoryRating != "" {
		score += cfg.AdvisoryRating
	}
	if utf8.RuneCountInString(app.ArtistName) >= cfg.DeveloperNameMinChars {
		score += cfg.DeveloperName
	}

	website := "none"
	if app.SellerURL != "" {
		website = "yes"
	}
	details := fmt.Sprintf("Developer: %s. Website: %s.", app.ArtistName, website)
	return score, tip.or("Legal basics are covered. Keep the privacy policy linked and current."), details
}

func (e *Engine) scoreCategoryRanking(app *models.AppRecord) (float64, string, string) {
	cfg := e.tuning.Category
	count := float64(app.UserRatingCount)
	var tip tips

	score := cfg.Volume.AtLeast(count) +
		cfg.Rating.AtLeast(app.AverageUserRating) +
		cfg.Genres.AtLeast(float64(len(app.Genres)))

	if count < top(cfg.Volume) {
		tip.add("Ranking signals are thin; invest in keywords and launch marketing.")
	}

	details := fmt.Sprintf("%s ratings in %s. Estimated from public signals.",
		humanize.Comma(app.UserRatingCount), app.PrimaryGenreName)
	return score, tip.or("Strong category presence."), details
}

func (e *Engine) scoreIdentity(app *models.AppRecord) (float64, string, string) {
	cfg := e.tuning.Identity
	var score float64
	var tip tips

	icon := "none"
	if app.ArtworkURL != "" {
		icon = "yes"
		score += cfg.Icon
		if cfg.HiResMarker != "" && strings.Contains(app.ArtworkURL, cfg.HiResMarker) {
			score += cfg.HiResIcon
		} else {
			tip.add("Serve a high-resolution icon.")
		}
	} else {
		tip.add("Add an app icon.")
	}

	if app.ArtistName != "" {
		score += cfg.Developer
	}

	name := strings.TrimSpace(app.TrackName)
	if utf8.RuneCountInString(name) >= cfg.NameMinChars && !strings.EqualFold(name, strings.TrimSpace(app.ArtistName)) {
		score += cfg.DistinctName
	} else {
		tip.add("Give the app a name of its own, distinct from the developer name.")
	}

	details := fmt.Sprintf("Icon: %s. Developer: %s.", icon, app.ArtistName)
	return score, tip.or("Brand identity is clear."), details
}
