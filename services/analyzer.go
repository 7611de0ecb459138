package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"shipscore/models"
	"shipscore/scoring"
	"shipscore/utils"
)

var tracer = otel.Tracer("shipscore/services")

// PageExtractor reads an App Store product page. nil means the page was
// unavailable.
type PageExtractor interface {
	Extract(ctx context.Context, appID string) *models.PageRecord
}

// LookupClient queries the App Store lookup API. nil means no result.
type LookupClient interface {
	Lookup(ctx context.Context, appID string) *models.AppRecord
}

// PlayExtractor builds a record from a Google Play listing.
type PlayExtractor interface {
	Fetch(ctx context.Context, pkg string) (*models.AppRecord, error)
}

// GallerySaver persists analysis results.
type GallerySaver interface {
	Upsert(ctx context.Context, entry *models.GalleryEntry) (*models.GalleryEntry, error)
}

// Sources are the storefront collaborators an Analyzer fetches from.
type Sources struct {
	AppStorePage   PageExtractor
	AppStoreLookup LookupClient
	GooglePlay     PlayExtractor
}

// Analyzer runs one analyze request end to end: route, fetch, merge, clean,
// score, and hand the result to the gallery in the background.
type Analyzer struct {
	sources     Sources
	cleaner     *Cleaner
	engine      *scoring.Engine
	gallery     GallerySaver
	saveTimeout time.Duration
	logger      *utils.Logger
	now         func() time.Time

	pending sync.WaitGroup
}

// NewAnalyzer creates an Analyzer. gallery may be nil, in which case results
// are not persisted.
func NewAnalyzer(sources Sources, engine *scoring.Engine, gallery GallerySaver, saveTimeout time.Duration, logger *utils.Logger) *Analyzer {
	return &Analyzer{
		sources:     sources,
		cleaner:     NewCleaner(logger),
		engine:      engine,
		gallery:     gallery,
		saveTimeout: saveTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

// Analyze scores the app behind rawURL. Errors are ErrInvalidURL,
// ErrAppNotFound, *UpstreamError or a context error.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*models.AnalysisResult, error) {
	ctx, span := tracer.Start(ctx, "analyzer.Analyze")
	defer span.End()

	target, err := Route(rawURL)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("app.platform", string(target.Platform)),
		attribute.String("app.id", target.ID),
	)

	var record *models.AppRecord
	switch target.Platform {
	case models.PlatformGooglePlay:
		record, err = a.fetchGooglePlay(ctx, target.ID)
	default:
		record, err = a.fetchAppStore(ctx, target.ID)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	record = a.cleaner.Clean(record)
	report := a.engine.Score(record)
	a.logger.Info("[analyzer] %s %s (%s): %d %s from %s",
		record.Platform, record.AppID, record.TrackName, report.OverallScore, report.Grade, record.Source)

	result := &models.AnalysisResult{
		ScoreReport: *report,
		AppID:       record.AppID,
		Platform:    record.Platform,
		Source:      record.Source,
		Meta: models.StoreMeta{
			AverageUserRating: record.AverageUserRating,
			UserRatingCount:   record.UserRatingCount,
			PrimaryGenreName:  record.PrimaryGenreName,
			TrackViewURL:      record.TrackViewURL,
			PrivacyLabels:     record.PrivacyLabels,
			PreviewURLs:       record.PreviewURLs,
			ReleaseNotes:      record.ReleaseNotes,
		},
	}

	a.save(ctx, result)
	return result, nil
}

// fetchAppStore runs the page extractor and the lookup concurrently and
// merges whatever came back. Either source failing is not an error.
func (a *Analyzer) fetchAppStore(ctx context.Context, appID string) (*models.AppRecord, error) {
	var (
		page *models.PageRecord
		api  *models.AppRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page = a.sources.AppStorePage.Extract(gctx, appID)
		return nil
	})
	g.Go(func() error {
		api = a.sources.AppStoreLookup.Lookup(gctx, appID)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := Merge(page, api)
	if merged == nil {
		return nil, fmt.Errorf("%w: app store id %s", ErrAppNotFound, appID)
	}

	merged.AppID = appID
	merged.Platform = models.PlatformAppStore
	return merged, nil
}

func (a *Analyzer) fetchGooglePlay(ctx context.Context, pkg string) (*models.AppRecord, error) {
	record, err := a.sources.GooglePlay.Fetch(ctx, pkg)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &UpstreamError{Platform: models.PlatformGooglePlay, Err: err}
	}
	return record, nil
}

// save upserts the result into the gallery without holding up the caller.
// The write outlives the request context but has its own timeout, and a
// failure is only logged.
func (a *Analyzer) save(ctx context.Context, result *models.AnalysisResult) {
	if a.gallery == nil {
		return
	}

	entry := &models.GalleryEntry{
		AppID:             result.AppID,
		Platform:          result.Platform,
		AppName:           result.AppName,
		AppIcon:           result.AppIcon,
		Developer:         result.Developer,
		OverallScore:      result.OverallScore,
		Grade:             result.Grade,
		Dimensions:        result.Dimensions,
		TopImprovements:   result.TopImprovements,
		ScannedAt:         a.now().UTC(),
		TrackViewURL:      result.Meta.TrackViewURL,
		AverageUserRating: result.Meta.AverageUserRating,
		UserRatingCount:   result.Meta.UserRatingCount,
		PrimaryGenreName:  result.Meta.PrimaryGenreName,
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.saveTimeout)
	a.pending.Add(1)
	go func() {
		defer a.pending.Done()
		defer cancel()

		saved, err := a.gallery.Upsert(saveCtx, entry)
		if err != nil {
			a.logger.Warn("[analyzer] gallery save failed for %s: %v", entry.AppID, err)
			return
		}
		a.logger.Debug("[analyzer] saved %s as %q", saved.AppID, saved.Slug)
	}()
}

// Wait blocks until every background gallery save has finished.
func (a *Analyzer) Wait() {
	a.pending.Wait()
}
