package cmd

import (
	"context"
	"fmt"
	"time"

	"shipscore/config"
	"shipscore/scoring"
	"shipscore/scraper"
	"shipscore/scraper/appstore"
	"shipscore/scraper/browser"
	"shipscore/scraper/itunes"
	"shipscore/scraper/playstore"
	"shipscore/services"
	"shipscore/storage"
	"shipscore/utils"
)

// pipeline is everything a command needs to analyze apps.
type pipeline struct {
	analyzer *services.Analyzer
	store    storage.GalleryStore
	cleanup  []func()
}

// Close drains pending gallery saves, then releases the browser and store.
func (rt *pipeline) Close() {
	if rt.analyzer != nil {
		rt.analyzer.Wait()
	}
	for i := len(rt.cleanup) - 1; i >= 0; i-- {
		rt.cleanup[i]()
	}
}

func loadTuning(cfg *config.Config) (scoring.Tuning, error) {
	if cfg.TuningFile == "" {
		return scoring.DefaultTuning(), nil
	}
	return scoring.LoadTuning(cfg.TuningFile)
}

// openStore opens the configured gallery backend.
func openStore(ctx context.Context, cfg *config.Config, logger *utils.Logger) (storage.GalleryStore, error) {
	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s gallery: %w", cfg.Store, err)
	}
	return store, nil
}

// newPipeline wires the fetchers, the scoring engine and (when save is set)
// the gallery store into an Analyzer.
func newPipeline(ctx context.Context, cfg *config.Config, logger *utils.Logger, save bool) (*pipeline, error) {
	rt := &pipeline{}

	tuning, err := loadTuning(cfg)
	if err != nil {
		return nil, err
	}
	engine := scoring.NewEngine(tuning, time.Now)

	client := scraper.NewClient(cfg.UserAgent, cfg.RequestTimeout)

	var playFetcher scraper.PageFetcher = client
	if cfg.UseBrowser {
		renderer, err := browser.New(browser.Options{
			ChromeBin: cfg.ChromeBin,
			UserAgent: cfg.UserAgent,
			Wait:      cfg.BrowserWait,
			Timeout:   cfg.RequestTimeout + cfg.BrowserWait,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("start browser: %w", err)
		}
		rt.cleanup = append(rt.cleanup, renderer.Close)
		playFetcher = renderer
	}

	sources := services.Sources{
		AppStorePage:   appstore.New(client, cfg.AppStoreURL, cfg.Country, logger),
		AppStoreLookup: itunes.New(client, cfg.LookupURL, cfg.Country, logger),
		GooglePlay:     playstore.New(playFetcher, cfg.PlayStoreURL, logger),
	}

	var gallery services.GallerySaver
	if save {
		store, err := openStore(ctx, cfg, logger)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.store = store
		rt.cleanup = append(rt.cleanup, func() {
			if err := store.Close(); err != nil {
				logger.Warn("[cmd] closing gallery: %v", err)
			}
		})
		gallery = store
	}

	rt.analyzer = services.NewAnalyzer(sources, engine, gallery, cfg.SaveTimeout, logger)
	return rt, nil
}
