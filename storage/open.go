package storage

import (
	"context"
	"fmt"
	"time"

	"shipscore/config"
	"shipscore/utils"
)

// Open returns the gallery backend selected by cfg.Store.
func Open(ctx context.Context, cfg *config.Config, logger *utils.Logger) (GalleryStore, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath, logger)
	case config.StorePostgres:
		retry := &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   500 * time.Millisecond,
			Logger:      logger,
		}
		return OpenPostgres(ctx, cfg.DSN(), retry, logger)
	case config.StoreJSON:
		return OpenJSON(cfg.GalleryPath, logger)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Store)
	}
}
