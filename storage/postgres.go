package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"shipscore/utils"
)

var postgresDialect = dialect{
	name: "postgres",
	schema: `
		CREATE TABLE IF NOT EXISTS gallery_entries (
			seq                 BIGSERIAL PRIMARY KEY,
			app_id              TEXT             UNIQUE NOT NULL,
			platform            VARCHAR(20)      NOT NULL,
			slug                TEXT             NOT NULL,
			app_name            TEXT             NOT NULL DEFAULT '',
			app_icon            TEXT             NOT NULL DEFAULT '',
			developer           TEXT             NOT NULL DEFAULT '',
			overall_score       INTEGER          NOT NULL DEFAULT 0,
			grade               VARCHAR(4)       NOT NULL DEFAULT '',
			dimensions          TEXT             NOT NULL DEFAULT '[]',
			improvements        TEXT             NOT NULL DEFAULT '[]',
			scanned_at          TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
			track_view_url      TEXT             NOT NULL DEFAULT '',
			average_user_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			user_rating_count   BIGINT           NOT NULL DEFAULT 0,
			primary_genre       TEXT             NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_gallery_slug     ON gallery_entries(slug);
		CREATE INDEX IF NOT EXISTS idx_gallery_platform ON gallery_entries(platform);
		CREATE INDEX IF NOT EXISTS idx_gallery_score    ON gallery_entries(overall_score);
	`,
	lock:       `LOCK TABLE gallery_entries IN SHARE ROW EXCLUSIVE MODE`,
	numbered:   true,
	encodeTime: func(t time.Time) any { return t.UTC() },
}

// OpenPostgres connects to PostgreSQL, waiting for the server with retry,
// runs the schema migration and returns a ready store.
func OpenPostgres(ctx context.Context, dsn string, retry *utils.RetryConfig, logger *utils.Logger) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1, Logger: logger}
	}
	if err := retry.Do(ctx, "postgres ping", func() error {
		return db.PingContext(ctx)
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	store, err := newSQLStore(ctx, db, postgresDialect, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("[storage] connected to PostgreSQL gallery")
	return store, nil
}
