package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"shipscore/utils"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: `
		CREATE TABLE IF NOT EXISTS gallery_entries (
			seq                 INTEGER PRIMARY KEY AUTOINCREMENT,
			app_id              TEXT    NOT NULL UNIQUE,
			platform            TEXT    NOT NULL,
			slug                TEXT    NOT NULL,
			app_name            TEXT    NOT NULL DEFAULT '',
			app_icon            TEXT    NOT NULL DEFAULT '',
			developer           TEXT    NOT NULL DEFAULT '',
			overall_score       INTEGER NOT NULL DEFAULT 0,
			grade               TEXT    NOT NULL DEFAULT '',
			dimensions          TEXT    NOT NULL DEFAULT '[]',
			improvements        TEXT    NOT NULL DEFAULT '[]',
			scanned_at          TEXT    NOT NULL,
			track_view_url      TEXT    NOT NULL DEFAULT '',
			average_user_rating REAL    NOT NULL DEFAULT 0,
			user_rating_count   INTEGER NOT NULL DEFAULT 0,
			primary_genre       TEXT    NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_gallery_slug ON gallery_entries(slug);
	`,
	encodeTime: func(t time.Time) any { return t.UTC().Format(time.RFC3339Nano) },
}

// OpenSQLite opens (creating if needed) the SQLite gallery at path. Use
// ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string, logger *utils.Logger) (*SQLStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// one connection: writes are serialised and an in-memory database is
	// shared by every query
	db.SetMaxOpenConns(1)

	store, err := newSQLStore(ctx, db, sqliteDialect, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("[storage] sqlite gallery ready at %s", path)
	return store, nil
}
