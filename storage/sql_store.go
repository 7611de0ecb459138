package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"shipscore/models"
	"shipscore/utils"
)

// dialect holds the few statements that differ between SQL backends.
type dialect struct {
	name   string
	schema string
	// lock serialises slug assignment inside an upsert transaction.
	lock       string
	numbered   bool
	encodeTime func(time.Time) any
}

// SQLStore is a GalleryStore over database/sql. Queries are written with "?"
// placeholders and rebound for dialects that number them.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  *utils.Logger
}

const entryColumns = `app_id, platform, slug, app_name, app_icon, developer,
	overall_score, grade, dimensions, improvements, scanned_at,
	track_view_url, average_user_rating, user_rating_count, primary_genre`

func newSQLStore(ctx context.Context, db *sql.DB, d dialect, logger *utils.Logger) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: d, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", d.name, err)
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(s.dialect.schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites "?" placeholders as $1, $2, ... when the dialect needs it.
func (s *SQLStore) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Upsert inserts entry or replaces the stored entry with the same app id.
// The row keeps its original insertion sequence, so list order is stable.
func (s *SQLStore) Upsert(ctx context.Context, entry *models.GalleryEntry) (*models.GalleryEntry, error) {
	if entry == nil || entry.AppID == "" {
		return nil, fmt.Errorf("%s: upsert: entry has no app id", s.dialect.name)
	}

	dims, err := json.Marshal(entry.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("%s: encode dimensions: %w", s.dialect.name, err)
	}
	improvements, err := json.Marshal(entry.TopImprovements)
	if err != nil {
		return nil, fmt.Errorf("%s: encode improvements: %w", s.dialect.name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", s.dialect.name, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if s.dialect.lock != "" {
		if _, err := tx.ExecContext(ctx, s.dialect.lock); err != nil {
			return nil, fmt.Errorf("%s: lock: %w", s.dialect.name, err)
		}
	}

	slug, err := assignSlug(entry.AppName, entry.AppID, func(slug string) (string, bool, error) {
		var holder string
		err := tx.QueryRowContext(ctx,
			s.rebind(`SELECT app_id FROM gallery_entries WHERE slug = ? AND app_id <> ? LIMIT 1`),
			slug, entry.AppID,
		).Scan(&holder)
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return holder, true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: assign slug: %w", s.dialect.name, err)
	}

	stored := *entry
	stored.Slug = slug
	stored.ScannedAt = entry.ScannedAt.UTC()

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO gallery_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (app_id) DO UPDATE SET
			platform            = excluded.platform,
			slug                = excluded.slug,
			app_name            = excluded.app_name,
			app_icon            = excluded.app_icon,
			developer           = excluded.developer,
			overall_score       = excluded.overall_score,
			grade               = excluded.grade,
			dimensions          = excluded.dimensions,
			improvements        = excluded.improvements,
			scanned_at          = excluded.scanned_at,
			track_view_url      = excluded.track_view_url,
			average_user_rating = excluded.average_user_rating,
			user_rating_count   = excluded.user_rating_count,
			primary_genre       = excluded.primary_genre`),
		stored.AppID, string(stored.Platform), stored.Slug, stored.AppName, stored.AppIcon,
		stored.Developer, stored.OverallScore, stored.Grade, string(dims), string(improvements),
		s.dialect.encodeTime(stored.ScannedAt), stored.TrackViewURL, stored.AverageUserRating,
		stored.UserRatingCount, stored.PrimaryGenreName,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: upsert %s: %w", s.dialect.name, stored.AppID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", s.dialect.name, err)
	}
	return &stored, nil
}

func (s *SQLStore) FindByAppID(ctx context.Context, appID string) (*models.GalleryEntry, error) {
	return s.findOne(ctx, "app_id", appID)
}

func (s *SQLStore) FindBySlug(ctx context.Context, slug string) (*models.GalleryEntry, error) {
	return s.findOne(ctx, "slug", slug)
}

func (s *SQLStore) findOne(ctx context.Context, column, value string) (*models.GalleryEntry, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+entryColumns+` FROM gallery_entries WHERE `+column+` = ? ORDER BY seq LIMIT 1`), value)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: find by %s: %w", s.dialect.name, column, err)
	}
	return e, nil
}

func (s *SQLStore) List(ctx context.Context) ([]*models.GalleryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM gallery_entries ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: list: %w", s.dialect.name, err)
	}
	defer rows.Close()

	entries := make([]*models.GalleryEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", s.dialect.name, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.GalleryEntry, error) {
	var (
		e            models.GalleryEntry
		platform     string
		dims         string
		improvements string
		scannedAt    any
	)
	err := row.Scan(&e.AppID, &platform, &e.Slug, &e.AppName, &e.AppIcon, &e.Developer,
		&e.OverallScore, &e.Grade, &dims, &improvements, &scannedAt,
		&e.TrackViewURL, &e.AverageUserRating, &e.UserRatingCount, &e.PrimaryGenreName)
	if err != nil {
		return nil, err
	}

	e.Platform = models.Platform(platform)
	if err := json.Unmarshal([]byte(dims), &e.Dimensions); err != nil {
		return nil, fmt.Errorf("decode dimensions for %s: %w", e.AppID, err)
	}
	if err := json.Unmarshal([]byte(improvements), &e.TopImprovements); err != nil {
		return nil, fmt.Errorf("decode improvements for %s: %w", e.AppID, err)
	}
	if e.ScannedAt, err = decodeTime(scannedAt); err != nil {
		return nil, fmt.Errorf("decode scanned_at for %s: %w", e.AppID, err)
	}
	return &e, nil
}

// decodeTime accepts the native time value Postgres returns and the text
// form SQLite stores.
func decodeTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return time.Parse(time.RFC3339Nano, t)
	case []byte:
		return time.Parse(time.RFC3339Nano, string(t))
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unexpected type %T", v)
	}
}
