package storage

import (
	"context"
	"errors"

	"shipscore/models"
)

// ErrNotFound is returned when no gallery entry matches a lookup.
var ErrNotFound = errors.New("storage: not found")

// GalleryStore is the interface any gallery backend must satisfy.
//
// Upsert is keyed by app id: it assigns the entry's slug, inserts it or
// replaces the existing entry in place, and returns the stored copy.
type GalleryStore interface {
	Upsert(ctx context.Context, entry *models.GalleryEntry) (*models.GalleryEntry, error)
	FindByAppID(ctx context.Context, appID string) (*models.GalleryEntry, error)
	FindBySlug(ctx context.Context, slug string) (*models.GalleryEntry, error)
	// List returns every entry, newest first by first insertion.
	List(ctx context.Context) ([]*models.GalleryEntry, error)
	Close() error
}

// GalleryExporter writes gallery entries to an export file.
type GalleryExporter interface {
	Write(entries []*models.GalleryEntry) error
	Close() error
}
