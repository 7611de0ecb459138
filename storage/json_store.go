package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"shipscore/models"
	"shipscore/utils"
)

// JSONStore keeps the whole gallery in one JSON array on disk, newest entry
// first. Every operation reads the file, so edits made by another process
// between calls are picked up.
type JSONStore struct {
	mu     sync.Mutex
	path   string
	logger *utils.Logger
}

// OpenJSON returns a store backed by the file at path. The file is created
// on first write.
func OpenJSON(path string, logger *utils.Logger) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("json: create data dir: %w", err)
	}
	return &JSONStore{path: path, logger: logger}, nil
}

func (s *JSONStore) Upsert(_ context.Context, entry *models.GalleryEntry) (*models.GalleryEntry, error) {
	if entry == nil || entry.AppID == "" {
		return nil, errors.New("json: upsert: entry has no app id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return nil, err
	}

	slug, err := assignSlug(entry.AppName, entry.AppID, func(slug string) (string, bool, error) {
		for _, e := range entries {
			if e.Slug == slug && e.AppID != entry.AppID {
				return e.AppID, true, nil
			}
		}
		return "", false, nil
	})
	if err != nil {
		return nil, err
	}

	stored := *entry
	stored.Slug = slug
	stored.ScannedAt = entry.ScannedAt.UTC()

	replaced := false
	for i, e := range entries {
		if e.AppID == stored.AppID {
			entries[i] = &stored
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append([]*models.GalleryEntry{&stored}, entries...)
	}

	if err := s.save(entries); err != nil {
		return nil, err
	}
	out := stored
	return &out, nil
}

func (s *JSONStore) FindByAppID(_ context.Context, appID string) (*models.GalleryEntry, error) {
	return s.find(func(e *models.GalleryEntry) bool { return e.AppID == appID })
}

func (s *JSONStore) FindBySlug(_ context.Context, slug string) (*models.GalleryEntry, error) {
	return s.find(func(e *models.GalleryEntry) bool { return e.Slug == slug })
}

func (s *JSONStore) find(match func(*models.GalleryEntry) bool) (*models.GalleryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if match(e) {
			return e, nil
		}
	}
	return nil, ErrNotFound
}

func (s *JSONStore) List(_ context.Context) ([]*models.GalleryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Close is a no-op; the file is not held open between calls.
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) load() ([]*models.GalleryEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make([]*models.GalleryEntry, 0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("json: read %q: %w", s.path, err)
	}

	entries := make([]*models.GalleryEntry, 0)
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("json: decode %q: %w", s.path, err)
	}
	return entries, nil
}

// save writes to a temporary file and renames it over the gallery so a
// crash never leaves a half-written array.
func (s *JSONStore) save(entries []*models.GalleryEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("json: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".gallery-*.json")
	if err != nil {
		return fmt.Errorf("json: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("json: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("json: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("json: replace %q: %w", s.path, err)
	}
	return nil
}
