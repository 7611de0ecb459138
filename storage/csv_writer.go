package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"shipscore/models"
)

// CSVWriter exports gallery entries to a CSV file, one row per app with a
// score column per dimension. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	keys   []string
}

// NewCSVWriter creates (or truncates) the CSV file at path and writes the
// header row. dimensionKeys fixes the order of the per-dimension columns.
// Intermediate directories are created automatically.
func NewCSVWriter(path string, dimensionKeys []string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	header := []string{
		"app_id", "platform", "slug", "app_name", "developer", "overall_score", "grade",
		"average_user_rating", "user_rating_count", "primary_genre", "track_view_url",
		"scanned_at", "top_improvements",
	}
	header = append(header, dimensionKeys...)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w, keys: dimensionKeys}, nil
}

// Write appends one row per entry. A dimension an entry lacks is left blank.
func (c *CSVWriter) Write(entries []*models.GalleryEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range entries {
		row := []string{
			e.AppID,
			string(e.Platform),
			e.Slug,
			e.AppName,
			e.Developer,
			strconv.Itoa(e.OverallScore),
			e.Grade,
			strconv.FormatFloat(e.AverageUserRating, 'f', -1, 64),
			strconv.FormatInt(e.UserRatingCount, 10),
			e.PrimaryGenreName,
			e.TrackViewURL,
			e.ScannedAt.UTC().Format(time.RFC3339),
			strings.Join(e.TopImprovements, " | "),
		}

		scores := make(map[string]float64, len(e.Dimensions))
		for _, d := range e.Dimensions {
			scores[d.Key] = d.Score
		}
		for _, key := range c.keys {
			if s, ok := scores[key]; ok {
				row = append(row, strconv.FormatFloat(s, 'f', -1, 64))
			} else {
				row = append(row, "")
			}
		}

		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
