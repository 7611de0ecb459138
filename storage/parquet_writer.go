package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"shipscore/models"
)

// GalleryRow is the flat Parquet form of a gallery entry. Dimensions are
// kept as their JSON encoding so the schema does not depend on tuning.
type GalleryRow struct {
	AppID             string    `parquet:"app_id,snappy"`
	Platform          string    `parquet:"platform,snappy,dict"`
	Slug              string    `parquet:"slug,snappy"`
	AppName           string    `parquet:"app_name,snappy"`
	Developer         string    `parquet:"developer,snappy"`
	OverallScore      int32     `parquet:"overall_score,snappy"`
	Grade             string    `parquet:"grade,snappy,dict"`
	AverageUserRating float64   `parquet:"average_user_rating,snappy"`
	UserRatingCount   int64     `parquet:"user_rating_count,snappy"`
	PrimaryGenre      string    `parquet:"primary_genre,snappy,dict"`
	TrackViewURL      string    `parquet:"track_view_url,snappy"`
	ScannedAt         time.Time `parquet:"scanned_at,snappy"`
	TopImprovements   string    `parquet:"top_improvements,snappy"`
	Dimensions        string    `parquet:"dimensions,snappy"`
}

// ToGalleryRow flattens e.
func ToGalleryRow(e *models.GalleryEntry) (GalleryRow, error) {
	dims, err := json.Marshal(e.Dimensions)
	if err != nil {
		return GalleryRow{}, fmt.Errorf("encode dimensions for %s: %w", e.AppID, err)
	}
	return GalleryRow{
		AppID:             e.AppID,
		Platform:          string(e.Platform),
		Slug:              e.Slug,
		AppName:           e.AppName,
		Developer:         e.Developer,
		OverallScore:      int32(e.OverallScore),
		Grade:             e.Grade,
		AverageUserRating: e.AverageUserRating,
		UserRatingCount:   e.UserRatingCount,
		PrimaryGenre:      e.PrimaryGenreName,
		TrackViewURL:      e.TrackViewURL,
		ScannedAt:         e.ScannedAt.UTC(),
		TopImprovements:   strings.Join(e.TopImprovements, " | "),
		Dimensions:        string(dims),
	}, nil
}

// ParquetWriter exports gallery entries to a Parquet file.
type ParquetWriter struct {
	file   *os.File
	writer *parquet.GenericWriter[GalleryRow]
}

// NewParquetWriter creates (or truncates) the Parquet file at path.
func NewParquetWriter(path string) (*ParquetWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("parquet: create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("parquet: create file %q: %w", path, err)
	}
	return &ParquetWriter{file: f, writer: parquet.NewGenericWriter[GalleryRow](f)}, nil
}

func (p *ParquetWriter) Write(entries []*models.GalleryEntry) error {
	rows := make([]GalleryRow, 0, len(entries))
	for _, e := range entries {
		row, err := ToGalleryRow(e)
		if err != nil {
			return fmt.Errorf("parquet: %w", err)
		}
		rows = append(rows, row)
	}
	if _, err := p.writer.Write(rows); err != nil {
		return fmt.Errorf("parquet: write rows: %w", err)
	}
	return nil
}

// Close writes the footer and closes the file.
func (p *ParquetWriter) Close() error {
	if err := p.writer.Close(); err != nil {
		_ = p.file.Close()
		return fmt.Errorf("parquet: close writer: %w", err)
	}
	return p.file.Close()
}
