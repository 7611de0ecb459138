package services

import (
	"bytes"
	"strings"
	"testing"

	"shipscore/models"
)

func dims(aso, legal float64) []models.DimensionScore {
	return []models.DimensionScore{
		{Key: "aso", Name: "ASO", Score: aso, MaxScore: 10},
		{Key: "legal", Name: "Legal", Score: legal, MaxScore: 10},
	}
}

func sampleEntries() []*models.GalleryEntry {
	return []*models.GalleryEntry{
		{AppID: "1", Platform: models.PlatformAppStore, AppName: "Alpha", OverallScore: 88, Grade: "A", PrimaryGenreName: "Productivity", Dimensions: dims(8, 2)},
		{AppID: "2", Platform: models.PlatformAppStore, AppName: "Bravo", OverallScore: 95, Grade: "A+", PrimaryGenreName: "Games", Dimensions: dims(10, 4)},
		{AppID: "com.c", Platform: models.PlatformGooglePlay, AppName: "Charlie", OverallScore: 52, Grade: "F", PrimaryGenreName: "Games", Dimensions: dims(6, 0)},
		{AppID: "com.d", Platform: models.PlatformGooglePlay, AppName: "Delta", OverallScore: 70, Grade: "C", Dimensions: dims(4, 6)},
		{AppID: "5", Platform: models.PlatformAppStore, AppName: "Echo", OverallScore: 70, Grade: "C", PrimaryGenreName: "Games", Dimensions: dims(2, 8)},
		{AppID: "6", Platform: models.PlatformAppStore, AppName: "Foxtrot", OverallScore: 60, Grade: "D", PrimaryGenreName: "Finance", Dimensions: dims(0, 0)},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleEntries())
	if r.TotalApps != 6 {
		t.Errorf("TotalApps: got %d, want 6", r.TotalApps)
	}
	if r.AppStoreApps != 4 {
		t.Errorf("AppStoreApps: got %d, want 4", r.AppStoreApps)
	}
	if r.GooglePlayApps != 2 {
		t.Errorf("GooglePlayApps: got %d, want 2", r.GooglePlayApps)
	}
	if r.AppsByGenre["Games"] != 3 {
		t.Errorf("Games: got %d, want 3", r.AppsByGenre["Games"])
	}
	if r.GradeDistribution["C"] != 2 {
		t.Errorf("grade C: got %d, want 2", r.GradeDistribution["C"])
	}
}

func TestInsightScores(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleEntries())
	if r.AverageScore != 72.5 {
		t.Errorf("AverageScore: got %.2f, want 72.50", r.AverageScore)
	}
	if r.MinScore != 52 || r.MaxScore != 95 {
		t.Errorf("score range: got %d-%d, want 52-95", r.MinScore, r.MaxScore)
	}
	if r.Highest == nil || r.Highest.AppName != "Bravo" {
		t.Errorf("Highest: got %+v, want Bravo", r.Highest)
	}
}

func TestInsightTopScored(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleEntries())
	if len(r.TopScored) != 5 {
		t.Fatalf("TopScored: got %d, want 5", len(r.TopScored))
	}
	want := []string{"Bravo", "Alpha", "Delta", "Echo", "Foxtrot"}
	for i, name := range want {
		if r.TopScored[i].AppName != name {
			t.Errorf("TopScored[%d]: got %s, want %s", i, r.TopScored[i].AppName, name)
		}
	}
}

func TestInsightDimensionAverages(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleEntries())
	if got := r.WeakestDimensions["ASO"]; got != 50 {
		t.Errorf("ASO average: got %.2f, want 50", got)
	}
	if got := r.WeakestDimensions["Legal"]; got != 33.33 {
		t.Errorf("Legal average: got %.2f, want 33.33", got)
	}
}

func TestInsightEmpty(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(nil)
	if r.TotalApps != 0 || r.Highest != nil || len(r.TopScored) != 0 {
		t.Errorf("unexpected report for empty gallery: %+v", r)
	}

	var buf bytes.Buffer
	svc.Print(&buf, r)
	if !strings.Contains(buf.String(), "GALLERY INSIGHTS") {
		t.Errorf("Print output missing heading:\n%s", buf.String())
	}
}

func TestInsightPrint(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	var buf bytes.Buffer
	svc.Print(&buf, svc.Generate(sampleEntries()))

	out := buf.String()
	for _, want := range []string{"Bravo", "Games", "Legal", "72.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("Print output missing %q", want)
		}
	}
}
