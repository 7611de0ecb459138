package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"shipscore/models"
	"shipscore/services"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	tipColor   = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed)
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// scoreBar draws a ten-cell bar for a 0..max score.
func scoreBar(score, max float64) string {
	if max <= 0 {
		return strings.Repeat("░", 10)
	}
	filled := int(score / max * 10)
	if filled < 0 {
		filled = 0
	}
	if filled > 10 {
		filled = 10
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

// printReport renders one analysis with its dimension breakdown.
func printReport(w io.Writer, r *models.AnalysisResult) {
	fmt.Fprintln(w)
	titleColor.Fprintf(w, "%s", r.AppName)
	fmt.Fprintf(w, "  by %s  [%s, %s]\n", r.Developer, r.Platform, r.Source)
	fmt.Fprintf(w, "Overall: %d/100  Grade: %s\n", r.OverallScore, services.GradeColor(r.Grade))
	if r.Meta.UserRatingCount > 0 {
		fmt.Fprintf(w, "Rating: %.1f from %s ratings  Genre: %s\n",
			r.Meta.AverageUserRating, humanize.Comma(r.Meta.UserRatingCount), r.Meta.PrimaryGenreName)
	}

	printDimensions(w, r.Dimensions)
	printImprovements(w, r.TopImprovements)
}

func printDimensions(w io.Writer, dims []models.DimensionScore) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Dimension", "Score", "", "Details"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 4, WidthMax: 60},
	})
	for _, d := range dims {
		t.AppendRow(table.Row{d.Name, fmt.Sprintf("%.1f/%.0f", d.Score, d.MaxScore), scoreBar(d.Score, d.MaxScore), d.Details})
	}
	t.Render()
}

func printImprovements(w io.Writer, improvements []string) {
	if len(improvements) == 0 {
		return
	}
	fmt.Fprintln(w, "Top improvements:")
	for i, tip := range improvements {
		tipColor.Fprintf(w, "  %d. %s\n", i+1, tip)
	}
}

// analyzeOutcome is one row of a batch analyze run.
type analyzeOutcome struct {
	URL    string
	Result *models.AnalysisResult
	Err    error
}

func printSummary(w io.Writer, outcomes []analyzeOutcome) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "App", "Platform", "Score", "Grade", "Source"})
	for i, o := range outcomes {
		if o.Err != nil {
			t.AppendRow(table.Row{i + 1, o.URL, "", "", "", errColor.Sprint(o.Err.Error())})
			continue
		}
		r := o.Result
		t.AppendRow(table.Row{i + 1, r.AppName, r.Platform, r.OverallScore, services.GradeColor(r.Grade), r.Source})
	}
	t.Render()
}

func printGallery(w io.Writer, entries []*models.GalleryEntry, now time.Time) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Slug", "App", "Platform", "Score", "Grade", "Scanned"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.Slug, e.AppName, e.Platform, e.OverallScore,
			services.GradeColor(e.Grade), humanize.RelTime(e.ScannedAt, now, "ago", "from now"),
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d apps", len(entries))})
	t.Render()
}

func printEntry(w io.Writer, e *models.GalleryEntry) {
	fmt.Fprintln(w)
	titleColor.Fprintf(w, "%s", e.AppName)
	fmt.Fprintf(w, "  by %s  [%s, %s]\n", e.Developer, e.Platform, e.AppID)
	fmt.Fprintf(w, "Overall: %d/100  Grade: %s  Scanned: %s\n",
		e.OverallScore, services.GradeColor(e.Grade), e.ScannedAt.UTC().Format(time.RFC3339))
	if e.TrackViewURL != "" {
		fmt.Fprintf(w, "Store: %s\n", e.TrackViewURL)
	}
	printDimensions(w, e.Dimensions)
	printImprovements(w, e.TopImprovements)
}
