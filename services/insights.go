package services

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"shipscore/models"
	"shipscore/utils"
)

const topScoredCount = 5

var (
	headingColor = color.New(color.FgMagenta, color.Bold)
	sectionColor = color.New(color.FgYellow, color.Bold)
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes gallery-wide statistics.
func (s *InsightService) Generate(entries []*models.GalleryEntry) *models.GalleryInsights {
	report := &models.GalleryInsights{
		GradeDistribution: make(map[string]int),
		AppsByGenre:       make(map[string]int),
		WeakestDimensions: make(map[string]float64),
	}

	if len(entries) == 0 {
		return report
	}

	report.TotalApps = len(entries)
	report.MinScore = entries[0].OverallScore
	report.MaxScore = entries[0].OverallScore
	report.Highest = entries[0]

	var total int
	ratioSums := make(map[string]float64)
	ratioCounts := make(map[string]int)

	for _, e := range entries {
		switch e.Platform {
		case models.PlatformAppStore:
			report.AppStoreApps++
		case models.PlatformGooglePlay:
			report.GooglePlayApps++
		}

		total += e.OverallScore
		if e.OverallScore < report.MinScore {
			report.MinScore = e.OverallScore
		}
		if e.OverallScore > report.MaxScore {
			report.MaxScore = e.OverallScore
			report.Highest = e
		}

		report.GradeDistribution[e.Grade]++
		if e.PrimaryGenreName != "" {
			report.AppsByGenre[e.PrimaryGenreName]++
		}

		for _, d := range e.Dimensions {
			ratioSums[d.Name] += d.Ratio()
			ratioCounts[d.Name]++
		}
	}

	report.AverageScore = round2(float64(total) / float64(len(entries)))
	for name, sum := range ratioSums {
		report.WeakestDimensions[name] = round2(100 * sum / float64(ratioCounts[name]))
	}

	// Top 5 by score; ties keep gallery order
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b *models.GalleryEntry) int {
		return cmp.Compare(b.OverallScore, a.OverallScore)
	})
	report.TopScored = sorted[:min(topScoredCount, len(sorted))]

	s.logger.Debug("[insights] %d apps, average %.2f", report.TotalApps, report.AverageScore)
	return report
}

// Print renders the insights as tables on w.
func (s *InsightService) Print(w io.Writer, r *models.GalleryInsights) {
	sep := strings.Repeat("═", 54)

	fmt.Fprintln(w)
	headingColor.Fprintln(w, sep)
	headingColor.Fprintln(w, "  SHIPSCORE GALLERY INSIGHTS")
	headingColor.Fprintln(w, sep)
	fmt.Fprintln(w)

	overview := newTable(w)
	overview.SetTitle("Overview")
	overview.AppendRows([]table.Row{
		{"Apps scored", r.TotalApps},
		{"App Store", r.AppStoreApps},
		{"Google Play", r.GooglePlayApps},
	})
	if r.TotalApps > 0 {
		overview.AppendRows([]table.Row{
			{"Average score", fmt.Sprintf("%.2f", r.AverageScore)},
			{"Lowest score", r.MinScore},
			{"Highest score", r.MaxScore},
		})
	}
	overview.Render()
	fmt.Fprintln(w)

	if r.Highest != nil {
		sectionColor.Fprintln(w, "  Best In Gallery")
		fmt.Fprintf(w, "  %s by %s: %d (%s)\n\n",
			truncate(r.Highest.AppName, 40), r.Highest.Developer, r.Highest.OverallScore, GradeColor(r.Highest.Grade))
	}

	top := newTable(w)
	top.SetTitle(fmt.Sprintf("Top %d Scores", topScoredCount))
	top.AppendHeader(table.Row{"#", "App", "Platform", "Score", "Grade"})
	for i, e := range r.TopScored {
		top.AppendRow(table.Row{i + 1, truncate(e.AppName, 38), e.Platform, e.OverallScore, GradeColor(e.Grade)})
	}
	top.Render()
	fmt.Fprintln(w)

	grades := newTable(w)
	grades.SetTitle("Grade Distribution")
	for _, g := range []string{"A+", "A", "B", "C", "D", "F"} {
		if n := r.GradeDistribution[g]; n > 0 {
			grades.AppendRow(table.Row{GradeColor(g), strings.Repeat("█", n), n})
		}
	}
	grades.Render()
	fmt.Fprintln(w)

	if len(r.AppsByGenre) > 0 {
		genres := newTable(w)
		genres.SetTitle("Apps by Genre")
		for _, kv := range sortedCounts(r.AppsByGenre) {
			genres.AppendRow(table.Row{truncate(kv.key, 28), kv.count})
		}
		genres.Render()
		fmt.Fprintln(w)
	}

	if len(r.WeakestDimensions) > 0 {
		dims := newTable(w)
		dims.SetTitle("Average Dimension Score (% of max)")
		names := make([]string, 0, len(r.WeakestDimensions))
		for name := range r.WeakestDimensions {
			names = append(names, name)
		}
		slices.SortFunc(names, func(a, b string) int {
			return cmp.Or(cmp.Compare(r.WeakestDimensions[a], r.WeakestDimensions[b]), cmp.Compare(a, b))
		})
		for _, name := range names {
			dims.AppendRow(table.Row{name, fmt.Sprintf("%.1f", r.WeakestDimensions[name])})
		}
		dims.Render()
	}

	fmt.Fprintln(w)
	headingColor.Fprintln(w, sep)
}

// GradeColor colours a letter grade for terminal output.
func GradeColor(grade string) string {
	switch grade {
	case "A+", "A":
		return color.New(color.FgGreen, color.Bold).Sprint(grade)
	case "B":
		return color.New(color.FgBlue, color.Bold).Sprint(grade)
	case "C":
		return color.New(color.FgYellow).Sprint(grade)
	default:
		return color.New(color.FgRed, color.Bold).Sprint(grade)
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

type keyCount struct {
	key   string
	count int
}

// sortedCounts orders a count map by count descending, then key.
func sortedCounts(m map[string]int) []keyCount {
	out := make([]keyCount, 0, len(m))
	for k, v := range m {
		out = append(out, keyCount{k, v})
	}
	slices.SortFunc(out, func(a, b keyCount) int {
		return cmp.Or(cmp.Compare(b.count, a.count), cmp.Compare(a.key, b.key))
	})
	return out
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
