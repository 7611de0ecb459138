// Package scoring turns a canonical app record into a weighted,
// multi-dimension launch-readiness report.
package scoring

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"shipscore/models"
)

const maxImprovements = 3

// Engine scores app records. It does no I/O; the clock is the only input
// besides the record.
type Engine struct {
	tuning Tuning
	now    func() time.Time
}

// NewEngine creates an Engine. A nil now uses time.Now.
func NewEngine(t Tuning, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	t.Grades = slices.Clone(t.Grades)
	slices.SortStableFunc(t.Grades, func(a, b GradeBand) int {
		return cmp.Compare(b.Min, a.Min)
	})
	return &Engine{tuning: t, now: now}
}

// Score computes every dimension, the overall score, the grade and the top
// improvements for app.
func (e *Engine) Score(app *models.AppRecord) *models.ScoreReport {
	dims := make([]models.DimensionScore, 0, len(dimensions))
	for _, d := range dimensions {
		score, tip, details := d.score(e, app)
		dims = append(dims, models.DimensionScore{
			Key:      d.key,
			Name:     d.name,
			Score:    clamp(score, 0, dimensionMax),
			MaxScore: dimensionMax,
			Tip:      tip,
			Details:  details,
		})
	}

	overall := e.Overall(dims)
	return &models.ScoreReport{
		AppName:         app.TrackName,
		AppIcon:         app.ArtworkURL,
		Developer:       app.ArtistName,
		OverallScore:    overall,
		Grade:           e.Grade(overall),
		Dimensions:      dims,
		TopImprovements: e.TopImprovements(dims),
	}
}

// Overall is round(100 * sum(ratio*weight) / sum(weight)) over dims.
// Dimensions without a weight count for nothing.
func (e *Engine) Overall(dims []models.DimensionScore) int {
	var weighted, total float64
	for _, d := range dims {
		w := e.tuning.Weights[d.Key]
		weighted += d.Ratio() * w
		total += w
	}
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * weighted / total))
}

// Grade maps an overall score to its letter grade.
func (e *Engine) Grade(score int) string {
	for _, band := range e.tuning.Grades {
		if score >= band.Min {
			return band.Grade
		}
	}
	return e.tuning.FailingGrade
}

// TopImprovements orders dimensions by weighted shortfall, (ratio-1)*weight
// ascending, so a weak dimension with a high weight comes before an equally
// weak one with a low weight. Ties keep dimension order.
func (e *Engine) TopImprovements(dims []models.DimensionScore) []string {
	ranked := slices.Clone(dims)
	slices.SortStableFunc(ranked, func(a, b models.DimensionScore) int {
		return cmp.Compare(e.shortfall(a), e.shortfall(b))
	})

	n := min(maxImprovements, len(ranked))
	out := make([]string, 0, n)
	for _, d := range ranked[:n] {
		if d.Tip != "" {
			out = append(out, d.Tip)
		} else {
			out = append(out, fmt.Sprintf("Improve your %s score.", d.Name))
		}
	}
	return out
}

func (e *Engine) shortfall(d models.DimensionScore) float64 {
	return (d.Ratio() - 1) * e.tuning.Weights[d.Key]
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
