package scoring

import (
	_ "embed"
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

//go:embed tuning.json5
var defaultTuningFile []byte

// Step awards Points once a value reaches At.
type Step struct {
	At     float64 `json:"at"`
	Points float64 `json:"points"`
}

// Ladder is an ordered list of steps; the first matching step wins and
// Otherwise applies when none match.
type Ladder struct {
	Steps     []Step  `json:"steps"`
	Otherwise float64 `json:"otherwise"`
}

// AtLeast scores v against steps read as lower bounds.
func (l Ladder) AtLeast(v float64) float64 {
	for _, s := range l.Steps {
		if v >= s.At {
			return s.Points
		}
	}
	return l.Otherwise
}

// AtMost scores v against steps read as upper bounds.
func (l Ladder) AtMost(v float64) float64 {
	for _, s := range l.Steps {
		if v <= s.At {
			return s.Points
		}
	}
	return l.Otherwise
}

// GradeBand maps an inclusive lower score bound to a letter grade.
type GradeBand struct {
	Min   int    `json:"min"`
	Grade string `json:"grade"`
}

type ASOTuning struct {
	TitleMin    int     `json:"titleMin"`
	TitleMax    int     `json:"titleMax"`
	TitleIdeal  float64 `json:"titleIdeal"`
	TitleOther  float64 `json:"titleOther"`
	Description Ladder  `json:"description"`
	Paragraphs  float64 `json:"paragraphs"`
	Genres      Ladder  `json:"genres"`
}

type ScreenshotTuning struct {
	Phone        Ladder  `json:"phone"`
	Tablet       Ladder  `json:"tablet"`
	VarietyAt    int     `json:"varietyAt"`
	VarietyBonus float64 `json:"varietyBonus"`
}

type PricingTuning struct {
	Price          Ladder  `json:"price"`
	FormattedPrice float64 `json:"formattedPrice"`
}

type ReviewTuning struct {
	Rating Ladder `json:"rating"`
	Volume Ladder `json:"volume"`
}

type UpdateTuning struct {
	Recency            Ladder  `json:"recency"`
	DetailedNotesChars int     `json:"detailedNotesChars"`
	DetailedNotes      float64 `json:"detailedNotes"`
	BriefNotes         float64 `json:"briefNotes"`
	MatureMajorVersion int     `json:"matureMajorVersion"`
	MatureBonus        float64 `json:"matureBonus"`
}

type AccessibilityTuning struct {
	Languages          Ladder             `json:"languages"`
	Devices            Ladder             `json:"devices"`
	ContentRatings     map[string]float64 `json:"contentRatings"`
	OtherContentRating float64            `json:"otherContentRating"`
}

type PrivacyTuning struct {
	Base            float64  `json:"base"`
	Sensitive       float64  `json:"sensitive"`
	SensitiveGenres []string `json:"sensitiveGenres"`
	AdvisoryPenalty float64  `json:"advisoryPenalty"`
	Floor           float64  `json:"floor"`
	NoDataCollected float64  `json:"noDataCollected"`
	Labels          Ladder   `json:"labels"`
}

type LegalTuning struct {
	SellerURL             float64 `json:"sellerURL"`
	AdvisoryRating        float64 `json:"advisoryRating"`
	DeveloperName         float64 `json:"developerName"`
	DeveloperNameMinChars int     `json:"developerNameMinChars"`
}

type CategoryTuning struct {
	Volume Ladder `json:"volume"`
	Rating Ladder `json:"rating"`
	Genres Ladder `json:"genres"`
}

type IdentityTuning struct {
	Icon         float64 `json:"icon"`
	HiResIcon    float64 `json:"hiResIcon"`
	HiResMarker  string  `json:"hiResMarker"`
	Developer    float64 `json:"developer"`
	DistinctName float64 `json:"distinctName"`
	NameMinChars int     `json:"nameMinChars"`
}

// Tuning holds every weight, grade band and bucket threshold the engine
// uses.
type Tuning struct {
	Weights      map[string]float64 `json:"weights"`
	Grades       []GradeBand        `json:"grades"`
	FailingGrade string             `json:"failingGrade"`

	ASO           ASOTuning           `json:"aso"`
	Screenshots   ScreenshotTuning    `json:"screenshots"`
	Pricing       PricingTuning       `json:"pricing"`
	Reviews       ReviewTuning        `json:"reviews"`
	Updates       UpdateTuning        `json:"updates"`
	Accessibility AccessibilityTuning `json:"accessibility"`
	Privacy       PrivacyTuning       `json:"privacy"`
	Legal         LegalTuning         `json:"legal"`
	Category      CategoryTuning      `json:"category"`
	Identity      IdentityTuning      `json:"identity"`
}

// DefaultTuning returns a fresh copy of the built-in constants.
func DefaultTuning() Tuning {
	var t Tuning
	if err := json5.Unmarshal(defaultTuningFile, &t); err != nil {
		panic(fmt.Sprintf("scoring: built-in tuning: %v", err))
	}
	return t
}

// LoadTuning reads a JSON5 file and merges it over the defaults. An empty
// path returns the defaults. Weights are copied as given, so a dimension can
// be switched off with 0; any other zero in the file leaves the default in
// place.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("scoring: read tuning: %w", err)
	}

	var override Tuning
	if err := json5.Unmarshal(data, &override); err != nil {
		return t, fmt.Errorf("scoring: parse tuning %s: %w", path, err)
	}
	if err := mergo.Merge(&t, override, mergo.WithOverride); err != nil {
		return t, fmt.Errorf("scoring: merge tuning: %w", err)
	}
	// mergo skips zero map values
	for key, w := range override.Weights {
		t.Weights[key] = w
	}

	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// Validate checks that every dimension has a non-negative weight and that at
// least one weight is positive.
func (t Tuning) Validate() error {
	var sum float64
	for _, d := range dimensions {
		w, ok := t.Weights[d.key]
		if !ok {
			return fmt.Errorf("scoring: no weight for dimension %q", d.key)
		}
		if w < 0 {
			return fmt.Errorf("scoring: negative weight %v for dimension %q", w, d.key)
		}
		sum += w
	}
	if sum <= 0 {
		return fmt.Errorf("scoring: weights sum to %v", sum)
	}
	return nil
}
