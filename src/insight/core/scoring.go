package core

import (
	"astro-insights/src/helpers"
	"astro-insights/src/models"
	"math"
	"time"
)

// -----------------------------------------------------------------------------
// Scoring constants
// -----------------------------------------------------------------------------

const (
	// ScoreThreshold is the cut below which a scored transit never reaches
	// theme synthesis. Filtering is silent: dropped transits are not errors.
	ScoreThreshold = 40.0

	// Outer planets (Uranus/Neptune/Pluto) carry longer, more significant
	// cycles and get their planet weight multiplied.
	outerPlanetMultiplier = 1.4

	// orbBonusCeiling caps the exactness bonus. The bonus shrinks linearly
	// as the orb widens toward the aspect's maximum allowed orb.
	orbBonusCeiling = 10.0

	// focusAreaBoost is added when the transit's house matches one of the
	// user's declared focus areas.
	focusAreaBoost = 8.0
)

// -----------------------------------------------------------------------------
// Weight tables
// -----------------------------------------------------------------------------

var planetWeights = map[string]float64{
	models.PlanetSun:     10,
	models.PlanetMoon:    9,
	models.PlanetMercury: 6,
	models.PlanetVenus:   6,
	models.PlanetMars:    7,
	models.PlanetJupiter: 8,
	models.PlanetSaturn:  9,
	models.PlanetUranus:  8,
	models.PlanetNeptune: 8,
	models.PlanetPluto:   9,
}

// Natal Sun/Moon and the angles outrank minor points.
var targetWeights = map[string]float64{
	models.PlanetSun:      10,
	models.PlanetMoon:     10,
	models.PointAscendant: 9,
	models.PointMidheaven: 9,
	models.PlanetMercury:  6,
	models.PlanetVenus:    6,
	models.PlanetMars:     6,
	models.PlanetJupiter:  5,
	models.PlanetSaturn:   6,
	models.PlanetUranus:   4,
	models.PlanetNeptune:  4,
	models.PlanetPluto:    4,
}

var aspectWeights = map[string]float64{
	models.AspectConjunction: 10,
	models.AspectOpposition:  9,
	models.AspectSquare:      8,
	models.AspectTrine:       7,
	models.AspectSextile:     5,
	models.AspectQuincunx:    4,
}

// AspectDefinitions holds the exact degree and maximum orb per aspect type.
// Shared by transit orb scoring and synastry aspect detection.
var AspectDefinitions = map[string]struct {
	ExactDegrees float64
	MaxOrb       float64
}{
	models.AspectConjunction: {0, 8},
	models.AspectOpposition:  {180, 8},
	models.AspectTrine:       {120, 8},
	models.AspectSquare:      {90, 7},
	models.AspectSextile:     {60, 6},
	models.AspectQuincunx:    {150, 3},
}

// AspectNature maps an aspect type to its fixed nature.
var AspectNature = map[string]string{
	models.AspectTrine:       models.NatureHarmonious,
	models.AspectSextile:     models.NatureHarmonious,
	models.AspectSquare:      models.NatureChallenging,
	models.AspectOpposition:  models.NatureChallenging,
	models.AspectConjunction: models.NatureNeutral,
	models.AspectQuincunx:    models.NatureNeutral,
}

// FocusAreaHouses maps a user-declared focus area to the houses it covers.
var FocusAreaHouses = map[string][]int{
	"career":        {10, 6},
	"relationships": {7, 11},
	"health":        {6, 1},
	"finances":      {2, 8},
	"creativity":    {5},
	"spirituality":  {12, 9},
	"home_family":   {4},
	"communication": {3},
	"travel_growth": {9},
	"identity":      {1},
}

// maxRawScore is the largest achievable weighted sum, used to normalize
// raw scores onto 0-100.
var maxRawScore = func() float64 {
	maxPlanet := 0.0
	for p, w := range planetWeights {
		if models.OuterPlanets[p] {
			w *= outerPlanetMultiplier
		}
		if w > maxPlanet {
			maxPlanet = w
		}
	}
	maxTarget := 0.0
	for _, w := range targetWeights {
		if w > maxTarget {
			maxTarget = w
		}
	}
	maxAspect := 0.0
	for _, w := range aspectWeights {
		if w > maxAspect {
			maxAspect = w
		}
	}
	return maxPlanet + maxTarget + maxAspect + orbBonusCeiling + focusAreaBoost
}()

// -----------------------------------------------------------------------------
// Transit Scoring Engine
// -----------------------------------------------------------------------------

// ScoreTransit scores one raw transit against one user's chart and
// preferences. Pure and total for well-formed input; unknown enum values
// or a chart missing the natal target fail fast with a ValidationError.
func ScoreTransit(transit models.MTransitSignal, chart *models.MNatalChart, prefs models.MUserPreferences) (models.MScoredTransit, error) {
	planetWeight, ok := planetWeights[transit.TransitingPlanet]
	if !ok {
		return models.MScoredTransit{}, helpers.NewValidationError("unknown transiting planet %q", transit.TransitingPlanet)
	}
	if models.OuterPlanets[transit.TransitingPlanet] {
		planetWeight *= outerPlanetMultiplier
	}

	targetWeight, ok := targetWeights[transit.NatalTarget]
	if !ok {
		return models.MScoredTransit{}, helpers.NewValidationError("unknown natal target %q", transit.NatalTarget)
	}

	aspectWeight, ok := aspectWeights[transit.Aspect]
	if !ok {
		return models.MScoredTransit{}, helpers.NewValidationError("unknown aspect %q", transit.Aspect)
	}

	if chart == nil {
		return models.MScoredTransit{}, helpers.NewValidationError("natal chart is required")
	}
	if _, found := chart.Placement(transit.NatalTarget); !found {
		return models.MScoredTransit{}, helpers.NewValidationError("chart %s is missing natal target %q", chart.ChartID, transit.NatalTarget)
	}

	if transit.OrbDegrees < 0 {
		return models.MScoredTransit{}, helpers.NewValidationError("negative orb %.2f on signal %s", transit.OrbDegrees, transit.SignalID)
	}

	orb := orbScore(transit.Aspect, transit.OrbDegrees)
	house := houseRelevance(transit.TargetHouse, prefs.FocusAreas)

	raw := planetWeight + targetWeight + aspectWeight + orb + house
	score := Clamp(raw/maxRawScore*100.0, 0, 100)

	primary, secondary := DeriveThemes(transit.TransitingPlanet, transit.NatalTarget, transit.Aspect)

	return models.MScoredTransit{
		Transit:         transit,
		Score:           score,
		PrimaryTheme:    primary,
		SecondaryThemes: secondary,
		IntensityCurve:  BuildIntensityCurve(transit, score),
	}, nil
}

// -----------------------------------------------------------------------------

// orbScore is the exactness bonus: full ceiling at orb 0, shrinking
// linearly to 0 at the aspect's maximum allowed orb.
func orbScore(aspect string, orb float64) float64 {
	def := AspectDefinitions[aspect]
	if def.MaxOrb <= 0 || orb >= def.MaxOrb {
		return 0
	}
	return Clamp(orbBonusCeiling*(1.0-orb/def.MaxOrb), 0, orbBonusCeiling)
}

// -----------------------------------------------------------------------------

// houseRelevance returns the focus-area boost when the transit's house
// falls in one of the user's declared focus areas.
func houseRelevance(house int, focusAreas []string) float64 {
	for _, area := range focusAreas {
		for _, h := range FocusAreaHouses[area] {
			if h == house {
				return focusAreaBoost
			}
		}
	}
	return 0
}

// -----------------------------------------------------------------------------

// FilterBelowThreshold drops scored transits under ScoreThreshold. This is
// the engine's only rejection path and it is silent.
func FilterBelowThreshold(scored []models.MScoredTransit) []models.MScoredTransit {
	kept := make([]models.MScoredTransit, 0, len(scored))
	for _, s := range scored {
		if s.Score >= ScoreThreshold {
			kept = append(kept, s)
		}
	}
	return kept
}

// -----------------------------------------------------------------------------
// Math helpers
// -----------------------------------------------------------------------------

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TruncateDay normalizes a time to UTC midnight. All day-granularity
// comparisons in the engine go through this.
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole calendar days from a to b (negative when b is
// earlier).
func DaysBetween(a, b time.Time) int {
	return int(TruncateDay(b).Sub(TruncateDay(a)).Hours() / 24)
}
