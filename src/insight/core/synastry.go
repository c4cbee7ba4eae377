package core

import (
	"astro-insights/src/helpers"
	"astro-insights/src/models"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Synastry Scoring & Synthesis
// -----------------------------------------------------------------------------

const (
	maxSupportiveConnections = 3
	maxFrictionPoints        = 2
	maxPracticalGuidance     = 5

	// orbClosenessCeiling makes exactness the dominant score factor so the
	// score-based selection preserves orb-tightness ordering within a
	// planet-pair class.
	orbClosenessCeiling = 20.0
)

// aspectMatchOrder breaks ties when two definitions match with the same
// deviation.
var aspectMatchOrder = []string{
	models.AspectConjunction,
	models.AspectOpposition,
	models.AspectTrine,
	models.AspectSquare,
	models.AspectSextile,
	models.AspectQuincunx,
}

// synastryNamespace keys deterministic result ids so identical inputs
// produce byte-identical output.
var synastryNamespace = uuid.MustParse("8d1f14a2-90c4-4b27-b86d-2f6d3b1c9a55")

// compatibleElements is the fixed element affinity table.
var compatibleElements = map[string]string{
	models.ElementFire:  models.ElementAir,
	models.ElementAir:   models.ElementFire,
	models.ElementEarth: models.ElementWater,
	models.ElementWater: models.ElementEarth,
}

// -----------------------------------------------------------------------------
// Aspect finding
// -----------------------------------------------------------------------------

// signIndex returns the zodiac position of a sign, or -1 for unknown values.
func signIndex(sign string) int {
	for i, s := range models.ZodiacSigns {
		if s == sign {
			return i
		}
	}
	return -1
}

// -----------------------------------------------------------------------------

// AbsolutePosition converts a placement's sign and degree into an absolute
// 0-360 ecliptic degree.
func AbsolutePosition(p models.MPlacement) (float64, error) {
	idx := signIndex(p.Sign)
	if idx < 0 {
		return 0, helpers.NewValidationError("unknown zodiac sign %q for %s", p.Sign, p.Planet)
	}
	return float64(idx)*30.0 + p.Degree, nil
}

// -----------------------------------------------------------------------------

// angularDifference normalizes the separation between two absolute
// positions to at most 180 degrees.
func angularDifference(a, b float64) float64 {
	diff := math.Mod(math.Abs(a-b), 360.0)
	if diff > 180.0 {
		diff = 360.0 - diff
	}
	return diff
}

// -----------------------------------------------------------------------------

// matchAspect tests an angular separation against every aspect definition
// and returns the tightest-orb match, or false when none applies.
func matchAspect(separation float64) (string, float64, bool) {
	bestAspect := ""
	bestOrb := math.MaxFloat64

	for _, aspect := range aspectMatchOrder {
		def := AspectDefinitions[aspect]
		orb := math.Abs(separation - def.ExactDegrees)
		if aspect == models.AspectConjunction {
			// A separation near 360 wraps back to a conjunction
			orb = math.Min(orb, math.Abs(360.0-separation))
		}
		if orb <= def.MaxOrb && orb < bestOrb {
			bestAspect = aspect
			bestOrb = orb
		}
	}

	if bestAspect == "" {
		return "", 0, false
	}
	return bestAspect, bestOrb, true
}

// -----------------------------------------------------------------------------

// FindSynastryAspects tests every key-planet pair across two charts and
// returns the detected aspects sorted by orb ascending (most exact first).
// A chart missing a key planet is an input-contract violation.
func FindSynastryAspects(chartA, chartB *models.MNatalChart) ([]models.MSynastryAspect, error) {
	if chartA == nil || chartB == nil {
		return nil, helpers.NewValidationError("both charts are required for synastry")
	}

	type position struct {
		planet string
		abs    float64
	}

	keyPositions := func(chart *models.MNatalChart) ([]position, error) {
		positions := make([]position, 0, len(models.KeyPlanets))
		for _, planet := range models.KeyPlanets {
			placement, ok := chart.Placement(planet)
			if !ok {
				return nil, helpers.NewValidationError("chart %s is missing key planet %q", chart.ChartID, planet)
			}
			abs, err := AbsolutePosition(placement)
			if err != nil {
				return nil, err
			}
			positions = append(positions, position{planet: planet, abs: abs})
		}
		return positions, nil
	}

	positionsA, err := keyPositions(chartA)
	if err != nil {
		return nil, err
	}
	positionsB, err := keyPositions(chartB)
	if err != nil {
		return nil, err
	}

	var aspects []models.MSynastryAspect
	for _, pa := range positionsA {
		for _, pb := range positionsB {
			separation := angularDifference(pa.abs, pb.abs)
			aspect, orb, found := matchAspect(separation)
			if !found {
				continue
			}
			aspects = append(aspects, models.MSynastryAspect{
				PlanetA:    pa.planet,
				PlanetB:    pb.planet,
				Aspect:     aspect,
				OrbDegrees: orb,
				Nature:     AspectNature[aspect],
			})
		}
	}

	sort.Slice(aspects, func(i, j int) bool {
		if aspects[i].OrbDegrees != aspects[j].OrbDegrees {
			return aspects[i].OrbDegrees < aspects[j].OrbDegrees
		}
		if aspects[i].PlanetA != aspects[j].PlanetA {
			return planetIndex(aspects[i].PlanetA) < planetIndex(aspects[j].PlanetA)
		}
		return planetIndex(aspects[i].PlanetB) < planetIndex(aspects[j].PlanetB)
	})

	return aspects, nil
}

// -----------------------------------------------------------------------------

func planetIndex(planet string) int {
	for i, p := range models.KeyPlanets {
		if p == planet {
			return i
		}
	}
	return len(models.KeyPlanets)
}

// -----------------------------------------------------------------------------
// Aspect scoring
// -----------------------------------------------------------------------------

// ScoreSynastryAspects scores detected aspects onto 0-100 and assigns the
// selection category. Exactness dominates, so tighter aspects of the same
// pair class always rank higher.
func ScoreSynastryAspects(aspects []models.MSynastryAspect) []models.MScoredSynastryAspect {
	maxRaw := 10.0 + 10.0 + orbClosenessCeiling

	scored := make([]models.MScoredSynastryAspect, 0, len(aspects))
	for _, a := range aspects {
		pairWeight := (planetWeights[a.PlanetA] + planetWeights[a.PlanetB]) / 2.0
		aspectWeight := aspectWeights[a.Aspect]

		closeness := 0.0
		if def := AspectDefinitions[a.Aspect]; def.MaxOrb > 0 {
			closeness = orbClosenessCeiling * (1.0 - a.OrbDegrees/def.MaxOrb)
		}

		category := models.CategoryGrowthLesson
		switch a.Nature {
		case models.NatureHarmonious:
			category = models.CategorySupportive
		case models.NatureChallenging:
			category = models.CategoryFriction
		}

		scored = append(scored, models.MScoredSynastryAspect{
			MSynastryAspect: a,
			Score:           Clamp((pairWeight+aspectWeight+closeness)/maxRaw*100.0, 0, 100),
			Category:        category,
		})
	}

	// Score desc, orb asc, then planet order keeps selection deterministic.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].OrbDegrees != scored[j].OrbDegrees {
			return scored[i].OrbDegrees < scored[j].OrbDegrees
		}
		if scored[i].PlanetA != scored[j].PlanetA {
			return planetIndex(scored[i].PlanetA) < planetIndex(scored[j].PlanetA)
		}
		return planetIndex(scored[i].PlanetB) < planetIndex(scored[j].PlanetB)
	})

	return scored
}

// -----------------------------------------------------------------------------
// Insight templates
// -----------------------------------------------------------------------------

type insightTemplate struct {
	Title         string
	Manifestation string
}

// pairTemplates keys on the planet pair ordered by KeyPlanets position.
// The %s slot takes the aspect name.
var pairTemplates = map[string]insightTemplate{
	"sun-sun":         {"Two Suns, One Orbit", "Your core identities form a %s: each of you recognizes something essential in how the other moves through the world."},
	"sun-moon":        {"Vitality Meets Feeling", "One partner's sense of self forms a %s with the other's emotional nature, a classic signature of felt understanding."},
	"sun-saturn":      {"Purpose Under Pressure", "Identity and discipline form a %s: one of you steadies the other, which can read as support or as restraint."},
	"moon-moon":       {"Shared Weather", "Your emotional climates form a %s: moods travel between you almost without words."},
	"moon-venus":      {"Tenderness on Tap", "Feeling and affection form a %s, making comfort and care easy to give and receive."},
	"moon-saturn":     {"Guarded Waters", "Emotional needs meet duty in a %s: reliability is abundant, spontaneous softness takes practice."},
	"mercury-mercury": {"Minds in Conversation", "Your thinking styles form a %s: conversation is the engine room of this relationship."},
	"venus-venus":     {"Matched Tastes", "Your ways of loving form a %s: what delights one tends to delight the other."},
	"venus-mars":      {"Spark and Counterspark", "Attraction and desire form a %s, the classic chemistry signature between charts."},
	"mars-mars":       {"Crossed Blades or Joined Forces", "Your drives form a %s: aimed together you are formidable, aimed at each other you strike sparks."},
	"mars-saturn":     {"Throttle and Brake", "Drive meets restraint in a %s: pacing differences need naming before they become grievances."},
	"sun-jupiter":     {"Mutual Enlargement", "Identity and expansion form a %s: you tend to make each other's worlds bigger."},
}

// genericTemplates is the fallback per aspect nature.
var genericTemplates = map[string]insightTemplate{
	models.NatureHarmonious:  {"An Easy Current", "%s and %s form a %s, lending this pairing a natural, low-effort flow."},
	models.NatureChallenging: {"A Productive Friction", "%s and %s form a %s: the rub between these planets is where this relationship does its growing."},
	models.NatureNeutral:     {"A Merged Signal", "%s and %s form a %s, blending these planetary voices into a single shared tone."},
}

// -----------------------------------------------------------------------------

// pairKey orders a planet pair by KeyPlanets position so lookups are
// symmetric.
func pairKey(a, b string) string {
	if planetIndex(a) > planetIndex(b) {
		a, b = b, a
	}
	return a + "-" + b
}

// -----------------------------------------------------------------------------

// buildInsight renders one scored aspect through the fixed templates, with
// the generic fallback when no specific pair template exists.
func buildInsight(a models.MScoredSynastryAspect) models.MSynastryInsight {
	insight := models.MSynastryInsight{
		PlanetA:  a.PlanetA,
		PlanetB:  a.PlanetB,
		Aspect:   a.Aspect,
		Category: a.Category,
	}

	if tpl, ok := pairTemplates[pairKey(a.PlanetA, a.PlanetB)]; ok {
		insight.Title = tpl.Title
		insight.Manifestation = fmt.Sprintf(tpl.Manifestation, a.Aspect)
		return insight
	}

	tpl := genericTemplates[a.Nature]
	insight.Title = tpl.Title
	insight.Manifestation = fmt.Sprintf(tpl.Manifestation, DisplayPlanet(a.PlanetA), DisplayPlanet(a.PlanetB), a.Aspect)
	return insight
}

// -----------------------------------------------------------------------------
// Synthesis
// -----------------------------------------------------------------------------

// CalculateSynastry runs the full two-chart pipeline: find aspects, score
// them, select supportive/friction insights, derive the growth lesson and
// narrate the overall dynamic. calculatedAt is passed in, never read from
// a wall clock, so identical inputs yield identical output.
func CalculateSynastry(chartA, chartB *models.MNatalChart, calculatedAt time.Time) (*models.MSynthesisedSynastry, error) {
	aspects, err := FindSynastryAspects(chartA, chartB)
	if err != nil {
		return nil, err
	}

	scored := ScoreSynastryAspects(aspects)

	var supportive, friction []models.MSynastryInsight
	for _, a := range scored {
		switch a.Category {
		case models.CategorySupportive:
			if len(supportive) < maxSupportiveConnections {
				supportive = append(supportive, buildInsight(a))
			}
		case models.CategoryFriction:
			if len(friction) < maxFrictionPoints {
				friction = append(friction, buildInsight(a))
			}
		}
	}
	if supportive == nil {
		supportive = []models.MSynastryInsight{}
	}
	if friction == nil {
		friction = []models.MSynastryInsight{}
	}

	dynamic, err := overallDynamic(chartA, chartB, scored)
	if err != nil {
		return nil, err
	}

	return &models.MSynthesisedSynastry{
		ResultID:              uuid.NewSHA1(synastryNamespace, []byte(chartA.ChartID+":"+chartB.ChartID)).String(),
		ChartAID:              chartA.ChartID,
		ChartBID:              chartB.ChartID,
		OverallDynamic:        dynamic,
		SupportiveConnections: supportive,
		FrictionPoints:        friction,
		GrowthLesson:          growthLesson(scored),
		PracticalGuidance:     practicalGuidance(scored),
		CalculatedAt:          calculatedAt,
	}, nil
}

// -----------------------------------------------------------------------------

// growthLesson derives the single growth-lesson insight: the most exact
// challenging aspect, else the most exact harmonious one, else a generic
// mutual-growth insight. Never absent.
func growthLesson(scored []models.MScoredSynastryAspect) models.MSynastryInsight {
	pick := func(nature string) *models.MScoredSynastryAspect {
		var best *models.MScoredSynastryAspect
		for i := range scored {
			a := &scored[i]
			if a.Nature != nature {
				continue
			}
			if best == nil || a.OrbDegrees < best.OrbDegrees {
				best = a
			}
		}
		return best
	}

	source := pick(models.NatureChallenging)
	if source == nil {
		source = pick(models.NatureHarmonious)
	}
	if source == nil {
		return models.MSynastryInsight{
			Title:         "Mutual Growth",
			Category:      models.CategoryGrowthLesson,
			Manifestation: "No single aspect dominates this pairing. Growth here comes from the daily practice of choosing each other deliberately rather than being pulled together by the charts.",
		}
	}

	insight := buildInsight(*source)
	insight.Category = models.CategoryGrowthLesson
	insight.Manifestation = fmt.Sprintf(
		"The central lesson lives in the %s between %s and %s: what this contact demands of you is exactly the capacity this relationship is here to build.",
		source.Aspect, DisplayPlanet(source.PlanetA), DisplayPlanet(source.PlanetB),
	)
	return insight
}

// -----------------------------------------------------------------------------

// overallDynamic narrates the element relationship between the two Suns
// plus the harmonious-versus-challenging balance.
func overallDynamic(chartA, chartB *models.MNatalChart, scored []models.MScoredSynastryAspect) (string, error) {
	sunA, ok := chartA.Placement(models.PlanetSun)
	if !ok {
		return "", helpers.NewValidationError("chart %s is missing key planet %q", chartA.ChartID, models.PlanetSun)
	}
	sunB, ok := chartB.Placement(models.PlanetSun)
	if !ok {
		return "", helpers.NewValidationError("chart %s is missing key planet %q", chartB.ChartID, models.PlanetSun)
	}

	elementA := models.SignElements[sunA.Sign]
	elementB := models.SignElements[sunB.Sign]
	if elementA == "" || elementB == "" {
		return "", helpers.NewValidationError("unknown sun sign element (%q, %q)", sunA.Sign, sunB.Sign)
	}

	var elementLine string
	switch {
	case elementA == elementB:
		elementLine = fmt.Sprintf("You share the %s element, so you instinctively understand each other's pace and priorities.", elementA)
	case compatibleElements[elementA] == elementB:
		elementLine = fmt.Sprintf("Your %s and %s natures are natural complements, feeding each other rather than competing.", elementA, elementB)
	default:
		elementLine = fmt.Sprintf("Your %s and %s natures run on different currents, which keeps this pairing interesting and occasionally demanding.", elementA, elementB)
	}

	harmonious, challenging := 0, 0
	for _, a := range scored {
		switch a.Nature {
		case models.NatureHarmonious:
			harmonious++
		case models.NatureChallenging:
			challenging++
		}
	}

	var balanceLine string
	switch {
	case harmonious == 0 && challenging == 0:
		balanceLine = "Few major contacts link your charts, leaving plenty of room to define the relationship on your own terms."
	case harmonious > challenging:
		balanceLine = fmt.Sprintf("With %d supportive contacts to %d challenging ones, ease outweighs friction here.", harmonious, challenging)
	case challenging > harmonious:
		balanceLine = fmt.Sprintf("With %d challenging contacts to %d supportive ones, this bond asks for effort and repays it with growth.", challenging, harmonious)
	default:
		balanceLine = fmt.Sprintf("Supportive and challenging contacts balance evenly at %d apiece, mixing comfort with productive tension.", harmonious)
	}

	return elementLine + " " + balanceLine, nil
}

// -----------------------------------------------------------------------------

// practicalGuidance accumulates fixed advisory strings triggered by the
// presence of specific planet pairs, plus two always-present closers,
// capped at five items.
func practicalGuidance(scored []models.MScoredSynastryAspect) []string {
	hasMercury := false
	hasVenusMars := false
	hasSaturn := false

	for _, a := range scored {
		if a.PlanetA == models.PlanetMercury || a.PlanetB == models.PlanetMercury {
			hasMercury = true
		}
		if pairKey(a.PlanetA, a.PlanetB) == "venus-mars" {
			hasVenusMars = true
		}
		if a.PlanetA == models.PlanetSaturn || a.PlanetB == models.PlanetSaturn {
			hasSaturn = true
		}
	}

	var guidance []string
	if hasMercury {
		guidance = append(guidance, "Your Mercury contacts make communication style a live wire: agree on how you argue before you need to.")
	}
	if hasVenusMars {
		guidance = append(guidance, "The Venus-Mars link thrives on deliberate romance: keep courting each other after the beginning ends.")
	}
	if hasSaturn {
		guidance = append(guidance, "Saturn contacts reward structure: shared routines and kept promises are this bond's love language.")
	}

	guidance = append(guidance,
		"Name appreciation out loud; assumed gratitude reads as absence.",
		"Revisit this reading as the relationship evolves; charts describe weather, not fate.",
	)

	if len(guidance) > maxPracticalGuidance {
		guidance = guidance[:maxPracticalGuidance]
	}
	return guidance
}
