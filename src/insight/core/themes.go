package core

import (
	"astro-insights/src/models"
	"fmt"
	"math"
	"sort"
	"time"
)

// -----------------------------------------------------------------------------
// Theme derivation tables
// -----------------------------------------------------------------------------

// planetThemes is the base primary theme per transiting planet.
var planetThemes = map[string]string{
	models.PlanetSun:     models.ThemePersonalPower,
	models.PlanetMoon:    models.ThemeEmotionalProcessing,
	models.PlanetMercury: models.ThemeCommunicationShift,
	models.PlanetVenus:   models.ThemeRelationshipGrowth,
	models.PlanetMars:    models.ThemePersonalPower,
	models.PlanetJupiter: models.ThemeSpiritualAwakening,
	models.PlanetSaturn:  models.ThemeMaterialFoundation,
	models.PlanetUranus:  models.ThemeCareerTransformation,
	models.PlanetNeptune: models.ThemeSpiritualAwakening,
	models.PlanetPluto:   models.ThemeCareerTransformation,
}

// angleOverrides replaces the base theme when the transit hits an angle.
var angleOverrides = map[string]string{
	models.PointMidheaven: models.ThemeCareerTransformation,
	models.PointAscendant: models.ThemePersonalPower,
}

// targetSecondaryThemes contributes a secondary theme per natal target.
var targetSecondaryThemes = map[string]string{
	models.PlanetSun:     models.ThemePersonalPower,
	models.PlanetMoon:    models.ThemeEmotionalProcessing,
	models.PlanetMercury: models.ThemeCommunicationShift,
	models.PlanetVenus:   models.ThemeRelationshipGrowth,
	models.PlanetMars:    models.ThemePersonalPower,
	models.PlanetJupiter: models.ThemeSpiritualAwakening,
	models.PlanetSaturn:  models.ThemeMaterialFoundation,
	models.PlanetUranus:  models.ThemeCareerTransformation,
	models.PlanetNeptune: models.ThemeSpiritualAwakening,
	models.PlanetPluto:   models.ThemeEmotionalProcessing,
}

// aspectSecondaryThemes contributes a secondary theme per aspect nature.
var aspectSecondaryThemes = map[string]string{
	models.NatureChallenging: models.ThemeEmotionalProcessing,
	models.NatureHarmonious:  models.ThemeCreativeExpression,
}

// -----------------------------------------------------------------------------

var themeDisplayNames = map[string]string{
	models.ThemeCareerTransformation: "Career Transformation",
	models.ThemeEmotionalProcessing:  "Emotional Processing",
	models.ThemeRelationshipGrowth:   "Relationship Growth",
	models.ThemeCommunicationShift:   "Communication Shift",
	models.ThemePersonalPower:        "Personal Power",
	models.ThemeCreativeExpression:   "Creative Expression",
	models.ThemeSpiritualAwakening:   "Spiritual Awakening",
	models.ThemeMaterialFoundation:   "Material Foundation",
}

// themeFocusAreas names the life area each theme lands on.
var themeFocusAreas = map[string]string{
	models.ThemeCareerTransformation: "career",
	models.ThemeEmotionalProcessing:  "health",
	models.ThemeRelationshipGrowth:   "relationships",
	models.ThemeCommunicationShift:   "communication",
	models.ThemePersonalPower:        "identity",
	models.ThemeCreativeExpression:   "creativity",
	models.ThemeSpiritualAwakening:   "spirituality",
	models.ThemeMaterialFoundation:   "finances",
}

// themeDescriptionTemplates fills in the dominant transit's planet and
// aspect. Never freeform generation.
var themeDescriptionTemplates = map[string]string{
	models.ThemeCareerTransformation: "A %s %s is reshaping your sense of direction and public role. Structures that no longer fit are being dismantled to make room for truer ambitions.",
	models.ThemeEmotionalProcessing:  "A %s %s is surfacing feelings that ask to be acknowledged rather than managed. Old emotional patterns are up for review.",
	models.ThemeRelationshipGrowth:   "A %s %s is drawing attention to how you connect. Bonds deepen where honesty is offered, and imbalances become impossible to ignore.",
	models.ThemeCommunicationShift:   "A %s %s is rewiring how you speak, listen and decide. Expect conversations that change your mind.",
	models.ThemePersonalPower:        "A %s %s is concentrating energy on your will and self-definition. What you assert now sets the tone for the months ahead.",
	models.ThemeCreativeExpression:   "A %s %s is opening a channel for play and self-expression. Work made with pleasure carries unusual weight right now.",
	models.ThemeSpiritualAwakening:   "A %s %s is widening your sense of meaning. Beliefs stretch, and what once felt settled invites re-examination.",
	models.ThemeMaterialFoundation:   "A %s %s is testing what you build on. Commitments, resources and routines firm up where they are sound and crumble where they are not.",
}

// -----------------------------------------------------------------------------

// DeriveThemes maps the (planet, target, aspect) triple through fixed
// lookups to one primary theme plus zero or more secondary themes.
func DeriveThemes(planet, target, aspect string) (string, []string) {
	primary, ok := angleOverrides[target]
	if !ok {
		primary = planetThemes[planet]
	}

	var secondary []string
	appendTheme := func(theme string) {
		if theme == "" || theme == primary {
			return
		}
		for _, s := range secondary {
			if s == theme {
				return
			}
		}
		secondary = append(secondary, theme)
	}

	appendTheme(targetSecondaryThemes[target])
	appendTheme(aspectSecondaryThemes[AspectNature[aspect]])

	return primary, secondary
}

// -----------------------------------------------------------------------------
// Theme Synthesis Engine
// -----------------------------------------------------------------------------

// themeGroup is the working aggregation of one primary theme.
type themeGroup struct {
	theme          string
	members        []models.MScoredTransit
	aggregateScore float64
	soonestPeak    time.Time
}

// -----------------------------------------------------------------------------

// SynthesiseThemes groups scored transits by primary theme and selects one
// primary plus up to three secondary synthesised themes. Empty input is a
// valid no-data result: nil primary and an empty secondary list.
func SynthesiseThemes(scored []models.MScoredTransit, currentDate time.Time, prefs models.MUserPreferences) (*models.MSynthesisedTheme, []models.MSynthesisedTheme) {
	if len(scored) == 0 {
		return nil, []models.MSynthesisedTheme{}
	}

	// Group by primary theme only; secondary themes are ignored here to
	// avoid double-counting one transit across groups.
	byTheme := make(map[string][]models.MScoredTransit)
	for _, s := range scored {
		byTheme[s.PrimaryTheme] = append(byTheme[s.PrimaryTheme], s)
	}

	groups := make([]themeGroup, 0, len(byTheme))
	for theme, members := range byTheme {
		g := themeGroup{theme: theme, members: members}
		g.aggregateScore = aggregateGroupScore(members)
		g.soonestPeak = members[0].Transit.PeakStart
		for _, m := range members[1:] {
			if m.Transit.PeakStart.Before(g.soonestPeak) {
				g.soonestPeak = m.Transit.PeakStart
			}
		}
		groups = append(groups, g)
	}

	// Deterministic ranking: score desc, soonest peak, then theme order.
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].aggregateScore != groups[j].aggregateScore {
			return groups[i].aggregateScore > groups[j].aggregateScore
		}
		if !groups[i].soonestPeak.Equal(groups[j].soonestPeak) {
			return groups[i].soonestPeak.Before(groups[j].soonestPeak)
		}
		return models.ThemeOrderIndex(groups[i].theme) < models.ThemeOrderIndex(groups[j].theme)
	})

	primary := buildTheme(groups[0], currentDate)

	secondary := make([]models.MSynthesisedTheme, 0, 3)
	for _, g := range groups[1:] {
		if len(secondary) == 3 {
			break
		}
		secondary = append(secondary, *buildTheme(g, currentDate))
	}

	return primary, secondary
}

// -----------------------------------------------------------------------------

// aggregateGroupScore combines member scores monotonically: a group with
// more corroborating transits scores at least as high as its strongest
// member, capped at 100.
func aggregateGroupScore(members []models.MScoredTransit) float64 {
	strongest := 0.0
	for _, m := range members {
		if m.Score > strongest {
			strongest = m.Score
		}
	}
	bonus := 5.0 * math.Log2(float64(len(members)))
	return Clamp(strongest+bonus, 0, 100)
}

// -----------------------------------------------------------------------------

// buildTheme constructs the synthesised theme for one group: merged date
// range, peak overlap (or union when no overlap), today's intensity and a
// templated description from the dominant contributing transit.
func buildTheme(g themeGroup, currentDate time.Time) *models.MSynthesisedTheme {
	// Deterministic member order: score desc, then signal id.
	members := make([]models.MScoredTransit, len(g.members))
	copy(members, g.members)
	sort.Slice(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score > members[j].Score
		}
		return members[i].Transit.SignalID < members[j].Transit.SignalID
	})

	dominant := members[0]

	start := members[0].Transit.StartDate
	end := members[0].Transit.EndDate
	overlapStart := members[0].Transit.PeakStart
	overlapEnd := members[0].Transit.PeakEnd
	unionStart := overlapStart
	unionEnd := overlapEnd

	ids := make([]string, 0, len(members))
	intensity := 0

	for _, m := range members {
		t := m.Transit
		if t.StartDate.Before(start) {
			start = t.StartDate
		}
		if t.EndDate.After(end) {
			end = t.EndDate
		}
		if t.PeakStart.After(overlapStart) {
			overlapStart = t.PeakStart
		}
		if t.PeakEnd.Before(overlapEnd) {
			overlapEnd = t.PeakEnd
		}
		if t.PeakStart.Before(unionStart) {
			unionStart = t.PeakStart
		}
		if t.PeakEnd.After(unionEnd) {
			unionEnd = t.PeakEnd
		}

		ids = append(ids, t.SignalID)
		if level := IntensityAt(m.IntensityCurve, currentDate); level > intensity {
			intensity = level
		}
	}

	peakStart, peakEnd := overlapStart, overlapEnd
	if peakEnd.Before(peakStart) {
		// No common overlap: fall back to the union span
		peakStart, peakEnd = unionStart, unionEnd
	}

	description := fmt.Sprintf(
		themeDescriptionTemplates[g.theme],
		DisplayPlanet(dominant.Transit.TransitingPlanet),
		dominant.Transit.Aspect,
	)

	return &models.MSynthesisedTheme{
		ThemeType:              g.theme,
		Name:                   themeDisplayNames[g.theme],
		Description:            description,
		StartDate:              start,
		PeakStart:              peakStart,
		PeakEnd:                peakEnd,
		EndDate:                end,
		IntensityToday:         ClampInt(intensity, 1, 5),
		PrimaryFocusArea:       themeFocusAreas[g.theme],
		AggregateScore:         g.aggregateScore,
		ContributingTransitIDs: ids,
		LastUpdatedAt:          currentDate,
	}
}

// -----------------------------------------------------------------------------

// DisplayPlanet capitalizes a planet name for template text.
func DisplayPlanet(planet string) string {
	if planet == "" {
		return planet
	}
	return string(planet[0]-'a'+'A') + planet[1:]
}
