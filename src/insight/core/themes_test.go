package core

import (
	"testing"
	"time"

	"astro-insights/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func scoredFixture(signalID, theme string, score float64, peakStart, peakEnd time.Time) models.MScoredTransit {
	tr := models.MTransitSignal{
		SignalID:         signalID,
		UserID:           "user-test-1",
		TransitingPlanet: models.PlanetSaturn,
		NatalTarget:      models.PlanetSun,
		Aspect:           models.AspectSquare,
		OrbDegrees:       1.0,
		StartDate:        peakStart.AddDate(0, 0, -10),
		PeakStart:        peakStart,
		PeakEnd:          peakEnd,
		EndDate:          peakEnd.AddDate(0, 0, 10),
	}
	return models.MScoredTransit{
		Transit:        tr,
		Score:          score,
		PrimaryTheme:   theme,
		IntensityCurve: BuildIntensityCurve(tr, score),
	}
}

// -----------------------------------------------------------------------------

func TestDeriveThemes(t *testing.T) {
	cases := []struct {
		planet, target, aspect string
		wantPrimary            string
		wantSecondary          []string
	}{
		{
			models.PlanetUranus, models.PlanetSun, models.AspectSquare,
			models.ThemeCareerTransformation,
			[]string{models.ThemePersonalPower, models.ThemeEmotionalProcessing},
		},
		{
			// Angle targets override the planet's base theme
			models.PlanetUranus, models.PointMidheaven, models.AspectSquare,
			models.ThemeCareerTransformation,
			[]string{models.ThemeEmotionalProcessing},
		},
		{
			// Target theme equal to the primary is deduplicated, and a
			// neutral aspect contributes nothing
			models.PlanetSun, models.PlanetSun, models.AspectConjunction,
			models.ThemePersonalPower,
			nil,
		},
		{
			models.PlanetVenus, models.PlanetMoon, models.AspectTrine,
			models.ThemeRelationshipGrowth,
			[]string{models.ThemeEmotionalProcessing, models.ThemeCreativeExpression},
		},
	}

	for _, c := range cases {
		primary, secondary := DeriveThemes(c.planet, c.target, c.aspect)
		assert.Equal(t, c.wantPrimary, primary, "%s %s %s", c.planet, c.target, c.aspect)
		assert.Equal(t, c.wantSecondary, secondary, "%s %s %s", c.planet, c.target, c.aspect)
	}
}

// -----------------------------------------------------------------------------

func TestSynthesiseThemesEmptyInput(t *testing.T) {
	primary, secondary := SynthesiseThemes(nil, day(2025, 6, 1), models.MUserPreferences{})
	assert.Nil(t, primary)
	require.NotNil(t, secondary)
	assert.Empty(t, secondary)
}

// -----------------------------------------------------------------------------

func TestSynthesiseThemesSelection(t *testing.T) {
	peakStart := day(2025, 6, 10)
	peakEnd := day(2025, 6, 20)

	scored := []models.MScoredTransit{
		scoredFixture("sig-1", models.ThemeCareerTransformation, 92, peakStart, peakEnd),
		scoredFixture("sig-2", models.ThemeEmotionalProcessing, 81, peakStart, peakEnd),
		scoredFixture("sig-3", models.ThemeRelationshipGrowth, 74, peakStart, peakEnd),
		scoredFixture("sig-4", models.ThemeCommunicationShift, 63, peakStart, peakEnd),
		scoredFixture("sig-5", models.ThemeMaterialFoundation, 55, peakStart, peakEnd),
	}

	primary, secondary := SynthesiseThemes(scored, day(2025, 6, 1), models.MUserPreferences{})

	require.NotNil(t, primary)
	assert.Equal(t, models.ThemeCareerTransformation, primary.ThemeType)
	assert.Equal(t, "Career Transformation", primary.Name)
	assert.Equal(t, []string{"sig-1"}, primary.ContributingTransitIDs)

	// At most three secondary themes, strongest first; the fifth is dropped
	require.Len(t, secondary, 3)
	assert.Equal(t, models.ThemeEmotionalProcessing, secondary[0].ThemeType)
	assert.Equal(t, models.ThemeRelationshipGrowth, secondary[1].ThemeType)
	assert.Equal(t, models.ThemeCommunicationShift, secondary[2].ThemeType)
}

// -----------------------------------------------------------------------------

func TestSynthesiseThemesCorroborationBeatsLoneTransit(t *testing.T) {
	peakStart := day(2025, 6, 10)
	peakEnd := day(2025, 6, 20)

	// Two corroborating 80s aggregate above a lone 84.
	scored := []models.MScoredTransit{
		scoredFixture("sig-a", models.ThemeCareerTransformation, 84, peakStart, peakEnd),
		scoredFixture("sig-b", models.ThemeEmotionalProcessing, 80, peakStart, peakEnd),
		scoredFixture("sig-c", models.ThemeEmotionalProcessing, 70, peakStart, peakEnd),
	}

	primary, _ := SynthesiseThemes(scored, day(2025, 6, 1), models.MUserPreferences{})
	require.NotNil(t, primary)
	assert.Equal(t, models.ThemeEmotionalProcessing, primary.ThemeType)
	assert.Len(t, primary.ContributingTransitIDs, 2)
}

// -----------------------------------------------------------------------------

func TestAggregateGroupScore(t *testing.T) {
	peakStart := day(2025, 6, 10)
	peakEnd := day(2025, 6, 20)

	single := []models.MScoredTransit{
		scoredFixture("sig-1", models.ThemePersonalPower, 70, peakStart, peakEnd),
	}
	pair := append(single, scoredFixture("sig-2", models.ThemePersonalPower, 50, peakStart, peakEnd))
	saturated := []models.MScoredTransit{
		scoredFixture("sig-3", models.ThemePersonalPower, 99, peakStart, peakEnd),
		scoredFixture("sig-4", models.ThemePersonalPower, 98, peakStart, peakEnd),
	}

	assert.Equal(t, 70.0, aggregateGroupScore(single))
	assert.Equal(t, 75.0, aggregateGroupScore(pair)) // strongest + 5*log2(2)
	assert.Equal(t, 100.0, aggregateGroupScore(saturated))
}

// -----------------------------------------------------------------------------

func TestBuildThemePeakOverlap(t *testing.T) {
	scored := []models.MScoredTransit{
		scoredFixture("sig-1", models.ThemePersonalPower, 80, day(2025, 6, 10), day(2025, 6, 20)),
		scoredFixture("sig-2", models.ThemePersonalPower, 70, day(2025, 6, 15), day(2025, 6, 25)),
	}

	primary, _ := SynthesiseThemes(scored, day(2025, 6, 1), models.MUserPreferences{})
	require.NotNil(t, primary)

	// Overlapping peaks narrow to the intersection
	assert.True(t, primary.PeakStart.Equal(day(2025, 6, 15)))
	assert.True(t, primary.PeakEnd.Equal(day(2025, 6, 20)))

	// Full range spans all members
	assert.True(t, primary.StartDate.Equal(day(2025, 5, 31)))
	assert.True(t, primary.EndDate.Equal(day(2025, 7, 5)))
}

// -----------------------------------------------------------------------------

func TestBuildThemeDisjointPeaksFallBackToUnion(t *testing.T) {
	scored := []models.MScoredTransit{
		scoredFixture("sig-1", models.ThemePersonalPower, 80, day(2025, 6, 1), day(2025, 6, 5)),
		scoredFixture("sig-2", models.ThemePersonalPower, 70, day(2025, 6, 20), day(2025, 6, 25)),
	}

	primary, _ := SynthesiseThemes(scored, day(2025, 6, 1), models.MUserPreferences{})
	require.NotNil(t, primary)
	assert.True(t, primary.PeakStart.Equal(day(2025, 6, 1)))
	assert.True(t, primary.PeakEnd.Equal(day(2025, 6, 25)))
}

// -----------------------------------------------------------------------------

func TestBuildThemeIntensityClamped(t *testing.T) {
	peakStart := day(2025, 6, 10)
	peakEnd := day(2025, 6, 20)

	scored := []models.MScoredTransit{
		scoredFixture("sig-1", models.ThemePersonalPower, 95, peakStart, peakEnd),
	}

	// Mid-peak the intensity reads the peak level
	primary, _ := SynthesiseThemes(scored, day(2025, 6, 15), models.MUserPreferences{})
	require.NotNil(t, primary)
	assert.Equal(t, 5, primary.IntensityToday)

	// A date outside the whole curve still yields a level in 1..5
	primary, _ = SynthesiseThemes(scored, day(2024, 1, 1), models.MUserPreferences{})
	require.NotNil(t, primary)
	assert.GreaterOrEqual(t, primary.IntensityToday, 1)
	assert.LessOrEqual(t, primary.IntensityToday, 5)
}

// -----------------------------------------------------------------------------

func TestBuildThemeDescriptionFromDominantTransit(t *testing.T) {
	peakStart := day(2025, 6, 10)
	peakEnd := day(2025, 6, 20)

	scored := []models.MScoredTransit{
		scoredFixture("sig-1", models.ThemeMaterialFoundation, 88, peakStart, peakEnd),
	}

	primary, _ := SynthesiseThemes(scored, day(2025, 6, 1), models.MUserPreferences{})
	require.NotNil(t, primary)
	assert.Contains(t, primary.Description, "Saturn")
	assert.Contains(t, primary.Description, models.AspectSquare)
	assert.Equal(t, "finances", primary.PrimaryFocusArea)
}

// -----------------------------------------------------------------------------

func TestSynthesiseThemesDeterministicTieBreak(t *testing.T) {
	peakStart := day(2025, 6, 10)
	peakEnd := day(2025, 6, 20)

	// Identical scores and peaks resolve by fixed theme order
	scored := []models.MScoredTransit{
		scoredFixture("sig-b", models.ThemeEmotionalProcessing, 75, peakStart, peakEnd),
		scoredFixture("sig-a", models.ThemeCareerTransformation, 75, peakStart, peakEnd),
	}

	for i := 0; i < 5; i++ {
		primary, secondary := SynthesiseThemes(scored, day(2025, 6, 1), models.MUserPreferences{})
		require.NotNil(t, primary)
		assert.Equal(t, models.ThemeCareerTransformation, primary.ThemeType)
		require.Len(t, secondary, 1)
		assert.Equal(t, models.ThemeEmotionalProcessing, secondary[0].ThemeType)
	}
}

// -----------------------------------------------------------------------------

func TestDisplayPlanet(t *testing.T) {
	assert.Equal(t, "Saturn", DisplayPlanet(models.PlanetSaturn))
	assert.Equal(t, "", DisplayPlanet(""))
}
