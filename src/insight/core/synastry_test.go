package core

import (
	"testing"

	"astro-insights/src/helpers"
	"astro-insights/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

// keyChart places every key planet on the same sign and degree so cross-chart
// separations are fully controlled by the two charts' offsets.
func keyChart(chartID, sign string, degree float64) *models.MNatalChart {
	placements := make([]models.MPlacement, 0, len(models.KeyPlanets))
	for _, planet := range models.KeyPlanets {
		placements = append(placements, models.MPlacement{
			Planet: planet,
			Sign:   sign,
			Degree: degree,
			House:  1,
		})
	}
	return &models.MNatalChart{
		ChartID:    chartID,
		UserID:     "user-" + chartID,
		Placements: placements,
	}
}

// spreadChart places the key planets 30 degrees apart starting at Aries 0.
func spreadChart(chartID string) *models.MNatalChart {
	placements := make([]models.MPlacement, 0, len(models.KeyPlanets))
	for i, planet := range models.KeyPlanets {
		placements = append(placements, models.MPlacement{
			Planet: planet,
			Sign:   models.ZodiacSigns[i],
			Degree: 0,
			House:  1,
		})
	}
	return &models.MNatalChart{
		ChartID:    chartID,
		UserID:     "user-" + chartID,
		Placements: placements,
	}
}

// -----------------------------------------------------------------------------

func TestAbsolutePosition(t *testing.T) {
	abs, err := AbsolutePosition(models.MPlacement{Planet: models.PlanetSun, Sign: "leo", Degree: 15.5})
	require.NoError(t, err)
	assert.Equal(t, 135.5, abs)

	abs, err = AbsolutePosition(models.MPlacement{Planet: models.PlanetMoon, Sign: "aries", Degree: 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, abs)

	_, err = AbsolutePosition(models.MPlacement{Planet: models.PlanetSun, Sign: "ophiuchus", Degree: 10})
	require.Error(t, err)
	var vErr *helpers.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

// -----------------------------------------------------------------------------

func TestMatchAspect(t *testing.T) {
	cases := []struct {
		separation float64
		wantAspect string
		wantOrb    float64
		wantFound  bool
	}{
		{120, models.AspectTrine, 0, true},
		{90, models.AspectSquare, 0, true},
		{95, models.AspectSquare, 5, true},
		{100, "", 0, false}, // outside every orb
		{2, models.AspectConjunction, 2, true},
		{178, models.AspectOpposition, 2, true},
		{64, models.AspectSextile, 4, true},
		{150.5, models.AspectQuincunx, 0.5, true},
		{40, "", 0, false},
	}

	for _, c := range cases {
		aspect, orb, found := matchAspect(c.separation)
		assert.Equal(t, c.wantFound, found, "separation %.1f", c.separation)
		if c.wantFound {
			assert.Equal(t, c.wantAspect, aspect, "separation %.1f", c.separation)
			assert.InDelta(t, c.wantOrb, orb, 0.0001, "separation %.1f", c.separation)
		}
	}
}

// -----------------------------------------------------------------------------

func TestFindSynastryAspectsSortedByOrb(t *testing.T) {
	aspects, err := FindSynastryAspects(spreadChart("chart-a"), spreadChart("chart-b"))
	require.NoError(t, err)
	require.NotEmpty(t, aspects)

	for i := 1; i < len(aspects); i++ {
		assert.LessOrEqual(t, aspects[i-1].OrbDegrees, aspects[i].OrbDegrees)
	}
	for _, a := range aspects {
		assert.Equal(t, AspectNature[a.Aspect], a.Nature)
	}
}

// -----------------------------------------------------------------------------

func TestFindSynastryAspectsMissingKeyPlanet(t *testing.T) {
	chartA := keyChart("chart-a", "aries", 0)
	chartB := keyChart("chart-b", "leo", 0)

	// Drop Saturn from chart B
	kept := chartB.Placements[:0]
	for _, p := range chartB.Placements {
		if p.Planet != models.PlanetSaturn {
			kept = append(kept, p)
		}
	}
	chartB.Placements = kept

	_, err := FindSynastryAspects(chartA, chartB)
	require.Error(t, err)
	var vErr *helpers.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

// -----------------------------------------------------------------------------

func TestFindSynastryAspectsNilChart(t *testing.T) {
	_, err := FindSynastryAspects(nil, keyChart("chart-b", "leo", 0))
	require.Error(t, err)
}

// -----------------------------------------------------------------------------

func TestScoreSynastryAspectsOrdering(t *testing.T) {
	aspects := []models.MSynastryAspect{
		{PlanetA: models.PlanetSun, PlanetB: models.PlanetMoon, Aspect: models.AspectTrine, OrbDegrees: 6.0, Nature: models.NatureHarmonious},
		{PlanetA: models.PlanetSun, PlanetB: models.PlanetMoon, Aspect: models.AspectTrine, OrbDegrees: 0.5, Nature: models.NatureHarmonious},
	}

	scored := ScoreSynastryAspects(aspects)
	require.Len(t, scored, 2)

	// Tighter orb of the same pair class ranks first
	assert.Equal(t, 0.5, scored[0].OrbDegrees)
	assert.Greater(t, scored[0].Score, scored[1].Score)

	for _, s := range scored {
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.LessOrEqual(t, s.Score, 100.0)
		assert.Equal(t, models.CategorySupportive, s.Category)
	}
}

// -----------------------------------------------------------------------------

func TestCalculateSynastrySupportiveCap(t *testing.T) {
	// Every cross-pair is an exact trine: 49 harmonious contacts
	chartA := keyChart("chart-a", "aries", 0)
	chartB := keyChart("chart-b", "leo", 0)

	result, err := CalculateSynastry(chartA, chartB, day(2025, 6, 1))
	require.NoError(t, err)

	assert.Len(t, result.SupportiveConnections, 3)
	assert.Empty(t, result.FrictionPoints)
	for _, c := range result.SupportiveConnections {
		assert.Equal(t, models.CategorySupportive, c.Category)
		assert.NotEmpty(t, c.Title)
		assert.NotEmpty(t, c.Manifestation)
	}
}

// -----------------------------------------------------------------------------

func TestCalculateSynastryFrictionCap(t *testing.T) {
	// Every cross-pair is an exact square: 49 challenging contacts
	chartA := keyChart("chart-a", "aries", 0)
	chartB := keyChart("chart-b", "cancer", 0)

	result, err := CalculateSynastry(chartA, chartB, day(2025, 6, 1))
	require.NoError(t, err)

	assert.Len(t, result.FrictionPoints, 2)
	assert.Empty(t, result.SupportiveConnections)
	for _, c := range result.FrictionPoints {
		assert.Equal(t, models.CategoryFriction, c.Category)
	}
}

// -----------------------------------------------------------------------------

func TestCalculateSynastryGrowthLessonAlwaysPresent(t *testing.T) {
	cases := []struct {
		name   string
		chartB *models.MNatalChart
	}{
		{"challenging contacts", keyChart("chart-b", "cancer", 0)},
		{"harmonious contacts", keyChart("chart-b", "leo", 0)},
		{"no contacts", keyChart("chart-b", "taurus", 15)}, // separation 45, no aspect
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			result, err := CalculateSynastry(keyChart("chart-a", "aries", 0), c.chartB, day(2025, 6, 1))
			require.NoError(t, err)
			assert.Equal(t, models.CategoryGrowthLesson, result.GrowthLesson.Category)
			assert.NotEmpty(t, result.GrowthLesson.Manifestation)
		})
	}
}

// -----------------------------------------------------------------------------

func TestCalculateSynastryDeterministic(t *testing.T) {
	chartA := spreadChart("chart-a")
	chartB := spreadChart("chart-b")
	at := day(2025, 6, 1)

	first, err := CalculateSynastry(chartA, chartB, at)
	require.NoError(t, err)
	second, err := CalculateSynastry(chartA, chartB, at)
	require.NoError(t, err)

	require.Equal(t, first, second)
	assert.NotEmpty(t, first.ResultID)
	assert.Equal(t, "chart-a", first.ChartAID)
	assert.Equal(t, "chart-b", first.ChartBID)
	assert.True(t, first.CalculatedAt.Equal(at))
}

// -----------------------------------------------------------------------------

func TestCalculateSynastryResultIDIsOrdered(t *testing.T) {
	chartA := keyChart("chart-a", "aries", 0)
	chartB := keyChart("chart-b", "leo", 0)
	at := day(2025, 6, 1)

	ab, err := CalculateSynastry(chartA, chartB, at)
	require.NoError(t, err)
	ba, err := CalculateSynastry(chartB, chartA, at)
	require.NoError(t, err)

	// The pair is ordered: reversing the charts is a different reading
	assert.NotEqual(t, ab.ResultID, ba.ResultID)
}

// -----------------------------------------------------------------------------

func TestCalculateSynastryOverallDynamic(t *testing.T) {
	// Same element (fire-fire)
	result, err := CalculateSynastry(keyChart("chart-a", "aries", 0), keyChart("chart-b", "leo", 0), day(2025, 6, 1))
	require.NoError(t, err)
	assert.Contains(t, result.OverallDynamic, "share the fire element")

	// Complementary elements (fire-air)
	result, err = CalculateSynastry(keyChart("chart-a", "aries", 0), keyChart("chart-b", "gemini", 0), day(2025, 6, 1))
	require.NoError(t, err)
	assert.Contains(t, result.OverallDynamic, "natural complements")
}

// -----------------------------------------------------------------------------

func TestCalculateSynastryPracticalGuidance(t *testing.T) {
	chartA := keyChart("chart-a", "aries", 0)
	chartB := keyChart("chart-b", "leo", 0)

	result, err := CalculateSynastry(chartA, chartB, day(2025, 6, 1))
	require.NoError(t, err)

	assert.NotEmpty(t, result.PracticalGuidance)
	assert.LessOrEqual(t, len(result.PracticalGuidance), 5)

	// No aspects at all still yields the always-present closers
	quiet, err := CalculateSynastry(chartA, keyChart("chart-b", "taurus", 15), day(2025, 6, 1))
	require.NoError(t, err)
	assert.Len(t, quiet.PracticalGuidance, 2)
}
