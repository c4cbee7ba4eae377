package utils

import (
	"testing"
	"time"

	"astro-insights/src/logger"
	"astro-insights/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func freshState(userID string, at time.Time) *models.MDashboardState {
	elements := make(map[string]models.MElementTimestamps, len(models.DashboardElements))
	for _, element := range models.DashboardElements {
		elements[element] = models.MElementTimestamps{LastFetchedAt: at, LastUpdatedAt: at}
	}
	return &models.MDashboardState{UserID: userID, Elements: elements}
}

// -----------------------------------------------------------------------------

func TestDueUsersWithoutSnapshot(t *testing.T) {
	cache := NewStateCache(10)
	cache.SetChart("user-1", cacheChart("user-1"))
	rs := NewRefreshScheduler(cache, logger.NewLogger("ERROR", "test"))

	due := rs.DueUsers(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))
	require.Contains(t, due, "user-1")

	decision := due["user-1"]
	assert.True(t, decision.PrimaryTheme)
	assert.True(t, decision.IntensityMeter)
	assert.True(t, decision.DailyGuidance)
	assert.True(t, decision.SecondaryInfluences)
	assert.True(t, decision.UpcomingForecast)
}

// -----------------------------------------------------------------------------

func TestDueUsersFreshStateNotDue(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	cache := NewStateCache(10)
	cache.SetDashboardState(freshState("user-1", now))
	rs := NewRefreshScheduler(cache, logger.NewLogger("ERROR", "test"))

	due := rs.DueUsers(now.Add(time.Hour))
	assert.Empty(t, due)
}

// -----------------------------------------------------------------------------

func TestDueUsersPartialStaleness(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	cache := NewStateCache(10)

	// Guidance stamped yesterday, everything else fresh
	state := freshState("user-1", now)
	state.Elements[models.ElementDailyGuidance] = models.MElementTimestamps{
		LastUpdatedAt: now.AddDate(0, 0, -1),
	}
	state.Elements[models.ElementIntensityMeter] = models.MElementTimestamps{
		LastUpdatedAt: now.AddDate(0, 0, -1),
	}
	cache.SetDashboardState(state)

	cache.SetDashboardState(freshState("user-2", now))

	rs := NewRefreshScheduler(cache, logger.NewLogger("ERROR", "test"))
	due := rs.DueUsers(now)

	require.Len(t, due, 1)
	decision := due["user-1"]
	assert.True(t, decision.DailyGuidance)
	assert.True(t, decision.IntensityMeter)
	assert.False(t, decision.PrimaryTheme)
	assert.False(t, decision.SecondaryInfluences)
	assert.False(t, decision.UpcomingForecast)
}

// -----------------------------------------------------------------------------

func TestCountRefreshed(t *testing.T) {
	decisions := map[string]models.MUpdateDecision{
		"user-1": {PrimaryTheme: true, DailyGuidance: true},
		"user-2": {IntensityMeter: true},
		"user-3": {},
	}
	assert.Equal(t, 3, CountRefreshed(decisions))
	assert.Equal(t, 0, CountRefreshed(nil))
}

// -----------------------------------------------------------------------------

func TestNextSweepIn(t *testing.T) {
	rs := NewRefreshScheduler(NewStateCache(10), logger.NewLogger("ERROR", "test"))

	assert.Equal(t, 90*time.Second, rs.NextSweepIn(90))
	assert.Equal(t, time.Hour, rs.NextSweepIn(0))
	assert.Equal(t, time.Hour, rs.NextSweepIn(-5))
}
