package utils

import (
	"sync"
	"time"

	"astro-insights/src/insight/core"
	"astro-insights/src/logger"
	"astro-insights/src/models"
)

// RefreshScheduler decides which users need which dashboard elements
// recomputed on each sweep. It owns no pipeline logic; the staleness rules
// live in the cadence resolver.
type RefreshScheduler struct {
	Cache  *StateCache
	Logger *logger.Logger
	mu     sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewRefreshScheduler(cache *StateCache, l *logger.Logger) *RefreshScheduler {
	return &RefreshScheduler{
		Cache:  cache,
		Logger: l,
	}
}

// -----------------------------------------------------------------------------

// DueUsers returns a per-user decision for everyone with at least one stale
// element. Users without a cached snapshot are always due in full.
func (rs *RefreshScheduler) DueUsers(currentDate time.Time) map[string]models.MUpdateDecision {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	due := make(map[string]models.MUpdateDecision)

	for _, userID := range rs.Cache.UserIDs() {
		state, ok := rs.Cache.DashboardState(userID)
		if !ok {
			due[userID] = models.MUpdateDecision{
				PrimaryTheme:        true,
				IntensityMeter:      true,
				DailyGuidance:       true,
				SecondaryInfluences: true,
				UpcomingForecast:    true,
			}
			continue
		}

		decision := core.ResolveUpdatesNeeded(state, currentDate)
		if decision.Any() {
			due[userID] = decision
		}
	}

	if len(due) > 0 {
		rs.Logger.Debug("Sweep: %d users due for refresh", len(due))
	}
	return due
}

// -----------------------------------------------------------------------------

// CountRefreshed tallies how many elements a decision set recomputes; feeds
// the processing metrics.
func CountRefreshed(decisions map[string]models.MUpdateDecision) int {
	count := 0
	for _, d := range decisions {
		for _, flag := range []bool{d.PrimaryTheme, d.IntensityMeter, d.DailyGuidance, d.SecondaryInfluences, d.UpcomingForecast} {
			if flag {
				count++
			}
		}
	}
	return count
}

// -----------------------------------------------------------------------------

// NextSweepIn returns the interval until the next cadence sweep.
func (rs *RefreshScheduler) NextSweepIn(sweepIntervalSeconds int) time.Duration {
	if sweepIntervalSeconds <= 0 {
		sweepIntervalSeconds = 3600
	}
	return time.Duration(sweepIntervalSeconds) * time.Second
}
