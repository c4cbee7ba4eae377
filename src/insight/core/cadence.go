package core

import (
	"astro-insights/src/models"
	"time"
)

// -----------------------------------------------------------------------------
// Update Cadence Resolver
//
// Pure date arithmetic: no clock reads, no storage. Each dashboard element
// has a {minDays, maxDays} window; it becomes due once
// currentDate - lastUpdated >= minDays and is force-due once >= maxDays
// regardless of any other signal, so nothing stays stale indefinitely.
// -----------------------------------------------------------------------------

// CadenceWindow is the min/max staleness window for one element, in days.
type CadenceWindow struct {
	MinDays int
	MaxDays int
}

// CadenceWindows holds the default per-element refresh windows. Daily
// guidance is special-cased on calendar-date change rather than a 24h
// delta.
var CadenceWindows = map[string]CadenceWindow{
	models.ElementPrimaryTheme:        {MinDays: 7, MaxDays: 14},
	models.ElementIntensityMeter:      {MinDays: 1, MaxDays: 2},
	models.ElementDailyGuidance:       {MinDays: 1, MaxDays: 1},
	models.ElementSecondaryInfluences: {MinDays: 5, MaxDays: 10},
	models.ElementUpcomingForecast:    {MinDays: 7, MaxDays: 7},
}

// -----------------------------------------------------------------------------

// ShouldUpdateElement reports whether an element is due for recomputation.
// A zero lastUpdated means the element was never computed and is always due.
func ShouldUpdateElement(element string, lastUpdated, currentDate time.Time) bool {
	if lastUpdated.IsZero() {
		return true
	}

	if element == models.ElementDailyGuidance {
		// Stale whenever the calendar date differs from the stored one.
		return !TruncateDay(lastUpdated).Equal(TruncateDay(currentDate))
	}

	window, ok := CadenceWindows[element]
	if !ok {
		return false
	}
	return DaysBetween(lastUpdated, currentDate) >= window.MinDays
}

// -----------------------------------------------------------------------------

// MustUpdateElement reports whether an element has exceeded its maximum
// window and must be refreshed even if nothing else changed.
func MustUpdateElement(element string, lastUpdated, currentDate time.Time) bool {
	if lastUpdated.IsZero() {
		return true
	}
	window, ok := CadenceWindows[element]
	if !ok {
		return false
	}
	return DaysBetween(lastUpdated, currentDate) >= window.MaxDays
}

// -----------------------------------------------------------------------------
// Per-element contracts
// -----------------------------------------------------------------------------

func ShouldUpdatePrimaryTheme(lastUpdated, currentDate time.Time) bool {
	return ShouldUpdateElement(models.ElementPrimaryTheme, lastUpdated, currentDate)
}

func ShouldUpdateIntensityMeter(lastUpdated, currentDate time.Time) bool {
	return ShouldUpdateElement(models.ElementIntensityMeter, lastUpdated, currentDate)
}

func ShouldUpdateDailyGuidance(lastUpdated, currentDate time.Time) bool {
	return ShouldUpdateElement(models.ElementDailyGuidance, lastUpdated, currentDate)
}

func ShouldUpdateSecondaryInfluences(lastUpdated, currentDate time.Time) bool {
	return ShouldUpdateElement(models.ElementSecondaryInfluences, lastUpdated, currentDate)
}

func ShouldUpdateUpcomingForecast(lastUpdated, currentDate time.Time) bool {
	return ShouldUpdateElement(models.ElementUpcomingForecast, lastUpdated, currentDate)
}

// -----------------------------------------------------------------------------

// ResolveUpdatesNeeded inspects a dashboard state's per-element timestamps
// and returns one staleness decision per element.
func ResolveUpdatesNeeded(state *models.MDashboardState, currentDate time.Time) models.MUpdateDecision {
	return models.MUpdateDecision{
		PrimaryTheme:        ShouldUpdatePrimaryTheme(state.ElementUpdatedAt(models.ElementPrimaryTheme), currentDate),
		IntensityMeter:      ShouldUpdateIntensityMeter(state.ElementUpdatedAt(models.ElementIntensityMeter), currentDate),
		DailyGuidance:       ShouldUpdateDailyGuidance(state.ElementUpdatedAt(models.ElementDailyGuidance), currentDate),
		SecondaryInfluences: ShouldUpdateSecondaryInfluences(state.ElementUpdatedAt(models.ElementSecondaryInfluences), currentDate),
		UpcomingForecast:    ShouldUpdateUpcomingForecast(state.ElementUpdatedAt(models.ElementUpcomingForecast), currentDate),
	}
}

// -----------------------------------------------------------------------------

// CalculateNextUpdateTime returns the earliest date an element becomes due
// again after a refresh at lastUpdated.
func CalculateNextUpdateTime(element string, lastUpdated time.Time) time.Time {
	if element == models.ElementDailyGuidance {
		return TruncateDay(lastUpdated).AddDate(0, 0, 1)
	}
	window, ok := CadenceWindows[element]
	if !ok {
		return lastUpdated
	}
	return TruncateDay(lastUpdated).AddDate(0, 0, window.MinDays)
}
