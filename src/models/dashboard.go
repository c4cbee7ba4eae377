package models

import "time"

// MElementTimestamps tracks freshness for one dashboard element.
type MElementTimestamps struct {
	LastFetchedAt time.Time `json:"last_fetched_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// -----------------------------------------------------------------------------

// MUpcomingWindow is one entry of the rolling 90-day forecast list.
type MUpcomingWindow struct {
	ThemeType string    `json:"theme_type"`
	Headline  string    `json:"headline"`
	StartDate time.Time `json:"start_date"`
	PeakStart time.Time `json:"peak_start"`
	PeakEnd   time.Time `json:"peak_end"`
	EndDate   time.Time `json:"end_date"`
	Score     float64   `json:"score"`
	SignalID  string    `json:"signal_id"`
}

// -----------------------------------------------------------------------------

// MDashboardState is the per-user aggregate the UI consumes. Callers treat
// it as copy-on-write: recomputation produces a new value that replaces the
// old one atomically.
type MDashboardState struct {
	UserID          string                        `json:"user_id"`
	PrimaryTheme    *MSynthesisedTheme            `json:"primary_theme"`
	SecondaryThemes []MSynthesisedTheme           `json:"secondary_themes"` // <=3
	DailyGuidance   *MDailyGuidance               `json:"daily_guidance"`
	UpcomingWindows []MUpcomingWindow             `json:"upcoming_windows"`
	Elements        map[string]MElementTimestamps `json:"elements"`
}

// -----------------------------------------------------------------------------

// ElementUpdatedAt returns the last recompute time for an element, zero
// when the element has never been computed.
func (s *MDashboardState) ElementUpdatedAt(element string) time.Time {
	if s == nil || s.Elements == nil {
		return time.Time{}
	}
	return s.Elements[element].LastUpdatedAt
}

// -----------------------------------------------------------------------------

// MUpdateDecision carries one staleness boolean per dashboard element.
// Consumed by the scheduler to decide which sub-pipelines to re-run.
type MUpdateDecision struct {
	PrimaryTheme        bool `json:"primary_theme"`
	IntensityMeter      bool `json:"intensity_meter"`
	DailyGuidance       bool `json:"daily_guidance"`
	SecondaryInfluences bool `json:"secondary_influences"`
	UpcomingForecast    bool `json:"upcoming_forecast"`
}

// Any reports whether at least one element is due.
func (d MUpdateDecision) Any() bool {
	return d.PrimaryTheme || d.IntensityMeter || d.DailyGuidance ||
		d.SecondaryInfluences || d.UpcomingForecast
}
