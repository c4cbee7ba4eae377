package models

import "time"

// MSynthesisedTheme aggregates scored transits sharing a primary theme
// into one narrative window. Superseded wholesale on each recomputation.
type MSynthesisedTheme struct {
	ThemeType              string    `json:"theme_type"`
	Name                   string    `json:"name"`
	Description            string    `json:"description"`
	StartDate              time.Time `json:"start_date"`
	PeakStart              time.Time `json:"peak_start"`
	PeakEnd                time.Time `json:"peak_end"`
	EndDate                time.Time `json:"end_date"`
	IntensityToday         int       `json:"intensity_today"` // 1-5
	PrimaryFocusArea       string    `json:"primary_focus_area"`
	AggregateScore         float64   `json:"aggregate_score"`
	ContributingTransitIDs []string  `json:"contributing_transit_ids"`
	LastUpdatedAt          time.Time `json:"last_updated_at"`
}

// -----------------------------------------------------------------------------

// MDailyGuidance is one day's advice card, derived purely from the
// current primary theme. No identity beyond its date.
type MDailyGuidance struct {
	Date           time.Time `json:"date"`
	ThemeType      string    `json:"theme_type"`
	Phase          string    `json:"phase"`
	Tone           string    `json:"tone"`
	Advice         string    `json:"advice"`
	DoList         []string  `json:"do_list"`
	AvoidList      []string  `json:"avoid_list"`
	IntensityLevel int       `json:"intensity_level"` // 1-5
}
