package models

import "time"

// MTransitSignal is a raw astronomical event from the ephemeris provider:
// a transiting planet forming an aspect to a natal chart point over a
// date range. Immutable once produced.
type MTransitSignal struct {
	SignalID         string    `json:"signal_id"`
	UserID           string    `json:"user_id"`
	TransitingPlanet string    `json:"transiting_planet"`
	NatalTarget      string    `json:"natal_target"` // planet name, "ascendant" or "midheaven"
	TargetHouse      int       `json:"target_house"` // house the transit activates, 1-12
	Aspect           string    `json:"aspect"`
	OrbDegrees       float64   `json:"orb_degrees"`
	StartDate        time.Time `json:"start_date"`
	PeakStart        time.Time `json:"peak_start"`
	PeakEnd          time.Time `json:"peak_end"`
	EndDate          time.Time `json:"end_date"`
}

// -----------------------------------------------------------------------------

// MIntensitySample is one point of a transit's intensity curve.
type MIntensitySample struct {
	Date      time.Time `json:"date"`
	Intensity int       `json:"intensity"` // 1-5
}

// -----------------------------------------------------------------------------

// MScoredTransit is the scored form of one MTransitSignal. Regenerated
// whenever the source transit or preferences change, never mutated.
type MScoredTransit struct {
	Transit         MTransitSignal     `json:"transit"`
	Score           float64            `json:"score"` // 0-100
	PrimaryTheme    string             `json:"primary_theme"`
	SecondaryThemes []string           `json:"secondary_themes"`
	IntensityCurve  []MIntensitySample `json:"intensity_curve"`
	ScoredAt        time.Time          `json:"scored_at"`
}
