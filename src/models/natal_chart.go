package models

import "time"

// MPlacement represents one planet's position in a natal chart.
type MPlacement struct {
	Planet     string  `json:"planet"`
	Sign       string  `json:"sign"`
	Degree     float64 `json:"degree"` // 0-30 within the sign
	House      int     `json:"house"`  // 1-12
	Retrograde bool    `json:"retrograde"`
}

// -----------------------------------------------------------------------------

// MNatalChart is a birth chart as delivered by the ephemeris provider.
// The engine never computes placements itself.
type MNatalChart struct {
	ChartID    string       `json:"chart_id"`
	UserID     string       `json:"user_id"`
	Placements []MPlacement `json:"placements"`
	HouseCusps []float64    `json:"house_cusps"` // 12 absolute degrees
	Ascendant  MPlacement   `json:"ascendant"`
	Midheaven  MPlacement   `json:"midheaven"`
	CreatedAt  time.Time    `json:"created_at"`
}

// -----------------------------------------------------------------------------

// Placement returns the placement for a planet, or false when the chart
// does not carry it.
func (c *MNatalChart) Placement(planet string) (MPlacement, bool) {
	switch planet {
	case PointAscendant:
		return c.Ascendant, c.Ascendant.Sign != ""
	case PointMidheaven:
		return c.Midheaven, c.Midheaven.Sign != ""
	}
	for _, p := range c.Placements {
		if p.Planet == planet {
			return p, true
		}
	}
	return MPlacement{}, false
}

// -----------------------------------------------------------------------------

// MUserPreferences holds the per-user settings the scoring engine consumes.
// Produced by the external settings storage.
type MUserPreferences struct {
	UserID          string   `json:"user_id" yaml:"user_id"`
	FocusAreas      []string `json:"focus_areas" yaml:"focus_areas"`
	CurrentLocation string   `json:"current_location" yaml:"current_location"`
}
