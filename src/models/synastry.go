package models

import "time"

// MSynastryAspect is an inter-chart relationship between one planet of
// chart A and one planet of chart B.
type MSynastryAspect struct {
	PlanetA    string  `json:"planet_a"`
	PlanetB    string  `json:"planet_b"`
	Aspect     string  `json:"aspect"`
	OrbDegrees float64 `json:"orb_degrees"`
	Nature     string  `json:"nature"`
}

// -----------------------------------------------------------------------------

// MScoredSynastryAspect adds the 0-100 score and selection category.
type MScoredSynastryAspect struct {
	MSynastryAspect
	Score    float64 `json:"score"`
	Category string  `json:"category"`
}

// -----------------------------------------------------------------------------

// MSynastryInsight is one presentable finding about a chart pair.
type MSynastryInsight struct {
	Title         string `json:"title"`
	PlanetA       string `json:"planet_a"`
	PlanetB       string `json:"planet_b"`
	Aspect        string `json:"aspect"`
	Category      string `json:"category"`
	Manifestation string `json:"manifestation"`
}

// -----------------------------------------------------------------------------

// MSynthesisedSynastry is the full relationship read for a chart pair.
// Supportive connections never exceed 3, friction points never exceed 2,
// and the growth lesson is always present.
type MSynthesisedSynastry struct {
	ResultID              string             `json:"result_id"`
	ChartAID              string             `json:"chart_a_id"`
	ChartBID              string             `json:"chart_b_id"`
	OverallDynamic        string             `json:"overall_dynamic"`
	SupportiveConnections []MSynastryInsight `json:"supportive_connections"`
	FrictionPoints        []MSynastryInsight `json:"friction_points"`
	GrowthLesson          MSynastryInsight   `json:"growth_lesson"`
	PracticalGuidance     []string           `json:"practical_guidance"`
	CalculatedAt          time.Time          `json:"calculated_at"`
}
