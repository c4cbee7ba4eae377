package models

// MProcessingMetrics represents the performance metrics for the insight pipeline.
type MProcessingMetrics struct {
	PipelineTimeSeconds float64 `json:"pipeline_time_seconds"`
	UsersProcessed      int     `json:"users_processed"`
	TransitsScored      int     `json:"transits_scored"`
	ElementsRefreshed   int     `json:"elements_refreshed"`
}
