package models

// -----------------------------------------------------------------------------
// Server State Structure
// -----------------------------------------------------------------------------

type MLatestData struct {
	Type              string                     `json:"type"` // "INITIAL" or "UPDATE"
	Dashboards        map[string]MDashboardState `json:"dashboards"`
	Timestamp         int64                      `json:"timestamp"`
	ProcessingMetrics MProcessingMetrics         `json:"processing_metrics"`
}

// -----------------------------------------------------------------------------
// SubscribeCommand for client messages
// -----------------------------------------------------------------------------

type MSubscribeCommand struct {
	Command string   `json:"command"`
	UserIDs []string `json:"userIds"`
}
