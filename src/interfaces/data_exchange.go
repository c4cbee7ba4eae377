package interfaces

import "astro-insights/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger defines the interface for sharing dashboard state with
// external consumers (REST/WebSocket push).
// -----------------------------------------------------------------------------

type IDataExchanger interface {

	// Broadcast pushes fresh dashboard snapshots to connected listeners.
	Broadcast(snapshot *models.MLatestData)

	// -----------------------------------------------------------------------------

	// UpdateAllDatas merges new dashboard states into the internal state
	// without broadcasting.
	UpdateAllDatas(snapshot *models.MLatestData)

	// -----------------------------------------------------------------------------

	// Start the server
	Start() error

	// -----------------------------------------------------------------------------

	// Stop the server gracefully
	Stop() error
}
