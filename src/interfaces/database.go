package interfaces

import "astro-insights/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for storage operations.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveNatalChart upserts one user's natal chart.
	SaveNatalChart(chart *models.MNatalChart) error

	// -----------------------------------------------------------------------------

	// SaveTransitSignalsBulk inserts a batch of raw transit signals.
	SaveTransitSignalsBulk(signals []models.MTransitSignal) error

	// -----------------------------------------------------------------------------

	// SaveScoredTransits replaces a user's scored transits wholesale.
	SaveScoredTransits(userID string, scored []models.MScoredTransit) error

	// -----------------------------------------------------------------------------

	// SaveDashboardState upserts the full per-user dashboard snapshot.
	SaveDashboardState(state *models.MDashboardState) error

	// -----------------------------------------------------------------------------

	// LoadDashboardStates returns all persisted dashboard snapshots,
	// keyed by user id. Used for warm starts.
	LoadDashboardStates() (map[string]models.MDashboardState, error)

	// -----------------------------------------------------------------------------

	// SaveSynastryResult upserts a calculated chart-pair synthesis.
	SaveSynastryResult(result *models.MSynthesisedSynastry) error

	// -----------------------------------------------------------------------------

	// CleanupOldData removes signals older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
