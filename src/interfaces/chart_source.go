package interfaces

import (
	"astro-insights/src/models"
	"context"
	"sync"
)

// -----------------------------------------------------------------------------
// IChartSource interface for fetching charts and transit signals from an
// external ephemeris provider. The insight core depends only on this
// abstraction, never on a concrete provider.
// -----------------------------------------------------------------------------

type IChartSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchNatalChart retrieves one user's natal chart.
	FetchNatalChart(userID string) (*models.MNatalChart, error)

	// -----------------------------------------------------------------------------

	// FetchInitialSignals retrieves the full forecast-horizon transit set
	// for all configured users, keyed by user id.
	FetchInitialSignals() (map[string][]models.MTransitSignal, error)

	// -----------------------------------------------------------------------------

	// FetchUpdateSignals retrieves transits that started or changed since
	// the last fetch.
	FetchUpdateSignals() (map[string][]models.MTransitSignal, error)

	// -----------------------------------------------------------------------------

	// UpdateUsers replaces the list of users being observed
	UpdateUsers(userIDs []string) error

	// -----------------------------------------------------------------------------

	// Start begins the polling loop
	// ctx: controls the lifecycle (cancellation stops the source)
	// outputChan: channel to push fresh signals to
	// wg: WaitGroup to signal when the source has fully stopped
	Start(ctx context.Context, outputChan chan<- map[string][]models.MTransitSignal, wg *sync.WaitGroup) error

	// -----------------------------------------------------------------------------

	// Stop terminates the polling loop (manual stop)
	Stop() error
}
