package storage

import (
	"path/filepath"
	"testing"
	"time"

	"astro-insights/src/logger"
	"astro-insights/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func newTestDB(t *testing.T) *AsyncSQLiteDB {
	t.Helper()

	cfg := &models.MConfig{}
	cfg.Storage.DBType = "sqlite"
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "astro_test.db")
	cfg.Ephemeris.SignalRetentionDays = 30

	db, err := NewAsyncSQLiteDB(cfg, logger.NewLogger("ERROR", "test"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })
	return db
}

func storageSignal(userID, signalID string, end time.Time) models.MTransitSignal {
	return models.MTransitSignal{
		SignalID:         signalID,
		UserID:           userID,
		TransitingPlanet: models.PlanetSaturn,
		NatalTarget:      models.PlanetSun,
		TargetHouse:      10,
		Aspect:           models.AspectSquare,
		OrbDegrees:       1.5,
		StartDate:        end.AddDate(0, 0, -30),
		PeakStart:        end.AddDate(0, 0, -20),
		PeakEnd:          end.AddDate(0, 0, -10),
		EndDate:          end,
	}
}

// -----------------------------------------------------------------------------

func TestSaveNatalChartUpsert(t *testing.T) {
	db := newTestDB(t)

	chart := &models.MNatalChart{
		ChartID: "chart-1",
		UserID:  "user-1",
		Placements: []models.MPlacement{
			{Planet: models.PlanetSun, Sign: "leo", Degree: 15, House: 10},
		},
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, db.SaveNatalChart(chart))

	// Second save for the same user replaces, not duplicates
	chart.ChartID = "chart-1b"
	require.NoError(t, db.SaveNatalChart(chart))

	var count int
	var chartID string
	require.NoError(t, db.DB.QueryRow("SELECT COUNT(*), MAX(chart_id) FROM natal_charts WHERE user_id = ?", "user-1").Scan(&count, &chartID))
	assert.Equal(t, 1, count)
	assert.Equal(t, "chart-1b", chartID)
}

// -----------------------------------------------------------------------------

func TestSaveTransitSignalsBulk(t *testing.T) {
	db := newTestDB(t)
	end := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	signals := []models.MTransitSignal{
		storageSignal("user-1", "sig-1", end),
		storageSignal("user-1", "sig-2", end),
		storageSignal("user-2", "sig-1", end),
	}
	require.NoError(t, db.SaveTransitSignalsBulk(signals))
	require.NoError(t, db.SaveTransitSignalsBulk(nil)) // no-op

	// Refreshing a known signal updates in place
	refreshed := storageSignal("user-1", "sig-1", end.AddDate(0, 0, 5))
	refreshed.OrbDegrees = 0.3
	require.NoError(t, db.SaveTransitSignalsBulk([]models.MTransitSignal{refreshed}))

	var count int
	require.NoError(t, db.DB.QueryRow("SELECT COUNT(*) FROM transit_signals").Scan(&count))
	assert.Equal(t, 3, count)

	var orb float64
	require.NoError(t, db.DB.QueryRow("SELECT orb_degrees FROM transit_signals WHERE user_id = ? AND signal_id = ?", "user-1", "sig-1").Scan(&orb))
	assert.Equal(t, 0.3, orb)
}

// -----------------------------------------------------------------------------

func TestSaveScoredTransitsReplacesWholesale(t *testing.T) {
	db := newTestDB(t)
	end := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	first := []models.MScoredTransit{
		{Transit: storageSignal("user-1", "sig-1", end), Score: 72, PrimaryTheme: models.ThemeCareerTransformation},
		{Transit: storageSignal("user-1", "sig-2", end), Score: 55, PrimaryTheme: models.ThemePersonalPower},
	}
	require.NoError(t, db.SaveScoredTransits("user-1", first))

	second := []models.MScoredTransit{
		{Transit: storageSignal("user-1", "sig-3", end), Score: 81, PrimaryTheme: models.ThemeMaterialFoundation},
	}
	require.NoError(t, db.SaveScoredTransits("user-1", second))

	var count int
	require.NoError(t, db.DB.QueryRow("SELECT COUNT(*) FROM scored_transits WHERE user_id = ?", "user-1").Scan(&count))
	assert.Equal(t, 1, count)

	var signalID string
	require.NoError(t, db.DB.QueryRow("SELECT signal_id FROM scored_transits WHERE user_id = ?", "user-1").Scan(&signalID))
	assert.Equal(t, "sig-3", signalID)
}

// -----------------------------------------------------------------------------

func TestDashboardStateRoundTrip(t *testing.T) {
	db := newTestDB(t)

	stamped := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	state := &models.MDashboardState{
		UserID: "user-1",
		PrimaryTheme: &models.MSynthesisedTheme{
			ThemeType:      models.ThemeCareerTransformation,
			Name:           "Career Transformation",
			IntensityToday: 4,
		},
		Elements: map[string]models.MElementTimestamps{
			models.ElementPrimaryTheme: {LastFetchedAt: stamped, LastUpdatedAt: stamped},
		},
	}
	require.NoError(t, db.SaveDashboardState(state))

	loaded, err := db.LoadDashboardStates()
	require.NoError(t, err)
	require.Contains(t, loaded, "user-1")

	got := loaded["user-1"]
	require.NotNil(t, got.PrimaryTheme)
	assert.Equal(t, models.ThemeCareerTransformation, got.PrimaryTheme.ThemeType)
	assert.Equal(t, 4, got.PrimaryTheme.IntensityToday)

	// Cadence timestamps survive the round trip; the warm start depends on it
	assert.True(t, got.Elements[models.ElementPrimaryTheme].LastUpdatedAt.Equal(stamped))
}

// -----------------------------------------------------------------------------

func TestLoadDashboardStatesSkipsCorruptPayload(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.SaveDashboardState(&models.MDashboardState{UserID: "user-good"}))
	_, err := db.DB.Exec(`INSERT INTO dashboard_states (user_id, payload, updated_at) VALUES (?, ?, ?)`,
		"user-bad", "{corrupt", time.Now().UTC())
	require.NoError(t, err)

	loaded, err := db.LoadDashboardStates()
	require.NoError(t, err)
	assert.Contains(t, loaded, "user-good")
	assert.NotContains(t, loaded, "user-bad")
}

// -----------------------------------------------------------------------------

func TestSaveSynastryResultUpsert(t *testing.T) {
	db := newTestDB(t)

	result := &models.MSynthesisedSynastry{
		ResultID:     "result-1",
		ChartAID:     "chart-a",
		ChartBID:     "chart-b",
		CalculatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.SaveSynastryResult(result))

	result.CalculatedAt = result.CalculatedAt.AddDate(0, 0, 1)
	require.NoError(t, db.SaveSynastryResult(result))

	var count int
	require.NoError(t, db.DB.QueryRow("SELECT COUNT(*) FROM synastry_results WHERE result_id = ?", "result-1").Scan(&count))
	assert.Equal(t, 1, count)
}

// -----------------------------------------------------------------------------

func TestCleanupOldData(t *testing.T) {
	db := newTestDB(t)

	old := time.Now().UTC().AddDate(0, 0, -60)
	recent := time.Now().UTC().AddDate(0, 0, 10)

	require.NoError(t, db.SaveTransitSignalsBulk([]models.MTransitSignal{
		storageSignal("user-1", "sig-old", old),
		storageSignal("user-1", "sig-live", recent),
	}))

	require.NoError(t, db.CleanupOldData())

	var count int
	require.NoError(t, db.DB.QueryRow("SELECT COUNT(*) FROM transit_signals").Scan(&count))
	assert.Equal(t, 1, count)

	var signalID string
	require.NoError(t, db.DB.QueryRow("SELECT signal_id FROM transit_signals").Scan(&signalID))
	assert.Equal(t, "sig-live", signalID)
}
