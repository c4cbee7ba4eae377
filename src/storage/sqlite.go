package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"astro-insights/src/logger"
	"astro-insights/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	return &AsyncSQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) createTables() error {
	// Tables are kept across restarts: dashboard snapshots feed the warm
	// start and retention cleanup handles aging signals.
	queries := []string{
		`CREATE TABLE IF NOT EXISTS natal_charts (
			user_id TEXT PRIMARY KEY,
			chart_id TEXT,
			payload TEXT,
			created_at TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS transit_signals (
			user_id TEXT,
			signal_id TEXT,
			transiting_planet TEXT,
			natal_target TEXT,
			target_house INTEGER,
			aspect TEXT,
			orb_degrees REAL,
			start_date TIMESTAMP,
			peak_start TIMESTAMP,
			peak_end TIMESTAMP,
			end_date TIMESTAMP,
			PRIMARY KEY (user_id, signal_id)
		);`,
		`CREATE TABLE IF NOT EXISTS scored_transits (
			user_id TEXT,
			signal_id TEXT,
			score REAL,
			primary_theme TEXT,
			end_date TIMESTAMP,
			payload TEXT,
			scored_at TIMESTAMP,
			PRIMARY KEY (user_id, signal_id)
		);`,
		`CREATE TABLE IF NOT EXISTS dashboard_states (
			user_id TEXT PRIMARY KEY,
			payload TEXT,
			updated_at TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS synastry_results (
			result_id TEXT PRIMARY KEY,
			chart_a_id TEXT,
			chart_b_id TEXT,
			payload TEXT,
			calculated_at TIMESTAMP
		);`,
	}

	for _, query := range queries {
		if _, err := d.DB.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveNatalChart(chart *models.MNatalChart) error {
	payload, err := json.Marshal(chart)
	if err != nil {
		return err
	}

	_, err = d.DB.Exec(`
		INSERT INTO natal_charts (user_id, chart_id, payload, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			chart_id = excluded.chart_id,
			payload = excluded.payload,
			created_at = excluded.created_at
	`, chart.UserID, chart.ChartID, string(payload), chart.CreatedAt)
	return err
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveTransitSignalsBulk(signals []models.MTransitSignal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO transit_signals (user_id, signal_id, transiting_planet, natal_target, target_house, aspect, orb_degrees, start_date, peak_start, peak_end, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, signal_id) DO UPDATE SET
			orb_degrees = excluded.orb_degrees,
			start_date = excluded.start_date,
			peak_start = excluded.peak_start,
			peak_end = excluded.peak_end,
			end_date = excluded.end_date
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range signals {
		_, err := stmt.Exec(s.UserID, s.SignalID, s.TransitingPlanet, s.NatalTarget, s.TargetHouse, s.Aspect, s.OrbDegrees, s.StartDate, s.PeakStart, s.PeakEnd, s.EndDate)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

// SaveScoredTransits replaces the user's scored set wholesale; scores are
// regenerated on every pipeline run and stale rows must not linger.
func (d *AsyncSQLiteDB) SaveScoredTransits(userID string, scored []models.MScoredTransit) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM scored_transits WHERE user_id = ?", userID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO scored_transits (user_id, signal_id, score, primary_theme, end_date, payload, scored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range scored {
		payload, err := json.Marshal(s)
		if err != nil {
			return err
		}
		_, err = stmt.Exec(userID, s.Transit.SignalID, s.Score, s.PrimaryTheme, s.Transit.EndDate, string(payload), s.ScoredAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveDashboardState(state *models.MDashboardState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}

	_, err = d.DB.Exec(`
		INSERT INTO dashboard_states (user_id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, state.UserID, string(payload), time.Now().UTC())
	return err
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) LoadDashboardStates() (map[string]models.MDashboardState, error) {
	rows, err := d.DB.Query("SELECT user_id, payload FROM dashboard_states")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	states := make(map[string]models.MDashboardState)
	for rows.Next() {
		var userID, payload string
		if err := rows.Scan(&userID, &payload); err != nil {
			return nil, err
		}

		var state models.MDashboardState
		if err := json.Unmarshal([]byte(payload), &state); err != nil {
			d.Logger.Warning("Skipping corrupt dashboard snapshot for %s: %v", userID, err)
			continue
		}
		states[userID] = state
	}

	return states, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveSynastryResult(result *models.MSynthesisedSynastry) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}

	_, err = d.DB.Exec(`
		INSERT INTO synastry_results (result_id, chart_a_id, chart_b_id, payload, calculated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (result_id) DO UPDATE SET
			payload = excluded.payload,
			calculated_at = excluded.calculated_at
	`, result.ResultID, result.ChartAID, result.ChartBID, string(payload), result.CalculatedAt)
	return err
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) CleanupOldData() error {
	retentionDays := d.Config.Ephemeris.SignalRetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	d.Logger.Info("Cleaning up signals ended more than %d days ago...", retentionDays)

	if _, err := d.DB.Exec("DELETE FROM transit_signals WHERE end_date < ?", cutoff); err != nil {
		d.Logger.Error("Cleanup transit_signals error: %v", err)
	}
	if _, err := d.DB.Exec("DELETE FROM scored_transits WHERE end_date < ?", cutoff); err != nil {
		d.Logger.Error("Cleanup scored_transits error: %v", err)
	}
	if _, err := d.DB.Exec("DELETE FROM synastry_results WHERE calculated_at < ?", cutoff); err != nil {
		d.Logger.Error("Cleanup synastry_results error: %v", err)
	}

	d.Logger.Info("Cleanup completed")
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
