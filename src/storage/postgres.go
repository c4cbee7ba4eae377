package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"astro-insights/src/logger"
	"astro-insights/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	// Schema is named after the executable so several deployments can share
	// one database.
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresDB{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	queries := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s"."natal_charts" (
			user_id TEXT PRIMARY KEY,
			chart_id TEXT,
			payload JSONB,
			created_at TIMESTAMPTZ
		);`, d.Schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s"."transit_signals" (
			user_id TEXT,
			signal_id TEXT,
			transiting_planet TEXT,
			natal_target TEXT,
			target_house INTEGER,
			aspect TEXT,
			orb_degrees DOUBLE PRECISION,
			start_date TIMESTAMPTZ,
			peak_start TIMESTAMPTZ,
			peak_end TIMESTAMPTZ,
			end_date TIMESTAMPTZ,
			PRIMARY KEY (user_id, signal_id)
		);`, d.Schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s"."scored_transits" (
			user_id TEXT,
			signal_id TEXT,
			score DOUBLE PRECISION,
			primary_theme TEXT,
			end_date TIMESTAMPTZ,
			payload JSONB,
			scored_at TIMESTAMPTZ,
			PRIMARY KEY (user_id, signal_id)
		);`, d.Schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s"."dashboard_states" (
			user_id TEXT PRIMARY KEY,
			payload JSONB,
			updated_at TIMESTAMPTZ
		);`, d.Schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s"."synastry_results" (
			result_id TEXT PRIMARY KEY,
			chart_a_id TEXT,
			chart_b_id TEXT,
			payload JSONB,
			calculated_at TIMESTAMPTZ
		);`, d.Schema),
	}

	for _, query := range queries {
		if _, err := d.DB.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveNatalChart(chart *models.MNatalChart) error {
	payload, err := json.Marshal(chart)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO "%s"."natal_charts" (user_id, chart_id, payload, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			chart_id = EXCLUDED.chart_id,
			payload = EXCLUDED.payload,
			created_at = EXCLUDED.created_at
	`, d.Schema)

	_, err = d.DB.Exec(query, chart.UserID, chart.ChartID, string(payload), chart.CreatedAt)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveTransitSignalsBulk(signals []models.MTransitSignal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO "%s"."transit_signals" (user_id, signal_id, transiting_planet, natal_target, target_house, aspect, orb_degrees, start_date, peak_start, peak_end, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, signal_id) DO UPDATE SET
			orb_degrees = EXCLUDED.orb_degrees,
			start_date = EXCLUDED.start_date,
			peak_start = EXCLUDED.peak_start,
			peak_end = EXCLUDED.peak_end,
			end_date = EXCLUDED.end_date
	`, d.Schema)

	stmt, err := tx.Prepare(query)
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

func (d *PostgresDB) SaveScoredTransits(userID string, scored []models.MScoredTransit) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	deleteQuery := fmt.Sprintf(`DELETE FROM "%s"."scored_transits" WHERE user_id = $1`, d.Schema)
	if _, err := tx.Exec(deleteQuery, userID); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO "%s"."scored_transits" (user_id, signal_id, score, primary_theme, end_date, payload, scored_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.Schema)

	stmt, err := tx.Prepare(query)
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

func (d *PostgresDB) SaveDashboardState(state *models.MDashboardState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO "%s"."dashboard_states" (user_id, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`, d.Schema)

	_, err = d.DB.Exec(query, state.UserID, string(payload), time.Now().UTC())
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) LoadDashboardStates() (map[string]models.MDashboardState, error) {
	query := fmt.Sprintf(`SELECT user_id, payload FROM "%s"."dashboard_states"`, d.Schema)
	rows, err := d.DB.Query(query)
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

func (d *PostgresDB) SaveSynastryResult(result *models.MSynthesisedSynastry) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO "%s"."synastry_results" (result_id, chart_a_id, chart_b_id, payload, calculated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (result_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			calculated_at = EXCLUDED.calculated_at
	`, d.Schema)

	_, err = d.DB.Exec(query, result.ResultID, result.ChartAID, result.ChartBID, string(payload), result.CalculatedAt)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) CleanupOldData() error {
	retentionDays := d.Config.Ephemeris.SignalRetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	d.Logger.Info("Cleaning up signals ended more than %d days ago...", retentionDays)

	tables := map[string]string{
		"transit_signals":  "end_date",
		"scored_transits":  "end_date",
		"synastry_results": "calculated_at",
	}
	for table, column := range tables {
		query := fmt.Sprintf(`DELETE FROM "%s"."%s" WHERE %s < $1`, d.Schema, table, column)
		if _, err := d.DB.Exec(query, cutoff); err != nil {
			d.Logger.Error("Cleanup %s error: %v", table, err)
		}
	}

	d.Logger.Info("Cleanup completed")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
