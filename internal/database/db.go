package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"aquatrack/internal/metrics"
	"aquatrack/internal/models"

	_ "github.com/go-sql-driver/mysql"
)

// DB represents the database connection
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection and initializes the schema
// dsn format: "username:password@tcp(host:port)/dbname?parseTime=true"
// example: "user:pass@tcp(localhost:3306)/aquatrack?parseTime=true"
func NewDB(dsn string) (*DB, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	// MySQL doesn't support multiple statements in one Exec, so we need to split them
	statements := []string{
		`CREATE TABLE IF NOT EXISTS process_samples (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			scenario VARCHAR(50) NOT NULL,
			timestamp DATETIME(6) NOT NULL,
			inlet_flow_lph DOUBLE NOT NULL,
			post_treatment_flow_lph DOUBLE NOT NULL,
			rinse_flow_lph DOUBLE NOT NULL,
			cip_flow_lph DOUBLE NOT NULL,
			production_lph DOUBLE NOT NULL,
			conductivity_us_cm DOUBLE NOT NULL,
			turbidity_ntu DOUBLE NOT NULL,
			temperature_c DOUBLE NOT NULL,
			cip_active TINYINT(1) NOT NULL,
			shift VARCHAR(20) NOT NULL,
			line_status VARCHAR(20) NOT NULL,
			wur DOUBLE NULL,
			INDEX idx_samples_scenario (scenario),
			INDEX idx_samples_timestamp (timestamp)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS alerts (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			scenario VARCHAR(50) NOT NULL,
			kind VARCHAR(100) NOT NULL,
			severity VARCHAR(50) NOT NULL,
			message TEXT NOT NULL,
			timestamp DATETIME(6) NOT NULL,
			INDEX idx_alerts_scenario (scenario),
			INDEX idx_alerts_timestamp (timestamp)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// ReplaceSamples replaces the stored dataset for a scenario with the given
// sequence, so re-importing a regenerated CSV stays idempotent.
func (db *DB) ReplaceSamples(scenario models.Scenario, samples []models.ProcessSample) error {
	if len(samples) == 0 {
		log.Printf("No samples for scenario %s", scenario)
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be ignored if committed

	queryStart := time.Now()
	_, err = tx.Exec(`DELETE FROM process_samples WHERE scenario = ?`, scenario)
	metrics.RecordDBQuery("DELETE", "process_samples", time.Since(queryStart), err)
	if err != nil {
		return fmt.Errorf("failed to clear scenario %s: %w", scenario, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO process_samples
		(scenario, timestamp, inlet_flow_lph, post_treatment_flow_lph, rinse_flow_lph, cip_flow_lph,
		 production_lph, conductivity_us_cm, turbidity_ntu, temperature_c, cip_active, shift, line_status, wur)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	insertStart := time.Now()
	for i := range samples {
		s := &samples[i]
		var wur sql.NullFloat64
		if s.WUR != nil {
			wur = sql.NullFloat64{Float64: *s.WUR, Valid: true}
		}
		_, err = stmt.Exec(s.Scenario, s.Timestamp, s.InletFlow, s.PostTreatmentFlow, s.RinseFlow,
			s.CIPFlow, s.Production, s.Conductivity, s.Turbidity, s.Temperature,
			s.CIPActive, s.Shift, s.LineStatus, wur)
		if err != nil {
			return fmt.Errorf("failed to insert sample at %s: %w", s.Timestamp, err)
		}
	}
	metrics.RecordDBQuery("INSERT", "process_samples", time.Since(insertStart), nil)

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	stats := db.conn.Stats()
	metrics.UpdateDBConnectionStats(stats.OpenConnections, stats.InUse, stats.Idle)

	log.Printf("✓ Stored %d samples for scenario %s", len(samples), scenario)
	return nil
}

// GetSamples retrieves samples for a scenario since the given time, in
// timestamp order.
func (db *DB) GetSamples(scenario models.Scenario, since time.Time) ([]models.ProcessSample, error) {
	query := `SELECT scenario, timestamp, inlet_flow_lph, post_treatment_flow_lph, rinse_flow_lph, cip_flow_lph,
		production_lph, conductivity_us_cm, turbidity_ntu, temperature_c, cip_active, shift, line_status, wur
		FROM process_samples WHERE scenario = ? AND timestamp >= ? ORDER BY timestamp ASC`

	queryStart := time.Now()
	rows, err := db.conn.Query(query, scenario, since)
	metrics.RecordDBQuery("SELECT", "process_samples", time.Since(queryStart), err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []models.ProcessSample
	for rows.Next() {
		var s models.ProcessSample
		var wur sql.NullFloat64
		if err := rows.Scan(&s.Scenario, &s.Timestamp, &s.InletFlow, &s.PostTreatmentFlow, &s.RinseFlow,
			&s.CIPFlow, &s.Production, &s.Conductivity, &s.Turbidity, &s.Temperature,
			&s.CIPActive, &s.Shift, &s.LineStatus, &wur); err != nil {
			return nil, err
		}
		if wur.Valid {
			v := wur.Float64
			s.WUR = &v
		}
		samples = append(samples, s)
	}

	return samples, rows.Err()
}

// StoreAlerts stores a batch of alerts
func (db *DB) StoreAlerts(alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil // Nothing to store
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO alerts (scenario, kind, severity, message, timestamp) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	queryStart := time.Now()
	for _, a := range alerts {
		if _, err = stmt.Exec(a.Scenario, a.Kind, a.Severity, a.Message, a.Timestamp); err != nil {
			return fmt.Errorf("failed to insert alert %s at %s: %w", a.Kind, a.Timestamp, err)
		}
	}
	metrics.RecordDBQuery("INSERT", "alerts", time.Since(queryStart), nil)

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("✓ Stored %d alerts", len(alerts))
	return nil
}

// GetAlerts retrieves recent alerts for a scenario
func (db *DB) GetAlerts(scenario models.Scenario, limit int) ([]models.Alert, error) {
	query := `SELECT id, scenario, kind, severity, message, timestamp FROM alerts WHERE scenario = ? ORDER BY timestamp DESC LIMIT ?`

	queryStart := time.Now()
	rows, err := db.conn.Query(query, scenario, limit)
	metrics.RecordDBQuery("SELECT", "alerts", time.Since(queryStart), err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.Scenario, &a.Kind, &a.Severity, &a.Message, &a.Timestamp); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// GetScenarioSummary returns the headline figures for a stored scenario
func (db *DB) GetScenarioSummary(scenario models.Scenario) (*models.ScenarioSummary, error) {
	query := `
	SELECT
		COUNT(*) as count,
		COALESCE(AVG(wur), 0) as mean_wur,
		COALESCE(SUM(inlet_flow_lph), 0) / 1000 as total_inlet_m3,
		COALESCE(SUM(production_lph), 0) / 1000 as total_production_m3,
		SUM(CASE WHEN wur IS NULL THEN 1 ELSE 0 END) as undefined_wur
	FROM process_samples
	WHERE scenario = ?
	`
	summary := &models.ScenarioSummary{Scenario: scenario}

	queryStart := time.Now()
	row := db.conn.QueryRow(query, scenario)
	err := row.Scan(&summary.Samples, &summary.MeanWUR, &summary.TotalInletM3, &summary.TotalProductM3, &summary.UndefinedWURPts)
	metrics.RecordDBQuery("SELECT", "process_samples", time.Since(queryStart), err)
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
