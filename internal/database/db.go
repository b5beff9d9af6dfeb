package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"wxinsight/internal/metrics"
	"wxinsight/internal/models"
)

// ErrDuplicateLocation is returned when a location name already exists
var ErrDuplicateLocation = errors.New("duplicate location")

const mysqlDuplicateEntry = 1062

// DB represents the database connection
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection and initializes the schema
// dsn format: "username:password@tcp(host:port)/dbname?parseTime=true"
func NewDB(dsn string) (*DB, error) {
	if _, err := mysql.ParseDSN(dsn); err != nil {
		return nil, fmt.Errorf("invalid dsn: %w", err)
	}

	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	// MySQL doesn't support multiple statements in one Exec
	statements := []string{
		`CREATE TABLE IF NOT EXISTS locations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			UNIQUE KEY uq_locations_name (name)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS insight_metrics (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			report_id CHAR(36) NOT NULL,
			location VARCHAR(255) NOT NULL DEFAULT '',
			timestamp DATETIME(6) NOT NULL,
			metric_type VARCHAR(100) NOT NULL,
			value DOUBLE NOT NULL,
			UNIQUE KEY uq_insight_metrics_report (report_id, metric_type),
			INDEX idx_insight_metrics_lookup (location, metric_type, timestamp)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS weather_events (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			report_id CHAR(36) NOT NULL,
			location VARCHAR(255) NOT NULL DEFAULT '',
			event_date VARCHAR(10) NOT NULL,
			event_type VARCHAR(50) NOT NULL,
			probability INT NOT NULL,
			severity VARCHAR(20) NOT NULL,
			description TEXT NOT NULL,
			detected_at DATETIME(6) NOT NULL,
			UNIQUE KEY uq_weather_events_report (report_id, event_type, event_date),
			INDEX idx_weather_events_location (location, detected_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

func (db *DB) recordStats() {
	stats := db.conn.Stats()
	metrics.UpdateDBConnectionStats(stats.OpenConnections, stats.InUse, stats.Idle)
}

// StoreReport writes the derived metrics and events of one report in a
// single transaction. Rows are keyed by report ID, so storing the same
// report again overwrites it instead of adding rows. NaN and infinite
// metric values are skipped.
func (db *DB) StoreReport(reportID, location string, ts time.Time, values map[string]float64, events []models.Event) error {
	defer db.recordStats()

	if len(values) == 0 && len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // ignored once committed

	start := time.Now()
	stored, err := insertMetrics(tx, reportID, location, ts, values)
	if err != nil {
		metrics.RecordDBQuery("INSERT", "insight_metrics", time.Since(start), err)
		return err
	}
	metrics.RecordDBQuery("INSERT", "insight_metrics", time.Since(start), nil)

	start = time.Now()
	if err := insertEvents(tx, reportID, location, ts, events); err != nil {
		metrics.RecordDBQuery("INSERT", "weather_events", time.Since(start), err)
		return err
	}

	err = tx.Commit()
	metrics.RecordDBQuery("INSERT", "weather_events", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Stored report %s for %s: %d metrics, %d events", reportID, location, stored, len(events))
	return nil
}

func insertMetrics(tx *sql.Tx, reportID, location string, ts time.Time, values map[string]float64) (int, error) {
	names := storableMetrics(values)
	if len(names) == 0 {
		return 0, nil
	}

	stmt, err := tx.Prepare(`INSERT INTO insight_metrics (report_id, location, timestamp, metric_type, value)
		VALUES (?, ?, ?, ?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, name := range names {
		if _, err := stmt.Exec(reportID, location, ts, name, values[name]); err != nil {
			return 0, fmt.Errorf("failed to insert metric %s: %w", name, err)
		}
	}
	return len(names), nil
}

func insertEvents(tx *sql.Tx, reportID, location string, detectedAt time.Time, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(`INSERT INTO weather_events (report_id, location, event_date, event_type, probability, severity, description, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE probability = VALUES(probability), severity = VALUES(severity), description = VALUES(description)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(reportID, location, e.Date, e.Type, e.Probability, e.Severity, e.Description, detectedAt); err != nil {
			return fmt.Errorf("failed to insert %s event for %s: %w", e.Type, e.Date, err)
		}
	}
	return nil
}

// storableMetrics returns the sorted names of the finite values
func storableMetrics(values map[string]float64) []string {
	names := make([]string, 0, len(values))
	for name, v := range values {
		if finite(v) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// GetMetrics retrieves metrics for a location since a point in time.
// If metricTypes is empty, returns every metric type for the location.
func (db *DB) GetMetrics(location string, metricTypes []string, since time.Time) ([]models.Metric, error) {
	query, args := metricsQuery(location, metricTypes, since)

	start := time.Now()
	rows, err := db.conn.Query(query, args...)
	metrics.RecordDBQuery("SELECT", "insight_metrics", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Metric
	for rows.Next() {
		var m models.Metric
		if err := rows.Scan(&m.ID, &m.Location, &m.Timestamp, &m.MetricType, &m.Value); err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	return out, rows.Err()
}

func metricsQuery(location string, metricTypes []string, since time.Time) (string, []interface{}) {
	const base = `SELECT id, location, timestamp, metric_type, value FROM insight_metrics WHERE location = ?`

	if len(metricTypes) == 0 {
		return base + ` AND timestamp >= ? ORDER BY timestamp DESC`, []interface{}{location, since}
	}

	placeholders := make([]string, len(metricTypes))
	args := make([]interface{}, 0, len(metricTypes)+2)
	args = append(args, location)
	for i, mt := range metricTypes {
		placeholders[i] = "?"
		args = append(args, mt)
	}
	args = append(args, since)

	query := fmt.Sprintf(`%s AND metric_type IN (%s) AND timestamp >= ? ORDER BY timestamp DESC`,
		base, strings.Join(placeholders, ","))
	return query, args
}

// GetEvents retrieves the most recently detected events for a location
func (db *DB) GetEvents(location string, limit int) ([]models.StoredEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, report_id, location, event_date, event_type, probability, severity, description, detected_at
		FROM weather_events WHERE location = ? ORDER BY detected_at DESC, probability DESC LIMIT ?`

	start := time.Now()
	rows, err := db.conn.Query(query, location, limit)
	metrics.RecordDBQuery("SELECT", "weather_events", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.StoredEvent
	for rows.Next() {
		var e models.StoredEvent
		if err := rows.Scan(&e.ID, &e.ReportID, &e.Location, &e.EventDate, &e.EventType,
			&e.Probability, &e.Severity, &e.Description, &e.DetectedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// InsertLocation inserts a new location into the database
func (db *DB) InsertLocation(name string, latitude, longitude float64) error {
	start := time.Now()
	_, err := db.conn.Exec(`INSERT INTO locations (name, latitude, longitude) VALUES (?, ?, ?)`, name, latitude, longitude)
	metrics.RecordDBQuery("INSERT", "locations", time.Since(start), err)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateLocation
		}
		return fmt.Errorf("failed to insert location: %w", err)
	}
	return nil
}

// GetAllLocations retrieves all locations from the database
func (db *DB) GetAllLocations() ([]models.Location, error) {
	start := time.Now()
	rows, err := db.conn.Query(`SELECT id, name, latitude, longitude FROM locations ORDER BY name`)
	metrics.RecordDBQuery("SELECT", "locations", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Latitude, &loc.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locations: %w", err)
	}

	return locations, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
