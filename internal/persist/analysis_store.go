package persist

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/schema"
)

// Table names for analysis tracking.
const (
	RunsTable     = "motionwin_runs"
	AnalysesTable = "motionwin_analyses"
)

// AnalysisStoreImpl implements the AnalysisStore interface.
type AnalysisStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// driverName maps a backend to its database/sql driver.
func driverName(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported backend: %s", backend)
	}
}

// openDB opens and pings a connection for backend. An empty SQLite path means the default file.
func openDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	driver, err := driverName(backend)
	if err != nil {
		return nil, err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetStoreDBFilePath()
	}

	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Check that the directory is writable."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}
	return db, nil
}

// NewAnalysisStore creates a new AnalysisStore with the specified backend.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &AnalysisStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}

	if err := createTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create analysis tables: %w", err)
	}

	return &AnalysisStoreImpl{db: db, backend: backend}, nil
}

// createTables creates the run and analysis tables.
func createTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{RunsTable, getCreateRunsQuery(backend)},
		{AnalysesTable, getCreateAnalysesQuery(backend)},
	}

	for _, table := range tables {
		if err := validateTableName(table.name); err != nil {
			return err
		}
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for motionwin_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(RunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				collection_id VARCHAR(36) NOT NULL,
				relation VARCHAR(255) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_records INT NOT NULL DEFAULT 0,
				total_analyses INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				collection_id TEXT NOT NULL,
				relation TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_records INT NOT NULL DEFAULT 0,
				total_analyses INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				collection_id TEXT NOT NULL,
				relation TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_records INTEGER NOT NULL DEFAULT 0,
				total_analyses INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateAnalysesQuery returns the CREATE TABLE query for motionwin_analyses.
func getCreateAnalysesQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(AnalysesTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_id BIGINT NOT NULL,
				relation VARCHAR(255) NOT NULL,
				label VARCHAR(255) NOT NULL,
				session VARCHAR(255) NOT NULL,
				athlete VARCHAR(255) NOT NULL,
				start_stamp VARCHAR(255) NOT NULL,
				end_stamp VARCHAR(255) NOT NULL,
				window_start INT NOT NULL,
				window_end INT NOT NULL,
				records INT NOT NULL,
				analyzed_at DATETIME(6) NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGSERIAL PRIMARY KEY,
				run_id BIGINT NOT NULL,
				relation TEXT NOT NULL,
				label TEXT NOT NULL,
				session TEXT NOT NULL,
				athlete TEXT NOT NULL,
				start_stamp TEXT NOT NULL,
				end_stamp TEXT NOT NULL,
				window_start INT NOT NULL,
				window_end INT NOT NULL,
				records INT NOT NULL,
				analyzed_at TIMESTAMPTZ NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id INTEGER NOT NULL,
				relation TEXT NOT NULL,
				label TEXT NOT NULL,
				session TEXT NOT NULL,
				athlete TEXT NOT NULL,
				start_stamp TEXT NOT NULL,
				end_stamp TEXT NOT NULL,
				window_start INTEGER NOT NULL,
				window_end INTEGER NOT NULL,
				records INTEGER NOT NULL,
				analyzed_at TEXT NOT NULL
			);
		`, quotedTableName)
	}
}

// disabled reports whether the store is a no-op.
func (as *AnalysisStoreImpl) disabled() bool {
	return as.backend == schema.NoneBackend || as.db == nil
}

// BeginRun creates a new run for a collection and returns its unique ID.
func (as *AnalysisStoreImpl) BeginRun(collectionID, relation string, startTime time.Time, configParams map[string]any) (int64, error) {
	if as.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(RunsTable, as.backend)
	args := []any{collectionID, relation, formatTime(startTime, as.backend), string(configJSON)}

	var runID int64
	switch as.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (collection_id, relation, start_time, config_params) VALUES ($1, $2, $3, $4) RETURNING run_id`, quotedTableName)
		err = as.db.QueryRow(query, args...).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (collection_id, relation, start_time, config_params) VALUES (?, ?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = as.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	return runID, nil
}

// EndRun updates the run with completion data.
func (as *AnalysisStoreImpl) EndRun(runID int64, endTime time.Time, totalRecords, totalAnalyses int) error {
	if as.disabled() {
		return nil
	}

	quotedTableName := quoteTableName(RunsTable, as.backend)
	row := as.db.QueryRow(rebind(as.backend, fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, quotedTableName)), runID)

	startTime, err := as.scanTime(row)
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	durationMs := endTime.Sub(startTime).Milliseconds()

	query := rebind(as.backend, fmt.Sprintf(
		`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_records = ?, total_analyses = ? WHERE run_id = ?`, quotedTableName))
	if _, err := as.db.Exec(query, formatTime(endTime, as.backend), durationMs, totalRecords, totalAnalyses, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return nil
}

// RecordAnalysis stores one realized analysis for the run.
func (as *AnalysisStoreImpl) RecordAnalysis(runID int64, a schema.Analysis) error {
	if as.disabled() {
		return nil
	}

	r := schema.ToAnalysisRecord(runID, a)
	query := rebind(as.backend, fmt.Sprintf(`
		INSERT INTO %s (run_id, relation, label, session, athlete, start_stamp, end_stamp,
		                window_start, window_end, records, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, quoteTableName(AnalysesTable, as.backend)))

	_, err := as.db.Exec(query,
		r.RunID, r.Relation, r.Label, r.Session, r.Athlete, r.StartStamp, r.EndStamp,
		r.WindowStart, r.WindowEnd, r.Records, formatTime(r.AnalyzedAt, as.backend))
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTime reads a single time column, parsing SQLite text.
func (as *AnalysisStoreImpl) scanTime(row rowScanner) (time.Time, error) {
	if as.backend != schema.SQLiteBackend {
		var t time.Time
		err := row.Scan(&t)
		return t, err
	}
	var s string
	if err := row.Scan(&s); err != nil {
		return time.Time{}, err
	}
	return parseTime(s)
}

// GetAllRuns retrieves every run from the store.
func (as *AnalysisStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if as.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, collection_id, relation, start_time, end_time, run_duration_ms,
		total_records, total_analyses, config_params FROM %s ORDER BY run_id`, quoteTableName(RunsTable, as.backend))

	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord

		switch as.backend {
		case schema.SQLiteBackend:
			var startTimeStr string
			var endTimeStr *string
			if err := rows.Scan(&record.RunID, &record.CollectionID, &record.Relation, &startTimeStr, &endTimeStr,
				&record.RunDurationMs, &record.TotalRecords, &record.TotalAnalyses, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			if record.StartTime, err = parseTime(startTimeStr); err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			if endTimeStr != nil {
				endTime, err := parseTime(*endTimeStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &endTime
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.CollectionID, &record.Relation, &record.StartTime, &record.EndTime,
				&record.RunDurationMs, &record.TotalRecords, &record.TotalAnalyses, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
		}

		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllAnalyses retrieves every stored analysis ordered by run and window.
func (as *AnalysisStoreImpl) GetAllAnalyses() ([]schema.AnalysisRecord, error) {
	if as.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, relation, label, session, athlete, start_stamp, end_stamp,
		window_start, window_end, records, analyzed_at
		FROM %s ORDER BY run_id, window_start, analysis_id`, quoteTableName(AnalysesTable, as.backend))

	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AnalysisRecord
	for rows.Next() {
		var r schema.AnalysisRecord
		dest := []any{&r.RunID, &r.Relation, &r.Label, &r.Session, &r.Athlete, &r.StartStamp, &r.EndStamp,
			&r.WindowStart, &r.WindowEnd, &r.Records}

		switch as.backend {
		case schema.SQLiteBackend:
			var analyzedAt string
			if err := rows.Scan(append(dest, &analyzedAt)...); err != nil {
				return nil, fmt.Errorf("failed to scan analysis: %w", err)
			}
			if r.AnalyzedAt, err = parseTime(analyzedAt); err != nil {
				return nil, fmt.Errorf("failed to parse analyzed_at: %w", err)
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(append(dest, &r.AnalyzedAt)...); err != nil {
				return nil, fmt.Errorf("failed to scan analysis: %w", err)
			}
		}

		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w", err)
	}
	return results, nil
}

// GetStatus returns status information about the analysis store.
func (as *AnalysisStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}
	if as.disabled() {
		return status, nil
	}

	runs := quoteTableName(RunsTable, as.backend)
	if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		row := as.db.QueryRow(fmt.Sprintf("SELECT run_id FROM %s ORDER BY run_id DESC LIMIT 1", runs))
		if err := row.Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}

		var err error
		row = as.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1", runs))
		if status.LastRunTime, err = as.scanTime(row); err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}

		row = as.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runs))
		if status.OldestRunTime, err = as.scanTime(row); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}

		row = as.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_records), 0) FROM %s", runs))
		if err := row.Scan(&status.TotalRecordsSeen); err != nil {
			return status, fmt.Errorf("failed to get total records: %w", err)
		}
	}

	for _, table := range []string{RunsTable, AnalysesTable} {
		var count int64
		row := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, as.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalAnalyses = int(status.TableSizes[AnalysesTable])

	return status, nil
}

// Clear deletes all runs and analyses but keeps the tables.
func (as *AnalysisStoreImpl) Clear() error {
	if as.disabled() {
		return nil
	}
	for _, table := range []string{AnalysesTable, RunsTable} {
		if _, err := as.db.Exec(fmt.Sprintf("DELETE FROM %s", quoteTableName(table, as.backend))); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}
	return nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}
