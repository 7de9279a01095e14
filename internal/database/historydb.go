package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// HistoryDB provides SQLite-based storage for mirror run history.
// It manages connection pooling and provides methods for saving and
// querying past runs.
//
// Design decision: one database file for all runs rather than one per
// site. This keeps history queries across sites simple and makes
// backup/restore a single-file operation.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "webmirror.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; the crawl is sequential anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Runs store one row per completed mirror run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		started DATETIME NOT NULL,
		finished DATETIME NOT NULL,
		requests INTEGER NOT NULL,
		files INTEGER NOT NULL,
		bytes INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);

	-- Pages store one row per page fetched during a run
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		url TEXT NOT NULL,
		status_code INTEGER,
		content_type TEXT,
		stored_path TEXT,
		size INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// Run represents a stored mirror run.
type Run struct {
	ID       int64
	Seed     string
	Started  time.Time
	Finished time.Time
	Requests int
	Files    int
	Bytes    int64
}

// Page represents one fetched page within a run.
type Page struct {
	ID          int64
	RunID       int64
	URL         string
	StatusCode  int
	ContentType string
	StoredPath  string
	Size        int64
}

// SaveRun inserts a run and its pages in one transaction and returns
// the run ID.
func (hdb *HistoryDB) SaveRun(ctx context.Context, run *Run, pages []Page) (int64, error) {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	result, err := tx.ExecContext(ctx,
		`INSERT INTO runs (seed, started, finished, requests, files, bytes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.Seed,
		run.Started.UTC().Format("2006-01-02 15:04:05"),
		run.Finished.UTC().Format("2006-01-02 15:04:05"),
		run.Requests,
		run.Files,
		run.Bytes,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	for _, p := range pages {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO pages (run_id, url, status_code, content_type, stored_path, size)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, p.URL, p.StatusCode, p.ContentType, p.StoredPath, p.Size,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert page: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// ListRuns returns runs newest first, optionally filtered by seed.
// A limit of zero returns all runs.
func (hdb *HistoryDB) ListRuns(ctx context.Context, seed string, limit int) ([]Run, error) {
	query := `
	SELECT id, seed, started, finished, requests, files, bytes
	FROM runs
	WHERE 1=1
	`
	args := make([]interface{}, 0)

	if seed != "" {
		query += " AND seed = ?"
		args = append(args, seed)
	}

	query += " ORDER BY started DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []Run
	for rows.Next() {
		var run Run
		var started, finished string

		err := rows.Scan(
			&run.ID,
			&run.Seed,
			&started,
			&finished,
			&run.Requests,
			&run.Files,
			&run.Bytes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Started = parseTimestamp(started)
		run.Finished = parseTimestamp(finished)
		results = append(results, run)
	}

	return results, rows.Err()
}

// GetRun retrieves a run by ID. It returns nil when no run exists.
func (hdb *HistoryDB) GetRun(ctx context.Context, id int64) (*Run, error) {
	query := `
	SELECT id, seed, started, finished, requests, files, bytes
	FROM runs
	WHERE id = ?
	`

	var run Run
	var started, finished string

	err := hdb.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&run.Seed,
		&started,
		&finished,
		&run.Requests,
		&run.Files,
		&run.Bytes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.Started = parseTimestamp(started)
	run.Finished = parseTimestamp(finished)
	return &run, nil
}

// ListPages returns the pages fetched during a run, in insertion order.
func (hdb *HistoryDB) ListPages(ctx context.Context, runID int64) ([]Page, error) {
	query := `
	SELECT id, run_id, url, status_code, content_type, stored_path, size
	FROM pages
	WHERE run_id = ?
	ORDER BY id
	`

	rows, err := hdb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var results []Page
	for rows.Next() {
		var p Page
		err := rows.Scan(
			&p.ID,
			&p.RunID,
			&p.URL,
			&p.StatusCode,
			&p.ContentType,
			&p.StoredPath,
			&p.Size,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		results = append(results, p)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
