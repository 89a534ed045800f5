// Package database is the flight metadata store: which flights were
// processed, with which detector, where the artifact lives.  The measurement
// rows themselves stay in the artifact files; the store only answers "what
// do we have" questions and keeps the airport reference table.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Database wraps the SQL connection for the metadata store.
type Database struct {
	DB     *sql.DB
	Driver string // normalized driver name so SQL builders can branch honestly
}

// Config holds the connection details for the metadata store.
type Config struct {
	DBType string // "sqlite", "genji", "chai", "duckdb", or "pgx" (PostgreSQL)
	DBPath string // file path for file-based databases
	DBConn string // raw DSN for network drivers
	DBHost string
	DBPort int
	DBUser string
	DBPass string
	DBName string
}

// normalizeDBType trims and lowercases driver names so the switch blocks
// below never miss a backend because a caller passed mixed case or
// incidental whitespace.
func normalizeDBType(dbType string) string {
	return strings.ToLower(strings.TrimSpace(dbType))
}

// New opens the store and configures connection pooling.  SQLite-like
// engines are forced into single-connection mode: one physical connection,
// no concurrent statements at the DB layer.
func New(config Config, logf func(string, ...any)) (*Database, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	driverName := normalizeDBType(config.DBType)
	dsn, applySQLitePragmas, err := resolveDSN(driverName, config)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	switch driverName {
	case "sqlite", "genji", "chai", "duckdb":
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		if applySQLitePragmas {
			tuneCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := tuneSQLiteLikeConnection(tuneCtx, db, logf); err != nil {
				logf("sqlite tuning skipped: %v", err)
			}
			cancel()
		}
	}

	{
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("connect to the database: %w", err)
		}
	}

	store := &Database{DB: db, Driver: driverName}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	logf("metadata store ready: driver %s, dsn %s", driverName, dsn)
	return store, nil
}

// resolveDSN maps a normalized driver name to its data source.  File-backed
// engines default to a cosmic-on-air file in the current folder; pgx builds
// a URL from the connection fields unless a raw DSN was supplied.
func resolveDSN(driverName string, config Config) (dsn string, sqlitePragmas bool, err error) {
	switch driverName {
	case "sqlite":
		sqlitePragmas = true
		dsn = config.DBPath
		if dsn == "" {
			dsn = "cosmic-on-air.sqlite"
		}
	case "genji", "chai":
		// Both reuse sqlite-style file DSNs but manage their own
		// transaction and caching strategy, so they skip the PRAGMA tuning.
		dsn = config.DBPath
		if dsn == "" {
			dsn = "cosmic-on-air." + driverName
		}
	case "duckdb":
		dsn = config.DBPath
		if dsn == "" {
			dsn = "cosmic-on-air.duckdb"
		}
	case "pgx":
		if strings.TrimSpace(config.DBConn) != "" {
			dsn = config.DBConn
		} else {
			dsn = fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
				config.DBUser, config.DBPass, config.DBHost, config.DBPort, config.DBName)
		}
	default:
		return "", false, fmt.Errorf("unsupported database type: %s", driverName)
	}
	return dsn, sqlitePragmas, nil
}

// Close releases the underlying connection.
func (db *Database) Close() error { return db.DB.Close() }

// ensureSchema creates the airports and flights tables.  Airports are a
// reference table keyed by ICAO code; flights reference them and key on the
// record's data id, so reprocessing the same flight updates in place.
func (db *Database) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS airports (
			icao TEXT PRIMARY KEY,
			iata TEXT,
			name TEXT,
			city TEXT,
			country TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS flights (
			data_id TEXT PRIMARY KEY,
			device_id TEXT,
			flight_number TEXT,
			departure_airport TEXT NOT NULL,
			arrival_airport TEXT NOT NULL,
			departure_time TEXT,
			arrival_time TEXT,
			reference_r2 TEXT,
			data_file TEXT NOT NULL,
			old_log TEXT,
			old_flight TEXT,
			citizen_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_flights_route
			ON flights (departure_airport, arrival_airport)`,
	}
	for _, stmt := range statements {
		if _, err := db.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// rebind converts "?" placeholders to the "$n" form PostgreSQL expects.
// Queries are written once with "?" and rebound per driver.
func (db *Database) rebind(query string) string {
	if db.Driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// tuneSQLiteLikeConnection applies WAL/synchronous/busy pragmas.  The steps
// run through a small channel pipeline so the work happens outside the
// caller goroutine, following "Don't communicate by sharing memory; share
// memory by communicating".
func tuneSQLiteLikeConnection(ctx context.Context, db *sql.DB, logf func(string, ...any)) error {
	type pragma struct {
		label     string
		query     string
		expectRow bool
	}

	steps := []pragma{
		{label: "journal_mode", query: "PRAGMA journal_mode=WAL;", expectRow: true},
		{label: "synchronous", query: "PRAGMA synchronous=NORMAL;"},
		{label: "temp_store", query: "PRAGMA temp_store=MEMORY;"},
		{label: "busy_timeout", query: "PRAGMA busy_timeout=5000;"},
	}

	jobs := make(chan pragma)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		for step := range jobs {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			default:
			}

			if step.expectRow {
				var mode string
				if err := db.QueryRowContext(ctx, step.query).Scan(&mode); err != nil {
					errs <- fmt.Errorf("apply %s: %w", step.label, err)
					return
				}
				logf("SQLite tuning %s -> %s", step.label, mode)
				continue
			}

			if _, err := db.ExecContext(ctx, step.query); err != nil {
				errs <- fmt.Errorf("apply %s: %w", step.label, err)
				return
			}
			logf("SQLite tuning %s applied", step.label)
		}
		errs <- nil
	}()

	go func() {
		defer close(jobs)
		for _, step := range steps {
			jobs <- step
		}
	}()

	return <-errs
}
