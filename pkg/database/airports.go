package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cosmic-on-air/pkg/airports"
)

// SeedAirports loads the airport reference table.  Existing rows win, so
// reseeding after an upgrade only adds what is missing.  PostgreSQL takes
// the COPY fast path; file-based engines insert row by row inside one
// transaction, which is plenty for a reference table this size.
func (db *Database) SeedAirports(ctx context.Context, list []airports.Airport) error {
	if len(list) == 0 {
		return nil
	}
	if db.Driver == "pgx" {
		return db.seedAirportsPostgreSQLCopy(ctx, list)
	}

	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed airports: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO airports (icao, iata, name, city, country)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT (icao) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("seed airports: %w", err)
	}
	defer stmt.Close()

	for _, a := range list {
		if _, err := stmt.ExecContext(ctx, a.ICAO, a.IATA, a.Name, a.City, a.Country); err != nil {
			return fmt.Errorf("seed airport %s: %w", a.ICAO, err)
		}
	}
	return tx.Commit()
}

// AirportByICAO fetches one airport row.
func (db *Database) AirportByICAO(ctx context.Context, icao string) (airports.Airport, error) {
	query := db.rebind(`SELECT icao, iata, name, city, country FROM airports WHERE icao = ?`)
	var a airports.Airport
	err := db.DB.QueryRowContext(ctx, query, icao).Scan(&a.ICAO, &a.IATA, &a.Name, &a.City, &a.Country)
	if errors.Is(err, sql.ErrNoRows) {
		return airports.Airport{}, fmt.Errorf("%w: airport %s", ErrNotFound, icao)
	}
	if err != nil {
		return airports.Airport{}, fmt.Errorf("load airport %s: %w", icao, err)
	}
	return a, nil
}

// CountAirports reports how many airports are seeded, mostly for startup
// logging and tests.
func (db *Database) CountAirports(ctx context.Context) (int, error) {
	var n int
	if err := db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM airports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count airports: %w", err)
	}
	return n, nil
}
