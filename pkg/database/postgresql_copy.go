package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"cosmic-on-air/pkg/airports"
)

// seedAirportsPostgreSQLCopy streams the airport table into PostgreSQL with
// COPY.  A temporary table keeps COPY's throughput while the final INSERT
// still enforces the existing-rows-win policy of the main table.  The
// helper stays connection-local to avoid mutexes and lets the database
// enforce ordering.
func (db *Database) seedAirportsPostgreSQLCopy(ctx context.Context, list []airports.Airport) error {
	if ctx == nil {
		ctx = context.Background()
	}

	conn, err := db.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open postgres connection: %w", err)
	}
	defer conn.Close()

	// Timestamp suffix keeps the name unique per call while staying
	// predictable for debugging.
	tempTable := fmt.Sprintf("temp_airports_%d", time.Now().UnixNano())
	createTemp := fmt.Sprintf(`CREATE TEMP TABLE %s (
		icao TEXT, iata TEXT, name TEXT, city TEXT, country TEXT
	)`, tempTable)
	if _, err := conn.ExecContext(ctx, createTemp); err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}

	// Cleanup must survive a cancelled caller context.
	dropCtx, dropCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer dropCancel()
	defer conn.ExecContext(dropCtx, fmt.Sprintf("DROP TABLE IF EXISTS %s", tempTable))

	rows := make([][]interface{}, 0, len(list))
	for _, a := range list {
		rows = append(rows, []interface{}{a.ICAO, a.IATA, a.Name, a.City, a.Country})
	}

	copyErr := conn.Raw(func(driverConn any) error {
		direct, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected postgres driver %T", driverConn)
		}
		_, err := direct.Conn().CopyFrom(
			ctx,
			pgx.Identifier{tempTable},
			[]string{"icao", "iata", "name", "city", "country"},
			pgx.CopyFromRows(rows),
		)
		return err
	})
	if copyErr != nil {
		return fmt.Errorf("copy airports into temp table: %w", copyErr)
	}

	insertFromTemp := fmt.Sprintf(`INSERT INTO airports (icao, iata, name, city, country)
		SELECT icao, iata, name, city, country FROM %s
		ON CONFLICT (icao) DO NOTHING`, tempTable)
	if _, err := conn.ExecContext(ctx, insertFromTemp); err != nil {
		return fmt.Errorf("merge temp airports: %w", err)
	}

	return nil
}
