package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound reports a flight id with no stored record.
var ErrNotFound = errors.New("database: flight not found")

const flightTimeLayout = "2006-01-02T15:04:05Z"

// Flight is one stored metadata row: the identity of a processed record and
// where its artifact file lives.  Airport columns hold ICAO codes that
// reference the airports table.
type Flight struct {
	DataID           string
	DeviceID         string
	FlightNumber     string
	DepartureAirport string
	ArrivalAirport   string
	DepartureTime    time.Time
	ArrivalTime      time.Time
	ReferenceR2      string // empty when no reference curve was fitted
	DataFile         string // path of the processed artifact
	OldLog           string // raw device log the record came from
	OldFlight        string // raw flight file the record came from
	CitizenID        string
}

// SaveFlight inserts or updates a flight keyed by its data id, so
// reprocessing a flight replaces its metadata instead of duplicating it.
func (db *Database) SaveFlight(ctx context.Context, f Flight) error {
	query := db.rebind(`INSERT INTO flights
		(data_id, device_id, flight_number, departure_airport, arrival_airport,
		 departure_time, arrival_time, reference_r2, data_file, old_log, old_flight, citizen_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (data_id) DO UPDATE SET
			device_id = excluded.device_id,
			flight_number = excluded.flight_number,
			departure_airport = excluded.departure_airport,
			arrival_airport = excluded.arrival_airport,
			departure_time = excluded.departure_time,
			arrival_time = excluded.arrival_time,
			reference_r2 = excluded.reference_r2,
			data_file = excluded.data_file,
			old_log = excluded.old_log,
			old_flight = excluded.old_flight,
			citizen_id = excluded.citizen_id`)

	_, err := db.DB.ExecContext(ctx, query,
		f.DataID, f.DeviceID, f.FlightNumber, f.DepartureAirport, f.ArrivalAirport,
		f.DepartureTime.UTC().Format(flightTimeLayout),
		f.ArrivalTime.UTC().Format(flightTimeLayout),
		f.ReferenceR2, f.DataFile, f.OldLog, f.OldFlight, f.CitizenID)
	if err != nil {
		return fmt.Errorf("save flight %q: %w", f.DataID, err)
	}
	return nil
}

const flightColumns = `data_id, device_id, flight_number, departure_airport, arrival_airport,
	departure_time, arrival_time, reference_r2, data_file, old_log, old_flight, citizen_id`

func scanFlight(row interface{ Scan(...any) error }) (Flight, error) {
	var (
		f                  Flight
		departure, arrival string
	)
	err := row.Scan(&f.DataID, &f.DeviceID, &f.FlightNumber,
		&f.DepartureAirport, &f.ArrivalAirport,
		&departure, &arrival,
		&f.ReferenceR2, &f.DataFile, &f.OldLog, &f.OldFlight, &f.CitizenID)
	if err != nil {
		return Flight{}, err
	}
	// Stored as text for portability across engines; parse errors leave the
	// zero time, which callers treat as unknown.
	f.DepartureTime, _ = time.Parse(flightTimeLayout, departure)
	f.ArrivalTime, _ = time.Parse(flightTimeLayout, arrival)
	return f, nil
}

// FlightByID fetches one flight by its data id.
func (db *Database) FlightByID(ctx context.Context, dataID string) (Flight, error) {
	query := db.rebind(`SELECT ` + flightColumns + ` FROM flights WHERE data_id = ?`)
	f, err := scanFlight(db.DB.QueryRowContext(ctx, query, dataID))
	if errors.Is(err, sql.ErrNoRows) {
		return Flight{}, fmt.Errorf("%w: %s", ErrNotFound, dataID)
	}
	if err != nil {
		return Flight{}, fmt.Errorf("load flight %q: %w", dataID, err)
	}
	return f, nil
}

// SearchFlights returns flights whose number, airports, device, or citizen
// match the given term, ordered by departure time.  An empty term lists
// everything.
func (db *Database) SearchFlights(ctx context.Context, term string) ([]Flight, error) {
	query := `SELECT ` + flightColumns + ` FROM flights`
	var args []any
	if term != "" {
		query += ` WHERE flight_number LIKE ? OR departure_airport LIKE ?
			OR arrival_airport LIKE ? OR device_id LIKE ? OR citizen_id LIKE ?`
		like := "%" + term + "%"
		args = []any{like, like, like, like, like}
	}
	query += ` ORDER BY departure_time`

	rows, err := db.DB.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("search flights: %w", err)
	}
	defer rows.Close()

	var flights []Flight
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, fmt.Errorf("search flights: %w", err)
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

// ListIDs returns every stored data id, ordered.
func (db *Database) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := db.DB.QueryContext(ctx, `SELECT data_id FROM flights ORDER BY data_id`)
	if err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list flights: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteFlight removes a flight's metadata.  The artifact file is the
// caller's to keep or delete.
func (db *Database) DeleteFlight(ctx context.Context, dataID string) error {
	query := db.rebind(`DELETE FROM flights WHERE data_id = ?`)
	res, err := db.DB.ExecContext(ctx, query, dataID)
	if err != nil {
		return fmt.Errorf("delete flight %q: %w", dataID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, dataID)
	}
	return nil
}
