package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cosmic-on-air/pkg/airports"
	"cosmic-on-air/pkg/database"
	_ "cosmic-on-air/pkg/database/drivers"
)

func openTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(database.Config{
		DBType: "sqlite",
		DBPath: filepath.Join(t.TempDir(), "test.sqlite"),
	}, t.Logf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleFlight() database.Flight {
	takeoff := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return database.Flight{
		DataID:           "BA123 2026-03-14 Safecast 2063",
		DeviceID:         "Safecast 2063",
		FlightNumber:     "BA123",
		DepartureAirport: "EGLL",
		ArrivalAirport:   "KJFK",
		DepartureTime:    takeoff,
		ArrivalTime:      takeoff.Add(8 * time.Hour),
		ReferenceR2:      "0.9876",
		DataFile:         "Processed_data_1042.log",
		OldLog:           "1042.log",
		OldFlight:        "BA123.kml",
		CitizenID:        "citizen-7",
	}
}

func TestFlightCRUD(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	want := sampleFlight()
	if err := db.SaveFlight(ctx, want); err != nil {
		t.Fatalf("SaveFlight: %v", err)
	}
	got, err := db.FlightByID(ctx, want.DataID)
	if err != nil {
		t.Fatalf("FlightByID: %v", err)
	}
	if got != want {
		t.Errorf("FlightByID = %+v, want %+v", got, want)
	}

	// Saving the same data id again must update, not duplicate.
	want.ReferenceR2 = "0.9999"
	if err := db.SaveFlight(ctx, want); err != nil {
		t.Fatalf("SaveFlight update: %v", err)
	}
	ids, err := db.ListIDs(ctx)
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("ListIDs = %v, want one id", ids)
	}
	got, err = db.FlightByID(ctx, want.DataID)
	if err != nil {
		t.Fatalf("FlightByID after update: %v", err)
	}
	if got.ReferenceR2 != "0.9999" {
		t.Errorf("ReferenceR2 = %q after update", got.ReferenceR2)
	}

	if err := db.DeleteFlight(ctx, want.DataID); err != nil {
		t.Fatalf("DeleteFlight: %v", err)
	}
	if _, err := db.FlightByID(ctx, want.DataID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("after delete: err = %v, want ErrNotFound", err)
	}
	if err := db.DeleteFlight(ctx, want.DataID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("double delete: err = %v, want ErrNotFound", err)
	}
}

func TestSearchFlights(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	a := sampleFlight()
	b := sampleFlight()
	b.DataID = "SA331 2026-03-15 UCT TimePix"
	b.DeviceID = "UCT TimePix"
	b.FlightNumber = "SA331"
	b.DepartureAirport = "FACT"
	b.ArrivalAirport = "FAOR"
	b.DepartureTime = a.DepartureTime.Add(24 * time.Hour)
	for _, f := range []database.Flight{a, b} {
		if err := db.SaveFlight(ctx, f); err != nil {
			t.Fatalf("SaveFlight: %v", err)
		}
	}

	all, err := db.SearchFlights(ctx, "")
	if err != nil {
		t.Fatalf("SearchFlights: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("SearchFlights(\"\") = %d rows, want 2", len(all))
	}
	// Ordered by departure time.
	if all[0].DataID != a.DataID {
		t.Errorf("order = %s first, want %s", all[0].DataID, a.DataID)
	}

	byAirport, err := db.SearchFlights(ctx, "FACT")
	if err != nil {
		t.Fatalf("SearchFlights(FACT): %v", err)
	}
	if len(byAirport) != 1 || byAirport[0].FlightNumber != "SA331" {
		t.Errorf("SearchFlights(FACT) = %+v", byAirport)
	}
}

func TestSeedAirports(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.SeedAirports(ctx, airports.All()); err != nil {
		t.Fatalf("SeedAirports: %v", err)
	}
	n, err := db.CountAirports(ctx)
	if err != nil {
		t.Fatalf("CountAirports: %v", err)
	}
	if n != len(airports.All()) {
		t.Errorf("seeded %d airports, want %d", n, len(airports.All()))
	}

	// Reseeding is a no-op thanks to existing-rows-win.
	if err := db.SeedAirports(ctx, airports.All()); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if n2, _ := db.CountAirports(ctx); n2 != n {
		t.Errorf("reseed changed row count: %d -> %d", n, n2)
	}

	heathrow, err := db.AirportByICAO(ctx, "EGLL")
	if err != nil {
		t.Fatalf("AirportByICAO: %v", err)
	}
	if heathrow.City != "London" {
		t.Errorf("EGLL city = %q", heathrow.City)
	}
}
