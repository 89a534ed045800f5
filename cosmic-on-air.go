package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"cosmic-on-air/pkg/airports"
	"cosmic-on-air/pkg/cari"
	"cosmic-on-air/pkg/database"
	"cosmic-on-air/pkg/devicelog"
	"cosmic-on-air/pkg/flighttrack"
	"cosmic-on-air/pkg/logger"
	"cosmic-on-air/pkg/merge"
	"cosmic-on-air/pkg/sharelink"
)

var devicePath = flag.String("device", "", "Path to the raw detector log (.log, .csv, or .txt)")
var flightPath = flag.String("flight", "", `Flight data: a .kml or .csv track, or "takeoff, landing, flight" as "2006-01-02 15:04:05, 2006-01-02 15:04:05, BA123"`)
var citizenID = flag.String("citizen", "UNKNOWN", "Identifier of the person who collected the data")
var deviceGPS = flag.Bool("device-gps", false, "Prefer device GPS over interpolated flight track positions")
var timeDelta = flag.Int("time-delta", -1, "Expected seconds between samples for timestamp repair; <= 0 infers it from the data")
var parallel = flag.Int("parallel", 6, "Parallel CARI-7A instances; <= 0 skips the simulator entirely")
var cariDir = flag.String("cari-dir", "CARI_7A_DVD", "Path to the CARI-7A installation folder")
var cariWeather = flag.Bool("cari-weather", false, "Enable geomagnetic storm and Forbush corrections in CARI-7A")
var outDir = flag.String("out", "", "Directory for the processed artifact (defaults to the device log's directory)")
var reprocess = flag.Bool("reprocess", false, "Ignore an existing processed artifact and run the full pipeline")
var search = flag.String("search", "", "List stored flights matching the term and exit (empty term with -search=. lists all)")
var dbType = flag.String("db-type", "sqlite", "Type of the database driver: genji, sqlite, chai, duckdb, or pgx (postgresql)")
var dbPath = flag.String("db-path", "", "Path to the database file (defaults to the current folder, applicable for genji, sqlite, chai, duckdb drivers)")
var dbHost = flag.String("db-host", "127.0.0.1", "Database host (applicable for pgx driver)")
var dbPort = flag.Int("db-port", 5432, "Database port (applicable for pgx driver)")
var dbUser = flag.String("db-user", "postgres", "Database user (applicable for pgx driver)")
var dbPass = flag.String("db-pass", "", "Database password (applicable for pgx driver)")
var dbName = flag.String("db-name", "CosmicOnAir", "Database name (applicable for pgx driver)")
var showVersion = flag.Bool("version", false, "Show the application version")

var CompileVersion = "dev"

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("cosmic-on-air version %s\n", CompileVersion)
		return
	}

	db, err := database.New(database.Config{
		DBType: *dbType,
		DBPath: *dbPath,
		DBHost: *dbHost,
		DBPort: *dbPort,
		DBUser: *dbUser,
		DBPass: *dbPass,
		DBName: *dbName,
	}, log.Printf)
	if err != nil {
		log.Fatalf("metadata store: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.SeedAirports(ctx, airports.All()); err != nil {
		log.Fatalf("seed airports: %v", err)
	}

	if *search != "" {
		term := *search
		if term == "." {
			term = ""
		}
		flights, err := db.SearchFlights(ctx, term)
		if err != nil {
			log.Fatalf("search: %v", err)
		}
		for _, f := range flights {
			fmt.Printf("%-40s %s %s-%s R2=%s %s\n",
				f.DataID, f.DepartureTime.Format("2006-01-02"),
				f.DepartureAirport, f.ArrivalAirport, f.ReferenceR2, f.DataFile)
		}
		log.Printf("%d flight(s)", len(flights))
		return
	}

	if *devicePath == "" {
		flag.Usage()
		log.Fatal("a -device log is required")
	}

	if err := process(ctx, db); err != nil {
		// Give the logger goroutine a moment to drain its channel.
		time.Sleep(200 * time.Millisecond)
		os.Exit(1)
	}
	time.Sleep(200 * time.Millisecond)
}

// process runs one device log through the pipeline and records the result.
// Detail lines are buffered per record and only replayed on failure.
func process(ctx context.Context, db *database.Database) error {
	key := filepath.Base(*devicePath)
	logger.Begin(key)
	logf := func(format string, args ...any) {
		logger.Append(key, fmt.Sprintf(format, args...))
	}

	fail := func(err error) error {
		logger.FlushError(key, err)
		return err
	}

	artifactPath, found := merge.FindProcessed(*devicePath)
	if *outDir != "" {
		artifactPath = filepath.Join(*outDir, filepath.Base(artifactPath))
		_, statErr := os.Stat(artifactPath)
		found = statErr == nil
	}

	var record *merge.Record
	if found && !*reprocess {
		logf("found existing processed artifact %s", artifactPath)
		var err error
		record, err = merge.ReadFile(artifactPath)
		if err != nil {
			return fail(fmt.Errorf("read processed artifact: %w", err))
		}
	} else {
		var err error
		record, err = runPipeline(ctx, logf)
		if err != nil {
			return fail(err)
		}
		if err := merge.WriteFile(artifactPath, record); err != nil {
			return fail(err)
		}
		logf("artifact written to %s", artifactPath)
	}

	if _, err := sharelink.ForArtifact(artifactPath, record.DataID()); err != nil {
		return fail(err)
	}

	r2 := ""
	if record.HasReference {
		r2 = fmt.Sprintf("%.4f", record.R2)
	}
	err := db.SaveFlight(ctx, database.Flight{
		DataID:           record.DataID(),
		DeviceID:         record.DeviceID,
		FlightNumber:     record.FlightNumber,
		DepartureAirport: record.OriginICAO,
		ArrivalAirport:   record.DestinationICAO,
		DepartureTime:    record.Takeoff,
		ArrivalTime:      record.Landing,
		ReferenceR2:      r2,
		DataFile:         artifactPath,
		OldLog:           *devicePath,
		OldFlight:        *flightPath,
		CitizenID:        record.CitizenID,
	})
	if err != nil {
		return fail(err)
	}

	logger.Success(record.DataID(), artifactPath)
	return nil
}

// runPipeline executes the full chain: parse, repair, simulate, align,
// merge.  The simulator step is skipped when the installation is missing or
// -parallel is non-positive; the record then aligns by count sums alone.
func runPipeline(ctx context.Context, logf func(string, ...any)) (*merge.Record, error) {
	device, err := devicelog.ReadFile(*devicePath)
	if err != nil {
		return nil, err
	}
	logf("device %s: %d samples (%s format)", device.DeviceID, device.Len(), device.Format)

	flight, err := loadFlight(device)
	if err != nil {
		return nil, err
	}
	logf("flight %s %s-%s, %s to %s", flight.FlightNumber,
		flight.OriginICAO, flight.DestinationICAO,
		flight.Takeoff.Format(time.RFC3339), flight.Landing.Format(time.RFC3339))

	var curve *cari.Curve
	if *parallel > 0 && cari.Available(*cariDir) {
		curve, err = cari.Generate(ctx, flight, cari.Options{
			InstallDir:     *cariDir,
			Parallel:       *parallel,
			DisableWeather: !*cariWeather,
			Logf:           logf,
		})
		if err != nil {
			return nil, err
		}
	} else {
		logf("CARI-7A not available at %q; falling back to count-sum alignment, results stay in CPM", *cariDir)
	}

	delta := time.Duration(0)
	if *timeDelta > 0 {
		delta = time.Duration(*timeDelta) * time.Second
	}
	return merge.Run(device, flight, curve, merge.Options{
		DeviceGPS: *deviceGPS,
		TimeDelta: delta,
		CitizenID: *citizenID,
		Logf:      logf,
	})
}

// loadFlight resolves the -flight argument: a track file by extension, or a
// "takeoff, landing, flight" triple that recovers the track from device GPS.
func loadFlight(device *devicelog.Series) (*flighttrack.Track, error) {
	switch strings.ToLower(filepath.Ext(*flightPath)) {
	case ".kml", ".csv":
		return flighttrack.ReadFile(*flightPath)
	}

	rows := strings.Split(*flightPath, ",")
	if len(rows) < 3 {
		return nil, errors.New("flight data is required: a .kml/.csv track or \"takeoff, landing, flight\"")
	}
	takeoff, err1 := time.Parse("2006-01-02 15:04:05", strings.TrimSpace(rows[0]))
	landing, err2 := time.Parse("2006-01-02 15:04:05", strings.TrimSpace(rows[1]))
	if err1 != nil || err2 != nil {
		return nil, errors.New("flight times must look like 2006-01-02 15:04:05")
	}
	flightNumber := strings.TrimSpace(rows[2])
	return flighttrack.Recover(device.Times, device.Lat, device.Lon, device.Alt,
		takeoff, landing, flightNumber)
}
