// Package merge combines a detector log, a flight track, and an optional
// simulated reference curve into one processed flight record.
//
// The pipeline is a fixed sequence of stages.  Each stage consumes the
// output of the previous one and the record carries its current stage, so a
// failure report always names how far processing got:
//
//	RAW_LOADED -> TIMES_REPAIRED -> WINDOW_RESOLVED ->
//	POSITION_FILLED -> REFERENCE_MERGED -> FINALIZED
//
// Device streams and flight tracks live on different clocks.  The window
// search (pkg/align) finds where the flight sits inside the device stream;
// the merge then rebases device time onto the flight's takeoff instant, so
// every downstream consumer sees a single coherent timeline.
package merge

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"cosmic-on-air/pkg/align"
	"cosmic-on-air/pkg/cari"
	"cosmic-on-air/pkg/devicelog"
	"cosmic-on-air/pkg/flighttrack"
	"cosmic-on-air/pkg/geo"
	"cosmic-on-air/pkg/timefix"
)

// Stage tracks how far a record has progressed through the pipeline.
type Stage int

const (
	StageRawLoaded Stage = iota
	StageTimesRepaired
	StageWindowResolved
	StagePositionFilled
	StageReferenceMerged
	StageFinalized
)

func (s Stage) String() string {
	switch s {
	case StageRawLoaded:
		return "RAW_LOADED"
	case StageTimesRepaired:
		return "TIMES_REPAIRED"
	case StageWindowResolved:
		return "WINDOW_RESOLVED"
	case StagePositionFilled:
		return "POSITION_FILLED"
	case StageReferenceMerged:
		return "REFERENCE_MERGED"
	case StageFinalized:
		return "FINALIZED"
	default:
		return "unknown"
	}
}

// ErrInconsistentFlightSet reports records that claim to describe the same
// flight but disagree on its identity.
var ErrInconsistentFlightSet = errors.New("merge: inconsistent flight set")

// Record is one processed flight: device counts on the flight timeline with
// positions and, when the simulator ran, the reference dose columns.
type Record struct {
	Stage  Stage
	Format devicelog.Format

	DeviceID        string
	FlightNumber    string
	Origin          string
	Destination     string
	OriginICAO      string
	DestinationICAO string
	CitizenID       string

	Date    time.Time
	Takeoff time.Time
	Landing time.Time

	TimestampsRepaired bool
	TimeOffsetSec      int

	HasReference  bool
	R2            float64
	ScalingFactor float64 // detector sensitivity, CPM per µSv/h

	Times   []time.Time
	Cnt1Min []int
	Cnt5Sec []int
	Lat     []float64
	Lon     []float64
	Alt     []float64

	SimTotal             []float64
	SimTotalMinusNeutron []float64
}

// DataID returns the unique record key: flight number, flight date, and
// device, space separated.  Two detectors on the same flight yield two
// records with two ids.
func (r *Record) DataID() string {
	return r.FlightNumber + " " + r.Date.Format("2006-01-02") + " " + r.DeviceID
}

// Options configures one pipeline run.
type Options struct {
	DeviceGPS bool          // prefer device GPS over interpolated track positions
	TimeDelta time.Duration // expected sample interval for timestamp repair; 0 infers it
	MaxDT     time.Duration // repair give-up threshold; 0 uses timefix.DefaultMaxDT
	MaxDiff   int           // spike clip for window estimation; 0 uses align.DefaultMaxDiff
	CitizenID string
	Logf      func(string, ...any)
}

// Run executes the pipeline.  curve may be nil when the simulator is not
// installed; the record then falls back to the count-sum window search and
// carries no reference columns.
func Run(device *devicelog.Series, flight *flighttrack.Track, curve *cari.Curve, opts Options) (*Record, error) {
	if device == nil || device.Len() == 0 {
		return nil, align.ErrNoSamples
	}
	if flight == nil || len(flight.Times) == 0 {
		return nil, errors.New("merge: no flight track")
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	r := &Record{
		Stage:           StageRawLoaded,
		Format:          device.Format,
		DeviceID:        device.DeviceID,
		FlightNumber:    flight.FlightNumber,
		Origin:          flight.Origin,
		Destination:     flight.Destination,
		OriginICAO:      flight.OriginICAO,
		DestinationICAO: flight.DestinationICAO,
		CitizenID:       opts.CitizenID,
		Date:            flight.Date,
		Takeoff:         flight.Takeoff,
		Landing:         flight.Landing,
	}

	times, repaired, err := timefix.Repair(device.Times, opts.TimeDelta, opts.MaxDT)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", r.Stage, err)
	}
	r.TimestampsRepaired = repaired
	r.Stage = StageTimesRepaired
	if repaired {
		logf("merge: %s (device clock was corrupted)", r.Stage)
	} else {
		logf("merge: %s", r.Stage)
	}

	flightElapsed := flight.ElapsedSeconds()

	var window align.Window
	if curve != nil {
		window, r.R2, err = align.AlignReference(times, device.Cnt1Min,
			flight.Takeoff, flight.Landing, flightElapsed, curve.TotalMinusNeutron)
	} else {
		window, err = align.EstimateWindow(times, device.Cnt5Sec, flight.Duration(), opts.MaxDiff)
	}
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", r.Stage, err)
	}
	r.Stage = StageWindowResolved
	logf("merge: %s, samples %d..%d of %d", r.Stage, window.Takeoff, window.Landing, device.Len())

	// Rebase the windowed device stream onto flight time: the window start
	// becomes the takeoff instant, and the device/flight clock offset is
	// kept for provenance.
	r.TimeOffsetSec = int(flight.Takeoff.Sub(times[window.Takeoff]).Seconds())
	n := window.Landing - window.Takeoff + 1
	r.Times = make([]time.Time, n)
	for i := 0; i < n; i++ {
		r.Times[i] = flight.Takeoff.Add(times[window.Takeoff+i].Sub(times[window.Takeoff]))
	}
	r.Cnt1Min = append([]int(nil), device.Cnt1Min[window.Takeoff:window.Landing+1]...)
	r.Cnt5Sec = append([]int(nil), device.Cnt5Sec[window.Takeoff:window.Landing+1]...)

	// Positions: interpolate the flight track onto device sample times,
	// unwrapping longitude so a date-line crossing interpolates through
	// 180 instead of sweeping the globe.  Device GPS, when requested,
	// takes precedence sample by sample; its NaN holes are still filled
	// from the track.
	deviceElapsed := make([]float64, n)
	for i, ts := range r.Times {
		deviceElapsed[i] = ts.Sub(flight.Takeoff).Seconds()
	}
	interpLat := geo.Interp(deviceElapsed, flightElapsed, flight.Lat)
	interpLon := geo.RavelLon(geo.Interp(deviceElapsed, flightElapsed, geo.UnravelLon(flight.Lon)))
	interpAlt := geo.Interp(deviceElapsed, flightElapsed, flight.Alt)

	r.Lat = interpLat
	r.Lon = interpLon
	r.Alt = interpAlt
	if opts.DeviceGPS {
		for i := 0; i < n; i++ {
			j := window.Takeoff + i
			if !math.IsNaN(device.Lat[j]) && !math.IsNaN(device.Lon[j]) && !math.IsNaN(device.Alt[j]) {
				r.Lat[i] = device.Lat[j]
				r.Lon[i] = device.Lon[j]
				r.Alt[i] = device.Alt[j]
			}
		}
	}
	for i := range r.Alt {
		r.Alt[i] = math.Round(r.Alt[i])
	}
	r.Stage = StagePositionFilled
	logf("merge: %s", r.Stage)

	if curve != nil {
		r.SimTotal = geo.Interp(deviceElapsed, flightElapsed, curve.Total)
		r.SimTotalMinusNeutron = geo.Interp(deviceElapsed, flightElapsed, curve.TotalMinusNeutron)

		counts := make([]float64, n)
		for i, c := range r.Cnt1Min {
			counts[i] = float64(c)
		}
		r.ScalingFactor = align.Beta(counts, r.SimTotalMinusNeutron)
		r.HasReference = true
		r.Stage = StageReferenceMerged
		logf("merge: %s, R²=%.4f, sensitivity %.2f CPM per µSv/h", r.Stage, r.R2, r.ScalingFactor)
	}

	r.Stage = StageFinalized
	logf("merge: %s, %s", r.Stage, r.DataID())
	return r, nil
}

// CheckConsistentFlightSet verifies that records claiming the same flight
// agree on its identity.  Device ids must differ (one record per detector)
// while flight number, date, and airports must match.
func CheckConsistentFlightSet(records []*Record) error {
	if len(records) < 2 {
		return nil
	}
	first := records[0]
	seen := map[string]bool{first.DeviceID: true}
	for _, r := range records[1:] {
		switch {
		case r.FlightNumber != first.FlightNumber:
			return fmt.Errorf("%w: flight %q vs %q", ErrInconsistentFlightSet, r.FlightNumber, first.FlightNumber)
		case !r.Date.Equal(first.Date):
			return fmt.Errorf("%w: date %s vs %s", ErrInconsistentFlightSet,
				r.Date.Format("2006-01-02"), first.Date.Format("2006-01-02"))
		case r.OriginICAO != first.OriginICAO || r.DestinationICAO != first.DestinationICAO:
			return fmt.Errorf("%w: route %s-%s vs %s-%s", ErrInconsistentFlightSet,
				r.OriginICAO, r.DestinationICAO, first.OriginICAO, first.DestinationICAO)
		case seen[r.DeviceID]:
			return fmt.Errorf("%w: duplicate device %q", ErrInconsistentFlightSet, r.DeviceID)
		}
		seen[r.DeviceID] = true
	}
	return nil
}

// FindProcessed returns the path of an existing processed artifact for the
// given raw log, derived from the digits of the raw file name, and whether
// it exists.  Lets a rerun skip the simulator.
func FindProcessed(rawPath string) (string, bool) {
	base := filepath.Base(rawPath)
	base = base[:len(base)-len(filepath.Ext(base))]
	digits := make([]byte, 0, len(base))
	for i := 0; i < len(base); i++ {
		if base[i] >= '0' && base[i] <= '9' {
			digits = append(digits, base[i])
		}
	}
	path := filepath.Join(filepath.Dir(rawPath), fmt.Sprintf("Processed_data_%s.log", digits))
	info, err := os.Stat(path)
	return path, err == nil && !info.IsDir()
}
