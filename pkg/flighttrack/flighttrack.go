// Package flighttrack reads ADS-B flight path exports and recovers flight
// metadata when only raw positions are available.
//
// Two file formats are supported: the FlightAware KML export, whose document
// name encodes flight number, date, and airport pair, and a generic CSV
// track.  When neither exists, Recover rebuilds a usable track from device
// GPS positions plus externally supplied takeoff/landing times, identifying
// the airports by nearest great-circle distance.
package flighttrack

import (
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cosmic-on-air/pkg/airports"
)

// ErrUnsupportedFormat reports a flight file that is neither KML nor CSV.
var ErrUnsupportedFormat = errors.New("flighttrack: unsupported flight data format")

// feetToMetres converts the altitude unit used by CSV track exports.
const feetToMetres = 0.3048

// Track is one contiguous flight: waypoints strictly increasing in time,
// plus the identifying metadata carried in artifact headers and the
// metadata store.
type Track struct {
	FlightNumber    string
	Origin          string // city name
	Destination     string // city name
	OriginICAO      string
	DestinationICAO string
	Date            time.Time // flight date (midnight UTC)
	Takeoff         time.Time
	Landing         time.Time
	Times           []time.Time
	Lat             []float64
	Lon             []float64
	Alt             []float64
}

// Duration returns the takeoff-to-landing span.
func (t *Track) Duration() time.Duration { return t.Landing.Sub(t.Takeoff) }

// ElapsedSeconds returns waypoint times as seconds since takeoff, the time
// base shared with the reference curve and the interpolators.
func (t *Track) ElapsedSeconds() []float64 {
	out := make([]float64, len(t.Times))
	for i, ts := range t.Times {
		out[i] = ts.Sub(t.Takeoff).Seconds()
	}
	return out
}

// ReadFile parses a flight file, dispatching on the extension.
func ReadFile(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open flight file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".kml":
		return ParseKML(f)
	case ".csv":
		return ParseCSV(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// kmlDocument models the slice of the FlightAware export we consume.  Tag
// matching is by local name, so the gx-namespaced Track and coord elements
// resolve without namespace plumbing.
type kmlDocument struct {
	Document struct {
		Name       string `xml:"name"`
		Placemarks []struct {
			Whens  []string `xml:"Track>when"`
			Coords []string `xml:"Track>coord"`
		} `xml:"Placemark"`
	} `xml:"Document"`
}

// ParseKML reads a FlightAware KML export.  The third placemark holds the
// gx:Track with one <when> timestamp per <gx:coord> "lon lat alt" triple;
// the document name encodes "FLIGHT dd-mm-yyyy (ORIG-DEST)".
func ParseKML(r io.Reader) (*Track, error) {
	var doc kmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	track := &Track{}
	if err := parseKMLName(doc.Document.Name, track); err != nil {
		return nil, err
	}

	var whens, coords []string
	for _, p := range doc.Document.Placemarks {
		if len(p.Whens) > 0 && len(p.Coords) > 0 {
			whens, coords = p.Whens, p.Coords
		}
	}
	if len(whens) == 0 || len(whens) != len(coords) {
		return nil, fmt.Errorf("%w: no usable gx:Track placemark", ErrUnsupportedFormat)
	}

	for i := range whens {
		ts, err := time.Parse("2006-01-02T15:04:05Z", strings.TrimSpace(whens[i]))
		if err != nil {
			return nil, fmt.Errorf("kml waypoint %d: %w", i, err)
		}
		fields := strings.Fields(coords[i])
		if len(fields) < 3 {
			return nil, fmt.Errorf("kml waypoint %d: malformed coord %q", i, coords[i])
		}
		lon, err1 := strconv.ParseFloat(fields[0], 64)
		lat, err2 := strconv.ParseFloat(fields[1], 64)
		alt, err3 := strconv.ParseFloat(fields[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("kml waypoint %d: malformed coord %q", i, coords[i])
		}
		track.Times = append(track.Times, ts)
		track.Lat = append(track.Lat, lat)
		track.Lon = append(track.Lon, lon)
		track.Alt = append(track.Alt, alt)
	}

	track.Takeoff = track.Times[0]
	track.Landing = track.Times[len(track.Times)-1]
	return track, nil
}

// parseKMLName extracts flight number, date, and airport pair from the
// document name, anchored on the trailing "(ORIG-DEST)" group.
func parseKMLName(name string, track *Track) error {
	sep := strings.LastIndex(name, "-")
	closing := strings.LastIndex(name, ")")
	opening := strings.LastIndex(name, "(")
	if sep < 4 || closing < 4 || opening < 11 {
		return fmt.Errorf("%w: document name %q lacks flight metadata", ErrUnsupportedFormat, name)
	}
	originAt := sep - 4
	destAt := closing - 4
	dateAt := opening - 11
	flightAt := strings.LastIndex(name[:dateAt-1], " ") + 1

	track.OriginICAO = name[originAt : originAt+4]
	track.DestinationICAO = name[destAt : destAt+4]
	track.Origin = airports.CityFor(track.OriginICAO)
	track.Destination = airports.CityFor(track.DestinationICAO)
	track.FlightNumber = name[flightAt : dateAt-1]

	date, err := time.Parse("02-01-2006", name[dateAt:dateAt+10])
	if err != nil {
		return fmt.Errorf("%w: document name %q carries no date", ErrUnsupportedFormat, name)
	}
	track.Date = date
	return nil
}

// ParseCSV reads a generic CSV track: data rows carry timestamp, flight
// number, lat, lon, and altitude in feet.  Header and junk rows are
// recognized by their timestamp column failing to parse.  Airport metadata
// is recovered from the endpoints.
func ParseCSV(r io.Reader) (*Track, error) {
	var (
		flightNumber string
		times        []time.Time
		lat, lon     []float64
		alt          []float64
	)
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read flight csv: %w", err)
		}
		if len(row) < 6 {
			continue
		}
		ts, err := time.Parse("2006-01-02T15:04:05Z", strings.TrimSpace(row[1]))
		if err != nil {
			continue
		}
		la, err1 := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		lo, err2 := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
		al, err3 := strconv.ParseFloat(strings.TrimSpace(row[5]), 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		flightNumber = strings.TrimSpace(row[2])
		times = append(times, ts)
		lat = append(lat, la)
		lon = append(lon, lo)
		alt = append(alt, al*feetToMetres)
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: no data rows in flight csv", ErrUnsupportedFormat)
	}
	return Recover(times, lat, lon, alt, time.Time{}, time.Time{}, flightNumber)
}

// Recover builds a Track from raw positions, typically device GPS.  Rows
// with any NaN coordinate are dropped; non-zero takeoff/landing bounds trim
// the data to the flight window.  Origin and destination come from the
// airports nearest to the first and last retained point.
func Recover(times []time.Time, lat, lon, alt []float64, takeoff, landing time.Time, flightNumber string) (*Track, error) {
	track := &Track{FlightNumber: flightNumber}
	for i := range times {
		if math.IsNaN(lat[i]) || math.IsNaN(lon[i]) || math.IsNaN(alt[i]) {
			continue
		}
		if !takeoff.IsZero() && times[i].Before(takeoff) {
			continue
		}
		if !landing.IsZero() && times[i].After(landing) {
			continue
		}
		track.Times = append(track.Times, times[i])
		track.Lat = append(track.Lat, lat[i])
		track.Lon = append(track.Lon, lon[i])
		track.Alt = append(track.Alt, alt[i])
	}
	if len(track.Times) == 0 {
		return nil, errors.New("flighttrack: no valid GPS points to recover a flight from")
	}

	n := len(track.Times)
	origin := airports.Nearest(track.Lat[0], track.Lon[0])
	destination := airports.Nearest(track.Lat[n-1], track.Lon[n-1])
	track.OriginICAO = origin.ICAO
	track.DestinationICAO = destination.ICAO
	track.Origin = origin.City
	track.Destination = destination.City

	track.Takeoff = track.Times[0]
	track.Landing = track.Times[n-1]
	track.Date = track.Takeoff.Truncate(24 * time.Hour)
	return track, nil
}
