// Package airports provides a lightweight offline lookup of ICAO airports.
// The table is embedded as Go data so flight recovery and artifact headers
// work without a network fetch or an external dataset on disk.  Coverage
// aims at airports with scheduled passenger service on intercontinental and
// major regional routes, which is where citizen detectors fly.
package airports

import "cosmic-on-air/pkg/geo"

// Airport describes one entry of the embedded table.
type Airport struct {
	ICAO    string
	IATA    string
	Name    string
	City    string
	Country string
	Lat     float64
	Lon     float64
}

// byICAO is derived once from the table so Lookup stays a map access.
var byICAO = func() map[string]Airport {
	m := make(map[string]Airport, len(table))
	for _, a := range table {
		m[a.ICAO] = a
	}
	return m
}()

// Lookup returns the airport with the given ICAO code.
func Lookup(icao string) (Airport, bool) {
	a, ok := byICAO[icao]
	return a, ok
}

// CityFor returns the city for an ICAO code, or the code itself when the
// table does not carry it.  Headers and database rows stay readable either
// way.
func CityFor(icao string) string {
	if a, ok := byICAO[icao]; ok {
		return a.City
	}
	return icao
}

// Nearest returns the airport closest to the given point by great-circle
// distance.  A linear scan over the embedded table is plenty: recovery runs
// twice per flight, not per sample.
func Nearest(lat, lon float64) Airport {
	best := table[0]
	bestDist := geo.Haversine(lat, lon, best.Lat, best.Lon)
	for _, a := range table[1:] {
		if d := geo.Haversine(lat, lon, a.Lat, a.Lon); d < bestDist {
			best = a
			bestDist = d
		}
	}
	return best
}

// All returns the embedded table for bulk seeding of the metadata store.
// Callers must not mutate the returned slice.
func All() []Airport {
	return table
}
