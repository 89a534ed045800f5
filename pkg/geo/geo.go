// Package geo holds the spherical-distance and longitude helpers shared by
// the flight-track, alignment, and reference-generation code.  Everything
// here is a pure function over float slices so callers can compose stages
// without sharing state.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometres between two
// points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	theta1 := lat1 * math.Pi / 180
	theta2 := lat2 * math.Pi / 180
	phi1 := lon1 * math.Pi / 180
	phi2 := lon2 * math.Pi / 180

	s1 := math.Sin((theta2 - theta1) / 2)
	s2 := math.Sin((phi2 - phi1) / 2)
	a := s1*s1 + math.Cos(theta1)*math.Cos(theta2)*s2*s2
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return c * EarthRadiusKm
}

// UnravelLon returns a copy of lon where every step larger than ±180° has
// been folded out by cumulative ±360° corrections, so the sequence is
// continuous in angle space.  A flight crossing the antimeridian keeps a
// smooth longitude curve and can be interpolated without a spurious jump.
func UnravelLon(lon []float64) []float64 {
	out := make([]float64, len(lon))
	copy(out, lon)
	for i := 1; i < len(out); i++ {
		for out[i]-out[i-1] > 180 {
			out[i] -= 360
		}
		for out[i]-out[i-1] < -180 {
			out[i] += 360
		}
	}
	return out
}

// RavelLon maps every unravelled longitude back into (-180, 180].
func RavelLon(lon []float64) []float64 {
	out := make([]float64, len(lon))
	for i, v := range lon {
		out[i] = RavelOne(v)
	}
	return out
}

// RavelOne normalises a single longitude into (-180, 180].
func RavelOne(lon float64) float64 {
	m := math.Mod(lon+180, 360)
	if m < 0 {
		m += 360
	}
	m -= 180
	if m == -180 {
		m = 180
	}
	return m
}

// Interp evaluates the piecewise-linear curve defined by (xp, fp) at every
// point of x.  xp must be strictly increasing.  Points outside the range of
// xp clamp to the first/last fp value, matching the behaviour expected by
// the alignment code: a device sample slightly before takeoff simply reads
// the takeoff value of the reference curve.
func Interp(x, xp, fp []float64) []float64 {
	out := make([]float64, len(x))
	if len(xp) == 0 {
		return out
	}
	for i, v := range x {
		out[i] = interpOne(v, xp, fp)
	}
	return out
}

func interpOne(x float64, xp, fp []float64) float64 {
	n := len(xp)
	if x <= xp[0] {
		return fp[0]
	}
	if x >= xp[n-1] {
		return fp[n-1]
	}
	// Binary search for the segment containing x.
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if xp[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}
	span := xp[hi] - xp[lo]
	if span == 0 {
		return fp[lo]
	}
	t := (x - xp[lo]) / span
	return fp[lo] + t*(fp[hi]-fp[lo])
}
