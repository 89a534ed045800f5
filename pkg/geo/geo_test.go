package geo

import (
	"math"
	"testing"
)

// TestHaversineKnownDistances checks the great-circle helper against
// published airport-to-airport distances with a 1% tolerance.
func TestHaversineKnownDistances(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
	}{
		{"LHR-JFK", 51.4775, -0.4614, 40.6413, -73.7781, 5540},
		{"CPT-JNB", -33.9649, 18.6017, -26.1392, 28.2460, 1270},
		{"same point", 48.85, 2.35, 48.85, 2.35, 0},
	}
	for _, tc := range tests {
		got := Haversine(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
		if math.Abs(got-tc.wantKm) > tc.wantKm*0.01+0.001 {
			t.Errorf("%s: Haversine = %.1f km, want ~%.1f km", tc.name, got, tc.wantKm)
		}
	}
}

// TestUnravelLonDateLine reproduces the date-line crossing from the field:
// a track stepping 170 → 175 → -179 → -170 must unwrap into a continuous
// eastward sequence.
func TestUnravelLonDateLine(t *testing.T) {
	in := []float64{170, 175, -179, -170}
	want := []float64{170, 175, 181, 190}
	got := UnravelLon(in)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("UnravelLon(%v)[%d] = %v, want %v", in, i, got[i], want[i])
		}
	}
	// Input must stay untouched.
	if in[2] != -179 {
		t.Fatalf("UnravelLon mutated its input: %v", in)
	}
}

// TestRavelInverseOfUnravel checks ravel(unravel(x)) == x for longitudes
// already inside (-180, 180], including both poles of the antimeridian.
func TestRavelInverseOfUnravel(t *testing.T) {
	in := []float64{170, 175, -179, -170, 0, 180, -90.5, 45.25}
	got := RavelLon(UnravelLon(in))
	for i := range in {
		if math.Abs(got[i]-in[i]) > 1e-9 {
			t.Errorf("ravel(unravel(x))[%d] = %v, want %v", i, got[i], in[i])
		}
	}
}

func TestRavelOneRange(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{181, -179},
		{190, -170},
		{360, 0},
		{-180, 180},
		{540, 180},
		{-181, 179},
	}
	for _, tc := range tests {
		if got := RavelOne(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("RavelOne(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

// TestInterp covers interior interpolation and clamping at both ends.
func TestInterp(t *testing.T) {
	xp := []float64{0, 10, 20}
	fp := []float64{0, 100, 0}
	x := []float64{-5, 0, 5, 10, 15, 20, 25}
	want := []float64{0, 0, 50, 100, 50, 0, 0}
	got := Interp(x, xp, fp)
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("Interp at x=%v: got %v, want %v", x[i], got[i], want[i])
		}
	}
}

func TestInterpSinglePoint(t *testing.T) {
	got := Interp([]float64{-1, 0, 1}, []float64{0}, []float64{7})
	for i, v := range got {
		if v != 7 {
			t.Errorf("Interp over single knot, index %d = %v, want 7", i, v)
		}
	}
}
