package align

import (
	"math"
	"testing"
	"time"
)

func uniformTimes(n int, spacing time.Duration) []time.Time {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = base.Add(time.Duration(i) * spacing)
	}
	return out
}

// TestEstimateWindowPlateau reproduces the canonical case: ten uniform
// samples, a four-sample high-count plateau, and an expected flight duration
// of 240 s.  The plateau must come back as the window.
func TestEstimateWindowPlateau(t *testing.T) {
	counts := []int{1, 1, 1, 50, 50, 50, 50, 1, 1, 1}
	times := uniformTimes(len(counts), 60*time.Second)

	w, err := EstimateWindow(times, counts, 240*time.Second, 0)
	if err != nil {
		t.Fatalf("EstimateWindow: %v", err)
	}
	if w.Takeoff != 3 || w.Landing != 6 {
		t.Fatalf("window = [%d, %d], want [3, 6]", w.Takeoff, w.Landing)
	}
}

// TestEstimateWindowContainment checks 0 <= takeoff <= landing < n over a
// grid of stream shapes, including all-flat and single-sample streams.
func TestEstimateWindowContainment(t *testing.T) {
	tests := []struct {
		counts   []int
		duration time.Duration
	}{
		{[]int{5}, time.Minute},
		{[]int{1, 1}, time.Minute},
		{[]int{0, 0, 0, 0, 0}, 2 * time.Minute},
		{[]int{9, 8, 7, 6, 5, 4}, 3 * time.Minute},
		{[]int{1, 1000, 1, 1, 1, 1, 1, 1}, 2 * time.Minute},
	}
	for _, tc := range tests {
		times := uniformTimes(len(tc.counts), 60*time.Second)
		w, err := EstimateWindow(times, tc.counts, tc.duration, 0)
		if err != nil {
			t.Fatalf("EstimateWindow(%v): %v", tc.counts, err)
		}
		if w.Takeoff < 0 || w.Takeoff > w.Landing || w.Landing >= len(tc.counts) {
			t.Errorf("EstimateWindow(%v) = [%d, %d]: out of bounds", tc.counts, w.Takeoff, w.Landing)
		}
	}
}

// TestEstimateWindowSpikeClipped plants a scanner-style spike outside the
// flight; clipping must stop it from dragging the window onto the spike.
func TestEstimateWindowSpikeClipped(t *testing.T) {
	counts := []int{1, 100000, 1, 80, 80, 80, 80, 1, 1, 1}
	times := uniformTimes(len(counts), 60*time.Second)

	w, err := EstimateWindow(times, counts, 240*time.Second, 100)
	if err != nil {
		t.Fatalf("EstimateWindow: %v", err)
	}
	if w.Takeoff != 3 || w.Landing != 6 {
		t.Fatalf("window = [%d, %d]: want the plateau [3, 6]", w.Takeoff, w.Landing)
	}
}

// TestEstimateWindowCorruptedTimestamps makes sure duplicated timestamps do
// not wedge or crash the scan.
func TestEstimateWindowCorruptedTimestamps(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	times := []time.Time{
		base, base, base.Add(60 * time.Second), base.Add(120 * time.Second),
		base.Add(180 * time.Second), base.Add(240 * time.Second),
	}
	counts := []int{1, 1, 30, 30, 30, 1}
	w, err := EstimateWindow(times, counts, 120*time.Second, 0)
	if err != nil {
		t.Fatalf("EstimateWindow: %v", err)
	}
	if w.Takeoff < 0 || w.Takeoff > w.Landing || w.Landing >= len(counts) {
		t.Fatalf("window = [%d, %d]: out of bounds", w.Takeoff, w.Landing)
	}
}

func TestEstimateWindowEmpty(t *testing.T) {
	if _, err := EstimateWindow(nil, nil, time.Minute, 0); err == nil {
		t.Fatal("EstimateWindow(empty) returned no error")
	}
}

// TestAlignReferenceExactFit builds a device stream whose in-flight slice is
// exactly 2x a triangular reference curve and checks the aligner recovers
// that slice with R² = 1 and β = 2.
func TestAlignReferenceExactFit(t *testing.T) {
	// Reference: triangular dose curve over a 10-minute flight.
	refTimes := []float64{0, 60, 120, 180, 240, 300, 360, 420, 480, 540, 600}
	ref := []float64{1, 3, 6, 10, 14, 16, 14, 10, 6, 3, 1}

	// Device stream: 5 samples of ground noise, then counts = 2x the
	// reference, then more ground noise.
	const pre = 5
	counts := make([]int, 0, pre+len(ref)+4)
	for i := 0; i < pre; i++ {
		counts = append(counts, 1)
	}
	for _, r := range ref {
		counts = append(counts, int(2*r))
	}
	for i := 0; i < 4; i++ {
		counts = append(counts, 1)
	}
	times := uniformTimes(len(counts), 60*time.Second)

	takeoff := times[0] // reference time base is relative, only the span matters
	landing := takeoff.Add(600 * time.Second)

	w, r2, err := AlignReference(times, counts, takeoff, landing, refTimes, ref)
	if err != nil {
		t.Fatalf("AlignReference: %v", err)
	}
	if w.Takeoff != pre || w.Landing != pre+len(ref)-1 {
		t.Fatalf("window = [%d, %d], want [%d, %d]", w.Takeoff, w.Landing, pre, pre+len(ref)-1)
	}
	if math.Abs(r2-1.0) > 1e-9 {
		t.Fatalf("R² = %v, want 1.0", r2)
	}

	measurement := make([]float64, len(ref))
	for i := range ref {
		measurement[i] = float64(counts[pre+i])
	}
	if beta := Beta(measurement, ref); math.Abs(beta-2.0) > 1e-9 {
		t.Fatalf("β = %v, want 2.0", beta)
	}
}

// TestAlignReferenceFallback feeds pure noise against a flat reference; the
// aligner must fall back to the full range with R² = 0.
func TestAlignReferenceFallback(t *testing.T) {
	counts := []int{5, 5, 5, 5, 5, 5, 5, 5}
	times := uniformTimes(len(counts), 60*time.Second)
	refTimes := []float64{0, 420}
	ref := []float64{3, 3}

	w, r2, err := AlignReference(times, counts, times[0], times[0].Add(420*time.Second), refTimes, ref)
	if err != nil {
		t.Fatalf("AlignReference: %v", err)
	}
	if w.Takeoff != 0 || w.Landing != len(counts)-1 {
		t.Fatalf("window = [%d, %d], want full range", w.Takeoff, w.Landing)
	}
	if r2 != 0 {
		t.Fatalf("R² = %v, want 0", r2)
	}
}

// TestAlignReferenceContainment checks index bounds across stream lengths.
func TestAlignReferenceContainment(t *testing.T) {
	refTimes := []float64{0, 120, 240}
	ref := []float64{1, 9, 1}
	for _, n := range []int{1, 3, 6, 12, 30} {
		counts := make([]int, n)
		for i := range counts {
			counts[i] = 1 + i%7
		}
		times := uniformTimes(n, 30*time.Second)
		w, _, err := AlignReference(times, counts, times[0], times[0].Add(240*time.Second), refTimes, ref)
		if err != nil {
			t.Fatalf("AlignReference(n=%d): %v", n, err)
		}
		if w.Takeoff < 0 || w.Takeoff > w.Landing || w.Landing >= n {
			t.Errorf("AlignReference(n=%d) = [%d, %d]: out of bounds", n, w.Takeoff, w.Landing)
		}
	}
}

func TestBeta(t *testing.T) {
	tests := []struct {
		m, r []float64
		want float64
	}{
		{[]float64{2, 4, 6}, []float64{1, 2, 3}, 2},
		{[]float64{1, 2, 3}, []float64{2, 4, 6}, 0.5},
		{[]float64{0, 0}, []float64{0, 0}, 0}, // degenerate reference
	}
	for _, tc := range tests {
		if got := Beta(tc.m, tc.r); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("Beta(%v, %v) = %v, want %v", tc.m, tc.r, got, tc.want)
		}
	}
}
