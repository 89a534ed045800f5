package timefix

import (
	"errors"
	"testing"
	"time"
)

func seconds(secs ...int64) []time.Time {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	out := make([]time.Time, len(secs))
	for i, s := range secs {
		out[i] = base.Add(time.Duration(s) * time.Second)
	}
	return out
}

func offsets(t *testing.T, times []time.Time) []int64 {
	t.Helper()
	out := make([]int64, len(times))
	for i := range times {
		out[i] = times[i].Unix() - times[0].Unix()
	}
	return out
}

// TestRepairIdentityFastPath verifies that an already well-spaced stream is
// returned unchanged, as the same slice, with repaired == false.
func TestRepairIdentityFastPath(t *testing.T) {
	in := seconds(0, 60, 120, 180, 240)
	out, repaired, err := Repair(in, 0, 0)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if repaired {
		t.Fatalf("repaired = true for a clean stream")
	}
	if &out[0] != &in[0] {
		t.Fatalf("clean stream was copied instead of returned as-is")
	}
}

// TestRepairDuplicateFolded covers the canonical duplicate: the logger
// repeats one timestamp but stays on its absolute schedule, so the catch-up
// gap cancels the folded error and later anchors are preserved.
func TestRepairDuplicateFolded(t *testing.T) {
	in := seconds(0, 60, 60, 180, 240)
	out, repaired, err := Repair(in, 0, 0)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if !repaired {
		t.Fatalf("repaired = false, want true")
	}
	want := []int64{0, 60, 120, 180, 240}
	got := offsets(t, out)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("offsets = %v, want %v", got, want)
		}
	}
}

// TestRepairMonotonic feeds a stream with duplicates, a backwards jump, and
// a huge gap, and only demands the repair guarantee: strictly increasing
// output anchored at the first sample.
func TestRepairMonotonic(t *testing.T) {
	tests := [][]int64{
		{0, 60, 60, 60, 180, 240},
		{0, 60, 30, 90, 150},
		{0, 60, 5000, 5060, 5120},
		{0, 0, 0, 60},
		{0, 60, 120, 119, 180, 240},
	}
	for _, secs := range tests {
		out, _, err := Repair(seconds(secs...), 0, 0)
		if err != nil {
			t.Fatalf("Repair(%v): %v", secs, err)
		}
		if !out[0].Equal(seconds(secs...)[0]) {
			t.Errorf("Repair(%v) moved the anchor", secs)
		}
		for i := 1; i < len(out); i++ {
			if !out[i].After(out[i-1]) {
				t.Errorf("Repair(%v) not monotonic at %d: %v", secs, i, offsets(t, out))
				break
			}
		}
	}
}

// TestRepairValidRegionsPreserved checks that deltas untouched by correction
// keep their exact original spacing.
func TestRepairValidRegionsPreserved(t *testing.T) {
	in := seconds(0, 55, 115, 115, 175, 230)
	out, _, err := Repair(in, 0, 0)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	// The leading 55 and 60 second deltas were valid and must survive.
	got := offsets(t, out)
	if got[1] != 55 || got[2]-got[1] != 60 {
		t.Fatalf("valid leading deltas not preserved: %v", got)
	}
}

// TestRepairExplicitDelta pins the base interval instead of deriving it.
func TestRepairExplicitDelta(t *testing.T) {
	in := seconds(0, 5, 5, 5, 15)
	out, _, err := Repair(in, 5*time.Second, 0)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	got := offsets(t, out)
	for i := 1; i < len(got); i++ {
		if got[i]-got[i-1] <= 0 {
			t.Fatalf("not monotonic with explicit delta: %v", got)
		}
	}
}

// TestRepairUnrecoverable exercises a stream with no valid spacing anywhere.
func TestRepairUnrecoverable(t *testing.T) {
	in := seconds(0, 0, 0, 0)
	_, _, err := Repair(in, 0, 0)
	if !errors.Is(err, ErrUnrecoverable) {
		t.Fatalf("err = %v, want ErrUnrecoverable", err)
	}
}

// TestRepairShortStreams makes sure degenerate inputs pass through.
func TestRepairShortStreams(t *testing.T) {
	for _, secs := range [][]int64{{}, {0}, {0, 60}} {
		out, repaired, err := Repair(seconds(secs...), 0, 0)
		if err != nil {
			t.Fatalf("Repair(%v): %v", secs, err)
		}
		if repaired {
			t.Fatalf("Repair(%v) claimed a repair", secs)
		}
		if len(out) != len(secs) {
			t.Fatalf("Repair(%v) changed length", secs)
		}
	}
}

// TestRepairIdempotent runs the repair twice; the second pass must be the
// identity.
func TestRepairIdempotent(t *testing.T) {
	in := seconds(0, 60, 60, 180, 240, 240, 360)
	once, _, err := Repair(in, 0, 0)
	if err != nil {
		t.Fatalf("first Repair: %v", err)
	}
	twice, repaired, err := Repair(once, 0, 0)
	if err != nil {
		t.Fatalf("second Repair: %v", err)
	}
	if repaired {
		t.Fatalf("second Repair reported changes: %v -> %v", offsets(t, once), offsets(t, twice))
	}
}
