package devicelog

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

const safecastSample = `# NEW LOG
# format=1.4.2
$BNRDD,2063,2026-03-14T09:00:00Z,36,3,542,A,3356.1849,S,01825.2839,E,120.4,A,7,118*65
$BNRDD,2063,2026-03-14T09:00:05Z,37,4,546,A,3356.1850,S,01825.2840,E,121.0,V,7,118*65
$BNRDD,2063,2026-03-14T09:00:10Z,31,2,548,V,3356.1850,S,01825.2840,E,121.0,A,7,118*65
$BNRDD,2063,2026-03-14T09:00:15Z,35,3,551,A,3356.1851,E,01825.2841,E,122.0,A,7,118*65
`

func TestParseSafecast(t *testing.T) {
	s, err := Parse(strings.NewReader(safecastSample), FormatSafecast)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.DeviceID != "Safecast 2063" {
		t.Errorf("DeviceID = %q", s.DeviceID)
	}
	// Row 3 has validity V and must be dropped entirely.
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	if s.Cnt1Min[0] != 36 || s.Cnt5Sec[0] != 3 {
		t.Errorf("counts[0] = %d/%d, want 36/3", s.Cnt1Min[0], s.Cnt5Sec[0])
	}

	// First row carries a GPS fix: 33°56.1849' S, 18°25.2839' E.
	wantLat := -(33 + 56.1849/60)
	wantLon := 18 + 25.2839/60
	if math.Abs(s.Lat[0]-wantLat) > 1e-9 || math.Abs(s.Lon[0]-wantLon) > 1e-9 {
		t.Errorf("position[0] = (%v, %v), want (%v, %v)", s.Lat[0], s.Lon[0], wantLat, wantLon)
	}
	if s.Alt[0] != 120.4 {
		t.Errorf("Alt[0] = %v, want 120.4", s.Alt[0])
	}

	// Second row has gps-validity V: counts kept, position NaN.
	if !math.IsNaN(s.Lat[1]) || !math.IsNaN(s.Alt[1]) {
		t.Errorf("row without fix should have NaN position, got (%v, %v)", s.Lat[1], s.Alt[1])
	}

	if !s.Times[0].Equal(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("Times[0] = %v", s.Times[0])
	}
}

func TestParseUCTRebinsEvents(t *testing.T) {
	// Header at 09:00:00, then events at 1s, 2s, 7s, 23s.
	log := "14 Mar 09:00:00\ncounts\n1000\n2000\n7000\n23000\n"
	s, err := Parse(strings.NewReader(log), FormatUCT)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// Slots: [0,5) holds 2 events, (5,10] holds 1, then two empty slots,
	// then the slot holding the 23 s event.
	if s.Len() != 5 {
		t.Fatalf("Len = %d, want 5 slots, times %v", s.Len(), s.Times)
	}
	wantCnt5 := []int{2, 1, 0, 0, 1}
	for i, want := range wantCnt5 {
		if s.Cnt5Sec[i] != want {
			t.Errorf("Cnt5Sec[%d] = %d, want %d", i, s.Cnt5Sec[i], want)
		}
	}
	// Rolling minute sums include everything seen so far in a short log.
	if s.Cnt1Min[4] != 4 {
		t.Errorf("Cnt1Min[4] = %d, want 4", s.Cnt1Min[4])
	}
	if got := s.Times[4].Sub(s.Times[0]); got != 20*time.Second {
		t.Errorf("last slot at +%v, want +20s", got)
	}
	if !math.IsNaN(s.Lat[0]) {
		t.Errorf("UCT logs carry no GPS, Lat[0] = %v", s.Lat[0])
	}
}

func TestParseGMC(t *testing.T) {
	log := "GQ Electronics LLC, GMC-320 data log\n" +
		"2026-03-14 09:00, x, y, 24\n" +
		"2026/03/14 09:01, x, y, 36\n" +
		"not a data line\n" +
		"2026-03-14 09:02, x, y, \n"
	s, err := Parse(strings.NewReader(log), FormatGMC)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if s.Cnt1Min[0] != 24 || s.Cnt5Sec[0] != 2 {
		t.Errorf("counts[0] = %d/%d, want 24/2", s.Cnt1Min[0], s.Cnt5Sec[0])
	}
	if s.Cnt1Min[1] != 36 || s.Cnt5Sec[1] != 3 {
		t.Errorf("counts[1] = %d/%d, want 36/3", s.Cnt1Min[1], s.Cnt5Sec[1])
	}
}

func TestParseRadiacode(t *testing.T) {
	log := "Time;Timestamp;DoseRate;CountRate\n" +
		"2026-03-14 09:00:00.123;1765700000;0.09;0.8\n" +
		"2026-03-14 09:00:05;1765700005;0.09;1.2\n"
	s, err := Parse(strings.NewReader(log), FormatRadiacode)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	// 0.8 cps -> 48 cpm, 4 per 5 s.
	if s.Cnt1Min[0] != 48 || s.Cnt5Sec[0] != 4 {
		t.Errorf("counts[0] = %d/%d, want 48/4", s.Cnt1Min[0], s.Cnt5Sec[0])
	}
	if s.Times[0].Second() != 0 {
		t.Errorf("milliseconds not stripped: %v", s.Times[0])
	}
}

func TestParseRium(t *testing.T) {
	log := "Date,Time,CPS\n" +
		"14/03/2026,09:00:00,1.5\n" +
		"14/03/2026,09:00:05,2.0\n"
	s, err := Parse(strings.NewReader(log), FormatRium)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if s.Cnt1Min[0] != 90 || s.Cnt5Sec[0] != 7 {
		t.Errorf("counts[0] = %d/%d, want 90/7", s.Cnt1Min[0], s.Cnt5Sec[0])
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path   string
		header string
		want   Format
		ok     bool
	}{
		{"flight/1042.log", "", FormatSafecast, true},
		{"counts.TXT", "", FormatUCT, true},
		{"export.csv", "GQ Electronics LLC GMC-320 v5", FormatGMC, true},
		{"export.csv", "Time;Timestamp;DoseRate", FormatRadiacode, true},
		{"Rium_export.csv", "Date,Time,CPS", FormatRium, true},
		{"export.csv", "something else", FormatUnknown, false},
		{"track.kml", "<kml>", FormatUnknown, false},
	}
	for _, tc := range tests {
		got, err := DetectFormat(tc.path, tc.header)
		if tc.ok && err != nil {
			t.Errorf("DetectFormat(%q): %v", tc.path, err)
		}
		if !tc.ok && !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("DetectFormat(%q): err = %v, want ErrUnsupportedFormat", tc.path, err)
		}
		if got != tc.want {
			t.Errorf("DetectFormat(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestFormatProvenance(t *testing.T) {
	if FormatSafecast.Cnt5SecSource() != "original" {
		t.Error("Safecast 5s counts are measured")
	}
	if FormatGMC.Cnt1MinSource() != "original" || FormatGMC.Cnt5SecSource() != "derived" {
		t.Error("GMC measures CPM and derives the 5s column")
	}
	if FormatUCT.NativeQuantity() != "event_timestamps" {
		t.Errorf("UCT native quantity = %q", FormatUCT.NativeQuantity())
	}
}
