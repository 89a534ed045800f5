// Package devicelog reads raw radiation detector logs.
//
// Five vendor formats are supported.  The format is resolved exactly once,
// by file extension plus header signature, into a Format value; every later
// decision (parsing, provenance metadata in the processed artifact) switches
// on that value instead of re-sniffing strings.
//
// Parsers are tolerant the way field data demands: malformed rows are
// skipped, device GPS slots without a fix come back as NaN so the merge
// stage can substitute flight-track positions, and nothing here tries to
// repair timestamps — that is pkg/timefix's job.
package devicelog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Format identifies a supported detector log layout.
type Format int

const (
	FormatUnknown Format = iota
	FormatSafecast
	FormatUCT
	FormatGMC
	FormatRadiacode
	FormatRium
)

// String returns the short vendor name used in artifact headers and logs.
func (f Format) String() string {
	switch f {
	case FormatSafecast:
		return "Safecast"
	case FormatUCT:
		return "UCT"
	case FormatGMC:
		return "GMC"
	case FormatRadiacode:
		return "Radiacode"
	case FormatRium:
		return "Rium"
	default:
		return "unknown"
	}
}

// NativeQuantity names what the detector actually records, for artifact
// provenance.  Derived columns are flagged so downstream consumers know
// which counts were measured and which were rebinned.
func (f Format) NativeQuantity() string {
	switch f {
	case FormatSafecast:
		return "cnt_5s"
	case FormatUCT:
		return "event_timestamps"
	case FormatRadiacode, FormatRium:
		return "average_cps_over_1_minute"
	case FormatGMC:
		return "cnt_1mn"
	default:
		return "unknown"
	}
}

// Cnt1MinSource reports whether the 1-minute column is measured or derived.
func (f Format) Cnt1MinSource() string {
	switch f {
	case FormatSafecast, FormatGMC:
		return "original"
	default:
		return "derived"
	}
}

// Cnt5SecSource reports whether the 5-second column is measured or derived.
func (f Format) Cnt5SecSource() string {
	if f == FormatSafecast {
		return "original"
	}
	return "derived"
}

// ErrUnsupportedFormat reports a file whose extension and header match no
// known detector log layout.  Not retried; the record fails immediately.
var ErrUnsupportedFormat = errors.New("devicelog: unsupported device log format")

// Series is one parsed detector log.  The position slices always have the
// same length as Times; entries without a GPS fix hold NaN.
type Series struct {
	DeviceID string
	Format   Format
	Times    []time.Time
	Cnt1Min  []int
	Cnt5Sec  []int
	Lat      []float64
	Lon      []float64
	Alt      []float64
}

// Len returns the number of samples.
func (s *Series) Len() int { return len(s.Times) }

// DetectFormat resolves the log layout from the file name and the first
// header line.  The header may be empty when only extension dispatch is
// wanted (.log and .txt are unambiguous).
func DetectFormat(path string, header string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".log":
		return FormatSafecast, nil
	case ".txt":
		return FormatUCT, nil
	case ".csv":
		switch {
		case strings.Contains(header, "GQ Electronics LLC"):
			return FormatGMC, nil
		case strings.Contains(header, "Time;Timestamp;"):
			return FormatRadiacode, nil
		case strings.Contains(strings.ToLower(filepath.Base(path)), "rium"):
			return FormatRium, nil
		}
	}
	return FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
}

// ReadFile opens, sniffs, and parses a detector log.
func ReadFile(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open device log: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	header, err := br.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read device log header: %w", err)
	}
	format, err := DetectFormat(path, string(header))
	if err != nil {
		return nil, err
	}
	return Parse(br, format)
}

// Parse decodes a detector log of a known format.
func Parse(r io.Reader, format Format) (*Series, error) {
	switch format {
	case FormatSafecast:
		return parseSafecast(r)
	case FormatUCT:
		return parseUCT(r)
	case FormatGMC, FormatRadiacode, FormatRium:
		return parseCountRateCSV(r, format)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// newScanner returns a line scanner with a buffer large enough for the
// longest vendor rows seen in the field.
func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	return sc
}

// parseSafecast reads bGeigie $BNRDD sentences.
//
// Row layout: $BNRDD, device, iso-time, cnt_1min, cnt_5s, cnt_total,
// validity, lat DMM, N/S, lon DMM, E/W, alt, gps-validity, ... *checksum.
// Rows whose count validity flag is not "A" are dropped entirely; rows with
// counts but no GPS fix keep NaN positions.
func parseSafecast(r io.Reader) (*Series, error) {
	s := &Series{Format: FormatSafecast}
	sc := newScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "$BNRDD") {
			continue
		}
		if i := strings.IndexByte(line, '*'); i != -1 {
			line = line[:i]
		}
		row := strings.Split(line, ",")
		if len(row) < 13 {
			continue
		}
		if !strings.Contains(row[6], "A") {
			continue
		}
		ts, err := time.Parse("2006-01-02T15:04:05Z", strings.TrimSpace(row[2]))
		if err != nil {
			continue
		}
		c1, err1 := strconv.Atoi(strings.TrimSpace(row[3]))
		c5, err2 := strconv.Atoi(strings.TrimSpace(row[4]))
		if err1 != nil || err2 != nil {
			continue
		}

		s.DeviceID = "Safecast " + strings.TrimSpace(row[1])
		s.Times = append(s.Times, ts)
		s.Cnt1Min = append(s.Cnt1Min, c1)
		s.Cnt5Sec = append(s.Cnt5Sec, c5)

		lat, lon, alt := math.NaN(), math.NaN(), math.NaN()
		if strings.TrimSpace(row[12]) == "A" {
			lat = parseDMM(row[7], row[8], 2)
			lon = parseDMM(row[9], row[10], 3)
			if a, err := strconv.ParseFloat(strings.TrimSpace(row[11]), 64); err == nil {
				alt = a
			}
		}
		s.Lat = append(s.Lat, lat)
		s.Lon = append(s.Lon, lon)
		s.Alt = append(s.Alt, alt)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan safecast log: %w", err)
	}
	if s.Len() == 0 {
		return nil, fmt.Errorf("%w: no valid $BNRDD rows", ErrUnsupportedFormat)
	}
	return s, nil
}

// parseDMM converts NMEA degrees-decimal-minutes to decimal degrees.
// degDigits is 2 for latitude and 3 for longitude.
func parseDMM(raw, hemisphere string, degDigits int) float64 {
	raw = strings.TrimSpace(raw)
	if len(raw) <= degDigits {
		return math.NaN()
	}
	deg, err1 := strconv.ParseFloat(raw[:degDigits], 64)
	min, err2 := strconv.ParseFloat(raw[degDigits:], 64)
	if err1 != nil || err2 != nil {
		return math.NaN()
	}
	v := deg + min/60
	switch strings.TrimSpace(hemisphere) {
	case "S", "W":
		v = -v
	}
	return v
}

// uctHeaderYear pins the year missing from UCT log headers.  The value only
// anchors relative times; alignment against the flight track fixes the
// absolute epoch later.
const uctHeaderYear = 2026

// parseUCT reads the UCT event logger: a start-time header line followed by
// one millisecond offset per detected event.  Events are rebinned into
// 5-second slots; the 1-minute column is the rolling sum of the last twelve
// slots, mirroring what integrating detectors report natively.
func parseUCT(r io.Reader) (*Series, error) {
	s := &Series{Format: FormatUCT, DeviceID: "UCT"}
	sc := newScanner(r)
	if !sc.Scan() {
		return nil, fmt.Errorf("%w: empty UCT log", ErrUnsupportedFormat)
	}
	start, err := time.Parse("2006 02 Jan 15:04:05", fmt.Sprintf("%d %s", uctHeaderYear, strings.TrimSpace(sc.Text())))
	if err != nil {
		return nil, fmt.Errorf("%w: bad UCT header %q", ErrUnsupportedFormat, strings.TrimSpace(sc.Text()))
	}
	sc.Scan() // second header line carries no data

	const slot = 5 * time.Second
	push := func(t time.Time) {
		s.Times = append(s.Times, t)
		s.Cnt5Sec = append(s.Cnt5Sec, 0)
		s.Cnt1Min = append(s.Cnt1Min, 0)
		s.Lat = append(s.Lat, math.NaN())
		s.Lon = append(s.Lon, math.NaN())
		s.Alt = append(s.Alt, math.NaN())
	}
	push(start)

	for sc.Scan() {
		field := strings.TrimSpace(strings.SplitN(sc.Text(), ",", 2)[0])
		if field == "" {
			continue
		}
		millis, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		eventTime := start.Add(time.Duration(millis) * time.Millisecond)

		// Open empty slots until the event's slot exists, keeping the
		// rolling minute sum current for each slot as it closes.
		for eventTime.Sub(s.Times[len(s.Times)-1]) > slot {
			push(s.Times[len(s.Times)-1].Add(slot))
			last := len(s.Cnt5Sec) - 1
			sum := 0
			for i := last - 11; i <= last; i++ {
				if i >= 0 {
					sum += s.Cnt5Sec[i]
				}
			}
			s.Cnt1Min[last] = sum
		}
		last := len(s.Cnt5Sec) - 1
		s.Cnt5Sec[last]++
		s.Cnt1Min[last]++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan UCT log: %w", err)
	}
	return s, nil
}

// parseCountRateCSV handles the three CSV vendors.  They differ in
// delimiter, timestamp layout, and whether the count column is CPM or
// average CPS, but share the same skeleton: skip the header, drop rows that
// fail to parse, no device GPS.
func parseCountRateCSV(r io.Reader, format Format) (*Series, error) {
	s := &Series{Format: format, DeviceID: format.String()}
	sc := newScanner(r)
	sc.Scan() // header line, already consumed by detection

	for sc.Scan() {
		line := sc.Text()
		var (
			ts  time.Time
			c1  int
			c5  int
			err error
		)
		switch format {
		case FormatGMC:
			row := strings.Split(line, ",")
			if len(row) < 4 {
				continue
			}
			ts, err = parseTimeAny(strings.TrimSpace(row[0]), "2006-01-02 15:04", "2006/01/02 15:04")
			if err != nil {
				continue
			}
			cpm, convErr := strconv.Atoi(strings.TrimSpace(row[3]))
			if convErr != nil {
				continue
			}
			c1, c5 = cpm, cpm/12

		case FormatRadiacode:
			row := strings.Split(line, ";")
			if len(row) < 4 {
				continue
			}
			// Field 0 may carry milliseconds; keep only the seconds part.
			stamp := strings.TrimSpace(row[0])
			if len(stamp) > 19 {
				stamp = stamp[:19]
			}
			ts, err = time.Parse("2006-01-02 15:04:05", stamp)
			if err != nil {
				continue
			}
			cps, convErr := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
			if convErr != nil {
				continue
			}
			c1, c5 = int(cps*60), int(cps*5)

		case FormatRium:
			row := strings.Split(line, ",")
			if len(row) < 3 {
				continue
			}
			// Rium clocks are not reliably 24-hour; timestamp repair
			// absorbs the damage downstream.
			ts, err = time.Parse("02/01/2006 15:04:05", strings.TrimSpace(row[0])+" "+strings.TrimSpace(row[1]))
			if err != nil {
				continue
			}
			cps, convErr := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
			if convErr != nil {
				continue
			}
			c1, c5 = int(cps*60), int(cps*5)
		}

		s.Times = append(s.Times, ts)
		s.Cnt1Min = append(s.Cnt1Min, c1)
		s.Cnt5Sec = append(s.Cnt5Sec, c5)
		s.Lat = append(s.Lat, math.NaN())
		s.Lon = append(s.Lon, math.NaN())
		s.Alt = append(s.Alt, math.NaN())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s log: %w", format, err)
	}
	if s.Len() == 0 {
		return nil, fmt.Errorf("%w: no data rows in %s log", ErrUnsupportedFormat, format)
	}
	return s, nil
}

// parseTimeAny tries each layout in order.
func parseTimeAny(raw string, layouts ...string) (time.Time, error) {
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
