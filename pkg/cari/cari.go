// Package cari produces the reference dose-rate curve for a flight by
// driving the FAA's CARI-7A atmospheric radiation simulator.
//
// CARI-7A is an external batch program: it reads a points file (DATA.LOC)
// bracketed by literal START/STOP markers and writes an answer file
// (DATA.ANS) with one result line per input line.  It is slow and nearly
// idle on modern hardware, so the flight track is subsampled (a point only
// counts when it moves >2 km or climbs >0.1 km) and the subsampled list is
// split into contiguous shards, each run by its own copy of the installed
// program in a scratch directory.  Shards share nothing; the orchestrator
// blocks until every instance exits, kills all of them on cancellation, and
// concatenates answers in shard order.  No timeout is imposed: long runs
// are the program's nature.
package cari

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cosmic-on-air/pkg/flighttrack"
	"cosmic-on-air/pkg/geo"
)

// ErrProcessFailure wraps any abnormal simulator exit or malformed answer
// file.  Partial shard results are discarded with it.
var ErrProcessFailure = errors.New("cari: simulator failed")

// Executable is the program name inside the CARI-7A installation.
const Executable = "CARI-7A.exe"

// Subsampling thresholds.  Below both, a waypoint adds nothing the
// simulator's atmospheric model can resolve and only costs runtime.
const (
	minDistanceKm = 2.0
	minClimbKm    = 0.1
)

// answerDoseField is the column position of the dose value in DATA.ANS.
const answerDoseField = 8

// Options configures one reference generation run.
type Options struct {
	InstallDir     string // path to the CARI_7A_DVD folder
	Parallel       int    // simulator instances; values < 1 run one
	DisableWeather bool   // suppress geomagnetic storm / Forbush correction
	Logf           func(string, ...any)
}

// Curve is the generated reference, aligned to the full flight track.
// TotalMinusNeutron is the quantity regressed against device counts: most
// consumer detectors are nearly blind to neutrons, so the neutron share of
// the simulated dose is subtracted before fitting.
type Curve struct {
	Total             []float64
	TotalMinusNeutron []float64
}

// Available reports whether a CARI-7A installation exists at dir.
func Available(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, Executable))
	return err == nil && !info.IsDir()
}

// point is one retained waypoint in the simulator's input terms.
type point struct {
	lat, lon float64
	altKm    float64
	when     time.Time
	elapsed  float64 // seconds since takeoff
}

// Generate runs the simulator over the track and returns the dose curve
// interpolated back onto every track waypoint.
func Generate(ctx context.Context, track *flighttrack.Track, opts Options) (*Curve, error) {
	if len(track.Times) == 0 {
		return nil, fmt.Errorf("%w: empty flight track", ErrProcessFailure)
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	points := subsample(track)
	logf("cari: %d of %d waypoints retained for simulation", len(points), len(track.Times))

	parallel := opts.Parallel
	if parallel < 1 {
		parallel = 1
	}
	if parallel > len(points) {
		parallel = len(points)
	}

	if err := patchInstall(opts.InstallDir, opts.DisableWeather); err != nil {
		return nil, err
	}

	scratch, err := os.MkdirTemp("", "cari-*")
	if err != nil {
		return nil, fmt.Errorf("cari scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	widths := shardWidths(len(points), parallel)
	shardDirs := make([]string, parallel)
	offset := 0
	for p := 0; p < parallel; p++ {
		dst := filepath.Join(scratch, strconv.Itoa(p))
		if err := copyTree(opts.InstallDir, dst); err != nil {
			return nil, fmt.Errorf("clone simulator install: %w", err)
		}
		shard := points[offset : offset+widths[p]]
		if err := os.WriteFile(filepath.Join(dst, "DATA.LOC"), []byte(pointsFile(shard)), 0o644); err != nil {
			return nil, fmt.Errorf("write points file: %w", err)
		}
		shardDirs[p] = dst
		offset += widths[p]
	}
	logf("cari: launching %d simulator instance(s)", parallel)
	started := time.Now()

	// One goroutine per shard; CommandContext kills the child and reaps
	// it when ctx is cancelled, so an interrupt leaves no orphans.
	results := make(chan error, parallel)
	for _, dir := range shardDirs {
		go func(dir string) {
			// Stdout and stderr stay nil: a pipe would outlive a killed
			// simulator through its orphaned children and stall Wait.
			cmd := exec.CommandContext(ctx, filepath.Join(dir, Executable))
			cmd.Dir = dir
			if err := cmd.Run(); err != nil {
				results <- fmt.Errorf("%w: %s: %v", ErrProcessFailure, filepath.Base(dir), err)
				return
			}
			results <- nil
		}(dir)
	}
	var runErr error
	for range shardDirs {
		if err := <-results; err != nil && runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return nil, runErr
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessFailure, err)
	}
	logf("cari: simulation finished in %s", time.Since(started).Round(time.Second))

	total := make([]float64, 0, len(points))
	neutron := make([]float64, 0, len(points))
	for p, dir := range shardDirs {
		t, n, err := parseAnswer(filepath.Join(dir, "DATA.ANS"), widths[p])
		if err != nil {
			return nil, err
		}
		total = append(total, t...)
		neutron = append(neutron, n...)
	}

	// Interpolate the subsampled curve back onto the full track.
	subElapsed := make([]float64, len(points))
	for i, pt := range points {
		subElapsed[i] = pt.elapsed
	}
	fullElapsed := track.ElapsedSeconds()
	interpTotal := geo.Interp(fullElapsed, subElapsed, total)
	interpNeutron := geo.Interp(fullElapsed, subElapsed, neutron)

	curve := &Curve{
		Total:             interpTotal,
		TotalMinusNeutron: make([]float64, len(interpTotal)),
	}
	for i := range interpTotal {
		curve.TotalMinusNeutron[i] = interpTotal[i] - interpNeutron[i]
	}
	return curve, nil
}

// subsample keeps the first waypoint and every later one that moved far
// enough from the last retained point to matter.
func subsample(track *flighttrack.Track) []point {
	elapsed := track.ElapsedSeconds()
	points := []point{{
		lat:     track.Lat[0],
		lon:     track.Lon[0],
		altKm:   track.Alt[0] / 1000,
		when:    track.Times[0],
		elapsed: elapsed[0],
	}}
	for i := 1; i < len(track.Times); i++ {
		last := points[len(points)-1]
		altKm := track.Alt[i] / 1000
		if abs(altKm-last.altKm) < minClimbKm &&
			geo.Haversine(track.Lat[i], track.Lon[i], last.lat, last.lon) <= minDistanceKm {
			continue
		}
		points = append(points, point{
			lat:     track.Lat[i],
			lon:     track.Lon[i],
			altKm:   altKm,
			when:    track.Times[i],
			elapsed: elapsed[i],
		})
	}
	return points
}

// shardWidths splits n points into parallel contiguous shards, front-loaded
// the way the simulator's progress reporting expects.
func shardWidths(n, parallel int) []int {
	widths := make([]int, parallel)
	rest := n
	for p := 0; p < parallel-1; p++ {
		w := n/parallel + 1
		// Leave at least one point for every shard after this one.
		if later := parallel - 1 - p; w > rest-later {
			w = rest - later
		}
		widths[p] = w
		rest -= w
	}
	widths[parallel-1] = rest
	return widths
}

// pointsFile renders the DATA.LOC payload.  Each waypoint yields two lines,
// P0 for total dose and P1 for the neutron share:
//
//	S, 33.96, E, 18.60, K, 10.668, 2026/03/14, H10, D4, P0, C4, S0
//
// CARI-7A interprets the hour field as UTC+1.
func pointsFile(points []point) string {
	var b strings.Builder
	b.WriteString("START-------------------------------------------------\n")
	for _, pt := range points {
		for _, particles := range []int{0, 1} {
			fmt.Fprintf(&b, "%s, %.2f, %s, %.2f, K, %.3f, %s, H%d, D4, P%d, C4, S0\n",
				hemisphere(pt.lat, "N", "S"), abs(pt.lat),
				hemisphere(pt.lon, "E", "W"), abs(pt.lon),
				pt.altKm,
				pt.when.Format("2006/01/02"), pt.when.Hour()+1,
				particles)
		}
	}
	b.WriteString("STOP-------------------------------------------------\n")
	return b.String()
}

func hemisphere(v float64, pos, neg string) string {
	if v > 0 {
		return pos
	}
	return neg
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// parseAnswer reads a shard's DATA.ANS: one header line, then a P0/P1 line
// pair per point with the dose in a fixed comma-separated column.
func parseAnswer(path string, points int) ([]float64, []float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read answer file: %v", ErrProcessFailure, err)
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(lines) < 1+2*points {
		return nil, nil, fmt.Errorf("%w: truncated answer file %s: %d lines for %d points",
			ErrProcessFailure, filepath.Base(path), len(lines), points)
	}
	doseAt := func(line string) (float64, error) {
		fields := strings.Split(line, ",")
		if len(fields) <= answerDoseField {
			return 0, fmt.Errorf("%w: malformed answer line %q", ErrProcessFailure, line)
		}
		return strconv.ParseFloat(strings.TrimSpace(fields[answerDoseField]), 64)
	}
	total := make([]float64, points)
	neutron := make([]float64, points)
	for i := 0; i < points; i++ {
		if total[i], err = doseAt(lines[1+2*i]); err != nil {
			return nil, nil, fmt.Errorf("%w: point %d total: %v", ErrProcessFailure, i, err)
		}
		if neutron[i], err = doseAt(lines[2+2*i]); err != nil {
			return nil, nil, fmt.Errorf("%w: point %d neutron: %v", ErrProcessFailure, i, err)
		}
	}
	return total, neutron, nil
}

// patchInstall flips the installed configuration into non-interactive batch
// mode and sets the space-weather handling.  The edits mirror what a user
// would do in the menus once: disable menu prompts, point the program at
// DATA.LOC, and pin quiet geomagnetic conditions unless weather correction
// was requested.
func patchInstall(installDir string, disableWeather bool) error {
	if err := editLines(filepath.Join(installDir, "CARI.INI"), func(lines []string) error {
		if len(lines) < 6 {
			return errors.New("CARI.INI too short")
		}
		lines[5] = strings.Replace(lines[5], "YES", "NO!", 1)
		return nil
	}); err != nil {
		return err
	}
	if err := editLines(filepath.Join(installDir, "DEFAULT.INP"), func(lines []string) error {
		if len(lines) < 5 {
			return errors.New("DEFAULT.INP too short")
		}
		lines[4] = " DATA.LOC"
		return nil
	}); err != nil {
		return err
	}
	return editLines(filepath.Join(installDir, "FROMUSER.DAT"), func(lines []string) error {
		if len(lines) < 3 {
			return errors.New("FROMUSER.DAT too short")
		}
		if disableWeather {
			lines[0] = " 2, 'Kp index'"
			lines[2] = " 1.0000, 'Forbush scale factor'"
		} else {
			lines[0] = " -1, 'Kp index'"
			lines[2] = " -1.0000, 'Forbush scale factor'"
		}
		return nil
	})
}

// editLines applies fn to a file's lines and writes the result back.
func editLines(path string, fn func([]string) error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("patch %s: %w", filepath.Base(path), err)
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if err := fn(lines); err != nil {
		return fmt.Errorf("patch %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("patch %s: %w", filepath.Base(path), err)
	}
	return nil
}

// copyTree clones the simulator installation, keeping file modes so the
// executable stays executable inside each shard directory.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
}
