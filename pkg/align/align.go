// Package align locates the true in-flight window inside a detector sample
// stream.
//
// Two strategies exist.  EstimateWindow only needs the expected flight
// duration and exploits the physics: the dose rate at cruise altitude dwarfs
// the rate on the ground, so the window with the maximum count sum is the
// flight.  AlignReference is used when a simulated reference dose curve is
// available and fits device counts onto the reference with a zero-intercept
// regression, picking the window with the best R².  The regression is
// zero-intercept because counts are physically proportional to dose; the
// slope doubles as the detector's calibration factor.
package align

import (
	"errors"
	"time"

	"cosmic-on-air/pkg/geo"
)

// Window marks the inclusive takeoff/landing sample indexes of the in-flight
// slice of a device stream.
type Window struct {
	Takeoff int
	Landing int
}

// DefaultMaxDiff caps sample-to-sample changes of the 5-second count before
// window estimation.  Airport security scanners produce single-sample spikes
// three orders of magnitude above cosmic rates; clipping stops one scanner
// pass from outweighing a whole cruise segment.
const DefaultMaxDiff = 100

// ErrNoSamples reports an empty device stream; neither search can return a
// window for it.
var ErrNoSamples = errors.New("align: no device samples")

// EstimateWindow finds the most plausible in-flight window from counts
// alone.  It slides a window whose timestamp span stays just under
// flightDuration across a spike-clipped cumulative count curve and returns
// the window with the maximum count sum.  Worst case it returns the whole
// range, never an empty window.
func EstimateWindow(times []time.Time, cnt5s []int, flightDuration time.Duration, maxDiff int) (Window, error) {
	size := len(cnt5s)
	if size == 0 || len(times) != size {
		return Window{}, ErrNoSamples
	}
	if maxDiff <= 0 {
		maxDiff = DefaultMaxDiff
	}

	// Rebuild the count curve from clipped deltas.  A plain prefix sum of
	// the clipped deltas could dip below zero after a downward clip, so
	// the rebuild clamps at zero sample by sample.
	clipped := make([]int64, size)
	clipped[0] = int64(cnt5s[0])
	for i := 1; i < size; i++ {
		d := int64(cnt5s[i] - cnt5s[i-1])
		if d > int64(maxDiff) {
			d = int64(maxDiff)
		}
		if d < -int64(maxDiff) {
			d = -int64(maxDiff)
		}
		clipped[i] = clipped[i-1] + d
		if clipped[i] < 0 {
			clipped[i] = 0
		}
	}

	// Prefix sums give O(1) range sums inside the scan.
	cumsum := make([]int64, size)
	cumsum[0] = clipped[0]
	for i := 1; i < size; i++ {
		cumsum[i] = cumsum[i-1] + clipped[i]
	}

	best := Window{Takeoff: 0, Landing: size - 1}
	var maxSum int64

	windowStart, windowStop := 0, 0
	for windowStop != size-1 {
		// The poll interval is not guaranteed, so the stop index is
		// re-derived from timestamps on every iteration.
		var dt time.Duration
		for i := windowStop + 1; i < size; i++ {
			dt = times[i].Sub(times[windowStart])
			if dt < flightDuration {
				windowStop = i
			} else {
				break
			}
		}

		// Zero or negative spans appear around corrupted timestamps;
		// skip ahead instead of scoring a degenerate window.
		if dt <= 0 {
			windowStart++
			windowStop = windowStart + 1
			if windowStop >= size {
				break
			}
			continue
		}

		if s := cumsum[windowStop] - cumsum[windowStart]; s >= maxSum {
			maxSum = s
			best = Window{Takeoff: windowStart, Landing: windowStop}
		}
		windowStart++
	}

	return best, nil
}

// AlignReference finds the device window that best regresses onto the
// reference dose curve.
//
// refTimes and ref sample the reference in seconds since takeoff.  The scan
// slides a window over the device timestamps whose span does not exceed the
// flight duration, rejects windows shorter than half the flight or with
// fewer than five samples, interpolates the reference onto the window's
// relative timestamps, and fits measurement ≈ β·reference.  The window with
// the highest R² wins; ties keep the first window seen so results stay
// deterministic.  When nothing beats R² = 0 the full range is returned with
// R² = 0, which downstream treats as a data-quality flag.
func AlignReference(times []time.Time, cnt1min []int, takeoff, landing time.Time, refTimes, ref []float64) (Window, float64, error) {
	size := len(times)
	if size == 0 || len(cnt1min) != size {
		return Window{}, 0, ErrNoSamples
	}
	flightDuration := landing.Sub(takeoff)

	elapsed := make([]float64, size)
	for i := range times {
		elapsed[i] = times[i].Sub(times[0]).Seconds()
	}

	best := Window{Takeoff: 0, Landing: size - 1}
	maxR2 := 0.0

	windowStart, windowEnd := 0, 0
	for windowEnd != size-1 {
		windowEnd = size - 1
		for i := windowStart + 1; i < size; i++ {
			if times[i].Sub(times[windowStart]) > flightDuration {
				windowEnd = i - 1
				break
			}
		}

		span := times[windowEnd].Sub(times[windowStart])
		if span < flightDuration/2 || windowEnd-windowStart < 5 {
			windowStart++
			windowEnd = windowStart + 1
			if windowEnd >= size {
				break
			}
			continue
		}

		// Window-relative timestamps so the window start maps onto
		// takeoff in reference time.
		relative := make([]float64, windowEnd-windowStart+1)
		measurement := make([]float64, len(relative))
		for i := range relative {
			relative[i] = elapsed[windowStart+i] - elapsed[windowStart]
			measurement[i] = float64(cnt1min[windowStart+i])
		}
		adjusted := geo.Interp(relative, refTimes, ref)

		ws, we := windowStart, windowEnd
		windowStart++

		beta := Beta(measurement, adjusted)
		if beta < 0 {
			// Counts falling while the reference rises is not a
			// flight, whatever the residuals say.
			continue
		}

		r2, ok := rSquared(measurement, adjusted, beta)
		if !ok {
			continue
		}
		if r2 > maxR2 {
			best = Window{Takeoff: ws, Landing: we}
			maxR2 = r2
		}
	}

	return best, maxR2, nil
}

// Beta fits measurement ≈ β·reference with the intercept forced to zero and
// returns β = Σ(m·r)/Σ(r²).  With counts as the measurement and dose as the
// reference, β is the detector sensitivity in counts per µSv/h.
func Beta(measurement, reference []float64) float64 {
	var num, den float64
	for i := range measurement {
		num += measurement[i] * reference[i]
		den += reference[i] * reference[i]
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// rSquared computes the coefficient of determination of the zero-intercept
// fit.  It reports ok=false on a constant measurement, where R² is
// undefined.
func rSquared(measurement, reference []float64, beta float64) (float64, bool) {
	var mean float64
	for _, m := range measurement {
		mean += m
	}
	mean /= float64(len(measurement))

	var ess, tss float64
	for i := range measurement {
		e := measurement[i] - beta*reference[i]
		ess += e * e
		d := measurement[i] - mean
		tss += d * d
	}
	if tss == 0 {
		return 0, false
	}
	return 1 - ess/tss, true
}
