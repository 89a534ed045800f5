// Package timefix repairs corrupted detector timestamp streams.
//
// Cheap flight loggers drift, drop GPS lock, and occasionally replay or skip
// whole blocks of timestamps.  Repair rebuilds a plausible monotonic stream
// from the deltas between consecutive samples: valid deltas are kept exactly,
// duplicates and jumps are replaced by the nominal polling interval, and the
// deviation each replacement introduces is remembered so that a later
// anomalous delta can be cancelled against it.  That way a logger that
// freezes for two minutes and then jumps two minutes ahead comes out with an
// evenly spaced, correctly anchored stream instead of a shifted one.
package timefix

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrUnrecoverable reports a stream where no pair of consecutive samples has
// a valid spacing, so no base interval can be derived.  Callers must fail the
// whole record; there is no partial repair.
var ErrUnrecoverable = errors.New("timestamps too corrupt: no valid interval anywhere")

// DefaultMaxDT is the spacing above which a delta counts as corruption
// rather than a slow poll.
const DefaultMaxDT = 1800 * time.Second

// maxCombineTerms bounds the subset search over accumulated errors.  The
// enumeration is exponential in the number of terms, so combinations of more
// than this many errors are skipped.
const maxCombineTerms = 10

// Repair returns a monotonic copy of times.  delta is the expected sample
// spacing; when it is zero or negative the median of the valid deltas is
// used instead.  maxDT <= 0 selects DefaultMaxDT.
//
// The returned bool reports whether anything was changed: a stream whose
// deltas are all valid is returned as-is, so callers can record "original"
// provenance without comparing slices.
func Repair(times []time.Time, delta, maxDT time.Duration) ([]time.Time, bool, error) {
	if maxDT <= 0 {
		maxDT = DefaultMaxDT
	}
	if len(times) < 2 {
		return times, false, nil
	}

	maxSec := int64(maxDT / time.Second)
	deltaSec := int64(delta / time.Second)

	dt := make([]int64, len(times)-1)
	valid := make([]bool, len(dt))
	allValid := true
	anyValid := false
	for i := range dt {
		dt[i] = times[i+1].Unix() - times[i].Unix()
		valid[i] = dt[i] > 0 && dt[i] <= maxSec
		if valid[i] {
			anyValid = true
		} else {
			allValid = false
		}
	}
	if allValid {
		return times, false, nil
	}

	if deltaSec <= 0 {
		if !anyValid {
			return nil, false, ErrUnrecoverable
		}
		deltaSec = medianValid(dt, valid)
	}
	if deltaSec <= 0 {
		return nil, false, fmt.Errorf("implausible base interval %ds", deltaSec)
	}

	repairDeltas(dt, valid, deltaSec, maxSec)

	out := make([]time.Time, len(times))
	out[0] = times[0]
	for i := range dt {
		out[i+1] = out[i].Add(time.Duration(dt[i]) * time.Second)
	}
	return out, true, nil
}

// repairDeltas walks the delta sequence once, correcting it in place.
//
// A zero delta is a duplicated timestamp: it is replaced by delta and the
// deviation it introduces joins the open error run when the previous delta
// was also invalid.  Any other invalid delta tries to cancel against a
// subset of the accumulated unresolved errors; when no subset yields a valid
// corrected delta it is itself recorded as a new error and overwritten.
//
// Valid deltas normally pass through untouched.  The one exception: while
// errors are pending, a valid delta that cancels against a subset to land
// exactly on the base interval is folded too.  That is the catch-up gap a
// logger leaves after emitting a duplicate while staying on its absolute
// schedule, and folding it re-anchors every later timestamp.
func repairDeltas(dt []int64, valid []bool, delta, maxSec int64) {
	ok := func(d int64) bool { return d > 0 && d <= maxSec }
	exact := func(d int64) bool { return d == delta }

	var errs []int64
	for i := range dt {
		if dt[i] == 0 {
			dt[i] = delta
			if i > 1 && !valid[i-1] && len(errs) > 0 {
				errs[len(errs)-1] -= delta
			} else {
				errs = append(errs, -delta)
			}
			continue
		}
		if valid[i] {
			if len(errs) > 0 {
				if sum, picked, found := matchErrors(errs, dt[i], exact); found {
					dt[i] += sum
					errs = removePicked(errs, picked)
				}
			}
			continue
		}

		if sum, picked, found := matchErrors(errs, dt[i], ok); found {
			dt[i] += sum
			errs = removePicked(errs, picked)
			continue
		}
		errs = append(errs, dt[i]-delta)
		dt[i] = delta
	}
}

// matchErrors enumerates subsets of errs, oldest error as the lowest bit,
// looking for a combination whose sum turns d into a valid delta.  The first
// match wins, keeping the correction deterministic.  Subsets larger than
// maxCombineTerms are skipped but still counted, bounding the work.
func matchErrors(errs []int64, d int64, ok func(int64) bool) (int64, []bool, bool) {
	if len(errs) == 0 {
		return 0, nil, false
	}
	picked := make([]bool, len(errs))
	picked[0] = true
	total := 1 << len(errs)
	for j := 0; j < total-1; j++ {
		if countPicked(picked) <= maxCombineTerms {
			var sum int64
			for k, p := range picked {
				if p {
					sum += errs[k]
				}
			}
			if ok(d + sum) {
				return sum, picked, true
			}
		}
		incrementPicked(picked)
	}
	return 0, nil, false
}

// incrementPicked advances the subset selector: the first slot is the least
// significant bit and carries propagate from the last slot backwards.
func incrementPicked(picked []bool) {
	if !picked[0] {
		picked[0] = true
		return
	}
	picked[0] = false
	for i := 1; i < len(picked); i++ {
		idx := len(picked) - i
		if !picked[idx] {
			picked[idx] = true
			return
		}
		picked[idx] = false
	}
}

func countPicked(picked []bool) int {
	n := 0
	for _, p := range picked {
		if p {
			n++
		}
	}
	return n
}

func removePicked(errs []int64, picked []bool) []int64 {
	out := errs[:0]
	for i, e := range errs {
		if !picked[i] {
			out = append(out, e)
		}
	}
	return out
}

// medianValid returns the median of the deltas flagged valid.
func medianValid(dt []int64, valid []bool) int64 {
	vals := make([]int64, 0, len(dt))
	for i, d := range dt {
		if valid[i] {
			vals = append(vals, d)
		}
	}
	sort.Slice(vals, func(a, b int) bool { return vals[a] < vals[b] })
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}
