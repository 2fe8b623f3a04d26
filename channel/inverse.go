package channel

import (
	"math"
	"slices"

	"honnef.co/go/timecurve"
	"honnef.co/go/timecurve/frametime"
)

// MaxCycleIterations bounds the number of repetitions the cycle-aware
// searches visit, on each side of the keyed range.
const MaxCycleIterations = 10000

// cycleSpan is a closed interval of repetition numbers.
type cycleSpan struct{ lo, hi int64 }

func noCycles() cycleSpan { return cycleSpan{1, 0} }

func (s cycleSpan) empty() bool           { return s.lo > s.hi }
func (s cycleSpan) contains(n int64) bool { return n >= s.lo && n <= s.hi }

// reachable returns the repetitions before and after the keyed range that
// may contain the value v.
func (c *Channel) reachable(v float64) (pre, post cycleSpan) {
	pre, post = noCycles(), noCycles()
	if !c.hasDuration() {
		return pre, post
	}
	curve, base := c.baseCurve()
	ext, ok := curve.Extents(base)
	if !ok {
		return pre, post
	}
	hasRoot := false
	curve.InverseEvaluateBetween(v, base, func(frametime.Time) bool {
		hasRoot = true
		return false
	})
	pre = c.sideSpan(c.preMode(), v, ext, hasRoot, cycleSpan{math.MinInt32, -1})
	post = c.sideSpan(c.postMode(), v, ext, hasRoot, cycleSpan{1, math.MaxInt32})
	return pre, post
}

func (c *Channel) sideSpan(mode Extrapolation, v float64, ext timecurve.Extents, hasRoot bool, limit cycleSpan) cycleSpan {
	if !mode.cycles() {
		return noCycles()
	}
	delta := c.cycleDelta()
	if mode != ExtrapCycleWithOffset || delta == 0 {
		// Every repetition takes the same values.
		if !hasRoot {
			return noCycles()
		}
		return limit
	}
	// v - n·delta must lie within the keyed range's extents. The bounds are
	// widened by one repetition to absorb rounding; repetitions are solved
	// exactly afterwards.
	lo := (v - ext.Max) / delta
	hi := (v - ext.Min) / delta
	if delta < 0 {
		lo, hi = hi, lo
	}
	lo = math.Max(math.Ceil(lo)-1, float64(limit.lo))
	hi = math.Min(math.Floor(hi)+1, float64(limit.hi))
	if lo > hi {
		return noCycles()
	}
	return cycleSpan{int64(lo), int64(hi)}
}

// region0 returns the range solved as repetition 0: the keyed range, extended
// to infinity on sides that don't cycle.
func (c *Channel) region0() frametime.Range {
	r, _ := c.CycleRange(0)
	if !c.preMode().cycles() {
		r.Lower = frametime.OpenBound()
	}
	if !c.postMode().cycles() {
		r.Upper = frametime.OpenBound()
	}
	return r
}

// solveCycle calls visit, in ascending order, with the times in repetition n
// and within at which the channel has value v. n must not be 0.
func (c *Channel) solveCycle(v float64, n int64, within frametime.Range, visit func(frametime.Time) bool) bool {
	r, _ := c.CycleRange(n)
	r = r.Intersect(within)
	if r.IsEmpty() {
		return true
	}
	curve, base := c.baseCurve()
	var ts []frametime.Time
	curve.InverseEvaluateBetween(v-c.cycleOffset(n), base, func(t frametime.Time) bool {
		if g := c.fromBase(t, n); r.Contains(g) {
			ts = append(ts, g)
		}
		return true
	})
	if c.mirrored(n) {
		slices.Reverse(ts)
	}
	for _, t := range ts {
		if !visit(t) {
			return false
		}
	}
	return true
}

func (c *Channel) cyclic() bool {
	return c.preMode().cycles() || c.postMode().cycles()
}

// InverseEvaluate finds a time at which the channel has value v, near the
// hint. The flags have the same meaning as for
// [timecurve.PiecewiseCurve.InverseEvaluate], except that Cycle is implied
// for channels with cycling extrapolation.
//
// Repetitions are searched outwards from the one containing the hint, and
// the search stops at the first repetition with an acceptable solution, or
// after [MaxCycleIterations] repetitions. The solution's Cycle field is the
// number of repetitions between the hint and the solution. Flat stretches of
// the curve report their first time.
func (c *Channel) InverseEvaluate(v float64, hint frametime.Time, flags timecurve.InverseFlags) (timecurve.Solution, bool) {
	if !c.cyclic() {
		return c.AsPiecewiseCurve().InverseEvaluate(v, hint, flags&^timecurve.Cycle)
	}
	if flags&(timecurve.Forwards|timecurve.Backwards) == 0 {
		flags |= timecurve.Forwards | timecurve.Backwards
	}
	if flags&timecurve.Equal != 0 {
		if got, ok := c.Evaluate(hint); ok && got == v {
			return timecurve.Solution{Time: hint}, true
		}
	}
	forwards := flags&timecurve.Forwards != 0
	backwards := flags&timecurve.Backwards != 0

	h := c.CycleCount(hint)
	if !c.cycles(h) {
		h = 0
	}
	pre, post := c.reachable(v)
	spans := []cycleSpan{pre, {0, 0}, post}

	var best timecurve.Solution
	var found bool
	collect := func(n int64) {
		visit := func(t frametime.Time) bool {
			switch t.Compare(hint) {
			case 0:
				if flags&timecurve.Equal == 0 {
					return true
				}
			case 1:
				if !forwards {
					return true
				}
			case -1:
				if !backwards {
					return true
				}
			}
			s := timecurve.Solution{Time: t, Cycle: int(n - h)}
			if !found || s.Better(best, hint) {
				best, found = s, true
			}
			return true
		}
		if n == 0 {
			c.AsPiecewiseCurve().InverseEvaluateBetween(v, c.region0(), visit)
		} else {
			c.solveCycle(v, n, frametime.Infinite(), visit)
		}
	}
	feasible := func(n int64) bool {
		for _, s := range spans {
			if s.contains(n) {
				return true
			}
		}
		return false
	}

	// Skip straight to the nearest feasible repetition and stop after the
	// farthest one.
	near, far := int64(math.MaxInt64), int64(-1)
	for _, s := range spans {
		if s.empty() {
			continue
		}
		if forwards && s.hi >= h {
			near = min(near, max(0, s.lo-h))
			far = max(far, s.hi-h)
		}
		if backwards && s.lo <= h {
			near = min(near, max(0, h-s.hi))
			far = max(far, h-s.lo)
		}
	}
	if far < 0 {
		return timecurve.Solution{}, false
	}
	far = min(far, near+MaxCycleIterations)
	for d := near; d <= far; d++ {
		if d == 0 {
			if feasible(h) {
				collect(h)
			}
		} else {
			if forwards && feasible(h+d) {
				collect(h + d)
			}
			if backwards && feasible(h-d) {
				collect(h - d)
			}
		}
		if found {
			return best, true
		}
	}
	return timecurve.Solution{}, false
}

// InverseEvaluateBetween calls visit for the times within the range at which
// the channel has value v, in ascending order, including repetitions
// produced by cycling extrapolation. At most [MaxCycleIterations]
// repetitions are visited on each side of the keyed range, starting with the
// ones closest to it. It returns false if visit stopped the iteration.
func (c *Channel) InverseEvaluateBetween(v float64, within frametime.Range, visit func(frametime.Time) bool) bool {
	if !c.cyclic() {
		return c.AsPiecewiseCurve().InverseEvaluateBetween(v, within, visit)
	}
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	if within.HasLower() {
		lo = c.CycleCount(within.Lower.Time)
	}
	if within.HasUpper() {
		hi = c.CycleCount(within.Upper.Time)
	}
	pre, post := c.reachable(v)

	if last := min(hi, pre.hi, -1); !pre.empty() {
		first := max(lo, pre.lo, last-MaxCycleIterations+1)
		for n := first; n <= last; n++ {
			if !c.solveCycle(v, n, within, visit) {
				return false
			}
		}
	}
	if r := c.region0().Intersect(within); !r.IsEmpty() {
		if !c.AsPiecewiseCurve().InverseEvaluateBetween(v, r, visit) {
			return false
		}
	}
	if first := max(lo, post.lo, 1); !post.empty() {
		last := min(hi, post.hi, first+MaxCycleIterations-1)
		for n := first; n <= last; n++ {
			if !c.solveCycle(v, n, within, visit) {
				return false
			}
		}
	}
	return true
}
