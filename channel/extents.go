package channel

import (
	"math"

	"honnef.co/go/timecurve"
	"honnef.co/go/timecurve/frametime"
)

// ComputeExtents returns the minimum and maximum values the channel takes
// within the range, and where it takes them. Repetitions produced by cycling
// extrapolation are included. An unbounded range over linear extrapolation,
// or over cycling with a non-zero per-repetition offset, has infinite
// extents on the diverging side.
//
// It returns false if the channel has no value anywhere in the range.
func (c *Channel) ComputeExtents(within frametime.Range) (timecurve.Extents, bool) {
	curve := c.AsPiecewiseCurve()
	if !c.cyclic() {
		return curve.Extents(within)
	}

	var ext timecurve.Extents
	var found bool
	add := func(e timecurve.Extents) {
		if !found {
			ext, found = e, true
		} else {
			ext = ext.Union(e)
		}
	}
	if r := c.region0().Intersect(within); !r.IsEmpty() {
		if e, ok := curve.Extents(r); ok {
			add(e)
		}
	}
	c.sideExtents(within, -1, add)
	c.sideExtents(within, 1, add)
	return ext, found
}

// sideExtents reports the extents of the repetitions before (dir < 0) or after
// (dir > 0) the keyed range that overlap within.
func (c *Channel) sideExtents(within frametime.Range, dir int64, add func(timecurve.Extents)) {
	first, last := c.keys[0].at(), c.keys[len(c.keys)-1].at()
	mode, side := c.postMode(), frametime.GreaterThan(last)
	if dir < 0 {
		mode, side = c.preMode(), frametime.LessThan(first)
	}
	if !mode.cycles() {
		return
	}
	part := within.Intersect(side)
	if part.IsEmpty() {
		return
	}

	// Every whole repetition takes the same values, up to the per-repetition
	// offset, which is linear in the repetition number. It is therefore
	// enough to look at the two outermost repetitions on either end.
	var inner, outer int64
	var unbounded bool
	if dir < 0 {
		inner = min(c.CycleCount(part.Upper.Time), -1)
		unbounded = !part.HasLower()
		if !unbounded {
			outer = c.CycleCount(part.Lower.Time)
		}
	} else {
		inner = max(c.CycleCount(part.Lower.Time), 1)
		unbounded = !part.HasUpper()
		if !unbounded {
			outer = c.CycleCount(part.Upper.Time)
		}
	}

	if unbounded {
		var e timecurve.Extents
		var ok bool
		for _, n := range []int64{inner, inner + dir} {
			if pe, pok := c.cycleExtents(n, part); pok {
				if !ok {
					e, ok = pe, true
				} else {
					e = e.Union(pe)
				}
			}
		}
		if !ok {
			return
		}
		if delta := c.cycleDelta(); mode == ExtrapCycleWithOffset && delta != 0 {
			if float64(dir)*delta > 0 {
				e.Max = math.Inf(1)
			} else {
				e.Min = math.Inf(-1)
			}
		}
		add(e)
		return
	}

	for _, n := range []int64{inner, inner + dir, outer - dir, outer} {
		if (n-inner)*dir < 0 || (outer-n)*dir < 0 {
			continue
		}
		if e, ok := c.cycleExtents(n, part); ok {
			add(e)
		}
	}
}

// cycleExtents returns the extents of repetition n within r.
func (c *Channel) cycleExtents(n int64, r frametime.Range) (timecurve.Extents, bool) {
	cr, _ := c.CycleRange(n)
	cr = cr.Intersect(r)
	if cr.IsEmpty() {
		return timecurve.Extents{}, false
	}
	curve, base := c.baseCurve()
	local := c.rangeToBase(cr, n).Intersect(base)
	if local.IsEmpty() {
		return timecurve.Extents{}, false
	}
	e, ok := curve.Extents(local)
	if !ok {
		return timecurve.Extents{}, false
	}
	e.MinTime, e.MaxTime = c.fromBase(e.MinTime, n), c.fromBase(e.MaxTime, n)
	return e.Shift(c.cycleOffset(n)), true
}

// rangeToBase maps a range within repetition n into the keyed range.
func (c *Channel) rangeToBase(r frametime.Range, n int64) frametime.Range {
	first, last := c.keys[0].Time, c.keys[len(c.keys)-1].Time
	shift := frametime.At(frametime.Frame(n) * (last - first))
	lo := frametime.Bound{Time: r.Lower.Time.Sub(shift), Kind: r.Lower.Kind}
	hi := frametime.Bound{Time: r.Upper.Time.Sub(shift), Kind: r.Upper.Kind}
	if c.mirrored(n) {
		sum := frametime.At(first + last)
		lo, hi = frametime.Bound{Time: sum.Sub(hi.Time), Kind: hi.Kind}, frametime.Bound{Time: sum.Sub(lo.Time), Kind: lo.Kind}
	}
	return frametime.Range{Lower: lo, Upper: hi}
}
