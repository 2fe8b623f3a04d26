package timewarp

import (
	"honnef.co/go/timecurve"
	"honnef.co/go/timecurve/channel"
	"honnef.co/go/timecurve/frametime"
	"honnef.co/go/timecurve/internal/diag"
)

// curve returns the warp as a curve of output ticks over input time. Loops
// return a single period.
func (w TimeWarp) curve() timecurve.PiecewiseCurve {
	var c timecurve.PiecewiseCurve
	identity := timecurve.Linear{Coefficient: 1}
	switch w.Kind() {
	case KindPlayRate:
		r, _ := w.Rate()
		c.Add(timecurve.Piece{Range: frametime.Infinite(), Interp: timecurve.Linear{Coefficient: r}})
	case KindFixedTime:
		c.Add(timecurve.Piece{Range: frametime.Infinite(), Interp: timecurve.Constant{Value: w.fixedTime().Float()}})
	case KindRateConversion:
		num, den := w.ratio()
		c.Add(timecurve.Piece{Range: frametime.Infinite(), Interp: timecurve.Linear{Coefficient: float64(num) / float64(den)}})
	case KindLoop:
		c.Add(timecurve.Piece{Range: frametime.Between(frametime.Time{}, frametime.At(w.window())), Interp: identity})
	case KindClamp:
		m := frametime.At(w.window())
		c.Add(timecurve.Piece{Range: frametime.LessThan(frametime.Time{}), Interp: timecurve.Constant{}})
		if w.window() > 0 {
			c.Add(timecurve.Piece{Range: frametime.Between(frametime.Time{}, m), Interp: identity})
		}
		c.Add(timecurve.Piece{Range: frametime.AtLeast(m), Interp: timecurve.Constant{Value: float64(w.window()), Origin: m}})
	}
	return c
}

// InverseRemapTimeCycled finds an input time that maps to value, searching
// from the hint in the directions given by flags, as
// [timecurve.PiecewiseCurve.InverseEvaluate] does. Loops and cycling custom
// warps search neighboring repetitions, and the solution's Cycle field counts
// the repetitions between the hint and the solution.
//
// Dangling custom warps have no solutions.
func (w TimeWarp) InverseRemapTimeCycled(value, hint frametime.Time, flags timecurve.InverseFlags) (timecurve.Solution, bool) {
	switch w.Kind() {
	case KindCustom:
		r, ok := w.remapper()
		if !ok {
			return timecurve.Solution{}, false
		}
		return r.InverseRemapTimeCycled(value, hint, flags)
	case KindLoop:
		d := w.window()
		local, n := frametime.FloorMod(hint, d)
		s, ok := w.curve().InverseEvaluate(value.Float(), local, flags|timecurve.Cycle)
		if !ok {
			return timecurve.Solution{}, false
		}
		s.Time = s.Time.Add(frametime.At(frametime.Frame(n) * d))
		return s, true
	default:
		return w.curve().InverseEvaluate(value.Float(), hint, flags&^timecurve.Cycle)
	}
}

// InverseRemapTimeWithinRange calls visit, in ascending order, for the input
// times within the range that map to value. Ranges where the warp is
// constant report only their first time. At most
// [channel.MaxCycleIterations] repetitions of a loop are visited. It returns
// false if visit stopped the iteration.
func (w TimeWarp) InverseRemapTimeWithinRange(value frametime.Time, within frametime.Range, visit func(frametime.Time) bool) bool {
	switch w.Kind() {
	case KindCustom:
		r, ok := w.remapper()
		if !ok {
			return true
		}
		return r.InverseRemapTimeWithinRange(value, within, visit)
	case KindLoop:
		return w.loopRoots(value, within, visit)
	default:
		return w.curve().InverseEvaluateBetween(value.Float(), within, visit)
	}
}

func (w TimeWarp) loopRoots(value frametime.Time, within frametime.Range, visit func(frametime.Time) bool) bool {
	d := w.window()
	if value.Before(frametime.Time{}) || !value.Before(frametime.At(d)) {
		return true
	}
	// The n-th repetition maps n·d + value to value.
	var first int64
	switch {
	case within.HasLower():
		off, q := frametime.FloorMod(within.Lower.Time.Sub(value), d)
		first = q
		if off != (frametime.Time{}) {
			first++
		}
	case within.HasUpper():
		_, q := frametime.FloorMod(within.Upper.Time.Sub(value), d)
		first = q - channel.MaxCycleIterations + 1
	default:
		first = -channel.MaxCycleIterations / 2
	}
	for n := first; n < first+channel.MaxCycleIterations; n++ {
		t := frametime.At(frametime.Frame(n) * d).Add(value)
		if !within.Contains(t) {
			if n > first {
				break
			}
			continue
		}
		if !visit(t) {
			return false
		}
	}
	return true
}

// ComputeTraversedHull returns the smallest range containing every output
// time the warp produces for input times within r.
func (w TimeWarp) ComputeTraversedHull(r frametime.Range) frametime.Range {
	if r.IsEmpty() {
		return frametime.Empty()
	}
	switch w.Kind() {
	case KindPlayRate:
		rate, _ := w.Rate()
		return scaleRange(r, func(t frametime.Time) frametime.Time { return t.Scale(rate) }, rate)
	case KindFixedTime:
		t := w.fixedTime()
		return frametime.InclusiveRange(t, t)
	case KindRateConversion:
		num, den := w.ratio()
		return scaleRange(r, func(t frametime.Time) frametime.Time { return frametime.ScaleRational(t, num, den) }, 1)
	case KindLoop:
		return w.loopHull(r)
	case KindClamp:
		m := frametime.At(w.window())
		clampBound := func(b frametime.Bound, open frametime.Time) frametime.Bound {
			if b.IsOpen() || b.Time.Before(frametime.Time{}) || b.Time.After(m) {
				t := open
				if !b.IsOpen() {
					t = frametime.Min(frametime.Max(b.Time, frametime.Time{}), m)
				}
				return frametime.InclusiveBound(t)
			}
			return b
		}
		return frametime.Range{Lower: clampBound(r.Lower, frametime.Time{}), Upper: clampBound(r.Upper, m)}
	case KindCustom:
		rm, ok := w.remapper()
		if !ok {
			return r
		}
		return rm.ComputeTraversedHull(r)
	default:
		return r
	}
}

// scaleRange maps the bounds of r through f, a linear function with the
// given sign of slope.
func scaleRange(r frametime.Range, f func(frametime.Time) frametime.Time, slope float64) frametime.Range {
	if slope == 0 {
		t := f(frametime.Time{})
		return frametime.InclusiveRange(t, t)
	}
	lo, hi := r.Lower, r.Upper
	if !lo.IsOpen() {
		lo.Time = f(lo.Time)
	}
	if !hi.IsOpen() {
		hi.Time = f(hi.Time)
	}
	if slope < 0 {
		lo, hi = hi, lo
	}
	return frametime.Range{Lower: lo, Upper: hi}
}

func (w TimeWarp) loopHull(r frametime.Range) frametime.Range {
	d := w.window()
	full := frametime.Between(frametime.Time{}, frametime.At(d))
	if !r.IsBounded() {
		return full
	}
	lo, nlo := frametime.FloorMod(r.Lower.Time, d)
	hi, nhi := frametime.FloorMod(r.Upper.Time, d)
	switch {
	case nlo == nhi:
		return frametime.Range{
			Lower: frametime.Bound{Time: lo, Kind: r.Lower.Kind},
			Upper: frametime.Bound{Time: hi, Kind: r.Upper.Kind},
		}
	case nhi == nlo+1 && hi == (frametime.Time{}) && r.Upper.IsExclusive():
		return frametime.Range{
			Lower: frametime.Bound{Time: lo, Kind: r.Lower.Kind},
			Upper: frametime.ExclusiveBound(frametime.At(d)),
		}
	default:
		return full
	}
}

// ScaleBy dilates the warp's input domain by factor, as when the content it
// applies to is stretched. Play rates are divided by factor and custom warps
// scale their remappers. The other kinds describe their output domain and
// are unaffected.
func (w *TimeWarp) ScaleBy(factor float64) {
	if !diag.Assertf(factor > 0, "invalid scale factor %g", factor) {
		return
	}
	switch w.Kind() {
	case KindPlayRate:
		r, _ := w.Rate()
		w.v.SetLiteral(r / factor)
	case KindCustom:
		if r, ok := w.remapper(); ok {
			r.ScaleBy(factor)
		}
	}
}
