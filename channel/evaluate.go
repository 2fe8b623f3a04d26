package channel

import (
	"sort"

	"honnef.co/go/timecurve"
	"honnef.co/go/timecurve/frametime"
)

// Evaluate returns the channel's value at t.
//
// A channel without keys evaluates to its default value and reports false if
// it has none. A channel with a single key is constant. Outside of the keyed
// range the extrapolation modes apply; ExtrapNone reports false.
func (c *Channel) Evaluate(t frametime.Time) (float64, bool) {
	switch len(c.keys) {
	case 0:
		return c.def, c.hasDefault
	case 1:
		return c.keys[0].Value, true
	}
	first, last := c.keys[0], c.keys[len(c.keys)-1]
	switch {
	case t.Before(first.at()):
		return c.extrapolate(t, c.preMode(), first, c.preSlope())
	case t.After(last.at()):
		return c.extrapolate(t, c.postMode(), last, c.postSlope())
	default:
		return c.evaluateKeyed(t), true
	}
}

func (c *Channel) extrapolate(t frametime.Time, mode Extrapolation, end Key, slope float64) (float64, bool) {
	switch mode {
	case ExtrapNone:
		return 0, false
	case ExtrapConstant:
		return end.Value, true
	case ExtrapLinear:
		return end.Value + slope*t.Sub(end.at()).Float(), true
	default:
		local, n := c.toBase(t)
		return c.evaluateKeyed(local) + c.cycleOffset(n), true
	}
}

// evaluateKeyed evaluates the channel at a time within the keyed range.
func (c *Channel) evaluateKeyed(t frametime.Time) float64 {
	if cp := c.lastPiece.Load(); cp != nil && cp.version == c.version && cp.piece.Range.Contains(t) {
		return cp.piece.Interp.Evaluate(t)
	}
	i := sort.Search(len(c.keys), func(i int) bool { return c.keys[i].at().After(t) }) - 1
	switch {
	case i < 0:
		return c.keys[0].Value
	case i >= len(c.keys)-1:
		return c.keys[len(c.keys)-1].Value
	}
	p := c.segment(i)
	c.lastPiece.Store(&cachedPiece{version: c.version, piece: p})
	return p.Interp.Evaluate(t)
}

// duration returns the length of the keyed range in ticks.
func (c *Channel) duration() frametime.Frame {
	return c.keys[len(c.keys)-1].Time - c.keys[0].Time
}

// toBase maps a time outside of the keyed range into it, returning the mapped
// time and the repetition the time belongs to. Repetitions after the last
// key are numbered from 1 and include their upper end; repetitions before the
// first key are numbered from -1 and include their lower end. The channel
// must have a non-empty key range.
func (c *Channel) toBase(t frametime.Time) (frametime.Time, int64) {
	first, last := c.keys[0].Time, c.keys[len(c.keys)-1].Time
	dur := last - first
	off, n := frametime.FloorMod(t.Sub(frametime.At(first)), dur)
	if t.After(frametime.At(last)) && off == (frametime.Time{}) {
		off, n = frametime.At(dur), n-1
	}
	local := frametime.At(first).Add(off)
	if c.mirrored(n) {
		local = frametime.At(first + last).Sub(local)
	}
	return local, n
}

// fromBase is the inverse of toBase for a given repetition.
func (c *Channel) fromBase(local frametime.Time, n int64) frametime.Time {
	first, last := c.keys[0].Time, c.keys[len(c.keys)-1].Time
	if c.mirrored(n) {
		local = frametime.At(first + last).Sub(local)
	}
	return local.Add(frametime.At(frametime.Frame(n) * (last - first)))
}

// modeFor returns the effective extrapolation mode of repetition n.
func (c *Channel) modeFor(n int64) Extrapolation {
	switch {
	case n < 0:
		return c.preMode()
	case n > 0:
		return c.postMode()
	default:
		return ExtrapConstant
	}
}

func (c *Channel) mirrored(n int64) bool {
	return n&1 != 0 && c.modeFor(n) == ExtrapOscillate
}

// cycleOffset returns the value offset of repetition n.
func (c *Channel) cycleOffset(n int64) float64 {
	if c.modeFor(n) != ExtrapCycleWithOffset {
		return 0
	}
	return float64(n) * c.cycleDelta()
}

func (c *Channel) cycleDelta() float64 {
	return c.keys[len(c.keys)-1].Value - c.keys[0].Value
}

// CycleCount returns the repetition of the keyed range that t falls in. The
// keyed range itself is repetition 0, repetitions after it are numbered from
// 1 and those before it from -1. The count is computed regardless of the
// extrapolation modes; channels with fewer than two distinct key times only
// have repetition 0.
func (c *Channel) CycleCount(t frametime.Time) int64 {
	if !c.hasDuration() {
		return 0
	}
	if !t.Before(c.keys[0].at()) && !t.After(c.keys[len(c.keys)-1].at()) {
		return 0
	}
	_, n := c.toBase(t)
	return n
}

// CycleRange returns the range of times in repetition n. Repetition 0 is the
// closed keyed range, later repetitions exclude their start and earlier ones
// exclude their end. It returns false for channels with fewer than two
// distinct key times.
func (c *Channel) CycleRange(n int64) (frametime.Range, bool) {
	if !c.hasDuration() {
		return frametime.Empty(), false
	}
	first, last := c.keys[0].Time, c.keys[len(c.keys)-1].Time
	shift := frametime.Frame(n) * (last - first)
	lo, hi := frametime.At(first+shift), frametime.At(last+shift)
	switch {
	case n > 0:
		return frametime.Range{Lower: frametime.ExclusiveBound(lo), Upper: frametime.InclusiveBound(hi)}, true
	case n < 0:
		return frametime.Between(lo, hi), true
	default:
		return frametime.InclusiveRange(lo, hi), true
	}
}

// cycles reports whether repetition n is part of the channel's curve.
func (c *Channel) cycles(n int64) bool {
	return n == 0 || c.modeFor(n).cycles()
}

// baseCurve returns the curve restricted to the keyed range, used to solve
// within a single repetition.
func (c *Channel) baseCurve() (timecurve.PiecewiseCurve, frametime.Range) {
	r, _ := c.CycleRange(0)
	return c.AsPiecewiseCurve(), r
}
