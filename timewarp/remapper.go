package timewarp

import (
	"math"
	"slices"
	"sync/atomic"

	"honnef.co/go/timecurve"
	"honnef.co/go/timecurve/channel"
	"honnef.co/go/timecurve/frametime"
	"honnef.co/go/timecurve/internal/diag"
	"honnef.co/go/timecurve/variant"
)

// Remapper implements a custom time warp.
type Remapper interface {
	RemapTime(t frametime.Time) frametime.Time
	// InverseRemapTimeCycled finds an input time that maps to value, near
	// the hint. See [TimeWarp.InverseRemapTimeCycled].
	InverseRemapTimeCycled(value, hint frametime.Time, flags timecurve.InverseFlags) (timecurve.Solution, bool)
	// InverseRemapTimeWithinRange calls visit, in ascending order, for the
	// input times within the range that map to value.
	InverseRemapTimeWithinRange(value frametime.Time, within frametime.Range, visit func(frametime.Time) bool) bool
	ComputeTraversedHull(r frametime.Range) frametime.Range
	// ScaleBy dilates the remapper's input domain by factor.
	ScaleBy(factor float64)
}

// Arena stores the remappers of custom time warps.
type Arena = variant.Registry[Remapper]

func NewArena() *Arena { return variant.NewRegistry[Remapper]() }

var (
	_ Remapper = (*PlayRateCurve)(nil)
	_ Remapper = (*CurveWarp)(nil)
	_ Remapper = Chain(nil)
)

// hullOf converts value extents measured in ticks to a range of times.
// Infinite extents produce open bounds.
func hullOf(e timecurve.Extents) frametime.Range {
	var r frametime.Range
	if !math.IsInf(e.Min, 0) {
		r.Lower = frametime.InclusiveBound(frametime.FromFloat(e.Min))
	}
	if !math.IsInf(e.Max, 0) {
		r.Upper = frametime.InclusiveBound(frametime.FromFloat(e.Max))
	}
	return r
}

// PlayRateCurve is a remapper driven by a play rate that changes over time.
// Output time is the integral of the rate, starting at zero at Start.
//
// Cycling and absent extrapolation of the rate channel are treated as
// constant extrapolation, weighted tangents are ignored, and a channel
// without keys or default value plays at a rate of one.
type PlayRateCurve struct {
	Rate  *channel.Channel
	Start frametime.Time

	cache atomic.Pointer[integral]
}

type integral struct {
	rate    *channel.Channel
	version uint64
	start   frametime.Time
	curve   timecurve.PiecewiseCurve
}

func NewPlayRateCurve(rate *channel.Channel, start frametime.Time) *PlayRateCurve {
	return &PlayRateCurve{Rate: rate, Start: start}
}

// integrable returns a copy of c that can be integrated exactly.
func integrable(c *channel.Channel) *channel.Channel {
	keys := c.Keys()
	for i := range keys {
		keys[i].Tangent.WeightMode = channel.WeightNone
	}
	out := channel.New(keys...)
	fix := func(m channel.Extrapolation) channel.Extrapolation {
		if m == channel.ExtrapLinear {
			return m
		}
		return channel.ExtrapConstant
	}
	out.SetExtrapolation(fix(c.PreExtrapolation()), fix(c.PostExtrapolation()))
	if def, ok := c.Default(); ok {
		out.SetDefault(def)
	} else if len(keys) == 0 {
		out.SetDefault(1)
	}
	return out
}

// Integral returns the curve mapping input to output time, in ticks.
func (p *PlayRateCurve) Integral() timecurve.PiecewiseCurve {
	if c := p.cache.Load(); c != nil && c.rate == p.Rate && c.version == p.Rate.Version() && c.start == p.Start {
		return c.curve
	}
	curve := integrable(p.Rate).AsPiecewiseCurve().Integral()
	if v, ok := curve.Evaluate(p.Start); diag.Assertf(ok, "play rate integral undefined at %v", p.Start) {
		curve = curve.Offset(-v)
	}
	p.cache.Store(&integral{rate: p.Rate, version: p.Rate.Version(), start: p.Start, curve: curve})
	diag.Logger().Debug().
		Int("pieces", len(curve.Pieces)).
		Stringer("start", p.Start).
		Msg("rebuilt play rate integral")
	return curve
}

func (p *PlayRateCurve) RemapTime(t frametime.Time) frametime.Time {
	v, ok := p.Integral().Evaluate(t)
	if !diag.Assertf(ok, "play rate integral undefined at %v", t) {
		return t
	}
	return frametime.FromFloat(v)
}

func (p *PlayRateCurve) InverseRemapTimeCycled(value, hint frametime.Time, flags timecurve.InverseFlags) (timecurve.Solution, bool) {
	return p.Integral().InverseEvaluate(value.Float(), hint, flags&^timecurve.Cycle)
}

func (p *PlayRateCurve) InverseRemapTimeWithinRange(value frametime.Time, within frametime.Range, visit func(frametime.Time) bool) bool {
	return p.Integral().InverseEvaluateBetween(value.Float(), within, visit)
}

func (p *PlayRateCurve) ComputeTraversedHull(r frametime.Range) frametime.Range {
	e, ok := p.Integral().Extents(r)
	if !ok {
		return frametime.Empty()
	}
	return hullOf(e)
}

// ScaleBy stretches the rate curve in time around Start and divides its
// values by factor, so that the same output range is covered over a
// stretched input range. The scaled curve is a copy; the channel passed to
// [NewPlayRateCurve] is left alone.
func (p *PlayRateCurve) ScaleBy(factor float64) {
	if !diag.Assertf(factor > 0, "invalid scale factor %g", factor) {
		return
	}
	p.Rate = p.Rate.Clone()
	p.Rate.ScaleTimes(p.Start, factor)
	p.Rate.ScaleValues(1 / factor)
}

// CurveWarp is a remapper whose channel's values are output times, in
// ticks. The channel's extrapolation, including cycling, applies.
type CurveWarp struct {
	Curve *channel.Channel
}

func NewCurveWarp(c *channel.Channel) *CurveWarp { return &CurveWarp{Curve: c} }

// RemapTime returns the channel's value at t. Times at which the channel has
// no value map to themselves.
func (c *CurveWarp) RemapTime(t frametime.Time) frametime.Time {
	v, ok := c.Curve.Evaluate(t)
	if !ok {
		diag.Logger().Warn().Stringer("time", t).Msg("time warp curve has no value")
		return t
	}
	return frametime.FromFloat(v)
}

func (c *CurveWarp) InverseRemapTimeCycled(value, hint frametime.Time, flags timecurve.InverseFlags) (timecurve.Solution, bool) {
	return c.Curve.InverseEvaluate(value.Float(), hint, flags)
}

func (c *CurveWarp) InverseRemapTimeWithinRange(value frametime.Time, within frametime.Range, visit func(frametime.Time) bool) bool {
	return c.Curve.InverseEvaluateBetween(value.Float(), within, visit)
}

func (c *CurveWarp) ComputeTraversedHull(r frametime.Range) frametime.Range {
	e, ok := c.Curve.ComputeExtents(r)
	if !ok {
		return frametime.Empty()
	}
	return hullOf(e)
}

// ScaleBy stretches a copy of the channel's key times around zero and
// rescales its tangents to match.
func (c *CurveWarp) ScaleBy(factor float64) {
	if !diag.Assertf(factor > 0, "invalid scale factor %g", factor) {
		return
	}
	c.Curve = c.Curve.Clone()
	c.Curve.ScaleTimes(frametime.Time{}, factor)
}

// Chain applies a sequence of warps, first to last.
//
// A chain doesn't own references held by its warps.
type Chain []TimeWarp

// Compose stores a chain of the warps in the arena and returns a warp
// referring to it.
func Compose(arena *Arena, warps ...TimeWarp) TimeWarp {
	return NewCustom(arena, Chain(slices.Clone(warps)))
}

func (c Chain) RemapTime(t frametime.Time) frametime.Time {
	for _, w := range c {
		t = w.RemapTime(t)
	}
	return t
}

// InverseRemapTimeCycled inverts the warps last to first. Each step searches
// near the hint mapped through the warps before it. The solution's cycle
// count is the sum over all steps.
func (c Chain) InverseRemapTimeCycled(value, hint frametime.Time, flags timecurve.InverseFlags) (timecurve.Solution, bool) {
	hints := make([]frametime.Time, len(c))
	h := hint
	for i, w := range c {
		hints[i] = h
		h = w.RemapTime(h)
	}
	out := timecurve.Solution{Time: value}
	for i := len(c) - 1; i >= 0; i-- {
		s, ok := c[i].InverseRemapTimeCycled(out.Time, hints[i], flags)
		if !ok {
			return timecurve.Solution{}, false
		}
		out = timecurve.Solution{Time: s.Time, Cycle: out.Cycle + s.Cycle}
	}
	return out, true
}

func (c Chain) InverseRemapTimeWithinRange(value frametime.Time, within frametime.Range, visit func(frametime.Time) bool) bool {
	if len(c) == 0 {
		if within.Contains(value) {
			return visit(value)
		}
		return true
	}
	var found []frametime.Time
	c.collect(value, within, &found)
	slices.SortFunc(found, frametime.Time.Compare)
	found = slices.Compact(found)
	for _, t := range found {
		if !visit(t) {
			return false
		}
	}
	return true
}

// collect appends the times within the range that the chain maps to value.
func (c Chain) collect(value frametime.Time, within frametime.Range, out *[]frametime.Time) {
	n := len(c)
	if n == 1 {
		c[0].InverseRemapTimeWithinRange(value, within, func(t frametime.Time) bool {
			*out = append(*out, t)
			return true
		})
		return
	}
	// Intermediate values are restricted to where the earlier warps can go.
	head := c[:n-1]
	reach := head.ComputeTraversedHull(within)
	c[n-1].InverseRemapTimeWithinRange(value, reach, func(mid frametime.Time) bool {
		head.collect(mid, within, out)
		return true
	})
}

func (c Chain) ComputeTraversedHull(r frametime.Range) frametime.Range {
	for _, w := range c {
		r = w.ComputeTraversedHull(r)
	}
	return r
}

// ScaleBy scales the first warp, whose input domain is the chain's.
func (c Chain) ScaleBy(factor float64) {
	if len(c) > 0 {
		c[0].ScaleBy(factor)
	}
}
