package channel

import (
	"math"
	"slices"

	"honnef.co/go/timecurve/frametime"
	"honnef.co/go/timecurve/internal/diag"
)

// retimeStep is the distance, in ticks, over which RemapTimes measures the
// local stretch of a retiming function.
const retimeStep = 1e-3

// RemapTimes moves every key to retimer(key time), rounded to the nearest
// tick. Tangents are rescaled by the local stretch of retimer, measured with
// a forward difference, so that the curve keeps its shape. Weighted handles
// keep their value extent and have their time extent stretched.
//
// retimer should be monotonically increasing. Keys where it is locally flat
// or decreasing keep their tangents.
func (c *Channel) RemapTimes(retimer func(frametime.Time) frametime.Time) {
	for i := range c.keys {
		k := &c.keys[i]
		t := k.at()
		mapped := retimer(t)
		stretch := retimer(t.AddFloat(retimeStep)).Sub(mapped).Float() / retimeStep
		k.Time = mapped.RoundToFrame()
		if !(stretch > 0) || math.IsInf(stretch, 0) {
			diag.Logger().Warn().Float64("stretch", stretch).Stringer("time", t).Msg("retimer is not increasing; keeping tangents")
			continue
		}
		k.Tangent = k.Tangent.stretch(stretch)
	}
	slices.SortStableFunc(c.keys, compareKeys)
	c.changed()
}

// stretch returns the tangent of a curve stretched along the time axis by s.
func (t Tangent) stretch(s float64) Tangent {
	if t.arriveWeighted() {
		hx, hy := handle(t.Arrive, t.ArriveWeight)
		t.ArriveWeight = math.Hypot(hx*s, hy)
	}
	if t.leaveWeighted() {
		hx, hy := handle(t.Leave, t.LeaveWeight)
		t.LeaveWeight = math.Hypot(hx*s, hy)
	}
	t.Arrive /= s
	t.Leave /= s
	return t
}

// scale returns the tangent of a curve scaled along the value axis by f.
func (t Tangent) scale(f float64) Tangent {
	if t.arriveWeighted() {
		hx, hy := handle(t.Arrive, t.ArriveWeight)
		t.ArriveWeight = math.Hypot(hx, hy*f)
	}
	if t.leaveWeighted() {
		hx, hy := handle(t.Leave, t.LeaveWeight)
		t.LeaveWeight = math.Hypot(hx, hy*f)
	}
	t.Arrive *= f
	t.Leave *= f
	return t
}

// ScaleValues multiplies every key's value, and the default value, by f.
func (c *Channel) ScaleValues(f float64) {
	for i := range c.keys {
		c.keys[i].Value *= f
		c.keys[i].Tangent = c.keys[i].Tangent.scale(f)
	}
	c.def *= f
	c.changed()
}

// ScaleTimes dilates the channel's key times by factor around origin.
func (c *Channel) ScaleTimes(origin frametime.Time, factor float64) {
	c.RemapTimes(func(t frametime.Time) frametime.Time {
		return origin.Add(t.Sub(origin).Scale(factor))
	})
}
