package channel

import (
	"honnef.co/go/timecurve"
	"honnef.co/go/timecurve/frametime"
	"honnef.co/go/timecurve/internal/diag"
)

// segment returns the piece spanning keys i and i+1. The keys must have
// distinct times.
func (c *Channel) segment(i int) timecurve.Piece {
	k0, k1 := c.keys[i], c.keys[i+1]
	t0, t1 := k0.at(), k1.at()
	r := frametime.Between(t0, t1)
	dt := float64(k1.Time - k0.Time)

	switch k0.Interp {
	case InterpConstant:
		return timecurve.Piece{Range: r, Interp: timecurve.Constant{Value: k0.Value, Origin: t0}}
	case InterpLinear:
		return timecurve.Piece{Range: r, Interp: timecurve.Linear{
			Coefficient: (k1.Value - k0.Value) / dt,
			Constant:    k0.Value,
			Origin:      t0,
		}}
	}

	leave, arrive := k0.Tangent.Leave, k1.Tangent.Arrive
	if !k0.Tangent.leaveWeighted() && !k1.Tangent.arriveWeighted() {
		return timecurve.Piece{Range: r, Interp: timecurve.CubicBezier{
			P0:     k0.Value,
			P1:     k0.Value + leave*dt/3,
			P2:     k1.Value - arrive*dt/3,
			P3:     k1.Value,
			Origin: t0,
			DX:     dt,
		}}
	}

	hx0, hy0 := dt/3, leave*dt/3
	if k0.Tangent.leaveWeighted() {
		hx0, hy0 = handle(leave, k0.Tangent.LeaveWeight)
	}
	hx1, hy1 := dt/3, arrive*dt/3
	if k1.Tangent.arriveWeighted() {
		hx1, hy1 = handle(arrive, k1.Tangent.ArriveWeight)
	}
	return timecurve.Piece{Range: r, Interp: timecurve.WeightedCubic{
		Origin: t0,
		DX:     dt,
		P0:     k0.Value,
		P1:     k0.Value + hy0,
		P2:     k1.Value - hy1,
		P3:     k1.Value,
		X1:     clamp01(hx0 / dt),
		X2:     clamp01(1 - hx1/dt),
	}}
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}

// preSlope returns the slope used for linear extrapolation before the first
// key.
func (c *Channel) preSlope() float64 {
	k0, k1 := c.keys[0], c.keys[1]
	switch k0.Interp {
	case InterpCubic:
		return k0.Tangent.Leave
	case InterpLinear:
		if k1.Time != k0.Time {
			return (k1.Value - k0.Value) / float64(k1.Time-k0.Time)
		}
	}
	return 0
}

// postSlope returns the slope used for linear extrapolation after the last
// key.
func (c *Channel) postSlope() float64 {
	n := len(c.keys)
	k0, k1 := c.keys[n-2], c.keys[n-1]
	switch k0.Interp {
	case InterpCubic:
		return k1.Tangent.Arrive
	case InterpLinear:
		if k1.Time != k0.Time {
			return (k1.Value - k0.Value) / float64(k1.Time-k0.Time)
		}
	}
	return 0
}

// extrapolationInterp returns the shape continuing the channel from key k
// with the given mode, or false if the mode doesn't produce a plain piece.
func extrapolationInterp(mode Extrapolation, k Key, slope float64) (timecurve.Interpolation, bool) {
	switch mode {
	case ExtrapConstant:
		return timecurve.Constant{Value: k.Value, Origin: k.at()}, true
	case ExtrapLinear:
		return timecurve.Linear{Coefficient: slope, Constant: k.Value, Origin: k.at()}, true
	default:
		return nil, false
	}
}

// AsPiecewiseCurve returns the channel as a piecewise curve.
//
// The curve covers the keyed range, plus unbounded pieces for constant and
// linear extrapolation. Cycling extrapolation cannot be represented by a
// finite number of pieces and is left out; use the channel's own methods to
// query repetitions. A channel without keys produces a single unbounded
// constant piece if it has a default value, and an empty curve otherwise.
//
// The result is cached until the channel is modified and must not be
// modified by the caller.
func (c *Channel) AsPiecewiseCurve() timecurve.PiecewiseCurve {
	if cc := c.curve.Load(); cc != nil && cc.version == c.version {
		return cc.curve
	}
	curve := c.buildCurve()
	c.curve.Store(&cachedCurve{version: c.version, curve: curve})
	diag.Logger().Debug().
		Int("keys", len(c.keys)).
		Int("pieces", len(curve.Pieces)).
		Uint64("version", c.version).
		Msg("rebuilt channel curve")
	return curve
}

func (c *Channel) buildCurve() timecurve.PiecewiseCurve {
	var out timecurve.PiecewiseCurve
	switch len(c.keys) {
	case 0:
		if c.hasDefault {
			out.Add(timecurve.Piece{Range: frametime.Infinite(), Interp: timecurve.Constant{Value: c.def}})
		}
		return out
	case 1:
		k := c.keys[0]
		out.Add(timecurve.Piece{Range: frametime.Infinite(), Interp: timecurve.Constant{Value: k.Value, Origin: k.at()}})
		return out
	}

	first, last := c.keys[0], c.keys[len(c.keys)-1]
	if interp, ok := extrapolationInterp(c.preMode(), first, c.preSlope()); ok {
		out.Add(timecurve.Piece{Range: frametime.LessThan(first.at()), Interp: interp})
	}
	for i := 0; i < len(c.keys)-1; i++ {
		if c.keys[i].Time == c.keys[i+1].Time {
			continue
		}
		out.Add(c.segment(i))
	}
	if interp, ok := extrapolationInterp(c.postMode(), last, c.postSlope()); ok {
		out.Add(timecurve.Piece{Range: frametime.AtLeast(last.at()), Interp: interp})
	} else {
		out.Add(timecurve.Piece{
			Range:  frametime.InclusiveRange(last.at(), last.at()),
			Interp: timecurve.Constant{Value: last.Value, Origin: last.at()},
		})
	}
	return out
}

// hasDuration reports whether the keys span a non-empty range.
func (c *Channel) hasDuration() bool {
	return len(c.keys) >= 2 && c.keys[0].Time != c.keys[len(c.keys)-1].Time
}

// preMode and postMode return the effective extrapolation modes. Cycling
// needs a non-empty key range and degrades to constant extrapolation
// without one.
func (c *Channel) preMode() Extrapolation  { return c.effective(c.pre) }
func (c *Channel) postMode() Extrapolation { return c.effective(c.post) }

func (c *Channel) effective(m Extrapolation) Extrapolation {
	if m.cycles() && !c.hasDuration() {
		return ExtrapConstant
	}
	return m
}
