package channel

import "math"

// AutoSetTangents recomputes the tangents of keys in TangentAuto and
// TangentSmartAuto mode. Keys in other modes are left alone.
//
// Auto tangents follow the Catmull-Rom slope through the neighboring keys,
// scaled by 1−tension. Smart auto tangents are flat at local extrema and next
// to flat stretches, and are otherwise limited so that the curve doesn't
// overshoot its neighbors. The first and last keys get flat tangents.
func (c *Channel) AutoSetTangents(tension float64) {
	n := len(c.keys)
	for i := range c.keys {
		k := &c.keys[i]
		if k.TangentMode != TangentAuto && k.TangentMode != TangentSmartAuto {
			continue
		}
		slope := 0.0
		if i > 0 && i < n-1 {
			prev, next := c.keys[i-1], c.keys[i+1]
			if k.TangentMode == TangentAuto {
				slope = catmullRom(prev, next)
			} else {
				slope = smartSlope(prev, *k, next)
			}
			slope *= 1 - tension
		}
		k.Tangent.Arrive, k.Tangent.Leave = slope, slope
	}
	c.changed()
}

func catmullRom(prev, next Key) float64 {
	dt := float64(next.Time - prev.Time)
	if dt == 0 {
		return 0
	}
	return (next.Value - prev.Value) / dt
}

// smartSlope returns a Catmull-Rom slope limited to three times the secant
// slope on either side, so that the segments around the key stay monotonic.
func smartSlope(prev, k, next Key) float64 {
	d0 := k.Value - prev.Value
	d1 := next.Value - k.Value
	if d0 == 0 || d1 == 0 || (d0 > 0) != (d1 > 0) {
		return 0
	}
	dt0, dt1 := float64(k.Time-prev.Time), float64(next.Time-k.Time)
	if dt0 == 0 || dt1 == 0 {
		return 0
	}
	s0, s1 := d0/dt0, d1/dt1
	slope := catmullRom(prev, next)
	limit := 3 * math.Min(math.Abs(s0), math.Abs(s1))
	if math.Abs(slope) > limit {
		slope = math.Copysign(limit, slope)
	}
	return slope
}
