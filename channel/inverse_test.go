package channel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honnef.co/go/timecurve"
	"honnef.co/go/timecurve/frametime"
)

func TestInverseEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		mode  Extrapolation
		v     float64
		hint  float64
		flags timecurve.InverseFlags
		want  timecurve.Solution
		ok    bool
	}{
		{"cycle forwards", ExtrapCycle, 5, 22, timecurve.Forwards, timecurve.Solution{Time: at(25)}, true},
		{"cycle backwards", ExtrapCycle, 5, 22, timecurve.Backwards, timecurve.Solution{Time: at(15), Cycle: -1}, true},
		{"cycle nearest", ExtrapCycle, 5, 22, 0, timecurve.Solution{Time: at(25)}, true},
		{"cycle before keys", ExtrapCycle, 2, -15, timecurve.Forwards, timecurve.Solution{Time: at(-8), Cycle: 1}, true},
		{"offset", ExtrapCycleWithOffset, 47, 0, 0, timecurve.Solution{Time: at(47), Cycle: 4}, true},
		{"offset backwards", ExtrapCycleWithOffset, -33, 0, 0, timecurve.Solution{Time: at(-33), Cycle: -4}, true},
		{"oscillate", ExtrapOscillate, 2, 12, timecurve.Forwards, timecurve.Solution{Time: at(18)}, true},
		{"equal", ExtrapCycle, 5, 25, timecurve.Equal, timecurve.Solution{Time: at(25)}, true},
		{"out of range", ExtrapCycle, 11, 0, 0, timecurve.Solution{}, false},
		{"not linear", ExtrapLinear, 15, 0, 0, timecurve.Solution{Time: at(15)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ramp(tt.mode, tt.mode)
			got, ok := c.InverseEvaluate(tt.v, at(tt.hint), tt.flags)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.want.Cycle, got.Cycle)
			assert.InDelta(t, tt.want.Time.Float(), got.Time.Float(), 1e-9)
		})
	}
}

func TestInverseEvaluateConsistent(t *testing.T) {
	c := New(
		Key{Time: 0, Value: 0, Interp: InterpCubic, Tangent: Tangent{Leave: 0.5}},
		Key{Time: 8, Value: 3, Interp: InterpCubic, Tangent: Tangent{Arrive: 0.1, Leave: 0.1}},
		Key{Time: 20, Value: 6, Interp: InterpLinear},
		Key{Time: 24, Value: 7},
	)
	c.SetExtrapolation(ExtrapCycleWithOffset, ExtrapOscillate)
	for x := -60.0; x < 100; x += 3.5 {
		v := eval(t, c, x)
		s, ok := c.InverseEvaluate(v, at(x-1.75), timecurve.Forwards)
		require.True(t, ok, "no solution for %g after %g", v, x-1.75)
		assert.LessOrEqual(t, s.Time.Float(), x+1e-9)
		assert.InDelta(t, v, eval(t, c, s.Time.Float()), 1e-9)
	}
}

func TestInverseEvaluateBetween(t *testing.T) {
	collect := func(c *Channel, v float64, r frametime.Range) []float64 {
		var out []float64
		c.InverseEvaluateBetween(v, r, func(t frametime.Time) bool {
			out = append(out, t.Float())
			return true
		})
		return out
	}

	c := ramp(ExtrapCycle, ExtrapCycle)
	assert.InDeltaSlice(t, []float64{-15, -5, 5, 15, 25, 35}, collect(c, 5, frametime.InclusiveRange(at(-20), at(40))), 1e-9)

	c = ramp(ExtrapOscillate, ExtrapOscillate)
	assert.InDeltaSlice(t, []float64{2, 18, 22}, collect(c, 2, frametime.InclusiveRange(at(0), at(30))), 1e-9)

	c = ramp(ExtrapCycleWithOffset, ExtrapConstant)
	assert.InDeltaSlice(t, []float64{-7}, collect(c, -7, frametime.Infinite()), 1e-9)

	var n int
	ramp(ExtrapCycle, ExtrapCycle).InverseEvaluateBetween(5, frametime.Infinite(), func(frametime.Time) bool {
		n++
		return n < 3
	})
	assert.Equal(t, 3, n)
}

func TestInverseEvaluateTinyOffset(t *testing.T) {
	// The value is billions of repetitions away, past the cycle limit.
	c := New(
		Key{Time: 0, Value: 0, Interp: InterpLinear},
		Key{Time: 10, Value: 1e-300, Interp: InterpLinear},
	)
	c.SetExtrapolation(ExtrapCycleWithOffset, ExtrapCycleWithOffset)
	_, ok := c.InverseEvaluate(5, at(0), 0)
	assert.False(t, ok)
	var n int
	assert.True(t, c.InverseEvaluateBetween(5, frametime.Infinite(), func(frametime.Time) bool {
		n++
		return true
	}))
	assert.Zero(t, n)

	// Within the limit the search jumps straight to the right repetition.
	c = New(
		Key{Time: 0, Value: 0, Interp: InterpLinear},
		Key{Time: 10, Value: 1e-6, Interp: InterpLinear},
	)
	c.SetExtrapolation(ExtrapCycleWithOffset, ExtrapCycleWithOffset)
	s, ok := c.InverseEvaluate(1.0000005, at(0), timecurve.Forwards)
	require.True(t, ok)
	assert.InDelta(t, 1e7+5, s.Time.Float(), 1e-3)
}

func TestComputeExtents(t *testing.T) {
	c := ramp(ExtrapCycle, ExtrapCycle)
	a, ok := c.ComputeExtents(frametime.Between(at(23), at(27)))
	require.True(t, ok)
	b, ok := c.ComputeExtents(frametime.Between(at(3), at(7)))
	require.True(t, ok)
	assert.InDelta(t, b.Min, a.Min, 1e-12)
	assert.InDelta(t, b.Max, a.Max, 1e-12)
	assert.InDelta(t, 3, a.Min, 1e-12)
	assert.InDelta(t, 7, a.Max, 1e-12)
	assert.InDelta(t, 23, a.MinTime.Float(), 1e-12)

	c = ramp(ExtrapCycleWithOffset, ExtrapCycleWithOffset)
	e, ok := c.ComputeExtents(frametime.InclusiveRange(at(-10), at(30)))
	require.True(t, ok)
	assert.InDelta(t, -10, e.Min, 1e-12)
	assert.InDelta(t, 30, e.Max, 1e-12)
	assert.InDelta(t, 30, e.MaxTime.Float(), 1e-12)

	e, ok = c.ComputeExtents(frametime.InclusiveRange(at(-45), at(95)))
	require.True(t, ok)
	assert.InDelta(t, -45, e.Min, 1e-12)
	assert.InDelta(t, 95, e.Max, 1e-12)

	e, ok = c.ComputeExtents(frametime.AtLeast(at(0)))
	require.True(t, ok)
	assert.Equal(t, 0.0, e.Min)
	assert.True(t, math.IsInf(e.Max, 1))

	c = ramp(ExtrapOscillate, ExtrapNone)
	e, ok = c.ComputeExtents(frametime.Infinite())
	require.True(t, ok)
	assert.Equal(t, 0.0, e.Min)
	assert.Equal(t, 10.0, e.Max)

	c = ramp(ExtrapNone, ExtrapNone)
	_, ok = c.ComputeExtents(frametime.LessThan(at(-1)))
	assert.False(t, ok)
}
