package timewarp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honnef.co/go/timecurve"
	"honnef.co/go/timecurve/channel"
	"honnef.co/go/timecurve/frametime"
	"honnef.co/go/timecurve/internal/diag"
	"honnef.co/go/timecurve/variant"
)

func at(x float64) frametime.Time { return frametime.FromFloat(x) }

// cyclingRamp returns a channel rising from 0 to 10 over [0, 10], repeating
// in both directions.
func cyclingRamp() *channel.Channel {
	c := channel.New(
		channel.Key{Time: 0, Value: 0, Interp: channel.InterpLinear},
		channel.Key{Time: 10, Value: 10, Interp: channel.InterpLinear},
	)
	c.SetExtrapolation(channel.ExtrapCycle, channel.ExtrapCycle)
	return c
}

func mustRateConversion(t *testing.T, from, to frametime.Rate) TimeWarp {
	t.Helper()
	w, err := RateConversion(from, to)
	require.NoError(t, err)
	return w
}

func TestRemapTime(t *testing.T) {
	tests := []struct {
		warp TimeWarp
		in   float64
		want float64
	}{
		{Identity(), 123.5, 123.5},
		{PlayRate(2), 5, 10},
		{PlayRate(-0.5), 5, -2.5},
		{FixedTime(frametime.New(7, 0.25)), 1000, 7.25},
		{FixedTime(frametime.At(-3)), 1, -3},
		{mustRateConversion(t, frametime.NewRate(24, 1), frametime.NewRate(60, 1)), 10, 25},
		{mustRateConversion(t, frametime.NewRate(30000, 1001), frametime.NewRate(24000, 1001)), 10, 8},
		{Loop(10), 23, 3},
		{Loop(10), -1, 9},
		{Clamp(10), -5, 0},
		{Clamp(10), 15, 10},
		{Clamp(10), 4.5, 4.5},
	}
	for _, tt := range tests {
		got := tt.warp.RemapTime(at(tt.in))
		assert.InDelta(t, tt.want, got.Float(), 1e-12, "%v at %g", tt.warp, tt.in)
	}
}

func TestKinds(t *testing.T) {
	assert.Equal(t, KindPlayRate, TimeWarp{}.Kind())
	assert.Equal(t, KindFixedTime, FixedTime(frametime.At(1)).Kind())
	assert.Equal(t, KindLoop, Loop(3).Kind())
	assert.Equal(t, KindClamp, Clamp(3).Kind())
	assert.Equal(t, "loop(3)", Loop(3).String())
	assert.Equal(t, "rate-conversion(5/2)", mustRateConversion(t, frametime.NewRate(24, 1), frametime.NewRate(60, 1)).String())
	assert.Equal(t, "play-rate(1)", Identity().String())
}

func TestRateConversionErrors(t *testing.T) {
	_, err := RateConversion(frametime.NewRate(1, 1), frametime.NewRate(1<<24, 1))
	assert.ErrorIs(t, err, ErrPayloadOverflow)
	_, err = RateConversion(frametime.NewRate(0, 1), frametime.NewRate(24, 1))
	assert.ErrorIs(t, err, ErrInvalidRate)
}

func TestInverseRemapTimeCycled(t *testing.T) {
	tests := []struct {
		name  string
		warp  TimeWarp
		value float64
		hint  float64
		flags timecurve.InverseFlags
		want  timecurve.Solution
		ok    bool
	}{
		{"rate", PlayRate(2), 10, 0, 0, timecurve.Solution{Time: at(5)}, true},
		{"rate behind", PlayRate(2), 10, 8, timecurve.Forwards, timecurve.Solution{}, false},
		{"conversion", mustRateConversion(t, frametime.NewRate(24, 1), frametime.NewRate(60, 1)), 25, 0, 0, timecurve.Solution{Time: at(10)}, true},
		{"loop forwards", Loop(10), 3, 25, timecurve.Forwards, timecurve.Solution{Time: at(33), Cycle: 1}, true},
		{"loop backwards", Loop(10), 3, 25, timecurve.Backwards, timecurve.Solution{Time: at(23)}, true},
		{"loop outside window", Loop(10), 12, 25, 0, timecurve.Solution{}, false},
		{"clamp", Clamp(10), 4, 0, 0, timecurve.Solution{Time: at(4)}, true},
		{"fixed", FixedTime(at(7.25)), 7.25, 3, timecurve.Equal, timecurve.Solution{Time: at(3)}, true},
		{"fixed mismatch", FixedTime(at(7.25)), 7, 3, 0, timecurve.Solution{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.warp.InverseRemapTimeCycled(at(tt.value), at(tt.hint), tt.flags)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.want.Cycle, got.Cycle)
			assert.InDelta(t, tt.want.Time.Float(), got.Time.Float(), 1e-9)
		})
	}
}

func roots(w TimeWarp, value float64, within frametime.Range) []float64 {
	var out []float64
	w.InverseRemapTimeWithinRange(at(value), within, func(t frametime.Time) bool {
		out = append(out, t.Float())
		return true
	})
	return out
}

func TestInverseRemapTimeWithinRange(t *testing.T) {
	assert.Equal(t, []float64{3, 13, 23, 33}, roots(Loop(10), 3, frametime.Between(at(0), at(35))))
	assert.Equal(t, []float64{13, 23}, roots(Loop(10), 3, frametime.Range{
		Lower: frametime.ExclusiveBound(at(3)),
		Upper: frametime.ExclusiveBound(at(33)),
	}))
	assert.Empty(t, roots(Loop(10), 12, frametime.Infinite()))
	assert.Len(t, roots(Loop(10), 0, frametime.Infinite()), channel.MaxCycleIterations)
	assert.InDeltaSlice(t, []float64{4}, roots(PlayRate(0.5), 2, frametime.Infinite()), 1e-12)
	assert.InDeltaSlice(t, []float64{7}, roots(Clamp(10), 7, frametime.Infinite()), 1e-12)

	var n int
	Loop(10).InverseRemapTimeWithinRange(at(1), frametime.AtLeast(at(0)), func(frametime.Time) bool {
		n++
		return n < 2
	})
	assert.Equal(t, 2, n)
}

func TestComputeTraversedHull(t *testing.T) {
	loop := Loop(10)
	assert.Equal(t, loop.ComputeTraversedHull(frametime.Between(at(3), at(7))), loop.ComputeTraversedHull(frametime.Between(at(23), at(27))))
	assert.Equal(t, frametime.Between(at(3), at(7)), loop.ComputeTraversedHull(frametime.Between(at(23), at(27))))
	assert.Equal(t, frametime.Between(at(5), at(10)), loop.ComputeTraversedHull(frametime.Between(at(15), at(20))))
	assert.Equal(t, frametime.Between(at(0), at(10)), loop.ComputeTraversedHull(frametime.Between(at(5), at(15))))
	assert.Equal(t, frametime.Between(at(0), at(10)), loop.ComputeTraversedHull(frametime.AtLeast(at(5))))

	assert.Equal(t,
		frametime.Range{Lower: frametime.ExclusiveBound(at(-6)), Upper: frametime.InclusiveBound(at(-2))},
		PlayRate(-2).ComputeTraversedHull(frametime.Between(at(1), at(3))))
	assert.Equal(t, frametime.InclusiveRange(at(0), at(0)), PlayRate(0).ComputeTraversedHull(frametime.Infinite()))
	assert.Equal(t, frametime.Between(at(0), at(3)), Clamp(10).ComputeTraversedHull(frametime.Between(at(-5), at(3))))
	assert.Equal(t, frametime.InclusiveRange(at(0), at(10)), Clamp(10).ComputeTraversedHull(frametime.Infinite()))
	assert.Equal(t, frametime.InclusiveRange(at(10), at(10)), Clamp(10).ComputeTraversedHull(frametime.InclusiveRange(at(12), at(15))))
	fixed := frametime.New(2, 0.5)
	assert.Equal(t, frametime.InclusiveRange(fixed, fixed), FixedTime(fixed).ComputeTraversedHull(frametime.Infinite()))
	assert.True(t, Identity().ComputeTraversedHull(frametime.Empty()).IsEmpty())
}

func TestCurveWarpCycleHull(t *testing.T) {
	arena := NewArena()
	w := NewCustom(arena, NewCurveWarp(cyclingRamp()))
	defer w.Release()

	a := w.ComputeTraversedHull(frametime.Between(at(23), at(27)))
	b := w.ComputeTraversedHull(frametime.Between(at(3), at(7)))
	assert.Equal(t, b, a)
	assert.Equal(t, frametime.InclusiveRange(at(3), at(7)), a)
}

func TestCurveWarp(t *testing.T) {
	arena := NewArena()
	w := NewCustom(arena, NewCurveWarp(cyclingRamp()))
	defer w.Release()

	assert.Equal(t, KindCustom, w.Kind())
	assert.InDelta(t, 5, w.RemapTime(at(25)).Float(), 1e-12)

	s, ok := w.InverseRemapTimeCycled(at(5), at(22), timecurve.Forwards)
	require.True(t, ok)
	assert.InDelta(t, 25, s.Time.Float(), 1e-9)

	var got []float64
	w.InverseRemapTimeWithinRange(at(5), frametime.InclusiveRange(at(0), at(20)), func(t frametime.Time) bool {
		got = append(got, t.Float())
		return true
	})
	assert.InDeltaSlice(t, []float64{5, 15}, got, 1e-9)

	c, _ := w.Remapper()
	curve := c.(*CurveWarp).Curve
	w.ScaleBy(2)
	assert.InDelta(t, 5, w.RemapTime(at(10)).Float(), 1e-12)
	assert.InDelta(t, 5, w.RemapTime(at(50)).Float(), 1e-12)
	v, ok := curve.Evaluate(at(5))
	require.True(t, ok)
	assert.InDelta(t, 5, v, 1e-12)
}

func TestCustomLifetime(t *testing.T) {
	arena := NewArena()
	w := NewCustom(arena, NewCurveWarp(cyclingRamp()))
	weak := w.Weak()
	clone := w.Clone()
	require.Equal(t, 1, arena.Len())

	w.Release()
	assert.InDelta(t, 5, weak.RemapTime(at(25)).Float(), 1e-12)
	clone.Release()
	assert.Equal(t, 0, arena.Len())

	_, ok := weak.Remapper()
	assert.False(t, ok)
	if diag.Checked {
		assert.Panics(t, func() { weak.RemapTime(at(25)) })
		return
	}
	assert.Equal(t, at(25), weak.RemapTime(at(25)))
	_, ok = weak.InverseRemapTimeCycled(at(5), at(0), 0)
	assert.False(t, ok)
	assert.Equal(t, frametime.Between(at(1), at(2)), weak.ComputeTraversedHull(frametime.Between(at(1), at(2))))
}

func TestPlayRateCurve(t *testing.T) {
	rate := channel.New(
		channel.Key{Time: 0, Value: 1, Interp: channel.InterpLinear},
		channel.Key{Time: 10, Value: 3, Interp: channel.InterpLinear},
	)
	prc := NewPlayRateCurve(rate, frametime.Time{})
	arena := NewArena()
	w := NewCustom(arena, prc)
	defer w.Release()

	assert.InDelta(t, 0, w.RemapTime(at(0)).Float(), 1e-12)
	assert.InDelta(t, 20, w.RemapTime(at(10)).Float(), 1e-9)
	assert.InDelta(t, 26, w.RemapTime(at(12)).Float(), 1e-9)
	assert.InDelta(t, -2, w.RemapTime(at(-2)).Float(), 1e-9)

	s, ok := w.InverseRemapTimeCycled(at(26), at(0), timecurve.Forwards)
	require.True(t, ok)
	assert.InDelta(t, 12, s.Time.Float(), 1e-9)

	hull := w.ComputeTraversedHull(frametime.InclusiveRange(at(0), at(12)))
	assert.InDelta(t, 0, hull.Lower.Time.Float(), 1e-9)
	assert.InDelta(t, 26, hull.Upper.Time.Float(), 1e-9)

	prc.Start = at(10)
	assert.InDelta(t, 6, w.RemapTime(at(12)).Float(), 1e-9)
	prc.Start = frametime.Time{}

	rate.SetKeyValue(1, 5)
	assert.InDelta(t, 30, w.RemapTime(at(10)).Float(), 1e-9)
	rate.SetKeyValue(1, 3)

	w.ScaleBy(2)
	assert.InDelta(t, 20, w.RemapTime(at(20)).Float(), 1e-9)
	assert.Equal(t, frametime.Frame(10), rate.Key(1).Time)
	assert.Equal(t, 3.0, rate.Key(1).Value)

	// Edits to the caller's channel no longer reach the scaled copy.
	rate.SetKeyValue(0, 0)
	assert.InDelta(t, 20, w.RemapTime(at(20)).Float(), 1e-9)
	prc.Rate.SetKeyValue(0, 0)
	assert.InDelta(t, 15, w.RemapTime(at(20)).Float(), 1e-9)
}

func TestPlayRateCurveDefaults(t *testing.T) {
	var rate channel.Channel
	prc := NewPlayRateCurve(&rate, at(5))
	assert.InDelta(t, 3, prc.RemapTime(at(8)).Float(), 1e-12)

	rate.SetDefault(2)
	assert.InDelta(t, 6, prc.RemapTime(at(8)).Float(), 1e-12)

	rate.AddKey(channel.Key{Time: 0, Value: 4, Tangent: channel.Tangent{LeaveWeight: 1, WeightMode: channel.WeightLeave}})
	rate.AddKey(channel.Key{Time: 10, Value: 4})
	rate.SetExtrapolation(channel.ExtrapCycle, channel.ExtrapNone)
	assert.InDelta(t, 12, prc.RemapTime(at(8)).Float(), 1e-12)
	assert.InDelta(t, 40, prc.RemapTime(at(15)).Float(), 1e-12)
}

func TestChain(t *testing.T) {
	arena := NewArena()
	w := Compose(arena, PlayRate(2), Loop(10))
	defer w.Release()

	assert.InDelta(t, 4, w.RemapTime(at(7)).Float(), 1e-12)

	var got []float64
	w.InverseRemapTimeWithinRange(at(4), frametime.Between(at(0), at(20)), func(t frametime.Time) bool {
		got = append(got, t.Float())
		return true
	})
	assert.InDeltaSlice(t, []float64{2, 7, 12, 17}, got, 1e-9)

	s, ok := w.InverseRemapTimeCycled(at(4), at(7), timecurve.Forwards)
	require.True(t, ok)
	assert.InDelta(t, 12, s.Time.Float(), 1e-9)
	assert.Equal(t, 1, s.Cycle)

	assert.Equal(t, frametime.Between(at(0), at(6)), w.ComputeTraversedHull(frametime.Between(at(0), at(3))))

	w.ScaleBy(2)
	assert.InDelta(t, 7, w.RemapTime(at(7)).Float(), 1e-12)
}

func TestScaleBy(t *testing.T) {
	w := PlayRate(3)
	w.ScaleBy(1.5)
	r, ok := w.Rate()
	require.True(t, ok)
	assert.Equal(t, 2.0, r)

	l := Loop(10)
	l.ScaleBy(2)
	assert.Equal(t, Loop(10), l)
}

func TestCBOR(t *testing.T) {
	warps := []TimeWarp{
		PlayRate(1.5),
		FixedTime(frametime.New(-40, 0.5)),
		mustRateConversion(t, frametime.NewRate(24, 1), frametime.NewRate(60, 1)),
		Loop(96),
		Clamp(48),
	}
	for _, w := range warps {
		b, err := w.MarshalCBOR()
		require.NoError(t, err)
		var got TimeWarp
		require.NoError(t, got.UnmarshalCBOR(b))
		assert.Equal(t, w.Variant().Bits(), got.Variant().Bits(), "%v", w)
		assert.Equal(t, w.RemapTime(at(100)), got.RemapTime(at(100)))
	}

	arena := NewArena()
	w := NewCustom(arena, NewCurveWarp(cyclingRamp()))
	defer w.Release()
	b, err := w.MarshalCBOR()
	require.NoError(t, err)
	var got TimeWarp
	require.NoError(t, got.UnmarshalCBOR(b))
	_, ok := got.Remapper()
	assert.False(t, ok)
	got = got.WithArena(arena)
	assert.InDelta(t, 5, got.RemapTime(at(25)).Float(), 1e-12)

	_, err = FromVariant(variant.Tagged(6, 0), nil)
	assert.ErrorIs(t, err, ErrInvalidKind)
	b, err = variant.Tagged(7, 1).MarshalCBOR()
	require.NoError(t, err)
	assert.ErrorIs(t, got.UnmarshalCBOR(b), ErrInvalidKind)
}
