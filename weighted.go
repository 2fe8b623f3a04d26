package timecurve

import (
	"math"
	"slices"

	"honnef.co/go/timecurve/frametime"
	"honnef.co/go/timecurve/internal/diag"
)

// WeightedParamTolerance is how far outside of [0, 1] a Bézier parameter
// found by a root solver may lie and still be accepted. Accepted parameters
// are clamped to [0, 1].
const WeightedParamTolerance = 1e-6

// WeightedCubic is a two-dimensional cubic Bézier over (time, value), used
// for keys whose tangent handles have independent lengths.
//
// Time is normalized to x = (t−Origin)/DX. The curve starts at (0, P0) and
// ends at (1, P3); its inner control points are (X1, P1) and (X2, P2). X1 and
// X2 must lie in [0, 1], which keeps x monotonic in the curve parameter.
//
// Evaluating a weighted cubic requires solving for the curve parameter at a
// given time first. The shape supports neither derivatives nor integrals.
type WeightedCubic struct {
	Origin         frametime.Time
	DX             float64
	P0, P1, P2, P3 float64
	X1, X2         float64
}

func (w WeightedCubic) dx() float64 {
	if w.DX == 0 {
		return 1
	}
	return w.DX
}

func (w WeightedCubic) Start() frametime.Time { return w.Origin }

func (w WeightedCubic) Evaluate(t frametime.Time) float64 {
	u := w.param(rel(t, w.Origin) / w.dx())
	return bezierAt(w.P0, w.P1, w.P2, w.P3, u)
}

// param returns the curve parameter at normalized time x. Times outside of
// [0, 1] map to the nearest end.
func (w WeightedCubic) param(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	c0, c1, c2, c3 := cubicBezCoefficients(-x, w.X1-x, w.X2-x, 1-x)
	roots, n := SolveCubic(c0, c1, c2, c3)
	for _, u := range roots[:n] {
		if u < -0.5 || u > 1.5 {
			continue
		}
		u, ok := clampParam(polishRoot(-x, w.X1-x, w.X2-x, 1-x, u))
		if ok && math.Abs(w.timeAt(u)-x) <= 1e-12 {
			return u
		}
	}
	// Catastrophic cancellation in the closed form can lose the root
	// entirely. x(u) is monotonic, so bracket it instead.
	f := func(u float64) float64 { return bezierAt(0, w.X1, w.X2, 1, u) - x }
	return SolveITP(f, 0, 1, -x, 1-x, 1e-12)
}

// timeAt returns the normalized time at curve parameter u.
func (w WeightedCubic) timeAt(u float64) float64 {
	return bezierAt(0, w.X1, w.X2, 1, u)
}

func (w WeightedCubic) Solve(v float64) ([MaxRoots]frametime.Time, int) {
	us, n := solveBezier(w.P0-v, w.P1-v, w.P2-v, w.P3-v)
	var xs [3]float64
	for i, u := range us[:n] {
		xs[i] = w.timeAt(u)
	}
	slices.Sort(xs[:n])
	return toTimes(w.Origin, w.dx(), xs[:n])
}

func (w WeightedCubic) Derivative() (Interpolation, bool) {
	diag.Logger().Warn().Str("shape", "weighted cubic").Msg("derivative not supported")
	return nil, false
}

func (w WeightedCubic) Integral(float64) (Interpolation, bool) {
	diag.Logger().Warn().Str("shape", "weighted cubic").Msg("integral not supported")
	return nil, false
}

func (w WeightedCubic) Offset(amount float64) Interpolation {
	w.P0 += amount
	w.P1 += amount
	w.P2 += amount
	w.P3 += amount
	return w
}

func (w WeightedCubic) Extrema() ([MaxExtrema]frametime.Time, int) {
	us, n := bezierExtrema(w.P0, w.P1, w.P2, w.P3)
	var xs [2]float64
	for i, u := range us[:n] {
		xs[i] = w.timeAt(u)
	}
	return toExtrema(w.Origin, w.dx(), xs[:n])
}
