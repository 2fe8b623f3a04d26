package timecurve

import (
	"math"
	"slices"

	"honnef.co/go/timecurve/frametime"
)

// CubicBezier is a cubic Bézier in the value dimension, parameterized
// linearly in time by u = (t−Origin)/DX.
//
// The curve is authoritative for u in [0, 1]. Evaluating outside of that
// domain extrapolates the underlying polynomial, and Solve only reports roots
// inside of it.
type CubicBezier struct {
	P0, P1, P2, P3 float64
	Origin         frametime.Time
	DX             float64
}

func (c CubicBezier) dx() float64 {
	if c.DX == 0 {
		return 1
	}
	return c.DX
}

func (c CubicBezier) Start() frametime.Time { return c.Origin }

func (c CubicBezier) Evaluate(t frametime.Time) float64 {
	return bezierAt(c.P0, c.P1, c.P2, c.P3, rel(t, c.Origin)/c.dx())
}

// AsCubic returns the same curve in power basis.
func (c CubicBezier) AsCubic() Cubic {
	p0, p1, p2, p3 := cubicBezCoefficients(c.P0, c.P1, c.P2, c.P3)
	return Cubic{
		A:        p3,
		B:        p2,
		C:        p1,
		Constant: p0,
		Origin:   c.Origin,
		DX:       c.dx(),
	}
}

func (c CubicBezier) Solve(v float64) ([MaxRoots]frametime.Time, int) {
	us, n := solveBezier(c.P0-v, c.P1-v, c.P2-v, c.P3-v)
	return toTimes(c.Origin, c.dx(), us[:n])
}

func (c CubicBezier) Derivative() (Interpolation, bool) {
	return c.AsCubic().Derivative()
}

func (c CubicBezier) Integral(constant float64) (Interpolation, bool) {
	return c.AsCubic().Integral(constant)
}

func (c CubicBezier) Offset(amount float64) Interpolation {
	c.P0 += amount
	c.P1 += amount
	c.P2 += amount
	c.P3 += amount
	return c
}

func (c CubicBezier) Extrema() ([MaxExtrema]frametime.Time, int) {
	us, n := bezierExtrema(c.P0, c.P1, c.P2, c.P3)
	return toExtrema(c.Origin, c.dx(), us[:n])
}

func bezierAt(p0, p1, p2, p3, u float64) float64 {
	mt := 1 - u
	return mt*mt*mt*p0 + 3*mt*mt*u*p1 + 3*mt*u*u*p2 + u*u*u*p3
}

func bezierDeriv(p0, p1, p2, p3, u float64) float64 {
	mt := 1 - u
	return 3 * (mt*mt*(p1-p0) + 2*mt*u*(p2-p1) + u*u*(p3-p2))
}

// polishRoot refines a root of the Bézier with Newton-Raphson iteration.
//
// The closed-form cubic solver loses precision when the cubic is nearly of a
// lower degree, which is common for Béziers with evenly spaced control
// values.
func polishRoot(p0, p1, p2, p3, u float64) float64 {
	f := bezierAt(p0, p1, p2, p3, u)
	for range 4 {
		if f == 0 {
			break
		}
		d := bezierDeriv(p0, p1, p2, p3, u)
		if d == 0 {
			break
		}
		newU := u - f/d
		newF := bezierAt(p0, p1, p2, p3, newU)
		if math.Abs(newF) >= math.Abs(f) {
			break
		}
		u, f = newU, newF
	}
	return u
}

// Return polynomial coefficients given cubic bezier coordinates.
func cubicBezCoefficients(x0, x1, x2, x3 float64) (_, _, _, _ float64) {
	p0 := x0
	p1 := 3.0*x1 - 3.0*x0
	p2 := 3.0*x2 - 6.0*x1 + 3.0*x0
	p3 := x3 - 3.0*x2 + 3.0*x1 - x0
	return p0, p1, p2, p3
}

// clampParam clamps a Bézier parameter to [0, 1]. Parameters further than
// [WeightedParamTolerance] outside of that range are rejected.
func clampParam(u float64) (float64, bool) {
	switch {
	case u < -WeightedParamTolerance || u > 1+WeightedParamTolerance:
		return 0, false
	case u < 0:
		return 0, true
	case u > 1:
		return 1, true
	default:
		return u, true
	}
}

// solveBezier returns the parameters in [0, 1] at which the Bézier with the
// given control values crosses zero, in ascending order.
func solveBezier(p0, p1, p2, p3 float64) ([3]float64, int) {
	c0, c1, c2, c3 := cubicBezCoefficients(p0, p1, p2, p3)
	roots, n := SolveCubic(c0, c1, c2, c3)
	var out [3]float64
	var outN int
	for _, u := range roots[:n] {
		if u < -0.5 || u > 1.5 {
			continue
		}
		if u, ok := clampParam(polishRoot(p0, p1, p2, p3, u)); ok {
			out[outN] = u
			outN++
		}
	}
	slices.Sort(out[:outN])
	return out, outN
}

// bezierExtrema returns the parameters in (0, 1) at which the derivative of
// the Bézier vanishes.
func bezierExtrema(p0, p1, p2, p3 float64) ([2]float64, int) {
	d0 := p1 - p0
	d1 := p2 - p1
	d2 := p3 - p2
	a := d0 - 2*d1 + d2
	b := 2 * (d1 - d0)
	c := d0
	roots, n := SolveQuadratic(c, b, a)
	var out [2]float64
	var outN int
	for _, u := range roots[:n] {
		if u > 0.0 && u < 1.0 {
			out[outN] = u
			outN++
		}
	}
	return out, outN
}
