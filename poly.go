package timecurve

import (
	"slices"

	"honnef.co/go/timecurve/frametime"
	"honnef.co/go/timecurve/internal/diag"
)

// Constant is a piece that has the same value everywhere.
type Constant struct {
	Value  float64
	Origin frametime.Time
}

func (c Constant) Start() frametime.Time           { return c.Origin }
func (c Constant) Evaluate(frametime.Time) float64 { return c.Value }

// Solve returns the origin if v equals the constant's value. Every other
// time is a solution, too, but cannot be enumerated.
func (c Constant) Solve(v float64) ([MaxRoots]frametime.Time, int) {
	if v == c.Value {
		return [MaxRoots]frametime.Time{c.Origin}, 1
	}
	return [MaxRoots]frametime.Time{}, 0
}

func (c Constant) Derivative() (Interpolation, bool) {
	return Constant{Origin: c.Origin}, true
}

func (c Constant) Integral(constant float64) (Interpolation, bool) {
	return Linear{Coefficient: c.Value, Constant: constant, Origin: c.Origin}, true
}

func (c Constant) Offset(amount float64) Interpolation {
	c.Value += amount
	return c
}

func (c Constant) Extrema() ([MaxExtrema]frametime.Time, int) {
	return [MaxExtrema]frametime.Time{}, 0
}

// Linear is the piece f(t) = Coefficient·(t−Origin) + Constant.
type Linear struct {
	Coefficient float64
	Constant    float64
	Origin      frametime.Time
}

func (l Linear) Start() frametime.Time { return l.Origin }

func (l Linear) Evaluate(t frametime.Time) float64 {
	return l.Coefficient*rel(t, l.Origin) + l.Constant
}

func (l Linear) Solve(v float64) ([MaxRoots]frametime.Time, int) {
	x, ok := SolveLinear(l.Constant-v, l.Coefficient)
	if !ok {
		return [MaxRoots]frametime.Time{}, 0
	}
	return [MaxRoots]frametime.Time{l.Origin.AddFloat(x)}, 1
}

func (l Linear) Derivative() (Interpolation, bool) {
	return Constant{Value: l.Coefficient, Origin: l.Origin}, true
}

func (l Linear) Integral(constant float64) (Interpolation, bool) {
	return Quadratic{
		A:        l.Coefficient / 2,
		B:        l.Constant,
		Constant: constant,
		Origin:   l.Origin,
	}, true
}

func (l Linear) Offset(amount float64) Interpolation {
	l.Constant += amount
	return l
}

func (l Linear) Extrema() ([MaxExtrema]frametime.Time, int) {
	return [MaxExtrema]frametime.Time{}, 0
}

// Quadratic is the piece f(t) = A·x² + B·x + Constant, with x = t−Origin.
type Quadratic struct {
	A, B     float64
	Constant float64
	Origin   frametime.Time
}

func (q Quadratic) Start() frametime.Time { return q.Origin }

func (q Quadratic) Evaluate(t frametime.Time) float64 {
	x := rel(t, q.Origin)
	return (q.A*x+q.B)*x + q.Constant
}

func (q Quadratic) Solve(v float64) ([MaxRoots]frametime.Time, int) {
	roots, n := SolveQuadratic(q.Constant-v, q.B, q.A)
	return toTimes(q.Origin, 1, roots[:n])
}

func (q Quadratic) Derivative() (Interpolation, bool) {
	return Linear{Coefficient: 2 * q.A, Constant: q.B, Origin: q.Origin}, true
}

func (q Quadratic) Integral(constant float64) (Interpolation, bool) {
	return Cubic{
		A:        q.A / 3,
		B:        q.B / 2,
		C:        q.Constant,
		Constant: constant,
		Origin:   q.Origin,
		DX:       1,
	}, true
}

func (q Quadratic) Offset(amount float64) Interpolation {
	q.Constant += amount
	return q
}

func (q Quadratic) Extrema() ([MaxExtrema]frametime.Time, int) {
	if q.A == 0 {
		return [MaxExtrema]frametime.Time{}, 0
	}
	return [MaxExtrema]frametime.Time{q.Origin.AddFloat(-q.B / (2 * q.A))}, 1
}

// Cubic is the piece f(t) = A·u³ + B·u² + C·u + Constant, with
// u = (t−Origin)/DX.
//
// DX keeps the coefficients small for long pieces. A DX of zero is treated as
// one.
type Cubic struct {
	A, B, C  float64
	Constant float64
	Origin   frametime.Time
	DX       float64
}

func (c Cubic) dx() float64 {
	if c.DX == 0 {
		return 1
	}
	return c.DX
}

func (c Cubic) Start() frametime.Time { return c.Origin }

func (c Cubic) Evaluate(t frametime.Time) float64 {
	u := rel(t, c.Origin) / c.dx()
	return ((c.A*u+c.B)*u+c.C)*u + c.Constant
}

func (c Cubic) Solve(v float64) ([MaxRoots]frametime.Time, int) {
	roots, n := SolveCubic(c.Constant-v, c.C, c.B, c.A)
	return toTimes(c.Origin, c.dx(), roots[:n])
}

func (c Cubic) Derivative() (Interpolation, bool) {
	dx := c.dx()
	return Quadratic{
		A:        3 * c.A / (dx * dx * dx),
		B:        2 * c.B / (dx * dx),
		Constant: c.C / dx,
		Origin:   c.Origin,
	}, true
}

func (c Cubic) Integral(constant float64) (Interpolation, bool) {
	dx := c.dx()
	return Quartic{
		A:        dx * c.A / 4,
		B:        dx * c.B / 3,
		C:        dx * c.C / 2,
		D:        dx * c.Constant,
		Constant: constant,
		Origin:   c.Origin,
		DX:       dx,
	}, true
}

func (c Cubic) Offset(amount float64) Interpolation {
	c.Constant += amount
	return c
}

func (c Cubic) Extrema() ([MaxExtrema]frametime.Time, int) {
	roots, n := SolveQuadratic(c.C, 2*c.B, 3*c.A)
	return toExtrema(c.Origin, c.dx(), roots[:n])
}

// Quartic is the piece f(t) = A·u⁴ + B·u³ + C·u² + D·u + Constant, with
// u = (t−Origin)/DX.
//
// Quartics are the result of integrating cubics and cannot be integrated
// further.
type Quartic struct {
	A, B, C, D float64
	Constant   float64
	Origin     frametime.Time
	DX         float64
}

func (q Quartic) dx() float64 {
	if q.DX == 0 {
		return 1
	}
	return q.DX
}

func (q Quartic) Start() frametime.Time { return q.Origin }

func (q Quartic) Evaluate(t frametime.Time) float64 {
	u := rel(t, q.Origin) / q.dx()
	return (((q.A*u+q.B)*u+q.C)*u+q.D)*u + q.Constant
}

func (q Quartic) Solve(v float64) ([MaxRoots]frametime.Time, int) {
	roots, n := SolveQuartic(q.Constant-v, q.D, q.C, q.B, q.A)
	return toTimes(q.Origin, q.dx(), roots[:n])
}

func (q Quartic) Derivative() (Interpolation, bool) {
	dx := q.dx()
	return Cubic{
		A:        4 * q.A / dx,
		B:        3 * q.B / dx,
		C:        2 * q.C / dx,
		Constant: q.D / dx,
		Origin:   q.Origin,
		DX:       dx,
	}, true
}

// Integral always fails; the result would be a quintic, which has no
// closed-form solution.
func (q Quartic) Integral(float64) (Interpolation, bool) {
	diag.Logger().Warn().Str("shape", "quartic").Msg("integral not supported")
	return nil, false
}

func (q Quartic) Offset(amount float64) Interpolation {
	q.Constant += amount
	return q
}

func (q Quartic) Extrema() ([MaxExtrema]frametime.Time, int) {
	roots, n := SolveCubic(q.D, 2*q.C, 3*q.B, 4*q.A)
	return toExtrema(q.Origin, q.dx(), roots[:n])
}

// toTimes maps roots in the normalized domain u = (t−origin)/dx back to
// times.
func toTimes(origin frametime.Time, dx float64, us []float64) ([MaxRoots]frametime.Time, int) {
	var out [MaxRoots]frametime.Time
	for i, u := range us {
		out[i] = origin.AddFloat(u * dx)
	}
	return out, len(us)
}

func toExtrema(origin frametime.Time, dx float64, us []float64) ([MaxExtrema]frametime.Time, int) {
	var out [MaxExtrema]frametime.Time
	for i, u := range us {
		out[i] = origin.AddFloat(u * dx)
	}
	slices.SortFunc(out[:len(us)], frametime.Time.Compare)
	return out, len(us)
}
