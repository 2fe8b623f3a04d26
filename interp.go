package timecurve

import (
	"honnef.co/go/timecurve/frametime"
)

// MaxExtrema is the maximum number of extrema reported by
// [Interpolation.Extrema]. This is 3 to support quartics.
const MaxExtrema = 3

// Interpolation is one analytic shape of a piece of a curve, a function of
// time.
//
// Implementations are small value types. All of them express their math in
// ticks relative to an origin, so that evaluating far away from time zero
// keeps its precision.
type Interpolation interface {
	// Start returns the origin the shape is expressed relative to.
	Start() frametime.Time

	// Evaluate returns the value at time t.
	Evaluate(t frametime.Time) float64

	// Solve returns the times at which the shape has the given value. Shapes
	// that are defined on a bounded parameter domain (Béziers) only report
	// roots inside that domain. A constant shape with a matching value reports
	// its origin.
	Solve(value float64) ([MaxRoots]frametime.Time, int)

	// Derivative returns the derivative with respect to time, one degree
	// lower. It returns false if the shape does not support differentiation.
	Derivative() (Interpolation, bool)

	// Integral returns the antiderivative with respect to time, one degree
	// higher, whose value at the origin is constant. It returns false if the
	// shape does not support integration.
	Integral(constant float64) (Interpolation, bool)

	// Offset returns the shape shifted by amount along the value axis.
	Offset(amount float64) Interpolation

	// Extrema returns the times of the local extrema, in increasing order.
	Extrema() ([MaxExtrema]frametime.Time, int)
}

var (
	_ Interpolation = Constant{}
	_ Interpolation = Linear{}
	_ Interpolation = Quadratic{}
	_ Interpolation = Cubic{}
	_ Interpolation = Quartic{}
	_ Interpolation = CubicBezier{}
	_ Interpolation = WeightedCubic{}
)

// Extents describes the range of values a shape takes over a span of time.
type Extents struct {
	Min, Max         float64
	MinTime, MaxTime frametime.Time
}

// Union returns extents covering both e and o.
func (e Extents) Union(o Extents) Extents {
	if o.Min < e.Min {
		e.Min, e.MinTime = o.Min, o.MinTime
	}
	if o.Max > e.Max {
		e.Max, e.MaxTime = o.Max, o.MaxTime
	}
	return e
}

// Shift returns the extents moved by amount along the value axis.
func (e Extents) Shift(amount float64) Extents {
	e.Min += amount
	e.Max += amount
	return e
}

// ComputeExtents returns the minimum and maximum values of i over the closed
// span [from, to], along with where they occur.
//
// The result is exact: it considers both endpoints and every extremum inside
// the span.
func ComputeExtents(i Interpolation, from, to frametime.Time) Extents {
	if to.Before(from) {
		from, to = to, from
	}
	v0 := i.Evaluate(from)
	ext := Extents{Min: v0, Max: v0, MinTime: from, MaxTime: from}
	include := func(t frametime.Time) {
		v := i.Evaluate(t)
		if v < ext.Min {
			ext.Min, ext.MinTime = v, t
		}
		if v > ext.Max {
			ext.Max, ext.MaxTime = v, t
		}
	}
	include(to)
	ex, n := i.Extrema()
	for _, t := range ex[:n] {
		if t.After(from) && t.Before(to) {
			include(t)
		}
	}
	return ext
}

// rel returns t relative to origin, in ticks.
func rel(t, origin frametime.Time) float64 {
	return t.Sub(origin).Float()
}
