package timecurve

import (
	"math"
	"slices"

	"honnef.co/go/timecurve/frametime"
	"honnef.co/go/timecurve/internal/diag"
)

// Piece is an interpolation together with the range of times over which it is
// authoritative. Ranges are usually half-open, [start, end), and may be
// unbounded on either side for extrapolation.
type Piece struct {
	Range  frametime.Range
	Interp Interpolation
}

// Evaluate returns the piece's value at t. t must be inside the piece's
// range.
func (p Piece) Evaluate(t frametime.Time) float64 {
	diag.Assertf(p.Range.Contains(t), "piece evaluated at %v, outside of %v", t, p.Range)
	return p.Interp.Evaluate(t)
}

// SolveWithin returns the times in both the piece's range and within at
// which the piece has value v, in ascending order.
//
// A constant piece with a matching value reports a single time: its origin,
// moved into the range if necessary.
func (p Piece) SolveWithin(v float64, within frametime.Range) ([MaxRoots]frametime.Time, int) {
	r := p.Range.Intersect(within)
	if r.IsEmpty() {
		return [MaxRoots]frametime.Time{}, 0
	}
	if c, ok := p.Interp.(Constant); ok {
		if c.Value != v {
			return [MaxRoots]frametime.Time{}, 0
		}
		if t, ok := nearestIn(r, c.Origin); ok {
			return [MaxRoots]frametime.Time{t}, 1
		}
		return [MaxRoots]frametime.Time{}, 0
	}
	roots, n := p.Interp.Solve(v)
	var out [MaxRoots]frametime.Time
	var outN int
	for _, t := range roots[:n] {
		if r.Contains(t) {
			out[outN] = t
			outN++
		}
	}
	slices.SortFunc(out[:outN], frametime.Time.Compare)
	return out, outN
}

func (p Piece) Derivative() (Piece, bool) {
	d, ok := p.Interp.Derivative()
	return Piece{p.Range, d}, ok
}

func (p Piece) Integral(constant float64) (Piece, bool) {
	i, ok := p.Interp.Integral(constant)
	return Piece{p.Range, i}, ok
}

func (p Piece) Offset(amount float64) Piece {
	return Piece{p.Range, p.Interp.Offset(amount)}
}

// Extents returns the extents of the piece over the part of its range that
// lies within the given range. It returns false if the two don't overlap.
//
// Unbounded spans have finite extents only for constant pieces; for all other
// shapes the open side is reported as ±Inf.
func (p Piece) Extents(within frametime.Range) (Extents, bool) {
	r := p.Range.Intersect(within)
	if r.IsEmpty() {
		return Extents{}, false
	}
	if c, ok := p.Interp.(Constant); ok {
		t, _ := nearestIn(r, c.Origin)
		return Extents{Min: c.Value, Max: c.Value, MinTime: t, MaxTime: t}, true
	}
	if r.IsBounded() {
		return ComputeExtents(p.Interp, r.Lower.Time, r.Upper.Time), true
	}

	// Evaluate one unit away from the finite end to find the direction the
	// shape diverges in.
	var anchor, probe frametime.Time
	switch {
	case r.HasLower():
		anchor = r.Lower.Time
		probe = anchor.AddFloat(1)
	case r.HasUpper():
		anchor = r.Upper.Time
		probe = anchor.AddFloat(-1)
	default:
		anchor = p.Interp.Start()
		probe = anchor.AddFloat(1)
	}
	v0 := p.Interp.Evaluate(anchor)
	v1 := p.Interp.Evaluate(probe)
	ext := Extents{Min: v0, Max: v0, MinTime: anchor, MaxTime: anchor}
	switch {
	case !r.HasLower() && !r.HasUpper() && v1 != v0:
		ext.Min, ext.Max = math.Inf(-1), math.Inf(1)
	case v1 > v0:
		ext.Max = math.Inf(1)
	case v1 < v0:
		ext.Min = math.Inf(-1)
	}
	return ext, true
}

// nearestIn returns the time in r that is closest to t. Exclusive bounds
// are approached to within one tick.
func nearestIn(r frametime.Range, t frametime.Time) (frametime.Time, bool) {
	if r.IsEmpty() {
		return frametime.Time{}, false
	}
	if r.HasLower() && !r.Contains(t) && !t.After(r.Lower.Time) {
		t = r.Lower.Time
		if r.Lower.IsExclusive() {
			t = t.AddFloat(1)
		}
	}
	if r.HasUpper() && !r.Contains(t) && !t.Before(r.Upper.Time) {
		t = r.Upper.Time
		if r.Upper.IsExclusive() {
			t = t.AddFloat(-1)
		}
	}
	if !r.Contains(t) {
		// The range is narrower than a tick.
		if r.Lower.IsExclusive() && r.Upper.IsExclusive() {
			mid := r.Lower.Time.AddFloat(r.Upper.Time.Sub(r.Lower.Time).Float() / 2)
			return mid, r.Contains(mid)
		}
		if r.Lower.IsInclusive() {
			return r.Lower.Time, true
		}
		return r.Upper.Time, r.Upper.IsInclusive()
	}
	return t, true
}
