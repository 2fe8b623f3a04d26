package timecurve

import (
	"iter"
	"math"
	"sort"

	"honnef.co/go/timecurve/frametime"
	"honnef.co/go/timecurve/internal/diag"
)

// MaxInverseSearchPieces bounds the number of pieces
// [PiecewiseCurve.InverseEvaluate] visits in each direction.
const MaxInverseSearchPieces = 1000

// InverseFlags control the search performed by
// [PiecewiseCurve.InverseEvaluate].
type InverseFlags uint8

const (
	// Forwards searches for solutions at or after the hint.
	Forwards InverseFlags = 1 << iota
	// Backwards searches for solutions at or before the hint.
	Backwards
	// Cycle treats the curve as repeating with the period of its bounded
	// range, allowing the search to wrap around.
	Cycle
	// Equal permits a solution at the hint itself.
	Equal
)

// Solution is a result of an inverse evaluation.
type Solution struct {
	Time frametime.Time
	// Cycle is the number of repetitions between the hint and Time.
	Cycle int
}

// Better reports whether s is a better solution than o, relative to the
// hint. Solutions crossing fewer cycles win, then those closer to the hint.
func (s Solution) Better(o Solution, hint frametime.Time) bool {
	ca, cb := abs(s.Cycle), abs(o.Cycle)
	if ca != cb {
		return ca < cb
	}
	da := s.Time.Sub(hint).Abs()
	db := o.Time.Sub(hint).Abs()
	return da.Before(db)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// PiecewiseCurve is a sequence of pieces ordered by time, with
// non-overlapping ranges.
//
// The zero value is an empty curve.
type PiecewiseCurve struct {
	Pieces []Piece
}

// Add appends a piece. Its range must start at or after the end of the
// current last piece.
func (c *PiecewiseCurve) Add(p Piece) {
	if n := len(c.Pieces); n > 0 {
		last := c.Pieces[n-1].Range
		ok := last.HasUpper() && p.Range.HasLower() &&
			!last.Upper.Time.After(p.Range.Lower.Time) && !last.Overlaps(p.Range)
		if !diag.Assertf(ok, "piece %v overlaps or precedes %v", p.Range, last) {
			return
		}
	}
	c.Pieces = append(c.Pieces, p)
}

// Range returns the hull of all pieces' ranges.
func (c PiecewiseCurve) Range() frametime.Range {
	if len(c.Pieces) == 0 {
		return frametime.Empty()
	}
	return c.Pieces[0].Range.Hull(c.Pieces[len(c.Pieces)-1].Range)
}

// search returns the index of the last piece that doesn't start after t, or
// -1.
func (c PiecewiseCurve) search(t frametime.Time) int {
	i := sort.Search(len(c.Pieces), func(i int) bool {
		lo := c.Pieces[i].Range.Lower
		switch lo.Kind {
		case frametime.Inclusive:
			return lo.Time.After(t)
		case frametime.Exclusive:
			return !lo.Time.Before(t)
		default:
			return false
		}
	})
	return i - 1
}

// FindPiece returns the index of the piece containing t.
func (c PiecewiseCurve) FindPiece(t frametime.Time) (int, bool) {
	i := c.search(t)
	if i < 0 || !c.Pieces[i].Range.Contains(t) {
		return 0, false
	}
	return i, true
}

// Evaluate returns the curve's value at t. It returns false if no piece
// covers t.
func (c PiecewiseCurve) Evaluate(t frametime.Time) (float64, bool) {
	i, ok := c.FindPiece(t)
	if !ok {
		return 0, false
	}
	return c.Pieces[i].Interp.Evaluate(t), true
}

// InverseEvaluate finds a time at which the curve has value v, starting the
// search at the hint. Without Forwards or Backwards, both directions are
// searched. The best solution according to [Solution.Better] is returned.
//
// With the Cycle flag, the curve's bounded range is treated as one period of
// a repeating curve and the search may wrap around its ends. The hint may
// lie in any repetition; Solution.Cycle counts repetitions from the hint's.
func (c PiecewiseCurve) InverseEvaluate(v float64, hint frametime.Time, flags InverseFlags) (Solution, bool) {
	if len(c.Pieces) == 0 {
		return Solution{}, false
	}
	if flags&(Forwards|Backwards) == 0 {
		flags |= Forwards | Backwards
	}
	var period frametime.Time
	if flags&Cycle != 0 {
		var ok bool
		period, ok = c.Range().Size()
		if !ok || period == (frametime.Time{}) {
			flags &^= Cycle
		}
	}

	// Search relative to the hint's repetition and move the result back.
	var shift frametime.Time
	if flags&Cycle != 0 {
		shift = c.repetition(hint, period)
		hint = hint.Sub(shift)
	}

	var best Solution
	var found bool
	consider := func(s Solution) {
		if !found || s.Better(best, hint) {
			best, found = s, true
		}
	}
	accept := func(t frametime.Time, forwards bool) bool {
		switch t.Compare(hint) {
		case 0:
			return flags&Equal != 0
		case 1:
			return forwards
		default:
			return !forwards
		}
	}

	idx := c.search(hint)
	if flags&Forwards != 0 {
		i, cycle := idx, 0
		if i < 0 || !c.Pieces[i].Range.Contains(hint) {
			i++
		}
		for hops := 0; hops < MaxInverseSearchPieces; hops++ {
			if i == len(c.Pieces) {
				if flags&Cycle == 0 {
					break
				}
				i, cycle = 0, cycle+1
			}
			if s, ok := c.solvePiece(i, v, hint, period, cycle, true, accept); ok {
				consider(s)
				break
			}
			i++
		}
	}
	if flags&Backwards != 0 {
		i, cycle := idx, 0
		for hops := 0; hops < MaxInverseSearchPieces; hops++ {
			if i < 0 {
				if flags&Cycle == 0 {
					break
				}
				i, cycle = len(c.Pieces)-1, cycle-1
			}
			if s, ok := c.solvePiece(i, v, hint, period, cycle, false, accept); ok {
				consider(s)
				break
			}
			i--
		}
	}
	if found {
		best.Time = best.Time.Add(shift)
	}
	return best, found
}

// repetition returns the offset of the repetition of the curve's range that
// contains t, given the range's size.
func (c PiecewiseCurve) repetition(t, period frametime.Time) frametime.Time {
	lo := c.Range().Lower.Time
	if period.SubFrame == 0 {
		_, n := frametime.FloorMod(t.Sub(lo), period.Frame)
		return frametime.At(frametime.Frame(n) * period.Frame)
	}
	n := math.Floor(t.Sub(lo).Float() / period.Float())
	return period.Scale(n)
}

// solvePiece returns the solution in piece i, repeated cycle times, closest to
// the hint in the search direction.
func (c PiecewiseCurve) solvePiece(
	i int,
	v float64,
	hint frametime.Time,
	period frametime.Time,
	cycle int,
	forwards bool,
	accept func(frametime.Time, bool) bool,
) (Solution, bool) {
	p := c.Pieces[i]
	shift := period.Scale(float64(cycle))
	if _, ok := p.Interp.(Constant); ok {
		// Every time in the piece is a solution; use the one nearest to the
		// hint.
		if p.Interp.Evaluate(p.Interp.Start()) != v {
			return Solution{}, false
		}
		local := hint.Sub(shift)
		t, ok := nearestIn(p.Range, local)
		if !ok {
			return Solution{}, false
		}
		t = t.Add(shift)
		if !accept(t, forwards) {
			// The hint itself lies in the piece but is excluded.
			if forwards {
				t = t.AddFloat(1)
			} else {
				t = t.AddFloat(-1)
			}
			if !p.Range.Contains(t.Sub(shift)) {
				return Solution{}, false
			}
		}
		return Solution{t, cycle}, true
	}

	roots, n := p.SolveWithin(v, frametime.Infinite())
	var best Solution
	var found bool
	for _, r := range roots[:n] {
		t := r.Add(shift)
		if !accept(t, forwards) {
			continue
		}
		s := Solution{t, cycle}
		if !found || s.Better(best, hint) {
			best, found = s, true
		}
	}
	return best, found
}

// InverseEvaluateBetween calls visit for every time within the range at which
// the curve has value v, in ascending order. Constant pieces with a matching
// value report only their first time within the range. It returns false if
// visit stopped the iteration.
func (c PiecewiseCurve) InverseEvaluateBetween(v float64, within frametime.Range, visit func(frametime.Time) bool) bool {
	for _, p := range c.Pieces {
		if !p.Range.Overlaps(within) {
			continue
		}
		r := p.Range.Intersect(within)
		if k, ok := p.Interp.(Constant); ok {
			if k.Value != v {
				continue
			}
			var first frametime.Time
			if r.HasLower() {
				first, _ = nearestIn(r, r.Lower.Time)
			} else {
				first, _ = nearestIn(r, k.Origin)
			}
			if !visit(first) {
				return false
			}
			continue
		}
		roots, n := p.SolveWithin(v, within)
		for _, t := range roots[:n] {
			if !visit(t) {
				return false
			}
		}
	}
	return true
}

// Roots returns an iterator over the times within the range at which the
// curve has value v. See [PiecewiseCurve.InverseEvaluateBetween].
func (c PiecewiseCurve) Roots(v float64, within frametime.Range) iter.Seq[frametime.Time] {
	return func(yield func(frametime.Time) bool) {
		c.InverseEvaluateBetween(v, within, yield)
	}
}

// Integral returns the integral of the curve. The integration constant of
// each piece is chosen so that the result is continuous, with a value of zero
// at the start of the first piece, or at its origin if the first piece is
// unbounded.
//
// Pieces that cannot be integrated are skipped.
func (c PiecewiseCurve) Integral() PiecewiseCurve {
	var out PiecewiseCurve
	running := 0.0
	for _, p := range c.Pieces {
		i0, ok := p.Interp.Integral(0)
		if !diag.Assertf(ok, "piece %v cannot be integrated", p.Range) {
			continue
		}
		anchor := p.Interp.Start()
		if p.Range.HasLower() {
			anchor = p.Range.Lower.Time
		}
		ip, _ := p.Integral(running - i0.Evaluate(anchor))
		if p.Range.HasUpper() {
			running = ip.Interp.Evaluate(p.Range.Upper.Time)
		}
		out.Pieces = append(out.Pieces, ip)
	}
	return out
}

// Derivative returns the derivative of the curve. Pieces that cannot be
// differentiated are skipped.
func (c PiecewiseCurve) Derivative() PiecewiseCurve {
	var out PiecewiseCurve
	for _, p := range c.Pieces {
		d, ok := p.Derivative()
		if !diag.Assertf(ok, "piece %v cannot be differentiated", p.Range) {
			continue
		}
		out.Pieces = append(out.Pieces, d)
	}
	return out
}

// Offset returns the curve shifted by amount along the value axis.
func (c PiecewiseCurve) Offset(amount float64) PiecewiseCurve {
	out := PiecewiseCurve{Pieces: make([]Piece, len(c.Pieces))}
	for i, p := range c.Pieces {
		out.Pieces[i] = p.Offset(amount)
	}
	return out
}

// Extents returns the extents of the curve within the range. It returns
// false if no piece overlaps the range.
func (c PiecewiseCurve) Extents(within frametime.Range) (Extents, bool) {
	var ext Extents
	var found bool
	for _, p := range c.Pieces {
		e, ok := p.Extents(within)
		if !ok {
			continue
		}
		if !found {
			ext, found = e, true
		} else {
			ext = ext.Union(e)
		}
	}
	return ext, found
}
