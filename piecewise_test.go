package timecurve

import (
	"math"
	"slices"
	"testing"

	"honnef.co/go/timecurve/frametime"
	"honnef.co/go/timecurve/internal/diag"
)

func span(a, b float64) frametime.Range { return frametime.Between(ft(a), ft(b)) }

// trapezoid rises from 0 to 10 over [0, 10), holds until 20 and falls back to
// 0 at 30.
func trapezoid() PiecewiseCurve {
	var c PiecewiseCurve
	c.Add(Piece{span(0, 10), Linear{Coefficient: 1, Origin: ft(0)}})
	c.Add(Piece{span(10, 20), Constant{Value: 10, Origin: ft(10)}})
	c.Add(Piece{span(20, 30), Linear{Coefficient: -1, Constant: 10, Origin: ft(20)}})
	return c
}

func TestPiecewiseEvaluate(t *testing.T) {
	c := trapezoid()
	for _, tt := range []struct {
		t    float64
		want float64
		ok   bool
	}{
		{-1, 0, false},
		{0, 0, true},
		{5, 5, true},
		{10, 10, true},
		{15, 10, true},
		{25, 5, true},
		{29.5, 0.5, true},
		{30, 0, false},
	} {
		got, ok := c.Evaluate(ft(tt.t))
		if got != tt.want || ok != tt.ok {
			t.Errorf("Evaluate(%v) = (%v, %t), want (%v, %t)", tt.t, got, ok, tt.want, tt.ok)
		}
	}
	if i, ok := c.FindPiece(ft(20)); !ok || i != 2 {
		t.Errorf("FindPiece(20) = (%d, %t), want (2, true)", i, ok)
	}
}

func TestPiecewiseAddOutOfOrder(t *testing.T) {
	if diag.Checked {
		t.Skip("assertions panic in checked builds")
	}
	var c PiecewiseCurve
	c.Add(Piece{span(10, 20), Constant{Value: 1, Origin: ft(10)}})
	c.Add(Piece{span(0, 10), Constant{Value: 2, Origin: ft(0)}})
	c.Add(Piece{span(15, 25), Constant{Value: 3, Origin: ft(15)}})
	if len(c.Pieces) != 1 {
		t.Errorf("got %d pieces, want 1", len(c.Pieces))
	}
}

func TestInverseEvaluate(t *testing.T) {
	c := trapezoid()
	tests := []struct {
		name  string
		v     float64
		hint  float64
		flags InverseFlags
		want  Solution
		ok    bool
	}{
		{"nearest", 5, 12, 0, Solution{Time: ft(5)}, true},
		{"forwards", 5, 12, Forwards, Solution{Time: ft(25)}, true},
		{"backwards", 5, 28, Backwards, Solution{Time: ft(25)}, true},
		{"hint excluded", 10, 15, Forwards, Solution{Time: ft(16)}, true},
		{"hint included", 10, 15, Forwards | Equal, Solution{Time: ft(15)}, true},
		{"no wrap", 2, 28, Forwards, Solution{}, false},
		{"wrap forwards", 2, 28, Forwards | Cycle, Solution{Time: ft(32), Cycle: 1}, true},
		{"wrap backwards", 8, 1, Backwards | Cycle, Solution{Time: ft(-8), Cycle: -1}, true},
		{"before curve", 3, -5, Forwards, Solution{Time: ft(3)}, true},
		{"no solution", 11, 5, 0, Solution{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.InverseEvaluate(tt.v, ft(tt.hint), tt.flags)
			if ok != tt.ok {
				t.Fatalf("got ok = %t, want %t", ok, tt.ok)
			}
			diff(t, tt.want, got)
		})
	}
}

func TestInverseEvaluateCycledHint(t *testing.T) {
	var saw PiecewiseCurve
	saw.Add(Piece{span(0, 10), Linear{Coefficient: 1, Origin: ft(0)}})
	tests := []struct {
		hint  float64
		flags InverseFlags
		want  Solution
	}{
		{25, Cycle, Solution{Time: ft(26)}},
		{25, Cycle | Forwards, Solution{Time: ft(26)}},
		{25, Cycle | Backwards, Solution{Time: ft(16), Cycle: -1}},
		{29, Cycle | Forwards, Solution{Time: ft(36), Cycle: 1}},
		{-15, Cycle, Solution{Time: ft(-14)}},
		{100005, Cycle, Solution{Time: ft(100006)}},
		{-100005, Cycle, Solution{Time: ft(-100004)}},
		{26, Cycle | Equal, Solution{Time: ft(26)}},
	}
	for _, tt := range tests {
		got, ok := saw.InverseEvaluate(6, ft(tt.hint), tt.flags)
		if !ok {
			t.Errorf("hint %g: no solution", tt.hint)
			continue
		}
		diff(t, tt.want, got)
	}

	// A period with a sub-frame part.
	var short PiecewiseCurve
	short.Add(Piece{span(0, 2.5), Linear{Coefficient: 1, Origin: ft(0)}})
	got, ok := short.InverseEvaluate(1, ft(10.5), Cycle|Forwards)
	if !ok {
		t.Fatal("no solution")
	}
	diff(t, Solution{Time: ft(11)}, got)
}

func TestSolutionBetter(t *testing.T) {
	hint := ft(10)
	near := Solution{Time: ft(12)}
	far := Solution{Time: ft(20)}
	nextCycle := Solution{Time: ft(11), Cycle: 1}
	if !near.Better(far, hint) {
		t.Error("closer solution isn't better")
	}
	if !far.Better(nextCycle, hint) {
		t.Error("solution in another cycle is better")
	}
	if near.Better(near, hint) {
		t.Error("solution is better than itself")
	}
}

func TestInverseEvaluateBetween(t *testing.T) {
	c := trapezoid()
	got := slices.Collect(c.Roots(5, frametime.Infinite()))
	diff(t, []frametime.Time{ft(5), ft(25)}, got)

	got = slices.Collect(c.Roots(10, frametime.Infinite()))
	diff(t, []frametime.Time{ft(10), ft(20)}, got)

	got = slices.Collect(c.Roots(5, span(6, 30)))
	diff(t, []frametime.Time{ft(25)}, got)

	var visited []frametime.Time
	done := c.InverseEvaluateBetween(5, frametime.Infinite(), func(t frametime.Time) bool {
		visited = append(visited, t)
		return false
	})
	if done {
		t.Error("iteration wasn't stopped")
	}
	diff(t, []frametime.Time{ft(5)}, visited)
}

func TestPiecewiseIntegral(t *testing.T) {
	c := trapezoid()
	ic := c.Integral()
	for _, tt := range []struct {
		t, want float64
	}{
		{0, 0},
		{10, 50},
		{15, 100},
		{20, 150},
		{25, 187.5},
		{29, 199.5},
	} {
		got, ok := ic.Evaluate(ft(tt.t))
		if !ok || !closeTo(got, tt.want, 1e-12) {
			t.Errorf("integral at %v is (%v, %t), want %v", tt.t, got, ok, tt.want)
		}
	}

	dc := ic.Derivative()
	for _, x := range []float64{0, 3, 10, 17, 20, 26.5} {
		want, _ := c.Evaluate(ft(x))
		got, ok := dc.Evaluate(ft(x))
		if !ok || !closeTo(got, want, 1e-12) {
			t.Errorf("derivative of integral at %v is (%v, %t), want %v", x, got, ok, want)
		}
	}
}

func TestPiecewiseIntegralSkipsQuartic(t *testing.T) {
	if diag.Checked {
		t.Skip("assertions panic in checked builds")
	}
	var c PiecewiseCurve
	c.Add(Piece{span(0, 10), Constant{Value: 1, Origin: ft(0)}})
	c.Add(Piece{span(10, 20), Quartic{A: 1, Origin: ft(10), DX: 1}})
	ic := c.Integral()
	if len(ic.Pieces) != 1 {
		t.Errorf("got %d pieces, want 1", len(ic.Pieces))
	}
}

func TestPiecewiseOffset(t *testing.T) {
	c := trapezoid()
	back := c.Offset(3.25).Offset(-3.25)
	for x := 0.0; x < 30; x += 0.5 {
		want, _ := c.Evaluate(ft(x))
		got, ok := back.Evaluate(ft(x))
		if !ok || got != want {
			t.Errorf("at %v: got (%v, %t), want %v", x, got, ok, want)
		}
	}
}

func TestPiecewiseExtents(t *testing.T) {
	c := trapezoid()
	got, ok := c.Extents(span(0, 30))
	if !ok {
		t.Fatal("no extents")
	}
	diff(t, Extents{Min: 0, Max: 10, MinTime: ft(0), MaxTime: ft(10)}, got)

	got, ok = c.Extents(span(22, 26))
	if !ok {
		t.Fatal("no extents")
	}
	diff(t, Extents{Min: 4, Max: 8, MinTime: ft(26), MaxTime: ft(22)}, got)

	if _, ok := c.Extents(span(40, 50)); ok {
		t.Error("got extents outside of the curve")
	}
}

func TestPieceExtentsUnbounded(t *testing.T) {
	p := Piece{frametime.AtLeast(ft(5)), Linear{Coefficient: 2, Origin: ft(5)}}
	got, ok := p.Extents(frametime.Infinite())
	if !ok {
		t.Fatal("no extents")
	}
	if got.Min != 0 || !math.IsInf(got.Max, 1) {
		t.Errorf("got %+v, want [0, +Inf]", got)
	}
}
