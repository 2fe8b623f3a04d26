package timecurve

import (
	"math"
	"slices"
	"testing"
)

func checkRoots(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got roots %v, want %v", got, want)
	}
	got, want = slices.Sorted(slices.Values(got)), slices.Sorted(slices.Values(want))
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("root %d is %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSolveLinear(t *testing.T) {
	if x, ok := SolveLinear(-6, 3); !ok || x != 2 {
		t.Errorf("got (%v, %t), want (2, true)", x, ok)
	}
	if _, ok := SolveLinear(1, 0); ok {
		t.Error("horizontal line off the axis has a root")
	}
	if x, ok := SolveLinear(0, 0); !ok || x != 0 {
		t.Errorf("got (%v, %t), want (0, true)", x, ok)
	}
}

func TestSolveQuadratic(t *testing.T) {
	tests := []struct {
		c    [3]float64
		want []float64
	}{
		{[3]float64{-5, 0, 1}, []float64{-math.Sqrt(5), math.Sqrt(5)}},
		{[3]float64{6, -5, 1}, []float64{2, 3}},
		{[3]float64{5, 0, 1}, nil},
		{[3]float64{1, 2, 1}, []float64{-1}},
		// Degenerate to linear.
		{[3]float64{5, 1, 0}, []float64{-5}},
		{[3]float64{3, 0, 0}, nil},
		{[3]float64{0, 0, 0}, []float64{0}},
	}
	for _, tt := range tests {
		roots, n := SolveQuadratic(tt.c[0], tt.c[1], tt.c[2])
		checkRoots(t, roots[:n], tt.want)
		if n == 2 && roots[0] > roots[1] {
			t.Errorf("%v: roots %v aren't ascending", tt.c, roots)
		}
	}
}

func TestSolveCubic(t *testing.T) {
	tests := []struct {
		c    [4]float64
		want []float64
	}{
		{[4]float64{-5, 0, 0, 1}, []float64{math.Cbrt(5)}},
		{[4]float64{-5, -1, 0, 1}, []float64{1.90416085913492}},
		{[4]float64{0, -1, 0, 1}, []float64{-1, 0, 1}},
		{[4]float64{-2, -3, 0, 1}, []float64{-1, 2}},
		{[4]float64{2, -3, 0, 1}, []float64{-2, 1}},
		// (x+2)(x+1)² moved slightly up and down, splitting the double root
		// or removing it.
		{[4]float64{2 - 1e-12, 5, 4, 1}, []float64{-1.9999999999989995, -1.0000010000848456, -0.9999989999161546}},
		{[4]float64{2 + 1e-12, 5, 4, 1}, []float64{-2}},
		// Degenerate to quadratic and linear.
		{[4]float64{6, -5, 1, 0}, []float64{2, 3}},
		{[4]float64{-4, 2, 0, 0}, []float64{2}},
		{[4]float64{0, 0, 0, 0}, []float64{0}},
		{[4]float64{1, 0, 0, 0}, nil},
	}
	for _, tt := range tests {
		roots, n := SolveCubic(tt.c[0], tt.c[1], tt.c[2], tt.c[3])
		checkRoots(t, roots[:n], tt.want)
	}
}

// vieta returns a, b, c, d of x⁴ + ax³ + bx² + cx + d with the given roots.
func vieta(x1, x2, x3, x4 float64) [4]float64 {
	return [4]float64{
		-(x1 + x2 + x3 + x4),
		x1*(x2+x3) + x2*(x3+x4) + x4*(x1+x3),
		-x1*x2*(x3+x4) - x3*x4*(x1+x2),
		x1 * x2 * x3 * x4,
	}
}

func TestSolveQuartic(t *testing.T) {
	// Table 1 of Orellana and De Michele. The hard cases without real roots
	// are left out.
	const s = 1e30
	tests := []struct {
		name   string
		abcd   [4]float64
		want   []float64
		relErr float64
	}{
		{"1", vieta(1, 1e3, 1e6, 1e9), []float64{1, 1e3, 1e6, 1e9}, 1e-16},
		{"2", vieta(2, 2.001, 2.002, 2.003), []float64{2, 2.001, 2.002, 2.003}, 1e-6},
		{"3", vieta(1e47, 1e49, 1e50, 1e53), []float64{1e47, 1e49, 1e50, 1e53}, 2e-16},
		{"4", vieta(-1, 1, 2, 1e14), []float64{-1, 1, 2, 1e14}, 1e-16},
		{"5", vieta(-2e7, -1, 1, 1e7), []float64{-2e7, -1, 1, 1e7}, 1e-16},
		{"6", [4]float64{-9000002, -9999981999998, 19999982e6, -2e13}, []float64{-1e6, 1e7}, 1e-16},
		{"7", [4]float64{2000011, 1010022000028, 11110056e6, 2828e10}, []float64{-7, -4}, 1e-16},
		{"8", [4]float64{-100002011, 201101022001, -102200111000011, 11000011e8}, []float64{11, 1e8}, 1e-16},
		{"14", vieta(1000, 1000, 1000, 1000), []float64{1000, 1000}, 1e-16},
		{"15", vieta(1e-15, 1000, 1000, 1000), []float64{1e-15, 1000, 1000}, 1e-15},
		{"17", vieta(10000, 10001, 10010, 10100), []float64{10000, 10001, 10010, 10100}, 1e-6},
		{"19", vieta(1, 1e30, 1e30, 1e44), []float64{1, 1e30, 1e44}, 1e-16},
		{"20", vieta(1, 1e7, 1e7, 1e14), []float64{1, 1e7, 1e7, 1e14}, 1e-7},
		{"22", vieta(1, 10, 1e152, 1e154), []float64{1, 10, 1e152, 1e154}, 3e-16},
		{"23", [4]float64{1, 1, 3.0 / 8.0, 1e-3}, []float64{-0.497314148060048, -0.00268585193995149}, 2e-15},
		{"24", [4]float64{-(1 + 1/s), 1/s - s*s, s*s + s, -s}, []float64{-s, 1e-30, 1, s}, 2e-16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roots, n := SolveQuartic(tt.abcd[3], tt.abcd[2], tt.abcd[1], tt.abcd[0], 1)
			got := roots[:n]
			slices.Sort(got)
			if n != len(tt.want) {
				t.Fatalf("got roots %v, want %v", got, tt.want)
			}
			for i, want := range tt.want {
				if math.Abs(got[i]-want) > tt.relErr*math.Abs(want) {
					t.Errorf("root %d is %v, want %v", i, got[i], want)
				}
			}
		})
	}
}

func TestSolveQuarticEasy(t *testing.T) {
	tests := []struct {
		c    [5]float64
		want []float64
	}{
		// (x+2)(x+1)(x-1)(x-2)
		{[5]float64{4, 0, -5, 0, 1}, []float64{-2, -1, 1, 2}},
		// x(x-1)(x-2)(x-3)
		{[5]float64{0, -6, 11, -6, 1}, []float64{0, 1, 2, 3}},
		// Scaled, and without real roots.
		{[5]float64{8, 0, -10, 0, 2}, []float64{-2, -1, 1, 2}},
		{[5]float64{4, 0, 5, 0, 1}, nil},
		// Degenerate to cubic.
		{[5]float64{0, -1, 0, 1, 0}, []float64{-1, 0, 1}},
	}
	for _, tt := range tests {
		roots, n := SolveQuartic(tt.c[0], tt.c[1], tt.c[2], tt.c[3], tt.c[4])
		checkRoots(t, roots[:n], tt.want)
	}
}

func TestSolveITP(t *testing.T) {
	// An ease curve that is too flat at its ends for the secant method alone.
	f := func(x float64) float64 { return x*x*x*(x*(6*x-15)+10) - 0.3 }
	x := SolveITP(f, 0, 1, f(0), f(1), 1e-12)
	if y := f(x); math.Abs(y) > 1e-11 {
		t.Errorf("f(%v) = %v, want 0", x, y)
	}

	g := func(x float64) float64 { return x*x*x - x - 2 }
	const root = 1.5213797068045676
	if x := SolveITP(g, 1, 2, g(1), g(2), 1e-12); math.Abs(x-root) > 2e-12 {
		t.Errorf("got %v, want %v", x, root)
	}
}
