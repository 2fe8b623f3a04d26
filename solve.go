package timecurve

import "math"

// MaxRoots is the largest number of roots any solver in this package reports.
const MaxRoots = 4

// SolveLinear finds the root of c0 + c1 x = 0.
//
// A horizontal line has no root unless c0 is also zero, in which case every x
// satisfies the equation and 0 is returned.
func SolveLinear(c0, c1 float64) (float64, bool) {
	if c1 == 0 {
		if c0 == 0 {
			return 0, true
		}
		return 0, false
	}
	root := -c0 / c1
	if math.IsInf(root, 0) || math.IsNaN(root) {
		return 0, false
	}
	return root, true
}

// SolveQuadratic finds the real roots of c0 + c1 x + c2 x² = 0, in ascending
// order.
//
// A nearly linear equation returns the root of the linear part only; the
// other root might not be representable. If all coefficients are zero, every
// x is a root and a single 0 is returned.
func SolveQuadratic(c0, c1, c2 float64) ([2]float64, int) {
	// x² + px + q
	p, q := c1/c2, c0/c2
	if c2 == 0 || math.IsInf(p, 0) || math.IsInf(q, 0) {
		x, ok := SolveLinear(c0, c1)
		if !ok {
			return [2]float64{}, 0
		}
		return [2]float64{x}, 1
	}

	disc := p*p - 4.0*q
	var far float64
	switch {
	case math.IsInf(disc, 0):
		// p² overflowed. x² + px = 0 still gives the root far from zero.
		far = -p
	case disc < 0:
		return [2]float64{}, 0
	case disc == 0:
		return [2]float64{-0.5 * p}, 1
	default:
		// The root far from zero doesn't suffer from cancellation; the near
		// one follows from Vieta's q = x₁x₂.
		far = -0.5 * (p + math.Copysign(math.Sqrt(disc), p))
	}
	near := q / far
	if math.IsInf(near, 0) {
		return [2]float64{far}, 1
	}
	return [2]float64{min(near, far), max(near, far)}, 2
}

// SolveCubic finds the real roots of c0 + c1 x + c2 x² + c3 x³ = 0.
//
// The second return value states how many roots were found. A zero or nearly
// zero c3 degrades to [SolveQuadratic].
func SolveCubic(c0, c1, c2, c3 float64) ([3]float64, int) {
	inv := 1.0 / c3
	b := c2 * (1.0 / 3.0 * inv)
	c := c1 * (1.0 / 3.0 * inv)
	d := c0 * inv
	if c3 == 0 || math.IsInf(d, 0) || math.IsInf(c, 0) || math.IsInf(b, 0) {
		r, n := SolveQuadratic(c0, c1, c2)
		return [3]float64{r[0], r[1]}, n
	}
	return blinnCubic(b, c, d)
}

// blinnCubic solves the normalized cubic x³ + 3b x² + 3c x + d = 0 with
// Blinn's method, as presented in https://momentsingraphics.de/CubicRoots.html.
func blinnCubic(b, c, d float64) ([3]float64, int) {
	// Coefficients of the Hessian.
	h0 := math.FMA(-b, b, c)
	h1 := math.FMA(-c, b, d)
	h2 := b*d - c*c
	disc := 4.0*h0*h2 - h1*h1
	// Substituting x = t - b yields t³ + 3h0 t + dep = 0.
	dep := math.FMA(-2.0*b, h0, h1)
	// TODO: handle the cases where these intermediate results overflow.

	switch {
	case disc < 0:
		sq := math.Sqrt(-0.25 * disc)
		r := -0.5 * dep
		t := math.Cbrt(r+sq) + math.Cbrt(r-sq)
		return [3]float64{t - b}, 1
	case disc == 0:
		t := math.Copysign(math.Sqrt(-h0), dep)
		return [3]float64{t - b, -2.0*t - b}, 2
	default:
		theta := math.Atan2(math.Sqrt(disc), -dep) * (1.0 / 3.0)
		sin, cos := math.Sincos(theta)
		sin3 := sin * math.Sqrt(3.0)
		scale := 2.0 * math.Sqrt(-h0)
		return [3]float64{
			math.FMA(scale, cos, -b),
			math.FMA(scale, 0.5*(-cos+sin3), -b),
			math.FMA(scale, 0.5*(-cos-sin3), -b),
		}, 3
	}
}

// SolveQuartic finds the real roots of c0 + c1 x + c2 x² + c3 x³ + c4 x⁴ = 0.
//
// The quartic is made monic and factored into two quadratics using the
// dominant root of its resolvent cubic, following Orellana and De Michele,
// "Algorithm 1010: Boosting Efficiency in Solving Quartic Equations with No
// Compromise in Accuracy", ACM TOMS 46(2), 2020. Roots are not sorted.
func SolveQuartic(c0, c1, c2, c3, c4 float64) ([4]float64, int) {
	var out [4]float64
	switch {
	case c4 == 0:
		r, n := SolveCubic(c0, c1, c2, c3)
		copy(out[:], r[:n])
		return out, n
	case c0 == 0:
		// x = 0 is a root and the rest are those of the remaining cubic.
		r, n := SolveCubic(c1, c2, c3, c4)
		copy(out[:], r[:n])
		out[n] = 0
		return out, n + 1
	}

	m := monicQuartic{a: c3 / c4, b: c2 / c4, c: c1 / c4, d: c0 / c4}
	if out, n, ok := m.solve(false); ok {
		return out, n
	}
	// Intermediate results overflowed. Solve for y = x/kq instead, which
	// shrinks the coefficients, and scale the roots back up.
	const kq = 7.16e76
	small := monicQuartic{
		a: m.a / kq,
		b: m.b / (kq * kq),
		c: m.c / (kq * kq * kq),
		d: m.d / (kq * kq * kq * kq),
	}
	for _, rescale := range [2]bool{false, true} {
		if out, n, ok := small.solve(rescale); ok {
			for i := range out[:n] {
				out[i] *= kq
			}
			return out, n
		}
	}
	return out, 0
}

// monicQuartic is x⁴ + ax³ + bx² + cx + d.
type monicQuartic struct {
	a, b, c, d float64
}

// quadFactor is x² + alpha x + beta.
type quadFactor struct {
	alpha, beta float64
}

func (m monicQuartic) solve(rescale bool) ([4]float64, int, bool) {
	p, q, ok := m.factor(rescale)
	if !ok {
		return [4]float64{}, 0, false
	}
	var out [4]float64
	n := 0
	for _, f := range [2]quadFactor{p, q} {
		r, k := SolveQuadratic(f.beta, f.alpha, 1.0)
		n += copy(out[n:], r[:k])
	}
	return out, n, true
}

// factor writes m as the product of two real quadratics.
//
// It fails if intermediate results overflow, in which case the caller can
// retry with rescale set or on a scaled polynomial, and if the factors would
// need complex coefficients.
func (m monicQuartic) factor(rescale bool) (quadFactor, quadFactor, bool) {
	a, b, c, d := m.a, m.b, m.c, m.d

	g, h, ok := m.resolvent(rescale)
	if !ok {
		return quadFactor{}, quadFactor{}, false
	}
	phi := dominantCubicRoot(g, h)
	if rescale {
		phi *= resolventScale
	}

	// LDLᵀ decomposition of the quartic's symmetric matrix. d2 and l2 have
	// several equivalent formulas; use the pair that best reproduces the
	// coefficients.
	l1 := a * 0.5
	l3 := (1.0/6.0)*b + 0.5*phi
	del2 := c - a*l3
	d2x := (2.0/3.0)*b - phi - l1*l1
	l2x := 0.5 * del2 / d2x
	l2y := 2.0 * (d - l3*l3) / del2
	d2y := 0.5 * del2 / l2y

	var d2, l2, best float64
	for i, cand := range [3][2]float64{{d2x, l2x}, {d2y, l2y}, {d2x, l2y}} {
		cd, cl := cand[0], cand[1]
		e := relativeError(cd+l1*l1+2.0*l3, b) +
			relativeError(2.0*(cd*cl+l1*l3), c) +
			relativeError(cd*cl*cl+l3*l3, d)
		if i == 0 || e < best {
			d2, l2, best = cd, cl, e
		}
	}

	var p, q quadFactor
	switch {
	case d2 < 0:
		sq := math.Sqrt(-d2)
		p = quadFactor{l1 + sq, l3 + sq*l2}
		q = quadFactor{l1 - sq, l3 - sq*l2}
		// The larger beta is accurate; derive the other from d = β₁β₂.
		if math.Abs(q.beta) < math.Abs(p.beta) {
			q.beta = d / p.beta
		} else if math.Abs(q.beta) > math.Abs(p.beta) {
			p.beta = d / q.beta
		}
		m.fixAlphas(&p, &q)
	case d2 == 0:
		// TODO: d2 close to but not exactly zero loses accuracy here.
		d3 := d - l3*l3
		p = quadFactor{l1, l3 + math.Sqrt(-d3)}
		q = quadFactor{l1, l3 - math.Sqrt(-d3)}
		if math.Abs(p.beta) > math.Abs(q.beta) {
			q.beta = d / p.beta
		} else if math.Abs(q.beta) > math.Abs(p.beta) {
			p.beta = d / q.beta
		}
	default:
		// Only complex factors exist.
		return quadFactor{}, quadFactor{}, false
	}
	m.refine(&p, &q)
	return p, q, true
}

const resolventScale = 3.49e102

// resolvent returns the depressed resolvent cubic x³ + gx + h of m, after
// shifting x to improve its conditioning. With rescale set, the intermediate
// values are computed divided by resolventScale.
func (m monicQuartic) resolvent(rescale bool) (g, h float64, ok bool) {
	a, b, c, d := m.a, m.b, m.c, m.d
	var s float64
	if disc := 9.0*a*a - 24.0*b; disc >= 0 {
		s = -2.0 * b / (3.0*a + math.Copysign(math.Sqrt(disc), a))
	} else {
		s = -0.25 * a
	}
	as := a + 4.0*s
	bs := b + 3.0*s*(a+2.0*s)
	cs := c + s*(2.0*b+s*(3.0*a+4.0*s))
	ds := d + s*(c+s*(b+s*(a+s)))

	if rescale {
		const k = resolventScale
		as, bs, cs, ds = as/k, bs/k, cs/k, ds/k
		g = as*cs - (4.0/k)*ds - (1.0/3.0)*bs*bs
		h = (as*cs+(8.0/k)*ds-(2.0/9.0)*bs*bs)*(1.0/3.0)*bs - cs*(cs/k) - as*as*ds
	} else {
		g = as*cs - 4.0*ds - (1.0/3.0)*bs*bs
		h = (as*cs+8.0*ds-(2.0/9.0)*bs*bs)*(1.0/3.0)*bs - cs*cs - as*as*ds
	}
	if math.IsInf(g, 0) || math.IsInf(h, 0) {
		return 0, 0, false
	}
	return g, h, true
}

// fixAlphas recomputes the alpha that is smaller in magnitude, which is the
// less accurate one, picking among equivalent formulas.
func (m monicQuartic) fixAlphas(p, q *quadFactor) {
	if math.Abs(p.alpha) == math.Abs(q.alpha) {
		return
	}
	small, big := p, q
	if math.Abs(p.alpha) > math.Abs(q.alpha) {
		small, big = q, p
	}
	cands := [3]float64{
		// Always finite, so it seeds the search.
		m.a - big.alpha,
		(m.c - small.beta*big.alpha) / big.beta,
		(m.b - q.beta - p.beta) / big.alpha,
	}
	chosen := small.alpha
	var best float64
	for i, alpha := range cands {
		if math.IsInf(alpha, 0) || math.IsInf(big.alpha, 0) {
			continue
		}
		small.alpha = alpha
		if e := m.coeffError(*p, *q); i == 0 || e < best {
			chosen, best = alpha, e
		}
	}
	small.alpha = chosen
}

// refine polishes the factors with Newton's method on their coefficients,
// stopping as soon as an iteration doesn't improve the error.
func (m monicQuartic) refine(p, q *quadFactor) {
	a1, b1, a2, b2 := p.alpha, p.beta, q.alpha, q.beta
	e := m.productError(*p, *q)
	for range 8 {
		if e == 0 {
			break
		}
		f0 := b1*b2 - m.d
		f1 := b1*a2 + a1*b2 - m.c
		f2 := b1 + a1*a2 + b2 - m.b
		f3 := a1 + a2 - m.a
		k1 := a1 - a2
		det := b1*b1 - b1*(a2*k1+2.0*b2) + b2*(a1*k1+b2)
		if det == 0 {
			break
		}
		inv := 1.0 / det
		k2 := b2 - b1
		k3 := b1*a2 - a1*b2
		step0 := k1*f0 + k2*f1 + k3*f2 - (b1*k2+a1*k3)*f3
		step1 := (a1*k1+k2)*f0 - b1*k1*f1 - b1*k2*f2 - b1*k3*f3
		step2 := -k1*f0 - k2*f1 - k3*f2 + (a2*k3+b2*k2)*f3
		step3 := -(a2*k1+k2)*f0 + b2*k1*f1 + b2*k2*f2 + b2*k3*f3

		np := quadFactor{a1 - inv*step0, b1 - inv*step1}
		nq := quadFactor{a2 - inv*step2, b2 - inv*step3}
		ne := m.productError(np, nq)
		if !(ne < e) {
			break
		}
		*p, *q, e = np, nq, ne
		a1, b1, a2, b2 = p.alpha, p.beta, q.alpha, q.beta
	}
}

// coeffError measures how well p·q reproduces a, b and c.
func (m monicQuartic) coeffError(p, q quadFactor) float64 {
	return relativeError(p.alpha+q.alpha, m.a) +
		relativeError(p.beta+p.alpha*q.alpha+q.beta, m.b) +
		relativeError(p.beta*q.alpha+p.alpha*q.beta, m.c)
}

// productError is coeffError extended to d.
func (m monicQuartic) productError(p, q quadFactor) float64 {
	return m.coeffError(p, q) + relativeError(p.beta*q.beta, m.d)
}

// dominantCubicRoot returns the root of largest magnitude of the depressed
// cubic x³ + gx + h, per section 2.2 of Orellana and De Michele.
func dominantCubicRoot(g, h float64) float64 {
	q := (-1.0 / 3.0) * g
	r := 0.5 * h

	// For huge q or r, q³ and r² overflow. k then stands in for the sign of
	// r² - q³, computed from ratios.
	huge := !(math.Abs(q) < 1e102 && math.Abs(r) < 1e154)
	var k float64
	if huge {
		if math.Abs(q) < math.Abs(r) {
			k = 1.0 - q*((q/r)*(q/r))
		} else {
			k = ((r/q)*(r/q))/q - 1.0
			if math.Signbit(q) {
				k = -k
			}
		}
	}

	var x float64
	switch {
	case huge && r == 0:
		if g > 0 {
			x = 0
		} else {
			x = math.Sqrt(-g)
		}
	case (huge && k < 0) || (!huge && r*r < q*q*q):
		// Three real roots.
		var t float64
		if huge {
			t = r / q / math.Sqrt(q)
		} else {
			t = r / math.Sqrt(q*q*q)
		}
		x = -2.0 * math.Sqrt(q) * math.Copysign(math.Cos(math.Acos(math.Abs(t))*(1.0/3.0)), t)
	default:
		var u float64
		switch {
		case !huge:
			u = -r - math.Copysign(math.Sqrt(r*r-q*q*q), r)
		case math.Abs(q) < math.Abs(r):
			u = -r * (1.0 + math.Sqrt(k))
		default:
			u = -r - math.Copysign(math.Sqrt(math.Abs(q))*q*math.Sqrt(k), r)
		}
		u = math.Cbrt(u)
		x = u
		if u != 0 {
			x += q / u
		}
	}
	return polishCubicRoot(x, g, h)
}

// polishCubicRoot improves x as a root of x³ + gx + h with Newton's method,
// as long as that keeps reducing the residual.
func polishCubicRoot(x, g, h float64) float64 {
	const epsM = 2.22045e-16
	f := (x*x+g)*x + h
	if math.Abs(f) < epsM*max(x*x*x, g*x, h) {
		return x
	}
	for range 8 {
		df := 3.0*x*x + g
		if df == 0 {
			break
		}
		nx := x - f/df
		nf := (nx*nx+g)*nx + h
		if nf == 0 {
			return nx
		}
		if math.Abs(nf) >= math.Abs(f) {
			break
		}
		x, f = nx, nf
	}
	return x
}

// relativeError is the error of got relative to want, or the absolute error
// if want is zero.
func relativeError(got, want float64) float64 {
	if want == 0 {
		return math.Abs(got)
	}
	return math.Abs((got - want) / want)
}

// SolveITP finds a zero crossing of f in [a, b] with the ITP method of
// Oliveira and Takahashi, "An Enhancement of the Bisection Method Average
// Performance Preserving Minmax Optimality", ACM TOMS 47(1), 2020.
//
// ya and yb are f(a) and f(b), which callers usually know already; ya must be
// negative and yb positive. If f is monotonic in [a, b], the result is within
// epsilon of the crossing. epsilon must be larger than 2⁻⁶² (b - a).
//
// The parameters are fixed at n0 = 1, k1 = 0.2/(b - a) and k2 = 2, which
// takes at most one step more than bisection and converges much faster on
// smooth functions.
func SolveITP(f func(float64) float64, a, b, ya, yb, epsilon float64) float64 {
	const n0 = 1
	k1 := 0.2 / (b - a)
	half := int(max(math.Ceil(math.Log2((b-a)/epsilon))-1.0, 0.0))
	radius := epsilon * float64(uint64(1)<<(n0+half))
	for b-a > 2.0*epsilon {
		mid := 0.5 * (a + b)
		r := radius - 0.5*(b-a)

		// Interpolate with the secant, truncate towards the midpoint, then
		// project into the minmax interval.
		xf := (yb*a - ya*b) / (yb - ya)
		sigma := mid - xf
		delta := k1 * ((b - a) * (b - a))
		xt := mid
		if delta <= math.Abs(mid-xf) {
			xt = xf + math.Copysign(delta, sigma)
		}
		x := mid - math.Copysign(r, sigma)
		if math.Abs(xt-mid) <= r {
			x = xt
		}

		switch y := f(x); {
		case y > 0:
			b, yb = x, y
		case y < 0:
			a, ya = x, y
		default:
			return x
		}
		radius *= 0.5
	}
	return 0.5 * (a + b)
}
