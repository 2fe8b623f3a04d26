// Package timecurve provides piecewise polynomial curves over a tick
// timeline, with closed-form evaluation, inversion, differentiation and
// integration.
//
// # Interpolations and pieces
//
// An [Interpolation] is a single analytic shape: [Constant], [Linear],
// [Quadratic], [Cubic], [Quartic], [CubicBezier], or [WeightedCubic]. All
// shapes express their math in ticks relative to an origin, which keeps
// evaluation precise far away from time zero.
//
// Shapes can be differentiated and integrated, moving one polynomial degree
// down or up: constant ↔ linear ↔ quadratic ↔ cubic ↔ quartic. Quartics
// cannot be integrated, as finding the roots of a quintic has no closed form,
// and weighted cubics support neither operation.
//
// Every shape can be solved for the times at which it has a given value. The
// solvers ([SolveQuadratic], [SolveCubic], [SolveQuartic]) are closed-form,
// with [SolveITP] as a bracketing fallback where the closed form is not
// robust.
//
// A [Piece] pairs an interpolation with the range of times over which it is
// authoritative.
//
// # Piecewise curves
//
// A [PiecewiseCurve] is an ordered sequence of non-overlapping pieces. It can
// be evaluated, searched for the time nearest to a hint at which it has a
// given value ([PiecewiseCurve.InverseEvaluate]), and enumerated for all such
// times ([PiecewiseCurve.Roots]).
//
// Keyframe channels that produce piecewise curves live in the channel
// package; time remapping built on top of them lives in the timewarp package.
//
// # Logging
//
// This package and its sub-packages don't log unless a logger is configured
// with [SetLogger].
//
// # Literature
//
// This package makes use of the following ideas:
//   - [A Primer on Bézier Curves]
//   - [Algorithm 1010: Boosting Efficiency in Solving Quartic Equations with No Compromise in Accuracy] by Orellana and De Michele
//   - [An Enhancement of the Bisection Method Average Performance Preserving Minmax Optimality] by Oliveira and Takahashi
//   - [How to solve a cubic equation, revisited] by Christoph Peters
//
// [A Primer on Bézier Curves]: https://pomax.github.io/bezierinfo/
// [Algorithm 1010: Boosting Efficiency in Solving Quartic Equations with No Compromise in Accuracy]: https://cristiano-de-michele.netlify.app/publication/orellana-2020/orellana-2020.pdf
// [An Enhancement of the Bisection Method Average Performance Preserving Minmax Optimality]: https://dl.acm.org/doi/10.1145/3423597
// [How to solve a cubic equation, revisited]: https://momentsingraphics.de/CubicRoots.html
package timecurve
