// Package frametime provides exact tick-based time values, tick resolutions,
// and ranges over them.
//
// A [Time] is an integral [Frame] plus a sub-frame fraction in [0, 1). Keeping
// the integral part separate from the fraction keeps arithmetic exact for the
// frame part, no matter how far from zero a time lies. Curve math converts
// times to floating point only after subtracting a nearby origin (see
// [Time.Sub]), so the converted values stay small.
//
// A [Rate] describes how many ticks make up a second for a given context, and
// [ConvertTime] moves times between contexts.
//
// A [Range] is an interval of times whose bounds may each be inclusive,
// exclusive, or open (unbounded).
package frametime
