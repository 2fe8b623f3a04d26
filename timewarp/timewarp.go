// Package timewarp implements time warps: rules that map times in one
// domain, such as the time of a containing sequence, to times in another,
// such as the local time of nested content.
//
// A [TimeWarp] is a single [variant.Variant]. Literal values are play rates;
// tagged values pack the parameters of the other fixed kinds into the
// payload, or refer to a [Remapper] stored in an [Arena] for warps that are
// driven by curves.
package timewarp

import (
	"errors"
	"fmt"
	"math"

	"honnef.co/go/timecurve/frametime"
	"honnef.co/go/timecurve/internal/diag"
	"honnef.co/go/timecurve/variant"
)

var (
	ErrPayloadOverflow = errors.New("timewarp: parameters do not fit in a payload")
	ErrInvalidRate     = errors.New("timewarp: invalid rate")
	ErrInvalidKind     = errors.New("timewarp: invalid kind")
)

// Kind identifies the rule a time warp applies.
type Kind uint8

const (
	// KindPlayRate multiplies time by a constant rate.
	KindPlayRate Kind = iota
	// KindFixedTime maps all times to a single time.
	KindFixedTime
	// KindRateConversion rescales time from one tick resolution to another.
	KindRateConversion
	// KindLoop wraps time into [0, duration).
	KindLoop
	// KindClamp clamps time to [0, max].
	KindClamp
	// KindCustom delegates to a Remapper.
	KindCustom
)

var kindNames = []string{"play-rate", "fixed-time", "rate-conversion", "loop", "clamp", "custom"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindNames) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKind, k)
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidKind, b)
}

// Tags used for the non-literal kinds. A kind's tag equals its Kind value.
const (
	tagFixedTime      = variant.Tag(KindFixedTime)
	tagRateConversion = variant.Tag(KindRateConversion)
	tagLoop           = variant.Tag(KindLoop)
	tagClamp          = variant.Tag(KindClamp)
	tagCustom         = variant.Tag(KindCustom)
)

const (
	subFrameBits  = 16
	subFrameScale = 1 << subFrameBits

	ratioBits       = 24
	maxRatioPart    = 1<<ratioBits - 1
	ratioDenomShift = ratioBits
)

// TimeWarp is a time remapping rule.
//
// The zero value is a play rate of zero, which maps all times to zero; use
// [Identity] for a warp that leaves time alone. Custom warps hold a handle
// into an arena and must be released with [TimeWarp.Release] unless they are
// weak.
type TimeWarp struct {
	v     variant.Variant
	arena *Arena
}

// Identity returns a warp that maps every time to itself.
func Identity() TimeWarp { return PlayRate(1) }

// PlayRate returns a warp that multiplies time by rate.
func PlayRate(rate float64) TimeWarp {
	return TimeWarp{v: variant.Literal(rate)}
}

// FixedTime returns a warp that maps every time to t. The sub-frame is
// stored with 16 bits of precision, and the frame must fit in an int32.
func FixedTime(t frametime.Time) TimeWarp {
	f := t.Frame
	if !diag.Assertf(f >= math.MinInt32 && f <= math.MaxInt32, "fixed time %v out of range", t) {
		f = min(max(f, math.MinInt32), math.MaxInt32)
	}
	sub := uint64(math.Round(t.SubFrame * subFrameScale))
	if sub >= subFrameScale {
		sub = subFrameScale - 1
	}
	payload := uint64(uint32(int32(f))) | sub<<32
	return TimeWarp{v: variant.Tagged(tagFixedTime, payload)}
}

// RateConversion returns a warp that converts times from one tick resolution
// to another. The reduced ratio between the two must have a numerator and
// denominator below 2^24.
func RateConversion(from, to frametime.Rate) (TimeWarp, error) {
	if !from.IsValid() || !to.IsValid() {
		return TimeWarp{}, fmt.Errorf("%w: %v to %v", ErrInvalidRate, from, to)
	}
	num := uint64(to.Numerator) * uint64(from.Denominator)
	den := uint64(to.Denominator) * uint64(from.Numerator)
	g := gcd(num, den)
	num, den = num/g, den/g
	if num > maxRatioPart || den > maxRatioPart {
		return TimeWarp{}, fmt.Errorf("%w: ratio %d/%d", ErrPayloadOverflow, num, den)
	}
	return TimeWarp{v: variant.Tagged(tagRateConversion, num|den<<ratioDenomShift)}, nil
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Loop returns a warp that wraps time into [0, duration). duration must be
// positive.
func Loop(duration frametime.Frame) TimeWarp {
	if !diag.Assertf(duration > 0 && duration <= math.MaxInt32, "invalid loop duration %d", duration) {
		duration = max(1, min(duration, math.MaxInt32))
	}
	var v variant.Variant
	variant.SetTypedPayload(&v, tagLoop, int32(duration))
	return TimeWarp{v: v}
}

// Clamp returns a warp that clamps time to [0, maxTime]. maxTime must not be
// negative.
func Clamp(maxTime frametime.Frame) TimeWarp {
	if !diag.Assertf(maxTime >= 0 && maxTime <= math.MaxInt32, "invalid clamp %d", maxTime) {
		maxTime = max(0, min(maxTime, math.MaxInt32))
	}
	var v variant.Variant
	variant.SetTypedPayload(&v, tagClamp, int32(maxTime))
	return TimeWarp{v: v}
}

// Custom returns a warp that delegates to the remapper h refers to. The warp
// takes over the reference held by h.
func Custom(arena *Arena, h variant.Handle) TimeWarp {
	var v variant.Variant
	v.SetHandle(tagCustom, h)
	return TimeWarp{v: v, arena: arena}
}

// NewCustom stores r in the arena and returns a warp referring to it.
func NewCustom(arena *Arena, r Remapper) TimeWarp {
	return Custom(arena, arena.Add(r))
}

// FromVariant returns the warp stored in v. Custom warps resolve their
// remappers in arena.
func FromVariant(v variant.Variant, arena *Arena) (TimeWarp, error) {
	if !v.IsLiteral() && v.Tag() > tagCustom {
		return TimeWarp{}, fmt.Errorf("%w: tag %d", ErrInvalidKind, v.Tag())
	}
	return TimeWarp{v: v, arena: arena}, nil
}

// Variant returns the warp's encoding.
func (w TimeWarp) Variant() variant.Variant { return w.v }

func (w TimeWarp) Kind() Kind {
	if w.v.IsLiteral() {
		return KindPlayRate
	}
	return Kind(w.v.Tag())
}

// Rate returns the play rate of a KindPlayRate warp.
func (w TimeWarp) Rate() (float64, bool) { return w.v.Literal() }

func (w TimeWarp) fixedTime() frametime.Time {
	p := w.v.Payload()
	f := frametime.Frame(int32(uint32(p)))
	return frametime.New(f, float64(p>>32)/subFrameScale)
}

func (w TimeWarp) ratio() (num, den int64) {
	p := w.v.Payload()
	return int64(p & maxRatioPart), int64((p >> ratioDenomShift) & maxRatioPart)
}

func (w TimeWarp) window() frametime.Frame {
	return frametime.Frame(variant.UnsafeCastPayload[int32](w.v))
}

// Remapper returns the remapper of a custom warp. It returns false for other
// kinds and for custom warps whose remapper no longer exists.
func (w TimeWarp) Remapper() (Remapper, bool) {
	if w.Kind() != KindCustom || w.arena == nil {
		return nil, false
	}
	return w.arena.Lookup(w.v.Handle())
}

// remapper is like Remapper but reports dangling references.
func (w TimeWarp) remapper() (Remapper, bool) {
	r, ok := w.Remapper()
	return r, diag.Assertf(ok, "time warp refers to missing remapper %v", w.v.Handle())
}

// WithArena returns w with its custom remapper resolved in arena. It is
// needed after decoding a custom warp.
func (w TimeWarp) WithArena(arena *Arena) TimeWarp {
	w.arena = arena
	return w
}

// Clone returns a copy of w. Copies of strong custom warps hold their own
// reference and must be released separately.
func (w TimeWarp) Clone() TimeWarp {
	if w.Kind() != KindCustom || w.arena == nil || w.v.Handle().IsWeak() {
		return w
	}
	h, ok := w.arena.Retain(w.v.Handle())
	if !diag.Assertf(ok, "clone of released time warp %v", w.v.Handle()) {
		return w
	}
	w.v.SetHandle(tagCustom, h)
	return w
}

// Release drops the reference held by a strong custom warp. It does nothing
// for other warps.
func (w TimeWarp) Release() {
	if w.Kind() == KindCustom && w.arena != nil {
		w.arena.Release(w.v.Handle())
	}
}

// Weak returns a copy of w that doesn't hold a reference. It must not outlive
// the strong warp it was made from; using it afterwards remaps time as the
// identity.
func (w TimeWarp) Weak() TimeWarp {
	if w.Kind() == KindCustom {
		w.v.SetHandle(tagCustom, w.v.Handle().Weak())
	}
	return w
}

func (w TimeWarp) String() string {
	switch w.Kind() {
	case KindPlayRate:
		r, _ := w.Rate()
		return fmt.Sprintf("play-rate(%g)", r)
	case KindFixedTime:
		return fmt.Sprintf("fixed-time(%v)", w.fixedTime())
	case KindRateConversion:
		num, den := w.ratio()
		return fmt.Sprintf("rate-conversion(%d/%d)", num, den)
	case KindLoop, KindClamp:
		return fmt.Sprintf("%v(%d)", w.Kind(), w.window())
	default:
		return fmt.Sprintf("%v(%v)", w.Kind(), w.v.Handle())
	}
}

// RemapTime maps t to the warp's output domain.
func (w TimeWarp) RemapTime(t frametime.Time) frametime.Time {
	switch w.Kind() {
	case KindPlayRate:
		r, _ := w.Rate()
		return t.Scale(r)
	case KindFixedTime:
		return w.fixedTime()
	case KindRateConversion:
		num, den := w.ratio()
		return frametime.ScaleRational(t, num, den)
	case KindLoop:
		local, _ := frametime.FloorMod(t, w.window())
		return local
	case KindClamp:
		return frametime.Min(frametime.Max(t, frametime.Time{}), frametime.At(w.window()))
	case KindCustom:
		r, ok := w.remapper()
		if !ok {
			return t
		}
		return r.RemapTime(t)
	default:
		diag.Assertf(false, "unknown time warp kind %d", w.Kind())
		return t
	}
}
