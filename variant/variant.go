// Package variant implements an 8-byte value that holds either a literal
// float64 or a tagged 48-bit payload, by storing the payload in the unused bits
// of a NaN.
//
// All NaNs whose top 13 bits are set (sign, exponent, and quiet bit) are
// reserved. Bits 48 to 50 hold a 3-bit tag, and the low 48 bits hold the
// payload. A tag of zero is an ordinary NaN literal; tags 1 to 7 mark tagged
// values. The meaning of each tag is up to the user of the package.
//
// Literal NaNs that would be mistaken for tagged values are replaced with
// the canonical quiet NaN 0xFFF8_0000_0000_0000 when stored. All other
// literals, including other NaNs, round-trip bit for bit.
package variant

import (
	"fmt"
	"math"

	"honnef.co/go/timecurve/internal/diag"
)

const (
	boxMask      uint64 = 0xFFF8_0000_0000_0000
	tagShift            = 48
	tagMask      uint64 = 0x7 << tagShift
	canonicalNaN uint64 = boxMask

	// PayloadBits is the number of bits available to tagged payloads.
	PayloadBits = 48

	// MaxPayload is the largest payload that can be stored.
	MaxPayload uint64 = 1<<PayloadBits - 1
)

// Tag identifies the kind of a tagged payload. Valid tags are 1 to 7.
type Tag uint8

const MaxTag Tag = 7

func (t Tag) valid() bool { return t >= 1 && t <= MaxTag }

// Variant is either a literal float64 or a tagged payload.
//
// The zero value is the literal 0.
type Variant struct {
	bits uint64
}

// Literal returns a variant holding the literal f.
func Literal(f float64) Variant {
	var v Variant
	v.SetLiteral(f)
	return v
}

// Tagged returns a variant holding a tagged payload. See [Variant.SetPayload].
func Tagged(tag Tag, payload uint64) Variant {
	var v Variant
	v.SetPayload(tag, payload)
	return v
}

// FromBits returns the variant with the given bit pattern, as returned by
// [Variant.Bits].
func FromBits(bits uint64) Variant {
	return Variant{bits}
}

func (v Variant) Bits() uint64 { return v.bits }

// SetLiteral stores the literal f.
func (v *Variant) SetLiteral(f float64) {
	bits := math.Float64bits(f)
	if bits&boxMask == boxMask && bits&tagMask != 0 {
		bits = canonicalNaN
	}
	v.bits = bits
}

// SetPayload stores a tagged payload. The tag must be in the range [1, 7] and
// the payload must fit in 48 bits. Violating either is a programming error;
// the variant is left unchanged.
func (v *Variant) SetPayload(tag Tag, payload uint64) {
	if !diag.Assertf(tag.valid(), "variant tag %d out of range", tag) {
		return
	}
	if !diag.Assertf(payload <= MaxPayload, "variant payload %#x wider than 48 bits", payload) {
		return
	}
	v.bits = boxMask | uint64(tag)<<tagShift | payload
}

func (v Variant) IsLiteral() bool {
	return v.bits&boxMask != boxMask || v.bits&tagMask == 0
}

// Tag returns the variant's tag, or 0 for literals.
func (v Variant) Tag() Tag {
	if v.IsLiteral() {
		return 0
	}
	return Tag((v.bits & tagMask) >> tagShift)
}

// Payload returns the payload of a tagged variant, or 0 for literals.
func (v Variant) Payload() uint64 {
	if v.IsLiteral() {
		return 0
	}
	return v.bits & MaxPayload
}

// Literal returns the literal value. It returns false for tagged variants.
func (v Variant) Literal() (float64, bool) {
	if !v.IsLiteral() {
		return 0, false
	}
	return math.Float64frombits(v.bits), true
}

// Resolver maps tagged payloads to values.
type Resolver interface {
	Resolve(tag Tag, payload uint64) (float64, bool)
}

// Get returns the variant's value. Literals are returned as is; tagged values
// are resolved with r.
//
// If r is nil or cannot resolve the payload, for example because it refers to
// a provider that no longer exists, Get returns 0, or panics in builds with
// the curvedebug tag.
func (v Variant) Get(r Resolver) float64 {
	if f, ok := v.Literal(); ok {
		return f
	}
	if !diag.Assertf(r != nil, "no resolver for variant tag %d", v.Tag()) {
		return 0
	}
	f, ok := r.Resolve(v.Tag(), v.Payload())
	if !diag.Assertf(ok, "unresolved variant payload %#x with tag %d", v.Payload(), v.Tag()) {
		return 0
	}
	return f
}

func (v Variant) String() string {
	if f, ok := v.Literal(); ok {
		return fmt.Sprint(f)
	}
	return fmt.Sprintf("tag%d:%#x", v.Tag(), v.Payload())
}
