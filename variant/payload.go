package variant

import (
	"math"
	"reflect"
)

// Packable are the types that can be stored as typed payloads. Wider packed
// data must be assembled by the caller and stored with
// [Variant.SetPayload].
type Packable interface {
	~int8 | ~int16 | ~int32 | ~uint8 | ~uint16 | ~uint32 | ~float32
}

// SetTypedPayload stores p as the payload of v, with the given tag.
func SetTypedPayload[T Packable](v *Variant, tag Tag, p T) {
	rv := reflect.ValueOf(p)
	var bits uint64
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32:
		// Keep only the value's own width so negative values don't spill
		// into the tag bits.
		bits = uint64(rv.Int()) & (1<<(8*rv.Type().Size()) - 1)
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		bits = rv.Uint()
	case reflect.Float32:
		bits = uint64(math.Float32bits(float32(rv.Float())))
	default:
		panic("unreachable")
	}
	v.SetPayload(tag, bits)
}

// UnsafeCastPayload reinterprets the payload of v as a T. It does not check
// that v holds a T; a literal variant has a payload of 0.
func UnsafeCastPayload[T Packable](v Variant) T {
	var out T
	bits := v.Payload()
	rv := reflect.ValueOf(&out).Elem()
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32:
		width := 8 * rv.Type().Size()
		// Sign-extend.
		rv.SetInt(int64(bits<<(64-width)) >> (64 - width))
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		rv.SetUint(bits)
	case reflect.Float32:
		rv.SetFloat(float64(math.Float32frombits(uint32(bits))))
	default:
		panic("unreachable")
	}
	return out
}
