package variant

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	ErrInvalidTag     = errors.New("variant: invalid tag")
	ErrInvalidPayload = errors.New("variant: payload wider than 48 bits")
	ErrMissingLiteral = errors.New("variant: literal without value")
)

// EncMode is the CBOR encoding mode for variants and the types built on them.
// It is deterministic, and floats are written with full width and without
// canonicalizing NaNs, so that literals round-trip bit for bit.
var EncMode cbor.EncMode

// DecMode is the matching decoding mode. It rejects unknown fields.
var DecMode cbor.DecMode

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.ShortestFloat = cbor.ShortestFloatNone
	opts.NaNConvert = cbor.NaNConvertNone
	opts.InfConvert = cbor.InfConvertNone
	em, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	EncMode = em
	dm, err := cbor.DecOptions{
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	DecMode = dm
}

type record struct {
	IsLiteral bool     `cbor:"1,keyasint"`
	Literal   *float64 `cbor:"2,keyasint,omitempty"`
	Tag       uint8    `cbor:"3,keyasint,omitempty"`
	Payload   uint64   `cbor:"4,keyasint,omitempty"`
}

// MarshalCBOR encodes v as a map holding either the literal or the tag and
// payload.
func (v Variant) MarshalCBOR() ([]byte, error) {
	var rec record
	if f, ok := v.Literal(); ok {
		rec.IsLiteral = true
		rec.Literal = &f
	} else {
		rec.Tag = uint8(v.Tag())
		rec.Payload = v.Payload()
	}
	return EncMode.Marshal(rec)
}

func (v *Variant) UnmarshalCBOR(data []byte) error {
	var rec record
	if err := DecMode.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("variant: failed to decode: %w", err)
	}
	if rec.IsLiteral {
		if rec.Literal == nil {
			return ErrMissingLiteral
		}
		v.SetLiteral(*rec.Literal)
		return nil
	}
	if !Tag(rec.Tag).valid() {
		return fmt.Errorf("%w: %d", ErrInvalidTag, rec.Tag)
	}
	if rec.Payload > MaxPayload {
		return fmt.Errorf("%w: %#x", ErrInvalidPayload, rec.Payload)
	}
	v.SetPayload(Tag(rec.Tag), rec.Payload)
	return nil
}
