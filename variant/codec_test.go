package variant

import (
	"math"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCBORRoundTrip(t *testing.T) {
	vs := []Variant{
		Literal(0),
		Literal(math.Copysign(0, -1)),
		Literal(1.0 / 3),
		Literal(math.Inf(-1)),
		FromBits(0x7FF0_0000_0000_0001),
		FromBits(canonicalNaN | 0x1234),
		Tagged(1, 0),
		Tagged(7, MaxPayload),
	}
	for _, v := range vs {
		b, err := cbor.Marshal(v)
		require.NoError(t, err)
		var got Variant
		require.NoError(t, cbor.Unmarshal(b, &got))
		assert.Equal(t, v.Bits(), got.Bits(), "%v", v)
	}
}

func TestCBORRejects(t *testing.T) {
	enc := func(v any) []byte {
		b, err := EncMode.Marshal(v)
		require.NoError(t, err)
		return b
	}
	var v Variant
	err := v.UnmarshalCBOR(enc(map[int]any{1: false, 3: 0, 4: 1}))
	assert.ErrorIs(t, err, ErrInvalidTag)
	err = v.UnmarshalCBOR(enc(map[int]any{1: false, 3: 2, 4: uint64(1) << 50}))
	assert.ErrorIs(t, err, ErrInvalidPayload)
	err = v.UnmarshalCBOR(enc(map[int]any{1: true}))
	assert.ErrorIs(t, err, ErrMissingLiteral)
	err = v.UnmarshalCBOR(enc(map[int]any{1: true, 2: 1.0, 9: "x"}))
	assert.Error(t, err)
}
