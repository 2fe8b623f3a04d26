package channel

import (
	"errors"
	"fmt"

	"honnef.co/go/timecurve/frametime"
	"honnef.co/go/timecurve/variant"
)

var ErrUnsortedKeys = errors.New("channel: keys not sorted by time")

type keyRecord struct {
	_            struct{} `cbor:",toarray"`
	Time         int64
	Value        float64
	Interp       uint8
	TangentMode  uint8
	WeightMode   uint8
	Arrive       float64
	Leave        float64
	ArriveWeight float64
	LeaveWeight  float64
}

type channelRecord struct {
	_          struct{} `cbor:",toarray"`
	Keys       []keyRecord
	Pre        uint8
	Post       uint8
	HasDefault bool
	Default    float64
}

// MarshalCBOR encodes the channel as an array of its keys, in order,
// followed by the extrapolation modes and the default value.
func (c *Channel) MarshalCBOR() ([]byte, error) {
	rec := channelRecord{
		Keys:       make([]keyRecord, len(c.keys)),
		Pre:        uint8(c.pre),
		Post:       uint8(c.post),
		HasDefault: c.hasDefault,
		Default:    c.def,
	}
	for i, k := range c.keys {
		rec.Keys[i] = keyRecord{
			Time:         int64(k.Time),
			Value:        k.Value,
			Interp:       uint8(k.Interp),
			TangentMode:  uint8(k.TangentMode),
			WeightMode:   uint8(k.Tangent.WeightMode),
			Arrive:       k.Tangent.Arrive,
			Leave:        k.Tangent.Leave,
			ArriveWeight: k.Tangent.ArriveWeight,
			LeaveWeight:  k.Tangent.LeaveWeight,
		}
	}
	return variant.EncMode.Marshal(rec)
}

// UnmarshalCBOR decodes a channel encoded by MarshalCBOR. Keys must be
// sorted by time and all modes must be known.
func (c *Channel) UnmarshalCBOR(data []byte) error {
	var rec channelRecord
	if err := variant.DecMode.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("channel: failed to decode: %w", err)
	}
	if !Extrapolation(rec.Pre).valid() || !Extrapolation(rec.Post).valid() {
		return fmt.Errorf("%w: extrapolation %d/%d", ErrInvalidEnum, rec.Pre, rec.Post)
	}
	keys := make([]Key, len(rec.Keys))
	for i, kr := range rec.Keys {
		k := Key{
			Time:        frametime.Frame(kr.Time),
			Value:       kr.Value,
			Interp:      InterpMode(kr.Interp),
			TangentMode: TangentMode(kr.TangentMode),
			Tangent: Tangent{
				Arrive:       kr.Arrive,
				Leave:        kr.Leave,
				ArriveWeight: kr.ArriveWeight,
				LeaveWeight:  kr.LeaveWeight,
				WeightMode:   WeightMode(kr.WeightMode),
			},
		}
		if !k.Interp.valid() || !k.TangentMode.valid() || !k.Tangent.WeightMode.valid() {
			return fmt.Errorf("%w: key %d", ErrInvalidEnum, i)
		}
		if i > 0 && k.Time < keys[i-1].Time {
			return fmt.Errorf("%w: key %d at %d follows %d", ErrUnsortedKeys, i, k.Time, keys[i-1].Time)
		}
		keys[i] = k
	}
	c.keys = keys
	c.pre, c.post = Extrapolation(rec.Pre), Extrapolation(rec.Post)
	c.def, c.hasDefault = rec.Default, rec.HasDefault
	c.changed()
	return nil
}
