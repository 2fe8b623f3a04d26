package timewarp

import "honnef.co/go/timecurve/variant"

// MarshalCBOR encodes the warp's variant. Custom warps encode only their
// handle; the remapper is persisted by whoever owns the arena.
func (w TimeWarp) MarshalCBOR() ([]byte, error) {
	return w.v.MarshalCBOR()
}

// UnmarshalCBOR decodes a warp encoded by MarshalCBOR. Decoded custom warps
// have no arena; see [TimeWarp.WithArena].
func (w *TimeWarp) UnmarshalCBOR(data []byte) error {
	var v variant.Variant
	if err := v.UnmarshalCBOR(data); err != nil {
		return err
	}
	out, err := FromVariant(v, nil)
	if err != nil {
		return err
	}
	*w = out
	return nil
}
