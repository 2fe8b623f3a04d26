package channel

import (
	"errors"
	"fmt"
	"math"

	"honnef.co/go/timecurve/frametime"
)

// ErrInvalidEnum is returned when decoding an unknown enumeration value.
var ErrInvalidEnum = errors.New("channel: invalid enumeration value")

// InterpMode selects the shape of the segment that starts at a key.
type InterpMode uint8

const (
	InterpConstant InterpMode = iota
	InterpLinear
	InterpCubic
)

// TangentMode describes how a key's tangents are maintained.
type TangentMode uint8

const (
	// TangentAuto tangents are computed by [Channel.AutoSetTangents].
	TangentAuto TangentMode = iota
	// TangentUser tangents are set by the user; arrive and leave are equal.
	TangentUser
	// TangentBreak tangents are set by the user; arrive and leave are
	// independent.
	TangentBreak
	// TangentSmartAuto tangents are computed by [Channel.AutoSetTangents],
	// avoiding overshoot.
	TangentSmartAuto
)

// WeightMode selects which of a key's tangents have explicit weights.
type WeightMode uint8

const (
	WeightNone WeightMode = iota
	WeightArrive
	WeightLeave
	WeightBoth
)

// Extrapolation selects how a channel is evaluated outside of its keys.
type Extrapolation uint8

const (
	// ExtrapConstant holds the value of the nearest key.
	ExtrapConstant Extrapolation = iota
	// ExtrapNone produces no value.
	ExtrapNone
	// ExtrapLinear continues the slope at the nearest key.
	ExtrapLinear
	// ExtrapCycle repeats the keys.
	ExtrapCycle
	// ExtrapCycleWithOffset repeats the keys, offsetting each repetition
	// by the difference between the last and first key's values.
	ExtrapCycleWithOffset
	// ExtrapOscillate repeats the keys, mirroring every other repetition
	// in time.
	ExtrapOscillate
)

var (
	interpNames  = []string{"constant", "linear", "cubic"}
	tangentNames = []string{"auto", "user", "break", "smart-auto"}
	weightNames  = []string{"none", "arrive", "leave", "both"}
	extrapNames  = []string{"constant", "none", "linear", "cycle", "cycle-with-offset", "oscillate"}
)

func enumString[E ~uint8](e E, names []string) string {
	if int(e) < len(names) {
		return names[e]
	}
	return fmt.Sprintf("%T(%d)", e, uint8(e))
}

func parseEnum[E ~uint8](dst *E, text []byte, names []string) error {
	for i, name := range names {
		if name == string(text) {
			*dst = E(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidEnum, text)
}

func (m InterpMode) String() string    { return enumString(m, interpNames) }
func (m TangentMode) String() string   { return enumString(m, tangentNames) }
func (m WeightMode) String() string    { return enumString(m, weightNames) }
func (m Extrapolation) String() string { return enumString(m, extrapNames) }

func (m InterpMode) MarshalText() ([]byte, error)    { return []byte(m.String()), nil }
func (m TangentMode) MarshalText() ([]byte, error)   { return []byte(m.String()), nil }
func (m WeightMode) MarshalText() ([]byte, error)    { return []byte(m.String()), nil }
func (m Extrapolation) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *InterpMode) UnmarshalText(b []byte) error    { return parseEnum(m, b, interpNames) }
func (m *TangentMode) UnmarshalText(b []byte) error   { return parseEnum(m, b, tangentNames) }
func (m *WeightMode) UnmarshalText(b []byte) error    { return parseEnum(m, b, weightNames) }
func (m *Extrapolation) UnmarshalText(b []byte) error { return parseEnum(m, b, extrapNames) }

func (m InterpMode) valid() bool    { return int(m) < len(interpNames) }
func (m TangentMode) valid() bool   { return int(m) < len(tangentNames) }
func (m WeightMode) valid() bool    { return int(m) < len(weightNames) }
func (m Extrapolation) valid() bool { return int(m) < len(extrapNames) }

func (m Extrapolation) cycles() bool {
	return m == ExtrapCycle || m == ExtrapCycleWithOffset || m == ExtrapOscillate
}

// Tangent describes the slopes of a curve around a key.
//
// Slopes are in value units per tick. Weights are the lengths of the tangent
// handles in (tick, value) space and are only used for the sides selected by
// WeightMode. Unweighted handles extend a third of the way to the
// neighboring key.
type Tangent struct {
	Arrive       float64
	Leave        float64
	ArriveWeight float64
	LeaveWeight  float64
	WeightMode   WeightMode
}

func (t Tangent) arriveWeighted() bool {
	return (t.WeightMode == WeightArrive || t.WeightMode == WeightBoth) && t.ArriveWeight > 0
}

func (t Tangent) leaveWeighted() bool {
	return (t.WeightMode == WeightLeave || t.WeightMode == WeightBoth) && t.LeaveWeight > 0
}

// Key is a keyframe.
type Key struct {
	Time        frametime.Frame
	Value       float64
	Interp      InterpMode
	TangentMode TangentMode
	Tangent     Tangent
}

func (k Key) at() frametime.Time { return frametime.At(k.Time) }

// handle returns the extent of a tangent handle with the given slope and
// weight, in ticks and value units.
func handle(slope, weight float64) (dx, dy float64) {
	angle := math.Atan(slope)
	return weight * math.Cos(angle), weight * math.Sin(angle)
}
