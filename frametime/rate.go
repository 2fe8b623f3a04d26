package frametime

import "math"

// Rate is a tick resolution, Numerator/Denominator ticks per second.
type Rate struct {
	Numerator   int32
	Denominator int32
}

func NewRate(num, den int32) Rate {
	return Rate{num, den}
}

func (r Rate) IsValid() bool {
	return r.Numerator > 0 && r.Denominator > 0
}

// AsDecimal returns the number of ticks per second.
func (r Rate) AsDecimal() float64 {
	return float64(r.Numerator) / float64(r.Denominator)
}

// AsInterval returns the duration of one tick in seconds.
func (r Rate) AsInterval() float64 {
	return float64(r.Denominator) / float64(r.Numerator)
}

// AsSeconds converts a tick time to seconds.
func (r Rate) AsSeconds(t Time) float64 {
	return (float64(t.Frame) + t.SubFrame) * r.AsInterval()
}

// AsFrameTime converts seconds to a tick time.
func (r Rate) AsFrameTime(seconds float64) Time {
	// Split off whole seconds so that large times keep their precision.
	whole := math.Trunc(seconds)
	frac := seconds - whole
	perSec := r.AsDecimal()
	if whole == seconds && r.Denominator == 1 {
		return At(Frame(whole) * Frame(r.Numerator))
	}
	return FromFloat(whole * perSec).AddFloat(frac * perSec)
}

// ConvertTime converts t from one tick resolution to another.
//
// The integral part is converted with integer arithmetic, so converting
// between rates whose ratio is exact does not lose precision.
func ConvertTime(t Time, from, to Rate) Time {
	if from == to {
		return t
	}
	num := int64(to.Numerator) * int64(from.Denominator)
	den := int64(to.Denominator) * int64(from.Numerator)
	return scaleRational(t, num, den)
}

// ScaleRational returns t * num / den. den must be positive.
func ScaleRational(t Time, num, den int64) Time {
	return scaleRational(t, num, den)
}

func scaleRational(t Time, num, den int64) Time {
	prod := int64(t.Frame) * num
	q := floorDiv(prod, den)
	r := prod - q*den
	return New(Frame(q), (float64(r)+t.SubFrame*float64(num))/float64(den))
}
