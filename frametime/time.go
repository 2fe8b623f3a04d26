package frametime

import (
	"fmt"
	"math"
)

// Frame is an integral tick number.
type Frame int64

// Time is a position on a tick timeline. SubFrame is always in [0, 1).
type Time struct {
	Frame    Frame
	SubFrame float64
}

// At returns the time at the start of frame f.
func At(f Frame) Time {
	return Time{Frame: f}
}

// New returns f + sub, normalized so that the sub-frame lies in [0, 1).
func New(f Frame, sub float64) Time {
	if sub >= 0 && sub < 1 {
		return Time{f, sub}
	}
	fl := math.Floor(sub)
	f += Frame(fl)
	sub -= fl
	if sub >= 1 {
		// x - floor(x) can round up to 1 for tiny negative x.
		f++
		sub = 0
	}
	return Time{f, sub}
}

// FromFloat converts a fractional tick count to a Time.
func FromFloat(x float64) Time {
	fl := math.Floor(x)
	return New(Frame(fl), x-fl)
}

// Float returns the time as a fractional tick count.
//
// Precision degrades far away from zero; subtract a nearby origin first when
// doing math on times.
func (t Time) Float() float64 {
	return float64(t.Frame) + t.SubFrame
}

func (t Time) Add(o Time) Time {
	return New(t.Frame+o.Frame, t.SubFrame+o.SubFrame)
}

func (t Time) Sub(o Time) Time {
	return New(t.Frame-o.Frame, t.SubFrame-o.SubFrame)
}

// AddFloat returns t + d ticks.
func (t Time) AddFloat(d float64) Time {
	fl := math.Floor(d)
	return New(t.Frame+Frame(fl), t.SubFrame+(d-fl))
}

// Scale returns t multiplied by f.
func (t Time) Scale(f float64) Time {
	return FromFloat(float64(t.Frame) * f).AddFloat(t.SubFrame * f)
}

// Compare returns -1, 0, or 1 depending on whether t is before, equal to, or
// after o.
func (t Time) Compare(o Time) int {
	switch {
	case t.Frame < o.Frame:
		return -1
	case t.Frame > o.Frame:
		return 1
	case t.SubFrame < o.SubFrame:
		return -1
	case t.SubFrame > o.SubFrame:
		return 1
	default:
		return 0
	}
}

func (t Time) Before(o Time) bool { return t.Compare(o) < 0 }
func (t Time) After(o Time) bool  { return t.Compare(o) > 0 }
func (t Time) Equal(o Time) bool  { return t == o }

func (t Time) FloorToFrame() Frame { return t.Frame }

func (t Time) CeilToFrame() Frame {
	if t.SubFrame == 0 {
		return t.Frame
	}
	return t.Frame + 1
}

func (t Time) RoundToFrame() Frame {
	if t.SubFrame < 0.5 {
		return t.Frame
	}
	return t.Frame + 1
}

// Abs returns the absolute value of t.
func (t Time) Abs() Time {
	if t.Frame < 0 {
		return Time{}.Sub(t)
	}
	return t
}

func Min(a, b Time) Time {
	if b.Before(a) {
		return b
	}
	return a
}

func Max(a, b Time) Time {
	if b.After(a) {
		return b
	}
	return a
}

func (t Time) String() string {
	if t.SubFrame == 0 {
		return fmt.Sprintf("%d", t.Frame)
	}
	return fmt.Sprintf("%d+%g", t.Frame, t.SubFrame)
}

// floorDiv returns floor(a / b) for b > 0.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && (a < 0) {
		q--
	}
	return q
}

// FloorMod returns t modulo d, in [0, d), along with the number of whole
// periods removed. d must be positive.
func FloorMod(t Time, d Frame) (Time, int64) {
	n := floorDiv(int64(t.Frame), int64(d))
	return Time{t.Frame - Frame(n)*d, t.SubFrame}, n
}
