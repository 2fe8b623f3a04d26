package frametime

import "fmt"

// BoundKind describes one side of a [Range].
type BoundKind uint8

const (
	// Open bounds are unbounded; the bound's time is ignored.
	Open BoundKind = iota
	Inclusive
	Exclusive
)

type Bound struct {
	Time Time
	Kind BoundKind
}

func OpenBound() Bound            { return Bound{} }
func InclusiveBound(t Time) Bound { return Bound{t, Inclusive} }
func ExclusiveBound(t Time) Bound { return Bound{t, Exclusive} }

func (b Bound) IsOpen() bool      { return b.Kind == Open }
func (b Bound) IsInclusive() bool { return b.Kind == Inclusive }
func (b Bound) IsExclusive() bool { return b.Kind == Exclusive }

// Range is an interval of times.
//
// The zero value is the infinite range.
type Range struct {
	Lower Bound
	Upper Bound
}

// Infinite returns the range containing every time.
func Infinite() Range { return Range{} }

// Empty returns a range containing no time.
func Empty() Range {
	return Range{ExclusiveBound(Time{}), ExclusiveBound(Time{})}
}

// Between returns the half-open range [a, b).
func Between(a, b Time) Range {
	return Range{InclusiveBound(a), ExclusiveBound(b)}
}

// InclusiveRange returns the closed range [a, b].
func InclusiveRange(a, b Time) Range {
	return Range{InclusiveBound(a), InclusiveBound(b)}
}

// AtLeast returns [a, ∞).
func AtLeast(a Time) Range {
	return Range{Lower: InclusiveBound(a)}
}

// GreaterThan returns (a, ∞).
func GreaterThan(a Time) Range {
	return Range{Lower: ExclusiveBound(a)}
}

// LessThan returns (-∞, b).
func LessThan(b Time) Range {
	return Range{Upper: ExclusiveBound(b)}
}

// AtMost returns (-∞, b].
func AtMost(b Time) Range {
	return Range{Upper: InclusiveBound(b)}
}

func (r Range) HasLower() bool { return r.Lower.Kind != Open }
func (r Range) HasUpper() bool { return r.Upper.Kind != Open }

// IsBounded reports whether both sides of the range are bounded.
func (r Range) IsBounded() bool { return r.HasLower() && r.HasUpper() }

func (r Range) IsEmpty() bool {
	if !r.IsBounded() {
		return false
	}
	switch r.Lower.Time.Compare(r.Upper.Time) {
	case 1:
		return true
	case 0:
		return !(r.Lower.IsInclusive() && r.Upper.IsInclusive())
	default:
		return false
	}
}

func (r Range) Contains(t Time) bool {
	switch r.Lower.Kind {
	case Inclusive:
		if t.Before(r.Lower.Time) {
			return false
		}
	case Exclusive:
		if !t.After(r.Lower.Time) {
			return false
		}
	}
	switch r.Upper.Kind {
	case Inclusive:
		if t.After(r.Upper.Time) {
			return false
		}
	case Exclusive:
		if !t.Before(r.Upper.Time) {
			return false
		}
	}
	return true
}

// Size returns the length of a bounded range. It returns false for ranges
// with an open side.
func (r Range) Size() (Time, bool) {
	if !r.IsBounded() {
		return Time{}, false
	}
	if r.IsEmpty() {
		return Time{}, true
	}
	return r.Upper.Time.Sub(r.Lower.Time), true
}

// lowerLess reports whether lower bound a admits times before lower bound b.
func lowerLess(a, b Bound) bool {
	if a.IsOpen() {
		return !b.IsOpen()
	}
	if b.IsOpen() {
		return false
	}
	switch a.Time.Compare(b.Time) {
	case -1:
		return true
	case 1:
		return false
	default:
		return a.IsInclusive() && b.IsExclusive()
	}
}

// upperGreater reports whether upper bound a admits times after upper bound b.
func upperGreater(a, b Bound) bool {
	if a.IsOpen() {
		return !b.IsOpen()
	}
	if b.IsOpen() {
		return false
	}
	switch a.Time.Compare(b.Time) {
	case 1:
		return true
	case -1:
		return false
	default:
		return a.IsInclusive() && b.IsExclusive()
	}
}

// Hull returns the smallest range containing both r and o.
func (r Range) Hull(o Range) Range {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	out := r
	if lowerLess(o.Lower, r.Lower) {
		out.Lower = o.Lower
	}
	if upperGreater(o.Upper, r.Upper) {
		out.Upper = o.Upper
	}
	return out
}

// Intersect returns the range of times contained in both r and o.
func (r Range) Intersect(o Range) Range {
	out := r
	if lowerLess(r.Lower, o.Lower) {
		out.Lower = o.Lower
	}
	if upperGreater(r.Upper, o.Upper) {
		out.Upper = o.Upper
	}
	if out.IsEmpty() {
		return Empty()
	}
	return out
}

func (r Range) Overlaps(o Range) bool {
	return !r.Intersect(o).IsEmpty()
}

// Include returns the smallest range containing r and t.
func (r Range) Include(t Time) Range {
	return r.Hull(InclusiveRange(t, t))
}

func (r Range) String() string {
	var lo, hi string
	switch r.Lower.Kind {
	case Open:
		lo = "(-inf"
	case Inclusive:
		lo = "[" + r.Lower.Time.String()
	case Exclusive:
		lo = "(" + r.Lower.Time.String()
	}
	switch r.Upper.Kind {
	case Open:
		hi = "+inf)"
	case Inclusive:
		hi = r.Upper.Time.String() + "]"
	case Exclusive:
		hi = r.Upper.Time.String() + ")"
	}
	return fmt.Sprintf("%s, %s", lo, hi)
}
