// Package channel implements keyframe channels: sequences of keys that
// describe a curve over time, with extrapolation before and after the keys.
//
// Channels materialize their keys as pieces of a [timecurve.PiecewiseCurve]
// on demand and cache the result. The caches are safe for concurrent readers;
// mutating a channel requires exclusive access.
package channel

import (
	"slices"
	"sort"
	"sync/atomic"

	"honnef.co/go/timecurve"
	"honnef.co/go/timecurve/frametime"
	"honnef.co/go/timecurve/internal/diag"
)

// Channel is a sequence of keys, sorted by time, plus extrapolation modes
// and an optional default value used when there are no keys.
//
// The zero value is an empty channel with constant extrapolation. A Channel
// must not be copied after first use; use [Channel.Clone].
type Channel struct {
	keys       []Key
	pre, post  Extrapolation
	def        float64
	hasDefault bool
	version    uint64

	lastPiece atomic.Pointer[cachedPiece]
	curve     atomic.Pointer[cachedCurve]
}

type cachedPiece struct {
	version uint64
	piece   timecurve.Piece
}

type cachedCurve struct {
	version uint64
	curve   timecurve.PiecewiseCurve
}

// New returns a channel holding the given keys, which need not be sorted.
func New(keys ...Key) *Channel {
	c := &Channel{keys: slices.Clone(keys)}
	slices.SortStableFunc(c.keys, compareKeys)
	return c
}

func compareKeys(a, b Key) int {
	switch {
	case a.Time < b.Time:
		return -1
	case a.Time > b.Time:
		return 1
	default:
		return 0
	}
}

// changed invalidates all derived state.
func (c *Channel) changed() {
	c.version++
	c.lastPiece.Store(nil)
	c.curve.Store(nil)
}

// Version returns a counter that changes every time the channel is modified.
func (c *Channel) Version() uint64 { return c.version }

// Keys returns a copy of the channel's keys.
func (c *Channel) Keys() []Key { return slices.Clone(c.keys) }

func (c *Channel) NumKeys() int { return len(c.keys) }

func (c *Channel) Key(i int) Key { return c.keys[i] }

// Clone returns a deep copy of the channel, without its caches.
func (c *Channel) Clone() *Channel {
	return &Channel{
		keys:       slices.Clone(c.keys),
		pre:        c.pre,
		post:       c.post,
		def:        c.def,
		hasDefault: c.hasDefault,
	}
}

// insertionPoint returns the index after all keys at or before t.
func (c *Channel) insertionPoint(t frametime.Frame) int {
	return sort.Search(len(c.keys), func(i int) bool { return c.keys[i].Time > t })
}

// AddKey inserts k after all existing keys at the same time and returns its
// index.
func (c *Channel) AddKey(k Key) int {
	i := c.insertionPoint(k.Time)
	c.keys = slices.Insert(c.keys, i, k)
	c.changed()
	return i
}

// UpdateOrAddKey replaces the first key at k's time, or adds k if there is
// none. It returns the key's index.
func (c *Channel) UpdateOrAddKey(k Key) int {
	i := sort.Search(len(c.keys), func(i int) bool { return c.keys[i].Time >= k.Time })
	if i < len(c.keys) && c.keys[i].Time == k.Time {
		c.keys[i] = k
		c.changed()
		return i
	}
	return c.AddKey(k)
}

// SetKey replaces the key at index i, keeping the keys sorted. It returns the
// key's new index.
func (c *Channel) SetKey(i int, k Key) int {
	c.keys = slices.Delete(c.keys, i, i+1)
	return c.AddKey(k)
}

// SetKeyValue changes the value of the key at index i.
func (c *Channel) SetKeyValue(i int, v float64) {
	c.keys[i].Value = v
	c.changed()
}

// DeleteKeys removes the keys at the given indices.
func (c *Channel) DeleteKeys(indices ...int) {
	del := make(map[int]bool, len(indices))
	for _, i := range indices {
		del[i] = true
	}
	out := c.keys[:0]
	for i, k := range c.keys {
		if !del[i] {
			out = append(out, k)
		}
	}
	clear(c.keys[len(out):])
	c.keys = out
	c.changed()
}

// SetKeyTimes moves the keys at the given indices to new times. Keys are
// re-sorted afterwards, which changes their indices.
func (c *Channel) SetKeyTimes(indices []int, times []frametime.Frame) {
	if !diag.Assertf(len(indices) == len(times), "%d indices but %d times", len(indices), len(times)) {
		return
	}
	for j, i := range indices {
		c.keys[i].Time = times[j]
	}
	slices.SortStableFunc(c.keys, compareKeys)
	c.changed()
}

// SetExtrapolation sets the extrapolation before the first and after the
// last key.
func (c *Channel) SetExtrapolation(pre, post Extrapolation) {
	c.pre, c.post = pre, post
	c.changed()
}

func (c *Channel) PreExtrapolation() Extrapolation  { return c.pre }
func (c *Channel) PostExtrapolation() Extrapolation { return c.post }

// SetDefault sets the value of a channel without keys.
func (c *Channel) SetDefault(v float64) {
	c.def, c.hasDefault = v, true
	c.changed()
}

func (c *Channel) ClearDefault() {
	c.def, c.hasDefault = 0, false
	c.changed()
}

// Default returns the default value, if one is set.
func (c *Channel) Default() (float64, bool) { return c.def, c.hasDefault }

// Range returns the closed range spanned by the keys. It returns false for
// channels without keys.
func (c *Channel) Range() (frametime.Range, bool) {
	if len(c.keys) == 0 {
		return frametime.Empty(), false
	}
	return frametime.InclusiveRange(c.keys[0].at(), c.keys[len(c.keys)-1].at()), true
}
