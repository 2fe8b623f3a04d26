package variant

import (
	"fmt"
	"sync"

	"honnef.co/go/timecurve/internal/diag"
)

// Handle is a generation-checked reference into a [Registry]. It fits in a
// variant payload: 31 bits of slot index, 16 bits of generation, and one bit
// marking weak references.
//
// The zero Handle never refers to anything.
type Handle uint64

const (
	indexBits      = 31
	generationBits = 16
	indexMask      = 1<<indexBits - 1
	generationMask = 1<<generationBits - 1
	weakBit        = Handle(1) << (indexBits + generationBits)
)

func makeHandle(index uint32, gen uint16) Handle {
	return Handle(index) | Handle(gen)<<indexBits
}

func (h Handle) Index() uint32      { return uint32(h & indexMask) }
func (h Handle) Generation() uint16 { return uint16((h >> indexBits) & generationMask) }
func (h Handle) IsWeak() bool       { return h&weakBit != 0 }

// Weak returns a weak reference to the same value. Weak references don't keep
// the value alive; looking them up after the last strong reference has been
// released fails.
func (h Handle) Weak() Handle { return h | weakBit }

// Strong returns h without its weak bit.
func (h Handle) Strong() Handle { return h &^ weakBit }

func (h Handle) String() string {
	s := fmt.Sprintf("%d@%d", h.Index(), h.Generation())
	if h.IsWeak() {
		s += "(weak)"
	}
	return s
}

type slot[T any] struct {
	value T
	gen   uint16
	refs  int32
}

// Registry owns values referenced by handles. Values are reference counted;
// once the last strong reference is released, the value is dropped and all
// outstanding handles to it stop resolving.
//
// A Registry is safe for concurrent use.
type Registry[T any] struct {
	mu    sync.RWMutex
	slots []slot[T]
	free  []uint32
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{}
}

// Add stores v and returns a strong handle to it.
func (r *Registry[T]) Add(v T) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = uint32(len(r.slots))
		if !diag.Assert(idx <= indexMask, "registry is full") {
			return 0
		}
		// Generations start at 1 so that the zero Handle is never valid.
		r.slots = append(r.slots, slot[T]{gen: 1})
	}
	s := &r.slots[idx]
	s.value = v
	s.refs = 1
	return makeHandle(idx, s.gen)
}

// get returns the live slot h refers to. The caller must hold the lock.
func (r *Registry[T]) get(h Handle) *slot[T] {
	idx := h.Index()
	if int(idx) >= len(r.slots) {
		return nil
	}
	s := &r.slots[idx]
	if s.refs == 0 || s.gen != h.Generation() {
		return nil
	}
	return s
}

// Retain adds a strong reference. It returns the new strong handle, or false
// if h no longer refers to a value.
func (r *Registry[T]) Retain(h Handle) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.get(h)
	if s == nil {
		return 0, false
	}
	s.refs++
	return h.Strong(), true
}

// Release drops a strong reference. Releasing a weak handle does nothing.
func (r *Registry[T]) Release(h Handle) {
	if h.IsWeak() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.get(h)
	if !diag.Assertf(s != nil, "release of dead handle %v", h) {
		return
	}
	s.refs--
	if s.refs > 0 {
		return
	}
	var zero T
	s.value = zero
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	r.free = append(r.free, h.Index())
}

// Lookup returns the value h refers to.
func (r *Registry[T]) Lookup(h Handle) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.get(h)
	if s == nil {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Replace swaps the value h refers to, keeping all handles valid.
func (r *Registry[T]) Replace(h Handle, v T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.get(h)
	if s == nil {
		return false
	}
	s.value = v
	return true
}

// Len returns the number of live values.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots) - len(r.free)
}

// Provider is implemented by registered values that evaluate to a number.
type Provider interface {
	Value() float64
}

// Resolve implements [Resolver] by interpreting payloads as handles. It
// succeeds if the handle is live and its value implements [Provider]. Tags
// are not checked.
func (r *Registry[T]) Resolve(_ Tag, payload uint64) (float64, bool) {
	v, ok := r.Lookup(Handle(payload))
	if !ok {
		return 0, false
	}
	p, ok := any(v).(Provider)
	if !ok {
		return 0, false
	}
	return p.Value(), true
}

// SetHandle stores h as the payload of v, with the given tag.
func (v *Variant) SetHandle(tag Tag, h Handle) {
	v.SetPayload(tag, uint64(h))
}

// Handle returns the payload of v as a handle.
func (v Variant) Handle() Handle {
	return Handle(v.Payload())
}
