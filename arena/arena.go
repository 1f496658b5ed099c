// Package arena implements generational slot storage: O(1) get/insert/remove
// with handles that stay safe across slot reuse.
package arena

import "sort"

// InvalidSlotIndex is the slot index carried by the reserved invalid handle.
const InvalidSlotIndex = ^uint32(0)

// Handle identifies an entry in an Arena. Two handles are equal iff both
// their slot index and generation match.
type Handle struct {
	SlotIndex  uint32
	Generation uint64
}

// InvalidHandle returns the reserved handle that never names a live slot.
func InvalidHandle() Handle {
	return Handle{SlotIndex: InvalidSlotIndex}
}

// IsInvalid reports whether h is the reserved invalid handle.
func (h Handle) IsInvalid() bool {
	return h.SlotIndex == InvalidSlotIndex
}

type slot[T any] struct {
	value      T
	generation uint64
	occupied   bool
}

// Arena is a generational arena mapping Handles to values of type T.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32 // free slot indices, kept sorted ascending
	count int
}

// New creates an empty Arena.
func New[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Len returns the number of live entries.
func (a *Arena[T]) Len() int {
	return a.count
}

// Contains reports whether h names a live slot.
func (a *Arena[T]) Contains(h Handle) bool {
	if h.IsInvalid() || int(h.SlotIndex) >= len(a.slots) {
		return false
	}
	s := &a.slots[h.SlotIndex]
	return s.occupied && s.generation == h.Generation
}

// Get returns a mutable pointer to the value named by h, or false if h is
// stale or invalid.
func (a *Arena[T]) Get(h Handle) (*T, bool) {
	if !a.Contains(h) {
		return nil, false
	}
	return &a.slots[h.SlotIndex].value, true
}

// GetUnknownGen looks up a slot by index alone, ignoring generation, and
// returns the handle that currently owns it. Used to recover a handle when
// only the slot index survived (e.g. an external id).
func (a *Arena[T]) GetUnknownGen(slotIndex uint32) (*T, Handle, bool) {
	if int(slotIndex) >= len(a.slots) {
		return nil, Handle{}, false
	}
	s := &a.slots[slotIndex]
	if !s.occupied {
		return nil, Handle{}, false
	}
	return &s.value, Handle{SlotIndex: slotIndex, Generation: s.generation}, true
}

// Get2Mut returns independent mutable references to h1 and h2. If h1 == h2,
// the first return value is populated (when live) and the second is always
// nil — callers must not assume they address distinct values in that case.
func (a *Arena[T]) Get2Mut(h1, h2 Handle) (*T, *T) {
	if h1 == h2 {
		v, _ := a.Get(h1)
		return v, nil
	}
	v1, _ := a.Get(h1)
	v2, _ := a.Get(h2)
	return v1, v2
}

// Insert reuses the free slot with the lowest index, if any, otherwise
// appends a fresh slot at generation 0. Returns the handle just written.
func (a *Arena[T]) Insert(v T) Handle {
	var idx uint32
	if len(a.free) > 0 {
		idx = a.free[0]
		a.free = a.free[1:]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot[T]{})
	}
	s := &a.slots[idx]
	s.value = v
	s.occupied = true
	a.count++
	return Handle{SlotIndex: idx, Generation: s.generation}
}

// Remove removes the value named by h, incrementing its slot's generation so
// any handle still pointing at it becomes stale. Returns the removed value,
// or false if h was already stale or invalid.
func (a *Arena[T]) Remove(h Handle) (T, bool) {
	var zero T
	if !a.Contains(h) {
		return zero, false
	}
	s := &a.slots[h.SlotIndex]
	v := s.value
	s.value = zero
	s.occupied = false
	s.generation++
	a.count--

	i := sort.Search(len(a.free), func(i int) bool { return a.free[i] >= h.SlotIndex })
	a.free = append(a.free, 0)
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = h.SlotIndex
	return v, true
}

// MustGet returns a mutable pointer to the value named by h, panicking if h
// is stale or invalid. Mirrors the panic-on-bad-index convention used by
// indexing operators in languages that support them.
func (a *Arena[T]) MustGet(h Handle) *T {
	v, ok := a.Get(h)
	if !ok {
		panic("arena.Arena: stale or invalid handle")
	}
	return v
}

// Iter calls fn for every live (Handle, *T) pair in slot order, stopping
// early if fn returns false.
func (a *Arena[T]) Iter(fn func(Handle, *T) bool) {
	for i := range a.slots {
		s := &a.slots[i]
		if !s.occupied {
			continue
		}
		h := Handle{SlotIndex: uint32(i), Generation: s.generation}
		if !fn(h, &s.value) {
			return
		}
	}
}

// Snapshot is the serializable form of a single slot, live or free. A
// slice of these in slot-index order carries enough information to
// reconstruct an Arena with identical handles: Restore never renumbers
// a slot or resets a generation, so any Handle a caller already holds
// is still valid against the restored Arena.
type Snapshot[T any] struct {
	Value      T      `msgpack:"value"`
	Generation uint64 `msgpack:"generation"`
	Occupied   bool   `msgpack:"occupied"`
}

// Export captures every slot, live or free, in slot-index order.
func (a *Arena[T]) Export() []Snapshot[T] {
	out := make([]Snapshot[T], len(a.slots))
	for i, s := range a.slots {
		out[i] = Snapshot[T]{Value: s.value, Generation: s.generation, Occupied: s.occupied}
	}
	return out
}

// Restore rebuilds an Arena from a slice produced by Export, recomputing
// the free list and live count from each slot's Occupied flag.
func Restore[T any](slots []Snapshot[T]) *Arena[T] {
	a := &Arena[T]{slots: make([]slot[T], len(slots))}
	for i, s := range slots {
		a.slots[i] = slot[T]{value: s.Value, generation: s.Generation, occupied: s.Occupied}
		if s.Occupied {
			a.count++
		} else {
			a.free = append(a.free, uint32(i))
		}
	}
	return a
}
