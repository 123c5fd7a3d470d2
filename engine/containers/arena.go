package containers

import "github.com/cockroachdb/errors"

var ErrStaleHandle = errors.New("stale or invalid handle")

// Handle addresses a slot in an Arena. The generation tells a live slot apart
// from a reused one, so a handle to a removed value never resolves again.
// The zero Handle is never issued.
type Handle struct {
	Index      uint32
	Generation uint32
}

func (h Handle) IsNil() bool {
	return h.Generation == 0
}

type slot[T any] struct {
	value      T
	generation uint32
	occupied   bool
}

// Arena is a dense slice of values addressed by generational handles.
// Removed slots are recycled through a free list.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

func NewArena[T any](capacity int) *Arena[T] {
	return &Arena[T]{
		slots: make([]slot[T], 0, capacity),
	}
}

func (a *Arena[T]) Insert(value T) Handle {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.value = value
		s.occupied = true
		a.count++
		return Handle{Index: idx, Generation: s.generation}
	}
	a.slots = append(a.slots, slot[T]{value: value, generation: 1, occupied: true})
	a.count++
	return Handle{Index: uint32(len(a.slots) - 1), Generation: 1}
}

func (a *Arena[T]) Get(h Handle) (T, bool) {
	if !a.valid(h) {
		var zero T
		return zero, false
	}
	return a.slots[h.Index].value, true
}

// Ptr returns a pointer into the arena. It is invalidated by the next Insert.
func (a *Arena[T]) Ptr(h Handle) (*T, error) {
	if !a.valid(h) {
		return nil, errors.Wrapf(ErrStaleHandle, "handle %d/%d", h.Index, h.Generation)
	}
	return &a.slots[h.Index].value, nil
}

func (a *Arena[T]) Remove(h Handle) (T, bool) {
	var zero T
	if !a.valid(h) {
		return zero, false
	}
	s := &a.slots[h.Index]
	v := s.value
	s.value = zero
	s.occupied = false
	s.generation++
	// skip zero on wrap so the nil handle stays unique
	if s.generation == 0 {
		s.generation = 1
	}
	a.free = append(a.free, h.Index)
	a.count--
	return v, true
}

func (a *Arena[T]) Contains(h Handle) bool {
	return a.valid(h)
}

func (a *Arena[T]) Len() int {
	return a.count
}

// Each visits live values in slot order until fn returns false.
func (a *Arena[T]) Each(fn func(Handle, T) bool) {
	for i := range a.slots {
		s := &a.slots[i]
		if !s.occupied {
			continue
		}
		if !fn(Handle{Index: uint32(i), Generation: s.generation}, s.value) {
			return
		}
	}
}

func (a *Arena[T]) valid(h Handle) bool {
	if h.IsNil() || int(h.Index) >= len(a.slots) {
		return false
	}
	s := a.slots[h.Index]
	return s.occupied && s.generation == h.Generation
}
