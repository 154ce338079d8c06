// Package handle provides generation-checked handles into a slot arena.
//
// A Handle names a slot by index and generation. Removing a value bumps
// the slot generation, so handles held past removal are detected as stale
// instead of silently resolving to whatever reuses the slot.
package handle

import (
	"errors"
	"fmt"
	"iter"
)

// ErrStale is returned for a handle whose slot was released or reused.
var ErrStale = errors.New("stale handle")

// Handle refers to a value stored in an Arena. The zero Handle is never
// valid.
type Handle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.generation == 0
}

// String formats the handle as index:generation.
func (h Handle) String() string {
	return fmt.Sprintf("%d:%d", h.index, h.generation)
}

type slot[T any] struct {
	value      T
	generation uint32
	used       bool
}

// Arena stores values addressed by Handle. It is not safe for concurrent
// use.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

// Insert stores v and returns its handle. Released slots are reused.
func (a *Arena[T]) Insert(v T) Handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot[T]{})
	}
	s := &a.slots[idx]
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	s.value = v
	s.used = true
	a.count++
	return Handle{index: idx, generation: s.generation}
}

// Get returns the value for h.
func (a *Arena[T]) Get(h Handle) (T, error) {
	s, err := a.lookup(h)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.value, nil
}

// Remove releases h and returns its value.
func (a *Arena[T]) Remove(h Handle) (T, error) {
	var zero T
	s, err := a.lookup(h)
	if err != nil {
		return zero, err
	}
	v := s.value
	s.value = zero
	s.used = false
	a.free = append(a.free, h.index)
	a.count--
	return v, nil
}

// Len returns the number of stored values.
func (a *Arena[T]) Len() int {
	return a.count
}

// All iterates the stored values in slot order.
func (a *Arena[T]) All() iter.Seq2[Handle, T] {
	return func(yield func(Handle, T) bool) {
		for i := range a.slots {
			s := &a.slots[i]
			if !s.used {
				continue
			}
			if !yield(Handle{index: uint32(i), generation: s.generation}, s.value) {
				return
			}
		}
	}
}

func (a *Arena[T]) lookup(h Handle) (*slot[T], error) {
	if h.IsZero() || int(h.index) >= len(a.slots) {
		return nil, fmt.Errorf("%w: %s", ErrStale, h)
	}
	s := &a.slots[h.index]
	if !s.used || s.generation != h.generation {
		return nil, fmt.Errorf("%w: %s", ErrStale, h)
	}
	return s, nil
}
