package protocol

import (
	"sync"
	"sync/atomic"

	"github.com/avb-tools/avdecc-go/internal/goid"
)

// recursiveMutex is a mutex the owning goroutine may lock again. Each Lock
// must be paired with an Unlock.
type recursiveMutex struct {
	mu    sync.Mutex
	owner atomic.Uint64
	depth int
}

func (m *recursiveMutex) Lock() {
	id := goid.ID()
	if m.owner.Load() == id {
		m.depth++
		return
	}
	m.mu.Lock()
	m.owner.Store(id)
	m.depth = 1
}

func (m *recursiveMutex) Unlock() {
	if m.owner.Load() != goid.ID() {
		panic("protocol: unlock of a lock held by another goroutine")
	}
	m.depth--
	if m.depth == 0 {
		m.owner.Store(0)
		m.mu.Unlock()
	}
}

// isSelfLocked reports whether the calling goroutine holds the lock.
func (m *recursiveMutex) isSelfLocked() bool {
	return m.owner.Load() == goid.ID()
}
