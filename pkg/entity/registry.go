package entity

import (
	"fmt"

	"github.com/avb-tools/avdecc-go/pkg/handle"
	"github.com/avb-tools/avdecc-go/pkg/status"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// Dynamic entity ID suffix range.
const (
	minDynamicSuffix = 0x0001
	maxDynamicSuffix = 0xFFFD
)

// Handle identifies a registered local entity.
type Handle = handle.Handle

// Registry tracks the local entities of one protocol interface and the
// dynamic entity IDs it issued.
//
// Registry is not safe for concurrent use; the owning protocol interface
// serializes access.
type Registry struct {
	arena  handle.Arena[*LocalEntity]
	byID   map[uid.ID]Handle
	issued map[uid.ID]struct{}
	cursor uint16
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[uid.ID]Handle),
		issued: make(map[uid.ID]struct{}),
		cursor: minDynamicSuffix,
	}
}

// Register adds e. Its entity ID must not collide with another registered
// entity.
func (r *Registry) Register(e *LocalEntity) (Handle, error) {
	if e == nil {
		return Handle{}, fmt.Errorf("%w: nil entity", status.ErrInvalidParameters)
	}
	id := e.ID()
	if _, exists := r.byID[id]; exists {
		return Handle{}, fmt.Errorf("%w: %s", status.ErrDuplicateLocalEntityID, id)
	}
	h := r.arena.Insert(e)
	r.byID[id] = h
	return h, nil
}

// Unregister removes the entity behind h.
func (r *Registry) Unregister(h Handle) (*LocalEntity, error) {
	e, err := r.arena.Remove(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", status.ErrUnknownLocalEntity, err)
	}
	delete(r.byID, e.ID())
	return e, nil
}

// Get returns the entity behind h.
func (r *Registry) Get(h Handle) (*LocalEntity, error) {
	e, err := r.arena.Get(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", status.ErrUnknownLocalEntity, err)
	}
	return e, nil
}

// Resolve finds a registered entity by ID.
func (r *Registry) Resolve(id uid.ID) (*LocalEntity, bool) {
	h, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	e, err := r.arena.Get(h)
	if err != nil {
		return nil, false
	}
	return e, true
}

// IsLocal reports whether id belongs to a registered entity.
func (r *Registry) IsLocal(id uid.ID) bool {
	_, ok := r.byID[id]
	return ok
}

// IsLocalController reports whether id belongs to a registered entity
// with controller capabilities.
func (r *Registry) IsLocalController(id uid.ID) bool {
	e, ok := r.Resolve(id)
	return ok && e.Common.IsController()
}

// All returns the registered entities in registration slot order.
func (r *Registry) All() []*LocalEntity {
	out := make([]*LocalEntity, 0, r.arena.Len())
	for _, e := range r.arena.All() {
		out = append(out, e)
	}
	return out
}

// Controllers returns the registered entities implementing a controller.
func (r *Registry) Controllers() []*LocalEntity {
	var out []*LocalEntity
	for _, e := range r.arena.All() {
		if e.Common.IsController() {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	return r.arena.Len()
}

// IssueDynamicEID returns an entity ID derived from mac that is neither
// registered nor already issued. The ID stays reserved until released.
func (r *Registry) IssueDynamicEID(mac wire.MacAddress) (uid.ID, error) {
	if mac.IsZero() {
		return uid.Null, fmt.Errorf("%w: zero MAC address", status.ErrInvalidParameters)
	}
	var prefix uint64
	for _, b := range mac {
		prefix = prefix<<8 | uint64(b)
	}

	const span = maxDynamicSuffix - minDynamicSuffix + 1
	for range span {
		suffix := r.cursor
		r.cursor++
		if r.cursor > maxDynamicSuffix {
			r.cursor = minDynamicSuffix
		}

		id := uid.New(prefix<<16 | uint64(suffix))
		if _, used := r.issued[id]; used {
			continue
		}
		if r.IsLocal(id) {
			continue
		}
		r.issued[id] = struct{}{}
		return id, nil
	}
	return uid.Null, fmt.Errorf("%w: dynamic entity IDs exhausted for %s", status.ErrInternalError, mac)
}

// ReleaseDynamicEID makes id available to IssueDynamicEID again.
func (r *Registry) ReleaseDynamicEID(id uid.ID) {
	delete(r.issued, id)
}
