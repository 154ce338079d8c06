package adp

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/avb-tools/avdecc-go/pkg/entity"
	"github.com/avb-tools/avdecc-go/pkg/executor"
	"github.com/avb-tools/avdecc-go/pkg/status"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// Protocol constants.
const (
	// DefaultSweepInterval is how often expired entities are looked for.
	DefaultSweepInterval = 250 * time.Millisecond

	// MinAvailableDuration and MaxAvailableDuration bound the duration a
	// local entity advertises itself as available for.
	MinAvailableDuration = 2 * time.Second
	MaxAvailableDuration = 62 * time.Second

	// ValidTimeUnit is the unit of the valid_time field.
	ValidTimeUnit = 2 * time.Second
)

// Delegate receives the output of the state machine. Every method is called
// with Config.Locker held.
type Delegate interface {
	// SendAdpdu encodes and transmits p.
	SendAdpdu(p *wire.Adpdu) error

	// OnEntityOnline reports a newly discovered entity.
	OnEntityOnline(e entity.Entity)

	// OnEntityUpdated reports a change in the advertisement of a known entity.
	OnEntityUpdated(e entity.Entity)

	// OnEntityOffline reports an entity that departed or expired.
	OnEntityOffline(id uid.ID)
}

// Config configures a StateMachine.
type Config struct {
	// Executor runs the timers. Required.
	Executor *executor.Executor

	// Locker guards the state machine. It is shared with the owner so timer
	// callbacks serialize with received frames. Required.
	Locker sync.Locker

	// Delegate receives events and outgoing messages. Required.
	Delegate Delegate

	// MacAddress is the source address of ENTITY_DISCOVER messages.
	MacAddress wire.MacAddress

	// SweepInterval is the liveness check period.
	SweepInterval time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the protocol defaults.
func DefaultConfig() Config {
	return Config{SweepInterval: DefaultSweepInterval}
}

// StateMachine is the ADP state machine of one protocol interface.
type StateMachine struct {
	cfg    Config
	clock  clock.Clock
	logger *slog.Logger

	advertisers map[uid.ID]*advertiser
	entities    map[uid.ID]*discoveredEntity

	sweep     *executor.Timer
	discovery *executor.Timer
	closed    bool
}

type advertiser struct {
	entity *entity.LocalEntity
	period time.Duration
	timer  *executor.Timer
}

type discoveredEntity struct {
	entity    entity.Entity
	deadlines map[uint16]time.Time
}

// New creates a state machine and starts its liveness sweep.
func New(cfg Config) (*StateMachine, error) {
	if cfg.Executor == nil || cfg.Locker == nil || cfg.Delegate == nil {
		return nil, fmt.Errorf("%w: adp needs an executor, a locker and a delegate", status.ErrInvalidParameters)
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	sm := &StateMachine{
		cfg:         cfg,
		clock:       cfg.Executor.Clock(),
		logger:      cfg.Logger,
		advertisers: make(map[uid.ID]*advertiser),
		entities:    make(map[uid.ID]*discoveredEntity),
	}
	sm.sweep = cfg.Executor.Every(cfg.SweepInterval, sm.locked(sm.expireEntities))
	return sm, nil
}

// locked wraps a timer callback so it runs under the lock and is skipped
// once the state machine is closed.
func (sm *StateMachine) locked(fn func()) func() {
	return func() {
		sm.cfg.Locker.Lock()
		defer sm.cfg.Locker.Unlock()
		if sm.closed {
			return
		}
		fn()
	}
}

// EnableAdvertising starts advertising le. It announces le immediately and
// then every availableDuration/2. Calling it again for an advertising
// entity changes the period.
func (sm *StateMachine) EnableAdvertising(le *entity.LocalEntity, availableDuration time.Duration) error {
	if availableDuration < MinAvailableDuration || availableDuration > MaxAvailableDuration {
		return fmt.Errorf("%w: available duration %s outside [%s, %s]",
			status.ErrInvalidParameters, availableDuration, MinAvailableDuration, MaxAvailableDuration)
	}

	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	if sm.closed {
		return status.ErrInterfaceShutdown
	}

	validTime := uint8(availableDuration / ValidTimeUnit)
	for i := range le.Interfaces {
		le.Interfaces[i].ValidTime = validTime
	}

	id := le.ID()
	adv, exists := sm.advertisers[id]
	if exists {
		adv.timer.Stop()
	} else {
		adv = &advertiser{entity: le}
		sm.advertisers[id] = adv
	}
	adv.period = availableDuration / 2
	adv.timer = sm.cfg.Executor.Every(adv.period, sm.locked(func() { sm.announce(adv) }))

	sm.logger.Info("advertising enabled", "entity_id", id, "available_duration", availableDuration)
	sm.announce(adv)
	return nil
}

// DisableAdvertising stops advertising the entity and sends
// ENTITY_DEPARTING on each of its interfaces. It reports whether the entity
// was advertising.
func (sm *StateMachine) DisableAdvertising(id uid.ID) bool {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	return sm.disableLocked(id)
}

func (sm *StateMachine) disableLocked(id uid.ID) bool {
	adv, ok := sm.advertisers[id]
	if !ok {
		return false
	}
	adv.timer.Stop()
	delete(sm.advertisers, id)

	for i := range adv.entity.Interfaces {
		p := adv.entity.DepartingAdpdu(&adv.entity.Interfaces[i])
		sm.send(p)
		sm.handleDeparting(p)
	}
	sm.logger.Info("advertising disabled", "entity_id", id)
	return true
}

// SetNeedsAdvertise announces an advertising entity now and restarts its
// period. It reports whether the entity was advertising.
func (sm *StateMachine) SetNeedsAdvertise(id uid.ID) bool {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	adv, ok := sm.advertisers[id]
	if !ok || sm.closed {
		return false
	}
	sm.announce(adv)
	adv.timer.Reset(adv.period)
	return true
}

// IsAdvertising reports whether the entity is being advertised.
func (sm *StateMachine) IsAdvertising(id uid.ID) bool {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	_, ok := sm.advertisers[id]
	return ok
}

// Discover sends ENTITY_DISCOVER. A Null target addresses every entity.
// Local entities matching the target announce themselves as well.
func (sm *StateMachine) Discover(target uid.ID) error {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	if sm.closed {
		return status.ErrInterfaceShutdown
	}
	return sm.discoverLocked(target)
}

func (sm *StateMachine) discoverLocked(target uid.ID) error {
	if err := sm.cfg.Delegate.SendAdpdu(entity.DiscoverAdpdu(sm.cfg.MacAddress, target)); err != nil {
		return err
	}
	sm.answerDiscover(target)
	return nil
}

// SetAutomaticDiscoveryDelay sends a global ENTITY_DISCOVER every d.
// Zero disables it.
func (sm *StateMachine) SetAutomaticDiscoveryDelay(d time.Duration) {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	if sm.closed {
		return
	}
	if sm.discovery != nil {
		sm.discovery.Stop()
		sm.discovery = nil
	}
	if d <= 0 {
		return
	}
	sm.discovery = sm.cfg.Executor.Every(d, sm.locked(func() {
		if err := sm.discoverLocked(uid.Null); err != nil {
			sm.logger.Warn("automatic discovery failed", "error", err)
		}
	}))
}

// Forget drops a discovered entity without reporting it offline. A later
// advertisement brings it back online.
func (sm *StateMachine) Forget(id uid.ID) error {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	if _, ok := sm.entities[id]; !ok {
		return fmt.Errorf("%w: %s", status.ErrUnknownRemoteEntity, id)
	}
	delete(sm.entities, id)
	return nil
}

// Entity returns a copy of a discovered entity.
func (sm *StateMachine) Entity(id uid.ID) (entity.Entity, bool) {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	de, ok := sm.entities[id]
	if !ok {
		return entity.Entity{}, false
	}
	return de.entity.Clone(), true
}

// Entities returns a copy of every discovered entity, ordered by ID.
func (sm *StateMachine) Entities() []entity.Entity {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	out := make([]entity.Entity, 0, len(sm.entities))
	for _, de := range sm.entities {
		out = append(out, de.entity.Clone())
	}
	slices.SortFunc(out, func(a, b entity.Entity) int {
		av, bv := a.ID().Value(), b.ID().Value()
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	})
	return out
}

// HandleAdpdu processes a received ADP message.
func (sm *StateMachine) HandleAdpdu(p *wire.Adpdu) {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	if sm.closed {
		return
	}

	switch p.MessageType {
	case wire.AdpMessageTypeEntityAvailable:
		if sm.ownAdvertisement(p) {
			return
		}
		sm.handleAvailable(p)
	case wire.AdpMessageTypeEntityDeparting:
		if sm.ownAdvertisement(p) {
			return
		}
		sm.handleDeparting(p)
	case wire.AdpMessageTypeEntityDiscover:
		// Our own discover was already answered when it was sent.
		if p.SrcAddress == sm.cfg.MacAddress {
			return
		}
		sm.answerDiscover(p.EntityID)
	default:
		sm.logger.Debug("ignoring adp message", "message_type", p.MessageType, "entity_id", p.EntityID)
	}
}

// DepartAll disables advertising for every local entity.
func (sm *StateMachine) DepartAll() {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	for id := range sm.advertisers {
		sm.disableLocked(id)
	}
}

// Close stops every timer. Received messages are ignored afterwards.
func (sm *StateMachine) Close() {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	if sm.closed {
		return
	}
	sm.closed = true
	sm.sweep.Stop()
	if sm.discovery != nil {
		sm.discovery.Stop()
	}
	for _, adv := range sm.advertisers {
		adv.timer.Stop()
	}
}

// ownAdvertisement reports whether p describes an entity this state
// machine advertises. Those are tracked when sent, so looped-back copies
// are dropped.
func (sm *StateMachine) ownAdvertisement(p *wire.Adpdu) bool {
	_, ok := sm.advertisers[p.EntityID]
	return ok
}

func (sm *StateMachine) announce(adv *advertiser) {
	for i := range adv.entity.Interfaces {
		info := &adv.entity.Interfaces[i]
		info.AvailableIndex++
		p := adv.entity.Adpdu(wire.AdpMessageTypeEntityAvailable, info)
		sm.send(p)
		sm.handleAvailable(p)
	}
}

func (sm *StateMachine) answerDiscover(target uid.ID) {
	for id, adv := range sm.advertisers {
		if target.IsNull() || target == id {
			sm.announce(adv)
		}
	}
}

func (sm *StateMachine) send(p *wire.Adpdu) {
	if err := sm.cfg.Delegate.SendAdpdu(p); err != nil {
		sm.logger.Warn("failed to send adpdu",
			"message_type", p.MessageType, "entity_id", p.EntityID, "error", err)
	}
}

func (sm *StateMachine) handleAvailable(p *wire.Adpdu) {
	if p.EntityCapabilities.Test(wire.EntityCapabilityEntityNotReady) {
		sm.logger.Debug("ignoring entity not ready", "entity_id", p.EntityID)
		return
	}

	common, info := entity.FromAdpdu(p)
	id := common.EntityID
	validTime := max(info.ValidTime, entity.MinValidTime)
	deadline := sm.clock.Now().Add(time.Duration(validTime) * ValidTimeUnit)

	de, known := sm.entities[id]
	var prev entity.InterfaceInformation
	var hasPrev bool
	if known {
		if cur, ok := de.entity.Interface(info.InterfaceIndex); ok {
			prev, hasPrev = *cur, true
		}
		restarted := !de.entity.Common.SameIncarnation(common) ||
			(hasPrev && (prev.MacAddress != info.MacAddress || info.AvailableIndex <= prev.AvailableIndex))
		if restarted {
			sm.logger.Info("entity restarted", "entity_id", id,
				"interface_index", info.InterfaceIndex, "available_index", info.AvailableIndex)
			delete(sm.entities, id)
			sm.cfg.Delegate.OnEntityOffline(id)
			known = false
		}
	}

	if !known {
		de = &discoveredEntity{
			entity:    entity.New(common, info),
			deadlines: map[uint16]time.Time{info.InterfaceIndex: deadline},
		}
		sm.entities[id] = de
		sm.logger.Debug("entity online", "entity_id", id, "interface_index", info.InterfaceIndex)
		sm.cfg.Delegate.OnEntityOnline(de.entity.Clone())
		return
	}

	de.deadlines[info.InterfaceIndex] = deadline
	if de.entity.Common.Equal(common) && hasPrev && prev.Equal(info) {
		return
	}
	de.entity.Common = common
	de.entity.SetInterface(info)
	sm.cfg.Delegate.OnEntityUpdated(de.entity.Clone())
}

func (sm *StateMachine) handleDeparting(p *wire.Adpdu) {
	de, ok := sm.entities[p.EntityID]
	if !ok {
		return
	}
	idx := entity.InterfaceIndexOf(p)
	if !de.entity.RemoveInterface(idx) {
		return
	}
	delete(de.deadlines, idx)
	sm.logger.Debug("entity departing", "entity_id", p.EntityID, "interface_index", idx)
	sm.interfacesRemoved(de)
}

func (sm *StateMachine) expireEntities() {
	now := sm.clock.Now()
	for _, de := range sm.entities {
		expired := false
		for idx, deadline := range de.deadlines {
			if now.Before(deadline) {
				continue
			}
			delete(de.deadlines, idx)
			de.entity.RemoveInterface(idx)
			expired = true
		}
		if expired {
			sm.logger.Debug("entity advertisement expired", "entity_id", de.entity.ID())
			sm.interfacesRemoved(de)
		}
	}
}

// interfacesRemoved reports de offline once its last interface is gone,
// updated otherwise.
func (sm *StateMachine) interfacesRemoved(de *discoveredEntity) {
	id := de.entity.ID()
	if len(de.entity.Interfaces) == 0 {
		delete(sm.entities, id)
		sm.cfg.Delegate.OnEntityOffline(id)
		return
	}
	sm.cfg.Delegate.OnEntityUpdated(de.entity.Clone())
}
