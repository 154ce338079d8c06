package protocol

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/avb-tools/avdecc-go/pkg/acmp"
	"github.com/avb-tools/avdecc-go/pkg/adp"
	"github.com/avb-tools/avdecc-go/pkg/aecp"
	"github.com/avb-tools/avdecc-go/pkg/entity"
	"github.com/avb-tools/avdecc-go/pkg/executor"
	"github.com/avb-tools/avdecc-go/pkg/log"
	"github.com/avb-tools/avdecc-go/pkg/status"
	"github.com/avb-tools/avdecc-go/pkg/transport"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// Config configures an Interface.
type Config struct {
	// Executor runs timers, notifications and completions. When nil the
	// Interface creates one and closes it on Shutdown.
	Executor *executor.Executor

	// Clock drives the executor the Interface creates. Ignored when
	// Executor is set.
	Clock clock.Clock

	// State machine settings. Their Executor, Locker, Delegate, MacAddress
	// and Logger fields are set by the Interface.
	Adp  adp.Config
	Aecp aecp.Config
	Acmp acmp.Config

	// ProtocolLogger receives a trace of every frame and engine event.
	// Optional.
	ProtocolLogger log.Logger

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the protocol defaults.
func DefaultConfig() Config {
	return Config{
		Adp:  adp.DefaultConfig(),
		Aecp: aecp.DefaultConfig(),
		Acmp: acmp.DefaultConfig(),
	}
}

// Interface is an AVDECC protocol interface bound to one transport.
//
// All methods are safe for concurrent use.
type Interface struct {
	tr        transport.Transport
	mac       wire.MacAddress
	exec      *executor.Executor
	ownsExec  bool
	clock     clock.Clock
	logger    *slog.Logger
	trace     log.Logger
	sessionID string

	lock      recursiveMutex
	registry  *entity.Registry
	adp       *adp.StateMachine
	aecp      *aecp.StateMachine
	acmp      *acmp.StateMachine
	shutdown  bool // no new work accepted
	stopped   bool // received frames dropped
	failure   error
	observers observerSet
}

// New creates an Interface and starts receiving frames from tr. The
// Interface owns tr from then on, even when New fails.
func New(tr transport.Transport, cfg Config) (*Interface, error) {
	if tr == nil {
		return nil, fmt.Errorf("%w: nil transport", status.ErrInvalidParameters)
	}
	mac := tr.MacAddress()
	if mac.IsZero() {
		_ = tr.Close()
		return nil, fmt.Errorf("%w: interface %s has no MAC address", status.ErrInvalidParameters, tr.Name())
	}
	if cfg.Executor != nil && cfg.Executor.Stopped() {
		_ = tr.Close()
		return nil, status.ErrExecutorNotInitialized
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	i := &Interface{
		tr:        tr,
		mac:       mac,
		exec:      cfg.Executor,
		trace:     cfg.ProtocolLogger,
		sessionID: uuid.NewString(),
		registry:  entity.NewRegistry(),
	}
	i.logger = cfg.Logger.With("interface", tr.Name())
	if i.exec == nil {
		i.exec = executor.New(executor.Config{Clock: cfg.Clock, Logger: cfg.Logger})
		i.ownsExec = true
	}
	i.clock = i.exec.Clock()

	if err := i.initStateMachines(cfg); err != nil {
		return nil, multierr.Append(err, i.teardown(context.Background()))
	}

	if err := tr.Start(transport.ReceiverFuncs{Frame: i.onFrame, Error: i.onTransportError}); err != nil {
		err = fmt.Errorf("%w: start %s: %w", status.ErrTransportError, tr.Name(), err)
		return nil, multierr.Append(err, i.teardown(context.Background()))
	}

	i.logger.Info("protocol interface started", "mac", mac, "session_id", i.sessionID)
	i.traceState(log.StateEntityInterface, "", "", "STARTED", "")
	return i, nil
}

func (i *Interface) initStateMachines(cfg Config) error {
	var err error

	adpCfg := cfg.Adp
	adpCfg.Executor, adpCfg.Locker, adpCfg.Delegate = i.exec, &i.lock, adpDelegate{i}
	adpCfg.MacAddress, adpCfg.Logger = i.mac, i.logger
	if i.adp, err = adp.New(adpCfg); err != nil {
		return err
	}

	aecpCfg := cfg.Aecp
	aecpCfg.Executor, aecpCfg.Locker, aecpCfg.Delegate = i.exec, &i.lock, aecpDelegate{i}
	aecpCfg.MacAddress, aecpCfg.Logger = i.mac, i.logger
	if i.aecp, err = aecp.New(aecpCfg); err != nil {
		return err
	}

	acmpCfg := cfg.Acmp
	acmpCfg.Executor, acmpCfg.Locker, acmpCfg.Delegate = i.exec, &i.lock, acmpDelegate{i}
	acmpCfg.MacAddress, acmpCfg.Logger = i.mac, i.logger
	if i.acmp, err = acmp.New(acmpCfg); err != nil {
		return err
	}
	return nil
}

// Name returns the network interface name.
func (i *Interface) Name() string {
	return i.tr.Name()
}

// MacAddress returns the source address of every frame sent.
func (i *Interface) MacAddress() wire.MacAddress {
	return i.mac
}

// SessionID identifies this Interface in protocol traces.
func (i *Interface) SessionID() string {
	return i.sessionID
}

// Executor returns the executor callbacks run on.
func (i *Interface) Executor() *executor.Executor {
	return i.exec
}

// Lock acquires the interface lock. The lock is reentrant: the goroutine
// holding it may call any method of the Interface.
func (i *Interface) Lock() {
	i.lock.Lock()
}

// Unlock releases one level of the interface lock.
func (i *Interface) Unlock() {
	i.lock.Unlock()
}

// IsSelfLocked reports whether the calling goroutine holds the lock.
func (i *Interface) IsSelfLocked() bool {
	return i.lock.isSelfLocked()
}

// usable returns the error of a shut down or failed interface. Called
// with the lock held.
func (i *Interface) usable() error {
	if i.shutdown {
		return status.ErrInterfaceShutdown
	}
	if i.failure != nil {
		return fmt.Errorf("%w: %w", status.ErrTransportError, i.failure)
	}
	return nil
}

// Subscribe registers o. Subscribing an observer twice has no effect.
func (i *Interface) Subscribe(o Observer) *Subscription {
	return i.observers.add(o)
}

// Unsubscribe removes o and reports whether it was registered.
// Notifications already being dispatched may still reach it.
func (i *Interface) Unsubscribe(o Observer) bool {
	return i.observers.remove(o)
}

// notify dispatches fn to every observer registered when it runs.
func (i *Interface) notify(fn func(o Observer)) {
	err := i.exec.Push(func() {
		for _, o := range i.observers.snapshot() {
			fn(o)
		}
	})
	if err != nil {
		i.logger.Debug("dropping notification", "error", err)
	}
}

// RegisterLocalEntity adds le to the interface.
func (i *Interface) RegisterLocalEntity(le *entity.LocalEntity) (entity.Handle, error) {
	i.lock.Lock()
	defer i.lock.Unlock()
	if err := i.usable(); err != nil {
		return entity.Handle{}, err
	}
	h, err := i.registry.Register(le)
	if err != nil {
		return entity.Handle{}, err
	}
	i.logger.Info("local entity registered", "entity_id", le.ID())
	return h, nil
}

// UnregisterLocalEntity stops advertising the entity behind h and removes
// it.
func (i *Interface) UnregisterLocalEntity(h entity.Handle) error {
	i.lock.Lock()
	defer i.lock.Unlock()
	if i.shutdown {
		return status.ErrInterfaceShutdown
	}
	le, err := i.registry.Get(h)
	if err != nil {
		return err
	}
	i.adp.DisableAdvertising(le.ID())
	if _, err := i.registry.Unregister(h); err != nil {
		return err
	}
	i.logger.Info("local entity unregistered", "entity_id", le.ID())
	return nil
}

// LocalEntities returns the registered entities, or nil once the
// interface is shut down.
func (i *Interface) LocalEntities() []*entity.LocalEntity {
	i.lock.Lock()
	defer i.lock.Unlock()
	if i.shutdown {
		return nil
	}
	return i.registry.All()
}

// DynamicEID reserves an entity ID derived from the interface MAC address.
func (i *Interface) DynamicEID() (uid.ID, error) {
	i.lock.Lock()
	defer i.lock.Unlock()
	if err := i.usable(); err != nil {
		return uid.Null, err
	}
	return i.registry.IssueDynamicEID(i.mac)
}

// ReleaseDynamicEID returns id to the pool of dynamic IDs.
func (i *Interface) ReleaseDynamicEID(id uid.ID) error {
	i.lock.Lock()
	defer i.lock.Unlock()
	if i.shutdown {
		return status.ErrInterfaceShutdown
	}
	i.registry.ReleaseDynamicEID(id)
	return nil
}

func (i *Interface) localEntity(id uid.ID) (*entity.LocalEntity, error) {
	le, ok := i.registry.Resolve(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", status.ErrUnknownLocalEntity, id)
	}
	return le, nil
}

// EnableEntityAdvertising advertises the local entity id as available for
// availableDuration, renewed every availableDuration/2.
func (i *Interface) EnableEntityAdvertising(id uid.ID, availableDuration time.Duration) error {
	i.lock.Lock()
	defer i.lock.Unlock()
	if err := i.usable(); err != nil {
		return err
	}
	le, err := i.localEntity(id)
	if err != nil {
		return err
	}
	if err := i.adp.EnableAdvertising(le, availableDuration); err != nil {
		return err
	}
	i.traceState(log.StateEntityAdvertising, id.String(), "", "ADVERTISING", "")
	return nil
}

// DisableEntityAdvertising sends ENTITY_DEPARTING for the local entity id
// if it was advertising.
func (i *Interface) DisableEntityAdvertising(id uid.ID) error {
	i.lock.Lock()
	defer i.lock.Unlock()
	if err := i.usable(); err != nil {
		return err
	}
	if _, err := i.localEntity(id); err != nil {
		return err
	}
	if i.adp.DisableAdvertising(id) {
		i.traceState(log.StateEntityAdvertising, id.String(), "ADVERTISING", "NOT_ADVERTISING", "")
	}
	return nil
}

// SetEntityNeedsAdvertise announces the local entity id right away, for
// instance after one of its advertised fields changed.
func (i *Interface) SetEntityNeedsAdvertise(id uid.ID) error {
	i.lock.Lock()
	defer i.lock.Unlock()
	if err := i.usable(); err != nil {
		return err
	}
	if _, err := i.localEntity(id); err != nil {
		return err
	}
	if !i.adp.SetNeedsAdvertise(id) {
		return fmt.Errorf("%w: %s is not advertising", status.ErrInvalidParameters, id)
	}
	return nil
}

// DiscoverRemoteEntities asks every entity to announce itself.
func (i *Interface) DiscoverRemoteEntities() error {
	return i.DiscoverRemoteEntity(uid.Null)
}

// DiscoverRemoteEntity asks the entity id to announce itself.
func (i *Interface) DiscoverRemoteEntity(id uid.ID) error {
	i.lock.Lock()
	defer i.lock.Unlock()
	if err := i.usable(); err != nil {
		return err
	}
	return i.adp.Discover(id)
}

// ForgetRemoteEntity drops the discovered entity id without notifying
// observers. It is discovered again on its next advertisement.
func (i *Interface) ForgetRemoteEntity(id uid.ID) error {
	i.lock.Lock()
	defer i.lock.Unlock()
	if err := i.usable(); err != nil {
		return err
	}
	return i.adp.Forget(id)
}

// SetAutomaticDiscoveryDelay sends a discover message every d. Zero
// disables it.
func (i *Interface) SetAutomaticDiscoveryDelay(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: negative discovery delay", status.ErrInvalidParameters)
	}
	i.lock.Lock()
	defer i.lock.Unlock()
	if err := i.usable(); err != nil {
		return err
	}
	i.adp.SetAutomaticDiscoveryDelay(d)
	return nil
}

// The queries below report nothing once the interface is shut down.

// DiscoveredEntities returns the remote and local entities currently
// online, sorted by entity ID.
func (i *Interface) DiscoveredEntities() []entity.Entity {
	i.lock.Lock()
	defer i.lock.Unlock()
	if i.shutdown {
		return nil
	}
	return i.adp.Entities()
}

// DiscoveredEntity returns the entity id if it is online.
func (i *Interface) DiscoveredEntity(id uid.ID) (entity.Entity, bool) {
	i.lock.Lock()
	defer i.lock.Unlock()
	if i.shutdown {
		return entity.Entity{}, false
	}
	return i.adp.Entity(id)
}

// ListenerConnectionState returns the last known state of a listener
// stream.
func (i *Interface) ListenerConnectionState(listener entity.StreamIdentification) acmp.ConnectionState {
	i.lock.Lock()
	defer i.lock.Unlock()
	if i.shutdown {
		return acmp.ConnectionState{}
	}
	return i.acmp.ListenerState(listener)
}

// ListenerConnectionStates returns every listener stream known to be
// connected or connecting.
func (i *Interface) ListenerConnectionStates() map[entity.StreamIdentification]acmp.ConnectionState {
	i.lock.Lock()
	defer i.lock.Unlock()
	if i.shutdown {
		return nil
	}
	return i.acmp.ListenerStates()
}

// SendAdpMessage sends p as is, apart from its source address.
func (i *Interface) SendAdpMessage(p *wire.Adpdu) error {
	if p.DestAddress.IsZero() {
		p.DestAddress = wire.AdpMulticastAddress
	}
	return i.sendMessage(p)
}

// SendAemAecpMessage sends p without tracking it. Local entities use it
// to answer commands.
func (i *Interface) SendAemAecpMessage(p *wire.AemAecpdu) error {
	return i.sendMessage(p)
}

// SendMvuAecpMessage sends p without tracking it.
func (i *Interface) SendMvuAecpMessage(p *wire.MvuAecpdu) error {
	return i.sendMessage(p)
}

// SendAcmpMessage sends p without tracking it.
func (i *Interface) SendAcmpMessage(p *wire.Acmpdu) error {
	if p.DestAddress.IsZero() {
		p.DestAddress = wire.AcmpMulticastAddress
	}
	return i.sendMessage(p)
}

func (i *Interface) sendMessage(p wire.Pdu) error {
	i.lock.Lock()
	defer i.lock.Unlock()
	if err := i.usable(); err != nil {
		return err
	}
	l2 := p.Layer2()
	l2.SrcAddress = i.mac
	if l2.DestAddress.IsZero() {
		return fmt.Errorf("%w: no destination address", status.ErrInvalidParameters)
	}
	frame, err := wire.Encode(p)
	if err != nil {
		return fmt.Errorf("%w: %w", status.ErrInvalidParameters, err)
	}
	return i.sendFrame(frame, p)
}

// SendAecpCommand sends cmd to the remote entity in its target_entity_id.
// The destination is the MAC address that entity advertised. onResult is
// called exactly once on the executor unless an error is returned.
func (i *Interface) SendAecpCommand(cmd wire.Aecpdu, onResult aecp.ResultHandler) error {
	i.lock.Lock()
	defer i.lock.Unlock()
	if err := i.usable(); err != nil {
		return err
	}
	target := cmd.Header().TargetEntityID
	e, ok := i.adp.Entity(target)
	if !ok || len(e.Interfaces) == 0 {
		return fmt.Errorf("%w: %s", status.ErrUnknownRemoteEntity, target)
	}
	return i.aecp.SendCommand(cmd, e.Interfaces[0].MacAddress, onResult)
}

// SendAecpCommandTo sends cmd to dest. Use it for entities that were not
// discovered, or to address a specific interface.
func (i *Interface) SendAecpCommandTo(cmd wire.Aecpdu, dest wire.MacAddress, onResult aecp.ResultHandler) error {
	i.lock.Lock()
	defer i.lock.Unlock()
	if err := i.usable(); err != nil {
		return err
	}
	return i.aecp.SendCommand(cmd, dest, onResult)
}

// SendAcmpCommand sends an ACMP command. onResult is called exactly once
// on the executor unless an error is returned.
func (i *Interface) SendAcmpCommand(cmd *wire.Acmpdu, onResult acmp.ResultHandler) error {
	i.lock.Lock()
	defer i.lock.Unlock()
	if err := i.usable(); err != nil {
		return err
	}
	return i.acmp.SendCommand(cmd, onResult)
}

// sendFrame transmits an encoded frame. Called with the lock held.
func (i *Interface) sendFrame(frame []byte, pdu wire.Pdu) error {
	if i.failure != nil {
		return fmt.Errorf("%w: %w", status.ErrTransportError, i.failure)
	}
	if i.trace != nil {
		i.tracePdu(log.DirectionOut, pdu)
	}
	if err := i.tr.Send(frame); err != nil {
		i.traceError(log.LayerTransport, err, "send")
		return fmt.Errorf("%w: %w", status.ErrTransportError, err)
	}
	return nil
}

// onFrame runs on the transport goroutine.
func (i *Interface) onFrame(frame []byte) {
	i.lock.Lock()
	stopped := i.stopped || i.failure != nil
	i.lock.Unlock()
	if stopped {
		return
	}

	frame = bytes.Clone(frame)
	pdu, err := wire.Decode(frame)
	if err != nil {
		if errors.Is(err, wire.ErrNotAvdecc) || errors.Is(err, wire.ErrUnsupportedSubtype) {
			return
		}
		i.logger.Debug("dropping malformed frame", "size", len(frame), "error", err)
		i.traceMalformed(frame, err)
		i.notify(func(o Observer) { o.OnMalformedFrame(frame, err) })
		return
	}
	if i.trace != nil {
		i.tracePdu(log.DirectionIn, pdu)
	}

	switch p := pdu.(type) {
	case *wire.Adpdu:
		i.notify(func(o Observer) { o.OnAdpduReceived(p) })
		i.adp.HandleAdpdu(p)
	case wire.Aecpdu:
		i.notify(func(o Observer) { o.OnAecpduReceived(p) })
		i.aecp.HandleAecpdu(p)
	case *wire.Acmpdu:
		i.notify(func(o Observer) { o.OnAcmpduReceived(p) })
		i.acmp.HandleAcmpdu(p)
	}
}

// onTransportError runs on the transport goroutine.
func (i *Interface) onTransportError(err error) {
	i.lock.Lock()
	if i.stopped || i.failure != nil {
		i.lock.Unlock()
		return
	}
	i.failure = err
	i.lock.Unlock()

	i.logger.Error("transport failed", "error", err)
	i.traceError(log.LayerTransport, err, "receive")
	failed := fmt.Errorf("%w: %w", status.ErrTransportError, err)
	i.aecp.FailAll(failed)
	i.acmp.FailAll(failed)
	i.notify(func(o Observer) { o.OnTransportError(err) })
}

// Shutdown stops the interface. It departs the advertising entities,
// waits for in-flight commands until ctx is done, fails the remaining ones
// with ErrTransportError, drains the executor and closes the transport.
// Responses received during the wait still complete their commands.
//
// Calling Shutdown from an executor callback skips the wait.
func (i *Interface) Shutdown(ctx context.Context) error {
	i.lock.Lock()
	if i.shutdown {
		i.lock.Unlock()
		return nil
	}
	i.shutdown = true
	i.lock.Unlock()
	i.logger.Info("protocol interface shutting down")

	i.adp.DepartAll()

	if !i.exec.InExecutor() {
		waitIdle(ctx, i.aecp.WaitIdle(), i.acmp.WaitIdle())
	}

	i.lock.Lock()
	i.stopped = true
	i.lock.Unlock()

	i.aecp.FailAll(status.ErrTransportError)
	i.acmp.FailAll(status.ErrTransportError)

	i.traceState(log.StateEntityInterface, "", "STARTED", "SHUTDOWN", "")
	return i.teardown(context.WithoutCancel(ctx))
}

func waitIdle(ctx context.Context, idle ...<-chan struct{}) {
	for _, ch := range idle {
		select {
		case <-ch:
		case <-ctx.Done():
			return
		}
	}
}

// teardown stops the state machines, drains the executor and closes the
// transport.
func (i *Interface) teardown(ctx context.Context) error {
	if i.adp != nil {
		i.adp.Close()
	}
	if i.aecp != nil {
		i.aecp.Close()
	}
	if i.acmp != nil {
		i.acmp.Close()
	}

	var err error
	switch {
	case i.ownsExec:
		err = multierr.Append(err, i.exec.Close(ctx))
	case !i.exec.InExecutor():
		if flushErr := i.exec.Flush(ctx); flushErr != nil && !errors.Is(flushErr, executor.ErrStopped) {
			err = multierr.Append(err, flushErr)
		}
	}
	if closeErr := i.tr.Close(); closeErr != nil && !errors.Is(closeErr, transport.ErrClosed) {
		err = multierr.Append(err, fmt.Errorf("close transport: %w", closeErr))
	}
	return err
}
