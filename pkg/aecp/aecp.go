// Package aecp implements the AVDECC Enumeration and Control Protocol
// state machine: command sequencing, retries, timeouts and response
// matching for AEM and Milan vendor-unique commands.
package aecp

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/avb-tools/avdecc-go/pkg/executor"
	"github.com/avb-tools/avdecc-go/pkg/status"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// Protocol defaults.
const (
	DefaultTimeout              = 250 * time.Millisecond
	DefaultRetries              = 1
	DefaultMaxInflightPerTarget = 1
	DefaultLateResponseMemory   = 256
)

// ResultHandler receives the outcome of a command: the matching response,
// or an error carrying a status.Error code.
type ResultHandler func(resp wire.Aecpdu, err error)

// Delegate connects the state machine to its owner. Every method is called
// with Config.Locker held.
type Delegate interface {
	// IsLocalEntity reports whether id is registered on the interface.
	IsLocalEntity(id uid.ID) bool

	// IsLocalController reports whether id is a registered controller.
	IsLocalController(id uid.ID) bool

	// SendFrame transmits an encoded command.
	SendFrame(frame []byte, pdu wire.Aecpdu) error

	OnAecpRetry(target uid.ID, cmd wire.Aecpdu)
	OnAecpTimeout(target uid.ID, cmd wire.Aecpdu)
	OnAecpUnexpectedResponse(resp wire.Aecpdu)
	OnAecpResponseTime(target uid.ID, cmd wire.Aecpdu, d time.Duration)

	// OnAecpUnsolicitedResponse reports an unsolicited notification sent to
	// a local controller.
	OnAecpUnsolicitedResponse(resp wire.Aecpdu)

	// OnAecpIdentifyNotification reports an IDENTIFY_NOTIFICATION.
	OnAecpIdentifyNotification(resp *wire.AemAecpdu)

	// OnAecpCommand reports a command addressed to a local entity.
	OnAecpCommand(cmd wire.Aecpdu)
}

// Config configures a StateMachine.
type Config struct {
	Executor *executor.Executor
	Locker   sync.Locker
	Delegate Delegate

	// MacAddress is the source address of outgoing commands.
	MacAddress wire.MacAddress

	// Timeout is the delay before a command is retried or fails.
	Timeout time.Duration

	// Retries is the number of resends after the first transmission.
	Retries int

	// MaxInflightPerTarget bounds the commands awaiting a response from a
	// single entity. Further commands are queued.
	MaxInflightPerTarget int

	// LateResponseMemory is the number of timed-out commands remembered to
	// recognise late responses.
	LateResponseMemory int

	Logger *slog.Logger
}

// DefaultConfig returns the IEEE 1722.1 defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:              DefaultTimeout,
		Retries:              DefaultRetries,
		MaxInflightPerTarget: DefaultMaxInflightPerTarget,
		LateResponseMemory:   DefaultLateResponseMemory,
	}
}

type commandKey struct {
	target     uid.ID
	sequenceID uint16
}

type pendingCommand struct {
	target  uid.ID
	cmd     wire.Aecpdu
	dest    wire.MacAddress
	frame   []byte
	handler ResultHandler
	retries int
	sentAt  time.Time
	timer   *executor.Timer
}

type targetState struct {
	inflight map[uint16]*pendingCommand
	queue    []*pendingCommand
	nextSeq  uint16
}

func (ts *targetState) empty() bool {
	return len(ts.inflight) == 0 && len(ts.queue) == 0
}

// StateMachine is the AECP state machine of one protocol interface.
type StateMachine struct {
	cfg    Config
	clock  clock.Clock
	logger *slog.Logger

	targets   map[uid.ID]*targetState
	late      *lru.Cache[commandKey, time.Time]
	idleWaits []chan struct{}
	closed    bool
}

// New creates a state machine.
func New(cfg Config) (*StateMachine, error) {
	if cfg.Executor == nil || cfg.Locker == nil || cfg.Delegate == nil {
		return nil, fmt.Errorf("%w: aecp needs an executor, a locker and a delegate", status.ErrInvalidParameters)
	}
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.MaxInflightPerTarget <= 0 {
		cfg.MaxInflightPerTarget = def.MaxInflightPerTarget
	}
	if cfg.LateResponseMemory <= 0 {
		cfg.LateResponseMemory = def.LateResponseMemory
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	late, err := lru.New[commandKey, time.Time](cfg.LateResponseMemory)
	if err != nil {
		return nil, fmt.Errorf("create late response cache: %w", err)
	}
	return &StateMachine{
		cfg:     cfg,
		clock:   cfg.Executor.Clock(),
		logger:  cfg.Logger,
		targets: make(map[uid.ID]*targetState),
		late:    late,
	}, nil
}

// SendCommand queues cmd for the entity in its target_entity_id and
// returns without waiting. dest is the destination MAC, usually the
// address the target advertised. The state machine owns cmd afterwards:
// it sets its addressing and sequence_id.
//
// onResult is called exactly once on the executor, unless SendCommand
// returns an error.
func (sm *StateMachine) SendCommand(cmd wire.Aecpdu, dest wire.MacAddress, onResult ResultHandler) error {
	h := cmd.Header()
	if h.MessageType.IsResponse() {
		return fmt.Errorf("%w: %s is not a command", status.ErrMessageNotSupported, h.MessageType)
	}

	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	if sm.closed {
		return status.ErrInterfaceShutdown
	}
	if !sm.cfg.Delegate.IsLocalController(h.ControllerEntityID) {
		return fmt.Errorf("%w: %s is not a local controller", status.ErrInvalidEntityType, h.ControllerEntityID)
	}

	h.DestAddress = dest
	h.SrcAddress = sm.cfg.MacAddress
	if _, err := wire.Encode(cmd); err != nil {
		return fmt.Errorf("%w: %w", status.ErrInvalidParameters, err)
	}

	target := h.TargetEntityID
	ts := sm.targets[target]
	if ts == nil {
		ts = &targetState{inflight: make(map[uint16]*pendingCommand)}
		sm.targets[target] = ts
	}
	ts.queue = append(ts.queue, &pendingCommand{
		target:  target,
		cmd:     cmd,
		dest:    dest,
		handler: onResult,
		retries: sm.cfg.Retries,
	})
	sm.promote(target, ts)
	return nil
}

// promote sends queued commands while the target has room in flight.
func (sm *StateMachine) promote(target uid.ID, ts *targetState) {
	for len(ts.inflight) < sm.cfg.MaxInflightPerTarget && len(ts.queue) > 0 {
		p := ts.queue[0]
		ts.queue[0] = nil
		ts.queue = ts.queue[1:]

		h := p.cmd.Header()
		h.SequenceID = ts.allocateSequence()
		frame, err := wire.Encode(p.cmd)
		if err != nil {
			sm.complete(p, nil, fmt.Errorf("%w: %w", status.ErrInternalError, err))
			continue
		}
		p.frame = frame

		if err := sm.cfg.Delegate.SendFrame(frame, p.cmd); err != nil {
			sm.logger.Warn("failed to send aecp command",
				"target_entity_id", target, "sequence_id", h.SequenceID, "error", err)
			sm.complete(p, nil, fmt.Errorf("%w: %w", status.ErrTransportError, err))
			continue
		}

		p.sentAt = sm.clock.Now()
		p.timer = sm.cfg.Executor.AfterFunc(sm.cfg.Timeout, sm.locked(func() { sm.expire(p) }))
		ts.inflight[h.SequenceID] = p
	}
	if ts.empty() {
		delete(sm.targets, target)
	}
	sm.checkIdle()
}

// allocateSequence returns the next sequence_id not in flight.
func (ts *targetState) allocateSequence() uint16 {
	for {
		seq := ts.nextSeq
		ts.nextSeq++
		if _, busy := ts.inflight[seq]; !busy {
			return seq
		}
	}
}

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

func (sm *StateMachine) expire(p *pendingCommand) {
	seq := p.cmd.Header().SequenceID
	ts := sm.targets[p.target]
	if ts == nil || ts.inflight[seq] != p {
		return
	}

	if p.retries > 0 {
		p.retries--
		sm.logger.Debug("retrying aecp command", "target_entity_id", p.target, "sequence_id", seq)
		sm.cfg.Delegate.OnAecpRetry(p.target, p.cmd)
		if err := sm.cfg.Delegate.SendFrame(p.frame, p.cmd); err != nil {
			delete(ts.inflight, seq)
			sm.complete(p, nil, fmt.Errorf("%w: %w", status.ErrTransportError, err))
			sm.promote(p.target, ts)
			return
		}
		p.timer.Reset(sm.cfg.Timeout)
		return
	}

	delete(ts.inflight, seq)
	sm.late.Add(commandKey{target: p.target, sequenceID: seq}, sm.clock.Now())
	sm.logger.Debug("aecp command timed out", "target_entity_id", p.target, "sequence_id", seq)
	sm.cfg.Delegate.OnAecpTimeout(p.target, p.cmd)
	sm.complete(p, nil, status.ErrTimeout)
	sm.promote(p.target, ts)
}

// HandleAecpdu processes a received AECP message.
func (sm *StateMachine) HandleAecpdu(pdu wire.Aecpdu) {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	if sm.closed {
		return
	}

	h := pdu.Header()
	if !h.MessageType.IsResponse() {
		if sm.cfg.Delegate.IsLocalEntity(h.TargetEntityID) {
			sm.cfg.Delegate.OnAecpCommand(pdu)
		}
		return
	}

	if aem, ok := pdu.(*wire.AemAecpdu); ok && isIdentifyNotification(aem) {
		sm.cfg.Delegate.OnAecpIdentifyNotification(aem)
		return
	}

	if !sm.cfg.Delegate.IsLocalController(h.ControllerEntityID) {
		return
	}

	if isUnsolicited(pdu) {
		sm.cfg.Delegate.OnAecpUnsolicitedResponse(pdu)
		return
	}

	key := commandKey{target: h.TargetEntityID, sequenceID: h.SequenceID}
	ts := sm.targets[key.target]
	var p *pendingCommand
	if ts != nil {
		p = ts.inflight[key.sequenceID]
	}
	if p == nil || !matches(p, pdu) {
		if sentAt, ok := sm.late.Get(key); ok {
			sm.logger.Debug("late aecp response", "target_entity_id", key.target,
				"sequence_id", key.sequenceID, "late_by", sm.clock.Since(sentAt))
		} else {
			sm.logger.Debug("unexpected aecp response", "target_entity_id", key.target,
				"sequence_id", key.sequenceID, "message_type", h.MessageType)
		}
		sm.cfg.Delegate.OnAecpUnexpectedResponse(pdu)
		return
	}

	if aem, ok := pdu.(*wire.AemAecpdu); ok && aem.Status == wire.AemStatusInProgress {
		p.timer.Reset(sm.cfg.Timeout)
		return
	}

	delete(ts.inflight, key.sequenceID)
	p.timer.Stop()
	sm.cfg.Delegate.OnAecpResponseTime(p.target, p.cmd, sm.clock.Since(p.sentAt))
	sm.complete(p, pdu, nil)
	sm.promote(key.target, ts)
}

// DiscardEntityMessages fails every command for target with
// ErrUnknownRemoteEntity.
func (sm *StateMachine) DiscardEntityMessages(target uid.ID) {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	ts, ok := sm.targets[target]
	if !ok {
		return
	}
	delete(sm.targets, target)
	sm.failTarget(ts, fmt.Errorf("%w: %s", status.ErrUnknownRemoteEntity, target))
	sm.checkIdle()
}

// FailAll completes every pending and queued command with err.
func (sm *StateMachine) FailAll(err error) {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	for target, ts := range sm.targets {
		delete(sm.targets, target)
		sm.failTarget(ts, err)
	}
	sm.checkIdle()
}

func (sm *StateMachine) failTarget(ts *targetState, err error) {
	for seq, p := range ts.inflight {
		delete(ts.inflight, seq)
		p.timer.Stop()
		sm.complete(p, nil, err)
	}
	for _, p := range ts.queue {
		sm.complete(p, nil, err)
	}
	ts.queue = nil
}

// Pending returns the number of commands in flight or queued.
func (sm *StateMachine) Pending() int {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	n := 0
	for _, ts := range sm.targets {
		n += len(ts.inflight) + len(ts.queue)
	}
	return n
}

// WaitIdle returns a channel closed once no command is in flight or
// queued.
func (sm *StateMachine) WaitIdle() <-chan struct{} {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	ch := make(chan struct{})
	if len(sm.targets) == 0 {
		close(ch)
		return ch
	}
	sm.idleWaits = append(sm.idleWaits, ch)
	return ch
}

func (sm *StateMachine) checkIdle() {
	if len(sm.targets) != 0 {
		return
	}
	for _, ch := range sm.idleWaits {
		close(ch)
	}
	sm.idleWaits = nil
}

// Close stops every timer. Outstanding commands must have been failed
// with FailAll first; their handlers are not called otherwise.
func (sm *StateMachine) Close() {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	sm.closed = true
	for _, ts := range sm.targets {
		for _, p := range ts.inflight {
			p.timer.Stop()
		}
	}
}

func (sm *StateMachine) complete(p *pendingCommand, resp wire.Aecpdu, err error) {
	if p.handler == nil {
		return
	}
	handler := p.handler
	p.handler = nil
	if pushErr := sm.cfg.Executor.Push(func() { handler(resp, err) }); pushErr != nil {
		sm.logger.Warn("dropping aecp completion", "target_entity_id", p.target, "error", pushErr)
	}
}

// matches checks that resp answers the command p.
func matches(p *pendingCommand, resp wire.Aecpdu) bool {
	ch, rh := p.cmd.Header(), resp.Header()
	if rh.MessageType != ch.MessageType.Response() || rh.ControllerEntityID != ch.ControllerEntityID {
		return false
	}
	if !p.dest.IsMulticast() && rh.SrcAddress != p.dest {
		return false
	}
	switch cmd := p.cmd.(type) {
	case *wire.AemAecpdu:
		r, ok := resp.(*wire.AemAecpdu)
		return ok && r.CommandType == cmd.CommandType
	case *wire.MvuAecpdu:
		r, ok := resp.(*wire.MvuAecpdu)
		return ok && r.CommandType == cmd.CommandType
	default:
		return true
	}
}

func isUnsolicited(pdu wire.Aecpdu) bool {
	switch p := pdu.(type) {
	case *wire.AemAecpdu:
		return p.Unsolicited
	case *wire.MvuAecpdu:
		return p.Unsolicited
	default:
		return false
	}
}

func isIdentifyNotification(p *wire.AemAecpdu) bool {
	return p.Unsolicited &&
		p.CommandType == wire.AemCommandIdentifyNotification &&
		p.DestAddress == wire.IdentifyMulticastAddress
}
