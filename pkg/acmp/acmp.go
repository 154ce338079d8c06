// Package acmp implements the AVDECC Connection Management Protocol state
// machine and tracks the connection state of listener streams.
//
// ACMP messages are multicast: every station sees every command and
// response. The state machine completes only the commands issued by local
// controllers and reports everything else as sniffed traffic.
package acmp

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/avb-tools/avdecc-go/pkg/entity"
	"github.com/avb-tools/avdecc-go/pkg/executor"
	"github.com/avb-tools/avdecc-go/pkg/status"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// DefaultTimeouts are the IEEE 1722.1 command timeouts.
var DefaultTimeouts = map[wire.AcmpMessageType]time.Duration{
	wire.AcmpMessageTypeConnectTxCommand:       2000 * time.Millisecond,
	wire.AcmpMessageTypeDisconnectTxCommand:    200 * time.Millisecond,
	wire.AcmpMessageTypeGetTxStateCommand:      200 * time.Millisecond,
	wire.AcmpMessageTypeConnectRxCommand:       4500 * time.Millisecond,
	wire.AcmpMessageTypeDisconnectRxCommand:    500 * time.Millisecond,
	wire.AcmpMessageTypeGetRxStateCommand:      200 * time.Millisecond,
	wire.AcmpMessageTypeGetTxConnectionCommand: 200 * time.Millisecond,
}

// DefaultLateResponseMemory is the number of timed-out commands remembered
// to recognise late responses.
const DefaultLateResponseMemory = 64

// ResultHandler receives the outcome of a command.
type ResultHandler func(resp *wire.Acmpdu, err error)

// Delegate connects the state machine to its owner. Every method is called
// with Config.Locker held.
type Delegate interface {
	IsLocalController(id uid.ID) bool

	// SendFrame transmits an encoded command.
	SendFrame(frame []byte, pdu *wire.Acmpdu) error

	OnAcmpRetry(target uid.ID, cmd *wire.Acmpdu)
	OnAcmpTimeout(target uid.ID, cmd *wire.Acmpdu)
	OnAcmpUnexpectedResponse(resp *wire.Acmpdu)
	OnAcmpResponseTime(target uid.ID, cmd *wire.Acmpdu, d time.Duration)

	OnAcmpSniffedCommand(cmd *wire.Acmpdu)
	OnAcmpSniffedResponse(resp *wire.Acmpdu)

	OnListenerConnectionStateChanged(listener entity.StreamIdentification, cs ConnectionState)
}

// Config configures a StateMachine.
type Config struct {
	Executor *executor.Executor
	Locker   sync.Locker
	Delegate Delegate

	// MacAddress is the source address of outgoing commands.
	MacAddress wire.MacAddress

	// Timeouts per command type. Missing types use DefaultTimeouts.
	Timeouts map[wire.AcmpMessageType]time.Duration

	// Retries is the number of resends after the first transmission.
	Retries int

	// LateResponseMemory is the number of timed-out commands remembered.
	// Only responses to those are reported as unexpected.
	LateResponseMemory int

	Logger *slog.Logger
}

// DefaultConfig returns the IEEE 1722.1 defaults: a single attempt per
// command.
func DefaultConfig() Config {
	return Config{LateResponseMemory: DefaultLateResponseMemory}
}

type commandKey struct {
	target     uid.ID
	sequenceID uint16
}

type pendingCommand struct {
	key     commandKey
	cmd     *wire.Acmpdu
	frame   []byte
	handler ResultHandler
	retries int
	timeout time.Duration
	sentAt  time.Time
	timer   *executor.Timer
}

// StateMachine is the ACMP state machine of one protocol interface.
type StateMachine struct {
	cfg    Config
	clock  clock.Clock
	logger *slog.Logger

	pending   map[commandKey]*pendingCommand
	late      *lru.Cache[commandKey, time.Time]
	nextSeq   map[uid.ID]uint16
	tracker   *Tracker
	idleWaits []chan struct{}
	closed    bool
}

// New creates a state machine.
func New(cfg Config) (*StateMachine, error) {
	if cfg.Executor == nil || cfg.Locker == nil || cfg.Delegate == nil {
		return nil, fmt.Errorf("%w: acmp needs an executor, a locker and a delegate", status.ErrInvalidParameters)
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.LateResponseMemory <= 0 {
		cfg.LateResponseMemory = DefaultLateResponseMemory
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
		pending: make(map[commandKey]*pendingCommand),
		late:    late,
		nextSeq: make(map[uid.ID]uint16),
		tracker: NewTracker(),
	}, nil
}

func (sm *StateMachine) timeoutFor(t wire.AcmpMessageType) time.Duration {
	if d, ok := sm.cfg.Timeouts[t]; ok && d > 0 {
		return d
	}
	if d, ok := DefaultTimeouts[t]; ok {
		return d
	}
	return DefaultTimeouts[wire.AcmpMessageTypeConnectRxCommand]
}

// SendCommand sends cmd and returns without waiting. The state machine
// owns cmd afterwards: it sets its source address and sequence_id.
//
// onResult is called exactly once on the executor, unless SendCommand
// returns an error.
func (sm *StateMachine) SendCommand(cmd *wire.Acmpdu, onResult ResultHandler) error {
	if cmd.MessageType.IsResponse() || cmd.MessageType > wire.AcmpMessageTypeGetTxConnectionCommand {
		return fmt.Errorf("%w: %s is not a command", status.ErrMessageNotSupported, cmd.MessageType)
	}

	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	if sm.closed {
		return status.ErrInterfaceShutdown
	}
	if !sm.cfg.Delegate.IsLocalController(cmd.ControllerEntityID) {
		return fmt.Errorf("%w: %s is not a local controller", status.ErrInvalidEntityType, cmd.ControllerEntityID)
	}

	target := cmd.TargetEntityID()
	cmd.SrcAddress = sm.cfg.MacAddress
	if cmd.DestAddress.IsZero() {
		cmd.DestAddress = wire.AcmpMulticastAddress
	}
	cmd.SequenceID = sm.allocateSequence(target)
	frame, err := wire.EncodeAcmpdu(cmd)
	if err != nil {
		return fmt.Errorf("%w: %w", status.ErrInvalidParameters, err)
	}

	p := &pendingCommand{
		key:     commandKey{target: target, sequenceID: cmd.SequenceID},
		cmd:     cmd,
		frame:   frame,
		handler: onResult,
		retries: sm.cfg.Retries,
		timeout: sm.timeoutFor(cmd.MessageType),
	}

	if err := sm.cfg.Delegate.SendFrame(frame, cmd); err != nil {
		sm.logger.Warn("failed to send acmp command",
			"message_type", cmd.MessageType, "sequence_id", cmd.SequenceID, "error", err)
		sm.complete(p, nil, fmt.Errorf("%w: %w", status.ErrTransportError, err))
		return nil
	}

	if cmd.MessageType == wire.AcmpMessageTypeConnectRxCommand {
		sm.setState(Listener(cmd), ConnectionState{State: FastConnecting, Talker: Talker(cmd)})
	}

	sm.late.Remove(p.key)
	p.sentAt = sm.clock.Now()
	p.timer = sm.cfg.Executor.AfterFunc(p.timeout, sm.locked(func() { sm.expire(p) }))
	sm.pending[p.key] = p
	return nil
}

func (sm *StateMachine) allocateSequence(target uid.ID) uint16 {
	for {
		seq := sm.nextSeq[target]
		sm.nextSeq[target] = seq + 1
		if _, busy := sm.pending[commandKey{target: target, sequenceID: seq}]; !busy {
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
	if sm.pending[p.key] != p {
		return
	}

	if p.retries > 0 {
		p.retries--
		sm.cfg.Delegate.OnAcmpRetry(p.key.target, p.cmd)
		if err := sm.cfg.Delegate.SendFrame(p.frame, p.cmd); err == nil {
			p.timer.Reset(p.timeout)
			return
		}
	}

	delete(sm.pending, p.key)
	sm.late.Add(p.key, sm.clock.Now())
	sm.logger.Debug("acmp command timed out",
		"message_type", p.cmd.MessageType, "target_entity_id", p.key.target, "sequence_id", p.key.sequenceID)
	sm.cfg.Delegate.OnAcmpTimeout(p.key.target, p.cmd)
	if p.cmd.MessageType == wire.AcmpMessageTypeConnectRxCommand {
		listener := Listener(p.cmd)
		if sm.tracker.Get(listener).State == FastConnecting {
			sm.setState(listener, ConnectionState{State: NotConnected})
		}
	}
	sm.complete(p, nil, status.ErrTimeout)
	sm.checkIdle()
}

// HandleAcmpdu processes a received ACMP message.
func (sm *StateMachine) HandleAcmpdu(pdu *wire.Acmpdu) {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	if sm.closed {
		return
	}

	if !pdu.MessageType.IsResponse() {
		sm.cfg.Delegate.OnAcmpSniffedCommand(pdu)
		return
	}
	sm.cfg.Delegate.OnAcmpSniffedResponse(pdu)
	sm.trackResponse(pdu)

	if !sm.cfg.Delegate.IsLocalController(pdu.ControllerEntityID) {
		return
	}

	// Talkers and listeners exchange commands carrying the controller_entity_id
	// of the controller that started the connection, with their own
	// sequence_id. Only a response to a command of ours that timed out is
	// unexpected.
	key := commandKey{target: pdu.TargetEntityID(), sequenceID: pdu.SequenceID}
	p, ok := sm.pending[key]
	if !ok || pdu.MessageType != p.cmd.MessageType.Response() {
		if timedOutAt, late := sm.late.Peek(key); late && !ok {
			sm.late.Remove(key)
			sm.logger.Debug("late acmp response", "message_type", pdu.MessageType,
				"target_entity_id", key.target, "sequence_id", key.sequenceID, "late_by", sm.clock.Since(timedOutAt))
			sm.cfg.Delegate.OnAcmpUnexpectedResponse(pdu)
		}
		return
	}

	delete(sm.pending, key)
	p.timer.Stop()
	sm.cfg.Delegate.OnAcmpResponseTime(key.target, p.cmd, sm.clock.Since(p.sentAt))
	if p.cmd.MessageType == wire.AcmpMessageTypeConnectRxCommand && pdu.Status != wire.AcmpStatusSuccess {
		sm.setState(Listener(p.cmd), ConnectionState{State: NotConnected})
	}
	sm.complete(p, pdu, nil)
	sm.checkIdle()
}

// trackResponse updates the tracker from any successful listener response.
func (sm *StateMachine) trackResponse(resp *wire.Acmpdu) {
	if resp.Status != wire.AcmpStatusSuccess {
		return
	}
	listener := Listener(resp)
	switch resp.MessageType {
	case wire.AcmpMessageTypeConnectRxResponse:
		sm.setState(listener, ConnectionState{State: Connected, Talker: Talker(resp)})
	case wire.AcmpMessageTypeDisconnectRxResponse:
		sm.setState(listener, ConnectionState{State: NotConnected})
	case wire.AcmpMessageTypeGetRxStateResponse:
		if resp.ConnectionCount > 0 {
			sm.setState(listener, ConnectionState{State: Connected, Talker: Talker(resp)})
		} else {
			sm.setState(listener, ConnectionState{State: NotConnected})
		}
	}
}

func (sm *StateMachine) setState(listener entity.StreamIdentification, cs ConnectionState) {
	if !sm.tracker.Set(listener, cs) {
		return
	}
	sm.logger.Debug("listener connection state changed", "listener", listener, "state", cs)
	sm.cfg.Delegate.OnListenerConnectionStateChanged(listener, sm.tracker.Get(listener))
}

// ListenerState returns the known state of a listener stream.
func (sm *StateMachine) ListenerState(listener entity.StreamIdentification) ConnectionState {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	return sm.tracker.Get(listener)
}

// ListenerStates returns every listener stream not in NotConnected.
func (sm *StateMachine) ListenerStates() map[entity.StreamIdentification]ConnectionState {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	return sm.tracker.All()
}

// Pending returns the number of commands awaiting a response.
func (sm *StateMachine) Pending() int {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	return len(sm.pending)
}

// FailAll completes every pending command with err.
func (sm *StateMachine) FailAll(err error) {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	for key, p := range sm.pending {
		delete(sm.pending, key)
		p.timer.Stop()
		sm.complete(p, nil, err)
	}
	sm.checkIdle()
}

// WaitIdle returns a channel closed once no command is pending.
func (sm *StateMachine) WaitIdle() <-chan struct{} {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	ch := make(chan struct{})
	if len(sm.pending) == 0 {
		close(ch)
		return ch
	}
	sm.idleWaits = append(sm.idleWaits, ch)
	return ch
}

func (sm *StateMachine) checkIdle() {
	if len(sm.pending) != 0 {
		return
	}
	for _, ch := range sm.idleWaits {
		close(ch)
	}
	sm.idleWaits = nil
}

// Close stops every timer.
func (sm *StateMachine) Close() {
	sm.cfg.Locker.Lock()
	defer sm.cfg.Locker.Unlock()
	sm.closed = true
	for _, p := range sm.pending {
		p.timer.Stop()
	}
}

func (sm *StateMachine) complete(p *pendingCommand, resp *wire.Acmpdu, err error) {
	if p.handler == nil {
		return
	}
	handler := p.handler
	p.handler = nil
	if pushErr := sm.cfg.Executor.Push(func() { handler(resp, err) }); pushErr != nil {
		sm.logger.Warn("dropping acmp completion", "target_entity_id", p.key.target, "error", pushErr)
	}
}
