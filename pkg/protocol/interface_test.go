package protocol

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/avb-tools/avdecc-go/pkg/acmp"
	"github.com/avb-tools/avdecc-go/pkg/aecp"
	"github.com/avb-tools/avdecc-go/pkg/entity"
	"github.com/avb-tools/avdecc-go/pkg/executor"
	"github.com/avb-tools/avdecc-go/pkg/status"
	"github.com/avb-tools/avdecc-go/pkg/transport"
	"github.com/avb-tools/avdecc-go/pkg/transport/mocks"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

const waitFor = 2 * time.Second

var (
	localMac  = wire.MacAddress{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	remoteMac = wire.MacAddress{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}

	controllerID = uid.New(0x001B92FFFE000001)
	remoteID     = uid.New(0x001B92FFFE000002)
)

// recorder logs the notifications it receives.
type recorder struct {
	BaseObserver

	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func (r *recorder) has(event string) bool {
	return slices.Contains(r.all(), event)
}

func (r *recorder) OnTransportError(error) { r.add("transport-error") }
func (r *recorder) OnLocalEntityOnline(e entity.Entity) { r.add("local-online %s", e.ID()) }
func (r *recorder) OnLocalEntityOffline(id uid.ID) { r.add("local-offline %s", id) }
func (r *recorder) OnRemoteEntityOnline(e entity.Entity) { r.add("remote-online %s", e.ID()) }
func (r *recorder) OnRemoteEntityUpdated(e entity.Entity) { r.add("remote-updated %s", e.ID()) }
func (r *recorder) OnRemoteEntityOffline(id uid.ID) { r.add("remote-offline %s", id) }
func (r *recorder) OnAdpduReceived(p *wire.Adpdu) { r.add("adpdu %s", p.MessageType) }
func (r *recorder) OnAecpduReceived(p wire.Aecpdu) { r.add("aecpdu %s", p.Header().MessageType) }
func (r *recorder) OnAcmpduReceived(p *wire.Acmpdu) { r.add("acmpdu %s", p.MessageType) }
func (r *recorder) OnAcmpSniffedCommand(p *wire.Acmpdu) { r.add("sniffed %s", p.MessageType) }
func (r *recorder) OnMalformedFrame([]byte, error) { r.add("malformed") }
func (r *recorder) OnAecpResponseTime(uid.ID, time.Duration) { r.add("aecp-response-time") }

// mockLink wraps a mocked transport and captures its receiver and the
// frames sent through it.
type mockLink struct {
	tr *mocks.MockTransport

	mu       sync.Mutex
	receiver transport.Receiver
	frames   [][]byte
}

func newMockLink(t *testing.T, mac wire.MacAddress) *mockLink {
	t.Helper()
	l := &mockLink{tr: mocks.NewMockTransport(t)}
	l.tr.EXPECT().Name().Return("mock0").Maybe()
	l.tr.EXPECT().MacAddress().Return(mac).Maybe()
	l.tr.EXPECT().Start(mock.Anything).RunAndReturn(func(r transport.Receiver) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.receiver = r
		return nil
	}).Maybe()
	l.tr.EXPECT().Send(mock.Anything).RunAndReturn(func(frame []byte) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.frames = append(l.frames, slices.Clone(frame))
		return nil
	}).Maybe()
	l.tr.EXPECT().Close().Return(nil).Maybe()
	return l
}

func (l *mockLink) deliver(t *testing.T, p wire.Pdu) {
	t.Helper()
	frame, err := wire.Encode(p)
	require.NoError(t, err)
	l.deliverFrame(frame)
}

func (l *mockLink) deliverFrame(frame []byte) {
	l.mu.Lock()
	r := l.receiver
	l.mu.Unlock()
	r.OnFrame(frame)
}

func (l *mockLink) sent(t *testing.T) []wire.Pdu {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]wire.Pdu, 0, len(l.frames))
	for _, frame := range l.frames {
		p, err := wire.Decode(frame)
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

type harness struct {
	pi    *Interface
	link  *mockLink
	rec   *recorder
	clock *clock.Mock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	link := newMockLink(t, localMac)
	mockClock := clock.NewMock()

	cfg := DefaultConfig()
	cfg.Clock = mockClock
	pi, err := New(link.tr, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pi.Shutdown(context.Background()) })

	rec := &recorder{}
	pi.Subscribe(rec)
	return &harness{pi: pi, link: link, rec: rec, clock: mockClock}
}

func (h *harness) flush(t *testing.T) {
	t.Helper()
	require.NoError(t, h.pi.Executor().Flush(context.Background()))
}

func (h *harness) registerController(t *testing.T) {
	t.Helper()
	le, err := entity.NewLocalEntity(
		entity.CommonInformation{
			EntityID:               controllerID,
			ControllerCapabilities: wire.NewBitfield(wire.ControllerCapabilityImplemented),
		},
		entity.InterfaceInformation{InterfaceIndex: entity.GlobalInterfaceIndex, MacAddress: localMac},
	)
	require.NoError(t, err)
	_, err = h.pi.RegisterLocalEntity(le)
	require.NoError(t, err)
}

func remoteAdvertisement(msgType wire.AdpMessageType) *wire.Adpdu {
	e := entity.New(
		entity.CommonInformation{EntityID: remoteID, EntityModelID: uid.New(0x001B92FFFE00BBBB)},
		entity.InterfaceInformation{
			InterfaceIndex: entity.GlobalInterfaceIndex,
			MacAddress:     remoteMac,
			ValidTime:      10,
			AvailableIndex: 1,
		},
	)
	return e.Adpdu(msgType, &e.Interfaces[0])
}

type aecpResult struct {
	resp wire.Aecpdu
	err  error
}

func (h *harness) sendAcquire(t *testing.T) <-chan aecpResult {
	t.Helper()
	results := make(chan aecpResult, 1)
	cmd := aecp.AcquireEntity(controllerID, remoteID, 0, wire.DescriptorEntity, 0)
	require.NoError(t, h.pi.SendAecpCommand(cmd, func(resp wire.Aecpdu, err error) {
		results <- aecpResult{resp, err}
	}))
	return results
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitFor):
		t.Fatal("nothing received")
		var zero T
		return zero
	}
}

func TestNewValidation(t *testing.T) {
	t.Run("nil transport", func(t *testing.T) {
		_, err := New(nil, DefaultConfig())
		assert.ErrorIs(t, err, status.ErrInvalidParameters)
	})

	t.Run("zero MAC address", func(t *testing.T) {
		link := newMockLink(t, wire.MacAddress{})
		_, err := New(link.tr, DefaultConfig())
		assert.ErrorIs(t, err, status.ErrInvalidParameters)
	})

	t.Run("stopped executor", func(t *testing.T) {
		exec := executor.New(executor.Config{})
		require.NoError(t, exec.Close(context.Background()))

		cfg := DefaultConfig()
		cfg.Executor = exec
		_, err := New(newMockLink(t, localMac).tr, cfg)
		assert.ErrorIs(t, err, status.ErrExecutorNotInitialized)
	})

	t.Run("start failure", func(t *testing.T) {
		tr := mocks.NewMockTransport(t)
		tr.EXPECT().Name().Return("mock0").Maybe()
		tr.EXPECT().MacAddress().Return(localMac)
		tr.EXPECT().Start(mock.Anything).Return(errors.New("permission denied"))
		tr.EXPECT().Close().Return(nil)

		_, err := New(tr, DefaultConfig())
		assert.ErrorIs(t, err, status.ErrTransportError)
	})
}

func TestDuplicateLocalEntity(t *testing.T) {
	h := newHarness(t)
	h.registerController(t)

	le, err := entity.NewLocalEntity(
		entity.CommonInformation{EntityID: controllerID},
		entity.InterfaceInformation{MacAddress: localMac},
	)
	require.NoError(t, err)
	_, err = h.pi.RegisterLocalEntity(le)
	assert.ErrorIs(t, err, status.ErrDuplicateLocalEntityID)
	assert.Len(t, h.pi.LocalEntities(), 1)
}

func TestUnregisterLocalEntity(t *testing.T) {
	h := newHarness(t)

	id, err := h.pi.DynamicEID()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0200_0000_0001_0001), id.Value())

	le, err := entity.NewLocalEntity(
		entity.CommonInformation{EntityID: id},
		entity.InterfaceInformation{InterfaceIndex: entity.GlobalInterfaceIndex, MacAddress: localMac},
	)
	require.NoError(t, err)
	handle, err := h.pi.RegisterLocalEntity(le)
	require.NoError(t, err)
	require.NoError(t, h.pi.EnableEntityAdvertising(id, 4*time.Second))

	require.NoError(t, h.pi.UnregisterLocalEntity(handle))
	assert.ErrorIs(t, h.pi.UnregisterLocalEntity(handle), status.ErrUnknownLocalEntity)
	assert.ErrorIs(t, h.pi.EnableEntityAdvertising(id, 4*time.Second), status.ErrUnknownLocalEntity)

	sent := h.link.sent(t)
	require.Len(t, sent, 2)
	assert.Equal(t, wire.AdpMessageTypeEntityDeparting, sent[1].(*wire.Adpdu).MessageType)
	require.NoError(t, h.pi.ReleaseDynamicEID(id))
}

func TestMalformedFrameFiresNoProtocolCallback(t *testing.T) {
	h := newHarness(t)

	cmd := acmp.ConnectStream(remoteID,
		entity.StreamIdentification{EntityID: remoteID},
		entity.StreamIdentification{EntityID: controllerID},
		wire.ConnectionFlags{})
	cmd.SrcAddress = remoteMac
	frame, err := wire.Encode(cmd)
	require.NoError(t, err)

	h.link.deliverFrame(frame[:40])

	other := make([]byte, 60)
	copy(other, wire.AcmpMulticastAddress[:])
	other[12], other[13] = 0x08, 0x00
	h.link.deliverFrame(other)

	h.flush(t)
	assert.Equal(t, []string{"malformed"}, h.rec.all())
	assert.Equal(t, acmp.NotConnected, h.pi.ListenerConnectionState(entity.StreamIdentification{EntityID: controllerID}).State)
}

func TestLocalAdvertising(t *testing.T) {
	h := newHarness(t)
	h.registerController(t)

	require.NoError(t, h.pi.EnableEntityAdvertising(controllerID, 4*time.Second))
	h.flush(t)
	assert.True(t, h.rec.has("local-online "+controllerID.String()))
	assert.False(t, h.rec.has("remote-online "+controllerID.String()))

	sent := h.link.sent(t)
	require.Len(t, sent, 1)
	adv := sent[0].(*wire.Adpdu)
	assert.Equal(t, wire.AdpMessageTypeEntityAvailable, adv.MessageType)
	assert.Equal(t, uint32(1), adv.AvailableIndex)
	assert.Equal(t, localMac, adv.SrcAddress)

	require.NoError(t, h.pi.SetEntityNeedsAdvertise(controllerID))
	require.NoError(t, h.pi.DisableEntityAdvertising(controllerID))
	h.flush(t)
	assert.True(t, h.rec.has("local-offline "+controllerID.String()))

	sent = h.link.sent(t)
	require.Len(t, sent, 3)
	assert.Equal(t, uint32(2), sent[1].(*wire.Adpdu).AvailableIndex)
	assert.Equal(t, wire.AdpMessageTypeEntityDeparting, sent[2].(*wire.Adpdu).MessageType)

	assert.ErrorIs(t, h.pi.SetEntityNeedsAdvertise(controllerID), status.ErrInvalidParameters)
	assert.ErrorIs(t, h.pi.EnableEntityAdvertising(controllerID, time.Second), status.ErrInvalidParameters)
}

func TestRemoteEntityOfflineDiscardsCommands(t *testing.T) {
	h := newHarness(t)
	h.registerController(t)

	assert.ErrorIs(t, h.pi.SendAecpCommand(
		aecp.AcquireEntity(controllerID, remoteID, 0, wire.DescriptorEntity, 0), nil),
		status.ErrUnknownRemoteEntity)

	h.link.deliver(t, remoteAdvertisement(wire.AdpMessageTypeEntityAvailable))
	h.flush(t)
	assert.Equal(t, []string{"adpdu ENTITY_AVAILABLE", "remote-online " + remoteID.String()}, h.rec.all())
	require.Len(t, h.pi.DiscoveredEntities(), 1)

	results := h.sendAcquire(t)
	sent := h.link.sent(t)
	require.Len(t, sent, 1)
	assert.Equal(t, remoteMac, sent[0].Layer2().DestAddress)

	h.link.deliver(t, remoteAdvertisement(wire.AdpMessageTypeEntityDeparting))
	r := receive(t, results)
	assert.ErrorIs(t, r.err, status.ErrUnknownRemoteEntity)
	assert.Equal(t, status.AemUnknownEntity, status.AemStatusFromResult(r.resp, r.err))

	h.flush(t)
	assert.True(t, h.rec.has("remote-offline "+remoteID.String()))
	_, ok := h.pi.DiscoveredEntity(remoteID)
	assert.False(t, ok)
}

func TestAecpResponseCompletesCommand(t *testing.T) {
	h := newHarness(t)
	h.registerController(t)
	h.link.deliver(t, remoteAdvertisement(wire.AdpMessageTypeEntityAvailable))

	results := h.sendAcquire(t)
	cmd := h.link.sent(t)[0].(*wire.AemAecpdu)

	resp := *cmd
	resp.MessageType = cmd.MessageType.Response()
	resp.SrcAddress, resp.DestAddress = remoteMac, localMac
	h.link.deliver(t, &resp)

	r := receive(t, results)
	require.NoError(t, r.err)
	assert.Equal(t, status.AemSuccess, status.AemStatusFromResult(r.resp, r.err))
	h.flush(t)
	assert.True(t, h.rec.has("aecp-response-time"))
	assert.True(t, h.rec.has("aecpdu AEM_RESPONSE"))
}

func TestTransportFailure(t *testing.T) {
	h := newHarness(t)
	h.registerController(t)
	h.link.deliver(t, remoteAdvertisement(wire.AdpMessageTypeEntityAvailable))
	results := h.sendAcquire(t)

	h.link.mu.Lock()
	r := h.link.receiver
	h.link.mu.Unlock()
	r.OnTransportError(errors.New("link down"))

	assert.ErrorIs(t, receive(t, results).err, status.ErrTransportError)
	h.flush(t)
	assert.True(t, h.rec.has("transport-error"))

	assert.ErrorIs(t, h.pi.DiscoverRemoteEntities(), status.ErrTransportError)
	assert.ErrorIs(t, h.pi.SendAcmpMessage(&wire.Acmpdu{}), status.ErrTransportError)
}

func TestShutdown(t *testing.T) {
	h := newHarness(t)
	h.registerController(t)
	require.NoError(t, h.pi.EnableEntityAdvertising(controllerID, 10*time.Second))
	h.link.deliver(t, remoteAdvertisement(wire.AdpMessageTypeEntityAvailable))
	results := h.sendAcquire(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, h.pi.Shutdown(ctx))

	// Completions ran before Shutdown returned.
	select {
	case r := <-results:
		assert.ErrorIs(t, r.err, status.ErrTransportError)
	default:
		t.Fatal("pending command not resolved")
	}

	sent := h.link.sent(t)
	last := sent[len(sent)-1].(*wire.Adpdu)
	assert.Equal(t, wire.AdpMessageTypeEntityDeparting, last.MessageType)
	assert.Equal(t, controllerID, last.EntityID)

	_, err := h.pi.RegisterLocalEntity(&entity.LocalEntity{})
	assert.ErrorIs(t, err, status.ErrInterfaceShutdown)
	assert.Empty(t, h.pi.LocalEntities())
	assert.Empty(t, h.pi.DiscoveredEntities())
	_, ok := h.pi.DiscoveredEntity(remoteID)
	assert.False(t, ok)
	assert.Empty(t, h.pi.ListenerConnectionStates())
	assert.ErrorIs(t, h.pi.DiscoverRemoteEntities(), status.ErrInterfaceShutdown)
	assert.ErrorIs(t, h.pi.SendAcmpCommand(&wire.Acmpdu{}, nil), status.ErrInterfaceShutdown)
	assert.NoError(t, h.pi.Shutdown(context.Background()))
	assert.True(t, h.pi.Executor().Stopped())
}

func TestShutdownWaitsForInflightCommands(t *testing.T) {
	h := newHarness(t)
	h.registerController(t)
	h.link.deliver(t, remoteAdvertisement(wire.AdpMessageTypeEntityAvailable))
	results := h.sendAcquire(t)

	done := make(chan error, 1)
	go func() { done <- h.pi.Shutdown(context.Background()) }()

	// Shutdown waits until the command times out.
	assert.Eventually(t, func() bool {
		h.clock.Add(100 * time.Millisecond)
		select {
		case r := <-results:
			return assert.ErrorIs(t, r.err, status.ErrTimeout)
		default:
			return false
		}
	}, waitFor, 10*time.Millisecond)
	require.NoError(t, receive(t, done))
}

func TestShutdownCompletesCommandAnsweredDuringWait(t *testing.T) {
	h := newHarness(t)
	h.registerController(t)
	h.link.deliver(t, remoteAdvertisement(wire.AdpMessageTypeEntityAvailable))
	results := h.sendAcquire(t)
	cmd := h.link.sent(t)[0].(*wire.AemAecpdu)

	done := make(chan error, 1)
	go func() { done <- h.pi.Shutdown(context.Background()) }()
	require.Eventually(t, func() bool {
		return errors.Is(h.pi.DiscoverRemoteEntities(), status.ErrInterfaceShutdown)
	}, waitFor, time.Millisecond)

	resp := *cmd
	resp.MessageType = cmd.MessageType.Response()
	resp.SrcAddress, resp.DestAddress = remoteMac, localMac
	h.link.deliver(t, &resp)

	r := receive(t, results)
	require.NoError(t, r.err)
	assert.Equal(t, status.AemSuccess, status.AemStatusFromResult(r.resp, r.err))
	require.NoError(t, receive(t, done))
}

type unsubscriber struct {
	BaseObserver
	pi     *Interface
	target Observer
	calls  int
}

func (u *unsubscriber) OnRemoteEntityOnline(entity.Entity) {
	u.calls++
	u.pi.Unsubscribe(u.target)
}

func TestUnsubscribeDuringNotification(t *testing.T) {
	h := newHarness(t)
	h.pi.Unsubscribe(h.rec)

	later := &recorder{}
	first := &unsubscriber{pi: h.pi, target: later}
	h.pi.Subscribe(first)
	h.pi.Subscribe(first)
	h.pi.Subscribe(later)

	h.link.deliver(t, remoteAdvertisement(wire.AdpMessageTypeEntityAvailable))
	h.flush(t)
	assert.Equal(t, 1, first.calls)
	assert.True(t, later.has("remote-online "+remoteID.String()))

	h.link.deliver(t, remoteAdvertisement(wire.AdpMessageTypeEntityDeparting))
	h.flush(t)
	assert.False(t, later.has("remote-offline "+remoteID.String()))
	assert.False(t, h.pi.Unsubscribe(later))
}

func TestLockIsReentrant(t *testing.T) {
	h := newHarness(t)
	h.registerController(t)

	h.pi.Lock()
	defer h.pi.Unlock()
	assert.True(t, h.pi.IsSelfLocked())
	require.NoError(t, h.pi.EnableEntityAdvertising(controllerID, 4*time.Second))
	assert.True(t, h.pi.IsSelfLocked())
}

// responder answers every AEM command with SUCCESS.
type responder struct {
	BaseObserver
	pi *Interface
}

func (r *responder) OnAecpCommand(cmd wire.Aecpdu) {
	aem, ok := cmd.(*wire.AemAecpdu)
	if !ok {
		return
	}
	resp := *aem
	resp.MessageType = aem.MessageType.Response()
	resp.Status = wire.AecpStatusSuccess
	resp.DestAddress = aem.SrcAddress
	_ = r.pi.SendAemAecpMessage(&resp)
}

func TestVirtualBusEndToEnd(t *testing.T) {
	bus := transport.NewBus()
	ctrlTr := bus.Attach("ctrl0", wire.MacAddress{})
	devTr := bus.Attach("dev0", wire.MacAddress{})

	ctrl, err := New(ctrlTr, DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctrl.Shutdown(context.Background()) })
	dev, err := New(devTr, DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Shutdown(context.Background()) })

	devID := uid.New(0x001B92FFFE00D001)
	talker, err := entity.NewLocalEntity(
		entity.CommonInformation{EntityID: devID, TalkerStreamSources: 2},
		entity.InterfaceInformation{InterfaceIndex: entity.GlobalInterfaceIndex, MacAddress: devTr.MacAddress()},
	)
	require.NoError(t, err)
	_, err = dev.RegisterLocalEntity(talker)
	require.NoError(t, err)
	dev.Subscribe(&responder{pi: dev})
	require.NoError(t, dev.EnableEntityAdvertising(devID, 10*time.Second))

	ctrlID, err := ctrl.DynamicEID()
	require.NoError(t, err)
	controller, err := entity.NewLocalEntity(
		entity.CommonInformation{
			EntityID:               ctrlID,
			ControllerCapabilities: wire.NewBitfield(wire.ControllerCapabilityImplemented),
		},
		entity.InterfaceInformation{InterfaceIndex: entity.GlobalInterfaceIndex, MacAddress: ctrlTr.MacAddress()},
	)
	require.NoError(t, err)
	_, err = ctrl.RegisterLocalEntity(controller)
	require.NoError(t, err)
	require.NoError(t, ctrl.DiscoverRemoteEntities())

	require.Eventually(t, func() bool {
		_, ok := ctrl.DiscoveredEntity(devID)
		return ok
	}, waitFor, 10*time.Millisecond)

	results := make(chan aecpResult, 1)
	cmd := aecp.AcquireEntity(ctrlID, devID, 0, wire.DescriptorEntity, 0)
	require.NoError(t, ctrl.SendAecpCommand(cmd, func(resp wire.Aecpdu, err error) {
		results <- aecpResult{resp, err}
	}))
	r := receive(t, results)
	require.NoError(t, r.err)
	assert.Equal(t, status.AemSuccess, status.AemStatusFromResult(r.resp, r.err))
	assert.Equal(t, devTr.MacAddress(), r.resp.Layer2().SrcAddress)
}
