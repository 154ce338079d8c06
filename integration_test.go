package avdecc_test

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avb-tools/avdecc-go/pkg/acmp"
	"github.com/avb-tools/avdecc-go/pkg/aecp"
	"github.com/avb-tools/avdecc-go/pkg/entity"
	"github.com/avb-tools/avdecc-go/pkg/log"
	"github.com/avb-tools/avdecc-go/pkg/metrics"
	"github.com/avb-tools/avdecc-go/pkg/protocol"
	"github.com/avb-tools/avdecc-go/pkg/status"
	"github.com/avb-tools/avdecc-go/pkg/transport"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

const waitFor = 2 * time.Second

var (
	talkerID   = uid.New(0x001B92FFFE00A001)
	listenerID = uid.New(0x001B92FFFE00B001)
)

// device answers AEM commands with SUCCESS and ACMP listener commands
// addressed to its entity as a listener with one connected stream would.
type device struct {
	protocol.BaseObserver
	pi *protocol.Interface
	id uid.ID
}

func (d *device) OnAecpCommand(cmd wire.Aecpdu) {
	aem, ok := cmd.(*wire.AemAecpdu)
	if !ok || aem.TargetEntityID != d.id {
		return
	}
	resp := *aem
	resp.MessageType = aem.MessageType.Response()
	resp.Status = wire.AecpStatusSuccess
	resp.DestAddress = aem.SrcAddress
	_ = d.pi.SendAemAecpMessage(&resp)
}

func (d *device) OnAcmpSniffedCommand(cmd *wire.Acmpdu) {
	if !cmd.MessageType.TargetsListener() || cmd.ListenerEntityID != d.id {
		return
	}
	resp := *cmd
	resp.MessageType = cmd.MessageType.Response()
	resp.Status = wire.AcmpStatusSuccess
	switch cmd.MessageType {
	case wire.AcmpMessageTypeConnectRxCommand:
		resp.ConnectionCount = 1
	case wire.AcmpMessageTypeDisconnectRxCommand:
		resp.ConnectionCount = 0
	}
	_ = d.pi.SendAcmpMessage(&resp)
}

// listenerEvents records listener state notifications.
type listenerEvents struct {
	protocol.BaseObserver

	mu     sync.Mutex
	states []acmp.State
}

func (l *listenerEvents) OnListenerConnectionStateChanged(_ entity.StreamIdentification, cs acmp.ConnectionState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, cs.State)
}

func (l *listenerEvents) last() (acmp.State, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.states) == 0 {
		return acmp.NotConnected, false
	}
	return l.states[len(l.states)-1], true
}

type network struct {
	bus *transport.Bus
}

func newNetwork() *network {
	return &network{bus: transport.NewBus()}
}

func (n *network) startInterface(t *testing.T, name string, cfg protocol.Config) (*protocol.Interface, transport.Transport) {
	t.Helper()
	tr := n.bus.Attach(name, wire.MacAddress{})
	pi, err := protocol.New(tr, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pi.Shutdown(context.Background()) })
	return pi, tr
}

// startDevice registers an advertising entity that answers commands.
func (n *network) startDevice(t *testing.T, name string, common entity.CommonInformation) *protocol.Interface {
	t.Helper()
	pi, tr := n.startInterface(t, name, protocol.DefaultConfig())
	le, err := entity.NewLocalEntity(common,
		entity.InterfaceInformation{InterfaceIndex: entity.GlobalInterfaceIndex, MacAddress: tr.MacAddress()})
	require.NoError(t, err)
	_, err = pi.RegisterLocalEntity(le)
	require.NoError(t, err)
	pi.Subscribe(&device{pi: pi, id: common.EntityID})
	require.NoError(t, pi.EnableEntityAdvertising(common.EntityID, 10*time.Second))
	return pi
}

// startController registers a controller entity with a dynamic ID.
func (n *network) startController(t *testing.T, cfg protocol.Config) (*protocol.Interface, uid.ID) {
	t.Helper()
	pi, tr := n.startInterface(t, "ctrl0", cfg)
	id, err := pi.DynamicEID()
	require.NoError(t, err)
	le, err := entity.NewLocalEntity(
		entity.CommonInformation{
			EntityID:               id,
			ControllerCapabilities: wire.NewBitfield(wire.ControllerCapabilityImplemented),
		},
		entity.InterfaceInformation{InterfaceIndex: entity.GlobalInterfaceIndex, MacAddress: tr.MacAddress()},
	)
	require.NoError(t, err)
	_, err = pi.RegisterLocalEntity(le)
	require.NoError(t, err)
	return pi, id
}

func talkerInfo() entity.CommonInformation {
	return entity.CommonInformation{
		EntityID:            talkerID,
		TalkerStreamSources: 2,
		TalkerCapabilities:  wire.NewBitfield(wire.TalkerCapabilityImplemented),
	}
}

func listenerInfo() entity.CommonInformation {
	return entity.CommonInformation{
		EntityID:             listenerID,
		ListenerStreamSinks:  2,
		ListenerCapabilities: wire.NewBitfield(wire.ListenerCapabilityImplemented),
	}
}

func waitDiscovered(t *testing.T, pi *protocol.Interface, ids ...uid.ID) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, id := range ids {
			if _, ok := pi.DiscoveredEntity(id); !ok {
				return false
			}
		}
		return true
	}, waitFor, 10*time.Millisecond)
}

func acquire(t *testing.T, pi *protocol.Interface, controller, target uid.ID) (wire.Aecpdu, error) {
	t.Helper()
	type result struct {
		resp wire.Aecpdu
		err  error
	}
	results := make(chan result, 1)
	cmd := aecp.AcquireEntity(controller, target, 0, wire.DescriptorEntity, 0)
	require.NoError(t, pi.SendAecpCommand(cmd, func(resp wire.Aecpdu, err error) {
		results <- result{resp, err}
	}))
	select {
	case r := <-results:
		return r.resp, r.err
	case <-time.After(waitFor):
		t.Fatal("no acquire result")
		return nil, nil
	}
}

func acmpCommand(t *testing.T, pi *protocol.Interface, cmd *wire.Acmpdu) *wire.Acmpdu {
	t.Helper()
	type result struct {
		resp *wire.Acmpdu
		err  error
	}
	results := make(chan result, 1)
	require.NoError(t, pi.SendAcmpCommand(cmd, func(resp *wire.Acmpdu, err error) {
		results <- result{resp, err}
	}))
	select {
	case r := <-results:
		require.NoError(t, r.err)
		return r.resp
	case <-time.After(waitFor):
		t.Fatal("no acmp result")
		return nil
	}
}

// TestE2E_Discovery tests that a controller discovers an advertising
// entity and forgets it when it departs.
func TestE2E_Discovery(t *testing.T) {
	net := newNetwork()
	dev := net.startDevice(t, "dev0", talkerInfo())
	ctrl, _ := net.startController(t, protocol.DefaultConfig())

	reg := prometheus.NewRegistry()
	ctrl.Subscribe(metrics.NewCollector(reg, ctrl.Name()))

	require.NoError(t, ctrl.DiscoverRemoteEntities())
	waitDiscovered(t, ctrl, talkerID)

	e, ok := ctrl.DiscoveredEntity(talkerID)
	require.True(t, ok)
	assert.Equal(t, uint16(2), e.Common.TalkerStreamSources)
	assert.True(t, e.Common.TalkerCapabilities.Test(wire.TalkerCapabilityImplemented))

	const online = `
# HELP avdecc_remote_entities Number of remote entities currently online
# TYPE avdecc_remote_entities gauge
avdecc_remote_entities{interface="ctrl0"} 1
`
	require.Eventually(t, func() bool {
		return testutil.GatherAndCompare(reg, strings.NewReader(online), "avdecc_remote_entities") == nil
	}, waitFor, 10*time.Millisecond)

	// Shutdown departs the advertised entity.
	require.NoError(t, dev.Shutdown(context.Background()))
	require.Eventually(t, func() bool {
		_, ok := ctrl.DiscoveredEntity(talkerID)
		return !ok
	}, waitFor, 10*time.Millisecond)
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(strings.Replace(online, "} 1", "} 0", 1)), "avdecc_remote_entities"))
}

// TestE2E_StreamConnection tests that connecting and disconnecting a stream
// is tracked as listener connection state.
func TestE2E_StreamConnection(t *testing.T) {
	net := newNetwork()
	net.startDevice(t, "talker0", talkerInfo())
	net.startDevice(t, "listener0", listenerInfo())
	ctrl, ctrlID := net.startController(t, protocol.DefaultConfig())
	events := &listenerEvents{}
	ctrl.Subscribe(events)

	require.NoError(t, ctrl.DiscoverRemoteEntities())
	waitDiscovered(t, ctrl, talkerID, listenerID)

	talker := entity.StreamIdentification{EntityID: talkerID, StreamIndex: 1}
	listener := entity.StreamIdentification{EntityID: listenerID, StreamIndex: 0}

	resp := acmpCommand(t, ctrl, acmp.ConnectStream(ctrlID, talker, listener, wire.ConnectionFlags{}))
	assert.Equal(t, wire.AcmpStatusSuccess, resp.Status)
	assert.Equal(t, talker, acmp.Talker(resp))

	cs := ctrl.ListenerConnectionState(listener)
	assert.Equal(t, acmp.Connected, cs.State)
	assert.Equal(t, talker, cs.Talker)
	assert.Contains(t, ctrl.ListenerConnectionStates(), listener)
	require.Eventually(t, func() bool {
		s, ok := events.last()
		return ok && s == acmp.Connected
	}, waitFor, 10*time.Millisecond)

	acmpCommand(t, ctrl, acmp.DisconnectStream(ctrlID, talker, listener))
	assert.Equal(t, acmp.NotConnected, ctrl.ListenerConnectionState(listener).State)
	assert.NotContains(t, ctrl.ListenerConnectionStates(), listener)
}

// TestE2E_UnknownEntity tests that commands to undiscovered entities are
// rejected before anything is sent.
func TestE2E_UnknownEntity(t *testing.T) {
	net := newNetwork()
	ctrl, ctrlID := net.startController(t, protocol.DefaultConfig())

	cmd := aecp.AcquireEntity(ctrlID, uid.New(0x0011223344556677), 0, wire.DescriptorEntity, 0)
	err := ctrl.SendAecpCommand(cmd, func(wire.Aecpdu, error) {})
	assert.ErrorIs(t, err, status.ErrUnknownRemoteEntity)
}

// TestE2E_ProtocolTrace tests that a command exchange is recorded in a
// trace file that can be read back and filtered.
func TestE2E_ProtocolTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controller"+log.FileExtension)
	fileLogger, err := log.NewFileLogger(path)
	require.NoError(t, err)

	net := newNetwork()
	net.startDevice(t, "dev0", talkerInfo())
	cfg := protocol.DefaultConfig()
	cfg.ProtocolLogger = fileLogger
	ctrl, ctrlID := net.startController(t, cfg)

	require.NoError(t, ctrl.DiscoverRemoteEntities())
	waitDiscovered(t, ctrl, talkerID)

	resp, err := acquire(t, ctrl, ctrlID, talkerID)
	require.NoError(t, err)
	assert.Equal(t, status.AemSuccess, status.AemStatusFromResult(resp, err))

	require.NoError(t, ctrl.Shutdown(context.Background()))
	require.NoError(t, fileLogger.Close())

	aecpSubtype := wire.SubtypeAecp
	reader, err := log.NewFilteredReader(path, log.Filter{Subtype: &aecpSubtype, EntityID: talkerID.String()})
	require.NoError(t, err)
	defer reader.Close()

	var messages []string
	for event, err := range reader.Events() {
		require.NoError(t, err)
		assert.Equal(t, ctrl.SessionID(), event.SessionID)
		messages = append(messages, event.Direction.String()+" "+event.Pdu.MessageName+" "+event.Pdu.CommandName)
	}
	assert.Equal(t, []string{"OUT AEM_COMMAND ACQUIRE_ENTITY", "IN AEM_RESPONSE ACQUIRE_ENTITY"}, messages)

	stat := log.CategoryStatistic
	statReader, err := log.NewFilteredReader(path, log.Filter{Category: &stat})
	require.NoError(t, err)
	defer statReader.Close()

	var kinds []log.StatisticKind
	for event, err := range statReader.Events() {
		require.NoError(t, err)
		kinds = append(kinds, event.Statistic.Kind)
	}
	assert.Contains(t, kinds, log.StatisticAecpResponseTime)
}
