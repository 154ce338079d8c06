package interactive

import (
	"bytes"
	"context"
	"encoding/binary"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/avb-tools/avdecc-go/pkg/entity"
	"github.com/avb-tools/avdecc-go/pkg/protocol"
	"github.com/avb-tools/avdecc-go/pkg/transport"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

var deviceID = uid.New(0x001B92FFFE00D001)

// echoResponder answers every AEM command addressed to its entity with
// SUCCESS and the command payload. Ownership commands report the sender
// as owner.
type echoResponder struct {
	protocol.BaseObserver
	pi *protocol.Interface
}

func (r *echoResponder) OnAecpCommand(cmd wire.Aecpdu) {
	aem, ok := cmd.(*wire.AemAecpdu)
	if !ok {
		return
	}
	resp := *aem
	resp.Payload = slices.Clone(aem.Payload)
	switch aem.CommandType {
	case wire.AemCommandAcquireEntity, wire.AemCommandLockEntity:
		binary.BigEndian.PutUint64(resp.Payload[4:12], aem.ControllerEntityID.Value())
	}
	resp.MessageType = aem.MessageType.Response()
	resp.Status = wire.AecpStatusSuccess
	resp.DestAddress = aem.SrcAddress
	_ = r.pi.SendAemAecpMessage(&resp)
}

// newShell builds a shell whose controller shares a virtual bus with a
// responding talker entity.
func newShell(t *testing.T) (*Controller, *bytes.Buffer) {
	t.Helper()
	bus := transport.NewBus()
	ctrlTr := bus.Attach("ctrl0", wire.MacAddress{})
	devTr := bus.Attach("dev0", wire.MacAddress{})

	ctrl, err := protocol.New(ctrlTr, protocol.DefaultConfig())
	if err != nil {
		t.Fatalf("controller interface: %v", err)
	}
	t.Cleanup(func() { _ = ctrl.Shutdown(context.Background()) })
	dev, err := protocol.New(devTr, protocol.DefaultConfig())
	if err != nil {
		t.Fatalf("device interface: %v", err)
	}
	t.Cleanup(func() { _ = dev.Shutdown(context.Background()) })

	talker, err := entity.NewLocalEntity(
		entity.CommonInformation{
			EntityID:            deviceID,
			TalkerStreamSources: 2,
			TalkerCapabilities:  wire.NewBitfield(wire.TalkerCapabilityImplemented),
		},
		entity.InterfaceInformation{InterfaceIndex: entity.GlobalInterfaceIndex, MacAddress: devTr.MacAddress()},
	)
	if err != nil {
		t.Fatalf("talker entity: %v", err)
	}
	if _, err := dev.RegisterLocalEntity(talker); err != nil {
		t.Fatalf("register talker: %v", err)
	}
	dev.Subscribe(&echoResponder{pi: dev})
	if err := dev.EnableEntityAdvertising(deviceID, 10*time.Second); err != nil {
		t.Fatalf("advertise talker: %v", err)
	}

	ctrlID, err := ctrl.DynamicEID()
	if err != nil {
		t.Fatalf("dynamic EID: %v", err)
	}
	controller, err := entity.NewLocalEntity(
		entity.CommonInformation{
			EntityID:               ctrlID,
			ControllerCapabilities: wire.NewBitfield(wire.ControllerCapabilityImplemented),
		},
		entity.InterfaceInformation{InterfaceIndex: entity.GlobalInterfaceIndex, MacAddress: ctrlTr.MacAddress()},
	)
	if err != nil {
		t.Fatalf("controller entity: %v", err)
	}
	if _, err := ctrl.RegisterLocalEntity(controller); err != nil {
		t.Fatalf("register controller: %v", err)
	}

	out := &bytes.Buffer{}
	c := &Controller{pi: ctrl, controllerID: ctrlID, timeout: 2 * time.Second, out: out}
	return c, out
}

func waitDiscovered(t *testing.T, c *Controller) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := c.pi.DiscoveredEntity(deviceID); ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("device never discovered")
}

func TestExecuteListAndAcquire(t *testing.T) {
	c, out := newShell(t)
	ctx := context.Background()

	c.Execute(ctx, "discover")
	waitDiscovered(t, c)

	out.Reset()
	c.Execute(ctx, "list")
	got := out.String()
	if !strings.Contains(got, deviceID.String()) {
		t.Errorf("list output misses the device:\n%s", got)
	}
	if !strings.Contains(got, "talker (2 sources)") {
		t.Errorf("list output misses the talker role:\n%s", got)
	}

	out.Reset()
	c.Execute(ctx, "acquire "+deviceID.String())
	got = out.String()
	if !strings.Contains(got, "ACQUIRE_ENTITY: SUCCESS") {
		t.Errorf("acquire did not succeed:\n%s", got)
	}
	if !strings.Contains(got, "Owner: "+c.controllerID.String()) {
		t.Errorf("acquire output misses the owner:\n%s", got)
	}
}

func TestExecuteUnknownEntity(t *testing.T) {
	c, out := newShell(t)

	c.Execute(context.Background(), "lock 0x0011223344556677")
	if !strings.Contains(out.String(), "LOCK_ENTITY: ") || strings.Contains(out.String(), "SUCCESS") {
		t.Errorf("lock of an unknown entity reported:\n%s", out.String())
	}
}

func TestExecuteUsageErrors(t *testing.T) {
	c, out := newShell(t)
	ctx := context.Background()

	tests := []struct {
		input string
		want  string
	}{
		{"acquire", "Error: expected one entity ID"},
		{"identify " + deviceID.String(), "Error: usage: identify"},
		{"connect 0x1 0", "Error: expected <talker> <index> <listener> <index>"},
		{"rxstate nothex 0", "Error: "},
		{"frobnicate", "Unknown command: frobnicate"},
	}
	for _, tc := range tests {
		out.Reset()
		if !c.Execute(ctx, tc.input) {
			t.Fatalf("%q ended the shell", tc.input)
		}
		if !strings.Contains(out.String(), tc.want) {
			t.Errorf("%q: output %q does not contain %q", tc.input, out.String(), tc.want)
		}
	}
}

func TestExecuteQuit(t *testing.T) {
	c := &Controller{out: &bytes.Buffer{}}
	for _, cmd := range []string{"quit", "exit", "q"} {
		if c.Execute(context.Background(), cmd) {
			t.Errorf("%q did not end the shell", cmd)
		}
	}
}

func TestExecuteConnectionsEmpty(t *testing.T) {
	c, out := newShell(t)
	c.Execute(context.Background(), "connections")
	if !strings.Contains(out.String(), "No connected listener streams") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}
