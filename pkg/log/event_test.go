package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{DirectionIn.String(), "IN"},
		{DirectionOut.String(), "OUT"},
		{DirectionInternal.String(), "INTERNAL"},
		{Direction(9).String(), "UNKNOWN"},
		{LayerTransport.String(), "TRANSPORT"},
		{LayerWire.String(), "WIRE"},
		{LayerEngine.String(), "ENGINE"},
		{CategoryStatistic.String(), "STATISTIC"},
		{StateEntityListenerConnection.String(), "LISTENER_CONNECTION"},
		{StatisticAecpRetry.String(), "AECP_RETRY"},
		{StatisticKind(200).String(), "UNKNOWN"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestNewFrameEventTruncates(t *testing.T) {
	short := NewFrameEvent(make([]byte, 60))
	if short.Size != 60 || short.Truncated || len(short.Data) != 60 {
		t.Errorf("short frame: %+v", short)
	}

	frame := bytes.Repeat([]byte{0xAB}, 300)
	long := NewFrameEvent(frame)
	if long.Size != 300 {
		t.Errorf("Size = %d, want 300", long.Size)
	}
	if !long.Truncated || len(long.Data) != MaxFrameCapture {
		t.Errorf("Truncated = %v, len(Data) = %d", long.Truncated, len(long.Data))
	}

	frame[0] = 0
	if long.Data[0] != 0xAB {
		t.Error("Data aliases the frame buffer")
	}
}

func TestNewPduEventAem(t *testing.T) {
	target := uid.New(0x001B92FFFE000001)
	pdu := &wire.AemAecpdu{
		AecpHeader: wire.AecpHeader{
			MessageType:        wire.AecpMessageTypeAemResponse,
			Status:             wire.AemStatusEntityLocked,
			TargetEntityID:     target,
			ControllerEntityID: uid.New(0x0A),
			SequenceID:         42,
		},
		Unsolicited: true,
		CommandType: wire.AemCommandAcquireEntity,
		Payload:     []byte{1, 2, 3, 4},
	}

	ev, entityID := NewPduEvent(pdu)
	if entityID != target.String() {
		t.Errorf("entity = %q, want %q", entityID, target.String())
	}
	if ev.Subtype != wire.SubtypeAecp {
		t.Errorf("Subtype = %v", ev.Subtype)
	}
	if ev.SequenceID == nil || *ev.SequenceID != 42 {
		t.Errorf("SequenceID = %v", ev.SequenceID)
	}
	if ev.CommandName != "ACQUIRE_ENTITY" {
		t.Errorf("CommandName = %q", ev.CommandName)
	}
	if ev.Status == nil || *ev.Status != uint8(wire.AemStatusEntityLocked) {
		t.Errorf("Status = %v", ev.Status)
	}
	if !ev.Unsolicited || ev.PayloadLength != 4 {
		t.Errorf("Unsolicited = %v, PayloadLength = %d", ev.Unsolicited, ev.PayloadLength)
	}
}

func TestNewPduEventCommandHasNoStatus(t *testing.T) {
	ev, _ := NewPduEvent(&wire.Acmpdu{
		MessageType:      wire.AcmpMessageTypeConnectRxCommand,
		ListenerEntityID: uid.New(2),
		TalkerEntityID:   uid.New(1),
		SequenceID:       7,
	})
	if ev.Status != nil {
		t.Errorf("command carries status %v", *ev.Status)
	}
	if ev.MessageName != wire.AcmpMessageTypeConnectRxCommand.String() {
		t.Errorf("MessageName = %q", ev.MessageName)
	}
}

func TestPduEventCBORRoundTrip(t *testing.T) {
	ev, entityID := NewPduEvent(&wire.Adpdu{
		MessageType:    wire.AdpMessageTypeEntityAvailable,
		EntityID:       uid.New(0x0102030405060708),
		AvailableIndex: 12,
	})
	original := Event{
		Timestamp:     time.Date(2026, 3, 1, 10, 15, 32, 123456789, time.UTC),
		SessionID:     "abc12345-def6-7890-abcd-ef1234567890",
		Direction:     DirectionIn,
		Layer:         LayerWire,
		Category:      CategoryMessage,
		InterfaceName: "eth0",
		EntityID:      entityID,
		Pdu:           ev,
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.EntityID != "0x0102030405060708" {
		t.Errorf("EntityID = %q", decoded.EntityID)
	}
	if decoded.Pdu == nil || decoded.Pdu.AvailableIndex == nil || *decoded.Pdu.AvailableIndex != 12 {
		t.Fatalf("Pdu = %+v", decoded.Pdu)
	}
	if decoded.Pdu.MessageName != "ENTITY_AVAILABLE" {
		t.Errorf("MessageName = %q", decoded.Pdu.MessageName)
	}
}

func TestStatisticEventCBORKeepsDuration(t *testing.T) {
	d := 3 * time.Millisecond
	data, err := EncodeEvent(Event{
		Category:  CategoryStatistic,
		Statistic: &StatisticEvent{Kind: StatisticAecpResponseTime, Duration: &d},
	})
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if decoded.Statistic == nil || decoded.Statistic.Duration == nil || *decoded.Statistic.Duration != d {
		t.Errorf("Statistic = %+v", decoded.Statistic)
	}
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xff, 0x00}); err == nil {
		t.Error("expected error for invalid CBOR")
	}
}
