package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

func logOne(t *testing.T, event Event) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	NewSlogAdapter(slog.New(handler)).Log(event)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterLogsFrameEvent(t *testing.T) {
	entry := logOne(t, Event{
		Timestamp:     time.Now(),
		SessionID:     "session-123",
		Direction:     DirectionIn,
		Layer:         LayerTransport,
		Category:      CategoryMessage,
		InterfaceName: "eth0",
		Frame:         &FrameEvent{Size: 82, Data: []byte{0x01, 0x02}},
	})

	want := map[string]any{
		"msg":        "avdecc trace",
		"session_id": "session-123",
		"direction":  "IN",
		"layer":      "TRANSPORT",
		"interface":  "eth0",
		"frame_size": float64(82),
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s: got %v, want %v", k, entry[k], v)
		}
	}
}

func TestSlogAdapterLogsPduEvent(t *testing.T) {
	ev, entityID := NewPduEvent(&wire.AemAecpdu{
		AecpHeader: wire.AecpHeader{
			MessageType:    wire.AecpMessageTypeAemCommand,
			TargetEntityID: uid.New(0x10),
			SequenceID:     3,
		},
		CommandType: wire.AemCommandReadDescriptor,
	})
	entry := logOne(t, Event{Layer: LayerWire, EntityID: entityID, Pdu: ev})

	if entry["subtype"] != "AECP" {
		t.Errorf("subtype: got %v", entry["subtype"])
	}
	if entry["command"] != "READ_DESCRIPTOR" {
		t.Errorf("command: got %v", entry["command"])
	}
	if entry["sequence_id"] != float64(3) {
		t.Errorf("sequence_id: got %v", entry["sequence_id"])
	}
	if entry["entity_id"] != "0x0000000000000010" {
		t.Errorf("entity_id: got %v", entry["entity_id"])
	}
	if _, ok := entry["status"]; ok {
		t.Error("command should not log a status")
	}
}

func TestSlogAdapterLogsStateAndStatistic(t *testing.T) {
	entry := logOne(t, Event{
		Layer:       LayerEngine,
		Category:    CategoryState,
		StateChange: &StateChangeEvent{Entity: StateEntityRemote, OldState: "ONLINE", NewState: "OFFLINE", Reason: "timeout"},
	})
	if entry["entity"] != "REMOTE_ENTITY" || entry["new_state"] != "OFFLINE" || entry["reason"] != "timeout" {
		t.Errorf("state entry = %v", entry)
	}

	seq := uint16(9)
	entry = logOne(t, Event{
		Category:  CategoryStatistic,
		Statistic: &StatisticEvent{Kind: StatisticAecpTimeout, SequenceID: &seq},
	})
	if entry["statistic"] != "AECP_TIMEOUT" || entry["sequence_id"] != float64(9) {
		t.Errorf("statistic entry = %v", entry)
	}
}

func TestSlogAdapterLogsErrorEvent(t *testing.T) {
	code := 5
	entry := logOne(t, Event{
		Category: CategoryError,
		Error:    &ErrorEventData{Layer: LayerWire, Message: "truncated", Code: &code, Context: "decode"},
	})
	if entry["error_layer"] != "WIRE" || entry["error_msg"] != "truncated" || entry["error_code"] != float64(5) {
		t.Errorf("error entry = %v", entry)
	}
}

func TestSlogAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	NewSlogAdapter(slog.New(handler)).Log(Event{SessionID: "x"})
	if buf.Len() != 0 {
		t.Errorf("debug event logged at info level: %s", buf.String())
	}
}
