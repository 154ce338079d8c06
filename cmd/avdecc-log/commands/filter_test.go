package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/avb-tools/avdecc-go/pkg/log"
)

func readAll(t *testing.T, path string) []log.Event {
	t.Helper()
	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	var events []log.Event
	for event, err := range reader.Events() {
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		events = append(events, event)
	}
	return events
}

func TestFilterByEntityID(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	path := createTestLogFile(t, sampleEvents(ts))
	outPath := filepath.Join(t.TempDir(), "filtered.alog")

	var out bytes.Buffer
	// Lower case without prefix matches the stored form.
	err := RunFilter(path, FilterOptions{Output: outPath, EntityID: "001b92fffe000001"}, &out)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	events := readAll(t, outPath)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for _, e := range events {
		if e.EntityID != talkerID {
			t.Errorf("unexpected entity %s", e.EntityID)
		}
	}
	if !strings.Contains(out.String(), "Filtered 3 events to "+outPath) {
		t.Errorf("summary = %q", out.String())
	}
}

func TestFilterByProtocolAndDirection(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	path := createTestLogFile(t, sampleEvents(ts))
	outPath := filepath.Join(t.TempDir(), "filtered.alog")

	err := RunFilter(path, FilterOptions{Output: outPath, Protocol: "AECP", Direction: "in"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	events := readAll(t, outPath)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Pdu == nil || events[0].Pdu.MessageName != "AEM_RESPONSE" {
		t.Errorf("unexpected event: %+v", events[0])
	}
}

func TestFilterByTimeRange(t *testing.T) {
	base := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: base, SessionID: "s1", Category: log.CategoryMessage},
		{Timestamp: base.Add(1 * time.Hour), SessionID: "s1", Category: log.CategoryMessage},
		{Timestamp: base.Add(2 * time.Hour), SessionID: "s1", Category: log.CategoryMessage},
		{Timestamp: base.Add(3 * time.Hour), SessionID: "s1", Category: log.CategoryMessage},
	}
	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.alog")

	err := RunFilter(path, FilterOptions{
		Output:    outPath,
		TimeStart: "2026-01-28T10:30:00Z",
		TimeEnd:   "2026-01-28T12:00:00Z",
	}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	// The end bound is exclusive.
	got := readAll(t, outPath)
	if len(got) != 1 || !got[0].Timestamp.Equal(base.Add(time.Hour)) {
		t.Errorf("unexpected events: %v", got)
	}
}

func TestFilterInvalidOptions(t *testing.T) {
	path := createTestLogFile(t, nil)
	outPath := filepath.Join(t.TempDir(), "filtered.alog")

	tests := []struct {
		name string
		opts FilterOptions
		want string
	}{
		{"time start", FilterOptions{TimeStart: "yesterday"}, "invalid time-start"},
		{"time end", FilterOptions{TimeEnd: "10:00"}, "invalid time-end"},
		{"layer", FilterOptions{Layer: "service"}, "invalid layer"},
		{"direction", FilterOptions{Direction: "sideways"}, "invalid direction"},
		{"category", FilterOptions{Category: "control"}, "invalid category"},
		{"protocol", FilterOptions{Protocol: "maap"}, "invalid protocol"},
		{"entity", FilterOptions{EntityID: "0xZZ"}, "invalid entity ID"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.opts.Output = outPath
			err := RunFilter(path, tc.opts, &bytes.Buffer{})
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want %q", err, tc.want)
			}
		})
	}
}
