// Package commands implements the avdecc-log CLI commands.
package commands

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/avb-tools/avdecc-go/pkg/log"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Layer     *log.Layer
	Direction *log.Direction
	Category  *log.Category
	Subtype   *wire.Subtype
	EntityID  string
}

func (f ViewFilter) filter() log.Filter {
	return log.Filter{
		Layer:     f.Layer,
		Direction: f.Direction,
		Category:  f.Category,
		Subtype:   f.Subtype,
		EntityID:  f.EntityID,
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	session := shortenSessionID(event.SessionID)
	fmt.Fprintf(w, "%s [%s] %-3s %s %s", ts, session, event.Direction, event.Layer, typeLabel(event))
	if event.InterfaceName != "" {
		fmt.Fprintf(w, " (%s)", event.InterfaceName)
	}
	fmt.Fprintln(w)

	if event.EntityID != "" {
		fmt.Fprintf(w, "  Entity: %s\n", event.EntityID)
	}

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Pdu != nil:
		formatPduDetails(w, event.Pdu)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Statistic != nil:
		formatStatisticDetails(w, event.Statistic)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// typeLabel names the payload of an event.
func typeLabel(event log.Event) string {
	switch {
	case event.Frame != nil:
		return "Frame"
	case event.Pdu != nil:
		return event.Pdu.Subtype.String() + " " + event.Pdu.MessageName
	case event.StateChange != nil:
		return "State"
	case event.Statistic != nil:
		return event.Statistic.Kind.String()
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Data))
		if frame.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatPduDetails(w io.Writer, pdu *log.PduEvent) {
	if pdu.CommandName != "" {
		fmt.Fprintf(w, "  Command: %s", pdu.CommandName)
		if pdu.Unsolicited {
			fmt.Fprintf(w, " (unsolicited)")
		}
		fmt.Fprintln(w)
	}
	if pdu.SequenceID != nil {
		fmt.Fprintf(w, "  SequenceID: %d\n", *pdu.SequenceID)
	}
	if pdu.ControllerEntityID != "" {
		fmt.Fprintf(w, "  Controller: %s\n", pdu.ControllerEntityID)
	}
	if pdu.Status != nil {
		fmt.Fprintf(w, "  Status: %s (%d)\n", pdu.StatusName, *pdu.Status)
	}
	if pdu.AvailableIndex != nil {
		fmt.Fprintf(w, "  AvailableIndex: %d\n", *pdu.AvailableIndex)
	}
	if pdu.PayloadLength > 0 {
		fmt.Fprintf(w, "  Payload: %d bytes\n", pdu.PayloadLength)
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s: %s -> %s\n", sc.Entity, sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  %s: -> %s\n", sc.Entity, sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatStatisticDetails(w io.Writer, st *log.StatisticEvent) {
	if st.SequenceID != nil {
		fmt.Fprintf(w, "  SequenceID: %d\n", *st.SequenceID)
	}
	if st.Duration != nil {
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(*st.Duration))
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseLayerFlag parses a layer string (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "wire":
		return log.LayerWire, nil
	case "engine":
		return log.LayerEngine, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be transport, wire, or engine)", s)
	}
}

// ParseDirectionFlag parses a direction string (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	case "internal":
		return log.DirectionInternal, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in, out, or internal)", s)
	}
}

// ParseCategoryFlag parses a category string (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	case "statistic":
		return log.CategoryStatistic, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be message, state, error, or statistic)", s)
	}
}

// ParseSubtypeFlag parses an AVDECC protocol name (case-insensitive).
func ParseSubtypeFlag(s string) (wire.Subtype, error) {
	for _, st := range []wire.Subtype{wire.SubtypeAdp, wire.SubtypeAecp, wire.SubtypeAcmp} {
		if strings.EqualFold(s, st.String()) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("invalid protocol: %s (must be adp, aecp, or acmp)", s)
}

// ParseEntityFlag parses an entity ID and returns it in the form stored in
// trace events.
func ParseEntityFlag(s string) (string, error) {
	id, err := uid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid entity ID: %w", err)
	}
	return id.String(), nil
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.filter())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
	return nil
}
