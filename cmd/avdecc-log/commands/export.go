package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/avb-tools/avdecc-go/pkg/log"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// RunExport exports the log file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	// Determine output writer
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

// jsonEvent is the JSON Lines form of an event, with symbolic enum names.
type jsonEvent struct {
	Timestamp     string `json:"timestamp"`
	SessionID     string `json:"session_id"`
	InterfaceName string `json:"interface,omitempty"`
	Direction     string `json:"direction"`
	Layer         string `json:"layer"`
	Category      string `json:"category"`
	EntityID      string `json:"entity_id,omitempty"`

	Frame       *log.FrameEvent     `json:"frame,omitempty"`
	Pdu         *jsonPdu            `json:"pdu,omitempty"`
	StateChange *jsonStateChange    `json:"state_change,omitempty"`
	Statistic   *jsonStatistic      `json:"statistic,omitempty"`
	Error       *log.ErrorEventData `json:"error,omitempty"`
}

type jsonPdu struct {
	Protocol string `json:"protocol"`
	*log.PduEvent
}

type jsonStateChange struct {
	Entity   string `json:"entity"`
	OldState string `json:"old_state,omitempty"`
	NewState string `json:"new_state"`
	Reason   string `json:"reason,omitempty"`
}

type jsonStatistic struct {
	Kind       string  `json:"kind"`
	SequenceID *uint16 `json:"sequence_id,omitempty"`
	DurationNs *int64  `json:"duration_ns,omitempty"`
}

func toJSONEvent(event log.Event) jsonEvent {
	je := jsonEvent{
		Timestamp:     event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		SessionID:     event.SessionID,
		InterfaceName: event.InterfaceName,
		Direction:     event.Direction.String(),
		Layer:         event.Layer.String(),
		Category:      event.Category.String(),
		EntityID:      event.EntityID,
		Frame:         event.Frame,
		Error:         event.Error,
	}
	if event.Pdu != nil {
		je.Pdu = &jsonPdu{Protocol: subtypeName(event.Pdu.Subtype), PduEvent: event.Pdu}
	}
	if sc := event.StateChange; sc != nil {
		je.StateChange = &jsonStateChange{Entity: sc.Entity.String(), OldState: sc.OldState, NewState: sc.NewState, Reason: sc.Reason}
	}
	if st := event.Statistic; st != nil {
		js := &jsonStatistic{Kind: st.Kind.String(), SequenceID: st.SequenceID}
		if st.Duration != nil {
			ns := st.Duration.Nanoseconds()
			js.DurationNs = &ns
		}
		je.Statistic = js
	}
	return je
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for event, err := range reader.Events() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(toJSONEvent(event)); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "session_id", "interface", "direction", "layer", "category", "entity_id", "type", "message", "sequence_id", "status"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for event, err := range reader.Events() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		eventType := "unknown"
		var message, seqID, status string
		switch {
		case event.Frame != nil:
			eventType = "frame"
		case event.Pdu != nil:
			eventType = subtypeName(event.Pdu.Subtype)
			message = event.Pdu.MessageName
			if event.Pdu.CommandName != "" {
				message += " " + event.Pdu.CommandName
			}
			if event.Pdu.SequenceID != nil {
				seqID = strconv.Itoa(int(*event.Pdu.SequenceID))
			}
			status = event.Pdu.StatusName
		case event.StateChange != nil:
			eventType = "state"
			message = event.StateChange.Entity.String() + " " + event.StateChange.NewState
		case event.Statistic != nil:
			eventType = "statistic"
			message = event.Statistic.Kind.String()
			if event.Statistic.SequenceID != nil {
				seqID = strconv.Itoa(int(*event.Statistic.SequenceID))
			}
		case event.Error != nil:
			eventType = "error"
			message = event.Error.Message
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.SessionID,
			event.InterfaceName,
			event.Direction.String(),
			event.Layer.String(),
			event.Category.String(),
			event.EntityID,
			eventType,
			message,
			seqID,
			status,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

// subtypeName is the lower-case protocol name used in exports.
func subtypeName(st wire.Subtype) string {
	switch st {
	case wire.SubtypeAdp:
		return "adp"
	case wire.SubtypeAecp:
		return "aecp"
	case wire.SubtypeAcmp:
		return "acmp"
	default:
		return fmt.Sprintf("0x%02x", uint8(st))
	}
}
