package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger.
// Useful for development when you want to see protocol events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session_id", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.InterfaceName != "" {
		attrs = append(attrs, slog.String("interface", event.InterfaceName))
	}
	if event.EntityID != "" {
		attrs = append(attrs, slog.String("entity_id", event.EntityID))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		)
	case event.Pdu != nil:
		attrs = append(attrs,
			slog.String("subtype", event.Pdu.Subtype.String()),
			slog.String("msg_type", event.Pdu.MessageName),
		)
		if event.Pdu.SequenceID != nil {
			attrs = append(attrs, slog.Uint64("sequence_id", uint64(*event.Pdu.SequenceID)))
		}
		if event.Pdu.CommandName != "" {
			attrs = append(attrs, slog.String("command", event.Pdu.CommandName))
		}
		if event.Pdu.StatusName != "" {
			attrs = append(attrs, slog.String("status", event.Pdu.StatusName))
		}
		if event.Pdu.AvailableIndex != nil {
			attrs = append(attrs, slog.Uint64("available_index", uint64(*event.Pdu.AvailableIndex)))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Statistic != nil:
		attrs = append(attrs, slog.String("statistic", event.Statistic.Kind.String()))
		if event.Statistic.SequenceID != nil {
			attrs = append(attrs, slog.Uint64("sequence_id", uint64(*event.Statistic.SequenceID)))
		}
		if event.Statistic.Duration != nil {
			attrs = append(attrs, slog.Duration("duration", *event.Statistic.Duration))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "avdecc trace", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
