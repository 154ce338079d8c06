package protocol

import (
	"time"

	"github.com/avb-tools/avdecc-go/pkg/log"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// Protocol trace helpers. All of them are no-ops without a ProtocolLogger.

func (i *Interface) logEvent(ev log.Event) {
	ev.Timestamp = i.clock.Now()
	ev.SessionID = i.sessionID
	ev.InterfaceName = i.tr.Name()
	i.trace.Log(ev)
}

func (i *Interface) tracePdu(dir log.Direction, pdu wire.Pdu) {
	if i.trace == nil {
		return
	}
	ev, entityID := log.NewPduEvent(pdu)
	i.logEvent(log.Event{
		Direction: dir,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		EntityID:  entityID,
		Pdu:       ev,
	})
}

func (i *Interface) traceMalformed(frame []byte, err error) {
	if i.trace == nil {
		return
	}
	i.logEvent(log.Event{
		Direction: log.DirectionIn,
		Layer:     log.LayerTransport,
		Category:  log.CategoryError,
		Frame:     log.NewFrameEvent(frame),
		Error:     &log.ErrorEventData{Layer: log.LayerWire, Message: err.Error(), Context: "decode"},
	})
	i.logEvent(log.Event{
		Direction: log.DirectionInternal,
		Layer:     log.LayerWire,
		Category:  log.CategoryStatistic,
		Statistic: &log.StatisticEvent{Kind: log.StatisticMalformedFrame},
	})
}

func (i *Interface) traceError(layer log.Layer, err error, context string) {
	if i.trace == nil {
		return
	}
	i.logEvent(log.Event{
		Direction: log.DirectionInternal,
		Layer:     layer,
		Category:  log.CategoryError,
		Error:     &log.ErrorEventData{Layer: layer, Message: err.Error(), Context: context},
	})
}

func (i *Interface) traceState(what log.StateEntity, entityID, oldState, newState, reason string) {
	if i.trace == nil {
		return
	}
	i.logEvent(log.Event{
		Direction: log.DirectionInternal,
		Layer:     log.LayerEngine,
		Category:  log.CategoryState,
		EntityID:  entityID,
		StateChange: &log.StateChangeEvent{
			Entity:   what,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

func (i *Interface) traceStatistic(kind log.StatisticKind, target uid.ID, sequenceID uint16, d *time.Duration) {
	if i.trace == nil {
		return
	}
	i.logEvent(log.Event{
		Direction: log.DirectionInternal,
		Layer:     log.LayerEngine,
		Category:  log.CategoryStatistic,
		EntityID:  target.String(),
		Statistic: &log.StatisticEvent{Kind: kind, SequenceID: &sequenceID, Duration: d},
	})
}
