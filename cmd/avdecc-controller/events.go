package main

import (
	"log/slog"

	"github.com/avb-tools/avdecc-go/pkg/acmp"
	"github.com/avb-tools/avdecc-go/pkg/entity"
	"github.com/avb-tools/avdecc-go/pkg/protocol"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// eventLogger reports discovery and connection events to the operational
// log.
type eventLogger struct {
	protocol.BaseObserver
	logger *slog.Logger
}

func (l *eventLogger) OnTransportError(err error) {
	l.logger.Error("transport failed", "error", err)
}

func (l *eventLogger) OnRemoteEntityOnline(e entity.Entity) {
	l.logger.Info("entity online", "entity_id", e.ID(), "model_id", e.Common.EntityModelID, "interfaces", len(e.Interfaces))
}

func (l *eventLogger) OnRemoteEntityUpdated(e entity.Entity) {
	l.logger.Debug("entity updated", "entity_id", e.ID())
}

func (l *eventLogger) OnRemoteEntityOffline(id uid.ID) {
	l.logger.Info("entity offline", "entity_id", id)
}

func (l *eventLogger) OnAecpIdentifyNotification(p *wire.AemAecpdu) {
	l.logger.Info("identify notification", "entity_id", p.TargetEntityID)
}

func (l *eventLogger) OnListenerConnectionStateChanged(listener entity.StreamIdentification, cs acmp.ConnectionState) {
	l.logger.Info("listener state changed", "listener", listener, "state", cs)
}

func (l *eventLogger) OnMalformedFrame(_ []byte, err error) {
	l.logger.Debug("malformed frame", "error", err)
}
