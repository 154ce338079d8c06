package protocol

import (
	"time"

	"github.com/avb-tools/avdecc-go/pkg/acmp"
	"github.com/avb-tools/avdecc-go/pkg/adp"
	"github.com/avb-tools/avdecc-go/pkg/aecp"
	"github.com/avb-tools/avdecc-go/pkg/entity"
	"github.com/avb-tools/avdecc-go/pkg/log"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// The state machines call their delegate with the interface lock held.
// Delegates only record trace events and queue notifications.

type adpDelegate struct{ *Interface }

func (d adpDelegate) SendAdpdu(p *wire.Adpdu) error {
	p.SrcAddress = d.mac
	frame, err := wire.EncodeAdpdu(p)
	if err != nil {
		return err
	}
	return d.sendFrame(frame, p)
}

func (d adpDelegate) OnEntityOnline(e entity.Entity) {
	id := e.ID()
	if d.registry.IsLocal(id) {
		d.traceState(log.StateEntityLocal, id.String(), "OFFLINE", "ONLINE", "")
		d.notify(func(o Observer) { o.OnLocalEntityOnline(e) })
		return
	}
	d.logger.Debug("remote entity online", "entity_id", id)
	d.traceState(log.StateEntityRemote, id.String(), "OFFLINE", "ONLINE", "")
	d.notify(func(o Observer) { o.OnRemoteEntityOnline(e) })
}

func (d adpDelegate) OnEntityUpdated(e entity.Entity) {
	if d.registry.IsLocal(e.ID()) {
		d.notify(func(o Observer) { o.OnLocalEntityUpdated(e) })
		return
	}
	d.notify(func(o Observer) { o.OnRemoteEntityUpdated(e) })
}

func (d adpDelegate) OnEntityOffline(id uid.ID) {
	if d.registry.IsLocal(id) {
		d.traceState(log.StateEntityLocal, id.String(), "ONLINE", "OFFLINE", "")
		d.notify(func(o Observer) { o.OnLocalEntityOffline(id) })
		return
	}
	d.logger.Debug("remote entity offline", "entity_id", id)
	d.traceState(log.StateEntityRemote, id.String(), "ONLINE", "OFFLINE", "")
	d.aecp.DiscardEntityMessages(id)
	d.notify(func(o Observer) { o.OnRemoteEntityOffline(id) })
}

type aecpDelegate struct{ *Interface }

func (d aecpDelegate) IsLocalEntity(id uid.ID) bool {
	return d.registry.IsLocal(id)
}

func (d aecpDelegate) IsLocalController(id uid.ID) bool {
	return d.registry.IsLocalController(id)
}

func (d aecpDelegate) SendFrame(frame []byte, pdu wire.Aecpdu) error {
	return d.sendFrame(frame, pdu)
}

func (d aecpDelegate) OnAecpRetry(target uid.ID, cmd wire.Aecpdu) {
	d.traceStatistic(log.StatisticAecpRetry, target, cmd.Header().SequenceID, nil)
	d.notify(func(o Observer) { o.OnAecpRetry(target) })
}

func (d aecpDelegate) OnAecpTimeout(target uid.ID, cmd wire.Aecpdu) {
	d.traceStatistic(log.StatisticAecpTimeout, target, cmd.Header().SequenceID, nil)
	d.notify(func(o Observer) { o.OnAecpTimeout(target) })
}

func (d aecpDelegate) OnAecpUnexpectedResponse(resp wire.Aecpdu) {
	h := resp.Header()
	target := h.TargetEntityID
	d.traceStatistic(log.StatisticAecpUnexpectedResponse, target, h.SequenceID, nil)
	d.notify(func(o Observer) { o.OnAecpUnexpectedResponse(target) })
}

func (d aecpDelegate) OnAecpResponseTime(target uid.ID, cmd wire.Aecpdu, rtt time.Duration) {
	d.traceStatistic(log.StatisticAecpResponseTime, target, cmd.Header().SequenceID, &rtt)
	d.notify(func(o Observer) { o.OnAecpResponseTime(target, rtt) })
}

func (d aecpDelegate) OnAecpUnsolicitedResponse(resp wire.Aecpdu) {
	d.notify(func(o Observer) { o.OnAecpUnsolicitedResponse(resp) })
}

func (d aecpDelegate) OnAecpIdentifyNotification(p *wire.AemAecpdu) {
	d.notify(func(o Observer) { o.OnAecpIdentifyNotification(p) })
}

func (d aecpDelegate) OnAecpCommand(cmd wire.Aecpdu) {
	d.notify(func(o Observer) { o.OnAecpCommand(cmd) })
}

type acmpDelegate struct{ *Interface }

func (d acmpDelegate) IsLocalController(id uid.ID) bool {
	return d.registry.IsLocalController(id)
}

func (d acmpDelegate) SendFrame(frame []byte, pdu *wire.Acmpdu) error {
	return d.sendFrame(frame, pdu)
}

func (d acmpDelegate) OnAcmpRetry(target uid.ID, cmd *wire.Acmpdu) {
	d.logger.Debug("retrying acmp command",
		"message_type", cmd.MessageType, "target_entity_id", target, "sequence_id", cmd.SequenceID)
}

func (d acmpDelegate) OnAcmpTimeout(target uid.ID, cmd *wire.Acmpdu) {
	d.traceStatistic(log.StatisticAcmpTimeout, target, cmd.SequenceID, nil)
	d.notify(func(o Observer) { o.OnAcmpTimeout(target) })
}

func (d acmpDelegate) OnAcmpUnexpectedResponse(resp *wire.Acmpdu) {
	target := resp.TargetEntityID()
	d.traceStatistic(log.StatisticAcmpUnexpectedResponse, target, resp.SequenceID, nil)
	d.notify(func(o Observer) { o.OnAcmpUnexpectedResponse(target) })
}

func (d acmpDelegate) OnAcmpResponseTime(target uid.ID, cmd *wire.Acmpdu, rtt time.Duration) {
	d.traceStatistic(log.StatisticAcmpResponseTime, target, cmd.SequenceID, &rtt)
	d.notify(func(o Observer) { o.OnAcmpResponseTime(target, rtt) })
}

func (d acmpDelegate) OnAcmpSniffedCommand(cmd *wire.Acmpdu) {
	d.notify(func(o Observer) { o.OnAcmpSniffedCommand(cmd) })
}

func (d acmpDelegate) OnAcmpSniffedResponse(resp *wire.Acmpdu) {
	d.notify(func(o Observer) { o.OnAcmpSniffedResponse(resp) })
}

func (d acmpDelegate) OnListenerConnectionStateChanged(listener entity.StreamIdentification, cs acmp.ConnectionState) {
	d.traceState(log.StateEntityListenerConnection, listener.EntityID.String(), "", cs.String(), listener.String())
	d.notify(func(o Observer) { o.OnListenerConnectionStateChanged(listener, cs) })
}

// Compile-time interface satisfaction checks.
var (
	_ adp.Delegate  = adpDelegate{}
	_ aecp.Delegate = aecpDelegate{}
	_ acmp.Delegate = acmpDelegate{}
)
