// Package metrics exposes the statistics of a protocol interface to
// Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/avb-tools/avdecc-go/pkg/acmp"
	"github.com/avb-tools/avdecc-go/pkg/entity"
	"github.com/avb-tools/avdecc-go/pkg/protocol"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// Protocol label values.
const (
	ProtocolAecp = "aecp"
	ProtocolAcmp = "acmp"
)

// Collector is a protocol.Observer that updates Prometheus metrics. Every
// metric carries a constant "interface" label.
type Collector struct {
	protocol.BaseObserver

	remoteEntities      prometheus.Gauge
	localEntities       prometheus.Gauge
	entityEvents        *prometheus.CounterVec
	pdusReceived        *prometheus.CounterVec
	malformedFrames     prometheus.Counter
	transportErrors     prometheus.Counter
	retries             *prometheus.CounterVec
	timeouts            *prometheus.CounterVec
	unexpectedResponses *prometheus.CounterVec
	unsolicited         prometheus.Counter
	responseTime        *prometheus.HistogramVec
	listenerStates      *prometheus.CounterVec
}

// NewCollector creates the metrics of the interface named iface and
// registers them with reg.
func NewCollector(reg prometheus.Registerer, iface string) *Collector {
	f := promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"interface": iface}, reg))
	return &Collector{
		remoteEntities: f.NewGauge(prometheus.GaugeOpts{
			Name: "avdecc_remote_entities",
			Help: "Number of remote entities currently online",
		}),
		localEntities: f.NewGauge(prometheus.GaugeOpts{
			Name: "avdecc_local_entities",
			Help: "Number of local entities currently advertised",
		}),
		entityEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "avdecc_entity_events_total",
			Help: "Entity discovery events",
		}, []string{"scope", "event"}),
		pdusReceived: f.NewCounterVec(prometheus.CounterOpts{
			Name: "avdecc_pdus_received_total",
			Help: "Decoded AVDECC messages received",
		}, []string{"subtype"}),
		malformedFrames: f.NewCounter(prometheus.CounterOpts{
			Name: "avdecc_malformed_frames_total",
			Help: "Frames dropped because they could not be decoded",
		}),
		transportErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "avdecc_transport_errors_total",
			Help: "Fatal transport receive errors",
		}),
		retries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "avdecc_command_retries_total",
			Help: "Commands sent again after a timeout",
		}, []string{"protocol"}),
		timeouts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "avdecc_command_timeouts_total",
			Help: "Commands that never got a response",
		}, []string{"protocol"}),
		unexpectedResponses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "avdecc_unexpected_responses_total",
			Help: "Responses matching no pending command",
		}, []string{"protocol"}),
		unsolicited: f.NewCounter(prometheus.CounterOpts{
			Name: "avdecc_unsolicited_responses_total",
			Help: "Unsolicited AECP notifications received",
		}),
		responseTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "avdecc_command_response_seconds",
			Help:    "Time between sending a command and receiving its response",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"protocol"}),
		listenerStates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "avdecc_listener_state_changes_total",
			Help: "Listener stream connection state transitions",
		}, []string{"state"}),
	}
}

func (c *Collector) OnTransportError(error) {
	c.transportErrors.Inc()
}

func (c *Collector) OnLocalEntityOnline(entity.Entity) {
	c.localEntities.Inc()
	c.entityEvents.WithLabelValues("local", "online").Inc()
}

func (c *Collector) OnLocalEntityUpdated(entity.Entity) {
	c.entityEvents.WithLabelValues("local", "updated").Inc()
}

func (c *Collector) OnLocalEntityOffline(uid.ID) {
	c.localEntities.Dec()
	c.entityEvents.WithLabelValues("local", "offline").Inc()
}

func (c *Collector) OnRemoteEntityOnline(entity.Entity) {
	c.remoteEntities.Inc()
	c.entityEvents.WithLabelValues("remote", "online").Inc()
}

func (c *Collector) OnRemoteEntityUpdated(entity.Entity) {
	c.entityEvents.WithLabelValues("remote", "updated").Inc()
}

func (c *Collector) OnRemoteEntityOffline(uid.ID) {
	c.remoteEntities.Dec()
	c.entityEvents.WithLabelValues("remote", "offline").Inc()
}

func (c *Collector) OnAecpUnsolicitedResponse(wire.Aecpdu) {
	c.unsolicited.Inc()
}

func (c *Collector) OnListenerConnectionStateChanged(_ entity.StreamIdentification, cs acmp.ConnectionState) {
	c.listenerStates.WithLabelValues(cs.State.String()).Inc()
}

func (c *Collector) OnAdpduReceived(*wire.Adpdu) {
	c.pdusReceived.WithLabelValues(wire.SubtypeAdp.String()).Inc()
}

func (c *Collector) OnAecpduReceived(wire.Aecpdu) {
	c.pdusReceived.WithLabelValues(wire.SubtypeAecp.String()).Inc()
}

func (c *Collector) OnAcmpduReceived(*wire.Acmpdu) {
	c.pdusReceived.WithLabelValues(wire.SubtypeAcmp.String()).Inc()
}

func (c *Collector) OnMalformedFrame([]byte, error) {
	c.malformedFrames.Inc()
}

func (c *Collector) OnAecpRetry(uid.ID) {
	c.retries.WithLabelValues(ProtocolAecp).Inc()
}

func (c *Collector) OnAecpTimeout(uid.ID) {
	c.timeouts.WithLabelValues(ProtocolAecp).Inc()
}

func (c *Collector) OnAecpUnexpectedResponse(uid.ID) {
	c.unexpectedResponses.WithLabelValues(ProtocolAecp).Inc()
}

func (c *Collector) OnAecpResponseTime(_ uid.ID, d time.Duration) {
	c.responseTime.WithLabelValues(ProtocolAecp).Observe(d.Seconds())
}

func (c *Collector) OnAcmpTimeout(uid.ID) {
	c.timeouts.WithLabelValues(ProtocolAcmp).Inc()
}

func (c *Collector) OnAcmpUnexpectedResponse(uid.ID) {
	c.unexpectedResponses.WithLabelValues(ProtocolAcmp).Inc()
}

func (c *Collector) OnAcmpResponseTime(_ uid.ID, d time.Duration) {
	c.responseTime.WithLabelValues(ProtocolAcmp).Observe(d.Seconds())
}

var _ protocol.Observer = (*Collector)(nil)
