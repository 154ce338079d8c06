package log

import (
	"time"

	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// Event represents a protocol trace event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the protocol interface that produced the event (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// InterfaceName is the network interface of the session.
	InterfaceName string `cbor:"6,keyasint,omitempty"`

	// EntityID is the entity the event is about, formatted as 0x-prefixed hex.
	EntityID string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Transport layer
	Pdu         *PduEvent         `cbor:"11,keyasint,omitempty"` // Wire layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Engine state
	Statistic   *StatisticEvent   `cbor:"13,keyasint,omitempty"` // Engine counters
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
	// DirectionInternal indicates an event without a message, such as a timeout.
	DirectionInternal Direction = 2
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	case DirectionInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the raw Ethernet frame layer.
	LayerTransport Layer = 0
	// LayerWire is the decoded PDU layer.
	LayerWire Layer = 1
	// LayerEngine is the state machine layer.
	LayerEngine Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerEngine:
		return "ENGINE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a protocol message.
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
	// CategoryStatistic indicates a counter or timing sample.
	CategoryStatistic Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	case CategoryStatistic:
		return "STATISTIC"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MaxFrameCapture is the number of frame bytes kept in a FrameEvent.
const MaxFrameCapture = 128

// NewFrameEvent captures up to MaxFrameCapture bytes of frame.
func NewFrameEvent(frame []byte) *FrameEvent {
	ev := &FrameEvent{Size: len(frame)}
	data := frame
	if len(data) > MaxFrameCapture {
		data = data[:MaxFrameCapture]
		ev.Truncated = true
	}
	ev.Data = append([]byte(nil), data...)
	return ev
}

// PduEvent captures a decoded AVDECC message at the wire layer.
type PduEvent struct {
	// Subtype is the AVTP subtype (ADP, AECP, ACMP).
	Subtype wire.Subtype `cbor:"1,keyasint"`

	// MessageType is the raw message type number.
	MessageType uint8 `cbor:"2,keyasint"`

	// MessageName is the symbolic message type.
	MessageName string `cbor:"3,keyasint,omitempty"`

	// SequenceID correlates commands and responses (AECP, ACMP).
	SequenceID *uint16 `cbor:"4,keyasint,omitempty"`

	// CommandType is the AEM or MVU command type.
	CommandType *uint16 `cbor:"5,keyasint,omitempty"`

	// CommandName is the symbolic command type.
	CommandName string `cbor:"6,keyasint,omitempty"`

	// Status is the raw protocol status (responses only).
	Status *uint8 `cbor:"7,keyasint,omitempty"`

	// StatusName is the symbolic status.
	StatusName string `cbor:"8,keyasint,omitempty"`

	// ControllerEntityID is the controller of an AECP or ACMP message.
	ControllerEntityID string `cbor:"9,keyasint,omitempty"`

	// Unsolicited is set for unsolicited AEM and MVU responses.
	Unsolicited bool `cbor:"10,keyasint,omitempty"`

	// PayloadLength is the command-specific payload size.
	PayloadLength int `cbor:"11,keyasint,omitempty"`

	// AvailableIndex is the ADP available_index.
	AvailableIndex *uint32 `cbor:"12,keyasint,omitempty"`
}

// NewPduEvent summarizes a decoded PDU. The second result is the entity the
// message is about: the advertised entity for ADP and the target otherwise.
func NewPduEvent(pdu wire.Pdu) (*PduEvent, string) {
	ev := &PduEvent{Subtype: pdu.Subtype()}
	switch p := pdu.(type) {
	case *wire.Adpdu:
		ev.MessageType = uint8(p.MessageType)
		ev.MessageName = p.MessageType.String()
		idx := p.AvailableIndex
		ev.AvailableIndex = &idx
		return ev, p.EntityID.String()
	case *wire.Acmpdu:
		ev.MessageType = uint8(p.MessageType)
		ev.MessageName = p.MessageType.String()
		seq := p.SequenceID
		ev.SequenceID = &seq
		ev.ControllerEntityID = p.ControllerEntityID.String()
		if p.MessageType.IsResponse() {
			st := uint8(p.Status)
			ev.Status = &st
			ev.StatusName = p.Status.String()
		}
		return ev, p.TargetEntityID().String()
	case wire.Aecpdu:
		h := p.Header()
		ev.MessageType = uint8(h.MessageType)
		ev.MessageName = h.MessageType.String()
		seq := h.SequenceID
		ev.SequenceID = &seq
		ev.ControllerEntityID = h.ControllerEntityID.String()
		if h.MessageType.IsResponse() {
			st := uint8(h.Status)
			ev.Status = &st
			ev.StatusName = h.Status.String()
		}
		switch c := p.(type) {
		case *wire.AemAecpdu:
			ct := uint16(c.CommandType)
			ev.CommandType = &ct
			ev.CommandName = c.CommandType.String()
			ev.Unsolicited = c.Unsolicited
			ev.PayloadLength = len(c.Payload)
		case *wire.MvuAecpdu:
			ct := uint16(c.CommandType)
			ev.CommandType = &ct
			ev.CommandName = c.CommandType.String()
			ev.Unsolicited = c.Unsolicited
			ev.PayloadLength = len(c.Payload)
		case *wire.GenericAecpdu:
			ev.PayloadLength = len(c.Payload)
		}
		return ev, h.TargetEntityID.String()
	}
	return ev, ""
}

// StateChangeEvent captures entity, advertising and connection state changes.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what changed state.
type StateEntity uint8

const (
	// StateEntityRemote indicates a discovered remote entity.
	StateEntityRemote StateEntity = 0
	// StateEntityLocal indicates a locally registered entity.
	StateEntityLocal StateEntity = 1
	// StateEntityAdvertising indicates the advertising state of a local entity.
	StateEntityAdvertising StateEntity = 2
	// StateEntityListenerConnection indicates a listener stream connection.
	StateEntityListenerConnection StateEntity = 3
	// StateEntityInterface indicates the protocol interface itself.
	StateEntityInterface StateEntity = 4
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityRemote:
		return "REMOTE_ENTITY"
	case StateEntityLocal:
		return "LOCAL_ENTITY"
	case StateEntityAdvertising:
		return "ADVERTISING"
	case StateEntityListenerConnection:
		return "LISTENER_CONNECTION"
	case StateEntityInterface:
		return "INTERFACE"
	default:
		return "UNKNOWN"
	}
}

// StatisticEvent captures command statistics.
type StatisticEvent struct {
	// Kind of statistic.
	Kind StatisticKind `cbor:"1,keyasint"`

	// SequenceID of the command concerned, if any.
	SequenceID *uint16 `cbor:"2,keyasint,omitempty"`

	// Duration is the response time (ResponseTime kinds only), in nanoseconds.
	Duration *time.Duration `cbor:"3,keyasint,omitempty"`
}

// StatisticKind names a statistic.
type StatisticKind uint8

const (
	StatisticAecpRetry              StatisticKind = 0
	StatisticAecpTimeout            StatisticKind = 1
	StatisticAecpUnexpectedResponse StatisticKind = 2
	StatisticAecpResponseTime       StatisticKind = 3
	StatisticAcmpTimeout            StatisticKind = 4
	StatisticAcmpUnexpectedResponse StatisticKind = 5
	StatisticAcmpResponseTime       StatisticKind = 6
	StatisticMalformedFrame         StatisticKind = 7
)

// String returns the statistic name.
func (k StatisticKind) String() string {
	switch k {
	case StatisticAecpRetry:
		return "AECP_RETRY"
	case StatisticAecpTimeout:
		return "AECP_TIMEOUT"
	case StatisticAecpUnexpectedResponse:
		return "AECP_UNEXPECTED_RESPONSE"
	case StatisticAecpResponseTime:
		return "AECP_RESPONSE_TIME"
	case StatisticAcmpTimeout:
		return "ACMP_TIMEOUT"
	case StatisticAcmpUnexpectedResponse:
		return "ACMP_UNEXPECTED_RESPONSE"
	case StatisticAcmpResponseTime:
		return "ACMP_RESPONSE_TIME"
	case StatisticMalformedFrame:
		return "MALFORMED_FRAME"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
