package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/avb-tools/avdecc-go/pkg/uid"
)

// Adpdu is an ADP message. The control header status field carries
// ValidTime and the stream_id field carries EntityID.
type Adpdu struct {
	EtherLayer2

	MessageType AdpMessageType

	// ValidTime is expressed in 2-second units (0..31).
	ValidTime uint8

	EntityID               uid.ID
	EntityModelID          uid.ID
	EntityCapabilities     EntityCapabilities
	TalkerStreamSources    uint16
	TalkerCapabilities     TalkerCapabilities
	ListenerStreamSinks    uint16
	ListenerCapabilities   ListenerCapabilities
	ControllerCapabilities ControllerCapabilities
	AvailableIndex         uint32
	GptpGrandmasterID      uid.ID
	GptpDomainNumber       uint8
	IdentifyControlIndex   uint16
	InterfaceIndex         uint16
	AssociationID          uid.ID
}

// Subtype implements Pdu.
func (*Adpdu) Subtype() Subtype {
	return SubtypeAdp
}

// EncodeAdpdu serializes an ADP message into an Ethernet frame.
func EncodeAdpdu(p *Adpdu) ([]byte, error) {
	if p.ValidTime > 0x1f {
		return nil, fmt.Errorf("%w: valid_time %d", ErrInvalidField, p.ValidTime)
	}
	body := make([]byte, ControlHeaderLength+AdpControlDataLength)
	putControlHeader(body, controlHeader{
		subtype:           SubtypeAdp,
		messageType:       uint8(p.MessageType),
		status:            p.ValidTime,
		controlDataLength: AdpControlDataLength,
		streamID:          p.EntityID.Value(),
	})

	d := body[ControlHeaderLength:]
	binary.BigEndian.PutUint64(d[0:8], p.EntityModelID.Value())
	binary.BigEndian.PutUint32(d[8:12], uint32(p.EntityCapabilities.Value()))
	binary.BigEndian.PutUint16(d[12:14], p.TalkerStreamSources)
	binary.BigEndian.PutUint16(d[14:16], uint16(p.TalkerCapabilities.Value()))
	binary.BigEndian.PutUint16(d[16:18], p.ListenerStreamSinks)
	binary.BigEndian.PutUint16(d[18:20], uint16(p.ListenerCapabilities.Value()))
	binary.BigEndian.PutUint32(d[20:24], uint32(p.ControllerCapabilities.Value()))
	binary.BigEndian.PutUint32(d[24:28], p.AvailableIndex)
	binary.BigEndian.PutUint64(d[28:36], p.GptpGrandmasterID.Value())
	d[36] = p.GptpDomainNumber
	binary.BigEndian.PutUint16(d[40:42], p.IdentifyControlIndex)
	binary.BigEndian.PutUint16(d[42:44], p.InterfaceIndex)
	binary.BigEndian.PutUint64(d[44:52], p.AssociationID.Value())

	return encodeFrame(&p.EtherLayer2, body)
}

// DecodeAdpdu parses an Ethernet frame holding an ADP message.
func DecodeAdpdu(frame []byte) (*Adpdu, error) {
	l2, h, body, err := decodeSubtype(frame, SubtypeAdp)
	if err != nil {
		return nil, err
	}
	return decodeAdpdu(l2, h, body)
}

func decodeAdpdu(l2 EtherLayer2, h controlHeader, body []byte) (*Adpdu, error) {
	if err := checkLength(h, body, AdpControlDataLength); err != nil {
		return nil, err
	}
	d := body[ControlHeaderLength:]
	return &Adpdu{
		EtherLayer2:            l2,
		MessageType:            AdpMessageType(h.messageType),
		ValidTime:              h.status,
		EntityID:               uid.New(h.streamID),
		EntityModelID:          uid.New(binary.BigEndian.Uint64(d[0:8])),
		EntityCapabilities:     BitfieldFromValue(EntityCapability(binary.BigEndian.Uint32(d[8:12]))),
		TalkerStreamSources:    binary.BigEndian.Uint16(d[12:14]),
		TalkerCapabilities:     BitfieldFromValue(TalkerCapability(binary.BigEndian.Uint16(d[14:16]))),
		ListenerStreamSinks:    binary.BigEndian.Uint16(d[16:18]),
		ListenerCapabilities:   BitfieldFromValue(ListenerCapability(binary.BigEndian.Uint16(d[18:20]))),
		ControllerCapabilities: BitfieldFromValue(ControllerCapability(binary.BigEndian.Uint32(d[20:24]))),
		AvailableIndex:         binary.BigEndian.Uint32(d[24:28]),
		GptpGrandmasterID:      uid.New(binary.BigEndian.Uint64(d[28:36])),
		GptpDomainNumber:       d[36],
		IdentifyControlIndex:   binary.BigEndian.Uint16(d[40:42]),
		InterfaceIndex:         binary.BigEndian.Uint16(d[42:44]),
		AssociationID:          uid.New(binary.BigEndian.Uint64(d[44:52])),
	}, nil
}
