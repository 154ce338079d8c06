package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/avb-tools/avdecc-go/pkg/uid"
)

// Acmpdu is an ACMP command or response.
type Acmpdu struct {
	EtherLayer2

	MessageType        AcmpMessageType
	Status             AcmpStatus
	StreamID           uid.ID
	ControllerEntityID uid.ID
	TalkerEntityID     uid.ID
	ListenerEntityID   uid.ID
	TalkerUniqueID     uint16
	ListenerUniqueID   uint16
	StreamDestAddress  MacAddress
	ConnectionCount    uint16
	SequenceID         uint16
	Flags              ConnectionFlags
	StreamVlanID       uint16
}

// Subtype implements Pdu.
func (*Acmpdu) Subtype() Subtype {
	return SubtypeAcmp
}

// TargetEntityID returns the entity a command of this type is addressed to.
func (p *Acmpdu) TargetEntityID() uid.ID {
	if p.MessageType.TargetsListener() {
		return p.ListenerEntityID
	}
	return p.TalkerEntityID
}

// EncodeAcmpdu serializes an ACMP message into an Ethernet frame.
func EncodeAcmpdu(p *Acmpdu) ([]byte, error) {
	if p.MessageType > 0x0f {
		return nil, fmt.Errorf("%w: message_type %d", ErrInvalidField, p.MessageType)
	}
	if p.Status > 0x1f {
		return nil, fmt.Errorf("%w: status %d", ErrInvalidField, p.Status)
	}
	body := make([]byte, ControlHeaderLength+AcmpControlDataLength)
	putControlHeader(body, controlHeader{
		subtype:           SubtypeAcmp,
		messageType:       uint8(p.MessageType),
		status:            uint8(p.Status),
		controlDataLength: AcmpControlDataLength,
		streamID:          p.StreamID.Value(),
	})

	d := body[ControlHeaderLength:]
	binary.BigEndian.PutUint64(d[0:8], p.ControllerEntityID.Value())
	binary.BigEndian.PutUint64(d[8:16], p.TalkerEntityID.Value())
	binary.BigEndian.PutUint64(d[16:24], p.ListenerEntityID.Value())
	binary.BigEndian.PutUint16(d[24:26], p.TalkerUniqueID)
	binary.BigEndian.PutUint16(d[26:28], p.ListenerUniqueID)
	copy(d[28:34], p.StreamDestAddress[:])
	binary.BigEndian.PutUint16(d[34:36], p.ConnectionCount)
	binary.BigEndian.PutUint16(d[36:38], p.SequenceID)
	binary.BigEndian.PutUint16(d[38:40], uint16(p.Flags.Value()))
	binary.BigEndian.PutUint16(d[40:42], p.StreamVlanID)

	return encodeFrame(&p.EtherLayer2, body)
}

// DecodeAcmpdu parses an Ethernet frame holding an ACMP message.
func DecodeAcmpdu(frame []byte) (*Acmpdu, error) {
	l2, h, body, err := decodeSubtype(frame, SubtypeAcmp)
	if err != nil {
		return nil, err
	}
	return decodeAcmpdu(l2, h, body)
}

func decodeAcmpdu(l2 EtherLayer2, h controlHeader, body []byte) (*Acmpdu, error) {
	if err := checkLength(h, body, AcmpControlDataLength); err != nil {
		return nil, err
	}
	d := body[ControlHeaderLength:]
	p := &Acmpdu{
		EtherLayer2:        l2,
		MessageType:        AcmpMessageType(h.messageType),
		Status:             AcmpStatus(h.status),
		StreamID:           uid.New(h.streamID),
		ControllerEntityID: uid.New(binary.BigEndian.Uint64(d[0:8])),
		TalkerEntityID:     uid.New(binary.BigEndian.Uint64(d[8:16])),
		ListenerEntityID:   uid.New(binary.BigEndian.Uint64(d[16:24])),
		TalkerUniqueID:     binary.BigEndian.Uint16(d[24:26]),
		ListenerUniqueID:   binary.BigEndian.Uint16(d[26:28]),
		ConnectionCount:    binary.BigEndian.Uint16(d[34:36]),
		SequenceID:         binary.BigEndian.Uint16(d[36:38]),
		Flags:              BitfieldFromValue(ConnectionFlag(binary.BigEndian.Uint16(d[38:40]))),
		StreamVlanID:       binary.BigEndian.Uint16(d[40:42]),
	}
	copy(p.StreamDestAddress[:], d[28:34])
	return p, nil
}
