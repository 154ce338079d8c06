package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/avb-tools/avdecc-go/pkg/uid"
)

const (
	aecpCommonLength    = 10 // controller_entity_id + sequence_id
	aemHeaderLength     = aecpCommonLength + 2
	mvuProtocolIDSize   = 6
	mvuHeaderLength     = aecpCommonLength + mvuProtocolIDSize + 2
	unsolicitedFlag     = 0x8000
	commandTypeMask     = 0x7fff
	mvuMaxPayloadLength = AecpMaxControlDataLength - mvuHeaderLength
)

// AecpHeader is the part shared by every AECP message.
type AecpHeader struct {
	EtherLayer2

	MessageType        AecpMessageType
	Status             AecpStatus
	TargetEntityID     uid.ID
	ControllerEntityID uid.ID
	SequenceID         uint16
}

// Subtype implements Pdu.
func (*AecpHeader) Subtype() Subtype {
	return SubtypeAecp
}

// Header returns the common AECP fields.
func (h *AecpHeader) Header() *AecpHeader {
	return h
}

// Aecpdu is any AECP message.
type Aecpdu interface {
	Pdu
	Header() *AecpHeader
}

// AemAecpdu is an AEM command or response.
type AemAecpdu struct {
	AecpHeader

	Unsolicited bool
	CommandType AemCommandType

	// Payload holds the command-specific data, at most AemMaxPayloadLength bytes.
	Payload []byte
}

// MvuAecpdu is a Milan vendor-unique command or response.
type MvuAecpdu struct {
	AecpHeader

	Unsolicited bool
	CommandType MvuCommandType
	Payload     []byte
}

// GenericAecpdu is an AECP message of any other kind. Payload holds
// everything after sequence_id, including a vendor-unique protocol_id.
type GenericAecpdu struct {
	AecpHeader

	Payload []byte
}

func putAecpHeader(body []byte, h *AecpHeader, cdl int) {
	putControlHeader(body, controlHeader{
		subtype:           SubtypeAecp,
		messageType:       uint8(h.MessageType),
		status:            uint8(h.Status),
		controlDataLength: uint16(cdl),
		streamID:          h.TargetEntityID.Value(),
	})
	d := body[ControlHeaderLength:]
	binary.BigEndian.PutUint64(d[0:8], h.ControllerEntityID.Value())
	binary.BigEndian.PutUint16(d[8:10], h.SequenceID)
}

func checkAecpHeader(h *AecpHeader) error {
	if h.MessageType > 0x0f {
		return fmt.Errorf("%w: message_type %d", ErrInvalidField, h.MessageType)
	}
	if h.Status > 0x1f {
		return fmt.Errorf("%w: status %d", ErrInvalidField, h.Status)
	}
	return nil
}

func commandWord(unsolicited bool, commandType uint16) uint16 {
	w := commandType & commandTypeMask
	if unsolicited {
		w |= unsolicitedFlag
	}
	return w
}

// EncodeAemAecpdu serializes an AEM message into an Ethernet frame.
func EncodeAemAecpdu(p *AemAecpdu) ([]byte, error) {
	if err := checkAecpHeader(&p.AecpHeader); err != nil {
		return nil, err
	}
	if len(p.Payload) > AemMaxPayloadLength {
		return nil, fmt.Errorf("%w: AEM payload of %d bytes", ErrPayloadTooLarge, len(p.Payload))
	}
	if uint16(p.CommandType) > commandTypeMask {
		return nil, fmt.Errorf("%w: command_type 0x%04x", ErrInvalidField, uint16(p.CommandType))
	}
	cdl := aemHeaderLength + len(p.Payload)
	body := make([]byte, ControlHeaderLength+cdl)
	putAecpHeader(body, &p.AecpHeader, cdl)

	d := body[ControlHeaderLength:]
	binary.BigEndian.PutUint16(d[10:12], commandWord(p.Unsolicited, uint16(p.CommandType)))
	copy(d[aemHeaderLength:], p.Payload)

	return encodeFrame(&p.EtherLayer2, body)
}

// EncodeMvuAecpdu serializes a Milan vendor-unique message into an
// Ethernet frame.
func EncodeMvuAecpdu(p *MvuAecpdu) ([]byte, error) {
	if err := checkAecpHeader(&p.AecpHeader); err != nil {
		return nil, err
	}
	if len(p.Payload) > mvuMaxPayloadLength {
		return nil, fmt.Errorf("%w: MVU payload of %d bytes", ErrPayloadTooLarge, len(p.Payload))
	}
	if uint16(p.CommandType) > commandTypeMask {
		return nil, fmt.Errorf("%w: command_type 0x%04x", ErrInvalidField, uint16(p.CommandType))
	}
	cdl := mvuHeaderLength + len(p.Payload)
	body := make([]byte, ControlHeaderLength+cdl)
	putAecpHeader(body, &p.AecpHeader, cdl)

	d := body[ControlHeaderLength:]
	putUint48(d[10:16], MilanVendorUniqueProtocolID)
	binary.BigEndian.PutUint16(d[16:18], commandWord(p.Unsolicited, uint16(p.CommandType)))
	copy(d[mvuHeaderLength:], p.Payload)

	return encodeFrame(&p.EtherLayer2, body)
}

// EncodeGenericAecpdu serializes an uninterpreted AECP message.
func EncodeGenericAecpdu(p *GenericAecpdu) ([]byte, error) {
	if err := checkAecpHeader(&p.AecpHeader); err != nil {
		return nil, err
	}
	cdl := aecpCommonLength + len(p.Payload)
	if cdl > AecpMaxControlDataLength {
		return nil, fmt.Errorf("%w: AECP payload of %d bytes", ErrPayloadTooLarge, len(p.Payload))
	}
	body := make([]byte, ControlHeaderLength+cdl)
	putAecpHeader(body, &p.AecpHeader, cdl)
	copy(body[ControlHeaderLength+aecpCommonLength:], p.Payload)

	return encodeFrame(&p.EtherLayer2, body)
}

// DecodeAecpdu parses an Ethernet frame holding an AECP message.
func DecodeAecpdu(frame []byte) (Aecpdu, error) {
	l2, h, body, err := decodeSubtype(frame, SubtypeAecp)
	if err != nil {
		return nil, err
	}
	return decodeAecpdu(l2, h, body)
}

// DecodeAemAecpdu parses an Ethernet frame holding an AEM message.
func DecodeAemAecpdu(frame []byte) (*AemAecpdu, error) {
	pdu, err := DecodeAecpdu(frame)
	if err != nil {
		return nil, err
	}
	aem, ok := pdu.(*AemAecpdu)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an AEM message", ErrInvalidField, pdu.Header().MessageType)
	}
	return aem, nil
}

// DecodeMvuAecpdu parses an Ethernet frame holding a Milan vendor-unique
// message.
func DecodeMvuAecpdu(frame []byte) (*MvuAecpdu, error) {
	pdu, err := DecodeAecpdu(frame)
	if err != nil {
		return nil, err
	}
	mvu, ok := pdu.(*MvuAecpdu)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a Milan vendor-unique message", ErrInvalidField, pdu.Header().MessageType)
	}
	return mvu, nil
}

func decodeAecpdu(l2 EtherLayer2, h controlHeader, body []byte) (Aecpdu, error) {
	if err := checkLength(h, body, aecpCommonLength); err != nil {
		return nil, err
	}
	cdl := int(h.controlDataLength)
	if cdl > AecpMaxControlDataLength {
		return nil, fmt.Errorf("%w: %w: AECP control_data_length %d", ErrMalformedFrame, ErrPayloadTooLarge, cdl)
	}
	d := body[ControlHeaderLength : ControlHeaderLength+cdl]

	header := AecpHeader{
		EtherLayer2:        l2,
		MessageType:        AecpMessageType(h.messageType),
		Status:             AecpStatus(h.status),
		TargetEntityID:     uid.New(h.streamID),
		ControllerEntityID: uid.New(binary.BigEndian.Uint64(d[0:8])),
		SequenceID:         binary.BigEndian.Uint16(d[8:10]),
	}

	switch header.MessageType {
	case AecpMessageTypeAemCommand, AecpMessageTypeAemResponse:
		if cdl < aemHeaderLength {
			return nil, fmt.Errorf("%w: AEM control_data_length %d below minimum %d",
				ErrMalformedFrame, cdl, aemHeaderLength)
		}
		w := binary.BigEndian.Uint16(d[10:12])
		return &AemAecpdu{
			AecpHeader:  header,
			Unsolicited: w&unsolicitedFlag != 0,
			CommandType: AemCommandType(w & commandTypeMask),
			Payload:     clonePayload(d[aemHeaderLength:]),
		}, nil

	case AecpMessageTypeVendorUniqueCommand, AecpMessageTypeVendorUniqueResponse:
		if cdl >= aecpCommonLength+mvuProtocolIDSize && uint48(d[10:16]) == MilanVendorUniqueProtocolID {
			if cdl < mvuHeaderLength {
				return nil, fmt.Errorf("%w: MVU control_data_length %d below minimum %d",
					ErrMalformedFrame, cdl, mvuHeaderLength)
			}
			w := binary.BigEndian.Uint16(d[16:18])
			return &MvuAecpdu{
				AecpHeader:  header,
				Unsolicited: w&unsolicitedFlag != 0,
				CommandType: MvuCommandType(w & commandTypeMask),
				Payload:     clonePayload(d[mvuHeaderLength:]),
			}, nil
		}
	}

	return &GenericAecpdu{
		AecpHeader: header,
		Payload:    clonePayload(d[aecpCommonLength:]),
	}, nil
}

func putUint48(b []byte, v uint64) {
	b[0] = byte(v >> 40)
	b[1] = byte(v >> 32)
	b[2] = byte(v >> 24)
	b[3] = byte(v >> 16)
	b[4] = byte(v >> 8)
	b[5] = byte(v)
}

func uint48(b []byte) uint64 {
	return uint64(b[0])<<40 | uint64(b[1])<<32 | uint64(b[2])<<24 |
		uint64(b[3])<<16 | uint64(b[4])<<8 | uint64(b[5])
}
