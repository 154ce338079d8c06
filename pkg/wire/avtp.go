package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// EtherType is the IEEE 1722 AVTP EtherType.
const EtherType uint16 = 0x22F0

// Frame geometry.
const (
	EthernetHeaderLength  = 14
	VlanTagLength         = 4
	EthernetMinFrameSize  = 60
	ControlHeaderLength   = 12
	AdpControlDataLength  = 56
	AcmpControlDataLength = 44

	// AecpMaxControlDataLength is the largest AECPDU after the control header.
	AecpMaxControlDataLength = 524

	// AemMaxPayloadLength is the largest command-specific AEM payload.
	AemMaxPayloadLength = 512
)

// Subtype is the AVTP control subtype.
type Subtype uint8

const (
	SubtypeAdp  Subtype = 0x7a
	SubtypeAecp Subtype = 0x7b
	SubtypeAcmp Subtype = 0x7c
	SubtypeMaap Subtype = 0x7e
)

// String returns the subtype name.
func (s Subtype) String() string {
	switch s {
	case SubtypeAdp:
		return "ADP"
	case SubtypeAecp:
		return "AECP"
	case SubtypeAcmp:
		return "ACMP"
	case SubtypeMaap:
		return "MAAP"
	default:
		return fmt.Sprintf("SUBTYPE(0x%02x)", uint8(s))
	}
}

// EtherLayer2 holds the Ethernet addressing of a frame.
type EtherLayer2 struct {
	DestAddress MacAddress
	SrcAddress  MacAddress

	// Tagged frames carry an 802.1Q header.
	Tagged       bool
	VlanID       uint16
	VlanPriority uint8
}

// Layer2 gives access to the Ethernet addressing of any PDU.
func (l *EtherLayer2) Layer2() *EtherLayer2 {
	return l
}

// controlHeader is the common AVTP control header.
type controlHeader struct {
	subtype           Subtype
	messageType       uint8
	status            uint8
	controlDataLength uint16
	streamID          uint64
}

func putControlHeader(b []byte, h controlHeader) {
	b[0] = 0x80 | uint8(h.subtype)&0x7f
	b[1] = h.messageType & 0x0f
	binary.BigEndian.PutUint16(b[2:4], uint16(h.status&0x1f)<<11|h.controlDataLength&0x07ff)
	binary.BigEndian.PutUint64(b[4:12], h.streamID)
}

func parseControlHeader(b []byte) (controlHeader, error) {
	if len(b) < ControlHeaderLength {
		return controlHeader{}, fmt.Errorf("%w: control header needs %d bytes, got %d",
			ErrMalformedFrame, ControlHeaderLength, len(b))
	}
	if b[0]&0x80 == 0 {
		return controlHeader{}, fmt.Errorf("%w: cd bit not set", ErrMalformedFrame)
	}
	sw := binary.BigEndian.Uint16(b[2:4])
	return controlHeader{
		subtype:           Subtype(b[0] & 0x7f),
		messageType:       b[1] & 0x0f,
		status:            uint8(sw >> 11),
		controlDataLength: sw & 0x07ff,
		streamID:          binary.BigEndian.Uint64(b[4:12]),
	}, nil
}

// encodeFrame wraps an AVTP body in an Ethernet envelope, padded to the
// minimum frame size.
func encodeFrame(l2 *EtherLayer2, body []byte) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       l2.SrcAddress.HardwareAddr(),
		DstMAC:       l2.DestAddress.HardwareAddr(),
		EthernetType: layers.EthernetType(EtherType),
	}
	stack := []gopacket.SerializableLayer{eth}
	if l2.Tagged {
		eth.EthernetType = layers.EthernetTypeDot1Q
		stack = append(stack, &layers.Dot1Q{
			Priority:       l2.VlanPriority,
			VLANIdentifier: l2.VlanID,
			Type:           layers.EthernetType(EtherType),
		})
	}
	stack = append(stack, gopacket.Payload(body))

	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, stack...); err != nil {
		return nil, fmt.Errorf("serialize ethernet frame: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeFrame strips the Ethernet envelope and returns the AVTP body.
func decodeFrame(frame []byte) (EtherLayer2, []byte, error) {
	var l2 EtherLayer2

	var eth layers.Ethernet
	if err := eth.DecodeFromBytes(frame, gopacket.NilDecodeFeedback); err != nil {
		return l2, nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	copy(l2.DestAddress[:], eth.DstMAC)
	copy(l2.SrcAddress[:], eth.SrcMAC)

	etherType := eth.EthernetType
	body := eth.Payload
	if etherType == layers.EthernetTypeDot1Q {
		var tag layers.Dot1Q
		if err := tag.DecodeFromBytes(body, gopacket.NilDecodeFeedback); err != nil {
			return l2, nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		l2.Tagged = true
		l2.VlanID = tag.VLANIdentifier
		l2.VlanPriority = tag.Priority
		etherType = tag.Type
		body = tag.Payload
	}
	if uint16(etherType) != EtherType {
		return l2, nil, fmt.Errorf("%w: %w: ethertype 0x%04x", ErrMalformedFrame, ErrNotAvdecc, uint16(etherType))
	}
	return l2, body, nil
}
