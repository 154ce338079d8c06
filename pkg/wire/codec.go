package wire

import (
	"errors"
	"fmt"
)

// Codec errors.
var (
	// ErrMalformedFrame is wrapped by every decoding error caused by the
	// frame content.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrNotAvdecc reports a frame with another EtherType. It is returned
	// together with ErrMalformedFrame.
	ErrNotAvdecc = errors.New("not an AVDECC frame")

	// ErrUnsupportedSubtype reports a valid AVTP control frame of a
	// subtype this package does not handle (MAAP for instance).
	ErrUnsupportedSubtype = errors.New("unsupported AVTP subtype")

	// ErrPayloadTooLarge reports a payload over the AECPDU maximum.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrInvalidField reports a field value that does not fit its width.
	ErrInvalidField = errors.New("invalid field value")
)

// Pdu is a decoded AVDECC message.
type Pdu interface {
	// Subtype returns the AVTP control subtype of the message.
	Subtype() Subtype

	// Layer2 returns the Ethernet addressing of the message.
	Layer2() *EtherLayer2
}

// Decode parses an Ethernet frame into one of *Adpdu, *AemAecpdu,
// *MvuAecpdu, *GenericAecpdu or *Acmpdu.
func Decode(frame []byte) (Pdu, error) {
	l2, body, err := decodeFrame(frame)
	if err != nil {
		return nil, err
	}
	h, err := parseControlHeader(body)
	if err != nil {
		return nil, err
	}
	switch h.subtype {
	case SubtypeAdp:
		pdu, err := decodeAdpdu(l2, h, body)
		if err != nil {
			return nil, err
		}
		return pdu, nil
	case SubtypeAecp:
		return decodeAecpdu(l2, h, body)
	case SubtypeAcmp:
		pdu, err := decodeAcmpdu(l2, h, body)
		if err != nil {
			return nil, err
		}
		return pdu, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSubtype, h.subtype)
	}
}

// Encode serializes any PDU returned by Decode.
func Encode(p Pdu) ([]byte, error) {
	switch pdu := p.(type) {
	case *Adpdu:
		return EncodeAdpdu(pdu)
	case *AemAecpdu:
		return EncodeAemAecpdu(pdu)
	case *MvuAecpdu:
		return EncodeMvuAecpdu(pdu)
	case *GenericAecpdu:
		return EncodeGenericAecpdu(pdu)
	case *Acmpdu:
		return EncodeAcmpdu(pdu)
	default:
		return nil, fmt.Errorf("cannot encode %T", p)
	}
}

// decodeSubtype is the shared prologue of the typed decoders.
func decodeSubtype(frame []byte, want Subtype) (EtherLayer2, controlHeader, []byte, error) {
	l2, body, err := decodeFrame(frame)
	if err != nil {
		return l2, controlHeader{}, nil, err
	}
	h, err := parseControlHeader(body)
	if err != nil {
		return l2, h, nil, err
	}
	if h.subtype != want {
		return l2, h, nil, fmt.Errorf("%w: expected %s, got %s", ErrUnsupportedSubtype, want, h.subtype)
	}
	return l2, h, body, nil
}

// checkLength verifies that body holds the advertised control data.
func checkLength(h controlHeader, body []byte, minLen int) error {
	cdl := int(h.controlDataLength)
	if cdl < minLen {
		return fmt.Errorf("%w: %s control_data_length %d below minimum %d",
			ErrMalformedFrame, h.subtype, cdl, minLen)
	}
	if len(body) < ControlHeaderLength+cdl {
		return fmt.Errorf("%w: %s truncated, need %d bytes, got %d",
			ErrMalformedFrame, h.subtype, ControlHeaderLength+cdl, len(body))
	}
	return nil
}

// clonePayload copies b, keeping empty payloads nil.
func clonePayload(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
