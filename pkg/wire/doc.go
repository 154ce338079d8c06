// Package wire implements the binary frame formats of IEEE 1722.1 AVDECC.
//
// Every AVDECC message travels in an Ethernet frame with EtherType 0x22F0,
// followed by the 12-byte AVTP control header and a subtype-specific body.
// Four body shapes are supported:
//
//   - ADP: entity advertisement, departure and discovery (Adpdu)
//   - AEM AECP: entity model commands and responses (AemAecpdu)
//   - MVU AECP: Milan vendor-unique commands and responses (MvuAecpdu)
//   - ACMP: stream connection management (Acmpdu)
//
// Other AECP message types decode to GenericAecpdu so that unknown traffic
// stays representable without being interpreted.
//
// # Encoding
//
// All fields are big-endian and fixed-width. Encoding is deterministic and
// pads frames to the 60-byte Ethernet minimum:
//
//	frame, err := wire.EncodeAdpdu(&wire.Adpdu{
//	    EtherLayer2: wire.EtherLayer2{DestAddress: wire.AdpMulticastAddress, SrcAddress: mac},
//	    MessageType: wire.AdpMessageTypeEntityDiscover,
//	})
//
// # Decoding
//
// Decode never panics on hostile input. Truncated frames, inconsistent
// control_data_length values and oversized payloads return an error
// wrapping ErrMalformedFrame:
//
//	pdu, err := wire.Decode(frame)
//	if errors.Is(err, wire.ErrMalformedFrame) {
//	    // drop
//	}
//
// AEM and MVU command-specific payloads are opaque byte slices; this
// package only enforces their maximum length.
package wire
