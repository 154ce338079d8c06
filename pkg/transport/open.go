package transport

import (
	"fmt"
	"strings"
)

// Kind selects a transport provider.
type Kind string

const (
	KindPcap     Kind = "pcap"
	KindAFPacket Kind = "afpacket"
	KindVirtual  Kind = "virtual"
)

// ParseKind parses a provider name case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindPcap, KindAFPacket, KindVirtual:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Open opens interface name with the given provider. Virtual transports
// attach to DefaultBus.
func Open(kind Kind, name string) (Transport, error) {
	switch kind {
	case KindPcap:
		t, err := OpenPcap(name)
		if err != nil {
			return nil, err
		}
		return t, nil
	case KindAFPacket:
		t, err := OpenAFPacket(name)
		if err != nil {
			return nil, err
		}
		return t, nil
	case KindVirtual:
		return DefaultBus().Attach(name, VirtualMacAddress(name)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
