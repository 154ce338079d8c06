package wire

import (
	"fmt"
	"net"
)

// MacAddress is a 48-bit IEEE 802 MAC address.
type MacAddress [6]byte

// Well-known AVDECC multicast addresses.
var (
	// AdpMulticastAddress is the destination of ADP messages.
	AdpMulticastAddress = MacAddress{0x91, 0xe0, 0xf0, 0x01, 0x00, 0x00}

	// AcmpMulticastAddress is the destination of ACMP messages.
	AcmpMulticastAddress = MacAddress{0x91, 0xe0, 0xf0, 0x01, 0x00, 0x00}

	// IdentifyMulticastAddress is the destination of IDENTIFY_NOTIFICATION.
	IdentifyMulticastAddress = MacAddress{0x91, 0xe0, 0xf0, 0x01, 0x00, 0x01}
)

// ParseMacAddress parses a colon or dash separated MAC address.
func ParseMacAddress(s string) (MacAddress, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return MacAddress{}, err
	}
	if len(hw) != 6 {
		return MacAddress{}, fmt.Errorf("not a 48-bit MAC address: %s", s)
	}
	var mac MacAddress
	copy(mac[:], hw)
	return mac, nil
}

// MacAddressFrom converts a net.HardwareAddr. Addresses that are not 48
// bits long return the zero address.
func MacAddressFrom(hw net.HardwareAddr) MacAddress {
	var mac MacAddress
	if len(hw) == 6 {
		copy(mac[:], hw)
	}
	return mac
}

// IsZero reports whether all bytes are zero.
func (m MacAddress) IsZero() bool {
	return m == MacAddress{}
}

// IsMulticast reports whether the group bit is set.
func (m MacAddress) IsMulticast() bool {
	return m[0]&0x01 != 0
}

// HardwareAddr returns a copy as net.HardwareAddr.
func (m MacAddress) HardwareAddr() net.HardwareAddr {
	hw := make(net.HardwareAddr, 6)
	copy(hw, m[:])
	return hw
}

// String formats the address as colon-separated lowercase hex.
func (m MacAddress) String() string {
	return net.HardwareAddr(m[:]).String()
}
