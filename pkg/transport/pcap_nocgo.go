//go:build !cgo

package transport

import "fmt"

// OpenPcap is unavailable without cgo.
func OpenPcap(name string) (Transport, error) {
	return nil, fmt.Errorf("%w: pcap requires cgo", ErrUnsupported)
}

// PcapDevices is unavailable without cgo.
func PcapDevices() ([]string, error) {
	return nil, fmt.Errorf("%w: pcap requires cgo", ErrUnsupported)
}
