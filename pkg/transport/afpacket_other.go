//go:build !linux || !cgo

package transport

import "fmt"

// OpenAFPacket is only available on Linux with cgo.
func OpenAFPacket(name string) (Transport, error) {
	return nil, fmt.Errorf("%w: afpacket requires linux and cgo", ErrUnsupported)
}
