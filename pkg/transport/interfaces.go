package transport

import (
	"errors"
	"fmt"
	"net"

	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// Transport errors.
var (
	ErrClosed          = errors.New("transport closed")
	ErrAlreadyStarted  = errors.New("transport already started")
	ErrUnknownKind     = errors.New("unknown transport kind")
	ErrUnsupported     = errors.New("transport not supported on this platform")
	ErrNoSuchInterface = errors.New("no such network interface")
)

// Transport sends and receives raw Ethernet frames on one interface.
// Implemented by PcapTransport, AFPacketTransport and VirtualTransport.
type Transport interface {
	// Name returns the network interface name.
	Name() string

	// MacAddress returns the interface MAC address used as frame source.
	MacAddress() wire.MacAddress

	// Send transmits one complete Ethernet frame.
	Send(frame []byte) error

	// Start begins delivering received frames to r on a dedicated goroutine.
	Start(r Receiver) error

	// Close stops the receive goroutine and releases the interface.
	Close() error
}

// Receiver consumes frames delivered by a Transport.
type Receiver interface {
	// OnFrame is called for every received frame. frame is only valid
	// during the call.
	OnFrame(frame []byte)

	// OnTransportError is called once when reception failed permanently.
	OnTransportError(err error)
}

// ReceiverFuncs adapts two functions to a Receiver.
type ReceiverFuncs struct {
	Frame func(frame []byte)
	Error func(err error)
}

// OnFrame implements Receiver.
func (r ReceiverFuncs) OnFrame(frame []byte) {
	if r.Frame != nil {
		r.Frame(frame)
	}
}

// OnTransportError implements Receiver.
func (r ReceiverFuncs) OnTransportError(err error) {
	if r.Error != nil {
		r.Error(err)
	}
}

// Interface describes a network interface usable for AVDECC.
type Interface struct {
	Name       string
	Index      int
	MacAddress wire.MacAddress
	Up         bool
}

// Interfaces lists the interfaces that have a 48-bit MAC address.
func Interfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	var out []Interface
	for _, ifi := range ifaces {
		mac := wire.MacAddressFrom(ifi.HardwareAddr)
		if mac.IsZero() || ifi.Flags&net.FlagLoopback != 0 {
			continue
		}
		out = append(out, Interface{
			Name:       ifi.Name,
			Index:      ifi.Index,
			MacAddress: mac,
			Up:         ifi.Flags&net.FlagUp != 0,
		})
	}
	return out, nil
}

// LookupInterface returns the named interface.
func LookupInterface(name string) (Interface, error) {
	ifaces, err := Interfaces()
	if err != nil {
		return Interface{}, err
	}
	for _, ifi := range ifaces {
		if ifi.Name == name {
			return ifi, nil
		}
	}
	return Interface{}, fmt.Errorf("%w: %s", ErrNoSuchInterface, name)
}

// Compile-time interface satisfaction checks.
var (
	_ Transport = (*VirtualTransport)(nil)
	_ Receiver  = ReceiverFuncs{}
)
