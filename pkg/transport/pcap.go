//go:build cgo

package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/gopacket/pcap"

	"github.com/avb-tools/avdecc-go/pkg/wire"
)

const (
	pcapSnapLen     = 2048
	pcapReadTimeout = 100 * time.Millisecond
)

// PcapTransport is a Transport backed by libpcap.
type PcapTransport struct {
	name   string
	mac    wire.MacAddress
	handle *pcap.Handle
	logger *slog.Logger

	mu      sync.Mutex
	started bool
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// OpenPcap opens the named interface in promiscuous mode with the AVDECC
// filter installed.
func OpenPcap(name string) (*PcapTransport, error) {
	ifi, err := LookupInterface(name)
	if err != nil {
		return nil, err
	}
	handle, err := pcap.OpenLive(name, pcapSnapLen, true, pcapReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("pcap open %s: %w", name, err)
	}
	if err := handle.SetBPFFilter(PcapFilter); err != nil {
		handle.Close()
		return nil, fmt.Errorf("pcap filter %s: %w", name, err)
	}
	return &PcapTransport{
		name:   name,
		mac:    ifi.MacAddress,
		handle: handle,
		logger: slog.Default().With("transport", "pcap", "interface", name),
		done:   make(chan struct{}),
	}, nil
}

// PcapDevices lists the device names libpcap can open.
func PcapDevices() ([]string, error) {
	devs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(devs))
	for _, d := range devs {
		names = append(names, d.Name)
	}
	return names, nil
}

// Name implements Transport.
func (t *PcapTransport) Name() string {
	return t.name
}

// MacAddress implements Transport.
func (t *PcapTransport) MacAddress() wire.MacAddress {
	return t.mac
}

// Send implements Transport.
func (t *PcapTransport) Send(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	return t.handle.WritePacketData(frame)
}

// Start implements Transport.
func (t *PcapTransport) Start(r Receiver) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if t.started {
		return ErrAlreadyStarted
	}
	t.started = true
	t.wg.Add(1)
	go t.receiveLoop(r)
	return nil
}

// Close implements Transport. The handle is released after the receive
// loop has returned.
func (t *PcapTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.done)
	t.mu.Unlock()

	t.wg.Wait()
	t.handle.Close()
	return nil
}

func (t *PcapTransport) receiveLoop(r Receiver) {
	defer t.wg.Done()
	t.logger.Info("pcap capture started")
	for {
		select {
		case <-t.done:
			t.logger.Info("pcap capture stopped")
			return
		default:
		}

		data, _, err := t.handle.ZeroCopyReadPacketData()
		if err != nil {
			if errors.Is(err, pcap.NextErrorTimeoutExpired) {
				continue
			}
			select {
			case <-t.done:
				return
			default:
			}
			r.OnTransportError(fmt.Errorf("pcap read %s: %w", t.name, err))
			return
		}
		r.OnFrame(data)
	}
}

var _ Transport = (*PcapTransport)(nil)
