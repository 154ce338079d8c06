//go:build linux && cgo

package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/gopacket/afpacket"

	"github.com/avb-tools/avdecc-go/pkg/wire"
)

const (
	afpacketFrameSize   = 2048
	afpacketBlockSize   = afpacketFrameSize * 128
	afpacketNumBlocks   = 8
	afpacketPollTimeout = 100 * time.Millisecond
)

// AFPacketTransport is a Transport backed by a Linux TPACKET_V3 ring.
type AFPacketTransport struct {
	name   string
	mac    wire.MacAddress
	handle *afpacket.TPacket
	logger *slog.Logger

	mu      sync.Mutex
	started bool
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// OpenAFPacket opens the named interface with the AVDECC filter attached
// to the socket.
func OpenAFPacket(name string) (*AFPacketTransport, error) {
	ifi, err := LookupInterface(name)
	if err != nil {
		return nil, err
	}
	handle, err := afpacket.NewTPacket(
		afpacket.OptInterface(name),
		afpacket.OptFrameSize(afpacketFrameSize),
		afpacket.OptBlockSize(afpacketBlockSize),
		afpacket.OptNumBlocks(afpacketNumBlocks),
		afpacket.OptPollTimeout(afpacketPollTimeout),
		afpacket.OptTPacketVersion(afpacket.TPacketVersion3),
		afpacket.SocketRaw,
	)
	if err != nil {
		return nil, fmt.Errorf("afpacket open %s: %w", name, err)
	}
	filter, err := AssembleFilter(afpacketFrameSize)
	if err != nil {
		handle.Close()
		return nil, fmt.Errorf("assemble filter: %w", err)
	}
	if err := handle.SetBPF(filter); err != nil {
		handle.Close()
		return nil, fmt.Errorf("afpacket filter %s: %w", name, err)
	}
	return &AFPacketTransport{
		name:   name,
		mac:    ifi.MacAddress,
		handle: handle,
		logger: slog.Default().With("transport", "afpacket", "interface", name),
		done:   make(chan struct{}),
	}, nil
}

// Name implements Transport.
func (t *AFPacketTransport) Name() string {
	return t.name
}

// MacAddress implements Transport.
func (t *AFPacketTransport) MacAddress() wire.MacAddress {
	return t.mac
}

// Send implements Transport.
func (t *AFPacketTransport) Send(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	return t.handle.WritePacketData(frame)
}

// Start implements Transport.
func (t *AFPacketTransport) Start(r Receiver) error {
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

// Close implements Transport. The ring is unmapped only after the receive
// loop has returned, since zero-copy reads point into it.
func (t *AFPacketTransport) Close() error {
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

// Stats returns the kernel packet and drop counters.
func (t *AFPacketTransport) Stats() (packets, drops uint, err error) {
	_, v3, err := t.handle.SocketStats()
	if err != nil {
		return 0, 0, err
	}
	return v3.Packets(), v3.Drops(), nil
}

func (t *AFPacketTransport) receiveLoop(r Receiver) {
	defer t.wg.Done()
	t.logger.Info("afpacket capture started")
	for {
		select {
		case <-t.done:
			t.logger.Info("afpacket capture stopped")
			return
		default:
		}

		data, _, err := t.handle.ZeroCopyReadPacketData()
		if err != nil {
			if errors.Is(err, afpacket.ErrTimeout) || errors.Is(err, afpacket.ErrPoll) {
				continue
			}
			select {
			case <-t.done:
				return
			default:
			}
			r.OnTransportError(fmt.Errorf("afpacket read %s: %w", t.name, err))
			return
		}
		r.OnFrame(data)
	}
}

var _ Transport = (*AFPacketTransport)(nil)
