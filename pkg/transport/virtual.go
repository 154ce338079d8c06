package transport

import (
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// DefaultInboxSize is the number of frames a virtual transport buffers
// before dropping.
const DefaultInboxSize = 1024

// Bus is an in-memory Ethernet segment. Frames sent by one attached
// transport are delivered to every other started transport whose MAC
// matches the destination, or to all of them for multicast destinations.
type Bus struct {
	mu        sync.RWMutex
	endpoints []*VirtualTransport
	loopback  bool
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLoopback makes the sender receive its own multicast frames, as
// libpcap does on most platforms.
func WithLoopback() BusOption {
	return func(b *Bus) { b.loopback = true }
}

// NewBus creates an empty segment.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var (
	defaultBusOnce sync.Once
	defaultBus     *Bus
)

// DefaultBus returns the process-wide segment used by Open(KindVirtual, ...).
func DefaultBus() *Bus {
	defaultBusOnce.Do(func() { defaultBus = NewBus() })
	return defaultBus
}

// Attach creates a transport on the segment. A zero mac is derived from name.
func (b *Bus) Attach(name string, mac wire.MacAddress) *VirtualTransport {
	if mac.IsZero() {
		mac = VirtualMacAddress(name)
	}
	t := &VirtualTransport{
		bus:   b,
		name:  name,
		mac:   mac,
		inbox: make(chan []byte, DefaultInboxSize),
		done:  make(chan struct{}),
	}
	b.mu.Lock()
	b.endpoints = append(b.endpoints, t)
	b.mu.Unlock()
	return t
}

// Inject delivers frame to every matching transport as if an external
// station had sent it.
func (b *Bus) Inject(frame []byte) {
	b.deliver(nil, frame)
}

func (b *Bus) detach(t *VirtualTransport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ep := range b.endpoints {
		if ep == t {
			b.endpoints = append(b.endpoints[:i], b.endpoints[i+1:]...)
			return
		}
	}
}

func (b *Bus) deliver(from *VirtualTransport, frame []byte) {
	var dst wire.MacAddress
	if len(frame) >= 6 {
		copy(dst[:], frame[:6])
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ep := range b.endpoints {
		if ep == from && !(b.loopback && dst.IsMulticast()) {
			continue
		}
		if !dst.IsMulticast() && dst != ep.mac {
			continue
		}
		ep.enqueue(frame)
	}
}

// VirtualMacAddress derives a stable locally administered unicast MAC from name.
func VirtualMacAddress(name string) wire.MacAddress {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	sum := h.Sum32()
	return wire.MacAddress{0x02, 0x00, byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)}
}

// VirtualTransport is a Transport attached to a Bus.
type VirtualTransport struct {
	bus  *Bus
	name string
	mac  wire.MacAddress

	mu       sync.Mutex
	receiver Receiver
	started  bool
	closed   bool

	inbox   chan []byte
	done    chan struct{}
	wg      sync.WaitGroup
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// Name implements Transport.
func (t *VirtualTransport) Name() string {
	return t.name
}

// MacAddress implements Transport.
func (t *VirtualTransport) MacAddress() wire.MacAddress {
	return t.mac
}

// Send implements Transport.
func (t *VirtualTransport) Send(frame []byte) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return ErrClosed
	}
	t.sent.Add(1)
	t.bus.deliver(t, frame)
	return nil
}

// Start implements Transport.
func (t *VirtualTransport) Start(r Receiver) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if t.started {
		return ErrAlreadyStarted
	}
	t.started = true
	t.receiver = r
	t.wg.Add(1)
	go t.receiveLoop()
	return nil
}

// Fail simulates a fatal receive error: the receiver is told once and the
// transport stops delivering frames.
func (t *VirtualTransport) Fail(err error) {
	t.mu.Lock()
	r := t.receiver
	wasOpen := !t.closed
	t.closed = true
	t.mu.Unlock()
	if !wasOpen {
		return
	}
	close(t.done)
	t.wg.Wait()
	t.bus.detach(t)
	if r != nil {
		r.OnTransportError(err)
	}
}

// Close implements Transport.
func (t *VirtualTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.bus.detach(t)
	close(t.done)
	t.wg.Wait()
	return nil
}

// Stats returns the number of frames sent and dropped on receive.
func (t *VirtualTransport) Stats() (sent, dropped uint64) {
	return t.sent.Load(), t.dropped.Load()
}

func (t *VirtualTransport) enqueue(frame []byte) {
	t.mu.Lock()
	accepting := t.started && !t.closed
	t.mu.Unlock()
	if !accepting {
		return
	}
	cp := append([]byte(nil), frame...)
	select {
	case t.inbox <- cp:
	default:
		t.dropped.Add(1)
		slog.Debug("virtual transport inbox full, dropping frame", "interface", t.name)
	}
}

func (t *VirtualTransport) receiveLoop() {
	defer t.wg.Done()
	for {
		select {
		case <-t.done:
			return
		case frame := <-t.inbox:
			t.receiver.OnFrame(frame)
		}
	}
}
