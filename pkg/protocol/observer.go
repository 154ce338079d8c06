package protocol

import (
	"slices"
	"sync"
	"time"

	"github.com/avb-tools/avdecc-go/pkg/acmp"
	"github.com/avb-tools/avdecc-go/pkg/entity"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// Observer receives the notifications of an Interface. Methods run on the
// executor goroutine, one at a time, in the order events happened.
//
// Embed BaseObserver to implement only the methods you need.
type Observer interface {
	// OnTransportError reports that reception failed permanently. The
	// interface is unusable afterwards.
	OnTransportError(err error)

	// Local entities, as seen through their own advertisements.
	OnLocalEntityOnline(e entity.Entity)
	OnLocalEntityUpdated(e entity.Entity)
	OnLocalEntityOffline(id uid.ID)

	// Remote entities.
	OnRemoteEntityOnline(e entity.Entity)
	OnRemoteEntityUpdated(e entity.Entity)
	OnRemoteEntityOffline(id uid.ID)

	// OnAecpCommand reports a command addressed to a local entity. Answer
	// it with SendAemAecpMessage or SendMvuAecpMessage.
	OnAecpCommand(cmd wire.Aecpdu)
	OnAecpUnsolicitedResponse(resp wire.Aecpdu)
	OnAecpIdentifyNotification(p *wire.AemAecpdu)

	// ACMP traffic seen on the network, whoever sent it.
	OnAcmpSniffedCommand(cmd *wire.Acmpdu)
	OnAcmpSniffedResponse(resp *wire.Acmpdu)
	OnListenerConnectionStateChanged(listener entity.StreamIdentification, cs acmp.ConnectionState)

	// Every decoded message, before protocol processing.
	OnAdpduReceived(p *wire.Adpdu)
	OnAecpduReceived(p wire.Aecpdu)
	OnAcmpduReceived(p *wire.Acmpdu)

	// OnMalformedFrame reports a dropped frame that claimed to be AVDECC.
	OnMalformedFrame(frame []byte, err error)

	// Statistics.
	OnAecpRetry(target uid.ID)
	OnAecpTimeout(target uid.ID)
	OnAecpUnexpectedResponse(target uid.ID)
	OnAecpResponseTime(target uid.ID, d time.Duration)
	OnAcmpTimeout(target uid.ID)
	OnAcmpUnexpectedResponse(target uid.ID)
	OnAcmpResponseTime(target uid.ID, d time.Duration)
}

// BaseObserver implements every Observer method as a no-op.
type BaseObserver struct{}

func (BaseObserver) OnTransportError(error) {}
func (BaseObserver) OnLocalEntityOnline(entity.Entity) {}
func (BaseObserver) OnLocalEntityUpdated(entity.Entity) {}
func (BaseObserver) OnLocalEntityOffline(uid.ID) {}
func (BaseObserver) OnRemoteEntityOnline(entity.Entity) {}
func (BaseObserver) OnRemoteEntityUpdated(entity.Entity) {}
func (BaseObserver) OnRemoteEntityOffline(uid.ID) {}
func (BaseObserver) OnAecpCommand(wire.Aecpdu) {}
func (BaseObserver) OnAecpUnsolicitedResponse(wire.Aecpdu) {}
func (BaseObserver) OnAecpIdentifyNotification(*wire.AemAecpdu) {}
func (BaseObserver) OnAcmpSniffedCommand(*wire.Acmpdu) {}
func (BaseObserver) OnAcmpSniffedResponse(*wire.Acmpdu) {}
func (BaseObserver) OnListenerConnectionStateChanged(entity.StreamIdentification, acmp.ConnectionState) {
}
func (BaseObserver) OnAdpduReceived(*wire.Adpdu) {}
func (BaseObserver) OnAecpduReceived(wire.Aecpdu) {}
func (BaseObserver) OnAcmpduReceived(*wire.Acmpdu) {}
func (BaseObserver) OnMalformedFrame([]byte, error) {}
func (BaseObserver) OnAecpRetry(uid.ID) {}
func (BaseObserver) OnAecpTimeout(uid.ID) {}
func (BaseObserver) OnAecpUnexpectedResponse(uid.ID) {}
func (BaseObserver) OnAecpResponseTime(uid.ID, time.Duration) {}
func (BaseObserver) OnAcmpTimeout(uid.ID) {}
func (BaseObserver) OnAcmpUnexpectedResponse(uid.ID) {}
func (BaseObserver) OnAcmpResponseTime(uid.ID, time.Duration) {}

// Subscription is the registration of one Observer.
type Subscription struct {
	set      *observerSet
	observer Observer
}

// Close removes the observer. It is safe to call more than once.
func (s *Subscription) Close() {
	s.set.remove(s.observer)
}

// observerSet holds the registered observers. Observers are compared by
// identity, so they must be comparable values such as pointers.
type observerSet struct {
	mu        sync.Mutex
	observers []Observer
}

func (s *observerSet) add(o Observer) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.observers, o) {
		s.observers = append(s.observers, o)
	}
	return &Subscription{set: s, observer: o}
}

func (s *observerSet) remove(o Observer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.observers, o)
	if i < 0 {
		return false
	}
	// Copy on write: snapshots taken before the removal stay intact.
	s.observers = slices.Delete(slices.Clone(s.observers), i, i+1)
	return true
}

func (s *observerSet) snapshot() []Observer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observers
}

func (s *observerSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}
