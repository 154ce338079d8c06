package acmp

import (
	"fmt"
	"maps"

	"github.com/avb-tools/avdecc-go/pkg/entity"
)

// State is the connection state of a listener stream.
type State uint8

const (
	NotConnected State = iota
	FastConnecting
	Connected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case NotConnected:
		return "NOT_CONNECTED"
	case FastConnecting:
		return "FAST_CONNECTING"
	case Connected:
		return "CONNECTED"
	default:
		return fmt.Sprintf("STATE(%d)", uint8(s))
	}
}

// ConnectionState is the state of a listener stream and the talker stream
// bound to it. Talker is zero when State is NotConnected.
type ConnectionState struct {
	State  State
	Talker entity.StreamIdentification
}

// String formats the state for logs.
func (c ConnectionState) String() string {
	if c.State == NotConnected {
		return c.State.String()
	}
	return fmt.Sprintf("%s to %s", c.State, c.Talker)
}

// Tracker holds the connection state of every listener stream seen on the
// network. Listener streams never seen are NotConnected.
//
// Tracker is not safe for concurrent use.
type Tracker struct {
	states map[entity.StreamIdentification]ConnectionState
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[entity.StreamIdentification]ConnectionState)}
}

// Get returns the state of listener.
func (t *Tracker) Get(listener entity.StreamIdentification) ConnectionState {
	return t.states[listener]
}

// Set records the state of listener and reports whether it changed.
func (t *Tracker) Set(listener entity.StreamIdentification, cs ConnectionState) bool {
	if cs.State == NotConnected {
		cs.Talker = entity.StreamIdentification{}
	}
	if t.states[listener] == cs {
		return false
	}
	if cs.State == NotConnected {
		delete(t.states, listener)
	} else {
		t.states[listener] = cs
	}
	return true
}

// All returns a copy of every listener stream not in NotConnected.
func (t *Tracker) All() map[entity.StreamIdentification]ConnectionState {
	return maps.Clone(t.states)
}
