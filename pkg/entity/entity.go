// Package entity holds the data model of AVDECC entities and the registry
// of entities hosted by the local process.
package entity

import (
	"fmt"
	"slices"

	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// GlobalInterfaceIndex is used when an entity does not report the AVB
// interface an advertisement was sent from.
const GlobalInterfaceIndex uint16 = 0xFFFF

// Valid time bounds, in 2-second units.
const (
	MinValidTime uint8 = 1
	MaxValidTime uint8 = 31
)

// CommonInformation is the part of an advertisement that is the same on
// every interface of an entity.
type CommonInformation struct {
	EntityID               uid.ID
	EntityModelID          uid.ID
	EntityCapabilities     wire.EntityCapabilities
	TalkerStreamSources    uint16
	TalkerCapabilities     wire.TalkerCapabilities
	ListenerStreamSinks    uint16
	ListenerCapabilities   wire.ListenerCapabilities
	ControllerCapabilities wire.ControllerCapabilities

	// Optional fields. nil means not advertised.
	IdentifyControlIndex *uint16
	AssociationID        *uid.ID
}

// Equal reports whether both records hold the same values.
func (c CommonInformation) Equal(o CommonInformation) bool {
	return c.EntityID == o.EntityID &&
		c.EntityModelID == o.EntityModelID &&
		c.EntityCapabilities == o.EntityCapabilities &&
		c.TalkerStreamSources == o.TalkerStreamSources &&
		c.TalkerCapabilities == o.TalkerCapabilities &&
		c.ListenerStreamSinks == o.ListenerStreamSinks &&
		c.ListenerCapabilities == o.ListenerCapabilities &&
		c.ControllerCapabilities == o.ControllerCapabilities &&
		equalPtr(c.IdentifyControlIndex, o.IdentifyControlIndex) &&
		equalPtr(c.AssociationID, o.AssociationID)
}

// SameIncarnation reports whether the fields that cannot change while an
// entity stays online match. A mismatch means the entity restarted with
// another configuration.
func (c CommonInformation) SameIncarnation(o CommonInformation) bool {
	return c.EntityID == o.EntityID &&
		c.EntityModelID == o.EntityModelID &&
		c.TalkerStreamSources == o.TalkerStreamSources &&
		c.TalkerCapabilities == o.TalkerCapabilities &&
		c.ListenerStreamSinks == o.ListenerStreamSinks &&
		c.ListenerCapabilities == o.ListenerCapabilities &&
		c.ControllerCapabilities == o.ControllerCapabilities &&
		equalPtr(c.IdentifyControlIndex, o.IdentifyControlIndex)
}

// InterfaceInformation is the per-interface part of an advertisement.
type InterfaceInformation struct {
	InterfaceIndex uint16
	MacAddress     wire.MacAddress

	// ValidTime is expressed in 2-second units.
	ValidTime      uint8
	AvailableIndex uint32

	// Optional gPTP fields. nil means not advertised.
	GptpGrandmasterID *uid.ID
	GptpDomainNumber  *uint8
}

// Equal reports whether both records hold the same values.
func (i InterfaceInformation) Equal(o InterfaceInformation) bool {
	return i.InterfaceIndex == o.InterfaceIndex &&
		i.MacAddress == o.MacAddress &&
		i.ValidTime == o.ValidTime &&
		i.AvailableIndex == o.AvailableIndex &&
		equalPtr(i.GptpGrandmasterID, o.GptpGrandmasterID) &&
		equalPtr(i.GptpDomainNumber, o.GptpDomainNumber)
}

// Entity is an AVDECC entity as seen through ADP.
type Entity struct {
	Common CommonInformation

	// Interfaces is sorted by InterfaceIndex.
	Interfaces []InterfaceInformation
}

// New builds an entity from its common information and interfaces.
func New(common CommonInformation, interfaces ...InterfaceInformation) Entity {
	e := Entity{Common: common}
	for _, info := range interfaces {
		e.SetInterface(info)
	}
	return e
}

// ID returns the entity ID.
func (e *Entity) ID() uid.ID {
	return e.Common.EntityID
}

// Interface returns the information for interface idx.
func (e *Entity) Interface(idx uint16) (*InterfaceInformation, bool) {
	i, found := e.search(idx)
	if !found {
		return nil, false
	}
	return &e.Interfaces[i], true
}

// SetInterface inserts or replaces the information for info.InterfaceIndex.
func (e *Entity) SetInterface(info InterfaceInformation) {
	i, found := e.search(info.InterfaceIndex)
	if found {
		e.Interfaces[i] = info
		return
	}
	e.Interfaces = slices.Insert(e.Interfaces, i, info)
}

// RemoveInterface removes interface idx and reports whether it existed.
func (e *Entity) RemoveInterface(idx uint16) bool {
	i, found := e.search(idx)
	if !found {
		return false
	}
	e.Interfaces = slices.Delete(e.Interfaces, i, i+1)
	return true
}

// Clone returns a deep copy.
func (e *Entity) Clone() Entity {
	c := Entity{Common: e.Common}
	c.Common.IdentifyControlIndex = clonePtr(e.Common.IdentifyControlIndex)
	c.Common.AssociationID = clonePtr(e.Common.AssociationID)
	c.Interfaces = make([]InterfaceInformation, len(e.Interfaces))
	for i, info := range e.Interfaces {
		info.GptpGrandmasterID = clonePtr(info.GptpGrandmasterID)
		info.GptpDomainNumber = clonePtr(info.GptpDomainNumber)
		c.Interfaces[i] = info
	}
	return c
}

// String returns a short description for logs.
func (e *Entity) String() string {
	return fmt.Sprintf("entity %s (%d interfaces)", e.Common.EntityID, len(e.Interfaces))
}

func (e *Entity) search(idx uint16) (int, bool) {
	return slices.BinarySearchFunc(e.Interfaces, idx, func(info InterfaceInformation, target uint16) int {
		return int(info.InterfaceIndex) - int(target)
	})
}

// StreamIdentification addresses a stream of an entity.
type StreamIdentification struct {
	EntityID    uid.ID
	StreamIndex uint16
}

// String formats the stream as entity/index.
func (s StreamIdentification) String() string {
	return fmt.Sprintf("%s/%d", s.EntityID, s.StreamIndex)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
