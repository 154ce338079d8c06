package entity

import (
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// FromAdpdu extracts the common and interface information of an
// ENTITY_AVAILABLE message. Optional fields are only read when the
// capability bit advertising them is set.
func FromAdpdu(p *wire.Adpdu) (CommonInformation, InterfaceInformation) {
	caps := p.EntityCapabilities
	common := CommonInformation{
		EntityID:               p.EntityID,
		EntityModelID:          p.EntityModelID,
		EntityCapabilities:     caps,
		TalkerStreamSources:    p.TalkerStreamSources,
		TalkerCapabilities:     p.TalkerCapabilities,
		ListenerStreamSinks:    p.ListenerStreamSinks,
		ListenerCapabilities:   p.ListenerCapabilities,
		ControllerCapabilities: p.ControllerCapabilities,
	}
	if caps.Test(wire.EntityCapabilityAemIdentifyControlIndexValid) {
		idx := p.IdentifyControlIndex
		common.IdentifyControlIndex = &idx
	}
	if caps.Test(wire.EntityCapabilityAssociationIDValid) {
		id := p.AssociationID
		common.AssociationID = &id
	}

	info := InterfaceInformation{
		InterfaceIndex: GlobalInterfaceIndex,
		MacAddress:     p.SrcAddress,
		ValidTime:      p.ValidTime,
		AvailableIndex: p.AvailableIndex,
	}
	if caps.Test(wire.EntityCapabilityAemInterfaceIndexValid) {
		info.InterfaceIndex = p.InterfaceIndex
	}
	if caps.Test(wire.EntityCapabilityGptpSupported) {
		gm := p.GptpGrandmasterID
		domain := p.GptpDomainNumber
		info.GptpGrandmasterID = &gm
		info.GptpDomainNumber = &domain
	}
	return common, info
}

// InterfaceIndexOf returns the interface an ADP message refers to.
func InterfaceIndexOf(p *wire.Adpdu) uint16 {
	if p.EntityCapabilities.Test(wire.EntityCapabilityAemInterfaceIndexValid) {
		return p.InterfaceIndex
	}
	return GlobalInterfaceIndex
}

// Adpdu builds the message advertising interface info of entity e. The
// capability bits of optional fields are set to match their presence.
func (e *Entity) Adpdu(msgType wire.AdpMessageType, info *InterfaceInformation) *wire.Adpdu {
	c := &e.Common
	caps := c.EntityCapabilities.
		Without(wire.EntityCapabilityAemIdentifyControlIndexValid).
		Without(wire.EntityCapabilityAssociationIDValid).
		Without(wire.EntityCapabilityAemInterfaceIndexValid)

	p := &wire.Adpdu{
		EtherLayer2: wire.EtherLayer2{
			DestAddress: wire.AdpMulticastAddress,
			SrcAddress:  info.MacAddress,
		},
		MessageType:            msgType,
		ValidTime:              info.ValidTime,
		EntityID:               c.EntityID,
		EntityModelID:          c.EntityModelID,
		TalkerStreamSources:    c.TalkerStreamSources,
		TalkerCapabilities:     c.TalkerCapabilities,
		ListenerStreamSinks:    c.ListenerStreamSinks,
		ListenerCapabilities:   c.ListenerCapabilities,
		ControllerCapabilities: c.ControllerCapabilities,
		AvailableIndex:         info.AvailableIndex,
	}
	if c.IdentifyControlIndex != nil {
		caps.Set(wire.EntityCapabilityAemIdentifyControlIndexValid)
		p.IdentifyControlIndex = *c.IdentifyControlIndex
	}
	if c.AssociationID != nil {
		caps.Set(wire.EntityCapabilityAssociationIDValid)
		p.AssociationID = *c.AssociationID
	}
	if info.InterfaceIndex != GlobalInterfaceIndex {
		caps.Set(wire.EntityCapabilityAemInterfaceIndexValid)
		p.InterfaceIndex = info.InterfaceIndex
	}
	if info.GptpGrandmasterID != nil {
		caps.Set(wire.EntityCapabilityGptpSupported)
		p.GptpGrandmasterID = *info.GptpGrandmasterID
	}
	if info.GptpDomainNumber != nil {
		p.GptpDomainNumber = *info.GptpDomainNumber
	}
	p.EntityCapabilities = caps
	return p
}

// IsController reports whether the entity advertises controller support.
func (c CommonInformation) IsController() bool {
	return c.ControllerCapabilities.Test(wire.ControllerCapabilityImplemented)
}

// DepartingAdpdu builds an ENTITY_DEPARTING message for interface info.
func (e *Entity) DepartingAdpdu(info *InterfaceInformation) *wire.Adpdu {
	return e.Adpdu(wire.AdpMessageTypeEntityDeparting, info)
}

// DiscoverAdpdu builds an ENTITY_DISCOVER message. A Null target
// addresses every entity.
func DiscoverAdpdu(src wire.MacAddress, target uid.ID) *wire.Adpdu {
	return &wire.Adpdu{
		EtherLayer2: wire.EtherLayer2{
			DestAddress: wire.AdpMulticastAddress,
			SrcAddress:  src,
		},
		MessageType: wire.AdpMessageTypeEntityDiscover,
		EntityID:    target,
	}
}
