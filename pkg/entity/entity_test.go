package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

var testMac = wire.MacAddress{0x00, 0x1b, 0x92, 0x01, 0x02, 0x03}

func TestInterfacesStaySorted(t *testing.T) {
	e := New(CommonInformation{EntityID: uid.New(1)},
		InterfaceInformation{InterfaceIndex: 3},
		InterfaceInformation{InterfaceIndex: 1},
		InterfaceInformation{InterfaceIndex: GlobalInterfaceIndex},
		InterfaceInformation{InterfaceIndex: 2},
	)

	var got []uint16
	for _, info := range e.Interfaces {
		got = append(got, info.InterfaceIndex)
	}
	assert.Equal(t, []uint16{1, 2, 3, GlobalInterfaceIndex}, got)

	e.SetInterface(InterfaceInformation{InterfaceIndex: 2, AvailableIndex: 9})
	info, ok := e.Interface(2)
	require.True(t, ok)
	assert.Equal(t, uint32(9), info.AvailableIndex)
	assert.Len(t, e.Interfaces, 4)

	assert.True(t, e.RemoveInterface(1))
	assert.False(t, e.RemoveInterface(1))
	_, ok = e.Interface(1)
	assert.False(t, ok)
}

func TestCloneIsDeep(t *testing.T) {
	idx := uint16(4)
	gm := uid.New(77)
	e := New(CommonInformation{EntityID: uid.New(1), IdentifyControlIndex: &idx},
		InterfaceInformation{InterfaceIndex: 0, GptpGrandmasterID: &gm})

	c := e.Clone()
	*c.Common.IdentifyControlIndex = 5
	*c.Interfaces[0].GptpGrandmasterID = uid.New(78)
	c.Interfaces[0].AvailableIndex = 10

	assert.Equal(t, uint16(4), *e.Common.IdentifyControlIndex)
	assert.Equal(t, uid.New(77), *e.Interfaces[0].GptpGrandmasterID)
	assert.Equal(t, uint32(0), e.Interfaces[0].AvailableIndex)
}

func TestFromAdpduHonorsCapabilityBits(t *testing.T) {
	p := &wire.Adpdu{
		EtherLayer2:          wire.EtherLayer2{SrcAddress: testMac},
		EntityID:             uid.New(0x10),
		ValidTime:            5,
		AvailableIndex:       3,
		IdentifyControlIndex: 7,
		InterfaceIndex:       2,
		AssociationID:        uid.New(0x20),
		GptpGrandmasterID:    uid.New(0x30),
		GptpDomainNumber:     1,
	}

	common, info := FromAdpdu(p)
	assert.Nil(t, common.IdentifyControlIndex)
	assert.Nil(t, common.AssociationID)
	assert.Equal(t, GlobalInterfaceIndex, info.InterfaceIndex)
	assert.Nil(t, info.GptpGrandmasterID)
	assert.Equal(t, testMac, info.MacAddress)
	assert.Equal(t, uint8(5), info.ValidTime)

	p.EntityCapabilities = wire.NewBitfield(
		wire.EntityCapabilityAemIdentifyControlIndexValid,
		wire.EntityCapabilityAssociationIDValid,
		wire.EntityCapabilityAemInterfaceIndexValid,
		wire.EntityCapabilityGptpSupported,
	)
	common, info = FromAdpdu(p)
	require.NotNil(t, common.IdentifyControlIndex)
	assert.Equal(t, uint16(7), *common.IdentifyControlIndex)
	require.NotNil(t, common.AssociationID)
	assert.Equal(t, uid.New(0x20), *common.AssociationID)
	assert.Equal(t, uint16(2), info.InterfaceIndex)
	require.NotNil(t, info.GptpGrandmasterID)
	assert.Equal(t, uid.New(0x30), *info.GptpGrandmasterID)
	require.NotNil(t, info.GptpDomainNumber)
	assert.Equal(t, uint8(1), *info.GptpDomainNumber)
}

func TestAdpduRoundTripThroughEntity(t *testing.T) {
	idx := uint16(1)
	gm := uid.New(0x99)
	domain := uint8(0)
	e := New(CommonInformation{
		EntityID:               uid.New(0x1234),
		EntityModelID:          uid.New(0x5678),
		EntityCapabilities:     wire.NewBitfield(wire.EntityCapabilityAemSupported, wire.EntityCapabilityGptpSupported),
		ControllerCapabilities: wire.NewBitfield(wire.ControllerCapabilityImplemented),
		IdentifyControlIndex:   &idx,
	}, InterfaceInformation{
		InterfaceIndex:    0,
		MacAddress:        testMac,
		ValidTime:         2,
		AvailableIndex:    8,
		GptpGrandmasterID: &gm,
		GptpDomainNumber:  &domain,
	})

	p := e.Adpdu(wire.AdpMessageTypeEntityAvailable, &e.Interfaces[0])
	assert.Equal(t, wire.AdpMulticastAddress, p.DestAddress)
	assert.True(t, p.EntityCapabilities.Test(wire.EntityCapabilityAemIdentifyControlIndexValid))
	assert.True(t, p.EntityCapabilities.Test(wire.EntityCapabilityAemInterfaceIndexValid))
	assert.False(t, p.EntityCapabilities.Test(wire.EntityCapabilityAssociationIDValid))

	common, info := FromAdpdu(p)
	assert.True(t, common.SameIncarnation(e.Common))
	assert.True(t, info.Equal(e.Interfaces[0]))
}

func TestAdpduAdvertisesGptpWhenGrandmasterKnown(t *testing.T) {
	gm := uid.New(0x99)
	domain := uint8(3)
	e := New(CommonInformation{EntityID: uid.New(0x1234)}, InterfaceInformation{
		InterfaceIndex:    GlobalInterfaceIndex,
		MacAddress:        testMac,
		GptpGrandmasterID: &gm,
		GptpDomainNumber:  &domain,
	})

	p := e.Adpdu(wire.AdpMessageTypeEntityAvailable, &e.Interfaces[0])
	assert.True(t, p.EntityCapabilities.Test(wire.EntityCapabilityGptpSupported))

	_, info := FromAdpdu(p)
	require.NotNil(t, info.GptpGrandmasterID)
	assert.Equal(t, gm, *info.GptpGrandmasterID)
	require.NotNil(t, info.GptpDomainNumber)
	assert.Equal(t, domain, *info.GptpDomainNumber)
}

func TestSameIncarnation(t *testing.T) {
	a := CommonInformation{EntityID: uid.New(1), EntityModelID: uid.New(2)}
	b := a
	b.EntityCapabilities.Set(wire.EntityCapabilityClassASupported)
	assert.True(t, a.SameIncarnation(b), "entity capabilities may change")

	b.TalkerStreamSources = 4
	assert.False(t, a.SameIncarnation(b))

	c := a
	c.EntityModelID = uid.New(3)
	assert.False(t, a.SameIncarnation(c))
}
