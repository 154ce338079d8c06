package aecp

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// ErrShortPayload reports a response payload too short for its command.
var ErrShortPayload = errors.New("aecp: payload too short")

// AcquireFlags is the acquire_flags field of ACQUIRE_ENTITY.
type AcquireFlags uint32

const (
	AcquirePersistent AcquireFlags = 0x00000001
	AcquireRelease    AcquireFlags = 0x80000000
)

// LockFlags is the lock_flags field of LOCK_ENTITY.
type LockFlags uint32

const (
	LockUnlock LockFlags = 0x00000001
)

// Identify control values.
const (
	identifyOn  byte = 0xff
	identifyOff byte = 0x00
)

const (
	acquirePayloadLength   = 16
	milanInfoPayloadLength = 14
)

// NewAemCommand builds an AEM command from controller to target.
func NewAemCommand(controller, target uid.ID, cmd wire.AemCommandType, payload []byte) *wire.AemAecpdu {
	return &wire.AemAecpdu{
		AecpHeader: wire.AecpHeader{
			MessageType:        wire.AecpMessageTypeAemCommand,
			TargetEntityID:     target,
			ControllerEntityID: controller,
		},
		CommandType: cmd,
		Payload:     payload,
	}
}

// NewMvuCommand builds a Milan vendor-unique command from controller to target.
func NewMvuCommand(controller, target uid.ID, cmd wire.MvuCommandType, payload []byte) *wire.MvuAecpdu {
	return &wire.MvuAecpdu{
		AecpHeader: wire.AecpHeader{
			MessageType:        wire.AecpMessageTypeVendorUniqueCommand,
			TargetEntityID:     target,
			ControllerEntityID: controller,
		},
		CommandType: cmd,
		Payload:     payload,
	}
}

// AcquireEntity builds ACQUIRE_ENTITY for a descriptor of target.
// AcquireRelease in flags releases it instead.
func AcquireEntity(controller, target uid.ID, flags AcquireFlags, descType wire.DescriptorType, descIndex uint16) *wire.AemAecpdu {
	return NewAemCommand(controller, target, wire.AemCommandAcquireEntity,
		ownershipPayload(uint32(flags), uid.Null, descType, descIndex))
}

// ReleaseEntity builds the ACQUIRE_ENTITY command releasing an acquired entity.
func ReleaseEntity(controller, target uid.ID) *wire.AemAecpdu {
	return AcquireEntity(controller, target, AcquireRelease, wire.DescriptorEntity, 0)
}

// LockEntity builds LOCK_ENTITY for a descriptor of target.
func LockEntity(controller, target uid.ID, flags LockFlags, descType wire.DescriptorType, descIndex uint16) *wire.AemAecpdu {
	return NewAemCommand(controller, target, wire.AemCommandLockEntity,
		ownershipPayload(uint32(flags), uid.Null, descType, descIndex))
}

// UnlockEntity builds the LOCK_ENTITY command unlocking target.
func UnlockEntity(controller, target uid.ID) *wire.AemAecpdu {
	return LockEntity(controller, target, LockUnlock, wire.DescriptorEntity, 0)
}

func ownershipPayload(flags uint32, owner uid.ID, descType wire.DescriptorType, descIndex uint16) []byte {
	b := make([]byte, acquirePayloadLength)
	binary.BigEndian.PutUint32(b[0:4], flags)
	binary.BigEndian.PutUint64(b[4:12], owner.Value())
	binary.BigEndian.PutUint16(b[12:14], uint16(descType))
	binary.BigEndian.PutUint16(b[14:16], descIndex)
	return b
}

// OwnershipInfo is the payload of an ACQUIRE_ENTITY or LOCK_ENTITY response.
type OwnershipInfo struct {
	Flags           uint32
	Owner           uid.ID
	DescriptorType  wire.DescriptorType
	DescriptorIndex uint16
}

// ParseOwnership decodes an ACQUIRE_ENTITY or LOCK_ENTITY response. Owner
// is the controller that holds the entity.
func ParseOwnership(resp *wire.AemAecpdu) (OwnershipInfo, error) {
	if len(resp.Payload) < acquirePayloadLength {
		return OwnershipInfo{}, fmt.Errorf("%w: %s has %d bytes", ErrShortPayload, resp.CommandType, len(resp.Payload))
	}
	b := resp.Payload
	return OwnershipInfo{
		Flags:           binary.BigEndian.Uint32(b[0:4]),
		Owner:           uid.New(binary.BigEndian.Uint64(b[4:12])),
		DescriptorType:  wire.DescriptorType(binary.BigEndian.Uint16(b[12:14])),
		DescriptorIndex: binary.BigEndian.Uint16(b[14:16]),
	}, nil
}

// EntityAvailable builds ENTITY_AVAILABLE, used to probe a target.
func EntityAvailable(controller, target uid.ID) *wire.AemAecpdu {
	return NewAemCommand(controller, target, wire.AemCommandEntityAvailable, nil)
}

// ReadDescriptor builds READ_DESCRIPTOR.
func ReadDescriptor(controller, target uid.ID, configIndex uint16, descType wire.DescriptorType, descIndex uint16) *wire.AemAecpdu {
	b := make([]byte, 8)
	binary.BigEndian.PutUint16(b[0:2], configIndex)
	binary.BigEndian.PutUint16(b[4:6], uint16(descType))
	binary.BigEndian.PutUint16(b[6:8], descIndex)
	return NewAemCommand(controller, target, wire.AemCommandReadDescriptor, b)
}

// StartStreaming builds START_STREAMING for a stream descriptor.
func StartStreaming(controller, target uid.ID, descType wire.DescriptorType, descIndex uint16) *wire.AemAecpdu {
	return NewAemCommand(controller, target, wire.AemCommandStartStreaming, descriptorRef(descType, descIndex))
}

// StopStreaming builds STOP_STREAMING for a stream descriptor.
func StopStreaming(controller, target uid.ID, descType wire.DescriptorType, descIndex uint16) *wire.AemAecpdu {
	return NewAemCommand(controller, target, wire.AemCommandStopStreaming, descriptorRef(descType, descIndex))
}

// RegisterUnsolicitedNotification subscribes controller to unsolicited
// responses of target.
func RegisterUnsolicitedNotification(controller, target uid.ID) *wire.AemAecpdu {
	return NewAemCommand(controller, target, wire.AemCommandRegisterUnsolicitedNotification, nil)
}

// Identify builds the SET_CONTROL command switching the identify control
// of target on or off. controlIndex is the index the entity advertises.
func Identify(controller, target uid.ID, controlIndex uint16, on bool) *wire.AemAecpdu {
	b := append(descriptorRef(wire.DescriptorControl, controlIndex), identifyOff)
	if on {
		b[4] = identifyOn
	}
	return NewAemCommand(controller, target, wire.AemCommandSetControl, b)
}

func descriptorRef(descType wire.DescriptorType, descIndex uint16) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint16(b[0:2], uint16(descType))
	binary.BigEndian.PutUint16(b[2:4], descIndex)
	return b
}

// GetMilanInfo builds the GET_MILAN_INFO vendor-unique command.
func GetMilanInfo(controller, target uid.ID) *wire.MvuAecpdu {
	return NewMvuCommand(controller, target, wire.MvuCommandGetMilanInfo, make([]byte, 2))
}

// MilanInfo is the payload of a GET_MILAN_INFO response.
type MilanInfo struct {
	ProtocolVersion      uint32
	FeaturesFlags        uint32
	CertificationVersion uint32
}

// ParseMilanInfo decodes a GET_MILAN_INFO response.
func ParseMilanInfo(resp *wire.MvuAecpdu) (MilanInfo, error) {
	if len(resp.Payload) < milanInfoPayloadLength {
		return MilanInfo{}, fmt.Errorf("%w: GET_MILAN_INFO has %d bytes", ErrShortPayload, len(resp.Payload))
	}
	b := resp.Payload[2:]
	return MilanInfo{
		ProtocolVersion:      binary.BigEndian.Uint32(b[0:4]),
		FeaturesFlags:        binary.BigEndian.Uint32(b[4:8]),
		CertificationVersion: binary.BigEndian.Uint32(b[8:12]),
	}, nil
}

// String formats the certification version as major.minor.patch.build.
func (m MilanInfo) String() string {
	v := m.CertificationVersion
	return fmt.Sprintf("protocol %d, certification %d.%d.%d.%d, features 0x%08x",
		m.ProtocolVersion, v>>24, (v>>16)&0xff, (v>>8)&0xff, v&0xff, m.FeaturesFlags)
}
