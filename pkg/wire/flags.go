package wire

import (
	"iter"
	"math/bits"
	"strings"
)

// Flag is a single-bit value of a capability or flags field.
type Flag interface {
	~uint16 | ~uint32
	String() string
}

// Bitfield is a set of single-bit flags of type F.
// The zero value is the empty set.
type Bitfield[F Flag] struct {
	value F
}

// NewBitfield returns a set with the given flags.
func NewBitfield[F Flag](flags ...F) Bitfield[F] {
	var b Bitfield[F]
	for _, f := range flags {
		b.value |= f
	}
	return b
}

// BitfieldFromValue wraps a raw field value as read from the wire.
func BitfieldFromValue[F Flag](value F) Bitfield[F] {
	return Bitfield[F]{value: value}
}

// Value returns the raw field value.
func (b Bitfield[F]) Value() F {
	return b.value
}

// Test reports whether flag f is set.
func (b Bitfield[F]) Test(f F) bool {
	return f != 0 && b.value&f == f
}

// Set adds flag f.
func (b *Bitfield[F]) Set(f F) {
	b.value |= f
}

// Clear removes flag f.
func (b *Bitfield[F]) Clear(f F) {
	b.value &^= f
}

// With returns a copy with flag f added.
func (b Bitfield[F]) With(f F) Bitfield[F] {
	b.value |= f
	return b
}

// Without returns a copy with flag f removed.
func (b Bitfield[F]) Without(f F) Bitfield[F] {
	b.value &^= f
	return b
}

// Empty reports whether no flag is set.
func (b Bitfield[F]) Empty() bool {
	return b.value == 0
}

// Count returns the number of flags set.
func (b Bitfield[F]) Count() int {
	return bits.OnesCount64(uint64(b.value))
}

// All iterates the set flags from the least significant bit upwards.
func (b Bitfield[F]) All() iter.Seq[F] {
	return func(yield func(F) bool) {
		v := uint64(b.value)
		for v != 0 {
			bit := v & -v
			if !yield(F(bit)) {
				return
			}
			v &^= bit
		}
	}
}

// String joins the names of the set flags with "|".
func (b Bitfield[F]) String() string {
	if b.value == 0 {
		return "NONE"
	}
	var names []string
	for f := range b.All() {
		names = append(names, f.String())
	}
	return strings.Join(names, "|")
}

// EntityCapability is a bit of the ADP entity_capabilities field.
type EntityCapability uint32

const (
	EntityCapabilityEfuMode                       EntityCapability = 1 << 0
	EntityCapabilityAddressAccessSupported        EntityCapability = 1 << 1
	EntityCapabilityGatewayEntity                 EntityCapability = 1 << 2
	EntityCapabilityAemSupported                  EntityCapability = 1 << 3
	EntityCapabilityLegacyAvc                     EntityCapability = 1 << 4
	EntityCapabilityAssociationIDSupported        EntityCapability = 1 << 5
	EntityCapabilityAssociationIDValid            EntityCapability = 1 << 6
	EntityCapabilityVendorUniqueSupported         EntityCapability = 1 << 7
	EntityCapabilityClassASupported               EntityCapability = 1 << 8
	EntityCapabilityClassBSupported               EntityCapability = 1 << 9
	EntityCapabilityGptpSupported                 EntityCapability = 1 << 10
	EntityCapabilityAemAuthenticationSupported    EntityCapability = 1 << 11
	EntityCapabilityAemAuthenticationRequired     EntityCapability = 1 << 12
	EntityCapabilityAemPersistentAcquireSupported EntityCapability = 1 << 13
	EntityCapabilityAemIdentifyControlIndexValid  EntityCapability = 1 << 14
	EntityCapabilityAemInterfaceIndexValid        EntityCapability = 1 << 15
	EntityCapabilityGeneralControllerIgnore       EntityCapability = 1 << 16
	EntityCapabilityEntityNotReady                EntityCapability = 1 << 17
)

// String returns the capability name.
func (c EntityCapability) String() string {
	switch c {
	case EntityCapabilityEfuMode:
		return "EFU_MODE"
	case EntityCapabilityAddressAccessSupported:
		return "ADDRESS_ACCESS_SUPPORTED"
	case EntityCapabilityGatewayEntity:
		return "GATEWAY_ENTITY"
	case EntityCapabilityAemSupported:
		return "AEM_SUPPORTED"
	case EntityCapabilityLegacyAvc:
		return "LEGACY_AVC"
	case EntityCapabilityAssociationIDSupported:
		return "ASSOCIATION_ID_SUPPORTED"
	case EntityCapabilityAssociationIDValid:
		return "ASSOCIATION_ID_VALID"
	case EntityCapabilityVendorUniqueSupported:
		return "VENDOR_UNIQUE_SUPPORTED"
	case EntityCapabilityClassASupported:
		return "CLASS_A_SUPPORTED"
	case EntityCapabilityClassBSupported:
		return "CLASS_B_SUPPORTED"
	case EntityCapabilityGptpSupported:
		return "GPTP_SUPPORTED"
	case EntityCapabilityAemAuthenticationSupported:
		return "AEM_AUTHENTICATION_SUPPORTED"
	case EntityCapabilityAemAuthenticationRequired:
		return "AEM_AUTHENTICATION_REQUIRED"
	case EntityCapabilityAemPersistentAcquireSupported:
		return "AEM_PERSISTENT_ACQUIRE_SUPPORTED"
	case EntityCapabilityAemIdentifyControlIndexValid:
		return "AEM_IDENTIFY_CONTROL_INDEX_VALID"
	case EntityCapabilityAemInterfaceIndexValid:
		return "AEM_INTERFACE_INDEX_VALID"
	case EntityCapabilityGeneralControllerIgnore:
		return "GENERAL_CONTROLLER_IGNORE"
	case EntityCapabilityEntityNotReady:
		return "ENTITY_NOT_READY"
	default:
		return "UNKNOWN"
	}
}

// EntityCapabilities is the ADP entity_capabilities field.
type EntityCapabilities = Bitfield[EntityCapability]

// TalkerCapability is a bit of the ADP talker_capabilities field.
type TalkerCapability uint16

const (
	TalkerCapabilityImplemented      TalkerCapability = 1 << 0
	TalkerCapabilityOtherSource      TalkerCapability = 1 << 9
	TalkerCapabilityControlSource    TalkerCapability = 1 << 10
	TalkerCapabilityMediaClockSource TalkerCapability = 1 << 11
	TalkerCapabilitySmpteSource      TalkerCapability = 1 << 12
	TalkerCapabilityMidiSource       TalkerCapability = 1 << 13
	TalkerCapabilityAudioSource      TalkerCapability = 1 << 14
	TalkerCapabilityVideoSource      TalkerCapability = 1 << 15
)

// String returns the capability name.
func (c TalkerCapability) String() string {
	switch c {
	case TalkerCapabilityImplemented:
		return "IMPLEMENTED"
	case TalkerCapabilityOtherSource:
		return "OTHER_SOURCE"
	case TalkerCapabilityControlSource:
		return "CONTROL_SOURCE"
	case TalkerCapabilityMediaClockSource:
		return "MEDIA_CLOCK_SOURCE"
	case TalkerCapabilitySmpteSource:
		return "SMPTE_SOURCE"
	case TalkerCapabilityMidiSource:
		return "MIDI_SOURCE"
	case TalkerCapabilityAudioSource:
		return "AUDIO_SOURCE"
	case TalkerCapabilityVideoSource:
		return "VIDEO_SOURCE"
	default:
		return "UNKNOWN"
	}
}

// TalkerCapabilities is the ADP talker_capabilities field.
type TalkerCapabilities = Bitfield[TalkerCapability]

// ListenerCapability is a bit of the ADP listener_capabilities field.
type ListenerCapability uint16

const (
	ListenerCapabilityImplemented    ListenerCapability = 1 << 0
	ListenerCapabilityOtherSink      ListenerCapability = 1 << 9
	ListenerCapabilityControlSink    ListenerCapability = 1 << 10
	ListenerCapabilityMediaClockSink ListenerCapability = 1 << 11
	ListenerCapabilitySmpteSink      ListenerCapability = 1 << 12
	ListenerCapabilityMidiSink       ListenerCapability = 1 << 13
	ListenerCapabilityAudioSink      ListenerCapability = 1 << 14
	ListenerCapabilityVideoSink      ListenerCapability = 1 << 15
)

// String returns the capability name.
func (c ListenerCapability) String() string {
	switch c {
	case ListenerCapabilityImplemented:
		return "IMPLEMENTED"
	case ListenerCapabilityOtherSink:
		return "OTHER_SINK"
	case ListenerCapabilityControlSink:
		return "CONTROL_SINK"
	case ListenerCapabilityMediaClockSink:
		return "MEDIA_CLOCK_SINK"
	case ListenerCapabilitySmpteSink:
		return "SMPTE_SINK"
	case ListenerCapabilityMidiSink:
		return "MIDI_SINK"
	case ListenerCapabilityAudioSink:
		return "AUDIO_SINK"
	case ListenerCapabilityVideoSink:
		return "VIDEO_SINK"
	default:
		return "UNKNOWN"
	}
}

// ListenerCapabilities is the ADP listener_capabilities field.
type ListenerCapabilities = Bitfield[ListenerCapability]

// ControllerCapability is a bit of the ADP controller_capabilities field.
type ControllerCapability uint32

const (
	ControllerCapabilityImplemented ControllerCapability = 1 << 0
)

// String returns the capability name.
func (c ControllerCapability) String() string {
	if c == ControllerCapabilityImplemented {
		return "IMPLEMENTED"
	}
	return "UNKNOWN"
}

// ControllerCapabilities is the ADP controller_capabilities field.
type ControllerCapabilities = Bitfield[ControllerCapability]

// ConnectionFlag is a bit of the ACMP flags field.
type ConnectionFlag uint16

const (
	ConnectionFlagClassB            ConnectionFlag = 1 << 0
	ConnectionFlagFastConnect       ConnectionFlag = 1 << 1
	ConnectionFlagSavedState        ConnectionFlag = 1 << 2
	ConnectionFlagStreamingWait     ConnectionFlag = 1 << 3
	ConnectionFlagSupportsEncrypted ConnectionFlag = 1 << 4
	ConnectionFlagEncryptedPdu      ConnectionFlag = 1 << 5
	ConnectionFlagTalkerFailed      ConnectionFlag = 1 << 6
)

// String returns the flag name.
func (f ConnectionFlag) String() string {
	switch f {
	case ConnectionFlagClassB:
		return "CLASS_B"
	case ConnectionFlagFastConnect:
		return "FAST_CONNECT"
	case ConnectionFlagSavedState:
		return "SAVED_STATE"
	case ConnectionFlagStreamingWait:
		return "STREAMING_WAIT"
	case ConnectionFlagSupportsEncrypted:
		return "SUPPORTS_ENCRYPTED"
	case ConnectionFlagEncryptedPdu:
		return "ENCRYPTED_PDU"
	case ConnectionFlagTalkerFailed:
		return "TALKER_FAILED"
	default:
		return "UNKNOWN"
	}
}

// ConnectionFlags is the ACMP flags field.
type ConnectionFlags = Bitfield[ConnectionFlag]
