package wire

import "fmt"

// AdpMessageType is the ADP message_type field.
type AdpMessageType uint8

const (
	AdpMessageTypeEntityAvailable AdpMessageType = 0
	AdpMessageTypeEntityDeparting AdpMessageType = 1
	AdpMessageTypeEntityDiscover  AdpMessageType = 2
)

// String returns the message type name.
func (t AdpMessageType) String() string {
	switch t {
	case AdpMessageTypeEntityAvailable:
		return "ENTITY_AVAILABLE"
	case AdpMessageTypeEntityDeparting:
		return "ENTITY_DEPARTING"
	case AdpMessageTypeEntityDiscover:
		return "ENTITY_DISCOVER"
	default:
		return fmt.Sprintf("ADP_MESSAGE(%d)", uint8(t))
	}
}

// AecpMessageType is the AECP message_type field.
// Commands are even, responses are odd.
type AecpMessageType uint8

const (
	AecpMessageTypeAemCommand            AecpMessageType = 0
	AecpMessageTypeAemResponse           AecpMessageType = 1
	AecpMessageTypeAddressAccessCommand  AecpMessageType = 2
	AecpMessageTypeAddressAccessResponse AecpMessageType = 3
	AecpMessageTypeAvcCommand            AecpMessageType = 4
	AecpMessageTypeAvcResponse           AecpMessageType = 5
	AecpMessageTypeVendorUniqueCommand   AecpMessageType = 6
	AecpMessageTypeVendorUniqueResponse  AecpMessageType = 7
	AecpMessageTypeHdcpAemCommand        AecpMessageType = 8
	AecpMessageTypeHdcpAemResponse       AecpMessageType = 9
	AecpMessageTypeExtendedCommand       AecpMessageType = 14
	AecpMessageTypeExtendedResponse      AecpMessageType = 15
)

// IsResponse reports whether t is a response message type.
func (t AecpMessageType) IsResponse() bool {
	return t&0x01 != 0
}

// Response returns the response type matching command type t.
func (t AecpMessageType) Response() AecpMessageType {
	return t | 0x01
}

// String returns the message type name.
func (t AecpMessageType) String() string {
	switch t {
	case AecpMessageTypeAemCommand:
		return "AEM_COMMAND"
	case AecpMessageTypeAemResponse:
		return "AEM_RESPONSE"
	case AecpMessageTypeAddressAccessCommand:
		return "ADDRESS_ACCESS_COMMAND"
	case AecpMessageTypeAddressAccessResponse:
		return "ADDRESS_ACCESS_RESPONSE"
	case AecpMessageTypeAvcCommand:
		return "AVC_COMMAND"
	case AecpMessageTypeAvcResponse:
		return "AVC_RESPONSE"
	case AecpMessageTypeVendorUniqueCommand:
		return "VENDOR_UNIQUE_COMMAND"
	case AecpMessageTypeVendorUniqueResponse:
		return "VENDOR_UNIQUE_RESPONSE"
	case AecpMessageTypeHdcpAemCommand:
		return "HDCP_AEM_COMMAND"
	case AecpMessageTypeHdcpAemResponse:
		return "HDCP_AEM_RESPONSE"
	case AecpMessageTypeExtendedCommand:
		return "EXTENDED_COMMAND"
	case AecpMessageTypeExtendedResponse:
		return "EXTENDED_RESPONSE"
	default:
		return fmt.Sprintf("AECP_MESSAGE(%d)", uint8(t))
	}
}

// AcmpMessageType is the ACMP message_type field.
// Each response is the command value plus one.
type AcmpMessageType uint8

const (
	AcmpMessageTypeConnectTxCommand        AcmpMessageType = 0
	AcmpMessageTypeConnectTxResponse       AcmpMessageType = 1
	AcmpMessageTypeDisconnectTxCommand     AcmpMessageType = 2
	AcmpMessageTypeDisconnectTxResponse    AcmpMessageType = 3
	AcmpMessageTypeGetTxStateCommand       AcmpMessageType = 4
	AcmpMessageTypeGetTxStateResponse      AcmpMessageType = 5
	AcmpMessageTypeConnectRxCommand        AcmpMessageType = 6
	AcmpMessageTypeConnectRxResponse       AcmpMessageType = 7
	AcmpMessageTypeDisconnectRxCommand     AcmpMessageType = 8
	AcmpMessageTypeDisconnectRxResponse    AcmpMessageType = 9
	AcmpMessageTypeGetRxStateCommand       AcmpMessageType = 10
	AcmpMessageTypeGetRxStateResponse      AcmpMessageType = 11
	AcmpMessageTypeGetTxConnectionCommand  AcmpMessageType = 12
	AcmpMessageTypeGetTxConnectionResponse AcmpMessageType = 13
)

// IsResponse reports whether t is a response message type.
func (t AcmpMessageType) IsResponse() bool {
	return t&0x01 != 0
}

// Response returns the response type matching command type t.
func (t AcmpMessageType) Response() AcmpMessageType {
	return t + 1
}

// TargetsListener reports whether commands of type t are addressed to the
// listener rather than the talker.
func (t AcmpMessageType) TargetsListener() bool {
	switch t &^ 0x01 {
	case AcmpMessageTypeConnectRxCommand, AcmpMessageTypeDisconnectRxCommand, AcmpMessageTypeGetRxStateCommand:
		return true
	default:
		return false
	}
}

// String returns the message type name.
func (t AcmpMessageType) String() string {
	switch t {
	case AcmpMessageTypeConnectTxCommand:
		return "CONNECT_TX_COMMAND"
	case AcmpMessageTypeConnectTxResponse:
		return "CONNECT_TX_RESPONSE"
	case AcmpMessageTypeDisconnectTxCommand:
		return "DISCONNECT_TX_COMMAND"
	case AcmpMessageTypeDisconnectTxResponse:
		return "DISCONNECT_TX_RESPONSE"
	case AcmpMessageTypeGetTxStateCommand:
		return "GET_TX_STATE_COMMAND"
	case AcmpMessageTypeGetTxStateResponse:
		return "GET_TX_STATE_RESPONSE"
	case AcmpMessageTypeConnectRxCommand:
		return "CONNECT_RX_COMMAND"
	case AcmpMessageTypeConnectRxResponse:
		return "CONNECT_RX_RESPONSE"
	case AcmpMessageTypeDisconnectRxCommand:
		return "DISCONNECT_RX_COMMAND"
	case AcmpMessageTypeDisconnectRxResponse:
		return "DISCONNECT_RX_RESPONSE"
	case AcmpMessageTypeGetRxStateCommand:
		return "GET_RX_STATE_COMMAND"
	case AcmpMessageTypeGetRxStateResponse:
		return "GET_RX_STATE_RESPONSE"
	case AcmpMessageTypeGetTxConnectionCommand:
		return "GET_TX_CONNECTION_COMMAND"
	case AcmpMessageTypeGetTxConnectionResponse:
		return "GET_TX_CONNECTION_RESPONSE"
	default:
		return fmt.Sprintf("ACMP_MESSAGE(%d)", uint8(t))
	}
}

// AemCommandType is the 15-bit AEM command_type field.
type AemCommandType uint16

const (
	AemCommandAcquireEntity                     AemCommandType = 0x0000
	AemCommandLockEntity                        AemCommandType = 0x0001
	AemCommandEntityAvailable                   AemCommandType = 0x0002
	AemCommandControllerAvailable               AemCommandType = 0x0003
	AemCommandReadDescriptor                    AemCommandType = 0x0004
	AemCommandWriteDescriptor                   AemCommandType = 0x0005
	AemCommandSetConfiguration                  AemCommandType = 0x0006
	AemCommandGetConfiguration                  AemCommandType = 0x0007
	AemCommandSetStreamFormat                   AemCommandType = 0x0008
	AemCommandGetStreamFormat                   AemCommandType = 0x0009
	AemCommandSetVideoFormat                    AemCommandType = 0x000a
	AemCommandGetVideoFormat                    AemCommandType = 0x000b
	AemCommandSetSensorFormat                   AemCommandType = 0x000c
	AemCommandGetSensorFormat                   AemCommandType = 0x000d
	AemCommandSetStreamInfo                     AemCommandType = 0x000e
	AemCommandGetStreamInfo                     AemCommandType = 0x000f
	AemCommandSetName                           AemCommandType = 0x0010
	AemCommandGetName                           AemCommandType = 0x0011
	AemCommandSetAssociationID                  AemCommandType = 0x0012
	AemCommandGetAssociationID                  AemCommandType = 0x0013
	AemCommandSetSamplingRate                   AemCommandType = 0x0014
	AemCommandGetSamplingRate                   AemCommandType = 0x0015
	AemCommandSetClockSource                    AemCommandType = 0x0016
	AemCommandGetClockSource                    AemCommandType = 0x0017
	AemCommandSetControl                        AemCommandType = 0x0018
	AemCommandGetControl                        AemCommandType = 0x0019
	AemCommandIncrementControl                  AemCommandType = 0x001a
	AemCommandDecrementControl                  AemCommandType = 0x001b
	AemCommandSetSignalSelector                 AemCommandType = 0x001c
	AemCommandGetSignalSelector                 AemCommandType = 0x001d
	AemCommandSetMixer                          AemCommandType = 0x001e
	AemCommandGetMixer                          AemCommandType = 0x001f
	AemCommandSetMatrix                         AemCommandType = 0x0020
	AemCommandGetMatrix                         AemCommandType = 0x0021
	AemCommandStartStreaming                    AemCommandType = 0x0022
	AemCommandStopStreaming                     AemCommandType = 0x0023
	AemCommandRegisterUnsolicitedNotification   AemCommandType = 0x0024
	AemCommandDeregisterUnsolicitedNotification AemCommandType = 0x0025
	AemCommandIdentifyNotification              AemCommandType = 0x0026
	AemCommandGetAvbInfo                        AemCommandType = 0x0027
	AemCommandGetAsPath                         AemCommandType = 0x0028
	AemCommandGetCounters                       AemCommandType = 0x0029
	AemCommandReboot                            AemCommandType = 0x002a
	AemCommandGetAudioMap                       AemCommandType = 0x002b
	AemCommandAddAudioMappings                  AemCommandType = 0x002c
	AemCommandRemoveAudioMappings               AemCommandType = 0x002d
	AemCommandGetVideoMap                       AemCommandType = 0x002e
	AemCommandAddVideoMappings                  AemCommandType = 0x002f
	AemCommandRemoveVideoMappings               AemCommandType = 0x0030
	AemCommandGetSensorMap                      AemCommandType = 0x0031
	AemCommandAddSensorMappings                 AemCommandType = 0x0032
	AemCommandRemoveSensorMappings              AemCommandType = 0x0033
	AemCommandStartOperation                    AemCommandType = 0x0034
	AemCommandAbortOperation                    AemCommandType = 0x0035
	AemCommandOperationStatus                   AemCommandType = 0x0036
	AemCommandAuthAddKey                        AemCommandType = 0x0037
	AemCommandAuthDeleteKey                     AemCommandType = 0x0038
	AemCommandAuthGetKeyList                    AemCommandType = 0x0039
	AemCommandAuthGetKey                        AemCommandType = 0x003a
	AemCommandAuthAddKeyToChain                 AemCommandType = 0x003b
	AemCommandAuthDeleteKeyFromChain            AemCommandType = 0x003c
	AemCommandAuthGetKeychainList               AemCommandType = 0x003d
	AemCommandAuthGetIdentity                   AemCommandType = 0x003e
	AemCommandAuthAddToken                      AemCommandType = 0x003f
	AemCommandAuthDeleteToken                   AemCommandType = 0x0040
	AemCommandAuthenticate                      AemCommandType = 0x0041
	AemCommandDeauthenticate                    AemCommandType = 0x0042
	AemCommandEnableTransportSecurity           AemCommandType = 0x0043
	AemCommandDisableTransportSecurity          AemCommandType = 0x0044
	AemCommandEnableStreamEncryption            AemCommandType = 0x0045
	AemCommandDisableStreamEncryption           AemCommandType = 0x0046
	AemCommandSetMemoryObjectLength             AemCommandType = 0x0047
	AemCommandGetMemoryObjectLength             AemCommandType = 0x0048
	AemCommandSetStreamBackup                   AemCommandType = 0x0049
	AemCommandGetStreamBackup                   AemCommandType = 0x004a
	AemCommandExpansion                         AemCommandType = 0x7fff
)

var aemCommandNames = map[AemCommandType]string{
	AemCommandAcquireEntity:                     "ACQUIRE_ENTITY",
	AemCommandLockEntity:                        "LOCK_ENTITY",
	AemCommandEntityAvailable:                   "ENTITY_AVAILABLE",
	AemCommandControllerAvailable:               "CONTROLLER_AVAILABLE",
	AemCommandReadDescriptor:                    "READ_DESCRIPTOR",
	AemCommandWriteDescriptor:                   "WRITE_DESCRIPTOR",
	AemCommandSetConfiguration:                  "SET_CONFIGURATION",
	AemCommandGetConfiguration:                  "GET_CONFIGURATION",
	AemCommandSetStreamFormat:                   "SET_STREAM_FORMAT",
	AemCommandGetStreamFormat:                   "GET_STREAM_FORMAT",
	AemCommandSetVideoFormat:                    "SET_VIDEO_FORMAT",
	AemCommandGetVideoFormat:                    "GET_VIDEO_FORMAT",
	AemCommandSetSensorFormat:                   "SET_SENSOR_FORMAT",
	AemCommandGetSensorFormat:                   "GET_SENSOR_FORMAT",
	AemCommandSetStreamInfo:                     "SET_STREAM_INFO",
	AemCommandGetStreamInfo:                     "GET_STREAM_INFO",
	AemCommandSetName:                           "SET_NAME",
	AemCommandGetName:                           "GET_NAME",
	AemCommandSetAssociationID:                  "SET_ASSOCIATION_ID",
	AemCommandGetAssociationID:                  "GET_ASSOCIATION_ID",
	AemCommandSetSamplingRate:                   "SET_SAMPLING_RATE",
	AemCommandGetSamplingRate:                   "GET_SAMPLING_RATE",
	AemCommandSetClockSource:                    "SET_CLOCK_SOURCE",
	AemCommandGetClockSource:                    "GET_CLOCK_SOURCE",
	AemCommandSetControl:                        "SET_CONTROL",
	AemCommandGetControl:                        "GET_CONTROL",
	AemCommandIncrementControl:                  "INCREMENT_CONTROL",
	AemCommandDecrementControl:                  "DECREMENT_CONTROL",
	AemCommandSetSignalSelector:                 "SET_SIGNAL_SELECTOR",
	AemCommandGetSignalSelector:                 "GET_SIGNAL_SELECTOR",
	AemCommandSetMixer:                          "SET_MIXER",
	AemCommandGetMixer:                          "GET_MIXER",
	AemCommandSetMatrix:                         "SET_MATRIX",
	AemCommandGetMatrix:                         "GET_MATRIX",
	AemCommandStartStreaming:                    "START_STREAMING",
	AemCommandStopStreaming:                     "STOP_STREAMING",
	AemCommandRegisterUnsolicitedNotification:   "REGISTER_UNSOLICITED_NOTIFICATION",
	AemCommandDeregisterUnsolicitedNotification: "DEREGISTER_UNSOLICITED_NOTIFICATION",
	AemCommandIdentifyNotification:              "IDENTIFY_NOTIFICATION",
	AemCommandGetAvbInfo:                        "GET_AVB_INFO",
	AemCommandGetAsPath:                         "GET_AS_PATH",
	AemCommandGetCounters:                       "GET_COUNTERS",
	AemCommandReboot:                            "REBOOT",
	AemCommandGetAudioMap:                       "GET_AUDIO_MAP",
	AemCommandAddAudioMappings:                  "ADD_AUDIO_MAPPINGS",
	AemCommandRemoveAudioMappings:               "REMOVE_AUDIO_MAPPINGS",
	AemCommandGetVideoMap:                       "GET_VIDEO_MAP",
	AemCommandAddVideoMappings:                  "ADD_VIDEO_MAPPINGS",
	AemCommandRemoveVideoMappings:               "REMOVE_VIDEO_MAPPINGS",
	AemCommandGetSensorMap:                      "GET_SENSOR_MAP",
	AemCommandAddSensorMappings:                 "ADD_SENSOR_MAPPINGS",
	AemCommandRemoveSensorMappings:              "REMOVE_SENSOR_MAPPINGS",
	AemCommandStartOperation:                    "START_OPERATION",
	AemCommandAbortOperation:                    "ABORT_OPERATION",
	AemCommandOperationStatus:                   "OPERATION_STATUS",
	AemCommandAuthAddKey:                        "AUTH_ADD_KEY",
	AemCommandAuthDeleteKey:                     "AUTH_DELETE_KEY",
	AemCommandAuthGetKeyList:                    "AUTH_GET_KEY_LIST",
	AemCommandAuthGetKey:                        "AUTH_GET_KEY",
	AemCommandAuthAddKeyToChain:                 "AUTH_ADD_KEY_TO_CHAIN",
	AemCommandAuthDeleteKeyFromChain:            "AUTH_DELETE_KEY_FROM_CHAIN",
	AemCommandAuthGetKeychainList:               "AUTH_GET_KEYCHAIN_LIST",
	AemCommandAuthGetIdentity:                   "AUTH_GET_IDENTITY",
	AemCommandAuthAddToken:                      "AUTH_ADD_TOKEN",
	AemCommandAuthDeleteToken:                   "AUTH_DELETE_TOKEN",
	AemCommandAuthenticate:                      "AUTHENTICATE",
	AemCommandDeauthenticate:                    "DEAUTHENTICATE",
	AemCommandEnableTransportSecurity:           "ENABLE_TRANSPORT_SECURITY",
	AemCommandDisableTransportSecurity:          "DISABLE_TRANSPORT_SECURITY",
	AemCommandEnableStreamEncryption:            "ENABLE_STREAM_ENCRYPTION",
	AemCommandDisableStreamEncryption:           "DISABLE_STREAM_ENCRYPTION",
	AemCommandSetMemoryObjectLength:             "SET_MEMORY_OBJECT_LENGTH",
	AemCommandGetMemoryObjectLength:             "GET_MEMORY_OBJECT_LENGTH",
	AemCommandSetStreamBackup:                   "SET_STREAM_BACKUP",
	AemCommandGetStreamBackup:                   "GET_STREAM_BACKUP",
	AemCommandExpansion:                         "EXPANSION",
}

// String returns the command name.
func (c AemCommandType) String() string {
	if name, ok := aemCommandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("AEM_COMMAND(0x%04x)", uint16(c))
}

// MilanVendorUniqueProtocolID identifies Milan MVU payloads: the Avnu
// OUI-36 00-1B-C5-0A-C followed by protocol 0x100.
const MilanVendorUniqueProtocolID uint64 = 0x001BC50AC100

// MvuCommandType is the 15-bit Milan vendor-unique command_type field.
type MvuCommandType uint16

const (
	MvuCommandGetMilanInfo               MvuCommandType = 0x0000
	MvuCommandSetSystemUniqueID          MvuCommandType = 0x0001
	MvuCommandGetSystemUniqueID          MvuCommandType = 0x0002
	MvuCommandSetMediaClockReferenceInfo MvuCommandType = 0x0003
	MvuCommandGetMediaClockReferenceInfo MvuCommandType = 0x0004
)

// String returns the command name.
func (c MvuCommandType) String() string {
	switch c {
	case MvuCommandGetMilanInfo:
		return "GET_MILAN_INFO"
	case MvuCommandSetSystemUniqueID:
		return "SET_SYSTEM_UNIQUE_ID"
	case MvuCommandGetSystemUniqueID:
		return "GET_SYSTEM_UNIQUE_ID"
	case MvuCommandSetMediaClockReferenceInfo:
		return "SET_MEDIA_CLOCK_REFERENCE_INFO"
	case MvuCommandGetMediaClockReferenceInfo:
		return "GET_MEDIA_CLOCK_REFERENCE_INFO"
	default:
		return fmt.Sprintf("MVU_COMMAND(0x%04x)", uint16(c))
	}
}

// DescriptorType is the AEM descriptor_type field.
type DescriptorType uint16

const (
	DescriptorEntity        DescriptorType = 0x0000
	DescriptorConfiguration DescriptorType = 0x0001
	DescriptorAudioUnit     DescriptorType = 0x0002
	DescriptorStreamInput   DescriptorType = 0x0005
	DescriptorStreamOutput  DescriptorType = 0x0006
	DescriptorJackInput     DescriptorType = 0x0007
	DescriptorJackOutput    DescriptorType = 0x0008
	DescriptorAvbInterface  DescriptorType = 0x0009
	DescriptorClockSource   DescriptorType = 0x000a
	DescriptorLocale        DescriptorType = 0x000c
	DescriptorStrings       DescriptorType = 0x000d
	DescriptorStreamPortIn  DescriptorType = 0x000e
	DescriptorStreamPortOut DescriptorType = 0x000f
	DescriptorAudioCluster  DescriptorType = 0x0014
	DescriptorAudioMap      DescriptorType = 0x0017
	DescriptorControl       DescriptorType = 0x001a
	DescriptorClockDomain   DescriptorType = 0x0024
	DescriptorInvalid       DescriptorType = 0xffff
)

var descriptorNames = map[DescriptorType]string{
	DescriptorEntity:        "ENTITY",
	DescriptorConfiguration: "CONFIGURATION",
	DescriptorAudioUnit:     "AUDIO_UNIT",
	DescriptorStreamInput:   "STREAM_INPUT",
	DescriptorStreamOutput:  "STREAM_OUTPUT",
	DescriptorJackInput:     "JACK_INPUT",
	DescriptorJackOutput:    "JACK_OUTPUT",
	DescriptorAvbInterface:  "AVB_INTERFACE",
	DescriptorClockSource:   "CLOCK_SOURCE",
	DescriptorLocale:        "LOCALE",
	DescriptorStrings:       "STRINGS",
	DescriptorStreamPortIn:  "STREAM_PORT_INPUT",
	DescriptorStreamPortOut: "STREAM_PORT_OUTPUT",
	DescriptorAudioCluster:  "AUDIO_CLUSTER",
	DescriptorAudioMap:      "AUDIO_MAP",
	DescriptorControl:       "CONTROL",
	DescriptorClockDomain:   "CLOCK_DOMAIN",
	DescriptorInvalid:       "INVALID",
}

// String returns the descriptor type name.
func (d DescriptorType) String() string {
	if name, ok := descriptorNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DESCRIPTOR(0x%04x)", uint16(d))
}
