package wire

import "fmt"

// AecpStatus is the 5-bit status field of an AECPDU.
// Values 0 and 1 are common to every AECP message type; the rest depend
// on the message type.
type AecpStatus uint8

const (
	AecpStatusSuccess        AecpStatus = 0
	AecpStatusNotImplemented AecpStatus = 1
)

// AEM specific statuses.
const (
	AemStatusNoSuchDescriptor       AecpStatus = 2
	AemStatusEntityLocked           AecpStatus = 3
	AemStatusEntityAcquired         AecpStatus = 4
	AemStatusNotAuthenticated       AecpStatus = 5
	AemStatusAuthenticationDisabled AecpStatus = 6
	AemStatusBadArguments           AecpStatus = 7
	AemStatusNoResources            AecpStatus = 8
	AemStatusInProgress             AecpStatus = 9
	AemStatusEntityMisbehaving      AecpStatus = 10
	AemStatusNotSupported           AecpStatus = 11
	AemStatusStreamIsRunning        AecpStatus = 12
)

// String returns the AEM name of the status.
func (s AecpStatus) String() string {
	switch s {
	case AecpStatusSuccess:
		return "SUCCESS"
	case AecpStatusNotImplemented:
		return "NOT_IMPLEMENTED"
	case AemStatusNoSuchDescriptor:
		return "NO_SUCH_DESCRIPTOR"
	case AemStatusEntityLocked:
		return "ENTITY_LOCKED"
	case AemStatusEntityAcquired:
		return "ENTITY_ACQUIRED"
	case AemStatusNotAuthenticated:
		return "NOT_AUTHENTICATED"
	case AemStatusAuthenticationDisabled:
		return "AUTHENTICATION_DISABLED"
	case AemStatusBadArguments:
		return "BAD_ARGUMENTS"
	case AemStatusNoResources:
		return "NO_RESOURCES"
	case AemStatusInProgress:
		return "IN_PROGRESS"
	case AemStatusEntityMisbehaving:
		return "ENTITY_MISBEHAVING"
	case AemStatusNotSupported:
		return "NOT_SUPPORTED"
	case AemStatusStreamIsRunning:
		return "STREAM_IS_RUNNING"
	default:
		return fmt.Sprintf("AECP_STATUS(%d)", uint8(s))
	}
}

// AcmpStatus is the 5-bit status field of an ACMPDU.
type AcmpStatus uint8

const (
	AcmpStatusSuccess                 AcmpStatus = 0
	AcmpStatusListenerUnknownID       AcmpStatus = 1
	AcmpStatusTalkerUnknownID         AcmpStatus = 2
	AcmpStatusTalkerDestMacFail       AcmpStatus = 3
	AcmpStatusTalkerNoStreamIndex     AcmpStatus = 4
	AcmpStatusTalkerNoBandwidth       AcmpStatus = 5
	AcmpStatusTalkerExclusive         AcmpStatus = 6
	AcmpStatusListenerTalkerTimeout   AcmpStatus = 7
	AcmpStatusListenerExclusive       AcmpStatus = 8
	AcmpStatusStateUnavailable        AcmpStatus = 9
	AcmpStatusNotConnected            AcmpStatus = 10
	AcmpStatusNoSuchConnection        AcmpStatus = 11
	AcmpStatusCouldNotSendMessage     AcmpStatus = 12
	AcmpStatusTalkerMisbehaving       AcmpStatus = 13
	AcmpStatusListenerMisbehaving     AcmpStatus = 14
	AcmpStatusControllerNotAuthorized AcmpStatus = 16
	AcmpStatusIncompatibleRequest     AcmpStatus = 17
	AcmpStatusNotSupported            AcmpStatus = 31
)

// String returns the status name.
func (s AcmpStatus) String() string {
	switch s {
	case AcmpStatusSuccess:
		return "SUCCESS"
	case AcmpStatusListenerUnknownID:
		return "LISTENER_UNKNOWN_ID"
	case AcmpStatusTalkerUnknownID:
		return "TALKER_UNKNOWN_ID"
	case AcmpStatusTalkerDestMacFail:
		return "TALKER_DEST_MAC_FAIL"
	case AcmpStatusTalkerNoStreamIndex:
		return "TALKER_NO_STREAM_INDEX"
	case AcmpStatusTalkerNoBandwidth:
		return "TALKER_NO_BANDWIDTH"
	case AcmpStatusTalkerExclusive:
		return "TALKER_EXCLUSIVE"
	case AcmpStatusListenerTalkerTimeout:
		return "LISTENER_TALKER_TIMEOUT"
	case AcmpStatusListenerExclusive:
		return "LISTENER_EXCLUSIVE"
	case AcmpStatusStateUnavailable:
		return "STATE_UNAVAILABLE"
	case AcmpStatusNotConnected:
		return "NOT_CONNECTED"
	case AcmpStatusNoSuchConnection:
		return "NO_SUCH_CONNECTION"
	case AcmpStatusCouldNotSendMessage:
		return "COULD_NOT_SEND_MESSAGE"
	case AcmpStatusTalkerMisbehaving:
		return "TALKER_MISBEHAVING"
	case AcmpStatusListenerMisbehaving:
		return "LISTENER_MISBEHAVING"
	case AcmpStatusControllerNotAuthorized:
		return "CONTROLLER_NOT_AUTHORIZED"
	case AcmpStatusIncompatibleRequest:
		return "INCOMPATIBLE_REQUEST"
	case AcmpStatusNotSupported:
		return "NOT_SUPPORTED"
	default:
		return fmt.Sprintf("ACMP_STATUS(%d)", uint8(s))
	}
}
