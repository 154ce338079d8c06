package status

import (
	"fmt"

	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// AemCommandStatus is the outcome of an AEM command.
type AemCommandStatus uint16

const (
	AemSuccess                AemCommandStatus = 0
	AemNotImplemented         AemCommandStatus = 1
	AemNoSuchDescriptor       AemCommandStatus = 2
	AemLockedByOther          AemCommandStatus = 3
	AemAcquiredByOther        AemCommandStatus = 4
	AemNotAuthenticated       AemCommandStatus = 5
	AemAuthenticationDisabled AemCommandStatus = 6
	AemBadArguments           AemCommandStatus = 7
	AemNoResources            AemCommandStatus = 8
	AemInProgress             AemCommandStatus = 9
	AemEntityMisbehaving      AemCommandStatus = 10
	AemNotSupported           AemCommandStatus = 11
	AemStreamIsRunning        AemCommandStatus = 12

	AemNetworkError  AemCommandStatus = AemCommandStatus(libraryNetworkError)
	AemProtocolError AemCommandStatus = AemCommandStatus(libraryProtocolError)
	AemTimedOut      AemCommandStatus = AemCommandStatus(libraryTimedOut)
	AemUnknownEntity AemCommandStatus = AemCommandStatus(libraryUnknownEntity)
	AemInternalError AemCommandStatus = AemCommandStatus(libraryInternalError)
)

// IsLibraryStatus reports whether s was produced locally rather than by
// the remote entity.
func (s AemCommandStatus) IsLibraryStatus() bool {
	return isLibrary(uint16(s))
}

// String returns the status name.
func (s AemCommandStatus) String() string {
	if s.IsLibraryStatus() {
		return libraryName(uint16(s))
	}
	switch s {
	case AemLockedByOther:
		return "LOCKED_BY_OTHER"
	case AemAcquiredByOther:
		return "ACQUIRED_BY_OTHER"
	}
	if s <= AemStreamIsRunning {
		return wire.AecpStatus(s).String()
	}
	return fmt.Sprintf("AEM_STATUS(%d)", uint16(s))
}

// AemStatusFromResult folds an AECP completion into a single status.
func AemStatusFromResult(resp wire.Aecpdu, err error) AemCommandStatus {
	if err != nil {
		return AemCommandStatus(libraryStatusFor(err))
	}
	aem, ok := resp.(*wire.AemAecpdu)
	if !ok || aem == nil {
		return AemProtocolError
	}
	return AemCommandStatus(aem.Status)
}

// MvuCommandStatus is the outcome of a Milan vendor-unique command.
type MvuCommandStatus uint16

const (
	MvuSuccess           MvuCommandStatus = 0
	MvuNotImplemented    MvuCommandStatus = 1
	MvuNoSuchDescriptor  MvuCommandStatus = 2
	MvuBadArguments      MvuCommandStatus = 7
	MvuNoResources       MvuCommandStatus = 8
	MvuEntityMisbehaving MvuCommandStatus = 10
	MvuNotSupported      MvuCommandStatus = 11

	MvuNetworkError  MvuCommandStatus = MvuCommandStatus(libraryNetworkError)
	MvuProtocolError MvuCommandStatus = MvuCommandStatus(libraryProtocolError)
	MvuTimedOut      MvuCommandStatus = MvuCommandStatus(libraryTimedOut)
	MvuUnknownEntity MvuCommandStatus = MvuCommandStatus(libraryUnknownEntity)
	MvuInternalError MvuCommandStatus = MvuCommandStatus(libraryInternalError)
)

// IsLibraryStatus reports whether s was produced locally.
func (s MvuCommandStatus) IsLibraryStatus() bool {
	return isLibrary(uint16(s))
}

// String returns the status name.
func (s MvuCommandStatus) String() string {
	if s.IsLibraryStatus() {
		return libraryName(uint16(s))
	}
	if s <= 12 {
		return wire.AecpStatus(s).String()
	}
	return fmt.Sprintf("MVU_STATUS(%d)", uint16(s))
}

// MvuStatusFromResult folds an AECP completion into a single status.
func MvuStatusFromResult(resp wire.Aecpdu, err error) MvuCommandStatus {
	if err != nil {
		return MvuCommandStatus(libraryStatusFor(err))
	}
	mvu, ok := resp.(*wire.MvuAecpdu)
	if !ok || mvu == nil {
		return MvuProtocolError
	}
	return MvuCommandStatus(mvu.Status)
}

// ControlStatus is the outcome of an ACMP command.
type ControlStatus uint16

const (
	ControlSuccess                 ControlStatus = 0
	ControlListenerUnknownID       ControlStatus = 1
	ControlTalkerUnknownID         ControlStatus = 2
	ControlTalkerDestMacFail       ControlStatus = 3
	ControlTalkerNoStreamIndex     ControlStatus = 4
	ControlTalkerNoBandwidth       ControlStatus = 5
	ControlTalkerExclusive         ControlStatus = 6
	ControlListenerTalkerTimeout   ControlStatus = 7
	ControlListenerExclusive       ControlStatus = 8
	ControlStateUnavailable        ControlStatus = 9
	ControlNotConnected            ControlStatus = 10
	ControlNoSuchConnection        ControlStatus = 11
	ControlCouldNotSendMessage     ControlStatus = 12
	ControlTalkerMisbehaving       ControlStatus = 13
	ControlListenerMisbehaving     ControlStatus = 14
	ControlControllerNotAuthorized ControlStatus = 16
	ControlIncompatibleRequest     ControlStatus = 17
	ControlNotSupported            ControlStatus = 31

	ControlNetworkError  ControlStatus = ControlStatus(libraryNetworkError)
	ControlProtocolError ControlStatus = ControlStatus(libraryProtocolError)
	ControlTimedOut      ControlStatus = ControlStatus(libraryTimedOut)
	ControlUnknownEntity ControlStatus = ControlStatus(libraryUnknownEntity)
	ControlInternalError ControlStatus = ControlStatus(libraryInternalError)
)

// IsLibraryStatus reports whether s was produced locally.
func (s ControlStatus) IsLibraryStatus() bool {
	return isLibrary(uint16(s))
}

// String returns the status name.
func (s ControlStatus) String() string {
	if s.IsLibraryStatus() {
		return libraryName(uint16(s))
	}
	if s <= 31 {
		return wire.AcmpStatus(s).String()
	}
	return fmt.Sprintf("CONTROL_STATUS(%d)", uint16(s))
}

// ControlStatusFromResult folds an ACMP completion into a single status.
func ControlStatusFromResult(resp *wire.Acmpdu, err error) ControlStatus {
	if err != nil {
		return ControlStatus(libraryStatusFor(err))
	}
	if resp == nil {
		return ControlInternalError
	}
	return ControlStatus(resp.Status)
}
