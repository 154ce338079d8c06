// Package status defines the error taxonomy of the protocol interface and
// the command-level statuses reported to command issuers.
//
// Interface errors are values of type Error. They are comparable, so
// callers test them with errors.Is even when wrapped:
//
//	if errors.Is(err, status.ErrTimeout) { ... }
//
// Command statuses (AemCommandStatus, MvuCommandStatus, ControlStatus)
// carry the protocol status codes one-to-one plus a disjoint library range
// (995-999) for failures that never reached the remote entity.
package status

import (
	"errors"
	"fmt"
)

// Error is a protocol interface error code.
type Error uint8

const (
	ErrTransportError Error = iota + 1
	ErrTimeout
	ErrUnknownRemoteEntity
	ErrUnknownLocalEntity
	ErrInvalidEntityType
	ErrDuplicateLocalEntityID
	ErrInterfaceNotFound
	ErrInterfaceInvalid
	ErrMessageNotSupported
	ErrExecutorNotInitialized
	ErrInvalidParameters
	ErrInternalError
	ErrInterfaceShutdown
)

// Error implements the error interface.
func (e Error) Error() string {
	switch e {
	case ErrTransportError:
		return "transport error"
	case ErrTimeout:
		return "timeout"
	case ErrUnknownRemoteEntity:
		return "unknown remote entity"
	case ErrUnknownLocalEntity:
		return "unknown local entity"
	case ErrInvalidEntityType:
		return "invalid entity type"
	case ErrDuplicateLocalEntityID:
		return "duplicate local entity ID"
	case ErrInterfaceNotFound:
		return "interface not found"
	case ErrInterfaceInvalid:
		return "interface invalid"
	case ErrMessageNotSupported:
		return "message not supported"
	case ErrExecutorNotInitialized:
		return "executor not initialized"
	case ErrInvalidParameters:
		return "invalid parameters"
	case ErrInternalError:
		return "internal error"
	case ErrInterfaceShutdown:
		return "interface shut down"
	default:
		return fmt.Sprintf("error(%d)", uint8(e))
	}
}

// Code extracts the interface error code carried by err.
func Code(err error) (Error, bool) {
	var e Error
	if errors.As(err, &e) {
		return e, true
	}
	return 0, false
}

// libraryStatusFor maps an interface error to the library status range.
func libraryStatusFor(err error) uint16 {
	code, _ := Code(err)
	switch code {
	case ErrTransportError, ErrInterfaceShutdown:
		return libraryNetworkError
	case ErrTimeout:
		return libraryTimedOut
	case ErrUnknownRemoteEntity, ErrUnknownLocalEntity:
		return libraryUnknownEntity
	default:
		return libraryInternalError
	}
}

const (
	libraryNetworkError  uint16 = 995
	libraryProtocolError uint16 = 996
	libraryTimedOut      uint16 = 997
	libraryUnknownEntity uint16 = 998
	libraryInternalError uint16 = 999
)

func isLibrary(v uint16) bool {
	return v >= libraryNetworkError && v <= libraryInternalError
}

func libraryName(v uint16) string {
	switch v {
	case libraryNetworkError:
		return "NETWORK_ERROR"
	case libraryProtocolError:
		return "PROTOCOL_ERROR"
	case libraryTimedOut:
		return "TIMED_OUT"
	case libraryUnknownEntity:
		return "UNKNOWN_ENTITY"
	case libraryInternalError:
		return "INTERNAL_ERROR"
	default:
		return ""
	}
}
