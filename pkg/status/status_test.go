package status

import (
	"errors"
	"fmt"
	"testing"

	"github.com/avb-tools/avdecc-go/pkg/wire"
)

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("send acquire: %w", ErrTimeout)
	if !errors.Is(err, ErrTimeout) {
		t.Error("wrapped ErrTimeout not matched")
	}
	if errors.Is(err, ErrTransportError) {
		t.Error("unexpected match with ErrTransportError")
	}

	code, ok := Code(err)
	if !ok || code != ErrTimeout {
		t.Errorf("Code() = %v, %v", code, ok)
	}
	if _, ok := Code(errors.New("other")); ok {
		t.Error("Code() should fail for foreign errors")
	}
}

func TestAemStatusFromResult(t *testing.T) {
	success := &wire.AemAecpdu{AecpHeader: wire.AecpHeader{Status: wire.AecpStatusSuccess}}
	locked := &wire.AemAecpdu{AecpHeader: wire.AecpHeader{Status: wire.AemStatusEntityLocked}}
	mvu := &wire.MvuAecpdu{}

	tests := []struct {
		name string
		resp wire.Aecpdu
		err  error
		want AemCommandStatus
	}{
		{"success", success, nil, AemSuccess},
		{"protocol status", locked, nil, AemLockedByOther},
		{"timeout", nil, ErrTimeout, AemTimedOut},
		{"transport", nil, fmt.Errorf("x: %w", ErrTransportError), AemNetworkError},
		{"unknown remote", nil, ErrUnknownRemoteEntity, AemUnknownEntity},
		{"other", nil, ErrInvalidEntityType, AemInternalError},
		{"wrong kind", mvu, nil, AemProtocolError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AemStatusFromResult(tt.resp, tt.err); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestControlStatusFromResult(t *testing.T) {
	resp := &wire.Acmpdu{Status: wire.AcmpStatusListenerExclusive}
	if got := ControlStatusFromResult(resp, nil); got != ControlListenerExclusive {
		t.Errorf("got %s", got)
	}
	if got := ControlStatusFromResult(nil, ErrTimeout); got != ControlTimedOut {
		t.Errorf("got %s", got)
	}
}

func TestMvuStatusFromResult(t *testing.T) {
	resp := &wire.MvuAecpdu{AecpHeader: wire.AecpHeader{Status: wire.AecpStatusNotImplemented}}
	if got := MvuStatusFromResult(resp, nil); got != MvuNotImplemented {
		t.Errorf("got %s", got)
	}
	if got := MvuStatusFromResult(nil, ErrUnknownLocalEntity); got != MvuUnknownEntity {
		t.Errorf("got %s", got)
	}
}

func TestLibraryRange(t *testing.T) {
	if AemSuccess.IsLibraryStatus() || ControlNotSupported.IsLibraryStatus() {
		t.Error("protocol statuses must not be library statuses")
	}
	for _, s := range []ControlStatus{ControlNetworkError, ControlProtocolError, ControlTimedOut, ControlUnknownEntity, ControlInternalError} {
		if !s.IsLibraryStatus() {
			t.Errorf("%s should be a library status", s)
		}
	}
	if AemTimedOut.String() != "TIMED_OUT" {
		t.Errorf("String() = %q", AemTimedOut.String())
	}
	if ControlTalkerExclusive.String() != "TALKER_EXCLUSIVE" {
		t.Errorf("String() = %q", ControlTalkerExclusive.String())
	}
}
