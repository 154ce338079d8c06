package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avb-tools/avdecc-go/pkg/status"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

func newTestLocal(t *testing.T, id uint64, controller bool) *LocalEntity {
	t.Helper()
	common := CommonInformation{EntityID: uid.New(id)}
	if controller {
		common.ControllerCapabilities.Set(wire.ControllerCapabilityImplemented)
	}
	e, err := NewLocalEntity(common, InterfaceInformation{InterfaceIndex: 0, MacAddress: testMac})
	require.NoError(t, err)
	return e
}

func TestNewLocalEntityValidation(t *testing.T) {
	_, err := NewLocalEntity(CommonInformation{EntityID: uid.Null}, InterfaceInformation{MacAddress: testMac})
	assert.ErrorIs(t, err, status.ErrInvalidParameters)

	_, err = NewLocalEntity(CommonInformation{EntityID: uid.New(1)})
	assert.ErrorIs(t, err, status.ErrInvalidParameters)

	_, err = NewLocalEntity(CommonInformation{EntityID: uid.New(1)}, InterfaceInformation{})
	assert.ErrorIs(t, err, status.ErrInvalidParameters)

	_, err = NewLocalEntity(CommonInformation{EntityID: uid.New(1)},
		InterfaceInformation{InterfaceIndex: 1, MacAddress: testMac},
		InterfaceInformation{InterfaceIndex: 1, MacAddress: testMac})
	assert.ErrorIs(t, err, status.ErrInvalidParameters)

	e, err := NewLocalEntity(CommonInformation{EntityID: uid.New(1)}, InterfaceInformation{MacAddress: testMac})
	require.NoError(t, err)
	assert.Equal(t, MaxValidTime, e.Interfaces[0].ValidTime)
}

// TestRegisterDuplicate verifies that a second entity with the same ID is
// refused and the first one stays registered.
func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	first := newTestLocal(t, 0x42, true)

	_, err := r.Register(first)
	require.NoError(t, err)

	_, err = r.Register(newTestLocal(t, 0x42, false))
	assert.ErrorIs(t, err, status.ErrDuplicateLocalEntityID)

	got, ok := r.Resolve(uid.New(0x42))
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.Equal(t, 1, r.Len())
}

func TestUnregisterStaleHandle(t *testing.T) {
	r := NewRegistry()
	h, err := r.Register(newTestLocal(t, 1, false))
	require.NoError(t, err)

	_, err = r.Unregister(h)
	require.NoError(t, err)
	assert.False(t, r.IsLocal(uid.New(1)))

	_, err = r.Unregister(h)
	assert.ErrorIs(t, err, status.ErrUnknownLocalEntity)

	// The slot is reused, the old handle must not reach the new entity.
	_, err = r.Register(newTestLocal(t, 2, false))
	require.NoError(t, err)
	_, err = r.Get(h)
	assert.ErrorIs(t, err, status.ErrUnknownLocalEntity)
}

func TestControllers(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(newTestLocal(t, 1, true))
	require.NoError(t, err)
	_, err = r.Register(newTestLocal(t, 2, false))
	require.NoError(t, err)

	controllers := r.Controllers()
	require.Len(t, controllers, 1)
	assert.Equal(t, uid.New(1), controllers[0].ID())
	assert.Len(t, r.All(), 2)
	assert.True(t, r.IsLocalController(uid.New(1)))
	assert.False(t, r.IsLocalController(uid.New(2)))
	assert.False(t, r.IsLocalController(uid.New(3)))
}

func TestIssueDynamicEID(t *testing.T) {
	r := NewRegistry()

	first, err := r.IssueDynamicEID(testMac)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x001b920102030001), first.Value())

	second, err := r.IssueDynamicEID(testMac)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// A registered entity occupying the next candidate is skipped.
	_, err = r.Register(newTestLocal(t, 0x001b920102030003, false))
	require.NoError(t, err)
	third, err := r.IssueDynamicEID(testMac)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x001b920102030004), third.Value())

	_, err = r.IssueDynamicEID(wire.MacAddress{})
	assert.ErrorIs(t, err, status.ErrInvalidParameters)
}

// TestDynamicEIDReuseOnlyAfterRelease exhausts the suffix space and checks
// that a released ID is the only one handed out again.
func TestDynamicEIDReuseOnlyAfterRelease(t *testing.T) {
	r := NewRegistry()
	seen := make(map[uid.ID]struct{})
	for range maxDynamicSuffix {
		id, err := r.IssueDynamicEID(testMac)
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate %s", id)
		seen[id] = struct{}{}
	}

	_, err := r.IssueDynamicEID(testMac)
	require.ErrorIs(t, err, status.ErrInternalError)

	released := uid.New(0x001b920102030100)
	r.ReleaseDynamicEID(released)
	id, err := r.IssueDynamicEID(testMac)
	require.NoError(t, err)
	assert.Equal(t, released, id)
}
