package entity

import (
	"fmt"

	"github.com/avb-tools/avdecc-go/pkg/status"
)

// LocalEntity is an entity hosted by this process. Its interfaces are
// advertised through the protocol interface it is registered with.
type LocalEntity struct {
	Entity
}

// NewLocalEntity validates and builds a local entity. Every interface
// needs a MAC address; ValidTime and AvailableIndex are managed by ADP.
func NewLocalEntity(common CommonInformation, interfaces ...InterfaceInformation) (*LocalEntity, error) {
	if !common.EntityID.IsValid() {
		return nil, fmt.Errorf("%w: entity ID %s", status.ErrInvalidParameters, common.EntityID)
	}
	if len(interfaces) == 0 {
		return nil, fmt.Errorf("%w: entity %s has no interface", status.ErrInvalidParameters, common.EntityID)
	}
	e := &LocalEntity{Entity: Entity{Common: common}}
	for _, info := range interfaces {
		if info.MacAddress.IsZero() {
			return nil, fmt.Errorf("%w: interface %d has no MAC address", status.ErrInvalidParameters, info.InterfaceIndex)
		}
		if _, dup := e.Interface(info.InterfaceIndex); dup {
			return nil, fmt.Errorf("%w: duplicate interface %d", status.ErrInvalidParameters, info.InterfaceIndex)
		}
		if info.ValidTime == 0 {
			info.ValidTime = MaxValidTime
		}
		e.SetInterface(info)
	}
	return e, nil
}
