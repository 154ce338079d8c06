package acmp

import (
	"github.com/avb-tools/avdecc-go/pkg/entity"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// NewCommand builds an ACMP command issued by controller.
func NewCommand(msgType wire.AcmpMessageType, controller uid.ID, talker, listener entity.StreamIdentification) *wire.Acmpdu {
	return &wire.Acmpdu{
		EtherLayer2:        wire.EtherLayer2{DestAddress: wire.AcmpMulticastAddress},
		MessageType:        msgType,
		ControllerEntityID: controller,
		TalkerEntityID:     talker.EntityID,
		TalkerUniqueID:     talker.StreamIndex,
		ListenerEntityID:   listener.EntityID,
		ListenerUniqueID:   listener.StreamIndex,
	}
}

// ConnectStream builds CONNECT_RX, asking listener to connect to talker.
func ConnectStream(controller uid.ID, talker, listener entity.StreamIdentification, flags wire.ConnectionFlags) *wire.Acmpdu {
	p := NewCommand(wire.AcmpMessageTypeConnectRxCommand, controller, talker, listener)
	p.Flags = flags
	return p
}

// DisconnectStream builds DISCONNECT_RX.
func DisconnectStream(controller uid.ID, talker, listener entity.StreamIdentification) *wire.Acmpdu {
	return NewCommand(wire.AcmpMessageTypeDisconnectRxCommand, controller, talker, listener)
}

// GetListenerStreamState builds GET_RX_STATE.
func GetListenerStreamState(controller uid.ID, listener entity.StreamIdentification) *wire.Acmpdu {
	return NewCommand(wire.AcmpMessageTypeGetRxStateCommand, controller, entity.StreamIdentification{}, listener)
}

// GetTalkerStreamState builds GET_TX_STATE.
func GetTalkerStreamState(controller uid.ID, talker entity.StreamIdentification) *wire.Acmpdu {
	return NewCommand(wire.AcmpMessageTypeGetTxStateCommand, controller, talker, entity.StreamIdentification{})
}

// GetTalkerStreamConnection builds GET_TX_CONNECTION for the connection
// at index of talker.
func GetTalkerStreamConnection(controller uid.ID, talker entity.StreamIdentification, index uint16) *wire.Acmpdu {
	p := NewCommand(wire.AcmpMessageTypeGetTxConnectionCommand, controller, talker, entity.StreamIdentification{})
	p.ConnectionCount = index
	return p
}

// Talker returns the talker stream a message refers to.
func Talker(p *wire.Acmpdu) entity.StreamIdentification {
	return entity.StreamIdentification{EntityID: p.TalkerEntityID, StreamIndex: p.TalkerUniqueID}
}

// Listener returns the listener stream a message refers to.
func Listener(p *wire.Acmpdu) entity.StreamIdentification {
	return entity.StreamIdentification{EntityID: p.ListenerEntityID, StreamIndex: p.ListenerUniqueID}
}
