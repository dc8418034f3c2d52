package client

import (
	"fmt"

	"go.minekube.com/common/minecraft/component"

	"go.minekube.com/cubes/pkg/edition/java/proto/state"
	"go.minekube.com/cubes/pkg/proto"
	"go.minekube.com/cubes/pkg/util/componentutil"
)

// DisconnectedByServerError is returned when the server rejected the login.
type DisconnectedByServerError struct {
	Reason component.Component
}

func (e *DisconnectedByServerError) Error() string {
	return "disconnected by server: " + e.PlainReason()
}

// PlainReason returns the reason without formatting.
func (e *DisconnectedByServerError) PlainReason() string {
	if e.Reason == nil {
		return ""
	}
	s, err := componentutil.MarshalPlain(e.Reason)
	if err != nil {
		return fmt.Sprintf("%v", e.Reason)
	}
	return s
}

// InvalidPlayerNameError is returned when the server logged the client
// in with another name than requested.
type InvalidPlayerNameError struct {
	Requested, Got string
}

func (e *InvalidPlayerNameError) Error() string {
	return fmt.Sprintf("server returned player name %q, requested %q", e.Got, e.Requested)
}

// UnexpectedPacketError is returned when the server answered
// with a packet not expected in State.
type UnexpectedPacketError struct {
	State    state.State
	PacketID proto.PacketID
}

func (e *UnexpectedPacketError) Error() string {
	return fmt.Sprintf("unexpected packet %s in %s state", e.PacketID, e.State)
}
