package packet

import (
	"io"

	"go.minekube.com/cubes/pkg/edition/java/proto/util"
	"go.minekube.com/cubes/pkg/proto"
)

// HandshakeIntent is the state a client asks to switch to after the handshake.
type HandshakeIntent int

const (
	StatusHandshakeIntent   HandshakeIntent = 1
	LoginHandshakeIntent    HandshakeIntent = 2
	TransferHandshakeIntent HandshakeIntent = 3
)

// Handshake is the first packet a client sends.
type Handshake struct {
	ProtocolVersion int
	ServerAddress   string
	Port            uint16
	NextStatus      int
}

// maxServerAddressLen is the vanilla limit of the handshake host name.
const maxServerAddressLen = 255

// Intent returns the intent of the handshake.
func (h *Handshake) Intent() HandshakeIntent {
	return HandshakeIntent(h.NextStatus)
}

func (h *Handshake) Encode(_ *proto.PacketContext, wr io.Writer) (err error) {
	defer util.Recover(&err)
	w := util.PanicWriter(wr)
	w.VarInt(h.ProtocolVersion)
	w.String(h.ServerAddress)
	w.Uint16(h.Port)
	w.VarInt(h.NextStatus)
	return nil
}

func (h *Handshake) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	defer util.Recover(&err)
	r := util.PanicReader(rd)
	r.VarInt(&h.ProtocolVersion)
	r.StringMax(&h.ServerAddress, maxServerAddressLen)
	r.Uint16(&h.Port)
	r.VarInt(&h.NextStatus)
	return nil
}

var _ proto.Packet = (*Handshake)(nil)
