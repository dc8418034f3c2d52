// Package proto holds the edition agnostic packet model shared by the codec,
// connection and dispatcher layers.
package proto

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
)

// Packet represents a typed packet of the Minecraft protocol.
//
// It is the data layer of a packet and shall support multiple protocols
// by testing the Protocol contained in the passed PacketContext.
//
// The passed PacketContext is read-only and must not be modified.
type Packet interface {
	// Encode encodes the packet data into the writer.
	Encode(c *PacketContext, wr io.Writer) error
	// Decode expected data from a reader into the packet.
	Decode(c *PacketContext, rd io.Reader) (err error)
}

// ErrDecoderLeftBytes is returned when a packet decoder did not
// read all of the packet's data.
var ErrDecoderLeftBytes = errors.New("decoder did not read all bytes of packet")

// PacketWriter can write packets.
type PacketWriter interface {
	WritePacket(Packet) error
}

// PacketContext carries context information for a
// received packet or packet that is about to be sent.
type PacketContext struct {
	Direction Direction // The direction the packet is bound to.
	Protocol  Protocol  // The protocol version of the packet.
	PacketID  PacketID  // The ID of the packet, is always set.

	// Packet is the typed form of the packet. Received packets are only
	// decoded into one if the id is registered in the connection's current state.
	Packet Packet

	// The full frame payload of packet id + data.
	Payload []byte
	// Data is the part of Payload after the packet id.
	Data []byte

	// BytesRead is the number of bytes read from the stream including
	// the length prefix.
	BytesRead int
}

// KnownPacket reports whether Packet is set.
func (c *PacketContext) KnownPacket() bool {
	return c.Packet != nil
}

// Reader returns a new reader over the packet's data, positioned after the packet id.
func (c *PacketContext) Reader() *bytes.Reader {
	return bytes.NewReader(c.Data)
}

// Decode decodes the packet's data into p.
func (c *PacketContext) Decode(p Packet) error {
	return p.Decode(c, c.Reader())
}

// PacketID identifies a packet in a protocol version and connection state.
type PacketID int

// String implements fmt.Stringer.
func (id PacketID) String() string {
	return fmt.Sprintf("0x%02x", int(id))
}

// String implements fmt.Stringer.
func (c *PacketContext) String() string {
	return fmt.Sprintf("PacketContext:direction=%s,Protocol=%s,"+
		"PacketID=%s,PacketType=%s,Payloadlen=%d",
		c.Direction, c.Protocol, c.PacketID,
		reflect.TypeOf(c.Packet), len(c.Payload))
}

// Direction is the direction a packet is bound to.
//   - Receiving a packet from a client is ServerBound.
//   - Receiving a packet from a server is ClientBound.
//   - Sending a packet to a client is ClientBound.
//   - Sending a packet to a server is ServerBound.
type Direction uint8

// Available packet bound directions.
const (
	ClientBound Direction = iota // A packet is bound to a client.
	ServerBound                  // A packet is bound to a server.
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	switch d {
	case ServerBound:
		return "ServerBound"
	case ClientBound:
		return "ClientBound"
	}
	return "UnknownBound"
}

// Version is a named protocol version.
type Version struct {
	Protocol          // The protocol number of the version.
	Names    []string // The names in this protocol version (at least one).
}

// FirstName returns the user-friendly name of
// the version this protocol was introduced in.
func (v *Version) FirstName() string {
	if len(v.Names) == 0 {
		return ""
	}
	return v.Names[0]
}

// LastName returns the user-friendly name of
// the last version of this protocol.
func (v *Version) LastName() string {
	if len(v.Names) == 0 {
		return ""
	}
	return v.Names[len(v.Names)-1]
}

// String returns the user-friendly name of this protocol version.
// If this version has multiple names it returns {first}-{last} version.
func (v Version) String() string {
	if len(v.Names) > 1 {
		return fmt.Sprintf("%s-%s", v.FirstName(), v.LastName())
	}
	return v.FirstName()
}

// Protocol is a Minecraft edition agnostic protocol version id specified by Mojang.
type Protocol int

// String implements fmt.Stringer.
func (p Protocol) String() string {
	return strconv.Itoa(int(p))
}

// GreaterEqual is true when this Protocol is
// greater or equal then another Version's Protocol.
func (p Protocol) GreaterEqual(then *Version) bool {
	return p >= then.Protocol
}

// Lower is true when this Protocol is
// lower then another Version's Protocol.
func (p Protocol) Lower(then *Version) bool {
	return p < then.Protocol
}
