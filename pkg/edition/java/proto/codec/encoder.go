package codec

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-logr/logr"

	"go.minekube.com/cubes/pkg/edition/java/proto/state"
	"go.minekube.com/cubes/pkg/edition/java/proto/util"
	"go.minekube.com/cubes/pkg/edition/java/proto/version"
	"go.minekube.com/cubes/pkg/proto"
)

// Encoder is a synchronized packet encoder.
type Encoder struct {
	direction proto.Direction
	log       logr.Logger
	hexDump   bool // for debugging

	mu       sync.Mutex // Protects following fields
	wr       io.Writer  // the underlying writer to write successfully encoded packets to
	registry *state.PacketRegistry
	protocol proto.Protocol
}

// NewEncoder returns an encoder of packets bound to direction.
func NewEncoder(w io.Writer, direction proto.Direction, log logr.Logger) *Encoder {
	return &Encoder{
		log:       log.WithName("encoder"),
		hexDump:   os.Getenv("HEXDUMP") == "true",
		wr:        w,
		direction: direction,
		registry:  state.Registry(state.HandshakeState, direction),
		protocol:  version.Minecraft_1_17_1.Protocol,
	}
}

// Direction returns the encoder's direction.
func (e *Encoder) Direction() proto.Direction {
	return e.direction
}

// EncodePacket returns the payload (packet id + data) of packet
// using the packet id registered in the current state.
func (e *Encoder) EncodePacket(packet proto.Packet) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ctx, err := e.encodePacket(packet)
	if err != nil {
		return nil, err
	}
	return ctx.Payload, nil
}

func (e *Encoder) encodePacket(packet proto.Packet) (*proto.PacketContext, error) {
	packetID, found := e.registry.PacketID(packet)
	if !found {
		return nil, fmt.Errorf("packet id for type %T not registered in the %s %s state registry",
			packet, e.direction, e.registry.State)
	}

	buf := new(bytes.Buffer)
	_ = util.WriteVarInt(buf, int(packetID))

	ctx := &proto.PacketContext{
		Direction: e.direction,
		Protocol:  e.protocol,
		PacketID:  packetID,
		Packet:    packet,
	}
	if err := util.RecoverFunc(func() error {
		return packet.Encode(ctx, buf)
	}); err != nil {
		return nil, fmt.Errorf("error encoding packet %T: %w", packet, err)
	}
	ctx.Payload = buf.Bytes()
	ctx.Data = ctx.Payload[util.VarIntSize(int(packetID)):]

	if e.log.Enabled() { // check enabled for performance reason
		e.log.Info("encoded packet",
			"name", e.registry.PacketName(packetID),
			"context", ctx.String())
		if e.hexDump {
			fmt.Println(hex.Dump(ctx.Payload))
		}
	}
	return ctx, nil
}

// WritePacket encodes packet and writes it as one frame to the underlying writer.
func (e *Encoder) WritePacket(packet proto.Packet) (n int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ctx, err := e.encodePacket(packet)
	if err != nil {
		return 0, err
	}
	return e.writeFrames(ctx.Payload)
}

// Write frames payload and writes it to the underlying writer.
// The payload must start with the packet's id VarInt followed by the packet's data.
func (e *Encoder) Write(payload []byte) (n int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writeFrames(payload)
}

// WriteBatch frames every payload and writes all of them
// with a single write to the underlying writer.
func (e *Encoder) WriteBatch(payloads ...[]byte) (n int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writeFrames(payloads...)
}

// see https://wiki.vg/Protocol#Packet_format for details
func (e *Encoder) writeFrames(payloads ...[]byte) (int, error) {
	size := 0
	for _, p := range payloads {
		size += util.MaxLengthPrefixLen + len(p)
	}
	b := make([]byte, 0, size)
	for _, p := range payloads {
		var err error
		if b, err = AppendFrame(b, p); err != nil {
			return 0, err
		}
	}
	return e.wr.Write(b)
}

// AppendFrame appends the length prefixed frame of payload to b.
// Payloads longer than MaxPacketLength are rejected with a *util.DomainError.
func AppendFrame(b, payload []byte) ([]byte, error) {
	b, err := util.AppendLengthPrefix(b, len(payload))
	if err != nil {
		return b, err
	}
	return append(b, payload...), nil
}

func (e *Encoder) SetProtocol(protocol proto.Protocol) {
	e.mu.Lock()
	e.protocol = protocol
	e.mu.Unlock()
}

func (e *Encoder) SetState(s state.State) {
	e.mu.Lock()
	e.registry = state.Registry(s, e.direction)
	e.mu.Unlock()
}
