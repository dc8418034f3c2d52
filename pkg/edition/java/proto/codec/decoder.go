package codec

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"go.minekube.com/cubes/pkg/edition/java/proto/state"
	"go.minekube.com/cubes/pkg/edition/java/proto/util"
	"go.minekube.com/cubes/pkg/edition/java/proto/version"
	"go.minekube.com/cubes/pkg/proto"
	"go.minekube.com/cubes/pkg/util/errs"
)

var (
	// ErrEmptyStream is returned when the stream ended or timed out before
	// the first byte of a packet. No packet is currently available.
	ErrEmptyStream = errors.New("empty stream")
	// ErrLengthDecode is returned when the length prefix of a packet
	// could not be decoded.
	ErrLengthDecode = errors.New("could not decode packet length")
)

// MaxPacketLength is the largest frame a 3 byte length prefix can carry.
const MaxPacketLength = util.MaxLengthPrefix

// partialReadBackoff is slept between reads returning no progress.
const partialReadBackoff = time.Millisecond

// Decoder is a synchronized packet decoder
// for the Minecraft Java edition.
type Decoder struct {
	log       logr.Logger
	hexDump   bool // for debugging
	direction proto.Direction

	mu       sync.Mutex // Protects following fields and locked while reading a packet.
	rd       byteReader
	registry *state.PacketRegistry
	protocol proto.Protocol
}

type byteReader interface {
	io.Reader
	io.ByteReader
}

// NewDecoder returns a decoder of packets bound to direction.
// r is read one byte at a time while decoding the length prefix,
// wrap it in a bufio.Reader for network streams.
func NewDecoder(r io.Reader, direction proto.Direction, log logr.Logger) *Decoder {
	return &Decoder{
		rd:        util.AsByteReader(r),
		direction: direction,
		registry:  state.Registry(state.HandshakeState, direction),
		protocol:  version.Minecraft_1_17_1.Protocol,
		log:       log.WithName("decoder"),
		hexDump:   os.Getenv("HEXDUMP") == "true",
	}
}

func (d *Decoder) SetState(s state.State) {
	d.mu.Lock()
	d.registry = state.Registry(s, d.direction)
	d.mu.Unlock()
}

func (d *Decoder) SetProtocol(protocol proto.Protocol) {
	d.mu.Lock()
	d.protocol = protocol
	d.mu.Unlock()
}

// ReadPacket reads the next packet from the underlying reader.
// It blocks other calls to ReadPacket until return.
//
// Packets registered in the current state are decoded into
// PacketContext.Packet. If such a decoder left bytes unread the context
// is returned together with proto.ErrDecoderLeftBytes.
func (d *Decoder) ReadPacket() (ctx *proto.PacketContext, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	payload, n, err := ReadFrame(d.rd)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, util.NewDecodeError("Packet", errors.New("empty packet has no packet id"))
	}
	ctx, err = d.decodePayload(payload)
	if ctx != nil {
		ctx.BytesRead = n
	}
	if d.log.Enabled() && ctx != nil { // check enabled for performance reason
		d.log.Info("decoded packet",
			"name", d.registry.PacketName(ctx.PacketID),
			"context", ctx.String())
		if d.hexDump {
			fmt.Println(hex.Dump(ctx.Payload))
		}
	}
	return ctx, err
}

// ReadFrame reads one length prefixed frame from r and returns its payload
// and the number of bytes read. The prefix is read one byte at a time so
// nothing past the frame is consumed.
//
// An end of stream or read timeout before the first byte is ErrEmptyStream,
// an end of stream within the prefix or a prefix longer than 3 bytes is
// ErrLengthDecode. Short payload reads are retried until the frame is complete.
func ReadFrame(r io.Reader) (payload []byte, n int, err error) {
	rd := util.AsByteReader(r)
	length, n, err := util.ReadVarIntFrom(rd, util.MaxLengthPrefixLen)
	if err != nil {
		switch {
		case n == 0:
			// Nothing of the next packet was consumed.
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrDeadlineExceeded) {
				return nil, 0, fmt.Errorf("%w: %w", ErrEmptyStream, err)
			}
			return nil, 0, err
		case errors.Is(err, io.ErrUnexpectedEOF):
			return nil, n, fmt.Errorf("%w: %w", ErrLengthDecode, err)
		default:
			var ne interface{ Timeout() bool }
			if errors.As(err, &ne) && ne.Timeout() {
				return nil, n, err
			}
			return nil, n, fmt.Errorf("%w: %w", ErrLengthDecode, errs.WrapSilent(err))
		}
	}

	payload = make([]byte, length)
	var read int
	for read < length {
		m, err := rd.Read(payload[read:])
		read += m
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, n + read, util.NewDecodeError("Packet",
				fmt.Errorf("read %d of %d payload bytes: %w", read, length, err))
		}
		if m == 0 {
			time.Sleep(partialReadBackoff)
		}
	}
	return payload, n + read, nil
}

// decodePayload splits p into packet id and data and decodes the
// data if the id is a known packet.
func (d *Decoder) decodePayload(p []byte) (ctx *proto.PacketContext, err error) {
	id, idLen, err := util.DecodeVarInt(p)
	if err != nil {
		return nil, err
	}
	ctx = &proto.PacketContext{
		Direction: d.direction,
		Protocol:  d.protocol,
		PacketID:  proto.PacketID(id),
		Payload:   p,
		Data:      p[idLen:],
	}

	pk := d.registry.CreatePacket(ctx.PacketID)
	if pk == nil {
		// Unknown in this state, handler code decodes it.
		return ctx, nil
	}
	data := bytes.NewReader(ctx.Data)
	if err = util.RecoverFunc(func() error {
		return pk.Decode(ctx, data)
	}); err != nil {
		return nil, errs.WrapSilent(fmt.Errorf("error decoding packet (type: %T, id: %s, protocol: %s, direction: %s): %w",
			pk, ctx.PacketID, ctx.Protocol, ctx.Direction, err))
	}
	ctx.Packet = pk
	if data.Len() != 0 {
		d.log.Info("packet decoder did not read all of packet's data",
			"ctx", ctx,
			"unreadBytes", data.Len())
		return ctx, proto.ErrDecoderLeftBytes
	}
	return ctx, nil
}
