package netmc

import (
	"bufio"
	"errors"
	"io"
	"net"

	"github.com/go-logr/logr"

	"go.minekube.com/cubes/pkg/edition/java/proto/codec"
	"go.minekube.com/cubes/pkg/proto"
)

// Reader is a packet reader.
type Reader interface {
	// ReadPacket reads the next packet from the connection.
	// It returns nil, nil if no packet is available.
	// Any other error leaves the connection in a broken state and it should be closed.
	ReadPacket() (*proto.PacketContext, error)
	// EOF reports whether the peer has closed its side of the stream.
	EOF() bool
	StateChanger
}

// NewReader returns a new packet reader.
func NewReader(conn net.Conn, direction proto.Direction, log logr.Logger) Reader {
	return &reader{
		log:     log.WithName("reader"),
		Decoder: codec.NewDecoder(bufio.NewReader(conn), direction, log.V(2)),
	}
}

type reader struct {
	log logr.Logger
	eof bool
	*codec.Decoder
}

func (r *reader) ReadPacket() (*proto.PacketContext, error) {
	packetCtx, err := r.Decoder.ReadPacket()
	if err != nil {
		switch {
		case errors.Is(err, codec.ErrEmptyStream):
			if errors.Is(err, io.EOF) {
				r.eof = true
			}
			return nil, nil
		case errors.Is(err, proto.ErrDecoderLeftBytes):
			// The known part was decoded, keep it.
			return packetCtx, nil
		}
		r.log.V(1).Info("error reading packet", "error", err)
		return nil, err
	}
	return packetCtx, nil
}

func (r *reader) EOF() bool { return r.eof }
