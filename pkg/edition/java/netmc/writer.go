package netmc

import (
	"net"
	"time"

	"github.com/go-logr/logr"

	"go.minekube.com/cubes/pkg/edition/java/proto/codec"
	"go.minekube.com/cubes/pkg/proto"
)

// Writer is a packet writer. Every call writes its packets to the
// connection with a single write and returns after it was drained.
type Writer interface {
	// WritePacket writes a packet to the connection.
	WritePacket(packet proto.Packet) (n int, err error)
	// Write frames payload and writes it to the connection.
	// The payload must start with the packet's id VarInt and then the packet's data.
	Write(payload []byte) (n int, err error)
	// WriteBatch frames each payload and writes them with one write.
	WriteBatch(payloads ...[]byte) (n int, err error)
	// EncodePacket returns the payload of packet in the current state.
	EncodePacket(packet proto.Packet) ([]byte, error)

	StateChanger
	Direction() proto.Direction
}

// NewWriter returns a new packet writer.
func NewWriter(conn net.Conn, direction proto.Direction, writeTimeout time.Duration, log logr.Logger) Writer {
	return &writer{
		writeTimeout: writeTimeout,
		c:            conn,
		Encoder:      codec.NewEncoder(conn, direction, log.V(2)),
	}
}

type writer struct {
	writeTimeout time.Duration
	c            net.Conn // underlying connection
	*codec.Encoder
}

// deadline bounds the next write. Handles err in case the
// connection is already closed and can't write to.
func (w *writer) deadline() error {
	if w.writeTimeout <= 0 {
		return nil
	}
	return w.c.SetWriteDeadline(time.Now().Add(w.writeTimeout))
}

func (w *writer) WritePacket(packet proto.Packet) (int, error) {
	if err := w.deadline(); err != nil {
		return 0, err
	}
	return w.Encoder.WritePacket(packet)
}

func (w *writer) Write(payload []byte) (int, error) {
	if err := w.deadline(); err != nil {
		return 0, err
	}
	return w.Encoder.Write(payload)
}

func (w *writer) WriteBatch(payloads ...[]byte) (int, error) {
	if err := w.deadline(); err != nil {
		return 0, err
	}
	return w.Encoder.WriteBatch(payloads...)
}
