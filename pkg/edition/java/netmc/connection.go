package netmc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/rs/xid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"

	"go.minekube.com/cubes/pkg/edition/java/proto/packet"
	"go.minekube.com/cubes/pkg/edition/java/proto/state"
	"go.minekube.com/cubes/pkg/edition/java/proto/util"
	"go.minekube.com/cubes/pkg/edition/java/proto/version"
	"go.minekube.com/cubes/pkg/proto"
	"go.minekube.com/cubes/pkg/util/errs"
)

// Role is the side of the protocol a connection plays.
type Role uint8

const (
	// ServerRole connections read server bound and write client bound packets.
	ServerRole Role = iota
	// ClientRole connections read client bound and write server bound packets.
	ClientRole
)

func (r Role) String() string {
	if r == ClientRole {
		return "client"
	}
	return "server"
}

// MinecraftConn is a Minecraft connection of a client or server.
// The connection is unusable after Close was called and must be recreated.
type MinecraftConn interface {
	// Context returns the context of the connection.
	// This Context is canceled on Close and can be used to attach more context values to a connection.
	Context() context.Context
	// ID returns the unique id of the connection used in logs.
	ID() xid.ID
	// Role returns whether this is the server or the client side of the connection.
	Role() Role
	// RemoteAddr returns the remote address of the connection.
	RemoteAddr() net.Addr
	// LocalAddr returns the local address of the connection.
	LocalAddr() net.Addr

	// State returns the current protocol phase of the connection.
	State() state.State
	// Protocol returns the protocol version of the connection.
	Protocol() proto.Protocol
	StateChanger

	// ReadPacket reads the next packet. It returns nil, nil if the stream
	// has no packet available.
	ReadPacket() (*proto.PacketContext, error)
	// WaitPacket blocks until the next packet arrived, ctx is done or the
	// peer closed the stream, in which case io.EOF is returned.
	WaitPacket(ctx context.Context) (*proto.PacketContext, error)
	PacketWriter

	// Close closes the connection. It is okay to call this method multiple
	// times, only the first call closes the underlying connection.
	Close() error
	// CloseWithReason sends a Disconnect with reason as chat text before
	// closing if this is the server side in the Login or Play state.
	// Otherwise it only closes.
	CloseWithReason(reason string) error
}

// PacketWriter is the interface for writing packets to the underlying connection.
// Every write is flushed before returning.
//
// The connection will be closed on any error encountered!
type PacketWriter interface {
	// WritePacket writes a packet registered in the connection's current state.
	WritePacket(p proto.Packet) (err error)
	// Write writes payload containing packet id + data.
	Write(payload []byte) (err error)
	// WriteBatch writes each payload as its own packet with a single write.
	WriteBatch(payloads ...[]byte) (err error)
	// EncodePacket returns the payload of p for use with WriteBatch.
	EncodePacket(p proto.Packet) ([]byte, error)
}

// StateChanger updates state of a connection.
type StateChanger interface {
	// SetProtocol switches the connection's protocol version.
	SetProtocol(proto.Protocol)
	// SetState switches the connection's state.
	SetState(state.State)
}

// Options are optional settings of a connection.
type Options struct {
	// WriteTimeout bounds every write. Zero means no timeout.
	WriteTimeout time.Duration
	// Interceptors observe every read and written packet in
	// addition to the telemetry interceptor.
	Interceptors []PacketInterceptor
}

// Closed returns true if the connection is closed.
func Closed(c interface{ Context() context.Context }) bool {
	return c.Context().Err() != nil
}

// ErrClosedConn indicates a connection is already closed.
var ErrClosedConn = errors.New("connection is closed")

// Read polling back-off bounds of WaitPacket.
const (
	minPollBackoff = time.Millisecond
	maxPollBackoff = 50 * time.Millisecond
)

var tracer = otel.Tracer("go.minekube.com/cubes/netmc")

// NewMinecraftConn returns a new MinecraftConn over base.
// The logger is taken from ctx.
func NewMinecraftConn(ctx context.Context, base net.Conn, role Role, opts Options) MinecraftConn {
	in := proto.ServerBound  // reads from a client are server bound
	out := proto.ClientBound // writes to a client are client bound
	if role == ClientRole {
		in, out = out, in
	}

	id := xid.New()
	log := logr.FromContextOrDiscard(ctx).WithName(role.String()).WithValues(
		"connID", id.String(), "remoteAddr", base.RemoteAddr().String())
	ctx = logr.NewContext(ctx, log)

	ctx, span := tracer.Start(ctx, "netmc.Conn",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("conn.id", id.String()),
			attribute.String("conn.role", role.String()),
			attribute.String("net.peer.addr", base.RemoteAddr().String()),
		))

	ctx, cancel := context.WithCancel(ctx)
	c := &minecraftConn{
		id:           id,
		role:         role,
		log:          log,
		c:            base,
		ctx:          ctx,
		cancelCtx:    cancel,
		span:         span,
		rd:           NewReader(base, in, log),
		wr:           NewWriter(base, out, opts.WriteTimeout, log),
		interceptors: append([]PacketInterceptor{NewTelemetryInterceptor(log)}, opts.Interceptors...),
		state:        state.HandshakeState,
		protocol:     version.Minecraft_1_17_1.Protocol,
	}
	return c
}

// minecraftConn is a Minecraft connection.
type minecraftConn struct {
	id   xid.ID
	role Role
	c    net.Conn    // underlying connection
	log  logr.Logger // connections own logger
	span trace.Span  // ended on close

	rdMu sync.Mutex // One reader at a time.
	rd   Reader
	wr   Writer

	interceptors []PacketInterceptor

	ctx             context.Context // is canceled when connection closed
	cancelCtx       context.CancelFunc
	closeOnce       sync.Once
	knownDisconnect atomic.Bool // Silences disconnect (any error is known)

	mu       sync.RWMutex // Protects following fields
	state    state.State
	protocol proto.Protocol
}

func (c *minecraftConn) Context() context.Context { return c.ctx }
func (c *minecraftConn) ID() xid.ID               { return c.id }
func (c *minecraftConn) Role() Role               { return c.role }
func (c *minecraftConn) RemoteAddr() net.Addr     { return c.c.RemoteAddr() }
func (c *minecraftConn) LocalAddr() net.Addr      { return c.c.LocalAddr() }

func (c *minecraftConn) ReadPacket() (*proto.PacketContext, error) {
	if Closed(c) {
		return nil, ErrClosedConn
	}
	c.rdMu.Lock()
	defer c.rdMu.Unlock()
	return c.readPacket()
}

func (c *minecraftConn) readPacket() (*proto.PacketContext, error) {
	pc, err := c.rd.ReadPacket()
	if err != nil || pc == nil {
		return nil, err
	}
	c.intercept(pc)
	return pc, nil
}

func (c *minecraftConn) WaitPacket(ctx context.Context) (*proto.PacketContext, error) {
	if Closed(c) {
		return nil, ErrClosedConn
	}
	c.rdMu.Lock()
	defer c.rdMu.Unlock()

	deadline, _ := ctx.Deadline() // zero means none
	if err := c.c.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	defer func() { _ = c.c.SetReadDeadline(time.Time{}) }()
	// Unblock a pending read when ctx is canceled before its deadline.
	stop := context.AfterFunc(ctx, func() { _ = c.c.SetReadDeadline(time.Unix(1, 0)) })
	defer stop()

	backoff := minPollBackoff
	for {
		pc, err := c.readPacket()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && isTimeout(err) {
				return nil, fmt.Errorf("%w: %w", ctxErr, err)
			}
			return nil, err
		}
		if pc != nil {
			return pc, nil
		}
		if c.rd.EOF() {
			return nil, io.EOF
		}
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-c.ctx.Done():
			timer.Stop()
			return nil, ErrClosedConn
		}
		backoff = min(backoff*2, maxPollBackoff)
	}
}

func isTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}

func (c *minecraftConn) intercept(pc *proto.PacketContext) {
	for _, i := range c.interceptors {
		i.InterceptPacket(c.ctx, pc)
	}
}

func (c *minecraftConn) EncodePacket(p proto.Packet) ([]byte, error) {
	return c.wr.EncodePacket(p)
}

func (c *minecraftConn) WritePacket(p proto.Packet) (err error) {
	if Closed(c) {
		return ErrClosedConn
	}
	defer func() { c.closeOnErr(err) }()
	if _, err = c.wr.WritePacket(p); err != nil {
		return err
	}
	if len(c.interceptors) != 0 {
		id, _ := state.PacketID(c.State(), c.wr.Direction(), p)
		c.intercept(&proto.PacketContext{
			Direction: c.wr.Direction(),
			Protocol:  c.Protocol(),
			PacketID:  id,
			Packet:    p,
		})
	}
	return nil
}

func (c *minecraftConn) Write(payload []byte) (err error) {
	return c.WriteBatch(payload)
}

func (c *minecraftConn) WriteBatch(payloads ...[]byte) (err error) {
	if Closed(c) {
		return ErrClosedConn
	}
	defer func() { c.closeOnErr(err) }()
	if _, err = c.wr.WriteBatch(payloads...); err != nil {
		return err
	}
	for _, p := range payloads {
		id, n, _ := util.DecodeVarInt(p)
		c.intercept(&proto.PacketContext{
			Direction: c.wr.Direction(),
			Protocol:  c.Protocol(),
			PacketID:  proto.PacketID(id),
			Payload:   p,
			Data:      p[n:],
		})
	}
	return nil
}

func (c *minecraftConn) closeOnErr(err error) {
	if err == nil {
		return
	}
	_ = c.closeKnown(false)
	if errors.Is(err, ErrClosedConn) {
		return // Don't log this error
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && errs.IsConnClosedErr(opErr.Err) {
		return // Don't log this error
	}
	c.log.V(1).Info("error writing packet, closing connection", "error", err)
}

func (c *minecraftConn) Close() error {
	return c.closeKnown(true)
}

func (c *minecraftConn) closeKnown(markKnown bool) (err error) {
	c.closeOnce.Do(func() {
		if markKnown {
			c.knownDisconnect.Store(true)
		}
		c.cancelCtx()
		err = c.c.Close()
		if !c.knownDisconnect.Load() {
			c.span.SetStatus(codes.Error, "unexpected disconnect")
		}
		c.span.End()
		c.log.V(1).Info("connection closed", "known", c.knownDisconnect.Load())
	})
	return err
}

func (c *minecraftConn) CloseWithReason(reason string) error {
	if c.role == ServerRole && reason != "" && !Closed(c) {
		switch c.State() {
		case state.LoginState, state.TransferState, state.PlayState:
			return CloseWith(c, packet.NewDisconnectText(reason))
		}
	}
	return c.Close()
}

// CloseWith closes the connection after writing the packet.
func CloseWith(c MinecraftConn, packet proto.Packet) (err error) {
	if Closed(c) {
		return nil
	}
	if mc, ok := c.(*minecraftConn); ok {
		mc.knownDisconnect.Store(true)
	}
	_ = c.WritePacket(packet)
	return c.Close()
}

// KnownDisconnect returns true if the connection was or will be expectedly closed.
func KnownDisconnect(c MinecraftConn) bool {
	if mc, ok := c.(*minecraftConn); ok {
		return mc.knownDisconnect.Load()
	}
	return false
}

// CloseUnknown closes the connection for an unexpected disconnect.
// Use MinecraftConn.Close to prevent logging of disconnects that are expected.
func CloseUnknown(c MinecraftConn) error {
	if mc, ok := c.(*minecraftConn); ok {
		return mc.closeKnown(false)
	}
	return c.Close()
}

func (c *minecraftConn) Protocol() proto.Protocol {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.protocol
}

func (c *minecraftConn) SetProtocol(protocol proto.Protocol) {
	c.mu.Lock()
	c.protocol = protocol
	c.rd.SetProtocol(protocol)
	c.wr.SetProtocol(protocol)
	c.mu.Unlock()
}

func (c *minecraftConn) State() state.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *minecraftConn) SetState(s state.State) {
	c.mu.Lock()
	c.state = s
	c.rd.SetState(s)
	c.wr.SetState(s)
	c.mu.Unlock()
	c.log.V(1).Info("switched state", "state", s)
}

// Conn exports the hidden underlying connection and can be retrieved with interface assertion.
func (c *minecraftConn) Conn() net.Conn {
	return c.c
}
