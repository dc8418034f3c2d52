// Package server accepts Minecraft connections and dispatches their packets
// to handlers registered per connection state and packet id.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/pires/go-proxyproto"
	"github.com/robinbraemer/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"

	"go.minekube.com/cubes/pkg/edition/java/netmc"
	"go.minekube.com/cubes/pkg/edition/java/proto/util"
	"go.minekube.com/cubes/pkg/internal/addrquota"
	"go.minekube.com/cubes/pkg/internal/connwrap"
	"go.minekube.com/cubes/pkg/proto"
	"go.minekube.com/cubes/pkg/util/errs"
)

// Options are the settings of a Server.
type Options struct {
	// ReadTimeout is the max time to wait for the next packet of a connection.
	ReadTimeout time.Duration
	// ProcessTimeout is the max time a handler may take per packet.
	ProcessTimeout time.Duration
	// WriteTimeout is the max time to drain one write.
	WriteTimeout time.Duration
	// ShutdownTimeout bounds the graceful shutdown when the Serve context is canceled.
	ShutdownTimeout time.Duration
	// ProxyProtocol makes the listener expect HAProxy PROXY headers.
	ProxyProtocol bool
	// ConnectionQuota rejects connections of address blocks exceeding it. Optional.
	ConnectionQuota *addrquota.Quota
	// EventMgr receives the server's lifecycle events. Optional.
	EventMgr event.Manager
	// Interceptors observe every packet of every connection. Optional.
	Interceptors []netmc.PacketInterceptor
}

// Defaults used for zero Options fields.
const (
	DefaultReadTimeout     = 20 * time.Second
	DefaultProcessTimeout  = 10 * time.Second
	DefaultWriteTimeout    = 5 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Server dispatches the packets of accepted connections to handlers.
type Server struct {
	opts  Options
	event event.Manager

	mu        sync.Mutex // protects following fields
	started   bool
	handlers  map[handlerKey]Handler // read-only once started
	unhandled Handler
	listeners map[net.Listener]struct{}
	conns     map[*serverConn]struct{}

	inShutdown atomic.Bool
	connsWG    sync.WaitGroup // serveConn goroutines
	handlersWG sync.WaitGroup // handler invocations, may outlive their connection
}

// serverConn is a connection tracked by the server.
type serverConn struct {
	netmc.MinecraftConn
	raw  *connwrap.Conn
	busy atomic.Bool // handling a packet
}

// New returns a new Server.
func New(opts Options) *Server {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.ProcessTimeout <= 0 {
		opts.ProcessTimeout = DefaultProcessTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	mgr := opts.EventMgr
	if mgr == nil {
		mgr = event.Nop
	}
	return &Server{
		opts:      opts,
		event:     mgr,
		handlers:  map[handlerKey]Handler{},
		unhandled: HandlerFunc(logUnhandled),
		listeners: map[net.Listener]struct{}{},
		conns:     map[*serverConn]struct{}{},
	}
}

// Event returns the event manager the server fires its events to.
func (s *Server) Event() event.Manager { return s.event }

// ListenAndServe listens on the TCP address addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if s.inShutdown.Load() {
		return ErrServerClosed
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled or Shutdown is called.
//
// Canceling ctx shuts the server down gracefully within the ShutdownTimeout
// and returns the result of Shutdown. After Shutdown was called Serve returns
// ErrServerClosed. The logger is taken from ctx.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.opts.ProxyProtocol {
		ln = &proxyproto.Listener{Listener: ln, ReadHeaderTimeout: s.opts.ReadTimeout}
	}
	s.mu.Lock()
	if s.inShutdown.Load() {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	}
	s.started = true
	s.listeners[ln] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.listeners, ln)
		s.mu.Unlock()
		_ = ln.Close()
	}()

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	log := logr.FromContextOrDiscard(ctx).WithName("server")
	log.Info("listening for connections", "addr", ln.Addr().String())
	s.event.Fire(&ReadyEvent{addr: ln.Addr()})

	// Connections are not bound to ctx, canceling it shuts them down gracefully.
	connCtx := logr.NewContext(context.WithoutCancel(ctx), log)
	for {
		raw, err := ln.Accept()
		if err != nil {
			if s.inShutdown.Load() {
				return ErrServerClosed
			}
			if ctx.Err() != nil {
				log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
				defer cancel()
				return s.Shutdown(shutdownCtx)
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				log.V(1).Info("temporary accept error", "error", err)
				continue
			}
			return fmt.Errorf("error accepting new connection: %w", err)
		}

		if q := s.opts.ConnectionQuota; q != nil && q.Blocked(raw.RemoteAddr()) {
			_ = raw.Close()
			log.Info("connection exceeded rate limit", "remoteAddr", raw.RemoteAddr().String())
			continue
		}

		sc := &serverConn{raw: connwrap.New(raw)}
		sc.MinecraftConn = netmc.NewMinecraftConn(connCtx, sc.raw, netmc.ServerRole, netmc.Options{
			WriteTimeout: s.opts.WriteTimeout,
			Interceptors: s.opts.Interceptors,
		})
		if !s.trackConn(sc) {
			_ = sc.Close()
			return ErrServerClosed
		}
		go s.serveConn(sc)
	}
}

// trackConn adds sc unless the server is shutting down.
func (s *Server) trackConn(sc *serverConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inShutdown.Load() {
		return false
	}
	s.conns[sc] = struct{}{}
	s.connsWG.Add(1)
	return true
}

func (s *Server) untrackConn(sc *serverConn) {
	s.mu.Lock()
	delete(s.conns, sc)
	s.mu.Unlock()
	s.connsWG.Done()
}

// serveConn runs the receive loop of a connection until it is closed.
func (s *Server) serveConn(sc *serverConn) {
	defer s.untrackConn(sc)
	ctx := sc.Context()
	log := logr.FromContextOrDiscard(ctx)
	connsAccepted.Add(ctx, 1)
	log.V(1).Info("connection accepted")

	s.event.Fire(&ConnectionEvent{conn: sc.MinecraftConn})

	reason := s.receiveLoop(sc)
	if netmc.KnownDisconnect(sc.MinecraftConn) || errors.Is(reason, io.EOF) {
		_ = sc.Close()
	} else {
		_ = netmc.CloseUnknown(sc.MinecraftConn)
	}
	log.V(1).Info("connection ended", "reason", reason,
		"bytesRead", sc.raw.BytesRead(), "bytesWritten", sc.raw.BytesWritten())

	s.event.Fire(&DisconnectEvent{conn: sc.MinecraftConn, reason: reason})
}

// receiveLoop processes the packets of sc in order and returns why it stopped.
func (s *Server) receiveLoop(sc *serverConn) error {
	log := logr.FromContextOrDiscard(sc.Context())
	for {
		if s.inShutdown.Load() {
			return ErrServerClosed
		}

		readCtx, cancel := context.WithTimeout(sc.Context(), s.opts.ReadTimeout)
		pc, err := sc.WaitPacket(readCtx)
		timedOut := errors.Is(readCtx.Err(), context.DeadlineExceeded)
		cancel()
		if err != nil {
			switch {
			case netmc.Closed(sc):
				if s.inShutdown.Load() {
					return ErrServerClosed
				}
				return netmc.ErrClosedConn
			case errors.Is(err, io.EOF):
				return io.EOF
			case timedOut:
				log.V(1).Info("read timeout", "state", sc.State())
				s.event.Fire(&ReadTimeoutEvent{conn: sc.MinecraftConn})
				_ = sc.Close()
				return fmt.Errorf("read timeout after %s: %w", s.opts.ReadTimeout, err)
			}
			if errs.IsSilent(err) {
				log.V(1).Info("error reading packet, closing connection", "error", err)
			} else {
				log.Info("error reading packet, closing connection", "error", err)
			}
			return err
		}

		sc.busy.Store(true)
		if s.inShutdown.Load() {
			sc.busy.Store(false)
			return ErrServerClosed
		}
		err = s.dispatch(sc, pc)
		sc.busy.Store(false)
		if err != nil {
			return err
		}
	}
}

// dispatch runs the handler of pc under the process timeout.
// It returns a non-nil error only if the connection must end.
func (s *Server) dispatch(sc *serverConn, pc *proto.PacketContext) error {
	st := sc.State()
	h, registered := s.handler(st, pc.PacketID)

	ctx, span := tracer.Start(sc.Context(), "HandlePacket", trace.WithAttributes(
		attribute.String("packet.id", pc.PacketID.String()),
		attribute.String("conn.state", st.String()),
		attribute.Bool("packet.handled", registered),
	))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, s.opts.ProcessTimeout)
	defer cancel()
	packetsHandled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("state", st.String()),
		attribute.Bool("handled", registered),
	))

	done := make(chan error, 1)
	s.handlersWG.Add(1)
	go func() {
		defer s.handlersWG.Done()
		done <- invoke(ctx, h, sc.MinecraftConn, pc)
	}()

	finished, err := awaitHandler(ctx, done)
	if netmc.Closed(sc) {
		return netmc.ErrClosedConn
	}
	// A handler returning the expired ctx's error timed out as well.
	timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded) &&
		(!finished || errors.Is(err, context.DeadlineExceeded))
	if timedOut {
		span.SetStatus(codes.Error, "process timeout")
		logr.FromContextOrDiscard(ctx).Info("handler exceeded process timeout, closing connection",
			"state", st, "packetID", pc.PacketID, "timeout", s.opts.ProcessTimeout)
		s.event.Fire(&ProcessTimeoutEvent{conn: sc.MinecraftConn, packet: pc})
		_ = sc.Close()
		return fmt.Errorf("process timeout after %s: %w", s.opts.ProcessTimeout, ctx.Err())
	}
	if err == nil {
		return nil
	}

	var closeErr *CloseConnectionError
	if errors.As(err, &closeErr) {
		span.SetAttributes(attribute.String("close.reason", closeErr.Reason))
		_ = sc.CloseWithReason(closeErr.Reason)
		return closeErr
	}

	span.RecordError(err)
	log := logr.FromContextOrDiscard(ctx)
	var decodeErr *util.DecodeError
	if errors.As(err, &decodeErr) {
		log.V(1).Info("malformed packet, closing connection", "packetID", pc.PacketID, "error", err)
		return err
	}
	if netmc.Closed(sc) {
		return netmc.ErrClosedConn
	}
	if errs.IsSilent(err) {
		log.V(1).Info("handler error", "packetID", pc.PacketID, "error", err)
	} else {
		log.Error(err, "handler error", "state", st, "packetID", pc.PacketID)
	}
	return nil
}

// awaitHandler waits for the handler result or ctx to be done.
// A result that is ready when ctx is done still counts as finished.
func awaitHandler(ctx context.Context, done <-chan error) (finished bool, err error) {
	select {
	case err = <-done:
		return true, err
	case <-ctx.Done():
	}
	select {
	case err = <-done:
		return true, err
	default:
		return false, nil
	}
}

// invoke calls h and turns a panic into an error.
func invoke(ctx context.Context, h Handler, conn netmc.MinecraftConn, pc *proto.PacketContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered from handler panic: %v", r)
		}
	}()
	return h.HandlePacket(ctx, conn, pc)
}

// Shutdown stops accepting connections, closes idle connections and waits
// for connections processing a packet to finish. Connections still open when
// ctx is done are closed and ctx's error is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.inShutdown.Store(true)
	for ln := range s.listeners {
		_ = ln.Close()
	}
	for sc := range s.conns {
		if !sc.busy.Load() {
			_ = sc.Close()
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.connsWG.Wait()
		s.handlersWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		for sc := range s.conns {
			_ = netmc.CloseUnknown(sc.MinecraftConn)
		}
		s.mu.Unlock()
		return ctx.Err()
	}
}

// ConnCount returns the number of open connections.
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
