package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"go.minekube.com/cubes/pkg/edition/java/netmc"
	"go.minekube.com/cubes/pkg/edition/java/proto/state"
	"go.minekube.com/cubes/pkg/proto"
)

// Handler handles a packet received on a connection.
//
// The passed context is canceled when the server's process timeout expired
// or the connection was closed. Returning a *CloseConnectionError closes the
// connection with its reason. A *util.DecodeError also ends the connection.
// Any other error is logged and the connection keeps receiving packets.
type Handler interface {
	HandlePacket(ctx context.Context, conn netmc.MinecraftConn, pc *proto.PacketContext) error
}

// HandlerFunc is a function implementing Handler.
type HandlerFunc func(ctx context.Context, conn netmc.MinecraftConn, pc *proto.PacketContext) error

func (f HandlerFunc) HandlePacket(ctx context.Context, conn netmc.MinecraftConn, pc *proto.PacketContext) error {
	return f(ctx, conn, pc)
}

// handlerKey identifies a handler in the registry.
type handlerKey struct {
	state state.State
	id    proto.PacketID
}

// CloseConnectionError is returned by handlers to close the connection.
// A non-empty Reason is sent to the client if the connection's state
// has a disconnect packet.
type CloseConnectionError struct {
	Reason string
}

func (e *CloseConnectionError) Error() string {
	if e.Reason == "" {
		return "connection closed by handler"
	}
	return "connection closed by handler: " + e.Reason
}

// CloseConnection returns a *CloseConnectionError with reason.
func CloseConnection(reason string) error {
	return &CloseConnectionError{Reason: reason}
}

// DuplicateHandlerError is returned when registering a second
// handler for the same state and packet id.
type DuplicateHandlerError struct {
	State    state.State
	PacketID proto.PacketID
}

func (e *DuplicateHandlerError) Error() string {
	return fmt.Sprintf("handler for packet %s in %s state already registered", e.PacketID, e.State)
}

// ErrServerStarted is returned when changing handlers after Serve was called.
var ErrServerStarted = errors.New("server already started")

// ErrServerClosed is returned by Serve and ListenAndServe after Shutdown was called.
var ErrServerClosed = errors.New("server closed")

// Handle registers h for packet id in state s.
func (s *Server) Handle(st state.State, id proto.PacketID, h Handler) error {
	if h == nil {
		return errors.New("handler must not be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrServerStarted
	}
	key := handlerKey{state: st, id: id}
	if _, ok := s.handlers[key]; ok {
		return &DuplicateHandlerError{State: st, PacketID: id}
	}
	s.handlers[key] = h
	return nil
}

// HandleFunc registers fn for packet id in state s.
func (s *Server) HandleFunc(st state.State, id proto.PacketID, fn HandlerFunc) error {
	if fn == nil {
		return errors.New("handler must not be nil")
	}
	return s.Handle(st, id, fn)
}

// SetUnhandled replaces the handler of packets without a registered handler.
// The default one logs the packet at debug level.
func (s *Server) SetUnhandled(h Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrServerStarted
	}
	s.unhandled = h
	return nil
}

// handler returns the handler for the key. The registry is read-only once
// the server started so no locking is needed.
func (s *Server) handler(st state.State, id proto.PacketID) (Handler, bool) {
	h, ok := s.handlers[handlerKey{state: st, id: id}]
	if !ok {
		return s.unhandled, false
	}
	return h, true
}

func logUnhandled(ctx context.Context, conn netmc.MinecraftConn, pc *proto.PacketContext) error {
	logr.FromContextOrDiscard(ctx).V(1).Info("unhandled packet", "state", conn.State(), "packetID", pc.PacketID, "size", len(pc.Data))
	return nil
}
