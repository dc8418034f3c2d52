package server

import (
	"net"

	"go.minekube.com/cubes/pkg/edition/java/netmc"
	"go.minekube.com/cubes/pkg/proto"
)

// ReadyEvent is fired once the server is listening.
type ReadyEvent struct {
	addr net.Addr
}

// Addr returns the address the server is listening on.
func (e *ReadyEvent) Addr() net.Addr { return e.addr }

// ConnectionEvent is fired when a client connected and passed the connection quota.
type ConnectionEvent struct {
	conn netmc.MinecraftConn
}

// Conn returns the new connection.
func (e *ConnectionEvent) Conn() netmc.MinecraftConn { return e.conn }

// ReadTimeoutEvent is fired when a client sent no packet within the read timeout.
// The connection is closed after all subscribers returned, subscribers may
// still write packets to it.
type ReadTimeoutEvent struct {
	conn netmc.MinecraftConn
}

// Conn returns the timed out connection.
func (e *ReadTimeoutEvent) Conn() netmc.MinecraftConn { return e.conn }

// ProcessTimeoutEvent is fired when a handler did not return within the process timeout.
// The connection is closed after all subscribers returned.
type ProcessTimeoutEvent struct {
	conn   netmc.MinecraftConn
	packet *proto.PacketContext
}

// Conn returns the connection.
func (e *ProcessTimeoutEvent) Conn() netmc.MinecraftConn { return e.conn }

// Packet returns the packet the handler was processing.
func (e *ProcessTimeoutEvent) Packet() *proto.PacketContext { return e.packet }

// DisconnectEvent is fired exactly once after a connection was closed.
type DisconnectEvent struct {
	conn   netmc.MinecraftConn
	reason error
}

// Conn returns the closed connection.
func (e *DisconnectEvent) Conn() netmc.MinecraftConn { return e.conn }

// Reason returns why the connection ended, io.EOF if the client closed it.
func (e *DisconnectEvent) Reason() error { return e.reason }
