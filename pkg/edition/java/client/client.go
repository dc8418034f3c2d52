// Package client implements the client side of the login sequence.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/go-logr/logr"

	"go.minekube.com/cubes/pkg/edition/java/netmc"
	"go.minekube.com/cubes/pkg/edition/java/proto/packet"
	"go.minekube.com/cubes/pkg/edition/java/proto/state"
	"go.minekube.com/cubes/pkg/proto"
	"go.minekube.com/cubes/pkg/util/uuid"
	"go.minekube.com/cubes/pkg/util/validation"
)

// Dialer dials the server connection.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Option configures Connect.
type Option func(*options)

type options struct {
	dialer        Dialer
	connOptions   netmc.Options
	handshakeAddr string
}

// WithDialer sets the dialer used to open the connection.
// Defaults to a zero net.Dialer.
func WithDialer(d Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithConnOptions sets the options of the created connection.
func WithConnOptions(opts netmc.Options) Option {
	return func(o *options) { o.connOptions = opts }
}

// WithHandshakeAddr overrides the server address sent in the handshake.
// Defaults to the host part of the dialed address.
func WithHandshakeAddr(host string) Option {
	return func(o *options) { o.handshakeAddr = host }
}

// LoginSuccess is the server's answer to a successful login.
type LoginSuccess struct {
	UUID     uuid.UUID
	Username string
}

// Connect dials addr and logs in as playerName using protocol.
//
// It sends the handshake and login start packets in one write and evaluates
// exactly one response packet. On success the returned connection is in the
// play state. On any error the connection is closed.
func Connect(
	ctx context.Context,
	addr string,
	protocol proto.Protocol,
	playerName string,
	opts ...Option,
) (_ netmc.MinecraftConn, _ *LoginSuccess, err error) {
	if !validation.ValidPlayerName(playerName) {
		return nil, nil, fmt.Errorf("invalid player name %q: %s", playerName, validation.PlayerNameErrMsg)
	}
	o := &options{dialer: &net.Dialer{}}
	for _, opt := range opts {
		opt(o)
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid server address %q: %w", addr, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid server port %q: %w", portStr, err)
	}
	if o.handshakeAddr != "" {
		host = o.handshakeAddr
	}

	log := logr.FromContextOrDiscard(ctx).WithName("client")
	debug := log.V(1)
	debug.Info("connecting to server", "addr", addr)
	base, err := o.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("error connecting to server %s: %w", addr, err)
	}

	conn := netmc.NewMinecraftConn(logr.NewContext(context.Background(), log), base, netmc.ClientRole, o.connOptions)
	defer func() {
		if err != nil {
			_ = netmc.CloseUnknown(conn)
		}
	}()

	conn.SetProtocol(protocol)
	handshake, err := conn.EncodePacket(&packet.Handshake{
		ProtocolVersion: int(protocol),
		ServerAddress:   host,
		Port:            uint16(port),
		NextStatus:      int(packet.LoginHandshakeIntent),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error encoding handshake: %w", err)
	}
	// Switch after encoding the handshake, but before encoding ServerLogin.
	conn.SetState(state.LoginState)
	login, err := conn.EncodePacket(&packet.ServerLogin{Username: playerName})
	if err != nil {
		return nil, nil, fmt.Errorf("error encoding login start: %w", err)
	}
	if err = conn.WriteBatch(handshake, login); err != nil {
		return nil, nil, fmt.Errorf("error writing login packets: %w", err)
	}

	pc, err := conn.WaitPacket(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error waiting for login response: %w", err)
	}
	success, err := evalLoginResponse(pc, playerName)
	if err != nil {
		return nil, nil, err
	}

	conn.SetState(state.PlayState)
	debug.Info("logged in", "username", success.Username, "uuid", success.UUID)
	return conn, success, nil
}

func evalLoginResponse(pc *proto.PacketContext, requested string) (*LoginSuccess, error) {
	switch p := pc.Packet.(type) {
	case *packet.Disconnect:
		reason, err := p.Component()
		if err != nil {
			return nil, fmt.Errorf("error decoding disconnect reason %q: %w", p.Reason, err)
		}
		return nil, &DisconnectedByServerError{Reason: reason}
	case *packet.ServerLoginSuccess:
		if p.Username != requested {
			return nil, &InvalidPlayerNameError{Requested: requested, Got: p.Username}
		}
		return &LoginSuccess{UUID: p.UUID, Username: p.Username}, nil
	}
	return nil, &UnexpectedPacketError{State: state.LoginState, PacketID: pc.PacketID}
}

// IsProtocolError reports whether err is one of the typed errors of
// a rejected or failed login exchange.
func IsProtocolError(err error) bool {
	var (
		d *DisconnectedByServerError
		n *InvalidPlayerNameError
		u *UnexpectedPacketError
	)
	return errors.As(err, &d) || errors.As(err, &n) || errors.As(err, &u)
}
