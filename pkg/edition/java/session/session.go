// Package session contains the packet handlers of an offline mode server
// answering server list pings and logging players in.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"github.com/jellydator/ttlcache/v3"
	"github.com/robinbraemer/event"
	"go.minekube.com/common/minecraft/component"
	"go.uber.org/atomic"

	"go.minekube.com/cubes/pkg/edition/java/config"
	"go.minekube.com/cubes/pkg/edition/java/netmc"
	"go.minekube.com/cubes/pkg/edition/java/ping"
	"go.minekube.com/cubes/pkg/edition/java/proto/packet"
	"go.minekube.com/cubes/pkg/edition/java/proto/state"
	"go.minekube.com/cubes/pkg/edition/java/proto/version"
	"go.minekube.com/cubes/pkg/edition/java/server"
	"go.minekube.com/cubes/pkg/internal/cachutil"
	"go.minekube.com/cubes/pkg/proto"
	"go.minekube.com/cubes/pkg/util/componentutil"
	"go.minekube.com/cubes/pkg/util/uuid"
	"go.minekube.com/cubes/pkg/util/validation"
)

// LegacyPingID is the first byte sent by pre-netty clients pinging the server.
const LegacyPingID proto.PacketID = 0xFE

// statusCacheTTL is how long a built status response is reused.
const statusCacheTTL = 2 * time.Second

// Handlers answers handshakes, status requests and offline mode logins.
type Handlers struct {
	cfg *config.Config

	online      atomic.Int32 // connections in play state
	statusCache *ttlcache.Cache[proto.Protocol, string]
	loadStatus  cachutil.LoadFunc[proto.Protocol, string]
}

// New returns the handlers for cfg.
func New(cfg *config.Config) *Handlers {
	h := &Handlers{cfg: cfg}
	h.loadStatus = h.buildStatus
	h.statusCache = ttlcache.New[proto.Protocol, string](
		ttlcache.WithLoader[proto.Protocol, string](cachutil.NewLoader(statusCacheTTL, h.loadStatus)),
		ttlcache.WithDisableTouchOnHit[proto.Protocol, string](),
	)
	return h
}

// Register registers the handlers with s and subscribes to its events.
func (h *Handlers) Register(s *server.Server) error {
	for _, r := range []struct {
		state state.State
		id    proto.PacketID
		fn    server.HandlerFunc
	}{
		{state.HandshakeState, 0x00, h.handleHandshake},
		{state.HandshakeState, LegacyPingID, handleLegacyPing},
		{state.StatusState, 0x00, h.handleStatusRequest},
		{state.StatusState, 0x01, handleStatusPing},
		{state.LoginState, 0x00, h.handleLogin},
		{state.TransferState, 0x00, h.handleLogin},
	} {
		if err := s.HandleFunc(r.state, r.id, r.fn); err != nil {
			return err
		}
	}

	mgr := s.Event()
	event.Subscribe(mgr, 0, h.onConnect)
	event.Subscribe(mgr, 0, h.onReadTimeout)
	event.Subscribe(mgr, 0, h.onDisconnect)
	return nil
}

// Online returns the number of logged in players.
func (h *Handlers) Online() int { return int(h.online.Load()) }

func (h *Handlers) handleHandshake(_ context.Context, conn netmc.MinecraftConn, pc *proto.PacketContext) error {
	hs, ok := pc.Packet.(*packet.Handshake)
	if !ok {
		return server.CloseConnection("")
	}
	conn.SetProtocol(proto.Protocol(hs.ProtocolVersion))

	switch hs.Intent() {
	case packet.StatusHandshakeIntent:
		conn.SetState(state.StatusState)
		return nil
	case packet.LoginHandshakeIntent:
		conn.SetState(state.LoginState)
	case packet.TransferHandshakeIntent:
		conn.SetState(state.TransferState)
	default:
		logr.FromContextOrDiscard(conn.Context()).V(1).Info("unknown handshake intent", "intent", hs.NextStatus)
		return server.CloseConnection("")
	}

	if hs.ProtocolVersion != h.cfg.Protocol {
		d, err := packet.NewDisconnect(&component.Translation{
			Key: "disconnect.genericReason",
			With: []component.Component{&component.Text{
				Content: fmt.Sprintf("Unsupported protocol version %q.", strconv.Itoa(hs.ProtocolVersion)),
			}},
		})
		if err != nil {
			return err
		}
		return netmc.CloseWith(conn, d)
	}
	return nil
}

func handleLegacyPing(context.Context, netmc.MinecraftConn, *proto.PacketContext) error {
	return server.CloseConnection("")
}

// handleStatusRequest answers with the server's own protocol so that
// clients of other versions show the server as incompatible.
func (h *Handlers) handleStatusRequest(_ context.Context, conn netmc.MinecraftConn, _ *proto.PacketContext) error {
	status, err := cachutil.Get(h.statusCache, proto.Protocol(h.cfg.Protocol), h.loadStatus)
	if err != nil {
		return fmt.Errorf("error building status response: %w", err)
	}
	return conn.WritePacket(&packet.StatusResponse{Status: status})
}

// handleStatusPing echoes the ping and closes the connection.
func handleStatusPing(_ context.Context, conn netmc.MinecraftConn, pc *proto.PacketContext) error {
	if err := conn.Write(pc.Payload); err != nil {
		return err
	}
	return server.CloseConnection("")
}

func (h *Handlers) handleLogin(_ context.Context, conn netmc.MinecraftConn, pc *proto.PacketContext) error {
	login, ok := pc.Packet.(*packet.ServerLogin)
	if !ok {
		return server.CloseConnection("")
	}
	if !validation.ValidPlayerName(login.Username) {
		return server.CloseConnection("Invalid username, " + validation.PlayerNameErrMsg)
	}
	if limit := h.cfg.Status.MaxPlayers; limit > 0 && h.Online() >= limit {
		return server.CloseConnection("The server is full")
	}

	success := &packet.ServerLoginSuccess{
		UUID:     uuid.OfflinePlayerUUID(login.Username),
		Username: login.Username,
	}
	if err := conn.WritePacket(success); err != nil {
		return err
	}
	conn.SetState(state.PlayState)
	h.online.Inc()
	logr.FromContextOrDiscard(conn.Context()).Info("player logged in",
		"username", success.Username, "uuid", success.UUID)
	return nil
}

func (h *Handlers) onConnect(e *server.ConnectionEvent) {
	logr.FromContextOrDiscard(e.Conn().Context()).Info("connected to server")
}

// onReadTimeout tells clients timing out during login why they are disconnected.
func (h *Handlers) onReadTimeout(e *server.ReadTimeoutEvent) {
	switch e.Conn().State() {
	case state.LoginState, state.TransferState:
		_ = netmc.CloseWith(e.Conn(), &packet.Disconnect{Reason: h.cfg.LoginTimeoutReason})
	}
}

func (h *Handlers) onDisconnect(e *server.DisconnectEvent) {
	if e.Conn().State() == state.PlayState {
		h.online.Dec()
	}
	log := logr.FromContextOrDiscard(e.Conn().Context())
	if reason := e.Reason(); reason != nil && !errors.Is(reason, netmc.ErrClosedConn) {
		log.Info("disconnected from server", "reason", reason.Error())
		return
	}
	log.Info("disconnected from server")
}

// buildStatus returns the status response JSON for clients of protocol.
func (h *Handlers) buildStatus(protocol proto.Protocol) (string, error) {
	motd, err := componentutil.ParseTextComponent(h.cfg.Status.Motd)
	if err != nil {
		return "", fmt.Errorf("error parsing motd: %w", err)
	}
	pong := &ping.ServerPing{
		Version: ping.Version{
			Protocol: protocol,
			Name:     h.versionName(),
		},
		Players: &ping.Players{
			Online: h.Online(),
			Max:    h.cfg.Status.MaxPlayers,
		},
		Description: motd,
		Favicon:     h.cfg.Status.Favicon,
	}
	b, err := json.Marshal(pong)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// versionName returns the version name shown in the server list.
func (h *Handlers) versionName() string {
	if h.cfg.Status.VersionName != "" {
		return h.cfg.Status.VersionName
	}
	if v, ok := version.Lookup(proto.Protocol(h.cfg.Protocol)); ok {
		return "Cubes " + v.String()
	}
	return "Cubes " + version.SupportedVersionsString
}
