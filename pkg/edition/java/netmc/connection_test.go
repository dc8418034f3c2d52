package netmc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.minekube.com/cubes/pkg/edition/java/proto/codec"
	"go.minekube.com/cubes/pkg/edition/java/proto/packet"
	"go.minekube.com/cubes/pkg/edition/java/proto/state"
	"go.minekube.com/cubes/pkg/edition/java/proto/util"
	"go.minekube.com/cubes/pkg/proto"
)

// pipe returns a connection of the given role and the raw peer end.
func pipe(t *testing.T, role Role) (MinecraftConn, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	ctx := logr.NewContext(context.Background(), testr.New(t))
	c := NewMinecraftConn(ctx, a, role, Options{WriteTimeout: time.Second})
	t.Cleanup(func() {
		_ = c.Close()
		_ = b.Close()
	})
	return c, b
}

// readPeer reads one frame from the peer end in the background.
func readPeer(peer net.Conn) <-chan []byte {
	ch := make(chan []byte, 1)
	go func() {
		defer close(ch)
		payload, _, err := codec.ReadFrame(peer)
		if err == nil {
			ch <- payload
		}
	}()
	return ch
}

func TestCloseWithReason_Play(t *testing.T) {
	c, peer := pipe(t, ServerRole)
	c.SetState(state.PlayState)

	frame := readPeer(peer)
	require.NoError(t, c.CloseWithReason("bye"))

	payload := <-frame
	require.NotNil(t, payload)
	require.Equal(t, byte(0x1A), payload[0])
	reason, err := util.ReadString(bytes.NewReader(payload[1:]))
	require.NoError(t, err)
	require.Equal(t, `{"text": "bye"}`, reason)

	require.True(t, Closed(c))
	require.True(t, KnownDisconnect(c))
	// The peer sees the stream end after the disconnect packet.
	_, err = peer.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)
}

func TestCloseWithReason_Login(t *testing.T) {
	c, peer := pipe(t, ServerRole)
	c.SetState(state.LoginState)

	frame := readPeer(peer)
	require.NoError(t, c.CloseWithReason("denied"))
	payload := <-frame
	require.NotNil(t, payload)
	require.Equal(t, byte(0x00), payload[0])
}

func TestCloseWithReason_OnlyCloses(t *testing.T) {
	tests := []struct {
		name   string
		role   Role
		state  state.State
		reason string
	}{
		{"status state", ServerRole, state.StatusState, "bye"},
		{"handshake state", ServerRole, state.HandshakeState, "bye"},
		{"client role", ClientRole, state.PlayState, "bye"},
		{"no reason", ServerRole, state.PlayState, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, peer := pipe(t, tt.role)
			c.SetState(tt.state)
			require.NoError(t, c.CloseWithReason(tt.reason))

			// Nothing was written before the close.
			n, err := peer.Read(make([]byte, 1))
			require.Zero(t, n)
			require.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestClose_Idempotent(t *testing.T) {
	c, _ := pipe(t, ServerRole)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	require.NoError(t, c.CloseWithReason("again"))
	require.ErrorIs(t, c.WritePacket(&packet.StatusRequest{}), ErrClosedConn)
	_, err := c.ReadPacket()
	require.ErrorIs(t, err, ErrClosedConn)
	require.Error(t, c.Context().Err())
}

func TestWaitPacket_Order(t *testing.T) {
	c, peer := pipe(t, ServerRole)

	go func() {
		var b []byte
		for _, id := range []byte{0x10, 0x11, 0x12} {
			b, _ = codec.AppendFrame(b, []byte{id, 0xAB})
		}
		_, _ = peer.Write(b)
		_ = peer.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, want := range []proto.PacketID{0x10, 0x11, 0x12} {
		pc, err := c.WaitPacket(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, pc.PacketID)
		assert.Equal(t, []byte{0xAB}, pc.Data)
	}
	_, err := c.WaitPacket(ctx)
	require.ErrorIs(t, err, io.EOF)

	// An empty stream is no packet, not an error.
	pc, err := c.ReadPacket()
	require.NoError(t, err)
	require.Nil(t, pc)
}

func TestWaitPacket_Timeout(t *testing.T) {
	c, _ := pipe(t, ServerRole)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := c.WaitPacket(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 2*time.Second)
	require.False(t, Closed(c))
}

func TestWaitPacket_Cancel(t *testing.T) {
	c, _ := pipe(t, ServerRole)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	_, err := c.WaitPacket(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWaitPacket_TypedPacket(t *testing.T) {
	c, peer := pipe(t, ServerRole)
	go func() {
		enc := codec.NewEncoder(peer, proto.ServerBound, logr.Discard())
		_, _ = enc.WritePacket(&packet.Handshake{ProtocolVersion: 756, ServerAddress: "localhost", Port: 25565, NextStatus: 1})
	}()
	pc, err := c.WaitPacket(context.Background())
	require.NoError(t, err)
	require.Equal(t, &packet.Handshake{ProtocolVersion: 756, ServerAddress: "localhost", Port: 25565, NextStatus: 1}, pc.Packet)
}

func TestWriteBatch(t *testing.T) {
	c, peer := pipe(t, ClientRole)
	c.SetState(state.LoginState)

	hs, err := c.EncodePacket(&packet.ServerLogin{Username: "Steve"})
	require.NoError(t, err)

	var seen []proto.PacketID
	c2 := NewMinecraftConn(context.Background(), peer, ServerRole, Options{})
	defer c2.Close()
	c2.SetState(state.LoginState)

	done := make(chan error, 1)
	go func() { done <- c.WriteBatch([]byte{0x05}, hs) }()
	for i := 0; i < 2; i++ {
		pc, err := c2.WaitPacket(context.Background())
		require.NoError(t, err)
		seen = append(seen, pc.PacketID)
	}
	require.NoError(t, <-done)
	require.Equal(t, []proto.PacketID{0x05, 0x00}, seen)
}

func TestWrite_ErrorCloses(t *testing.T) {
	c, peer := pipe(t, ServerRole)
	require.NoError(t, peer.Close())
	err := c.Write([]byte{0x00})
	require.Error(t, err)
	require.True(t, errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed))
	require.True(t, Closed(c))
	require.False(t, KnownDisconnect(c))
}

func TestInterceptors(t *testing.T) {
	a, b := net.Pipe()
	var seen []proto.PacketID
	c := NewMinecraftConn(context.Background(), a, ServerRole, Options{
		Interceptors: []PacketInterceptor{PacketInterceptorFunc(func(_ context.Context, pc *proto.PacketContext) {
			seen = append(seen, pc.PacketID)
		})},
	})
	defer c.Close()
	defer b.Close()

	go func() {
		f, _ := codec.AppendFrame(nil, []byte{0x33})
		_, _ = b.Write(f)
	}()
	_, err := c.WaitPacket(context.Background())
	require.NoError(t, err)

	c.SetState(state.PlayState)
	frame := readPeer(b)
	require.NoError(t, c.WritePacket(packet.NewDisconnectText("x")))
	<-frame
	require.Equal(t, []proto.PacketID{0x33, 0x1A}, seen)
}
