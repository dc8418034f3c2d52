package server

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
	"github.com/robinbraemer/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"go.minekube.com/cubes/pkg/edition/java/netmc"
	"go.minekube.com/cubes/pkg/edition/java/proto/codec"
	"go.minekube.com/cubes/pkg/edition/java/proto/packet"
	"go.minekube.com/cubes/pkg/edition/java/proto/state"
	"go.minekube.com/cubes/pkg/edition/java/proto/util"
	"go.minekube.com/cubes/pkg/internal/addrquota"
	"go.minekube.com/cubes/pkg/proto"
)

// serve starts s on a loopback listener and shuts it down on cleanup.
func serve(t *testing.T, s *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx := logr.NewContext(context.Background(), testr.New(t))
	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx, ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
		<-served
	})
	return ln.Addr().String()
}

// dial connects to addr and sends the frames of payloads in one write.
func dial(t *testing.T, addr string, payloads ...[]byte) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	send(t, conn, payloads...)
	return conn
}

func send(t *testing.T, conn net.Conn, payloads ...[]byte) {
	t.Helper()
	var b []byte
	for _, p := range payloads {
		b, _ = codec.AppendFrame(b, p)
	}
	_, err := conn.Write(b)
	require.NoError(t, err)
}

func handshake(t *testing.T, next packet.HandshakeIntent) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	buf.WriteByte(0x00)
	hs := &packet.Handshake{ProtocolVersion: 756, ServerAddress: "localhost", Port: 25565, NextStatus: int(next)}
	require.NoError(t, hs.Encode(&proto.PacketContext{}, buf))
	return buf.Bytes()
}

// switchState is a handshake handler moving the connection to its intent's state.
func switchState(_ context.Context, conn netmc.MinecraftConn, pc *proto.PacketContext) error {
	hs := pc.Packet.(*packet.Handshake)
	switch hs.Intent() {
	case packet.StatusHandshakeIntent:
		conn.SetState(state.StatusState)
	default:
		conn.SetState(state.LoginState)
	}
	return nil
}

// readFrame reads the next frame sent by the server.
func readFrame(t *testing.T, conn net.Conn) []byte {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	payload, _, err := codec.ReadFrame(conn)
	require.NoError(t, err)
	return payload
}

// requireEOF asserts the server closed conn.
func requireEOF(t *testing.T, conn net.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, err := conn.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)
}

type recorder struct{ name string }

func (*recorder) HandlePacket(context.Context, netmc.MinecraftConn, *proto.PacketContext) error {
	return nil
}

func TestHandle_Duplicate(t *testing.T) {
	s := New(Options{})
	first, second := &recorder{"first"}, &recorder{"second"}
	require.NoError(t, s.Handle(state.LoginState, 0x00, first))

	err := s.Handle(state.LoginState, 0x00, second)
	var de *DuplicateHandlerError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, &DuplicateHandlerError{State: state.LoginState, PacketID: 0x00}, de)

	h, ok := s.handler(state.LoginState, 0x00)
	require.True(t, ok)
	assert.Same(t, first, h)

	// Same id in another state is a different key.
	require.NoError(t, s.Handle(state.PlayState, 0x00, second))
	_, ok = s.handler(state.StatusState, 0x00)
	assert.False(t, ok)
}

func TestHandle_AfterStart(t *testing.T) {
	s := New(Options{})
	serve(t, s)
	require.Eventually(t, func() bool {
		return errors.Is(s.Handle(state.PlayState, 0x01, &recorder{}), ErrServerStarted)
	}, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, s.SetUnhandled(&recorder{}), ErrServerStarted)
}

func TestDispatch_Order(t *testing.T) {
	s := New(Options{})
	got := make(chan proto.PacketID, 3)
	record := func(_ context.Context, _ netmc.MinecraftConn, pc *proto.PacketContext) error {
		got <- pc.PacketID
		return nil
	}
	for _, id := range []proto.PacketID{0x10, 0x11, 0x12} {
		require.NoError(t, s.HandleFunc(state.HandshakeState, id, record))
	}
	addr := serve(t, s)

	dial(t, addr, []byte{0x10}, []byte{0x11, 0xAA}, []byte{0x12})
	for _, want := range []proto.PacketID{0x10, 0x11, 0x12} {
		select {
		case id := <-got:
			assert.Equal(t, want, id)
		case <-time.After(3 * time.Second):
			t.Fatal("packet not dispatched")
		}
	}
}

func TestDispatch_Unhandled(t *testing.T) {
	s := New(Options{})
	got := make(chan state.State, 1)
	require.NoError(t, s.SetUnhandled(HandlerFunc(func(_ context.Context, conn netmc.MinecraftConn, pc *proto.PacketContext) error {
		got <- conn.State()
		return nil
	})))
	dial(t, serve(t, s), []byte{0x42})
	select {
	case st := <-got:
		assert.Equal(t, state.HandshakeState, st)
	case <-time.After(3 * time.Second):
		t.Fatal("unhandled handler not called")
	}
}

func TestLoginTimeout(t *testing.T) {
	mgr := event.New()
	s := New(Options{ReadTimeout: 100 * time.Millisecond, EventMgr: mgr})
	require.NoError(t, s.HandleFunc(state.HandshakeState, 0x00, switchState))
	event.Subscribe(mgr, 0, func(e *ReadTimeoutEvent) {
		if e.Conn().State() == state.LoginState {
			_ = netmc.CloseWith(e.Conn(), packet.NewDisconnectText("timeout"))
		}
	})
	disconnected := make(chan *DisconnectEvent, 1)
	event.Subscribe(mgr, 0, func(e *DisconnectEvent) { disconnected <- e })

	conn := dial(t, serve(t, s), handshake(t, packet.LoginHandshakeIntent))
	payload := readFrame(t, conn)
	require.Equal(t, byte(0x00), payload[0])
	requireEOF(t, conn)

	select {
	case e := <-disconnected:
		require.Error(t, e.Reason())
		assert.Contains(t, e.Reason().Error(), "read timeout")
	case <-time.After(3 * time.Second):
		t.Fatal("no disconnect event")
	}
}

func TestCloseWithReason_Play(t *testing.T) {
	s := New(Options{})
	require.NoError(t, s.HandleFunc(state.HandshakeState, 0x00, func(_ context.Context, conn netmc.MinecraftConn, _ *proto.PacketContext) error {
		conn.SetState(state.PlayState)
		return nil
	}))
	require.NoError(t, s.HandleFunc(state.PlayState, 0x05, func(context.Context, netmc.MinecraftConn, *proto.PacketContext) error {
		return CloseConnection("bye")
	}))

	conn := dial(t, serve(t, s), handshake(t, packet.LoginHandshakeIntent), []byte{0x05})
	payload := readFrame(t, conn)
	require.Equal(t, byte(0x1A), payload[0])
	reason, err := util.ReadString(bytes.NewReader(payload[1:]))
	require.NoError(t, err)
	assert.Equal(t, `{"text": "bye"}`, reason)
	requireEOF(t, conn)
}

func TestDispatch_HandlerFaults(t *testing.T) {
	s := New(Options{})
	require.NoError(t, s.HandleFunc(state.HandshakeState, 0x01, func(context.Context, netmc.MinecraftConn, *proto.PacketContext) error {
		panic("boom")
	}))
	require.NoError(t, s.HandleFunc(state.HandshakeState, 0x02, func(context.Context, netmc.MinecraftConn, *proto.PacketContext) error {
		return errors.New("some failure")
	}))
	done := make(chan struct{})
	require.NoError(t, s.HandleFunc(state.HandshakeState, 0x03, func(context.Context, netmc.MinecraftConn, *proto.PacketContext) error {
		close(done)
		return nil
	}))

	dial(t, serve(t, s), []byte{0x01}, []byte{0x02}, []byte{0x03})
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("connection did not survive faulty handlers")
	}
}

func TestDispatch_DecodeErrorCloses(t *testing.T) {
	s := New(Options{})
	require.NoError(t, s.HandleFunc(state.HandshakeState, 0x07, func(_ context.Context, _ netmc.MinecraftConn, pc *proto.PacketContext) error {
		_, err := util.ReadString(pc.Reader())
		return err
	}))
	conn := dial(t, serve(t, s), []byte{0x07, 0x05, 'a'})
	requireEOF(t, conn)
}

func TestProcessTimeout(t *testing.T) {
	mgr := event.New()
	s := New(Options{ProcessTimeout: 50 * time.Millisecond, EventMgr: mgr})
	require.NoError(t, s.HandleFunc(state.HandshakeState, 0x01, func(ctx context.Context, _ netmc.MinecraftConn, _ *proto.PacketContext) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	fired := make(chan proto.PacketID, 1)
	event.Subscribe(mgr, 0, func(e *ProcessTimeoutEvent) { fired <- e.Packet().PacketID })

	conn := dial(t, serve(t, s), []byte{0x01})
	requireEOF(t, conn)
	select {
	case id := <-fired:
		assert.Equal(t, proto.PacketID(0x01), id)
	case <-time.After(3 * time.Second):
		t.Fatal("no process timeout event")
	}
}

func TestAwaitHandler(t *testing.T) {
	expired, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-expired.Done()

	t.Run("result ready at deadline", func(t *testing.T) {
		done := make(chan error, 1)
		done <- nil
		finished, err := awaitHandler(expired, done)
		assert.True(t, finished)
		assert.NoError(t, err)
	})
	t.Run("no result", func(t *testing.T) {
		finished, _ := awaitHandler(expired, make(chan error))
		assert.False(t, finished)
	})
	t.Run("result before deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		done := make(chan error, 1)
		done <- io.ErrUnexpectedEOF
		finished, err := awaitHandler(ctx, done)
		assert.True(t, finished)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
}

func TestDisconnectEvent_Once(t *testing.T) {
	mgr := event.New()
	s := New(Options{EventMgr: mgr})
	var count atomic.Int32
	reasons := make(chan error, 2)
	event.Subscribe(mgr, 0, func(e *DisconnectEvent) {
		count.Inc()
		reasons <- e.Reason()
	})
	connected := make(chan struct{})
	event.Subscribe(mgr, 0, func(*ConnectionEvent) { close(connected) })

	conn := dial(t, serve(t, s))
	<-connected
	require.NoError(t, conn.Close())
	select {
	case reason := <-reasons:
		assert.ErrorIs(t, reason, io.EOF)
	case <-time.After(3 * time.Second):
		t.Fatal("no disconnect event")
	}
	require.NoError(t, s.Shutdown(context.Background()))
	assert.EqualValues(t, 1, count.Load())
}

func TestShutdown_WaitsForHandlers(t *testing.T) {
	s := New(Options{})
	started := make(chan struct{})
	var finished atomic.Bool
	require.NoError(t, s.HandleFunc(state.HandshakeState, 0x01, func(context.Context, netmc.MinecraftConn, *proto.PacketContext) error {
		close(started)
		time.Sleep(100 * time.Millisecond)
		finished.Store(true)
		return nil
	}))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- s.Serve(logr.NewContext(context.Background(), testr.New(t)), ln) }()

	idle := dial(t, ln.Addr().String())
	dial(t, ln.Addr().String(), []byte{0x01})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.True(t, finished.Load())
	assert.ErrorIs(t, <-served, ErrServerClosed)
	assert.Zero(t, s.ConnCount())
	requireEOF(t, idle)

	_, err = net.Dial("tcp", ln.Addr().String())
	assert.Error(t, err)
	assert.ErrorIs(t, s.ListenAndServe(context.Background(), "127.0.0.1:0"), ErrServerClosed)
}

func TestServe_ContextCancel(t *testing.T) {
	mgr := event.New()
	s := New(Options{ShutdownTimeout: time.Second, EventMgr: mgr})
	connected := make(chan struct{})
	event.Subscribe(mgr, 0, func(*ConnectionEvent) { close(connected) })
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(logr.NewContext(context.Background(), testr.New(t)))
	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx, ln) }()

	conn := dial(t, ln.Addr().String())
	<-connected
	cancel()
	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not return")
	}
	requireEOF(t, conn)
}

func TestConnectionQuota(t *testing.T) {
	mgr := event.New()
	s := New(Options{EventMgr: mgr, ConnectionQuota: addrquota.New(0.0001, 1, 10)})
	var connections atomic.Int32
	event.Subscribe(mgr, 0, func(*ConnectionEvent) { connections.Inc() })
	addr := serve(t, s)

	dial(t, addr)
	rejected := dial(t, addr)
	requireEOF(t, rejected)
	assert.Eventually(t, func() bool { return connections.Load() == 1 }, time.Second, 5*time.Millisecond)
}
