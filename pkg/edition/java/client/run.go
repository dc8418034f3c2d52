package client

import (
	"context"
	"fmt"
	"time"

	"go.minekube.com/cubes/pkg/edition/java/netmc"
	"go.minekube.com/cubes/pkg/proto"
)

// PacketHandler handles a packet received after login.
type PacketHandler func(ctx context.Context, pc *proto.PacketContext) error

// Run passes every packet received on conn to handle until an error occurs.
// io.EOF is returned when the server closed the connection.
// A positive readTimeout bounds the wait for each packet, and exceeding it
// closes conn.
func Run(ctx context.Context, conn netmc.MinecraftConn, readTimeout time.Duration, handle PacketHandler) error {
	for {
		pc, err := waitPacket(ctx, conn, readTimeout)
		if err != nil {
			return err
		}
		if err = handle(ctx, pc); err != nil {
			return err
		}
	}
}

func waitPacket(ctx context.Context, conn netmc.MinecraftConn, readTimeout time.Duration) (*proto.PacketContext, error) {
	if readTimeout <= 0 {
		return conn.WaitPacket(ctx)
	}
	waitCtx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	pc, err := conn.WaitPacket(waitCtx)
	if err != nil && ctx.Err() == nil && waitCtx.Err() != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("no packet received within %s: %w", readTimeout, err)
	}
	return pc, err
}
