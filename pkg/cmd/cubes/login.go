package cubes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-logr/logr"
	"github.com/urfave/cli/v2"

	"go.minekube.com/cubes/pkg/edition/java/client"
	"go.minekube.com/cubes/pkg/edition/java/config"
	"go.minekube.com/cubes/pkg/edition/java/netmc"
	"go.minekube.com/cubes/pkg/proto"
	"go.minekube.com/cubes/pkg/util/interrupt"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "Log in to a server in offline mode and log received packets",
		ArgsUsage: "<host:port>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "The player name to log in with",
				Value:   "Steve",
			},
			&cli.IntFlag{
				Name:    "protocol",
				Aliases: []string{"p"},
				Usage:   "The protocol version to connect with",
				Value:   config.DefaultConfig.Protocol,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Max wait for the login response and each following packet",
				Value: config.DefaultConfig.ReadTimeout.Std(),
			},
		},
		Action: func(c *cli.Context) error {
			addr := c.Args().First()
			if addr == "" {
				return cli.Exit("missing server address argument", 1)
			}
			log, err := loggerFrom(c)
			if err != nil {
				return cli.Exit(fmt.Errorf("error creating logger: %w", err), 1)
			}

			ctx, stop := interrupt.TerminationContext(c.Context)
			defer stop()
			ctx = logr.NewContext(ctx, log)

			err = Login(ctx, addr, proto.Protocol(c.Int("protocol")), c.String("name"), c.Duration("timeout"))
			if err != nil && ctx.Err() == nil {
				return cli.Exit(err, 1)
			}
			return nil
		},
	}
}

// Login logs in to addr and logs the received packets until the server
// closes the connection or ctx is canceled.
func Login(ctx context.Context, addr string, protocol proto.Protocol, name string, timeout time.Duration) error {
	log := logr.FromContextOrDiscard(ctx)

	loginCtx, cancel := context.WithTimeout(ctx, timeout)
	conn, success, err := client.Connect(loginCtx, addr, protocol, name)
	cancel()
	if err != nil {
		var dc *client.DisconnectedByServerError
		if errors.As(err, &dc) {
			return fmt.Errorf("disconnected by server: %s", dc.PlainReason())
		}
		return err
	}
	defer conn.Close()
	log.Info("logged in", "username", success.Username, "uuid", success.UUID.String())

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	err = client.Run(ctx, conn, timeout, func(_ context.Context, pc *proto.PacketContext) error {
		log.V(1).Info("received packet", "id", pc.PacketID.String(), "size", len(pc.Data))
		return nil
	})
	if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, netmc.ErrClosedConn) {
		log.Info("connection closed")
		return nil
	}
	return err
}
