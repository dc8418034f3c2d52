package cubes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/robinbraemer/event"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"go.minekube.com/cubes/pkg/edition/java/config"
	"go.minekube.com/cubes/pkg/edition/java/server"
	"go.minekube.com/cubes/pkg/edition/java/session"
	"go.minekube.com/cubes/pkg/internal/addrquota"
	"go.minekube.com/cubes/pkg/util/interrupt"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the example server answering status pings and offline logins",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "bind",
				Aliases: []string{"b"},
				Usage:   "The address to listen for connections, overrides the config",
			},
		},
		Action: func(c *cli.Context) error {
			log, err := loggerFrom(c)
			if err != nil {
				return cli.Exit(fmt.Errorf("error creating logger: %w", err), 1)
			}
			cfg, err := validConfig(c, log)
			if err != nil {
				return cli.Exit(err, 1)
			}
			if c.IsSet("bind") {
				cfg.Bind = c.String("bind")
			}

			ctx, stop := interrupt.TerminationContext(c.Context)
			defer stop()
			ctx = logr.NewContext(ctx, log)

			if err = Serve(ctx, cfg); err != nil && !errors.Is(err, server.ErrServerClosed) {
				return cli.Exit(err, 1)
			}
			return nil
		},
	}
}

// Serve runs a server with cfg until ctx is canceled,
// then shuts it down gracefully.
func Serve(ctx context.Context, cfg *config.Config) error {
	log := logr.FromContextOrDiscard(ctx)

	opts := server.Options{
		ReadTimeout:     cfg.ReadTimeout.Std(),
		ProcessTimeout:  cfg.ProcessTimeout.Std(),
		WriteTimeout:    cfg.WriteTimeout.Std(),
		ShutdownTimeout: cfg.ShutdownTimeout.Std(),
		ProxyProtocol:   cfg.ProxyProtocol,
		EventMgr:        event.New(),
	}
	if q := cfg.Quota.Connections; q.Enabled {
		opts.ConnectionQuota = addrquota.New(q.OPS, q.Burst, q.MaxEntries)
	}
	srv := server.New(opts)
	sess := session.New(cfg)
	if err := sess.Register(srv); err != nil {
		return fmt.Errorf("error registering handlers: %w", err)
	}
	event.Subscribe(srv.Event(), 0, func(e *server.ProcessTimeoutEvent) {
		log.Info("packet handler timed out", "packet", e.Packet().String(), "remote", e.Conn().RemoteAddr().String())
	})

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		// Canceling ctx shuts the server down gracefully.
		return srv.ListenAndServe(ctx, cfg.Bind)
	})
	eg.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-egCtx.Done():
				return nil
			case <-ticker.C:
				log.V(1).Info("server stats", "connections", srv.ConnCount(), "online", sess.Online())
			}
		}
	})
	return eg.Wait()
}

// statsInterval is how often serve logs connection stats in verbose mode.
const statsInterval = time.Minute
