package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/moodlist/internal/server"
	"github.com/desertthunder/moodlist/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the web application until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	if r.generator == nil {
		return fmt.Errorf("%w: generator not initialized", shared.ErrServiceUnavailable)
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	var history server.History
	if r.history != nil {
		history = r.history
	} else {
		r.logger.Warn("no database configured, history endpoint disabled")
	}

	app := server.NewApp(r.spotify, r.providers, r.generator, history, r.logger, server.AppConfig{
		SecureCookies: cmd.Bool("secure-cookies"),
		RateLimit:     r.config.Server.RateLimit,
		RateBurst:     r.config.Server.RateBurst,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx, addr, app.Routes(), r.logger)
}
