package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"aegis-backend/internal/bootstrap"
	"aegis-backend/internal/shared/config"
	"aegis-backend/internal/shared/server"
	"aegis-backend/internal/shared/telemetry"
)

type serveOptions struct {
	port     int
	noTunnel bool
	logLevel string
}

func serveCmd() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service and open the public tunnel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().IntVar(&opts.port, "port", 0, "Listen port (overrides PORT)")
	cmd.Flags().BoolVar(&opts.noTunnel, "no-tunnel", false, "Do not open a public tunnel")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	return cmd
}

func applyServeOptions(cfg config.Config, opts serveOptions) config.Config {
	if opts.port != 0 {
		cfg.Port = opts.port
	}
	if opts.noTunnel {
		cfg.TunnelEnabled = false
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	return cfg
}

func runServe(parent context.Context, opts serveOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg := applyServeOptions(config.Load(), opts)

	if _, err := telemetry.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer telemetry.Sync()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", server.Addr(app.Config.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx, ln)
}
