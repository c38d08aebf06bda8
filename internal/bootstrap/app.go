package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"aegis-backend/internal/advice"
	"aegis-backend/internal/followup"
	"aegis-backend/internal/services/health"
	"aegis-backend/internal/shared/config"
	"aegis-backend/internal/shared/metrics"
	"aegis-backend/internal/shared/server"
	"aegis-backend/internal/shared/telemetry"
	"aegis-backend/internal/tunnel"
)

const defaultShutdownTimeout = 10 * time.Second

// App holds the process dependencies. Nothing here is global.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	Metrics         *metrics.Metrics
	Composer        advice.Composer
	HealthService   *health.Service
	FollowUpHandler *followup.Handler
	Tunnel          *tunnel.Manager
}

// Build wires the dependency graph for cfg.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if cfg.Port == 0 {
		cfg.Port = config.DefaultPort
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	m := metrics.New()
	composer := advice.NewRuleComposer()
	healthSvc := health.NewService()
	followUp := followup.NewHandler(composer, m)

	app := &App{
		Config:          cfg,
		Metrics:         m,
		Composer:        composer,
		HealthService:   healthSvc,
		FollowUpHandler: followUp,
		Tunnel:          tunnel.NewManager(buildTunnelProvider(cfg), m),
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Health:          health.NewHandler(healthSvc),
		FollowUpHandler: followUp,
		Metrics:         m,
	})
	return app, nil
}

func buildTunnelProvider(cfg config.Config) tunnel.Provider {
	if !cfg.TunnelEnabled {
		return tunnel.NoopProvider{}
	}
	if strings.TrimSpace(cfg.NgrokAuthToken) == "" {
		telemetry.Warn("tunnel.disabled", map[string]any{"reason": "NGROK_AUTHTOKEN is not set"})
		return tunnel.NoopProvider{}
	}
	return tunnel.NewNgrokProvider(cfg.NgrokAuthToken, cfg.NgrokRegion)
}

// Run serves on ln until ctx is cancelled or the server fails, then closes the
// tunnel and drains in-flight requests within the shutdown timeout.
func (a *App) Run(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	port := a.Config.Port
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		port = tcp.Port
	}
	telemetry.Info("server.start", map[string]any{
		"addr": ln.Addr().String(),
		"env":  a.Config.Env,
	})
	a.Tunnel.Start(ctx, port)

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()

	a.Tunnel.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("shutdown: %w", err))
	}
	telemetry.Info("server.exit", map[string]any{"clean": runErr == nil})
	return runErr
}
