package tunnel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.ngrok.com/ngrok"
	"golang.ngrok.com/ngrok/config"

	"aegis-backend/internal/shared/telemetry"
)

// NgrokProvider opens an ngrok HTTP endpoint and proxies its traffic to the local port.
type NgrokProvider struct {
	AuthToken string
	Region    string

	mu   sync.Mutex
	tun  ngrok.Tunnel
	srv  *http.Server
	done chan struct{}
}

// NewNgrokProvider constructs a provider for the given auth token and optional region.
func NewNgrokProvider(authToken, region string) *NgrokProvider {
	return &NgrokProvider{AuthToken: authToken, Region: region}
}

// Open connects to ngrok and starts forwarding to http://127.0.0.1:port.
func (p *NgrokProvider) Open(ctx context.Context, port int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tun != nil {
		return "", ErrAlreadyOpen
	}

	opts := []ngrok.ConnectOption{ngrok.WithAuthtoken(p.AuthToken)}
	if p.Region != "" {
		opts = append(opts, ngrok.WithRegion(p.Region))
	}
	tun, err := ngrok.Listen(ctx, config.HTTPEndpoint(), opts...)
	if err != nil {
		return "", fmt.Errorf("ngrok listen: %w", err)
	}

	target := &url.URL{Scheme: "http", Host: net.JoinHostPort("127.0.0.1", strconv.Itoa(port))}
	srv := &http.Server{
		Handler:           httputil.NewSingleHostReverseProxy(target),
		ReadHeaderTimeout: 10 * time.Second,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
			telemetry.Warn("tunnel.forward_stopped", map[string]any{"error": err})
		}
	}()

	p.tun = tun
	p.srv = srv
	p.done = done
	return tun.URL(), nil
}

// Close stops forwarding and disconnects the tunnel.
func (p *NgrokProvider) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tun == nil {
		return nil
	}

	// Shutdown closes the tunnel listener as well.
	err := p.srv.Shutdown(ctx)
	if err != nil {
		err = errors.Join(err, p.tun.Close())
	}
	select {
	case <-p.done:
	case <-ctx.Done():
		err = errors.Join(err, ctx.Err())
	}

	p.tun = nil
	p.srv = nil
	p.done = nil
	if err != nil {
		return fmt.Errorf("ngrok close: %w", err)
	}
	return nil
}
