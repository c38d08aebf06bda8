package tunnel

import (
	"context"
	"sync"

	"aegis-backend/internal/shared/metrics"
	"aegis-backend/internal/shared/telemetry"
)

// Manager owns the process-lifetime tunnel. Failures are logged and never
// propagate, so request handling and shutdown proceed without a tunnel.
type Manager struct {
	provider Provider
	metrics  *metrics.Metrics

	mu        sync.Mutex
	open      bool
	publicURL string
}

// NewManager constructs a Manager around provider.
func NewManager(provider Provider, m *metrics.Metrics) *Manager {
	if provider == nil {
		provider = NoopProvider{}
	}
	return &Manager{provider: provider, metrics: m}
}

// Start opens the tunnel for port and returns the public URL, or "" on failure.
func (m *Manager) Start(ctx context.Context, port int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open {
		return m.publicURL
	}

	publicURL, err := m.provider.Open(ctx, port)
	if err != nil {
		m.metrics.TunnelEvent("open_failed")
		telemetry.Error("tunnel.open_failed", map[string]any{
			"port":  port,
			"error": err,
		})
		return ""
	}

	m.open = true
	m.publicURL = publicURL
	m.metrics.TunnelEvent("opened")
	telemetry.Info("tunnel.opened", map[string]any{
		"public_url":         publicURL,
		"local_url":          LocalURL(port),
		"follow_up_endpoint": publicURL + "/follow-up-rag",
		"status_endpoint":    publicURL + "/status",
	})
	return publicURL
}

// Stop closes the tunnel if it is open. It is safe to call more than once.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return
	}

	telemetry.Info("tunnel.closing", map[string]any{"public_url": m.publicURL})
	if err := m.provider.Close(ctx); err != nil {
		m.metrics.TunnelEvent("close_failed")
		telemetry.Error("tunnel.close_failed", map[string]any{
			"public_url": m.publicURL,
			"error":      err,
		})
	} else {
		m.metrics.TunnelEvent("closed")
	}
	m.open = false
	m.publicURL = ""
}

// PublicURL returns the current public URL, or "" when no tunnel is open.
func (m *Manager) PublicURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.publicURL
}
