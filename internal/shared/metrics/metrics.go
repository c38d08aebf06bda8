package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aegis"

// Follow-up request outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics groups the service collectors on a dedicated registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	FollowUpRequests *prometheus.CounterVec
	RuleHits         *prometheus.CounterVec
	ComposeDuration  prometheus.Histogram
	TunnelEvents     *prometheus.CounterVec
}

// New registers the service collectors plus Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		FollowUpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "followup_requests_total",
				Help:      "Total follow-up advice requests by outcome",
			},
			[]string{"outcome"},
		),
		RuleHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "followup_rule_hits_total",
				Help:      "Advice rules that produced a block",
			},
			[]string{"rule"},
		),
		ComposeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "followup_compose_duration_seconds",
				Help:      "Duration of advice composition in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
		),
		TunnelEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tunnel_events_total",
				Help:      "Tunnel lifecycle events",
			},
			[]string{"event"},
		),
	}
}

// ObserveFollowUp counts a follow-up request outcome.
func (m *Metrics) ObserveFollowUp(outcome string) {
	if m == nil {
		return
	}
	m.FollowUpRequests.WithLabelValues(outcome).Inc()
}

// ObserveRules counts each fired advice rule.
func (m *Metrics) ObserveRules(rules []string) {
	if m == nil {
		return
	}
	for _, rule := range rules {
		m.RuleHits.WithLabelValues(rule).Inc()
	}
}

// ObserveCompose records a composition duration.
func (m *Metrics) ObserveCompose(d time.Duration) {
	if m == nil {
		return
	}
	m.ComposeDuration.Observe(d.Seconds())
}

// TunnelEvent counts a tunnel lifecycle event such as "opened" or "open_failed".
func (m *Metrics) TunnelEvent(event string) {
	if m == nil {
		return
	}
	m.TunnelEvents.WithLabelValues(event).Inc()
}

// Middleware counts every request by its matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler exposes metrics in Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	if m == nil {
		return gin.WrapH(promhttp.Handler())
	}
	return gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry}))
}
