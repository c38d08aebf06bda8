package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"aegis-backend/internal/followup"
	"aegis-backend/internal/services/health"
	"aegis-backend/internal/shared/config"
	"aegis-backend/internal/shared/metrics"
	"aegis-backend/internal/shared/server/middleware"
)

const followUpRateGroup = "FOLLOW_UP"

// RouterDeps holds handler dependencies for routing.
type RouterDeps struct {
	Config          config.Config
	Health          *health.Handler
	FollowUpHandler *followup.Handler
	Metrics         *metrics.Metrics
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		deps.Metrics.Middleware(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)
	if deps.Config.RateLimitRPS > 0 && deps.Config.RateLimitBurst > 0 {
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: rateGroup,
			Rules: map[string]middleware.RateLimitRule{
				followUpRateGroup: {Rate: deps.Config.RateLimitRPS, Burst: deps.Config.RateLimitBurst},
			},
		}))
	}

	healthHandler := deps.Health
	if healthHandler == nil {
		healthHandler = health.NewHandler(nil)
	}
	healthHandler.RegisterRoutes(r)

	if deps.FollowUpHandler != nil {
		deps.FollowUpHandler.RegisterRoutes(r)
	}
	r.GET("/metrics", deps.Metrics.Handler())

	return r
}

func rateGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && c.FullPath() == followup.Route {
		return followUpRateGroup
	}
	return ""
}

// Addr formats the listen address for port on all interfaces.
func Addr(port int) string {
	if port <= 0 {
		port = config.DefaultPort
	}
	return fmt.Sprintf(":%d", port)
}
