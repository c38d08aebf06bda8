package health

import (
	"github.com/gin-gonic/gin"

	"aegis-backend/internal/shared/server/respond"
)

// Route is the liveness path.
const Route = "/status"

// Handler exposes the health service over HTTP.
type Handler struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	if svc == nil {
		svc = NewService()
	}
	return &Handler{Service: svc}
}

// RegisterRoutes attaches the liveness route.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET(Route, h.status)
}

func (h *Handler) status(c *gin.Context) {
	respond.OK(c, h.Service.Status())
}
