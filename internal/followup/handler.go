package followup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"

	"aegis-backend/internal/advice"
	"aegis-backend/internal/shared/metrics"
	"aegis-backend/internal/shared/server/middleware"
	"aegis-backend/internal/shared/server/respond"
	"aegis-backend/internal/shared/telemetry"
)

// Route is the follow-up advice path.
const Route = "/follow-up-rag"

// Handler wires HTTP handlers to the advice composer.
type Handler struct {
	Composer advice.Composer
	Metrics  *metrics.Metrics
}

// NewHandler constructs a Handler.
func NewHandler(composer advice.Composer, m *metrics.Metrics) *Handler {
	return &Handler{Composer: composer, Metrics: m}
}

// RegisterRoutes attaches the follow-up route.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST(Route, h.followUp)
}

func (h *Handler) followUp(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.Metrics.ObserveFollowUp(metrics.OutcomeInvalid)
		respond.Error(c, http.StatusBadRequest, "validation_error", MsgNotJSON)
		return
	}

	req, err := parseRequest(c.GetHeader("Content-Type"), body)
	if err != nil {
		h.Metrics.ObserveFollowUp(metrics.OutcomeInvalid)
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", vErr.Message)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", MsgNotJSON)
		return
	}

	requestID := middleware.RequestIDFromContext(c)
	start := time.Now()
	res, err := h.compose(c.Request.Context(), advice.Input{
		Goal:      req.Dashboard.InitialUserQuery,
		State:     req.Dashboard,
		Query:     req.UpdatePrompt,
		RequestID: requestID,
	})
	h.Metrics.ObserveCompose(time.Since(start))
	if err != nil {
		h.Metrics.ObserveFollowUp(metrics.OutcomeError)
		telemetry.Error("followup.compose_failed", map[string]any{
			"request_id": requestID,
			"error":      err,
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", MsgInternal)
		return
	}

	h.Metrics.ObserveFollowUp(metrics.OutcomeOK)
	h.Metrics.ObserveRules(res.Rules)
	c.Set("adviceRules", res.Rules)
	respond.OK(c, Response{FollowUpMarkdown: res.Markdown})
}

// compose runs the composer and turns a panic into an error.
func (h *Handler) compose(ctx context.Context, in advice.Input) (res advice.Result, err error) {
	if h.Composer == nil {
		return advice.Result{}, errors.New("composer not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("followup.compose_panic", map[string]any{
				"request_id": in.RequestID,
				"panic":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
			})
			err = fmt.Errorf("%w: %v", ErrComposePanic, rec)
		}
	}()
	return h.Composer.Compose(ctx, in)
}
