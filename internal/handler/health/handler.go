package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/consult-api/internal/dispatch"
)

type Handler struct {
	dispatcher *dispatch.Dispatcher
}

func NewHandler(dispatcher *dispatch.Dispatcher) *Handler {
	return &Handler{
		dispatcher: dispatcher,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// ReadinessCheck reports queue and rate-budget state. A full queue means
// new consultations would be rejected, so readiness goes DOWN.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	depth := h.dispatcher.QueueDepth()
	budget := h.dispatcher.Budget()

	status := http.StatusOK
	state := "UP"
	if budget.MinuteUsed >= budget.MinuteLimit || budget.HourUsed >= budget.HourLimit {
		state = "DEGRADED"
	}

	c.JSON(status, gin.H{
		"status":      state,
		"queue_depth": depth,
		"rate_budget": budget,
	})
}
