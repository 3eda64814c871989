package consultation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/consult-api/internal/handler"
	"github.com/jwalitptl/consult-api/internal/middleware"
	"github.com/jwalitptl/consult-api/internal/model"
	"github.com/jwalitptl/consult-api/internal/service/consultation"
	pkgerrors "github.com/jwalitptl/consult-api/pkg/errors"
)

type Handler struct {
	svc consultation.Service
}

func NewHandler(svc consultation.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	consultations := r.Group("/consultations")
	{
		consultations.POST("", h.CreateConsultation)
	}
}

// CreateConsultation runs the pipeline for one screening result. Every
// well-formed request yields a consultation; the fallback path is invisible
// to the status code.
func (h *Handler) CreateConsultation(c *gin.Context) {
	var req model.ConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.Error(c, pkgerrors.NewValidation("invalid request body", err))
		return
	}

	ctx := consultation.WithRequestID(c.Request.Context(), c.GetString(middleware.ContextRequestID))
	resp, err := h.svc.Process(ctx, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}
