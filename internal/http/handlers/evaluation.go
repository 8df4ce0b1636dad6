package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/edgeslab/edges-backend/internal/http/response"
	"github.com/edgeslab/edges-backend/internal/services"
)

type EvaluationHandler struct {
	evals services.EvaluationService
	usage services.UsageService
}

func NewEvaluationHandler(evals services.EvaluationService, usage services.UsageService) *EvaluationHandler {
	return &EvaluationHandler{evals: evals, usage: usage}
}

// GET /api/evaluations
func (h *EvaluationHandler) List(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		return
	}
	concepts, err := h.evals.List(c.Request.Context(), id.UserID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"evaluations": concepts})
}

// GET /api/subscription
func (h *EvaluationHandler) Subscription(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		return
	}
	response.RespondOK(c, gin.H{"subscription": h.usage.Snapshot(c.Request.Context(), id.UserID)})
}
