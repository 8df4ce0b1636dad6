package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edgeslab/edges-backend/internal/http/response"
	"github.com/edgeslab/edges-backend/internal/platform/apierr"
	"github.com/edgeslab/edges-backend/internal/services"
)

const maxWebhookBytes = 1 << 16

type BillingHandler struct {
	billing services.BillingService
	// fallbackOrigin builds checkout return URLs when the request has no Origin.
	fallbackOrigin string
}

func NewBillingHandler(billing services.BillingService, fallbackOrigin string) *BillingHandler {
	return &BillingHandler{billing: billing, fallbackOrigin: fallbackOrigin}
}

// GET /api/billing/plans
func (h *BillingHandler) Plans(c *gin.Context) {
	response.RespondOK(c, gin.H{"plans": h.billing.Plans()})
}

type checkoutRequest struct {
	PlanID string `json:"planId" binding:"required"`
}

// POST /api/billing/checkout
func (h *BillingHandler) Checkout(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	origin := strings.TrimSpace(c.GetHeader("Origin"))
	if origin == "" {
		origin = h.fallbackOrigin
	}
	res, err := h.billing.CreateCheckout(c.Request.Context(), *id, req.PlanID, origin)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/billing/webhook
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(payload) > maxWebhookBytes {
		response.RespondAPIError(c, apierr.New(http.StatusRequestEntityTooLarge, "payload_too_large", errors.New("webhook payload too large")))
		return
	}
	res, err := h.billing.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}
