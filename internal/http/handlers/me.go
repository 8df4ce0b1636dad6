package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/edgeslab/edges-backend/internal/http/response"
	"github.com/edgeslab/edges-backend/internal/platform/apierr"
	"github.com/edgeslab/edges-backend/internal/platform/ctxutil"
)

type MeHandler struct{}

func NewMeHandler() *MeHandler { return &MeHandler{} }

// GET /api/me
func (h *MeHandler) GetMe(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if !id.Authenticated() {
		response.RespondAPIError(c, apierr.Unauthorized(errors.New("not signed in")))
		return
	}
	response.RespondOK(c, gin.H{"user": gin.H{"id": id.UserID, "email": id.Email}})
}

func identityFrom(c *gin.Context) (*ctxutil.Identity, bool) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if !id.Authenticated() {
		response.RespondAPIError(c, apierr.Unauthorized(errors.New("not signed in")))
		return nil, false
	}
	return id, true
}
