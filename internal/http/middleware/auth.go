package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edgeslab/edges-backend/internal/http/response"
	"github.com/edgeslab/edges-backend/internal/platform/apierr"
	"github.com/edgeslab/edges-backend/internal/platform/ctxutil"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
	"github.com/edgeslab/edges-backend/internal/services"
)

type AuthMiddleware struct {
	log      *logger.Logger
	identity services.IdentityService
}

func NewAuthMiddleware(log *logger.Logger, identity services.IdentityService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), identity: identity}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		if token == "" {
			response.AbortAPIError(c, apierr.Unauthorized(errors.New("missing or invalid token")))
			return
		}
		id, err := am.identity.Verify(c.Request.Context(), token)
		if err != nil {
			am.log.Debug("token verification failed", "error", err)
			response.AbortAPIError(c, err)
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
