package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/parla-backend/internal/http/response"
	"github.com/yungbote/parla-backend/internal/platform/apierr"
	"github.com/yungbote/parla-backend/internal/platform/logger"
	"github.com/yungbote/parla-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), authService: authService}
}

// RequireAuth verifies the bearer token and resolves the caller's profile
// before any handler runs. Failures abort with 401, or 404 when the token is
// valid but no profile exists.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.RespondError(c, apierr.Unauthorized("missing or invalid token"))
			return
		}
		ctx, _, err := am.authService.SetContextFromToken(c.Request.Context(), token)
		if err != nil {
			am.log.Debug("Auth rejected", "path", c.FullPath(), "error", err)
			response.RespondError(c, err)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return strings.TrimSpace(c.Query("token"))
}
