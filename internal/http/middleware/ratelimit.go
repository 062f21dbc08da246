package middleware

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/parla-backend/internal/clients/redis"
	"github.com/yungbote/parla-backend/internal/http/response"
	"github.com/yungbote/parla-backend/internal/observability"
	"github.com/yungbote/parla-backend/internal/platform/apierr"
	"github.com/yungbote/parla-backend/internal/platform/ctxutil"
	"github.com/yungbote/parla-backend/internal/platform/logger"
)

// RateLimit caps completion routes per authenticated user. A nil limiter
// disables the check; limiter errors fail open.
func RateLimit(log *logger.Logger, limiter redis.Limiter, scope string) gin.HandlerFunc {
	log = log.With("middleware", "RateLimit", "scope", scope)
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		userID := ctxutil.UserID(c.Request.Context())
		key := scope + ":" + userID.String()
		ok, retryAfter, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("Rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if !ok {
			secs := int(math.Ceil(retryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			observability.Current().IncRateLimited(scope)
			c.Header("Retry-After", strconv.Itoa(secs))
			response.RespondError(c, apierr.TooManyRequests("too many requests"))
			return
		}
		c.Next()
	}
}
