package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/parla-backend/internal/http/response"
	"github.com/yungbote/parla-backend/internal/platform/apierr"
	"github.com/yungbote/parla-backend/internal/platform/logger"
)

// Recovery turns a handler panic into a 500 JSON body.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("Handler panic", "path", c.FullPath(), "panic", fmt.Sprint(recovered))
		response.RespondError(c, apierr.Internal("internal server error", fmt.Errorf("panic: %v", recovered)))
	})
}
