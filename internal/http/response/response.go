package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/parla-backend/internal/platform/apierr"
)

// ErrorBody is the JSON shape of every non-2xx response.
type ErrorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// RespondError writes err as JSON. Errors that are not *apierr.Error become a
// generic 500 so internal causes never reach the client.
func RespondError(c *gin.Context, err error) {
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status == 0 {
		ae = apierr.Internal("internal server error", err)
	}
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(ae.Status, ErrorBody{
		Error:   ae.Message(),
		Code:    ae.Code,
		Details: ae.Details,
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
