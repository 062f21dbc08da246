package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/parla-backend/internal/http/response"
	"github.com/yungbote/parla-backend/internal/platform/apierr"
	"github.com/yungbote/parla-backend/internal/platform/validate"
)

// bindJSON decodes and validates the body, answering 400 itself on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		details := validate.Describe(err)
		if errors.Is(err, io.EOF) {
			details = "body: required"
		}
		response.RespondError(c, apierr.BadRequest("invalid request body").WithDetails(details))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		response.RespondError(c, apierr.BadRequest("invalid query").WithDetails(validate.Describe(err)))
		return false
	}
	return true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, apierr.BadRequest("invalid id").WithDetails(name+": uuid"))
		return uuid.Nil, false
	}
	return id, true
}

// parseUUID is for ids already checked by the `uuid` binding tag.
func parseUUID(s string) uuid.UUID {
	id, _ := uuid.Parse(s)
	return id
}
