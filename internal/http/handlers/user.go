package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/parla-backend/internal/http/response"
	"github.com/yungbote/parla-backend/internal/services"
)

type UserHandler struct {
	userService     services.UserService
	progressService services.ProgressService
}

func NewUserHandler(userService services.UserService, progressService services.ProgressService) *UserHandler {
	return &UserHandler{userService: userService, progressService: progressService}
}

// GET /me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// PATCH /me/preferences
// body: { "displayName"?: "...", "cefrLevel"?: "B2", "correctionMode"?: "deferred" }
func (uh *UserHandler) UpdatePreferences(c *gin.Context) {
	var req services.PreferencesUpdate
	if !bindJSON(c, &req) {
		return
	}
	me, err := uh.userService.UpdatePreferences(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// GET /progress
func (uh *UserHandler) GetProgress(c *gin.Context) {
	p, err := uh.progressService.Get(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": p})
}
