package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/parla-backend/internal/http/response"
	"github.com/yungbote/parla-backend/internal/services"
)

type RecommendationHandler struct {
	recommendationService services.RecommendationService
}

func NewRecommendationHandler(recommendationService services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendationService: recommendationService}
}

// GET /recommendations
func (rh *RecommendationHandler) List(c *gin.Context) {
	rows, err := rh.recommendationService.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"actions": rows})
}

// POST /recommendations/generate
func (rh *RecommendationHandler) Generate(c *gin.Context) {
	rows, err := rh.recommendationService.Generate(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"actions": rows})
}

type completeRecommendationRequest struct {
	ID string `json:"id" binding:"required,uuid"`
}

// POST /recommendations/complete
func (rh *RecommendationHandler) Complete(c *gin.Context) {
	var req completeRecommendationRequest
	if !bindJSON(c, &req) {
		return
	}
	action, err := rh.recommendationService.Complete(c.Request.Context(), parseUUID(req.ID))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "action": action})
}

// DELETE /recommendations/clear
func (rh *RecommendationHandler) Clear(c *gin.Context) {
	n, err := rh.recommendationService.Clear(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "deleted_count": n})
}
