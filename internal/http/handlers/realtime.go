package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/parla-backend/internal/http/response"
	"github.com/yungbote/parla-backend/internal/services"
)

type RealtimeHandler struct {
	realtimeService services.RealtimeService
}

func NewRealtimeHandler(realtimeService services.RealtimeService) *RealtimeHandler {
	return &RealtimeHandler{realtimeService: realtimeService}
}

// POST /realtime-session
func (rh *RealtimeHandler) SessionConfig(c *gin.Context) {
	cfg, err := rh.realtimeService.SessionConfig(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, cfg)
}

type realtimeReplyRequest struct {
	Input      string          `json:"input" binding:"required,notblank,max=5000"`
	FocusAreas []string        `json:"focusAreas" binding:"max=10,dive,max=100"`
	Level      string          `json:"level" binding:"omitempty,cefr"`
	Messages   []services.Turn `json:"messages" binding:"max=100,dive"`
}

// POST /realtime
// Upstream model failures still answer 200 with a fallback reply.
func (rh *RealtimeHandler) Reply(c *gin.Context) {
	var req realtimeReplyRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := rh.realtimeService.Reply(c.Request.Context(), services.RealtimeReplyInput{
		Input:      req.Input,
		FocusAreas: req.FocusAreas,
		Level:      req.Level,
		Messages:   req.Messages,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reply": out.Text})
}

type toolCallRequest struct {
	SessionID *uuid.UUID      `json:"sessionId"`
	Name      string          `json:"name" binding:"required,oneof=mark_target_used add_correction end_session navigate"`
	Arguments json.RawMessage `json:"arguments"`
}

// POST /realtime/tools
func (rh *RealtimeHandler) ExecuteTool(c *gin.Context) {
	var req toolCallRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := rh.realtimeService.ExecuteTool(c.Request.Context(), services.ToolCall{
		SessionID: req.SessionID,
		Name:      req.Name,
		Arguments: req.Arguments,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, res)
}
