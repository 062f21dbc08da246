package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/parla-backend/internal/http/response"
	"github.com/yungbote/parla-backend/internal/services"
)

type SessionHandler struct {
	sessionService      services.SessionService
	conversationService services.ConversationService
}

func NewSessionHandler(sessionService services.SessionService, conversationService services.ConversationService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService, conversationService: conversationService}
}

type createSessionRequest struct {
	UserID  string   `json:"userId" binding:"required,uuid"`
	Targets []string `json:"targets" binding:"max=50,dive,notblank,max=200"`
}

// POST /session/create
func (sh *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	s, err := sh.sessionService.Create(c.Request.Context(), services.CreateSessionInput{
		UserID:  parseUUID(req.UserID),
		Targets: req.Targets,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessionId": s.ID})
}

// PATCH /session/:id/progress
func (sh *SessionHandler) UpdateProgress(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.SessionProgressInput
	if !bindJSON(c, &req) {
		return
	}
	if err := sh.sessionService.UpdateProgress(c.Request.Context(), id, req); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

type sessionSummaryRequest struct {
	UsedTargets []string `json:"usedTargets" binding:"max=50,dive,max=200"`
	Notes       string   `json:"notes" binding:"max=2000"`
}

// POST /session/:id/summary
func (sh *SessionHandler) Summarize(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req sessionSummaryRequest
	if !bindJSON(c, &req) {
		return
	}
	s, err := sh.sessionService.Summarize(c.Request.Context(), id, services.SessionSummaryInput{
		UsedTargets: req.UsedTargets,
		Notes:       req.Notes,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessionId": s.ID, "adoptionScore": s.AdoptionScore})
}

// GET /sessions
func (sh *SessionHandler) List(c *gin.Context) {
	rows, err := sh.sessionService.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": rows})
}

type liveSessionRequest struct {
	WeekID         int                       `json:"weekId" binding:"min=0,max=520"`
	FocusAreas     []string                  `json:"focusAreas" binding:"max=10,dive,max=100"`
	Transcript     []services.TranscriptLine `json:"transcript" binding:"required,min=1,max=500,dive"`
	InsightSummary string                    `json:"insightSummary" binding:"max=5000"`
}

// POST /session/live
func (sh *SessionHandler) SaveLive(c *gin.Context) {
	var req liveSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := sh.conversationService.SaveLive(c.Request.Context(), services.LiveSessionInput{
		WeekID:         req.WeekID,
		FocusAreas:     req.FocusAreas,
		Transcript:     req.Transcript,
		InsightSummary: req.InsightSummary,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessionId": res.Session.ID, "feedback": res.Feedback})
}

// GET /conversation-sessions
func (sh *SessionHandler) ListConversations(c *gin.Context) {
	rows, err := sh.conversationService.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": rows})
}

// GET /conversation-sessions/:id
func (sh *SessionHandler) GetConversation(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	view, err := sh.conversationService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, view)
}
