package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/parla-backend/internal/http/response"
	"github.com/yungbote/parla-backend/internal/services"
)

type TargetHandler struct {
	targetService services.TargetService
	errorService  services.UserErrorService
}

func NewTargetHandler(targetService services.TargetService, errorService services.UserErrorService) *TargetHandler {
	return &TargetHandler{targetService: targetService, errorService: errorService}
}

type addTargetRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
	Phrase string `json:"phrase" binding:"required,notblank,max=200"`
	CEFR   string `json:"cefr" binding:"omitempty,cefr"`
}

type addTargetQuery struct {
	Strict bool `form:"strict"`
}

// POST /targets/add[?strict=true]
func (th *TargetHandler) Add(c *gin.Context) {
	var q addTargetQuery
	if !bindQuery(c, &q) {
		return
	}
	var req addTargetRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := th.targetService.Add(c.Request.Context(), services.AddTargetInput{
		UserID: parseUUID(req.UserID),
		Phrase: req.Phrase,
		CEFR:   req.CEFR,
		Strict: q.Strict,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"targetId":      res.Target.ID,
		"phrase":        res.Target.Phrase,
		"status":        res.Target.Status,
		"alreadyExists": res.AlreadyExists,
	})
}

type listTargetsQuery struct {
	Status string `form:"status" binding:"omitempty,tstatus"`
}

// GET /targets?status=planned
func (th *TargetHandler) List(c *gin.Context) {
	var q listTargetsQuery
	if !bindQuery(c, &q) {
		return
	}
	rows, err := th.targetService.List(c.Request.Context(), q.Status)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"targets": rows})
}

type updateTargetRequest struct {
	Status string `json:"status" binding:"required,tstatus"`
}

// PATCH /targets/:id
func (th *TargetHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req updateTargetRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := th.targetService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"target": t})
}

type listErrorsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// GET /user-errors?limit=N
func (th *TargetHandler) ListErrors(c *gin.Context) {
	var q listErrorsQuery
	if !bindQuery(c, &q) {
		return
	}
	rows, err := th.errorService.List(c.Request.Context(), q.Limit)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"errors": rows, "count": len(rows)})
}
