package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/parla-backend/internal/data/repos"
	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/platform/apierr"
	"github.com/yungbote/parla-backend/internal/platform/dbctx"
	"github.com/yungbote/parla-backend/internal/platform/logger"
	"github.com/yungbote/parla-backend/internal/platform/validate"
)

const (
	plannerErrorLimit  = 5
	plannerTargetLimit = 10
	maxPlannedActions  = 5
)

// PlannedAction is one action proposed by the planner model.
type PlannedAction struct {
	Title       string `json:"title" validate:"required,notblank,max=80"`
	Description string `json:"description" validate:"max=500"`
	Kind        string `json:"kind" validate:"omitempty,oneof=practice review conversation"`
}

type plannerOutput struct {
	Actions []PlannedAction `json:"actions"`
}

type RecommendationService interface {
	List(ctx context.Context) ([]*types.RecommendedAction, error)
	// Generate asks the planner for new actions and stores them. Invalid or
	// empty planner output falls back to actions derived from top errors.
	Generate(ctx context.Context) ([]*types.RecommendedAction, error)
	Complete(ctx context.Context, id uuid.UUID) (*types.RecommendedAction, error)
	Clear(ctx context.Context) (int64, error)
}

type recommendationService struct {
	log        *logger.Logger
	userRepo   repos.UserRepo
	actionRepo repos.RecommendedActionRepo
	errorRepo  repos.UserErrorRepo
	targetRepo repos.TargetRepo
	gateway    CompletionGateway
}

func NewRecommendationService(
	log *logger.Logger,
	userRepo repos.UserRepo,
	actionRepo repos.RecommendedActionRepo,
	errorRepo repos.UserErrorRepo,
	targetRepo repos.TargetRepo,
	gateway CompletionGateway,
) RecommendationService {
	return &recommendationService{
		log:        log.With("service", "RecommendationService"),
		userRepo:   userRepo,
		actionRepo: actionRepo,
		errorRepo:  errorRepo,
		targetRepo: targetRepo,
		gateway:    gateway,
	}
}

func (rs *recommendationService) List(ctx context.Context) ([]*types.RecommendedAction, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := rs.actionRepo.ListByUser(dbctx.Of(ctx), userID)
	if err != nil {
		return nil, apierr.Internal("failed to list recommendations", err)
	}
	return rows, nil
}

func (rs *recommendationService) Generate(ctx context.Context) ([]*types.RecommendedAction, error) {
	u, err := currentUser(ctx, rs.userRepo)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Of(ctx)
	topErrors, err := rs.errorRepo.ListTop(dbc, u.ID, plannerErrorLimit)
	if err != nil {
		return nil, apierr.Internal("failed to load errors", err)
	}
	targets, err := rs.targetRepo.ListActive(dbc, u.ID, plannerTargetLimit)
	if err != nil {
		return nil, apierr.Internal("failed to load targets", err)
	}

	in := PlanInput{Level: u.CEFRLevel}
	for _, e := range topErrors {
		in.Errors = append(in.Errors, PlanError{Type: e.Type, Example: e.Example, Correction: e.Correction, Count: e.Count})
	}
	for _, t := range targets {
		in.Targets = append(in.Targets, PlanTarget{Phrase: t.Phrase, Status: t.Status})
	}

	var planned []PlannedAction
	raw, err := rs.gateway.Plan(ctx, in)
	if err != nil {
		rs.log.Warn("Planner call failed; using fallback actions", "user_id", u.ID, "error", err.Error())
	} else {
		planned = ParsePlannedActions(raw)
	}
	if len(planned) == 0 {
		planned = FallbackActions(topErrors)
	}

	rows := make([]*types.RecommendedAction, 0, len(planned))
	for _, a := range planned {
		kind := a.Kind
		if kind == "" {
			kind = "practice"
		}
		rows = append(rows, &types.RecommendedAction{
			UserID:      u.ID,
			Title:       strings.TrimSpace(a.Title),
			Description: strings.TrimSpace(a.Description),
			Kind:        kind,
		})
	}
	created, err := rs.actionRepo.Create(dbc, rows)
	if err != nil {
		return nil, apierr.Internal("failed to store recommendations", err)
	}
	rs.log.Info("Recommendations generated", "user_id", u.ID, "count", len(created))
	return created, nil
}

func (rs *recommendationService) Complete(ctx context.Context, id uuid.UUID) (*types.RecommendedAction, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}
	row, err := rs.actionRepo.MarkComplete(dbctx.Of(ctx), userID, id, time.Now().UTC())
	if err != nil {
		return nil, apierr.Internal("failed to complete recommendation", err)
	}
	if row == nil {
		return nil, apierr.NotFound("recommendation not found")
	}
	return row, nil
}

func (rs *recommendationService) Clear(ctx context.Context) (int64, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return 0, err
	}
	n, err := rs.actionRepo.DeleteAllByUser(dbctx.Of(ctx), userID)
	if err != nil {
		return 0, apierr.Internal("failed to clear recommendations", err)
	}
	rs.log.Info("Recommendations cleared", "user_id", userID, "deleted", n)
	return n, nil
}

// ParsePlannedActions decodes planner JSON and keeps only actions that pass
// validation, capped at five.
func ParsePlannedActions(raw string) []PlannedAction {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out plannerOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	kept := make([]PlannedAction, 0, len(out.Actions))
	for _, a := range out.Actions {
		if err := validate.Struct(a); err != nil {
			continue
		}
		kept = append(kept, a)
		if len(kept) == maxPlannedActions {
			break
		}
	}
	return kept
}

// FallbackActions derives one review action per recorded error, or a single
// open conversation prompt when there are none.
func FallbackActions(topErrors []*types.UserError) []PlannedAction {
	if len(topErrors) == 0 {
		return []PlannedAction{{
			Title:       "Have a free conversation",
			Description: "Talk for five minutes about your week and try one new phrase.",
			Kind:        "conversation",
		}}
	}
	out := make([]PlannedAction, 0, len(topErrors))
	for _, e := range topErrors {
		out = append(out, PlannedAction{
			Title:       truncate(fmt.Sprintf("Review: %s", e.Correction), 80),
			Description: fmt.Sprintf("You said %q %d times. Practice saying %q in three new sentences.", e.Example, e.Count, e.Correction),
			Kind:        "review",
		})
		if len(out) == maxPlannedActions {
			break
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
